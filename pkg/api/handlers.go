package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goran-ethernal/StarkIndexor/internal/address"
	"github.com/goran-ethernal/StarkIndexor/internal/deployment"
	"github.com/goran-ethernal/StarkIndexor/internal/logger"
	"github.com/goran-ethernal/StarkIndexor/internal/query"
	"github.com/goran-ethernal/StarkIndexor/internal/store"
)

// Handler handles HTTP requests for the API.
type Handler struct {
	service *query.Service
	log     *logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(service *query.Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

// Health returns the service health.
// @Summary Health check
// @Description Report service liveness
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Service health"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	})
}

// GetEvents retrieves one page of indexed events.
// @Summary Query events
// @Description Retrieve indexed events with filtering, cursor pagination, and sorting
// @Tags Events
// @Produce json
// @Param contracts query string false "Comma-separated contract addresses"
// @Param event_types query string false "Comma-separated event type names"
// @Param event_keys query string false "Comma-separated raw key felts"
// @Param from_block query integer false "Inclusive lower block bound"
// @Param to_block query integer false "Inclusive upper block bound"
// @Param from_time query string false "Inclusive lower timestamp bound (RFC 3339)"
// @Param to_time query string false "Inclusive upper timestamp bound (RFC 3339)"
// @Param transaction_hash query string false "Exact transaction hash"
// @Param first query int false "Page size" default(50)
// @Param after query string false "Opaque cursor from a previous page"
// @Param order query string false "Sort order" Enums(BLOCK_NUMBER_ASC, BLOCK_NUMBER_DESC, TIMESTAMP_ASC, TIMESTAMP_DESC)
// @Success 200 {object} EventsResponse "One page of events"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /events [get]
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	filter, page, order, err := parseEventQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := h.service.Events(r.Context(), filter, page, order)
	if err != nil {
		h.respondQueryError(w, "failed to query events", err)
		return
	}

	respondJSON(w, http.StatusOK, toEventsResponse(conn))
}

// GetEventStats aggregates filter-matched events.
// @Summary Event statistics
// @Description Aggregate counts, block range, and time range over filter-matched events
// @Tags Events
// @Produce json
// @Param contracts query string false "Comma-separated contract addresses"
// @Param event_types query string false "Comma-separated event type names"
// @Param from_block query integer false "Inclusive lower block bound"
// @Param to_block query integer false "Inclusive upper block bound"
// @Success 200 {object} StatsResponse "Aggregated statistics"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /events/stats [get]
func (h *Handler) GetEventStats(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.service.EventStats(r.Context(), filter)
	if err != nil {
		h.respondQueryError(w, "failed to compute event stats", err)
		return
	}

	respondJSON(w, http.StatusOK, toStatsResponse(stats))
}

// GetSyncStatus reports per-contract sync progress against the chain head.
// @Summary Sync status
// @Description Report the chain head and how far each indexed contract is behind it
// @Tags Sync
// @Produce json
// @Param contracts query string false "Comma-separated contract addresses to narrow the report"
// @Success 200 {object} query.SyncStatus "Sync status"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /sync-status [get]
func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.SyncStatus(r.Context(), splitCSV(r.URL.Query().Get("contracts")))
	if err != nil {
		h.respondQueryError(w, "failed to read sync status", err)
		return
	}

	respondJSON(w, http.StatusOK, status)
}

// ListDeployments lists deployment catalog entries.
// @Summary List deployments
// @Description List deployment catalog entries, optionally narrowed by status
// @Tags Deployments
// @Produce json
// @Param status query string false "Deployment status" Enums(active, paused, archived)
// @Success 200 {array} DeploymentPayload "Deployments"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /deployments [get]
func (h *Handler) ListDeployments(w http.ResponseWriter, r *http.Request) {
	deployments, err := h.service.Deployments(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.respondQueryError(w, "failed to list deployments", err)
		return
	}

	payloads := make([]DeploymentPayload, 0, len(deployments))
	for _, dep := range deployments {
		payloads = append(payloads, toDeploymentPayload(dep))
	}

	respondJSON(w, http.StatusOK, payloads)
}

// GetDeployment returns one deployment catalog entry.
// @Summary Get a deployment
// @Description Return one deployment catalog entry by id
// @Tags Deployments
// @Produce json
// @Param id path string true "Deployment id"
// @Success 200 {object} DeploymentPayload "Deployment"
// @Failure 404 {object} ErrorResponse "Deployment not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /deployments/{id} [get]
func (h *Handler) GetDeployment(w http.ResponseWriter, r *http.Request) {
	dep, err := h.service.Deployment(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondQueryError(w, "failed to read deployment", err)
		return
	}

	respondJSON(w, http.StatusOK, toDeploymentPayload(dep))
}

// GetDeploymentEvents retrieves events scoped to a deployment's contracts.
// @Summary Query deployment events
// @Description Retrieve events scoped to a deployment's contract set
// @Tags Deployments
// @Produce json
// @Param id path string true "Deployment id"
// @Param contracts query string false "Comma-separated contract addresses to intersect with the deployment's"
// @Param event_types query string false "Comma-separated event type names"
// @Param first query int false "Page size" default(50)
// @Param after query string false "Opaque cursor from a previous page"
// @Param order query string false "Sort order" Enums(BLOCK_NUMBER_ASC, BLOCK_NUMBER_DESC, TIMESTAMP_ASC, TIMESTAMP_DESC)
// @Success 200 {object} EventsResponse "One page of events"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 404 {object} ErrorResponse "Deployment not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /deployments/{id}/events [get]
func (h *Handler) GetDeploymentEvents(w http.ResponseWriter, r *http.Request) {
	filter, page, order, err := parseEventQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := h.service.DeploymentEvents(r.Context(), r.PathValue("id"), filter, page, order)
	if err != nil {
		h.respondQueryError(w, "failed to query deployment events", err)
		return
	}

	respondJSON(w, http.StatusOK, toEventsResponse(conn))
}

// GetDeploymentEventStats aggregates a deployment's filter-matched events.
// @Summary Deployment event statistics
// @Description Aggregate statistics scoped to a deployment's contract set
// @Tags Deployments
// @Produce json
// @Param id path string true "Deployment id"
// @Param event_types query string false "Comma-separated event type names"
// @Success 200 {object} StatsResponse "Aggregated statistics"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 404 {object} ErrorResponse "Deployment not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /deployments/{id}/events/stats [get]
func (h *Handler) GetDeploymentEventStats(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.service.DeploymentEventStats(r.Context(), r.PathValue("id"), filter)
	if err != nil {
		h.respondQueryError(w, "failed to compute deployment event stats", err)
		return
	}

	respondJSON(w, http.StatusOK, toStatsResponse(stats))
}

// GetDeploymentSyncStatus reports sync progress for a deployment's contracts.
// @Summary Deployment sync status
// @Description Report sync progress scoped to a deployment's contract set
// @Tags Deployments
// @Produce json
// @Param id path string true "Deployment id"
// @Success 200 {object} query.SyncStatus "Sync status"
// @Failure 404 {object} ErrorResponse "Deployment not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /deployments/{id}/sync-status [get]
func (h *Handler) GetDeploymentSyncStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.DeploymentSyncStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondQueryError(w, "failed to read deployment sync status", err)
		return
	}

	respondJSON(w, http.StatusOK, status)
}

// respondQueryError maps service errors onto HTTP statuses.
func (h *Handler) respondQueryError(w http.ResponseWriter, msg string, err error) {
	var invalid *address.InvalidAddressError
	switch {
	case errors.As(err, &invalid):
		respondError(w, http.StatusBadRequest, invalid.Error())
	case errors.Is(err, store.ErrInvalidCursor):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, deployment.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		h.log.Errorf("%s: %v", msg, err)
		respondError(w, http.StatusInternalServerError, msg)
	}
}

// parseEventQuery parses the filter, pagination, and order parameters.
func parseEventQuery(r *http.Request) (store.Filter, store.Pagination, store.Order, error) {
	filter, err := parseFilter(r)
	if err != nil {
		return store.Filter{}, store.Pagination{}, "", err
	}

	page := store.Pagination{After: r.URL.Query().Get("after")}
	if first := r.URL.Query().Get("first"); first != "" {
		n, err := strconv.Atoi(first)
		if err != nil || n < 0 {
			return store.Filter{}, store.Pagination{}, "", fmt.Errorf("invalid first: %q", first)
		}
		page.First = n
	}

	order := store.DefaultOrder
	if raw := r.URL.Query().Get("order"); raw != "" {
		order = store.Order(strings.ToUpper(raw))
		switch order {
		case store.OrderBlockNumberAsc, store.OrderBlockNumberDesc,
			store.OrderTimestampAsc, store.OrderTimestampDesc:
		default:
			return store.Filter{}, store.Pagination{}, "", fmt.Errorf("invalid order: %q", raw)
		}
	}

	return filter, page, order, nil
}

// parseFilter parses event filter parameters.
func parseFilter(r *http.Request) (store.Filter, error) {
	q := r.URL.Query()

	filter := store.Filter{
		ContractAddresses: splitCSV(q.Get("contracts")),
		EventTypes:        splitCSV(q.Get("event_types")),
		EventKeys:         splitCSV(q.Get("event_keys")),
		TransactionHash:   q.Get("transaction_hash"),
	}

	var err error
	if filter.FromBlock, err = parseBlockParam(q.Get("from_block"), "from_block"); err != nil {
		return store.Filter{}, err
	}
	if filter.ToBlock, err = parseBlockParam(q.Get("to_block"), "to_block"); err != nil {
		return store.Filter{}, err
	}
	if filter.FromBlock != nil && filter.ToBlock != nil && *filter.FromBlock > *filter.ToBlock {
		return store.Filter{}, fmt.Errorf("from_block cannot be greater than to_block")
	}

	if filter.FromTimestamp, err = parseTimeParam(q.Get("from_time"), "from_time"); err != nil {
		return store.Filter{}, err
	}
	if filter.ToTimestamp, err = parseTimeParam(q.Get("to_time"), "to_time"); err != nil {
		return store.Filter{}, err
	}

	return filter, nil
}

func parseBlockParam(raw, name string) (*uint64, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return &n, nil
}

func parseTimeParam(raw, name string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return &ts, nil
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")

	// Encode JSON first to catch any errors before writing status
	encoded, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)

	if _, err := w.Write(encoded); err != nil {
		// Headers already sent, nothing left to do
		return
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	response := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}
	respondJSON(w, status, response)
}
