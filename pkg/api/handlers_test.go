package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goran-ethernal/StarkIndexor/internal/address"
	"github.com/goran-ethernal/StarkIndexor/internal/db"
	"github.com/goran-ethernal/StarkIndexor/internal/deployment"
	"github.com/goran-ethernal/StarkIndexor/internal/logger"
	"github.com/goran-ethernal/StarkIndexor/internal/query"
	"github.com/goran-ethernal/StarkIndexor/internal/realtime"
	"github.com/goran-ethernal/StarkIndexor/internal/store"
	"github.com/goran-ethernal/StarkIndexor/internal/store/migrations"
)

type fakeChainReader struct {
	latest uint64
}

func (f *fakeChainReader) LatestBlock(_ context.Context) (uint64, error) {
	return f.latest, nil
}

type apiEnv struct {
	handler   *Handler
	contractA string
	contractB string
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "api.db")
	require.NoError(t, migrations.RunMigrations(dbPath))

	database, err := db.NewSQLiteDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	log := logger.NewNopLogger()
	eventStore := store.NewEventStore(database, log)
	fabric := realtime.NewFabric(64, log)
	gateway := deployment.NewGateway(database, log)

	service := query.NewService(eventStore, fabric, gateway, &fakeChainReader{latest: 200}, log)

	env := &apiEnv{handler: NewHandler(service, log)}

	env.contractA, err = address.Normalize("0xa")
	require.NoError(t, err)
	env.contractB, err = address.Normalize("0xb")
	require.NoError(t, err)

	env.seed(t, database, eventStore)

	return env
}

func (e *apiEnv) seed(t *testing.T, database *sql.DB, eventStore *store.EventStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	newEvent := func(tx string, block uint64, contract, eventType string) *store.Event {
		return &store.Event{
			ID:              store.EventID(tx, 0),
			ContractAddress: contract,
			EventType:       eventType,
			BlockNumber:     block,
			TransactionHash: tx,
			Timestamp:       base.Add(time.Duration(block) * time.Second),
			RawKeys:         []string{"0x99"},
			RawData:         []string{"0x1", "0x0"},
			DecodedData:     map[string]any{"value": "1"},
		}
	}

	_, err := eventStore.InsertBatch(ctx, e.contractA, []*store.Event{
		newEvent("0xa1", 100, e.contractA, "Transfer"),
		newEvent("0xa2", 150, e.contractA, "Approval"),
	}, 150)
	require.NoError(t, err)

	_, err = eventStore.InsertBatch(ctx, e.contractB, []*store.Event{
		newEvent("0xb1", 120, e.contractB, "Transfer"),
	}, 180)
	require.NoError(t, err)

	_, err = database.Exec(
		`INSERT INTO deployments (id, name, description, network, status, contract_addresses, metadata, created_at, updated_at)
		 VALUES ('dep-a', 'alpha', '', 'mainnet', 'active', ?, '{"env":"prod"}', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`,
		`["`+e.contractA+`"]`)
	require.NoError(t, err)
}

// get runs a handler against a GET request and decodes the JSON body.
func get(t *testing.T, handler http.HandlerFunc, path string, params url.Values, pathValues map[string]string, out any) int {
	t.Helper()

	target := path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req := httptest.NewRequest(http.MethodGet, target, nil)
	for name, value := range pathValues {
		req.SetPathValue(name, value)
	}

	w := httptest.NewRecorder()
	handler(w, req)

	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w.Code
}

func TestHealth(t *testing.T) {
	env := newAPIEnv(t)

	var resp HealthResponse
	code := get(t, env.handler.Health, "/health", nil, nil, &resp)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestGetEvents(t *testing.T) {
	env := newAPIEnv(t)

	var resp EventsResponse
	code := get(t, env.handler.GetEvents, "/api/v1/events", nil, nil, &resp)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(3), resp.TotalCount)
	require.Len(t, resp.Events, 3)

	// default order is block number descending
	assert.Equal(t, uint64(150), resp.Events[0].Node.BlockNumber)
	assert.Equal(t, "Approval", resp.Events[0].Node.EventType)
	assert.False(t, resp.PageInfo.HasNext)
}

func TestGetEvents_Filtered(t *testing.T) {
	env := newAPIEnv(t)

	var resp EventsResponse
	code := get(t, env.handler.GetEvents, "/api/v1/events",
		url.Values{"contracts": {"0xA"}}, nil, &resp)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(2), resp.TotalCount)
	for _, edge := range resp.Events {
		assert.Equal(t, env.contractA, edge.Node.ContractAddress)
	}
}

func TestGetEvents_Paginated(t *testing.T) {
	env := newAPIEnv(t)

	var first EventsResponse
	code := get(t, env.handler.GetEvents, "/api/v1/events",
		url.Values{"first": {"2"}, "order": {"block_number_asc"}}, nil, &first)

	require.Equal(t, http.StatusOK, code)
	require.Len(t, first.Events, 2)
	assert.True(t, first.PageInfo.HasNext)
	assert.False(t, first.PageInfo.HasPrevious)

	var second EventsResponse
	code = get(t, env.handler.GetEvents, "/api/v1/events",
		url.Values{"first": {"2"}, "order": {"block_number_asc"}, "after": {first.PageInfo.EndCursor}}, nil, &second)

	require.Equal(t, http.StatusOK, code)
	require.Len(t, second.Events, 1)
	assert.True(t, second.PageInfo.HasPrevious)
	assert.Equal(t, uint64(150), second.Events[0].Node.BlockNumber)
}

func TestGetEvents_BadRequests(t *testing.T) {
	env := newAPIEnv(t)

	tests := []struct {
		name   string
		params url.Values
	}{
		{"invalid first", url.Values{"first": {"abc"}}},
		{"negative first", url.Values{"first": {"-1"}}},
		{"invalid order", url.Values{"order": {"SIDEWAYS"}}},
		{"invalid from_block", url.Values{"from_block": {"ten"}}},
		{"inverted block range", url.Values{"from_block": {"10"}, "to_block": {"5"}}},
		{"invalid from_time", url.Values{"from_time": {"yesterday"}}},
		{"invalid address", url.Values{"contracts": {"notanaddress"}}},
		{"invalid cursor", url.Values{"after": {"%%%"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp ErrorResponse
			code := get(t, env.handler.GetEvents, "/api/v1/events", tt.params, nil, &resp)

			require.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestGetEventStats(t *testing.T) {
	env := newAPIEnv(t)

	var resp StatsResponse
	code := get(t, env.handler.GetEventStats, "/api/v1/events/stats", nil, nil, &resp)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(3), resp.Total)
	assert.Equal(t, map[string]uint64{"Transfer": 2, "Approval": 1}, resp.ByEventType)
	require.NotNil(t, resp.BlockRange)
	assert.Equal(t, uint64(100), resp.BlockRange.Min)
	assert.Equal(t, uint64(150), resp.BlockRange.Max)
}

func TestGetSyncStatus(t *testing.T) {
	env := newAPIEnv(t)

	var resp query.SyncStatus
	code := get(t, env.handler.GetSyncStatus, "/api/v1/sync-status", nil, nil, &resp)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(200), resp.LatestChainBlock)
	require.Len(t, resp.Contracts, 2)

	var scoped query.SyncStatus
	code = get(t, env.handler.GetSyncStatus, "/api/v1/sync-status",
		url.Values{"contracts": {"0xB"}}, nil, &scoped)

	require.Equal(t, http.StatusOK, code)
	require.Len(t, scoped.Contracts, 1)
	assert.Equal(t, env.contractB, scoped.Contracts[0].Address)
}

func TestListDeployments(t *testing.T) {
	env := newAPIEnv(t)

	var resp []DeploymentPayload
	code := get(t, env.handler.ListDeployments, "/api/v1/deployments", nil, nil, &resp)

	require.Equal(t, http.StatusOK, code)
	require.Len(t, resp, 1)
	assert.Equal(t, "dep-a", resp[0].ID)
	assert.Equal(t, []string{env.contractA}, resp[0].ContractAddresses)

	var archived []DeploymentPayload
	code = get(t, env.handler.ListDeployments, "/api/v1/deployments",
		url.Values{"status": {"archived"}}, nil, &archived)

	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, archived)
}

func TestGetDeployment(t *testing.T) {
	env := newAPIEnv(t)

	var resp DeploymentPayload
	code := get(t, env.handler.GetDeployment, "/api/v1/deployments/dep-a",
		nil, map[string]string{"id": "dep-a"}, &resp)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alpha", resp.Name)
	assert.Equal(t, map[string]any{"env": "prod"}, resp.Metadata)

	var errResp ErrorResponse
	code = get(t, env.handler.GetDeployment, "/api/v1/deployments/missing",
		nil, map[string]string{"id": "missing"}, &errResp)

	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, http.StatusNotFound, errResp.Code)
}

func TestGetDeploymentEvents(t *testing.T) {
	env := newAPIEnv(t)

	var resp EventsResponse
	code := get(t, env.handler.GetDeploymentEvents, "/api/v1/deployments/dep-a/events",
		nil, map[string]string{"id": "dep-a"}, &resp)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(2), resp.TotalCount)

	// contracts outside the deployment produce an empty page
	var empty EventsResponse
	code = get(t, env.handler.GetDeploymentEvents, "/api/v1/deployments/dep-a/events",
		url.Values{"contracts": {"0xb"}}, map[string]string{"id": "dep-a"}, &empty)

	require.Equal(t, http.StatusOK, code)
	assert.Zero(t, empty.TotalCount)

	var errResp ErrorResponse
	code = get(t, env.handler.GetDeploymentEvents, "/api/v1/deployments/missing/events",
		nil, map[string]string{"id": "missing"}, &errResp)

	require.Equal(t, http.StatusNotFound, code)
}

func TestGetDeploymentEventStats(t *testing.T) {
	env := newAPIEnv(t)

	var resp StatsResponse
	code := get(t, env.handler.GetDeploymentEventStats, "/api/v1/deployments/dep-a/events/stats",
		nil, map[string]string{"id": "dep-a"}, &resp)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(2), resp.Total)
}

func TestGetDeploymentSyncStatus(t *testing.T) {
	env := newAPIEnv(t)

	var resp query.SyncStatus
	code := get(t, env.handler.GetDeploymentSyncStatus, "/api/v1/deployments/dep-a/sync-status",
		nil, map[string]string{"id": "dep-a"}, &resp)

	require.Equal(t, http.StatusOK, code)
	require.Len(t, resp.Contracts, 1)
	assert.Equal(t, env.contractA, resp.Contracts[0].Address)
}
