// Package rpc implements a typed client for the Starknet JSON-RPC surface
// the indexer consumes: block height, paged event queries, class/ABI lookup
// and block headers for timestamps. All calls go through a shared retry
// policy with jittered exponential backoff.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goran-ethernal/StarkIndexor/internal/logger"
	"github.com/goran-ethernal/StarkIndexor/pkg/config"
)

const (
	methodBlockNumber          = "starknet_blockNumber"
	methodGetEvents            = "starknet_getEvents"
	methodGetClassAt           = "starknet_getClassAt"
	methodGetBlockWithTxHashes = "starknet_getBlockWithTxHashes"

	// outer timeout for a single HTTP round trip
	requestTimeout = 30 * time.Second
)

// ErrNoAbi is returned when the node's class response carries no ABI.
var ErrNoAbi = errors.New("contract class exposes no abi")

// Client is a Starknet JSON-RPC client.
type Client struct {
	url        string
	httpClient *http.Client
	retry      *config.RetryConfig
	log        *logger.Logger
}

// NewClient creates a new Starknet RPC client for the given endpoint.
// retryCfg may be nil to disable retries.
func NewClient(url string, retryCfg *config.RetryConfig, log *logger.Logger) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: requestTimeout},
		retry:      retryCfg,
		log:        log,
	}
}

// LatestBlock returns the node's latest block number.
func (c *Client) LatestBlock(ctx context.Context) (uint64, error) {
	var out uint64
	err := retryWithBackoff(ctx, c.retry, methodBlockNumber, func() error {
		return c.call(ctx, methodBlockNumber, []any{}, &out)
	})
	if err != nil {
		return 0, err
	}

	return out, nil
}

// GetEvents fetches one page of events matching the filter.
// The caller drives pagination via EventsPage.ContinuationToken.
func (c *Client) GetEvents(ctx context.Context, filter EventFilter) (*EventsPage, error) {
	wire := eventsFilterWire{
		FromBlock:         blockNumberID{BlockNumber: filter.FromBlock},
		ToBlock:           blockNumberID{BlockNumber: filter.ToBlock},
		Address:           filter.ContractAddress,
		Keys:              filter.Keys,
		ChunkSize:         filter.ChunkSize,
		ContinuationToken: filter.ContinuationToken,
	}

	var page EventsPage
	err := retryWithBackoff(ctx, c.retry, methodGetEvents, func() error {
		page = EventsPage{}
		return c.call(ctx, methodGetEvents, map[string]any{"filter": wire}, &page)
	})
	if err != nil {
		return nil, err
	}

	return &page, nil
}

// GetAbi returns the ABI of the class deployed at the given address.
// Cairo 1 classes report the ABI as a JSON-encoded string; Cairo 0
// classes report it as a JSON array. Both forms are returned as the
// raw ABI array. Returns ErrNoAbi when the class carries none.
func (c *Client) GetAbi(ctx context.Context, contractAddress string) (json.RawMessage, error) {
	params := map[string]any{
		"block_id":         "latest",
		"contract_address": contractAddress,
	}

	var result struct {
		Abi json.RawMessage `json:"abi"`
	}
	err := retryWithBackoff(ctx, c.retry, methodGetClassAt, func() error {
		result.Abi = nil
		return c.call(ctx, methodGetClassAt, params, &result)
	})
	if err != nil {
		return nil, err
	}

	if len(result.Abi) == 0 || string(result.Abi) == "null" {
		return nil, ErrNoAbi
	}

	// Unquote the Cairo 1 string form
	if result.Abi[0] == '"' {
		var encoded string
		if err := json.Unmarshal(result.Abi, &encoded); err != nil {
			return nil, fmt.Errorf("failed to decode abi string: %w", err)
		}
		return json.RawMessage(encoded), nil
	}

	return result.Abi, nil
}

// BlockTimestamp returns the UTC timestamp of the given block's header.
// Results are cacheable within a run; blocks are immutable under a
// monotonic node view.
func (c *Client) BlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error) {
	params := map[string]any{
		"block_id": blockNumberID{BlockNumber: blockNumber},
	}

	var result struct {
		Timestamp int64 `json:"timestamp"`
	}
	err := retryWithBackoff(ctx, c.retry, methodGetBlockWithTxHashes, func() error {
		return c.call(ctx, methodGetBlockWithTxHashes, params, &result)
	})
	if err != nil {
		return time.Time{}, err
	}

	return time.Unix(result.Timestamp, 0).UTC(), nil
}

// call performs a single JSON-RPC request and decodes the result.
func (c *Client) call(ctx context.Context, method string, params, result any) error {
	start := time.Now()
	RPCMethodInc(method)

	err := c.doCall(ctx, method, params, result)

	RPCMethodDuration(method, time.Since(start))
	if err != nil {
		RPCMethodError(method, classifyError(err))
	}

	return err
}

func (c *Client) doCall(ctx context.Context, method string, params, result any) error {
	payload, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response: %w", method, err)
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("%s: HTTP %d %s", method, resp.StatusCode, http.StatusText(resp.StatusCode))

		// 429 and 5xx are transient; any other 4xx will not resolve on retry
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return &FatalRPCError{Method: method, StatusCode: resp.StatusCode, Cause: statusErr}
		}

		return statusErr
	}

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *jsonRPCError   `json:"error"`
	}
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", method, err)
	}

	if rpcResp.Error != nil {
		return fmt.Errorf("%s: %w", method, rpcResp.Error)
	}

	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("%s: failed to decode result: %w", method, err)
		}
	}

	return nil
}

func classifyError(err error) string {
	switch {
	case IsFatal(err):
		return "fatal"
	case IsRateLimited(err):
		return "rate_limited"
	default:
		return "transient"
	}
}
