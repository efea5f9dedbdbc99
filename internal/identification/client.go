package identification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/patrickwarner/identrelay/internal/models"
	"github.com/patrickwarner/identrelay/internal/observability"
)

// APIKeyHeader carries the secret API key on every upstream request.
const APIKeyHeader = "Auth-API-Key"

// Client sends resolved fingerprint contexts to the identification API.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    observability.MetricsRegistry
}

// Reply is a parsed identification API response.
type Reply struct {
	Result models.UpstreamResult
	// SetCookies holds every Set-Cookie value of the reply, in order.
	SetCookies []string
}

// UpstreamError reports a non-2xx reply from the identification API.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("identification API returned %d: %s", e.Status, e.Body)
}

// NewClient creates a client for endpoint. The HTTP client has no timeout;
// callers bound the call through ctx if they need to.
func NewClient(endpoint string, logger *zap.Logger, metrics observability.MetricsRegistry) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Identify POSTs payload to the identification API authenticated with apiKey.
// A non-2xx status yields *UpstreamError carrying the body text.
func (c *Client) Identify(ctx context.Context, apiKey string, payload models.UpstreamPayload) (*Reply, error) {
	start := time.Now()
	outcome := "success"
	defer func() {
		c.metrics.RecordUpstreamLatency(time.Since(start))
		c.metrics.IncrementUpstreamRequests(outcome)
	}()

	reqBody, err := json.Marshal(payload)
	if err != nil {
		outcome = "failure"
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		outcome = "failure"
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(APIKeyHeader, apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		outcome = "failure"
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil && c.logger != nil {
			c.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "upstream_error"
		body, _ := io.ReadAll(resp.Body)
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	reply := &Reply{SetCookies: resp.Header.Values("Set-Cookie")}
	if err := json.NewDecoder(resp.Body).Decode(&reply.Result); err != nil {
		outcome = "failure"
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return reply, nil
}
