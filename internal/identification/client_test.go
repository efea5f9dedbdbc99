package identification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/patrickwarner/identrelay/internal/models"
	"github.com/patrickwarner/identrelay/internal/observability"
)

func newTestClient(url string) *Client {
	return NewClient(url, zap.NewNop(), observability.NewNoOpRegistry())
}

func TestClient_Identify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get(APIKeyHeader))

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode request: %v", err)
			return
		}
		assert.Equal(t, "1.2.3.4", body["clientIP"])
		assert.NotContains(t, body, "clientCookie")

		w.Header().Add("Set-Cookie", "_iidt=one; Path=/")
		w.Header().Add("Set-Cookie", "_vid_t=two; Path=/")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products":{"identification":{"data":{"visitorId":"v1"}}},"requestId":"r1"}`))
	}))
	defer server.Close()

	reply, err := newTestClient(server.URL).Identify(context.Background(), "secret", models.UpstreamPayload{
		FingerprintData: json.RawMessage(`{}`),
		ClientIP:        "1.2.3.4",
		ClientHeaders:   map[string]string{},
	})
	require.NoError(t, err)
	require.NotNil(t, reply.Result.VisitorID())
	assert.Equal(t, "v1", *reply.Result.VisitorID())
	assert.Equal(t, []string{"_iidt=one; Path=/", "_vid_t=two; Path=/"}, reply.SetCookies)
}

func TestClient_Identify_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("bad key"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Identify(context.Background(), "wrong", models.UpstreamPayload{})
	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusForbidden, upErr.Status)
	assert.Equal(t, "bad key", upErr.Body)
	assert.Contains(t, err.Error(), "403")
}

func TestClient_Identify_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Identify(context.Background(), "k", models.UpstreamPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_Identify_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).Identify(context.Background(), "k", models.UpstreamPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http request")
}
