package logic

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrickwarner/identrelay/internal/models"
)

const testFallbackIP = "8.8.8.8"

func directRequest(headers map[string]string) (*models.InboundRequest, *http.Request) {
	r := httptest.NewRequest(http.MethodPost, "/identify", strings.NewReader("{}"))
	r.Host = ""
	for k, v := range headers {
		if strings.EqualFold(k, "host") {
			r.Host = v
			continue
		}
		r.Header.Set(k, v)
	}
	return &models.InboundRequest{FingerprintData: json.RawMessage(`{"fp":"blob"}`)}, r
}

func TestResolveInput_ChainedPassThrough(t *testing.T) {
	cd := &models.CollectedData{
		FingerprintData: json.RawMessage(`{"fp":"chained"}`),
		ClientIP:        json.RawMessage(`"999.1.1.1"`),
		ClientHost:      json.RawMessage(`"edge.example"`),
		ClientUserAgent: json.RawMessage(`"ua/1"`),
		ClientCookie:    json.RawMessage(`"c-1"`),
		ClientHeaders:   json.RawMessage(`{"x-custom":["1","2"],"content-length":12}`),
	}
	req := &models.InboundRequest{
		FingerprintData: json.RawMessage(`{"ignored":true}`),
		BackendData:     &models.BackendData{CollectedData: cd, BackendLatency: 17},
	}
	_, r := directRequest(map[string]string{"X-Forwarded-For": "1.2.3.4", "Host": "other"})

	in, err := ResolveInput(req, r, testFallbackIP)
	require.NoError(t, err)
	assert.Equal(t, ModeChained, in.Mode)
	assert.Equal(t, float64(17), in.PriorLatency)
	assert.False(t, in.IPFallback)
	assert.Equal(t, "999.1.1.1", in.Context.ClientIP, "chained IP is not validated")
	assert.Equal(t, "edge.example", in.Context.ClientHost)
	assert.Equal(t, "ua/1", in.Context.ClientUserAgent)
	require.NotNil(t, in.Context.ClientCookie)
	assert.Equal(t, "c-1", *in.Context.ClientCookie)
	assert.Nil(t, in.Context.ClientHeaders)
	assert.Same(t, cd, in.Context.Verbatim)
	assert.JSONEq(t, `{"fp":"chained"}`, string(in.Context.FingerprintPayload))
}

func TestResolveInput_ChainedNonStringFields(t *testing.T) {
	req := &models.InboundRequest{
		BackendData: &models.BackendData{CollectedData: &models.CollectedData{
			FingerprintData: json.RawMessage(`{}`),
			ClientIP:        json.RawMessage(`["1.1.1.1"]`),
			ClientCookie:    json.RawMessage(`null`),
		}},
	}
	_, r := directRequest(nil)

	in, err := ResolveInput(req, r, testFallbackIP)
	require.NoError(t, err)
	assert.Equal(t, ModeChained, in.Mode)
	assert.Equal(t, "", in.Context.ClientIP)
	assert.Nil(t, in.Context.ClientCookie)
	require.NotNil(t, in.Context.Verbatim)
	assert.JSONEq(t, `["1.1.1.1"]`, string(in.Context.Verbatim.ClientIP))
}

func TestResolveInput_NoInput(t *testing.T) {
	_, r := directRequest(nil)
	_, err := ResolveInput(&models.InboundRequest{BackendData: &models.BackendData{BackendLatency: 3}}, r, testFallbackIP)
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestResolveInput_DirectDefaults(t *testing.T) {
	req, r := directRequest(nil)
	r.Header.Del("User-Agent")

	in, err := ResolveInput(req, r, testFallbackIP)
	require.NoError(t, err)
	assert.Equal(t, ModeDirect, in.Mode)
	assert.Equal(t, float64(0), in.PriorLatency)
	assert.Equal(t, testFallbackIP, in.Context.ClientIP)
	assert.True(t, in.IPFallback)
	assert.Equal(t, "localhost", in.Context.ClientHost)
	assert.Equal(t, "", in.Context.ClientUserAgent)
	assert.Nil(t, in.Context.ClientCookie)
}

func TestResolveInput_DirectHeaders(t *testing.T) {
	req, r := directRequest(map[string]string{
		"Host":            "shop.example",
		"User-Agent":      "Mozilla/5.0",
		"X-Forwarded-For": "1.2.3.4, 5.6.7.8",
		"Cookie":          "_iidt=abc123; other=xyz",
	})

	in, err := ResolveInput(req, r, testFallbackIP)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3.4", in.Context.ClientIP)
	assert.False(t, in.IPFallback)
	assert.Equal(t, "shop.example", in.Context.ClientHost)
	assert.Equal(t, "Mozilla/5.0", in.Context.ClientUserAgent)
	require.NotNil(t, in.Context.ClientCookie)
	assert.Equal(t, "abc123", *in.Context.ClientCookie)
	assert.Equal(t, "1.2.3.4, 5.6.7.8", in.Context.ClientHeaders["x-forwarded-for"])
	assert.Equal(t, "shop.example", in.Context.ClientHeaders["host"])
}

func TestResolveInput_IPSelection(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		wantIP   string
		fallback bool
	}{
		{"real ip used without forwarded-for", map[string]string{"X-Real-IP": "10.0.0.1"}, "10.0.0.1", false},
		{"forwarded-for wins over real ip", map[string]string{"X-Forwarded-For": "1.1.1.1", "X-Real-IP": "2.2.2.2"}, "1.1.1.1", false},
		{"out of range octet", map[string]string{"X-Forwarded-For": "999.1.1.1"}, testFallbackIP, true},
		{"empty forwarded-for", map[string]string{"X-Forwarded-For": ""}, testFallbackIP, true},
		{"blank forwarded-for falls through to real ip", map[string]string{"X-Forwarded-For": "  ", "X-Real-IP": "2.2.2.2"}, "2.2.2.2", false},
		{"expanded ipv6", map[string]string{"X-Forwarded-For": "2001:0db8:85a3:0000:0000:8a2e:0370:7334"}, "2001:0db8:85a3:0000:0000:8a2e:0370:7334", false},
		{"compressed ipv6", map[string]string{"X-Forwarded-For": "2001:db8::1"}, testFallbackIP, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, r := directRequest(tt.headers)
			in, err := ResolveInput(req, r, testFallbackIP)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIP, in.Context.ClientIP)
			assert.Equal(t, tt.fallback, in.IPFallback)
		})
	}
}

func TestIdentificationCookie(t *testing.T) {
	assert.Nil(t, IdentificationCookie("other=xyz; session=1"))
	assert.Nil(t, IdentificationCookie(""))

	v := IdentificationCookie("a=1; _iidt=tok%3D; b=2")
	require.NotNil(t, v)
	assert.Equal(t, "tok%3D", *v)
}

func TestFlattenHeaders_JoinsRepeated(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Add("X-Forwarded-For", "1.2.3.4")
	r.Header.Add("X-Forwarded-For", "5.6.7.8")
	r.Header.Add("Cookie", "a=1")
	r.Header.Add("Cookie", "_iidt=z")

	h := FlattenHeaders(r)
	assert.Equal(t, "1.2.3.4, 5.6.7.8", h["x-forwarded-for"])
	assert.Equal(t, "a=1; _iidt=z", h["cookie"])
	assert.Equal(t, "example.com", h["host"])
	assert.Equal(t, "1.2.3.4", ClientIPFromHeaders(h))
}
