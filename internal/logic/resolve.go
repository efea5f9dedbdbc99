package logic

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/patrickwarner/identrelay/internal/models"
)

// Mode identifies which input variant produced a ResolvedContext.
type Mode string

const (
	// ModeDirect derives the context from the live inbound request.
	ModeDirect Mode = "direct"
	// ModeChained reuses a context assembled by an earlier hop.
	ModeChained Mode = "chained"
)

const defaultHost = "localhost"

var iidtCookie = regexp.MustCompile(`_iidt=([^;]+)`)

// Input is an inbound request resolved into exactly one variant.
type Input struct {
	Mode    Mode
	Context models.ResolvedContext
	// PriorLatency is the latency in milliseconds carried in by a chained
	// request. Always 0 in direct mode.
	PriorLatency float64
	// IPFallback is set when the direct-mode client IP was replaced.
	IPFallback bool
	// RawIP is the client IP as found in the headers before validation.
	RawIP string
}

// ResolveInput picks the input variant for req. Chained mode wins over direct
// mode; ErrNoInput is returned when neither is present. r supplies the
// headers for direct mode and fallbackIP replaces a missing or malformed
// client IP.
func ResolveInput(req *models.InboundRequest, r *http.Request, fallbackIP string) (Input, error) {
	if cd := req.Collected(); cd != nil {
		ip := models.RawString(cd.ClientIP)
		var cookie *string
		if c := models.RawString(cd.ClientCookie); c != "" {
			cookie = &c
		}
		// typed fields are read best-effort for logs and events; the bundle
		// itself is forwarded as received
		return Input{
			Mode: ModeChained,
			Context: models.ResolvedContext{
				FingerprintPayload: cd.FingerprintData,
				ClientIP:           ip,
				ClientHost:         models.RawString(cd.ClientHost),
				ClientUserAgent:    models.RawString(cd.ClientUserAgent),
				ClientCookie:       cookie,
				Verbatim:           cd,
			},
			PriorLatency: req.PriorLatency(),
			RawIP:        ip,
		}, nil
	}

	if req.HasFingerprintData() {
		headers := FlattenHeaders(r)
		rawIP := ClientIPFromHeaders(headers)
		ip, fellBack := rawIP, false
		if !IsValidIP(rawIP) {
			ip, fellBack = fallbackIP, true
		}

		host := headers["host"]
		if host == "" {
			host = defaultHost
		}

		return Input{
			Mode: ModeDirect,
			Context: models.ResolvedContext{
				FingerprintPayload: req.FingerprintData,
				ClientIP:           ip,
				ClientHost:         host,
				ClientUserAgent:    headers["user-agent"],
				ClientCookie:       IdentificationCookie(headers["cookie"]),
				ClientHeaders:      headers,
			},
			IPFallback: fellBack,
			RawIP:      rawIP,
		}, nil
	}

	return Input{}, ErrNoInput
}

// FlattenHeaders returns the request headers as a lower-cased key to value
// map. Repeated headers are joined the way proxies fold them. The Host
// header, which net/http moves to r.Host, is restored.
func FlattenHeaders(r *http.Request) map[string]string {
	out := make(map[string]string, len(r.Header)+1)
	for k, vs := range r.Header {
		key := strings.ToLower(k)
		sep := ", "
		if key == "cookie" {
			sep = "; "
		}
		out[key] = strings.Join(vs, sep)
	}
	if r.Host != "" {
		out["host"] = r.Host
	}
	return out
}

// ClientIPFromHeaders returns the first x-forwarded-for entry, or x-real-ip
// when x-forwarded-for is absent or blank. headers must use lower-cased keys.
func ClientIPFromHeaders(headers map[string]string) string {
	if fwd := strings.TrimSpace(headers["x-forwarded-for"]); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	return strings.TrimSpace(headers["x-real-ip"])
}

// IdentificationCookie extracts the _iidt cookie value from a Cookie header,
// or nil when it is not present.
func IdentificationCookie(cookieHeader string) *string {
	m := iidtCookie.FindStringSubmatch(cookieHeader)
	if m == nil {
		return nil
	}
	v := m[1]
	return &v
}
