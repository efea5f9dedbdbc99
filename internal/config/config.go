package config

import (
	"os"
	"strconv"
	"time"
)

// DefaultIdentificationEndpoint is the upstream identification API used when
// IDENTIFICATION_ENDPOINT is not set.
const DefaultIdentificationEndpoint = "https://api.fpjs.io/send"

// DefaultFallbackIP is substituted for a missing or malformed client IP.
const DefaultFallbackIP = "8.8.8.8"

// DefaultEventTimeout bounds how long a single identification event may
// spend in the sinks.
const DefaultEventTimeout = 5 * time.Second

// apiKeyVars lists the accepted API key variables in precedence order.
var apiKeyVars = []string{"FINGERPRINT_SECRET_API_KEY", "FPJS_SECRET_API_KEY"}

// Config holds application configuration derived from environment variables.
type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ServiceName  string
	// Identification upstream
	APIKey                 string
	IdentificationEndpoint string
	FallbackIP             string
	// Event sinks, disabled when empty
	RedisAddr     string
	RedisChannel  string
	ClickHouseDSN string
	GeoIPDB       string
	EventTimeout  time.Duration
	// Tracing configuration
	TracingEnabled    bool
	TempoEndpoint     string
	TracingSampleRate float64
}

// Load parses environment variables and returns a Config populated with
// defaults when variables are absent.
func Load() Config {
	cfg := Config{}

	cfg.Port = getenv("PORT", "8787")
	cfg.ReadTimeout = envDuration("READ_TIMEOUT", 5*time.Second)
	// the upstream call has no deadline of its own, so leave room for it here
	cfg.WriteTimeout = envDuration("WRITE_TIMEOUT", 30*time.Second)
	cfg.ServiceName = getenv("SERVICE_NAME", "identrelay")

	cfg.APIKey = firstEnv(apiKeyVars...)
	cfg.IdentificationEndpoint = getenv("IDENTIFICATION_ENDPOINT", DefaultIdentificationEndpoint)
	cfg.FallbackIP = getenv("FALLBACK_CLIENT_IP", DefaultFallbackIP)

	cfg.RedisAddr = getenv("REDIS_ADDR", "")
	cfg.RedisChannel = getenv("REDIS_CHANNEL", "identification-events")
	cfg.ClickHouseDSN = getenv("CLICKHOUSE_DSN", "")
	cfg.GeoIPDB = getenv("GEOIP_DB", "")
	cfg.EventTimeout = envDuration("EVENT_TIMEOUT", DefaultEventTimeout)

	cfg.TracingEnabled = envBool("TRACING_ENABLED", false)
	cfg.TempoEndpoint = getenv("TEMPO_ENDPOINT", "tempo:4317")
	cfg.TracingSampleRate = envFloat("TRACING_SAMPLE_RATE", 1.0)

	return cfg
}

// getenv returns the value of the environment variable if set, otherwise def.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// firstEnv returns the first non-empty value among keys, or "".
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// envDuration parses an environment variable into a time.Duration.
// The value can be a duration string (e.g. "5s") or a number of seconds.
// If the variable is unset or invalid, def is returned.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// envBool parses a boolean environment variable. Accepted values are those
// supported by strconv.ParseBool. When unset or invalid, def is returned.
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// envFloat parses a float64 environment variable. When unset or invalid, def is returned.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}
