package api

import (
	"errors"
	"net/http"

	"github.com/patrickwarner/identrelay/internal/identification"
)

// ValidationError means the request carried neither input mode.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// ConfigurationError means the relay cannot call upstream as configured.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

var errMissingAPIKey = &ConfigurationError{Msg: "identification API key is not configured"}

// statusFor maps an error to the HTTP status returned to the caller.
func statusFor(err error) int {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// outcomeFor labels an error for logs and spans.
func outcomeFor(err error) string {
	var (
		verr  *ValidationError
		cerr  *ConfigurationError
		uperr *identification.UpstreamError
	)
	switch {
	case errors.As(err, &verr):
		return "validation_error"
	case errors.As(err, &cerr):
		return "configuration_error"
	case errors.As(err, &uperr):
		return "upstream_error"
	default:
		return "internal_error"
	}
}
