package api

import (
	"encoding/json"
	"net/http"

	"github.com/patrickwarner/identrelay/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) error {
	return writeJSON(w, status, models.ErrorResponse{Error: msg})
}
