package handlers

import (
	"encoding/json"
	"net/http"

	"audio-converter/internal/logging"
)

// writeJSON encodes v as JSON into the response. Encoding errors are
// logged since they cannot be recovered mid-response.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeDetail writes the error body used by the API endpoints.
func writeDetail(w http.ResponseWriter, statusCode int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"detail": detail}); err != nil {
		logging.Error("failed to encode error response: %v", err)
	}
}
