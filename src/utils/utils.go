package utils

import (
	"encoding/json"
	"net/http"

	"github.com/username/vatreview/src/logger"
)

// JSONErrorResponse is the standard error payload for API responses.
type JSONErrorResponse struct {
	Error string `json:"error"`
}

// SendJSONError writes a JSON error response with the given status code.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(JSONErrorResponse{Error: message}); err != nil {
		logger.L.Error("Failed to encode JSON error response", "error", err)
	}
}
