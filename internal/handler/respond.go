package handler

import (
	"encoding/json"
	"net/http"

	"depthcapture/internal/dto"
	"depthcapture/internal/logger"
)

// writeJSON encodes body with the given status code.
func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// writeError sends the {"error": message} body used by every API failure.
func writeError(w http.ResponseWriter, logger *logger.Logger, status int, message string) {
	writeJSON(w, logger, status, dto.ErrorResponse{Error: message})
}
