// Package handlers implements the executor's HTTP endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/watzon/alyx-executor/internal/functions"
)

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Error().Err(err).Msg("Failed to encode response")
		}
	}
}

// Failure writes a FunctionResponse-shaped error body.
func Failure(w http.ResponseWriter, status int, requestID, code, message string) {
	JSON(w, status, functions.Failure(requestID, code, message))
}

func BadRequest(w http.ResponseWriter, requestID, message string) {
	Failure(w, http.StatusBadRequest, requestID, functions.CodeInvalidRequest, message)
}

func InternalError(w http.ResponseWriter, requestID, message string) {
	Failure(w, http.StatusInternalServerError, requestID, functions.CodeExecutorError, message)
}
