package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"sensorhub/backend/services/sensor-api/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeServiceError is the only place service error kinds become status codes.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	kind := service.KindOf(err)
	switch kind {
	case service.KindInvalidInput, service.KindConflict:
		writeError(w, http.StatusBadRequest, service.DetailOf(err))
	case service.KindUnauthenticated:
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, service.DetailOf(err))
	default:
		logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, service.InternalDetail)
	}
}

// maxJSONBodyBytes caps JSON request bodies. CSV uploads have their own limit.
const maxJSONBodyBytes = 1 << 20

// decodeJSON reads a capped JSON body into dst. On failure it writes the
// response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
