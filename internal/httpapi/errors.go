package httpapi

import (
	"encoding/json"
	"net/http"

	"inferd/internal/fetch"
	"inferd/internal/llm"
	"inferd/internal/manager"
	"inferd/internal/pool"
	"inferd/pkg/types"
)

// HTTPError lets the service pin an explicit status code on an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeServiceError maps domain errors to status codes. Client disconnects
// produce no response at all.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil {
		return
	}
	switch {
	case manager.IsTierNotFound(err):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case pool.IsCapabilityMismatch(err):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case pool.IsExhausted(err):
		IncrementBackpressure("pool_exhausted")
		writeJSONError(w, http.StatusTooManyRequests, err.Error())
	case pool.IsClosed(err):
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
	case llm.IsEngineUnavailable(err):
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
	case manager.IsArtifactInUse(err):
		writeJSONError(w, http.StatusConflict, err.Error())
	case fetch.IsIntegrity(err):
		writeJSONError(w, http.StatusBadGateway, err.Error())
	case fetch.IsNetwork(err):
		writeJSONError(w, http.StatusBadGateway, err.Error())
	default:
		if he, ok := err.(HTTPError); ok {
			writeJSONError(w, he.StatusCode(), he.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeJSONError writes the consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}
