package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/internal/session"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// statusFor maps a workflow error onto an HTTP status and a short kind.
func statusFor(err error) (int, string) {
	switch {
	case model.IsValidation(err):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, session.ErrUnknownCandidate):
		return http.StatusNotFound, "unknown_candidate"
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict, "busy"
	case errors.Is(err, session.ErrNoResults):
		return http.StatusConflict, "no_results"
	case errors.Is(err, session.ErrCleared):
		return http.StatusConflict, "cleared"
	case model.IsMalformedCompletion(err):
		return http.StatusUnprocessableEntity, "malformed_completion"
	case model.IsConnector(err):
		return http.StatusBadGateway, "connector"
	case model.IsEnrichment(err):
		return http.StatusBadGateway, "enrichment"
	case model.IsStorage(err):
		return http.StatusInternalServerError, "storage"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, kind := statusFor(err)
	msg := resilience.Redact(err.Error())
	if status >= http.StatusInternalServerError {
		zap.L().Error("api: request failed", zap.String("kind", kind), zap.String("error", msg))
	}
	writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

// decodeBody reads a JSON body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: "validation"})
		return false
	}
	return true
}
