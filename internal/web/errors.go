package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/csvdeck/csvdeck/internal/auth"
	"github.com/csvdeck/csvdeck/internal/core"
	"github.com/csvdeck/csvdeck/internal/logging"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string `json:"error"`
	Action string `json:"action,omitempty"`
	Code   string `json:"code,omitempty"`
}

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondError maps an error to an HTTP status and a sanitized JSON
// body. Domain errors become 4xx with their support code; everything
// else is logged with the technical detail and surfaced as a 500 with
// the generic message only.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		s.respondDomainError(w, http.StatusNotFound, err)
	case core.IsDomainError(err):
		s.respondDomainError(w, http.StatusBadRequest, err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondJSON(w, http.StatusUnauthorized, errorBody{
			Error: err.Error(), Code: "AUTH002",
		})
	case errors.Is(err, auth.ErrEmailTaken):
		respondJSON(w, http.StatusConflict, errorBody{
			Error: err.Error(), Code: "AUTH003",
		})
	default:
		logging.FromContext(r.Context()).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		msg := core.MapError(err)
		respondJSON(w, http.StatusInternalServerError, errorBody{
			Error: msg.Message, Action: msg.Action, Code: msg.Code,
		})
	}
}

func (s *Server) respondDomainError(w http.ResponseWriter, status int, err error) {
	msg := core.MapError(err)
	respondJSON(w, status, errorBody{
		Error: msg.Message, Action: msg.Action, Code: msg.Code,
	})
}

// badRequest reports a malformed request body or parameter.
func badRequest(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusBadRequest, errorBody{Error: message, Code: "REQ400"})
}
