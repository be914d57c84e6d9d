package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lostfound/internal/lf"
)

type envelope map[string]any

func (s *Server) writeJSON(w http.ResponseWriter, status int, body envelope) {
	body["success"] = status < http.StatusBadRequest
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("writing response", "error", err)
	}
}

// writeError maps the error kind to a status code. Server-side failures are
// logged; client errors are only reported back.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, status, envelope{"error": err.Error()})
}

func statusFor(err error) int {
	switch lf.KindOf(err) {
	case lf.ErrNotFound:
		return http.StatusNotFound
	case lf.ErrInvalidFormat, lf.ErrValidation:
		return http.StatusBadRequest
	case lf.ErrConflict:
		return http.StatusConflict
	case lf.ErrTimeout:
		return http.StatusGatewayTimeout
	case lf.ErrConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, envelope{"error": msg})
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
