package server

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/slidegrid/pkg/errors"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
}

// successResponse wraps JSON payloads.
type successResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", "err", err)
	}
}

func (s *Server) writeData(w http.ResponseWriter, data any) {
	s.writeJSON(w, http.StatusOK, successResponse{Status: "success", Message: "Success", Data: data})
}

// writeError maps err onto the envelope. Server errors hide their details in
// production.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatus(code)
	msg := errors.UserMessage(err)
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "code", code, "err", err)
		if s.cfg.IsProduction() {
			msg = http.StatusText(status)
		}
	} else {
		s.logger.Warn("request rejected", "path", r.URL.Path, "code", code, "err", msg)
	}
	if code == "" {
		code = errors.ErrCodeInternal
	}
	s.writeJSON(w, status, errorResponse{
		Status:     "error",
		StatusCode: status,
		Code:       string(code),
		Message:    msg,
	})
}
