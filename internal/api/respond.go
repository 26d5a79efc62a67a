package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"restaurant-ops/internal/auth"
	"restaurant-ops/internal/domain"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeProblem renders a simplified RFC 7807 problem document.
func writeProblem(w http.ResponseWriter, code int, typ, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   typ,
		"title":  http.StatusText(code),
		"status": code,
		"detail": detail,
	})
}

// problemFor maps service errors onto HTTP status codes and problem types.
func problemFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, domain.ErrRemoteWrite):
		return http.StatusBadGateway, "remote_write_failed"
	case errors.Is(err, auth.ErrNoSession):
		return http.StatusUnauthorized, "no_session"
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "unavailable"
	}
	return http.StatusInternalServerError, "internal"
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, typ := problemFor(err)
	if code >= http.StatusInternalServerError {
		h.log.Error("request_failed", err, map[string]any{"method": r.Method, "path": r.URL.Path, "status": code})
	} else {
		h.log.Debug("request_rejected", map[string]any{"method": r.Method, "path": r.URL.Path, "status": code, "detail": err.Error()})
	}
	writeProblem(w, code, typ, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
