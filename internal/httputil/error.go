package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Vobludalib/tournament-server/internal/middleware"
)

// logArgs assembles the slog attributes shared by the responders: the given
// extras, then the request id when the middleware tagged one, then the
// error when present.
func logArgs(r *http.Request, err error, extra ...any) []any {
	args := append([]any{}, extra...)
	if id, ok := middleware.GetRequestIDFromContext(r.Context()); ok {
		args = append(args, "requestId", id)
	}
	if err != nil {
		args = append(args, "error", err)
	}
	return args
}

func InternalServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg, logArgs(r, err)...)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func BadRequest(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Warn("bad request", logArgs(r, err, "message", msg)...)
	http.Error(w, msg, http.StatusBadRequest)
}

func NotFound(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Warn("not found", logArgs(r, err, "message", msg)...)
	http.Error(w, msg, http.StatusNotFound)
}

func Conflict(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Warn("conflict", logArgs(r, err, "message", msg)...)
	http.Error(w, msg, http.StatusConflict)
}

// WriteJSON encodes v as the response body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
