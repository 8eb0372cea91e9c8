package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"financas/internal/core"
	"financas/internal/middleware/trace"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// writeDecodeError handles request body decode failures. An amount
// that fails to parse carries its own rule violation text; anything
// else is a malformed body.
func writeDecodeError(ctx context.Context, w http.ResponseWriter, err error) {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		writeText(w, http.StatusBadRequest, verr.Reason)
		return
	}
	slog.DebugContext(ctx, "Malformed request body",
		"request_id", trace.RequestID(ctx),
		"error", err)
	writeText(w, http.StatusBadRequest, "invalid request body")
}

// writeDomainError maps service errors onto the wire contract: business
// rule and credential failures become 400 with the reason text as body,
// anything else is a 500.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		writeText(w, http.StatusBadRequest, verr.Reason)
		return
	}
	var aerr *core.AuthError
	if errors.As(err, &aerr) {
		writeText(w, http.StatusBadRequest, aerr.Reason)
		return
	}

	slog.ErrorContext(ctx, "Request failed",
		"request_id", trace.RequestID(ctx),
		"error", err)
	writeText(w, http.StatusInternalServerError, "internal server error")
}
