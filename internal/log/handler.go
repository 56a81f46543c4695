package log

import (
	"context"
	"io"
	"log/slog"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
)

// ContextHandler wraps an slog.Handler and adds the chi request id of the
// record's context, when present.
type ContextHandler struct {
	inner slog.Handler
}

func NewContextHandler(inner slog.Handler) *ContextHandler {
	return &ContextHandler{inner: inner}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := chimiddleware.GetReqID(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name)}
}

// New builds the process logger: colored text in dev mode, JSON otherwise.
func New(w io.Writer, devMode bool, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if devMode {
		inner = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(NewContextHandler(inner))
}
