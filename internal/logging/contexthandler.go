package logging

import (
	"context"
	"log/slog"
	"slices"
)

type attrsKey struct{}

// ContextHandler adds the attributes stored with [WithAttrs] to every record before passing it on.
type ContextHandler struct {
	next slog.Handler
}

func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(attrsFrom(ctx)...)
	return h.next.Handle(ctx, r) //nolint:wrapcheck // the wrapped handler's error is passed through unchanged.
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}

// WithAttrs returns a context carrying attrs in addition to the ones already stored in ctx. Every record logged with
// the returned context through a [ContextHandler] gets them, e.g. the trace id of a request.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	// Concat copies, so sibling contexts derived from the same parent never share a backing array.
	return context.WithValue(ctx, attrsKey{}, slices.Concat(attrsFrom(ctx), attrs))
}

func attrsFrom(ctx context.Context) []slog.Attr {
	attrs, _ := ctx.Value(attrsKey{}).([]slog.Attr)
	return attrs
}
