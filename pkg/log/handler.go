package log

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
)

// stacktraceHandler decorates a slog.Handler: when a record carries an
// error under ErrAttrKey, the handler appends the stack trace captured by
// cockroachdb/errors under StacktraceAttrKey, so logged failures keep their
// origin in the JSON output.
type stacktraceHandler struct {
	next slog.Handler
}

// WithStacktraces wraps next so that error attributes logged via ErrAttr
// are expanded with their captured stack trace.
func WithStacktraces(next slog.Handler) slog.Handler {
	return &stacktraceHandler{next: next}
}

func (h *stacktraceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *stacktraceHandler) Handle(ctx context.Context, r slog.Record) error {
	var trace string
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key != ErrAttrKey {
			return true
		}
		if err, ok := attr.Value.Any().(error); ok {
			trace = stackOf(err)
		}
		return false
	})
	if trace != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, trace))
	}
	return h.next.Handle(ctx, r)
}

func (h *stacktraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &stacktraceHandler{next: h.next.WithAttrs(attrs)}
}

func (h *stacktraceHandler) WithGroup(name string) slog.Handler {
	return &stacktraceHandler{next: h.next.WithGroup(name)}
}

// stackOf pulls the first safe-detail payload, which cockroachdb/errors
// fills with the stack recorded at WithStack time.
func stackOf(err error) string {
	if details := errors.GetSafeDetails(err).SafeDetails; len(details) > 0 {
		return details[0]
	}
	return ""
}
