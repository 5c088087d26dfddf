package log

import (
	"context"
	"log/slog"
)

// DefaultMaxValueLen is the default cap on logged attribute values.
// Image source attributes can carry inline base64 data URIs that run to
// megabytes; logging them whole makes the output unreadable and slow.
const DefaultMaxValueLen = 256

// TruncateMarker is appended to values that were cut short.
const TruncateMarker = "...(truncated)"

// TruncateHandler wraps an slog.Handler and caps the length of string
// attribute values before passing records along.
//
// Design decision: We use a handler wrapper rather than truncating at each
// call site because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Call sites stay readable; no component needs to know about the cap
type TruncateHandler struct {
	// handler is the underlying slog handler that receives capped records.
	handler slog.Handler

	// maxLen is the maximum length of a string attribute value.
	maxLen int
}

// TruncateOption configures a TruncateHandler.
type TruncateOption func(*TruncateHandler)

// WithMaxValueLen sets the maximum attribute value length.
// Values smaller than 1 are ignored and the default is kept.
func WithMaxValueLen(n int) TruncateOption {
	return func(h *TruncateHandler) {
		if n > 0 {
			h.maxLen = n
		}
	}
}

// NewTruncateHandler creates a TruncateHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewTruncateHandler(handler slog.Handler, opts ...TruncateOption) *TruncateHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}

	h := &TruncateHandler{
		handler: handler,
		maxLen:  DefaultMaxValueLen,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *TruncateHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle caps the record's attribute values and passes it on.
func (h *TruncateHandler) Handle(ctx context.Context, r slog.Record) error {
	capped := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		capped.AddAttrs(h.truncateAttr(a))
		return true
	})

	return h.handler.Handle(ctx, capped)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are capped before being added.
func (h *TruncateHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cappedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		cappedAttrs[i] = h.truncateAttr(a)
	}
	return &TruncateHandler{handler: h.handler.WithAttrs(cappedAttrs), maxLen: h.maxLen}
}

// WithGroup returns a new handler with the given group name.
func (h *TruncateHandler) WithGroup(name string) slog.Handler {
	return &TruncateHandler{handler: h.handler.WithGroup(name), maxLen: h.maxLen}
}

// truncateAttr caps a single attribute, recursively handling groups.
func (h *TruncateHandler) truncateAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		cappedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			cappedAttrs[i] = h.truncateAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(cappedAttrs...)}
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}

	s := a.Value.String()
	if len(s) <= h.maxLen {
		return a
	}

	return slog.String(a.Key, s[:h.maxLen]+TruncateMarker)
}
