package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestTruncateHandler tests attribute value capping.
func TestTruncateHandler(t *testing.T) {
	t.Parallel()

	t.Run("short values pass through unchanged", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTruncateHandler(slog.NewTextHandler(&buf, nil)))

		logger.Info("fetching page", "url", "http://example.com/page")

		out := buf.String()
		if !strings.Contains(out, "http://example.com/page") {
			t.Errorf("expected URL in output, got %q", out)
		}
		if strings.Contains(out, TruncateMarker) {
			t.Errorf("short value should not be truncated: %q", out)
		}
	})

	t.Run("long values are capped", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTruncateHandler(
			slog.NewTextHandler(&buf, nil),
			WithMaxValueLen(32),
		))

		dataURI := "data:image/png;base64," + strings.Repeat("A", 10000)
		logger.Error("skipping base64 image", "url", dataURI)

		out := buf.String()
		if !strings.Contains(out, TruncateMarker) {
			t.Errorf("expected truncation marker in output, got %q", out)
		}
		if strings.Contains(out, strings.Repeat("A", 100)) {
			t.Errorf("long value was not capped: %d bytes of output", len(out))
		}
	})

	t.Run("non-string values pass through", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTruncateHandler(
			slog.NewTextHandler(&buf, nil),
			WithMaxValueLen(2),
		))

		logger.Info("progress", "depth", 12345)

		if !strings.Contains(buf.String(), "12345") {
			t.Errorf("integer attribute should be untouched: %q", buf.String())
		}
	})

	t.Run("grouped attributes are capped recursively", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTruncateHandler(
			slog.NewTextHandler(&buf, nil),
			WithMaxValueLen(16),
		))

		logger.Info("download",
			slog.Group("image",
				"url", strings.Repeat("x", 100),
				"size", 42,
			),
		)

		out := buf.String()
		if !strings.Contains(out, TruncateMarker) {
			t.Errorf("expected group value truncated, got %q", out)
		}
		if !strings.Contains(out, "42") {
			t.Errorf("expected numeric group value preserved, got %q", out)
		}
	})

	t.Run("nil inner handler falls back to default", func(t *testing.T) {
		t.Parallel()

		h := NewTruncateHandler(nil)
		if h.handler == nil {
			t.Error("expected fallback to default handler")
		}
	})
}
