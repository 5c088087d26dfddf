// Package log provides logging helpers built on log/slog.
//
// The package contains TruncateHandler, an slog.Handler wrapper that caps
// the length of string attribute values. The crawler routinely logs URLs,
// and image URLs can be inline base64 data URIs of arbitrary size; capping
// them keeps log output usable without special-casing every log call.
//
// Usage:
//
//	handler := log.NewTruncateHandler(slog.NewTextHandler(os.Stderr, nil))
//	slog.SetDefault(slog.New(handler))
package log
