package exif

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/xshapira/web-crawler-cli/internal/model"
)

// TestInspect tests EXIF extraction over downloaded files.
func TestInspect(t *testing.T) {
	t.Parallel()

	t.Run("skips formats without EXIF support", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		pngPath := filepath.Join(dir, "image.png")
		if err := os.WriteFile(pngPath, []byte("not a real png"), 0600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		inspector := NewInspector()
		findings, err := inspector.Inspect(context.Background(), []model.DownloadedFile{
			{Path: pngPath},
		})
		if err != nil {
			t.Fatalf("inspect failed: %v", err)
		}
		if len(findings) != 0 {
			t.Errorf("expected no findings for png, got %d", len(findings))
		}
	})

	t.Run("jpeg without EXIF yields no findings", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		jpgPath := filepath.Join(dir, "plain.jpg")
		// Minimal JPEG marker sequence with no APP1 segment.
		if err := os.WriteFile(jpgPath, []byte{0xFF, 0xD8, 0xFF, 0xD9}, 0600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		inspector := NewInspector()
		findings, err := inspector.Inspect(context.Background(), []model.DownloadedFile{
			{Path: jpgPath},
		})
		if err != nil {
			t.Fatalf("inspect failed: %v", err)
		}
		if len(findings) != 0 {
			t.Errorf("expected no findings, got %d", len(findings))
		}
	})

	t.Run("missing file is skipped", func(t *testing.T) {
		t.Parallel()

		inspector := NewInspector()
		findings, err := inspector.Inspect(context.Background(), []model.DownloadedFile{
			{Path: filepath.Join(t.TempDir(), "gone.jpg")},
		})
		if err != nil {
			t.Fatalf("inspect must not fail on missing files: %v", err)
		}
		if len(findings) != 0 {
			t.Errorf("expected no findings, got %d", len(findings))
		}
	})

	t.Run("cancelled context stops inspection", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		inspector := NewInspector()
		if _, err := inspector.Inspect(ctx, []model.DownloadedFile{{Path: "x.jpg"}}); err == nil {
			t.Error("expected context error")
		}
	})
}

// TestCategorize tests tag to category mapping.
func TestCategorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag      string
		category string
		ok       bool
	}{
		{tag: "GPSLatitude", category: CategoryGPS, ok: true},
		{tag: "Model", category: CategoryDevice, ok: true},
		{tag: "SerialNumber", category: CategoryDevice, ok: true},
		{tag: "Software", category: CategorySoftware, ok: true},
		{tag: "DateTimeOriginal", category: CategoryTimestamp, ok: true},
		{tag: "Artist", category: CategoryIdentity, ok: true},
		{tag: "ExposureTime", category: "", ok: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.tag, func(t *testing.T) {
			t.Parallel()

			category, ok := categorize(tt.tag)
			if ok != tt.ok || category != tt.category {
				t.Errorf("categorize(%q) = (%q, %v), expected (%q, %v)",
					tt.tag, category, ok, tt.category, tt.ok)
			}
		})
	}
}
