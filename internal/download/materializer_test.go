package download

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/xshapira/web-crawler-cli/internal/model"
)

// TestPersistMetadata tests metadata file creation.
func TestPersistMetadata(t *testing.T) {
	t.Parallel()

	t.Run("writes indented metadata file", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "images")
		m := NewMaterializer(nil, dir)

		images := []model.Image{
			{URL: "http://x/a.jpg", Page: "http://x/", Depth: 0},
		}
		if err := m.PersistMetadata(images); err != nil {
			t.Fatalf("failed to persist metadata: %v", err)
		}

		data, err := os.ReadFile(filepath.Join(dir, MetadataFileName))
		if err != nil {
			t.Fatalf("failed to read metadata file: %v", err)
		}

		content := string(data)
		if !strings.Contains(content, `    "images": [`) {
			t.Errorf("expected four-space indentation, got:\n%s", content)
		}
		if !strings.Contains(content, `"url": "http://x/a.jpg"`) {
			t.Errorf("expected image url in metadata, got:\n%s", content)
		}
	})

	t.Run("empty crawl leaves no metadata file", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "images")
		m := NewMaterializer(nil, dir)

		if err := m.PersistMetadata(nil); err != nil {
			t.Fatalf("failed to persist metadata: %v", err)
		}

		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("expected output directory to exist: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, MetadataFileName)); !os.IsNotExist(err) {
			t.Error("expected no metadata file for an empty crawl")
		}
	})

	t.Run("recreates output directory", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "images")
		if err := os.MkdirAll(dir, 0750); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		stale := filepath.Join(dir, "stale.jpg")
		if err := os.WriteFile(stale, []byte("old"), 0600); err != nil {
			t.Fatalf("failed to write stale file: %v", err)
		}

		m := NewMaterializer(nil, dir)
		if err := m.PersistMetadata([]model.Image{{URL: "http://x/a.jpg"}}); err != nil {
			t.Fatalf("failed to persist metadata: %v", err)
		}

		if _, err := os.Stat(stale); !os.IsNotExist(err) {
			t.Error("expected stale file to be removed")
		}
	})
}

// TestDownload tests image downloading behavior.
func TestDownload(t *testing.T) {
	t.Parallel()

	t.Run("writes one file per distinct URL", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		requests := make(map[string]int)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			requests[r.URL.Path]++
			mu.Unlock()
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte("jpegbytes"))
		}))
		defer srv.Close()

		dir := t.TempDir()
		m := NewMaterializer(srv.Client(), dir)

		images := []model.Image{
			{URL: srv.URL + "/photo.jpg", Page: "http://x/"},
			{URL: srv.URL + "/photo.jpg", Page: "http://x/other"},
			{URL: srv.URL + "/second.jpg", Page: "http://x/"},
		}
		result, err := m.Download(context.Background(), images)
		if err != nil {
			t.Fatalf("download failed: %v", err)
		}

		if len(result.Files) != 2 {
			t.Fatalf("expected 2 files, got %d", len(result.Files))
		}
		if result.Duplicates != 1 {
			t.Errorf("expected 1 duplicate, got %d", result.Duplicates)
		}
		if _, err := os.Stat(filepath.Join(dir, "photo.jpg")); err != nil {
			t.Errorf("expected photo.jpg on disk: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "second.jpg")); err != nil {
			t.Errorf("expected second.jpg on disk: %v", err)
		}

		mu.Lock()
		defer mu.Unlock()
		if requests["/photo.jpg"] != 1 {
			t.Errorf("expected exactly 1 request for /photo.jpg, got %d", requests["/photo.jpg"])
		}
		if requests["/second.jpg"] != 1 {
			t.Errorf("expected exactly 1 request for /second.jpg, got %d", requests["/second.jpg"])
		}
	})

	t.Run("skips inline base64 data URIs", func(t *testing.T) {
		t.Parallel()

		var logBuf bytes.Buffer
		dir := t.TempDir()
		m := NewMaterializer(nil, dir,
			WithLogger(slog.New(slog.NewTextHandler(&logBuf, nil))))

		images := []model.Image{
			{URL: "data:image/png;base64,iVBORw0KGgo=", Page: "http://x/"},
		}
		result, err := m.Download(context.Background(), images)
		if err != nil {
			t.Fatalf("download failed: %v", err)
		}

		if result.Base64Skips != 1 {
			t.Errorf("expected 1 base64 skip, got %d", result.Base64Skips)
		}
		if len(result.Files) != 0 {
			t.Errorf("expected no files, got %d", len(result.Files))
		}
		if !strings.Contains(logBuf.String(), "level=ERROR") {
			t.Errorf("expected base64 skip logged as error, got %q", logBuf.String())
		}
	})

	t.Run("failures are counted not fatal", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/missing.jpg" {
				http.NotFound(w, r)
				return
			}
			w.Write([]byte("ok"))
		}))
		defer srv.Close()

		dir := t.TempDir()
		m := NewMaterializer(srv.Client(), dir)

		images := []model.Image{
			{URL: srv.URL + "/missing.jpg"},
			{URL: "http://127.0.0.1:1/unreachable.jpg"},
			{URL: srv.URL + "/good.jpg"},
		}
		result, err := m.Download(context.Background(), images)
		if err != nil {
			t.Fatalf("download must not fail on individual errors: %v", err)
		}

		if result.Failures != 2 {
			t.Errorf("expected 2 failures, got %d", result.Failures)
		}
		if len(result.Files) != 1 {
			t.Errorf("expected 1 file, got %d", len(result.Files))
		}
	})

	t.Run("derives extension from content type", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("pngbytes"))
		}))
		defer srv.Close()

		dir := t.TempDir()
		m := NewMaterializer(srv.Client(), dir)

		images := []model.Image{{URL: srv.URL + "/render"}}
		result, err := m.Download(context.Background(), images)
		if err != nil {
			t.Fatalf("download failed: %v", err)
		}

		if len(result.Files) != 1 {
			t.Fatalf("expected 1 file, got %d", len(result.Files))
		}
		if !strings.HasSuffix(result.Files[0].Path, "render.png") {
			t.Errorf("expected content-type extension, got %q", result.Files[0].Path)
		}
	})

	t.Run("content-type extension cannot overwrite a reserved name", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("pngbytes"))
		}))
		defer srv.Close()

		dir := t.TempDir()
		m := NewMaterializer(srv.Client(), dir)

		// /a/render gains a .png extension from the response Content-Type,
		// landing on the name /b/render.png already holds.
		images := []model.Image{
			{URL: srv.URL + "/a/render"},
			{URL: srv.URL + "/b/render.png"},
		}
		result, err := m.Download(context.Background(), images)
		if err != nil {
			t.Fatalf("download failed: %v", err)
		}

		if len(result.Files) != 2 {
			t.Fatalf("expected 2 files, got %d", len(result.Files))
		}
		if result.Files[0].Path == result.Files[1].Path {
			t.Errorf("expected distinct paths, both landed on %q", result.Files[0].Path)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("failed to read output directory: %v", err)
		}
		if len(entries) != 2 {
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				names = append(names, e.Name())
			}
			t.Errorf("expected 2 distinct files on disk, got %d: %v", len(entries), names)
		}
	})

	t.Run("colliding names stay distinct", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("bytes"))
		}))
		defer srv.Close()

		dir := t.TempDir()
		m := NewMaterializer(srv.Client(), dir)

		images := []model.Image{
			{URL: srv.URL + "/a/logo.png"},
			{URL: srv.URL + "/b/logo.png"},
		}
		result, err := m.Download(context.Background(), images)
		if err != nil {
			t.Fatalf("download failed: %v", err)
		}

		if len(result.Files) != 2 {
			t.Fatalf("expected 2 files, got %d", len(result.Files))
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("failed to read output directory: %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("expected 2 distinct files on disk, got %d", len(entries))
		}
	})
}

// TestNameRegistry tests file name derivation and collision handling.
func TestNameRegistry(t *testing.T) {
	t.Parallel()

	t.Run("reserve", func(t *testing.T) {
		t.Parallel()

		names := newNameRegistry()

		if got := names.reserve("http://x/pics/cat.jpg"); got != "cat.jpg" {
			t.Errorf("expected cat.jpg, got %q", got)
		}
		if got := names.reserve("http://y/other/cat.jpg"); got == "cat.jpg" || !strings.HasSuffix(got, "_cat.jpg") {
			t.Errorf("expected hash-prefixed name for collision, got %q", got)
		}
		if got := names.reserve("http://x/"); got == "" || strings.Contains(got, "/") {
			t.Errorf("expected fallback name for bare path, got %q", got)
		}
	})

	t.Run("claim with extension", func(t *testing.T) {
		t.Parallel()

		names := newNameRegistry()

		bare := names.reserve("http://x/render")
		if bare != "render" {
			t.Fatalf("expected render, got %q", bare)
		}
		if got := names.claimWithExtension("http://x/render", bare, ".png"); got != "render.png" {
			t.Errorf("expected render.png, got %q", got)
		}

		// A later URL whose bare name gains the same extension must not
		// land on render.png again.
		other := names.reserve("http://y/render")
		if got := names.claimWithExtension("http://y/render", other, ".png"); got == "render.png" || !strings.HasSuffix(got, "render.png") {
			t.Errorf("expected hash-prefixed render.png, got %q", got)
		}
	})
}

// TestIsBase64DataURI tests inline image detection.
func TestIsBase64DataURI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want bool
	}{
		{name: "base64 png", src: "data:image/png;base64,AAAA", want: true},
		{name: "base64 jpeg", src: "data:image/jpeg;base64,AAAA", want: true},
		{name: "plain data uri", src: "data:image/svg+xml,<svg/>", want: false},
		{name: "http url", src: "http://x/a.jpg", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := isBase64DataURI(tt.src); got != tt.want {
				t.Errorf("isBase64DataURI(%q) = %v, expected %v", tt.src, got, tt.want)
			}
		})
	}
}
