package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// startTestSite starts an HTTP server with a small site: the front page
// links to a second page, and both reference images served by the same
// server.
func startTestSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Gallery</title></head>
<body>
<h1>Gallery</h1>
<img src="/img/front.png" alt="front">
<img src="/img/banner.png" alt="banner">
<a href="/about.html">About</a>
</body>
</html>`)
	})
	mux.HandleFunc("/about.html", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>About</title></head>
<body>
<img src="/img/about.png" alt="about">
<a href="/">Home</a>
</body>
</html>`)
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		fmt.Fprintf(w, "png-bytes-for-%s", r.URL.Path)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// TestRootCommandIntegration runs the root command end to end against a
// local test site.
func TestRootCommandIntegration(t *testing.T) {
	server := startTestSite(t)

	tmpDir := t.TempDir()
	outputDir := filepath.Join(tmpDir, "images")
	reportFile := filepath.Join(tmpDir, "report.txt")

	cmd := NewRootCmd()
	cmd.SetArgs([]string{
		server.URL, "1",
		"--no-save",
		"--output-dir", outputDir,
		"--output", reportFile,
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("writes metadata file", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(outputDir, "images.json"))
		if err != nil {
			t.Fatalf("failed to read images.json: %v", err)
		}
		content := string(data)

		if !strings.Contains(content, `    "images": [`) {
			t.Error("expected 4-space indented images array")
		}
		for _, name := range []string{"front.png", "banner.png", "about.png"} {
			if !strings.Contains(content, name) {
				t.Errorf("expected %s in metadata, got:\n%s", name, content)
			}
		}
	})

	t.Run("downloads image files", func(t *testing.T) {
		for _, name := range []string{"front.png", "banner.png", "about.png"} {
			if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
				t.Errorf("expected downloaded file %s: %v", name, err)
			}
		}
	})

	t.Run("writes report file", func(t *testing.T) {
		data, err := os.ReadFile(reportFile)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.Contains(string(data), server.URL) {
			t.Errorf("expected seed URL in report, got:\n%s", string(data))
		}
	})
}

// TestRootCommandDepthZero verifies that depth 0 collects images from the
// seed page only.
func TestRootCommandDepthZero(t *testing.T) {
	server := startTestSite(t)

	outputDir := filepath.Join(t.TempDir(), "images")

	cmd := NewRootCmd()
	cmd.SetArgs([]string{
		server.URL, "0",
		"--no-save",
		"--no-download",
		"--output-dir", outputDir,
		"--output", filepath.Join(outputDir, "..", "report.txt"),
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(outputDir, "images.json"))
	if err != nil {
		t.Fatalf("failed to read images.json: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "front.png") || !strings.Contains(content, "banner.png") {
		t.Errorf("expected seed page images in metadata, got:\n%s", content)
	}
	if strings.Contains(content, "about.png") {
		t.Errorf("expected no images from linked page at depth 0, got:\n%s", content)
	}
}

// TestBatchCommandIntegration runs the batch subcommand against a seed
// file with one entry.
func TestBatchCommandIntegration(t *testing.T) {
	server := startTestSite(t)

	tmpDir := t.TempDir()
	seedFile := filepath.Join(tmpDir, "seeds.txt")
	content := "# test seeds\n" + server.URL + "\n"
	if err := os.WriteFile(seedFile, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}

	outputDir := filepath.Join(tmpDir, "batch-images")

	cmd := NewRootCmd()
	cmd.SetArgs([]string{
		"batch", seedFile,
		"--depth", "0",
		"--no-save",
		"--output-dir", outputDir,
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seedDir := filepath.Join(outputDir, seedDirName(server.URL))
	data, err := os.ReadFile(filepath.Join(seedDir, "images.json"))
	if err != nil {
		t.Fatalf("failed to read per-seed images.json: %v", err)
	}
	if !strings.Contains(string(data), "front.png") {
		t.Errorf("expected front.png in per-seed metadata, got:\n%s", string(data))
	}
}

// TestRootCommandRejectsBadArgs verifies argument validation failures.
func TestRootCommandRejectsBadArgs(t *testing.T) {
	t.Run("missing depth argument", func(t *testing.T) {
		cmd := NewRootCmd()
		cmd.SetArgs([]string{"https://example.com"})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for missing depth argument")
		}
	})

	t.Run("non-numeric depth", func(t *testing.T) {
		cmd := NewRootCmd()
		cmd.SetArgs([]string{"https://example.com", "deep"})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for non-numeric depth")
		}
	})

	t.Run("invalid seed URL", func(t *testing.T) {
		cmd := NewRootCmd()
		cmd.SetArgs([]string{"not-a-url", "1"})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for invalid seed URL")
		}
	})
}
