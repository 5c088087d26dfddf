package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xshapira/web-crawler-cli/internal/config"
	"github.com/xshapira/web-crawler-cli/internal/model"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "webcrawler <seed-url> <max-depth>" {
			t.Errorf("expected use 'webcrawler <seed-url> <max-depth>', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("requires exactly two arguments", func(t *testing.T) {
		t.Parallel()
		if cmd.Args == nil {
			t.Fatal("expected Args validator")
		}
		if err := cmd.Args(cmd, []string{"https://example.com"}); err == nil {
			t.Error("expected error for one argument")
		}
		if err := cmd.Args(cmd, []string{"https://example.com", "1", "extra"}); err == nil {
			t.Error("expected error for three arguments")
		}
		if err := cmd.Args(cmd, []string{"https://example.com", "1"}); err != nil {
			t.Errorf("unexpected error for two arguments: %v", err)
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has crawl flags", func(t *testing.T) {
		t.Parallel()
		for name, shorthand := range map[string]string{
			"timeout":     "t",
			"max-images":  "i",
			"output-dir":  "d",
			"concurrency": "n",
			"config":      "c",
			"json":        "j",
			"markdown":    "m",
			"output":      "o",
		} {
			flag := cmd.Flags().Lookup(name)
			if flag == nil {
				t.Fatalf("expected %s flag", name)
			}
			if flag.Shorthand != shorthand {
				t.Errorf("expected %s shorthand %q, got %q", name, shorthand, flag.Shorthand)
			}
		}
		if cmd.Flags().Lookup("no-download") == nil {
			t.Error("expected no-download flag")
		}
		if cmd.Flags().Lookup("no-save") == nil {
			t.Error("expected no-save flag")
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		hasBatch := false
		hasHistory := false
		hasVersion := false
		for _, sub := range cmd.Commands() {
			switch sub.Use {
			case "batch <file>":
				hasBatch = true
			case "history":
				hasHistory = true
			case "version":
				hasVersion = true
			}
		}
		if !hasBatch {
			t.Error("expected batch subcommand")
		}
		if !hasHistory {
			t.Error("expected history subcommand")
		}
		if !hasVersion {
			t.Error("expected version subcommand")
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage {
			t.Error("expected SilenceUsage to be true")
		}
		if !cmd.SilenceErrors {
			t.Error("expected SilenceErrors to be true")
		}
	})
}

// TestBuildConfig tests configuration building from flags and arguments.
func TestBuildConfig(t *testing.T) {
	t.Run("builds config with default values", func(t *testing.T) {
		cmd := NewRootCmd()
		cfg, err := buildConfig(cmd, []string{"https://example.com", "2"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.SeedURL != "https://example.com" {
			t.Errorf("expected seed 'https://example.com', got %q", cfg.SeedURL)
		}
		if cfg.MaxDepth != 2 {
			t.Errorf("expected max depth 2, got %d", cfg.MaxDepth)
		}
		if cfg.MaxImagesPerPage != config.DefaultMaxImagesPerPage {
			t.Errorf("expected default image cap, got %d", cfg.MaxImagesPerPage)
		}
		if cfg.OutputDir != config.DefaultOutputDir {
			t.Errorf("expected default output dir, got %q", cfg.OutputDir)
		}
		if cfg.DBDir == "" {
			t.Error("expected DBDir to be set")
		}
	})

	t.Run("rejects non-numeric depth", func(t *testing.T) {
		cmd := NewRootCmd()
		_, err := buildConfig(cmd, []string{"https://example.com", "two"})
		if err == nil {
			t.Fatal("expected error for non-numeric depth")
		}
		if !strings.Contains(err.Error(), "invalid max-depth") {
			t.Errorf("unexpected error message: %v", err)
		}
	})

	t.Run("negative depth fails validation", func(t *testing.T) {
		cmd := NewRootCmd()
		cfg, err := buildConfig(cmd, []string{"https://example.com", "-1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := cfg.Validate(); err == nil {
			t.Error("expected validation error for negative depth")
		}
	})

	t.Run("builds config with custom flags", func(t *testing.T) {
		cmd := NewRootCmd()
		_ = cmd.Flags().Set("max-images", "5")
		_ = cmd.Flags().Set("timeout", "5s")
		_ = cmd.Flags().Set("no-download", "true")
		_ = cmd.Flags().Set("json", "true")

		cfg, err := buildConfig(cmd, []string{"https://example.com", "0"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.MaxImagesPerPage != 5 {
			t.Errorf("expected image cap 5, got %d", cfg.MaxImagesPerPage)
		}
		if cfg.Timeout != 5*time.Second {
			t.Errorf("expected timeout 5s, got %s", cfg.Timeout)
		}
		if !cfg.SkipDownload {
			t.Error("expected SkipDownload to be true")
		}
		if !cfg.JSONReport {
			t.Error("expected JSONReport to be true")
		}
	})

	t.Run("builds config with valid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ".webcrawler")

		content := []byte(`
defaults:
  userAgent: "bot/1.0"
sites:
  example.com:
    maxImages: 3
`)
		if err := os.WriteFile(configPath, content, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewRootCmd()
		_ = cmd.Flags().Set("config", configPath)
		cfg, err := buildConfig(cmd, []string{"https://example.com", "1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.SiteConfigs == nil {
			t.Fatal("expected SiteConfigs to be loaded")
		}
		if cfg.SiteConfigs.Defaults.UserAgent != "bot/1.0" {
			t.Errorf("expected default user agent 'bot/1.0', got %q", cfg.SiteConfigs.Defaults.UserAgent)
		}
	})

	t.Run("returns error for missing explicit config file", func(t *testing.T) {
		cmd := NewRootCmd()
		_ = cmd.Flags().Set("config", filepath.Join(t.TempDir(), "does-not-exist"))
		_, err := buildConfig(cmd, []string{"https://example.com", "1"})
		if err == nil {
			t.Fatal("expected error for missing config file")
		}
	})

	t.Run("returns error for invalid config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "invalid.yaml")
		if err := os.WriteFile(configPath, []byte(`{invalid yaml`), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewRootCmd()
		_ = cmd.Flags().Set("config", configPath)
		_, err := buildConfig(cmd, []string{"https://example.com", "1"})
		if err == nil {
			t.Fatal("expected error for invalid config file")
		}
	})
}

// TestSetupLogger tests the logger setup.
func TestSetupLogger(t *testing.T) {
	t.Parallel()

	t.Run("creates logger for verbose mode", func(t *testing.T) {
		t.Parallel()
		if setupLogger(true) == nil {
			t.Error("expected non-nil logger")
		}
	})

	t.Run("creates logger for non-verbose mode", func(t *testing.T) {
		t.Parallel()
		if setupLogger(false) == nil {
			t.Error("expected non-nil logger")
		}
	})
}

// TestApplySiteConfig tests merging per-host overrides into the config.
func TestApplySiteConfig(t *testing.T) {
	t.Parallel()

	t.Run("applies host overrides", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.SeedURL = "https://example.com/start"
		cfg.SiteConfigs = &config.File{
			Sites: map[string]config.SiteConfig{
				"example.com": {
					UserAgent: "custom/2.0",
					MaxImages: 3,
				},
			},
		}

		applySiteConfig(cfg)

		if cfg.UserAgent != "custom/2.0" {
			t.Errorf("expected user agent 'custom/2.0', got %q", cfg.UserAgent)
		}
		if cfg.MaxImagesPerPage != 3 {
			t.Errorf("expected image cap 3, got %d", cfg.MaxImagesPerPage)
		}
	})

	t.Run("keeps defaults for unknown host", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.SeedURL = "https://other.com/"
		cfg.SiteConfigs = &config.File{
			Sites: map[string]config.SiteConfig{
				"example.com": {MaxImages: 3},
			},
		}

		applySiteConfig(cfg)

		if cfg.MaxImagesPerPage != config.DefaultMaxImagesPerPage {
			t.Errorf("expected default image cap, got %d", cfg.MaxImagesPerPage)
		}
	})

	t.Run("handles nil site configs", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.SeedURL = "https://example.com"
		applySiteConfig(cfg)
		if cfg.UserAgent != config.DefaultUserAgent {
			t.Errorf("expected default user agent, got %q", cfg.UserAgent)
		}
	})
}

// TestSiteHeaders tests custom header lookup for the seed host.
func TestSiteHeaders(t *testing.T) {
	t.Parallel()

	t.Run("returns configured headers", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.SeedURL = "https://example.com/page"
		cfg.SiteConfigs = &config.File{
			Sites: map[string]config.SiteConfig{
				"example.com": {
					Headers: map[string]string{"Authorization": "Bearer token"},
				},
			},
		}

		headers := siteHeaders(cfg)
		if headers["Authorization"] != "Bearer token" {
			t.Errorf("expected Authorization header, got %v", headers)
		}
	})

	t.Run("returns nil without site configs", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.SeedURL = "https://example.com"
		if headers := siteHeaders(cfg); headers != nil {
			t.Errorf("expected nil headers, got %v", headers)
		}
	})
}

// TestOutputReport tests report rendering to a file.
func TestOutputReport(t *testing.T) {
	t.Parallel()

	newReport := func() *model.CrawlReport {
		crawlReport := model.NewCrawlReport("https://example.com", 1)
		crawlReport.PagesVisited = 2
		crawlReport.Images = []model.Image{
			{URL: "https://example.com/a.png", Page: "https://example.com", Depth: 0},
		}
		return crawlReport
	}

	t.Run("writes plain text report to file", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.ReportFile = filepath.Join(t.TempDir(), "out", "report.txt")

		if err := outputReport(cfg, newReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.Contains(string(data), "https://example.com") {
			t.Errorf("expected seed URL in report, got %q", string(data))
		}
	})

	t.Run("writes json report to file", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.JSONReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "report.json")

		if err := outputReport(cfg, newReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.Contains(string(data), `"seed_url"`) {
			t.Errorf("expected seed_url key in JSON report, got %q", string(data))
		}
	})

	t.Run("writes markdown report to file", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.MarkdownReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "report.md")

		if err := outputReport(cfg, newReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.Contains(string(data), "# Crawl Report") {
			t.Errorf("expected markdown heading, got %q", string(data))
		}
	})
}
