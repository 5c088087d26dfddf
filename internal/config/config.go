package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These mirror the behavior of the original single-threaded crawler where
// applicable; concurrency and timeout defaults are chosen conservatively.
const (
	// DefaultMaxImagesPerPage caps how many image descriptors are collected
	// from a single page fetch. The cap is a prefix cut over the in-order
	// match list, not a distinct-image filter, and applies per page, not
	// globally across the crawl.
	DefaultMaxImagesPerPage = 10

	// DefaultOutputDir is where image files and the metadata document are
	// written. The directory is recreated at the start of every run.
	DefaultOutputDir = "images"

	// DefaultTimeout bounds each page or image fetch. One attempt, no
	// retries; a slow host costs at most one timeout, never the whole crawl.
	DefaultTimeout = 30 * time.Second

	// DefaultDownloadConcurrency is the number of concurrent image
	// downloads. Page fetching stays sequential so that the descriptor
	// order is deterministic; downloads have no ordering requirement.
	DefaultDownloadConcurrency = 4

	// DefaultMaxBodySize limits the response body size read for a page or
	// an image. 10MB accommodates large photos while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultUserAgent identifies the crawler in HTTP requests.
	// A descriptive User-Agent lets site operators identify crawler traffic.
	DefaultUserAgent = "webcrawler/1.0 (+https://github.com/xshapira/web-crawler-cli)"

	// AppName is the application name used for XDG directory paths.
	AppName = "webcrawler"
)

// Config holds all configuration options for a crawl run.
// It is populated from CLI flags and the optional config file, then passed
// through the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, DownloadConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// SeedURL is the URL the crawl starts from. Must be absolute http(s).
	SeedURL string

	// MaxDepth is the link-following depth limit.
	// The seed page is depth 0; links are not followed from pages at depth
	// MaxDepth, but images on those pages are still collected.
	MaxDepth int

	// MaxImagesPerPage caps the image descriptors taken from one page.
	MaxImagesPerPage int

	// OutputDir is the directory for image files and images.json.
	OutputDir string

	// Timeout bounds each individual HTTP request.
	Timeout time.Duration

	// DownloadConcurrency is the number of concurrent image downloads.
	DownloadConcurrency int

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default.
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// SkipDownload disables image downloading; only metadata is written.
	SkipDownload bool

	// SkipHistory disables saving the run to the history database.
	SkipHistory bool

	// JSONReport enables JSON report output instead of the plain text
	// summary. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of the plain
	// text summary. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When empty the report is written to stdout.
	ReportFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .webcrawler in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-site overrides loaded from the config file.
	SiteConfigs *File

	// DBDir is the directory path for the SQLite history database.
	// Defaults to the XDG data directory.
	DBDir string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, image cap).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		MaxImagesPerPage:    DefaultMaxImagesPerPage,
		OutputDir:           DefaultOutputDir,
		Timeout:             DefaultTimeout,
		DownloadConcurrency: DefaultDownloadConcurrency,
		MaxBodySize:         DefaultMaxBodySize,
		UserAgent:           DefaultUserAgent,
	}
}

// Validate checks the configuration for inconsistent or impossible values.
// It returns the first problem found.
func (c *Config) Validate() error {
	u, err := url.Parse(c.SeedURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidSeedURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidSeedURL
	}
	if c.MaxDepth < 0 {
		return ErrNegativeDepth
	}
	if c.MaxImagesPerPage <= 0 {
		return ErrInvalidImageCap
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.DownloadConcurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}

// XDGDataDir returns the XDG data directory for the crawler.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/webcrawler
// On macOS: ~/Library/Application Support/webcrawler
// On Windows: %LOCALAPPDATA%\webcrawler
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}
