package model

import "time"

// CrawlReport accumulates the results of one crawl invocation.
// It is created by the cmd layer and passed through the pipeline; each step
// fills in its own portion. The report is also what gets rendered by the
// report writers and persisted to the history database.
type CrawlReport struct {
	// SeedURL is the URL the crawl started from.
	SeedURL string `json:"seed_url"`

	// MaxDepth is the link-following depth limit. The seed page is depth 0;
	// no links are followed from pages at depth MaxDepth.
	MaxDepth int `json:"max_depth"`

	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the total wall-clock time of the run.
	Duration time.Duration `json:"duration"`

	// PagesVisited is the number of distinct pages fetched.
	PagesVisited int `json:"pages_visited"`

	// PagesFailed is the number of pages whose fetch failed. Failed pages
	// contribute zero images and zero links but do not fail the crawl.
	PagesFailed int `json:"pages_failed"`

	// Images is the ordered sequence of discovered image descriptors.
	Images []Image `json:"images"`

	// Download holds the materializer results. Nil when downloading was
	// skipped (--no-download).
	Download *DownloadResult `json:"download,omitempty"`

	// ExifFindings holds metadata extracted from downloaded image files.
	ExifFindings []ExifFinding `json:"exif_findings,omitempty"`

	// Error records a fatal pipeline error, if any.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewCrawlReport creates a report for the given seed URL and depth limit.
func NewCrawlReport(seedURL string, maxDepth int) *CrawlReport {
	return &CrawlReport{
		SeedURL:   seedURL,
		MaxDepth:  maxDepth,
		StartedAt: time.Now(),
		Images:    make([]Image, 0),
	}
}

// DownloadedCount returns the number of image files written to disk.
func (r *CrawlReport) DownloadedCount() int {
	if r.Download == nil {
		return 0
	}
	return len(r.Download.Files)
}

// ExifFinding is one piece of metadata extracted from a downloaded image.
// EXIF data often survives in images copied straight from a camera or phone
// and can reveal location, device, and authorship details.
type ExifFinding struct {
	// Path is the local file the tag was read from.
	Path string `json:"path"`

	// Tag is the EXIF tag name (e.g. "Model", "GPSLatitude").
	Tag string `json:"tag"`

	// Value is the formatted tag value.
	Value string `json:"value"`

	// Category groups related tags: "gps location", "device", "software",
	// "timestamp", or "identity".
	Category string `json:"category"`
}
