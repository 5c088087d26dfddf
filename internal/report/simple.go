package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xshapira/web-crawler-cli/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose enables the full image listing in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with the full image listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeImages(&sb, report)
	w.writeDownload(&sb, report)
	w.writeExif(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with crawl information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Seed URL:    %s\n", report.SeedURL))
	sb.WriteString(fmt.Sprintf("Max Depth:   %d\n", report.MaxDepth))
	sb.WriteString(fmt.Sprintf("Started:     %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:    %s\n", report.Duration.Round(10*time.Millisecond)))

	if report.Error != nil {
		sb.WriteString(fmt.Sprintf("Status:      ERROR - %s\n", report.Error))
	} else {
		sb.WriteString("Status:      Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the crawl counters section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Pages visited:     %d\n", report.PagesVisited))
	sb.WriteString(fmt.Sprintf("  Pages failed:      %d\n", report.PagesFailed))
	sb.WriteString(fmt.Sprintf("  Images found:      %d\n", len(report.Images)))
	sb.WriteString(fmt.Sprintf("  Images downloaded: %d\n", report.DownloadedCount()))
	sb.WriteString("\n")
}

// writeImages writes the discovered image listing grouped by depth.
func (w *SimpleWriter) writeImages(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.Images) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("IMAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.Images) == 0 {
		sb.WriteString("  No images found\n\n")
		return
	}

	if !w.verbose {
		perDepth := make(map[int]int)
		maxDepth := 0
		for _, img := range report.Images {
			perDepth[img.Depth]++
			if img.Depth > maxDepth {
				maxDepth = img.Depth
			}
		}
		for depth := 0; depth <= maxDepth; depth++ {
			if perDepth[depth] > 0 {
				sb.WriteString(fmt.Sprintf("  depth %d: %d images\n", depth, perDepth[depth]))
			}
		}
		sb.WriteString("\n")
		return
	}

	for _, img := range report.Images {
		sb.WriteString(fmt.Sprintf("  * %s\n", img.URL))
		sb.WriteString(fmt.Sprintf("    Page:  %s\n", img.Page))
		sb.WriteString(fmt.Sprintf("    Depth: %d\n", img.Depth))
	}
	sb.WriteString("\n")
}

// writeDownload writes the download results section.
func (w *SimpleWriter) writeDownload(sb *strings.Builder, report *model.CrawlReport) {
	if report.Download == nil {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("DOWNLOADS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	d := report.Download
	sb.WriteString(fmt.Sprintf("  Files written:  %d\n", len(d.Files)))
	sb.WriteString(fmt.Sprintf("  Duplicates:     %d\n", d.Duplicates))
	sb.WriteString(fmt.Sprintf("  Base64 skipped: %d\n", d.Base64Skips))
	sb.WriteString(fmt.Sprintf("  Failures:       %d\n", d.Failures))
	sb.WriteString("\n")
}

// writeExif writes the EXIF findings section.
func (w *SimpleWriter) writeExif(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.ExifFindings) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("EXIF METADATA\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.ExifFindings) == 0 {
		sb.WriteString("  No metadata found\n\n")
		return
	}

	for _, f := range report.ExifFindings {
		sb.WriteString(fmt.Sprintf("  * [%s] %s: %s\n", f.Category, f.Tag, f.Value))
		sb.WriteString(fmt.Sprintf("    File: %s\n", f.Path))
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by webcrawler\n")
	sb.WriteString("https://github.com/xshapira/web-crawler-cli\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
