package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/xshapira/web-crawler-cli/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// titleCaser converts finding categories into section headings.
	titleCaser cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		titleCaser: cases.Title(language.English),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeImages(md, report)
	w.writeDownload(md, report)
	w.writeExif(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed URL", "`" + report.SeedURL + "`"},
			{"Max Depth", strconv.Itoa(report.MaxDepth)},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration.String()},
			{"Pages Visited", strconv.Itoa(report.PagesVisited)},
			{"Pages Failed", strconv.Itoa(report.PagesFailed)},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.CrawlReport) string {
	if report.Error != nil {
		return "❌ Error - " + report.Error.Error()
	}
	return "✅ Complete"
}

// writeImages writes the discovered image section with a depth
// distribution chart.
func (w *MarkdownWriter) writeImages(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Images")
	md.PlainText("")

	if len(report.Images) == 0 {
		md.PlainText("No images found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Images))
	for i, img := range report.Images {
		rows[i] = []string{
			truncateString(img.URL, 60),
			truncateString(img.Page, 50),
			strconv.Itoa(img.Depth),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Page", "Depth"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeDepthChart(md, report)
}

// writeDepthChart writes a mermaid pie chart of images per depth.
func (w *MarkdownWriter) writeDepthChart(md *markdown.Markdown, report *model.CrawlReport) {
	perDepth := make(map[int]int)
	maxDepth := 0
	for _, img := range report.Images {
		perDepth[img.Depth]++
		if img.Depth > maxDepth {
			maxDepth = img.Depth
		}
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Images per Depth"),
		piechart.WithShowData(true),
	)
	for depth := 0; depth <= maxDepth; depth++ {
		if perDepth[depth] > 0 {
			chart.LabelAndIntValue("depth "+strconv.Itoa(depth), uint64(perDepth[depth]))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeDownload writes the download results section.
func (w *MarkdownWriter) writeDownload(md *markdown.Markdown, report *model.CrawlReport) {
	if report.Download == nil {
		return
	}

	md.H2("Downloads")
	md.PlainText("")

	d := report.Download
	md.Table(markdown.TableSet{
		Header: []string{"Result", "Count"},
		Rows: [][]string{
			{"Files written", strconv.Itoa(len(d.Files))},
			{"Duplicates", strconv.Itoa(d.Duplicates)},
			{"Base64 skipped", strconv.Itoa(d.Base64Skips)},
			{"Failures", strconv.Itoa(d.Failures)},
		},
	})
	md.PlainText("")

	if d.Failures > 0 {
		md.Warningf("%d image download(s) failed; the crawl results are partial.", d.Failures)
		md.PlainText("")
	}
}

// writeExif writes EXIF findings grouped by category.
func (w *MarkdownWriter) writeExif(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("EXIF Metadata")
	md.PlainText("")

	if len(report.ExifFindings) == 0 {
		md.PlainText("No EXIF metadata found in downloaded images.")
		md.PlainText("")
		return
	}

	byCategory := make(map[string][]model.ExifFinding)
	order := make([]string, 0)
	for _, f := range report.ExifFindings {
		if _, seen := byCategory[f.Category]; !seen {
			order = append(order, f.Category)
		}
		byCategory[f.Category] = append(byCategory[f.Category], f)
	}

	for _, category := range order {
		md.H3(w.titleCaser.String(category))
		md.PlainText("")

		findings := byCategory[category]
		rows := make([][]string, len(findings))
		for i, f := range findings {
			rows[i] = []string{
				f.Tag,
				truncateString(f.Value, 50),
				truncateString(f.Path, 40),
			}
		}

		md.Table(markdown.TableSet{
			Header: []string{"Tag", "Value", "File"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	md.Important("Downloaded images carry metadata that may reveal location, device, or authorship details.")
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [webcrawler](https://github.com/xshapira/web-crawler-cli)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
