package exif

import (
	"context"
	"log/slog"
	"os"
	"regexp"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/xshapira/web-crawler-cli/internal/model"
)

// Finding categories.
const (
	CategoryGPS       = "gps location"
	CategoryDevice    = "device"
	CategorySoftware  = "software"
	CategoryTimestamp = "timestamp"
	CategoryIdentity  = "identity"
)

// maxFileSize caps how large a file the inspector is willing to load (20MB).
const maxFileSize = 20 * 1024 * 1024

// exifCapablePattern matches file names of formats that can carry EXIF
// segments. Reading other formats would be wasted work.
var exifCapablePattern = regexp.MustCompile(`(?i)\.(jpe?g|tiff?|heic)$`)

// Inspector extracts EXIF metadata from downloaded image files.
//
// Design decision: The inspector reads files from disk rather than
// re-fetching image URLs. The materializer already holds the bytes locally,
// and inspecting the same bytes it wrote avoids a second round of network
// requests.
type Inspector struct {
	// logger for structured logging.
	logger *slog.Logger
}

// InspectorOption configures an Inspector.
type InspectorOption func(*Inspector)

// WithLogger sets a custom logger for the inspector.
func WithLogger(logger *slog.Logger) InspectorOption {
	return func(i *Inspector) {
		i.logger = logger
	}
}

// NewInspector creates an Inspector.
func NewInspector(opts ...InspectorOption) *Inspector {
	i := &Inspector{}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = slog.Default()
	}
	return i
}

// Inspect reads every EXIF-capable file in the download result and returns
// the metadata tags of interest. Files without EXIF data, and files that
// cannot be read, are skipped.
func (i *Inspector) Inspect(ctx context.Context, files []model.DownloadedFile) ([]model.ExifFinding, error) {
	findings := make([]model.ExifFinding, 0)

	for _, file := range files {
		select {
		case <-ctx.Done():
			return findings, ctx.Err()
		default:
		}

		if !exifCapablePattern.MatchString(file.Path) {
			continue
		}

		fileFindings, err := i.inspectFile(file.Path)
		if err != nil {
			i.logger.Debug("failed to inspect image", "path", file.Path, "error", err)
			continue
		}
		findings = append(findings, fileFindings...)
	}

	return findings, nil
}

// inspectFile extracts EXIF findings from one image file.
func (i *Inspector) inspectFile(path string) ([]model.ExifFinding, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxFileSize {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		// No EXIF segment is the common case, not an error.
		return nil, nil
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil, err
	}

	findings := make([]model.ExifFinding, 0)
	for _, entry := range entries {
		category, ok := categorize(entry.TagName)
		if !ok {
			continue
		}
		findings = append(findings, model.ExifFinding{
			Path:     path,
			Tag:      entry.TagName,
			Value:    entry.Formatted,
			Category: category,
		})
	}

	return findings, nil
}

// categorize maps an EXIF tag name to a finding category. Tags outside the
// interest set report ok=false and are not included in findings.
func categorize(tagName string) (category string, ok bool) {
	switch tagName {
	case "GPSLatitude", "GPSLongitude", "GPSLatitudeRef", "GPSLongitudeRef", "GPSAltitude":
		return CategoryGPS, true
	case "Make", "Model", "SerialNumber", "CameraSerialNumber", "BodySerialNumber", "LensSerialNumber":
		return CategoryDevice, true
	case "Software", "ProcessingSoftware", "HostComputer":
		return CategorySoftware, true
	case "DateTime", "DateTimeOriginal", "DateTimeDigitized":
		return CategoryTimestamp, true
	case "Artist", "Author", "Copyright", "XPAuthor":
		return CategoryIdentity, true
	}
	return "", false
}
