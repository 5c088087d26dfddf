package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/xshapira/web-crawler-cli/internal/model"
)

const (
	// MetadataFileName is the name of the metadata file written into the
	// output directory.
	MetadataFileName = "images.json"

	// DefaultConcurrency is the number of parallel image downloads.
	DefaultConcurrency = 4

	// DefaultMaxImageSize limits how many bytes are read from a single
	// image response (10MB).
	DefaultMaxImageSize = 10 * 1024 * 1024

	// collisionPrefixLen is the number of hex characters of the URL hash
	// used to disambiguate colliding file names.
	collisionPrefixLen = 8
)

// Materializer writes crawl results to the local filesystem. It persists
// the metadata file and downloads image bytes into the output directory.
//
// Design decision: The output directory is recreated from scratch on every
// run. Stale files from a previous crawl would otherwise mix with the new
// results and make the directory contents ambiguous.
type Materializer struct {
	// client is the HTTP client used to fetch image bytes.
	client *http.Client

	// outputDir is the directory the metadata file and images are written to.
	outputDir string

	// concurrency bounds the number of parallel downloads.
	concurrency int

	// userAgent is sent with every image request.
	userAgent string

	// maxImageSize caps the bytes read from one image response.
	maxImageSize int64

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithConcurrency sets the number of parallel downloads.
func WithConcurrency(n int) Option {
	return func(m *Materializer) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithUserAgent sets the User-Agent header for image requests.
func WithUserAgent(ua string) Option {
	return func(m *Materializer) {
		m.userAgent = ua
	}
}

// WithMaxImageSize caps the bytes read from a single image response.
func WithMaxImageSize(n int64) Option {
	return func(m *Materializer) {
		if n > 0 {
			m.maxImageSize = n
		}
	}
}

// WithLogger sets a custom logger for the materializer.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Materializer) {
		m.logger = logger
	}
}

// NewMaterializer creates a Materializer writing into outputDir.
func NewMaterializer(client *http.Client, outputDir string, opts ...Option) *Materializer {
	m := &Materializer{
		client:       client,
		outputDir:    outputDir,
		concurrency:  DefaultConcurrency,
		maxImageSize: DefaultMaxImageSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.client == nil {
		m.client = http.DefaultClient
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// PersistMetadata recreates the output directory and writes the metadata
// file. The file is written only when at least one image was discovered;
// an empty crawl leaves an empty directory behind.
func (m *Materializer) PersistMetadata(images []model.Image) error {
	if err := os.RemoveAll(m.outputDir); err != nil {
		return fmt.Errorf("failed to remove output directory: %w", err)
	}
	if err := os.MkdirAll(m.outputDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if len(images) == 0 {
		m.logger.Info("no images to save")
		return nil
	}

	data, err := json.MarshalIndent(model.Metadata{Images: images}, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	metaPath := filepath.Join(m.outputDir, MetadataFileName)
	if err := os.WriteFile(metaPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	m.logger.Info("wrote metadata file", "path", metaPath, "images", len(images))
	return nil
}

// Download fetches the image bytes for every distinct image URL in the
// descriptor sequence and writes them into the output directory. Inline
// base64 data URIs are recorded and skipped; repeated URLs are fetched
// once; individual failures are counted but never abort the batch.
func (m *Materializer) Download(ctx context.Context, images []model.Image) (*model.DownloadResult, error) {
	if err := os.MkdirAll(m.outputDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &model.DownloadResult{Files: make([]model.DownloadedFile, 0, len(images))}

	var mu sync.Mutex
	claimed := make(map[string]bool)
	names := newNameRegistry()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for _, img := range images {
		select {
		case <-gctx.Done():
			return result, gctx.Err()
		default:
		}

		if isBase64DataURI(img.URL) {
			m.logger.Error("skipping inline base64 image", "page", img.Page)
			result.Base64Skips++
			continue
		}

		if claimed[img.URL] {
			result.Duplicates++
			continue
		}
		claimed[img.URL] = true

		name := names.reserve(img.URL)
		imageURL := img.URL

		g.Go(func() error {
			file, err := m.fetchImage(gctx, imageURL, name, names)
			if err != nil {
				m.logger.Warn("failed to download image", "url", imageURL, "error", err)
				mu.Lock()
				result.Failures++
				mu.Unlock()
				return nil
			}

			m.logger.Info("downloaded image", "url", imageURL, "path", file.Path, "size", file.Size)
			mu.Lock()
			result.Files = append(result.Files, *file)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	return result, nil
}

// fetchImage downloads one image and writes it to disk. The final file name
// may gain an extension derived from the response Content-Type when the URL
// path did not carry one; the extended name goes back through the registry
// so it cannot land on a name another URL already holds.
func (m *Materializer) fetchImage(ctx context.Context, imageURL, name string, names *nameRegistry) (*model.DownloadedFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if m.userAgent != "" {
		req.Header.Set("User-Agent", m.userAgent)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if filepath.Ext(name) == "" {
		if ext := extensionForType(contentType); ext != "" {
			name = names.claimWithExtension(imageURL, name, ext)
		}
	}

	filePath := filepath.Join(m.outputDir, name)
	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, io.LimitReader(resp.Body, m.maxImageSize))
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &model.DownloadedFile{
		URL:         imageURL,
		Path:        filePath,
		Size:        size,
		ContentType: contentType,
	}, nil
}

// nameRegistry hands out distinct file names for a download batch. Names
// are claimed before the fetch starts, and claimed again when a
// Content-Type derived extension changes the name mid-flight, so two URLs
// can never settle on the same file regardless of download order.
type nameRegistry struct {
	mu   sync.Mutex
	used map[string]bool
}

func newNameRegistry() *nameRegistry {
	return &nameRegistry{used: make(map[string]bool)}
}

// reserve derives a file name for the image URL and marks it used.
// The name is the last path segment of the URL. URLs without a usable path
// segment fall back to a hash of the URL, and names already claimed by
// another URL in the batch are prefixed with that hash to keep every file
// distinct.
func (r *nameRegistry) reserve(imageURL string) string {
	name := ""
	if parsed, err := url.Parse(imageURL); err == nil {
		name = path.Base(parsed.Path)
	}
	if name == "" || name == "." || name == "/" {
		name = hashPrefix(imageURL)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.used[name] {
		name = hashPrefix(imageURL) + "_" + name
	}
	r.used[name] = true
	return name
}

// claimWithExtension appends a Content-Type derived extension to an already
// reserved name and claims the result. An extended name that collides with
// a name held by another URL is hash-prefixed, never reused.
func (r *nameRegistry) claimWithExtension(imageURL, name, ext string) string {
	withExt := name + ext

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.used[withExt] {
		withExt = hashPrefix(imageURL) + "_" + withExt
	}
	r.used[withExt] = true
	return withExt
}

// isBase64DataURI reports whether the image source is an inline base64
// encoded data URI rather than a fetchable URL.
func isBase64DataURI(s string) bool {
	return strings.HasPrefix(s, "data:image") && strings.Contains(s, ";base64")
}

// extensionForType maps a Content-Type header to a file extension.
func extensionForType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}

	// Prefer the common spelling for types where the mime package offers
	// several candidates.
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	}

	exts, err := mime.ExtensionsByType(mediaType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}

// hashPrefix returns a short stable identifier derived from the URL.
func hashPrefix(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:collisionPrefixLen]
}
