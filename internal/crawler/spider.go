package crawler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/xshapira/web-crawler-cli/internal/model"
)

// Spider crawls web pages breadth-first from a seed URL, collecting image
// descriptors from every visited page.
//
// Design decision: We use an explicit FIFO frontier rather than recursion
// because:
//  1. Memory is bounded by the branching factor at a given depth, not the
//     whole reachable graph
//  2. Pages are processed in deterministic depth order, which simplifies tests
//  3. Traversal state stays inspectable; no call-stack coupling to graph depth
type Spider struct {
	// client is the HTTP client used for page fetches. The caller supplies
	// it pre-configured with a timeout; the spider never retries.
	client *http.Client

	// maxImagesPerPage caps how many descriptors one page fetch produces.
	// The cap is a prefix cut over the in-order match list; duplicates count.
	maxImagesPerPage int

	// userAgent is the User-Agent header to use.
	userAgent string

	// headers are extra HTTP headers sent with every page request.
	headers map[string]string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// logger for structured logging.
	logger *slog.Logger

	// visited tracks SHA-256 hashes of normalized URLs already processed.
	// Hashing keeps the set compact on long crawls; membership is checked
	// at dequeue time so enqueuing stays cheap.
	visited map[string]bool

	// mutex protects visited and the counters.
	mutex sync.Mutex

	// pagesVisited counts distinct pages fetched.
	pagesVisited int

	// pagesFailed counts pages whose fetch failed.
	pagesFailed int
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxImagesPerPage sets the per-page image descriptor cap.
func WithMaxImagesPerPage(n int) SpiderOption {
	return func(s *Spider) {
		if n > 0 {
			s.maxImagesPerPage = n
		}
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) SpiderOption {
	return func(s *Spider) {
		s.userAgent = ua
	}
}

// WithHeaders sets extra HTTP headers sent with every page request.
func WithHeaders(headers map[string]string) SpiderOption {
	return func(s *Spider) {
		s.headers = headers
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) SpiderOption {
	return func(s *Spider) {
		if size > 0 {
			s.maxBodySize = size
		}
	}
}

// WithLogger sets a custom logger for the spider.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a new Spider with the given HTTP client.
//
// Design decision: We require an external client because:
//  1. Timeout policy belongs to the caller, not the traversal
//  2. Tests can inject httptest clients
//  3. The image materializer can share the same client
func NewSpider(client *http.Client, opts ...SpiderOption) *Spider {
	s := &Spider{
		client:           client,
		maxImagesPerPage: 10,
		userAgent:        "webcrawler",
		maxBodySize:      10 * 1024 * 1024, // 10MB
		visited:          make(map[string]bool),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// queueItem represents an item in the crawl frontier.
type queueItem struct {
	url   string
	depth int
}

// Crawl explores the link graph rooted at seedURL breadth-first, bounded by
// maxDepth, and returns the image descriptors collected from every visited
// page in discovery order.
//
// The seed page is depth 0. Images are collected from every visited page
// regardless of depth; links are only followed from pages whose depth is
// strictly below maxDepth. Each distinct URL is fetched at most once per
// crawl, so cyclic graphs (including self-links) always terminate.
//
// A page whose fetch fails contributes zero images and zero links; the
// crawl continues. The only errors returned are an unparsable seed URL and
// context cancellation.
func (s *Spider) Crawl(ctx context.Context, seedURL string, maxDepth int) ([]model.Image, error) {
	if _, err := url.Parse(seedURL); err != nil {
		return nil, fmt.Errorf("invalid seed URL: %w", err)
	}

	images := make([]model.Image, 0)
	queue := make([]queueItem, 0)
	queue = append(queue, queueItem{url: seedURL, depth: 0})

	for len(queue) > 0 {
		// Check context
		select {
		case <-ctx.Done():
			return images, ctx.Err()
		default:
		}

		// Pop from the frontier
		item := queue[0]
		queue = queue[1:]

		// Revisit suppression is checked at dequeue time, not enqueue time,
		// to keep enqueuing cheap and centralize the dedup check. Pages
		// commonly link to each other and to themselves; without this the
		// frontier would expand without bound.
		if s.isVisited(item.url) {
			continue
		}
		s.markVisited(item.url)

		s.logger.Info("fetching page", "url", item.url, "depth", item.depth)

		result := s.fetchPage(ctx, item.url)
		if result == nil {
			// Unreachable or erroring page: zero images, zero links.
			continue
		}

		images = append(images, s.collectImages(result, item.url, item.depth)...)

		// Link-following stops at the depth ceiling; image collection above
		// does not.
		if item.depth >= maxDepth {
			continue
		}

		base, err := url.Parse(item.url)
		if err != nil {
			continue
		}
		for _, href := range result.Links {
			resolved := ResolveLink(base, href)
			if resolved == "" {
				continue
			}
			// Enqueued unconditionally; dedup happens at dequeue.
			queue = append(queue, queueItem{url: resolved, depth: item.depth + 1})
		}
	}

	return images, nil
}

// collectImages turns a page's image sources into descriptors, applying the
// per-page cap. The cap is a prefix cut of the full in-order match list:
// duplicates count toward it, and it applies per page fetch, not globally.
func (s *Spider) collectImages(result *ParseResult, pageURL string, depth int) []model.Image {
	sources := result.Images
	if len(sources) > s.maxImagesPerPage {
		sources = sources[:s.maxImagesPerPage]
	}

	descriptors := make([]model.Image, 0, len(sources))
	for _, src := range sources {
		descriptors = append(descriptors, model.Image{
			URL:   src,
			Page:  pageURL,
			Depth: depth,
		})
	}
	return descriptors
}

// fetchPage fetches a single page and extracts its content.
// Any failure (transport error, unreadable body, unparsable markup) is
// logged and reported as nil so the caller treats the page as empty.
// One attempt, no retries.
func (s *Spider) fetchPage(ctx context.Context, pageURL string) *ParseResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		s.recordFailure(pageURL, err)
		return nil
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for name, value := range s.headers {
		req.Header.Set(name, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.recordFailure(pageURL, err)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		s.recordFailure(pageURL, err)
		return nil
	}

	s.mutex.Lock()
	s.pagesVisited++
	s.mutex.Unlock()

	parser, err := NewParser(pageURL)
	if err != nil {
		return nil
	}

	result, err := parser.Parse(strings.NewReader(string(body)))
	if err != nil {
		// Unparsable markup degenerates to an empty page, not an error.
		s.logger.Debug("failed to parse markup", "url", pageURL, "error", err)
		return &ParseResult{}
	}

	return result
}

// recordFailure logs a page fetch failure and bumps the failure counter.
func (s *Spider) recordFailure(pageURL string, err error) {
	s.logger.Error("failed to fetch page", "url", pageURL, "error", err)
	s.mutex.Lock()
	s.pagesFailed++
	s.mutex.Unlock()
}

// isVisited checks if a URL has been processed.
func (s *Spider) isVisited(pageURL string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.visited[hashURL(normalizeURL(pageURL))]
}

// markVisited marks a URL as processed.
func (s *Spider) markVisited(pageURL string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.visited[hashURL(normalizeURL(pageURL))] = true
}

// hashURL returns the SHA-256 hash of a URL as a hex string.
// Storing hashes instead of full URLs keeps the visited set compact when
// crawls touch many long URLs.
func hashURL(pageURL string) string {
	sum := sha256.Sum256([]byte(pageURL))
	return hex.EncodeToString(sum[:])
}

// normalizeURL normalizes a URL for deduplication.
//
// Design decision: We normalize URLs because:
//  1. Same page can have different URL representations
//  2. Fragment (#anchor) doesn't change content
//  3. http://example.com and http://example.com/ are the same page
func normalizeURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}

	// Remove fragment
	u.Fragment = ""

	// Normalize scheme and host to lowercase
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	// Normalize root path (empty path and "/" are equivalent)
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// Reset clears the spider's state, allowing it to be reused for a new crawl.
func (s *Spider) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.visited = make(map[string]bool)
	s.pagesVisited = 0
	s.pagesFailed = 0
}

// Stats returns current crawl statistics.
func (s *Spider) Stats() SpiderStats {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return SpiderStats{
		PagesVisited: s.pagesVisited,
		PagesFailed:  s.pagesFailed,
	}
}

// SpiderStats contains crawl statistics.
type SpiderStats struct {
	// PagesVisited is the number of pages successfully fetched.
	PagesVisited int

	// PagesFailed is the number of pages whose fetch failed.
	PagesFailed int
}
