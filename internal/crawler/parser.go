package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Parser extracts image sources and outgoing links from HTML content.
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because:
//  1. It correctly handles malformed HTML common on the web
//  2. Provides a proper DOM-like structure
//  3. More maintainable than complex regex patterns
//  4. Standard library extension, well-maintained
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving
	// relative image sources.
	baseURL *url.URL
}

// ParseResult contains everything extracted from one HTML page.
//
// Design decision: We return a result struct from a single parsing pass
// rather than separate extract methods because:
//  1. One DOM walk is more efficient than two
//  2. Document order is preserved for both sequences
//  3. Caller can choose what to use
type ParseResult struct {
	// Images contains image source URLs in document order, resolved
	// against the page URL. Inline data URIs are kept verbatim. The
	// sequence is uncapped; the per-page cap is applied by the Spider.
	Images []string

	// Links contains raw href values of anchor elements in document order.
	// They are not resolved; the Spider resolves them against the page URL
	// when it enqueues follow-up work.
	Links []string
}

// NewParser creates a new HTML parser with the given base URL.
// The base URL is used to resolve relative image sources.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse parses HTML content and extracts image sources and links.
// Malformed markup is handled by the tolerant parser; an empty document is
// a degenerate case yielding empty sequences, not an error.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Images: make([]string, 0),
		Links:  make([]string, 0),
	}

	// Walk the DOM tree in document order
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			p.processElement(n, result)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// processElement handles HTML element nodes.
func (p *Parser) processElement(n *html.Node, result *ParseResult) {
	switch n.Data {
	case "img":
		// Only elements carrying a src attribute produce descriptors.
		// An empty src resolves to the page URL itself, matching how
		// browsers treat it.
		if src, ok := attrValue(n, "src"); ok {
			result.Images = append(result.Images, p.resolveImageSource(src))
		}

	case "a":
		// Raw href values; resolution happens at enqueue time.
		if href, ok := attrValue(n, "href"); ok {
			result.Links = append(result.Links, href)
		}
	}
}

// resolveImageSource resolves an image src against the page URL.
//
// Inline data URIs pass through untouched: they must survive into the
// metadata record so the materializer can recognize and skip them.
// A src that cannot be parsed is also kept verbatim rather than dropped,
// so the descriptor list never silently loses an entry.
func (p *Parser) resolveImageSource(src string) string {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(src, "data:") {
		return src
	}

	u, err := url.Parse(src)
	if err != nil {
		return src
	}

	return p.baseURL.ResolveReference(u).String()
}

// ResolveLink resolves a raw href against a base page URL.
// Returns an empty string when the href cannot be parsed; such links are
// skipped because they could never be fetched anyway.
func ResolveLink(base *url.URL, href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

// attrValue retrieves an attribute from an HTML node, reporting whether the
// attribute is present at all. Presence matters: an empty src is still a
// source attribute, while a missing one is not.
func attrValue(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
