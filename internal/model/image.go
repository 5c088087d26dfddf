package model

// Image is a descriptor for one image discovered during a crawl.
// It records where the image lives, which page referenced it, and how many
// link hops that page is from the seed URL. Descriptors are immutable once
// created; the crawler only ever appends them to the result sequence.
//
// Design decision: We keep the JSON field names identical to the metadata
// file schema ("url", "page", "depth") so the descriptor can be serialized
// into images.json without a separate serialization type.
type Image struct {
	// URL is the absolute URL of the image source.
	// Inline data URIs (data:image/...;base64,...) are kept as-is; they are
	// recorded in metadata but never downloaded.
	URL string `json:"url"`

	// Page is the absolute URL of the page where the image was found.
	Page string `json:"page"`

	// Depth is the number of link hops from the seed URL to Page.
	// The seed page itself is depth 0.
	Depth int `json:"depth"`
}

// Metadata is the document written to images.json.
// The image order is the discovery order: page visitation order, and within
// one page, document order.
type Metadata struct {
	// Images is the ordered sequence of discovered image descriptors.
	Images []Image `json:"images"`
}

// DownloadedFile describes one image file written to the output directory.
type DownloadedFile struct {
	// URL is the image source URL the bytes were fetched from.
	URL string `json:"url"`

	// Path is the local file path the bytes were written to.
	Path string `json:"path"`

	// Size is the number of bytes written.
	Size int64 `json:"size"`

	// ContentType is the Content-Type header declared by the image response.
	// Empty if the server did not declare one.
	ContentType string `json:"content_type,omitempty"`
}

// DownloadResult summarizes one run of the image materializer.
type DownloadResult struct {
	// Files lists the files actually written, one per distinct image URL.
	Files []DownloadedFile `json:"files"`

	// Duplicates counts descriptors skipped because their URL was already
	// claimed by another descriptor in the same batch.
	Duplicates int `json:"duplicates"`

	// Base64Skips counts inline base64 data URIs that were recognized and
	// skipped without a network request.
	Base64Skips int `json:"base64_skips"`

	// Failures counts download attempts that failed (transport error, bad
	// status, or file write error). Failures never abort the batch.
	Failures int `json:"failures"`
}
