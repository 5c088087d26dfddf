// Package model defines the core data structures shared across the crawler.
//
// The central type is Image, the immutable descriptor of one discovered
// image (source URL, originating page, discovery depth). CrawlReport ties
// together everything produced by one crawl run: the descriptor sequence,
// download results, and EXIF findings.
//
// Design decision: Models are plain structs with no behavior beyond simple
// accessors. Business logic lives in the packages that produce the data
// (crawler, download, exif); this package only defines the shapes so that
// every package can depend on it without cycles.
package model
