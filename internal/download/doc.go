// Package download materializes crawl results on disk.
//
// The package has two responsibilities: writing the images.json metadata
// file and downloading the referenced image bytes into the output
// directory. Both operate on the descriptor sequence produced by the
// crawler package.
//
// Design decision: Downloads are best-effort. A single unreachable image,
// bad status code, or write failure is counted and logged but never aborts
// the batch; the caller decides what to do with the failure count.
package download
