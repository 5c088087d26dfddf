// Package pipeline orchestrates the stages of a crawl run.
//
// A run is a sequence of steps executed in order: crawl the site, persist
// the metadata file, download the image bytes, inspect them for EXIF data,
// and record the run in the history database. Each step reads and extends
// the shared CrawlReport, so later steps can build on what earlier steps
// produced.
package pipeline
