// Package main provides the entry point for the webcrawler CLI.
//
// webcrawler walks a site breadth-first from a seed URL, records every
// image it finds into images/images.json, and downloads the image bytes.
//
// Usage:
//
//	webcrawler <seed-url> <max-depth>
//	webcrawler batch <file>
//	webcrawler history
//
// See --help for all available options.
package main

// main is the entry point for webcrawler.
func main() {
	Execute()
}
