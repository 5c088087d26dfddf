// Package report renders crawl results in multiple output formats.
//
// Three writers are provided: SimpleWriter for human-readable terminal
// output, JSONWriter for tool integration, and MarkdownWriter for
// documentation and sharing. MultiWriter fans one report out to several
// destinations at once.
package report
