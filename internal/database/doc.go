// Package database provides SQLite-based storage for crawl history.
//
// Every completed crawl can be recorded as a run: the seed URL, depth
// limit, counters, the full report as JSON, and one row per discovered
// image. The history command reads this database to show past runs
// without re-crawling.
package database
