// Package config provides configuration structures and utilities for the
// crawler. It defines the crawl options built from CLI flags, the optional
// .webcrawler YAML file with per-host overrides, and validation for both.
package config
