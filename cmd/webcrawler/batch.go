package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/xshapira/web-crawler-cli/internal/config"
	"github.com/xshapira/web-crawler-cli/internal/model"
	"github.com/xshapira/web-crawler-cli/internal/pipeline"
)

// NewBatchCmd creates the batch command.
func NewBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Crawl multiple seed URLs listed in a file",
		Long: `Batch reads seed URLs from a file (one per line, blank lines and
lines starting with # are skipped) and crawls them concurrently.

Each seed gets its own subdirectory under the output directory, named
after the seed's hostname, so downloads from different sites never
collide.

Examples:
  # Crawl every seed in seeds.txt one link deep
  webcrawler batch --depth 1 seeds.txt

  # Crawl four sites at a time
  webcrawler batch --concurrency 4 seeds.txt`,
		Args: cobra.ExactArgs(1),
		RunE: runBatchCmd,
	}

	cmd.Flags().IntP("depth", "d", 0,
		"Maximum crawl recursion depth for every seed")
	cmd.Flags().IntP("concurrency", "n", pipeline.DefaultBatchConcurrency,
		"Number of seeds crawled concurrently")
	cmd.Flags().StringP("output-dir", "o", config.DefaultOutputDir,
		"Base directory for per-seed image directories")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().Bool("no-download", false,
		"Skip downloading image bytes; only write metadata")
	cmd.Flags().Bool("no-save", false,
		"Skip recording runs in the history database")

	return cmd
}

// runBatchCmd executes the batch command.
func runBatchCmd(cmd *cobra.Command, args []string) error {
	seeds, err := readSeedFile(args[0])
	if err != nil {
		return err
	}
	if len(seeds) == 0 {
		return fmt.Errorf("no seed URLs found in %s", args[0])
	}

	maxDepth, err := cmd.Flags().GetInt("depth")
	if err != nil {
		return err
	}
	concurrency, err := cmd.Flags().GetInt("concurrency")
	if err != nil {
		return err
	}
	outputDir, err := cmd.Flags().GetString("output-dir")
	if err != nil {
		return err
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	skipDownload, err := cmd.Flags().GetBool("no-download")
	if err != nil {
		return err
	}
	skipHistory, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return err
	}
	if maxDepth < 0 {
		return fmt.Errorf("invalid depth %d: must be a non-negative integer", maxDepth)
	}

	verbose := getVerboseFlag(cmd)
	logger := setupLogger(verbose)
	slog.SetDefault(logger)

	client := &http.Client{Timeout: timeout}

	// Every seed shares the same settings; only the output directory
	// varies so downloads from different hosts stay separate.
	factory := func(seedURL string) *pipeline.Pipeline {
		cfg := config.NewConfig()
		cfg.SeedURL = seedURL
		cfg.MaxDepth = maxDepth
		cfg.Timeout = timeout
		cfg.OutputDir = filepath.Join(outputDir, seedDirName(seedURL))
		cfg.SkipDownload = skipDownload
		cfg.SkipHistory = skipHistory
		cfg.DBDir = config.XDGDataDir()
		return buildPipeline(client, cfg, logger)
	}

	bp := pipeline.NewBatchProcessor(factory, maxDepth,
		pipeline.WithBatchConcurrency(concurrency),
		pipeline.WithBatchLogger(logger),
	)

	fmt.Printf("Starting batch crawl of %d seeds (concurrency: %d)...\n\n",
		len(seeds), concurrency)
	startTime := time.Now()

	var mu sync.Mutex
	err = bp.ProcessBatchWithCallback(cmd.Context(), seeds, func(crawlReport *model.CrawlReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		if crawlReport.ErrorMessage != "" {
			fmt.Printf("[%d/%d] Crawl failed: %s (%s)\n",
				index+1, len(seeds), crawlReport.SeedURL, crawlReport.ErrorMessage)
			return
		}
		fmt.Printf("[%d/%d] Crawl completed: %s (%d images, %d pages)\n",
			index+1, len(seeds), crawlReport.SeedURL,
			len(crawlReport.Images), crawlReport.PagesVisited)
	})

	fmt.Printf("\nBatch crawl completed in %s\n", time.Since(startTime).Round(time.Millisecond))

	return err
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// readSeedFile reads seed URLs from a file, one per line.
// Blank lines and lines starting with # are skipped.
func readSeedFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	var seeds []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seeds = append(seeds, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	return seeds, nil
}

// seedDirName derives a filesystem-safe directory name from a seed URL.
// Falls back to a sanitized form of the whole URL when it does not parse.
func seedDirName(seedURL string) string {
	if parsed, err := url.Parse(seedURL); err == nil && parsed.Hostname() != "" {
		return sanitizePathComponent(parsed.Hostname())
	}
	return sanitizePathComponent(seedURL)
}

// sanitizePathComponent replaces characters that are unsafe in a single
// path component.
func sanitizePathComponent(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
