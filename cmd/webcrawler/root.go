package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xshapira/web-crawler-cli/internal/config"
	xlog "github.com/xshapira/web-crawler-cli/internal/log"
	"github.com/xshapira/web-crawler-cli/internal/model"
	"github.com/xshapira/web-crawler-cli/internal/pipeline"
	"github.com/xshapira/web-crawler-cli/internal/report"
)

// NewRootCmd creates the root command for webcrawler.
// The root command itself performs the crawl; subcommands cover history
// and batch operation.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webcrawler <seed-url> <max-depth>",
		Short: "Crawl a site and collect the images it references",
		Long: `webcrawler walks a site breadth-first starting from the seed URL,
following links up to max-depth hops away. Every <img> it encounters is
recorded into images/images.json and downloaded into the images directory.

The seed page is depth 0. Pages at the depth limit still contribute
images; only their links are not followed.

Examples:
  # Crawl only the seed page
  webcrawler https://example.com 0

  # Follow links two hops deep, verbose logging
  webcrawler -v https://example.com 2

  # Collect metadata without downloading image bytes
  webcrawler --no-download https://example.com 1

  # Write a markdown report to a file
  webcrawler --markdown -o report.md https://example.com 1

Configuration file (.webcrawler) example:
  defaults:
    userAgent: "mybot/1.0"
  sites:
    example.com:
      maxImages: 5
      headers:
        Authorization: "Bearer token"`,
		Args:          cobra.ExactArgs(2),
		RunE:          runRootCmd,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Crawl behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().IntP("max-images", "i", config.DefaultMaxImagesPerPage,
		"Maximum images collected per page")
	cmd.Flags().StringP("output-dir", "d", config.DefaultOutputDir,
		"Directory for downloaded images and images.json")
	cmd.Flags().IntP("concurrency", "n", config.DefaultDownloadConcurrency,
		"Number of concurrent image downloads")
	cmd.Flags().Bool("no-download", false,
		"Skip downloading image bytes; only write metadata")
	cmd.Flags().Bool("no-save", false,
		"Skip recording the run in the history database")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .webcrawler in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Add subcommands
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewBatchCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runRootCmd executes a crawl from the command line arguments.
func runRootCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// buildConfig creates a Config from cobra command flags and the two
// positional arguments: the seed URL and the depth limit.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	cfg.SeedURL = args[0]

	maxDepth, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, fmt.Errorf("invalid max-depth %q: must be a non-negative integer", args[1])
	}
	cfg.MaxDepth = maxDepth

	cfg.Verbose = getVerboseFlag(cmd)

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxImagesPerPage, err = cmd.Flags().GetInt("max-images")
	if err != nil {
		return nil, err
	}

	cfg.OutputDir, err = cmd.Flags().GetString("output-dir")
	if err != nil {
		return nil, err
	}

	cfg.DownloadConcurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.SkipDownload, err = cmd.Flags().GetBool("no-download")
	if err != nil {
		return nil, err
	}

	cfg.SkipHistory, err = cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// History database lives in the XDG data directory.
	cfg.DBDir = config.XDGDataDir()

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// Long attribute values (page snippets, URLs with huge query strings) are
// capped so log lines stay readable.
func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := xlog.NewTruncateHandler(slog.NewTextHandler(os.Stderr, opts))
	return slog.New(handler)
}

// runCrawl executes a single crawl and renders the report.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	applySiteConfig(cfg)

	client := &http.Client{Timeout: cfg.Timeout}

	p := buildPipeline(client, cfg, logger)

	crawlReport := model.NewCrawlReport(cfg.SeedURL, cfg.MaxDepth)

	fmt.Printf("Crawling %s (max depth %d)...\n", cfg.SeedURL, cfg.MaxDepth)

	err := p.Execute(ctx, crawlReport)
	crawlReport.Duration = time.Since(crawlReport.StartedAt)
	if err != nil {
		logger.Error("crawl failed", "seed", cfg.SeedURL, "error", err)
		return err
	}

	fmt.Printf("Crawl completed in %s\n", crawlReport.Duration.Round(time.Millisecond))

	return outputReport(cfg, crawlReport)
}

// applySiteConfig merges per-host overrides from the config file into the
// effective configuration for this seed.
func applySiteConfig(cfg *config.Config) {
	if cfg.SiteConfigs == nil {
		return
	}

	parsed, err := url.Parse(cfg.SeedURL)
	if err != nil {
		return
	}

	siteCfg := cfg.SiteConfigs.GetSiteConfig(parsed.Hostname())
	if siteCfg.UserAgent != "" {
		cfg.UserAgent = siteCfg.UserAgent
	}
	if siteCfg.MaxImages > 0 {
		cfg.MaxImagesPerPage = siteCfg.MaxImages
	}
}

// buildPipeline assembles the crawl pipeline for the effective
// configuration, including per-host headers from the config file.
func buildPipeline(client *http.Client, cfg *config.Config, logger *slog.Logger) *pipeline.Pipeline {
	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)

	crawlOpts := []pipeline.CrawlStepOption{
		pipeline.WithCrawlMaxImagesPerPage(cfg.MaxImagesPerPage),
		pipeline.WithCrawlUserAgent(cfg.UserAgent),
		pipeline.WithCrawlMaxBodySize(cfg.MaxBodySize),
		pipeline.WithCrawlLogger(logger),
	}
	if headers := siteHeaders(cfg); len(headers) > 0 {
		crawlOpts = append(crawlOpts, pipeline.WithCrawlHeaders(headers))
	}

	p.AddSteps(
		pipeline.NewCrawlStep(client, crawlOpts...),
		pipeline.NewMetadataStep(cfg.OutputDir, pipeline.WithMetadataLogger(logger)),
	)

	if !cfg.SkipDownload {
		p.AddSteps(
			pipeline.NewDownloadStep(client, cfg.OutputDir,
				pipeline.WithDownloadConcurrency(cfg.DownloadConcurrency),
				pipeline.WithDownloadUserAgent(cfg.UserAgent),
				pipeline.WithDownloadLogger(logger),
			),
			pipeline.NewExifStep(pipeline.WithExifLogger(logger)),
		)
	}

	if !cfg.SkipHistory {
		p.AddStep(pipeline.NewHistoryStep(cfg.DBDir, pipeline.WithHistoryLogger(logger)))
	}

	return p
}

// siteHeaders returns the custom headers configured for the seed's host.
func siteHeaders(cfg *config.Config) map[string]string {
	if cfg.SiteConfigs == nil {
		return nil
	}
	parsed, err := url.Parse(cfg.SeedURL)
	if err != nil {
		return nil
	}
	return cfg.SiteConfigs.GetSiteConfig(parsed.Hostname()).Headers
}

// outputReport renders the crawl report in the requested format.
func outputReport(cfg *config.Config, crawlReport *model.CrawlReport) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(crawlReport)
	return err
}
