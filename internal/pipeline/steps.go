package pipeline

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/xshapira/web-crawler-cli/internal/config"
	"github.com/xshapira/web-crawler-cli/internal/crawler"
	"github.com/xshapira/web-crawler-cli/internal/database"
	"github.com/xshapira/web-crawler-cli/internal/download"
	"github.com/xshapira/web-crawler-cli/internal/exif"
	"github.com/xshapira/web-crawler-cli/internal/model"
)

// CrawlStep walks the site starting from the seed URL and collects image
// descriptors into the report.
//
// Design decision: Crawling is the only step that can fail the whole
// pipeline. Without descriptors there is nothing for later steps to
// persist, download, or inspect.
type CrawlStep struct {
	// client is the HTTP client used to fetch pages.
	client *http.Client

	// maxImagesPerPage caps how many descriptors one page contributes.
	maxImagesPerPage int

	// userAgent is the User-Agent header sent with page requests.
	userAgent string

	// headers are additional HTTP headers to send with requests.
	headers map[string]string

	// maxBodySize limits the size of page bodies to read.
	maxBodySize int64

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlMaxImagesPerPage caps how many images one page contributes.
func WithCrawlMaxImagesPerPage(n int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.maxImagesPerPage = n
	}
}

// WithCrawlUserAgent sets the User-Agent header for page requests.
func WithCrawlUserAgent(userAgent string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.userAgent = userAgent
	}
}

// WithCrawlHeaders sets additional HTTP headers for page requests.
func WithCrawlHeaders(headers map[string]string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.headers = headers
	}
}

// WithCrawlMaxBodySize sets the maximum page body size in bytes.
func WithCrawlMaxBodySize(n int64) CrawlStepOption {
	return func(s *CrawlStep) {
		s.maxBodySize = n
	}
}

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a new crawling step.
func NewCrawlStep(client *http.Client, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		client:           client,
		maxImagesPerPage: config.DefaultMaxImagesPerPage,
		userAgent:        config.DefaultUserAgent,
		maxBodySize:      config.DefaultMaxBodySize,
		logger:           slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl step.
func (s *CrawlStep) Do(ctx context.Context, report *model.CrawlReport) error {
	spiderOpts := []crawler.SpiderOption{
		crawler.WithMaxImagesPerPage(s.maxImagesPerPage),
		crawler.WithUserAgent(s.userAgent),
		crawler.WithMaxBodySize(s.maxBodySize),
		crawler.WithLogger(s.logger),
	}
	if len(s.headers) > 0 {
		spiderOpts = append(spiderOpts, crawler.WithHeaders(s.headers))
	}

	spider := crawler.NewSpider(s.client, spiderOpts...)

	images, err := spider.Crawl(ctx, report.SeedURL, report.MaxDepth)
	if err != nil {
		return err
	}
	report.Images = images

	stats := spider.Stats()
	report.PagesVisited = stats.PagesVisited
	report.PagesFailed = stats.PagesFailed

	s.logger.Info("crawl completed",
		"pages_visited", stats.PagesVisited,
		"pages_failed", stats.PagesFailed,
		"images_found", len(images),
	)

	return nil
}

// MetadataStep recreates the output directory and writes images.json.
type MetadataStep struct {
	// outputDir is the directory the metadata file is written to.
	outputDir string

	// logger for structured logging.
	logger *slog.Logger
}

// MetadataStepOption configures a MetadataStep.
type MetadataStepOption func(*MetadataStep)

// WithMetadataLogger sets a custom logger for the metadata step.
func WithMetadataLogger(logger *slog.Logger) MetadataStepOption {
	return func(s *MetadataStep) {
		s.logger = logger
	}
}

// NewMetadataStep creates a step that persists the metadata file.
func NewMetadataStep(outputDir string, opts ...MetadataStepOption) *MetadataStep {
	s := &MetadataStep{
		outputDir: outputDir,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *MetadataStep) Name() string {
	return "metadata"
}

// Do executes the metadata step.
func (s *MetadataStep) Do(_ context.Context, report *model.CrawlReport) error {
	m := download.NewMaterializer(nil, s.outputDir, download.WithLogger(s.logger))
	return m.PersistMetadata(report.Images)
}

// DownloadStep fetches the image bytes for every discovered descriptor.
type DownloadStep struct {
	// client is the HTTP client used to fetch image bytes.
	client *http.Client

	// outputDir is the directory images are written to.
	outputDir string

	// concurrency bounds parallel downloads.
	concurrency int

	// userAgent is the User-Agent header sent with image requests.
	userAgent string

	// maxImageSize caps the bytes read from one image response.
	maxImageSize int64

	// logger for structured logging.
	logger *slog.Logger
}

// DownloadStepOption configures a DownloadStep.
type DownloadStepOption func(*DownloadStep)

// WithDownloadConcurrency sets the number of parallel downloads.
func WithDownloadConcurrency(n int) DownloadStepOption {
	return func(s *DownloadStep) {
		s.concurrency = n
	}
}

// WithDownloadUserAgent sets the User-Agent header for image requests.
func WithDownloadUserAgent(userAgent string) DownloadStepOption {
	return func(s *DownloadStep) {
		s.userAgent = userAgent
	}
}

// WithDownloadMaxImageSize caps the bytes read from one image response.
func WithDownloadMaxImageSize(n int64) DownloadStepOption {
	return func(s *DownloadStep) {
		s.maxImageSize = n
	}
}

// WithDownloadLogger sets a custom logger for the download step.
func WithDownloadLogger(logger *slog.Logger) DownloadStepOption {
	return func(s *DownloadStep) {
		s.logger = logger
	}
}

// NewDownloadStep creates a step that downloads image bytes.
func NewDownloadStep(client *http.Client, outputDir string, opts ...DownloadStepOption) *DownloadStep {
	s := &DownloadStep{
		client:       client,
		outputDir:    outputDir,
		concurrency:  config.DefaultDownloadConcurrency,
		userAgent:    config.DefaultUserAgent,
		maxImageSize: download.DefaultMaxImageSize,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *DownloadStep) Name() string {
	return "download"
}

// Do executes the download step.
func (s *DownloadStep) Do(ctx context.Context, report *model.CrawlReport) error {
	if len(report.Images) == 0 {
		s.logger.Debug("skipping download, no images found")
		return nil
	}

	m := download.NewMaterializer(s.client, s.outputDir,
		download.WithConcurrency(s.concurrency),
		download.WithUserAgent(s.userAgent),
		download.WithMaxImageSize(s.maxImageSize),
		download.WithLogger(s.logger),
	)

	result, err := m.Download(ctx, report.Images)
	if err != nil {
		return err
	}
	report.Download = result

	s.logger.Info("download completed",
		"files", len(result.Files),
		"duplicates", result.Duplicates,
		"base64_skipped", result.Base64Skips,
		"failures", result.Failures,
	)

	return nil
}

// ExifStep inspects downloaded image files for EXIF metadata.
type ExifStep struct {
	// logger for structured logging.
	logger *slog.Logger
}

// ExifStepOption configures an ExifStep.
type ExifStepOption func(*ExifStep)

// WithExifLogger sets a custom logger for the EXIF step.
func WithExifLogger(logger *slog.Logger) ExifStepOption {
	return func(s *ExifStep) {
		s.logger = logger
	}
}

// NewExifStep creates a step that inspects downloaded files.
func NewExifStep(opts ...ExifStepOption) *ExifStep {
	s := &ExifStep{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ExifStep) Name() string {
	return "exif"
}

// Do executes the EXIF inspection step.
func (s *ExifStep) Do(ctx context.Context, report *model.CrawlReport) error {
	if report.Download == nil || len(report.Download.Files) == 0 {
		s.logger.Debug("skipping EXIF inspection, no downloaded files")
		return nil
	}

	inspector := exif.NewInspector(exif.WithLogger(s.logger))
	findings, err := inspector.Inspect(ctx, report.Download.Files)
	if err != nil {
		return err
	}
	report.ExifFindings = findings

	s.logger.Info("EXIF inspection completed", "findings", len(findings))
	return nil
}

// HistoryStep records the completed run in the history database.
type HistoryStep struct {
	// dbDir is the directory holding the SQLite database file.
	dbDir string

	// logger for structured logging.
	logger *slog.Logger
}

// HistoryStepOption configures a HistoryStep.
type HistoryStepOption func(*HistoryStep)

// WithHistoryLogger sets a custom logger for the history step.
func WithHistoryLogger(logger *slog.Logger) HistoryStepOption {
	return func(s *HistoryStep) {
		s.logger = logger
	}
}

// NewHistoryStep creates a step that saves the run.
func NewHistoryStep(dbDir string, opts ...HistoryStepOption) *HistoryStep {
	s := &HistoryStep{
		dbDir:  dbDir,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *HistoryStep) Name() string {
	return "history"
}

// Do executes the history step.
func (s *HistoryStep) Do(ctx context.Context, report *model.CrawlReport) error {
	if report.Duration == 0 {
		report.Duration = time.Since(report.StartedAt)
	}

	hdb, err := database.Open(s.dbDir, database.DefaultOptions())
	if err != nil {
		return err
	}
	defer hdb.Close()

	runID, err := hdb.SaveRun(ctx, report)
	if err != nil {
		return err
	}

	s.logger.Info("run recorded", "run_id", runID, "database_dir", s.dbDir)
	return nil
}

// DefaultPipeline creates a pipeline with the standard steps for the given
// configuration: crawl, metadata, and optionally download, EXIF inspection,
// and history recording.
//
// Design decision: We provide a default pipeline because:
// 1. Most users want the full run
// 2. Reduces boilerplate in the CLI
// 3. Ensures consistent step ordering
func DefaultPipeline(client *http.Client, cfg *config.Config, pipelineOpts ...Option) *Pipeline {
	p := New(pipelineOpts...)

	p.AddSteps(
		NewCrawlStep(client,
			WithCrawlMaxImagesPerPage(cfg.MaxImagesPerPage),
			WithCrawlUserAgent(cfg.UserAgent),
			WithCrawlMaxBodySize(cfg.MaxBodySize),
			WithCrawlLogger(p.logger),
		),
		NewMetadataStep(cfg.OutputDir, WithMetadataLogger(p.logger)),
	)

	if !cfg.SkipDownload {
		p.AddSteps(
			NewDownloadStep(client, cfg.OutputDir,
				WithDownloadConcurrency(cfg.DownloadConcurrency),
				WithDownloadUserAgent(cfg.UserAgent),
				WithDownloadLogger(p.logger),
			),
			NewExifStep(WithExifLogger(p.logger)),
		)
	}

	if !cfg.SkipHistory {
		p.AddStep(NewHistoryStep(cfg.DBDir, WithHistoryLogger(p.logger)))
	}

	return p
}
