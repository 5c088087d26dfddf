package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/xshapira/web-crawler-cli/internal/model"
)

// DatabaseFileName is the name of the SQLite database file.
const DatabaseFileName = "webcrawler.db"

// HistoryDB provides SQLite-based storage for crawl runs.
// It manages connection pooling and provides methods for saving and
// querying past crawls.
//
// Design decision: We use a single database file for all seed URLs rather
// than one file per site. Queries across seeds ("what did I crawl last
// week") stay simple and backup is a single file copy.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an error
// is returned instead of silently creating an empty history.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, DatabaseFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per crawl invocation
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed_url TEXT NOT NULL,
		max_depth INTEGER NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		duration_ms INTEGER,
		pages_visited INTEGER,
		pages_failed INTEGER,
		images_found INTEGER,
		images_downloaded INTEGER,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_seed ON crawl_runs(seed_url);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON crawl_runs(timestamp);

	-- One row per discovered image descriptor
	CREATE TABLE IF NOT EXISTS crawl_images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES crawl_runs(id),
		url TEXT NOT NULL,
		page TEXT NOT NULL,
		depth INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_images_run ON crawl_images(run_id);
	CREATE INDEX IF NOT EXISTS idx_images_url ON crawl_images(url);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a completed crawl report and its image descriptors.
// It returns the database ID of the new run.
func (hdb *HistoryDB) SaveRun(ctx context.Context, report *model.CrawlReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	query := `
	INSERT INTO crawl_runs (seed_url, max_depth, duration_ms, pages_visited, pages_failed, images_found, images_downloaded, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		report.SeedURL,
		report.MaxDepth,
		report.Duration.Milliseconds(),
		report.PagesVisited,
		report.PagesFailed,
		len(report.Images),
		report.DownloadedCount(),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	imageQuery := `INSERT INTO crawl_images (run_id, url, page, depth) VALUES (?, ?, ?, ?)`
	for _, img := range report.Images {
		if _, err := tx.ExecContext(ctx, imageQuery, runID, img.URL, img.Page, img.Depth); err != nil {
			return 0, fmt.Errorf("failed to insert image row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// RunSummary contains summary information about a stored crawl run.
// This is used for displaying history without loading the full report.
type RunSummary struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// SeedURL is the URL the crawl started from.
	SeedURL string

	// MaxDepth is the depth limit the run used.
	MaxDepth int

	// Timestamp is when the run was recorded.
	Timestamp time.Time

	// Duration is the wall-clock time of the run.
	Duration time.Duration

	// PagesVisited is the number of pages fetched.
	PagesVisited int

	// PagesFailed is the number of failed page fetches.
	PagesFailed int

	// ImagesFound is the number of image descriptors recorded.
	ImagesFound int

	// ImagesDownloaded is the number of image files written to disk.
	ImagesDownloaded int
}

// RecentRuns returns the most recent runs, newest first.
// A limit of zero or less returns all runs.
func (hdb *HistoryDB) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
	SELECT id, seed_url, max_depth, timestamp, duration_ms, pages_visited, pages_failed, images_found, images_downloaded
	FROM crawl_runs
	ORDER BY timestamp DESC, id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		var summary RunSummary
		var timestamp string
		var durationMS int64

		err := rows.Scan(
			&summary.ID,
			&summary.SeedURL,
			&summary.MaxDepth,
			&timestamp,
			&durationMS,
			&summary.PagesVisited,
			&summary.PagesFailed,
			&summary.ImagesFound,
			&summary.ImagesDownloaded,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		summary.Timestamp = parseTimestamp(timestamp)
		summary.Duration = time.Duration(durationMS) * time.Millisecond
		results = append(results, summary)
	}

	return results, rows.Err()
}

// GetRunReport retrieves the full stored report for a run by its ID.
// It returns nil without an error when no such run exists.
func (hdb *HistoryDB) GetRunReport(ctx context.Context, id int64) (*model.CrawlReport, error) {
	query := `SELECT report_json FROM crawl_runs WHERE id = ?`

	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// ListSeedURLs returns every distinct seed URL with at least one stored run.
func (hdb *HistoryDB) ListSeedURLs(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT seed_url FROM crawl_runs
	ORDER BY seed_url
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list seed URLs: %w", err)
	}
	defer rows.Close()

	var seeds []string
	for rows.Next() {
		var seed string
		if err := rows.Scan(&seed); err != nil {
			return nil, fmt.Errorf("failed to scan seed URL: %w", err)
		}
		seeds = append(seeds, seed)
	}

	return seeds, rows.Err()
}

// ImagesForRun returns the image descriptors recorded for a run.
func (hdb *HistoryDB) ImagesForRun(ctx context.Context, runID int64) ([]model.Image, error) {
	query := `
	SELECT url, page, depth FROM crawl_images
	WHERE run_id = ?
	ORDER BY id
	`

	rows, err := hdb.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var images []model.Image
	for rows.Next() {
		var img model.Image
		if err := rows.Scan(&img.URL, &img.Page, &img.Depth); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, img)
	}

	return images, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on
// configuration. If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
