package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xshapira/web-crawler-cli/internal/config"
	"github.com/xshapira/web-crawler-cli/internal/database"
	"github.com/xshapira/web-crawler-cli/internal/report"
)

// defaultHistoryLimit is how many runs the history listing shows unless
// overridden with --limit.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// This command inspects crawl runs recorded in the local database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previously recorded crawl runs",
		Long: `History lists crawl runs recorded in the local database and can
replay the full report of any stored run.

Every crawl is saved automatically unless --no-save was used, so this
command lets you review what was collected without crawling again.

Examples:
  # List the most recent runs
  webcrawler history

  # List the last 50 runs
  webcrawler history --limit 50

  # Show the full report for run 12
  webcrawler history --id 12

  # Show run 12 as JSON
  webcrawler history --id 12 --json

  # List every seed URL ever crawled
  webcrawler history --seeds`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", defaultHistoryLimit,
		"Maximum number of runs to list")
	cmd.Flags().Int64P("id", "i", 0,
		"Show the full report for a specific run ID (use the listing to find IDs)")
	cmd.Flags().BoolP("seeds", "s", false,
		"List all seed URLs present in the database")
	cmd.Flags().BoolP("json", "j", false,
		"Output the run report in JSON format (only with --id)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}
	listSeeds, err := cmd.Flags().GetBool("seeds")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	// Open without creating so a fresh machine gets a helpful message
	// instead of an empty database file.
	db, err := database.Open(config.XDGDataDir(), database.Options{})
	if err != nil {
		return fmt.Errorf("no crawl history found (run 'webcrawler <seed-url> <max-depth>' first): %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if listSeeds {
		return listSeedURLs(ctx, db)
	}

	if runID > 0 {
		return showRunReport(ctx, cmd, db, runID, jsonOutput)
	}

	return listRecentRuns(ctx, db, limit)
}

// listRecentRuns prints a table of the most recent crawl runs.
func listRecentRuns(ctx context.Context, db *database.HistoryDB, limit int) error {
	runs, err := db.RecentRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No crawl runs recorded yet.")
		fmt.Println("\nUse 'webcrawler <seed-url> <max-depth>' to crawl a site.")
		return nil
	}

	fmt.Printf("Recent crawl runs (%d):\n\n", len(runs))
	fmt.Printf("  %-6s  %-20s  %-6s  %-7s  %-7s  %s\n",
		"ID", "Date", "Depth", "Pages", "Images", "Seed URL")
	fmt.Println("  " + strings.Repeat("-", 76))

	for _, run := range runs {
		fmt.Printf("  %-6d  %-20s  %-6d  %-7d  %-7d  %s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.MaxDepth,
			run.PagesVisited,
			run.ImagesFound,
			run.SeedURL,
		)
	}

	fmt.Println("\nUse 'webcrawler history --id <id>' to see the full report for a run.")

	return nil
}

// showRunReport prints the full stored report for a single run.
func showRunReport(ctx context.Context, cmd *cobra.Command, db *database.HistoryDB, runID int64, jsonOutput bool) error {
	crawlReport, err := db.GetRunReport(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run %d: %w", runID, err)
	}
	if crawlReport == nil {
		return fmt.Errorf("run with ID %d not found", runID)
	}

	var writer report.Writer
	if jsonOutput {
		writer = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint())
	} else {
		writer = report.NewSimpleWriter(cmd.OutOrStdout(), report.WithVerbose(true))
	}

	_, err = writer.Write(crawlReport)
	return err
}

// listSeedURLs prints every distinct seed URL in the database.
func listSeedURLs(ctx context.Context, db *database.HistoryDB) error {
	seeds, err := db.ListSeedURLs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list seed URLs: %w", err)
	}

	if len(seeds) == 0 {
		fmt.Println("No crawl runs recorded yet.")
		fmt.Println("\nUse 'webcrawler <seed-url> <max-depth>' to crawl a site.")
		return nil
	}

	fmt.Printf("Crawled seed URLs (%d):\n\n", len(seeds))
	for _, seed := range seeds {
		fmt.Printf("  %s\n", seed)
	}

	return nil
}
