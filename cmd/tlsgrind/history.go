package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hakim/tlsgrind/internal/models"
	"github.com/hakim/tlsgrind/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show ingestion history",
	Long: `Display a formatted table of past ingestion runs.

Runs are listed newest-first. Each row shows the run ID (truncated), start time,
completion status and the file, host and skip counts.

Use --reports to restrict the list to one report directory and --limit to cap
the number of rows shown (default: 10).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Step 1: Get flags
		reportDir, _ := cmd.Flags().GetString("reports")
		limit, _ := cmd.Flags().GetInt("limit")

		// Step 2: Open bbolt store
		store, err := storage.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		// Step 3: List runs (sorted newest-first by store.ListRuns)
		runs, err := store.ListRuns(reportDir)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}

		if len(runs) == 0 {
			fmt.Println("No ingestion history found")
			return nil
		}

		// Step 4: Apply limit
		if limit > 0 && len(runs) > limit {
			runs = runs[:limit]
		}

		// Step 5: Print formatted table
		const separator = "────────────────────────────────────────────────────────────────────────────────"

		fmt.Println("\nIngestion History")
		fmt.Println(separator)
		fmt.Printf("  %-3s  %-12s  %-17s  %-9s  %6s  %6s  %7s  %s\n",
			"#", "Run ID", "Started", "Status", "Files", "Hosts", "Skipped", "Reports")
		fmt.Println(separator)

		for i, run := range runs {
			fmt.Printf("  %-3d  %-12s  %-17s  %-9s  %6d  %6d  %7d  %s\n",
				i+1,
				shortRunID(run.ID),
				run.StartedAt.UTC().Format("2006-01-02 15:04"),
				formatStatus(run.Status),
				run.FilesSeen,
				run.HostsParsed,
				run.FilesSkipped,
				run.ReportDir)
		}

		fmt.Println(separator)
		fmt.Printf("Total: %d run(s)\n\n", len(runs))

		return nil
	},
}

// shortRunID returns the first 8 characters of a UUID followed by "..." for
// compact table display. Falls back to the full ID when shorter than 8 chars.
func shortRunID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

// formatStatus converts a RunStatus to a display string, "-" when unset.
func formatStatus(s models.RunStatus) string {
	if s == "" {
		return "-"
	}
	return string(s)
}

func init() {
	historyCmd.Flags().String("reports", "", "Only show runs for this report directory")
	historyCmd.Flags().Int("limit", 10, "Maximum number of runs to display")
	rootCmd.AddCommand(historyCmd)
}
