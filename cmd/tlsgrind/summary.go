package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/hakim/tlsgrind/internal/aggregate"
	"github.com/hakim/tlsgrind/internal/models"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the most frequent attacks, bugs and vulnerabilities",
	Long: `Print ranked tables from the results of the last ingestion.

The per-host results file ({processed_dir}/tls_scanner_results.json) is read and
recounted, so the tables always match what is on disk. Use --top to change how
many entries each table shows (0 = all).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Step 1: Get flags
		outputDir, _ := cmd.Flags().GetString("output")
		top, _ := cmd.Flags().GetInt("top")

		if outputDir == "" {
			outputDir = cfg.OutputDir()
		}
		if !cmd.Flags().Changed("top") {
			top = cfg.TopLimit
		}

		// Step 2: Load per-host results
		path := filepath.Join(outputDir, cfg.Outputs.ResultsJSON)
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w. Run 'tlsgrind ingest' first", path, err)
		}

		var hosts models.HostMap
		if err := json.Unmarshal(data, &hosts); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}

		pterm.Info.Printf("%d hosts in %s\n", len(hosts), path)

		// Step 3: Print tables
		for _, section := range []struct {
			title string
			field models.Field
		}{
			{"Top Attacks", models.FieldAttacks},
			{"Top Bugs", models.FieldBugs},
			{"Top Vulnerabilities", models.FieldVulnerabilities},
		} {
			table := aggregate.Count(hosts, section.field).Top(top)
			if err := printFrequencyTable(section.title, table); err != nil {
				return err
			}
		}

		return nil
	},
}

func init() {
	summaryCmd.Flags().StringP("output", "o", "", "Processed results directory (default: {results_dir}/{processed_dir})")
	summaryCmd.Flags().Int("top", 10, "Entries per table (0 = all)")
	rootCmd.AddCommand(summaryCmd)
}
