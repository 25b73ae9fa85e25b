package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hakim/tlsgrind/internal/diff"
	"github.com/hakim/tlsgrind/internal/report"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare two processed-results directories",
	Long: `Compare the current processed results against an earlier copy.

This command loads tls_scanner_results.json (and the attack and bug frequency
files when present) from both directories and reports hosts that appeared or
disappeared, attacks and bugs newly detected or resolved on hosts present in
both, and frequency changes.

The markdown report is written to {current}/tls_scanner_diff.md unless --report
is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Step 1: Get flags
		previousDir, _ := cmd.Flags().GetString("previous")
		currentDir, _ := cmd.Flags().GetString("current")
		reportPath, _ := cmd.Flags().GetString("report")

		if currentDir == "" {
			currentDir = cfg.OutputDir()
		}
		if reportPath == "" {
			reportPath = filepath.Join(currentDir, "tls_scanner_diff.md")
		}

		files := diff.Files{
			Results: cfg.Outputs.ResultsJSON,
			Attacks: cfg.Outputs.AttacksJSON,
			Bugs:    cfg.Outputs.BugsJSON,
		}

		fmt.Printf("[*] Current results directory: %s\n", currentDir)
		fmt.Printf("[*] Previous results directory: %s\n", previousDir)

		// Step 2: Load both snapshots
		currentSnap, err := diff.LoadSnapshot(currentDir, files)
		if err != nil {
			return fmt.Errorf("loading current snapshot: %w", err)
		}

		previousSnap, err := diff.LoadSnapshot(previousDir, files)
		if err != nil {
			return fmt.Errorf("loading previous snapshot: %w", err)
		}

		fmt.Printf("[*] Current:  %d hosts, %d attacks, %d bugs\n",
			len(currentSnap.Hosts), currentSnap.Attacks.Total(), currentSnap.Bugs.Total())
		fmt.Printf("[*] Previous: %d hosts, %d attacks, %d bugs\n",
			len(previousSnap.Hosts), previousSnap.Attacks.Total(), previousSnap.Bugs.Total())

		// Step 3: Compute diff
		result := diff.ComputeDiff(currentSnap, previousSnap)

		// Step 4: Write diff markdown report
		if err := report.WriteDiffReport(result, previousDir, currentDir, reportPath); err != nil {
			return fmt.Errorf("writing diff report: %w", err)
		}
		fmt.Printf("[+] Diff report written to %s\n", reportPath)

		if result.Empty() {
			fmt.Println("[*] No changes detected")
			return nil
		}

		fmt.Printf("[+] Hosts: +%d / -%d\n", len(result.NewHosts), len(result.GoneHosts))
		fmt.Printf("[+] Findings: +%d / -%d\n", len(result.NewFindings), len(result.ResolvedFindings))

		return nil
	},
}

func init() {
	diffCmd.Flags().String("previous", "", "Earlier processed-results directory (required)")
	diffCmd.Flags().String("current", "", "Current processed-results directory (default: {results_dir}/{processed_dir})")
	diffCmd.Flags().String("report", "", "Markdown report path")
	diffCmd.MarkFlagRequired("previous")
	rootCmd.AddCommand(diffCmd)
}
