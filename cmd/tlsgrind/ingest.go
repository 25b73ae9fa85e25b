package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hakim/tlsgrind/internal/hostdata"
	"github.com/hakim/tlsgrind/internal/ingest"
	"github.com/hakim/tlsgrind/internal/pipeline"
	"github.com/hakim/tlsgrind/internal/storage"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Parse TLS-Scanner reports and write aggregated results",
	Long: `Parse every TLS-Scanner report in the report directory and write the
aggregated results.

Report files must be named {ip}-{port}-{vendor}-{product}.txt. Reports of
failed scans and files with unusable names are skipped. When several reports
exist for the same ip, the first one in filename order is kept.

Results are saved to {results_dir}/{processed_dir}:
  - tls_scanner_results.json / .csv      (per-host findings)
  - tls_scanner_attacks.json / .csv      (attack frequency)
  - tls_scanner_bugs.json / .csv         (bug frequency)
  - tls_scanner_vulnerabilities.json/.csv (known vulnerability frequency)
  - tls_scanner_groupped.csv             (attack -> vendor -> product)
  - tls_scanner_summary.md               (markdown overview)

With --update-hosts the detected attacks and bugs are merged back into the
recon host dataset (hosts_file).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Step 1: Get flags
		reportDir, _ := cmd.Flags().GetString("reports")
		outputDir, _ := cmd.Flags().GetString("output")
		hostsFile, _ := cmd.Flags().GetString("hosts")
		updateHosts, _ := cmd.Flags().GetBool("update-hosts")
		noHistory, _ := cmd.Flags().GetBool("no-history")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		if reportDir == "" {
			reportDir = cfg.ReportDir()
		}
		if outputDir == "" {
			outputDir = cfg.OutputDir()
		}
		if hostsFile == "" {
			hostsFile = cfg.HostsFile
		}

		// Step 2: Load the recon host dataset
		dataset, err := hostdata.Load(hostsFile)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("loading host dataset: %w", err)
			}
			fmt.Printf("[!] Host dataset %s not found, vulnerabilities will be empty\n", hostsFile)
			dataset = hostdata.Dataset{}
			updateHosts = false
		} else {
			fmt.Printf("[*] Loaded %d hosts from %s\n", len(dataset), hostsFile)
		}

		// Step 3: Open bbolt store
		var store pipeline.StoreInterface
		if !noHistory {
			s, err := storage.NewStore(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer s.Close()
			store = s
		}

		// Step 4: Run the pipeline
		fmt.Printf("[*] Ingesting reports from %s\n", reportDir)

		pcfg := pipeline.PipelineConfig{
			ReportDir: reportDir,
			OutputDir: outputDir,
			Hosts:     dataset,
			Outputs:   cfg.Outputs,
			Scope:     ingest.ScopeConfig{AllowedCIDRs: cfg.Scope.AllowedCIDRs},
			TopLimit:  cfg.TopLimit,
			Timeout:   timeout,
			Logger:    logger,
			OnArtifactDone: func(name string, err error) {
				if err != nil {
					fmt.Printf("[!] Failed to write %s: %v\n", name, err)
				}
			},
		}

		result, runErr := pipeline.RunPipeline(context.Background(), pcfg, store)
		if result == nil {
			return runErr
		}

		fmt.Printf("[+] %d hosts parsed, %d files skipped (%d seen) in %s\n",
			len(result.Ingest.Hosts), len(result.Ingest.Skipped), result.Ingest.FilesSeen,
			result.Elapsed.Round(time.Millisecond))
		fmt.Printf("[+] %d artifacts written to %s\n", len(result.Artifacts), outputDir)

		// Step 5: Merge findings back into the dataset
		if updateHosts {
			applied := dataset.Apply(result.Ingest.Deltas)
			if err := dataset.Save(hostsFile); err != nil {
				return fmt.Errorf("saving host dataset: %w", err)
			}
			fmt.Printf("[+] Updated %d hosts in %s\n", applied, hostsFile)
		} else if len(result.Ingest.Deltas) > 0 {
			fmt.Printf("[*] %d hosts have new findings (use --update-hosts to save them)\n", len(result.Ingest.Deltas))
		}

		// Step 6: Console overview
		if err := printFrequencyTable("Top Attacks", result.Attacks.Top(cfg.TopLimit)); err != nil {
			return err
		}
		if err := printFrequencyTable("Top Bugs", result.Bugs.Top(cfg.TopLimit)); err != nil {
			return err
		}

		if runErr != nil {
			return fmt.Errorf("run %s finished with status %s: %w", result.RunID, result.Status, runErr)
		}

		fmt.Printf("[*] Run ID: %s\n", result.RunID)
		return nil
	},
}

func init() {
	ingestCmd.Flags().String("reports", "", "Directory of TLS-Scanner reports (default: {results_dir}/{tls_dir})")
	ingestCmd.Flags().StringP("output", "o", "", "Output directory (default: {results_dir}/{processed_dir})")
	ingestCmd.Flags().String("hosts", "", "Recon host dataset (default: hosts_file from config)")
	ingestCmd.Flags().Bool("update-hosts", false, "Write detected attacks and bugs back into the host dataset")
	ingestCmd.Flags().Bool("no-history", false, "Do not record the run in the database")
	ingestCmd.Flags().Duration("timeout", 0, "Abort ingestion after this duration (0 = no limit)")
	rootCmd.AddCommand(ingestCmd)
}
