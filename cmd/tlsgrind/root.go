package main

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hakim/tlsgrind/internal/config"
	"github.com/hakim/tlsgrind/internal/logging"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
	logger  *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tlsgrind",
	Short: "TLS-Scanner report ingestion and aggregation",
	Long: `tlsgrind turns a directory of TLS-Scanner text reports into structured
vulnerability intelligence: per-host findings, attack/bug/vulnerability
frequency tables and an attack -> vendor -> product breakdown.

Reports are read from {results_dir}/{tls_dir} and every artifact is written to
{results_dir}/{processed_dir}. Known vulnerabilities are joined in from the
recon host dataset (hosts_file), which can optionally be updated with the
detected attacks and bugs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		skipConfig := map[string]bool{
			"init":    true,
			"help":    true,
			"version": true,
		}

		if skipConfig[cmd.Name()] {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			var notFound viper.ConfigFileNotFoundError
			if cfgFile != "" || !errors.As(err, &notFound) {
				return fmt.Errorf("failed to load config: %w", err)
			}
			// No config anywhere on the search path: run with defaults
			cfg = config.DefaultConfig()
		}

		if verbose {
			cfg.Log.Level = "debug"
		}

		logger, err = logging.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}

		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: search for tlsgrind.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose output")

	// Version flag
	rootCmd.Version = "0.1.0-dev"
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
