package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		ResultsDir:   "results",
		TLSDir:       "tls",
		ProcessedDir: "tls_processed_data",
		HostsFile:    filepath.Join("results", "json", "all_results.json"),
		DBPath:       "tlsgrind.db",
		TopLimit:     10,
		Outputs: OutputsConfig{
			ResultsJSON:         "tls_scanner_results.json",
			AttacksJSON:         "tls_scanner_attacks.json",
			BugsJSON:            "tls_scanner_bugs.json",
			VulnerabilitiesJSON: "tls_scanner_vulnerabilities.json",
			ResultsCSV:          "tls_scanner_results.csv",
			AttacksCSV:          "tls_scanner_attacks.csv",
			BugsCSV:             "tls_scanner_bugs.csv",
			VulnerabilitiesCSV:  "tls_scanner_vulnerabilities.csv",
			GroupedCSV:          "tls_scanner_groupped.csv",
			SummaryMD:           "tls_scanner_summary.md",
		},
		Scope: ScopeConfig{
			AllowedCIDRs: []string{},
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   filepath.Join("logs", "tlsgrind.log"),
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   false,
		},
	}
}

// WriteDefault writes a default configuration to the specified path
func WriteDefault(path string) error {
	cfg := DefaultConfig()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
