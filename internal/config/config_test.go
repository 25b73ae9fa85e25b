package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, filepath.Join("results", "tls"), cfg.ReportDir())
	assert.Equal(t, filepath.Join("results", "tls_processed_data"), cfg.OutputDir())
}

func TestWriteDefaultThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tlsgrind.yaml")
	require.NoError(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)

	want := DefaultConfig()
	assert.Equal(t, want.ResultsDir, cfg.ResultsDir)
	assert.Equal(t, want.HostsFile, cfg.HostsFile)
	assert.Equal(t, want.TopLimit, cfg.TopLimit)
	assert.Equal(t, want.Outputs, cfg.Outputs)
	assert.Equal(t, want.Log, cfg.Log)
	assert.Empty(t, cfg.Scope.AllowedCIDRs)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tlsgrind.yaml")
	content := "results_dir: /data/results\nscope:\n  allowed_cidrs: [\"10.0.0.0/8\"]\noutputs:\n  grouped_csv: grouped.csv\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/results", cfg.ResultsDir)
	assert.Equal(t, "tls", cfg.TLSDir)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.Scope.AllowedCIDRs)
	assert.Equal(t, "grouped.csv", cfg.Outputs.GroupedCSV)
	assert.Equal(t, "tls_scanner_results.json", cfg.Outputs.ResultsJSON)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"empty results dir", func(c *Config) { c.ResultsDir = "" }, "results_dir cannot be empty"},
		{"empty tls dir", func(c *Config) { c.TLSDir = "" }, "tls_dir cannot be empty"},
		{"negative top", func(c *Config) { c.TopLimit = -1 }, "top_limit cannot be negative"},
		{"empty output", func(c *Config) { c.Outputs.GroupedCSV = "" }, "outputs.grouped_csv cannot be empty"},
		{"bad cidr", func(c *Config) { c.Scope.AllowedCIDRs = []string{"10.0.0.0/99"} }, "invalid CIDR"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"file without path", func(c *Config) { c.Log.Output = "file"; c.Log.FilePath = "" }, "log.file_path is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
