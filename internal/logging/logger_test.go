package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakim/tlsgrind/internal/config"
)

func TestNewLevelAndFormat(t *testing.T) {
	cfg := config.DefaultConfig().Log
	cfg.Level = "debug"
	cfg.Format = "json"

	logger, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestNewRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.LogConfig)
	}{
		{"level", func(c *config.LogConfig) { c.Level = "chatty" }},
		{"format", func(c *config.LogConfig) { c.Format = "xml" }},
		{"output", func(c *config.LogConfig) { c.Output = "syslog" }},
		{"file without path", func(c *config.LogConfig) { c.Output = "file"; c.FilePath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig().Log
			tt.mutate(&cfg)
			_, err := New(cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tlsgrind.log")

	cfg := config.DefaultConfig().Log
	cfg.Format = "json"
	cfg.Output = "file"
	cfg.FilePath = path

	logger, err := New(cfg)
	require.NoError(t, err)

	logger.WithField("file", "10.0.0.1-443-Acme-Box.txt").Info("report skipped")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "report skipped", entry["message"])
	assert.Equal(t, "10.0.0.1-443-Acme-Box.txt", entry["file"])
	assert.Contains(t, entry, "timestamp")
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.NotPanics(t, func() { logger.Info("nothing to see") })
}
