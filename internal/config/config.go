package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	ResultsDir   string        `yaml:"results_dir" mapstructure:"results_dir"`
	TLSDir       string        `yaml:"tls_dir" mapstructure:"tls_dir"`
	ProcessedDir string        `yaml:"processed_dir" mapstructure:"processed_dir"`
	HostsFile    string        `yaml:"hosts_file" mapstructure:"hosts_file"`
	DBPath       string        `yaml:"db_path" mapstructure:"db_path"`
	TopLimit     int           `yaml:"top_limit" mapstructure:"top_limit"`
	Outputs      OutputsConfig `yaml:"outputs" mapstructure:"outputs"`
	Scope        ScopeConfig   `yaml:"scope" mapstructure:"scope"`
	Log          LogConfig     `yaml:"log" mapstructure:"log"`
}

// OutputsConfig names every file written to the processed results directory
type OutputsConfig struct {
	ResultsJSON         string `yaml:"results_json" mapstructure:"results_json"`
	AttacksJSON         string `yaml:"attacks_json" mapstructure:"attacks_json"`
	BugsJSON            string `yaml:"bugs_json" mapstructure:"bugs_json"`
	VulnerabilitiesJSON string `yaml:"vulnerabilities_json" mapstructure:"vulnerabilities_json"`
	ResultsCSV          string `yaml:"results_csv" mapstructure:"results_csv"`
	AttacksCSV          string `yaml:"attacks_csv" mapstructure:"attacks_csv"`
	BugsCSV             string `yaml:"bugs_csv" mapstructure:"bugs_csv"`
	VulnerabilitiesCSV  string `yaml:"vulnerabilities_csv" mapstructure:"vulnerabilities_csv"`
	GroupedCSV          string `yaml:"grouped_csv" mapstructure:"grouped_csv"`
	SummaryMD           string `yaml:"summary_md" mapstructure:"summary_md"`
}

// ScopeConfig restricts which hosts are ingested
type ScopeConfig struct {
	AllowedCIDRs []string `yaml:"allowed_cidrs" mapstructure:"allowed_cidrs"`
}

// LogConfig controls the logrus logger
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`             // debug/info/warn/error
	Format     string `yaml:"format" mapstructure:"format"`           // json/text
	Output     string `yaml:"output" mapstructure:"output"`           // stdout/stderr/file/both
	FilePath   string `yaml:"file_path" mapstructure:"file_path"`     // used by file and both
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`       // MB
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // rotated files kept
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`         // days
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// ReportDir is the directory TLS-Scanner reports are read from
func (c *Config) ReportDir() string {
	return filepath.Join(c.ResultsDir, c.TLSDir)
}

// OutputDir is the directory processed results are written to
func (c *Config) OutputDir() string {
	return filepath.Join(c.ResultsDir, c.ProcessedDir)
}

// Load reads and parses configuration from a YAML file.
// If path is empty, searches for tlsgrind.yaml in the current directory,
// ./configs and ~/.config/tlsgrind/. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tlsgrind")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		homeDir, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "tlsgrind"))
		}
	}

	v.SetEnvPrefix("TLSGRIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every default value with viper so partial config
// files and environment overrides work.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("results_dir", d.ResultsDir)
	v.SetDefault("tls_dir", d.TLSDir)
	v.SetDefault("processed_dir", d.ProcessedDir)
	v.SetDefault("hosts_file", d.HostsFile)
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("top_limit", d.TopLimit)

	v.SetDefault("outputs.results_json", d.Outputs.ResultsJSON)
	v.SetDefault("outputs.attacks_json", d.Outputs.AttacksJSON)
	v.SetDefault("outputs.bugs_json", d.Outputs.BugsJSON)
	v.SetDefault("outputs.vulnerabilities_json", d.Outputs.VulnerabilitiesJSON)
	v.SetDefault("outputs.results_csv", d.Outputs.ResultsCSV)
	v.SetDefault("outputs.attacks_csv", d.Outputs.AttacksCSV)
	v.SetDefault("outputs.bugs_csv", d.Outputs.BugsCSV)
	v.SetDefault("outputs.vulnerabilities_csv", d.Outputs.VulnerabilitiesCSV)
	v.SetDefault("outputs.grouped_csv", d.Outputs.GroupedCSV)
	v.SetDefault("outputs.summary_md", d.Outputs.SummaryMD)

	v.SetDefault("scope.allowed_cidrs", d.Scope.AllowedCIDRs)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("log.file_path", d.Log.FilePath)
	v.SetDefault("log.max_size", d.Log.MaxSize)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age", d.Log.MaxAge)
	v.SetDefault("log.compress", d.Log.Compress)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.ResultsDir == "" {
		errs = append(errs, errors.New("results_dir cannot be empty"))
	}
	if c.TLSDir == "" {
		errs = append(errs, errors.New("tls_dir cannot be empty"))
	}
	if c.ProcessedDir == "" {
		errs = append(errs, errors.New("processed_dir cannot be empty"))
	}
	if c.TopLimit < 0 {
		errs = append(errs, errors.New("top_limit cannot be negative"))
	}

	for key, name := range c.Outputs.byKey() {
		if name == "" {
			errs = append(errs, fmt.Errorf("outputs.%s cannot be empty", key))
		}
	}

	for _, cidr := range c.Scope.AllowedCIDRs {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errs = append(errs, fmt.Errorf("scope.allowed_cidrs: invalid CIDR %q", cidr))
		}
	}

	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks the logging settings
func (l *LogConfig) Validate() error {
	var errs []error

	if _, err := logrus.ParseLevel(l.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	switch strings.ToLower(l.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", l.Format))
	}

	switch strings.ToLower(l.Output) {
	case "stdout", "stderr":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, fmt.Errorf("log.file_path is required when log.output is %s", l.Output))
		}
	default:
		errs = append(errs, fmt.Errorf("log.output must be stdout, stderr, file or both, got %q", l.Output))
	}

	return errors.Join(errs...)
}

func (o OutputsConfig) byKey() map[string]string {
	return map[string]string{
		"results_json":         o.ResultsJSON,
		"attacks_json":         o.AttacksJSON,
		"bugs_json":            o.BugsJSON,
		"vulnerabilities_json": o.VulnerabilitiesJSON,
		"results_csv":          o.ResultsCSV,
		"attacks_csv":          o.AttacksCSV,
		"bugs_csv":             o.BugsCSV,
		"vulnerabilities_csv":  o.VulnerabilitiesCSV,
		"grouped_csv":          o.GroupedCSV,
		"summary_md":           o.SummaryMD,
	}
}
