// Package config provides configuration management for srcguard using Viper
// for loading from files, environment variables, and command-line flags.
//
// Sources in order of precedence: flags bound by the CLI, SRCGUARD_* environment
// variables, the config file (.srcguard.yml by default), then built-in
// defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "SRCGUARD"

// DefaultExtensions are the native source extensions scanned when none are
// configured.
var DefaultExtensions = []string{".c", ".cpp", ".m", ".mm", ".cu"}

// Config is the complete srcguard configuration.
type Config struct {
	Scan   ScanConfig   `mapstructure:"scan" yaml:"scan"`
	Report ReportConfig `mapstructure:"report" yaml:"report"`
	Watch  WatchConfig  `mapstructure:"watch" yaml:"watch"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

// ScanConfig controls file selection and the worker pool. Zero Workers or
// QueueSize select the built-in defaults.
type ScanConfig struct {
	Extensions         []string `mapstructure:"extensions" yaml:"extensions"`
	Exclude            []string `mapstructure:"exclude" yaml:"exclude"`
	Workers            int      `mapstructure:"workers" yaml:"workers"`
	QueueSize          int      `mapstructure:"queue_size" yaml:"queue_size"`
	SkipTestDirectives bool     `mapstructure:"skip_test_directives" yaml:"skip_test_directives"`
}

// ReportConfig controls report encoding and where output is written.
type ReportConfig struct {
	Format      string `mapstructure:"format" yaml:"format"`
	SortFiles   bool   `mapstructure:"sort_files" yaml:"sort_files"`
	OutputFile  string `mapstructure:"output_file" yaml:"output_file"`
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// LogConfig selects the level and encoding of diagnostic logs.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("scan.extensions", DefaultExtensions)
	v.SetDefault("scan.exclude", []string{})
	v.SetDefault("scan.workers", 0)
	v.SetDefault("scan.queue_size", 0)
	v.SetDefault("scan.skip_test_directives", true)
	v.SetDefault("report.format", "text")
	v.SetDefault("report.sort_files", false)
	v.SetDefault("report.output_file", "")
	v.SetDefault("report.metrics_file", "")
	v.SetDefault("watch.debounce", 300*time.Millisecond)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration held by the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	// Env values arrive as a single comma separated string.
	cfg.Scan.Extensions = splitList(cfg.Scan.Extensions)
	cfg.Scan.Exclude = splitList(cfg.Scan.Exclude)
	cfg.Scan.Extensions = normalizeExtensions(cfg.Scan.Extensions)
	if len(cfg.Scan.Extensions) == 0 {
		cfg.Scan.Extensions = append([]string(nil), DefaultExtensions...)
	}
	cfg.Report.Format = strings.ToLower(strings.TrimSpace(cfg.Report.Format))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// normalizeExtensions adds a missing leading dot and removes duplicates.
func normalizeExtensions(exts []string) []string {
	seen := make(map[string]struct{}, len(exts))
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}
