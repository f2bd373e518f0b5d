// Package cmd provides the command-line interface for srcguard.
//
// Configuration is layered, highest priority first:
//  1. Command-line flags (--format, --workers, ...)
//  2. SRCGUARD_* environment variables (SRCGUARD_SCAN_WORKERS, SRCGUARD_REPORT_FORMAT, ...)
//  3. The config file named by --config or SRCGUARD_CONFIG_FILE
//  4. .srcguard.yml in the working directory
//  5. Built-in defaults
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/conneroisu/srcguard/internal/config"
	scanerrors "github.com/conneroisu/srcguard/internal/errors"
	"github.com/conneroisu/srcguard/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "srcguard",
	Short: "Scan native source trees for risky C/C++ patterns",
	Long: `srcguard walks a directory tree, scans every C, C++, Objective-C and CUDA
source file line by line, and reports unsafe functions, unchecked buffer
copies, command execution sinks and unprotected format strings.

The exit status is 0 when no issues are found and 1 otherwise, so srcguard
can gate a CI pipeline directly.

Quick Start:
  srcguard scan                   Scan the working directory
  srcguard scan src --json        Scan src/ and print a JSON report
  srcguard patterns               List the detectors
  srcguard watch src              Re-scan whenever src/ changes`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExitError asks Execute to exit with Code without printing anything.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Execute runs the root command and returns the process exit status.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	fmt.Fprintln(os.Stderr, errorMessage(err))
	return 1
}

// errorMessage formats a fatal error for the terminal. Configuration errors
// point at the places configuration comes from.
func errorMessage(err error) string {
	if scanerrors.IsConfig(err) {
		return fmt.Sprintf("Configuration error: %v\n(check --config, .srcguard.yml and %s_* environment variables)", err, config.EnvPrefix)
	}
	return fmt.Sprintf("Error: %v", err)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .srcguard.yml, can also use SRCGUARD_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	bindFlags(rootCmd.PersistentFlags(), map[string]string{
		"log.level":  "log-level",
		"log.format": "log-format",
	})
}

// bindFlags binds each config key to the named flag so that an explicitly set
// flag overrides the environment and the config file.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if f := flags.Lookup(name); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
}

// initConfig points viper at the config file and enables SRCGUARD_ env
// overrides. A missing default config file is not an error.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(config.EnvPrefix + "_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".srcguard")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "Warning: reading config:", err)
		}
	}
}

// loadConfig loads the merged configuration and builds the logger it
// describes. Logs go to stderr so they never mix with a report on stdout.
func loadConfig() (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.Log.Format
	logger := logging.NewLogger(logCfg)

	return cfg, logger, nil
}
