package cmd

import (
	"context"
	"io"
	"os"

	"github.com/conneroisu/srcguard/internal/config"
	scanerrors "github.com/conneroisu/srcguard/internal/errors"
	"github.com/conneroisu/srcguard/internal/logging"
	"github.com/conneroisu/srcguard/internal/metrics"
	"github.com/conneroisu/srcguard/internal/report"
	"github.com/conneroisu/srcguard/internal/scanner"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [root]",
	Short: "Scan a source tree and report risky patterns",
	Long: `Scan every file under root (default: the working directory) whose extension
is one of the configured native source extensions, then print a per-file
report followed by a per-kind summary.

The exit status is 0 when no issues are found and 1 otherwise. A root that
does not exist or is not a readable directory also exits 1, before any file
is scanned.

Examples:
  srcguard scan                          # Scan the working directory
  srcguard scan src --json               # JSON report on stdout
  srcguard scan . --exclude 'third_party/**' --sort
  srcguard scan . --output-file report.txt --metrics-file scan.prom`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

var scanJSON bool

func init() {
	rootCmd.AddCommand(scanCmd)

	flags := scanCmd.Flags()
	flags.StringP("format", "f", "text", "Report format (text, json)")
	flags.BoolVar(&scanJSON, "json", false, "Shorthand for --format json")
	flags.StringP("output-file", "o", "", "Write the report to this file instead of stdout")
	flags.IntP("workers", "w", 0, "Number of scan workers (0 = min(CPUs, 8))")
	flags.StringSlice("ext", nil, "File extensions to scan (default .c,.cpp,.m,.mm,.cu)")
	flags.StringSlice("exclude", nil, "Glob patterns to skip, matched against relative path and base name")
	flags.Bool("sort", false, "Order file sections by path")
	flags.String("metrics-file", "", "Write Prometheus metrics for the scan to this file")

	bindFlags(flags, map[string]string{
		"report.format":       "format",
		"report.output_file":  "output-file",
		"report.sort_files":   "sort",
		"report.metrics_file": "metrics-file",
		"scan.workers":        "workers",
		"scan.extensions":     "ext",
		"scan.exclude":        "exclude",
	})
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if scanJSON {
		cfg.Report.Format = string(report.FormatJSON)
	}

	code, err := scanRoot(cmd.Context(), cfg, logger, rootArg(args), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if code != report.ExitClean {
		return &ExitError{Code: code}
	}
	return nil
}

func rootArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// scanRoot performs one scan, writes the report and metrics, and returns the
// exit status the report implies.
func scanRoot(ctx context.Context, cfg *config.Config, logger logging.Logger, root string, stdout io.Writer) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return report.ExitIssues, err
	}

	collector := metrics.NewCollector()
	s := newScanner(cfg, logger, collector)

	outcome, err := s.Scan(ctx, root)
	if err != nil {
		return report.ExitIssues, err
	}

	if err := writeReport(report.New(format, cfg.Report.SortFiles), cfg.Report.OutputFile, stdout, outcome); err != nil {
		return report.ExitIssues, err
	}

	if cfg.Report.MetricsFile != "" {
		if err := collector.WriteTextfile(cfg.Report.MetricsFile); err != nil {
			return report.ExitIssues, scanerrors.NewOutputError(cfg.Report.MetricsFile, err)
		}
	}

	return report.ExitCode(outcome.State), nil
}

func newScanner(cfg *config.Config, logger logging.Logger, observer scanner.Observer) *scanner.Scanner {
	return scanner.New(scanner.Options{
		Extensions:         cfg.Scan.Extensions,
		Exclude:            cfg.Scan.Exclude,
		Workers:            cfg.Scan.Workers,
		QueueSize:          cfg.Scan.QueueSize,
		SkipTestDirectives: cfg.Scan.SkipTestDirectives,
		Logger:             logger,
		Observer:           observer,
	})
}

// writeReport renders the outcome to outputFile, or to stdout when no file
// is configured.
func writeReport(r *report.Reporter, outputFile string, stdout io.Writer, outcome *scanner.Outcome) error {
	if outputFile == "" {
		return r.Write(stdout, outcome.State)
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return scanerrors.NewOutputError(outputFile, err)
	}
	if err := r.Write(f, outcome.State); err != nil {
		f.Close()
		return scanerrors.NewOutputError(outputFile, err)
	}
	if err := f.Close(); err != nil {
		return scanerrors.NewOutputError(outputFile, err)
	}
	return nil
}
