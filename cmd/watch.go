package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/conneroisu/srcguard/internal/config"
	scanerrors "github.com/conneroisu/srcguard/internal/errors"
	"github.com/conneroisu/srcguard/internal/logging"
	"github.com/conneroisu/srcguard/internal/metrics"
	"github.com/conneroisu/srcguard/internal/report"
	"github.com/conneroisu/srcguard/internal/walker"
	"github.com/conneroisu/srcguard/internal/watcher"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [root]",
	Short: "Re-scan a source tree whenever it changes",
	Long: `Run a scan, then watch root recursively and run a fresh scan each time a
matching source file is created, modified or removed. Bursts of changes are
coalesced using the configured debounce delay (watch.debounce).

Every scan prints a full report. Stop with Ctrl-C.

Examples:
  srcguard watch src
  srcguard watch . --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

var watchJSON bool

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "Print JSON reports")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if watchJSON {
		cfg.Report.Format = string(report.FormatJSON)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watchRoot(ctx, cfg, logger, rootArg(args), cmd.OutOrStdout())
}

// watchRoot scans root once and again after every batch of relevant changes
// until ctx is cancelled.
func watchRoot(ctx context.Context, cfg *config.Config, logger logging.Logger, root string, stdout io.Writer) error {
	if err := walker.Validate(root); err != nil {
		return err
	}

	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return err
	}
	reporter := report.New(format, cfg.Report.SortFiles)

	collector := metrics.NewCollector()
	s := newScanner(cfg, logger, collector)

	rescan := func(ctx context.Context) error {
		outcome, err := s.Scan(ctx, root)
		if err != nil {
			return err
		}
		if err := reporter.Write(stdout, outcome.State); err != nil {
			return scanerrors.NewOutputError("stdout", err)
		}
		if cfg.Report.MetricsFile != "" {
			if err := collector.WriteTextfile(cfg.Report.MetricsFile); err != nil {
				return scanerrors.NewOutputError(cfg.Report.MetricsFile, err)
			}
		}
		return nil
	}

	if err := rescan(ctx); err != nil {
		return err
	}

	fw, err := watcher.NewFileWatcher(cfg.Watch.Debounce, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	fw.AddFilter(watcher.NoVCSFilter)
	fw.AddFilter(func(path string) bool {
		return s.Walker().Accepts(root, path)
	})
	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		logger.Info(ctx, "Changes detected, rescanning", "root", root, "files", len(events))
		return rescan(ctx)
	})

	if err := fw.AddRecursive(root); err != nil {
		_ = fw.Stop()
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	fw.Start(ctx)
	logger.Info(ctx, "Watching for changes", "root", root, "workers", s.Workers(), "debounce", cfg.Watch.Debounce.String())

	<-ctx.Done()
	return fw.Stop()
}
