// Package metrics exposes scan counters through Prometheus. A CI job can
// write them to a node-exporter textfile after each run.
package metrics

import (
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/conneroisu/srcguard/internal/patterns"
	"github.com/conneroisu/srcguard/internal/results"
	"github.com/conneroisu/srcguard/internal/scanner"
)

const namespace = "srcguard"

// Collector records scan activity. It implements scanner.Observer.
type Collector struct {
	registry *prometheus.Registry

	filesScanned   prometheus.Counter
	filesFailed    prometheus.Counter
	matchesTotal   *prometheus.CounterVec
	scansTotal     prometheus.Counter
	scanDuration   prometheus.Histogram
	lastMatches    *prometheus.GaugeVec
	lastFilesIssue prometheus.Gauge
	lastScanTime   prometheus.Gauge
}

var _ scanner.Observer = (*Collector)(nil)

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	c := &Collector{
		registry: reg,
		filesScanned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_scanned_total",
			Help:      "Source files read and matched against the catalogue.",
		}),
		filesFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_failed_total",
			Help:      "Source files skipped because they could not be read.",
		}),
		matchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Pattern matches by issue kind across all scans.",
		}, []string{"kind"}),
		scansTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Completed scans.",
		}),
		scanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Wall time of a complete scan.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		lastMatches: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_scan_matches",
			Help:      "Pattern matches by issue kind in the most recent scan.",
		}, []string{"kind"}),
		lastFilesIssue: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_scan_files_with_issues",
			Help:      "Files with at least one issue in the most recent scan.",
		}),
		lastScanTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_scan_timestamp_seconds",
			Help:      "Unix time the most recent scan finished.",
		}),
	}

	// Export every kind even when it never matches.
	for _, k := range patterns.AllKinds() {
		c.matchesTotal.WithLabelValues(k.String())
		c.lastMatches.WithLabelValues(k.String())
	}

	return c
}

// FileScanned implements scanner.Observer.
func (c *Collector) FileScanned(_ string, issues []results.Issue) {
	c.filesScanned.Inc()
	for _, is := range issues {
		c.matchesTotal.WithLabelValues(is.Kind.String()).Add(float64(is.Count()))
	}
}

// FileFailed implements scanner.Observer.
func (c *Collector) FileFailed(string, error) {
	c.filesFailed.Inc()
}

// ScanFinished implements scanner.Observer.
func (c *Collector) ScanFinished(outcome *scanner.Outcome) {
	c.scansTotal.Inc()
	c.scanDuration.Observe(outcome.Duration.Seconds())
	for _, k := range outcome.State.Kinds {
		c.lastMatches.WithLabelValues(k.String()).Set(float64(outcome.State.Count(k)))
	}
	c.lastFilesIssue.Set(float64(len(outcome.State.FileIssues)))
	c.lastScanTime.SetToCurrentTime()
}

// WriteTextfile writes the current metrics in the Prometheus text format,
// atomically replacing path.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(filepath.Clean(path), c.registry)
}
