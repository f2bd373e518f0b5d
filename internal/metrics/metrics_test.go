package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/srcguard/internal/patterns"
	"github.com/conneroisu/srcguard/internal/results"
	"github.com/conneroisu/srcguard/internal/scanner"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()

	c.FileScanned("a.c", []results.Issue{
		{Kind: patterns.UnsafeFunction, Line: 1, MatchedTokens: []string{"gets", "strcpy"}},
		{Kind: patterns.CommandInjection, Line: 2, MatchedTokens: []string{"system"}},
	})
	c.FileScanned("b.c", nil)
	c.FileFailed("c.c", errors.New("denied"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.filesScanned))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.filesFailed))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.matchesTotal.WithLabelValues("unsafe_functions")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.matchesTotal.WithLabelValues("command_injection")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.matchesTotal.WithLabelValues("buffer_overflow")))
}

func TestCollectorScanFinished(t *testing.T) {
	c := NewCollector()
	agg := results.NewAggregator(patterns.AllKinds())
	agg.Record(results.FileIssues{File: "a.c", Issues: []results.Issue{
		{Kind: patterns.UnprotectedFormatString, Line: 3, MatchedTokens: []string{"printf(b"}},
	}})

	c.ScanFinished(&scanner.Outcome{State: agg.Freeze(), Duration: 20 * time.Millisecond})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.scansTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.lastMatches.WithLabelValues("unprotected_format_string")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.lastFilesIssue))
	assert.Greater(t, testutil.ToFloat64(c.lastScanTime), 0.0)
}

func TestWriteTextfile(t *testing.T) {
	c := NewCollector()
	c.FileScanned("a.c", nil)

	path := filepath.Join(t.TempDir(), "srcguard.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, "srcguard_files_scanned_total 1"))
	assert.Contains(t, text, `srcguard_matches_total{kind="uninitialized_var"} 0`)
}
