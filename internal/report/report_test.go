package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scanerrors "github.com/conneroisu/srcguard/internal/errors"
	"github.com/conneroisu/srcguard/internal/patterns"
	"github.com/conneroisu/srcguard/internal/results"
)

func sampleState() *results.ScanState {
	agg := results.NewAggregator(patterns.AllKinds())
	agg.Record(results.FileIssues{File: "src/z.c", Issues: []results.Issue{
		{Kind: patterns.UnsafeFunction, File: "src/z.c", Line: 5, RawText: "strcpy(dst, src);", MatchedTokens: []string{"strcpy"}},
	}})
	agg.Record(results.FileIssues{File: "src/a.c", Issues: []results.Issue{
		{Kind: patterns.UnsafeFunction, File: "src/a.c", Line: 2, RawText: "sprintf(b, f);", MatchedTokens: []string{"sprintf"}},
		{Kind: patterns.UnprotectedFormatString, File: "src/a.c", Line: 2, RawText: "sprintf(b, f);", MatchedTokens: []string{"printf(b"}},
	}})
	return agg.Freeze()
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("text")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("sarif")
	require.Error(t, err)
	assert.True(t, scanerrors.IsConfig(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitIssues, ExitCode(sampleState()))
	assert.Equal(t, ExitClean, ExitCode(results.NewAggregator(patterns.AllKinds()).Freeze()))
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatText, false).Write(&buf, sampleState()))

	want := `Issues found in src/z.c:
  Line 5: unsafe_functions - strcpy(dst, src); (matches: ["strcpy"])
Issues found in src/a.c:
  Line 2: unsafe_functions - sprintf(b, f); (matches: ["sprintf"])
  Line 2: unprotected_format_string - sprintf(b, f); (matches: ["printf(b"])

Summary of issues found:
  unsafe_functions: 2 occurrences
  buffer_overflow: 0 occurrences
  uninitialized_var: 0 occurrences
  command_injection: 0 occurrences
  unprotected_format_string: 1 occurrences
`
	assert.Equal(t, want, buf.String())
}

func TestWriteTextSorted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatText, true).Write(&buf, sampleState()))

	out := buf.String()
	assert.Less(t, strings.Index(out, "src/a.c"), strings.Index(out, "src/z.c"))
}

func TestWriteTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatText, false).Write(&buf, results.NewAggregator(patterns.AllKinds()).Freeze()))

	assert.True(t, strings.HasPrefix(buf.String(), "\nSummary of issues found:\n"))
	assert.Contains(t, buf.String(), "  command_injection: 0 occurrences\n")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatJSON, false).Write(&buf, sampleState()))

	var doc struct {
		Summary map[string]int `json:"summary"`
		Issues  []struct {
			File   string `json:"file"`
			Issues []struct {
				Type    string   `json:"type"`
				Line    int      `json:"line"`
				Code    string   `json:"code"`
				Matches []string `json:"matches"`
			} `json:"issues"`
		} `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, map[string]int{
		"unsafe_functions":          2,
		"buffer_overflow":           0,
		"uninitialized_var":         0,
		"command_injection":         0,
		"unprotected_format_string": 1,
	}, doc.Summary)
	require.Len(t, doc.Issues, 2)
	assert.Equal(t, "src/z.c", doc.Issues[0].File)
	assert.Equal(t, "src/a.c", doc.Issues[1].File)
	require.Len(t, doc.Issues[1].Issues, 2)
	assert.Equal(t, "unprotected_format_string", doc.Issues[1].Issues[1].Type)
	assert.Equal(t, 2, doc.Issues[1].Issues[1].Line)
	assert.Equal(t, "sprintf(b, f);", doc.Issues[1].Issues[1].Code)
	assert.Equal(t, []string{"printf(b"}, doc.Issues[1].Issues[1].Matches)
}

func TestWriteJSONSummaryOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatJSON, false).Write(&buf, sampleState()))

	out := buf.String()
	prev := -1
	for _, k := range patterns.AllKinds() {
		idx := strings.Index(out, `"`+k.String()+`"`)
		require.Greater(t, idx, prev, k.String())
		prev = idx
	}
	assert.True(t, strings.HasPrefix(out, "{\n  \"summary\": {\n    \"unsafe_functions\": 2,"))
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatJSON, false).Write(&buf, results.NewAggregator(patterns.AllKinds()).Freeze()))

	assert.Contains(t, buf.String(), `"issues": []`)
}
