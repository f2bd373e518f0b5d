// Package report renders a frozen scan state as text or JSON and maps it to
// a process exit status.
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	scanerrors "github.com/conneroisu/srcguard/internal/errors"
	"github.com/conneroisu/srcguard/internal/patterns"
	"github.com/conneroisu/srcguard/internal/results"
)

// Format selects the report encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Exit statuses consumed by CI.
const (
	ExitClean  = 0
	ExitIssues = 1
)

// ParseFormat parses a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatText, FormatJSON:
		return f, nil
	default:
		return "", scanerrors.NewConfigError(scanerrors.CodeInvalidFormat,
			fmt.Sprintf("unknown report format %q", name))
	}
}

// ExitCode returns ExitClean when every summary count is zero and
// ExitIssues otherwise.
func ExitCode(state *results.ScanState) int {
	if state.Clean() {
		return ExitClean
	}
	return ExitIssues
}

// Reporter writes scan results in one format.
type Reporter struct {
	format    Format
	sortFiles bool
}

// New creates a reporter. With sortFiles the file sections are ordered by
// path; otherwise they keep the order in which workers finished them.
func New(format Format, sortFiles bool) *Reporter {
	return &Reporter{format: format, sortFiles: sortFiles}
}

// Write renders state to w.
func (r *Reporter) Write(w io.Writer, state *results.ScanState) error {
	if r.sortFiles {
		state = state.SortedByFile()
	}

	switch r.format {
	case FormatJSON:
		return writeJSON(w, state)
	case FormatText:
		return writeText(w, state)
	default:
		return fmt.Errorf("unsupported report format %q", r.format)
	}
}

func writeText(w io.Writer, state *results.ScanState) error {
	bw := bufio.NewWriter(w)

	for _, fi := range state.FileIssues {
		fmt.Fprintf(bw, "Issues found in %s:\n", fi.File)
		for _, is := range fi.Issues {
			fmt.Fprintf(bw, "  Line %d: %s - %s (matches: %s)\n", is.Line, is.Kind, is.RawText, formatTokens(is.MatchedTokens))
		}
	}

	fmt.Fprint(bw, "\nSummary of issues found:\n")
	for _, k := range state.Kinds {
		fmt.Fprintf(bw, "  %s: %d occurrences\n", k, state.Count(k))
	}

	return bw.Flush()
}

// formatTokens renders tokens as a bracketed list of quoted strings so that
// control characters stay on one line.
func formatTokens(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = strconv.Quote(t)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Document is the structured report. Field names are a stable interface.
type Document struct {
	Summary OrderedSummary `json:"summary"`
	Issues  []FileDocument `json:"issues"`
}

// FileDocument lists the issues of one file.
type FileDocument struct {
	File   string          `json:"file"`
	Issues []IssueDocument `json:"issues"`
}

// IssueDocument is one issue in the structured report.
type IssueDocument struct {
	Type    string   `json:"type"`
	Line    int      `json:"line"`
	Code    string   `json:"code"`
	Matches []string `json:"matches"`
}

// OrderedSummary marshals kind counts as an object whose keys follow
// catalogue registration order.
type OrderedSummary struct {
	Kinds  []patterns.IssueKind
	Counts results.Summary
}

// MarshalJSON implements json.Marshaler.
func (s OrderedSummary) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range s.Kinds {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k.String()))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(s.Counts[k]))
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// NewDocument converts state into its structured form.
func NewDocument(state *results.ScanState) Document {
	doc := Document{
		Summary: OrderedSummary{Kinds: state.Kinds, Counts: state.Summary},
		Issues:  make([]FileDocument, 0, len(state.FileIssues)),
	}
	for _, fi := range state.FileIssues {
		fd := FileDocument{File: fi.File, Issues: make([]IssueDocument, 0, len(fi.Issues))}
		for _, is := range fi.Issues {
			fd.Issues = append(fd.Issues, IssueDocument{
				Type:    is.Kind.String(),
				Line:    is.Line,
				Code:    is.RawText,
				Matches: is.MatchedTokens,
			})
		}
		doc.Issues = append(doc.Issues, fd)
	}
	return doc
}

func writeJSON(w io.Writer, state *results.ScanState) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(NewDocument(state))
}
