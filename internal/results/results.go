// Package results holds the scan data model and the aggregator that owns the
// shared scan state while workers run.
package results

import (
	"sort"
	"sync"

	"github.com/conneroisu/srcguard/internal/patterns"
)

// Issue is one line of one file that matched one pattern.
type Issue struct {
	Kind          patterns.IssueKind
	File          string
	Line          int
	RawText       string
	MatchedTokens []string
}

// Count is the contribution of this issue to the summary: one per match.
func (i Issue) Count() int {
	return len(i.MatchedTokens)
}

// FileIssues groups the issues found in one file, in line order.
type FileIssues struct {
	File   string
	Issues []Issue
}

// Summary maps every kind to its number of matches.
type Summary map[patterns.IssueKind]int

// NewSummary returns a summary with every kind in kinds set to zero.
func NewSummary(kinds []patterns.IssueKind) Summary {
	s := make(Summary, len(kinds))
	for _, k := range kinds {
		s[k] = 0
	}
	return s
}

// Total returns the sum of all counts.
func (s Summary) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}

// ScanState is the frozen result of one scan.
type ScanState struct {
	Kinds      []patterns.IssueKind
	Summary    Summary
	FileIssues []FileIssues
}

// Count returns the number of matches recorded for kind.
func (s *ScanState) Count(kind patterns.IssueKind) int {
	return s.Summary[kind]
}

// Total returns the number of matches across all kinds.
func (s *ScanState) Total() int {
	return s.Summary.Total()
}

// Clean reports whether no kind has a non-zero count.
func (s *ScanState) Clean() bool {
	for _, n := range s.Summary {
		if n > 0 {
			return false
		}
	}
	return true
}

// IssueCount returns the number of Issue values across all files.
func (s *ScanState) IssueCount() int {
	n := 0
	for _, fi := range s.FileIssues {
		n += len(fi.Issues)
	}
	return n
}

// SortedByFile returns a copy of the state whose files are ordered by path.
func (s *ScanState) SortedByFile() *ScanState {
	files := make([]FileIssues, len(s.FileIssues))
	copy(files, s.FileIssues)
	sort.SliceStable(files, func(i, j int) bool { return files[i].File < files[j].File })
	return &ScanState{Kinds: s.Kinds, Summary: s.Summary, FileIssues: files}
}

// Aggregator accumulates per-file results from concurrent workers.
type Aggregator struct {
	mu     sync.Mutex
	kinds  []patterns.IssueKind
	state  ScanState
	frozen bool
}

// NewAggregator creates an aggregator whose summary starts at zero for every
// kind in kinds. kinds also fixes the report order.
func NewAggregator(kinds []patterns.IssueKind) *Aggregator {
	k := append([]patterns.IssueKind(nil), kinds...)
	return &Aggregator{
		kinds: k,
		state: ScanState{
			Kinds:   k,
			Summary: NewSummary(k),
		},
	}
}

// Record appends fi to the issue log and adds its matches to the summary.
// Empty results are ignored. Safe for concurrent use until Freeze.
func (a *Aggregator) Record(fi FileIssues) {
	if len(fi.Issues) == 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.frozen {
		panic("results: Record called after Freeze")
	}
	for _, issue := range fi.Issues {
		a.state.Summary[issue.Kind] += issue.Count()
	}
	a.state.FileIssues = append(a.state.FileIssues, fi)
}

// Freeze ends the recording phase and returns the final state. It must be
// called after every worker has returned; later calls return the same state.
func (a *Aggregator) Freeze() *ScanState {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frozen = true
	return &a.state
}
