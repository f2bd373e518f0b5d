//go:build property
// +build property

package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/srcguard/internal/results"
)

// sourceLines are the building blocks of generated files.
var sourceLines = []string{
	"int x = 0;",
	"strcpy(dst, src);",
	"gets(buf); scanf(\"%d\", &n);",
	"memcpy(a[i], b, n);",
	"memset(a[sizeof(int)], 0, 4);",
	"rc = step(); if (rc == 0) return;",
	"system(cmd);",
	"printf(buf);",
	"printf(\"%s\\n\", buf);",
	"/* nothing to see */",
	"",
}

func genFile() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, len(sourceLines)-1)).Map(func(idx []int) string {
		lines := make([]string, len(idx))
		for i, n := range idx {
			lines[i] = sourceLines[n]
		}
		return strings.Join(lines, "\n")
	})
}

func writeTree(dir string, files []string) error {
	for i, content := range files {
		sub := filepath.Join(dir, fmt.Sprintf("d%d", i%3))
		if err := os.MkdirAll(sub, 0755); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(sub, fmt.Sprintf("f%d.c", i)), []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

// TestScannerProperties tests properties of the scan pipeline
func TestScannerProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	s := New(Options{Extensions: []string{".c"}})

	// Property 1: summary counts equal the tokens recorded across all issues
	properties.Property("summary conservation", prop.ForAll(
		func(files []string) bool {
			dir := t.TempDir()
			if err := writeTree(dir, files); err != nil {
				return false
			}
			outcome, err := s.Scan(context.Background(), dir)
			if err != nil {
				return false
			}

			perKind := results.NewSummary(outcome.State.Kinds)
			for _, fi := range outcome.State.FileIssues {
				for _, is := range fi.Issues {
					perKind[is.Kind] += len(is.MatchedTokens)
				}
			}
			for k, n := range perKind {
				if outcome.State.Summary[k] != n {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(6, genFile()),
	))

	// Property 2: no empty entries and line order within every file
	properties.Property("per-file ordering", prop.ForAll(
		func(files []string) bool {
			dir := t.TempDir()
			if err := writeTree(dir, files); err != nil {
				return false
			}
			outcome, err := s.Scan(context.Background(), dir)
			if err != nil {
				return false
			}
			for _, fi := range outcome.State.FileIssues {
				if len(fi.Issues) == 0 {
					return false
				}
				for i := 1; i < len(fi.Issues); i++ {
					if fi.Issues[i-1].Line > fi.Issues[i].Line {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOfN(4, genFile()),
	))

	// Property 3: scanning twice yields the same results modulo file order
	properties.Property("scan idempotency", prop.ForAll(
		func(files []string) bool {
			dir := t.TempDir()
			if err := writeTree(dir, files); err != nil {
				return false
			}
			a, errA := s.Scan(context.Background(), dir)
			b, errB := s.Scan(context.Background(), dir)
			if errA != nil || errB != nil {
				return false
			}
			if fmt.Sprint(a.State.Summary) != fmt.Sprint(b.State.Summary) {
				return false
			}
			return fmt.Sprint(a.State.SortedByFile().FileIssues) == fmt.Sprint(b.State.SortedByFile().FileIssues)
		},
		gen.SliceOfN(5, genFile()),
	))

	properties.TestingRun(t)
}
