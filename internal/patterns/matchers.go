package patterns

import (
	"regexp"
	"strings"
)

const (
	unsafeFunctionExpr   = `\b(strcpy|strcat|sprintf|gets|scanf|sscanf|vfscanf|vscanf|vsscanf)\b`
	bufferOverflowExpr   = `\b(memcpy|memmove|memset)\b.*?\[(?!sizeof)`
	uninitializedVarExpr = `\b(ident)\s*=\s*[^;]*;\s*(if|while)\s*\(\1\s*==\s*[^)]*\)`
	commandInjectionExpr = `\b(system|exec|popen)\b`
	formatStringExpr     = `printf\s*\([^"]`
)

// regexpMatcher reports the first capture group of each match, or the whole
// match when the expression has no groups.
type regexpMatcher struct {
	re *regexp.Regexp
}

func newRegexpMatcher(expr string) regexpMatcher {
	return regexpMatcher{re: regexp.MustCompile(expr)}
}

func (m regexpMatcher) FindAll(line string) []string {
	found := m.re.FindAllStringSubmatch(line, -1)
	if len(found) == 0 {
		return nil
	}
	tokens := make([]string, 0, len(found))
	for _, sub := range found {
		if len(sub) > 1 {
			tokens = append(tokens, sub[1])
		} else {
			tokens = append(tokens, sub[0])
		}
	}
	return tokens
}

var memCallRe = regexp.MustCompile(`\b(memcpy|memmove|memset)\b`)

// bufferOverflowMatcher flags memcpy/memmove/memset when a later '[' on the
// line is not immediately followed by sizeof. Scanning resumes after the
// accepted bracket.
type bufferOverflowMatcher struct{}

func (bufferOverflowMatcher) FindAll(line string) []string {
	var tokens []string
	pos := 0
	for pos < len(line) {
		loc := memCallRe.FindStringSubmatchIndex(line[pos:])
		if loc == nil {
			break
		}
		name := line[pos+loc[2] : pos+loc[3]]
		bracket := indexUnsizedBracket(line, pos+loc[1])
		if bracket < 0 {
			// No acceptable bracket after this call means none after any later call.
			break
		}
		tokens = append(tokens, name)
		pos = bracket + 1
	}
	return tokens
}

func indexUnsizedBracket(line string, from int) int {
	for i := from; i < len(line); i++ {
		if line[i] == '[' && !strings.HasPrefix(line[i+1:], "sizeof") {
			return i
		}
	}
	return -1
}

var assignThenCompareRe = regexp.MustCompile(
	`\b([a-zA-Z_][a-zA-Z0-9_]*)\s*=\s*[^;]*;\s*(?:if|while)\s*\(([a-zA-Z_][a-zA-Z0-9_]*)\s*==\s*[^)]*\)`,
)

// uninitializedVarMatcher flags `v = ...; if (v == ...)` and the while form,
// requiring the same identifier on both sides. It is a single-line heuristic
// and cannot see real use-before-init across lines.
type uninitializedVarMatcher struct{}

func (uninitializedVarMatcher) FindAll(line string) []string {
	var tokens []string
	pos := 0
	for pos < len(line) {
		loc := assignThenCompareRe.FindStringSubmatchIndex(line[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		assigned := line[pos+loc[2] : pos+loc[3]]
		compared := line[pos+loc[4] : pos+loc[5]]

		// Slicing makes every offset look like a word boundary, so re-check it
		// against the full line before accepting.
		if (start > 0 && isWordByte(line[start-1])) || assigned != compared {
			pos = start + 1
			continue
		}
		tokens = append(tokens, assigned)
		pos = end
	}
	return tokens
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
