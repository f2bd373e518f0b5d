// Package patterns provides the fixed catalogue of risk detectors applied to
// native (C, C++, Objective-C, CUDA) source lines.
//
// Matching is line-scoped: a construct spread across several lines is never
// detected. Each detector is evaluated independently, so a single line may
// yield matches for several kinds at once. The catalogue is built once and is
// safe for concurrent use without locking.
package patterns

// Matcher finds the non-overlapping matches of one detector in a line and
// returns one token per match.
type Matcher interface {
	FindAll(line string) []string
}

// Pattern binds an issue kind to its matcher.
type Pattern struct {
	Kind        IssueKind
	Expr        string
	Description string
	matcher     Matcher
}

// FindAll returns the tokens matched by this pattern in line.
func (p Pattern) FindAll(line string) []string {
	return p.matcher.FindAll(line)
}

// Match is the result of applying one pattern to one line.
type Match struct {
	Kind   IssueKind
	Tokens []string
}

// Catalogue is an immutable, ordered set of patterns.
type Catalogue struct {
	patterns []Pattern
}

var defaultCatalogue = &Catalogue{
	patterns: []Pattern{
		{
			Kind:        UnsafeFunction,
			Expr:        unsafeFunctionExpr,
			Description: "unbounded string and scan functions",
			matcher:     newRegexpMatcher(unsafeFunctionExpr),
		},
		{
			Kind:        BufferOverflowRisk,
			Expr:        bufferOverflowExpr,
			Description: "memory copy into an indexed buffer not sized with sizeof",
			matcher:     bufferOverflowMatcher{},
		},
		{
			Kind:        UninitializedVariable,
			Expr:        uninitializedVarExpr,
			Description: "assignment immediately compared on the same line (heuristic)",
			matcher:     uninitializedVarMatcher{},
		},
		{
			Kind:        CommandInjection,
			Expr:        commandInjectionExpr,
			Description: "process execution sinks",
			matcher:     newRegexpMatcher(commandInjectionExpr),
		},
		{
			Kind:        UnprotectedFormatString,
			Expr:        formatStringExpr,
			Description: "printf family called without a literal format string",
			matcher:     newRegexpMatcher(formatStringExpr),
		},
	},
}

// Default returns the process-wide catalogue.
func Default() *Catalogue {
	return defaultCatalogue
}

// Patterns returns a copy of the registered patterns in registration order.
func (c *Catalogue) Patterns() []Pattern {
	out := make([]Pattern, len(c.patterns))
	copy(out, c.patterns)
	return out
}

// Kinds returns the registered kinds in registration order.
func (c *Catalogue) Kinds() []IssueKind {
	kinds := make([]IssueKind, len(c.patterns))
	for i, p := range c.patterns {
		kinds[i] = p.Kind
	}
	return kinds
}

// Match applies every pattern to line and returns the kinds that matched,
// in registration order. Kinds with no match are omitted.
func (c *Catalogue) Match(line string) []Match {
	var matches []Match
	for _, p := range c.patterns {
		if tokens := p.FindAll(line); len(tokens) > 0 {
			matches = append(matches, Match{Kind: p.Kind, Tokens: tokens})
		}
	}
	return matches
}
