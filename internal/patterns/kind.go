package patterns

import (
	"fmt"
)

// IssueKind identifies one category of risky source pattern.
type IssueKind int

const (
	UnsafeFunction IssueKind = iota
	BufferOverflowRisk
	UninitializedVariable
	CommandInjection
	UnprotectedFormatString
)

// kindNames holds the wire names in registration order.
var kindNames = [...]string{
	UnsafeFunction:          "unsafe_functions",
	BufferOverflowRisk:      "buffer_overflow",
	UninitializedVariable:   "uninitialized_var",
	CommandInjection:        "command_injection",
	UnprotectedFormatString: "unprotected_format_string",
}

// AllKinds returns every issue kind in registration order.
func AllKinds() []IssueKind {
	kinds := make([]IssueKind, len(kindNames))
	for i := range kindNames {
		kinds[i] = IssueKind(i)
	}
	return kinds
}

// String returns the wire name used in reports.
func (k IssueKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Valid reports whether k is one of the known kinds.
func (k IssueKind) Valid() bool {
	return k >= 0 && int(k) < len(kindNames)
}

// MarshalText implements encoding.TextMarshaler so kinds serialize by name.
func (k IssueKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("unknown issue kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *IssueKind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind maps a wire name back to its IssueKind.
func ParseKind(name string) (IssueKind, error) {
	for i, n := range kindNames {
		if n == name {
			return IssueKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown issue kind %q", name)
}
