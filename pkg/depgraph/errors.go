package depgraph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoPackages is wrapped by importers when no package matched the requested
// prefixes.
var ErrNoPackages = errors.New("no packages matched")

// ProviderError reports a failure of the underlying graph provider: unreadable
// files, unparsable sources, a failing go command.
type ProviderError struct {
	Op       string
	Patterns []string
	Err      error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	b.WriteString("graph provider")
	if e.Op != "" {
		b.WriteString(" ")
		b.WriteString(e.Op)
	}
	if len(e.Patterns) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Patterns, " "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ErrProvider returns a *ProviderError for op wrapping err.
func ErrProvider(op string, patterns []string, err error) *ProviderError {
	return &ProviderError{Op: op, Patterns: patterns, Err: err}
}
