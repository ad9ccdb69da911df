package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	"hexarch/internal/config"
)

const (
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiReset = "\x1b[0m"
)

func (a *app) jsonOutput() bool {
	return a.cfg.Output == config.OutputJSON
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// isTerminal reports whether w is a terminal, in which case text output is
// colored.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// status writes a summary line, colored green or red on a terminal.
func status(w io.Writer, ok bool, format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if isTerminal(w) {
		color := ansiRed
		if ok {
			color = ansiGreen
		}
		line = color + line + ansiReset
	}
	_, _ = fmt.Fprintln(w, line)
}

// formatRow renders a query row as key=value pairs in key order.
func formatRow(row map[string]any) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := row[k]
		if v == nil {
			v = "NULL"
		}
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, " ")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
