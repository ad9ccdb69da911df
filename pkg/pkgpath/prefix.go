// Package pkgpath validates and matches Go import-path prefixes.
//
// A prefix names a package and everything below it, the way the go command
// reads the pattern "prefix/...". Matching is segment aware: "example.com/foo/bar"
// covers "example.com/foo/bar/baz" but never "example.com/foo/barstuff".
package pkgpath

import (
	"fmt"
	"strings"

	"golang.org/x/mod/module"
)

// Prefix is a validated import-path prefix.
type Prefix string

// Error reports a malformed prefix.
type Error struct {
	Input  string
	Reason string
}

func (e *Error) Error() string {
	if e.Input == "" {
		return "invalid package prefix: " + e.Reason
	}
	return fmt.Sprintf("invalid package prefix %q: %s", e.Input, e.Reason)
}

// Parse validates s and returns it as a Prefix. A trailing "/..." is accepted
// and stripped.
func Parse(s string) (Prefix, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimSuffix(trimmed, "/...")
	if trimmed == "" || trimmed == "..." {
		return "", &Error{Input: s, Reason: "must not be empty"}
	}
	if strings.HasSuffix(trimmed, "/") {
		return "", &Error{Input: s, Reason: "must not end with a slash"}
	}
	if strings.Contains(trimmed, "...") {
		return "", &Error{Input: s, Reason: "wildcards are only allowed as a trailing /..."}
	}
	if err := module.CheckImportPath(trimmed); err != nil {
		return "", &Error{Input: s, Reason: err.Error()}
	}
	return Prefix(trimmed), nil
}

// MustParse is like Parse but panics on malformed input. Intended for
// package-level declarations and tests.
func MustParse(s string) Prefix {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Join qualifies rel against base, producing base/rel.
func Join(base Prefix, rel string) (Prefix, error) {
	rel = strings.Trim(strings.TrimSpace(rel), "/")
	if rel == "" {
		return "", &Error{Input: rel, Reason: fmt.Sprintf("relative name under %s must not be empty", base)}
	}
	if base == "" {
		return Parse(rel)
	}
	return Parse(string(base) + "/" + rel)
}

// Matches reports whether pkgPath is prefix itself or lies below it.
func Matches(pkgPath string, prefix Prefix) bool {
	p := string(prefix)
	if p == "" {
		return false
	}
	return pkgPath == p || strings.HasPrefix(pkgPath, p+"/")
}

// Contains reports whether inner lies within outer.
func Contains(outer, inner Prefix) bool {
	return Matches(string(inner), outer)
}

// String returns the bare prefix.
func (p Prefix) String() string {
	return string(p)
}

// Pattern returns the go command pattern that selects the prefix and its
// subpackages.
func (p Prefix) Pattern() string {
	return string(p) + "/..."
}

// Strings converts prefixes to their string form, preserving order.
func Strings(prefixes []Prefix) []string {
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		out = append(out, string(p))
	}
	return out
}
