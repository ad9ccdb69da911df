package archrule

import "strings"

// Result is the outcome of validating a rule: either success or a non-empty,
// ordered list of violation messages. The zero value is success.
//
// Results form a monoid under Combine with Success as the identity.
// Violations accumulate left to right and duplicates are kept.
type Result struct {
	violations []string
}

// Success returns the passing result.
func Success() Result {
	return Result{}
}

// Failure returns a failing result carrying violations. Called with no
// violations it returns Success.
func Failure(violations ...string) Result {
	if len(violations) == 0 {
		return Result{}
	}
	return Result{violations: append([]string(nil), violations...)}
}

// OK reports whether the result is a success.
func (r Result) OK() bool {
	return len(r.violations) == 0
}

// Violations returns a copy of the violation messages in order.
func (r Result) Violations() []string {
	return append([]string(nil), r.violations...)
}

// Combine returns the union of r and other, r's violations first.
func (r Result) Combine(other Result) Result {
	switch {
	case r.OK():
		return other
	case other.OK():
		return r
	}
	out := make([]string, 0, len(r.violations)+len(other.violations))
	out = append(out, r.violations...)
	out = append(out, other.violations...)
	return Result{violations: out}
}

// CombineAll folds results from Success.
func CombineAll(results ...Result) Result {
	acc := Success()
	for _, r := range results {
		acc = acc.Combine(r)
	}
	return acc
}

// Err returns nil for success and a *ViolationError listing every violation
// otherwise.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &ViolationError{Rule: "architecture check", Details: r.Violations()}
}

func (r Result) String() string {
	if r.OK() {
		return "Success"
	}
	return "Failure:\n" + strings.Join(r.violations, "\n")
}
