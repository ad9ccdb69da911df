// Package archrule provides composable architecture rules evaluated over a
// depgraph.Graph.
//
// Atomic rules forbid imports between two package prefixes, keep a set of
// prefixes mutually independent, or require a prefix to contain packages.
// AllOf and AnyOf compose them. Every rule
// evaluates completely and reports all of its violations; provider failures
// are returned as errors and never turned into violations.
package archrule

import (
	"context"
	"fmt"
	"strings"

	"hexarch/pkg/depgraph"
	"hexarch/pkg/pkgpath"
)

// Rule validates a graph.
type Rule interface {
	Validate(ctx context.Context, g *depgraph.Graph) (Result, error)
	String() string
}

// Verifier is implemented by rules that can detect malformed declarations
// before any package is scanned.
type Verifier interface {
	Verify() error
}

// Option customises an atomic rule.
type Option func(*ruleOptions)

type ruleOptions struct {
	description string
}

// Describe replaces the generated message head of a rule.
func Describe(description string) Option {
	return func(o *ruleOptions) {
		o.description = strings.TrimSpace(description)
	}
}

func applyOptions(opts []Option) ruleOptions {
	var o ruleOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type denyRule struct {
	from, to    pkgpath.Prefix
	description string
	err         error
}

// Deny forbids any package under from to import a package under to. Both
// arguments are import-path prefixes; a malformed one surfaces as a
// *ConfigError from Verify and Validate.
func Deny(from, to string, opts ...Option) Rule {
	r := &denyRule{description: applyOptions(opts).description}
	var err error
	if r.from, err = pkgpath.Parse(from); err != nil {
		r.err = WrapConfig(err, "deny rule source")
		return r
	}
	if r.to, err = pkgpath.Parse(to); err != nil {
		r.err = WrapConfig(err, "deny rule target")
	}
	return r
}

// DenyDependency is Deny for already validated prefixes.
func DenyDependency(from, to pkgpath.Prefix, opts ...Option) Rule {
	return &denyRule{from: from, to: to, description: applyOptions(opts).description}
}

func (r *denyRule) Verify() error {
	return r.err
}

func (r *denyRule) Validate(_ context.Context, g *depgraph.Graph) (Result, error) {
	if r.err != nil {
		return Result{}, r.err
	}
	return fromCheck(r.String(), checkNoImports(g, r.from, r.to))
}

func (r *denyRule) String() string {
	if r.description != "" {
		return r.description
	}
	return denyHead(r.from, r.to)
}

func denyHead(from, to pkgpath.Prefix) string {
	return fmt.Sprintf("%s must not depend on %s", from, to)
}

type nonEmptyRule struct {
	prefix      pkgpath.Prefix
	description string
	err         error
}

// RequireNonEmpty requires at least one package under prefix. The check
// re-imports the prefix on its own rather than trusting the graph it is given.
func RequireNonEmpty(prefix string, opts ...Option) Rule {
	r := &nonEmptyRule{description: applyOptions(opts).description}
	p, err := pkgpath.Parse(prefix)
	if err != nil {
		r.err = WrapConfig(err, "non-empty rule")
		return r
	}
	r.prefix = p
	return r
}

// DenyEmptyPackage is RequireNonEmpty for an already validated prefix.
func DenyEmptyPackage(prefix pkgpath.Prefix, opts ...Option) Rule {
	return &nonEmptyRule{prefix: prefix, description: applyOptions(opts).description}
}

func (r *nonEmptyRule) Verify() error {
	return r.err
}

func (r *nonEmptyRule) Validate(ctx context.Context, g *depgraph.Graph) (Result, error) {
	if r.err != nil {
		return Result{}, r.err
	}
	return fromCheck(r.String(), checkNotEmpty(ctx, g, r.prefix))
}

func (r *nonEmptyRule) String() string {
	if r.description != "" {
		return r.description
	}
	return fmt.Sprintf("package %s must not be empty", r.prefix)
}

// DenyAny forbids every from -> to pair of the cartesian product. All pairs
// are evaluated and their violations accumulated.
func DenyAny(froms, tos []pkgpath.Prefix, opts ...Option) Rule {
	rules := make([]Rule, 0, len(froms)*len(tos))
	for _, from := range froms {
		for _, to := range tos {
			rules = append(rules, DenyDependency(from, to, opts...))
		}
	}
	return AllOf(rules...)
}

type independentRule struct {
	prefixes    []pkgpath.Prefix
	description string
	err         error
}

// Independent forbids each prefix from depending on any of the others, in
// both directions. At least two non-overlapping prefixes are required.
// Pairs are checked in order, each prefix against every other one, and the
// violations carry the same head as the equivalent Deny rules.
func Independent(prefixes []string, opts ...Option) Rule {
	r := &independentRule{description: applyOptions(opts).description}
	for _, s := range prefixes {
		p, err := pkgpath.Parse(s)
		if err != nil {
			r.err = WrapConfig(err, "independence rule")
			return r
		}
		r.prefixes = append(r.prefixes, p)
	}
	r.err = checkIndependent(r.prefixes)
	return r
}

// IndependentPackages is Independent for already validated prefixes.
func IndependentPackages(prefixes []pkgpath.Prefix, opts ...Option) Rule {
	r := &independentRule{
		prefixes:    append([]pkgpath.Prefix(nil), prefixes...),
		description: applyOptions(opts).description,
	}
	r.err = checkIndependent(r.prefixes)
	return r
}

func checkIndependent(prefixes []pkgpath.Prefix) error {
	if len(prefixes) < 2 {
		return ErrConfig("independence rule needs at least two packages, got %d", len(prefixes))
	}
	for i, a := range prefixes {
		for _, b := range prefixes[i+1:] {
			if pkgpath.Contains(a, b) || pkgpath.Contains(b, a) {
				return ErrConfig("independence rule: packages %s and %s overlap", a, b)
			}
		}
	}
	return nil
}

func (r *independentRule) Verify() error {
	return r.err
}

func (r *independentRule) Validate(_ context.Context, g *depgraph.Graph) (Result, error) {
	if r.err != nil {
		return Result{}, r.err
	}
	acc := Success()
	for i, from := range r.prefixes {
		for j, to := range r.prefixes {
			if i == j {
				continue
			}
			head := r.description
			if head == "" {
				head = denyHead(from, to)
			}
			res, err := fromCheck(head, checkNoImports(g, from, to))
			if err != nil {
				return Result{}, err
			}
			acc = acc.Combine(res)
		}
	}
	return acc, nil
}

func (r *independentRule) String() string {
	if r.description != "" {
		return r.description
	}
	parts := make([]string, 0, len(r.prefixes))
	for _, p := range r.prefixes {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, ", ") + " must not depend on each other"
}

type allOfRule struct {
	rules []Rule
}

// AllOf passes when every rule passes and otherwise accumulates all
// violations in rule order.
func AllOf(rules ...Rule) Rule {
	return &allOfRule{rules: append([]Rule(nil), rules...)}
}

func (r *allOfRule) Validate(ctx context.Context, g *depgraph.Graph) (Result, error) {
	acc := Success()
	for _, rule := range r.rules {
		res, err := rule.Validate(ctx, g)
		if err != nil {
			return Result{}, err
		}
		acc = acc.Combine(res)
	}
	return acc, nil
}

func (r *allOfRule) Verify() error {
	return verifyAll(r.rules)
}

func (r *allOfRule) String() string {
	return "all of [" + joinRules(r.rules) + "]"
}

type anyOfRule struct {
	rules []Rule
}

// AnyOf passes when at least one rule passes. When all fail, the violations
// of every alternative are reported. An empty AnyOf passes.
func AnyOf(rules ...Rule) Rule {
	return &anyOfRule{rules: append([]Rule(nil), rules...)}
}

func (r *anyOfRule) Validate(ctx context.Context, g *depgraph.Graph) (Result, error) {
	if len(r.rules) == 0 {
		return Success(), nil
	}
	acc := Success()
	for _, rule := range r.rules {
		res, err := rule.Validate(ctx, g)
		if err != nil {
			return Result{}, err
		}
		if res.OK() {
			return Success(), nil
		}
		acc = acc.Combine(res)
	}
	return acc, nil
}

func (r *anyOfRule) Verify() error {
	return verifyAll(r.rules)
}

func (r *anyOfRule) String() string {
	return "any of [" + joinRules(r.rules) + "]"
}

// And combines two rules with AllOf, flattening nested AllOf operands.
func And(a, b Rule) Rule {
	var rules []Rule
	for _, r := range []Rule{a, b} {
		if all, ok := r.(*allOfRule); ok {
			rules = append(rules, all.rules...)
			continue
		}
		rules = append(rules, r)
	}
	return &allOfRule{rules: rules}
}

// Or combines two rules with AnyOf, flattening nested AnyOf operands.
func Or(a, b Rule) Rule {
	var rules []Rule
	for _, r := range []Rule{a, b} {
		if anyOf, ok := r.(*anyOfRule); ok {
			rules = append(rules, anyOf.rules...)
			continue
		}
		rules = append(rules, r)
	}
	return &anyOfRule{rules: rules}
}

type funcRule struct {
	name string
	fn   func(ctx context.Context, g *depgraph.Graph) (Result, error)
}

// Func wraps a function as a named rule.
func Func(name string, fn func(ctx context.Context, g *depgraph.Graph) (Result, error)) Rule {
	return &funcRule{name: name, fn: fn}
}

func (r *funcRule) Validate(ctx context.Context, g *depgraph.Graph) (Result, error) {
	return r.fn(ctx, g)
}

func (r *funcRule) String() string {
	return r.name
}

// Verify reports the first malformed declaration in a rule tree.
func Verify(rule Rule) error {
	if rule == nil {
		return ErrConfig("rule must not be nil")
	}
	if v, ok := rule.(Verifier); ok {
		return v.Verify()
	}
	return nil
}

func verifyAll(rules []Rule) error {
	for _, r := range rules {
		if err := Verify(r); err != nil {
			return err
		}
	}
	return nil
}

func joinRules(rules []Rule) string {
	parts := make([]string, 0, len(rules))
	for _, r := range rules {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, "; ")
}
