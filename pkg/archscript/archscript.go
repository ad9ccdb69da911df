// Package archscript loads custom architecture rules from Starlark scripts.
//
// A script sees the predeclared string base and these builtins:
//
//	deny(from, to, description="")          forbid imports from -> to
//	require_non_empty(pkg, description="")  require packages under pkg
//	independent(*pkgs, description="")      forbid imports between any two pkgs
//	all_of(*rules)                          every rule must pass
//	any_of(*rules)                          at least one rule must pass
//	qualify(rel)                            base + "/" + rel
//	rule(*rules)                            register rules for evaluation
//
// Only registered rules are returned; rule values that are built but never
// registered are ignored.
package archscript

import (
	"fmt"
	"os"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"hexarch/pkg/archrule"
	"hexarch/pkg/pkgpath"
)

const (
	defaultMaxSteps = uint64(100_000)
	defaultTimeout  = 2 * time.Second
	maxScriptBytes  = 256 * 1024

	registryKey = "hexarch.rules"
)

// Options bounds script execution.
type Options struct {
	// Base is exposed to the script as base and used by qualify.
	Base     string
	MaxSteps uint64
	Timeout  time.Duration
}

// LoadFile reads and executes the script at path.
func LoadFile(path string, opts Options) ([]archrule.Rule, error) {
	src, err := os.ReadFile(path) //nolint:gosec // path comes from the project configuration
	if err != nil {
		return nil, archrule.WrapConfig(err, "read script %s", path)
	}
	return Load(path, src, opts)
}

// Load executes src and returns the rules it registered, in registration
// order. Script errors and malformed rules are *archrule.ConfigError.
func Load(filename string, src []byte, opts Options) ([]archrule.Rule, error) {
	if len(src) > maxScriptBytes {
		return nil, archrule.ErrConfig("script %s exceeds %d bytes", filename, maxScriptBytes)
	}
	if opts.MaxSteps == 0 {
		opts.MaxSteps = defaultMaxSteps
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}

	var registered []archrule.Rule
	thread := &starlark.Thread{Name: "hexarch-rules"}
	thread.SetMaxExecutionSteps(opts.MaxSteps)
	thread.SetLocal(registryKey, &registered)

	err := runWithTimeout(thread, opts.Timeout, func() error {
		_, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, filename, src, predeclared(opts.Base))
		return err
	})
	if err != nil {
		return nil, archrule.WrapConfig(err, "script %s", filename)
	}

	for i, r := range registered {
		if err := archrule.Verify(r); err != nil {
			return nil, archrule.WrapConfig(err, "script %s: rule %d", filename, i+1)
		}
	}
	return registered, nil
}

func predeclared(base string) starlark.StringDict {
	return starlark.StringDict{
		"base":              starlark.String(base),
		"deny":              starlark.NewBuiltin("deny", builtinDeny),
		"require_non_empty": starlark.NewBuiltin("require_non_empty", builtinRequireNonEmpty),
		"independent":       starlark.NewBuiltin("independent", builtinIndependent),
		"all_of":            starlark.NewBuiltin("all_of", builtinAllOf),
		"any_of":            starlark.NewBuiltin("any_of", builtinAnyOf),
		"qualify":           starlark.NewBuiltin("qualify", builtinQualify(base)),
		"rule":              starlark.NewBuiltin("rule", builtinRegister),
	}
}

func builtinDeny(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var from, to, description string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "from", &from, "to", &to, "description?", &description); err != nil {
		return nil, err
	}
	return newRuleValue(archrule.Deny(from, to, archrule.Describe(description)))
}

func builtinRequireNonEmpty(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var pkg, description string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "pkg", &pkg, "description?", &description); err != nil {
		return nil, err
	}
	return newRuleValue(archrule.RequireNonEmpty(pkg, archrule.Describe(description)))
}

func builtinIndependent(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var description string
	if err := starlark.UnpackArgs(b.Name(), nil, kwargs, "description?", &description); err != nil {
		return nil, err
	}
	pkgs := make([]string, 0, len(args))
	for i, arg := range args {
		s, ok := starlark.AsString(arg)
		if !ok {
			return nil, fmt.Errorf("%s: argument %d is %s, want string", b.Name(), i+1, arg.Type())
		}
		pkgs = append(pkgs, s)
	}
	return newRuleValue(archrule.Independent(pkgs, archrule.Describe(description)))
}

func builtinAllOf(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	rules, err := rulesOf(b, args, kwargs)
	if err != nil {
		return nil, err
	}
	return newRuleValue(archrule.AllOf(rules...))
}

func builtinAnyOf(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	rules, err := rulesOf(b, args, kwargs)
	if err != nil {
		return nil, err
	}
	return newRuleValue(archrule.AnyOf(rules...))
}

func builtinRegister(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	rules, err := rulesOf(b, args, kwargs)
	if err != nil {
		return nil, err
	}
	registry, ok := thread.Local(registryKey).(*[]archrule.Rule)
	if !ok {
		return nil, fmt.Errorf("%s: rule registry unavailable", b.Name())
	}
	*registry = append(*registry, rules...)
	return starlark.None, nil
}

func builtinQualify(base string) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var rel string
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &rel); err != nil {
			return nil, err
		}
		if base == "" {
			return nil, fmt.Errorf("%s: no base package configured", b.Name())
		}
		basePrefix, err := pkgpath.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		p, err := pkgpath.Join(basePrefix, rel)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
		return starlark.String(p), nil
	}
}

func rulesOf(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) ([]archrule.Rule, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	rules := make([]archrule.Rule, 0, len(args))
	for i, arg := range args {
		rv, ok := arg.(*ruleValue)
		if !ok {
			return nil, fmt.Errorf("%s: argument %d is %s, want rule", b.Name(), i+1, arg.Type())
		}
		rules = append(rules, rv.rule)
	}
	return rules, nil
}

func runWithTimeout(thread *starlark.Thread, timeout time.Duration, fn func() error) error {
	if timeout <= 0 {
		return fn()
	}

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		thread.Cancel("rule script timed out")
		err := <-done
		if err != nil {
			return archrule.WrapConfig(err, "rule script timed out after %s", timeout)
		}
		return archrule.ErrConfig("rule script timed out after %s", timeout)
	}
}
