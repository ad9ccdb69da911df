// Package archconfig loads a hexagonal architecture declaration from a
// hexarch.yaml file.
package archconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"hexarch/pkg/archrule"
	"hexarch/pkg/archscript"
	"hexarch/pkg/astdb/governance"
	"hexarch/pkg/hexagonal"
)

// DefaultFileName is the file looked up when no path is given.
const DefaultFileName = "hexarch.yaml"

// File is the parsed form of hexarch.yaml.
type File struct {
	Base          string              `yaml:"base"`
	Domain        []string            `yaml:"domain,omitempty"`
	Adapters      *AdaptersSection    `yaml:"adapters,omitempty"`
	Application   *ApplicationSection `yaml:"application,omitempty"`
	Configuration string              `yaml:"configuration,omitempty"`
	Layers        []LayerSection      `yaml:"layers,omitempty"`
	// IndependentLayers lists groups of layer names that must not depend on
	// each other.
	IndependentLayers [][]string  `yaml:"independent_layers,omitempty"`
	Rules             []RuleSpec  `yaml:"rules,omitempty"`
	Queries           []QuerySpec `yaml:"queries,omitempty"`
	Scripts           []string    `yaml:"scripts,omitempty"`

	// dir resolves relative script paths.
	dir string
}

// AdaptersSection declares the adapters layer.
type AdaptersSection struct {
	Base     string   `yaml:"base"`
	Incoming []string `yaml:"incoming,omitempty"`
	Outgoing []string `yaml:"outgoing,omitempty"`
}

// ApplicationSection declares the application layer.
type ApplicationSection struct {
	Base          string   `yaml:"base"`
	Services      []string `yaml:"services,omitempty"`
	IncomingPorts []string `yaml:"incoming_ports,omitempty"`
	OutgoingPorts []string `yaml:"outgoing_ports,omitempty"`
}

// LayerSection declares a named layer. Package defaults to the name.
type LayerSection struct {
	Name           string   `yaml:"name"`
	Package        string   `yaml:"package,omitempty"`
	SubPackages    []string `yaml:"sub_packages,omitempty"`
	CanDependOn    []string `yaml:"can_depend_on,omitempty"`
	CannotDependOn []string `yaml:"cannot_depend_on,omitempty"`
}

// RuleSpec is one custom rule. Exactly one of Deny, RequireNonEmpty,
// Independent, AllOf and AnyOf must be set. Prefixes are absolute import
// paths. Description applies to the atomic kinds only.
type RuleSpec struct {
	Deny            *DenySpec  `yaml:"deny,omitempty"`
	RequireNonEmpty string     `yaml:"require_non_empty,omitempty"`
	Independent     []string   `yaml:"independent,omitempty"`
	AllOf           []RuleSpec `yaml:"all_of,omitempty"`
	AnyOf           []RuleSpec `yaml:"any_of,omitempty"`
	Description     string     `yaml:"description,omitempty"`
}

// DenySpec forbids imports from one prefix into another.
type DenySpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// QuerySpec is a SQL governance rule evaluated against the graph index.
type QuerySpec struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description,omitempty"`
	SQL         string `yaml:"sql"`
}

// Load reads and parses the file at path. Unknown keys are rejected.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by the caller (CLI flag or test)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, archrule.WrapConfig(err, "parse config %s", path)
	}
	f.dir = filepath.Dir(path)
	return f, nil
}

// Parse decodes a hexarch.yaml document.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, err
	}
	f.dir = "."
	return &f, nil
}

// Spec converts the file into a hexagonal.Spec, loading scripts and
// compiling rule specs. The result is not yet validated.
func (f *File) Spec() (hexagonal.Spec, error) {
	spec := hexagonal.Spec{
		Base:          f.Base,
		Domain:        f.Domain,
		Configuration: f.Configuration,
		Independent:   f.IndependentLayers,
	}
	for _, l := range f.Layers {
		spec.Layers = append(spec.Layers, hexagonal.LayerSpec{
			Name:           l.Name,
			Package:        l.Package,
			SubPackages:    l.SubPackages,
			CanDependOn:    l.CanDependOn,
			CannotDependOn: l.CannotDependOn,
		})
	}
	if f.Adapters != nil {
		spec.Adapters = &hexagonal.AdaptersSpec{
			Base:     f.Adapters.Base,
			Incoming: f.Adapters.Incoming,
			Outgoing: f.Adapters.Outgoing,
		}
	}
	if f.Application != nil {
		spec.Application = &hexagonal.ApplicationSpec{
			Base:          f.Application.Base,
			Services:      f.Application.Services,
			IncomingPorts: f.Application.IncomingPorts,
			OutgoingPorts: f.Application.OutgoingPorts,
		}
	}

	for i, rs := range f.Rules {
		rule, err := rs.compile(fmt.Sprintf("rules[%d]", i))
		if err != nil {
			return hexagonal.Spec{}, err
		}
		spec.Rules = append(spec.Rules, rule)
	}

	seen := make(map[string]struct{}, len(f.Queries))
	for i, q := range f.Queries {
		if strings.TrimSpace(q.ID) == "" {
			return hexagonal.Spec{}, archrule.ErrConfig("queries[%d]: id is required", i)
		}
		if _, dup := seen[q.ID]; dup {
			return hexagonal.Spec{}, archrule.ErrConfig("queries[%d]: duplicate id %s", i, q.ID)
		}
		seen[q.ID] = struct{}{}
		spec.Rules = append(spec.Rules, governance.NewSQLRule(q.GovernanceRule()))
	}

	for _, script := range f.Scripts {
		path := script
		if !filepath.IsAbs(path) {
			path = filepath.Join(f.dir, path)
		}
		rules, err := archscript.LoadFile(path, archscript.Options{Base: f.Base})
		if err != nil {
			return hexagonal.Spec{}, err
		}
		spec.Rules = append(spec.Rules, rules...)
	}

	return spec, nil
}

// Model builds and validates the architecture model.
func (f *File) Model() (*hexagonal.Model, error) {
	spec, err := f.Spec()
	if err != nil {
		return nil, err
	}
	return spec.Build()
}

// GovernanceRules returns the file's queries as governance rules.
func (f *File) GovernanceRules() []governance.Rule {
	out := make([]governance.Rule, 0, len(f.Queries))
	for _, q := range f.Queries {
		out = append(out, q.GovernanceRule())
	}
	return out
}

// GovernanceRule converts the query into a governance rule.
func (q QuerySpec) GovernanceRule() governance.Rule {
	return governance.Rule{
		ID:          q.ID,
		Category:    "custom",
		Description: q.Description,
		QuerySQL:    q.SQL,
		Enabled:     true,
	}
}

func (rs RuleSpec) compile(where string) (archrule.Rule, error) {
	set := 0
	for _, present := range []bool{
		rs.Deny != nil,
		rs.RequireNonEmpty != "",
		rs.Independent != nil,
		rs.AllOf != nil,
		rs.AnyOf != nil,
	} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, archrule.ErrConfig("%s: exactly one of deny, require_non_empty, independent, all_of, any_of must be set", where)
	}

	opts := []archrule.Option{archrule.Describe(rs.Description)}
	switch {
	case rs.Deny != nil:
		return archrule.Deny(rs.Deny.From, rs.Deny.To, opts...), nil
	case rs.RequireNonEmpty != "":
		return archrule.RequireNonEmpty(rs.RequireNonEmpty, opts...), nil
	case rs.Independent != nil:
		return archrule.Independent(rs.Independent, opts...), nil
	}

	if strings.TrimSpace(rs.Description) != "" {
		return nil, archrule.ErrConfig("%s: description is only allowed on deny, require_non_empty and independent rules", where)
	}
	if rs.AllOf != nil {
		children, err := compileAll(where+".all_of", rs.AllOf)
		if err != nil {
			return nil, err
		}
		return archrule.AllOf(children...), nil
	}
	children, err := compileAll(where+".any_of", rs.AnyOf)
	if err != nil {
		return nil, err
	}
	return archrule.AnyOf(children...), nil
}

func compileAll(where string, specs []RuleSpec) ([]archrule.Rule, error) {
	out := make([]archrule.Rule, 0, len(specs))
	for i, s := range specs {
		r, err := s.compile(fmt.Sprintf("%s[%d]", where, i))
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
