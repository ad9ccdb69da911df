package hexagonal

import (
	"hexarch/pkg/archrule"
	"hexarch/pkg/pkgpath"
)

// Adapters is the adapters layer: incoming adapters drive the application,
// outgoing adapters are driven by it.
type Adapters struct {
	base     pkgpath.Prefix
	incoming []pkgpath.Prefix
	outgoing []pkgpath.Prefix
}

// Base returns the layer's root package.
func (a *Adapters) Base() pkgpath.Prefix { return a.base }

// Incoming returns the incoming adapter packages.
func (a *Adapters) Incoming() []pkgpath.Prefix { return clonePrefixes(a.incoming) }

// Outgoing returns the outgoing adapter packages.
func (a *Adapters) Outgoing() []pkgpath.Prefix { return clonePrefixes(a.outgoing) }

// Packages returns incoming then outgoing adapter packages.
func (a *Adapters) Packages() []pkgpath.Prefix {
	out := make([]pkgpath.Prefix, 0, len(a.incoming)+len(a.outgoing))
	out = append(out, a.incoming...)
	return append(out, a.outgoing...)
}

// rules derives, in order: every adapter is non-empty, the adapters are
// mutually independent, and the layer does not depend on configuration.
func (a *Adapters) rules(configuration pkgpath.Prefix) []archrule.Rule {
	all := a.Packages()

	var rules []archrule.Rule
	for _, p := range all {
		rules = append(rules, archrule.DenyEmptyPackage(p))
	}
	if len(all) > 1 {
		rules = append(rules, archrule.IndependentPackages(all))
	}
	if configuration != "" {
		rules = append(rules, archrule.DenyDependency(a.base, configuration))
	}
	return rules
}

// Application is the application layer: services plus the ports through
// which adapters drive it and through which it reaches outward.
type Application struct {
	base          pkgpath.Prefix
	services      []pkgpath.Prefix
	incomingPorts []pkgpath.Prefix
	outgoingPorts []pkgpath.Prefix
}

// Base returns the layer's root package.
func (a *Application) Base() pkgpath.Prefix { return a.base }

// Services returns the service packages.
func (a *Application) Services() []pkgpath.Prefix { return clonePrefixes(a.services) }

// IncomingPorts returns the incoming port packages.
func (a *Application) IncomingPorts() []pkgpath.Prefix { return clonePrefixes(a.incomingPorts) }

// OutgoingPorts returns the outgoing port packages.
func (a *Application) OutgoingPorts() []pkgpath.Prefix { return clonePrefixes(a.outgoingPorts) }

// rules derives, in order: ports and services are non-empty, the layer does
// not depend on adapters or configuration, and incoming and outgoing ports do
// not depend on each other in either direction.
func (a *Application) rules(adapters, configuration pkgpath.Prefix) []archrule.Rule {
	var rules []archrule.Rule
	for _, group := range [][]pkgpath.Prefix{a.incomingPorts, a.outgoingPorts, a.services} {
		for _, p := range group {
			rules = append(rules, archrule.DenyEmptyPackage(p))
		}
	}
	if adapters != "" {
		rules = append(rules, archrule.DenyDependency(a.base, adapters))
	}
	if configuration != "" {
		rules = append(rules, archrule.DenyDependency(a.base, configuration))
	}
	rules = append(rules, crossDeny(a.incomingPorts, a.outgoingPorts)...)
	rules = append(rules, crossDeny(a.outgoingPorts, a.incomingPorts)...)
	return rules
}

func crossDeny(froms, tos []pkgpath.Prefix) []archrule.Rule {
	rules := make([]archrule.Rule, 0, len(froms)*len(tos))
	for _, from := range froms {
		for _, to := range tos {
			rules = append(rules, archrule.DenyDependency(from, to))
		}
	}
	return rules
}
