package hexagonal

import (
	"hexarch/pkg/archrule"
)

// Architecture is the receiver of the Define block. Each layer may be
// declared once; nested blocks run synchronously.
type Architecture struct {
	spec        Spec
	err         error
	domainSet   bool
	adaptersSet bool
	appSet      bool
	configSet   bool
}

// Define declares an architecture rooted at base and returns the validated
// model.
//
//	model, err := hexagonal.Define("example.com/buckpal/account", func(a *hexagonal.Architecture) {
//		a.Domain("domain")
//		a.Adapters("adapter", func(ad *hexagonal.AdaptersBuilder) {
//			ad.Incoming("in/web").Outgoing("out/persistence")
//		})
//		a.Application("application", func(app *hexagonal.ApplicationBuilder) {
//			app.Services("service").IncomingPorts("port/in").OutgoingPorts("port/out")
//		})
//		a.Configuration("configuration")
//	})
func Define(base string, block func(a *Architecture)) (*Model, error) {
	a := &Architecture{spec: Spec{Base: base}}
	if block != nil {
		block(a)
	}
	if a.err != nil {
		return nil, a.err
	}
	return a.spec.Build()
}

// Domain declares the domain packages, relative to the base.
func (a *Architecture) Domain(packages ...string) {
	if a.once(&a.domainSet, "domain") {
		return
	}
	if len(packages) == 0 {
		a.fail(archrule.ErrConfig("domain: at least one package is required"))
		return
	}
	a.spec.Domain = append(a.spec.Domain, packages...)
}

// Adapters declares the adapters layer under base/name.
func (a *Architecture) Adapters(name string, block func(b *AdaptersBuilder)) {
	if a.once(&a.adaptersSet, "adapters") {
		return
	}
	a.spec.Adapters = &AdaptersSpec{Base: name}
	if block != nil {
		block(&AdaptersBuilder{spec: a.spec.Adapters})
	}
}

// Application declares the application layer under base/name.
func (a *Architecture) Application(name string, block func(b *ApplicationBuilder)) {
	if a.once(&a.appSet, "application") {
		return
	}
	a.spec.Application = &ApplicationSpec{Base: name}
	if block != nil {
		block(&ApplicationBuilder{spec: a.spec.Application})
	}
}

// Configuration declares the configuration package, relative to the base.
func (a *Architecture) Configuration(name string) {
	if a.once(&a.configSet, "configuration") {
		return
	}
	if name == "" {
		a.fail(archrule.ErrConfig("configuration: package name is required"))
		return
	}
	a.spec.Configuration = name
}

// Layer declares a named layer rooted at base/name and returns its builder.
//
//	a.Layer("billing").SubPackages("api").CannotDependOn("shipping")
func (a *Architecture) Layer(name string) *LayerBuilder {
	a.spec.Layers = append(a.spec.Layers, LayerSpec{Name: name})
	return &LayerBuilder{arch: a, index: len(a.spec.Layers) - 1}
}

// Independent requires the named layers not to depend on each other in
// either direction.
func (a *Architecture) Independent(layers ...string) {
	a.spec.Independent = append(a.spec.Independent, append([]string(nil), layers...))
}

// Rule adds custom rules evaluated after the layer rules.
func (a *Architecture) Rule(rules ...archrule.Rule) {
	a.spec.Rules = append(a.spec.Rules, rules...)
}

func (a *Architecture) once(flag *bool, layer string) bool {
	if *flag {
		a.fail(archrule.ErrConfig("%s layer declared more than once", layer))
		return true
	}
	*flag = true
	return false
}

func (a *Architecture) fail(err error) {
	if a.err == nil {
		a.err = err
	}
}

// AdaptersBuilder is the receiver of the Adapters block.
type AdaptersBuilder struct {
	spec *AdaptersSpec
}

// Incoming adds an incoming adapter, relative to the adapters base.
func (b *AdaptersBuilder) Incoming(name string) *AdaptersBuilder {
	b.spec.Incoming = append(b.spec.Incoming, name)
	return b
}

// Outgoing adds an outgoing adapter, relative to the adapters base.
func (b *AdaptersBuilder) Outgoing(name string) *AdaptersBuilder {
	b.spec.Outgoing = append(b.spec.Outgoing, name)
	return b
}

// ApplicationBuilder is the receiver of the Application block.
type ApplicationBuilder struct {
	spec *ApplicationSpec
}

// Services adds service packages, relative to the application base.
func (b *ApplicationBuilder) Services(names ...string) *ApplicationBuilder {
	b.spec.Services = append(b.spec.Services, names...)
	return b
}

// IncomingPorts adds incoming port packages.
func (b *ApplicationBuilder) IncomingPorts(names ...string) *ApplicationBuilder {
	b.spec.IncomingPorts = append(b.spec.IncomingPorts, names...)
	return b
}

// OutgoingPorts adds outgoing port packages.
func (b *ApplicationBuilder) OutgoingPorts(names ...string) *ApplicationBuilder {
	b.spec.OutgoingPorts = append(b.spec.OutgoingPorts, names...)
	return b
}

// LayerBuilder configures a named layer.
type LayerBuilder struct {
	arch  *Architecture
	index int
}

func (b *LayerBuilder) spec() *LayerSpec {
	return &b.arch.spec.Layers[b.index]
}

// Package overrides the layer's package, relative to the base.
func (b *LayerBuilder) Package(rel string) *LayerBuilder {
	b.spec().Package = rel
	return b
}

// SubPackages adds packages, relative to the layer, that must not be empty.
func (b *LayerBuilder) SubPackages(names ...string) *LayerBuilder {
	s := b.spec()
	s.SubPackages = append(s.SubPackages, names...)
	return b
}

// CanDependOn restricts the layer to depend on the listed layers only.
func (b *LayerBuilder) CanDependOn(layers ...string) *LayerBuilder {
	s := b.spec()
	s.CanDependOn = append(s.CanDependOn, layers...)
	return b
}

// CannotDependOn forbids the layer to depend on the listed layers.
func (b *LayerBuilder) CannotDependOn(layers ...string) *LayerBuilder {
	s := b.spec()
	s.CannotDependOn = append(s.CannotDependOn, layers...)
	return b
}
