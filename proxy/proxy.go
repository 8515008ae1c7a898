// Package proxy gives callers object-like handles over graph classes and
// instances. A proxy is created for a class (optionally bound to one
// instance); its callable surface is a capability table built from the
// schema at creation time, so method dispatch is a map lookup, never a
// runtime search.
package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/c360/semgraph/errors"
	"github.com/c360/semgraph/instance"
	"github.com/c360/semgraph/schema"
	"github.com/c360/semgraph/vocabulary"
)

// capability executes one method against a proxy.
type capability func(ctx context.Context, p *Proxy, args map[string]any) (any, error)

// Proxy is a handle over one class, optionally bound to one instance.
// Method calls go through the capability table; property access requires a
// bound instance.
type Proxy struct {
	Class    string // class IRI
	Instance string // instance id; empty when unbound

	manager      *instance.Manager
	schema       *schema.Registry
	capabilities map[string]capability
	logger       *slog.Logger
}

// Reflection is the structural self-description of a class as seen through
// its proxies.
type Reflection struct {
	Class         string   `json:"class"`
	Label         string   `json:"label"`
	Properties    []string `json:"properties"`
	Methods       []string `json:"methods"`
	InstanceCount int      `json:"instance_count"`
}

// Bound reports whether the proxy carries an instance.
func (p *Proxy) Bound() bool {
	return p.Instance != ""
}

// Invoke calls a method through the capability table. Methods the schema
// never declared for the class (or its behavior companion) fail with a
// method-not-found error.
func (p *Proxy) Invoke(ctx context.Context, method string, args map[string]any) (any, error) {
	impl, ok := p.capabilities[method]
	if !ok {
		return nil, errors.Wrap(errors.ErrMethodNotFound, "Proxy", "Invoke",
			"lookup of method "+method+" on "+vocabulary.LocalName(p.Class))
	}
	p.logger.Debug("invoking method", "class", vocabulary.LocalName(p.Class), "instance", p.Instance, "method", method)
	return impl(ctx, p, args)
}

// Methods lists the proxy's callable method names sorted.
func (p *Proxy) Methods() []string {
	names := make([]string, 0, len(p.capabilities))
	for name := range p.capabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Property reads one property of the bound instance.
func (p *Proxy) Property(name string) (string, error) {
	if !p.Bound() {
		return "", errors.Wrap(errors.ErrUnboundProxy, "Proxy", "Property", "read of "+name)
	}
	value, ok := p.manager.Property(p.Instance, name, "")
	if !ok {
		return "", errors.Wrap(errors.ErrPropertyNotFound, "Proxy", "Property",
			"lookup of "+name+" on "+p.Instance)
	}
	return value, nil
}

// SetProperty replaces one property value on the bound instance.
func (p *Proxy) SetProperty(name string, value any) error {
	if !p.Bound() {
		return errors.Wrap(errors.ErrUnboundProxy, "Proxy", "SetProperty", "write of "+name)
	}
	return p.manager.UpdateProperty(p.Instance, name, value, "")
}

// echo is the generic fallback capability: it reports the call without any
// domain effect, which keeps every declared method invocable even before a
// builtin exists for it.
func echo(method string) capability {
	return func(_ context.Context, p *Proxy, args map[string]any) (any, error) {
		target := vocabulary.LocalName(p.Class)
		if p.Bound() {
			target = p.Instance
		}
		return fmt.Sprintf("%s executed %s with %d args", target, method, len(args)), nil
	}
}
