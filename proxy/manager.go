package proxy

import (
	"log/slog"
	"sort"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/semgraph/errors"
	"github.com/c360/semgraph/instance"
	"github.com/c360/semgraph/pkg/cache"
	"github.com/c360/semgraph/schema"
	"github.com/c360/semgraph/vocabulary"
)

const defaultCacheSize = 128

// Manager creates proxies and caches them by "class:instance" key so that
// repeated lookups of the same handle reuse the capability table.
type Manager struct {
	schema    *schema.Registry
	instances *instance.Manager
	proxies   cache.Cache[*Proxy]
	logger    *slog.Logger

	cacheSize  int
	registerer prometheus.Registerer
}

// Option configures a Manager.
type Option func(*Manager)

// WithCacheSize bounds the proxy cache. Default 128 entries, LRU eviction.
func WithCacheSize(size int) Option {
	return func(m *Manager) { m.cacheSize = size }
}

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithMetrics attaches Prometheus metrics to the proxy cache.
func WithMetrics(registerer prometheus.Registerer) Option {
	return func(m *Manager) { m.registerer = registerer }
}

// NewManager creates a proxy manager over the schema and instance layers.
func NewManager(reg *schema.Registry, instances *instance.Manager, options ...Option) (*Manager, error) {
	m := &Manager{
		schema:    reg,
		instances: instances,
		logger:    slog.Default(),
		cacheSize: defaultCacheSize,
	}
	for _, opt := range options {
		opt(m)
	}
	m.logger = m.logger.With("component", "ProxyManager")

	var cacheOptions []cache.Option[*Proxy]
	if m.registerer != nil {
		cacheOptions = append(cacheOptions, cache.WithMetrics[*Proxy](m.registerer, "proxy"))
	}
	proxies, err := cache.NewLRU[*Proxy](m.cacheSize, cacheOptions...)
	if err != nil {
		return nil, errors.Wrap(err, "ProxyManager", "NewManager", "cache construction")
	}
	m.proxies = proxies
	return m, nil
}

// New returns a proxy for className, optionally bound to instanceID. The
// class must be declared; the instance id is taken on trust so that proxies
// can be handed out for instances created later. Cached handles are reused.
func (m *Manager) New(className, instanceID string) (*Proxy, error) {
	classIRI := className
	if !vocabulary.IsIRI(classIRI) {
		classIRI = vocabulary.OntologyNamespace + className
	}
	if !m.schema.ClassExists(classIRI) {
		return nil, errors.Wrap(errors.ErrClassNotFound, "ProxyManager", "New", "lookup of class "+className)
	}

	key := classIRI + ":" + instanceID
	if p, ok := m.proxies.Get(key); ok {
		return p, nil
	}

	p := &Proxy{
		Class:        classIRI,
		Instance:     instanceID,
		manager:      m.instances,
		schema:       m.schema,
		capabilities: m.buildCapabilities(classIRI),
		logger:       m.logger,
	}
	if _, err := m.proxies.Set(key, p); err != nil {
		return nil, errors.Wrap(err, "ProxyManager", "New", "cache insertion")
	}

	m.logger.Debug("created proxy", "class", className, "instance", instanceID,
		"methods", len(p.capabilities))
	return p, nil
}

// Reflect describes a class as its proxies see it: data properties in use,
// declared methods (behavior companion included) and the instance count.
func (m *Manager) Reflect(className string) (Reflection, error) {
	classIRI := className
	if !vocabulary.IsIRI(classIRI) {
		classIRI = vocabulary.OntologyNamespace + className
	}
	if !m.schema.ClassExists(classIRI) {
		return Reflection{}, errors.Wrap(errors.ErrClassNotFound, "ProxyManager", "Reflect", "lookup of class "+className)
	}

	refl := Reflection{
		Class:   classIRI,
		Label:   m.schema.Label(classIRI),
		Methods: m.schema.ClassMethods(classIRI),
	}
	sort.Strings(refl.Methods)

	ids, err := m.instances.InstancesOf(classIRI, "")
	if err == nil {
		refl.InstanceCount = len(ids)
	}

	seen := make(map[string]struct{})
	for _, id := range ids {
		props, err := m.instances.Properties(id)
		if err != nil {
			continue
		}
		for name := range props {
			if name == "label" {
				continue
			}
			seen[name] = struct{}{}
		}
	}
	for name := range seen {
		refl.Properties = append(refl.Properties, name)
	}
	sort.Strings(refl.Properties)
	return refl, nil
}

// Invalidate drops every cached proxy. Schema changes after proxy creation
// do not reach existing capability tables; callers that extend behavior at
// runtime invalidate and re-create.
func (m *Manager) Invalidate() error {
	return m.proxies.Clear()
}

// CacheStats exposes the proxy cache statistics.
func (m *Manager) CacheStats() *cache.Statistics {
	return m.proxies.Stats()
}

// buildCapabilities freezes the class's callable surface: one entry per
// declared behavior method, bound to a builtin when one matches the method
// name and to the echo fallback otherwise.
func (m *Manager) buildCapabilities(classIRI string) map[string]capability {
	known := builtins()
	table := make(map[string]capability)
	for _, method := range m.schema.ClassMethods(classIRI) {
		if impl, ok := known[method]; ok {
			table[method] = impl
		} else {
			table[method] = echo(method)
		}
	}
	return table
}
