package vocabulary

import (
	"sync"

	"github.com/c360/semgraph/errors"
)

// Namespaces maps prefixes to base IRIs for one store instance. Once bound, a
// prefix's base IRI never changes; rebinding to a different base is a schema
// conflict. Rebinding to the same base is a no-op, which keeps namespace
// setup idempotent.
type Namespaces struct {
	mu       sync.RWMutex
	bindings map[string]string
}

// NewNamespaces creates a namespace registry pre-bound with the well-known
// prefixes every store uses: rdf, rdfs, owl, xsd, plus the semgraph ontology
// (ex), instance (inst) and handler namespaces.
func NewNamespaces() *Namespaces {
	return &Namespaces{
		bindings: map[string]string{
			"rdf":     "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
			"rdfs":    "http://www.w3.org/2000/01/rdf-schema#",
			"owl":     "http://www.w3.org/2002/07/owl#",
			"xsd":     "http://www.w3.org/2001/XMLSchema#",
			"ex":      OntologyNamespace,
			"inst":    InstanceNamespace,
			"handler": HandlerNamespace,
		},
	}
}

// Bind associates a prefix with a base IRI. Binding an already-bound prefix
// to the same base succeeds; binding it to a different base returns
// ErrNamespaceConflict.
func (n *Namespaces) Bind(prefix, base string) error {
	if prefix == "" || base == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "Namespaces", "Bind", "prefix and base must be non-empty")
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if existing, ok := n.bindings[prefix]; ok {
		if existing == base {
			return nil
		}
		return errors.WrapInvalid(errors.ErrNamespaceConflict, "Namespaces", "Bind",
			"prefix "+prefix+" is bound to "+existing)
	}

	n.bindings[prefix] = base
	return nil
}

// Resolve returns the base IRI bound to a prefix.
func (n *Namespaces) Resolve(prefix string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	base, ok := n.bindings[prefix]
	return base, ok
}

// Term builds an IRI from a bound prefix and a local name. Returns false when
// the prefix is unbound.
func (n *Namespaces) Term(prefix, local string) (string, bool) {
	base, ok := n.Resolve(prefix)
	if !ok {
		return "", false
	}
	return base + local, true
}

// Snapshot returns a copy of all current bindings.
func (n *Namespaces) Snapshot() map[string]string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make(map[string]string, len(n.bindings))
	for prefix, base := range n.bindings {
		out[prefix] = base
	}
	return out
}
