// Package schema implements the schema registry: runtime declaration of
// classes, properties and namespace bindings on top of the triple store.
//
// All declarations are append-only and idempotent. Re-declaring an existing
// class or property is success, not an error; the only declaration failures
// are namespace prefix conflicts and property range redefinitions, both
// reported as schema conflicts.
package schema

import (
	"log/slog"

	"github.com/c360/semgraph/errors"
	"github.com/c360/semgraph/triplestore"
	"github.com/c360/semgraph/vocabulary"
)

// PropertySpec describes one property in an ExtendClass request.
type PropertySpec struct {
	Name string `json:"name" yaml:"name"`

	// Type is a primitive tag (string, integer, float, datetime) for
	// datatype properties, or a class name for object properties.
	Type vocabulary.TypeTag `json:"type" yaml:"type"`

	// Label defaults to Name when empty.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Registry declares and introspects schema-level graph structure. It holds
// no state of its own beyond the store and namespace references.
type Registry struct {
	store  *triplestore.Store
	ns     *vocabulary.Namespaces
	logger *slog.Logger
}

// NewRegistry creates a schema registry over the given store and namespaces.
func NewRegistry(store *triplestore.Store, ns *vocabulary.Namespaces, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: store, ns: ns, logger: logger.With("component", "SchemaRegistry")}
}

// Namespaces returns the namespace registry this schema registry writes
// through.
func (r *Registry) Namespaces() *vocabulary.Namespaces {
	return r.ns
}

// BindNamespace binds a prefix to a base IRI. Conflicting rebinds fail with
// a namespace conflict error.
func (r *Registry) BindNamespace(prefix, base string) error {
	return r.ns.Bind(prefix, base)
}

// resolveNamespace returns the base IRI for a prefix, binding a derived base
// for prefixes never seen before. The empty prefix means the default
// ontology namespace.
func (r *Registry) resolveNamespace(prefix string) (string, error) {
	if prefix == "" {
		return vocabulary.OntologyNamespace, nil
	}
	if base, ok := r.ns.Resolve(prefix); ok {
		return base, nil
	}

	base := vocabulary.SemGraphBase + "/" + prefix + "/"
	if err := r.ns.Bind(prefix, base); err != nil {
		return "", err
	}
	r.logger.Debug("bound new namespace", "prefix", prefix, "base", base)
	return base, nil
}

// DeclareClass creates a class in the given namespace (prefix) if absent and
// returns its IRI. Declaring an existing class returns the existing IRI.
func (r *Registry) DeclareClass(name, namespace string) (string, error) {
	if name == "" {
		return "", errors.WrapInvalid(errors.ErrInvalidData, "SchemaRegistry", "DeclareClass", "class name must be non-empty")
	}

	base, err := r.resolveNamespace(namespace)
	if err != nil {
		return "", err
	}

	classIRI := base + name
	if r.ClassExists(classIRI) {
		return classIRI, nil
	}

	if err := r.store.Add(classIRI, vocabulary.RDFType, triplestore.IRI(vocabulary.OWLClass)); err != nil {
		return "", errors.Wrap(err, "SchemaRegistry", "DeclareClass", "store mutation")
	}
	if err := r.store.Add(classIRI, vocabulary.RDFSLabel, triplestore.Literal(name)); err != nil {
		return "", errors.Wrap(err, "SchemaRegistry", "DeclareClass", "store mutation")
	}

	r.logger.Info("declared class", "class", name, "iri", classIRI)
	return classIRI, nil
}

// DeclareProperty creates a property if absent and returns its IRI. The type
// tag decides the kind: primitive tags yield a datatype property with an XSD
// range; anything else is treated as a class name and yields an object
// property whose range is that class's IRI (declared on demand).
//
// Re-declaring a property with the same range is success. Re-declaring it
// with a different range is a schema conflict: a property's range, once set,
// stays consistent for every triple using it as predicate.
func (r *Registry) DeclareProperty(name string, tag vocabulary.TypeTag, label, namespace string) (string, error) {
	if name == "" {
		return "", errors.WrapInvalid(errors.ErrInvalidData, "SchemaRegistry", "DeclareProperty", "property name must be non-empty")
	}
	if label == "" {
		label = name
	}

	base, err := r.resolveNamespace(namespace)
	if err != nil {
		return "", err
	}
	propIRI := base + name

	kind := vocabulary.OWLObjectProperty
	var rangeIRI string
	if tag.IsPrimitive() {
		kind = vocabulary.OWLDatatypeProperty
		rangeIRI = tag.XSD()
	} else {
		rangeIRI, err = r.DeclareClass(string(tag), namespace)
		if err != nil {
			return "", err
		}
	}

	if existing, ok := r.PropertyRange(propIRI); ok {
		if existing != rangeIRI {
			return "", errors.WrapInvalid(errors.ErrSchemaConflict, "SchemaRegistry", "DeclareProperty",
				"property "+name+" already declared with range "+existing)
		}
		return propIRI, nil
	}

	if err := r.store.Add(propIRI, vocabulary.RDFType, triplestore.IRI(kind)); err != nil {
		return "", errors.Wrap(err, "SchemaRegistry", "DeclareProperty", "store mutation")
	}
	if err := r.store.Add(propIRI, vocabulary.RDFSLabel, triplestore.Literal(label)); err != nil {
		return "", errors.Wrap(err, "SchemaRegistry", "DeclareProperty", "store mutation")
	}
	if err := r.store.Add(propIRI, vocabulary.RDFSRange, triplestore.IRI(rangeIRI)); err != nil {
		return "", errors.Wrap(err, "SchemaRegistry", "DeclareProperty", "store mutation")
	}

	r.logger.Info("declared property", "property", name, "range", rangeIRI)
	return propIRI, nil
}

// ExtendClass declares the class (if new) and each listed property in turn.
// "Already exists" is success throughout; the call fails only on namespace
// or range conflicts and store-level faults.
func (r *Registry) ExtendClass(className string, properties []PropertySpec, namespace string) error {
	if _, err := r.DeclareClass(className, namespace); err != nil {
		return err
	}
	for _, prop := range properties {
		if _, err := r.DeclareProperty(prop.Name, prop.Type, prop.Label, namespace); err != nil {
			return err
		}
	}
	return nil
}

// ClassExists reports whether the IRI is declared as a class.
func (r *Registry) ClassExists(classIRI string) bool {
	return r.store.Contains(classIRI, vocabulary.RDFType, triplestore.IRI(vocabulary.OWLClass))
}

// PropertyExists reports whether the IRI is declared as a datatype or object
// property.
func (r *Registry) PropertyExists(propIRI string) bool {
	return r.IsDatatypeProperty(propIRI) || r.IsObjectProperty(propIRI)
}

// IsDatatypeProperty reports whether the IRI is declared as a datatype
// property.
func (r *Registry) IsDatatypeProperty(propIRI string) bool {
	return r.store.Contains(propIRI, vocabulary.RDFType, triplestore.IRI(vocabulary.OWLDatatypeProperty))
}

// IsObjectProperty reports whether the IRI is declared as an object property.
func (r *Registry) IsObjectProperty(propIRI string) bool {
	return r.store.Contains(propIRI, vocabulary.RDFType, triplestore.IRI(vocabulary.OWLObjectProperty))
}

// FindClassByLabel resolves a class IRI from its human-readable label.
func (r *Registry) FindClassByLabel(label string) (string, bool) {
	for _, t := range r.store.Match("", vocabulary.RDFSLabel, triplestore.Literal(label)) {
		if r.ClassExists(t.Subject) {
			return t.Subject, true
		}
	}
	return "", false
}

// Label returns the rdfs:label of an IRI, falling back to its local name.
func (r *Registry) Label(iri string) string {
	for _, t := range r.store.Match(iri, vocabulary.RDFSLabel, triplestore.Term{}) {
		return t.Object.Value
	}
	return vocabulary.LocalName(iri)
}

// PropertyRange returns the declared rdfs:range of a property IRI.
func (r *Registry) PropertyRange(propIRI string) (string, bool) {
	for _, t := range r.store.Match(propIRI, vocabulary.RDFSRange, triplestore.Term{}) {
		return t.Object.Value, true
	}
	return "", false
}
