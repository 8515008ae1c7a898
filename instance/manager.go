// Package instance manages typed individuals in the graph: creation with
// generated ids, property reads and replace-semantics updates, and simple
// value lookups.
package instance

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/c360/semgraph/errors"
	"github.com/c360/semgraph/schema"
	"github.com/c360/semgraph/triplestore"
	"github.com/c360/semgraph/vocabulary"
)

// Mode controls how Create treats property names the schema does not know.
type Mode string

const (
	// ModeLenient declares unknown properties on the fly as string-typed
	// datatype properties. This is the default.
	ModeLenient Mode = "lenient"

	// ModeStrict rejects unknown properties with a not-found error.
	ModeStrict Mode = "strict"
)

// Manager creates and queries instances. It goes through the schema registry
// for all class and property resolution so that instance data never refers
// to undeclared structure (except in lenient mode, where the declaration is
// made implicitly).
type Manager struct {
	store  *triplestore.Store
	schema *schema.Registry
	mode   Mode
	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithMode selects strict or lenient handling of unknown properties.
func WithMode(mode Mode) Option {
	return func(m *Manager) { m.mode = mode }
}

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates an instance manager over the given store and schema.
func NewManager(store *triplestore.Store, reg *schema.Registry, options ...Option) *Manager {
	m := &Manager{
		store:  store,
		schema: reg,
		mode:   ModeLenient,
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(m)
	}
	m.logger = m.logger.With("component", "InstanceManager")
	return m
}

// IRI resolves an instance id or full IRI to the full IRI form. Ids are
// local names in the instance namespace.
func IRI(idOrIRI string) string {
	if vocabulary.IsIRI(idOrIRI) {
		return idOrIRI
	}
	return vocabulary.InstanceNamespace + idOrIRI
}

// Create creates a new instance of className with the given initial
// properties and returns its id. A caller-supplied instanceID is used
// verbatim; otherwise an id of the form <class>_<uuid fragment> is
// generated. The class must already be declared. Property names are local
// names resolved in the class's namespace.
//
// No triples are written until the class check and every property check
// have passed: a failed Create leaves the store untouched.
func (m *Manager) Create(className string, properties map[string]any, namespace string, instanceID ...string) (string, error) {
	classIRI, ok := m.classIRI(className, namespace)
	if !ok {
		return "", errors.Wrap(errors.ErrClassNotFound, "InstanceManager", "Create", "lookup of class "+className)
	}

	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := m.validateProperty(name, properties[name], namespace); err != nil {
			return "", err
		}
	}

	var id string
	if len(instanceID) > 0 {
		id = instanceID[0]
	}
	if id == "" {
		id = className + "_" + uuid.NewString()[:8]
	}
	iri := vocabulary.InstanceNamespace + id

	if err := m.store.Add(iri, vocabulary.RDFType, triplestore.IRI(classIRI)); err != nil {
		return "", errors.Wrap(err, "InstanceManager", "Create", "store mutation")
	}
	if err := m.store.Add(iri, vocabulary.RDFSLabel, triplestore.Literal(id)); err != nil {
		return "", errors.Wrap(err, "InstanceManager", "Create", "store mutation")
	}

	for _, name := range names {
		if err := m.addProperty(iri, name, properties[name], namespace); err != nil {
			return "", err
		}
	}

	m.logger.Info("created instance", "class", className, "id", id, "properties", len(properties))
	return id, nil
}

// Exists reports whether the instance id or IRI has a type in the graph.
func (m *Manager) Exists(idOrIRI string) bool {
	return len(m.store.Match(IRI(idOrIRI), vocabulary.RDFType, triplestore.Term{})) > 0
}

// Class returns the class IRI of an instance.
func (m *Manager) Class(idOrIRI string) (string, error) {
	for _, t := range m.store.Match(IRI(idOrIRI), vocabulary.RDFType, triplestore.Term{}) {
		return t.Object.Value, nil
	}
	return "", errors.Wrap(errors.ErrInstanceNotFound, "InstanceManager", "Class", "lookup of "+idOrIRI)
}

// Properties returns the instance's property values keyed by local property
// name. Object property values are instance ids (or IRIs when the target is
// outside the instance namespace); datatype values are their literal forms.
// The type triple is omitted.
func (m *Manager) Properties(idOrIRI string) (map[string]string, error) {
	iri := IRI(idOrIRI)
	if !m.Exists(iri) {
		return nil, errors.Wrap(errors.ErrInstanceNotFound, "InstanceManager", "Properties", "lookup of "+idOrIRI)
	}

	props := make(map[string]string)
	for _, t := range m.store.Match(iri, "", triplestore.Term{}) {
		if t.Predicate == vocabulary.RDFType {
			continue
		}
		props[vocabulary.LocalName(t.Predicate)] = displayValue(t.Object)
	}
	return props, nil
}

// Property returns one property value of an instance.
func (m *Manager) Property(idOrIRI, property, namespace string) (string, bool) {
	propIRI, ok := m.propertyIRI(property, namespace)
	if !ok {
		return "", false
	}
	for _, t := range m.store.Match(IRI(idOrIRI), propIRI, triplestore.Term{}) {
		return displayValue(t.Object), true
	}
	return "", false
}

// UpdateProperty replaces all existing values of a property on an instance
// with a single new value. The instance must exist; the property follows the
// same strict/lenient rules as Create.
func (m *Manager) UpdateProperty(idOrIRI, property string, value any, namespace string) error {
	iri := IRI(idOrIRI)
	if !m.Exists(iri) {
		return errors.Wrap(errors.ErrInstanceNotFound, "InstanceManager", "UpdateProperty", "lookup of "+idOrIRI)
	}

	propIRI, ok := m.propertyIRI(property, namespace)
	if ok {
		for _, t := range m.store.Match(iri, propIRI, triplestore.Term{}) {
			m.store.Remove(t.Subject, t.Predicate, t.Object)
		}
	} else if m.mode == ModeStrict {
		return errors.Wrap(errors.ErrPropertyNotFound, "InstanceManager", "UpdateProperty",
			"lookup of property "+property+" in strict mode")
	}

	return m.addProperty(iri, property, value, namespace)
}

// FindByProperty returns the id of the first instance of className whose
// property equals value under string comparison. Match order is
// unspecified. A miss is an instance-not-found error.
func (m *Manager) FindByProperty(className, property string, value any, namespace string) (string, error) {
	classIRI, ok := m.classIRI(className, namespace)
	if !ok {
		return "", errors.Wrap(errors.ErrClassNotFound, "InstanceManager", "FindByProperty", "lookup of class "+className)
	}
	propIRI, ok := m.propertyIRI(property, namespace)
	if !ok {
		return "", errors.Wrap(errors.ErrPropertyNotFound, "InstanceManager", "FindByProperty", "lookup of property "+property)
	}

	want := formatValue(value)
	for _, t := range m.store.Match("", vocabulary.RDFType, triplestore.IRI(classIRI)) {
		for _, pv := range m.store.Match(t.Subject, propIRI, triplestore.Term{}) {
			if pv.Object.Value == want || displayValue(pv.Object) == want {
				return vocabulary.LocalName(t.Subject), nil
			}
		}
	}
	return "", errors.Wrap(errors.ErrInstanceNotFound, "InstanceManager", "FindByProperty",
		"search for "+className+" with "+property+"="+want)
}

// InstancesOf returns the ids of all instances of the class, in unspecified
// order.
func (m *Manager) InstancesOf(className, namespace string) ([]string, error) {
	classIRI, ok := m.classIRI(className, namespace)
	if !ok {
		return nil, errors.Wrap(errors.ErrClassNotFound, "InstanceManager", "InstancesOf", "lookup of class "+className)
	}
	var ids []string
	for _, t := range m.store.Match("", vocabulary.RDFType, triplestore.IRI(classIRI)) {
		ids = append(ids, vocabulary.LocalName(t.Subject))
	}
	return ids, nil
}

// Delete removes every triple in which the instance is the subject or the
// object. Deleting an absent instance is a no-op.
func (m *Manager) Delete(idOrIRI string) {
	iri := IRI(idOrIRI)
	for _, t := range m.store.Match(iri, "", triplestore.Term{}) {
		m.store.Remove(t.Subject, t.Predicate, t.Object)
	}
	for _, t := range m.store.Match("", "", triplestore.IRI(iri)) {
		m.store.Remove(t.Subject, t.Predicate, t.Object)
	}
}

// validateProperty applies every check addProperty would, without writing.
// Create runs it over all properties first so a failure cannot leave a
// half-written instance behind.
func (m *Manager) validateProperty(property string, value any, namespace string) error {
	propIRI, ok := m.propertyIRI(property, namespace)
	if !ok {
		if m.mode == ModeStrict {
			return errors.Wrap(errors.ErrPropertyNotFound, "InstanceManager", "Create",
				"lookup of property "+property+" in strict mode")
		}
	} else if m.schema.IsObjectProperty(propIRI) {
		if _, ok := value.(string); !ok {
			return errors.WrapInvalid(errors.ErrInvalidData, "InstanceManager", "Create",
				"object property "+property+" requires an instance id or IRI value")
		}
		return nil
	}
	if formatValue(value) == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "InstanceManager", "Create",
			"property "+property+" has an empty value")
	}
	return nil
}

// addProperty writes one property value, declaring unknown properties first
// in lenient mode. Object property values may be instance ids or full IRIs.
func (m *Manager) addProperty(instanceIRI, property string, value any, namespace string) error {
	propIRI, ok := m.propertyIRI(property, namespace)
	if !ok {
		if m.mode == ModeStrict {
			return errors.Wrap(errors.ErrPropertyNotFound, "InstanceManager", "addProperty",
				"lookup of property "+property+" in strict mode")
		}
		declared, err := m.schema.DeclareProperty(property, vocabulary.TagString, "", namespace)
		if err != nil {
			return err
		}
		propIRI = declared
	}

	var object triplestore.Term
	if m.schema.IsObjectProperty(propIRI) {
		target, ok := value.(string)
		if !ok {
			return errors.WrapInvalid(errors.ErrInvalidData, "InstanceManager", "addProperty",
				"object property "+property+" requires an instance id or IRI value")
		}
		object = triplestore.IRI(IRI(target))
	} else {
		datatype := vocabulary.XSDString
		if rng, ok := m.schema.PropertyRange(propIRI); ok {
			datatype = rng
		}
		object = triplestore.TypedLiteral(formatValue(value), datatype)
	}

	if err := m.store.Add(instanceIRI, propIRI, object); err != nil {
		return errors.Wrap(err, "InstanceManager", "addProperty", "store mutation")
	}
	return nil
}

func (m *Manager) classIRI(className, namespace string) (string, bool) {
	iri := m.resolve(className, namespace)
	return iri, m.schema.ClassExists(iri)
}

func (m *Manager) propertyIRI(property, namespace string) (string, bool) {
	iri := m.resolve(property, namespace)
	return iri, m.schema.PropertyExists(iri)
}

func (m *Manager) resolve(local, namespace string) string {
	if vocabulary.IsIRI(local) {
		return local
	}
	if namespace == "" {
		return vocabulary.OntologyNamespace + local
	}
	if base, ok := m.schema.Namespaces().Resolve(namespace); ok {
		return base + local
	}
	return vocabulary.SemGraphBase + "/" + namespace + "/" + local
}

// formatValue renders a value as its literal lexical form.
func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// displayValue renders a term for property maps: literals keep their lexical
// form, instance IRIs collapse to ids, other IRIs stay whole.
func displayValue(t triplestore.Term) string {
	if t.Literal {
		return t.Value
	}
	if base := vocabulary.InstanceNamespace; len(t.Value) > len(base) && t.Value[:len(base)] == base {
		return t.Value[len(base):]
	}
	return t.Value
}
