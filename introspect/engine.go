// Package introspect builds read-only views over the graph: a full ontology
// snapshot and a small keyed query surface. It is the only generic traversal
// layer; every other component asks precise questions.
package introspect

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/c360/semgraph/errors"
	"github.com/c360/semgraph/schema"
	"github.com/c360/semgraph/triplestore"
	"github.com/c360/semgraph/vocabulary"
)

// ClassInfo summarizes one declared class.
type ClassInfo struct {
	IRI           string `json:"iri"`
	Name          string `json:"name"`
	Label         string `json:"label"`
	InstanceCount int    `json:"instance_count"`
}

// PropertyInfo summarizes one declared property.
type PropertyInfo struct {
	IRI   string `json:"iri"`
	Name  string `json:"name"`
	Label string `json:"label"`

	// Kind is "datatype" or "object".
	Kind string `json:"kind"`

	// Range is the XSD datatype IRI or the target class IRI.
	Range string `json:"range,omitempty"`
}

// Ontology is a point-in-time snapshot of everything declared and created.
type Ontology struct {
	Classes    []ClassInfo         `json:"classes"`
	Properties []PropertyInfo      `json:"properties"`
	Instances  map[string][]string `json:"instances"`
	Namespaces map[string]string   `json:"namespaces"`
	Triples    int                 `json:"triples"`
}

// Structure describes one class in depth: its data properties, callable
// methods and state machine, if any.
type Structure struct {
	Class         string   `json:"class"`
	Label         string   `json:"label"`
	Properties    []string `json:"properties"`
	Methods       []string `json:"methods"`
	States        []string `json:"states,omitempty"`
	InstanceCount int      `json:"instance_count"`
}

// Engine answers introspection queries. It never mutates the store.
type Engine struct {
	store  *triplestore.Store
	schema *schema.Registry
	logger *slog.Logger
}

// NewEngine creates an introspection engine over the store and schema.
func NewEngine(store *triplestore.Store, reg *schema.Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, schema: reg, logger: logger.With("component", "IntrospectionEngine")}
}

// DescribeOntology returns the full snapshot: all classes with instance
// counts, all properties with kinds and ranges, instance ids grouped by
// class name, bound namespaces and the triple count. All slices are sorted
// so snapshots are directly comparable.
func (e *Engine) DescribeOntology() Ontology {
	ont := Ontology{
		Classes:    e.Classes(),
		Properties: e.Properties(),
		Instances:  make(map[string][]string),
		Namespaces: e.schema.Namespaces().Snapshot(),
		Triples:    e.store.Len(),
	}

	for _, c := range ont.Classes {
		ids := e.instanceIDs(c.IRI)
		if len(ids) > 0 {
			ont.Instances[c.Name] = ids
		}
	}
	return ont
}

// Classes lists all declared classes sorted by IRI.
func (e *Engine) Classes() []ClassInfo {
	var classes []ClassInfo
	for _, t := range e.store.Match("", vocabulary.RDFType, triplestore.IRI(vocabulary.OWLClass)) {
		classes = append(classes, ClassInfo{
			IRI:           t.Subject,
			Name:          vocabulary.LocalName(t.Subject),
			Label:         e.schema.Label(t.Subject),
			InstanceCount: len(e.instanceIDs(t.Subject)),
		})
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].IRI < classes[j].IRI })
	return classes
}

// Properties lists all declared properties sorted by IRI.
func (e *Engine) Properties() []PropertyInfo {
	var props []PropertyInfo
	collect := func(kindIRI, kind string) {
		for _, t := range e.store.Match("", vocabulary.RDFType, triplestore.IRI(kindIRI)) {
			info := PropertyInfo{
				IRI:   t.Subject,
				Name:  vocabulary.LocalName(t.Subject),
				Label: e.schema.Label(t.Subject),
				Kind:  kind,
			}
			info.Range, _ = e.schema.PropertyRange(t.Subject)
			props = append(props, info)
		}
	}
	collect(vocabulary.OWLDatatypeProperty, "datatype")
	collect(vocabulary.OWLObjectProperty, "object")
	sort.Slice(props, func(i, j int) bool { return props[i].IRI < props[j].IRI })
	return props
}

// DescribeClass returns the structural view of one class IRI.
func (e *Engine) DescribeClass(classIRI string) (Structure, error) {
	if !e.schema.ClassExists(classIRI) {
		return Structure{}, errors.Wrap(errors.ErrClassNotFound, "IntrospectionEngine", "DescribeClass", "lookup of "+classIRI)
	}

	s := Structure{
		Class:         classIRI,
		Label:         e.schema.Label(classIRI),
		Methods:       e.schema.ClassMethods(classIRI),
		States:        e.schema.States(classIRI),
		InstanceCount: len(e.instanceIDs(classIRI)),
	}

	// Data properties are global declarations; a class's effective
	// properties are those its instances actually use plus nothing else the
	// graph can attribute. Collect from instances.
	seen := make(map[string]struct{})
	for _, t := range e.store.Match("", vocabulary.RDFType, triplestore.IRI(classIRI)) {
		for _, pv := range e.store.Match(t.Subject, "", triplestore.Term{}) {
			if pv.Predicate == vocabulary.RDFType || pv.Predicate == vocabulary.RDFSLabel {
				continue
			}
			seen[vocabulary.LocalName(pv.Predicate)] = struct{}{}
		}
	}
	for name := range seen {
		s.Properties = append(s.Properties, name)
	}
	sort.Strings(s.Properties)
	sort.Strings(s.Methods)
	sort.Strings(s.States)
	return s, nil
}

// Query answers a keyed introspection request. Supported kinds:
//
//	classes    - all classes; optional "name" filters by substring match
//	properties - all properties; optional "kind" filters datatype/object
//	instances  - instance ids; optional "class" restricts to one class name
//	structure  - the full ontology snapshot, same as DescribeOntology
//	class      - structural view of one class; requires "class"
//
// Unknown kinds and missing required params are invalid-data errors.
func (e *Engine) Query(kind string, params map[string]string) (any, error) {
	switch kind {
	case "classes":
		classes := e.Classes()
		if name := params["name"]; name != "" {
			filtered := classes[:0]
			for _, c := range classes {
				if strings.Contains(strings.ToLower(c.Name), strings.ToLower(name)) {
					filtered = append(filtered, c)
				}
			}
			classes = filtered
		}
		return classes, nil

	case "properties":
		props := e.Properties()
		if kindFilter := params["kind"]; kindFilter != "" {
			filtered := props[:0]
			for _, p := range props {
				if p.Kind == kindFilter {
					filtered = append(filtered, p)
				}
			}
			props = filtered
		}
		return props, nil

	case "instances":
		if className := params["class"]; className != "" {
			classIRI, ok := e.classByName(className)
			if !ok {
				return nil, errors.Wrap(errors.ErrClassNotFound, "IntrospectionEngine", "Query", "lookup of class "+className)
			}
			return e.instanceIDs(classIRI), nil
		}
		byClass := make(map[string][]string)
		for _, c := range e.Classes() {
			if ids := e.instanceIDs(c.IRI); len(ids) > 0 {
				byClass[c.Name] = ids
			}
		}
		return byClass, nil

	case "structure":
		return e.DescribeOntology(), nil

	case "class":
		className := params["class"]
		if className == "" {
			return nil, errors.WrapInvalid(errors.ErrInvalidData, "IntrospectionEngine", "Query",
				"class query requires a class param")
		}
		classIRI, ok := e.classByName(className)
		if !ok {
			return nil, errors.Wrap(errors.ErrClassNotFound, "IntrospectionEngine", "Query", "lookup of class "+className)
		}
		return e.DescribeClass(classIRI)

	default:
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "IntrospectionEngine", "Query",
			"unknown query kind "+kind)
	}
}

// classByName resolves a class local name, IRI or label to the class IRI.
func (e *Engine) classByName(name string) (string, bool) {
	if vocabulary.IsIRI(name) {
		return name, e.schema.ClassExists(name)
	}
	iri := vocabulary.OntologyNamespace + name
	if e.schema.ClassExists(iri) {
		return iri, true
	}
	return e.schema.FindClassByLabel(name)
}

// instanceIDs lists ids of the class's instances sorted for deterministic
// snapshots. Behavior and state individuals are instances too; callers see
// exactly what the graph holds.
func (e *Engine) instanceIDs(classIRI string) []string {
	var ids []string
	for _, t := range e.store.Match("", vocabulary.RDFType, triplestore.IRI(classIRI)) {
		ids = append(ids, vocabulary.LocalName(t.Subject))
	}
	sort.Strings(ids)
	return ids
}
