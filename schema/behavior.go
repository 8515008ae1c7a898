package schema

import (
	"github.com/c360/semgraph/errors"
	"github.com/c360/semgraph/triplestore"
	"github.com/c360/semgraph/vocabulary"
)

// MethodSpec describes one callable method when declaring behavior for a
// class.
type MethodSpec struct {
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// TransitionSpec is one edge of a state machine: From state to To state when
// Trigger fires.
type TransitionSpec struct {
	From    string `json:"from" yaml:"from"`
	To      string `json:"to" yaml:"to"`
	Trigger string `json:"trigger" yaml:"trigger"`
}

// BehaviorClass returns the IRI of the companion behavior class for a class
// IRI. The companion holds method declarations so that data properties and
// callable surface stay in separate domains.
func BehaviorClass(classIRI string) string {
	return classIRI + "Behavior"
}

// DeclareBehavior declares a companion behavior class for className and
// attaches each method to it as an object property with the companion as
// rdfs:domain. The class itself must already exist.
func (r *Registry) DeclareBehavior(className string, methods []MethodSpec, namespace string) error {
	base, err := r.resolveNamespace(namespace)
	if err != nil {
		return err
	}
	classIRI := base + className
	if !r.ClassExists(classIRI) {
		return errors.Wrap(errors.ErrClassNotFound, "SchemaRegistry", "DeclareBehavior", "lookup of class "+className)
	}

	behaviorIRI := BehaviorClass(classIRI)
	if !r.ClassExists(behaviorIRI) {
		if _, err := r.DeclareClass(className+"Behavior", namespace); err != nil {
			return err
		}
		if err := r.store.Add(classIRI, vocabulary.HasBehavior, triplestore.IRI(behaviorIRI)); err != nil {
			return errors.Wrap(err, "SchemaRegistry", "DeclareBehavior", "store mutation")
		}
	}

	for _, m := range methods {
		if m.Name == "" {
			return errors.WrapInvalid(errors.ErrInvalidData, "SchemaRegistry", "DeclareBehavior", "method name must be non-empty")
		}
		label := m.Label
		if label == "" {
			label = m.Name
		}
		methodIRI := base + m.Name
		if err := r.store.Add(methodIRI, vocabulary.RDFType, triplestore.IRI(vocabulary.OWLObjectProperty)); err != nil {
			return errors.Wrap(err, "SchemaRegistry", "DeclareBehavior", "store mutation")
		}
		if err := r.store.Add(methodIRI, vocabulary.RDFSLabel, triplestore.Literal(label)); err != nil {
			return errors.Wrap(err, "SchemaRegistry", "DeclareBehavior", "store mutation")
		}
		if err := r.store.Add(methodIRI, vocabulary.RDFSDomain, triplestore.IRI(behaviorIRI)); err != nil {
			return errors.Wrap(err, "SchemaRegistry", "DeclareBehavior", "store mutation")
		}
	}

	r.logger.Info("declared behavior", "class", className, "methods", len(methods))
	return nil
}

// ClassMethods lists the method names declared on the class's companion
// behavior class, if it has one.
func (r *Registry) ClassMethods(classIRI string) []string {
	behaviorIRI := BehaviorClass(classIRI)
	if !r.store.Contains(classIRI, vocabulary.HasBehavior, triplestore.IRI(behaviorIRI)) {
		return nil
	}
	var methods []string
	for _, t := range r.store.Match("", vocabulary.RDFSDomain, triplestore.IRI(behaviorIRI)) {
		methods = append(methods, vocabulary.LocalName(t.Subject))
	}
	return methods
}

// MethodExists reports whether methodName is declared on the class's
// behavior companion.
func (r *Registry) MethodExists(classIRI, methodName string) bool {
	for _, m := range r.ClassMethods(classIRI) {
		if m == methodName {
			return true
		}
	}
	return false
}

// DeclareStateMachine models a set of named states for a class and the
// transitions between them. States become instances-like state nodes typed
// to a per-class state class; transitions become trigger-labelled edges.
func (r *Registry) DeclareStateMachine(className string, states []string, transitions []TransitionSpec, namespace string) error {
	base, err := r.resolveNamespace(namespace)
	if err != nil {
		return err
	}
	classIRI := base + className
	if !r.ClassExists(classIRI) {
		return errors.Wrap(errors.ErrClassNotFound, "SchemaRegistry", "DeclareStateMachine", "lookup of class "+className)
	}

	stateClassIRI, err := r.DeclareClass(className+"State", namespace)
	if err != nil {
		return err
	}
	if err := r.store.Add(classIRI, vocabulary.HasStateMachine, triplestore.IRI(stateClassIRI)); err != nil {
		return errors.Wrap(err, "SchemaRegistry", "DeclareStateMachine", "store mutation")
	}

	stateIRI := func(state string) string { return base + className + "_state_" + state }

	for _, state := range states {
		if state == "" {
			return errors.WrapInvalid(errors.ErrInvalidData, "SchemaRegistry", "DeclareStateMachine", "state name must be non-empty")
		}
		s := stateIRI(state)
		if err := r.store.Add(s, vocabulary.RDFType, triplestore.IRI(stateClassIRI)); err != nil {
			return errors.Wrap(err, "SchemaRegistry", "DeclareStateMachine", "store mutation")
		}
		if err := r.store.Add(s, vocabulary.RDFSLabel, triplestore.Literal(state)); err != nil {
			return errors.Wrap(err, "SchemaRegistry", "DeclareStateMachine", "store mutation")
		}
	}

	for _, tr := range transitions {
		from, to := stateIRI(tr.From), stateIRI(tr.To)
		if !r.store.Contains(from, vocabulary.RDFType, triplestore.IRI(stateClassIRI)) ||
			!r.store.Contains(to, vocabulary.RDFType, triplestore.IRI(stateClassIRI)) {
			return errors.WrapInvalid(errors.ErrInvalidData, "SchemaRegistry", "DeclareStateMachine",
				"transition "+tr.From+" -> "+tr.To+" references undeclared state")
		}
		edgeIRI := base + className + "_transition_" + tr.From + "_" + tr.To
		if err := r.store.Add(edgeIRI, vocabulary.HasTrigger, triplestore.Literal(tr.Trigger)); err != nil {
			return errors.Wrap(err, "SchemaRegistry", "DeclareStateMachine", "store mutation")
		}
		if err := r.store.Add(from, edgeIRI, triplestore.IRI(to)); err != nil {
			return errors.Wrap(err, "SchemaRegistry", "DeclareStateMachine", "store mutation")
		}
	}

	r.logger.Info("declared state machine", "class", className, "states", len(states), "transitions", len(transitions))
	return nil
}

// States lists the declared state labels of a class's state machine.
func (r *Registry) States(classIRI string) []string {
	var stateClassIRI string
	for _, t := range r.store.Match(classIRI, vocabulary.HasStateMachine, triplestore.Term{}) {
		stateClassIRI = t.Object.Value
	}
	if stateClassIRI == "" {
		return nil
	}
	var states []string
	for _, t := range r.store.Match("", vocabulary.RDFType, triplestore.IRI(stateClassIRI)) {
		states = append(states, r.Label(t.Subject))
	}
	return states
}
