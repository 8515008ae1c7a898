// Package vocabulary provides the IRI vocabulary used across the graph store:
// the W3C terms the schema layer is expressed in, the semgraph base
// namespaces, and the namespace registry for caller-defined prefixes.
package vocabulary

import "strings"

// W3C vocabulary terms used by the schema layer.
const (
	RDFType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

	RDFSLabel  = "http://www.w3.org/2000/01/rdf-schema#label"
	RDFSDomain = "http://www.w3.org/2000/01/rdf-schema#domain"
	RDFSRange  = "http://www.w3.org/2000/01/rdf-schema#range"

	OWLClass            = "http://www.w3.org/2002/07/owl#Class"
	OWLDatatypeProperty = "http://www.w3.org/2002/07/owl#DatatypeProperty"
	OWLObjectProperty   = "http://www.w3.org/2002/07/owl#ObjectProperty"

	XSDString   = "http://www.w3.org/2001/XMLSchema#string"
	XSDInteger  = "http://www.w3.org/2001/XMLSchema#integer"
	XSDFloat    = "http://www.w3.org/2001/XMLSchema#float"
	XSDDateTime = "http://www.w3.org/2001/XMLSchema#dateTime"
)

// Base IRI constants for the semgraph vocabulary.
const (
	SemGraphBase = "https://semgraph.c360.io"

	// OntologyNamespace holds classes and properties declared at runtime.
	OntologyNamespace = SemGraphBase + "/ontology/"

	// InstanceNamespace holds instance individuals.
	InstanceNamespace = SemGraphBase + "/instance/"

	// HandlerNamespace holds business-handler nodes and their sub-structure.
	HandlerNamespace = SemGraphBase + "/handler/"
)

// Relation terms for handler sub-structure and behavior declarations.
// These live in the ontology namespace so that handler definitions remain
// ordinary graph data.
const (
	HasIntent             = OntologyNamespace + "hasIntent"
	HasDescription        = OntologyNamespace + "hasDescription"
	HasExtractionPatterns = OntologyNamespace + "hasExtractionPatterns"
	HasParameter          = OntologyNamespace + "hasParameter"
	HasName               = OntologyNamespace + "hasName"
	HasPattern            = OntologyNamespace + "hasPattern"
	HasRegex              = OntologyNamespace + "hasRegex"
	HasIndex              = OntologyNamespace + "hasIndex"
	HasWorkflow           = OntologyNamespace + "hasWorkflow"
	HasStep               = OntologyNamespace + "hasStep"
	HasStepNumber         = OntologyNamespace + "hasStepNumber"
	HasAction             = OntologyNamespace + "hasAction"
	HasRules              = OntologyNamespace + "hasRules"
	HasRule               = OntologyNamespace + "hasRule"
	HasCondition          = OntologyNamespace + "hasCondition"
	HasOwner              = OntologyNamespace + "hasOwner"
	HasBehavior           = OntologyNamespace + "hasBehavior"
	HasStateMachine       = OntologyNamespace + "hasStateMachine"
	HasTrigger            = OntologyNamespace + "hasTrigger"
)

// TypeTag is the primitive datatype vocabulary accepted by property
// declarations. Any other tag names a class, which makes the property an
// object property.
type TypeTag string

const (
	TagString   TypeTag = "string"
	TagInteger  TypeTag = "integer"
	TagFloat    TypeTag = "float"
	TagDateTime TypeTag = "datetime"
)

// IsPrimitive reports whether the tag names one of the datatype primitives.
func (t TypeTag) IsPrimitive() bool {
	switch t {
	case TagString, TagInteger, TagFloat, TagDateTime:
		return true
	default:
		return false
	}
}

// XSD returns the XML Schema IRI for a primitive tag, defaulting to
// xsd:string for unknown tags.
func (t TypeTag) XSD() string {
	switch t {
	case TagInteger:
		return XSDInteger
	case TagFloat:
		return XSDFloat
	case TagDateTime:
		return XSDDateTime
	default:
		return XSDString
	}
}

// TagFromXSD maps an XSD IRI back to its primitive tag. Unknown IRIs map to
// TagString.
func TagFromXSD(iri string) TypeTag {
	switch iri {
	case XSDInteger:
		return TagInteger
	case XSDFloat:
		return TagFloat
	case XSDDateTime:
		return TagDateTime
	default:
		return TagString
	}
}

// LocalName extracts the trailing segment of an IRI: everything after the
// last '#' or '/'. Returns the input unchanged when it has neither.
func LocalName(iri string) string {
	if idx := strings.LastIndex(iri, "#"); idx >= 0 && idx < len(iri)-1 {
		return iri[idx+1:]
	}
	if idx := strings.LastIndex(iri, "/"); idx >= 0 && idx < len(iri)-1 {
		return iri[idx+1:]
	}
	return iri
}

// IsIRI reports whether the value looks like an absolute IRI. The graph
// layers use this to decide between literal storage and IRI references.
func IsIRI(value string) bool {
	return strings.Contains(value, "://")
}
