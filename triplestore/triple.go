// Package triplestore implements the in-memory semantic triple store that
// every other graph component is built on. A triple is a
// (subject, predicate, object) fact; the store keeps a deduplicated set of
// them with wildcard matching over all three positions.
package triplestore

import "strings"

// Term is the object position of a triple: either an IRI reference to
// another node or a literal value with an optional datatype IRI.
type Term struct {
	// Value is the IRI or the literal's lexical form.
	Value string `json:"value"`

	// Literal distinguishes literal values from IRI references.
	Literal bool `json:"literal,omitempty"`

	// Datatype optionally carries the XSD datatype IRI for literals.
	// Empty means plain string.
	Datatype string `json:"datatype,omitempty"`
}

// IRI returns a Term referencing another node by IRI.
func IRI(value string) Term {
	return Term{Value: value}
}

// Literal returns a plain string literal Term.
func Literal(value string) Term {
	return Term{Value: value, Literal: true}
}

// TypedLiteral returns a literal Term carrying a datatype IRI.
func TypedLiteral(value, datatype string) Term {
	return Term{Value: value, Literal: true, Datatype: datatype}
}

// IsZero reports whether the term is the zero value (used as a wildcard in
// Match).
func (t Term) IsZero() bool {
	return t.Value == "" && !t.Literal && t.Datatype == ""
}

// key returns the canonical identity of a term. Literal "x" and IRI "x" are
// distinct objects; datatype participates in identity.
func (t Term) key() string {
	if t.Literal {
		return "L\x1f" + t.Datatype + "\x1f" + t.Value
	}
	return "I\x1f" + t.Value
}

// String renders the term for logs and summaries.
func (t Term) String() string {
	if t.Literal {
		return `"` + t.Value + `"`
	}
	return "<" + t.Value + ">"
}

// Triple represents one (subject, predicate, object) fact. Subject and
// Predicate are always IRIs; Object is an IRI or a literal.
type Triple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    Term   `json:"object"`
}

// key returns the canonical set identity of a triple.
func (t Triple) key() string {
	return t.Subject + "\x1f" + t.Predicate + "\x1f" + t.Object.key()
}

// String renders the triple for logs and summaries.
func (t Triple) String() string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(t.Subject)
	b.WriteString("> <")
	b.WriteString(t.Predicate)
	b.WriteString("> ")
	b.WriteString(t.Object.String())
	return b.String()
}
