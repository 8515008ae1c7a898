// Package semgraph is a dynamically-extensible semantic graph store. At its
// base sits an in-memory triple store; on top of it, a schema registry for
// runtime class and property declaration, an instance manager, an
// introspection engine, a declarative handler registry with a workflow
// executor, and a proxy layer that gives callers object-like handles over
// graph entities.
//
// The System type in this package wires the layers together over one shared
// store and is the intended entry point:
//
//	sys, err := semgraph.New()
//	if err != nil { ... }
//	_, err = sys.CreateClass("Client", []schema.PropertySpec{
//		{Name: "hasName", Type: vocabulary.TagString},
//	})
//	id, err := sys.CreateInstance("Client", map[string]any{"hasName": "Ada"})
//
// Every layer is also usable on its own; System owns no state beyond the
// components it constructs.
package semgraph
