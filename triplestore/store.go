package triplestore

import (
	"github.com/c360/semgraph/errors"
)

// Store is an in-memory triple set with subject/predicate/object indexes.
//
// The store is the only component with direct mutation access to the graph;
// schema, instance and handler layers are implemented purely in terms of
// Add, Remove, Match and Contains, which keeps the set invariants in one
// place. Add is idempotent and Remove of an absent triple is a no-op.
//
// The store is designed for single-threaded, synchronous use: there is no
// internal locking and no operation blocks. Hosts with concurrent callers
// must serialize access themselves.
type Store struct {
	triples     map[string]Triple
	bySubject   map[string]map[string]struct{}
	byPredicate map[string]map[string]struct{}
	byObject    map[string]map[string]struct{}

	metrics *storeMetrics
}

// Option configures a Store.
type Option func(*Store) error

// New creates an empty triple store.
func New(options ...Option) (*Store, error) {
	s := &Store{
		triples:     make(map[string]Triple),
		bySubject:   make(map[string]map[string]struct{}),
		byPredicate: make(map[string]map[string]struct{}),
		byObject:    make(map[string]map[string]struct{}),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add inserts a triple. Adding an existing triple is a no-op; the store has
// set semantics. Returns an error only for structurally invalid input
// (empty subject, predicate or object value).
func (s *Store) Add(subject, predicate string, object Term) error {
	if subject == "" || predicate == "" || object.Value == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "TripleStore", "Add",
			"subject, predicate and object must be non-empty")
	}

	t := Triple{Subject: subject, Predicate: predicate, Object: object}
	key := t.key()
	if _, exists := s.triples[key]; exists {
		return nil
	}

	s.triples[key] = t
	index(s.bySubject, subject, key)
	index(s.byPredicate, predicate, key)
	index(s.byObject, object.key(), key)

	s.metrics.recordAdd()
	s.metrics.updateSize(len(s.triples))
	return nil
}

// Remove deletes a triple. Removing an absent triple is a no-op.
func (s *Store) Remove(subject, predicate string, object Term) {
	t := Triple{Subject: subject, Predicate: predicate, Object: object}
	key := t.key()
	if _, exists := s.triples[key]; !exists {
		return
	}

	delete(s.triples, key)
	unindex(s.bySubject, subject, key)
	unindex(s.byPredicate, predicate, key)
	unindex(s.byObject, object.key(), key)

	s.metrics.recordRemove()
	s.metrics.updateSize(len(s.triples))
}

// Contains reports whether the exact triple is present.
func (s *Store) Contains(subject, predicate string, object Term) bool {
	t := Triple{Subject: subject, Predicate: predicate, Object: object}
	_, exists := s.triples[t.key()]
	return exists
}

// Match returns all triples matching the pattern. An empty subject or
// predicate matches anything; a zero-value object Term is a wildcard too.
// Iteration order is unspecified.
func (s *Store) Match(subject, predicate string, object Term) []Triple {
	// Fully specified patterns are point lookups
	if subject != "" && predicate != "" && !object.IsZero() {
		t := Triple{Subject: subject, Predicate: predicate, Object: object}
		if found, exists := s.triples[t.key()]; exists {
			return []Triple{found}
		}
		return nil
	}

	candidates := s.smallestIndex(subject, predicate, object)

	var out []Triple
	for key := range candidates {
		t := s.triples[key]
		if subject != "" && t.Subject != subject {
			continue
		}
		if predicate != "" && t.Predicate != predicate {
			continue
		}
		if !object.IsZero() && t.Object != object {
			continue
		}
		out = append(out, t)
	}
	return out
}

// smallestIndex picks the most selective index for a partial pattern,
// falling back to the full set for the all-wildcard scan.
func (s *Store) smallestIndex(subject, predicate string, object Term) map[string]struct{} {
	var best map[string]struct{}
	bestSize := -1

	consider := func(idx map[string]struct{}, ok bool) {
		if !ok {
			return
		}
		if bestSize == -1 || len(idx) < bestSize {
			best = idx
			bestSize = len(idx)
		}
	}

	if subject != "" {
		idx, ok := s.bySubject[subject]
		if !ok {
			return nil
		}
		consider(idx, true)
	}
	if predicate != "" {
		idx, ok := s.byPredicate[predicate]
		if !ok {
			return nil
		}
		consider(idx, true)
	}
	if !object.IsZero() {
		idx, ok := s.byObject[object.key()]
		if !ok {
			return nil
		}
		consider(idx, true)
	}

	if best == nil {
		all := make(map[string]struct{}, len(s.triples))
		for key := range s.triples {
			all[key] = struct{}{}
		}
		return all
	}
	return best
}

// Len returns the number of triples in the store.
func (s *Store) Len() int {
	return len(s.triples)
}

// Clear removes every triple.
func (s *Store) Clear() {
	s.triples = make(map[string]Triple)
	s.bySubject = make(map[string]map[string]struct{})
	s.byPredicate = make(map[string]map[string]struct{})
	s.byObject = make(map[string]map[string]struct{})
	s.metrics.updateSize(0)
}

// Triples returns a copy of every triple in the store. Order is unspecified.
func (s *Store) Triples() []Triple {
	out := make([]Triple, 0, len(s.triples))
	for _, t := range s.triples {
		out = append(out, t)
	}
	return out
}

func index(idx map[string]map[string]struct{}, indexKey, tripleKey string) {
	bucket, ok := idx[indexKey]
	if !ok {
		bucket = make(map[string]struct{})
		idx[indexKey] = bucket
	}
	bucket[tripleKey] = struct{}{}
}

func unindex(idx map[string]map[string]struct{}, indexKey, tripleKey string) {
	bucket, ok := idx[indexKey]
	if !ok {
		return
	}
	delete(bucket, tripleKey)
	if len(bucket) == 0 {
		delete(idx, indexKey)
	}
}
