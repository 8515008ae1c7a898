package triplestore

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	return s
}

func TestAddIsIdempotent(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Add("s1", "p1", Literal("v1")))
	require.NoError(t, s.Add("s1", "p1", Literal("v1")))

	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Contains("s1", "p1", Literal("v1")))
}

func TestAddRejectsEmptyComponents(t *testing.T) {
	s := newStore(t)

	assert.Error(t, s.Add("", "p", Literal("v")))
	assert.Error(t, s.Add("s", "", Literal("v")))
	assert.Error(t, s.Add("s", "p", Term{}))
	assert.Equal(t, 0, s.Len())
}

func TestLiteralAndIRIObjectsAreDistinct(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Add("s", "p", Literal("x")))
	require.NoError(t, s.Add("s", "p", IRI("x")))

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("s", "p", Literal("x")))
	assert.True(t, s.Contains("s", "p", IRI("x")))
	assert.False(t, s.Contains("s", "p", TypedLiteral("x", "http://www.w3.org/2001/XMLSchema#integer")))
}

func TestRemoveIsNoOpWhenAbsent(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Add("s", "p", Literal("v")))
	s.Remove("s", "p", Literal("other"))
	assert.Equal(t, 1, s.Len())

	s.Remove("s", "p", Literal("v"))
	assert.Equal(t, 0, s.Len())

	// Removing again does not error or panic
	s.Remove("s", "p", Literal("v"))
	assert.Equal(t, 0, s.Len())
}

func TestMatchWildcards(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Add("alice", "knows", IRI("bob")))
	require.NoError(t, s.Add("alice", "name", Literal("Alice")))
	require.NoError(t, s.Add("bob", "name", Literal("Bob")))

	tests := []struct {
		name      string
		subject   string
		predicate string
		object    Term
		want      int
	}{
		{"all wildcards", "", "", Term{}, 3},
		{"by subject", "alice", "", Term{}, 2},
		{"by predicate", "", "name", Term{}, 2},
		{"by object", "", "", Literal("Bob"), 1},
		{"subject and predicate", "alice", "name", Term{}, 1},
		{"exact match", "alice", "knows", IRI("bob"), 1},
		{"no match", "carol", "", Term{}, 0},
		{"exact miss", "alice", "knows", IRI("carol"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, s.Match(tt.subject, tt.predicate, tt.object), tt.want)
		})
	}
}

func TestMatchAfterRemove(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Add("s", "p", Literal("a")))
	require.NoError(t, s.Add("s", "p", Literal("b")))

	s.Remove("s", "p", Literal("a"))

	matches := s.Match("s", "p", Term{})
	require.Len(t, matches, 1)
	assert.Equal(t, "b", matches[0].Object.Value)
}

func TestClear(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Add("s", "p", Literal("v")))
	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Match("", "", Term{}))
}

func TestStoreMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := New(WithMetrics(reg))
	require.NoError(t, err)

	require.NoError(t, s.Add("s", "p", Literal("v")))
	s.Remove("s", "p", Literal("v"))

	families, err := reg.Gather()
	require.NoError(t, err)

	found := map[string]bool{}
	for _, fam := range families {
		found[fam.GetName()] = true
	}
	assert.True(t, found["semgraph_triples_added_total"])
	assert.True(t, found["semgraph_triples_removed_total"])
}
