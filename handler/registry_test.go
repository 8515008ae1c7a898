package handler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semgraph/errors"
	"github.com/c360/semgraph/triplestore"
	"github.com/c360/semgraph/vocabulary"
)

func newRegistry(t *testing.T) (*Registry, *triplestore.Store) {
	t.Helper()
	store, err := triplestore.New()
	require.NoError(t, err)
	return NewRegistry(store, nil), store
}

func orderHandler() Config {
	return Config{
		Name:        "create_order",
		Description: "creates an order for a client and product",
		ExtractionPatterns: []Parameter{
			{Name: "client_name", Patterns: []string{`for (\w+)`}},
			{Name: "product_name", Patterns: []string{`order (?:a|an|one) (\w+)`, `buy (\w+)`}},
		},
		Workflow: []Step{
			{Number: 3, Action: "notify_client", Parameters: []string{"client_name"}},
			{Number: 1, Action: "check_stock", Parameters: []string{"product_name"}},
			{Number: 2, Action: "create_order_record", Parameters: []string{"client_name", "product_name"}},
		},
		Rules: []Rule{
			{Condition: "stock_error", Action: "cancel_order"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty name", mutate: func(c *Config) { c.Name = "" }, wantErr: true},
		{name: "no steps", mutate: func(c *Config) { c.Workflow = nil }, wantErr: true},
		{name: "zero step number", mutate: func(c *Config) { c.Workflow[0].Number = 0 }, wantErr: true},
		{name: "duplicate step numbers", mutate: func(c *Config) { c.Workflow[1].Number = 3 }, wantErr: true},
		{name: "empty action", mutate: func(c *Config) { c.Workflow[0].Action = "" }, wantErr: true},
		{name: "unnamed parameter", mutate: func(c *Config) { c.ExtractionPatterns[0].Name = "" }, wantErr: true},
		{name: "bad regex", mutate: func(c *Config) { c.ExtractionPatterns[0].Patterns = []string{"("} }, wantErr: true},
		{name: "rule missing action", mutate: func(c *Config) { c.Rules[0].Action = "" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := orderHandler()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errors.ErrInvalidHandler)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRegisterAndGet(t *testing.T) {
	reg, _ := newRegistry(t)
	require.NoError(t, reg.Register(orderHandler()))

	got, err := reg.Get("create_order")
	require.NoError(t, err)

	assert.Equal(t, "create_order", got.Name)
	assert.Equal(t, "creates an order for a client and product", got.Description)

	// Steps come back sorted by number regardless of registration order.
	require.Len(t, got.Workflow, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{got.Workflow[0].Number, got.Workflow[1].Number, got.Workflow[2].Number})
	assert.Equal(t, "check_stock", got.Workflow[0].Action)
	assert.Equal(t, "create_order_record", got.Workflow[1].Action)
	assert.Equal(t, "notify_client", got.Workflow[2].Action)

	require.Len(t, got.ExtractionPatterns, 2)
	assert.Equal(t, "client_name", got.ExtractionPatterns[0].Name)

	require.Len(t, got.Rules, 1)
	assert.Equal(t, "stock_error", got.Rules[0].Condition)
}

func TestGetKeepsPatternAndRuleOrder(t *testing.T) {
	reg, _ := newRegistry(t)

	// More than ten entries so lexical node ordering would interleave the
	// tenth entry after the first.
	var patterns []string
	var rules []Rule
	for i := 0; i < 12; i++ {
		patterns = append(patterns, fmt.Sprintf(`value-%02d (\w+)`, i))
		rules = append(rules, Rule{Condition: "always", Action: fmt.Sprintf("action_%02d", i)})
	}
	cfg := Config{
		Name:               "wide_handler",
		ExtractionPatterns: []Parameter{{Name: "value", Patterns: patterns}},
		Workflow:           []Step{{Number: 1, Action: "noop"}},
		Rules:              rules,
	}
	require.NoError(t, reg.Register(cfg))

	got, err := reg.Get("wide_handler")
	require.NoError(t, err)
	require.Len(t, got.ExtractionPatterns, 1)
	assert.Equal(t, patterns, got.ExtractionPatterns[0].Patterns)
	require.Len(t, got.Rules, 12)
	for i, rule := range got.Rules {
		assert.Equal(t, fmt.Sprintf("action_%02d", i), rule.Action)
	}
}

func TestGetUnknownHandler(t *testing.T) {
	reg, _ := newRegistry(t)

	_, err := reg.Get("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrHandlerNotFound)
}

func TestRegisterRejectsInvalid(t *testing.T) {
	reg, store := newRegistry(t)

	cfg := orderHandler()
	cfg.Workflow = nil
	require.Error(t, reg.Register(cfg))
	assert.Zero(t, store.Len())
}

func TestReRegisterSweepsOldStructure(t *testing.T) {
	reg, store := newRegistry(t)
	require.NoError(t, reg.Register(orderHandler()))
	firstLen := store.Len()

	// Replace with a smaller definition. No orphaned step or rule nodes may
	// survive: the store must shrink, not accrete.
	replacement := Config{
		Name:     "create_order",
		Workflow: []Step{{Number: 1, Action: "noop"}},
	}
	require.NoError(t, reg.Register(replacement))
	assert.Less(t, store.Len(), firstLen)

	got, err := reg.Get("create_order")
	require.NoError(t, err)
	require.Len(t, got.Workflow, 1)
	assert.Equal(t, "noop", got.Workflow[0].Action)
	assert.Empty(t, got.Rules)
	assert.Empty(t, got.ExtractionPatterns)

	// Nothing owned by an old definition lingers.
	orphans := 0
	for _, tr := range store.Triples() {
		if tr.Predicate == vocabulary.HasRule || tr.Predicate == vocabulary.HasCondition {
			orphans++
		}
	}
	assert.Zero(t, orphans)
}

func TestList(t *testing.T) {
	reg, _ := newRegistry(t)
	require.NoError(t, reg.Register(Config{Name: "b_handler", Workflow: []Step{{Number: 1, Action: "x"}}}))
	require.NoError(t, reg.Register(Config{Name: "a_handler", Workflow: []Step{{Number: 1, Action: "y"}}}))

	assert.Equal(t, []string{"a_handler", "b_handler"}, reg.List())
}

func TestUnregister(t *testing.T) {
	reg, store := newRegistry(t)
	require.NoError(t, reg.Register(orderHandler()))

	reg.Unregister("create_order")
	assert.False(t, reg.Exists("create_order"))
	assert.Zero(t, store.Len(), "a single unregistered handler leaves an empty store")

	// Unregistering again is a no-op.
	reg.Unregister("create_order")
}

func TestExtract(t *testing.T) {
	reg, _ := newRegistry(t)
	require.NoError(t, reg.Register(orderHandler()))

	values, err := reg.Extract("create_order", "please order a laptop for alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", values["client_name"])
	assert.Equal(t, "laptop", values["product_name"])

	// Second pattern catches what the first misses.
	values, err = reg.Extract("create_order", "buy keyboard for bob")
	require.NoError(t, err)
	assert.Equal(t, "keyboard", values["product_name"])

	// No match means the key is absent, not empty.
	values, err = reg.Extract("create_order", "hello there")
	require.NoError(t, err)
	assert.NotContains(t, values, "product_name")
}
