package semgraph

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semgraph/actions"
	"github.com/c360/semgraph/config"
	"github.com/c360/semgraph/errors"
	"github.com/c360/semgraph/handler"
	"github.com/c360/semgraph/schema"
	"github.com/c360/semgraph/triplestore"
	"github.com/c360/semgraph/vocabulary"
)

func newSystem(t *testing.T, options ...Option) *System {
	t.Helper()
	sys, err := New(options...)
	require.NoError(t, err)
	return sys
}

func TestSystemsAreIndependent(t *testing.T) {
	a := newSystem(t)
	b := newSystem(t)

	_, err := a.CreateClass("Client", nil)
	require.NoError(t, err)

	assert.True(t, a.Schema.ClassExists(vocabulary.OntologyNamespace+"Client"))
	assert.False(t, b.Schema.ClassExists(vocabulary.OntologyNamespace+"Client"),
		"no shared state between systems")
}

func TestExtendClassIsIdempotent(t *testing.T) {
	sys := newSystem(t)

	props := []schema.PropertySpec{
		{Name: "hasName", Type: vocabulary.TagString},
		{Name: "hasEmail", Type: vocabulary.TagString},
	}
	_, err := sys.CreateClass("Client", props)
	require.NoError(t, err)
	before := sys.Store.Len()

	_, err = sys.CreateClass("Client", props)
	require.NoError(t, err)
	assert.Equal(t, before, sys.Store.Len(), "repeating a declaration adds nothing")
}

func TestCreateInstanceForUnknownClass(t *testing.T) {
	sys := newSystem(t)

	_, err := sys.CreateInstance("Ghost", map[string]any{"hasName": "Boo"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrClassNotFound)
	assert.Zero(t, sys.Store.Len(), "a failed create leaves no triples behind")
}

func TestExportImportRoundTrip(t *testing.T) {
	sys := newSystem(t)
	_, err := sys.CreateClass("Client", []schema.PropertySpec{{Name: "hasName", Type: vocabulary.TagString}})
	require.NoError(t, err)
	_, err = sys.CreateInstance("Client", map[string]any{"hasName": "Ada"})
	require.NoError(t, err)

	for _, format := range []triplestore.Format{triplestore.FormatNTriples, triplestore.FormatJSON} {
		exported, err := sys.Export(format)
		require.NoError(t, err)

		restored := newSystem(t)
		require.NoError(t, restored.Import(exported, format))

		want := sys.DescribeOntology()
		got := restored.DescribeOntology()
		assert.Equal(t, want.Classes, got.Classes)
		assert.Equal(t, want.Properties, got.Properties)
		assert.Equal(t, want.Instances, got.Instances)
		assert.Equal(t, want.Triples, got.Triples)
	}
}

func TestEndToEndOrderScenario(t *testing.T) {
	sys := newSystem(t)

	// Ontology.
	_, err := sys.CreateClass("Client", []schema.PropertySpec{
		{Name: "hasName", Type: vocabulary.TagString},
		{Name: "hasEmail", Type: vocabulary.TagString},
	})
	require.NoError(t, err)
	_, err = sys.CreateClass("Product", []schema.PropertySpec{
		{Name: "hasPrice", Type: vocabulary.TagFloat},
		{Name: "hasStock", Type: vocabulary.TagInteger},
	})
	require.NoError(t, err)

	// Data.
	ada, err := sys.CreateInstance("Client", map[string]any{
		"hasName":  "Ada",
		"hasEmail": "ada@example.org",
	})
	require.NoError(t, err)
	_, err = sys.CreateInstance("Product", map[string]any{"hasPrice": 1299.0, "hasStock": 4})
	require.NoError(t, err)

	// Lookup by property value.
	found, err := sys.Instances.FindByProperty("Client", "hasName", "Ada", "")
	require.NoError(t, err)
	assert.Equal(t, ada, found)

	// Handler + workflow.
	require.NoError(t, sys.RegisterHandler(handler.Config{
		Name:        "create_order",
		Description: "order creation flow",
		Workflow: []handler.Step{
			{Number: 2, Action: "create_order_record", Parameters: []string{"client_name", "step_1_result"}},
			{Number: 1, Action: "check_stock", Parameters: []string{"product_name"}},
		},
		Rules: []handler.Rule{{Condition: "stock_error", Action: "cancel_order"}},
	}))

	result, err := sys.Execute(context.Background(), "create_order",
		map[string]any{"client_name": "Ada", "product_name": "laptop"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, "check_stock", result.Steps[0].Action)
	assert.Equal(t, "create_order_record", result.Steps[1].Action)
	assert.Empty(t, result.Rules)

	// Introspection sees everything.
	ont := sys.DescribeOntology()
	assert.Contains(t, ont.Instances, "Client")
	assert.Contains(t, ont.Instances, "Product")
}

func TestSystemProxyDispatch(t *testing.T) {
	sys := newSystem(t)

	_, err := sys.CreateClass("Client", []schema.PropertySpec{{Name: "hasName", Type: vocabulary.TagString}})
	require.NoError(t, err)
	require.NoError(t, sys.Schema.DeclareBehavior("Client", []schema.MethodSpec{
		{Name: "place_order"},
		{Name: "greet"},
	}, ""))

	id, err := sys.CreateInstance("Client", map[string]any{"hasName": "Ada"})
	require.NoError(t, err)

	p, err := sys.Proxy("Client", id)
	require.NoError(t, err)

	name, err := p.Property("hasName")
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)

	out, err := p.Invoke(context.Background(), "place_order", map[string]any{"product": "laptop"})
	require.NoError(t, err)
	assert.Contains(t, out.(string), "placed")

	_, err = p.Invoke(context.Background(), "vanish", nil)
	assert.ErrorIs(t, err, errors.ErrMethodNotFound)

	refl, err := sys.Reflect("Client")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"greet", "place_order"}, refl.Methods)
}

func TestSystemStrictMode(t *testing.T) {
	cfg := config.Default()
	cfg.Instance.Mode = "strict"
	sys := newSystem(t, WithConfig(cfg))

	_, err := sys.CreateClass("Client", []schema.PropertySpec{{Name: "hasName", Type: vocabulary.TagString}})
	require.NoError(t, err)

	_, err = sys.CreateInstance("Client", map[string]any{"hasNickname": "adder"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPropertyNotFound)
}

func TestSystemDefaultNamespace(t *testing.T) {
	cfg := config.Default()
	cfg.Graph.DefaultNamespace = "shop"
	cfg.Graph.Namespaces = map[string]string{"shop": "https://shop.example.org/"}
	sys := newSystem(t, WithConfig(cfg))

	iri, err := sys.CreateClass("Basket", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.org/Basket", iri)
}

func TestSystemCustomResolver(t *testing.T) {
	var invoked []string
	resolver := actions.Func(func(_ context.Context, action string, _ map[string]any) (any, error) {
		invoked = append(invoked, action)
		return strings.ToUpper(action), nil
	})
	sys := newSystem(t, WithResolver(resolver))

	require.NoError(t, sys.RegisterHandler(handler.Config{
		Name:     "ping",
		Workflow: []handler.Step{{Number: 1, Action: "pong"}},
	}))

	result, err := sys.Execute(context.Background(), "ping", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"pong"}, invoked)
	assert.Equal(t, "PONG", result.Steps[0].Output)
}

func TestSystemRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Proxy.CacheSize = -1

	_, err := New(WithConfig(cfg))
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestSnapshotWithoutConnection(t *testing.T) {
	sys := newSystem(t)

	err := sys.SaveSnapshot(context.Background(), "x")
	assert.ErrorIs(t, err, errors.ErrNoConnection)
	err = sys.LoadSnapshot(context.Background(), "x")
	assert.ErrorIs(t, err, errors.ErrNoConnection)
}

func TestConnectNATSRequiresURL(t *testing.T) {
	sys := newSystem(t)

	err := sys.ConnectNATS(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingConfig)
}
