package introspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semgraph/errors"
	"github.com/c360/semgraph/instance"
	"github.com/c360/semgraph/schema"
	"github.com/c360/semgraph/triplestore"
	"github.com/c360/semgraph/vocabulary"
)

func newEngine(t *testing.T) (*Engine, *schema.Registry, *instance.Manager) {
	t.Helper()
	store, err := triplestore.New()
	require.NoError(t, err)
	reg := schema.NewRegistry(store, vocabulary.NewNamespaces(), nil)
	mgr := instance.NewManager(store, reg)
	return NewEngine(store, reg, nil), reg, mgr
}

func seedOntology(t *testing.T, reg *schema.Registry, mgr *instance.Manager) (adaID string) {
	t.Helper()
	require.NoError(t, reg.ExtendClass("Person", []schema.PropertySpec{
		{Name: "hasName", Type: vocabulary.TagString},
		{Name: "hasAge", Type: vocabulary.TagInteger},
	}, ""))
	require.NoError(t, reg.ExtendClass("Order", []schema.PropertySpec{
		{Name: "hasCustomer", Type: vocabulary.TypeTag("Person")},
	}, ""))

	id, err := mgr.Create("Person", map[string]any{"hasName": "Ada", "hasAge": 36}, "")
	require.NoError(t, err)
	return id
}

func TestDescribeOntology(t *testing.T) {
	eng, reg, mgr := newEngine(t)
	adaID := seedOntology(t, reg, mgr)

	ont := eng.DescribeOntology()

	names := make([]string, 0, len(ont.Classes))
	for _, c := range ont.Classes {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "Person")
	assert.Contains(t, names, "Order")

	assert.Equal(t, []string{adaID}, ont.Instances["Person"])
	assert.NotContains(t, ont.Instances, "Order", "classes without instances are omitted")
	assert.Contains(t, ont.Namespaces, "rdf")
	assert.Positive(t, ont.Triples)
}

func TestDescribeOntologyIsDeterministic(t *testing.T) {
	eng, reg, mgr := newEngine(t)
	seedOntology(t, reg, mgr)

	assert.Equal(t, eng.DescribeOntology(), eng.DescribeOntology())
}

func TestPropertiesCarryKindAndRange(t *testing.T) {
	eng, reg, mgr := newEngine(t)
	seedOntology(t, reg, mgr)

	byName := make(map[string]PropertyInfo)
	for _, p := range eng.Properties() {
		byName[p.Name] = p
	}

	require.Contains(t, byName, "hasAge")
	assert.Equal(t, "datatype", byName["hasAge"].Kind)
	assert.Equal(t, vocabulary.XSDInteger, byName["hasAge"].Range)

	require.Contains(t, byName, "hasCustomer")
	assert.Equal(t, "object", byName["hasCustomer"].Kind)
	assert.Equal(t, vocabulary.OntologyNamespace+"Person", byName["hasCustomer"].Range)
}

func TestQueryClasses(t *testing.T) {
	eng, reg, mgr := newEngine(t)
	seedOntology(t, reg, mgr)

	result, err := eng.Query("classes", map[string]string{"name": "per"})
	require.NoError(t, err)
	classes, ok := result.([]ClassInfo)
	require.True(t, ok)
	require.Len(t, classes, 1)
	assert.Equal(t, "Person", classes[0].Name)
	assert.Equal(t, 1, classes[0].InstanceCount)
}

func TestQueryPropertiesFilter(t *testing.T) {
	eng, reg, mgr := newEngine(t)
	seedOntology(t, reg, mgr)

	result, err := eng.Query("properties", map[string]string{"kind": "object"})
	require.NoError(t, err)
	props, ok := result.([]PropertyInfo)
	require.True(t, ok)
	for _, p := range props {
		assert.Equal(t, "object", p.Kind)
	}
	assert.NotEmpty(t, props)
}

func TestQueryInstancesByClass(t *testing.T) {
	eng, reg, mgr := newEngine(t)
	adaID := seedOntology(t, reg, mgr)

	result, err := eng.Query("instances", map[string]string{"class": "Person"})
	require.NoError(t, err)
	assert.Equal(t, []string{adaID}, result)

	_, err = eng.Query("instances", map[string]string{"class": "Ghost"})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestQueryStructure(t *testing.T) {
	eng, reg, mgr := newEngine(t)
	seedOntology(t, reg, mgr)

	result, err := eng.Query("structure", nil)
	require.NoError(t, err)
	ont, ok := result.(Ontology)
	require.True(t, ok)
	assert.Equal(t, eng.DescribeOntology(), ont)
}

func TestQueryClass(t *testing.T) {
	eng, reg, mgr := newEngine(t)
	seedOntology(t, reg, mgr)
	require.NoError(t, reg.DeclareBehavior("Person", []schema.MethodSpec{{Name: "update_profile"}}, ""))

	result, err := eng.Query("class", map[string]string{"class": "Person"})
	require.NoError(t, err)
	s, ok := result.(Structure)
	require.True(t, ok)
	assert.Equal(t, vocabulary.OntologyNamespace+"Person", s.Class)
	assert.Contains(t, s.Properties, "hasName")
	assert.Contains(t, s.Methods, "update_profile")
	assert.Equal(t, 1, s.InstanceCount)
}

func TestQueryClassRequiresParam(t *testing.T) {
	eng, _, _ := newEngine(t)

	_, err := eng.Query("class", nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestQueryUnknownKind(t *testing.T) {
	eng, _, _ := newEngine(t)

	_, err := eng.Query("everything", nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}
