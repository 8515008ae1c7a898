package instance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semgraph/errors"
	"github.com/c360/semgraph/schema"
	"github.com/c360/semgraph/triplestore"
	"github.com/c360/semgraph/vocabulary"
)

func newManager(t *testing.T, options ...Option) (*Manager, *schema.Registry, *triplestore.Store) {
	t.Helper()
	store, err := triplestore.New()
	require.NoError(t, err)
	reg := schema.NewRegistry(store, vocabulary.NewNamespaces(), nil)
	return NewManager(store, reg, options...), reg, store
}

func declarePerson(t *testing.T, reg *schema.Registry) {
	t.Helper()
	require.NoError(t, reg.ExtendClass("Person", []schema.PropertySpec{
		{Name: "hasName", Type: vocabulary.TagString},
		{Name: "hasAge", Type: vocabulary.TagInteger},
		{Name: "hasFriend", Type: vocabulary.TypeTag("Person")},
	}, ""))
}

func TestCreateGeneratesSuffixedID(t *testing.T) {
	mgr, reg, _ := newManager(t)
	declarePerson(t, reg)

	id, err := mgr.Create("Person", map[string]any{"hasName": "Ada"}, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "Person_"))
	assert.Len(t, id, len("Person_")+8)
	assert.True(t, mgr.Exists(id))
}

func TestCreateHonorsSuppliedID(t *testing.T) {
	mgr, reg, _ := newManager(t)
	declarePerson(t, reg)

	id, err := mgr.Create("Person", map[string]any{"hasName": "Ada"}, "", "ada_lovelace")
	require.NoError(t, err)
	assert.Equal(t, "ada_lovelace", id)
	assert.True(t, mgr.Exists("ada_lovelace"))

	props, err := mgr.Properties("ada_lovelace")
	require.NoError(t, err)
	assert.Equal(t, "Ada", props["hasName"])

	// An empty supplied id falls back to generation.
	id, err = mgr.Create("Person", nil, "", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "Person_"))
}

func TestCreateRequiresClass(t *testing.T) {
	mgr, _, store := newManager(t)

	_, err := mgr.Create("Ghost", map[string]any{"hasName": "Boo"}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrClassNotFound)
	assert.Zero(t, store.Len(), "failed create must leave the store untouched")
}

func TestCreateLenientDeclaresUnknownProperty(t *testing.T) {
	mgr, reg, _ := newManager(t)
	declarePerson(t, reg)

	id, err := mgr.Create("Person", map[string]any{"hasNickname": "adder"}, "")
	require.NoError(t, err)

	assert.True(t, reg.PropertyExists(vocabulary.OntologyNamespace+"hasNickname"))
	props, err := mgr.Properties(id)
	require.NoError(t, err)
	assert.Equal(t, "adder", props["hasNickname"])
}

func TestCreateStrictRejectsUnknownProperty(t *testing.T) {
	mgr, reg, store := newManager(t, WithMode(ModeStrict))
	declarePerson(t, reg)
	before := store.Len()

	_, err := mgr.Create("Person", map[string]any{"hasNickname": "adder"}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPropertyNotFound)
	assert.Equal(t, before, store.Len(), "strict-mode failure must be atomic")
}

func TestCreateRejectsBadObjectValueBeforeWriting(t *testing.T) {
	mgr, reg, store := newManager(t)
	declarePerson(t, reg)
	before := store.Len()

	// hasFriend is an object property; a non-string value fails up front,
	// with no type or label triple left behind.
	_, err := mgr.Create("Person", map[string]any{"hasName": "Ada", "hasFriend": 42}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidData)
	assert.Equal(t, before, store.Len(), "failed create must leave the store untouched")
}

func TestCreateStoresObjectPropertyAsReference(t *testing.T) {
	mgr, reg, store := newManager(t)
	declarePerson(t, reg)

	friend, err := mgr.Create("Person", map[string]any{"hasName": "Grace"}, "")
	require.NoError(t, err)
	id, err := mgr.Create("Person", map[string]any{"hasName": "Ada", "hasFriend": friend}, "")
	require.NoError(t, err)

	matches := store.Match(IRI(id), vocabulary.OntologyNamespace+"hasFriend", triplestore.Term{})
	require.Len(t, matches, 1)
	assert.False(t, matches[0].Object.Literal, "object property value must be an IRI reference")
	assert.Equal(t, IRI(friend), matches[0].Object.Value)

	props, err := mgr.Properties(id)
	require.NoError(t, err)
	assert.Equal(t, friend, props["hasFriend"], "object values collapse back to ids")
}

func TestCreateFormatsTypedLiterals(t *testing.T) {
	mgr, reg, store := newManager(t)
	declarePerson(t, reg)

	id, err := mgr.Create("Person", map[string]any{"hasAge": 36}, "")
	require.NoError(t, err)

	matches := store.Match(IRI(id), vocabulary.OntologyNamespace+"hasAge", triplestore.Term{})
	require.Len(t, matches, 1)
	assert.Equal(t, "36", matches[0].Object.Value)
	assert.Equal(t, vocabulary.XSDInteger, matches[0].Object.Datatype)
}

func TestProperties(t *testing.T) {
	mgr, reg, _ := newManager(t)
	declarePerson(t, reg)

	id, err := mgr.Create("Person", map[string]any{"hasName": "Ada", "hasAge": 36}, "")
	require.NoError(t, err)

	props, err := mgr.Properties(id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", props["hasName"])
	assert.Equal(t, "36", props["hasAge"])
	assert.NotContains(t, props, "type")
}

func TestPropertiesOfMissingInstance(t *testing.T) {
	mgr, _, _ := newManager(t)

	_, err := mgr.Properties("Person_deadbeef")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestUpdatePropertyReplacesAllValues(t *testing.T) {
	mgr, reg, store := newManager(t)
	declarePerson(t, reg)

	id, err := mgr.Create("Person", map[string]any{"hasName": "Ada"}, "")
	require.NoError(t, err)

	require.NoError(t, mgr.UpdateProperty(id, "hasName", "Ada Lovelace", ""))

	matches := store.Match(IRI(id), vocabulary.OntologyNamespace+"hasName", triplestore.Term{})
	require.Len(t, matches, 1, "replace semantics leave exactly one value")
	assert.Equal(t, "Ada Lovelace", matches[0].Object.Value)
}

func TestUpdatePropertyMissingInstance(t *testing.T) {
	mgr, reg, _ := newManager(t)
	declarePerson(t, reg)

	err := mgr.UpdateProperty("Person_deadbeef", "hasName", "Ada", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInstanceNotFound)
}

func TestFindByProperty(t *testing.T) {
	mgr, reg, _ := newManager(t)
	declarePerson(t, reg)

	ada, err := mgr.Create("Person", map[string]any{"hasName": "Ada", "hasAge": 36}, "")
	require.NoError(t, err)
	_, err = mgr.Create("Person", map[string]any{"hasName": "Grace"}, "")
	require.NoError(t, err)

	found, err := mgr.FindByProperty("Person", "hasName", "Ada", "")
	require.NoError(t, err)
	assert.Equal(t, ada, found)

	// Numeric values compare by lexical form.
	found, err = mgr.FindByProperty("Person", "hasAge", 36, "")
	require.NoError(t, err)
	assert.Equal(t, ada, found)

	_, err = mgr.FindByProperty("Person", "hasName", "Alan", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInstanceNotFound)
}

func TestInstancesOf(t *testing.T) {
	mgr, reg, _ := newManager(t)
	declarePerson(t, reg)

	a, err := mgr.Create("Person", nil, "")
	require.NoError(t, err)
	b, err := mgr.Create("Person", nil, "")
	require.NoError(t, err)

	ids, err := mgr.InstancesOf("Person", "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, ids)

	_, err = mgr.InstancesOf("Ghost", "")
	assert.ErrorIs(t, err, errors.ErrClassNotFound)
}

func TestDeleteRemovesSubjectAndObjectTriples(t *testing.T) {
	mgr, reg, store := newManager(t)
	declarePerson(t, reg)

	friend, err := mgr.Create("Person", nil, "")
	require.NoError(t, err)
	id, err := mgr.Create("Person", map[string]any{"hasFriend": friend}, "")
	require.NoError(t, err)

	mgr.Delete(friend)
	assert.False(t, mgr.Exists(friend))
	assert.Empty(t, store.Match(IRI(id), vocabulary.OntologyNamespace+"hasFriend", triplestore.Term{}),
		"dangling references are swept with the instance")

	// Deleting again is a no-op.
	mgr.Delete(friend)
}

func TestClassOfInstance(t *testing.T) {
	mgr, reg, _ := newManager(t)
	declarePerson(t, reg)

	id, err := mgr.Create("Person", nil, "")
	require.NoError(t, err)

	classIRI, err := mgr.Class(id)
	require.NoError(t, err)
	assert.Equal(t, vocabulary.OntologyNamespace+"Person", classIRI)
}
