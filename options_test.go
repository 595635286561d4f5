package govalid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSpec = OptionSpec{
	Kind:     "Test",
	Default:  "value",
	Required: []string{"value"},
	Allowed:  []string{"message", "count", "names"},
}

func TestParseOptions(t *testing.T) {
	set, err := ParseOptions(testSpec, 3)
	require.NoError(t, err)
	v, ok := set.Value("value")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, []string{DefaultGroup}, set.Base().Groups())
	assert.False(t, set.Base().ExplicitGroups())

	set, err = ParseOptions(testSpec, Options{"value": 1, "count": 2.0, "names": []any{"a", "b"}, "groups": "Strict"})
	require.NoError(t, err)
	n, ok, err := set.Int("count")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	names, err := set.Strings("names")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
	msg, err := set.String("message", "default")
	require.NoError(t, err)
	assert.Equal(t, "default", msg)
	assert.Equal(t, []string{"Strict"}, set.Base().Groups())

	_, err = ParseOptions(testSpec, Options{"value": 1, "bogus": true})
	var de *DefinitionError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "bogus", de.Option)

	_, err = ParseOptions(testSpec, Options{"message": "x"})
	var me *MissingOptionsError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, []string{"value"}, me.Options)
	assert.ErrorIs(t, err, ErrDefinition)

	_, err = ParseOptions(OptionSpec{Kind: "NoDefault"}, 1)
	assert.ErrorIs(t, err, ErrDefinition)

	_, err = ParseOptions(testSpec, Options{"value": 1, "count": 1.5})
	assert.NoError(t, err)
	set, _ = ParseOptions(testSpec, Options{"value": 1, "count": 1.5})
	_, _, err = set.Int("count")
	assert.ErrorIs(t, err, ErrDefinition)
}

func TestEmptyGroupsMeanAllGroups(t *testing.T) {
	assert.False(t, newCheck("x", never).ExplicitGroups())

	all := newCheck("x", never, []string{}...)
	assert.True(t, all.ExplicitGroups())
	assert.Empty(t, all.Groups())
	assert.True(t, AppliesTo(all, "Anything", "", false))
	assert.True(t, AppliesTo(all, DefaultGroup, "", false))
}

func TestAppliesTo(t *testing.T) {
	def := newCheck("x", never)
	strict := newCheck("x", never, "Strict")
	explicitDefault := newCheck("x", never, DefaultGroup)

	assert.True(t, AppliesTo(def, DefaultGroup, "", false))
	assert.False(t, AppliesTo(def, "Strict", "", false))
	assert.True(t, AppliesTo(def, "User", "User", false))
	assert.True(t, AppliesTo(def, "Strict", "", true))

	assert.True(t, AppliesTo(strict, "Strict", "User", false))
	assert.False(t, AppliesTo(strict, DefaultGroup, "User", true))

	assert.True(t, AppliesTo(explicitDefault, "User", "User", false))
	assert.False(t, AppliesTo(explicitDefault, "Strict", "User", true))
}

func TestNestedConstraints(t *testing.T) {
	a, b := newCheck("a", never), newCheck("b", never)
	got, err := NestedConstraints("All", "constraints", a)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = NestedConstraints("All", "constraints", []any{a, b})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = NestedConstraints("All", "constraints", []any{a, "b"})
	assert.ErrorIs(t, err, ErrDefinition)
	_, err = NestedConstraints("All", "constraints", []Constraint{a, nil})
	assert.ErrorIs(t, err, ErrDefinition)
	_, err = NestedConstraints("All", "constraints", []Constraint{newCascade()})
	assert.ErrorIs(t, err, ErrDefinition)
}

func TestComposeGroups(t *testing.T) {
	nested := []Constraint{newCheck("a", never, "A"), newCheck("b", never, "B"), newCheck("c", never)}
	base, err := ComposeGroups(NewBase("All", nil, nil), nested)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", DefaultGroup}, base.Groups())

	base, err = ComposeGroups(NewBase("All", nil, nil), []Constraint{newCheck("c", never)})
	require.NoError(t, err)
	assert.False(t, base.ExplicitGroups())

	_, err = ComposeGroups(NewBase("All", []string{"A"}, nil), nested[:2])
	assert.ErrorIs(t, err, ErrDefinition)

	base, err = ComposeGroups(NewBase("All", []string{"A", "B"}, nil), nested)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, base.Groups())
}
