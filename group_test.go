package govalid

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGroupSequence(t *testing.T) {
	seq, err := NewGroupSequence("A", []string{"B", "C"}, "D")
	require.NoError(t, err)
	assert.Equal(t, "<A, [B, C], D>", seq.String())
	assert.Equal(t, 3, seq.Len())
	assert.True(t, seq.Contains("C"))
	assert.False(t, seq.Contains("E"))

	for _, bad := range [][]any{{""}, {[]string{}}, {42}} {
		_, err := NewGroupSequence(bad...)
		assert.ErrorIs(t, err, ErrDefinition, "%v", bad)
	}
	assert.Panics(t, func() { MustGroupSequence(1) })
}

func TestGroupSequence_StepsAreCopies(t *testing.T) {
	seq := MustGroupSequence([]string{"A", "B"})
	steps := seq.Steps()
	steps[0][0] = "Z"
	assert.Equal(t, [][]string{{"A", "B"}}, seq.Steps())
}

func TestGroupResolver(t *testing.T) {
	var r GroupResolver
	assert.Equal(t, []Step{GroupStep(DefaultGroup)}, r.Resolve(nil))

	meta := MetadataOf[entity]().SetGroupSequence(SequenceOf("entity", "Strict"))
	require.NoError(t, meta.Err())

	st, overridden, err := r.ForType(meta, &entity{}, GroupStep(DefaultGroup))
	require.NoError(t, err)
	assert.True(t, overridden)
	assert.Equal(t, "<entity, Strict>", st.String())

	st, overridden, err = r.ForType(meta, &entity{}, GroupStep("Strict"))
	require.NoError(t, err)
	assert.False(t, overridden)
	assert.Equal(t, "Strict", st.Group())

	provided := MetadataOf[order]().SetGroupSequenceProvider()
	_, _, err = r.ForType(provided, order{}, GroupStep(DefaultGroup))
	var gde *GroupDefinitionError
	assert.True(t, errors.As(err, &gde))
}

func TestGroupSequence_Properties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	properties.Property("SequenceOf keeps every group in order", prop.ForAll(
		func(groups []string) bool {
			seq := SequenceOf(groups...)
			if seq.Len() != len(groups) {
				return false
			}
			var flat []string
			for _, st := range seq.Steps() {
				if len(st) != 1 {
					return false
				}
				flat = append(flat, st[0])
			}
			for _, g := range groups {
				if !seq.Contains(g) {
					return false
				}
			}
			return slices.Equal(flat, groups)
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.Property("a sequence stops at the first failing step", prop.ForAll(
		func(fails []bool) bool {
			groups := make([]string, len(fails))
			cs := make([]Constraint, len(fails))
			for i, f := range fails {
				groups[i] = fmt.Sprintf("G%d", i)
				fail := f
				cs[i] = newCheck(groups[i], func(any) bool { return !fail }, groups[i])
			}
			v := New(WithRegistry(testRegistry(nil)))
			vl, err := v.Validate(context.Background(), "v", Constraints(cs...), Sequence(SequenceOf(groups...)))
			if err != nil {
				return false
			}
			first := slices.Index(fails, true)
			if first < 0 {
				return len(vl) == 0
			}
			return len(vl) == 1 && vl[0].Code == groups[first] && vl[0].Group == groups[first]
		},
		gen.SliceOf(gen.Bool()).SuchThat(func(v []bool) bool { return len(v) > 0 }),
	))

	properties.TestingRun(t)
}
