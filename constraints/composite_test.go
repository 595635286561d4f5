package constraints_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/reoring/govalid"
	"github.com/reoring/govalid/constraints"
	"github.com/reoring/govalid/i18n"
)

// failing always fails and counts its invocations.
type failing struct{ govalid.Base }

func newFailing() *failing { return &failing{Base: govalid.NewBase("Failing", nil, nil)} }

func countingValidator(calls *int) *govalid.Validator {
	reg := constraints.Registry()
	reg.RegisterFunc("Failing", func(ec *govalid.ExecutionContext, _ any, _ govalid.Constraint) error {
		*calls++
		ec.BuildViolation("failed").SetCode("failed").AddViolation()
		return nil
	})
	return constraints.NewValidator(govalid.WithRegistry(reg))
}

func TestAll_ValidatesEveryElementAgainstEveryConstraint(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 6).Draw(t, "elements")
		m := rapid.IntRange(1, 4).Draw(t, "constraints")
		nested := make([]govalid.Constraint, m)
		for i := range nested {
			nested[i] = newFailing()
		}
		calls := 0
		vl, err := countingValidator(&calls).Validate(context.Background(), make([]int, n),
			govalid.Constraints(constraints.MustAll(nested)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != n*m || len(vl) != n*m {
			t.Fatalf("got %d calls and %d violations, want %d", calls, len(vl), n*m)
		}
		paths := vl.Paths()
		if len(paths) != n {
			t.Fatalf("got paths %v for %d elements", paths, n)
		}
		for i, p := range paths {
			if p != fmt.Sprintf("[%d]", i) {
				t.Fatalf("path %d is %q", i, p)
			}
		}
	})
}

func TestAll(t *testing.T) {
	each := constraints.MustEach([]govalid.Constraint{
		constraints.MustNotBlank(nil),
		constraints.MustLength(govalid.Options{"max": 3}),
	})
	vl := check(t, map[string]string{"b": "", "a": "long", "c": "ok"}, each)
	assert.Equal(t, []string{"[a]", "[b]"}, vl.Paths())
	assert.Equal(t, []string{govalid.CodeTooLong, govalid.CodeIsBlank}, vl.Codes())

	vl = check(t, nil, each)
	assert.Empty(t, vl)
	vl = check(t, "text", each)
	assert.Equal(t, []string{govalid.CodeInvalidType}, vl.Codes())

	_, err := constraints.NewAll(constraints.MustValid(nil))
	assert.ErrorIs(t, err, govalid.ErrDefinition)
	_, err = constraints.NewAll([]any{constraints.MustNotBlank(nil), "x"})
	assert.ErrorIs(t, err, govalid.ErrDefinition)
}

func TestComposite_Groups(t *testing.T) {
	strictOnly := constraints.MustAll(constraints.MustNotBlank(govalid.Options{"groups": "Strict"}))
	assert.Equal(t, []string{"Strict"}, strictOnly.Groups())

	value := []string{""}
	vl, err := constraints.NewValidator().Validate(context.Background(), value, govalid.Constraints(strictOnly))
	require.NoError(t, err)
	assert.Empty(t, vl)

	vl, err = constraints.NewValidator().Validate(context.Background(), value,
		govalid.Constraints(strictOnly), govalid.Groups("Strict"))
	require.NoError(t, err)
	assert.Equal(t, []string{"[0]"}, vl.Paths())
	assert.Equal(t, "Strict", vl[0].Group)

	_, err = constraints.NewAll(govalid.Options{
		"constraints": constraints.MustNotBlank(govalid.Options{"groups": "Strict"}),
		"groups":      "Other",
	})
	assert.ErrorIs(t, err, govalid.ErrDefinition)
}

func TestSequentially_StopsAtFirstFailure(t *testing.T) {
	calls := 0
	counter := constraints.MustCallback(func(*govalid.ExecutionContext, any) error {
		calls++
		return nil
	})
	seq := constraints.MustSequentially([]govalid.Constraint{
		constraints.MustNotBlank(nil),
		constraints.MustLength(govalid.Options{"min": 10}),
		counter,
	})

	vl := check(t, "abc", seq)
	assert.Equal(t, []string{govalid.CodeTooShort}, vl.Codes())
	assert.Zero(t, calls)

	vl = check(t, "abcdefghijk", seq)
	assert.Empty(t, vl)
	assert.Equal(t, 1, calls)
}

func TestAny(t *testing.T) {
	anyOf := constraints.MustAny([]govalid.Constraint{
		constraints.MustLength(govalid.Options{"min": 5}),
		constraints.MustRegex(`^\d+$`),
	})
	assert.Empty(t, check(t, "12", anyOf))
	assert.Empty(t, check(t, "abcdef", anyOf))

	vl := check(t, "ab", anyOf)
	require.Len(t, vl, 1)
	assert.Equal(t, govalid.CodeAnyOf, vl[0].Code)
	assert.Equal(t, "This value should satisfy at least one of the given constraints.", vl[0].Template)
	assert.Equal(t, "", vl[0].Path)
}

func TestAny_StopsAtFirstMatch(t *testing.T) {
	calls := 0
	counter := constraints.MustCallback(func(*govalid.ExecutionContext, any) error {
		calls++
		return nil
	})
	anyOf := constraints.MustAny([]govalid.Constraint{constraints.MustNotBlank(nil), counter})

	assert.Empty(t, check(t, "x", anyOf))
	assert.Zero(t, calls)

	assert.Empty(t, check(t, "", anyOf))
	assert.Equal(t, 1, calls)
}

func TestAtLeastOneOf_Message(t *testing.T) {
	c := constraints.MustAtLeastOneOf([]govalid.Constraint{
		constraints.MustLength(govalid.Options{"min": 5}),
		constraints.MustRegex(`^\d+$`),
		constraints.MustAll(constraints.MustNotBlank(nil)),
	})
	v := constraints.NewValidator(govalid.WithRenderer(i18n.New("en")))

	vl, err := v.Validate(context.Background(), []string{""}, govalid.Constraints(c))
	require.NoError(t, err)
	require.Len(t, vl, 1)
	assert.Equal(t, govalid.CodeAtLeastOneOf, vl[0].Code)
	assert.Equal(t, "This value should satisfy at least one of the following constraints:"+
		" [1] This value should be of type string."+
		" [2] This value should be of type string."+
		" [3] Each element of this collection should satisfy its own set of constraints.", vl[0].Template)

	vl, err = v.Validate(context.Background(), "ab", govalid.Constraints(c))
	require.NoError(t, err)
	require.Len(t, vl, 1)
	assert.Equal(t, "This value should satisfy at least one of the following constraints:"+
		" [1] This value is too short. It should have 5 characters or more."+
		" [2] This value is not valid."+
		" [3] Each element of this collection should satisfy its own set of constraints.", vl[0].Message)

	quiet := constraints.MustAtLeastOneOf(govalid.Options{
		"constraints":             []govalid.Constraint{constraints.MustRegex(`^\d+$`)},
		"includeInternalMessages": false,
	})
	vl = check(t, "ab", quiet)
	require.Len(t, vl, 1)
	assert.Equal(t, "This value should satisfy at least one of the following constraints:", vl[0].Template)
	assert.Empty(t, check(t, "12", quiet))
}

func TestExactly(t *testing.T) {
	nested := []govalid.Constraint{
		constraints.MustNotBlank(nil),
		constraints.MustLength(govalid.Options{"max": 3}),
		constraints.MustRegex(`^\d+$`),
	}
	_, err := constraints.NewExactly(nested)
	var missing *govalid.MissingOptionsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"exactly"}, missing.Options)

	_, err = constraints.NewExactly(govalid.Options{"constraints": nested, "exactly": 4})
	assert.ErrorIs(t, err, govalid.ErrDefinition)

	one := constraints.MustExactly(govalid.Options{"constraints": nested, "exactly": 1})
	assert.Equal(t, 1, one.Count())
	assert.Empty(t, check(t, "abcd", one))

	vl := check(t, "12", one)
	require.Len(t, vl, 1)
	assert.Equal(t, govalid.CodeExactlyOf, vl[0].Code)
	count, _ := vl[0].Params.Get("count")
	assert.Equal(t, 3, count)
}

var username = constraints.CompoundDefinition{
	Kind:    "Username",
	Default: "min",
	Allowed: []string{"max"},
	Build: func(opts govalid.OptionSet) ([]govalid.Constraint, error) {
		n, ok, err := opts.Int("min")
		if err != nil {
			return nil, err
		}
		if !ok {
			n = 1
		}
		return []govalid.Constraint{
			constraints.MustNotBlank(nil),
			constraints.MustLength(govalid.Options{"min": n}),
			constraints.MustRegex(`^[a-z0-9_]*$`),
		}, nil
	},
}

func TestCompound_ForwardsOptions(t *testing.T) {
	c := username.Must(3)
	assert.Equal(t, govalid.Kind("Username"), c.Kind())
	assert.Equal(t, constraints.KindCompound, c.ValidatedBy())
	nested := c.NestedConstraints()
	require.Len(t, nested, 3)
	length, ok := nested[1].(*constraints.Length)
	require.True(t, ok)
	minLen, _ := length.Min()
	assert.Equal(t, 3, minLen)
	opt, _ := c.Option("min")
	assert.Equal(t, 3, opt)

	vl := check(t, "A", c)
	assert.Equal(t, []string{govalid.CodeTooShort, govalid.CodePattern}, vl.Codes())
	assert.Empty(t, check(t, "bob_1", c))

	_, err := username.New(govalid.Options{"min": 3, "other": 1})
	assert.ErrorIs(t, err, govalid.ErrDefinition)
	_, err = constraints.CompoundDefinition{Kind: "Empty"}.New(nil)
	assert.ErrorIs(t, err, govalid.ErrDefinition)
}

type period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func TestBefore_OrdersDates(t *testing.T) {
	day := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	strict := govalid.NewMetadataStore().MustRegister(govalid.MetadataOf[period]().
		AddPropertyConstraint("start", constraints.MustBefore("end")))
	inclusive := govalid.NewMetadataStore().MustRegister(govalid.MetadataOf[period]().
		AddPropertyConstraint("start", constraints.MustBefore(govalid.Options{"propertyPath": "end", "allowEqual": true})))

	cases := []struct {
		name  string
		store *govalid.MetadataStore
		p     period
		codes []string
	}{
		{"earlier", strict, period{Start: day, End: day.AddDate(0, 0, 1)}, nil},
		{"equal strict", strict, period{Start: day, End: day}, []string{govalid.CodeTooHigh}},
		{"equal inclusive", inclusive, period{Start: day, End: day}, nil},
		{"later inclusive", inclusive, period{Start: day.AddDate(0, 0, 1), End: day}, []string{govalid.CodeTooHigh}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			vl, err := constraints.NewValidator(govalid.WithMetadata(tc.store)).Validate(context.Background(), &tc.p)
			require.NoError(t, err)
			if tc.codes == nil {
				assert.Empty(t, vl)
				return
			}
			assert.Equal(t, tc.codes, vl.Codes())
			assert.Equal(t, "start", vl[0].Path)
			compared, _ := vl[0].Params.Get("compared_value")
			assert.Equal(t, "2024-01-31T00:00:00Z", compared)
		})
	}
}

func TestPresenceWrappers(t *testing.T) {
	c := constraints.MustLength(govalid.Options{"max": 3})
	assert.Equal(t, constraints.MustOptional(c), constraints.MustOptional([]govalid.Constraint{c}))
	assert.Equal(t, constraints.MustRequired(c), constraints.MustRequired([]any{c}))
	assert.Equal(t, constraints.MustOptional(c).NestedConstraints(), constraints.MustOptional([]govalid.Constraint{c}).NestedConstraints())
	assert.True(t, constraints.MustOptional(nil).IsOptional())
	assert.False(t, constraints.MustRequired(nil).IsOptional())

	_, err := constraints.NewRequired(constraints.MustOptional(nil))
	assert.ErrorIs(t, err, govalid.ErrDefinition)
}

func TestCollection(t *testing.T) {
	coll := constraints.MustCollection(constraints.Fields{
		"name":     constraints.MustNotBlank(nil),
		"nickname": constraints.MustOptional(constraints.MustLength(govalid.Options{"max": 3})),
		"email":    constraints.MustRequired(constraints.MustNotBlank(nil)),
		"tags":     []govalid.Constraint{constraints.MustCount(govalid.Options{"max": 2})},
	})
	field, ok := coll.Field("tags")
	require.True(t, ok)
	assert.False(t, field.IsOptional())

	vl := check(t, map[string]any{
		"name":     "",
		"nickname": "toolong",
		"tags":     []string{"a"},
		"extra":    1,
	}, coll)
	assert.Equal(t, []string{"[email]", "[name]", "[nickname]", "[extra]"}, vl.Paths())
	assert.Equal(t, []string{govalid.CodeMissingField, govalid.CodeIsBlank, govalid.CodeTooLong, govalid.CodeNoSuchField}, vl.Codes())
	assert.Nil(t, vl[0].InvalidValue)
	assert.Equal(t, 1, vl[3].InvalidValue)

	assert.Empty(t, check(t, map[string]any{"name": "Ann", "email": "a@example.com", "tags": []string{}}, coll))

	lenient := constraints.MustCollection(govalid.Options{
		"fields":             constraints.Fields{"name": constraints.MustNotBlank(nil)},
		"allowMissingFields": true,
		"allowExtraFields":   true,
	})
	assert.Empty(t, check(t, map[string]any{"other": true}, lenient))
	assert.Equal(t, []string{govalid.CodeInvalidType}, check(t, "text", lenient).Codes())

	_, err := constraints.NewCollection(constraints.Fields{"a": "not a constraint"})
	assert.ErrorIs(t, err, govalid.ErrDefinition)
	_, err = constraints.NewCollection(42)
	assert.ErrorIs(t, err, govalid.ErrDefinition)
}

type owner struct {
	Name string `json:"name"`
}

type account struct {
	Owner  *owner `json:"owner"`
	Backup *owner `json:"backup"`
}

func TestValid_Cascades(t *testing.T) {
	store := govalid.NewMetadataStore().MustRegister(
		govalid.MetadataOf[account]().
			AddPropertyConstraint("owner", constraints.MustValid(nil)).
			AddPropertyConstraint("backup", constraints.MustValid(govalid.Options{"groups": "Strict"})),
		govalid.MetadataOf[owner]().
			AddPropertyConstraint("name", constraints.MustNotBlank(govalid.Options{"groups": []string{govalid.DefaultGroup, "Strict"}})),
	)
	v := constraints.NewValidator(govalid.WithMetadata(store))
	acc := &account{Owner: &owner{}, Backup: &owner{}}

	vl, err := v.Validate(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, []string{"owner.name"}, vl.Paths())

	vl, err = v.Validate(context.Background(), acc, govalid.Groups("Strict"))
	require.NoError(t, err)
	assert.Equal(t, []string{"owner.name", "backup.name"}, vl.Paths())

	meta, ok := store.MetadataFor(reflect.TypeOf(acc))
	require.True(t, ok)
	cascade, _ := meta.Property("owner").CascadeInfo()
	assert.True(t, cascade)
	assert.Len(t, meta.Property("backup").Constraints(), 1)

	vl, err = v.Validate(context.Background(), &account{})
	require.NoError(t, err)
	assert.Empty(t, vl)
}

type item struct {
	Name string `json:"name"`
}

type basket struct {
	Items []*item `json:"items"`
	Top   *item   `json:"top"`
}

func TestValid_WithoutTraversal(t *testing.T) {
	store := govalid.NewMetadataStore().MustRegister(
		govalid.MetadataOf[basket]().
			AddPropertyConstraint("items", constraints.MustValid(govalid.Options{"traverse": false})).
			AddPropertyConstraint("top", constraints.MustValid(govalid.Options{"traverse": false})),
		govalid.MetadataOf[item]().
			AddPropertyConstraint("name", constraints.MustNotBlank(nil)),
	)
	v := constraints.NewValidator(govalid.WithMetadata(store))

	vl, err := v.Validate(context.Background(), &basket{Items: []*item{{}}, Top: &item{}})
	require.NoError(t, err)
	assert.Equal(t, []string{"top.name"}, vl.Paths())

	traversing := govalid.NewMetadataStore().MustRegister(
		govalid.MetadataOf[basket]().AddPropertyConstraint("items", constraints.MustValid(nil)),
		govalid.MetadataOf[item]().AddPropertyConstraint("name", constraints.MustNotBlank(nil)),
	)
	vl, err = constraints.NewValidator(govalid.WithMetadata(traversing)).
		Validate(context.Background(), &basket{Items: []*item{{}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"items[0].name"}, vl.Paths())
}
