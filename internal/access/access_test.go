package access

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	Street string `json:"street"`
	Lines  []string
}

type customer struct {
	Name    string   `govalid:"name=fullName" json:"name"`
	Email   string   `json:"email,omitempty"`
	Secret  string   `json:"-"`
	Address *address `json:"address"`
	Tags    map[string]int
	hidden  string
}

func TestFieldKey(t *testing.T) {
	rt := reflect.TypeOf(customer{})
	f, _ := rt.FieldByName("Name")
	assert.Equal(t, "fullName", FieldKey(f))
	f, _ = rt.FieldByName("Email")
	assert.Equal(t, "email", FieldKey(f))
	f, _ = rt.FieldByName("Secret")
	assert.Equal(t, "-", FieldKey(f))
	f, _ = rt.FieldByName("Tags")
	assert.Equal(t, "Tags", FieldKey(f))
}

func TestFieldAndHasField(t *testing.T) {
	c := &customer{Name: "Ann", Secret: "s", hidden: "h"}
	v, err := Field(c, "fullName")
	require.NoError(t, err)
	assert.Equal(t, "Ann", v)

	v, err = Field(c, "Name")
	require.NoError(t, err)
	assert.Equal(t, "Ann", v)

	_, err = Field(c, "Secret")
	assert.Error(t, err)
	_, err = Field(c, "hidden")
	assert.Error(t, err)
	_, err = Field((*customer)(nil), "Name")
	assert.Error(t, err)

	rt := reflect.TypeOf(&customer{})
	assert.True(t, HasField(rt, "email"))
	assert.True(t, HasField(rt, "Email"))
	assert.False(t, HasField(rt, "Secret"))
	assert.False(t, HasField(rt, "hidden"))
	assert.False(t, HasField(reflect.TypeOf(1), "x"))
}

func TestNilAndKinds(t *testing.T) {
	var p *customer
	var m map[string]int
	assert.True(t, IsNil(nil))
	assert.True(t, IsNil(p))
	assert.True(t, IsNil(m))
	assert.False(t, IsNil(0))
	assert.False(t, IsNil(""))

	assert.True(t, IsObject(&customer{}))
	assert.False(t, IsObject(map[string]any{}))
	assert.True(t, IsCollection([]int{1}))
	assert.True(t, IsCollection(map[string]any{}))
	assert.False(t, IsCollection([]byte("x")))
	assert.False(t, IsCollection("x"))
	assert.True(t, IsMap(map[int]int{}))

	n, ok := Len([3]int{})
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	_, ok = Len(1)
	assert.False(t, ok)

	assert.Equal(t, "*access.customer", TypeName(&customer{}))
	assert.Equal(t, "nil", TypeName(nil))
}

func TestEach_SortedMapKeys(t *testing.T) {
	var keys []any
	ok := Each(map[string]int{"b": 2, "a": 1, "c": 3}, func(k, _ any) { keys = append(keys, k) })
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b", "c"}, keys)

	keys = nil
	Each(map[int]string{10: "x", 2: "y", -1: "z"}, func(k, _ any) { keys = append(keys, k) })
	assert.Equal(t, []any{-1, 2, 10}, keys)

	var elems []any
	Each([]string{"x", "y"}, func(_, e any) { elems = append(elems, e) })
	assert.Equal(t, []any{"x", "y"}, elems)

	assert.False(t, Each(42, func(_, _ any) {}))
}

func TestMapEntry(t *testing.T) {
	v, ok := MapEntry(map[string]any{"a": 1}, "a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = MapEntry(map[string]any{"a": nil}, "b")
	assert.False(t, ok)
	v, ok = MapEntry(map[string]any{"a": nil}, "a")
	assert.True(t, ok)
	assert.Nil(t, v)
	v, ok = MapEntry(map[int]string{7: "x"}, "7")
	assert.True(t, ok)
	assert.Equal(t, "x", v)
	_, ok = MapEntry([]int{}, "0")
	assert.False(t, ok)
}

func TestLookup(t *testing.T) {
	c := customer{
		Name:    "Ann",
		Address: &address{Street: "Main", Lines: []string{"one", "two"}},
		Tags:    map[string]int{"vip": 1},
	}
	v, ok := Lookup(c, "address.street")
	require.True(t, ok)
	assert.Equal(t, "Main", v)

	v, ok = Lookup(c, "address.Lines[1]")
	require.True(t, ok)
	assert.Equal(t, "two", v)

	v, ok = Lookup(c, "Tags[vip]")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = Lookup(c, "address.Lines[5]")
	assert.False(t, ok)
	_, ok = Lookup(c, "missing")
	assert.False(t, ok)
	_, ok = Lookup(customer{}, "address.street")
	assert.False(t, ok)

	v, ok = Lookup(map[string]any{"a": []any{map[string]any{"b": true}}}, "[a][0][b]")
	require.True(t, ok)
	assert.Equal(t, true, v)
}

func TestIdentity(t *testing.T) {
	c := &customer{}
	k1, ok := Identity(c)
	require.True(t, ok)
	k2, _ := Identity(c)
	assert.Equal(t, k1, k2)

	other, _ := Identity(&customer{})
	assert.NotEqual(t, k1, other)

	_, ok = Identity(customer{})
	assert.False(t, ok)
	_, ok = Identity((*customer)(nil))
	assert.False(t, ok)

	s := []int{1, 2, 3}
	full, _ := Identity(s)
	head, _ := Identity(s[:1])
	assert.NotEqual(t, full, head)
}
