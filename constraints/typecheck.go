package constraints

import (
	"reflect"
	"strings"
	"time"

	"github.com/reoring/govalid"
)

// Type requires the value to be of one of the named types. Names are either
// families ("string", "int", "float", "number", "bool", "slice", "map",
// "struct", "time", "scalar", "iterable") or reflect kind/type names such as
// "int64" or "uuid.UUID".
type Type struct {
	govalid.Base
	types   []string
	message string
}

var typeSpec = govalid.OptionSpec{
	Kind:     KindType,
	Default:  "type",
	Required: []string{"type"},
	Allowed:  []string{"message"},
}

// NewType builds a Type constraint. A bare string or list means type.
func NewType(spec any) (*Type, error) {
	set, err := govalid.ParseOptions(typeSpec, spec)
	if err != nil {
		return nil, err
	}
	c := &Type{Base: set.Base()}
	if c.types, err = set.Strings("type"); err != nil {
		return nil, err
	}
	if len(c.types) == 0 {
		return nil, govalid.Definitionf(KindType, "type", "at least one type is required")
	}
	if c.message, err = set.String("message", "This value should be of type {{ type }}."); err != nil {
		return nil, err
	}
	return c, nil
}

// MustType is like NewType but panics on a definition error.
func MustType(spec any) *Type { return must(NewType(spec)) }

// Types returns the accepted type names.
func (c *Type) Types() []string { return append([]string(nil), c.types...) }

func validateType(ec *govalid.ExecutionContext, value any, gc govalid.Constraint) error {
	c, ok := gc.(*Type)
	if !ok {
		return unexpectedConstraint(gc, KindType)
	}
	d, ok := deref(value)
	if !ok {
		return nil
	}
	for _, name := range c.types {
		if isType(d, name) {
			return nil
		}
	}
	ec.BuildViolation(c.message).
		SetParameter("value", formatValue(value)).
		SetParameter("type", strings.Join(c.types, "|")).
		SetCode(govalid.CodeInvalidType).
		AddViolation()
	return nil
}

func isType(v any, name string) bool {
	rv := reflect.ValueOf(v)
	k := rv.Kind()
	switch name {
	case "string":
		return k == reflect.String
	case "bool":
		return k == reflect.Bool
	case "int", "integer":
		return k >= reflect.Int && k <= reflect.Uint64
	case "float":
		return k == reflect.Float32 || k == reflect.Float64
	case "number", "numeric":
		_, ok := asFloat(v)
		return ok
	case "slice", "list", "array":
		return k == reflect.Slice || k == reflect.Array
	case "map":
		return k == reflect.Map
	case "struct", "object":
		_, isTime := v.(time.Time)
		return k == reflect.Struct && !isTime
	case "time":
		_, ok := v.(time.Time)
		return ok
	case "scalar":
		_, num := asFloat(v)
		return num || k == reflect.String || k == reflect.Bool
	case "iterable":
		return k == reflect.Slice || k == reflect.Array || k == reflect.Map
	}
	return k.String() == name || rv.Type().String() == name
}
