package govalid

import (
	"math"
	"reflect"
	"slices"
	"sort"
)

// Options is the option map a constraint is built from, for example
// Options{"min": 3, "groups": []string{"Registration"}}.
type Options map[string]any

// OptionSpec describes the options a constraint kind accepts.
type OptionSpec struct {
	Kind Kind
	// Default names the option that receives a shorthand value, so that
	// NewLength(5) means Options{"exactly": 5}. Empty when the kind has none.
	Default  string
	Required []string
	Allowed  []string
}

// OptionSet is a parsed, validated option map.
type OptionSet struct {
	kind   Kind
	values map[string]any
	base   Base
}

// ParseOptions validates input against spec. input is an Options map, a
// map[string]any, nil, or a bare value taken as the default option.
func ParseOptions(spec OptionSpec, input any) (OptionSet, error) {
	set := OptionSet{kind: spec.Kind, values: map[string]any{}}

	switch in := input.(type) {
	case nil:
	case Options:
		for k, v := range in {
			set.values[k] = v
		}
	case map[string]any:
		for k, v := range in {
			set.values[k] = v
		}
	default:
		if spec.Default == "" {
			return OptionSet{}, Definitionf(spec.Kind, "", "no default option is configured, pass govalid.Options instead of %T", input)
		}
		set.values[spec.Default] = input
	}

	known := map[string]bool{"groups": true, "payload": true}
	if spec.Default != "" {
		known[spec.Default] = true
	}
	for _, name := range spec.Required {
		known[name] = true
	}
	for _, name := range spec.Allowed {
		known[name] = true
	}
	var unknown []string
	for k := range set.values {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return OptionSet{}, Definitionf(spec.Kind, unknown[0], "the option does not exist")
	}

	var missing []string
	for _, name := range spec.Required {
		if v, ok := set.values[name]; !ok || v == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return OptionSet{}, &MissingOptionsError{Kind: spec.Kind, Options: missing}
	}

	groups, err := set.groupsOption()
	if err != nil {
		return OptionSet{}, err
	}
	set.base = NewBase(spec.Kind, groups, set.values["payload"])
	return set, nil
}

func (s OptionSet) groupsOption() ([]string, error) {
	raw, ok := s.values["groups"]
	if !ok || raw == nil {
		return nil, nil
	}
	switch g := raw.(type) {
	case string:
		return []string{g}, nil
	case []string:
		return slices.Clone(g), nil
	case []any:
		out := make([]string, 0, len(g))
		for _, it := range g {
			str, ok := it.(string)
			if !ok {
				return nil, Definitionf(s.kind, "groups", "expected group names, got %T", it)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, Definitionf(s.kind, "groups", "expected string or []string, got %T", raw)
	}
}

// Kind returns the kind the set was parsed for.
func (s OptionSet) Kind() Kind { return s.kind }

// Base returns the shared options (groups, payload).
func (s OptionSet) Base() Base { return s.base }

// Has reports whether name was given with a non-nil value.
func (s OptionSet) Has(name string) bool {
	v, ok := s.values[name]
	return ok && v != nil
}

// Value returns the raw option value.
func (s OptionSet) Value(name string) (any, bool) {
	v, ok := s.values[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns a string option or def when absent.
func (s OptionSet) String(name, def string) (string, error) {
	v, ok := s.Value(name)
	if !ok {
		return def, nil
	}
	str, ok := v.(string)
	if !ok {
		return "", Definitionf(s.kind, name, "expected string, got %T", v)
	}
	return str, nil
}

// Bool returns a boolean option or def when absent.
func (s OptionSet) Bool(name string, def bool) (bool, error) {
	v, ok := s.Value(name)
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, Definitionf(s.kind, name, "expected bool, got %T", v)
	}
	return b, nil
}

// Int returns an integer option. Floats with an integral value are accepted.
func (s OptionSet) Int(name string) (int, bool, error) {
	v, ok := s.Value(name)
	if !ok {
		return 0, false, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint()), true, nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f == math.Trunc(f) {
			return int(f), true, nil
		}
	}
	return 0, false, Definitionf(s.kind, name, "expected integer, got %T", v)
}

// Strings returns a list-of-strings option. A single string is accepted as a
// one-element list.
func (s OptionSet) Strings(name string) ([]string, error) {
	v, ok := s.Value(name)
	if !ok {
		return nil, nil
	}
	switch t := v.(type) {
	case string:
		return []string{t}, nil
	case []string:
		return slices.Clone(t), nil
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			str, ok := it.(string)
			if !ok {
				return nil, Definitionf(s.kind, name, "expected strings, got %T", it)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, Definitionf(s.kind, name, "expected []string, got %T", v)
	}
}

// List returns a list option of arbitrary element type.
func (s OptionSet) List(name string) ([]any, error) {
	v, ok := s.Value(name)
	if !ok {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, Definitionf(s.kind, name, "expected a list, got %T", v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// Constraints returns a nested-constraint option. A single Constraint is
// accepted as a one-element list. Non-constraint entries and cascade markers
// are definition errors.
func (s OptionSet) Constraints(name string) ([]Constraint, error) {
	v, ok := s.Value(name)
	if !ok {
		return nil, nil
	}
	return NestedConstraints(s.kind, name, v)
}

// NestedConstraints normalizes v (a Constraint, []Constraint or []any of
// constraints) into a list, rejecting anything else.
func NestedConstraints(kind Kind, option string, v any) ([]Constraint, error) {
	var out []Constraint
	switch t := v.(type) {
	case Constraint:
		out = []Constraint{t}
	case []Constraint:
		out = slices.Clone(t)
	case []any:
		out = make([]Constraint, 0, len(t))
		for i, it := range t {
			c, ok := it.(Constraint)
			if !ok {
				return nil, Definitionf(kind, option, "entry %d must be a constraint, got %T", i, it)
			}
			out = append(out, c)
		}
	default:
		return nil, Definitionf(kind, option, "expected a constraint or a list of constraints, got %T", v)
	}
	for i, c := range out {
		if c == nil {
			return nil, Definitionf(kind, option, "entry %d must be a constraint, got nil", i)
		}
		if isCascader(c) {
			return nil, Definitionf(kind, option, "the cascade constraint %q cannot be nested inside %q", c.Kind(), kind)
		}
	}
	return out, nil
}

// ComposeGroups reconciles the groups of a composite with its nested
// constraints. Without explicit groups the composite takes the union of the
// nested groups; with explicit groups every nested group must be one of them.
func ComposeGroups(base Base, nested []Constraint) (Base, error) {
	if !base.explicit {
		var union []string
		for _, c := range nested {
			for _, g := range c.Groups() {
				if !slices.Contains(union, g) {
					union = append(union, g)
				}
			}
		}
		if len(union) == 0 || (len(union) == 1 && union[0] == DefaultGroup) {
			return base, nil
		}
		return NewBase(base.kind, union, base.payload), nil
	}
	for _, c := range nested {
		gs, explicit := groupsOf(c)
		if !explicit || len(base.groups) == 0 {
			continue
		}
		for _, g := range gs {
			if !slices.Contains(base.groups, g) {
				return Base{}, Definitionf(base.kind, "groups", "the group %q of nested constraint %q must also be a group of %q", g, c.Kind(), base.kind)
			}
		}
	}
	return base, nil
}
