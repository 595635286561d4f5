package constraints

import (
	"fmt"
	"sort"

	"github.com/reoring/govalid"
	"github.com/reoring/govalid/internal/access"
)

// Required marks a Collection field that must be present. Its nested
// constraints validate the field value.
type Required struct{ composite }

// Optional marks a Collection field that may be absent. Its nested
// constraints validate the field value when it is present.
type Optional struct{ composite }

var (
	requiredSpec = govalid.OptionSpec{Kind: KindRequired, Default: "constraints"}
	optionalSpec = govalid.OptionSpec{Kind: KindOptional, Default: "constraints"}
)

func parsePresence(spec govalid.OptionSpec, in any) (composite, error) {
	set, err := govalid.ParseOptions(spec, in)
	if err != nil {
		return composite{}, err
	}
	c, err := parseComposite(set, "constraints")
	if err != nil {
		return composite{}, err
	}
	for _, n := range c.nested {
		if _, ok := n.(govalid.Presence); ok {
			return composite{}, govalid.Definitionf(spec.Kind, "constraints", "%q cannot be nested in %q", n.Kind(), spec.Kind)
		}
	}
	return c, nil
}

// NewRequired builds a Required wrapper. A bare constraint and a one-element
// list give equal results.
func NewRequired(spec any) (*Required, error) {
	c, err := parsePresence(requiredSpec, spec)
	if err != nil {
		return nil, err
	}
	return &Required{c}, nil
}

// NewOptional builds an Optional wrapper.
func NewOptional(spec any) (*Optional, error) {
	c, err := parsePresence(optionalSpec, spec)
	if err != nil {
		return nil, err
	}
	return &Optional{c}, nil
}

// MustRequired is like NewRequired but panics on a definition error.
func MustRequired(spec any) *Required { return must(NewRequired(spec)) }

// MustOptional is like NewOptional but panics on a definition error.
func MustOptional(spec any) *Optional { return must(NewOptional(spec)) }

// IsOptional implements govalid.Presence.
func (c *Required) IsOptional() bool { return false }

// IsOptional implements govalid.Presence.
func (c *Optional) IsOptional() bool { return true }

// Fields maps collection keys to a Required/Optional wrapper, a constraint
// or a list of constraints. Plain constraints mean Required.
type Fields map[string]any

// Collection validates a map field by field.
type Collection struct {
	govalid.Base
	names          []string
	fields         map[string]govalid.Presence
	allowExtra     bool
	allowMissing   bool
	extraMessage   string
	missingMessage string
}

var collectionSpec = govalid.OptionSpec{
	Kind:     KindCollection,
	Default:  "fields",
	Required: []string{"fields"},
	Allowed:  []string{"allowExtraFields", "allowMissingFields", "extraFieldsMessage", "missingFieldsMessage"},
}

// NewCollection builds a Collection constraint. A bare Fields value means
// fields.
func NewCollection(spec any) (*Collection, error) {
	set, err := govalid.ParseOptions(collectionSpec, spec)
	if err != nil {
		return nil, err
	}
	raw, _ := set.Value("fields")
	entries, err := fieldEntries(raw)
	if err != nil {
		return nil, err
	}
	c := &Collection{fields: make(map[string]govalid.Presence, len(entries))}
	for name, v := range entries {
		p, err := normalizeField(name, v)
		if err != nil {
			return nil, err
		}
		c.names = append(c.names, name)
		c.fields[name] = p
	}
	sort.Strings(c.names)
	if c.Base, err = govalid.ComposeGroups(set.Base(), c.NestedConstraints()); err != nil {
		return nil, err
	}
	if c.allowExtra, err = set.Bool("allowExtraFields", false); err != nil {
		return nil, err
	}
	if c.allowMissing, err = set.Bool("allowMissingFields", false); err != nil {
		return nil, err
	}
	if c.extraMessage, err = set.String("extraFieldsMessage", "This field was not expected."); err != nil {
		return nil, err
	}
	if c.missingMessage, err = set.String("missingFieldsMessage", "This field is missing."); err != nil {
		return nil, err
	}
	return c, nil
}

// MustCollection is like NewCollection but panics on a definition error.
func MustCollection(spec any) *Collection { return must(NewCollection(spec)) }

func fieldEntries(raw any) (map[string]any, error) {
	switch t := raw.(type) {
	case Fields:
		return t, nil
	case map[string]any:
		return t, nil
	case govalid.Options:
		return t, nil
	case map[string]govalid.Constraint:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = v
		}
		return out, nil
	}
	return nil, govalid.Definitionf(KindCollection, "fields", "expected a mapping of field names to constraints, got %T", raw)
}

func normalizeField(name string, v any) (govalid.Presence, error) {
	if p, ok := v.(govalid.Presence); ok {
		if access.IsNil(p) {
			return nil, govalid.Definitionf(KindCollection, "fields", "field %q is nil", name)
		}
		return p, nil
	}
	nested, err := govalid.NestedConstraints(KindCollection, "fields", v)
	if err != nil {
		return nil, govalid.Definitionf(KindCollection, "fields", "field %q: %v", name, err)
	}
	r, err := NewRequired(nested)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// NestedConstraints returns the field wrappers in field name order.
func (c *Collection) NestedConstraints() []govalid.Constraint {
	out := make([]govalid.Constraint, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, c.fields[name])
	}
	return out
}

// Field returns the wrapper declared for name.
func (c *Collection) Field(name string) (govalid.Presence, bool) {
	p, ok := c.fields[name]
	return p, ok
}

func validateCollection(ec *govalid.ExecutionContext, value any, gc govalid.Constraint) error {
	c, ok := gc.(*Collection)
	if !ok {
		return unexpectedConstraint(gc, KindCollection)
	}
	if access.IsNil(value) {
		return nil
	}
	if !access.IsMap(value) {
		return govalid.UnexpectedValue(value, "map")
	}
	for _, name := range c.names {
		field := c.fields[name]
		sub := "[" + name + "]"
		v, present := access.MapEntry(value, name)
		if present {
			if nested := field.NestedConstraints(); len(nested) > 0 {
				ec.Validator().AtPath(sub).ValidateNested(v, nested...)
			}
			continue
		}
		if !field.IsOptional() && !c.allowMissing {
			ec.BuildViolation(c.missingMessage).
				AtPath(sub).
				SetParameter("field", formatValue(name)).
				SetInvalidValue(nil).
				SetCode(govalid.CodeMissingField).
				AddViolation()
		}
	}
	if c.allowExtra {
		return nil
	}
	access.Each(value, func(key, elem any) {
		name := fmt.Sprint(key)
		if _, declared := c.fields[name]; declared {
			return
		}
		ec.BuildViolation(c.extraMessage).
			AtPath("[" + name + "]").
			SetParameter("field", formatValue(name)).
			SetInvalidValue(elem).
			SetCode(govalid.CodeNoSuchField).
			AddViolation()
	})
	return nil
}
