package constraints

import (
	"github.com/reoring/govalid"
)

// CompoundDefinition describes a reusable constraint kind that expands into
// a fixed list of nested constraints. Build receives the parsed options, so
// option values can be forwarded into the nested constraints.
type CompoundDefinition struct {
	Kind     govalid.Kind
	Default  string
	Required []string
	Allowed  []string
	Build    func(opts govalid.OptionSet) ([]govalid.Constraint, error)
}

// New builds an instance of the compound.
func (d CompoundDefinition) New(spec any) (*Compound, error) {
	set, err := govalid.ParseOptions(govalid.OptionSpec{
		Kind:     d.Kind,
		Default:  d.Default,
		Required: d.Required,
		Allowed:  d.Allowed,
	}, spec)
	if err != nil {
		return nil, err
	}
	if d.Build == nil {
		return nil, govalid.Definitionf(d.Kind, "", "compound has no Build function")
	}
	built, err := d.Build(set)
	if err != nil {
		return nil, err
	}
	nested, err := govalid.NestedConstraints(d.Kind, "constraints", built)
	if err != nil {
		return nil, err
	}
	base, err := govalid.ComposeGroups(set.Base(), nested)
	if err != nil {
		return nil, err
	}
	return &Compound{composite: composite{Base: base, nested: nested}, options: set}, nil
}

// Must is like New but panics on a definition error.
func (d CompoundDefinition) Must(spec any) *Compound { return must(d.New(spec)) }

// Compound validates the value against its nested constraints as one unit.
// Every compound kind is validated by the Compound validator.
type Compound struct {
	composite
	options govalid.OptionSet
}

// NewCompound builds an anonymous compound from a constraint list.
func NewCompound(spec any) (*Compound, error) {
	set, err := govalid.ParseOptions(nestedSpec(KindCompound), spec)
	if err != nil {
		return nil, err
	}
	c, err := parseComposite(set, "constraints")
	if err != nil {
		return nil, err
	}
	return &Compound{composite: c, options: set}, nil
}

// MustCompound is like NewCompound but panics on a definition error.
func MustCompound(spec any) *Compound { return must(NewCompound(spec)) }

// ValidatedBy implements govalid.Redirector.
func (c *Compound) ValidatedBy() govalid.Kind { return KindCompound }

// Option returns a normalized option value the compound was built with.
func (c *Compound) Option(name string) (any, bool) { return c.options.Value(name) }

func validateCompound(ec *govalid.ExecutionContext, value any, gc govalid.Constraint) error {
	c, ok := gc.(*Compound)
	if !ok {
		return unexpectedConstraint(gc, KindCompound)
	}
	ec.Validator().ValidateNested(value, c.nested...)
	return nil
}

// Before requires the value (a time, number or string) to come before the
// sibling property named by propertyPath. With allowEqual, equal values pass.
var Before = CompoundDefinition{
	Kind:     KindBefore,
	Default:  "propertyPath",
	Required: []string{"propertyPath"},
	Allowed:  []string{"allowEqual", "message"},
	Build: func(opts govalid.OptionSet) ([]govalid.Constraint, error) {
		path, err := opts.String("propertyPath", "")
		if err != nil {
			return nil, err
		}
		allowEqual, err := opts.Bool("allowEqual", false)
		if err != nil {
			return nil, err
		}
		msg, err := opts.String("message", "This value should be before {{ compared_value }}.")
		if err != nil {
			return nil, err
		}
		in := govalid.Options{"propertyPath": path, "message": msg}
		var c *Comparison
		if allowEqual {
			c, err = NewLessThanOrEqual(in)
		} else {
			c, err = NewLessThan(in)
		}
		if err != nil {
			return nil, err
		}
		return []govalid.Constraint{c}, nil
	},
}

// NewBefore builds a Before compound.
func NewBefore(spec any) (*Compound, error) { return Before.New(spec) }

// MustBefore is like NewBefore but panics on a definition error.
func MustBefore(spec any) *Compound { return must(NewBefore(spec)) }
