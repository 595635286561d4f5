package constraints

import (
	"slices"
	"strconv"
	"strings"

	"github.com/reoring/govalid"
	"github.com/reoring/govalid/internal/access"
)

// composite is embedded by every constraint that owns nested constraints.
type composite struct {
	govalid.Base
	nested []govalid.Constraint
}

// NestedConstraints implements govalid.Composite.
func (c composite) NestedConstraints() []govalid.Constraint { return slices.Clone(c.nested) }

// parseComposite reads the nested constraints of option and reconciles their
// groups with the composite's.
func parseComposite(set govalid.OptionSet, option string) (composite, error) {
	nested, err := set.Constraints(option)
	if err != nil {
		return composite{}, err
	}
	base, err := govalid.ComposeGroups(set.Base(), nested)
	if err != nil {
		return composite{}, err
	}
	return composite{Base: base, nested: nested}, nil
}

func nestedSpec(kind govalid.Kind, allowed ...string) govalid.OptionSpec {
	return govalid.OptionSpec{
		Kind:     kind,
		Default:  "constraints",
		Required: []string{"constraints"},
		Allowed:  allowed,
	}
}

// All validates every element of a collection against every nested
// constraint. Violations are reported at "[key]" below the collection.
type All struct{ composite }

// NewAll builds an All constraint. A bare constraint or list means
// constraints.
func NewAll(spec any) (*All, error) {
	set, err := govalid.ParseOptions(nestedSpec(KindAll), spec)
	if err != nil {
		return nil, err
	}
	c, err := parseComposite(set, "constraints")
	if err != nil {
		return nil, err
	}
	return &All{c}, nil
}

// NewEach is NewAll.
func NewEach(spec any) (*All, error) { return NewAll(spec) }

// MustAll is like NewAll but panics on a definition error.
func MustAll(spec any) *All { return must(NewAll(spec)) }

// MustEach is like NewEach but panics on a definition error.
func MustEach(spec any) *All { return must(NewEach(spec)) }

func validateAll(ec *govalid.ExecutionContext, value any, gc govalid.Constraint) error {
	c, ok := gc.(*All)
	if !ok {
		return unexpectedConstraint(gc, KindAll)
	}
	if access.IsNil(value) {
		return nil
	}
	if !access.IsCollection(value) {
		return govalid.UnexpectedValue(value, "iterable")
	}
	access.Each(value, func(key, elem any) {
		ec.Validator().AtPath(pathKey(key)).ValidateNested(elem, c.nested...)
	})
	return nil
}

// Sequentially validates the value against the nested constraints in order
// and stops at the first one that reports a violation.
type Sequentially struct{ composite }

// NewSequentially builds a Sequentially constraint.
func NewSequentially(spec any) (*Sequentially, error) {
	set, err := govalid.ParseOptions(nestedSpec(KindSequentially), spec)
	if err != nil {
		return nil, err
	}
	c, err := parseComposite(set, "constraints")
	if err != nil {
		return nil, err
	}
	return &Sequentially{c}, nil
}

// MustSequentially is like NewSequentially but panics on a definition error.
func MustSequentially(spec any) *Sequentially { return must(NewSequentially(spec)) }

func validateSequentially(ec *govalid.ExecutionContext, value any, gc govalid.Constraint) error {
	c, ok := gc.(*Sequentially)
	if !ok {
		return unexpectedConstraint(gc, KindSequentially)
	}
	v := ec.Validator()
	before := ec.ViolationCount()
	for _, n := range c.nested {
		v.ValidateNested(value, n)
		if ec.ViolationCount() != before {
			break
		}
	}
	return nil
}

// Any requires the value to satisfy at least one nested constraint. When
// none is satisfied a single violation with its own message is reported and
// the nested violations are discarded.
type Any struct {
	composite
	message string
}

// NewAny builds an Any constraint.
func NewAny(spec any) (*Any, error) {
	set, err := govalid.ParseOptions(nestedSpec(KindAny, "message"), spec)
	if err != nil {
		return nil, err
	}
	c, err := parseComposite(set, "constraints")
	if err != nil {
		return nil, err
	}
	out := &Any{composite: c}
	if out.message, err = set.String("message", "This value should satisfy at least one of the given constraints."); err != nil {
		return nil, err
	}
	return out, nil
}

// MustAny is like NewAny but panics on a definition error.
func MustAny(spec any) *Any { return must(NewAny(spec)) }

// Message returns the message template.
func (c *Any) Message() string { return c.message }

func validateAny(ec *govalid.ExecutionContext, value any, gc govalid.Constraint) error {
	c, ok := gc.(*Any)
	if !ok {
		return unexpectedConstraint(gc, KindAny)
	}
	for _, n := range c.nested {
		if !ec.Applies(n) {
			continue
		}
		fork := ec.Fork()
		fork.Validator().ValidateNested(value, n)
		if fork.ViolationCount() == 0 {
			return nil
		}
	}
	ec.BuildViolation(c.message).
		SetParameter("value", formatValue(value)).
		SetCode(govalid.CodeAnyOf).
		AddViolation()
	return nil
}

// AtLeastOneOf is Any with a message that, by default, lists the first
// violation of every failed nested constraint.
type AtLeastOneOf struct {
	composite
	message                 string
	messageCollection       string
	includeInternalMessages bool
}

// NewAtLeastOneOf builds an AtLeastOneOf constraint.
func NewAtLeastOneOf(spec any) (*AtLeastOneOf, error) {
	set, err := govalid.ParseOptions(nestedSpec(KindAtLeastOneOf, "message", "messageCollection", "includeInternalMessages"), spec)
	if err != nil {
		return nil, err
	}
	c, err := parseComposite(set, "constraints")
	if err != nil {
		return nil, err
	}
	out := &AtLeastOneOf{composite: c}
	if out.message, err = set.String("message", "This value should satisfy at least one of the following constraints:"); err != nil {
		return nil, err
	}
	if out.messageCollection, err = set.String("messageCollection", "Each element of this collection should satisfy its own set of constraints."); err != nil {
		return nil, err
	}
	if out.includeInternalMessages, err = set.Bool("includeInternalMessages", true); err != nil {
		return nil, err
	}
	return out, nil
}

// MustAtLeastOneOf is like NewAtLeastOneOf but panics on a definition error.
func MustAtLeastOneOf(spec any) *AtLeastOneOf { return must(NewAtLeastOneOf(spec)) }

func validateAtLeastOneOf(ec *govalid.ExecutionContext, value any, gc govalid.Constraint) error {
	c, ok := gc.(*AtLeastOneOf)
	if !ok {
		return unexpectedConstraint(gc, KindAtLeastOneOf)
	}
	b := &strings.Builder{}
	b.WriteString(c.message)
	for i, n := range c.nested {
		if !ec.Applies(n) {
			continue
		}
		fork := ec.Fork()
		fork.Validator().ValidateNested(value, n)
		vs := fork.Violations()
		if len(vs) == 0 {
			return nil
		}
		if !c.includeInternalMessages {
			continue
		}
		b.WriteString(" [" + strconv.Itoa(i+1) + "] ")
		switch n.(type) {
		case *All, *Collection:
			b.WriteString(c.messageCollection)
		default:
			b.WriteString(ec.Render(vs[0]))
		}
	}
	ec.BuildViolation(b.String()).
		SetCode(govalid.CodeAtLeastOneOf).
		AddViolation()
	return nil
}

// Exactly requires exactly N of the nested constraints to be satisfied.
type Exactly struct {
	composite
	exactly int
	message string
}

var exactlySpec = govalid.OptionSpec{
	Kind:     KindExactly,
	Default:  "constraints",
	Required: []string{"constraints", "exactly"},
	Allowed:  []string{"message"},
}

// NewExactly builds an Exactly constraint. The exactly count is required.
func NewExactly(spec any) (*Exactly, error) {
	set, err := govalid.ParseOptions(exactlySpec, spec)
	if err != nil {
		return nil, err
	}
	c, err := parseComposite(set, "constraints")
	if err != nil {
		return nil, err
	}
	out := &Exactly{composite: c}
	if out.exactly, _, err = set.Int("exactly"); err != nil {
		return nil, err
	}
	if out.exactly < 0 || out.exactly > len(c.nested) {
		return nil, govalid.Definitionf(KindExactly, "exactly", "must be between 0 and %d", len(c.nested))
	}
	if out.message, err = set.String("message", "This value should satisfy exactly {{ limit }} of the given constraints."); err != nil {
		return nil, err
	}
	return out, nil
}

// MustExactly is like NewExactly but panics on a definition error.
func MustExactly(spec any) *Exactly { return must(NewExactly(spec)) }

// Count returns the required number of satisfied constraints.
func (c *Exactly) Count() int { return c.exactly }

func validateExactly(ec *govalid.ExecutionContext, value any, gc govalid.Constraint) error {
	c, ok := gc.(*Exactly)
	if !ok {
		return unexpectedConstraint(gc, KindExactly)
	}
	satisfied := 0
	for _, n := range c.nested {
		if !ec.Applies(n) {
			continue
		}
		fork := ec.Fork()
		fork.Validator().ValidateNested(value, n)
		if fork.ViolationCount() == 0 {
			satisfied++
		}
	}
	if satisfied != c.exactly {
		ec.BuildViolation(c.message).
			SetParameter("value", formatValue(value)).
			SetParameter("limit", c.exactly).
			SetParameter("count", satisfied).
			SetPlural(c.exactly).
			SetCode(govalid.CodeExactlyOf).
			AddViolation()
	}
	return nil
}
