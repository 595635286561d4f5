package constraints

import (
	"github.com/reoring/govalid"
	"github.com/reoring/govalid/internal/access"
)

// CallbackFunc is user validation logic with full access to the execution
// context. It records violations through ec and returns an error only for
// failures that are not violations.
type CallbackFunc func(ec *govalid.ExecutionContext, value any) error

// Callback runs a CallbackFunc. Unlike other leaves it is called for nil
// values too.
type Callback struct {
	govalid.Base
	fn CallbackFunc
}

var callbackSpec = govalid.OptionSpec{
	Kind:     KindCallback,
	Default:  "callback",
	Required: []string{"callback"},
}

// NewCallback builds a Callback constraint. A bare function means callback.
func NewCallback(spec any) (*Callback, error) {
	set, err := govalid.ParseOptions(callbackSpec, spec)
	if err != nil {
		return nil, err
	}
	raw, _ := set.Value("callback")
	var fn CallbackFunc
	switch f := raw.(type) {
	case CallbackFunc:
		fn = f
	case func(ec *govalid.ExecutionContext, value any) error:
		fn = f
	default:
		return nil, govalid.Definitionf(KindCallback, "callback", "expected CallbackFunc, got %T", raw)
	}
	return &Callback{Base: set.Base(), fn: fn}, nil
}

// MustCallback is like NewCallback but panics on a definition error.
func MustCallback(spec any) *Callback { return must(NewCallback(spec)) }

func validateCallback(ec *govalid.ExecutionContext, value any, gc govalid.Constraint) error {
	c, ok := gc.(*Callback)
	if !ok {
		return unexpectedConstraint(gc, KindCallback)
	}
	return c.fn(ec, value)
}

// Valid marks a property for cascading: the value is validated against its
// own metadata. Without explicit groups it becomes a cascade flag of the
// property; with groups it cascades only while one of them is validated. It
// cannot be nested in other constraints.
type Valid struct {
	govalid.Base
	traverse bool
}

var validSpec = govalid.OptionSpec{Kind: KindValid, Allowed: []string{"traverse"}}

// NewValid builds a Valid marker.
func NewValid(spec any) (*Valid, error) {
	set, err := govalid.ParseOptions(validSpec, spec)
	if err != nil {
		return nil, err
	}
	c := &Valid{Base: set.Base()}
	if c.traverse, err = set.Bool("traverse", true); err != nil {
		return nil, err
	}
	return c, nil
}

// MustValid is like NewValid but panics on a definition error.
func MustValid(spec any) *Valid { return must(NewValid(spec)) }

// IsCascade implements govalid.Cascader.
func (c *Valid) IsCascade() bool { return true }

// Traverse reports whether collections are walked element by element.
func (c *Valid) Traverse() bool { return c.traverse }

func validateValid(ec *govalid.ExecutionContext, value any, gc govalid.Constraint) error {
	c, ok := gc.(*Valid)
	if !ok {
		return unexpectedConstraint(gc, KindValid)
	}
	if access.IsNil(value) {
		return nil
	}
	if !c.traverse && access.IsCollection(value) {
		return nil
	}
	ec.Validator().Validate(value, nil, ec.Group())
	return nil
}
