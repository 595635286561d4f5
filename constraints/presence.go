package constraints

import (
	"reflect"

	"github.com/reoring/govalid"
	"github.com/reoring/govalid/internal/access"
)

// NotNull requires a non-nil value.
type NotNull struct {
	govalid.Base
	message string
}

var notNullSpec = govalid.OptionSpec{Kind: KindNotNull, Allowed: []string{"message"}}

// NewNotNull builds a NotNull constraint. spec may be nil.
func NewNotNull(spec any) (*NotNull, error) {
	set, err := govalid.ParseOptions(notNullSpec, spec)
	if err != nil {
		return nil, err
	}
	msg, err := set.String("message", "This value should not be null.")
	if err != nil {
		return nil, err
	}
	return &NotNull{Base: set.Base(), message: msg}, nil
}

// MustNotNull is like NewNotNull but panics on a definition error.
func MustNotNull(spec any) *NotNull { return must(NewNotNull(spec)) }

func validateNotNull(ec *govalid.ExecutionContext, value any, gc govalid.Constraint) error {
	c, ok := gc.(*NotNull)
	if !ok {
		return unexpectedConstraint(gc, KindNotNull)
	}
	if access.IsNil(value) {
		ec.BuildViolation(c.message).
			SetParameter("value", formatValue(value)).
			SetCode(govalid.CodeIsNull).
			AddViolation()
	}
	return nil
}

// IsNull requires nil.
type IsNull struct {
	govalid.Base
	message string
}

var isNullSpec = govalid.OptionSpec{Kind: KindIsNull, Allowed: []string{"message"}}

// NewIsNull builds an IsNull constraint.
func NewIsNull(spec any) (*IsNull, error) {
	set, err := govalid.ParseOptions(isNullSpec, spec)
	if err != nil {
		return nil, err
	}
	msg, err := set.String("message", "This value should be null.")
	if err != nil {
		return nil, err
	}
	return &IsNull{Base: set.Base(), message: msg}, nil
}

// MustIsNull is like NewIsNull but panics on a definition error.
func MustIsNull(spec any) *IsNull { return must(NewIsNull(spec)) }

func validateIsNull(ec *govalid.ExecutionContext, value any, gc govalid.Constraint) error {
	c, ok := gc.(*IsNull)
	if !ok {
		return unexpectedConstraint(gc, KindIsNull)
	}
	if !access.IsNil(value) {
		ec.BuildViolation(c.message).
			SetParameter("value", formatValue(value)).
			SetCode(govalid.CodeNotNull).
			AddViolation()
	}
	return nil
}

// NotBlank rejects nil, false, empty strings and empty collections. With
// allowNull, nil passes. A normalizer is applied to strings first, typically
// strings.TrimSpace.
type NotBlank struct {
	govalid.Base
	message    string
	allowNull  bool
	normalizer func(string) string
}

var notBlankSpec = govalid.OptionSpec{Kind: KindNotBlank, Allowed: []string{"message", "allowNull", "normalizer"}}

// NewNotBlank builds a NotBlank constraint.
func NewNotBlank(spec any) (*NotBlank, error) {
	set, err := govalid.ParseOptions(notBlankSpec, spec)
	if err != nil {
		return nil, err
	}
	c := &NotBlank{Base: set.Base()}
	if c.message, err = set.String("message", "This value should not be blank."); err != nil {
		return nil, err
	}
	if c.allowNull, err = set.Bool("allowNull", false); err != nil {
		return nil, err
	}
	if raw, ok := set.Value("normalizer"); ok {
		fn, ok := raw.(func(string) string)
		if !ok {
			return nil, govalid.Definitionf(KindNotBlank, "normalizer", "expected func(string) string, got %T", raw)
		}
		c.normalizer = fn
	}
	return c, nil
}

// MustNotBlank is like NewNotBlank but panics on a definition error.
func MustNotBlank(spec any) *NotBlank { return must(NewNotBlank(spec)) }

// AllowNull reports whether nil passes.
func (c *NotBlank) AllowNull() bool { return c.allowNull }

func validateNotBlank(ec *govalid.ExecutionContext, value any, gc govalid.Constraint) error {
	c, ok := gc.(*NotBlank)
	if !ok {
		return unexpectedConstraint(gc, KindNotBlank)
	}
	if c.allowNull && access.IsNil(value) {
		return nil
	}
	if isBlank(value, c.normalizer) {
		ec.BuildViolation(c.message).
			SetParameter("value", formatValue(value)).
			SetCode(govalid.CodeIsBlank).
			AddViolation()
	}
	return nil
}

func isBlank(v any, normalize func(string) string) bool {
	d, ok := deref(v)
	if !ok {
		return true
	}
	if s, ok := asString(d); ok {
		if normalize != nil {
			s = normalize(s)
		}
		return s == ""
	}
	rv := reflect.ValueOf(d)
	switch rv.Kind() {
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	}
	return false
}

// Blank requires nil or "".
type Blank struct {
	govalid.Base
	message string
}

var blankSpec = govalid.OptionSpec{Kind: KindBlank, Allowed: []string{"message"}}

// NewBlank builds a Blank constraint.
func NewBlank(spec any) (*Blank, error) {
	set, err := govalid.ParseOptions(blankSpec, spec)
	if err != nil {
		return nil, err
	}
	msg, err := set.String("message", "This value should be blank.")
	if err != nil {
		return nil, err
	}
	return &Blank{Base: set.Base(), message: msg}, nil
}

// MustBlank is like NewBlank but panics on a definition error.
func MustBlank(spec any) *Blank { return must(NewBlank(spec)) }

func validateBlank(ec *govalid.ExecutionContext, value any, gc govalid.Constraint) error {
	c, ok := gc.(*Blank)
	if !ok {
		return unexpectedConstraint(gc, KindBlank)
	}
	if !isEmpty(value) {
		ec.BuildViolation(c.message).
			SetParameter("value", formatValue(value)).
			SetCode(govalid.CodeNotBlank).
			AddViolation()
	}
	return nil
}
