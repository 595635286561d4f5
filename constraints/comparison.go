package constraints

import (
	"fmt"
	"time"

	"github.com/reoring/govalid"
	"github.com/reoring/govalid/internal/access"
)

// Comparison compares the value with a fixed value or with a sibling
// property named by propertyPath. One type serves EqualTo, NotEqualTo,
// LessThan, LessThanOrEqual, GreaterThan and GreaterThanOrEqual; Kind tells
// them apart.
type Comparison struct {
	govalid.Base
	value        any
	propertyPath string
	message      string
}

var comparisonMessages = map[govalid.Kind]string{
	KindEqualTo:            "This value should be equal to {{ compared_value }}.",
	KindNotEqualTo:         "This value should not be equal to {{ compared_value }}.",
	KindLessThan:           "This value should be less than {{ compared_value }}.",
	KindLessThanOrEqual:    "This value should be less than or equal to {{ compared_value }}.",
	KindGreaterThan:        "This value should be greater than {{ compared_value }}.",
	KindGreaterThanOrEqual: "This value should be greater than or equal to {{ compared_value }}.",
}

var comparisonCodes = map[govalid.Kind]string{
	KindEqualTo:            govalid.CodeNotEqual,
	KindNotEqualTo:         govalid.CodeIsEqual,
	KindLessThan:           govalid.CodeTooHigh,
	KindLessThanOrEqual:    govalid.CodeTooHigh,
	KindGreaterThan:        govalid.CodeTooLow,
	KindGreaterThanOrEqual: govalid.CodeTooLow,
}

func newComparison(kind govalid.Kind, spec any) (*Comparison, error) {
	set, err := govalid.ParseOptions(govalid.OptionSpec{
		Kind:    kind,
		Default: "value",
		Allowed: []string{"propertyPath", "message"},
	}, spec)
	if err != nil {
		return nil, err
	}
	c := &Comparison{Base: set.Base()}
	c.value, _ = set.Value("value")
	if c.propertyPath, err = set.String("propertyPath", ""); err != nil {
		return nil, err
	}
	switch {
	case set.Has("value") && c.propertyPath != "":
		return nil, govalid.Definitionf(kind, "propertyPath", "the options \"value\" and \"propertyPath\" cannot be used at the same time")
	case !set.Has("value") && c.propertyPath == "":
		return nil, &govalid.MissingOptionsError{Kind: kind, Options: []string{"value", "propertyPath"}}
	}
	if c.message, err = set.String("message", comparisonMessages[kind]); err != nil {
		return nil, err
	}
	return c, nil
}

// NewEqualTo builds an EqualTo comparison.
func NewEqualTo(spec any) (*Comparison, error) { return newComparison(KindEqualTo, spec) }

// NewNotEqualTo builds a NotEqualTo comparison.
func NewNotEqualTo(spec any) (*Comparison, error) { return newComparison(KindNotEqualTo, spec) }

// NewLessThan builds a LessThan comparison.
func NewLessThan(spec any) (*Comparison, error) { return newComparison(KindLessThan, spec) }

// NewLessThanOrEqual builds a LessThanOrEqual comparison.
func NewLessThanOrEqual(spec any) (*Comparison, error) {
	return newComparison(KindLessThanOrEqual, spec)
}

// NewGreaterThan builds a GreaterThan comparison.
func NewGreaterThan(spec any) (*Comparison, error) { return newComparison(KindGreaterThan, spec) }

// NewGreaterThanOrEqual builds a GreaterThanOrEqual comparison.
func NewGreaterThanOrEqual(spec any) (*Comparison, error) {
	return newComparison(KindGreaterThanOrEqual, spec)
}

func MustEqualTo(spec any) *Comparison            { return must(NewEqualTo(spec)) }
func MustNotEqualTo(spec any) *Comparison         { return must(NewNotEqualTo(spec)) }
func MustLessThan(spec any) *Comparison           { return must(NewLessThan(spec)) }
func MustLessThanOrEqual(spec any) *Comparison    { return must(NewLessThanOrEqual(spec)) }
func MustGreaterThan(spec any) *Comparison        { return must(NewGreaterThan(spec)) }
func MustGreaterThanOrEqual(spec any) *Comparison { return must(NewGreaterThanOrEqual(spec)) }

// Value returns the fixed compared value, nil when propertyPath is used.
func (c *Comparison) Value() any { return c.value }

// PropertyPath returns the path of the compared sibling property.
func (c *Comparison) PropertyPath() string { return c.propertyPath }

// Message returns the message template.
func (c *Comparison) Message() string { return c.message }

func validateComparison(ec *govalid.ExecutionContext, value any, gc govalid.Constraint) error {
	c, ok := gc.(*Comparison)
	if !ok {
		return unexpectedConstraint(gc, KindLessThan)
	}
	if isEmpty(value) {
		return nil
	}
	compared := c.value
	if c.propertyPath != "" {
		obj := ec.Object()
		if obj == nil {
			obj = ec.Root()
		}
		v, found := access.Lookup(obj, c.propertyPath)
		if !found {
			return fmt.Errorf("invalid property path %q for %s", c.propertyPath, access.TypeName(obj))
		}
		compared = v
	}
	value, compared = coerceTimes(value, compared)

	var pass bool
	switch c.Kind() {
	case KindEqualTo:
		pass = equalValues(value, compared)
	case KindNotEqualTo:
		pass = !equalValues(value, compared)
	default:
		if access.IsNil(compared) {
			return nil
		}
		cmp, ok := compare(value, compared)
		if !ok {
			return govalid.UnexpectedValue(value, typeOf(compared))
		}
		switch c.Kind() {
		case KindLessThan:
			pass = cmp < 0
		case KindLessThanOrEqual:
			pass = cmp <= 0
		case KindGreaterThan:
			pass = cmp > 0
		case KindGreaterThanOrEqual:
			pass = cmp >= 0
		default:
			return unexpectedConstraint(gc, KindLessThan)
		}
	}
	if pass {
		return nil
	}
	b := ec.BuildViolation(c.message).
		SetParameter("value", formatValue(value)).
		SetParameter("compared_value", formatValue(compared)).
		SetParameter("compared_value_type", typeOf(compared)).
		SetCode(comparisonCodes[c.Kind()])
	if c.propertyPath != "" {
		b.SetParameter("compared_value_path", c.propertyPath)
	}
	b.AddViolation()
	return nil
}

// coerceTimes parses the string side of a time/string pair so that dates
// can be compared with literals such as "2024-01-31".
func coerceTimes(a, b any) (any, any) {
	da, _ := deref(a)
	db, _ := deref(b)
	if _, ok := da.(time.Time); ok {
		if s, ok := db.(string); ok {
			if t, ok := parseTime(s); ok {
				return da, t
			}
		}
	}
	if _, ok := db.(time.Time); ok {
		if s, ok := da.(string); ok {
			if t, ok := parseTime(s); ok {
				return t, db
			}
		}
	}
	return a, b
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.DateTime, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Range requires a number or time between min and max (inclusive). Either
// bound may be omitted, not both.
type Range struct {
	govalid.Base
	min, max                                  any
	notInRangeMessage, minMessage, maxMessage string
}

var rangeSpec = govalid.OptionSpec{
	Kind:    KindRange,
	Allowed: []string{"min", "max", "notInRangeMessage", "minMessage", "maxMessage"},
}

// NewRange builds a Range constraint.
func NewRange(spec any) (*Range, error) {
	set, err := govalid.ParseOptions(rangeSpec, spec)
	if err != nil {
		return nil, err
	}
	c := &Range{Base: set.Base()}
	c.min, _ = set.Value("min")
	c.max, _ = set.Value("max")
	if c.min == nil && c.max == nil {
		return nil, &govalid.MissingOptionsError{Kind: KindRange, Options: []string{"min", "max"}}
	}
	for name, bound := range map[string]any{"min": c.min, "max": c.max} {
		if bound == nil {
			continue
		}
		if _, ok := asFloat(bound); ok {
			continue
		}
		if _, ok := bound.(time.Time); ok {
			continue
		}
		return nil, govalid.Definitionf(KindRange, name, "expected a number or time.Time, got %T", bound)
	}
	if c.min != nil && c.max != nil {
		if cmp, ok := compare(c.min, c.max); !ok || cmp > 0 {
			return nil, govalid.Definitionf(KindRange, "max", "must be comparable with and not lower than min")
		}
	}
	if c.notInRangeMessage, err = set.String("notInRangeMessage", "This value should be between {{ min }} and {{ max }}."); err != nil {
		return nil, err
	}
	if c.minMessage, err = set.String("minMessage", "This value should be {{ limit }} or more."); err != nil {
		return nil, err
	}
	if c.maxMessage, err = set.String("maxMessage", "This value should be {{ limit }} or less."); err != nil {
		return nil, err
	}
	return c, nil
}

// MustRange is like NewRange but panics on a definition error.
func MustRange(spec any) *Range { return must(NewRange(spec)) }

func validateRange(ec *govalid.ExecutionContext, value any, gc govalid.Constraint) error {
	c, ok := gc.(*Range)
	if !ok {
		return unexpectedConstraint(gc, KindRange)
	}
	if isEmpty(value) {
		return nil
	}
	bound := c.min
	if bound == nil {
		bound = c.max
	}
	if _, ok := compare(value, bound); !ok {
		return govalid.UnexpectedValue(value, "numeric")
	}
	tooLow := c.min != nil && cmpOf(value, c.min) < 0
	tooHigh := c.max != nil && cmpOf(value, c.max) > 0
	switch {
	case !tooLow && !tooHigh:
		return nil
	case c.min != nil && c.max != nil:
		ec.BuildViolation(c.notInRangeMessage).
			SetParameter("value", formatValue(value)).
			SetParameter("min", formatValue(c.min)).
			SetParameter("max", formatValue(c.max)).
			SetCode(govalid.CodeNotInRange).
			AddViolation()
	case tooLow:
		ec.BuildViolation(c.minMessage).
			SetParameter("value", formatValue(value)).
			SetParameter("limit", formatValue(c.min)).
			SetCode(govalid.CodeTooLow).
			AddViolation()
	default:
		ec.BuildViolation(c.maxMessage).
			SetParameter("value", formatValue(value)).
			SetParameter("limit", formatValue(c.max)).
			SetCode(govalid.CodeTooHigh).
			AddViolation()
	}
	return nil
}

func cmpOf(a, b any) int {
	c, _ := compare(a, b)
	return c
}
