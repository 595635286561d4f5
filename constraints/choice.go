package constraints

import (
	"github.com/reoring/govalid"
	"github.com/reoring/govalid/internal/access"
)

// Choice requires the value to be one of choices. With multiple the value is
// a collection whose every element must be a choice, optionally bounded by
// min and max selections.
type Choice struct {
	govalid.Base
	choices                                          []any
	multiple                                         bool
	min, max                                         int
	hasMin, hasMax                                   bool
	message, multipleMessage, minMessage, maxMessage string
}

var choiceSpec = govalid.OptionSpec{
	Kind:     KindChoice,
	Default:  "choices",
	Required: []string{"choices"},
	Allowed:  []string{"multiple", "min", "max", "message", "multipleMessage", "minMessage", "maxMessage"},
}

// NewChoice builds a Choice constraint. A bare list means choices.
func NewChoice(spec any) (*Choice, error) {
	set, err := govalid.ParseOptions(choiceSpec, spec)
	if err != nil {
		return nil, err
	}
	c := &Choice{Base: set.Base()}
	if c.choices, err = set.List("choices"); err != nil {
		return nil, err
	}
	if c.multiple, err = set.Bool("multiple", false); err != nil {
		return nil, err
	}
	if c.min, c.hasMin, err = set.Int("min"); err != nil {
		return nil, err
	}
	if c.max, c.hasMax, err = set.Int("max"); err != nil {
		return nil, err
	}
	if (c.hasMin || c.hasMax) && !c.multiple {
		return nil, govalid.Definitionf(KindChoice, "min", "min and max require multiple")
	}
	if c.message, err = set.String("message", "The value you selected is not a valid choice."); err != nil {
		return nil, err
	}
	if c.multipleMessage, err = set.String("multipleMessage", "One or more of the given values is invalid."); err != nil {
		return nil, err
	}
	if c.minMessage, err = set.String("minMessage", "You must select at least {{ limit }} choice.|You must select at least {{ limit }} choices."); err != nil {
		return nil, err
	}
	if c.maxMessage, err = set.String("maxMessage", "You must select at most {{ limit }} choice.|You must select at most {{ limit }} choices."); err != nil {
		return nil, err
	}
	return c, nil
}

// MustChoice is like NewChoice but panics on a definition error.
func MustChoice(spec any) *Choice { return must(NewChoice(spec)) }

// Choices returns a copy of the allowed values.
func (c *Choice) Choices() []any { return append([]any(nil), c.choices...) }

func (c *Choice) contains(v any) bool {
	for _, it := range c.choices {
		if equalValues(v, it) {
			return true
		}
	}
	return false
}

func (c *Choice) choicesParam() string {
	out := ""
	for i, it := range c.choices {
		if i > 0 {
			out += ", "
		}
		out += formatValue(it)
	}
	return out
}

func validateChoice(ec *govalid.ExecutionContext, value any, gc govalid.Constraint) error {
	c, ok := gc.(*Choice)
	if !ok {
		return unexpectedConstraint(gc, KindChoice)
	}
	if isEmpty(value) {
		return nil
	}
	if !c.multiple {
		if !c.contains(value) {
			ec.BuildViolation(c.message).
				SetParameter("value", formatValue(value)).
				SetParameter("choices", c.choicesParam()).
				SetCode(govalid.CodeNoSuchChoice).
				AddViolation()
		}
		return nil
	}
	if !access.IsCollection(value) || access.IsMap(value) {
		return govalid.UnexpectedValue(value, "slice")
	}
	var invalid any
	found := false
	access.Each(value, func(_ any, elem any) {
		if !found && !c.contains(elem) {
			invalid, found = elem, true
		}
	})
	if found {
		ec.BuildViolation(c.multipleMessage).
			SetParameter("value", formatValue(invalid)).
			SetParameter("choices", c.choicesParam()).
			SetInvalidValue(invalid).
			SetCode(govalid.CodeNoSuchChoice).
			AddViolation()
		return nil
	}
	n, _ := access.Len(value)
	switch {
	case c.hasMin && n < c.min:
		ec.BuildViolation(c.minMessage).
			SetParameter("limit", c.min).
			SetPlural(c.min).
			SetCode(govalid.CodeTooFew).
			AddViolation()
	case c.hasMax && n > c.max:
		ec.BuildViolation(c.maxMessage).
			SetParameter("limit", c.max).
			SetPlural(c.max).
			SetCode(govalid.CodeTooMany).
			AddViolation()
	}
	return nil
}
