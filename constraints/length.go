package constraints

import (
	"unicode/utf8"

	"github.com/reoring/govalid"
	"github.com/reoring/govalid/internal/access"
)

// bounds holds the min/max/exactly options shared by Length and Count.
type bounds struct {
	min, max, exactly       int
	hasMin, hasMax, isExact bool
}

func parseBounds(kind govalid.Kind, set govalid.OptionSet) (bounds, error) {
	var b bounds
	var err error
	if b.min, b.hasMin, err = set.Int("min"); err != nil {
		return b, err
	}
	if b.max, b.hasMax, err = set.Int("max"); err != nil {
		return b, err
	}
	if b.exactly, b.isExact, err = set.Int("exactly"); err != nil {
		return b, err
	}
	if b.isExact && (b.hasMin || b.hasMax) {
		return b, govalid.Definitionf(kind, "exactly", "cannot be combined with min or max")
	}
	if b.isExact {
		b.min, b.max, b.hasMin, b.hasMax = b.exactly, b.exactly, true, true
	}
	if !b.hasMin && !b.hasMax {
		return b, &govalid.MissingOptionsError{Kind: kind, Options: []string{"min", "max"}}
	}
	if b.hasMin && b.min < 0 {
		return b, govalid.Definitionf(kind, "min", "must not be negative")
	}
	if b.hasMin && b.hasMax && b.min > b.max {
		return b, govalid.Definitionf(kind, "max", "must be greater than or equal to min")
	}
	return b, nil
}

// Length checks the character count of a string.
type Length struct {
	govalid.Base
	bounds
	minMessage, maxMessage, exactMessage string
}

var lengthSpec = govalid.OptionSpec{
	Kind:    KindLength,
	Default: "exactly",
	Allowed: []string{"min", "max", "minMessage", "maxMessage", "exactMessage"},
}

// NewLength builds a Length constraint. A bare integer means exactly.
func NewLength(spec any) (*Length, error) {
	set, err := govalid.ParseOptions(lengthSpec, spec)
	if err != nil {
		return nil, err
	}
	b, err := parseBounds(KindLength, set)
	if err != nil {
		return nil, err
	}
	c := &Length{Base: set.Base(), bounds: b}
	if c.minMessage, err = set.String("minMessage", "This value is too short. It should have {{ limit }} character or more.|This value is too short. It should have {{ limit }} characters or more."); err != nil {
		return nil, err
	}
	if c.maxMessage, err = set.String("maxMessage", "This value is too long. It should have {{ limit }} character or less.|This value is too long. It should have {{ limit }} characters or less."); err != nil {
		return nil, err
	}
	if c.exactMessage, err = set.String("exactMessage", "This value should have exactly {{ limit }} character.|This value should have exactly {{ limit }} characters."); err != nil {
		return nil, err
	}
	return c, nil
}

// MustLength is like NewLength but panics on a definition error.
func MustLength(spec any) *Length { return must(NewLength(spec)) }

// Min returns the lower bound, if any.
func (c *Length) Min() (int, bool) { return c.min, c.hasMin }

// Max returns the upper bound, if any.
func (c *Length) Max() (int, bool) { return c.max, c.hasMax }

func validateLength(ec *govalid.ExecutionContext, value any, gc govalid.Constraint) error {
	c, ok := gc.(*Length)
	if !ok {
		return unexpectedConstraint(gc, KindLength)
	}
	if isEmpty(value) {
		return nil
	}
	s, ok := asString(value)
	if !ok {
		return govalid.UnexpectedValue(value, "string")
	}
	n := utf8.RuneCountInString(s)
	checkBounds(ec, c.bounds, n, formatValue(s), c.minMessage, c.maxMessage, c.exactMessage,
		govalid.CodeTooShort, govalid.CodeTooLong, govalid.CodeNotEqualLen)
	return nil
}

func checkBounds(ec *govalid.ExecutionContext, b bounds, n int, shown string, minMsg, maxMsg, exactMsg, lowCode, highCode, exactCode string) {
	var (
		msg, code string
		limit     int
	)
	switch {
	case b.hasMax && n > b.max:
		msg, code, limit = maxMsg, highCode, b.max
	case b.hasMin && n < b.min:
		msg, code, limit = minMsg, lowCode, b.min
	default:
		return
	}
	if b.isExact {
		msg, code = exactMsg, exactCode
	}
	ec.BuildViolation(msg).
		SetParameter("value", shown).
		SetParameter("limit", limit).
		SetPlural(limit).
		SetCode(code).
		AddViolation()
}

// Count checks the number of elements of a slice, array or map.
type Count struct {
	govalid.Base
	bounds
	minMessage, maxMessage, exactMessage string
}

var countSpec = govalid.OptionSpec{
	Kind:    KindCount,
	Default: "exactly",
	Allowed: []string{"min", "max", "minMessage", "maxMessage", "exactMessage"},
}

// NewCount builds a Count constraint. A bare integer means exactly.
func NewCount(spec any) (*Count, error) {
	set, err := govalid.ParseOptions(countSpec, spec)
	if err != nil {
		return nil, err
	}
	b, err := parseBounds(KindCount, set)
	if err != nil {
		return nil, err
	}
	c := &Count{Base: set.Base(), bounds: b}
	if c.minMessage, err = set.String("minMessage", "This collection should contain {{ limit }} element or more.|This collection should contain {{ limit }} elements or more."); err != nil {
		return nil, err
	}
	if c.maxMessage, err = set.String("maxMessage", "This collection should contain {{ limit }} element or less.|This collection should contain {{ limit }} elements or less."); err != nil {
		return nil, err
	}
	if c.exactMessage, err = set.String("exactMessage", "This collection should contain exactly {{ limit }} element.|This collection should contain exactly {{ limit }} elements."); err != nil {
		return nil, err
	}
	return c, nil
}

// MustCount is like NewCount but panics on a definition error.
func MustCount(spec any) *Count { return must(NewCount(spec)) }

func validateCount(ec *govalid.ExecutionContext, value any, gc govalid.Constraint) error {
	c, ok := gc.(*Count)
	if !ok {
		return unexpectedConstraint(gc, KindCount)
	}
	if isEmpty(value) {
		return nil
	}
	n, ok := access.Len(value)
	if !ok {
		return govalid.UnexpectedValue(value, "countable")
	}
	checkBounds(ec, c.bounds, n, formatValue(value), c.minMessage, c.maxMessage, c.exactMessage,
		govalid.CodeTooFew, govalid.CodeTooMany, govalid.CodeNotEqualCount)
	return nil
}
