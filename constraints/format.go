package constraints

import (
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/reoring/govalid"
)

// Regex requires a string to match (or, with match=false, not to match) a
// pattern.
type Regex struct {
	govalid.Base
	pattern *regexp.Regexp
	match   bool
	message string
}

var regexSpec = govalid.OptionSpec{
	Kind:     KindRegex,
	Default:  "pattern",
	Required: []string{"pattern"},
	Allowed:  []string{"match", "message"},
}

// NewRegex builds a Regex constraint. pattern is a string or *regexp.Regexp.
func NewRegex(spec any) (*Regex, error) {
	set, err := govalid.ParseOptions(regexSpec, spec)
	if err != nil {
		return nil, err
	}
	c := &Regex{Base: set.Base()}
	raw, _ := set.Value("pattern")
	switch p := raw.(type) {
	case *regexp.Regexp:
		c.pattern = p
	case string:
		if c.pattern, err = regexp.Compile(p); err != nil {
			return nil, govalid.Definitionf(KindRegex, "pattern", "%v", err)
		}
	default:
		return nil, govalid.Definitionf(KindRegex, "pattern", "expected string or *regexp.Regexp, got %T", raw)
	}
	if c.match, err = set.Bool("match", true); err != nil {
		return nil, err
	}
	if c.message, err = set.String("message", "This value is not valid."); err != nil {
		return nil, err
	}
	return c, nil
}

// MustRegex is like NewRegex but panics on a definition error.
func MustRegex(spec any) *Regex { return must(NewRegex(spec)) }

// Pattern returns the compiled pattern.
func (c *Regex) Pattern() *regexp.Regexp { return c.pattern }

func validateRegex(ec *govalid.ExecutionContext, value any, gc govalid.Constraint) error {
	c, ok := gc.(*Regex)
	if !ok {
		return unexpectedConstraint(gc, KindRegex)
	}
	if isEmpty(value) {
		return nil
	}
	s, ok := asString(value)
	if !ok {
		return govalid.UnexpectedValue(value, "string")
	}
	if c.pattern.MatchString(s) != c.match {
		ec.BuildViolation(c.message).
			SetParameter("value", formatValue(s)).
			SetParameter("pattern", c.pattern.String()).
			SetCode(govalid.CodePattern).
			AddViolation()
	}
	return nil
}

// Uuid requires an RFC 4122 UUID. In strict mode (the default) only the
// canonical hyphenated 36 character form is accepted; versions limits the
// accepted versions.
type Uuid struct {
	govalid.Base
	versions []int
	strict   bool
	message  string
}

var uuidSpec = govalid.OptionSpec{Kind: KindUuid, Allowed: []string{"versions", "strict", "message"}}

// NewUuid builds a Uuid constraint.
func NewUuid(spec any) (*Uuid, error) {
	set, err := govalid.ParseOptions(uuidSpec, spec)
	if err != nil {
		return nil, err
	}
	c := &Uuid{Base: set.Base()}
	versions, err := set.List("versions")
	if err != nil {
		return nil, err
	}
	for _, v := range versions {
		n, ok := asFloat(v)
		if !ok || n < 1 || n > 8 {
			return nil, govalid.Definitionf(KindUuid, "versions", "invalid version %v", v)
		}
		c.versions = append(c.versions, int(n))
	}
	if c.strict, err = set.Bool("strict", true); err != nil {
		return nil, err
	}
	if c.message, err = set.String("message", "This is not a valid UUID."); err != nil {
		return nil, err
	}
	return c, nil
}

// MustUuid is like NewUuid but panics on a definition error.
func MustUuid(spec any) *Uuid { return must(NewUuid(spec)) }

func validateUuid(ec *govalid.ExecutionContext, value any, gc govalid.Constraint) error {
	c, ok := gc.(*Uuid)
	if !ok {
		return unexpectedConstraint(gc, KindUuid)
	}
	if isEmpty(value) {
		return nil
	}
	s, ok := asString(value)
	if !ok {
		return govalid.UnexpectedValue(value, "string")
	}
	if !c.valid(s) {
		ec.BuildViolation(c.message).
			SetParameter("value", formatValue(s)).
			SetCode(govalid.CodeInvalidFormat).
			AddViolation()
	}
	return nil
}

func (c *Uuid) valid(s string) bool {
	if c.strict && (len(s) != 36 || strings.Count(s, "-") != 4) {
		return false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	if c.strict && id.Variant() != uuid.RFC4122 {
		return false
	}
	if len(c.versions) > 0 && !slices.Contains(c.versions, int(id.Version())) {
		return false
	}
	return true
}
