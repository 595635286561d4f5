// Package constraints holds the built-in constraint kinds and their
// validators. Constraints are immutable values built once, usually while
// declaring metadata, and shared across validation runs.
package constraints

import "github.com/reoring/govalid"

// Built-in constraint kinds.
const (
	KindNotNull            govalid.Kind = "NotNull"
	KindIsNull             govalid.Kind = "IsNull"
	KindNotBlank           govalid.Kind = "NotBlank"
	KindBlank              govalid.Kind = "Blank"
	KindLength             govalid.Kind = "Length"
	KindCount              govalid.Kind = "Count"
	KindRange              govalid.Kind = "Range"
	KindEqualTo            govalid.Kind = "EqualTo"
	KindNotEqualTo         govalid.Kind = "NotEqualTo"
	KindLessThan           govalid.Kind = "LessThan"
	KindLessThanOrEqual    govalid.Kind = "LessThanOrEqual"
	KindGreaterThan        govalid.Kind = "GreaterThan"
	KindGreaterThanOrEqual govalid.Kind = "GreaterThanOrEqual"
	KindRegex              govalid.Kind = "Regex"
	KindChoice             govalid.Kind = "Choice"
	KindType               govalid.Kind = "Type"
	KindUuid               govalid.Kind = "Uuid"
	KindCallback           govalid.Kind = "Callback"
	KindValid              govalid.Kind = "Valid"

	KindAll          govalid.Kind = "All"
	KindAny          govalid.Kind = "Any"
	KindAtLeastOneOf govalid.Kind = "AtLeastOneOf"
	KindSequentially govalid.Kind = "Sequentially"
	KindCompound     govalid.Kind = "Compound"
	KindCollection   govalid.Kind = "Collection"
	KindRequired     govalid.Kind = "Required"
	KindOptional     govalid.Kind = "Optional"
	KindExactly      govalid.Kind = "Exactly"
	KindBefore       govalid.Kind = "Before"
)

// Registry returns a registry holding the validator of every built-in kind.
// Each call returns a new registry, so callers may add their own kinds.
func Registry() *govalid.ValidatorRegistry {
	r := govalid.NewValidatorRegistry()
	r.RegisterFunc(KindNotNull, validateNotNull)
	r.RegisterFunc(KindIsNull, validateIsNull)
	r.RegisterFunc(KindNotBlank, validateNotBlank)
	r.RegisterFunc(KindBlank, validateBlank)
	r.RegisterFunc(KindLength, validateLength)
	r.RegisterFunc(KindCount, validateCount)
	r.RegisterFunc(KindRange, validateRange)
	for _, k := range []govalid.Kind{KindEqualTo, KindNotEqualTo, KindLessThan, KindLessThanOrEqual, KindGreaterThan, KindGreaterThanOrEqual} {
		r.RegisterFunc(k, validateComparison)
	}
	r.RegisterFunc(KindRegex, validateRegex)
	r.RegisterFunc(KindChoice, validateChoice)
	r.RegisterFunc(KindType, validateType)
	r.RegisterFunc(KindUuid, validateUuid)
	r.RegisterFunc(KindCallback, validateCallback)
	r.RegisterFunc(KindValid, validateValid)

	r.RegisterFunc(KindAll, validateAll)
	r.RegisterFunc(KindAny, validateAny)
	r.RegisterFunc(KindAtLeastOneOf, validateAtLeastOneOf)
	r.RegisterFunc(KindSequentially, validateSequentially)
	r.RegisterFunc(KindCompound, validateCompound)
	r.RegisterFunc(KindCollection, validateCollection)
	r.RegisterFunc(KindExactly, validateExactly)
	return r
}

// NewValidator returns a govalid.Validator wired with Registry. Options are
// applied after the registry, so WithRegistry still overrides it.
func NewValidator(opts ...govalid.Option) *govalid.Validator {
	all := append([]govalid.Option{govalid.WithRegistry(Registry())}, opts...)
	return govalid.New(all...)
}

func must[T any](c T, err error) T {
	if err != nil {
		panic(err)
	}
	return c
}

func unexpectedConstraint(c govalid.Constraint, want govalid.Kind) error {
	return &govalid.UnexpectedConstraintError{Got: c, Expected: want}
}
