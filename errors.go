package govalid

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDefinition matches every construction-time definition error
	// (DefinitionError, MissingOptionsError, GroupDefinitionError).
	ErrDefinition = errors.New("govalid: invalid constraint definition")

	// ErrCannotValidate is returned when a value is neither an object nor a
	// collection and no constraints were given.
	ErrCannotValidate = errors.New("govalid: cannot validate value without constraints")

	// ErrNoValidator is returned by a Registry that has nothing for a kind.
	ErrNoValidator = errors.New("govalid: no validator registered")
)

// DefinitionError reports a malformed constraint option. It is returned by
// constraint constructors and never by Validate.
type DefinitionError struct {
	Kind   Kind
	Option string
	Reason string
}

func (e *DefinitionError) Error() string {
	if e.Option == "" {
		return fmt.Sprintf("govalid: constraint %q: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("govalid: constraint %q option %q: %s", e.Kind, e.Option, e.Reason)
}

func (e *DefinitionError) Is(target error) bool { return target == ErrDefinition }

// Definitionf builds a DefinitionError with a formatted reason.
func Definitionf(kind Kind, option, format string, args ...any) error {
	return &DefinitionError{Kind: kind, Option: option, Reason: fmt.Sprintf(format, args...)}
}

// MissingOptionsError reports required options that were not given.
type MissingOptionsError struct {
	Kind    Kind
	Options []string
}

func (e *MissingOptionsError) Error() string {
	return fmt.Sprintf("govalid: constraint %q: missing required options %s", e.Kind, strings.Join(quoteAll(e.Options), ", "))
}

func (e *MissingOptionsError) Is(target error) bool { return target == ErrDefinition }

// GroupDefinitionError reports an invalid group sequence declaration.
type GroupDefinitionError struct {
	Type   string
	Reason string
}

func (e *GroupDefinitionError) Error() string {
	if e.Type == "" {
		return "govalid: group definition: " + e.Reason
	}
	return fmt.Sprintf("govalid: group definition for %s: %s", e.Type, e.Reason)
}

func (e *GroupDefinitionError) Is(target error) bool { return target == ErrDefinition }

// UnexpectedValueError is returned by a ConstraintValidator that cannot handle
// the type of the value it was given. The engine turns it into an
// invalid_type violation and carries on with the remaining constraints.
type UnexpectedValueError struct {
	Value    any
	Expected string
}

func (e *UnexpectedValueError) Error() string {
	return fmt.Sprintf("govalid: expected value of type %s, got %T", e.Expected, e.Value)
}

// UnexpectedValue is shorthand for &UnexpectedValueError{...}.
func UnexpectedValue(value any, expected string) error {
	return &UnexpectedValueError{Value: value, Expected: expected}
}

// UnexpectedConstraintError is returned when a validator is handed a
// constraint kind it does not implement. It is a wiring mistake, so the engine
// reports it as a run error rather than a violation.
type UnexpectedConstraintError struct {
	Got      Constraint
	Expected Kind
}

func (e *UnexpectedConstraintError) Error() string {
	return fmt.Sprintf("govalid: validator for %q received constraint %T", e.Expected, e.Got)
}

// NoSuchMetadataError is returned when cascading reaches a value that cannot
// carry metadata, such as a scalar.
type NoSuchMetadataError struct {
	Type string
	Path string
}

func (e *NoSuchMetadataError) Error() string {
	return fmt.Sprintf("govalid: cannot cascade into value of type %s at %q", e.Type, e.Path)
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
