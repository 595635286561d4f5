package govalid

import (
	"errors"
	"fmt"
	"strings"
)

// Violation codes shared by the engine and the built-in constraints. Codes are
// part of the public contract: callers branch on them, so they never change.
const (
	CodeInvalidType   = "invalid_type"
	CodeIsNull        = "is_null"
	CodeNotNull       = "not_null"
	CodeIsBlank       = "is_blank"
	CodeNotBlank      = "not_blank"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodeNotEqualLen   = "not_equal_length"
	CodeTooLow        = "too_low"
	CodeTooHigh       = "too_high"
	CodeNotInRange    = "not_in_range"
	CodeTooFew        = "too_few"
	CodeTooMany       = "too_many"
	CodeNotEqual      = "not_equal"
	CodeIsEqual       = "is_equal"
	CodeNotEqualCount = "not_equal_count"
	CodePattern       = "pattern"
	CodeNoSuchChoice  = "no_such_choice"
	CodeInvalidFormat = "invalid_format"
	CodeMissingField  = "missing_field"
	CodeNoSuchField   = "no_such_field"
	CodeAtLeastOneOf  = "at_least_one_of"
	CodeAnyOf         = "any_of"
	CodeExactlyOf     = "exactly_of"
	CodeCallback      = "callback"
)

// Param is one placeholder binding of a violation message, for example
// {{ limit }} -> 10.
type Param struct {
	Name  string
	Value any
}

// Params keeps placeholder bindings in insertion order.
type Params []Param

// Get returns the value bound to name.
func (p Params) Get(name string) (any, bool) {
	for _, it := range p {
		if it.Name == name {
			return it.Value, true
		}
	}
	return nil, false
}

// With returns a copy of p where name is bound to value. An existing binding
// keeps its position.
func (p Params) With(name string, value any) Params {
	out := make(Params, len(p), len(p)+1)
	copy(out, p)
	for i := range out {
		if out[i].Name == name {
			out[i].Value = value
			return out
		}
	}
	return append(out, Param{Name: name, Value: value})
}

// Map flattens the bindings into a map, mostly for serialization.
func (p Params) Map() map[string]any {
	if len(p) == 0 {
		return nil
	}
	m := make(map[string]any, len(p))
	for _, it := range p {
		m[it.Name] = it.Value
	}
	return m
}

// Violation records one failed constraint evaluation.
type Violation struct {
	// Template is the untranslated message template, e.g.
	// "This value is too long. It should have {{ limit }} characters or less.".
	Template string
	// Message is the rendered text. Without a Renderer it equals Template.
	Message string
	Params  Params
	// InvalidValue is the value that failed.
	InvalidValue any
	// Path is the property path from the root, e.g. "address.lines[1]".
	Path string
	Code string
	// Plural, when set, selects the plural form of Template.
	Plural     *int
	Root       any
	Constraint Constraint
	// Group is the validation group that was active when the violation was
	// recorded.
	Group string
	Cause error
}

func (v Violation) String() string {
	msg := v.Message
	if msg == "" {
		msg = v.Template
	}
	if v.Path == "" {
		return msg
	}
	return v.Path + ": " + msg
}

// ViolationList is the ordered result of one validation run. It implements
// error so it can travel through error returns.
type ViolationList []Violation

// Error summarizes the first few violations.
func (vl ViolationList) Error() string {
	if len(vl) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(vl)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := vl[i]
		code := it.Code
		if code == "" {
			code = "violation"
		}
		path := it.Path
		if path == "" {
			path = "(root)"
		}
		fmt.Fprintf(b, "%s at %s", code, path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Len reports the number of violations.
func (vl ViolationList) Len() int { return len(vl) }

// Has reports whether at least one violation was recorded at path.
func (vl ViolationList) Has(path string) bool {
	for _, v := range vl {
		if v.Path == path {
			return true
		}
	}
	return false
}

// At returns the violations recorded at path, in detection order.
func (vl ViolationList) At(path string) ViolationList {
	var out ViolationList
	for _, v := range vl {
		if v.Path == path {
			out = append(out, v)
		}
	}
	return out
}

// WithCode returns the violations carrying code.
func (vl ViolationList) WithCode(code string) ViolationList {
	var out ViolationList
	for _, v := range vl {
		if v.Code == code {
			out = append(out, v)
		}
	}
	return out
}

// Codes lists the codes in detection order.
func (vl ViolationList) Codes() []string {
	out := make([]string, 0, len(vl))
	for _, v := range vl {
		out = append(out, v.Code)
	}
	return out
}

// Paths lists the distinct paths in order of first appearance.
func (vl ViolationList) Paths() []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range vl {
		if !seen[v.Path] {
			seen[v.Path] = true
			out = append(out, v.Path)
		}
	}
	return out
}

// Merge returns vl followed by other.
func (vl ViolationList) Merge(other ViolationList) ViolationList {
	if len(other) == 0 {
		return vl
	}
	out := make(ViolationList, 0, len(vl)+len(other))
	out = append(out, vl...)
	return append(out, other...)
}

// Err returns vl as an error, or nil when it is empty.
func (vl ViolationList) Err() error {
	if len(vl) == 0 {
		return nil
	}
	return vl
}

// AsViolations extracts a ViolationList from err using errors.As.
func AsViolations(err error) (ViolationList, bool) {
	if err == nil {
		return nil, false
	}
	var vl ViolationList
	if errors.As(err, &vl) {
		return vl, true
	}
	return nil, false
}
