package govalid

import "sort"

// ViolationBuilder assembles a violation step by step. Nothing is recorded
// until AddViolation is called.
type ViolationBuilder struct {
	ec       *ExecutionContext
	template string
	params   Params
	code     string
	plural   *int
	invalid  any
	sub      string
	cause    error
}

// SetParameter binds {{ name }} to value.
func (b *ViolationBuilder) SetParameter(name string, value any) *ViolationBuilder {
	b.params = b.params.With(name, value)
	return b
}

// SetParameters binds every entry of params.
func (b *ViolationBuilder) SetParameters(params Params) *ViolationBuilder {
	for _, p := range params {
		b.params = b.params.With(p.Name, p.Value)
	}
	return b
}

// SetCode sets the machine-readable code.
func (b *ViolationBuilder) SetCode(code string) *ViolationBuilder {
	b.code = code
	return b
}

// SetPlural sets the count used to pick the plural form of the message.
func (b *ViolationBuilder) SetPlural(n int) *ViolationBuilder {
	b.plural = &n
	return b
}

// SetInvalidValue overrides the reported value, which defaults to the value
// under validation.
func (b *ViolationBuilder) SetInvalidValue(v any) *ViolationBuilder {
	b.invalid = v
	return b
}

// AtPath records the violation below the current path, e.g. "[name]".
func (b *ViolationBuilder) AtPath(sub string) *ViolationBuilder {
	b.sub = AppendPath(b.sub, sub)
	return b
}

// SetCause attaches the underlying error, if any.
func (b *ViolationBuilder) SetCause(err error) *ViolationBuilder {
	b.cause = err
	return b
}

// AddViolation records the violation with the path and group current at this
// moment.
func (b *ViolationBuilder) AddViolation() {
	ec := b.ec
	params := b.params
	node := ec.object
	if node == nil {
		node = ec.value
	}
	for _, supply := range ec.run.suppliers {
		extra := supply(ec.run.root, node)
		names := make([]string, 0, len(extra))
		for name := range extra {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if _, set := params.Get(name); !set {
				params = params.With(name, extra[name])
			}
		}
	}
	ec.append(Violation{
		Template:     b.template,
		Message:      b.template,
		Params:       params,
		InvalidValue: b.invalid,
		Path:         AppendPath(ec.path, b.sub),
		Code:         b.code,
		Plural:       b.plural,
		Root:         ec.run.root,
		Constraint:   ec.constraint,
		Group:        ec.group,
		Cause:        b.cause,
	})
}
