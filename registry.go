package govalid

import (
	"fmt"
	"sort"
	"sync"
)

// ConstraintValidator evaluates one constraint against one value and records
// violations on ec. Returning an *UnexpectedValueError marks the value as
// having the wrong type; any other error is a run error.
type ConstraintValidator interface {
	Validate(ec *ExecutionContext, value any, c Constraint) error
}

// ValidatorFunc adapts a function to ConstraintValidator.
type ValidatorFunc func(ec *ExecutionContext, value any, c Constraint) error

func (f ValidatorFunc) Validate(ec *ExecutionContext, value any, c Constraint) error {
	return f(ec, value, c)
}

// Registry resolves the validator of a constraint.
type Registry interface {
	Resolve(c Constraint) (ConstraintValidator, error)
}

// ValidatorRegistry maps constraint kinds to validators. A constraint that
// implements Redirector is resolved by its ValidatedBy kind.
type ValidatorRegistry struct {
	mu     sync.RWMutex
	byKind map[Kind]ConstraintValidator
}

// NewValidatorRegistry returns an empty registry.
func NewValidatorRegistry() *ValidatorRegistry {
	return &ValidatorRegistry{byKind: make(map[Kind]ConstraintValidator)}
}

// Register binds kind to v, replacing any earlier binding.
func (r *ValidatorRegistry) Register(kind Kind, v ConstraintValidator) *ValidatorRegistry {
	r.mu.Lock()
	r.byKind[kind] = v
	r.mu.Unlock()
	return r
}

// RegisterFunc binds kind to fn.
func (r *ValidatorRegistry) RegisterFunc(kind Kind, fn func(ec *ExecutionContext, value any, c Constraint) error) *ValidatorRegistry {
	return r.Register(kind, ValidatorFunc(fn))
}

// Resolve implements Registry.
func (r *ValidatorRegistry) Resolve(c Constraint) (ConstraintValidator, error) {
	kind := validatedBy(c)
	r.mu.RLock()
	v, ok := r.byKind[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w for constraint %q", ErrNoValidator, kind)
	}
	return v, nil
}

// Kinds lists the registered kinds in sorted order.
func (r *ValidatorRegistry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Kind, 0, len(r.byKind))
	for k := range r.byKind {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy, handy for extending a shared registry.
func (r *ValidatorRegistry) Clone() *ValidatorRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := NewValidatorRegistry()
	for k, v := range r.byKind {
		out.byKind[k] = v
	}
	return out
}
