package govalid

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// ErrServiceUnavailable is returned by RequireService when the run context
// carries no service of the requested type.
var ErrServiceUnavailable = errors.New("govalid: service not provided")

// serviceSlot keys one service type in a context.Context.
type serviceSlot[T any] struct{}

// WithService returns a copy of ctx carrying svc. Pass the result to
// Validate; constraint validators read it back through
// ExecutionContext.Context, e.g. a Callback checking that a referenced
// record exists.
func WithService[T any](ctx context.Context, svc T) context.Context {
	return context.WithValue(ctx, serviceSlot[T]{}, svc)
}

// Service returns the service of type T carried by ctx.
func Service[T any](ctx context.Context) (svc T, ok bool) {
	svc, ok = ctx.Value(serviceSlot[T]{}).(T)
	return svc, ok
}

// RequireService is Service for validators that cannot work without the
// service. The error wraps ErrServiceUnavailable and, returned from a
// validator, ends up in the run error of Validate.
func RequireService[T any](ctx context.Context) (T, error) {
	svc, ok := Service[T](ctx)
	if !ok {
		return svc, fmt.Errorf("%w: %s", ErrServiceUnavailable, reflect.TypeFor[T]())
	}
	return svc, nil
}
