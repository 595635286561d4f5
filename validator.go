package govalid

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/reoring/govalid/internal/access"
)

// Renderer turns a template and its parameters into display text.
type Renderer interface {
	Render(template string, params Params, plural *int) string
}

// Observer receives the statistics of every finished run.
type Observer interface {
	ObserveRun(stats RunStats)
}

// RunStats summarizes one Validate call. Dispatches counts validator
// invocations per constraint kind; SkippedObjects counts objects not
// re-entered because they were already validated in the same group.
type RunStats struct {
	Duration         time.Duration
	Dispatches       map[Kind]int
	Violations       int
	Codes            map[string]int
	UnexpectedValues int
	SkippedObjects   int
	SequenceAborts   int
	Failed           bool
}

// ObjectInitializer prepares an object before its constraints run. It is
// called once per object per run.
type ObjectInitializer interface {
	Initialize(ctx context.Context, object any)
}

// Validator walks a value graph and validates it against constraints. It is
// safe for concurrent use.
type Validator struct {
	metadata     MetadataProvider
	registry     Registry
	logger       *zap.Logger
	initializers []ObjectInitializer
	renderer     Renderer
	observer     Observer
	resolver     GroupResolver
}

// Option configures a Validator.
type Option func(*Validator)

// WithMetadata sets the metadata provider used for objects validated without
// explicit constraints.
func WithMetadata(p MetadataProvider) Option {
	return func(v *Validator) {
		if p != nil {
			v.metadata = p
		}
	}
}

// WithRegistry sets the validator registry.
func WithRegistry(r Registry) Option {
	return func(v *Validator) {
		if r != nil {
			v.registry = r
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithObjectInitializers adds object initializers.
func WithObjectInitializers(in ...ObjectInitializer) Option {
	return func(v *Validator) { v.initializers = append(v.initializers, in...) }
}

// WithRenderer fills Violation.Message through r.
func WithRenderer(r Renderer) Option {
	return func(v *Validator) { v.renderer = r }
}

// WithObserver reports run statistics to o.
func WithObserver(o Observer) Option {
	return func(v *Validator) { v.observer = o }
}

// New returns a Validator. Without WithRegistry it knows no constraint
// kinds; constraints.NewValidator wires the built-in ones.
func New(opts ...Option) *Validator {
	v := &Validator{
		metadata: NewMetadataStore(),
		registry: NewValidatorRegistry(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateOption configures one Validate call.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	constraints    []Constraint
	hasConstraints bool
	steps          []Step
	path           string
	suppliers      []ParameterSupplier
}

// Constraints validates the value against cs instead of its metadata. An
// empty list is still an explicit list.
func Constraints(cs ...Constraint) ValidateOption {
	return func(c *validateConfig) {
		c.constraints = append(c.constraints, cs...)
		c.hasConstraints = true
	}
}

// Groups adds plain groups to run, in order.
func Groups(names ...string) ValidateOption {
	return func(c *validateConfig) { c.steps = append(c.steps, groupSteps(names)...) }
}

// Sequence adds a group sequence to run.
func Sequence(seq GroupSequence) ValidateOption {
	return func(c *validateConfig) { c.steps = append(c.steps, SequenceStep(seq)) }
}

// AtPath prefixes every violation path with path.
func AtPath(path string) ValidateOption {
	return func(c *validateConfig) { c.path = path }
}

// ParameterSuppliers registers suppliers of extra message parameters.
func ParameterSuppliers(fns ...ParameterSupplier) ValidateOption {
	return func(c *validateConfig) { c.suppliers = append(c.suppliers, fns...) }
}

func buildConfig(opts []ValidateOption) validateConfig {
	var cfg validateConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Validate validates value and returns every violation found. The error is
// non-nil when the run could not be completed as configured (missing
// validator, broken metadata, a validator failure); the violation list is
// complete up to that point either way.
func (v *Validator) Validate(ctx context.Context, value any, opts ...ValidateOption) (ViolationList, error) {
	cfg := buildConfig(opts)
	r, start := v.begin(ctx, value, cfg)
	steps := v.resolver.Resolve(cfg.steps)

	switch {
	case cfg.hasConstraints:
		r.genericNode(value, nil, nil, adhocSet(cfg.constraints), cfg.path, steps, nil)
	case access.IsNil(value):
	default:
		if err := r.cascade(value, cfg.path, steps, true); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrCannotValidate, access.TypeName(value))
		}
	}
	return v.finish(r, start)
}

// ValidateProperty validates one property of object against its metadata.
func (v *Validator) ValidateProperty(ctx context.Context, object any, name string, opts ...ValidateOption) (ViolationList, error) {
	meta, ok := v.metadata.MetadataFor(reflect.TypeOf(object))
	if !ok || !access.IsObject(object) {
		return nil, &NoSuchMetadataError{Type: access.TypeName(object), Path: name}
	}
	cfg := buildConfig(opts)
	r, start := v.begin(ctx, object, cfg)
	steps := v.resolver.Resolve(cfg.steps)
	for _, p := range meta.propertiesNamed(name) {
		pv, err := p.ValueOf(object)
		if err != nil {
			r.fail(err)
			continue
		}
		r.genericNode(pv, object, meta, meta.propertySet(p), AppendPath(cfg.path, name), steps, nil)
	}
	return v.finish(r, start)
}

// ValidatePropertyValue validates value as if it were the property name of
// objectOrType, which is either an object or a reflect.Type.
func (v *Validator) ValidatePropertyValue(ctx context.Context, objectOrType any, name string, value any, opts ...ValidateOption) (ViolationList, error) {
	var (
		t      reflect.Type
		object any
	)
	if rt, ok := objectOrType.(reflect.Type); ok {
		t = rt
	} else {
		t = reflect.TypeOf(objectOrType)
		object = objectOrType
	}
	meta, ok := v.metadata.MetadataFor(t)
	if !ok {
		return nil, &NoSuchMetadataError{Type: fmt.Sprint(t), Path: name}
	}
	cfg := buildConfig(opts)
	root := object
	if root == nil {
		root = value
	}
	r, start := v.begin(ctx, root, cfg)
	steps := v.resolver.Resolve(cfg.steps)
	for _, p := range meta.propertiesNamed(name) {
		r.genericNode(value, object, meta, meta.propertySet(p), AppendPath(cfg.path, name), steps, nil)
	}
	return v.finish(r, start)
}

func (v *Validator) begin(ctx context.Context, root any, cfg validateConfig) (*run, time.Time) {
	if ctx == nil {
		ctx = context.Background()
	}
	return newRun(v, ctx, root, cfg.suppliers), time.Now()
}

func (v *Validator) finish(r *run, start time.Time) (ViolationList, error) {
	out := r.violations
	if v.renderer != nil {
		for i := range out {
			out[i].Message = v.renderer.Render(out[i].Template, out[i].Params, out[i].Plural)
		}
	}
	stats := r.shared.stats
	stats.Duration = time.Since(start)
	stats.Violations = len(out)
	stats.Failed = r.shared.errs != nil
	if len(out) > 0 {
		stats.Codes = make(map[string]int)
		for _, it := range out {
			stats.Codes[it.Code]++
		}
	}
	if v.observer != nil {
		v.observer.ObserveRun(stats)
	}
	v.logger.Debug("validation finished",
		zap.Int("violations", stats.Violations),
		zap.Int("skipped_objects", stats.SkippedObjects),
		zap.Int("sequence_aborts", stats.SequenceAborts),
		zap.Duration("duration", stats.Duration),
		zap.Error(r.shared.errs),
	)
	return out, r.shared.errs
}

func (v *Validator) render(it Violation) string {
	if v.renderer == nil {
		return it.Template
	}
	return v.renderer.Render(it.Template, it.Params, it.Plural)
}
