package govalid

import (
	"context"
	"maps"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/reoring/govalid/internal/access"
)

// ParameterSupplier contributes extra message parameters to every violation
// recorded during a run. node is the object that owns the validated value
// (the value itself at the root). Explicit builder parameters win.
type ParameterSupplier func(root, node any) map[string]any

// shared is the part of a run that forks do not copy.
type shared struct {
	errs  error
	stats RunStats
}

// run holds the mutable state of one top-level validation call.
type run struct {
	v         *Validator
	ctx       context.Context
	root      any
	logger    *zap.Logger
	suppliers []ParameterSupplier

	violations  ViolationList
	groupsDone  map[nodeKey]map[string]bool
	entered     map[access.Key]map[string]bool
	constraints map[dedupKey]bool
	initialized map[nodeKey]bool

	shared *shared
}

func newRun(v *Validator, ctx context.Context, root any, suppliers []ParameterSupplier) *run {
	return &run{
		v:           v,
		ctx:         ctx,
		root:        root,
		logger:      v.logger,
		suppliers:   suppliers,
		groupsDone:  make(map[nodeKey]map[string]bool),
		entered:     make(map[access.Key]map[string]bool),
		constraints: make(map[dedupKey]bool),
		initialized: make(map[nodeKey]bool),
		shared:      &shared{stats: RunStats{Dispatches: make(map[Kind]int)}},
	}
}

func (r *run) fork() *run {
	groups := make(map[nodeKey]map[string]bool, len(r.groupsDone))
	for k, v := range r.groupsDone {
		groups[k] = maps.Clone(v)
	}
	entered := make(map[access.Key]map[string]bool, len(r.entered))
	for k, v := range r.entered {
		entered[k] = maps.Clone(v)
	}
	return &run{
		v:           r.v,
		ctx:         r.ctx,
		root:        r.root,
		logger:      r.logger,
		suppliers:   r.suppliers,
		groupsDone:  groups,
		entered:     entered,
		constraints: maps.Clone(r.constraints),
		initialized: maps.Clone(r.initialized),
		shared:      r.shared,
	}
}

func (r *run) fail(err error) {
	r.shared.errs = multierr.Append(r.shared.errs, err)
}

// ExecutionContext is the cursor handed to a ConstraintValidator: the value
// under validation, where it sits in the graph, the active group and
// constraint, and the violation accumulator of the run.
type ExecutionContext struct {
	run        *run
	value      any
	object     any
	meta       *TypeMetadata
	path       string
	group      string
	typeGroup  string
	constraint Constraint
}

// Context returns the context.Context of the run. Services registered with
// WithService travel in it.
func (ec *ExecutionContext) Context() context.Context { return ec.run.ctx }

// Root returns the value passed to Validate.
func (ec *ExecutionContext) Root() any { return ec.run.root }

// Value returns the value under validation.
func (ec *ExecutionContext) Value() any { return ec.value }

// Object returns the object owning the value, or nil at the root.
func (ec *ExecutionContext) Object() any { return ec.object }

// Metadata returns the metadata of Object, if any.
func (ec *ExecutionContext) Metadata() *TypeMetadata { return ec.meta }

// PropertyPath returns the path of the value from the root.
func (ec *ExecutionContext) PropertyPath() string { return ec.path }

// Group returns the active validation group.
func (ec *ExecutionContext) Group() string { return ec.group }

// Constraint returns the constraint being evaluated.
func (ec *ExecutionContext) Constraint() Constraint { return ec.constraint }

// Applies reports whether a nested constraint of the current constraint runs
// in the active group.
func (ec *ExecutionContext) Applies(c Constraint) bool {
	return AppliesTo(c, ec.group, ec.typeGroup, true)
}

// Logger returns the run logger.
func (ec *ExecutionContext) Logger() *zap.Logger { return ec.run.logger }

// Violations returns a copy of the violations recorded so far.
func (ec *ExecutionContext) Violations() ViolationList {
	return append(ViolationList(nil), ec.run.violations...)
}

// ViolationCount returns the number of violations recorded so far.
func (ec *ExecutionContext) ViolationCount() int { return len(ec.run.violations) }

// AddViolation records a violation at the current path.
func (ec *ExecutionContext) AddViolation(template string, params Params) {
	ec.BuildViolation(template).SetParameters(params).AddViolation()
}

// BuildViolation starts a violation at the current path.
func (ec *ExecutionContext) BuildViolation(template string) *ViolationBuilder {
	return &ViolationBuilder{ec: ec, template: template, invalid: ec.value}
}

// Fork returns a context at the same position whose violations start empty
// and whose caches are copies. Run errors are still shared.
func (ec *ExecutionContext) Fork() *ExecutionContext {
	out := *ec
	out.run = ec.run.fork()
	return &out
}

// Render returns the message of v as the configured Renderer would show it,
// or the template when none is configured.
func (ec *ExecutionContext) Render(v Violation) string {
	return ec.run.v.render(v)
}

// Validator returns a validator that records into this context at the
// current path.
func (ec *ExecutionContext) Validator() *ContextualValidator {
	return &ContextualValidator{ec: ec, path: ec.path}
}

func (ec *ExecutionContext) append(v Violation) {
	ec.run.violations = append(ec.run.violations, v)
}

// ContextualValidator validates further values inside a running validation.
// Violations are added to the originating context.
type ContextualValidator struct {
	ec      *ExecutionContext
	path    string
	inherit bool
}

// AtPath returns a validator whose violations are recorded below sub.
func (cv *ContextualValidator) AtPath(sub string) *ContextualValidator {
	out := *cv
	out.path = AppendPath(cv.path, sub)
	return &out
}

// Validate validates value against constraints in groups, which default to
// the active group. With nil constraints the value is validated against its
// own metadata.
func (cv *ContextualValidator) Validate(value any, constraints []Constraint, groups ...string) *ContextualValidator {
	r := cv.ec.run
	steps := groupSteps(groups)
	if len(steps) == 0 {
		g := cv.ec.group
		if g == "" {
			g = DefaultGroup
		}
		steps = []Step{GroupStep(g)}
	}
	if constraints == nil {
		if err := r.cascade(value, cv.path, steps, true); err != nil {
			r.fail(err)
		}
		return cv
	}
	set := adhocSet(constraints)
	set.inherit = cv.inherit
	set.typeGroup = cv.ec.typeGroup
	set.dedup = false
	r.genericNode(value, cv.ec.object, cv.ec.meta, set, cv.path, steps, nil)
	return cv
}

// ValidateNested validates value against the nested constraints of the
// constraint being evaluated. Nested constraints without explicit groups
// follow the group of their parent.
func (cv *ContextualValidator) ValidateNested(value any, constraints ...Constraint) *ContextualValidator {
	out := *cv
	out.inherit = true
	if constraints == nil {
		constraints = []Constraint{}
	}
	return out.Validate(value, constraints)
}

// Violations returns the violations of the originating context.
func (cv *ContextualValidator) Violations() ViolationList { return cv.ec.Violations() }
