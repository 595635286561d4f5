package govalid

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/reoring/govalid/internal/access"
)

const invalidTypeTemplate = "This value should be of type {{ type }}."

// constraintSet is the list of constraints attached to one node together
// with how their groups are matched.
type constraintSet struct {
	constraints []Constraint
	typeGroup   string
	inherit     bool
	cascade     bool
	dedup       bool
	// shallow stops a cascade from walking collection elements.
	shallow bool
}

func (s constraintSet) find(group string) []Constraint {
	var out []Constraint
	for _, c := range s.constraints {
		if AppliesTo(c, group, s.typeGroup, s.inherit) {
			out = append(out, c)
		}
	}
	return out
}

// adhocSet builds the set for explicitly passed constraints. A cascade
// marker without explicit groups turns cascading on for the node.
func adhocSet(cs []Constraint) constraintSet {
	set := constraintSet{dedup: true}
	for _, c := range cs {
		if c == nil {
			continue
		}
		if isCascader(c) {
			if _, explicit := groupsOf(c); !explicit {
				set.cascade = true
				set.shallow = !traverses(c)
				continue
			}
		}
		set.constraints = append(set.constraints, c)
	}
	return set
}

// nodeKey identifies a node for the per-run caches: by reference identity
// when the value has one, by path otherwise.
type nodeKey struct {
	id   access.Key
	path string
}

func keyFor(value any, path string) nodeKey {
	if id, ok := access.Identity(value); ok {
		return nodeKey{id: id}
	}
	return nodeKey{path: path}
}

type dedupKey struct {
	constraint uintptr
	path       string
	group      string
}

func constraintID(c Constraint) (uintptr, bool) {
	rv := reflect.ValueOf(c)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return 0, false
	}
	return rv.Pointer(), true
}

func (r *run) groupValidated(k nodeKey, group string) bool {
	return r.groupsDone[k][group]
}

func (r *run) markGroup(k nodeKey, group string) {
	m := r.groupsDone[k]
	if m == nil {
		m = make(map[string]bool)
		r.groupsDone[k] = m
	}
	m[group] = true
}

func (r *run) initialize(object any, k nodeKey) {
	if len(r.v.initializers) == 0 || r.initialized[k] {
		return
	}
	r.initialized[k] = true
	for _, in := range r.v.initializers {
		in.Initialize(r.ctx, object)
	}
}

// stepThrough runs the steps of seq one after another and stops after the
// first step that added violations. Nodes reached through cascading use
// cascadeGroup when it is set, the step's groups otherwise.
func (r *run) stepThrough(seq GroupSequence, cascadeGroup string, path string, validate func(steps, cascaded []Step)) {
	before := len(r.violations)
	var cascaded []Step
	if cascadeGroup != "" {
		cascaded = []Step{GroupStep(cascadeGroup)}
	}
	for i, groups := range seq.steps {
		validate(groupSteps(groups), cascaded)
		if len(r.violations) > before {
			if i < len(seq.steps)-1 {
				r.shared.stats.SequenceAborts++
				r.logger.Debug("group sequence stopped",
					zap.String("sequence", seq.String()),
					zap.Int("step", i),
					zap.String("path", path),
				)
			}
			return
		}
	}
}

// genericNode validates value against set in every step and then cascades
// into it when set asks for it.
func (r *run) genericNode(value, object any, meta *TypeMetadata, set constraintSet, path string, steps, cascaded []Step) {
	var plain []Step
	for _, st := range steps {
		if st.IsSequence() {
			r.stepThrough(st.Sequence(), "", path, func(inner, c []Step) {
				r.genericNode(value, object, meta, set, path, inner, orSteps(cascaded, c))
			})
			continue
		}
		r.validateInGroup(value, object, meta, set, path, st.group)
		plain = append(plain, st)
	}
	if !set.cascade || access.IsNil(value) {
		return
	}
	groups := cascaded
	if len(groups) == 0 {
		groups = plain
	}
	if len(groups) == 0 {
		return
	}
	traversal := TraverseImplicit
	if set.shallow {
		traversal = TraverseNone
	}
	if err := r.cascadeWith(value, path, groups, true, traversal); err != nil {
		r.fail(err)
	}
}

func orSteps(a, b []Step) []Step {
	if len(a) > 0 {
		return a
	}
	return b
}

// cascade validates value against its own metadata: objects and registered
// types through classNode, collections element by element. Scalars are an
// error when strict is set and ignored otherwise.
func (r *run) cascade(value any, path string, steps []Step, strict bool) error {
	return r.cascadeWith(value, path, steps, strict, TraverseImplicit)
}

// cascadeWith is cascade with an explicit traversal. TraverseNone validates
// objects without walking their elements and leaves plain collections alone.
func (r *run) cascadeWith(value any, path string, steps []Step, strict bool, traversal TraversalStrategy) error {
	if access.IsNil(value) {
		return nil
	}
	if meta, ok := r.v.metadata.MetadataFor(reflect.TypeOf(value)); ok {
		r.classNode(value, meta, path, steps, nil, traversal)
		return nil
	}
	if access.IsCollection(value) {
		if traversal != TraverseNone {
			r.eachObjectIn(value, path, steps)
		}
		return nil
	}
	if strict {
		return &NoSuchMetadataError{Type: access.TypeName(value), Path: path}
	}
	return nil
}

// eachObjectIn validates the objects held by a collection. Nested
// collections are walked too; scalars and nils are skipped. A map or slice
// already entered in a step is not entered again, so self-referencing
// collections terminate.
func (r *run) eachObjectIn(collection any, path string, steps []Step) {
	steps = r.enter(collection, path, steps)
	if len(steps) == 0 {
		return
	}
	access.Each(collection, func(key, elem any) {
		_ = r.cascade(elem, path+"["+keyString(key)+"]", steps, false)
	})
}

// enter returns the steps in which collection has not been walked yet and
// marks them as walked. Collections without identity are always entered.
func (r *run) enter(collection any, path string, steps []Step) []Step {
	id, ok := access.Identity(collection)
	if !ok {
		return steps
	}
	done := r.entered[id]
	if done == nil {
		done = make(map[string]bool)
		r.entered[id] = done
	}
	fresh := make([]Step, 0, len(steps))
	for _, st := range steps {
		k := st.key()
		if done[k] {
			r.shared.stats.SkippedObjects++
			r.logger.Debug("collection already walked",
				zap.String("type", access.TypeName(collection)),
				zap.String("steps", k),
				zap.String("path", path),
			)
			continue
		}
		done[k] = true
		fresh = append(fresh, st)
	}
	return fresh
}

// classNode validates object against its type metadata: class constraints,
// then properties, then the elements when the type is traversed.
func (r *run) classNode(object any, meta *TypeMetadata, path string, steps, cascaded []Step, traversal TraversalStrategy) {
	key := keyFor(object, path)
	r.initialize(object, key)

	var remaining []Step
	for _, st := range steps {
		if !st.IsSequence() {
			if r.groupValidated(key, st.group) {
				r.shared.stats.SkippedObjects++
				r.logger.Debug("object already validated",
					zap.String("type", meta.Name()),
					zap.String("group", st.group),
					zap.String("path", path),
				)
				continue
			}
			r.markGroup(key, st.group)
		}
		resolved, overridden, err := r.v.resolver.ForType(meta, object, st)
		if err != nil {
			r.fail(err)
			continue
		}
		if resolved.IsSequence() {
			cascadeGroup := ""
			if overridden {
				cascadeGroup = DefaultGroup
			}
			r.stepThrough(resolved.Sequence(), cascadeGroup, path, func(inner, c []Step) {
				r.classNode(object, meta, path, inner, orSteps(c, cascaded), traversal)
			})
			continue
		}
		r.validateInGroup(object, object, meta, meta.classSet(), path, resolved.group)
		remaining = append(remaining, resolved)
	}
	if len(remaining) == 0 {
		return
	}

	for _, p := range meta.props {
		pv, err := p.ValueOf(object)
		if err != nil {
			r.fail(fmt.Errorf("govalid: reading %s.%s: %w", meta.Name(), p.name, err))
			continue
		}
		r.genericNode(pv, object, meta, meta.propertySet(p), AppendPath(path, p.name), remaining, cascaded)
	}

	if traversal == TraverseImplicit {
		traversal = meta.Traversal()
	}
	switch traversal {
	case TraverseNone:
		return
	case TraverseImplicit:
		if !access.IsCollection(object) {
			return
		}
	case TraverseAlways:
		if !access.IsCollection(object) {
			r.fail(&GroupDefinitionError{Type: meta.Name(), Reason: "traversal requested for a value that is not a collection"})
			return
		}
	}
	r.eachObjectIn(object, path, remaining)
}

// validateInGroup dispatches every constraint of set that applies to group.
func (r *run) validateInGroup(value, object any, meta *TypeMetadata, set constraintSet, path, group string) {
	for _, c := range set.find(group) {
		if _, ok := c.(Presence); ok {
			continue
		}
		if set.dedup {
			if id, ok := constraintID(c); ok {
				k := dedupKey{constraint: id, path: path}
				if _, composite := c.(Composite); composite {
					k.group = group
				}
				if r.constraints[k] {
					continue
				}
				r.constraints[k] = true
			}
		}
		ec := &ExecutionContext{
			run:        r,
			value:      value,
			object:     object,
			meta:       meta,
			path:       path,
			group:      group,
			typeGroup:  set.typeGroup,
			constraint: c,
		}
		r.dispatch(ec, value, c)
	}
}

func (r *run) dispatch(ec *ExecutionContext, value any, c Constraint) {
	cv, err := r.v.registry.Resolve(c)
	if err != nil {
		r.fail(err)
		return
	}
	r.shared.stats.Dispatches[c.Kind()]++
	err = cv.Validate(ec, value, c)
	if err == nil {
		return
	}
	var uve *UnexpectedValueError
	if errors.As(err, &uve) {
		r.shared.stats.UnexpectedValues++
		r.logger.Debug("unexpected value",
			zap.String("constraint", string(c.Kind())),
			zap.String("path", ec.path),
			zap.String("expected", uve.Expected),
			zap.String("got", access.TypeName(value)),
		)
		ec.BuildViolation(invalidTypeTemplate).
			SetParameter("type", uve.Expected).
			SetCode(CodeInvalidType).
			SetCause(err).
			AddViolation()
		return
	}
	r.fail(fmt.Errorf("govalid: %s at %q: %w", c.Kind(), ec.path, err))
}
