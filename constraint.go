package govalid

import "slices"

// DefaultGroup is the group every constraint belongs to unless told otherwise.
const DefaultGroup = "Default"

// Kind identifies a constraint kind and, through the Registry, its validator.
type Kind string

// Constraint is an immutable rule descriptor. Implementations are expected to
// be pointers so that the engine can tell instances apart.
type Constraint interface {
	Kind() Kind
	// Groups returns the effective groups. Constraints built without a
	// "groups" option report [Default].
	Groups() []string
	Payload() any
}

// Composite is implemented by constraints that own nested constraints.
type Composite interface {
	Constraint
	NestedConstraints() []Constraint
}

// Cascader marks a constraint that requests cascading into the value's own
// metadata. Metadata turns it into a cascade flag; it may not be nested in a
// Composite.
type Cascader interface {
	Constraint
	IsCascade() bool
}

// Traverser is implemented by cascade markers that can turn off walking the
// elements of the cascaded value.
type Traverser interface {
	Traverse() bool
}

// Presence marks the Required and Optional wrappers used by Collection fields.
// The engine skips them when they appear directly in metadata.
type Presence interface {
	Composite
	IsOptional() bool
}

// Redirector lets a constraint resolve to the validator of another kind.
type Redirector interface {
	ValidatedBy() Kind
}

// Base carries the options shared by every constraint. Constraint types embed
// it and get Kind, Groups and Payload for free.
type Base struct {
	kind     Kind
	groups   []string
	explicit bool
	payload  any
}

// NewBase builds a Base. A nil groups slice means "not given" and yields
// [Default]; an empty non-nil slice means "all groups".
func NewBase(kind Kind, groups []string, payload any) Base {
	b := Base{kind: kind, payload: payload}
	if groups != nil {
		b.groups = slices.Clone(groups)
		b.explicit = true
	}
	return b
}

func (b Base) Kind() Kind { return b.kind }

func (b Base) Groups() []string {
	if !b.explicit {
		return []string{DefaultGroup}
	}
	return slices.Clone(b.groups)
}

// ExplicitGroups reports whether the groups option was given.
func (b Base) ExplicitGroups() bool { return b.explicit }

func (b Base) Payload() any { return b.payload }

type explicitGrouper interface {
	ExplicitGroups() bool
}

func groupsOf(c Constraint) ([]string, bool) {
	gs := c.Groups()
	if eg, ok := c.(explicitGrouper); ok {
		return gs, eg.ExplicitGroups()
	}
	return gs, !(len(gs) == 1 && gs[0] == DefaultGroup)
}

// AppliesTo reports whether c runs under group. typeGroup is the implicit
// group of the type that declared c ("" for ad-hoc constraints): constraints
// in Default also belong to it. With inherit set, a constraint without
// explicit groups applies to any group; combinators use this for their
// nested constraints.
func AppliesTo(c Constraint, group, typeGroup string, inherit bool) bool {
	gs, explicit := groupsOf(c)
	if !explicit {
		if inherit {
			return true
		}
		return group == DefaultGroup || (typeGroup != "" && group == typeGroup)
	}
	if len(gs) == 0 {
		return true
	}
	for _, g := range gs {
		if g == group {
			return true
		}
		if g == DefaultGroup && typeGroup != "" && group == typeGroup {
			return true
		}
	}
	return false
}

func validatedBy(c Constraint) Kind {
	if r, ok := c.(Redirector); ok {
		if k := r.ValidatedBy(); k != "" {
			return k
		}
	}
	return c.Kind()
}

func isCascader(c Constraint) bool {
	cc, ok := c.(Cascader)
	return ok && cc.IsCascade()
}

func traverses(c Constraint) bool {
	if t, ok := c.(Traverser); ok {
		return t.Traverse()
	}
	return true
}
