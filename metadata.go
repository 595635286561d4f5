package govalid

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"go.uber.org/multierr"

	"github.com/reoring/govalid/internal/access"
)

// TraversalStrategy controls whether the elements of a collection-like type
// are validated after the type's own constraints.
type TraversalStrategy int

const (
	// TraverseImplicit traverses values that are slices, arrays or maps.
	TraverseImplicit TraversalStrategy = iota
	// TraverseAlways requires the value to be a collection and traverses it.
	TraverseAlways
	// TraverseNone never traverses.
	TraverseNone
)

func (s TraversalStrategy) String() string {
	switch s {
	case TraverseAlways:
		return "traverse"
	case TraverseNone:
		return "none"
	default:
		return "implicit"
	}
}

// MetadataProvider returns the constraints declared for a type. ok is false
// when the type carries no metadata at all; struct types are expected to
// always have (possibly empty) metadata.
type MetadataProvider interface {
	MetadataFor(t reflect.Type) (*TypeMetadata, bool)
}

// Getter reads a computed property from an object.
type Getter func(object any) (any, error)

// PropertyMetadata holds the constraints of one property of a type.
type PropertyMetadata struct {
	name        string
	getter      Getter
	constraints []Constraint
	cascade     bool
	shallow     bool
}

// Name returns the property name as it appears in violation paths.
func (p *PropertyMetadata) Name() string { return p.name }

// Constraints returns the declared constraints.
func (p *PropertyMetadata) Constraints() []Constraint { return slices.Clone(p.constraints) }

// IsGetter reports whether the property is read through a Getter.
func (p *PropertyMetadata) IsGetter() bool { return p.getter != nil }

// CascadeInfo reports whether the property cascades and, when it only does
// so for some groups, which ones. groups is nil for "every group".
func (p *PropertyMetadata) CascadeInfo() (cascade bool, groups []string) {
	if p.cascade {
		return true, nil
	}
	for _, c := range p.constraints {
		if isCascader(c) {
			cascade = true
			groups = append(groups, c.Groups()...)
		}
	}
	return cascade, groups
}

// Traverses reports whether cascading walks the elements of a collection
// value. It is false when the property was marked with a non-traversing
// cascade marker.
func (p *PropertyMetadata) Traverses() bool { return !p.shallow }

// ValueOf reads the property from object.
func (p *PropertyMetadata) ValueOf(object any) (any, error) {
	if p.getter != nil {
		return p.getter(object)
	}
	return access.Field(object, p.name)
}

// TypeMetadata holds everything declared for one Go type: class-level
// constraints, property constraints in declaration order, the group sequence
// that replaces Default, and the traversal strategy.
type TypeMetadata struct {
	typ         reflect.Type
	name        string
	constraints []Constraint
	props       []*PropertyMetadata
	seq         *GroupSequence
	provider    bool
	cascadeAll  bool
	traversal   TraversalStrategy
	errs        error
}

// NewTypeMetadata starts metadata for t. Pointer types are dereferenced.
func NewTypeMetadata(t reflect.Type) *TypeMetadata {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		name = t.String()
	}
	return &TypeMetadata{typ: t, name: name}
}

// MetadataOf starts metadata for T.
func MetadataOf[T any]() *TypeMetadata {
	return NewTypeMetadata(reflect.TypeOf((*T)(nil)).Elem())
}

// Type returns the described type.
func (m *TypeMetadata) Type() reflect.Type { return m.typ }

// Name returns the type's implicit group name. Constraints in Default also
// belong to it.
func (m *TypeMetadata) Name() string { return m.name }

// Err returns every declaration error recorded so far.
func (m *TypeMetadata) Err() error { return m.errs }

func (m *TypeMetadata) fail(err error) *TypeMetadata {
	m.errs = multierr.Append(m.errs, err)
	return m
}

// AddConstraint adds class-level constraints.
func (m *TypeMetadata) AddConstraint(cs ...Constraint) *TypeMetadata {
	for _, c := range cs {
		if c == nil {
			return m.fail(fmt.Errorf("govalid: %s: nil class constraint", m.name))
		}
		if isCascader(c) {
			return m.fail(Definitionf(c.Kind(), "", "cannot be declared on type %s, use Cascade instead", m.name))
		}
		m.constraints = append(m.constraints, c)
	}
	return m
}

// AddPropertyConstraint adds constraints to a struct field. name is the field
// key (govalid/json tag) or the Go field name. A cascade marker without
// explicit groups turns cascading on instead of being stored.
func (m *TypeMetadata) AddPropertyConstraint(name string, cs ...Constraint) *TypeMetadata {
	if !access.HasField(m.typ, name) {
		return m.fail(fmt.Errorf("govalid: %s has no property %q", m.name, name))
	}
	return m.addProperty(name, nil, cs)
}

// AddGetterConstraint adds constraints to a computed property.
func (m *TypeMetadata) AddGetterConstraint(name string, get Getter, cs ...Constraint) *TypeMetadata {
	if get == nil {
		return m.fail(fmt.Errorf("govalid: %s: getter for %q is nil", m.name, name))
	}
	return m.addProperty(name, get, cs)
}

func (m *TypeMetadata) addProperty(name string, get Getter, cs []Constraint) *TypeMetadata {
	p := m.Property(name)
	if p == nil || (p.getter == nil) != (get == nil) {
		p = &PropertyMetadata{name: name, getter: get}
		m.props = append(m.props, p)
	}
	for _, c := range cs {
		if c == nil {
			return m.fail(fmt.Errorf("govalid: %s.%s: nil constraint", m.name, name))
		}
		if isCascader(c) {
			if _, explicit := groupsOf(c); !explicit {
				p.cascade = true
				p.shallow = !traverses(c)
				continue
			}
		}
		p.constraints = append(p.constraints, c)
	}
	return m
}

// Constraints returns the class-level constraints.
func (m *TypeMetadata) Constraints() []Constraint { return slices.Clone(m.constraints) }

// Properties returns the constrained properties in declaration order.
func (m *TypeMetadata) Properties() []*PropertyMetadata { return slices.Clone(m.props) }

// Property returns the first metadata entry for name, or nil.
func (m *TypeMetadata) Property(name string) *PropertyMetadata {
	for _, p := range m.props {
		if p.name == name {
			return p
		}
	}
	return nil
}

func (m *TypeMetadata) propertiesNamed(name string) []*PropertyMetadata {
	var out []*PropertyMetadata
	for _, p := range m.props {
		if p.name == name {
			out = append(out, p)
		}
	}
	return out
}

// Cascade makes every property cascade into its value.
func (m *TypeMetadata) Cascade() *TypeMetadata {
	m.cascadeAll = true
	return m
}

// SetTraversal sets the traversal strategy.
func (m *TypeMetadata) SetTraversal(s TraversalStrategy) *TypeMetadata {
	m.traversal = s
	return m
}

// Traversal returns the traversal strategy.
func (m *TypeMetadata) Traversal() TraversalStrategy { return m.traversal }

// SetGroupSequence replaces the Default group of the type with seq. The
// sequence must name the type's own group and must not name Default.
func (m *TypeMetadata) SetGroupSequence(seq GroupSequence) *TypeMetadata {
	if m.provider {
		return m.fail(&GroupDefinitionError{Type: m.name, Reason: "a group sequence cannot be combined with a group sequence provider"})
	}
	if seq.Contains(DefaultGroup) {
		return m.fail(&GroupDefinitionError{Type: m.name, Reason: fmt.Sprintf("the group %q is not allowed in group sequences", DefaultGroup)})
	}
	if !seq.Contains(m.name) {
		return m.fail(&GroupDefinitionError{Type: m.name, Reason: fmt.Sprintf("the group %q is missing from the group sequence", m.name)})
	}
	m.seq = &seq
	return m
}

// SetGroupSequenceProvider makes the validated value choose the sequence
// that replaces Default. The type must implement GroupSequenceProvider.
func (m *TypeMetadata) SetGroupSequenceProvider() *TypeMetadata {
	if m.seq != nil {
		return m.fail(&GroupDefinitionError{Type: m.name, Reason: "a group sequence provider cannot be combined with a group sequence"})
	}
	provider := reflect.TypeOf((*GroupSequenceProvider)(nil)).Elem()
	if !m.typ.Implements(provider) && !reflect.PointerTo(m.typ).Implements(provider) {
		return m.fail(&GroupDefinitionError{Type: m.name, Reason: "the type does not implement GroupSequenceProvider"})
	}
	m.provider = true
	return m
}

// HasGroupSequence reports whether a static sequence replaces Default.
func (m *TypeMetadata) HasGroupSequence() bool { return m.seq != nil }

// GroupSequence returns the static sequence.
func (m *TypeMetadata) GroupSequence() GroupSequence {
	if m.seq == nil {
		return GroupSequence{}
	}
	return *m.seq
}

// IsGroupSequenceProvider reports whether the value picks its own sequence.
func (m *TypeMetadata) IsGroupSequenceProvider() bool { return m.provider }

func (m *TypeMetadata) classSet() constraintSet {
	return constraintSet{constraints: m.constraints, typeGroup: m.name, dedup: true}
}

func (m *TypeMetadata) propertySet(p *PropertyMetadata) constraintSet {
	return constraintSet{
		constraints: p.constraints,
		typeGroup:   m.name,
		cascade:     p.cascade || m.cascadeAll,
		shallow:     p.cascade && p.shallow,
		dedup:       true,
	}
}

// MetadataStore is an explicitly owned MetadataProvider. Register everything
// up front; lookups are safe for concurrent use.
type MetadataStore struct {
	mu    sync.RWMutex
	types map[reflect.Type]*TypeMetadata
	auto  map[reflect.Type]*TypeMetadata
}

// NewMetadataStore returns an empty store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{
		types: make(map[reflect.Type]*TypeMetadata),
		auto:  make(map[reflect.Type]*TypeMetadata),
	}
}

// Register adds metadata. Declaration errors of every given entry are
// combined into the returned error; entries with errors are not stored.
func (s *MetadataStore) Register(ms ...*TypeMetadata) error {
	var errs error
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range ms {
		if m == nil {
			continue
		}
		if m.errs != nil {
			errs = multierr.Append(errs, m.errs)
			continue
		}
		if _, dup := s.types[m.typ]; dup {
			errs = multierr.Append(errs, fmt.Errorf("govalid: metadata for %s is already registered", m.typ))
			continue
		}
		s.types[m.typ] = m
		delete(s.auto, m.typ)
	}
	return errs
}

// MustRegister is like Register but panics on error.
func (s *MetadataStore) MustRegister(ms ...*TypeMetadata) *MetadataStore {
	if err := s.Register(ms...); err != nil {
		panic(err)
	}
	return s
}

// MetadataFor returns registered metadata for t. Unregistered struct types
// get empty metadata.
func (s *MetadataStore) MetadataFor(t reflect.Type) (*TypeMetadata, bool) {
	if t == nil {
		return nil, false
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	s.mu.RLock()
	m, ok := s.types[t]
	if !ok {
		m, ok = s.auto[t]
	}
	s.mu.RUnlock()
	if ok {
		return m, true
	}
	if t.Kind() != reflect.Struct {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.auto[t]; ok {
		return m, true
	}
	m = NewTypeMetadata(t)
	s.auto[t] = m
	return m, true
}
