package govalid

import (
	"slices"
	"strings"
)

// GroupSequence is an ordered list of steps. Each step holds one or more
// groups; validation stops after the first step that produced violations.
type GroupSequence struct {
	steps [][]string
}

// NewGroupSequence builds a sequence from string (single-group step) and
// []string (multi-group step) entries.
func NewGroupSequence(steps ...any) (GroupSequence, error) {
	out := make([][]string, 0, len(steps))
	for _, st := range steps {
		switch t := st.(type) {
		case string:
			if t == "" {
				return GroupSequence{}, &GroupDefinitionError{Reason: "group names must not be empty"}
			}
			out = append(out, []string{t})
		case []string:
			if len(t) == 0 {
				return GroupSequence{}, &GroupDefinitionError{Reason: "a sequence step must hold at least one group"}
			}
			out = append(out, slices.Clone(t))
		default:
			return GroupSequence{}, &GroupDefinitionError{Reason: "sequence steps must be string or []string"}
		}
	}
	return GroupSequence{steps: out}, nil
}

// MustGroupSequence is like NewGroupSequence but panics on error. It is meant
// for package-level declarations.
func MustGroupSequence(steps ...any) GroupSequence {
	seq, err := NewGroupSequence(steps...)
	if err != nil {
		panic(err)
	}
	return seq
}

// SequenceOf builds a sequence of single-group steps.
func SequenceOf(groups ...string) GroupSequence {
	out := make([][]string, len(groups))
	for i, g := range groups {
		out[i] = []string{g}
	}
	return GroupSequence{steps: out}
}

// Steps returns a copy of the steps.
func (s GroupSequence) Steps() [][]string {
	out := make([][]string, len(s.steps))
	for i, st := range s.steps {
		out[i] = slices.Clone(st)
	}
	return out
}

// Len reports the number of steps.
func (s GroupSequence) Len() int { return len(s.steps) }

// Contains reports whether group appears in any step.
func (s GroupSequence) Contains(group string) bool {
	for _, st := range s.steps {
		if slices.Contains(st, group) {
			return true
		}
	}
	return false
}

// String renders the sequence as "<A, [B, C], D>". It doubles as the cache
// key of the sequence.
func (s GroupSequence) String() string {
	b := &strings.Builder{}
	b.WriteByte('<')
	for i, st := range s.steps {
		if i > 0 {
			b.WriteString(", ")
		}
		if len(st) == 1 {
			b.WriteString(st[0])
			continue
		}
		b.WriteByte('[')
		b.WriteString(strings.Join(st, ", "))
		b.WriteByte(']')
	}
	b.WriteByte('>')
	return b.String()
}

// GroupSequenceProvider is implemented by values that pick their Default
// group sequence at validation time.
type GroupSequenceProvider interface {
	GroupSequence() GroupSequence
}

// Step is one requested group: either a plain group name or a sequence.
type Step struct {
	group string
	seq   *GroupSequence
}

// GroupStep returns a step for a plain group.
func GroupStep(name string) Step { return Step{group: name} }

// SequenceStep returns a step that runs seq.
func SequenceStep(seq GroupSequence) Step { return Step{seq: &seq} }

// IsSequence reports whether the step is a sequence.
func (s Step) IsSequence() bool { return s.seq != nil }

// Group returns the plain group name ("" for sequences).
func (s Step) Group() string { return s.group }

// Sequence returns the sequence of a sequence step.
func (s Step) Sequence() GroupSequence {
	if s.seq == nil {
		return GroupSequence{}
	}
	return *s.seq
}

func (s Step) key() string {
	if s.seq != nil {
		return s.seq.String()
	}
	return s.group
}

func (s Step) String() string { return s.key() }

func groupSteps(groups []string) []Step {
	out := make([]Step, len(groups))
	for i, g := range groups {
		out[i] = GroupStep(g)
	}
	return out
}

// GroupResolver turns requested groups into the steps run against a node.
type GroupResolver struct{}

// Resolve returns requested, or [Default] when nothing was requested.
func (GroupResolver) Resolve(requested []Step) []Step {
	if len(requested) == 0 {
		return []Step{GroupStep(DefaultGroup)}
	}
	return slices.Clone(requested)
}

// ForType substitutes the Default group of a type with its group sequence,
// either the static one from meta or the one value provides. overridden
// reports whether the substitution happened.
func (GroupResolver) ForType(meta *TypeMetadata, value any, step Step) (Step, bool, error) {
	if step.IsSequence() || step.group != DefaultGroup || meta == nil {
		return step, false, nil
	}
	if meta.HasGroupSequence() {
		return SequenceStep(meta.GroupSequence()), true, nil
	}
	if meta.IsGroupSequenceProvider() {
		p, ok := value.(GroupSequenceProvider)
		if !ok {
			return step, false, &GroupDefinitionError{Type: meta.Name(), Reason: "value does not implement GroupSequenceProvider"}
		}
		return SequenceStep(p.GroupSequence()), true, nil
	}
	return step, false, nil
}
