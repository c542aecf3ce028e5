package core

import "fmt"

// Stronger is the domination contract. A value that is stronger than a
// competitor wins the merge and stays in place.
type Stronger[T any] interface {
	// StrongerThan reports whether the receiver dominates other.
	StrongerThan(other T) bool
}

// Strongest resolves a competition between the value already in place and a
// newly requested one. The old value survives only when it dominates; ties go
// to the newcomer.
func Strongest[T Stronger[T]](old, requested T) T {
	if old.StrongerThan(requested) {
		return old
	}
	return requested
}

// StrengthKind identifies the precedence level of a Strength.
type StrengthKind uint8

const (
	// StrengthLenient lets any later request replace the setting outright.
	StrengthLenient StrengthKind = iota
	// StrengthAsStrongAs clamps later requests to a threshold value.
	StrengthAsStrongAs
	// StrengthStrict pins the setting until the owning scope ends.
	StrengthStrict
)

func (k StrengthKind) String() string {
	switch k {
	case StrengthLenient:
		return "lenient"
	case StrengthAsStrongAs:
		return "as-strong-as"
	case StrengthStrict:
		return "strict"
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// ParseStrengthKind maps the wire spelling of a strength level back to its
// constant.
func ParseStrengthKind(s string) (StrengthKind, error) {
	switch s {
	case "lenient":
		return StrengthLenient, nil
	case "as-strong-as":
		return StrengthAsStrongAs, nil
	case "strict":
		return StrengthStrict, nil
	}
	return StrengthLenient, fmt.Errorf("unknown strength %q", s)
}

// Strength is the precedence attached to a setting. It decides how far a
// later request may move the value: lenient accepts anything, as-strong-as
// holds the value at least as strong as a threshold, strict refuses all
// change. The zero value is lenient.
type Strength[T Stronger[T]] struct {
	kind      StrengthKind
	threshold T
}

// Lenient builds the weakest strength: later requests win unconditionally.
func Lenient[T Stronger[T]]() Strength[T] {
	return Strength[T]{kind: StrengthLenient}
}

// AsStrongAs builds a strength that keeps the value at least as strong as
// the given threshold.
func AsStrongAs[T Stronger[T]](threshold T) Strength[T] {
	return Strength[T]{kind: StrengthAsStrongAs, threshold: threshold}
}

// Strict builds the strongest strength: later requests are ignored.
func Strict[T Stronger[T]]() Strength[T] {
	return Strength[T]{kind: StrengthStrict}
}

// Kind returns the precedence level.
func (s Strength[T]) Kind() StrengthKind {
	return s.kind
}

// Threshold returns the floor value of an as-strong-as strength. ok is false
// for lenient and strict strengths, which carry no threshold.
func (s Strength[T]) Threshold() (T, bool) {
	if s.kind != StrengthAsStrongAs {
		var zero T
		return zero, false
	}
	return s.threshold, true
}

// StrongerThan implements the domination order between strengths: strict
// dominates everything, lenient dominates nothing, and two as-strong-as
// strengths compete on their thresholds. Merging strengths with Strongest is
// therefore escalation-only.
func (s Strength[T]) StrongerThan(other Strength[T]) bool {
	switch s.kind {
	case StrengthLenient:
		return false
	case StrengthAsStrongAs:
		switch other.kind {
		case StrengthLenient:
			return true
		case StrengthAsStrongAs:
			return s.threshold.StrongerThan(other.threshold)
		}
		return false
	}
	return true
}

func (s Strength[T]) String() string {
	if s.kind == StrengthAsStrongAs {
		return fmt.Sprintf("as-strong-as(%v)", s.threshold)
	}
	return s.kind.String()
}
