package tiervec

import (
	"cmp"
	"iter"
	"slices"
)

// Transition describes a single tier migration.
type Transition struct {
	From Tier
	To   Tier
	// Len is the vector length after the triggering element was appended.
	Len int
}

// TransitionFunc observes tier transitions. It is called synchronously from
// Push after the vector has been migrated.
type TransitionFunc func(Transition)

// Vec is an ordered sequence that starts in a small fixed-capacity tier and
// migrates into successively larger tiers as it fills up.
//
// The zero value is an empty vector in TierSmall, ready to use. A Vec is not
// safe for concurrent use; callers sharing one must serialize access.
type Vec[T any] struct {
	tier     Tier
	items    []T
	observer TransitionFunc
}

// New returns an empty vector in TierSmall.
func New[T any]() *Vec[T] {
	return &Vec[T]{}
}

// From returns a vector built by pushing items in order.
func From[T any](items ...T) *Vec[T] {
	v := New[T]()
	v.Extend(items...)
	return v
}

// OnTransition registers fn to be called after every tier transition,
// replacing any previously registered observer. A nil fn removes it.
func (v *Vec[T]) OnTransition(fn TransitionFunc) {
	v.observer = fn
}

// Push appends item to the end of the vector. When the current tier is full
// the contents are copied, in order, into storage for the next tier before
// item is appended. TierLarge grows without further transitions.
func (v *Vec[T]) Push(item T) {
	if ceiling, bounded := v.tier.Ceiling(); bounded && len(v.items) >= ceiling {
		v.migrate(item)
		return
	}
	if v.items == nil {
		v.items = make([]T, 0, smallCeiling)
	}
	v.items = append(v.items, item)
}

func (v *Vec[T]) migrate(item T) {
	from := v.tier
	to, capacity := from.next()

	items := make([]T, len(v.items), capacity)
	copy(items, v.items)
	items = append(items, item)

	v.tier = to
	v.items = items

	if v.observer != nil {
		v.observer(Transition{From: from, To: to, Len: len(items)})
	}
}

// Extend pushes each element of items in order. The result, including the
// point at which each transition happens, is identical to calling Push once
// per element.
func (v *Vec[T]) Extend(items ...T) {
	for _, item := range items {
		v.Push(item)
	}
}

// ExtendSeq pushes every value produced by seq in order.
func (v *Vec[T]) ExtendSeq(seq iter.Seq[T]) {
	for item := range seq {
		v.Push(item)
	}
}

// Tier returns the tier currently backing the vector.
func (v *Vec[T]) Tier() Tier {
	return v.tier
}

// Spilled reports whether the vector has outgrown TierSmall.
func (v *Vec[T]) Spilled() bool {
	return v.tier != TierSmall
}

func (v *Vec[T]) Len() int {
	return len(v.items)
}

// At returns the element at index i. It panics if i is out of range.
func (v *Vec[T]) At(i int) T {
	return v.items[i]
}

// Set replaces the element at index i. It panics if i is out of range.
func (v *Vec[T]) Set(i int, item T) {
	v.items[i] = item
}

// SortFunc sorts the vector in place using cmp. The tier is unchanged.
func (v *Vec[T]) SortFunc(cmp func(a, b T) int) {
	slices.SortFunc(v.items, cmp)
}

// Sort sorts v in ascending order.
func Sort[T cmp.Ordered](v *Vec[T]) {
	slices.Sort(v.items)
}

// All iterates over index/element pairs in insertion order. Elements pushed
// during iteration are visited.
func (v *Vec[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < len(v.items); i++ {
			if !yield(i, v.items[i]) {
				return
			}
		}
	}
}

// Values iterates over the elements in insertion order.
func (v *Vec[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := 0; i < len(v.items); i++ {
			if !yield(v.items[i]) {
				return
			}
		}
	}
}

// Slice returns a copy of the elements in insertion order.
func (v *Vec[T]) Slice() []T {
	out := make([]T, len(v.items))
	copy(out, v.items)
	return out
}
