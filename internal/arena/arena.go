// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package arena implements a generation-indexed slab allocator.
//
// It generalizes the bitm-backed dataMap that the teacher's engine
// package used to key drawables/materials/skins (engine/id.go) to
// arbitrary element types, and adds a generation counter per slot so
// that a Handle taken out before a Remove can be told apart from one
// handed out afterwards to the same slot. This is the "weak reference
// into a reference-counted arena" pattern spec.md §9 asks for: a Weak
// tests liveness by comparing generations instead of chasing a raw
// pointer, and stale Weaks resolve to (zero, false) instead of
// aliasing an unrelated, later entry.
package arena

import (
	"github.com/gviegas/compositor/internal/bitm"
)

// Handle identifies an element stored in an Arena.
// The zero Handle is never returned by Insert and always resolves to
// (zero, false); it is safe to use as a sentinel "no entry" value.
type Handle struct {
	index uint32
	gen   uint32
}

// Valid reports whether h is not the zero Handle.
// It does not imply that the element is still present; use Arena.Get
// or Weak.Resolve for that.
func (h Handle) Valid() bool { return h.gen != 0 }

// Weak returns a weak reference to the element identified by h.
func (h Handle) Weak() Weak { return Weak(h) }

// Weak is a Handle that does not keep its element from being removed.
// Surface stacks and focus trackers hold Weak references to tolerate
// the entry disappearing out from under them (spec.md §4.2 "tolerates
// weak-ref tombstones").
type Weak Handle

// Valid reports whether w is not the zero Weak.
func (w Weak) Valid() bool { return w.gen != 0 }

type slot[T any] struct {
	val T
	gen uint32
}

// Arena stores values of type T behind generation-checked Handles.
// The zero Arena is empty and ready to use.
type Arena[T any] struct {
	slots []slot[T]
	free  bitm.Bitm[uint32]
}

// Insert stores val and returns a Handle identifying it.
func (a *Arena[T]) Insert(val T) Handle {
	if a.free.Rem() == 0 {
		a.free.Grow(1)
		a.slots = append(a.slots, make([]slot[T], 32)...)
	}
	idx, ok := a.free.Search()
	if !ok {
		panic("arena: Search failed after Grow")
	}
	a.free.Set(idx)
	if a.slots[idx].gen == 0 {
		a.slots[idx].gen = 1
	}
	a.slots[idx].val = val
	return Handle{index: uint32(idx), gen: a.slots[idx].gen}
}

// Get returns a pointer to the element identified by h.
// The pointer is invalidated by any subsequent call to Remove on the
// same Handle's slot; it must not be retained across such a call.
func (a *Arena[T]) Get(h Handle) (*T, bool) {
	if !h.Valid() || int(h.index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.index]
	if s.gen != h.gen || !a.free.IsSet(int(h.index)) {
		return nil, false
	}
	return &s.val, true
}

// Resolve returns a pointer to the element identified by a Weak
// reference, exactly as Get does for a Handle.
func (a *Arena[T]) Resolve(w Weak) (*T, bool) { return a.Get(Handle(w)) }

// Remove deletes the element identified by h.
// It bumps the slot's generation so that stale Handles/Weaks taken
// out before this call resolve to (nil, false) forever after, even
// if the slot is reused by a later Insert.
func (a *Arena[T]) Remove(h Handle) (T, bool) {
	var zero T
	if _, ok := a.Get(h); !ok {
		return zero, false
	}
	s := &a.slots[h.index]
	val := s.val
	s.val = zero
	s.gen++
	if s.gen == 0 {
		// Wrapped past the generation space; skip 0 since it is
		// reserved to mean "invalid handle."
		s.gen = 1
	}
	a.free.Unset(int(h.index))
	return val, true
}

// Len returns the number of elements currently stored.
func (a *Arena[T]) Len() int { return a.free.Len() - a.free.Rem() }

// All calls f for every live element, in index order.
// f must not insert into or remove from the arena.
func (a *Arena[T]) All(f func(Handle, *T) bool) {
	n := a.Len()
	for i := 0; n > 0 && i < len(a.slots); i++ {
		if !a.free.IsSet(i) {
			continue
		}
		n--
		if !f(Handle{index: uint32(i), gen: a.slots[i].gen}, &a.slots[i].val) {
			return
		}
	}
}
