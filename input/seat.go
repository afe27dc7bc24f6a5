// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package input implements input routing (spec.md §4.3): source
// aggregation into virtual seats, pointer focus/constraints, hotkeys,
// and cursor priority resolution.
package input

import (
	"sync"

	"github.com/gviegas/compositor/surface"
)

// Modifier is the compositor-level modifier enum spec.md §3 names:
// `{mod, super, shift, ctrl, alt, num, caps}`.
type Modifier uint8

const (
	ModMod Modifier = 1 << iota
	ModSuper
	ModShift
	ModCtrl
	ModAlt
	ModNum
	ModCaps
)

// Source is one physical keyboard or pointer device surfaced by the
// backend. A Seat aggregates any number of Sources of each kind.
type Source struct {
	Name string
}

// Seat owns one virtual keyboard and one virtual pointer, aggregating
// however many physical Sources the backend reports (spec.md §3).
type Seat struct {
	mu      sync.Mutex
	name    string
	sources map[*Source]struct{}

	Keyboard *Keyboard
	Pointer  *Pointer
	Gestures *Gestures
}

// NewSeat creates a seat with an empty keyboard, pointer and gesture
// aggregator.
func NewSeat(name string, table *surface.Table) *Seat {
	return &Seat{
		name:     name,
		sources:  make(map[*Source]struct{}),
		Keyboard: newKeyboard(),
		Pointer:  newPointer(table),
		Gestures: &Gestures{},
	}
}

// Name returns the seat's wl_seat advertised name.
func (s *Seat) Name() string { return s.name }

// AddSource registers a physical device as contributing to this
// seat's aggregated key/button state.
func (s *Seat) AddSource(src *Source) {
	s.mu.Lock()
	s.sources[src] = struct{}{}
	s.mu.Unlock()
}

// RemoveSource unregisters a physical device. Any codes it still had
// pressed are released by the caller before calling this, via
// Keyboard.Release/Pointer.ReleaseButton, so the counting set stays
// consistent.
func (s *Seat) RemoveSource(src *Source) {
	s.mu.Lock()
	delete(s.sources, src)
	s.mu.Unlock()
}
