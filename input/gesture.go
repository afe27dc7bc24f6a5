// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package input

import (
	"sync"

	"github.com/gviegas/compositor/wire"
)

// Gestures is the seat's zwp_pointer_gestures_v1 aggregation point
// (spec.md §6 lists the extension as "stubbed"): it tracks bound
// gesture resources but never synthesizes a begin/update/end triple,
// since no Source this module accepts reports multi-touch or trackpad
// gesture data (Non-goals, multi-touch).
type Gestures struct {
	mu    sync.Mutex
	swipe []wire.Resource
	pinch []wire.Resource
	hold  []wire.Resource
}

// AddSwipe registers a bound zwp_pointer_gesture_swipe_v1 resource.
func (g *Gestures) AddSwipe(r wire.Resource) {
	g.mu.Lock()
	g.swipe = append(g.swipe, r)
	g.mu.Unlock()
}

// AddPinch registers a bound zwp_pointer_gesture_pinch_v1 resource.
func (g *Gestures) AddPinch(r wire.Resource) {
	g.mu.Lock()
	g.pinch = append(g.pinch, r)
	g.mu.Unlock()
}

// AddHold registers a bound zwp_pointer_gesture_hold_v1 resource.
func (g *Gestures) AddHold(r wire.Resource) {
	g.mu.Lock()
	g.hold = append(g.hold, r)
	g.mu.Unlock()
}
