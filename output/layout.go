// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package output

import (
	"sync"

	"github.com/gviegas/compositor/geom"
)

// Layout is the ordered list of outputs arranged in global coordinate
// space, with one designated primary (spec.md §3 "Output layout").
type Layout struct {
	mu      sync.Mutex
	outputs []*Output
	primary int // index into outputs; -1 when empty
}

// NewLayout creates an empty layout.
func NewLayout() *Layout { return &Layout{primary: -1} }

// Add places o at layoutRect in global coordinates, appending it to
// the list. The first output added becomes primary.
func (l *Layout) Add(o *Output, layoutRect geom.Rect) {
	o.setLayoutRect(layoutRect)
	l.mu.Lock()
	l.outputs = append(l.outputs, o)
	if l.primary < 0 {
		l.primary = 0
	}
	l.mu.Unlock()
}

// Remove drops o from the layout, reassigning primary if it was
// removed.
func (l *Layout) Remove(o *Output) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, out := range l.outputs {
		if out == o {
			l.outputs = append(l.outputs[:i], l.outputs[i+1:]...)
			switch {
			case len(l.outputs) == 0:
				l.primary = -1
			case l.primary > i:
				l.primary--
			case l.primary >= len(l.outputs):
				l.primary = len(l.outputs) - 1
			}
			return
		}
	}
}

// Reposition updates o's placement in global coordinates.
func (l *Layout) Reposition(o *Output, layoutRect geom.Rect) { o.setLayoutRect(layoutRect) }

// Primary returns the layout's primary output, or nil if empty.
func (l *Layout) Primary() *Output {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.primary < 0 {
		return nil
	}
	return l.outputs[l.primary]
}

// SetPrimary designates o as primary. It is a no-op if o is not a
// member of the layout.
func (l *Layout) SetPrimary(o *Output) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, out := range l.outputs {
		if out == o {
			l.primary = i
			return
		}
	}
}

// Outputs returns the layout's members, front (first-added) to back.
func (l *Layout) Outputs() []*Output {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Output(nil), l.outputs...)
}

// ClampPosition narrows a global pointer position to lie within the
// union of the layout's output rects (output_layout.clamp_position,
// spec.md §4.3). A position already inside some output is returned
// unchanged; otherwise it is clamped into whichever output rect is
// nearest.
func (l *Layout) ClampPosition(p geom.Vec2) geom.Vec2 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.outputs) == 0 {
		return p
	}
	for _, o := range l.outputs {
		if o.LayoutRect().Contains(p) {
			return p
		}
	}
	best := l.outputs[0].LayoutRect().Clamp(p)
	bestDist := dist2(best, p)
	for _, o := range l.outputs[1:] {
		c := o.LayoutRect().Clamp(p)
		if d := dist2(c, p); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func dist2(a, b geom.Vec2) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

// OutputForSurface resolves a surface's "primary output" as the first
// output, in output list order, whose layout_rect contains the
// centroid of the surface's buffer_dst, falling back to the layout's
// primary output when none does, per the
// original implementation's scene.hpp output_primary field — spec.md
// §4.5 mentions the field but not this resolution rule.
func (l *Layout) OutputForSurface(globalBufferDst geom.Rect) (*Output, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	centroid := globalBufferDst.Center()
	for _, o := range l.outputs {
		if o.LayoutRect().Contains(centroid) {
			return o, true
		}
	}
	if l.primary >= 0 {
		return l.outputs[l.primary], true
	}
	return nil, false
}
