// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package surface

import "github.com/gviegas/compositor/geom"

// Edge names an anchor or gravity edge set along one axis (spec.md
// §3 "Positioner").
type Edge int

const (
	EdgeNone Edge = iota
	EdgeNeg       // left (x axis) or top (y axis)
	EdgePos       // right (x axis) or bottom (y axis)
)

// ConstraintAdjustment are the three independent per-axis strategies
// spec.md §4.6 applies, in order, until the region fits.
type ConstraintAdjustment struct {
	Flip   bool
	Slide  bool
	Resize bool
}

// Positioner is an immutable set of xdg_positioner rules (spec.md
// §3).
type Positioner struct {
	Size       geom.Vec2
	AnchorRect geom.Rect
	AnchorX    Edge
	AnchorY    Edge
	GravityX   Edge
	GravityY   Edge
	AdjustX    ConstraintAdjustment
	AdjustY    ConstraintAdjustment
	Offset     geom.Vec2
	Reactive   bool
}

// edgeRel maps an anchor/gravity edge to the {0, ½, 1} relative
// position spec.md §4.6 step 1/2 names.
func edgeRel(e Edge) float64 {
	switch e {
	case EdgeNeg:
		return 0
	case EdgePos:
		return 1
	default:
		return 0.5
	}
}

// mirror flips an edge for the flip constraint adjustment (step 5).
func mirror(e Edge) Edge {
	switch e {
	case EdgeNeg:
		return EdgePos
	case EdgePos:
		return EdgeNeg
	default:
		return e
	}
}

// axis holds one axis's worth of positioner input, used so Place can
// run the identical algorithm for x and y (spec.md §4.6 "the same is
// done independently per axis").
type axis struct {
	anchorPos, anchorSize   float64
	anchorEdge, gravityEdge Edge
	size                    float64
	adjust                  ConstraintAdjustment
	offset                  float64
	constraintPos, constraintSize float64
}

// place runs the spec.md §4.6 algorithm for a single axis, returning
// the resulting (pos, size).
func place(a axis) (pos, size float64) {
	size = a.size

	compute := func(anchorEdge, gravityEdge Edge) float64 {
		anchorPos := a.anchorPos + edgeRel(anchorEdge)*a.anchorSize
		gravityOffset := edgeRel(gravityEdge) * a.size
		return anchorPos + gravityOffset - a.size
	}

	fits := func(p float64) bool {
		return p >= a.constraintPos && p+size <= a.constraintPos+a.constraintSize
	}

	pos = compute(a.anchorEdge, a.gravityEdge)

	if !fits(pos) && a.adjust.Flip {
		flipped := compute(mirror(a.anchorEdge), mirror(a.gravityEdge))
		if fits(flipped) {
			pos = flipped
		}
	}

	if !fits(pos) && a.adjust.Slide {
		cMin, cMax := a.constraintPos, a.constraintPos+a.constraintSize
		overlapStart := cMin - pos
		overlapEnd := pos + size - cMax
		switch {
		case overlapStart > 0 && overlapEnd > 0:
			// The positioner's size exceeds the constraint on this
			// axis, so both edges overlap at once: slide toward
			// whichever edge gravity points at, just enough to clear
			// it, rather than snapping to a fixed edge.
			switch a.gravityEdge {
			case EdgePos:
				pos += overlapStart
			case EdgeNeg:
				pos -= overlapEnd
			}
		case overlapStart > 0:
			pos += min(overlapStart, -overlapEnd)
		case overlapEnd > 0:
			pos -= min(overlapEnd, -overlapStart)
		}
	}

	if !fits(pos) && a.adjust.Resize {
		cMin, cMax := a.constraintPos, a.constraintPos+a.constraintSize
		lo, hi := pos, pos+size
		if lo < cMin {
			lo = cMin
		}
		if hi > cMax {
			hi = cMax
		}
		if hi < lo {
			hi = lo
		}
		pos, size = lo, hi-lo
	}

	pos += a.offset
	return pos, size
}

// Place computes a positioner's placement rect, relative to the
// parent surface's coordinate space, constrained to rect (the
// parent's bounding output rect in the same space) — spec.md §4.6.
func Place(p Positioner, constraint geom.Rect) geom.Rect {
	x, w := place(axis{
		anchorPos:     p.AnchorRect.X,
		anchorSize:    p.AnchorRect.Width,
		anchorEdge:    p.AnchorX,
		gravityEdge:   p.GravityX,
		size:          p.Size.X,
		adjust:        p.AdjustX,
		offset:        p.Offset.X,
		constraintPos: constraint.X,
		constraintSize: constraint.Width,
	})
	y, h := place(axis{
		anchorPos:     p.AnchorRect.Y,
		anchorSize:    p.AnchorRect.Height,
		anchorEdge:    p.AnchorY,
		gravityEdge:   p.GravityY,
		size:          p.Size.Y,
		adjust:        p.AdjustY,
		offset:        p.Offset.Y,
		constraintPos: constraint.Y,
		constraintSize: constraint.Height,
	})
	return geom.FromXYWH(x, y, w, h)
}
