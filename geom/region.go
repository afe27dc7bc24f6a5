// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package geom

import "math"

// Region is an area described as a union of rectangles.
// It is used for a surface's opaque_region, input_region, and for a
// pointer constraint's confinement region (spec.md §3, §4.4).
type Region struct {
	rects []Rect
}

// RegionOf creates a Region containing a single rectangle.
func RegionOf(r Rect) Region {
	if r.Empty() {
		return Region{}
	}
	return Region{rects: []Rect{r}}
}

// Clear empties the region.
func (g *Region) Clear() { g.rects = g.rects[:0] }

// Empty reports whether the region contains no area.
func (g *Region) Empty() bool { return len(g.rects) == 0 }

// Add unions r into the region.
func (g *Region) Add(r Rect) {
	if r.Empty() {
		return
	}
	g.rects = append(g.rects, r)
}

// Subtract removes sub from every rectangle in the region, splitting
// rectangles that only partially overlap it.
// It mirrors the split-into-four-rects technique of
// core_aabb_subtract in the original implementation.
func (g *Region) Subtract(sub Rect) {
	if sub.Empty() {
		return
	}
	kept := g.rects[:0]
	for _, r := range g.rects {
		kept = append(kept, subtractRect(r, sub)...)
	}
	g.rects = kept
}

// subtractRect returns the pieces of r that remain after removing sub.
func subtractRect(r, sub Rect) []Rect {
	ov := r.Intersect(sub)
	if ov.Empty() {
		return []Rect{r}
	}
	var out []Rect
	// Top strip.
	if ov.Y > r.Y {
		out = append(out, FromXYWH(r.X, r.Y, r.Width, ov.Y-r.Y))
	}
	// Bottom strip.
	if rBottom, ovBottom := r.Y+r.Height, ov.Y+ov.Height; ovBottom < rBottom {
		out = append(out, FromXYWH(r.X, ovBottom, r.Width, rBottom-ovBottom))
	}
	// Left strip (constrained to the overlap's vertical span).
	if ov.X > r.X {
		out = append(out, FromXYWH(r.X, ov.Y, ov.X-r.X, ov.Height))
	}
	// Right strip.
	if rRight, ovRight := r.X+r.Width, ov.X+ov.Width; ovRight < rRight {
		out = append(out, FromXYWH(ovRight, ov.Y, rRight-ovRight, ov.Height))
	}
	return out
}

// Contains reports whether p lies inside the region.
func (g *Region) Contains(p Vec2) bool {
	for _, r := range g.rects {
		if r.Contains(p) {
			return true
		}
	}
	return false
}

// ContainsRect reports whether needle is fully contained in the region
// (i.e., some single rectangle of the region contains it entirely;
// the region is not flattened into a coalesced shape).
func (g *Region) ContainsRect(needle Rect) bool {
	for _, r := range g.rects {
		if r.Intersect(needle) == needle {
			return true
		}
	}
	return false
}

// Constrain returns the point in the region closest to p.
// If p already lies in the region, it is returned unchanged.
// It is used to clamp pointer motion into a confinement region
// (spec.md §4.4).
func (g *Region) Constrain(p Vec2) Vec2 {
	if g.Empty() {
		return p
	}
	best := p
	bestDist := math.Inf(1)
	for _, r := range g.rects {
		c := r.Clamp(p)
		if c == p {
			return p
		}
		d := math.Hypot(c.X-p.X, c.Y-p.Y)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

// Rects returns the region's constituent rectangles.
// The returned slice must not be modified.
func (g *Region) Rects() []Rect { return g.rects }

// Clone returns an independent copy of g.
// Surface state is double-buffered (spec.md §3): a pending region must
// be snapshotted into a commit packet without aliasing later mutation
// of the live pending value.
func (g Region) Clone() Region { return Region{rects: append([]Rect(nil), g.rects...)} }
