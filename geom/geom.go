// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package geom implements 2D geometry for the scene graph, input
// routing and renderer.
//
// It replaces the GLM-like, operator-heavy math that a systems
// language would use for this with explicit types and named
// constructors, per the usual Go idiom.
package geom

import "math"

// Vec2 is a two-component vector of float64.
// Surface and pointer coordinates are tracked at this precision;
// only the renderer narrows to float32 when building vertex data.
type Vec2 struct{ X, Y float64 }

// Add returns v + w.
func (v Vec2) Add(w Vec2) Vec2 { return Vec2{v.X + w.X, v.Y + w.Y} }

// Sub returns v - w.
func (v Vec2) Sub(w Vec2) Vec2 { return Vec2{v.X - w.X, v.Y - w.Y} }

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Floor truncates both components toward negative infinity.
func (v Vec2) Floor() Vec2 { return Vec2{math.Floor(v.X), math.Floor(v.Y)} }

// Rect is an axis-aligned rectangle in some coordinate space.
// The zero value is the empty rectangle at the origin.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// FromXYWH creates a Rect from a position and extent.
func FromXYWH(x, y, w, h float64) Rect { return Rect{x, y, w, h} }

// FromMinMax creates a Rect from opposing corners.
// It panics if max is not greater than or equal to min on both axes.
func FromMinMax(min, max Vec2) Rect {
	if max.X < min.X || max.Y < min.Y {
		panic("geom: FromMinMax: max < min")
	}
	return Rect{min.X, min.Y, max.X - min.X, max.Y - min.Y}
}

// Min returns the rectangle's minimum corner.
func (r Rect) Min() Vec2 { return Vec2{r.X, r.Y} }

// Max returns the rectangle's maximum corner.
func (r Rect) Max() Vec2 { return Vec2{r.X + r.Width, r.Y + r.Height} }

// Center returns the rectangle's center point.
func (r Rect) Center() Vec2 { return Vec2{r.X + r.Width/2, r.Y + r.Height/2} }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Contains reports whether p lies within r (min inclusive, max exclusive).
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Translate returns r offset by d.
func (r Rect) Translate(d Vec2) Rect { return Rect{r.X + d.X, r.Y + d.Y, r.Width, r.Height} }

// Intersect returns the overlapping area of r and s.
// The result is the empty rectangle (Empty() == true) when they do not
// overlap; callers that need to detect a degenerate clip (see spec.md
// §4.7) must check Empty explicitly rather than relying on zero values.
func (r Rect) Intersect(s Rect) Rect {
	x0 := math.Max(r.X, s.X)
	y0 := math.Max(r.Y, s.Y)
	x1 := math.Min(r.X+r.Width, s.X+s.Width)
	y1 := math.Min(r.Y+r.Height, s.Y+s.Height)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{x0, y0, x1 - x0, y1 - y0}
}

// Union returns the smallest rectangle containing both r and s.
// An empty operand is ignored, matching the AABB accumulation that
// XDG-surface geometry fallback needs (spec.md §4.2).
func (r Rect) Union(s Rect) Rect {
	switch {
	case r.Empty():
		return s
	case s.Empty():
		return r
	}
	return FromMinMax(
		Vec2{math.Min(r.X, s.X), math.Min(r.Y, s.Y)},
		Vec2{math.Max(r.X+r.Width, s.X+s.Width), math.Max(r.Y+r.Height, s.Y+s.Height)},
	)
}

// Scaled returns r with both axes multiplied by sx, sy.
func (r Rect) Scaled(sx, sy float64) Rect {
	return Rect{r.X * sx, r.Y * sy, r.Width * sx, r.Height * sy}
}

// Clamp returns p moved into r by the minimum distance necessary.
func (r Rect) Clamp(p Vec2) Vec2 {
	x, y := p.X, p.Y
	switch {
	case r.Width <= 0:
		x = r.X
	case x < r.X:
		x = r.X
	case x > r.X+r.Width:
		x = r.X + r.Width
	}
	switch {
	case r.Height <= 0:
		y = r.Y
	case y < r.Y:
		y = r.Y
	case y > r.Y+r.Height:
		y = r.Y + r.Height
	}
	return Vec2{x, y}
}
