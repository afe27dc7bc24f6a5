// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package render

import (
	"github.com/gviegas/compositor/driver"
	"github.com/gviegas/compositor/geom"
	"github.com/gviegas/compositor/surface"
)

// Transform mirrors wl_output's 8-way transform enum, applied to a
// Rect's sampled UVs rather than its destination geometry.
type Transform int

const (
	TransformNormal Transform = iota
	Transform90
	Transform180
	Transform270
	TransformFlipped
	TransformFlipped90
	TransformFlipped180
	TransformFlipped270
)

// Rect is one entry of a frame's draw list: a textured (or flat-
// colored, if Image is nil) rectangle in global coordinates (spec.md
// §4.7 "{image, src, dst, color, clip, transform, blend}").
type Rect struct {
	Image     driver.ImageView
	Src       geom.Rect // sub-rect of Image, in texel space
	Dst       geom.Rect // destination, in the coordinate space DrawList was built in
	Color     [4]float32
	Clip      geom.Rect
	Transform Transform
	Blend     BlendMode
}

// DrawList is one frame's ordered sequence of Rects, built in the
// fixed order spec.md §4.7 specifies: background, surface tree,
// focus border, drag icon, cursor. The list holds no ImGui overlay
// entries.
type DrawList struct {
	Rects []Rect
}

// push intersects r.Dst with r.Clip and appends it, unless the result
// is degenerate (spec.md §4.7 "degenerate clips drop the draw").
func (l *DrawList) push(r Rect) {
	if r.Clip.Intersect(r.Dst).Empty() {
		return
	}
	l.Rects = append(l.Rects, r)
}

// Scene bundles everything BuildScene needs to walk (spec.md §4.7's
// numbered list), already resolved by the caller (the compositor's
// core loop) so this package stays free of seat/output bookkeeping.
type Scene struct {
	// Table resolves the weak references held in each surface's
	// stack.
	Table *surface.Table

	// Background is drawn first, fitted to the output's framebuffer
	// rect (spec.md §4.7 "(i) background fitted to each output").
	Background driver.ImageView

	// Order lists the mapped toplevel surfaces in the compositor's
	// global stacking order, front (topmost) first, together with
	// their position in global coordinates — the "surface list"
	// spec.md §3/§4.7 refers to.
	Order []Positioned

	// FocusedToplevel draws a focus border around this surface, if
	// non-nil and present in Order (spec.md §4.7 "(iii) focus border
	// for toplevels").
	FocusedToplevel *surface.Surface

	// DragIcon, if non-nil, is drawn at DragIconPos (spec.md §4.7
	// "(v) drag icon at pointer position").
	DragIcon    driver.ImageView
	DragIconPos geom.Vec2
	DragIconSrc geom.Rect

	// Cursor is drawn last (spec.md §4.7 "(vi) cursor (surface or
	// fallback)").
	Cursor    driver.ImageView
	CursorPos geom.Vec2
	CursorSrc geom.Rect
}

// Positioned pairs a mapped toplevel surface with its current
// position in global coordinates (shared with package output's
// identically-shaped type for frame-callback resolution).
type Positioned struct {
	Surface *surface.Surface
	Pos     geom.Vec2
}

// focusBorderColor is the compositor's fixed focus-border tint,
// drawn as a flat-colored (Image == nil) Rect frame.
var focusBorderColor = [4]float32{0.3, 0.55, 1, 1}

const focusBorderWidth = 2.0

// Build walks the scene in spec.md §4.7's fixed order and returns the
// resulting DrawList in global coordinates; a caller transforms it
// into a specific output's framebuffer space with ToOutputSpace
// before issuing it (spec.md §4.7's per-output coordinate mapping is
// deliberately not baked in here, since one DrawList may be reused
// across outputs sharing the same scene).
func Build(s Scene, outputRect geom.Rect) DrawList {
	var l DrawList
	clip := outputRect

	if s.Background != nil {
		l.push(Rect{Image: s.Background, Src: unitSrc, Dst: outputRect, Color: white, Clip: clip, Blend: BlendNone})
	}

	for _, p := range s.Order {
		root, ok := s.Table.Resolve(p.Surface.Handle().Weak())
		if !ok || !root.Mapped() {
			continue
		}
		if _, toplevel := root.Addon(surface.RoleXdgToplevel).(*surface.XdgToplevel); toplevel {
			l.push(Rect{Dst: root.BufferDst().Translate(p.Pos), Color: backstopColor, Clip: clip, Blend: BlendNone})
		}
		walkStack(&l, s.Table, root, p.Pos, clip)

		if s.FocusedToplevel != nil && root == s.FocusedToplevel {
			pushFocusBorder(&l, root.BufferDst().Translate(p.Pos), clip)
		}
	}

	if s.DragIcon != nil {
		dst := geom.FromXYWH(s.DragIconPos.X, s.DragIconPos.Y, s.DragIconSrc.Width, s.DragIconSrc.Height)
		l.push(Rect{Image: s.DragIcon, Src: s.DragIconSrc, Dst: dst, Color: white, Clip: clip, Blend: BlendPremultiplied})
	}

	if s.Cursor != nil {
		dst := geom.FromXYWH(s.CursorPos.X, s.CursorPos.Y, s.CursorSrc.Width, s.CursorSrc.Height)
		l.push(Rect{Image: s.Cursor, Src: s.CursorSrc, Dst: dst, Color: white, Clip: clip, Blend: BlendPremultiplied})
	}

	return l
}

var (
	unitSrc       = geom.FromXYWH(0, 0, 1, 1)
	white         = [4]float32{1, 1, 1, 1}
	backstopColor = [4]float32{0, 0, 0, 1}
)

// walkStack draws s's own buffer then recurses into every stack
// member after it (self first, subsurfaces in stored z-order), each
// translated by parentPos plus the entry's stored position (spec.md
// §4.7 "each entry of the surface stack is drawn (self for the
// owning surface, subsurfaces recursively at their stored
// position)").
func walkStack(l *DrawList, table *surface.Table, s *surface.Surface, parentPos geom.Vec2, clip geom.Rect) {
	buf := s.Buffer()
	if buf != nil {
		dst := s.BufferDst().Translate(parentPos)
		l.push(Rect{
			Image: buf.View(),
			Src:   bufferSrc(s),
			Dst:   dst,
			Color: white,
			Clip:  clip,
			Blend: BlendPremultiplied,
		})
	}
	stack := s.Stack()
	for _, e := range stack[1:] {
		child, ok := table.Resolve(e.Surface)
		if !ok || !child.Mapped() {
			continue
		}
		walkStack(l, table, child, parentPos.Add(e.Pos), clip)
	}
}

// bufferSrc resolves a surface's source sub-rect in texel space,
// defaulting to the whole buffer when the client never set one via
// wp_viewporter (spec.md §3 "buffer_src (source sub-rect in buffer
// coordinates)").
func bufferSrc(s *surface.Surface) geom.Rect {
	buf := s.Buffer()
	if buf == nil {
		return geom.Rect{}
	}
	w, h := buf.Size()
	return geom.FromXYWH(0, 0, float64(w), float64(h))
}

// pushFocusBorder draws a thin flat-colored frame around r.
func pushFocusBorder(l *DrawList, r geom.Rect, clip geom.Rect) {
	w := focusBorderWidth
	top := geom.FromXYWH(r.X-w, r.Y-w, r.Width+2*w, w)
	bottom := geom.FromXYWH(r.X-w, r.Y+r.Height, r.Width+2*w, w)
	left := geom.FromXYWH(r.X-w, r.Y, w, r.Height)
	right := geom.FromXYWH(r.X+r.Width, r.Y, w, r.Height)
	for _, edge := range [4]geom.Rect{top, bottom, left, right} {
		l.push(Rect{Dst: edge, Color: focusBorderColor, Clip: clip, Blend: BlendNone})
	}
}

// ToOutputSpace maps a Rect's Dst/Clip from global coordinates into a
// specific output's framebuffer pixel space (spec.md §4.7 "Output
// coordinates are (global − output.layout.origin) · (output.size /
// output.layout.extent)").
func ToOutputSpace(r Rect, layoutRect geom.Rect, outWidth, outHeight int) Rect {
	sx := float64(outWidth) / layoutRect.Width
	sy := float64(outHeight) / layoutRect.Height
	origin := layoutRect.Min()
	r.Dst = translateScale(r.Dst, origin, sx, sy)
	r.Clip = translateScale(r.Clip, origin, sx, sy).Intersect(geom.FromXYWH(0, 0, float64(outWidth), float64(outHeight)))
	return r
}

func translateScale(r geom.Rect, origin geom.Vec2, sx, sy float64) geom.Rect {
	return geom.FromXYWH((r.X-origin.X)*sx, (r.Y-origin.Y)*sy, r.Width*sx, r.Height*sy)
}
