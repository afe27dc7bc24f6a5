// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package input

import (
	"image"

	"golang.org/x/image/draw"
)

// FallbackCursor is the compositor's own XCursor-theme rendering of a
// named shape, used as the bottom of the cursor priority list when
// neither a cursor-shape request nor a client cursor surface applies
// (spec.md §4.3).
type FallbackCursor struct {
	Image   *image.NRGBA
	Hotspot image.Point
}

// XCursorTheme resolves shape names (from wp_cursor_shape_v1 or the
// compositor's own built-in bindings) to pre-rendered fallback
// cursors. Loading the actual XCursor theme files from disk is left
// to the caller (the backend knows XCURSOR_PATH/XCURSOR_THEME); this
// type only owns compositing the looked-up frame onto a fixed-size
// canvas at the stated hotspot.
type XCursorTheme struct {
	cursors map[string]FallbackCursor
}

// NewXCursorTheme creates an empty theme; Add populates it.
func NewXCursorTheme() *XCursorTheme {
	return &XCursorTheme{cursors: make(map[string]FallbackCursor)}
}

// Add registers shape under name.
func (t *XCursorTheme) Add(name string, shape FallbackCursor) {
	t.cursors[name] = shape
}

// Lookup resolves name, falling back to "default" (left_ptr) if name
// is unknown, then to false if even that is missing.
func (t *XCursorTheme) Lookup(name string) (FallbackCursor, bool) {
	if c, ok := t.cursors[name]; ok {
		return c, true
	}
	c, ok := t.cursors["left_ptr"]
	return c, ok
}

// cursorShapeNames maps a zwp_cursor_shape_v1 shape enum value to the
// XCursor theme lookup name spec.md §4's supplemented operations
// section names (`left_ptr`, `grab`, `text`, ...).
var cursorShapeNames = map[string]string{
	"default":      "left_ptr",
	"pointer":      "hand2",
	"grab":         "grab",
	"grabbing":     "grabbing",
	"text":         "text",
	"crosshair":    "crosshair",
	"not-allowed":  "not-allowed",
	"wait":         "watch",
	"progress":     "left_ptr_watch",
	"move":         "move",
	"resize-e":     "e-resize",
	"resize-w":     "w-resize",
	"resize-n":     "n-resize",
	"resize-s":     "s-resize",
	"resize-ew":    "ew-resize",
	"resize-ns":    "ns-resize",
	"resize-nesw":  "nesw-resize",
	"resize-nwse":  "nwse-resize",
}

// ResolveShape maps a wp_cursor_shape_v1 shape name to an XCursor
// theme lookup name.
func ResolveShape(shape string) string {
	if name, ok := cursorShapeNames[shape]; ok {
		return name
	}
	return "left_ptr"
}

// Composite draws src onto dst at pos, offset by hotspot so that
// hotspot lands exactly at pos (spec.md §4.3 "the hotspot displaces
// the cursor surface upward-left of the cursor position"). When
// wantSize differs from src's own size (the output's scale factor
// doesn't match the theme frame the lookup returned), src is resized
// with a bilinear filter first — the same scaler gioui.org uses for
// its own image content.
func Composite(dst draw.Image, pos image.Point, src image.Image, hotspot, wantSize image.Point) {
	if wantSize != src.Bounds().Size() && wantSize.X > 0 && wantSize.Y > 0 {
		scaled := image.NewNRGBA(image.Rectangle{Max: wantSize})
		draw.BiLinear.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Over, nil)
		sx := float64(wantSize.X) / float64(src.Bounds().Dx())
		sy := float64(wantSize.Y) / float64(src.Bounds().Dy())
		hotspot = image.Pt(int(float64(hotspot.X)*sx), int(float64(hotspot.Y)*sy))
		src = scaled
	}
	origin := pos.Sub(hotspot)
	r := image.Rectangle{Min: origin, Max: origin.Add(src.Bounds().Size())}
	draw.Draw(dst, r, src, src.Bounds().Min, draw.Over)
}
