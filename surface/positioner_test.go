// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package surface_test

import (
	"testing"

	"github.com/gviegas/compositor/geom"
	"github.com/gviegas/compositor/surface"
)

func TestPlaceFitsNoAdjustment(t *testing.T) {
	p := surface.Positioner{
		Size:       geom.Vec2{X: 50, Y: 30},
		AnchorRect: geom.FromXYWH(100, 100, 20, 20),
		AnchorX:    surface.EdgePos,
		AnchorY:    surface.EdgePos,
		GravityX:   surface.EdgePos,
		GravityY:   surface.EdgePos,
	}
	constraint := geom.FromXYWH(0, 0, 800, 600)
	got := surface.Place(p, constraint)
	want := geom.FromXYWH(120, 120, 50, 30)
	if got != want {
		t.Fatalf("Place:\nhave %+v\nwant %+v", got, want)
	}
}

func TestPlaceSlideY(t *testing.T) {
	// Anchor near the bottom edge, gravity downward, popup taller than
	// the remaining space below: slide should pull it up just enough
	// to fit, per spec.md's slide_y worked example.
	p := surface.Positioner{
		Size:       geom.Vec2{X: 40, Y: 100},
		AnchorRect: geom.FromXYWH(10, 550, 10, 10),
		AnchorY:    surface.EdgePos,
		GravityY:   surface.EdgePos,
		AdjustY:    surface.ConstraintAdjustment{Slide: true},
	}
	constraint := geom.FromXYWH(0, 0, 800, 600)
	got := surface.Place(p, constraint)
	if got.Y+got.Height > constraint.Y+constraint.Height {
		t.Fatalf("Place slide_y: result %+v overflows constraint %+v", got, constraint)
	}
	if got.Height != 100 {
		t.Fatalf("Place slide_y: height changed:\nhave %v\nwant 100", got.Height)
	}
}

func TestPlaceFlip(t *testing.T) {
	// Anchor at the right edge with gravity right: doesn't fit: flip
	// should choose gravity left instead, landing entirely inside the
	// constraint.
	p := surface.Positioner{
		Size:       geom.Vec2{X: 50, Y: 30},
		AnchorRect: geom.FromXYWH(780, 100, 10, 10),
		AnchorX:    surface.EdgePos,
		GravityX:   surface.EdgePos,
		AdjustX:    surface.ConstraintAdjustment{Flip: true},
	}
	constraint := geom.FromXYWH(0, 0, 800, 600)
	got := surface.Place(p, constraint)
	if got.X < constraint.X || got.X+got.Width > constraint.X+constraint.Width {
		t.Fatalf("Place flip: result %+v overflows constraint %+v", got, constraint)
	}
}

func TestPlaceSlideBothOverlapGravity(t *testing.T) {
	// Size (120) exceeds the constraint (30) on the x axis, so both
	// edges overlap at once: slide must move toward gravity's edge, not
	// snap to a fixed one (original_source/src/wroc/xdg_shell.cpp's
	// wroc_xdg_positioner_apply_axis).
	constraint := geom.FromXYWH(0, 0, 30, 600)

	forward := surface.Positioner{
		Size:       geom.Vec2{X: 120, Y: 10},
		AnchorRect: geom.FromXYWH(-5, 0, 0, 0),
		GravityX:   surface.EdgePos,
		AdjustX:    surface.ConstraintAdjustment{Slide: true},
	}
	got := surface.Place(forward, constraint)
	if got.X != 0 {
		t.Fatalf("Place slide both-overlap, forward gravity: x = %v, want 0", got.X)
	}

	backward := surface.Positioner{
		Size:       geom.Vec2{X: 120, Y: 10},
		AnchorRect: geom.FromXYWH(115, 0, 0, 0),
		GravityX:   surface.EdgeNeg,
		AdjustX:    surface.ConstraintAdjustment{Slide: true},
	}
	got = surface.Place(backward, constraint)
	if got.X != -90 {
		t.Fatalf("Place slide both-overlap, backward gravity: x = %v, want -90", got.X)
	}

	none := surface.Positioner{
		Size:       geom.Vec2{X: 120, Y: 10},
		AnchorRect: geom.FromXYWH(-5, 0, 0, 0),
		AdjustX:    surface.ConstraintAdjustment{Slide: true},
	}
	got = surface.Place(none, constraint)
	// Centered gravity places the popup at -5 + 120/2 - 120 = -65.
	if got.X != -65 {
		t.Fatalf("Place slide both-overlap, no gravity: x = %v, want unchanged -65", got.X)
	}
}

func TestPlaceResizeShrinks(t *testing.T) {
	p := surface.Positioner{
		Size:     geom.Vec2{X: 1000, Y: 20},
		AnchorRect: geom.FromXYWH(0, 0, 10, 10),
		GravityX: surface.EdgePos,
		AdjustX:  surface.ConstraintAdjustment{Resize: true},
	}
	constraint := geom.FromXYWH(0, 0, 800, 600)
	got := surface.Place(p, constraint)
	if got.Width > constraint.Width {
		t.Fatalf("Place resize: width %v exceeds constraint width %v", got.Width, constraint.Width)
	}
}
