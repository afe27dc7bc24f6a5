// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package render

import (
	"testing"

	"github.com/gviegas/compositor/geom"
)

func TestDrawListPushDropsDegenerateClip(t *testing.T) {
	var l DrawList
	out := geom.FromXYWH(0, 0, 100, 100)

	// Entirely outside the clip: dropped.
	l.push(Rect{Dst: geom.FromXYWH(200, 200, 10, 10), Clip: out})
	if len(l.Rects) != 0 {
		t.Fatalf("got %d rects, want 0 (fully clipped)", len(l.Rects))
	}

	// Straddles the clip edge: kept.
	l.push(Rect{Dst: geom.FromXYWH(90, 90, 20, 20), Clip: out})
	if len(l.Rects) != 1 {
		t.Fatalf("got %d rects, want 1 (partially clipped)", len(l.Rects))
	}

	// Zero-area destination: dropped.
	l.push(Rect{Dst: geom.FromXYWH(10, 10, 0, 5), Clip: out})
	if len(l.Rects) != 1 {
		t.Fatalf("got %d rects, want 1 (degenerate dst not appended)", len(l.Rects))
	}
}

func TestBuildOrderBackgroundBeforeCursor(t *testing.T) {
	s := Scene{
		Background: fakeView{},
		Cursor:     fakeView{},
		CursorPos:  geom.Vec2{X: 5, Y: 5},
		CursorSrc:  geom.FromXYWH(0, 0, 16, 16),
	}
	out := geom.FromXYWH(0, 0, 800, 600)
	l := Build(s, out)

	if len(l.Rects) != 2 {
		t.Fatalf("got %d rects, want 2 (background + cursor)", len(l.Rects))
	}
	if l.Rects[0].Image != s.Background {
		t.Fatalf("rect 0 is not the background")
	}
	if l.Rects[1].Image != s.Cursor {
		t.Fatalf("rect 1 is not the cursor")
	}
	if l.Rects[0].Blend != BlendNone {
		t.Fatalf("background blend = %v, want BlendNone", l.Rects[0].Blend)
	}
	if l.Rects[1].Blend != BlendPremultiplied {
		t.Fatalf("cursor blend = %v, want BlendPremultiplied", l.Rects[1].Blend)
	}
}

func TestBuildDragIconBeforeCursor(t *testing.T) {
	s := Scene{
		DragIcon:    fakeView{},
		DragIconPos: geom.Vec2{X: 1, Y: 2},
		DragIconSrc: geom.FromXYWH(0, 0, 8, 8),
		Cursor:      fakeView{},
		CursorPos:   geom.Vec2{X: 3, Y: 4},
		CursorSrc:   geom.FromXYWH(0, 0, 8, 8),
	}
	out := geom.FromXYWH(0, 0, 800, 600)
	l := Build(s, out)

	if len(l.Rects) != 2 {
		t.Fatalf("got %d rects, want 2", len(l.Rects))
	}
	if l.Rects[0].Image != s.DragIcon {
		t.Fatalf("drag icon did not come first")
	}
	if l.Rects[1].Image != s.Cursor {
		t.Fatalf("cursor did not come last")
	}
}

func TestToOutputSpaceScalesAndTranslates(t *testing.T) {
	r := Rect{
		Dst:  geom.FromXYWH(100, 100, 50, 50),
		Clip: geom.FromXYWH(0, 0, 400, 400),
	}
	layout := geom.FromXYWH(100, 100, 200, 200) // output covers global [100,300)x[100,300)

	out := ToOutputSpace(r, layout, 100, 100) // half-scale framebuffer

	want := geom.FromXYWH(0, 0, 25, 25)
	if out.Dst != want {
		t.Fatalf("Dst = %+v, want %+v", out.Dst, want)
	}
	if out.Clip.Empty() {
		t.Fatalf("Clip unexpectedly empty")
	}
}

func TestToOutputSpaceClipsToFramebuffer(t *testing.T) {
	r := Rect{
		Dst:  geom.FromXYWH(-50, -50, 30, 30), // entirely left of the output
		Clip: geom.FromXYWH(-1000, -1000, 2000, 2000),
	}
	layout := geom.FromXYWH(0, 0, 100, 100)

	out := ToOutputSpace(r, layout, 100, 100)
	if vis := out.Clip.Intersect(out.Dst); !vis.Empty() {
		t.Fatalf("Clip∩Dst = %+v, want empty (dst fully off-output)", vis)
	}
}

// fakeView is a zero-size driver.ImageView stand-in for tests that
// only need identity comparisons, not actual GPU resources.
type fakeView struct{}

func (fakeView) Destroy() {}
