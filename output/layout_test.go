// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package output_test

import (
	"testing"

	"github.com/gviegas/compositor/geom"
	"github.com/gviegas/compositor/output"
)

func TestClampPositionInsideOutputIsUnchanged(t *testing.T) {
	c := openTestCore(t)
	l := output.NewLayout()
	a := newTestOutput(t, c, "a")
	l.Add(a, geom.FromXYWH(0, 0, 320, 240))

	p := geom.Vec2{X: 10, Y: 10}
	if got := l.ClampPosition(p); got != p {
		t.Fatalf("ClampPosition inside output:\nhave %+v\nwant %+v", got, p)
	}
}

func TestClampPositionOutsideAllOutputsClampsToNearest(t *testing.T) {
	c := openTestCore(t)
	l := output.NewLayout()
	a := newTestOutput(t, c, "a")
	l.Add(a, geom.FromXYWH(0, 0, 320, 240))

	got := l.ClampPosition(geom.Vec2{X: 1000, Y: 1000})
	if got.X > 320 || got.Y > 240 {
		t.Fatalf("ClampPosition outside all outputs:\nhave %+v", got)
	}
}

func TestOutputForSurfaceResolvesByCentroid(t *testing.T) {
	c := openTestCore(t)
	l := output.NewLayout()
	a := newTestOutput(t, c, "a")
	b := newTestOutput(t, c, "b")
	l.Add(a, geom.FromXYWH(0, 0, 320, 240))
	l.Add(b, geom.FromXYWH(320, 0, 320, 240))

	onA := geom.FromXYWH(10, 10, 50, 50)   // centroid (35,35) -> output a
	onB := geom.FromXYWH(340, 10, 50, 50) // centroid (365,35) -> output b

	got, ok := l.OutputForSurface(onA)
	if !ok || got != a {
		t.Fatalf("OutputForSurface(onA): expected output a")
	}
	got, ok = l.OutputForSurface(onB)
	if !ok || got != b {
		t.Fatalf("OutputForSurface(onB): expected output b")
	}
}

func TestPrimaryIsFirstAddedByDefault(t *testing.T) {
	c := openTestCore(t)
	l := output.NewLayout()
	a := newTestOutput(t, c, "a")
	b := newTestOutput(t, c, "b")
	l.Add(a, geom.FromXYWH(0, 0, 320, 240))
	l.Add(b, geom.FromXYWH(320, 0, 320, 240))

	if l.Primary() != a {
		t.Fatal("expected the first-added output to be primary by default")
	}
	l.SetPrimary(b)
	if l.Primary() != b {
		t.Fatal("SetPrimary should change the layout's primary output")
	}
}
