// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package geom

import "testing"

func TestRectIntersect(t *testing.T) {
	cases := []struct {
		r, s, want Rect
	}{
		{FromXYWH(0, 0, 10, 10), FromXYWH(5, 5, 10, 10), FromXYWH(5, 5, 5, 5)},
		{FromXYWH(0, 0, 10, 10), FromXYWH(20, 20, 5, 5), Rect{}},
		{FromXYWH(0, 0, 10, 10), FromXYWH(0, 0, 10, 10), FromXYWH(0, 0, 10, 10)},
	}
	for _, c := range cases {
		if got := c.r.Intersect(c.s); got != c.want {
			t.Fatalf("Rect.Intersect(%v, %v):\nhave %v\nwant %v", c.r, c.s, got, c.want)
		}
	}
}

func TestRectUnion(t *testing.T) {
	r := FromXYWH(0, 0, 10, 10)
	s := FromXYWH(20, 20, 10, 10)
	want := FromXYWH(0, 0, 30, 30)
	if got := r.Union(s); got != want {
		t.Fatalf("Rect.Union:\nhave %v\nwant %v", got, want)
	}
	if got := r.Union(Rect{}); got != r {
		t.Fatalf("Rect.Union with empty:\nhave %v\nwant %v", got, r)
	}
}

func TestRectClamp(t *testing.T) {
	r := FromXYWH(0, 0, 10, 10)
	cases := []struct {
		p, want Vec2
	}{
		{Vec2{5, 5}, Vec2{5, 5}},
		{Vec2{-5, 5}, Vec2{0, 5}},
		{Vec2{15, 5}, Vec2{10, 5}},
		{Vec2{5, -5}, Vec2{5, 0}},
		{Vec2{5, 15}, Vec2{5, 10}},
	}
	for _, c := range cases {
		if got := r.Clamp(c.p); got != c.want {
			t.Fatalf("Rect.Clamp(%v):\nhave %v\nwant %v", c.p, got, c.want)
		}
	}
}

func TestRegionSubtract(t *testing.T) {
	var reg Region
	reg.Add(FromXYWH(0, 0, 10, 10))
	reg.Subtract(FromXYWH(4, 4, 2, 2))

	if reg.Contains(Vec2{5, 5}) {
		t.Fatal("Region.Subtract: hole not carved out")
	}
	for _, p := range []Vec2{{0, 0}, {9, 0}, {0, 9}, {9, 9}} {
		if !reg.Contains(p) {
			t.Fatalf("Region.Subtract: corner %v incorrectly excluded", p)
		}
	}
}

func TestRegionConstrain(t *testing.T) {
	var reg Region
	reg.Add(FromXYWH(0, 0, 10, 10))

	if got := reg.Constrain(Vec2{5, 5}); got != (Vec2{5, 5}) {
		t.Fatalf("Region.Constrain(interior):\nhave %v\nwant %v", got, Vec2{5, 5})
	}
	if got := reg.Constrain(Vec2{20, 5}); got != (Vec2{10, 5}) {
		t.Fatalf("Region.Constrain(exterior):\nhave %v\nwant %v", got, Vec2{10, 5})
	}
}
