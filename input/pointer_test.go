// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package input_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/gviegas/compositor/buffer"
	"github.com/gviegas/compositor/core"
	_ "github.com/gviegas/compositor/driver/vk"
	"github.com/gviegas/compositor/geom"
	"github.com/gviegas/compositor/input"
	"github.com/gviegas/compositor/surface"
	"github.com/gviegas/compositor/wire"
)

var testLog = logrus.NewEntry(logrus.New())

func openTestCore(t *testing.T) *core.Core {
	t.Helper()
	c, err := core.Open(core.Options{DriverName: "vulkan"})
	if err != nil {
		t.Fatalf("core.Open: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func openTestStaging(t *testing.T, c *core.Core) *buffer.Staging {
	t.Helper()
	stage, err := buffer.NewStaging(c)
	if err != nil {
		t.Fatalf("NewStaging: %v", err)
	}
	t.Cleanup(stage.Close)
	return stage
}

type noopRelease struct{}

func (noopRelease) Release() error { return nil }

// mapSurface attaches an xdg_surface addon and a small shm buffer,
// then commits so the surface satisfies spec.md §3's "role exists and
// a buffer is currently attached" mapped condition.
func mapSurface(t *testing.T, c *core.Core, stage *buffer.Staging, table *surface.Table, r wire.Resource, display wire.Display, w, h int) *surface.Surface {
	t.Helper()
	s := table.New(testLog)
	xs := surface.NewXdgSurface(s, r, display)
	if err := s.AddAddon(xs); err != nil {
		t.Fatalf("AddAddon: %v", err)
	}

	stride := w * 4
	fd, err := unix.MemfdCreate("input-test", 0)
	if err != nil {
		t.Fatalf("MemfdCreate: %v", err)
	}
	if err := unix.Ftruncate(fd, int64(stride*h)); err != nil {
		t.Fatalf("Ftruncate: %v", err)
	}
	pool, err := buffer.NewPool(fd, stride*h)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	t.Cleanup(func() { pool.Close(); unix.Close(fd) })

	buf, err := buffer.NewShm(pool, 0, w, h, stride, buffer.FormatXRGB8888, noopRelease{}, testLog)
	if err != nil {
		t.Fatalf("NewShm: %v", err)
	}
	s.AttachBuffer(buf, 0, 0)
	if _, err := s.Commit(c, stage); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !s.Mapped() {
		t.Fatal("mapSurface: surface not mapped after commit")
	}
	return s
}

type testDisplay struct{ serial uint32 }

func (d *testDisplay) NextSerial() uint32 { d.serial++; return d.serial }
func (d *testDisplay) Flush(fn func())    { fn() }

func TestHitTestFindsTopmostFocusableSurface(t *testing.T) {
	c := openTestCore(t)
	stage := openTestStaging(t, c)

	table := surface.NewTable()
	display := &testDisplay{}
	s := mapSurface(t, c, stage, table, &fakeResource{}, display, 100, 100)

	order := []*surface.Surface{s}
	target, local, ok := input.HitTest(order, table, geom.Vec2{X: 10, Y: 10})
	if !ok || target != s {
		t.Fatalf("HitTest: expected to hit the mapped surface")
	}
	if local.X != 10 || local.Y != 10 {
		t.Fatalf("HitTest local coords:\nhave %+v\nwant (10,10)", local)
	}

	_, _, ok = input.HitTest(order, table, geom.Vec2{X: 200, Y: 200})
	if ok {
		t.Fatal("HitTest: should miss outside surface bounds")
	}
}

func TestPointerImplicitGrabHoldsFocus(t *testing.T) {
	c := openTestCore(t)
	stage := openTestStaging(t, c)

	table := surface.NewTable()
	display := &testDisplay{}
	a := mapSurface(t, c, stage, table, &fakeResource{}, display, 100, 100)

	seat := input.NewSeat("seat0", table)
	order := []*surface.Surface{a}
	seat.Pointer.AbsoluteMotion(geom.Vec2{X: 10, Y: 10}, nil, order, display)
	if seat.Pointer.Focused() != a {
		t.Fatal("expected pointer focus on surface a")
	}

	seat.Pointer.Button(272, true) // BTN_LEFT press: establishes implicit grab on a
	seat.Pointer.AbsoluteMotion(geom.Vec2{X: 500, Y: 500}, nil, order, display)
	if seat.Pointer.Focused() != a {
		t.Fatal("implicit grab should hold focus on a despite motion leaving its bounds")
	}

	seat.Pointer.Button(272, false)
	seat.Pointer.AbsoluteMotion(geom.Vec2{X: 500, Y: 500}, nil, order, display)
	if seat.Pointer.Focused() == a {
		t.Fatal("focus should release once the grab button is released and the pointer has moved off-surface")
	}
}

func TestSetCursorRejectsStaleSerial(t *testing.T) {
	c := openTestCore(t)
	stage := openTestStaging(t, c)

	table := surface.NewTable()
	display := &testDisplay{}
	s := mapSurface(t, c, stage, table, &fakeResource{}, display, 50, 50)

	seat := input.NewSeat("seat0", table)
	seat.Pointer.AbsoluteMotion(geom.Vec2{X: 5, Y: 5}, nil, []*surface.Surface{s}, display)

	if err := seat.Pointer.SetCursor(9999, 0, s, geom.Vec2{}); err != input.ErrStaleCursorSerial {
		t.Fatalf("SetCursor with wrong serial:\nhave %v\nwant %v", err, input.ErrStaleCursorSerial)
	}
}
