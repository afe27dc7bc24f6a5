// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package output_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/gviegas/compositor/buffer"
	"github.com/gviegas/compositor/core"
	"github.com/gviegas/compositor/geom"
	"github.com/gviegas/compositor/output"
	"github.com/gviegas/compositor/surface"
	"github.com/gviegas/compositor/wire"
)

var testLog = logrus.NewEntry(logrus.New())

type fakeResource struct{}

func (fakeResource) PostEvent(opcode uint32, args ...any) {}
func (fakeResource) Serial() uint32                       { return 0 }
func (fakeResource) ClientID() uint32                     { return 0 }

type fakeDisplay struct{ serial uint32 }

func (d *fakeDisplay) NextSerial() uint32 { d.serial++; return d.serial }
func (d *fakeDisplay) Flush(fn func())    { fn() }

type fakeCallback struct {
	done bool
	msAt uint32
}

func (cb *fakeCallback) Done(msTimestamp uint32) { cb.done, cb.msAt = true, msTimestamp }

type noopRelease struct{}

func (noopRelease) Release() error { return nil }

func mapTestSurface(t *testing.T, c *core.Core, stage *buffer.Staging, table *surface.Table, w, h int) *surface.Surface {
	t.Helper()
	s := table.New(testLog)
	xs := surface.NewXdgSurface(s, fakeResource{}, &fakeDisplay{})
	if err := s.AddAddon(xs); err != nil {
		t.Fatalf("AddAddon: %v", err)
	}

	stride := w * 4
	fd, err := unix.MemfdCreate("output-test", 0)
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
	return s
}

func TestDispatchFrameCallbacksOnlyFiresForPrimaryOutputSurfaces(t *testing.T) {
	c := openTestCore(t)
	stage, err := buffer.NewStaging(c)
	if err != nil {
		t.Fatalf("NewStaging: %v", err)
	}
	t.Cleanup(stage.Close)

	table := surface.NewTable()
	onA := mapTestSurface(t, c, stage, table, 50, 50)
	onB := mapTestSurface(t, c, stage, table, 50, 50)

	cbA := &fakeCallback{}
	cbB := &fakeCallback{}
	onA.AddFrameCallback(cbA)
	onB.AddFrameCallback(cbB)
	if _, err := onA.Commit(c, stage); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, err := onB.Commit(c, stage); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	l := output.NewLayout()
	a := newTestOutput(t, c, "a")
	b := newTestOutput(t, c, "b")
	l.Add(a, geom.FromXYWH(0, 0, 100, 100))
	l.Add(b, geom.FromXYWH(100, 0, 100, 100))

	surfaces := []output.Positioned{
		{Surface: onA, Pos: geom.Vec2{X: 0, Y: 0}},
		{Surface: onB, Pos: geom.Vec2{X: 100, Y: 0}},
	}
	output.DispatchFrameCallbacks(l, a, surfaces, 42)

	if !cbA.done || cbA.msAt != 42 {
		t.Fatalf("onA's callback should fire for output a: %+v", cbA)
	}
	if cbB.done {
		t.Fatal("onB's callback should not fire when dispatching output a")
	}

	output.DispatchFrameCallbacks(l, b, surfaces, 43)
	if !cbB.done || cbB.msAt != 43 {
		t.Fatalf("onB's callback should fire for output b: %+v", cbB)
	}
}
