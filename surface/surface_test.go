// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package surface_test

import (
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/gviegas/compositor/buffer"
	"github.com/gviegas/compositor/core"
	_ "github.com/gviegas/compositor/driver/vk"
	"github.com/gviegas/compositor/geom"
	"github.com/gviegas/compositor/surface"
)

var testLog = logrus.NewEntry(logrus.New())

func openCore(t *testing.T) *core.Core {
	t.Helper()
	c, err := core.Open(core.Options{DriverName: "vulkan"})
	if err != nil {
		t.Fatalf("core.Open: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestCommitAppliesRegionsAndScale(t *testing.T) {
	table := surface.NewTable()
	s := table.New(testLog)

	r := geom.Region{}
	r.Add(geom.FromXYWH(0, 0, 10, 10))
	s.SetOpaqueRegion(r)
	s.SetBufferScale(2)

	if _, err := s.Commit(nil, nil); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got := s.OpaqueRegion()
	if got.Empty() {
		t.Fatal("OpaqueRegion: expected non-empty region after commit")
	}
}

func TestAddAddonRoleTaken(t *testing.T) {
	table := surface.NewTable()
	parent := table.New(testLog)
	s := table.New(testLog)

	sub1 := surface.NewSubsurface(table, parent.Handle().Weak())
	if err := s.AddAddon(sub1); err != nil {
		t.Fatalf("AddAddon: %v", err)
	}
	sub2 := surface.NewSubsurface(table, parent.Handle().Weak())
	if err := s.AddAddon(sub2); err != surface.ErrRoleTaken {
		t.Fatalf("AddAddon on occupied role:\nhave %v\nwant %v", err, surface.ErrRoleTaken)
	}
}

func TestTableDestroyRejectsLiveAddons(t *testing.T) {
	table := surface.NewTable()
	parent := table.New(testLog)
	s := table.New(testLog)
	sub := surface.NewSubsurface(table, parent.Handle().Weak())
	if err := s.AddAddon(sub); err != nil {
		t.Fatalf("AddAddon: %v", err)
	}
	if err := table.Destroy(s.Handle()); err != surface.ErrHasAddons {
		t.Fatalf("Destroy with live addon:\nhave %v\nwant %v", err, surface.ErrHasAddons)
	}
	s.RemoveAddon(surface.RoleSubsurface)
	if err := table.Destroy(s.Handle()); err != nil {
		t.Fatalf("Destroy after RemoveAddon: %v", err)
	}
}

func TestSubsurfaceSyncDefersChildApply(t *testing.T) {
	table := surface.NewTable()
	parent := table.New(testLog)
	child := table.New(testLog)

	sub := surface.NewSubsurface(table, parent.Handle().Weak())
	if err := child.AddAddon(sub); err != nil {
		t.Fatalf("AddAddon: %v", err)
	}
	parent.AddChild(child.Handle().Weak(), geom.Vec2{X: 5, Y: 5})
	if _, err := parent.Commit(nil, nil); err != nil {
		t.Fatalf("parent Commit (seed stack): %v", err)
	}

	r := geom.Region{}
	r.Add(geom.FromXYWH(0, 0, 1, 1))
	child.SetInputRegion(r)
	if _, err := child.Commit(nil, nil); err != nil {
		t.Fatalf("child Commit: %v", err)
	}

	// The child is synchronized, so its input-region commit must not
	// have applied yet.
	if !child.InputRegion().Empty() {
		t.Fatal("child InputRegion applied before parent drove it")
	}

	if _, err := parent.Commit(nil, nil); err != nil {
		t.Fatalf("parent Commit (drive child): %v", err)
	}

	if child.InputRegion().Empty() {
		t.Fatal("child InputRegion still empty after parent commit drove synced apply")
	}
}

func TestSubsurfaceDesyncAppliesImmediately(t *testing.T) {
	table := surface.NewTable()
	parent := table.New(testLog)
	child := table.New(testLog)

	sub := surface.NewSubsurface(table, parent.Handle().Weak())
	if err := child.AddAddon(sub); err != nil {
		t.Fatalf("AddAddon: %v", err)
	}
	sub.SetSync(false)
	parent.AddChild(child.Handle().Weak(), geom.Vec2{})
	if _, err := parent.Commit(nil, nil); err != nil {
		t.Fatalf("parent Commit: %v", err)
	}

	r := geom.Region{}
	r.Add(geom.FromXYWH(0, 0, 1, 1))
	child.SetInputRegion(r)
	// The first commit still runs while sync==true (the set_desync
	// request only takes effect via this same commit's Commit hook),
	// so it queues without applying; the second commit runs with
	// sync==false and flushes both queued packets.
	if _, err := child.Commit(nil, nil); err != nil {
		t.Fatalf("child Commit (desync switch): %v", err)
	}
	if !child.InputRegion().Empty() {
		t.Fatal("child InputRegion applied before the desync switch took effect")
	}
	if _, err := child.Commit(nil, nil); err != nil {
		t.Fatalf("child Commit (flush after desync): %v", err)
	}
	if child.InputRegion().Empty() {
		t.Fatal("desynchronized child InputRegion should have applied after flush")
	}
}

func TestPlaceAboveReordersStack(t *testing.T) {
	table := surface.NewTable()
	parent := table.New(testLog)
	a := table.New(testLog)
	b := table.New(testLog)

	parent.AddChild(a.Handle().Weak(), geom.Vec2{})
	parent.AddChild(b.Handle().Weak(), geom.Vec2{})
	if _, err := parent.Commit(nil, nil); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	stack := parent.Stack()
	if len(stack) != 3 {
		t.Fatalf("Stack len:\nhave %d\nwant 3", len(stack))
	}

	if err := parent.PlaceAbove(a.Handle().Weak(), b.Handle().Weak()); err != nil {
		t.Fatalf("PlaceAbove: %v", err)
	}
	if _, err := parent.Commit(nil, nil); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	stack = parent.Stack()
	if stack[len(stack)-1].Surface != a.Handle().Weak() {
		t.Fatalf("PlaceAbove: expected %v on top, stack=%+v", a.Handle(), stack)
	}
}

func TestCommitZombieBufferDoesNotWedgeQueue(t *testing.T) {
	// A zombie buffer's Commit fires onReady synchronously with
	// ErrZombie; that must still mark the packet ready so later
	// commits on the surface keep flowing instead of queuing forever
	// behind it.
	c := openCore(t)

	spec := buffer.DmaSpec{
		Planes: []buffer.Plane{{FD: -1, Offset: 0, Stride: 16}},
		Width:  4,
		Height: 4,
		Format: buffer.Format(0xdeadbeef),
	}
	buf, err := buffer.NewDma(c, spec, nil, testLog)
	if err != nil {
		t.Fatalf("NewDma: %v", err)
	}
	if !buf.Zombie() {
		t.Fatal("NewDma with unsupported format: expected zombie buffer")
	}

	table := surface.NewTable()
	s := table.New(testLog)

	s.AttachBuffer(buf, 0, 0)
	if _, err := s.Commit(c, nil); err != nil {
		t.Fatalf("Commit with zombie buffer: %v", err)
	}
	if s.Buffer() != nil {
		t.Fatalf("Buffer after zombie commit applied: have %v, want nil", s.Buffer())
	}

	r := geom.Region{}
	r.Add(geom.FromXYWH(0, 0, 10, 10))
	s.SetOpaqueRegion(r)
	if _, err := s.Commit(c, nil); err != nil {
		t.Fatalf("Commit after zombie: %v", err)
	}
	// If the zombie packet had stayed stuck at the front of the
	// queue, this later commit would never apply.
	if s.OpaqueRegion().Empty() {
		t.Fatal("OpaqueRegion: commit queued behind a zombie buffer never applied")
	}
}
