// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package buffer_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/gviegas/compositor/buffer"
	"github.com/gviegas/compositor/core"
	_ "github.com/gviegas/compositor/driver/vk"
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

type fakeReleaser struct{ n int }

func (r *fakeReleaser) Release() error { r.n++; return nil }

func newMemfdPool(t *testing.T, size int) (*buffer.Pool, int) {
	t.Helper()
	fd, err := unix.MemfdCreate("buffer-test", 0)
	if err != nil {
		t.Fatalf("MemfdCreate: %v", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		t.Fatalf("Ftruncate: %v", err)
	}
	p, err := buffer.NewPool(fd, size)
	if err != nil {
		unix.Close(fd)
		t.Fatalf("NewPool: %v", err)
	}
	t.Cleanup(func() { p.Close(); unix.Close(fd) })
	return p, fd
}

func TestShmCommitLockRelease(t *testing.T) {
	c := openCore(t)
	stage, err := buffer.NewStaging(c)
	if err != nil {
		t.Fatalf("NewStaging: %v", err)
	}
	t.Cleanup(stage.Close)

	const w, h, stride = 4, 4, 16
	pool, _ := newMemfdPool(t, stride*h)
	data := pool.Bytes()
	for i := range data {
		data[i] = 0xFF
	}

	rel := &fakeReleaser{}
	b, err := buffer.NewShm(pool, 0, w, h, stride, buffer.FormatXRGB8888, rel, testLog)
	if err != nil {
		t.Fatalf("NewShm: %v", err)
	}

	var readyErr error
	var readyCalled bool
	guard, err := b.Commit(c, stage, func(err error) { readyCalled, readyErr = true, err })
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if guard == nil {
		t.Fatal("Commit: nil guard")
	}
	if !readyCalled {
		t.Fatal("Commit: onReady not called synchronously for shm buffer")
	}
	if readyErr != nil {
		t.Fatalf("Commit: onReady error: %v", readyErr)
	}
	if rel.n != 1 {
		t.Fatalf("Release count:\nhave %d\nwant 1", rel.n)
	}

	guard.Unlock()
	// A second lock should now succeed.
	if _, err := b.Lock(); err != nil {
		t.Fatalf("Lock after Unlock: %v", err)
	}
}

func TestCommitFailsWhileLocked(t *testing.T) {
	c := openCore(t)
	stage, err := buffer.NewStaging(c)
	if err != nil {
		t.Fatalf("NewStaging: %v", err)
	}
	t.Cleanup(stage.Close)

	pool, _ := newMemfdPool(t, 16*4)
	b, err := buffer.NewShm(pool, 0, 4, 4, 16, buffer.FormatXRGB8888, &fakeReleaser{}, testLog)
	if err != nil {
		t.Fatalf("NewShm: %v", err)
	}

	guard, err := b.Lock()
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer guard.Unlock()

	if _, err := b.Commit(c, stage, func(error) {}); err != buffer.ErrLocked {
		t.Fatalf("Commit while locked:\nhave %v\nwant %v", err, buffer.ErrLocked)
	}
}

func TestDmaZombieOnUnsupportedFormat(t *testing.T) {
	c := openCore(t)
	stage, err := buffer.NewStaging(c)
	if err != nil {
		t.Fatalf("NewStaging: %v", err)
	}
	t.Cleanup(stage.Close)

	spec := buffer.DmaSpec{
		Planes: []buffer.Plane{{FD: -1, Offset: 0, Stride: 16}},
		Width:  4,
		Height: 4,
		Format: buffer.Format(0xdeadbeef),
	}
	b, err := buffer.NewDma(c, spec, &fakeReleaser{}, testLog)
	if err != nil {
		t.Fatalf("NewDma: %v", err)
	}
	if !b.Zombie() {
		t.Fatal("NewDma with unsupported format: expected zombie buffer")
	}
	if _, err := b.Commit(c, stage, func(error) {}); err != buffer.ErrZombie {
		t.Fatalf("Commit on zombie:\nhave %v\nwant %v", err, buffer.ErrZombie)
	}
}

func TestDmaMissingSyncPoints(t *testing.T) {
	spec := buffer.DmaSpec{
		Planes:          []buffer.Plane{{FD: -1, Stride: 16}},
		Width:           4,
		Height:          4,
		Format:          buffer.FormatXRGB8888,
		SyncobjRequired: true,
	}
	if _, err := buffer.NewDma(nil, spec, &fakeReleaser{}, testLog); err != buffer.ErrMissingSyncPoints {
		t.Fatalf("NewDma missing sync points:\nhave %v\nwant %v", err, buffer.ErrMissingSyncPoints)
	}
}

