// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package buffer_test

import (
	"testing"

	"golang.org/x/sys/unix"

	"github.com/gviegas/compositor/buffer"
)

func TestPoolBytes(t *testing.T) {
	const size = 4096
	fd, err := unix.MemfdCreate("pool-test", 0)
	if err != nil {
		t.Fatalf("MemfdCreate: %v", err)
	}
	defer unix.Close(fd)
	if err := unix.Ftruncate(fd, size); err != nil {
		t.Fatalf("Ftruncate: %v", err)
	}

	p, err := buffer.NewPool(fd, size)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer p.Close()

	if n := len(p.Bytes()); n != size {
		t.Fatalf("Pool.Bytes len:\nhave %d\nwant %d", n, size)
	}
}

func TestPoolResizeRejectsShrink(t *testing.T) {
	const size = 4096
	fd, err := unix.MemfdCreate("pool-test", 0)
	if err != nil {
		t.Fatalf("MemfdCreate: %v", err)
	}
	defer unix.Close(fd)
	unix.Ftruncate(fd, size)

	p, err := buffer.NewPool(fd, size)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer p.Close()

	if err := p.Resize(fd, size/2); err == nil {
		t.Fatal("Resize to a smaller size: expected error")
	}
}
