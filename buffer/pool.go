// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package buffer

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Pool is a client-owned shared-memory mapping backing one or more Shm
// buffers (wl_shm_pool). Each Buffer created from a Pool addresses a
// byte range within it via offset/stride.
type Pool struct {
	data []byte
}

// NewPool maps size bytes of fd, which the client is expected to have
// created with memfd_create (or an equivalent shm-backed descriptor)
// and sized with ftruncate.
func NewPool(fd int, size int) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("buffer: NewPool: invalid size %d", size)
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("buffer: Mmap: %w", err)
	}
	return &Pool{data: data}, nil
}

// Resize grows the pool's mapping to newSize. It is invalid to shrink
// a pool (wl_shm_pool.resize forbids it) and this returns an error in
// that case rather than silently truncating live buffers.
func (p *Pool) Resize(fd int, newSize int) error {
	if newSize <= len(p.data) {
		return fmt.Errorf("buffer: Pool.Resize: new size %d not greater than current %d", newSize, len(p.data))
	}
	if err := unix.Munmap(p.data); err != nil {
		return fmt.Errorf("buffer: Munmap: %w", err)
	}
	data, err := unix.Mmap(fd, 0, newSize, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("buffer: Mmap: %w", err)
	}
	p.data = data
	return nil
}

// Close unmaps the pool. Buffers created from it must not be used
// afterwards.
func (p *Pool) Close() error {
	if p.data == nil {
		return nil
	}
	err := unix.Munmap(p.data)
	p.data = nil
	return err
}

// Bytes returns the pool's backing memory. The slice must not be
// retained past a call to Resize or Close.
func (p *Pool) Bytes() []byte { return p.data }
