// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package buffer

import (
	"fmt"
	"sync"

	"github.com/gviegas/compositor/core"
	"github.com/gviegas/compositor/driver"
)

// stagingBlock is the granularity of the staging buffer's growth,
// chosen so that a handful of common surface sizes (cursor, small
// popups) fit in the first block without growing.
const stagingBlock = 1 << 20 // 1 MiB

// Staging is a single growable host-visible GPU buffer used to copy
// shm pixel data into sampled images, adapted from the teacher
// engine's stagingBuffer (engine/staging.go) but collapsed to one
// buffer driven synchronously from the main loop — this compositor's
// concurrency model has exactly one thread ever recording ingress
// commands, so the channel-guarded pool of N buffers the teacher used
// to let worker goroutines upload textures in parallel has no
// counterpart here.
type Staging struct {
	mu  sync.Mutex
	cb  driver.CmdBuffer
	buf driver.Buffer
	cap int64
}

// NewStaging creates an empty Staging pool; its buffer grows lazily
// on first use.
func NewStaging(c *core.Core) (*Staging, error) {
	cb, err := c.GPU().NewCmdBuffer()
	if err != nil {
		return nil, fmt.Errorf("buffer: NewStaging: NewCmdBuffer: %w", err)
	}
	return &Staging{cb: cb}, nil
}

// Upload copies data (stride*height bytes, tightly describing a
// width×height image of img's pixel format) into img via the staging
// buffer, blocking until the GPU submission completes. view must be a
// 2D view of img covering layer 0, level 0 — the same view the
// buffer's ingress path keeps alongside img for sampling.
func (s *Staging) Upload(c *core.Core, img driver.Image, view driver.ImageView, width, height, stride int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	need := int64(len(data))
	if need > s.cap {
		if s.buf != nil {
			s.buf.Destroy()
		}
		newCap := (need + stagingBlock - 1) &^ (stagingBlock - 1)
		buf, err := c.GPU().NewBuffer(newCap, true, driver.UCopySrc|driver.UCopyDst)
		if err != nil {
			s.buf, s.cap = nil, 0
			return fmt.Errorf("buffer: Staging.Upload: NewBuffer: %w", err)
		}
		s.buf, s.cap = buf, newCap
	}
	copy(s.buf.Bytes(), data)

	if err := s.cb.Begin(); err != nil {
		return fmt.Errorf("buffer: Staging.Upload: Begin: %w", err)
	}
	s.cb.BeginBlit(false)
	s.cb.Transition([]driver.Transition{
		{
			Barrier: driver.Barrier{
				SyncBefore:   driver.SNone,
				SyncAfter:    driver.SCopy,
				AccessBefore: driver.ANone,
				AccessAfter:  driver.ACopyWrite,
			},
			LayoutBefore: driver.LUndefined,
			LayoutAfter:  driver.LCopyDst,
			IView:        view,
		},
	})
	s.cb.CopyBufToImg(&driver.BufImgCopy{
		Buf:    s.buf,
		BufOff: 0,
		Stride: [2]int64{int64(stride / 4), int64(height)},
		Img:    img,
		Size:   driver.Dim3D{Width: width, Height: height, Depth: 1},
		Layer:  0,
		Level:  0,
	})
	s.cb.EndBlit()
	if err := s.cb.End(); err != nil {
		s.cb.Reset()
		return fmt.Errorf("buffer: Staging.Upload: End: %w", err)
	}

	ch := make(chan error, 1)
	c.GPU().Commit([]driver.CmdBuffer{s.cb}, ch)
	return <-ch
}

// Close destroys the staging resources.
func (s *Staging) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf != nil {
		s.buf.Destroy()
		s.buf = nil
	}
	if s.cb != nil {
		s.cb.Destroy()
		s.cb = nil
	}
}
