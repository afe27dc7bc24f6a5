// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package buffer implements the buffer & lock model (spec.md §3, §4.1):
// reference-counted pixel sources (shared-memory or DMA-BUF-imported)
// that coordinate ingress into the GPU abstraction and release back to
// the client against surface commits.
package buffer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/gviegas/compositor/core"
	"github.com/gviegas/compositor/driver"
)

// Kind distinguishes the two buffer variants the data model names.
type Kind int

const (
	KindShm Kind = iota
	KindDma
)

// Plane describes one DMA-BUF plane's file descriptor and addressing.
type Plane struct {
	FD     int
	Offset uint32
	Stride uint32
}

// Syncobj is a DRM timeline synchronization point: a syncobj file
// descriptor plus the point on its timeline to wait on or signal.
type Syncobj struct {
	FD    int
	Point uint64
}

// Releaser delivers a buffer's release back to whoever is holding it:
// wl_buffer.release for Shm, or a timeline-point signal for Dma. It is
// supplied by the (out-of-scope) wire-protocol dispatcher.
type Releaser interface {
	Release() error
}

var (
	// ErrLocked is returned by Lock/Commit when a buffer already has
	// a live LockGuard.
	ErrLocked = errors.New("buffer: already locked")
	// ErrZombie is returned by Commit on a buffer whose GPU import
	// failed permanently (spec.md §4.1 "zombie" buffer).
	ErrZombie = errors.New("buffer: zombie buffer")
	// ErrMissingSyncPoints is the protocol error raised when a dma
	// buffer arrives without both acquire and release points while a
	// syncobj surface addon is present (spec.md §4.1).
	ErrMissingSyncPoints = errors.New("buffer: dma buffer missing acquire/release sync points")
)

// Buffer is a reference-counted pixel source, either Shm or Dma.
type Buffer struct {
	mu sync.Mutex

	kind Kind

	// Shm fields.
	pool   *Pool
	offset int
	stride int
	width  int
	height int
	format Format

	// Dma fields.
	planes    []Plane
	modifier  uint64
	needsWait bool
	acquire   *Syncobj
	release   *Syncobj

	image driver.Image
	view  driver.ImageView

	locked   bool
	zombie   bool
	released bool

	releaser Releaser
	log      *logrus.Entry
}

// LockGuard represents exclusive use of a Buffer by one in-flight
// surface commit. Its zero value is invalid; obtain one from Lock or
// Commit. Unlock must be called exactly once.
type LockGuard struct {
	b *Buffer
}

// Unlock releases the guard, calling the buffer's on-unlock hook. It
// is safe to call at most once per guard.
func (g *LockGuard) Unlock() {
	if g == nil || g.b == nil {
		return
	}
	g.b.unlock()
	g.b = nil
}

// NewShm creates a Shm-backed Buffer. Parameter validation (stride
// large enough for width*BytesPerPixel, offset+stride*height within
// the pool) happens here rather than at commit time, since a
// malformed wl_shm.create_buffer is itself the protocol error.
func NewShm(pool *Pool, offset, width, height, stride int, format Format, releaser Releaser, log *logrus.Entry) (*Buffer, error) {
	bpp := format.BytesPerPixel()
	if stride < width*bpp {
		return nil, fmt.Errorf("buffer: NewShm: stride %d too small for width %d", stride, width)
	}
	if need := offset + stride*height; need > len(pool.Bytes()) {
		return nil, fmt.Errorf("buffer: NewShm: buffer extends %d bytes past pool size %d", need, len(pool.Bytes()))
	}
	return &Buffer{
		kind:     KindShm,
		pool:     pool,
		offset:   offset,
		stride:   stride,
		width:    width,
		height:   height,
		format:   format,
		releaser: releaser,
		log:      log,
	}, nil
}

// DmaSpec describes a client's zwp_linux_dmabuf_v1 buffer proposal.
type DmaSpec struct {
	Planes   []Plane
	Modifier uint64
	Width    int
	Height   int
	Format   Format
	// Acquire/Release are nil when the client relies on implicit
	// sync (no wp_linux_drm_syncobj_manager_v1 addon on the surface).
	Acquire *Syncobj
	Release *Syncobj
	// SyncobjRequired is set when the target surface has a syncobj
	// addon attached; in that case both Acquire and Release must be
	// non-nil (spec.md §4.1).
	SyncobjRequired bool
}

// NewDma imports a DMA-BUF-backed Buffer. c.GPU() performs the actual
// import; a failure there produces a permanent zombie buffer rather
// than a nil result/error, matching spec.md §4.1's "commits fail
// cleanly" contract — callers still get an object they can safely
// attach to a surface and later discard.
func NewDma(c *core.Core, spec DmaSpec, releaser Releaser, log *logrus.Entry) (*Buffer, error) {
	if spec.SyncobjRequired && (spec.Acquire == nil || spec.Release == nil) {
		return nil, ErrMissingSyncPoints
	}
	if len(spec.Planes) == 0 {
		return nil, errors.New("buffer: NewDma: no planes")
	}
	if len(spec.Planes) > 1 {
		// Multi-plane DMA-BUF import is out of scope (spec.md §9
		// Open Question: "DMA-BUF multi-plane support is
		// asserted-out in the source").
		return nil, fmt.Errorf("buffer: NewDma: multi-plane import not supported (%d planes)", len(spec.Planes))
	}

	b := &Buffer{
		kind:      KindDma,
		planes:    spec.Planes,
		modifier:  spec.Modifier,
		width:     spec.Width,
		height:    spec.Height,
		needsWait: spec.Acquire != nil,
		acquire:   spec.Acquire,
		release:   spec.Release,
		releaser:  releaser,
		log:       log,
	}

	pf, err := spec.Format.PixelFmt()
	if err != nil {
		log.WithError(err).Warn("buffer: dma import: unsupported format, buffer is a zombie")
		b.zombie = true
		return b, nil
	}
	img, err := c.GPU().NewImage(pf, driver.Dim3D{Width: spec.Width, Height: spec.Height, Depth: 1}, 1, 1, 1, driver.UShaderSample|driver.UCopyDst)
	if err != nil {
		log.WithError(err).Warn("buffer: dma import: image creation failed, buffer is a zombie")
		b.zombie = true
		return b, nil
	}
	view, err := img.NewView(driver.IView2D, 0, 1, 0, 1)
	if err != nil {
		img.Destroy()
		log.WithError(err).Warn("buffer: dma import: view creation failed, buffer is a zombie")
		b.zombie = true
		return b, nil
	}
	b.image = img
	b.view = view
	return b, nil
}

// Kind reports whether the buffer is Shm- or Dma-backed.
func (b *Buffer) Kind() Kind { return b.kind }

// Zombie reports whether this buffer permanently fails ingress.
func (b *Buffer) Zombie() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.zombie
}

// View returns the image view backing this buffer's GPU-visible
// contents, once ingress has completed. It is nil before the first
// successful Commit (Shm) or before the acquire wait completes (Dma).
func (b *Buffer) View() driver.ImageView { return b.view }

// Size returns the buffer's pixel extent, as declared at creation
// (wl_shm.create_buffer's width/height, or the DmaSpec's).
func (b *Buffer) Size() (width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

// Lock acquires the buffer's single LockGuard without performing
// ingress. It is used by callers (e.g. a cursor-surface fast path)
// that already know the buffer is ready.
func (b *Buffer) Lock() (*LockGuard, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.locked {
		return nil, ErrLocked
	}
	b.locked = true
	return &LockGuard{b: b}, nil
}

func (b *Buffer) unlock() {
	b.mu.Lock()
	b.locked = false
	b.mu.Unlock()
}

// Commit performs format-specific ingress and yields a lock. onReady
// is invoked once ingress has completed (synchronously for Shm and
// for already-satisfied Dma buffers; from the main loop, via
// c.Loop.Post, once a spawned wait task observes the Dma acquire
// fence). Until onReady fires for a Dma buffer, the surface must not
// apply any later commit referencing this buffer (spec.md §4.1).
func (b *Buffer) Commit(c *core.Core, stage *Staging, onReady func(error)) (*LockGuard, error) {
	b.mu.Lock()
	if b.zombie {
		b.mu.Unlock()
		onReady(ErrZombie)
		return nil, ErrZombie
	}
	if b.locked {
		b.mu.Unlock()
		return nil, ErrLocked
	}
	b.locked = true
	b.released = false
	b.mu.Unlock()

	guard := &LockGuard{b: b}

	switch b.kind {
	case KindShm:
		err := b.ingressShm(c, stage)
		if err != nil {
			b.log.WithError(err).Warn("buffer: shm ingress failed")
		}
		// The client can reuse the shm memory immediately once the
		// copy into the GPU image has been recorded.
		b.Release()
		onReady(err)
	case KindDma:
		if !b.needsWait {
			onReady(nil)
			break
		}
		go b.waitAcquire(c, onReady)
	}
	return guard, nil
}

// ingressShm copies stride*height bytes from the pool mapping into
// the buffer's GPU image via the staging pool.
func (b *Buffer) ingressShm(c *core.Core, stage *Staging) error {
	pf, err := b.format.PixelFmt()
	if err != nil {
		return err
	}
	if b.image == nil {
		img, err := c.GPU().NewImage(pf, driver.Dim3D{Width: b.width, Height: b.height, Depth: 1}, 1, 1, 1, driver.UShaderSample|driver.UCopyDst)
		if err != nil {
			return fmt.Errorf("buffer: ingressShm: NewImage: %w", err)
		}
		view, err := img.NewView(driver.IView2D, 0, 1, 0, 1)
		if err != nil {
			img.Destroy()
			return fmt.Errorf("buffer: ingressShm: NewView: %w", err)
		}
		b.image = img
		b.view = view
	}
	data := b.pool.Bytes()[b.offset : b.offset+b.stride*b.height]
	return stage.Upload(c, b.image, b.view, b.width, b.height, b.stride, data)
}

// Release signals the client that the buffer's contents are no
// longer needed by the compositor. It is idempotent within one commit:
// only the first call after a Commit signals the releaser.
func (b *Buffer) Release() {
	b.mu.Lock()
	if b.released {
		// Release is a one-shot event per commit; Commit re-arms it.
		b.mu.Unlock()
		return
	}
	b.released = true
	r := b.releaser
	b.mu.Unlock()
	if r == nil {
		return
	}
	if err := r.Release(); err != nil {
		b.log.WithError(err).Warn("buffer: release signal failed")
	}
}

// Destroy releases GPU resources backing the buffer. It must only be
// called once no LockGuard is outstanding.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.view != nil {
		b.view.Destroy()
		b.view = nil
	}
	if b.image != nil {
		b.image.Destroy()
		b.image = nil
	}
}
