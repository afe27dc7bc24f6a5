// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package output implements per-output swapchain management, frame
// pacing, and output-layout placement (spec.md §4.5) — Component D.
package output

import (
	"errors"
	"sync"

	"github.com/gviegas/compositor/driver"
	"github.com/gviegas/compositor/geom"
	"github.com/gviegas/compositor/wsi"
)

// DefaultFramesInFlight is the frames-in-flight cap spec.md §4.5 names
// as the default.
const DefaultFramesInFlight = 2

// Mode selects how a commit is paired with scanout (spec.md §4.5).
type Mode int

const (
	// ModeVSync pairs commits with the output's vsync boundary.
	ModeVSync Mode = iota
	// ModeAsync (tearing) submits as soon as eligible, using the
	// commit timestamp as scanout.
	ModeAsync
)

// VideoMode is one entry of an output's advertised mode list
// (wl_output.mode).
type VideoMode struct {
	Width, Height int
	RefreshMHz    int
	Preferred     bool
}

// Desc mirrors a wl_output's static description: modes, physical
// size, subpixel layout, transform, and scale (spec.md §3 "a desc").
type Desc struct {
	Modes                         []VideoMode
	PhysicalWidthMM, PhysicalHeightMM int
	Subpixel                      string
	Transform                     string
	Scale                         int
}

var (
	// ErrNoPresenter is returned by New when the GPU cannot present.
	ErrNoPresenter = errors.New("output: GPU does not implement driver.Presenter")
)

// Output is an addressable presentation target backed by a swapchain
// of reference-counted GPU images (spec.md §3 "Output").
type Output struct {
	mu sync.Mutex

	name string
	desc Desc
	mode Mode

	win wsi.Window
	gpu driver.GPU
	sc  driver.Swapchain
	cb  []driver.CmdBuffer

	// free holds the indices of command buffers (and swapchain
	// image slots) not currently in flight; a buffered channel used
	// exactly as the teacher's renderer used `ch chan *driver.WorkItem`
	// as a pool of reusable recording slots.
	free chan int

	// pending is a queued RequestFrame callback, retried the next
	// time a slot is freed (spec.md §4.5 "queued and retried on the
	// next completion").
	pending func(idx int)

	layoutRect   geom.Rect
	lastCommitID uint64
}

// New creates an Output presenting to win, with framesInFlight
// concurrently recordable frames (DefaultFramesInFlight if ≤ 0).
func New(gpu driver.GPU, win wsi.Window, name string, desc Desc, framesInFlight int) (*Output, error) {
	if framesInFlight <= 0 {
		framesInFlight = DefaultFramesInFlight
	}
	pres, ok := gpu.(driver.Presenter)
	if !ok {
		return nil, ErrNoPresenter
	}
	sc, err := pres.NewSwapchain(win, framesInFlight+1)
	if err != nil {
		return nil, err
	}

	cb := make([]driver.CmdBuffer, framesInFlight)
	for i := range cb {
		cb[i], err = gpu.NewCmdBuffer()
		if err != nil {
			for _, prev := range cb[:i] {
				prev.Destroy()
			}
			sc.Destroy()
			return nil, err
		}
	}

	free := make(chan int, framesInFlight)
	for i := range cb {
		free <- i
	}

	return &Output{
		name: name,
		desc: desc,
		win:  win,
		gpu:  gpu,
		sc:   sc,
		cb:   cb,
		free: free,
	}, nil
}

// Name returns the output's advertised wl_output name.
func (o *Output) Name() string { return o.name }

// Desc returns the output's static description.
func (o *Output) Desc() Desc { return o.desc }

// SetMode changes the output's present pacing mode.
func (o *Output) SetMode(m Mode) {
	o.mu.Lock()
	o.mode = m
	o.mu.Unlock()
}

// PresentMode returns the output's current pacing mode.
func (o *Output) PresentMode() Mode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mode
}

// Swapchain returns the output's swapchain.
func (o *Output) Swapchain() driver.Swapchain { return o.sc }

// CmdBuffer returns the command buffer reserved for slot idx, as
// handed to a RequestFrame callback.
func (o *Output) CmdBuffer(idx int) driver.CmdBuffer { return o.cb[idx] }

// LastCommitID returns the output's monotonically increasing commit
// counter (spec.md §3 "bears commit ids").
func (o *Output) LastCommitID() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastCommitID
}

// Size returns the output's current pixel extent (the window's).
func (o *Output) Size() (width, height int) { return o.win.Width(), o.win.Height() }

// LayoutRect returns the output's position+extent in global
// coordinates, as placed by a Layout.
func (o *Output) LayoutRect() geom.Rect {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.layoutRect
}

func (o *Output) setLayoutRect(r geom.Rect) {
	o.mu.Lock()
	o.layoutRect = r
	o.mu.Unlock()
}

// RequestFrame dispatches render with a free slot index immediately
// if the output is under its in-flight cap; otherwise the request is
// queued and render is called later, from CompleteFrame, once a slot
// frees (spec.md §4.5 "frame cadence").
func (o *Output) RequestFrame(render func(idx int)) {
	select {
	case idx := <-o.free:
		render(idx)
	default:
		o.mu.Lock()
		o.pending = render
		o.mu.Unlock()
	}
}

// CompleteFrame reports that the GPU submission recorded into slot
// idx has finished (the acquire fence signalled), bumping
// last_commit_id and either retrying a queued RequestFrame or
// returning the slot to the free pool (spec.md §4.5 "after a commit
// completes ... eligible to accept a new frame").
func (o *Output) CompleteFrame(idx int) {
	o.mu.Lock()
	o.lastCommitID++
	pending := o.pending
	o.pending = nil
	o.mu.Unlock()

	if pending != nil {
		pending(idx)
		return
	}
	o.free <- idx
}

// Recreate recreates the swapchain in response to a driver.ErrSwapchain
// error (e.g. the window was resized).
func (o *Output) Recreate() error { return o.sc.Recreate() }

// Destroy releases the output's swapchain and command buffers. It
// does not close the underlying wsi.Window.
func (o *Output) Destroy() {
	for _, cb := range o.cb {
		cb.Destroy()
	}
	o.sc.Destroy()
}
