// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package backend adapts package wsi's global window/keyboard/pointer
// handlers onto the compositor's input and output plumbing: the glue
// spec.md §6 calls the backend, translating host/nested window-system
// events into calls against input.Seat and output.Layout.
package backend

import (
	"sync"

	"github.com/gviegas/compositor/dnd"
	"github.com/gviegas/compositor/geom"
	"github.com/gviegas/compositor/input"
	"github.com/gviegas/compositor/output"
	"github.com/gviegas/compositor/surface"
	"github.com/gviegas/compositor/wire"
	"github.com/gviegas/compositor/wsi"
)

// OrderFunc returns the compositor's current global toplevel stacking
// order, front (topmost) first, as package input.HitTest expects it.
type OrderFunc func() []*surface.Surface

// Events is the sink the out-of-scope wire-protocol dispatcher
// implements to learn about backend-level occurrences spec.md §6
// lists under "Backend produces": output added/removed and
// shutdown-requested. Input and frame events reach the dispatcher
// indirectly, through the wire.Resource events input.Seat and
// output.Output already post.
type Events interface {
	OutputAdded(o *output.Output)
	OutputRemoved(o *output.Output)

	// ShutdownRequested is reported once every registered output's
	// window has been closed, since a windowed/nested backend has no
	// separate "quit" signal distinct from its last window closing.
	ShutdownRequested()
}

// Backend registers itself as wsi's global WindowHandler,
// KeyboardHandler and PointerHandler, and drives a single
// input.Seat/output.Layout pair from the events it receives. Only one
// Backend may be active at a time, since wsi's handler registration
// is itself a global (spec.md §6's backend is the compositor's single
// window-system frontend).
type Backend struct {
	seat    *input.Seat
	layout  *output.Layout
	table   *surface.Table
	display wire.Display
	order   OrderFunc
	drag    *dnd.Manager // nil disables drag-and-drop wiring
	events  Events        // nil disables added/removed/shutdown reporting

	mu        sync.Mutex
	outputs   map[wsi.Window]*output.Output
	curWindow wsi.Window // window last reporting pointer focus
}

// New creates a Backend and installs it as wsi's active handlers.
// drag and events may both be nil if the caller has no dnd.Manager or
// Events sink to wire up yet.
func New(seat *input.Seat, layout *output.Layout, table *surface.Table, display wire.Display, order OrderFunc, drag *dnd.Manager, events Events) *Backend {
	b := &Backend{
		seat:    seat,
		layout:  layout,
		table:   table,
		display: display,
		order:   order,
		drag:    drag,
		events:  events,
		outputs: make(map[wsi.Window]*output.Output),
	}
	wsi.SetWindowHandler(b)
	wsi.SetKeyboardHandler(b)
	wsi.SetPointerHandler(b)
	return b
}

// RegisterOutput associates win with its Output, so subsequent window
// events can be translated into that output's global coordinate
// space. The caller is expected to have already added o to the
// Backend's Layout.
func (b *Backend) RegisterOutput(win wsi.Window, o *output.Output) {
	b.mu.Lock()
	b.outputs[win] = o
	b.mu.Unlock()
	if b.events != nil {
		b.events.OutputAdded(o)
	}
}

// UnregisterOutput drops win's association, e.g. once its Output has
// been removed from the layout and destroyed.
func (b *Backend) UnregisterOutput(win wsi.Window) {
	b.mu.Lock()
	delete(b.outputs, win)
	if b.curWindow == win {
		b.curWindow = nil
	}
	b.mu.Unlock()
}

func (b *Backend) outputFor(win wsi.Window) *output.Output {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.outputs[win]
}

// Dispatch drains queued wsi events, invoking this Backend's handler
// methods.
func (b *Backend) Dispatch() { wsi.Dispatch() }

// WindowClose implements wsi.WindowHandler: tears down the window's
// Output and removes it from the layout.
func (b *Backend) WindowClose(win wsi.Window) {
	b.mu.Lock()
	o := b.outputs[win]
	delete(b.outputs, win)
	if b.curWindow == win {
		b.curWindow = nil
	}
	remaining := len(b.outputs)
	b.mu.Unlock()

	if o != nil {
		b.layout.Remove(o)
		o.Destroy()
		if b.events != nil {
			b.events.OutputRemoved(o)
		}
	}
	win.Close()

	if remaining == 0 && b.events != nil {
		b.events.ShutdownRequested()
	}
}

// WindowResize implements wsi.WindowHandler: repositions the window's
// Output in the layout, keeping its origin but updating its extent.
func (b *Backend) WindowResize(win wsi.Window, newWidth, newHeight int) {
	o := b.outputFor(win)
	if o == nil {
		return
	}
	r := o.LayoutRect()
	b.layout.Reposition(o, geom.FromXYWH(r.X, r.Y, float64(newWidth), float64(newHeight)))
}

// toGlobal translates a window-local pixel position into global
// compositor coordinates via win's Output placement in the layout.
func (b *Backend) toGlobal(win wsi.Window, x, y int) (geom.Vec2, bool) {
	o := b.outputFor(win)
	if o == nil {
		return geom.Vec2{}, false
	}
	origin := o.LayoutRect().Min()
	return origin.Add(geom.Vec2{X: float64(x), Y: float64(y)}), true
}
