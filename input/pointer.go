// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package input

import (
	"errors"
	"sync"

	"github.com/gviegas/compositor/geom"
	"github.com/gviegas/compositor/surface"
	"github.com/gviegas/compositor/wire"
)

// ClampFunc narrows global pointer motion to the output layout (the
// compositor's output_layout.clamp_position, spec.md §4.3).
type ClampFunc func(geom.Vec2) geom.Vec2

// Pointer is the seat's virtual pointer: integrated f64 position,
// focus model, implicit grab, and an optional active constraint
// (spec.md §3, §4.3, §4.4).
type Pointer struct {
	mu    sync.Mutex
	table *surface.Table

	pos geom.Vec2

	focused      *surface.Surface
	focusedLocal geom.Vec2
	resources    []wire.Resource

	buttonsDown int
	grabbed     *surface.Surface

	constraint  *Constraint
	constraints map[*surface.Surface]*Constraint

	lastEnterSerial uint32
	lastEnterClient uint32

	cursorShape   string
	cursorSurface *surface.Surface
	cursorHotspot geom.Vec2
}

func newPointer(table *surface.Table) *Pointer {
	return &Pointer{table: table, constraints: make(map[*surface.Surface]*Constraint)}
}

// AddResource registers a bound wl_pointer resource.
func (p *Pointer) AddResource(r wire.Resource) {
	p.mu.Lock()
	p.resources = append(p.resources, r)
	p.mu.Unlock()
}

// Position returns the pointer's current global position.
func (p *Pointer) Position() geom.Vec2 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}

// Focused returns the surface currently holding pointer focus.
func (p *Pointer) Focused() *surface.Surface {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.focused
}

// focusable reports whether s's role makes it eligible for pointer
// focus (spec.md §4.3 "neither cursor nor drag_icon").
func focusable(s *surface.Surface) bool {
	return s.Addon(surface.RoleCursorSurface) == nil && s.Addon(surface.RoleDragIcon) == nil
}

// hitTestSurface recursively walks s's stack, topmost subsurface
// first, returning the deepest focusable surface whose input region
// contains local (an empty/unset input region means the whole
// buffer_dst accepts input, the wl_surface default).
func hitTestSurface(s *surface.Surface, table *surface.Table, local geom.Vec2) (*surface.Surface, geom.Vec2, bool) {
	if !s.Mapped() {
		return nil, geom.Vec2{}, false
	}
	stack := s.Stack()
	for i := len(stack) - 1; i >= 1; i-- {
		e := stack[i]
		child, ok := table.Resolve(e.Surface)
		if !ok {
			continue
		}
		if target, tl, ok := hitTestSurface(child, table, local.Sub(e.Pos)); ok {
			return target, tl, true
		}
	}
	if !focusable(s) {
		return nil, geom.Vec2{}, false
	}
	dst := s.BufferDst()
	if !dst.Contains(local) {
		return nil, geom.Vec2{}, false
	}
	ir := s.InputRegion()
	if !ir.Empty() && !ir.Contains(local) {
		return nil, geom.Vec2{}, false
	}
	return s, local, true
}

// HitTest resolves the topmost focusable surface under global
// position pos, given order (the compositor's global toplevel
// stacking order, front/topmost first).
func HitTest(order []*surface.Surface, table *surface.Table, pos geom.Vec2) (*surface.Surface, geom.Vec2, bool) {
	for _, root := range order {
		if target, local, ok := hitTestSurface(root, table, pos.Sub(root.BufferDst().Min())); ok {
			return target, local, true
		}
	}
	return nil, geom.Vec2{}, false
}

// move is the shared tail of AbsoluteMotion/RelativeMotion: clamps to
// the output layout, applies any active constraint, re-focuses
// (unless an implicit grab is held), and emits the motion event.
func (p *Pointer) move(next geom.Vec2, clamp ClampFunc, order []*surface.Surface, display wire.Display) {
	if clamp != nil {
		next = clamp(next)
	}

	p.mu.Lock()
	if p.constraint != nil && p.constraint.active {
		next = p.constraint.apply(p.pos, next)
	}
	p.pos = next
	grabbed := p.grabbed
	oldFocus := p.focused
	p.mu.Unlock()

	var target *surface.Surface
	var local geom.Vec2
	if grabbed != nil {
		target = grabbed
		local = next.Sub(grabbed.BufferDst().Min())
	} else if t, l, ok := HitTest(order, p.table, next); ok {
		target, local = t, l
	}

	if target != oldFocus {
		p.refocus(target, display)
	}

	p.mu.Lock()
	p.focusedLocal = local
	resources := append([]wire.Resource(nil), p.resources...)
	p.mu.Unlock()

	for _, r := range resources {
		r.PostEvent(EventPointerMotion, local.X, local.Y)
	}
}

// AbsoluteMotion reports an absolute backend position, translated to
// global coordinates by the caller via the output's layout rect
// (spec.md §4.3).
func (p *Pointer) AbsoluteMotion(global geom.Vec2, clamp ClampFunc, order []*surface.Surface, display wire.Display) {
	p.move(global, clamp, order, display)
}

// RelativeMotion integrates a relative delta into the pointer's f64
// position.
func (p *Pointer) RelativeMotion(delta geom.Vec2, clamp ClampFunc, order []*surface.Surface, display wire.Display) {
	p.mu.Lock()
	next := p.pos.Add(delta)
	p.mu.Unlock()
	p.move(next, clamp, order, display)
}

// refocus sends leave to the old focus, enter to the new one, and
// records the enter serial for subsequent set_cursor validation.
func (p *Pointer) refocus(target *surface.Surface, display wire.Display) {
	p.mu.Lock()
	old := p.focused
	resources := append([]wire.Resource(nil), p.resources...)
	p.mu.Unlock()

	for _, r := range resources {
		if old != nil {
			r.PostEvent(EventPointerLeave)
		}
	}

	var serial uint32
	if display != nil {
		serial = display.NextSerial()
	}
	for _, r := range resources {
		if target != nil {
			r.PostEvent(EventPointerEnter, serial)
		}
	}

	p.mu.Lock()
	p.focused = target
	if target != nil {
		p.lastEnterSerial = serial
	}
	p.mu.Unlock()

	if c := p.constraintFor(target); c != nil {
		if c.tryActivate(p.Position()) {
			p.mu.Lock()
			p.constraint = c
			p.mu.Unlock()
		}
	} else {
		p.mu.Lock()
		if p.constraint != nil && p.constraint.surface != target {
			p.constraint.Deactivate()
			p.constraint = nil
		}
		p.mu.Unlock()
	}
}

// Button reports a physical button edge. The first press while no
// button was already down establishes the implicit grab, held until
// every button has been released (spec.md §4.3 "implicit grab").
func (p *Pointer) Button(code uint32, pressed bool) {
	p.mu.Lock()
	if pressed {
		if p.buttonsDown == 0 {
			p.grabbed = p.focused
		}
		p.buttonsDown++
	} else if p.buttonsDown > 0 {
		p.buttonsDown--
		if p.buttonsDown == 0 {
			p.grabbed = nil
		}
	}
	resources := append([]wire.Resource(nil), p.resources...)
	p.mu.Unlock()

	for _, r := range resources {
		r.PostEvent(EventPointerButton, code, pressed)
	}
}

// Axis reports a scroll event to the focused client.
func (p *Pointer) Axis(horizontal, vertical float64) {
	p.mu.Lock()
	resources := append([]wire.Resource(nil), p.resources...)
	p.mu.Unlock()
	for _, r := range resources {
		r.PostEvent(EventPointerAxis, horizontal, vertical)
	}
}

// ErrStaleCursorSerial is returned by SetCursor when serial does not
// match the most recent pointer-enter sent to the requesting client.
var ErrStaleCursorSerial = errors.New("input: set_cursor: serial does not match last pointer-enter")

// SetCursor implements wl_pointer.set_cursor: the serial must belong
// to a recent enter sent to the requesting client (spec.md §4.3); the
// hotspot displaces the cursor surface's top-left from the pointer
// position.
func (p *Pointer) SetCursor(serial uint32, clientID uint32, cursorSurface *surface.Surface, hotspot geom.Vec2) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if serial != p.lastEnterSerial || clientID != p.lastEnterClient {
		return ErrStaleCursorSerial
	}
	p.cursorShape = ""
	p.cursorSurface = cursorSurface
	p.cursorHotspot = hotspot
	return nil
}

// SetCursorShape implements wp_cursor_shape_v1's set_shape, taking
// priority over any client cursor-role surface (spec.md §4.3 cursor
// priority list).
func (p *Pointer) SetCursorShape(shape string) {
	p.mu.Lock()
	p.cursorShape = shape
	p.cursorSurface = nil
	p.mu.Unlock()
}

// Cursor resolves the priority list spec.md §4.3 names: an active
// wp_cursor_shape_v1 shape, then a client cursor-role surface, then
// the empty string meaning "use the compositor's XCursor fallback".
func (p *Pointer) Cursor() (shape string, cursorSurface *surface.Surface, hotspot geom.Vec2) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursorShape, p.cursorSurface, p.cursorHotspot
}
