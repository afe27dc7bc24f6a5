// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package surface

import (
	"github.com/gviegas/compositor/geom"
	"github.com/gviegas/compositor/internal/arena"
	"github.com/gviegas/compositor/wire"
)

// Event opcodes are logical identifiers, not the real xdg-shell wire
// opcodes — marshaling them onto the protocol is the (out-of-scope)
// wire-protocol dispatcher's job, matching how driver.GPU stands in
// for the out-of-scope GPU layer.
const (
	EventXdgSurfaceConfigure uint32 = iota
	EventXdgToplevelConfigure
	EventXdgToplevelClose
	EventXdgPopupConfigure
	EventXdgPopupRepositioned
	EventXdgPopupPopupDone
)

// ToplevelState enumerates spec.md §4.2's xdg_toplevel state machine.
type ToplevelState int

const (
	TLUnconfigured ToplevelState = iota
	TLConfigured
	TLFullscreen
	TLDestroyed
)

// XdgSurface wraps a Surface with a "visible window" geometry and
// the sent/acked configure serial pair (spec.md §4.2).
type XdgSurface struct {
	surface  *Surface
	resource wire.Resource
	display  wire.Display

	geometry    geom.Rect
	geometrySet bool

	sentSerial  uint32
	ackedSerial uint32
}

// NewXdgSurface attaches an xdg_surface addon to s.
func NewXdgSurface(s *Surface, resource wire.Resource, display wire.Display) *XdgSurface {
	return &XdgSurface{surface: s, resource: resource, display: display}
}

// Role implements Addon.
func (x *XdgSurface) Role() Role { return RoleXdgSurface }

// Commit implements Addon. Geometry changes that arrive mid-configure
// (after a configure was sent but before the matching ack) replace
// any earlier pending proposal rather than queuing behind it — see
// DESIGN.md's Open Question decision on this.
func (x *XdgSurface) Commit(id CommitID) {}

// Apply implements Addon.
func (x *XdgSurface) Apply(id CommitID) {}

// SetWindowGeometry sets the visible-window rect immediately; it is
// a plain (non-double-buffered) xdg_surface property in this model,
// since the window-geometry hint only ever takes effect on the next
// surface commit regardless, already gated by Surface.Commit.
func (x *XdgSurface) SetWindowGeometry(r geom.Rect) {
	x.geometry = r
	x.geometrySet = true
}

// Geometry returns the xdg_surface's visible-window rect, falling
// back to the bounding AABB of the surface and its subsurface tree
// when never explicitly set (spec.md §4.2).
func (x *XdgSurface) Geometry() geom.Rect {
	if x.geometrySet {
		return x.geometry
	}
	return x.boundingAABB()
}

func (x *XdgSurface) boundingAABB() geom.Rect {
	var r geom.Rect
	for _, e := range x.surface.Stack() {
		child, ok := x.surface.table.Resolve(e.Surface)
		if !ok {
			continue
		}
		r = r.Union(child.BufferDst().Translate(e.Pos))
	}
	return r
}

// sendConfigure mints a serial, posts the event, and records it as
// the outstanding sent_serial. It is a no-op (returns the existing
// sent serial) when a configure is already outstanding, implementing
// spec.md §4.2's configure debounce.
func (x *XdgSurface) sendConfigure(opcode uint32, args ...any) uint32 {
	if x.sentSerial != 0 && x.sentSerial != x.ackedSerial {
		return x.sentSerial
	}
	serial := x.display.NextSerial()
	x.sentSerial = serial
	x.resource.PostEvent(EventXdgSurfaceConfigure, serial)
	x.resource.PostEvent(opcode, args...)
	return serial
}

// AckConfigure records the client's xdg_surface.ack_configure.
func (x *XdgSurface) AckConfigure(serial uint32) { x.ackedSerial = serial }

// Acked reports whether the most recently sent configure has been
// acknowledged.
func (x *XdgSurface) Acked() bool { return x.sentSerial != 0 && x.sentSerial == x.ackedSerial }

// XdgToplevel implements spec.md §4.2's xdg_toplevel state machine.
type XdgToplevel struct {
	surface  *Surface
	xdgSurf  *XdgSurface
	resource wire.Resource

	state        ToplevelState
	sentInitial  bool
	activated    bool
	width, height int
	prevWidth, prevHeight int
}

// NewXdgToplevel attaches an xdg_toplevel addon to the surface owning
// xdgSurf.
func NewXdgToplevel(xdgSurf *XdgSurface, resource wire.Resource) *XdgToplevel {
	return &XdgToplevel{surface: xdgSurf.surface, xdgSurf: xdgSurf, resource: resource}
}

// Role implements Addon.
func (t *XdgToplevel) Role() Role { return RoleXdgToplevel }

// Commit implements Addon: the first commit after role attachment
// sends the initial configure (size=(0,0), activated), per spec.md
// §4.2's Unconfigured row.
func (t *XdgToplevel) Commit(id CommitID) {
	if t.state == TLUnconfigured && !t.sentInitial {
		t.sentInitial = true
		t.activated = true
		t.xdgSurf.sendConfigure(EventXdgToplevelConfigure, 0, 0, []string{"activated"})
	}
}

// Apply implements Addon: the Unconfigured→Configured transition
// happens once the initial configure has been acked by the time its
// commit applies.
func (t *XdgToplevel) Apply(id CommitID) {
	if t.state == TLUnconfigured && t.xdgSurf.Acked() {
		t.state = TLConfigured
	}
}

// State returns the toplevel's current state-machine state.
func (t *XdgToplevel) State() ToplevelState { return t.state }

// RequestResize asks the client to resize to (w, h), keeping the
// current fullscreen/activated flags. Subject to the same configure
// debounce as the initial configure.
func (t *XdgToplevel) RequestResize(w, h int) uint32 {
	flags := []string{}
	if t.activated {
		flags = append(flags, "activated")
	}
	if t.state == TLFullscreen {
		flags = append(flags, "fullscreen")
	}
	return t.xdgSurf.sendConfigure(EventXdgToplevelConfigure, w, h, flags)
}

// SetFullscreen transitions into the Fullscreen state, remembering
// the pre-fullscreen size so a later UnsetFullscreen can restore it
// (spec.md §4.2 "stores prev_size").
func (t *XdgToplevel) SetFullscreen(outputWidth, outputHeight int) uint32 {
	if t.state != TLFullscreen {
		t.prevWidth, t.prevHeight = t.width, t.height
	}
	t.state = TLFullscreen
	t.width, t.height = outputWidth, outputHeight
	return t.xdgSurf.sendConfigure(EventXdgToplevelConfigure, outputWidth, outputHeight, []string{"activated", "fullscreen"})
}

// UnsetFullscreen restores the pre-fullscreen size and returns to the
// Configured state.
func (t *XdgToplevel) UnsetFullscreen() uint32 {
	t.state = TLConfigured
	t.width, t.height = t.prevWidth, t.prevHeight
	flags := []string{}
	if t.activated {
		flags = append(flags, "activated")
	}
	return t.xdgSurf.sendConfigure(EventXdgToplevelConfigure, t.width, t.height, flags)
}

// RequestClose emits xdg_toplevel.close (spec.md §4.2 Destroyed row
// "emit close upon compositor-requested close").
func (t *XdgToplevel) RequestClose() {
	t.resource.PostEvent(EventXdgToplevelClose)
}

// Destroyed marks the toplevel destroyed; the caller detaches the
// addon separately via Surface.RemoveAddon.
func (t *XdgToplevel) Destroyed() { t.state = TLDestroyed }

// DecorationMode answers both org_kde_kwin_server_decoration_v1's
// request_mode and zxdg_decoration_manager_v1's set_mode/unset_mode:
// this compositor always decorates toplevels itself, so every request
// resolves to "server-side" regardless of what the client asked for
// (spec.md §6).
func (t *XdgToplevel) DecorationMode() string { return "server-side" }

// XdgPopup implements spec.md §4.2's xdg_popup role: a Positioner-
// placed rect relative to its parent, raised to the top of the
// surface stack on its initial commit.
type XdgPopup struct {
	surface    *Surface
	xdgSurf    *XdgSurface
	resource   wire.Resource
	table      *Table
	parent     arena.Weak
	positioner Positioner

	grabbed    bool
	sentInitial bool
	raised      bool
	placement  geom.Rect
}

// NewXdgPopup attaches an xdg_popup addon computed against parent
// using pos.
func NewXdgPopup(table *Table, xdgSurf *XdgSurface, resource wire.Resource, parent arena.Weak, pos Positioner) *XdgPopup {
	return &XdgPopup{surface: xdgSurf.surface, xdgSurf: xdgSurf, resource: resource, table: table, parent: parent, positioner: pos}
}

// Role implements Addon.
func (p *XdgPopup) Role() Role { return RoleXdgPopup }

// Commit implements Addon: the initial commit computes placement
// against the parent's output-bound constraint rect and sends the
// first configure.
func (p *XdgPopup) Commit(id CommitID) {
	if p.sentInitial {
		return
	}
	p.sentInitial = true
	parent, ok := p.table.Resolve(p.parent)
	if !ok {
		return
	}
	constraint := parent.BufferDst()
	p.placement = Place(p.positioner, constraint)
	p.xdgSurf.sendConfigure(EventXdgPopupConfigure, p.placement.X, p.placement.Y, p.placement.Width, p.placement.Height)
}

// Apply implements Addon. On the first apply the popup is raised to
// the top of the parent's surface stack (spec.md §4.2).
func (p *XdgPopup) Apply(id CommitID) {
	if p.raised {
		return
	}
	if parent, ok := p.table.Resolve(p.parent); ok {
		p.raised = parent.PlaceAbove(p.surface.Handle().Weak(), arena.Weak{}) == nil
	}
}

// Root walks the ancestor chain to find the toplevel this popup is
// ultimately rooted on (spec.md §4.2 "inherits the root toplevel
// reference by walking parents").
func (p *XdgPopup) Root() (*XdgToplevel, bool) {
	cur, ok := p.table.Resolve(p.parent)
	for ok {
		if tl, ok := cur.Addon(RoleXdgToplevel).(*XdgToplevel); ok {
			return tl, true
		}
		pop, ok2 := cur.Addon(RoleXdgPopup).(*XdgPopup)
		if !ok2 {
			return nil, false
		}
		cur, ok = p.table.Resolve(pop.parent)
	}
	return nil, false
}

// Reposition recomputes placement against a new constraint and sends
// a repositioned event (carrying token) followed by a configure
// (spec.md §4.2 "reposition(token)").
func (p *XdgPopup) Reposition(token uint32, pos Positioner, constraint geom.Rect) {
	p.positioner = pos
	p.placement = Place(pos, constraint)
	p.resource.PostEvent(EventXdgPopupRepositioned, token)
	p.xdgSurf.sendConfigure(EventXdgPopupConfigure, p.placement.X, p.placement.Y, p.placement.Width, p.placement.Height)
}

// Placement returns the popup's last computed rect, relative to the
// parent's surface coordinate space.
func (p *XdgPopup) Placement() geom.Rect { return p.placement }

// Grab records an explicit popup grab. Per DESIGN.md's Open Question
// decision, a second grab request while one is active on the same
// seat is the caller's responsibility to reject before calling this.
func (p *XdgPopup) Grab() { p.grabbed = true }

// Grabbed reports whether this popup currently holds an input grab.
func (p *XdgPopup) Grabbed() bool { return p.grabbed }

// Dismiss emits xdg_popup.popup_done, matching the Destroyed-by-grab-
// loss or explicit-destroy paths.
func (p *XdgPopup) Dismiss() {
	p.grabbed = false
	p.resource.PostEvent(EventXdgPopupPopupDone)
}
