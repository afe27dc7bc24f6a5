// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package surface implements the surface & scene graph (spec.md §4.2):
// the central mutable Surface entity, its double-buffered commit
// protocol, role addons, and the subsurface tree.
package surface

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/gviegas/compositor/buffer"
	"github.com/gviegas/compositor/core"
	"github.com/gviegas/compositor/geom"
	"github.com/gviegas/compositor/internal/arena"
)

// CommitID is a monotonically increasing sequence number assigned to
// a surface's commit requests. The zero value never identifies a
// real commit.
type CommitID uint64

// Role identifies the addon slot a role addon occupies. A surface
// holds at most one addon per Role (spec.md §3 "Addon").
type Role int

const (
	RoleNone Role = iota
	RoleSubsurface
	RoleXdgSurface
	RoleXdgToplevel
	RoleXdgPopup
	RoleViewport
	RolePointerConstraint
	RoleSyncobj
	RoleDragIcon
	RoleCursorSurface

	nRoles
)

// Addon is a polymorphic surface component with the two double-
// buffering hooks spec.md §3 names: Commit packs a state delta into
// the addon's own queue tagged with id; Apply dequeues every packet
// at or before id.
type Addon interface {
	Role() Role
	Commit(id CommitID)
	Apply(id CommitID)
}

// StackEntry is one member of a surface stack: the surface itself, or
// a subsurface child at a stored position. Surface is a weak
// reference so that a destroyed child is tolerated as a tombstone
// until the next parent commit prunes it (spec.md §4.2).
type StackEntry struct {
	Surface arena.Weak
	Pos     geom.Vec2
}

var (
	// ErrRoleTaken is returned by AddAddon when the surface already
	// has an addon in the requested role slot.
	ErrRoleTaken = errors.New("surface: role slot already occupied")
	// ErrHasAddons is returned by Table.Destroy when the surface
	// still has live addons attached (spec.md §3 "destroying a
	// surface with live addons is a protocol error").
	ErrHasAddons = errors.New("surface: destroy with live addons")
)

// pending is the set of double-buffered state pieces a client can
// accumulate between commits (spec.md §3).
type pending struct {
	buf   *buffer.Buffer
	bufSet bool
	dx, dy int // accumulated wl_surface.offset/attach delta

	frameCallbacks []FrameCallback

	opaque    geom.Region
	opaqueSet bool

	input    geom.Region
	inputSet bool

	scale    int
	scaleSet bool

	stack    []StackEntry
	stackSet bool
}

// FrameCallback is a client's wl_surface.frame request, resolved by
// the renderer once this surface (or its primary output) has
// presented a frame.
type FrameCallback interface {
	Done(msTimestamp uint32)
}

// packet is a frozen pending snapshot tagged with a CommitID.
type packet struct {
	id CommitID
	pending

	bufGuard *buffer.LockGuard
	bufReady bool

	// parentGate is the parent Surface's nextCommit at the time this
	// packet was committed while effectively synchronized (spec.md
	// §4.2 "child apply only runs when the parent applies a packet
	// whose parent_commit id matches the child's latest pending").
	// Zero when the surface was not synchronized at commit time.
	parentGate CommitID
}

// current is the surface's live, applied state.
type current struct {
	buf   *buffer.Buffer
	dx, dy int
	opaque geom.Region
	input  geom.Region
	scale  int
	stack  []StackEntry

	bufferDst geom.Rect
	bufferSrc geom.Rect

	// callbacks accumulates wl_surface.frame requests that have
	// survived to the current state, awaiting resolution once this
	// surface's primary output presents a frame (spec.md §4.5
	// "frame-callback dispatch"), drained by TakeFrameCallbacks.
	callbacks []FrameCallback
}

// Surface is the central mutable scene-graph entity (spec.md §3).
type Surface struct {
	mu sync.Mutex

	handle arena.Handle
	table  *Table
	log    *logrus.Entry

	nextCommit CommitID
	pend       pending
	queue      []packet
	cur        current

	addons [nRoles]Addon

	mapped    bool
	destroyed bool
}

// Table owns the arena of live surfaces, so that stack entries can
// hold Weak references that tolerate destruction (spec.md §4.2
// "surface-stack maintenance tolerates weak-ref tombstones").
type Table struct {
	mu    sync.Mutex
	arena arena.Arena[*Surface]
}

// NewTable creates an empty surface table.
func NewTable() *Table { return &Table{} }

// New creates an empty, unmapped, role-less surface (spec.md §3
// "created empty").
func (t *Table) New(log *logrus.Entry) *Surface {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := &Surface{log: log, table: t, pend: pending{scale: 1}, cur: current{scale: 1}}
	s.handle = t.arena.Insert(s)
	s.cur.stack = []StackEntry{{Surface: s.handle.Weak()}}
	return s
}

// Handle returns s's identity within its Table.
func (s *Surface) Handle() arena.Handle { return s.handle }

// Get resolves a live Handle to its Surface.
func (t *Table) Get(h arena.Handle) (*Surface, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.arena.Get(h)
	if !ok {
		return nil, false
	}
	return *p, true
}

// Resolve resolves a Weak reference, returning false for a
// tombstoned (destroyed) surface.
func (t *Table) Resolve(w arena.Weak) (*Surface, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.arena.Resolve(w)
	if !ok {
		return nil, false
	}
	return *p, true
}

// Destroy removes a surface from the table. It fails if the surface
// still has addons attached; callers must detach addons first
// (spec.md §3).
func (t *Table) Destroy(h arena.Handle) error {
	t.mu.Lock()
	p, ok := t.arena.Get(h)
	if !ok {
		t.mu.Unlock()
		return errors.New("surface: destroy: unknown handle")
	}
	s := *p
	t.mu.Unlock()

	s.mu.Lock()
	for _, a := range s.addons {
		if a != nil {
			s.mu.Unlock()
			return ErrHasAddons
		}
	}
	s.destroyed = true
	s.mu.Unlock()

	t.mu.Lock()
	t.arena.Remove(h)
	t.mu.Unlock()
	return nil
}

// AddAddon attaches a to its declared role slot. It is an error to
// attach a second addon to an already-occupied slot.
func (s *Surface) AddAddon(a Addon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := a.Role()
	if r == RoleNone {
		return errors.New("surface: AddAddon: RoleNone is not a valid slot")
	}
	if s.addons[r] != nil {
		return ErrRoleTaken
	}
	s.addons[r] = a
	return nil
}

// Addon returns the addon currently occupying r, if any.
func (s *Surface) Addon(r Role) Addon {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addons[r]
}

// RemoveAddon detaches whatever addon occupies r.
func (s *Surface) RemoveAddon(r Role) {
	s.mu.Lock()
	s.addons[r] = nil
	s.mu.Unlock()
}

// Mapped reports whether the surface has a role and a current buffer
// (spec.md §3 "becomes mapped when a role exists and a buffer is
// currently attached").
func (s *Surface) Mapped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapped
}

// AttachBuffer records a pending buffer attach/detach. A nil buf
// detaches (unmaps) the surface on the next ready commit.
func (s *Surface) AttachBuffer(buf *buffer.Buffer, dx, dy int) {
	s.mu.Lock()
	s.pend.buf = buf
	s.pend.bufSet = true
	s.pend.dx, s.pend.dy = dx, dy
	s.mu.Unlock()
}

// SetOpaqueRegion records a pending opaque-region update.
func (s *Surface) SetOpaqueRegion(r geom.Region) {
	s.mu.Lock()
	s.pend.opaque = r
	s.pend.opaqueSet = true
	s.mu.Unlock()
}

// SetInputRegion records a pending input-region update.
func (s *Surface) SetInputRegion(r geom.Region) {
	s.mu.Lock()
	s.pend.input = r
	s.pend.inputSet = true
	s.mu.Unlock()
}

// SetBufferScale records a pending buffer-scale update.
func (s *Surface) SetBufferScale(scale int) {
	s.mu.Lock()
	s.pend.scale = scale
	s.pend.scaleSet = true
	s.mu.Unlock()
}

// AddFrameCallback enqueues a wl_surface.frame request against the
// next commit.
func (s *Surface) AddFrameCallback(cb FrameCallback) {
	s.mu.Lock()
	s.pend.frameCallbacks = append(s.pend.frameCallbacks, cb)
	s.mu.Unlock()
}

// ensurePendingStack lazily seeds the pending stack from current on
// first touch, so that AddChild/PlaceAbove/PlaceBelow operate on a
// full copy rather than an empty one.
func (s *Surface) ensurePendingStack() {
	if !s.pend.stackSet {
		s.pend.stack = append([]StackEntry(nil), s.cur.stack...)
		s.pend.stackSet = true
	}
}

// AddChild inserts a subsurface child at the top of the pending
// stack, at the given position relative to the parent.
func (s *Surface) AddChild(child arena.Weak, pos geom.Vec2) {
	s.mu.Lock()
	s.ensurePendingStack()
	s.pend.stack = append(s.pend.stack, StackEntry{Surface: child, Pos: pos})
	s.mu.Unlock()
}

// RemoveChild drops a subsurface child from the pending stack.
func (s *Surface) RemoveChild(child arena.Weak) {
	s.mu.Lock()
	s.ensurePendingStack()
	out := s.pend.stack[:0]
	for _, e := range s.pend.stack {
		if e.Surface != child {
			out = append(out, e)
		}
	}
	s.pend.stack = out
	s.mu.Unlock()
}

// PlaceAbove moves child to directly above sibling in the pending
// stack (spec.md §4.2 "this mutates the parent's pending stack and
// is committed with the parent").
func (s *Surface) PlaceAbove(child, sibling arena.Weak) error {
	return s.reorder(child, sibling, 1)
}

// PlaceBelow moves child to directly below sibling in the pending
// stack.
func (s *Surface) PlaceBelow(child, sibling arena.Weak) error {
	return s.reorder(child, sibling, 0)
}

func (s *Surface) reorder(child, sibling arena.Weak, offset int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensurePendingStack()

	var entry StackEntry
	found := -1
	for i, e := range s.pend.stack {
		if e.Surface == child {
			entry = e
			found = i
			break
		}
	}
	if found < 0 {
		return errors.New("surface: reorder: child not in stack")
	}
	stack := append(s.pend.stack[:found], s.pend.stack[found+1:]...)

	at := len(stack)
	for i, e := range stack {
		if e.Surface == sibling {
			at = i + offset
			break
		}
	}
	stack = append(stack, StackEntry{})
	copy(stack[at+1:], stack[at:])
	stack[at] = entry
	s.pend.stack = stack
	return nil
}

// Stack returns the surface's current (applied) stack: itself plus
// subsurface children in z-order, bottom to top as recorded.
func (s *Surface) Stack() []StackEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StackEntry(nil), s.cur.stack...)
}

// BufferDst returns the surface's current destination rect in
// surface-local coordinates.
func (s *Surface) BufferDst() geom.Rect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.bufferDst
}

// Buffer returns the surface's currently applied buffer, or nil.
func (s *Surface) Buffer() *buffer.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.buf
}

// OpaqueRegion returns the surface's current opaque region.
func (s *Surface) OpaqueRegion() geom.Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.opaque
}

// InputRegion returns the surface's current input region.
func (s *Surface) InputRegion() geom.Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.input
}

// effectivelySynced reports whether s is, or descends from, a
// surface currently in synchronized subsurface mode (spec.md §4.2
// "sync state propagates: a child is effectively synchronized if any
// ancestor is").
func (s *Surface) effectivelySynced() bool {
	cur := s
	for {
		sub, ok := cur.Addon(RoleSubsurface).(*Subsurface)
		if !ok {
			return false
		}
		if sub.Synced() {
			return true
		}
		parent, ok := cur.table.Resolve(sub.parent)
		if !ok {
			return false
		}
		cur = parent
	}
}

// Commit freezes the surface's pending state into a packet tagged
// with a new CommitID, drives each addon's Commit hook, kicks off
// buffer ingress for a newly attached buffer, and attempts to apply
// the commit queue immediately unless the surface is synchronized to
// an ancestor (spec.md §4.2).
func (s *Surface) Commit(c *core.Core, stage *buffer.Staging) (CommitID, error) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return 0, errors.New("surface: commit on destroyed surface")
	}
	s.nextCommit++
	id := s.nextCommit

	pkt := packet{id: id, pending: s.pend}
	if s.pend.stackSet {
		pkt.pending.stack = append([]StackEntry(nil), s.pend.stack...)
	}
	if s.pend.opaqueSet {
		pkt.pending.opaque = s.pend.opaque.Clone()
	}
	if s.pend.inputSet {
		pkt.pending.input = s.pend.input.Clone()
	}
	s.pend.frameCallbacks = nil
	s.pend.bufSet = false
	s.pend.opaqueSet = false
	s.pend.inputSet = false
	s.pend.scaleSet = false
	s.pend.stackSet = false

	synced := s.effectivelySynced()
	if sub, ok := s.addons[RoleSubsurface].(*Subsurface); ok {
		pkt.parentGate = sub.commitGate(synced)
	}
	addons := s.addons
	s.mu.Unlock()

	for _, a := range addons {
		if a != nil {
			a.Commit(id)
		}
	}

	if pkt.bufSet && pkt.pending.buf != nil {
		buf := pkt.pending.buf

		// Queue the packet before kicking off ingress: Buffer.Commit
		// fires onReady synchronously for shm, dma-no-wait and zombie
		// buffers, so the callback's by-id lookup needs an entry to
		// find already. A dma buffer needing a fence wait instead
		// resolves onReady later from its own goroutine, which finds
		// the same entry.
		s.mu.Lock()
		s.queue = append(s.queue, pkt)
		s.mu.Unlock()

		guard, err := buf.Commit(c, stage, func(error) {
			// Ready to apply either way: a zombie buffer still
			// unblocks the queue (applyPacket clears it to nil), it
			// just never carries a usable guard.
			s.mu.Lock()
			for i := range s.queue {
				if s.queue[i].id == id {
					s.queue[i].bufReady = true
				}
			}
			s.mu.Unlock()
			s.flushApply(c)
		})
		if err != nil && err != buffer.ErrZombie {
			s.mu.Lock()
			for i := range s.queue {
				if s.queue[i].id == id {
					s.queue = append(s.queue[:i], s.queue[i+1:]...)
					break
				}
			}
			s.mu.Unlock()
			return 0, err
		}

		s.mu.Lock()
		for i := range s.queue {
			if s.queue[i].id == id {
				s.queue[i].bufGuard = guard
			}
		}
		s.mu.Unlock()
	} else {
		pkt.bufReady = true
		s.mu.Lock()
		s.queue = append(s.queue, pkt)
		s.mu.Unlock()
	}

	if !synced {
		s.flushApply(c)
	}
	return id, nil
}

// childrenReady reports whether every synchronized child's front
// packet gated at or before maxID is itself ready to apply, so that
// this surface's packet maxID does not leapfrog a child waiting on
// it (spec.md §4.2 readiness condition).
func (s *Surface) childrenReady(maxID CommitID) bool {
	for _, e := range s.cur.stack[1:] {
		child, ok := s.table.Resolve(e.Surface)
		if !ok {
			continue
		}
		sub, ok := child.Addon(RoleSubsurface).(*Subsurface)
		if !ok || !sub.Synced() {
			continue
		}
		child.mu.Lock()
		ready := len(child.queue) == 0 || child.queue[0].parentGate > maxID || child.queue[0].bufReady
		child.mu.Unlock()
		if !ready {
			return false
		}
	}
	return true
}

// flushApply applies every ready, in-order packet at the front of
// the queue, then recursively drives any synchronized children gated
// to the applied ids.
func (s *Surface) flushApply(c *core.Core) {
	s.mu.Lock()
	var applied []packet
	for len(s.queue) > 0 {
		front := s.queue[0]
		if !front.bufReady || !s.childrenReady(front.id) {
			break
		}
		applied = append(applied, front)
		s.queue = s.queue[1:]
	}
	s.mu.Unlock()

	for _, pkt := range applied {
		s.applyPacket(pkt)
		for _, e := range s.cur.stack[1:] {
			if child, ok := s.table.Resolve(e.Surface); ok {
				if sub, ok := child.Addon(RoleSubsurface).(*Subsurface); ok && sub.Synced() {
					child.driveSyncedApply(c, pkt.id)
				}
			}
		}
	}
}

// driveSyncedApply applies every queued packet gated at or before
// parentID, in order, recursing into this surface's own children.
func (s *Surface) driveSyncedApply(c *core.Core, parentID CommitID) {
	s.mu.Lock()
	var applied []packet
	for len(s.queue) > 0 && s.queue[0].parentGate <= parentID && s.queue[0].bufReady {
		applied = append(applied, s.queue[0])
		s.queue = s.queue[1:]
	}
	s.mu.Unlock()
	for _, pkt := range applied {
		s.applyPacket(pkt)
		for _, e := range s.cur.stack[1:] {
			if child, ok := s.table.Resolve(e.Surface); ok {
				if sub, ok := child.Addon(RoleSubsurface).(*Subsurface); ok && sub.Synced() {
					child.driveSyncedApply(c, pkt.id)
				}
			}
		}
	}
}

// applyPacket makes a single ready packet the surface's current
// state, releasing the previous buffer's guard and firing frame
// callbacks. It must be called without s.mu held.
func (s *Surface) applyPacket(pkt packet) {
	s.mu.Lock()

	if pkt.bufGuard != nil {
		pkt.bufGuard.Unlock()
	}
	if pkt.bufSet {
		if pkt.pending.buf == nil {
			s.cur.buf = nil
			s.mapped = false
		} else if pkt.pending.buf.Zombie() {
			s.log.Warn("surface: clearing zombie buffer on apply")
			s.cur.buf = nil
		} else {
			s.cur.buf = pkt.pending.buf
			s.cur.dx, s.cur.dy = pkt.pending.dx, pkt.pending.dy
			s.mapped = s.hasRoleLocked()
			w, h := s.cur.buf.Size()
			s.cur.bufferDst = geom.FromXYWH(float64(s.cur.dx), float64(s.cur.dy), float64(w), float64(h))
		}
	}
	if pkt.opaqueSet {
		s.cur.opaque = pkt.pending.opaque
	}
	if pkt.inputSet {
		s.cur.input = pkt.pending.input
	}
	if pkt.scaleSet {
		s.cur.scale = pkt.pending.scale
	}
	if pkt.stackSet {
		s.pruneStack(pkt.pending.stack)
	}
	s.cur.callbacks = append(s.cur.callbacks, pkt.frameCallbacks...)
	addons := s.addons
	s.mu.Unlock()

	for _, a := range addons {
		if a != nil {
			a.Apply(pkt.id)
		}
	}
}

// TakeFrameCallbacks drains every frame callback accumulated on this
// surface's current state, for the renderer to resolve with the
// elapsed-ms timestamp once this surface's primary output has
// presented a frame (spec.md §4.5).
func (s *Surface) TakeFrameCallbacks() []FrameCallback {
	s.mu.Lock()
	defer s.mu.Unlock()
	cbs := s.cur.callbacks
	s.cur.callbacks = nil
	return cbs
}

// pruneStack installs a new stack, dropping tombstoned entries
// (spec.md §4.2 "GC-pruned on the next parent commit") while always
// keeping the surface's own self-entry at index 0.
func (s *Surface) pruneStack(stack []StackEntry) {
	out := make([]StackEntry, 0, len(stack)+1)
	out = append(out, StackEntry{Surface: s.handle.Weak()})
	for _, e := range stack {
		if e.Surface == s.handle.Weak() {
			continue
		}
		if _, ok := s.table.Resolve(e.Surface); ok {
			out = append(out, e)
		}
	}
	s.cur.stack = out
}

func (s *Surface) hasRoleLocked() bool {
	for r := RoleXdgSurface; r < nRoles; r++ {
		if r == RoleSubsurface || r == RolePointerConstraint || r == RoleSyncobj {
			continue
		}
		if s.addons[r] != nil {
			return true
		}
	}
	return false
}
