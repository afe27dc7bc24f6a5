// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package dnd

import (
	"errors"

	"github.com/gviegas/compositor/geom"
	"github.com/gviegas/compositor/surface"
	"github.com/gviegas/compositor/wire"
)

// dragState is spec.md §4.8's drag record: `{device, source, icon,
// offered_surface, current_offer}`.
type dragState struct {
	source *Source
	icon   *surface.DragIcon
	origin *surface.Surface

	target       *surface.Surface
	targetDevice wire.Resource
	offer        wire.Resource
	offerAction  Action
}

// ErrSourceCancelled is returned by StartDrag when src has already
// been cancelled (spec.md §8 "further offer from A are ignored").
var ErrSourceCancelled = errors.New("dnd: source already cancelled")

// StartDrag begins a drag carrying src, with an optional icon and the
// surface the drag was initiated from, immediately updating the drag
// target against the surface currently under pointerPos (spec.md
// §4.8 "Drag start captures source, origin, icon surface ...  and
// immediately updates the drag against the surface under the
// pointer").
func (m *Manager) StartDrag(src *Source, icon *surface.DragIcon, origin *surface.Surface, pointerPos geom.Vec2, order []*surface.Surface, table *surface.Table) error {
	if src.Cancelled() {
		return ErrSourceCancelled
	}

	d := &dragState{source: src, icon: icon, origin: origin}
	m.mu.Lock()
	m.drag = d
	m.updateTarget(d, pointerPos, order, table)
	m.mu.Unlock()
	return nil
}

// Dragging reports whether a drag is currently in progress.
func (m *Manager) Dragging() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drag != nil
}

// DragOrigin returns the surface the active drag was started from, or
// nil if no drag is in progress.
func (m *Manager) DragOrigin() *surface.Surface {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.drag == nil {
		return nil
	}
	return m.drag.origin
}

// DragIconPlacement returns the active drag's icon and its current
// global position (pointerPos plus the icon's accumulated commit
// offset), for the renderer's "drag icon at pointer position" pass
// (spec.md §4.7). ok is false when no drag is active or the drag
// carries no icon.
func (m *Manager) DragIconPlacement(pointerPos geom.Vec2) (icon *surface.DragIcon, pos geom.Vec2, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.drag == nil || m.drag.icon == nil {
		return nil, geom.Vec2{}, false
	}
	return m.drag.icon, pointerPos.Add(m.drag.icon.Offset()), true
}

// UpdateDragTarget re-resolves the drag target against pos (the
// pointer's current global position), sequencing leave/offer/enter
// per spec.md §4.8. A no-op if no drag is active.
func (m *Manager) UpdateDragTarget(pos geom.Vec2, order []*surface.Surface, table *surface.Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.drag != nil {
		m.updateTarget(m.drag, pos, order, table)
	}
}

// SetOfferAction records the action the current drag target's client
// has negotiated on its data-offer (via wl_data_offer.set_actions),
// consulted by Drop.
func (m *Manager) SetOfferAction(action Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.drag != nil {
		m.drag.offerAction = action
	}
}

// Drop ends the active drag on pointer release: if the target's offer
// carries an action compatible with the source's allowed actions, it
// emits drop on the target device and dnd_drop_performed on the
// source; otherwise the source is cancelled (spec.md §4.8 "On pointer
// release, if an offer with an action matching the source's allowed
// actions is attached, emit drop ... otherwise cancel the source").
// A no-op if no drag is active.
func (m *Manager) Drop() {
	m.mu.Lock()
	d := m.drag
	m.drag = nil
	m.mu.Unlock()

	if d == nil {
		return
	}
	if d.offer != nil && d.offerAction&d.source.actions != 0 {
		d.offer.PostEvent(EventOfferAction, uint32(d.offerAction))
		if d.targetDevice != nil {
			d.targetDevice.PostEvent(EventDeviceDrop)
		}
		d.source.resource.PostEvent(EventSourceDndDropPerformed)
		return
	}
	m.CancelSource(d.source)
}

// CancelDrag aborts the active drag without a drop (e.g. the backend
// reports the implicit pointer grab was lost), cancelling its source.
// A no-op if no drag is active.
func (m *Manager) CancelDrag() {
	m.mu.Lock()
	d := m.drag
	m.drag = nil
	m.mu.Unlock()
	if d != nil {
		m.CancelSource(d.source)
	}
}
