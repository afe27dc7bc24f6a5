// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package dnd implements Component F, drag & selection (spec.md
// §4.8): the data manager coordinating data-source, data-offer, and
// the currently focused data-device resources, for both the
// clipboard selection and drag-and-drop.
package dnd

import (
	"sync"

	"github.com/gviegas/compositor/geom"
	"github.com/gviegas/compositor/input"
	"github.com/gviegas/compositor/surface"
	"github.com/gviegas/compositor/wire"
)

// Action is the wl_data_device_manager.dnd_action bitmask a source
// advertises and a target negotiates.
type Action uint32

const (
	ActionNone Action = 0
	ActionCopy Action = 1 << 0
	ActionMove Action = 1 << 1
	ActionAsk  Action = 1 << 2
)

// Source is a bound wl_data_source: the client-side end of a
// selection or a drag, carrying the mime types it offers and the
// actions it supports.
type Source struct {
	resource  wire.Resource
	mimes     []string
	actions   Action
	cancelled bool
}

// NewSource wraps resource as a data-source offering mimes under
// actions.
func NewSource(resource wire.Resource, mimes []string, actions Action) *Source {
	return &Source{resource: resource, mimes: append([]string(nil), mimes...), actions: actions}
}

// Cancelled reports whether the source has already been cancelled,
// either by a subsequent SetSelection or by an explicit CancelSource
// (spec.md §8 "further offer from A are ignored").
func (s *Source) Cancelled() bool { return s.cancelled }

// DeviceRegistry resolves the wl_data_device resource bound by the
// client owning a surface, and mints new wl_data_offer resources for
// it. Both operations are the out-of-scope wire-protocol dispatcher's
// job (spec.md §6); this package only drives the sequencing.
type DeviceRegistry interface {
	// Device returns the data-device resource bound by s's owning
	// client, or nil if that client has not bound one.
	Device(s *surface.Surface) wire.Resource

	// NewOffer mints a fresh data-offer resource bound to device's
	// client, ready to receive PostEvent calls.
	NewOffer(device wire.Resource) wire.Resource
}

// Manager holds the weak current-selection source and, while a drag
// is in progress, the drag record spec.md §4.8 describes as
// `{device, source, icon, offered_surface, current_offer}`.
type Manager struct {
	mu       sync.Mutex
	registry DeviceRegistry
	display  wire.Display

	selection *Source
	drag      *dragState
}

// NewManager creates an empty Manager. registry resolves/mints
// per-client device and offer resources; display mints the serials
// enter events carry.
func NewManager(registry DeviceRegistry, display wire.Display) *Manager {
	return &Manager{registry: registry, display: display}
}

// Selection returns the current selection source, or nil.
func (m *Manager) Selection() *Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selection
}

// SetSelection cancels the previous selection source (if any) and
// installs src as the new one, posting an offer to focused's
// data-device if focused's client has bound one (spec.md §4.8
// "Setting the selection cancels all other sources ... and, for the
// currently keyboard-focused client, posts the new offer").
// focused may be nil (no client currently has keyboard focus). A src
// that has already been cancelled is ignored.
func (m *Manager) SetSelection(src *Source, focused *surface.Surface) {
	if src != nil && src.Cancelled() {
		return
	}
	m.mu.Lock()
	prev := m.selection
	m.selection = src
	m.mu.Unlock()

	if prev != nil && prev != src {
		m.cancel(prev, false)
	}
	if src == nil || focused == nil {
		return
	}

	device := m.registry.Device(focused)
	if device == nil {
		return
	}
	offer := m.registry.NewOffer(device)
	for _, mime := range src.mimes {
		offer.PostEvent(EventOfferOffer, mime)
	}
	device.PostEvent(EventDeviceSelection, offer)
}

// CancelSource cancels src unconditionally: it emits cancelled
// exactly once (repeated calls are no-ops) and, if src is the source
// of an active drag, clears the drag's current offer (spec.md §5
// "Cancelling a data-source emits cancelled and clears any
// drag.offer pointing at it").
func (m *Manager) CancelSource(src *Source) { m.cancel(src, true) }

func (m *Manager) cancel(src *Source, clearSelection bool) {
	m.mu.Lock()
	if src.cancelled {
		m.mu.Unlock()
		return
	}
	src.cancelled = true
	if clearSelection && m.selection == src {
		m.selection = nil
	}
	if m.drag != nil && m.drag.source == src {
		m.drag.offer = nil
	}
	m.mu.Unlock()

	src.resource.PostEvent(EventSourceCancelled)
}

// updateTarget resolves the surface under pos (given order and
// table) and updates d's target/offer accordingly, implementing
// spec.md §4.8's enter/leave/offer sequencing. Called with m.mu held.
func (m *Manager) updateTarget(d *dragState, pos geom.Vec2, order []*surface.Surface, table *surface.Table) {
	target, local, ok := input.HitTest(order, table, pos)
	if !ok {
		target = nil
	}

	if target == d.target {
		if d.targetDevice != nil {
			d.targetDevice.PostEvent(EventDeviceMotion, local.X, local.Y)
		}
		return
	}

	if d.targetDevice != nil {
		d.targetDevice.PostEvent(EventDeviceLeave)
	}
	d.target, d.targetDevice, d.offer, d.offerAction = target, nil, nil, ActionNone
	if target == nil {
		return
	}

	device := m.registry.Device(target)
	if device == nil {
		return
	}
	offer := m.registry.NewOffer(device)
	for _, mime := range d.source.mimes {
		offer.PostEvent(EventOfferOffer, mime)
	}
	offer.PostEvent(EventOfferSourceActions, uint32(d.source.actions))

	var serial uint32
	if m.display != nil {
		serial = m.display.NextSerial()
	}
	device.PostEvent(EventDeviceDataOffer, offer)
	device.PostEvent(EventDeviceEnter, serial, local.X, local.Y, offer)

	d.targetDevice, d.offer = device, offer
}
