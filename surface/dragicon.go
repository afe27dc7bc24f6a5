// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package surface

import "github.com/gviegas/compositor/geom"

// DragIcon is the role addon attached to the surface passed to
// wl_data_device.start_drag as the drag icon (spec.md §4.8 "icon
// surface (with a drag-icon role addon whose on_commit accumulates
// offset)"). Offsets come from wl_surface.attach's dx,dy deltas,
// which a plain surface would otherwise only use to reposition its
// buffer; for a drag icon they instead accumulate into the icon's
// total displacement from the drag origin.
type DragIcon struct {
	surface *Surface
	offset  geom.Vec2
}

// NewDragIcon attaches a drag-icon addon to s.
func NewDragIcon(s *Surface) *DragIcon { return &DragIcon{surface: s} }

// Role implements Addon.
func (d *DragIcon) Role() Role { return RoleDragIcon }

// Commit implements Addon: folds this commit's accumulated
// offset/delta into the icon's running total.
func (d *DragIcon) Commit(id CommitID) {
	d.surface.mu.Lock()
	set := d.surface.pend.bufSet
	dx, dy := d.surface.pend.dx, d.surface.pend.dy
	d.surface.mu.Unlock()
	if set {
		d.offset = d.offset.Add(geom.Vec2{X: float64(dx), Y: float64(dy)})
	}
}

// Apply implements Addon. The icon carries no state beyond the
// running offset, folded in at Commit time.
func (d *DragIcon) Apply(id CommitID) {}

// Offset returns the icon's accumulated displacement from the drag
// origin.
func (d *DragIcon) Offset() geom.Vec2 { return d.offset }
