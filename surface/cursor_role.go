// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package surface

// CursorSurface marks a surface as bound to wl_pointer.set_cursor. It
// carries no state of its own: attaching it is only what lets
// Surface's role check and input's focusable() (spec.md §4.3 "neither
// cursor nor drag_icon") exclude the surface from pointer focus and
// hit-testing, since a cursor surface's buffer is presented at the
// pointer position rather than mapped into the scene graph.
type CursorSurface struct{}

// NewCursorSurface attaches a cursor-role addon marker.
func NewCursorSurface() *CursorSurface { return &CursorSurface{} }

// Role implements Addon.
func (*CursorSurface) Role() Role { return RoleCursorSurface }

// Commit implements Addon. A cursor surface has no double-buffered
// state of its own beyond the buffer itself, already handled by
// Surface.Commit.
func (*CursorSurface) Commit(CommitID) {}

// Apply implements Addon.
func (*CursorSurface) Apply(CommitID) {}
