// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package surface

import "github.com/gviegas/compositor/internal/arena"

// Subsurface is the wl_subsurface role addon (spec.md §4.2). It holds
// a weak reference to its parent and tracks the synchronized/
// desynchronized mode.
type Subsurface struct {
	table  *Table
	parent arena.Weak

	sync        bool
	pendingSync *bool
}

// NewSubsurface creates a Subsurface addon for parent, starting in
// synchronized mode (the wl_subsurface default).
func NewSubsurface(table *Table, parent arena.Weak) *Subsurface {
	return &Subsurface{table: table, parent: parent, sync: true}
}

// Role implements Addon.
func (sub *Subsurface) Role() Role { return RoleSubsurface }

// Commit implements Addon: a pending set_sync/set_desync request
// takes effect with this commit.
func (sub *Subsurface) Commit(id CommitID) {
	if sub.pendingSync != nil {
		sub.sync = *sub.pendingSync
		sub.pendingSync = nil
	}
}

// Apply implements Addon. Subsurface carries no state of its own to
// apply; sync-mode changes take effect at Commit time.
func (sub *Subsurface) Apply(id CommitID) {}

// Synced reports the subsurface's current (applied) sync mode.
func (sub *Subsurface) Synced() bool { return sub.sync }

// SetSync requests a synchronized/desynchronized mode change,
// effective on the next commit (wl_subsurface.set_sync /
// set_desync).
func (sub *Subsurface) SetSync(v bool) {
	b := v
	sub.pendingSync = &b
}

// Parent returns a weak reference to the parent surface.
func (sub *Subsurface) Parent() arena.Weak { return sub.parent }

// commitGate computes the parentGate value a newly committed packet
// should carry: the parent's latest commit id if the child is
// effectively synchronized, else zero (spec.md §4.2).
func (sub *Subsurface) commitGate(synced bool) CommitID {
	if !synced {
		return 0
	}
	parent, ok := sub.table.Resolve(sub.parent)
	if !ok {
		return 0
	}
	parent.mu.Lock()
	defer parent.mu.Unlock()
	return parent.nextCommit
}
