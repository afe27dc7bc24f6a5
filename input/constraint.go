// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package input

import (
	"github.com/gviegas/compositor/geom"
	"github.com/gviegas/compositor/surface"
)

// ConstraintKind distinguishes the two pointer-constraint types
// spec.md §4.4 names.
type ConstraintKind int

const (
	ConstraintLocked ConstraintKind = iota
	ConstraintConfined
)

// ConstraintLifetime controls whether a constraint may reactivate
// after deactivating (spec.md §4.4).
type ConstraintLifetime int

const (
	LifetimeOneshot ConstraintLifetime = iota
	LifetimePersistent
)

// Constraint is a zwp_locked_pointer_v1/zwp_confined_pointer_v1
// instance bound to one surface.
type Constraint struct {
	kind      ConstraintKind
	lifetime  ConstraintLifetime
	surface   *surface.Surface
	region    geom.Region
	active    bool
	exhausted bool // oneshot constraints that have already deactivated once
}

// NewConstraint creates an inactive constraint for s; it is activated
// automatically once its activation condition holds (spec.md §4.4).
func NewConstraint(kind ConstraintKind, lifetime ConstraintLifetime, s *surface.Surface, region geom.Region) *Constraint {
	return &Constraint{kind: kind, lifetime: lifetime, surface: s, region: region}
}

// SetRegion updates the confinement/lock-hint region, taking effect
// on the surface's next commit (the caller is the surface's pointer-
// constraint addon; double-buffering happens there).
func (c *Constraint) SetRegion(region geom.Region) { c.region = region }

// AddConstraint registers a constraint so the pointer consults it on
// focus changes and motion.
func (p *Pointer) AddConstraint(c *Constraint) {
	p.mu.Lock()
	p.constraints[c.surface] = c
	p.mu.Unlock()
}

// RemoveConstraint unregisters and deactivates a constraint.
func (p *Pointer) RemoveConstraint(c *Constraint) {
	p.mu.Lock()
	delete(p.constraints, c.surface)
	if p.constraint == c {
		p.constraint = nil
	}
	p.mu.Unlock()
	c.active = false
}

func (p *Pointer) constraintFor(s *surface.Surface) *Constraint {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s == nil {
		return nil
	}
	return p.constraints[s]
}

// tryActivate checks the activation condition — focused surface
// matches, lifetime not exhausted, pointer inside the committed
// region — and reports whether it now holds the pointer (spec.md
// §4.4 "activation condition"). The caller installs c as the
// pointer's active constraint when true.
func (c *Constraint) tryActivate(pos geom.Vec2) bool {
	if c.exhausted {
		return false
	}
	local := pos.Sub(c.surface.BufferDst().Min())
	if !c.region.Empty() && !c.region.Contains(local) {
		return false
	}
	c.active = true
	return true
}

// Deactivate ends the constraint's active hold. A oneshot constraint
// is marked exhausted and never reactivates; a persistent constraint
// may reactivate later if focus returns and the pointer re-enters the
// region.
func (c *Constraint) Deactivate() {
	c.active = false
	if c.lifetime == LifetimeOneshot {
		c.exhausted = true
	}
}

// apply restricts motion from prev to next according to the
// constraint's kind: locked suppresses all motion (only position
// hints, set out of band, are allowed); confined clamps into the
// committed region (spec.md §4.4).
func (c *Constraint) apply(prev, next geom.Vec2) geom.Vec2 {
	switch c.kind {
	case ConstraintLocked:
		return prev
	case ConstraintConfined:
		if c.region.Empty() {
			return next
		}
		return c.region.Constrain(next)
	default:
		return next
	}
}
