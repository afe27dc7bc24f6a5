// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package input_test

import (
	"testing"

	"github.com/gviegas/compositor/geom"
	"github.com/gviegas/compositor/input"
	"github.com/gviegas/compositor/surface"
)

func TestLockedConstraintSuppressesMotion(t *testing.T) {
	c := openTestCore(t)
	stage := openTestStaging(t, c)

	table := surface.NewTable()
	display := &testDisplay{}
	s := mapSurface(t, c, stage, table, &fakeResource{}, display, 100, 100)

	seat := input.NewSeat("seat0", table)
	seat.Pointer.AbsoluteMotion(geom.Vec2{X: 10, Y: 10}, nil, []*surface.Surface{s}, display)
	if seat.Pointer.Focused() != s {
		t.Fatal("expected pointer focus on the test surface before locking")
	}

	lock := input.NewConstraint(input.ConstraintLocked, input.LifetimePersistent, s, geom.Region{})
	seat.Pointer.AddConstraint(lock)
	// Leave and re-enter so refocus runs the constraint activation check.
	seat.Pointer.AbsoluteMotion(geom.Vec2{X: 500, Y: 500}, nil, []*surface.Surface{s}, display)
	seat.Pointer.AbsoluteMotion(geom.Vec2{X: 11, Y: 11}, nil, []*surface.Surface{s}, display)

	before := seat.Pointer.Position()
	seat.Pointer.AbsoluteMotion(geom.Vec2{X: 90, Y: 90}, nil, []*surface.Surface{s}, display)
	after := seat.Pointer.Position()
	if after != before {
		t.Fatalf("locked constraint should suppress motion:\nbefore %+v\nafter %+v", before, after)
	}
}

func TestConfinedConstraintClampsToRegion(t *testing.T) {
	c := openTestCore(t)
	stage := openTestStaging(t, c)

	table := surface.NewTable()
	display := &testDisplay{}
	s := mapSurface(t, c, stage, table, &fakeResource{}, display, 100, 100)

	region := geom.RegionOf(geom.FromXYWH(0, 0, 20, 20))
	confine := input.NewConstraint(input.ConstraintConfined, input.LifetimePersistent, s, region)

	seat := input.NewSeat("seat0", table)
	seat.Pointer.AddConstraint(confine)
	seat.Pointer.AbsoluteMotion(geom.Vec2{X: 10, Y: 10}, nil, []*surface.Surface{s}, display)

	seat.Pointer.AbsoluteMotion(geom.Vec2{X: 80, Y: 80}, nil, []*surface.Surface{s}, display)
	pos := seat.Pointer.Position()
	if pos.X > 20 || pos.Y > 20 {
		t.Fatalf("confined constraint should clamp into the region:\nhave %+v", pos)
	}
}

func TestOneshotConstraintDoesNotReactivate(t *testing.T) {
	c := openTestCore(t)
	stage := openTestStaging(t, c)

	table := surface.NewTable()
	display := &testDisplay{}
	s := mapSurface(t, c, stage, table, &fakeResource{}, display, 100, 100)

	lock := input.NewConstraint(input.ConstraintLocked, input.LifetimeOneshot, s, geom.Region{})

	seat := input.NewSeat("seat0", table)
	seat.Pointer.AddConstraint(lock)
	seat.Pointer.AbsoluteMotion(geom.Vec2{X: 10, Y: 10}, nil, []*surface.Surface{s}, display)

	lock.Deactivate()

	// Leave and re-enter the surface; a oneshot constraint must not
	// reactivate once exhausted.
	seat.Pointer.AbsoluteMotion(geom.Vec2{X: 500, Y: 500}, nil, []*surface.Surface{s}, display)
	seat.Pointer.AbsoluteMotion(geom.Vec2{X: 10, Y: 10}, nil, []*surface.Surface{s}, display)

	before := seat.Pointer.Position()
	seat.Pointer.AbsoluteMotion(geom.Vec2{X: 90, Y: 90}, nil, []*surface.Surface{s}, display)
	after := seat.Pointer.Position()
	if after == before {
		t.Fatal("exhausted oneshot constraint should not suppress further motion")
	}
}
