// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package dnd

import (
	"testing"

	"github.com/gviegas/compositor/geom"
	"github.com/gviegas/compositor/surface"
	"github.com/gviegas/compositor/wire"
)

// fakeResource is a wire.Resource stand-in recording every posted
// event for assertions.
type fakeResource struct {
	client uint32
	events []event
}

type event struct {
	opcode uint32
	args   []any
}

func (r *fakeResource) PostEvent(opcode uint32, args ...any) {
	r.events = append(r.events, event{opcode, args})
}
func (r *fakeResource) Serial() uint32   { return 0 }
func (r *fakeResource) ClientID() uint32 { return r.client }

func (r *fakeResource) count(opcode uint32) int {
	n := 0
	for _, e := range r.events {
		if e.opcode == opcode {
			n++
		}
	}
	return n
}

// noopRegistry never resolves a device, so tests exercising it only
// reach the "no bound device" branch.
type noopRegistry struct{}

func (noopRegistry) Device(*surface.Surface) wire.Resource { return nil }
func (noopRegistry) NewOffer(wire.Resource) wire.Resource  { return nil }

func TestSetSelectionCancelsPrevious(t *testing.T) {
	m := NewManager(noopRegistry{}, nil)

	a := NewSource(&fakeResource{client: 1}, []string{"text/plain"}, ActionCopy)
	b := NewSource(&fakeResource{client: 2}, []string{"text/plain"}, ActionCopy)

	m.SetSelection(a, nil)
	m.SetSelection(b, nil)

	ra := a.resource.(*fakeResource)
	if n := ra.count(EventSourceCancelled); n != 1 {
		t.Fatalf("A.resource got %d cancelled events, want exactly 1", n)
	}
	if !a.Cancelled() {
		t.Fatalf("A.Cancelled() = false, want true")
	}
	if m.Selection() != b {
		t.Fatalf("Selection() = %v, want B", m.Selection())
	}

	// Further offer attempts from the already-cancelled A are ignored:
	// setting A as selection again must not re-emit cancelled.
	m.SetSelection(a, nil)
	if n := ra.count(EventSourceCancelled); n != 1 {
		t.Fatalf("A.resource got %d cancelled events after re-selection, want still 1", n)
	}
}

func TestDropWithoutMatchingActionCancelsSource(t *testing.T) {
	m := NewManager(noopRegistry{}, nil)
	src := NewSource(&fakeResource{client: 1}, []string{"text/uri-list"}, ActionCopy)

	if err := m.StartDrag(src, nil, nil, geom.Vec2{}, nil, surface.NewTable()); err != nil {
		t.Fatalf("StartDrag: %v", err)
	}
	if !m.Dragging() {
		t.Fatalf("Dragging() = false after StartDrag")
	}

	m.Drop()

	if m.Dragging() {
		t.Fatalf("Dragging() = true after Drop")
	}
	r := src.resource.(*fakeResource)
	if n := r.count(EventSourceCancelled); n != 1 {
		t.Fatalf("source got %d cancelled events, want 1 (no target ever resolved)", n)
	}
	if n := r.count(EventSourceDndDropPerformed); n != 0 {
		t.Fatalf("source got %d dnd_drop_performed events, want 0", n)
	}
}

func TestStartDragRejectsCancelledSource(t *testing.T) {
	m := NewManager(noopRegistry{}, nil)
	src := NewSource(&fakeResource{client: 1}, nil, ActionCopy)
	m.CancelSource(src)

	err := m.StartDrag(src, nil, nil, geom.Vec2{}, nil, surface.NewTable())
	if err != ErrSourceCancelled {
		t.Fatalf("StartDrag err = %v, want ErrSourceCancelled", err)
	}
}
