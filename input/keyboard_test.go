// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package input_test

import (
	"testing"

	"github.com/gviegas/compositor/input"
	"github.com/gviegas/compositor/surface"
)

type fakeResource struct {
	posted []uint32
}

func (r *fakeResource) PostEvent(opcode uint32, args ...any) { r.posted = append(r.posted, opcode) }
func (r *fakeResource) Serial() uint32                       { return 0 }
func (r *fakeResource) ClientID() uint32                     { return 0 }

func TestKeyboardSetKeymapPublishesAndResends(t *testing.T) {
	kb := input.NewKeyboardForTest()
	r := &fakeResource{}
	kb.AddResource(r)

	if err := kb.SetKeymap([]byte("keymap text")); err != nil {
		t.Fatalf("SetKeymap: %v", err)
	}
	if len(r.posted) != 1 || r.posted[0] != input.EventKeyboardKeymap {
		t.Fatalf("SetKeymap: resource did not receive keymap event: %+v", r.posted)
	}

	r2 := &fakeResource{}
	kb.AddResource(r2)
	if len(r2.posted) != 1 || r2.posted[0] != input.EventKeyboardKeymap {
		t.Fatalf("AddResource after SetKeymap: expected immediate keymap resend: %+v", r2.posted)
	}
	kb.Close()
}

func TestKeyboardEdgeDetection(t *testing.T) {
	kb := input.NewKeyboardForTest()
	r := &fakeResource{}
	kb.AddResource(r)
	// Key events are only sent while some surface holds keyboard focus.
	kb.SetFocus(surface.NewTable().New(testLog))

	// Two sources pressing the same code: only the first edge and
	// the last release should dispatch a key event.
	kb.Key(30, true, 0)
	kb.Key(30, true, 0)
	kb.Key(30, false, 0)
	kb.Key(30, false, 0)

	var keyEvents int
	for _, op := range r.posted {
		if op == input.EventKeyboardKey {
			keyEvents++
		}
	}
	if keyEvents != 2 {
		t.Fatalf("edge-triggered key events:\nhave %d\nwant 2", keyEvents)
	}
}

func TestHotkeyReleaseFiresDespiteModifierChange(t *testing.T) {
	kb := input.NewKeyboardForTest()
	hotkeyRes := &fakeResource{}
	kb.BindHotkey(input.ModCtrl, 30, hotkeyRes)

	kb.Key(30, true, input.ModCtrl)
	kb.Key(30, false, input.ModShift) // modifiers changed before release

	var pressed, released int
	for _, op := range hotkeyRes.posted {
		switch op {
		case input.EventHotkeyPressed:
			pressed++
		case input.EventHotkeyReleased:
			released++
		}
	}
	if pressed != 1 || released != 1 {
		t.Fatalf("hotkey press/release counts:\nhave pressed=%d released=%d\nwant 1/1", pressed, released)
	}
}
