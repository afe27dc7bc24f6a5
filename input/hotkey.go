// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package input

import "github.com/gviegas/compositor/wire"

// lockModifiers are ignored when matching a hotkey's modifier mask
// (spec.md §4.3 "lock-class modifiers like caps/num are ignored").
const lockModifiers = ModNum | ModCaps

// hotkeyBinding is a single (modifier-mask, evdev-code) hotkey rule.
type hotkeyBinding struct {
	mods     Modifier
	code     uint32
	resource wire.Resource
}

// BindHotkey registers a (mods, code) chord. resource is notified via
// EventHotkeyPressed/EventHotkeyReleased.
func (kb *Keyboard) BindHotkey(mods Modifier, code uint32, resource wire.Resource) {
	kb.mu.Lock()
	kb.hotkeys = append(kb.hotkeys, hotkeyBinding{mods: mods &^ lockModifiers, code: code, resource: resource})
	kb.mu.Unlock()
}

// dispatchHotkey checks code against every binding and fires
// press/release notifications, exact-matching the modifier mask
// modulo lock-class modifiers. A chord's release always fires even
// if the live modifier mask has since changed, by remembering which
// binding indices were active when the key went down (spec.md §4.3
// "releasing the key that started the chord always fires the release
// event even if modifiers changed meanwhile").
func (kb *Keyboard) dispatchHotkey(code uint32, pressed bool, mods Modifier) {
	effective := mods &^ lockModifiers

	kb.mu.Lock()
	var fire []hotkeyBinding
	var firePressed []bool
	for i, h := range kb.hotkeys {
		if h.code != code {
			continue
		}
		if pressed {
			if h.mods == effective {
				kb.pressedHot[i] = effective
				fire = append(fire, h)
				firePressed = append(firePressed, true)
			}
		} else if _, wasPressed := kb.pressedHot[i]; wasPressed {
			delete(kb.pressedHot, i)
			fire = append(fire, h)
			firePressed = append(firePressed, false)
		}
	}
	kb.mu.Unlock()

	for i, h := range fire {
		if firePressed[i] {
			h.resource.PostEvent(EventHotkeyPressed, code)
		} else {
			h.resource.PostEvent(EventHotkeyReleased, code)
		}
	}
}
