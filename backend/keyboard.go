// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package backend

import "github.com/gviegas/compositor/wsi"

// KeyboardIn implements wsi.KeyboardHandler. It does nothing: the
// seat's keyboard focus is set through input.Keyboard.SetFocus, not by
// the window system's focus, and nothing happens until a key actually
// arrives.
func (b *Backend) KeyboardIn(win wsi.Window) {}

// KeyboardOut implements wsi.KeyboardHandler. The seat's own Keyboard
// tracks press counts per evdev code rather than per window, so there
// is nothing to release here; losing window-system keyboard focus
// does not by itself change which surface the seat considers
// focused.
func (b *Backend) KeyboardOut(win wsi.Window) {}

// KeyboardKey implements wsi.KeyboardHandler, translating the
// host/nested key code into its evdev number and forwarding it to the
// seat's keyboard.
func (b *Backend) KeyboardKey(key wsi.Key, pressed bool, modMask wsi.Modifier) {
	code, ok := evdevKey[key]
	if !ok {
		return
	}
	b.seat.Keyboard.Key(code, pressed, translateModifiers(modMask))
}
