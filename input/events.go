// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package input

// Event opcodes are logical identifiers translated to real wl_seat
// wire opcodes by the (out-of-scope) protocol dispatcher, exactly as
// surface.Event* stand in for xdg-shell opcodes.
const (
	EventKeyboardKeymap uint32 = iota
	EventKeyboardEnter
	EventKeyboardLeave
	EventKeyboardKey
	EventKeyboardModifiers

	EventPointerEnter
	EventPointerLeave
	EventPointerMotion
	EventPointerButton
	EventPointerAxis
	EventPointerFrame

	EventHotkeyPressed
	EventHotkeyReleased
)
