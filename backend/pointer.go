// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package backend

import "github.com/gviegas/compositor/wsi"

// PointerIn implements wsi.PointerHandler, recording win as the
// window currently reporting pointer focus and feeding the initial
// position into the seat as absolute motion.
func (b *Backend) PointerIn(win wsi.Window, x, y int) {
	b.mu.Lock()
	b.curWindow = win
	b.mu.Unlock()
	b.motion(win, x, y)
}

// PointerOut implements wsi.PointerHandler, clearing the tracked
// window if it still matches.
func (b *Backend) PointerOut(win wsi.Window) {
	b.mu.Lock()
	if b.curWindow == win {
		b.curWindow = nil
	}
	b.mu.Unlock()
}

// PointerMotion implements wsi.PointerHandler, translating the
// window-local position into global coordinates and forwarding it to
// the seat, updating the active drag's target if one is in progress.
func (b *Backend) PointerMotion(newX, newY int) {
	b.mu.Lock()
	win := b.curWindow
	b.mu.Unlock()
	if win == nil {
		return
	}
	b.motion(win, newX, newY)
}

func (b *Backend) motion(win wsi.Window, x, y int) {
	global, ok := b.toGlobal(win, x, y)
	if !ok {
		return
	}
	order := b.order()
	b.seat.Pointer.AbsoluteMotion(global, b.layout.ClampPosition, order, b.display)
	if b.drag != nil && b.drag.Dragging() {
		b.drag.UpdateDragTarget(global, order, b.table)
	}
}

// PointerButton implements wsi.PointerHandler, translating the
// host/nested button code into its evdev number and forwarding it to
// the seat's pointer. A release while a drag is in progress ends the
// drag.
func (b *Backend) PointerButton(btn wsi.Button, pressed bool, x, y int) {
	code, ok := evdevButton[btn]
	if !ok {
		return
	}
	b.seat.Pointer.Button(code, pressed)
	if !pressed && b.drag != nil && b.drag.Dragging() {
		b.drag.Drop()
	}
}
