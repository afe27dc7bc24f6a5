// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package backend

import (
	"github.com/gviegas/compositor/input"
	"github.com/gviegas/compositor/wsi"
)

// evdev key/button codes, grounded on
// _examples/gogpu-gogpu/internal/platform/wayland/input.go's own
// literal evdev constants (e.g. "0x110 // Left mouse button
// (BTN_LEFT)") rather than a generated or vendored linux-headers
// binding, since the compositor never touches raw input devices
// itself — only translates the backend's already-decoded key/button
// identifiers into the wire protocol's evdev numbering.
const (
	keyEsc       uint32 = 1
	key1         uint32 = 2
	key2         uint32 = 3
	key3         uint32 = 4
	key4         uint32 = 5
	key5         uint32 = 6
	key6         uint32 = 7
	key7         uint32 = 8
	key8         uint32 = 9
	key9         uint32 = 10
	key0         uint32 = 11
	keyMinus     uint32 = 12
	keyEqual     uint32 = 13
	keyBackspace uint32 = 14
	keyTab       uint32 = 15
	keyQ         uint32 = 16
	keyW         uint32 = 17
	keyE         uint32 = 18
	keyR         uint32 = 19
	keyT         uint32 = 20
	keyY         uint32 = 21
	keyU         uint32 = 22
	keyI         uint32 = 23
	keyO         uint32 = 24
	keyP         uint32 = 25
	keyLBracket  uint32 = 26
	keyRBracket  uint32 = 27
	keyEnter     uint32 = 28
	keyLCtrl     uint32 = 29
	keyA         uint32 = 30
	keyS         uint32 = 31
	keyD         uint32 = 32
	keyF         uint32 = 33
	keyG         uint32 = 34
	keyH         uint32 = 35
	keyJ         uint32 = 36
	keyK         uint32 = 37
	keyL         uint32 = 38
	keySemicolon uint32 = 39
	keyApostro   uint32 = 40
	keyGrave     uint32 = 41
	keyLShift    uint32 = 42
	keyBackslash uint32 = 43
	keyZ         uint32 = 44
	keyX         uint32 = 45
	keyC         uint32 = 46
	keyV         uint32 = 47
	keyB         uint32 = 48
	keyN         uint32 = 49
	keyM         uint32 = 50
	keyComma     uint32 = 51
	keyDot       uint32 = 52
	keySlash     uint32 = 53
	keyRShift    uint32 = 54
	keyKPStar    uint32 = 55
	keyLAlt      uint32 = 56
	keySpace     uint32 = 57
	keyCapsLock  uint32 = 58
	keyF1        uint32 = 59
	keyF2        uint32 = 60
	keyF3        uint32 = 61
	keyF4        uint32 = 62
	keyF5        uint32 = 63
	keyF6        uint32 = 64
	keyF7        uint32 = 65
	keyF8        uint32 = 66
	keyF9        uint32 = 67
	keyF10       uint32 = 68
	keyNumLock   uint32 = 69
	keyScrollLck uint32 = 70
	keyKP7       uint32 = 71
	keyKP8       uint32 = 72
	keyKP9       uint32 = 73
	keyKPMinus   uint32 = 74
	keyKP4       uint32 = 75
	keyKP5       uint32 = 76
	keyKP6       uint32 = 77
	keyKPPlus    uint32 = 78
	keyKP1       uint32 = 79
	keyKP2       uint32 = 80
	keyKP3       uint32 = 81
	keyKP0       uint32 = 82
	keyKPDot     uint32 = 83
	keyF11       uint32 = 87
	keyF12       uint32 = 88
	keyKPEnter   uint32 = 96
	keyRCtrl     uint32 = 97
	keyKPSlash   uint32 = 98
	keySysrq     uint32 = 99
	keyRAlt      uint32 = 100
	keyHome      uint32 = 102
	keyUp        uint32 = 103
	keyPageUp    uint32 = 104
	keyLeft      uint32 = 105
	keyRight     uint32 = 106
	keyEnd       uint32 = 107
	keyDown      uint32 = 108
	keyPageDown  uint32 = 109
	keyInsert    uint32 = 110
	keyDelete    uint32 = 111
	keyKPEqual   uint32 = 117
	keyPause     uint32 = 119
	keyLMeta     uint32 = 125
	keyRMeta     uint32 = 126
	keyF13       uint32 = 183
	keyF14       uint32 = 184
	keyF15       uint32 = 185
	keyF16       uint32 = 186
	keyF17       uint32 = 187
	keyF18       uint32 = 188
	keyF19       uint32 = 189
	keyF20       uint32 = 190
	keyF21       uint32 = 191
	keyF22       uint32 = 192
	keyF23       uint32 = 193
	keyF24       uint32 = 194

	btnLeft     uint32 = 0x110
	btnRight    uint32 = 0x111
	btnMiddle   uint32 = 0x112
	btnSide     uint32 = 0x113
	btnExtra    uint32 = 0x114
	btnForward  uint32 = 0x115
	btnBack     uint32 = 0x116
)

// evdevKey translates a wsi.Key into its evdev code, grounded on the
// standard Linux input-event-codes numbering.
var evdevKey = map[wsi.Key]uint32{
	wsi.KeyEsc: keyEsc, wsi.Key1: key1, wsi.Key2: key2, wsi.Key3: key3,
	wsi.Key4: key4, wsi.Key5: key5, wsi.Key6: key6, wsi.Key7: key7,
	wsi.Key8: key8, wsi.Key9: key9, wsi.Key0: key0,
	wsi.KeyMinus: keyMinus, wsi.KeyEqual: keyEqual, wsi.KeyBackspace: keyBackspace,
	wsi.KeyTab: keyTab,
	wsi.KeyQ:   keyQ, wsi.KeyW: keyW, wsi.KeyE: keyE, wsi.KeyR: keyR,
	wsi.KeyT: keyT, wsi.KeyY: keyY, wsi.KeyU: keyU, wsi.KeyI: keyI,
	wsi.KeyO: keyO, wsi.KeyP: keyP,
	wsi.KeyLBracket: keyLBracket, wsi.KeyRBracket: keyRBracket,
	wsi.KeyReturn: keyEnter, wsi.KeyLCtrl: keyLCtrl,
	wsi.KeyA: keyA, wsi.KeyS: keyS, wsi.KeyD: keyD, wsi.KeyF: keyF,
	wsi.KeyG: keyG, wsi.KeyH: keyH, wsi.KeyJ: keyJ, wsi.KeyK: keyK,
	wsi.KeyL: keyL,
	wsi.KeySemicolon: keySemicolon, wsi.KeyApostrophe: keyApostro,
	wsi.KeyGrave: keyGrave, wsi.KeyLShift: keyLShift, wsi.KeyBackslash: keyBackslash,
	wsi.KeyZ: keyZ, wsi.KeyX: keyX, wsi.KeyC: keyC, wsi.KeyV: keyV,
	wsi.KeyB: keyB, wsi.KeyN: keyN, wsi.KeyM: keyM,
	wsi.KeyComma: keyComma, wsi.KeyDot: keyDot, wsi.KeySlash: keySlash,
	wsi.KeyRShift: keyRShift, wsi.KeyPadStar: keyKPStar,
	wsi.KeyLAlt: keyLAlt, wsi.KeySpace: keySpace, wsi.KeyCapsLock: keyCapsLock,
	wsi.KeyF1: keyF1, wsi.KeyF2: keyF2, wsi.KeyF3: keyF3, wsi.KeyF4: keyF4,
	wsi.KeyF5: keyF5, wsi.KeyF6: keyF6, wsi.KeyF7: keyF7, wsi.KeyF8: keyF8,
	wsi.KeyF9: keyF9, wsi.KeyF10: keyF10,
	wsi.KeyPadNumLock: keyNumLock, wsi.KeyScrollLock: keyScrollLck,
	wsi.KeyPad7: keyKP7, wsi.KeyPad8: keyKP8, wsi.KeyPad9: keyKP9,
	wsi.KeyPadMinus: keyKPMinus, wsi.KeyPad4: keyKP4, wsi.KeyPad5: keyKP5,
	wsi.KeyPad6: keyKP6, wsi.KeyPadPlus: keyKPPlus, wsi.KeyPad1: keyKP1,
	wsi.KeyPad2: keyKP2, wsi.KeyPad3: keyKP3, wsi.KeyPad0: keyKP0,
	wsi.KeyPadDot: keyKPDot, wsi.KeyF11: keyF11, wsi.KeyF12: keyF12,
	wsi.KeyPadEnter: keyKPEnter, wsi.KeyRCtrl: keyRCtrl, wsi.KeyPadSlash: keyKPSlash,
	wsi.KeySysrq: keySysrq, wsi.KeyRAlt: keyRAlt,
	wsi.KeyHome: keyHome, wsi.KeyUp: keyUp, wsi.KeyPageUp: keyPageUp,
	wsi.KeyLeft: keyLeft, wsi.KeyRight: keyRight, wsi.KeyEnd: keyEnd,
	wsi.KeyDown: keyDown, wsi.KeyPageDown: keyPageDown,
	wsi.KeyInsert: keyInsert, wsi.KeyDelete: keyDelete,
	wsi.KeyPadEqual: keyKPEqual, wsi.KeyPause: keyPause,
	wsi.KeyLMeta: keyLMeta, wsi.KeyRMeta: keyRMeta,
	wsi.KeyF13: keyF13, wsi.KeyF14: keyF14, wsi.KeyF15: keyF15, wsi.KeyF16: keyF16,
	wsi.KeyF17: keyF17, wsi.KeyF18: keyF18, wsi.KeyF19: keyF19, wsi.KeyF20: keyF20,
	wsi.KeyF21: keyF21, wsi.KeyF22: keyF22, wsi.KeyF23: keyF23, wsi.KeyF24: keyF24,
}

// evdevButton translates a wsi.Button into its evdev BTN_* code.
var evdevButton = map[wsi.Button]uint32{
	wsi.BtnLeft: btnLeft, wsi.BtnRight: btnRight, wsi.BtnMiddle: btnMiddle,
	wsi.BtnSide: btnSide, wsi.BtnForward: btnExtra, wsi.BtnBackward: btnBack,
}

// translateModifiers maps wsi's modifier bitmask onto input.Modifier.
func translateModifiers(m wsi.Modifier) input.Modifier {
	var out input.Modifier
	if m&wsi.ModCapsLock != 0 {
		out |= input.ModCaps
	}
	if m&wsi.ModShift != 0 {
		out |= input.ModShift
	}
	if m&wsi.ModCtrl != 0 {
		out |= input.ModCtrl
	}
	if m&wsi.ModAlt != 0 {
		out |= input.ModAlt
	}
	return out
}
