// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package buffer

import (
	"fmt"

	"github.com/gviegas/compositor/driver"
)

// Format identifies a pixel format as named by the wl_shm/DRM fourcc
// format space. Only the formats a compositor realistically needs to
// ingress into the (out-of-scope) GPU abstraction's PixelFmt set are
// named here; anything else is rejected at buffer creation.
type Format uint32

// Formats, matching the wl_shm.format enum's fourcc-derived values
// for the subset this compositor supports.
const (
	FormatARGB8888 Format = 0
	FormatXRGB8888 Format = 1
	FormatABGR8888 Format = 0x34324241 // 'AB24'
	FormatXBGR8888 Format = 0x34324258 // 'XB24'
)

// PixelFmt maps f to the driver-level pixel format used to create the
// GPU image a buffer's contents are copied into. XRGB/ARGB are
// byte-order-little-endian, which is driver.BGRA8un; ABGR/XBGR are
// driver.RGBA8un.
func (f Format) PixelFmt() (driver.PixelFmt, error) {
	switch f {
	case FormatARGB8888, FormatXRGB8888:
		return driver.BGRA8un, nil
	case FormatABGR8888, FormatXBGR8888:
		return driver.RGBA8un, nil
	default:
		return 0, fmt.Errorf("buffer: unsupported format %#x", uint32(f))
	}
}

// HasAlpha reports whether f's alpha channel carries meaningful data
// (as opposed to being ignored padding, as in the X* formats).
func (f Format) HasAlpha() bool {
	return f == FormatARGB8888 || f == FormatABGR8888
}

// BytesPerPixel returns the stride contribution of one pixel in this
// format. Every supported format is a packed 32-bit format.
func (f Format) BytesPerPixel() int { return 4 }
