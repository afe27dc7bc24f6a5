// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package buffer_test

import (
	"testing"

	"github.com/gviegas/compositor/buffer"
	"github.com/gviegas/compositor/driver"
)

func TestFormatPixelFmt(t *testing.T) {
	cases := []struct {
		f    buffer.Format
		want driver.PixelFmt
	}{
		{buffer.FormatXRGB8888, driver.BGRA8un},
		{buffer.FormatARGB8888, driver.BGRA8un},
		{buffer.FormatXBGR8888, driver.RGBA8un},
		{buffer.FormatABGR8888, driver.RGBA8un},
	}
	for _, c := range cases {
		got, err := c.f.PixelFmt()
		if err != nil {
			t.Fatalf("Format(%#x).PixelFmt: %v", uint32(c.f), err)
		}
		if got != c.want {
			t.Fatalf("Format(%#x).PixelFmt:\nhave %v\nwant %v", uint32(c.f), got, c.want)
		}
	}
}

func TestFormatUnsupported(t *testing.T) {
	if _, err := buffer.Format(0x12345678).PixelFmt(); err == nil {
		t.Fatal("Format.PixelFmt: expected error for unsupported format")
	}
}

func TestFormatHasAlpha(t *testing.T) {
	if !buffer.FormatARGB8888.HasAlpha() {
		t.Fatal("FormatARGB8888.HasAlpha: have false, want true")
	}
	if buffer.FormatXRGB8888.HasAlpha() {
		t.Fatal("FormatXRGB8888.HasAlpha: have true, want false")
	}
}
