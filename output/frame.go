// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package output

import (
	"github.com/gviegas/compositor/geom"
	"github.com/gviegas/compositor/surface"
)

// Positioned pairs a mapped surface with its current global position,
// the minimum a caller needs to resolve the surface's primary output
// (spec.md §4.5 "frame-callback dispatch").
type Positioned struct {
	Surface *surface.Surface
	Pos     geom.Vec2
}

// DispatchFrameCallbacks resolves each mapped surface's primary
// output and, for every surface whose primary output is o, drains and
// resolves its pending frame callbacks with msTimestamp. Called once
// per output after that output's render has completed.
func DispatchFrameCallbacks(l *Layout, o *Output, surfaces []Positioned, msTimestamp uint32) {
	for _, p := range surfaces {
		if !p.Surface.Mapped() {
			continue
		}
		globalDst := p.Surface.BufferDst().Translate(p.Pos)
		primary, ok := l.OutputForSurface(globalDst)
		if !ok || primary != o {
			continue
		}
		for _, cb := range p.Surface.TakeFrameCallbacks() {
			cb.Done(msTimestamp)
		}
	}
}
