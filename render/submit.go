// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package render

import (
	"github.com/gviegas/compositor/driver"
	"github.com/gviegas/compositor/geom"
)

// Submit builds s into a DrawList over sceneRect (the scene's global
// coordinate extent), maps it into an output's framebuffer space
// (outputRect, outWidth, outHeight) and issues it through cb using p
// and frame. frame is reset first, so one Frame may be reused across
// outputs sharing the same Scene within a single core.Loop iteration
// (spec.md §4.7 "one DrawList may be reused across outputs sharing
// the same scene").
// separate forwards to Frame.Issue, selecting the "--separate-draws"
// diagnostic mode (spec.md §6) over the default blend-mode batching.
func Submit(cb driver.CmdBuffer, p *Pipelines, frame *Frame, s Scene, sceneRect geom.Rect, outputRect geom.Rect, viewport driver.Viewport, separate bool) error {
	if p == nil {
		return ErrNoPipelines
	}

	list := Build(s, sceneRect)

	mapped := DrawList{Rects: make([]Rect, 0, len(list.Rects))}
	for _, r := range list.Rects {
		mapped.Rects = append(mapped.Rects, ToOutputSpace(r, outputRect, int(viewport.Width), int(viewport.Height)))
	}

	frame.Reset()
	draws, err := frame.Append(p, mapped)
	if err != nil {
		return err
	}
	frame.Issue(cb, p, viewport, draws, separate)
	return nil
}
