// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/gviegas/compositor/backend"
	"github.com/gviegas/compositor/core"
	"github.com/gviegas/compositor/dnd"
	"github.com/gviegas/compositor/driver"
	"github.com/gviegas/compositor/geom"
	"github.com/gviegas/compositor/input"
	"github.com/gviegas/compositor/output"
	"github.com/gviegas/compositor/render"
	"github.com/gviegas/compositor/surface"
	"github.com/gviegas/compositor/wsi"
)

// server bundles the single output this binary drives, alongside the
// renderer state shared by every frame it submits.
type server struct {
	core *core.Core

	win wsi.Window
	out *output.Output

	pipelines *render.Pipelines
	frame     *render.Frame
	fbs       []driver.Framebuf

	backend *backend.Backend

	separateDraws bool
}

// newServer creates the output window, compiles the rectangle
// pipelines, and installs package backend as the active wsi handler
// set.
func newServer(c *core.Core, table *surface.Table, seat *input.Seat, layout *output.Layout, drag *dnd.Manager, width, height int, separateDraws bool) (*server, error) {
	win, err := wsi.NewWindow(width, height, "compositor")
	if err != nil {
		return nil, fmt.Errorf("compositor: NewWindow: %w", err)
	}
	if err := win.Map(); err != nil {
		win.Close()
		return nil, fmt.Errorf("compositor: Map: %w", err)
	}

	out, err := output.New(c.GPU(), win, "output-0", defaultDesc(win), output.DefaultFramesInFlight)
	if err != nil {
		win.Close()
		return nil, fmt.Errorf("compositor: output.New: %w", err)
	}
	layout.Add(out, geom.FromXYWH(0, 0, float64(width), float64(height)))

	vertSPIRV, err := os.ReadFile("assets/quad_vs.spv")
	if err != nil {
		out.Destroy()
		win.Close()
		return nil, fmt.Errorf("compositor: read vertex shader: %w", err)
	}
	fragSPIRV, err := os.ReadFile("assets/quad_fs.spv")
	if err != nil {
		out.Destroy()
		win.Close()
		return nil, fmt.Errorf("compositor: read fragment shader: %w", err)
	}

	pipelines, err := render.NewPipelines(c.GPU(), render.PipelineParams{
		VertSPIRV: vertSPIRV,
		FragSPIRV: fragSPIRV,
		ColorFmt:  out.Swapchain().Format(),
		Samples:   1,
	})
	if err != nil {
		out.Destroy()
		win.Close()
		return nil, fmt.Errorf("compositor: render.NewPipelines: %w", err)
	}

	frame, err := render.NewFrame(c.GPU())
	if err != nil {
		pipelines.Destroy()
		out.Destroy()
		win.Close()
		return nil, fmt.Errorf("compositor: render.NewFrame: %w", err)
	}

	fbs, err := buildFramebufs(pipelines.Pass(), out.Swapchain(), width, height)
	if err != nil {
		frame.Destroy()
		pipelines.Destroy()
		out.Destroy()
		win.Close()
		return nil, fmt.Errorf("compositor: buildFramebufs: %w", err)
	}

	s := &server{
		core:          c,
		win:           win,
		out:           out,
		pipelines:     pipelines,
		frame:         frame,
		fbs:           fbs,
		separateDraws: separateDraws,
	}

	order := func() []*surface.Surface { return nil } // populated by the out-of-scope dispatcher
	s.backend = backend.New(seat, layout, table, nullDisplay{}, order, drag, s)
	s.backend.RegisterOutput(win, out)

	out.RequestFrame(s.render)
	return s, nil
}

// OutputAdded implements backend.Events.
func (s *server) OutputAdded(o *output.Output) { s.core.Log.WithField("output", o.Name()).Info("output added") }

// OutputRemoved implements backend.Events.
func (s *server) OutputRemoved(o *output.Output) {
	s.core.Log.WithField("output", o.Name()).Info("output removed")
}

// ShutdownRequested implements backend.Events.
func (s *server) ShutdownRequested() {
	s.core.Log.Info("all outputs closed, requesting shutdown")
	s.core.Loop.Stop()
}

// render is the output's RequestFrame callback: it records one
// render-pass submission drawing the current (empty, until a wire
// dispatcher populates it) scene and re-arms itself for the next
// frame once the submission completes.
func (s *server) render(idx int) {
	cb := s.out.CmdBuffer(idx)
	sc := s.out.Swapchain()

	if err := cb.Begin(); err != nil {
		s.core.Log.WithError(err).Error("cb.Begin")
		return
	}
	view, err := sc.Next(cb)
	if err != nil {
		s.core.Log.WithError(err).Error("swapchain.Next")
		return
	}

	w, h := s.out.Size()
	scene := render.Scene{}
	outRect := s.out.LayoutRect()
	viewport := driver.Viewport{X: 0, Y: 0, Width: float32(w), Height: float32(h), Znear: 0, Zfar: 1}

	cb.BeginPass(s.pipelines.Pass(), s.fbs[view], []driver.ClearValue{{Color: [4]float32{0, 0, 0, 1}}})
	if err := render.Submit(cb, s.pipelines, s.frame, scene, outRect, outRect, viewport, s.separateDraws); err != nil {
		s.core.Log.WithError(err).Error("render.Submit")
	}
	cb.EndPass()

	if err := cb.End(); err != nil {
		s.core.Log.WithError(err).Error("cb.End")
		return
	}
	if err := sc.Present(view, cb); err != nil {
		s.core.Log.WithError(err).Error("swapchain.Present")
		return
	}

	done := make(chan error, 1)
	s.core.GPU().Commit([]driver.CmdBuffer{cb}, done)
	go func() {
		if err := <-done; err != nil {
			s.core.Log.WithError(err).Error("commit")
		}
		s.core.Loop.Post(func() {
			s.out.CompleteFrame(idx)
			s.out.RequestFrame(s.render)
		})
	}()
}

// Close releases the server's GPU and window resources.
func (s *server) Close() {
	for _, fb := range s.fbs {
		fb.Destroy()
	}
	s.frame.Destroy()
	s.pipelines.Destroy()
	s.out.Destroy()
	s.win.Close()
}

func buildFramebufs(pass driver.RenderPass, sc driver.Swapchain, width, height int) ([]driver.Framebuf, error) {
	views := sc.Views()
	fbs := make([]driver.Framebuf, len(views))
	for i, v := range views {
		fb, err := pass.NewFB([]driver.ImageView{v}, width, height, 1)
		if err != nil {
			for _, prev := range fbs[:i] {
				prev.Destroy()
			}
			return nil, err
		}
		fbs[i] = fb
	}
	return fbs, nil
}

func defaultDesc(win wsi.Window) output.Desc {
	return output.Desc{
		Modes: []output.VideoMode{{
			Width:      win.Width(),
			Height:     win.Height(),
			RefreshMHz: 60000,
			Preferred:  true,
		}},
		PhysicalWidthMM:  0,
		PhysicalHeightMM: 0,
		Subpixel:         "unknown",
		Transform:        "normal",
		Scale:            1,
	}
}
