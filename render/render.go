// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package render implements Component E, the compositor renderer
// (spec.md §4.7): translating the scene graph into a single draw
// list of textured rectangles per frame, and issuing that list
// through a GPU pipeline selected by blend mode.
package render

import (
	"errors"
	"fmt"

	"github.com/gviegas/compositor/driver"
)

const rendPrefix = "render: "

func newErr(reason string) error { return errors.New(rendPrefix + reason) }

// BlendMode selects the pipeline a Rect is drawn with (spec.md §6
// "blend modes {none, premultiplied, postmultiplied}").
type BlendMode int

const (
	BlendNone BlendMode = iota
	BlendPremultiplied
	BlendPostmultiplied

	nBlendMode
)

// vertex is one corner of a drawn quad. Its three attributes are
// bound as three separate driver.VertexIn streams (driver.VertexIn
// "represents a separate buffer binding, interleaved inputs are not
// supported"), each occupying its own region of one growable buffer,
// generalizing engine/storage.go's single-buffer-many-regions
// approach to mesh storage from triangle meshes to quads.
type vertex struct {
	x, y       float32
	u, v       float32
	r, g, b, a float32
}

const (
	posStride   = 4 * 2
	uvStride    = 4 * 2
	colorStride = 4 * 4
)

// quadIndices is the two-triangle list shared by every drawn Rect,
// relative to a per-draw base vertex.
var quadIndices = [6]uint16{0, 1, 2, 2, 1, 3}

// Pipelines holds one compiled driver.Pipeline per BlendMode, created
// once against a given driver.RenderPass/Framebuf-compatible
// configuration and reused by every Submit call targeting outputs of
// that pixel format. It also owns the descriptor heap copies each
// draw's texture is bound into: one heap copy per quad slot, grown
// alongside the Frame's vertex capacity (see ensureCopies).
type Pipelines struct {
	pass    driver.RenderPass
	table   driver.DescTable
	heap    driver.DescHeap
	sampler driver.Sampler
	ncopy   int
	pl      [nBlendMode]driver.Pipeline
}

// Pass returns the render pass p's pipelines were compiled against,
// so a caller can build a driver.Framebuf around each swapchain image
// view (e.g. package output's per-Output swapchain views) with a
// matching pixel format and sample count.
func (p *Pipelines) Pass() driver.RenderPass { return p.pass }

// ensureCopies grows the descriptor heap to hold at least n copies,
// rebinding the shared sampler into every copy (driver.DescHeap.New
// "All copies from a previous call to New are invalidated").
func (p *Pipelines) ensureCopies(n int) error {
	if n <= p.ncopy {
		return nil
	}
	if err := p.heap.New(n); err != nil {
		return fmt.Errorf("%sensureCopies: %w", rendPrefix, err)
	}
	p.ncopy = n
	for cpy := 0; cpy < n; cpy++ {
		p.heap.SetSampler(cpy, 1, 0, []driver.Sampler{p.sampler})
	}
	return nil
}

// bindImage binds iv as the sampled texture of heap copy cpy.
func (p *Pipelines) bindImage(cpy int, iv driver.ImageView) {
	if iv == nil {
		return
	}
	p.heap.SetImage(cpy, 0, 0, []driver.ImageView{iv})
}

// PipelineParams bundles the shader code and descriptor layout a
// caller must supply; compiling actual SPIR-V is the out-of-scope
// Vulkan-level GPU abstraction's job (spec.md §1), so bytes come in
// precompiled exactly as the teacher's own tests load "*.spv" files
// from disk before calling driver.GPU.NewShaderCode.
type PipelineParams struct {
	VertSPIRV, FragSPIRV []byte
	ColorFmt             driver.PixelFmt
	Samples              int
}

// NewPipelines compiles the rectangle shader once per blend mode
// against colorFmt, sharing a single descriptor table binding one
// sampled image and one sampler (spec.md §4.7 "a single pipeline per
// blend mode").
func NewPipelines(gpu driver.GPU, p PipelineParams) (*Pipelines, error) {
	vcode, err := gpu.NewShaderCode(p.VertSPIRV)
	if err != nil {
		return nil, fmt.Errorf("%sNewPipelines: vertex: %w", rendPrefix, err)
	}
	fcode, err := gpu.NewShaderCode(p.FragSPIRV)
	if err != nil {
		return nil, fmt.Errorf("%sNewPipelines: fragment: %w", rendPrefix, err)
	}

	sampler, err := gpu.NewSampler(&driver.Sampling{
		Min: driver.FLinear, Mag: driver.FLinear, Mipmap: driver.FNearest,
		AddrU: driver.AClamp, AddrV: driver.AClamp, AddrW: driver.AClamp,
		MaxAniso: 1, MaxLOD: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("%sNewPipelines: NewSampler: %w", rendPrefix, err)
	}

	heap, err := gpu.NewDescHeap([]driver.Descriptor{
		{Type: driver.DTexture, Stages: driver.SFragment, Nr: 0, Len: 1},
		{Type: driver.DSampler, Stages: driver.SFragment, Nr: 1, Len: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("%sNewPipelines: NewDescHeap: %w", rendPrefix, err)
	}
	table, err := gpu.NewDescTable([]driver.DescHeap{heap})
	if err != nil {
		return nil, fmt.Errorf("%sNewPipelines: NewDescTable: %w", rendPrefix, err)
	}

	pass, err := gpu.NewRenderPass(
		[]driver.Attachment{{
			Format:  p.ColorFmt,
			Samples: max1(p.Samples),
			Load:    [2]driver.LoadOp{driver.LLoad, driver.LDontCare},
			Store:   [2]driver.StoreOp{driver.SStore, driver.SDontCare},
		}},
		[]driver.Subpass{{Color: []int{0}, DS: -1}},
	)
	if err != nil {
		return nil, fmt.Errorf("%sNewPipelines: NewRenderPass: %w", rendPrefix, err)
	}

	in := []driver.VertexIn{
		{Format: driver.Float32x2, Stride: posStride, Nr: 0, Name: "position"},
		{Format: driver.Float32x2, Stride: uvStride, Nr: 1, Name: "texcoord"},
		{Format: driver.Float32x4, Stride: colorStride, Nr: 2, Name: "color"},
	}

	var pipes [nBlendMode]driver.Pipeline
	for m := BlendMode(0); m < nBlendMode; m++ {
		state := driver.GraphState{
			VertFunc: driver.ShaderFunc{Code: vcode, Name: "main"},
			FragFunc: driver.ShaderFunc{Code: fcode, Name: "main"},
			Desc:     table,
			Input:    in,
			Topology: driver.TTriangle,
			Samples:  max1(p.Samples),
			Blend:    blendState(m),
			Pass:     pass,
			Subpass:  0,
		}
		pl, err := gpu.NewPipeline(&state)
		if err != nil {
			for _, prev := range pipes[:m] {
				if prev != nil {
					prev.Destroy()
				}
			}
			heap.Destroy()
			table.Destroy()
			pass.Destroy()
			sampler.Destroy()
			return nil, fmt.Errorf("%sNewPipelines: NewPipeline(%v): %w", rendPrefix, m, err)
		}
		pipes[m] = pl
	}

	pls := &Pipelines{pass: pass, table: table, heap: heap, sampler: sampler, pl: pipes}
	if err := pls.ensureCopies(initialQuadCap); err != nil {
		pls.Destroy()
		return nil, err
	}
	return pls, nil
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// blendState returns the fixed-function blend configuration for m.
// BlendNone disables blending outright (opaque background/backstop
// rects); BlendPremultiplied assumes color already multiplied by
// alpha (the common case for client buffers, whose compositing
// protocol requires premultiplied alpha); BlendPostmultiplied
// straight-alpha blends, used for content (e.g. some cursor theme
// frames) that is not premultiplied.
func blendState(m BlendMode) driver.BlendState {
	cb := driver.ColorBlend{WriteMask: driver.CAll}
	switch m {
	case BlendNone:
		cb.Blend = false
	case BlendPremultiplied:
		cb.Blend = true
		cb.Op = [2]driver.BlendOp{driver.BAdd, driver.BAdd}
		cb.SrcFac = [2]driver.BlendFac{driver.BOne, driver.BOne}
		cb.DstFac = [2]driver.BlendFac{driver.BInvSrcAlpha, driver.BInvSrcAlpha}
	case BlendPostmultiplied:
		cb.Blend = true
		cb.Op = [2]driver.BlendOp{driver.BAdd, driver.BAdd}
		cb.SrcFac = [2]driver.BlendFac{driver.BSrcAlpha, driver.BSrcAlpha}
		cb.DstFac = [2]driver.BlendFac{driver.BInvSrcAlpha, driver.BInvSrcAlpha}
	}
	return driver.BlendState{Color: []driver.ColorBlend{cb}}
}

// Destroy releases the pipelines, descriptor heap/table, sampler and
// render pass.
func (p *Pipelines) Destroy() {
	for _, pl := range p.pl {
		if pl != nil {
			pl.Destroy()
		}
	}
	p.table.Destroy()
	p.heap.Destroy()
	p.sampler.Destroy()
	p.pass.Destroy()
}

// ErrNoPipelines is returned by Submit when Pipelines is nil.
var ErrNoPipelines = errors.New(rendPrefix + "submit requires non-nil Pipelines")
