// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package render

import (
	"encoding/binary"
	"math"

	"github.com/gviegas/compositor/driver"
)

// Frame is a frame-scoped guard owning the growable vertex and index
// buffers built for one Submit call. Vertex/index data is appended
// directly into a driver.Buffer's host-visible bytes; the buffers
// grow geometrically and are retained until the GPU submission that
// reads them has been observed complete, per spec.md §4.7 "Vertex and
// index buffers are per-frame, geometrically grown, and owned by a
// frame-scoped guard so their lifetime outlives the GPU submission."
//
// The vertex buffer is laid out as three contiguous SoA regions
// (position, texcoord, color), each bound as its own driver.VertexIn
// stream, since driver.VertexIn bindings do not support interleaved
// attributes.
type Frame struct {
	gpu driver.GPU

	vbuf driver.Buffer
	vcap int // capacity of vbuf, in vertices
	ibuf driver.Buffer

	nvert  int
	nindex int
}

const initialQuadCap = 64

// NewFrame creates an empty Frame, pre-sizing both buffers for
// initialQuadCap quads.
func NewFrame(gpu driver.GPU) (*Frame, error) {
	f := &Frame{gpu: gpu}
	if err := f.growVertex(initialQuadCap * 4); err != nil {
		return nil, err
	}
	if err := f.growIndex(initialQuadCap * 6); err != nil {
		f.vbuf.Destroy()
		return nil, err
	}
	return f, nil
}

// Destroy releases the frame's buffers. Callers must not call this
// until the GPU submission that reads them has completed.
func (f *Frame) Destroy() {
	if f.vbuf != nil {
		f.vbuf.Destroy()
	}
	if f.ibuf != nil {
		f.ibuf.Destroy()
	}
}

// vertexStride is the combined per-vertex byte cost across the three
// SoA regions (position, texcoord, color); a buffer sized for n
// vertices reserves n*vertexStride bytes, split into the three
// regions below.
const vertexStride = posStride + uvStride + colorStride

func (f *Frame) posOff() int64   { return 0 }
func (f *Frame) uvOff() int64    { return int64(f.vcap) * posStride }
func (f *Frame) colorOff() int64 { return int64(f.vcap) * (posStride + uvStride) }

// growVertex ensures the vertex buffer holds at least nvert vertices,
// reallocating (and relaying out the SoA regions) if needed.
func (f *Frame) growVertex(nvert int) error {
	if f.vbuf != nil && f.vcap >= nvert {
		return nil
	}
	cap := nvert
	if f.vcap*2 > cap {
		cap = f.vcap * 2
	}
	buf, err := f.gpu.NewBuffer(int64(cap)*vertexStride, true, driver.UVertexData)
	if err != nil {
		return newErr("growVertex: " + err.Error())
	}
	if f.vbuf != nil {
		f.vbuf.Destroy()
	}
	f.vbuf = buf
	f.vcap = cap
	return nil
}

func (f *Frame) growIndex(nindex int) error {
	need := int64(nindex) * 2
	if f.ibuf != nil && f.ibuf.Cap() >= need {
		return nil
	}
	cap := need
	if f.ibuf != nil {
		cap = f.ibuf.Cap() * 2
		if cap < need {
			cap = need
		}
	}
	buf, err := f.gpu.NewBuffer(cap, true, driver.UIndexData)
	if err != nil {
		return newErr("growIndex: " + err.Error())
	}
	if f.ibuf != nil {
		f.ibuf.Destroy()
	}
	f.ibuf = buf
	return nil
}

// draw is the GPU-ready counterpart of a Rect: a quad's base vertex
// and index plus the pipeline/descriptor binding it draws with.
type draw struct {
	baseVert  int
	baseIndex int
	blend     BlendMode
	heapCopy  int
}

// Reset clears the frame's accumulated geometry so it can be reused
// for the next DrawList without reallocating its buffers, unless the
// new list needs more capacity (in which case the buffers grow).
func (f *Frame) Reset() { f.nvert, f.nindex = 0, 0 }

// Append appends l's Rects as quads, growing the frame's buffers (and
// p's descriptor heap copies) as needed, and returns the per-draw
// metadata Issue needs, in list order. Growing the vertex buffer
// relays out its three SoA regions without copying their contents:
// if it grows while vertices from an earlier Append of the same frame
// are present, Append returns an error and those vertices are not
// carried over.
func (f *Frame) Append(p *Pipelines, l DrawList) ([]draw, error) {
	prevVert, prevIndex := f.nvert, f.nindex
	grew := f.vcap < prevVert+len(l.Rects)*4
	if err := f.growVertex(prevVert + len(l.Rects)*4); err != nil {
		return nil, err
	}
	if err := f.growIndex(prevIndex + len(l.Rects)*6); err != nil {
		return nil, err
	}
	if err := p.ensureCopies(f.vcap / 4); err != nil {
		return nil, err
	}

	if grew && prevVert > 0 {
		return nil, newErr("Append: capacity grew with unflushed vertices; call Reset before the first Append of a frame")
	}

	draws := make([]draw, 0, len(l.Rects))
	vb := f.vbuf.Bytes()
	ib := f.ibuf.Bytes()
	pos := vb[f.posOff():f.uvOff()]
	uv := vb[f.uvOff():f.colorOff()]
	col := vb[f.colorOff():]

	for _, r := range l.Rects {
		base := f.nvert
		heapCopy := base / 4
		p.bindImage(heapCopy, r.Image)
		corners := [4]vertex{
			{x: float32(r.Dst.X), y: float32(r.Dst.Y), u: float32(r.Src.X), v: float32(r.Src.Y)},
			{x: float32(r.Dst.X + r.Dst.Width), y: float32(r.Dst.Y), u: float32(r.Src.X + r.Src.Width), v: float32(r.Src.Y)},
			{x: float32(r.Dst.X), y: float32(r.Dst.Y + r.Dst.Height), u: float32(r.Src.X), v: float32(r.Src.Y + r.Src.Height)},
			{x: float32(r.Dst.X + r.Dst.Width), y: float32(r.Dst.Y + r.Dst.Height), u: float32(r.Src.X + r.Src.Width), v: float32(r.Src.Y + r.Src.Height)},
		}
		for i, c := range corners {
			putVec2(pos[(base+i)*posStride:], c.x, c.y)
			putVec2(uv[(base+i)*uvStride:], c.u, c.v)
			putVec4(col[(base+i)*colorStride:], r.Color[0], r.Color[1], r.Color[2], r.Color[3])
		}
		for i, idx := range quadIndices {
			binary.LittleEndian.PutUint16(ib[(f.nindex+i)*2:], uint16(base)+idx)
		}
		draws = append(draws, draw{baseVert: base, baseIndex: f.nindex, blend: r.Blend, heapCopy: heapCopy})
		f.nvert += 4
		f.nindex += 6
	}
	return draws, nil
}

func putVec2(b []byte, x, y float32) {
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(x))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(y))
}

func putVec4(b []byte, x, y, z, w float32) {
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(x))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(y))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(z))
	binary.LittleEndian.PutUint32(b[12:], math.Float32bits(w))
}

// Issue records the frame's accumulated draws into cb, within an
// already-begun render pass (BeginPass/EndPass are the caller's
// responsibility, since they also own clearing and the target
// framebuffer). Consecutive draws sharing the same blend mode are
// recorded under one SetPipeline, matching spec.md §4.7 "issues them
// with a single pipeline per blend mode" while preserving the list's
// original paint order (no reordering — only a pipeline switch is
// batched).
//
// If separate is set (the "--separate-draws" CLI flag, spec.md §6),
// SetPipeline is issued before every draw even when consecutive
// draws share a blend mode — a diagnostic mode that trades the batch
// optimization above for a command stream easier to step through in
// a GPU debugger.
func (f *Frame) Issue(cb driver.CmdBuffer, p *Pipelines, viewport driver.Viewport, draws []draw, separate bool) {
	if len(draws) == 0 {
		return
	}
	cb.SetVertexBuf(0, []driver.Buffer{f.vbuf, f.vbuf, f.vbuf}, []int64{f.posOff(), f.uvOff(), f.colorOff()})
	cb.SetIndexBuf(driver.Index16, f.ibuf, 0)
	cb.SetViewport([]driver.Viewport{viewport})

	last := BlendMode(-1)
	for _, d := range draws {
		if separate || d.blend != last {
			cb.SetPipeline(p.pl[d.blend])
			last = d.blend
		}
		cb.SetDescTableGraph(p.table, 0, []int{d.heapCopy})
		cb.DrawIndexed(6, 1, d.baseIndex, d.baseVert, 0)
	}
}
