// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package output_test

import (
	"testing"

	"github.com/gviegas/compositor/core"
	_ "github.com/gviegas/compositor/driver/vk"
	"github.com/gviegas/compositor/output"
	"github.com/gviegas/compositor/wsi"
)

func openTestCore(t *testing.T) *core.Core {
	t.Helper()
	c, err := core.Open(core.Options{DriverName: "vulkan"})
	if err != nil {
		t.Fatalf("core.Open: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func newTestOutput(t *testing.T, c *core.Core, name string) *output.Output {
	t.Helper()
	win, err := wsi.NewWindow(320, 240, name)
	if err != nil {
		t.Fatalf("wsi.NewWindow: %v", err)
	}
	t.Cleanup(win.Close)
	o, err := output.New(c.GPU(), win, name, output.Desc{Scale: 1}, 2)
	if err != nil {
		t.Fatalf("output.New: %v", err)
	}
	t.Cleanup(o.Destroy)
	return o
}

func TestRequestFrameRespectsInFlightCap(t *testing.T) {
	c := openTestCore(t)
	o := newTestOutput(t, c, "cap")

	var rendered []int
	for i := 0; i < 2; i++ {
		o.RequestFrame(func(idx int) { rendered = append(rendered, idx) })
	}
	if len(rendered) != 2 {
		t.Fatalf("expected both in-flight slots dispatched immediately:\nhave %v", rendered)
	}

	var queued bool
	o.RequestFrame(func(idx int) { queued = true })
	if queued {
		t.Fatal("a third request should queue, not dispatch, while both slots are in flight")
	}

	o.CompleteFrame(rendered[0])
	if !queued {
		t.Fatal("completing a frame should retry the queued request")
	}
}

func TestCompleteFrameBumpsLastCommitID(t *testing.T) {
	c := openTestCore(t)
	o := newTestOutput(t, c, "commitid")

	var idx int
	o.RequestFrame(func(i int) { idx = i })
	if o.LastCommitID() != 0 {
		t.Fatalf("LastCommitID before completion:\nhave %d\nwant 0", o.LastCommitID())
	}
	o.CompleteFrame(idx)
	if o.LastCommitID() != 1 {
		t.Fatalf("LastCommitID after completion:\nhave %d\nwant 1", o.LastCommitID())
	}
}
