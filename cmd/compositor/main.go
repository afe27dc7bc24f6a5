// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Command compositor is the compositor's process entrypoint: it opens
// core.Core, creates a single output backed by a host/nested wsi
// window, wires input and drag-and-drop onto it through package
// backend, and drives core.Loop until interrupted (spec.md §6).
//
// The Wayland wire-protocol dispatcher that would populate the scene
// graph from real clients is out of scope (spec.md §1); this binary
// proves the rest of the stack end-to-end with an always-empty scene
// (background only) until such a dispatcher is wired in.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gviegas/compositor/core"
	"github.com/gviegas/compositor/dnd"
	"github.com/gviegas/compositor/input"
	"github.com/gviegas/compositor/output"
	"github.com/gviegas/compositor/surface"
	"github.com/gviegas/compositor/wire"
	"github.com/gviegas/compositor/wsi"
)

// dispatchPeriod is how often wsi.Dispatch is polled from the main
// loop's timer. wsi exposes no file descriptor for core.Loop's epoll
// set to multiplex directly (unlike the DMA-BUF/backend sockets the
// loop was designed around), so dispatch reuses the loop's existing
// AfterFunc timer mechanism instead of adding a second polling path.
const dispatchPeriod = 8 * time.Millisecond

func main() {
	var (
		noDMABuf      = flag.Bool("no-dmabuf", false, "disable zwp_linux_dmabuf_v1 import")
		separateDraws = flag.Bool("separate-draws", false, "bind the pipeline before every draw instead of once per run of same-blend-mode draws")
		imgui         = flag.Bool("imgui", false, "enable the debug overlay")
		xwayland      = flag.String("xwayland", "", "spawn Xwayland on the given display, e.g. :1")
		logFile       = flag.String("log-file", "", "append-only plain-text log destination")
		logLevel      = flag.String("log-level", "info", "minimum log severity (trace, debug, info, warn, error)")
		width         = flag.Int("width", 1280, "initial output width, in pixels")
		height        = flag.Int("height", 720, "initial output height, in pixels")
	)
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "compositor:", err)
		os.Exit(1)
	}

	c, err := core.Open(core.Options{LogLevel: level, LogFile: *logFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, "compositor:", err)
		os.Exit(1)
	}
	defer c.Close()

	c.Log.WithField("dmabuf", !*noDMABuf).
		WithField("separateDraws", *separateDraws).
		WithField("imgui", *imgui).
		Info("starting")
	if *xwayland != "" {
		// Spawning and supervising the Xwayland process belongs to
		// the out-of-scope wire-protocol dispatcher (it alone knows
		// the socket/env wiring a rootless Xwayland needs); this
		// binary only logs the request.
		c.Log.WithField("display", *xwayland).Warn("xwayland requested but not implemented by this binary")
	}

	table := surface.NewTable()
	seat := input.NewSeat("seat0", table)
	layout := output.NewLayout()
	dragMgr := dnd.NewManager(noopRegistry{}, nullDisplay{})

	srv, err := newServer(c, table, seat, layout, dragMgr, *width, *height, *separateDraws)
	if err != nil {
		c.Log.WithError(err).Fatal("server setup failed")
	}
	defer srv.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		c.Log.Info("shutdown signal received")
		c.Loop.Post(c.Loop.Stop)
	}()

	var dispatch func()
	dispatch = func() {
		wsi.Dispatch()
		c.Loop.AfterFunc(dispatchPeriod, dispatch)
	}
	c.Loop.AfterFunc(dispatchPeriod, dispatch)

	if err := c.Loop.Run(); err != nil {
		c.Log.WithError(err).Fatal("main loop exited with error")
	}
	c.Log.Info("shutdown complete")
}

// noopRegistry mints no protocol objects: without the wire-protocol
// dispatcher there are no clients to hand a wl_data_device/offer to.
type noopRegistry struct{}

func (noopRegistry) Device(*surface.Surface) wire.Resource { return nil }
func (noopRegistry) NewOffer(wire.Resource) wire.Resource  { return nil }

// nullDisplay is the standalone binary's stand-in for the
// wire-protocol dispatcher's wl_display: there are no client sockets
// to flush, so Flush runs fn immediately.
type nullDisplay struct{}

var serialCounter uint32

func (nullDisplay) NextSerial() uint32 { return atomic.AddUint32(&serialCounter, 1) }
func (nullDisplay) Flush(fn func())    { fn() }
