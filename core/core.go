// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package core provides the explicit, non-global context threaded
// through every other subsystem: the GPU driver, the main loop, and
// the process logger.
//
// The teacher's engine/internal/ctxt package kept the driver, GPU and
// limits in package-level variables set once by an init-time
// loadDriver call. That pattern does not survive generalizing beyond
// a single engine instance per process, and per the redesign notes
// this module replaces it with an explicit struct that every
// subsystem constructor takes as its first argument — except the
// logger, which (as in the teacher) is still acceptable to keep
// process-wide, since only one process-wide log sink ever makes
// sense and every subsystem would otherwise need to thread it through
// for no reason beyond logging.
package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/gviegas/compositor/driver"
	"github.com/gviegas/compositor/internal/corelog"
)

// Core bundles the resources every compositor subsystem needs.
type Core struct {
	drv    driver.Driver
	gpu    driver.GPU
	limits driver.Limits

	Loop *Loop
	Log  *logrus.Logger

	logFile interface{ Close() error }
}

// Options configures Open.
type Options struct {
	// DriverName selects a registered driver.Driver whose name
	// contains this string. The empty string accepts any driver.
	DriverName string

	// LogLevel is the minimum severity logged.
	LogLevel corelog.Level

	// LogFile is an append-only plain-text log destination. Empty
	// disables the file sink (stderr is always active).
	LogFile string
}

var errNoDriver = errors.New("core: driver not found")

// Open selects a driver, opens its GPU, starts the process logger and
// creates the main loop. It is called exactly once per process.
func Open(opts Options) (*Core, error) {
	log, logFile, err := corelog.Open(opts.LogLevel, opts.LogFile)
	if err != nil {
		return nil, err
	}

	drv, gpu, err := loadDriver(opts.DriverName)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	loop, err := NewLoop()
	if err != nil {
		logFile.Close()
		return nil, err
	}

	log.WithField("driver", drv.Name()).Info("driver opened")
	return &Core{
		drv:     drv,
		gpu:     gpu,
		limits:  gpu.Limits(),
		Loop:    loop,
		Log:     log,
		logFile: logFile,
	}, nil
}

// Driver returns the underlying driver.Driver.
func (c *Core) Driver() driver.Driver { return c.drv }

// GPU returns the GPU interface used to record and submit work.
func (c *Core) GPU() driver.GPU { return c.gpu }

// Limits returns the implementation limits of c's GPU. The returned
// pointer must not be modified by the caller.
func (c *Core) Limits() *driver.Limits { return &c.limits }

// Close shuts down the loop, the driver and finally the log sink, in
// that order, matching the design note that the log sink is the last
// thing to go so that shutdown itself can be logged.
func (c *Core) Close() {
	c.Loop.Close()
	c.drv.Close()
	c.Log.Info("compositor core closed")
	c.logFile.Close()
}

func loadDriver(name string) (driver.Driver, driver.GPU, error) {
	drivers := driver.Drivers()
	err := errNoDriver
	for i := range drivers {
		if !strings.Contains(drivers[i].Name(), name) {
			continue
		}
		gpu, e := drivers[i].Open()
		if e != nil {
			err = e
			continue
		}
		return drivers[i], gpu, nil
	}
	return nil, nil, fmt.Errorf("core: %w", err)
}
