// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package corelog provides the process-wide logger.
//
// It mirrors every log line to two sinks at once: a VT-colored stream
// on stderr, for a human watching the compositor run, and a plain-text
// append-only file, for postmortem review (the two-sink split comes
// from original_source/src/core/log.hpp's core_init_log(level,
// log_file), which always wrote both a stderr stream and a file).
// Only this package's logger is process-wide; every other subsystem
// takes its logger (or a *logrus.Entry scoped to it) as an explicit
// argument, per the anti-global-singleton design.
package corelog

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Level names the six levels the original implementation exposed.
// It maps directly onto logrus's levels, dropping only logrus's Panic
// (used nowhere in this module; a panic is always a bug, never a log
// call) to keep the set matching core_log_level exactly.
type Level = logrus.Level

const (
	LevelTrace = logrus.TraceLevel
	LevelDebug = logrus.DebugLevel
	LevelInfo  = logrus.InfoLevel
	LevelWarn  = logrus.WarnLevel
	LevelError = logrus.ErrorLevel
	LevelFatal = logrus.FatalLevel
)

// Open creates the process-wide logger, writing level-filtered,
// VT-colored lines to stderr and the same lines, plain text, to logFile.
// If logFile is empty, the file sink is omitted. Open is called once,
// by core.Open, and the returned logger is passed down explicitly
// from there; it is never reached for through a package-level global.
func Open(level Level, logFile string) (*logrus.Logger, io.Closer, error) {
	l := logrus.New()
	l.SetLevel(level)
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})

	if logFile == "" {
		return l, noopCloser{}, nil
	}

	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("corelog: open log file: %w", err)
	}
	l.AddHook(&fileHook{
		writer:    f,
		formatter: &logrus.TextFormatter{DisableColors: true, FullTimestamp: true},
	})
	return l, f, nil
}

type noopCloser struct{}

func (noopCloser) Close() error { return nil }

// fileHook mirrors every accepted entry to an append-only file,
// independently of the logger's own (colored, stderr-bound) output.
type fileHook struct {
	writer    io.Writer
	formatter logrus.Formatter
}

func (h *fileHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *fileHook) Fire(e *logrus.Entry) error {
	b, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	_, err = h.writer.Write(b)
	return err
}
