// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package corelog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compositor.log")
	l, closer, err := Open(LevelInfo, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer closer.Close()

	l.Info("hello")
	closer.Close()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(b), "hello") {
		t.Fatalf("log file missing entry:\nhave %q", b)
	}
}

func TestOpenNoFile(t *testing.T) {
	l, closer, err := Open(LevelInfo, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer closer.Close()
	l.Info("stderr only")
	if err := closer.Close(); err != nil {
		t.Fatalf("noopCloser.Close: %v", err)
	}
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compositor.log")
	l, closer, err := Open(LevelWarn, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer closer.Close()

	l.Debug("should not appear")
	l.Warn("should appear")
	closer.Close()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.Contains(string(b), "should not appear") {
		t.Fatal("debug line leaked past warn-level filter")
	}
	if !strings.Contains(string(b), "should appear") {
		t.Fatal("warn line missing")
	}
}
