// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package core

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestLoopPost(t *testing.T) {
	l, err := NewLoop()
	if err != nil {
		t.Fatalf("NewLoop: %v", err)
	}
	defer l.Close()

	done := make(chan struct{})
	go l.Post(func() { close(done) })

	if err := l.RunOnce(time.Second); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	select {
	case <-done:
	default:
		t.Fatal("posted task did not run within RunOnce")
	}
}

func TestLoopPostAndWait(t *testing.T) {
	l, err := NewLoop()
	if err != nil {
		t.Fatalf("NewLoop: %v", err)
	}
	defer l.Close()

	go func() {
		for {
			if err := l.RunOnce(10 * time.Millisecond); err != nil {
				return
			}
		}
	}()

	var ran bool
	l.PostAndWait(func() { ran = true })
	if !ran {
		t.Fatal("PostAndWait returned before task ran")
	}
}

func TestLoopAfterFunc(t *testing.T) {
	l, err := NewLoop()
	if err != nil {
		t.Fatalf("NewLoop: %v", err)
	}
	defer l.Close()

	fired := make(chan struct{})
	l.AfterFunc(10*time.Millisecond, func() { close(fired) })

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if err := l.RunOnce(50 * time.Millisecond); err != nil {
			t.Fatalf("RunOnce: %v", err)
		}
		select {
		case <-fired:
			return
		default:
		}
	}
	t.Fatal("timer did not fire within deadline")
}

func TestLoopStop(t *testing.T) {
	l, err := NewLoop()
	if err != nil {
		t.Fatalf("NewLoop: %v", err)
	}
	defer l.Close()

	runDone := make(chan error, 1)
	go func() { runDone <- l.Run() }()

	time.Sleep(10 * time.Millisecond)
	l.Stop()

	select {
	case err := <-runDone:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestRegisterUnregisterFD(t *testing.T) {
	l, err := NewLoop()
	if err != nil {
		t.Fatalf("NewLoop: %v", err)
	}
	defer l.Close()

	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	r, w := int32(fds[0]), int32(fds[1])
	defer unix.Close(int(r))
	defer unix.Close(int(w))

	fired := make(chan struct{}, 1)
	if err := l.RegisterFD(r, unix.EPOLLIN, func(uint32) { fired <- struct{}{} }); err != nil {
		t.Fatalf("RegisterFD: %v", err)
	}
	unix.Write(int(w), []byte{1})

	if err := l.RunOnce(time.Second); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	select {
	case <-fired:
	default:
		t.Fatal("registered fd handler did not run")
	}

	if err := l.UnregisterFD(r); err != nil {
		t.Fatalf("UnregisterFD: %v", err)
	}
}
