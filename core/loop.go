// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package core

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Loop is the single-threaded, cooperative main loop.
//
// It multiplexes three kinds of event sources with one epoll
// instance: a task eventfd that worker goroutines signal to hand
// completions back to the main thread, a timerfd driving scheduled
// callbacks, and any number of caller-registered file descriptors
// (backend window-system connections, DMA-BUF sync fences, and so
// on). This mirrors original_source/src/core/event.hpp's
// wrei_event_loop, which multiplexes the same three kinds of source
// around a single epoll_fd.
//
// A Loop must only be driven (Run, RunOnce) from the goroutine that
// created it; Post and PostAndWait are the only methods safe to call
// from other goroutines.
type Loop struct {
	epollFD int
	taskFD  int
	timerFD int

	mu      sync.Mutex
	tasks   []task
	stopped bool

	timers   []timer
	handlers map[int32]func(events uint32)
}

type task struct {
	fn   func()
	done chan struct{}
}

type timer struct {
	expiry time.Time
	fn     func()
}

// NewLoop creates a Loop, arming its internal eventfd and timerfd and
// registering them with a fresh epoll instance.
func NewLoop() (*Loop, error) {
	epollFD, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("core: EpollCreate1: %w", err)
	}
	taskFD, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epollFD)
		return nil, fmt.Errorf("core: Eventfd: %w", err)
	}
	timerFD, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_CLOEXEC|unix.TFD_NONBLOCK)
	if err != nil {
		unix.Close(epollFD)
		unix.Close(taskFD)
		return nil, fmt.Errorf("core: TimerfdCreate: %w", err)
	}

	l := &Loop{
		epollFD:  epollFD,
		taskFD:   taskFD,
		timerFD:  timerFD,
		handlers: make(map[int32]func(events uint32)),
	}
	if err := l.addFD(int32(taskFD), unix.EPOLLIN, l.drainTasks); err != nil {
		l.Close()
		return nil, err
	}
	if err := l.addFD(int32(timerFD), unix.EPOLLIN, l.drainTimer); err != nil {
		l.Close()
		return nil, err
	}
	return l, nil
}

// Close releases the loop's file descriptors. It is not safe to call
// concurrently with Run.
func (l *Loop) Close() {
	unix.Close(l.timerFD)
	unix.Close(l.taskFD)
	unix.Close(l.epollFD)
}

// RegisterFD adds fd to the epoll set, invoking handler with the
// returned event mask whenever it becomes ready. events is an EPOLLIN/
// EPOLLOUT/... mask.
func (l *Loop) RegisterFD(fd int32, events uint32, handler func(events uint32)) error {
	return l.addFD(fd, events, handler)
}

// UnregisterFD removes fd from the epoll set.
func (l *Loop) UnregisterFD(fd int32) error {
	delete(l.handlers, fd)
	if err := unix.EpollCtl(l.epollFD, unix.EPOLL_CTL_DEL, int(fd), nil); err != nil {
		return fmt.Errorf("core: EpollCtl(DEL): %w", err)
	}
	return nil
}

func (l *Loop) addFD(fd int32, events uint32, handler func(events uint32)) error {
	l.handlers[fd] = handler
	ev := unix.EpollEvent{Events: events, Fd: fd}
	if err := unix.EpollCtl(l.epollFD, unix.EPOLL_CTL_ADD, int(fd), &ev); err != nil {
		return fmt.Errorf("core: EpollCtl(ADD): %w", err)
	}
	return nil
}

// Post enqueues fn to run on the loop's goroutine and wakes the loop
// if it is currently blocked in epoll_wait. It is the off-thread
// posting primitive used by, e.g., a DMA-BUF syncobj wait goroutine
// reporting that a buffer's acquire fence has signaled.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, task{fn: fn})
	l.mu.Unlock()
	l.wake()
}

// PostAndWait enqueues fn and blocks the calling goroutine until it
// has run on the loop's goroutine.
func (l *Loop) PostAndWait(fn func()) {
	done := make(chan struct{})
	l.mu.Lock()
	l.tasks = append(l.tasks, task{fn: fn, done: done})
	l.mu.Unlock()
	l.wake()
	<-done
}

func (l *Loop) wake() {
	var buf [8]byte
	buf[7] = 1
	unix.Write(l.taskFD, buf[:])
}

// AfterFunc schedules fn to run once, after d has elapsed, on the
// loop's goroutine. cmd/compositor uses it to poll wsi.Dispatch
// periodically.
func (l *Loop) AfterFunc(d time.Duration, fn func()) {
	l.mu.Lock()
	l.timers = append(l.timers, timer{expiry: time.Now().Add(d), fn: fn})
	l.rearmTimerLocked()
	l.mu.Unlock()
}

func (l *Loop) rearmTimerLocked() {
	if len(l.timers) == 0 {
		unix.TimerfdSettime(l.timerFD, 0, &unix.ItimerSpec{}, nil)
		return
	}
	next := l.timers[0].expiry
	for _, t := range l.timers[1:] {
		if t.expiry.Before(next) {
			next = t.expiry
		}
	}
	d := time.Until(next)
	if d < 0 {
		d = 0
	}
	spec := unix.ItimerSpec{
		Value: unix.NsecToTimespec(d.Nanoseconds()),
	}
	unix.TimerfdSettime(l.timerFD, 0, &spec, nil)
}

// drainTasks runs every task enqueued via Post/PostAndWait so far.
func (l *Loop) drainTasks(uint32) {
	var buf [8]byte
	unix.Read(l.taskFD, buf[:])

	l.mu.Lock()
	pending := l.tasks
	l.tasks = nil
	l.mu.Unlock()

	for _, t := range pending {
		t.fn()
		if t.done != nil {
			close(t.done)
		}
	}
}

// drainTimer runs every timer whose expiry has passed.
func (l *Loop) drainTimer(uint32) {
	var buf [8]byte
	unix.Read(l.timerFD, buf[:])

	now := time.Now()
	l.mu.Lock()
	var ready []timer
	kept := l.timers[:0]
	for _, t := range l.timers {
		if !t.expiry.After(now) {
			ready = append(ready, t)
		} else {
			kept = append(kept, t)
		}
	}
	l.timers = kept
	l.rearmTimerLocked()
	l.mu.Unlock()

	for _, t := range ready {
		t.fn()
	}
}

// RunOnce blocks until at least one event source is ready, then
// dispatches every ready handler once. timeout follows epoll_wait
// semantics (negative blocks indefinitely).
func (l *Loop) RunOnce(timeout time.Duration) error {
	l.mu.Lock()
	stopped := l.stopped
	l.mu.Unlock()
	if stopped {
		return nil
	}

	ms := -1
	if timeout >= 0 {
		ms = int(timeout.Milliseconds())
	}
	var events [16]unix.EpollEvent
	n, err := unix.EpollWait(l.epollFD, events[:], ms)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return fmt.Errorf("core: EpollWait: %w", err)
	}
	for i := 0; i < n; i++ {
		if h, ok := l.handlers[events[i].Fd]; ok {
			h(events[i].Events)
		}
	}
	return nil
}

// Run drives the loop until Stop is called.
func (l *Loop) Run() error {
	for {
		l.mu.Lock()
		stopped := l.stopped
		l.mu.Unlock()
		if stopped {
			return nil
		}
		if err := l.RunOnce(-1); err != nil {
			return err
		}
	}
}

// Stop requests that Run return once the current iteration completes.
// It is safe to call from any goroutine.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
	l.wake()
}
