// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build linux || darwin || freebsd

package coop

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultTick is the longest the loop sleeps while a tick task is pending or the context
// can be cancelled.
const DefaultTick = 10 * time.Millisecond

// ErrPoll is returned when poll(2) fails.
var ErrPoll = errors.New("failed to poll file descriptors")

// Wait is the readiness condition a task is suspended on.
type Wait int

const (
	// WaitReadable resumes the task when its descriptor has data, has hung up or is in error.
	WaitReadable Wait = iota
	// WaitWritable resumes the task when its descriptor accepts a write.
	WaitWritable
	// WaitTick resumes the task on every iteration of the loop.
	WaitTick
)

// Task is a unit of work that runs until it would block.
type Task interface {
	// Suspend returns the descriptor and condition the task waits on.
	// The descriptor is ignored for WaitTick.
	Suspend() (fd int, wait Wait)
	// Resume runs the task until it would block. It returns done once the task has finished.
	// A task that returns an error is finished.
	Resume() (done bool, err error)
}

// Loop multiplexes tasks on a single goroutine.
type Loop struct {
	// Tick bounds each poll while a tick task is pending or the context can be cancelled.
	// Zero means DefaultTick.
	Tick time.Duration
}

// Run resumes tasks as they become ready until all of them have finished, and returns
// their errors joined. A failing task does not stop the others.
//
// The context is checked on every iteration. If it ends first Run returns its error at once,
// leaving the remaining tasks unfinished. Releasing their resources is the caller's job.
func (l Loop) Run(ctx context.Context, tasks ...Task) error {
	tick := l.Tick
	if tick <= 0 {
		tick = DefaultTick
	}

	pending := make([]Task, 0, len(tasks))
	pending = append(pending, tasks...)

	var (
		errs   []error
		fds    []unix.PollFd
		polled []int
		ready  []int
	)

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}

		fds, polled, ready = fds[:0], polled[:0], ready[:0]
		ticking := false

		for i, t := range pending {
			fd, w := t.Suspend()
			switch w {
			case WaitReadable:
				fds = append(fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
				polled = append(polled, i)
			case WaitWritable:
				fds = append(fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLOUT})
				polled = append(polled, i)
			case WaitTick:
				ticking = true

				ready = append(ready, i)
			}
		}

		timeout := -1
		if ticking || ctx.Done() != nil {
			timeout = int(tick / time.Millisecond)
		}

		if _, err := unix.Poll(fds, timeout); err != nil && !errors.Is(err, unix.EINTR) {
			return errors.Join(append(errs, ErrPoll, err)...)
		}

		for j, i := range polled {
			if fds[j].Revents != 0 {
				ready = append(ready, i)
			}
		}

		finished := make([]bool, len(pending))
		anyFinished := false

		for _, i := range ready {
			done, err := pending[i].Resume()
			if err != nil {
				errs = append(errs, err)
				done = true
			}

			if done {
				finished[i] = true
				anyFinished = true
			}
		}

		if !anyFinished {
			continue
		}

		next := pending[:0]

		for i, t := range pending {
			if !finished[i] {
				next = append(next, t)
			}
		}

		pending = next
	}

	return errors.Join(errs...)
}
