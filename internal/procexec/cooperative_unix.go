// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build linux || darwin || freebsd

package procexec

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"syscall"

	"github.com/matt-FFFFFF/pipewatch/internal/coop"
	"github.com/matt-FFFFFF/pipewatch/internal/linetee"
	"golang.org/x/sys/unix"
)

const readChunkSize = 32 * 1024

// ExecuteCooperative has the same contract as Execute, but runs the input write, the drains and
// the wait for exit as tasks on the calling goroutine. Each task suspends until its descriptor
// is ready, so a slow reader or writer never blocks the others.
//
// If the context ends first the child is killed, every descriptor is closed and the child is
// reaped before ErrCancelled is returned.
func (l *Launcher) ExecuteCooperative(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := l.log(ctx)
	logger.DebugContext(ctx, "executing", "command", QuoteCommand(cfg.Args), "mode", "cooperative")

	path, err := exec.LookPath(cfg.Args[0])
	if err != nil {
		return nil, errors.Join(ErrSpawn, err)
	}

	fds := &fdSet{}
	defer fds.closeAll()

	rs, err := newRawStdio(cfg, fds)
	if err != nil {
		return nil, err
	}

	env := cfg.Env
	if env == nil {
		env = os.Environ()
	}

	pid, err := syscall.ForkExec(path, cfg.Args, &syscall.ProcAttr{
		Dir:   cfg.Dir,
		Env:   env,
		Files: []uintptr{uintptr(rs.child[0]), uintptr(rs.child[1]), uintptr(rs.child[2])},
		Sys:   cfg.SysProcAttr,
	})

	for _, fd := range rs.owned {
		fds.close(fd)
	}

	if err != nil {
		return nil, errors.Join(ErrSpawn, err)
	}

	logger.DebugContext(ctx, "process started", "pid", pid)

	exit := &exitTask{pid: pid}

	// Until the exit task has reaped the child, every way out of here must kill and reap it.
	defer func() {
		if exit.reaped {
			return
		}

		logger.DebugContext(ctx, "killing process", "pid", pid)

		if err := unix.Kill(pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
			logger.ErrorContext(ctx, "process kill error", "pid", pid, "error", err)
		}

		fds.closeAll()
		exit.reap()
	}()

	tasks := make([]coop.Task, 0, 4)

	var outTask, errTask *drainTask

	if rs.stdout >= 0 {
		outTask = newDrainTask(rs.stdout, fds, lineLogger(ctx, logger, cfg.stdoutClass()))
		tasks = append(tasks, outTask)
	}

	if rs.stderr >= 0 {
		errTask = newDrainTask(rs.stderr, fds, lineLogger(ctx, logger, StreamStderr))
		tasks = append(tasks, errTask)
	}

	if rs.stdin >= 0 {
		tasks = append(tasks, &writeTask{
			fd:   rs.stdin,
			data: cfg.Input,
			fds:  fds,
			onFail: func() {
				_ = unix.Kill(pid, unix.SIGKILL)
			},
		})
	}

	tasks = append(tasks, exit)

	if err := (coop.Loop{}).Run(ctx, tasks...); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Join(ErrCancelled, context.Cause(ctx))
		}

		return nil, err
	}

	var outBytes, errBytes []byte
	if outTask != nil {
		outBytes = outTask.tee.Bytes()
	}

	if errTask != nil {
		errBytes = errTask.tee.Bytes()
	}

	res := NewResult(cfg, exit.code(), outBytes, errBytes)
	logger.DebugContext(ctx, "process finished", "pid", pid, "exitCode", res.ExitCode)

	Report(ctx, logger, cfg.Args, cfg.IgnoreRetcode, res)

	return res, nil
}

// fdSet tracks descriptors opened for one launch so each is closed exactly once.
type fdSet struct {
	open []int
}

func (s *fdSet) add(fd int) {
	s.open = append(s.open, fd)
}

func (s *fdSet) close(fd int) {
	for i, o := range s.open {
		if o == fd {
			_ = unix.Close(fd)
			s.open = append(s.open[:i], s.open[i+1:]...)

			return
		}
	}
}

func (s *fdSet) closeAll() {
	for _, fd := range s.open {
		_ = unix.Close(fd)
	}

	s.open = nil
}

// pipe creates a close-on-exec pipe. The fork lock stops a concurrent fork from
// inheriting the descriptors before the flag is set.
func (s *fdSet) pipe() (r, w int, err error) {
	var p [2]int

	syscall.ForkLock.RLock()

	err = unix.Pipe(p[:])
	if err == nil {
		unix.CloseOnExec(p[0])
		unix.CloseOnExec(p[1])
	}

	syscall.ForkLock.RUnlock()

	if err != nil {
		return -1, -1, errors.Join(ErrFailedToCreatePipe, err)
	}

	s.add(p[0])
	s.add(p[1])

	return p[0], p[1], nil
}

func (s *fdSet) devNull() (int, error) {
	fd, err := unix.Open(os.DevNull, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, errors.Join(ErrSpawn, err)
	}

	s.add(fd)

	return fd, nil
}

// rawStdio is the descriptor-level counterpart of stdio.
type rawStdio struct {
	child  [3]int
	owned  []int
	stdin  int
	stdout int
	stderr int
}

func newRawStdio(cfg Config, fds *fdSet) (*rawStdio, error) {
	rs := &rawStdio{child: [3]int{0, 1, 2}, stdin: -1, stdout: -1, stderr: -1}

	if cfg.Input != nil {
		r, w, err := fds.pipe()
		if err != nil {
			return nil, err
		}

		rs.child[0], rs.stdin = r, w
		rs.owned = append(rs.owned, r)
	}

	switch cfg.Stdout {
	case PolicyCapture:
		r, w, err := fds.pipe()
		if err != nil {
			return nil, err
		}

		rs.child[1], rs.stdout = w, r
		rs.owned = append(rs.owned, w)
	case PolicyDiscard:
		fd, err := fds.devNull()
		if err != nil {
			return nil, err
		}

		rs.child[1] = fd
		rs.owned = append(rs.owned, fd)
	case PolicyInherit, PolicyMerge:
	}

	switch cfg.Stderr {
	case PolicyCapture:
		r, w, err := fds.pipe()
		if err != nil {
			return nil, err
		}

		rs.child[2], rs.stderr = w, r
		rs.owned = append(rs.owned, w)
	case PolicyDiscard:
		fd, err := fds.devNull()
		if err != nil {
			return nil, err
		}

		rs.child[2] = fd
		rs.owned = append(rs.owned, fd)
	case PolicyMerge:
		rs.child[2] = rs.child[1]
	case PolicyInherit:
	}

	for _, fd := range []int{rs.stdin, rs.stdout, rs.stderr} {
		if fd < 0 {
			continue
		}

		if err := unix.SetNonblock(fd, true); err != nil {
			return nil, errors.Join(ErrFailedToCreatePipe, err)
		}
	}

	return rs, nil
}

// drainTask reads a pipe into a LineTee until end of file.
type drainTask struct {
	fd  int
	fds *fdSet
	tee *linetee.LineTee
	buf []byte
}

func newDrainTask(fd int, fds *fdSet, emit linetee.LineFunc) *drainTask {
	return &drainTask{
		fd:  fd,
		fds: fds,
		tee: linetee.New(emit),
		buf: make([]byte, readChunkSize),
	}
}

func (t *drainTask) Suspend() (int, coop.Wait) {
	return t.fd, coop.WaitReadable
}

// Resume reads one chunk, so a busy stream cannot starve its sibling.
func (t *drainTask) Resume() (bool, error) {
	for {
		n, err := unix.Read(t.fd, t.buf)

		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return false, nil
		case err != nil:
			t.tee.Flush()
			t.fds.close(t.fd)

			return true, errors.Join(linetee.ErrFailedToReadStream, err)
		case n == 0:
			t.tee.Flush()
			t.fds.close(t.fd)

			return true, nil
		}

		_, _ = t.tee.Write(t.buf[:n])

		return false, nil
	}
}

// writeTask writes the input and then closes the pipe, so the child sees end of file.
type writeTask struct {
	fd     int
	data   []byte
	fds    *fdSet
	onFail func()
}

func (t *writeTask) Suspend() (int, coop.Wait) {
	return t.fd, coop.WaitWritable
}

func (t *writeTask) Resume() (bool, error) {
	for len(t.data) > 0 {
		n, err := unix.Write(t.fd, t.data)

		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return false, nil
		case err != nil:
			t.fds.close(t.fd)
			t.onFail()

			return true, errors.Join(ErrInputWrite, err)
		}

		t.data = t.data[n:]
	}

	t.fds.close(t.fd)

	return true, nil
}

// exitTask polls for the exit of the child without blocking.
type exitTask struct {
	pid    int
	status unix.WaitStatus
	reaped bool
}

func (t *exitTask) Suspend() (int, coop.Wait) {
	return -1, coop.WaitTick
}

func (t *exitTask) Resume() (bool, error) {
	for {
		wpid, err := unix.Wait4(t.pid, &t.status, unix.WNOHANG, nil)

		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			t.reaped = true

			return true, errors.Join(ErrWait, err)
		case wpid == t.pid:
			t.reaped = true

			return true, nil
		}

		return false, nil
	}
}

// reap blocks until the child has exited. Only used after the child has been killed.
func (t *exitTask) reap() {
	for {
		_, err := unix.Wait4(t.pid, &t.status, 0, nil)
		if !errors.Is(err, unix.EINTR) {
			t.reaped = true

			return
		}
	}
}

func (t *exitTask) code() int {
	if t.status.Signaled() {
		return -int(t.status.Signal())
	}

	return t.status.ExitStatus()
}

var (
	_ coop.Task = (*drainTask)(nil)
	_ coop.Task = (*writeTask)(nil)
	_ coop.Task = (*exitTask)(nil)
)
