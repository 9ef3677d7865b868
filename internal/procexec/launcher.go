// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package procexec

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/matt-FFFFFF/pipewatch/internal/ctxlog"
	"github.com/matt-FFFFFF/pipewatch/internal/linetee"
	"golang.org/x/sync/errgroup"
)

// Launcher starts processes and reports their results. The zero value logs to the logger
// carried by the context.
type Launcher struct {
	logger *slog.Logger
}

// New returns a Launcher that logs to logger. A nil logger uses the logger from the context.
func New(logger *slog.Logger) *Launcher {
	return &Launcher{logger: logger}
}

// Execute runs the command described by cfg with the default Launcher.
func Execute(ctx context.Context, cfg Config) (*Result, error) {
	return New(nil).Execute(ctx, cfg)
}

// ExecuteCooperative runs the command described by cfg with the default Launcher.
func ExecuteCooperative(ctx context.Context, cfg Config) (*Result, error) {
	return New(nil).ExecuteCooperative(ctx, cfg)
}

func (l *Launcher) log(ctx context.Context) *slog.Logger {
	if l != nil && l.logger != nil {
		return l.logger
	}

	return ctxlog.Logger(ctx)
}

// Execute starts the process, writes the input, drains the captured streams on separate
// goroutines and blocks until the child has exited and both streams are at end of file.
//
// Each captured line is logged at debug level as it arrives. A non-zero exit code is reported
// through Report unless cfg.IgnoreRetcode is set.
func (l *Launcher) Execute(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := l.log(ctx)
	logger.DebugContext(ctx, "executing", "command", QuoteCommand(cfg.Args))

	path, err := exec.LookPath(cfg.Args[0])
	if err != nil {
		return nil, errors.Join(ErrSpawn, err)
	}

	s, err := newStdio(cfg)
	if err != nil {
		return nil, err
	}
	defer s.closeParent()

	env := cfg.Env
	if env == nil {
		env = os.Environ()
	}

	ps, err := os.StartProcess(path, cfg.Args, &os.ProcAttr{
		Dir:   cfg.Dir,
		Env:   env,
		Files: s.child[:],
		Sys:   cfg.SysProcAttr,
	})

	s.closeChild()

	if err != nil {
		return nil, errors.Join(ErrSpawn, err)
	}

	logger.DebugContext(ctx, "process started", "pid", ps.Pid)

	var guard cancelGuard

	done := make(chan struct{})
	watchdogDone := make(chan struct{})

	// The watchdog kills the child and closes our pipe ends when the context ends,
	// which unblocks the input write and both drains.
	go func() {
		defer close(watchdogDone)

		select {
		case <-ctx.Done():
			guard.trip(func() {
				logger.DebugContext(ctx, "context done, killing process", "pid", ps.Pid)
				killPs(ctx, logger, ps)
				s.closeParent()
			})
		case <-done:
		}
	}()

	var (
		eg        errgroup.Group
		outBytes  []byte
		errBytes  []byte
		inputErr  error
		outStream = s.stdout
		errStream = s.stderr
	)

	// Drains start before the input is written, so a child that echoes its input
	// cannot fill a pipe and block while we are still writing.
	if outStream != nil {
		emit := lineLogger(ctx, logger, cfg.stdoutClass())

		eg.Go(func() error {
			b, err := linetee.Drain(outStream, emit)
			outBytes = b

			return err
		})
	}

	if errStream != nil {
		emit := lineLogger(ctx, logger, StreamStderr)

		eg.Go(func() error {
			b, err := linetee.Drain(errStream, emit)
			errBytes = b

			return err
		})
	}

	if s.stdin != nil {
		_, err := s.stdin.Write(cfg.Input)
		if cerr := s.stdin.Close(); err == nil && !errors.Is(cerr, os.ErrClosed) {
			err = cerr
		}

		if err != nil && !guard.tripped() {
			inputErr = errors.Join(ErrInputWrite, err)

			logger.DebugContext(ctx, "input write failed, killing process", "error", err)
			killPs(ctx, logger, ps)
		}
	}

	state, waitErr := ps.Wait()
	drainErr := eg.Wait()

	// A context that ends from here on no longer affects the outcome.
	cancelled := guard.finish()

	close(done)
	<-watchdogDone

	if cancelled {
		return nil, errors.Join(ErrCancelled, context.Cause(ctx))
	}

	if inputErr != nil {
		return nil, inputErr
	}

	if waitErr != nil {
		return nil, errors.Join(ErrWait, waitErr)
	}

	if drainErr != nil {
		return nil, drainErr
	}

	res := NewResult(cfg, exitCode(state), outBytes, errBytes)
	logger.DebugContext(ctx, "process finished", "pid", ps.Pid, "exitCode", res.ExitCode)

	Report(ctx, logger, cfg.Args, cfg.IgnoreRetcode, res)

	return res, nil
}

// lineLogger returns the function that logs each captured line, or nil when debug logging is off.
func lineLogger(ctx context.Context, logger *slog.Logger, class StreamClass) linetee.LineFunc {
	if !logger.Enabled(ctx, slog.LevelDebug) {
		return nil
	}

	stream := class.String()

	return func(line string) {
		logger.DebugContext(ctx, "output", ctxlog.StreamKey, stream, ctxlog.LineKey, line)
	}
}

// cancelGuard decides, once, whether a launch was cancelled. The watchdog may only trip it
// while the launch is still running; after finish the outcome stands.
type cancelGuard struct {
	mu        sync.Mutex
	finished  bool
	cancelled atomic.Bool
}

// trip marks the launch cancelled and runs kill, unless finish has already been called.
func (g *cancelGuard) trip(kill func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.finished {
		return false
	}

	g.cancelled.Store(true)
	kill()

	return true
}

func (g *cancelGuard) tripped() bool {
	return g.cancelled.Load()
}

// finish closes the guard and reports whether it was tripped first.
func (g *cancelGuard) finish() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.finished = true

	return g.cancelled.Load()
}

// exitCode returns the exit status, or the negated signal number if the child was killed by a signal.
func exitCode(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return -int(ws.Signal())
	}

	return state.ExitCode()
}

// killPs kills the process. A process that has already finished is not an error.
func killPs(ctx context.Context, logger *slog.Logger, ps *os.Process) {
	if err := ps.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			logger.DebugContext(ctx, "process already done", "pid", ps.Pid)
			return
		}

		logger.ErrorContext(ctx, "process kill error", "pid", ps.Pid, "error", err)

		return
	}

	logger.DebugContext(ctx, "process killed", "pid", ps.Pid)
}
