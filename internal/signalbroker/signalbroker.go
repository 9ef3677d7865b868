// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker listens for the OS signals that ask pipewatch to stop.
// By default these are SIGINT, SIGTERM and SIGQUIT.
//
// Signals are not forwarded to child processes. A terminal interrupt already reaches every
// process in the foreground group, so the first signal of a kind is left for the children to
// act on. Broker.Watch cancels the root context on the second, which makes the launchers kill
// and reap whatever is still running.
package signalbroker

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/matt-FFFFFF/pipewatch/internal/ctxlog"
)

var termSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGQUIT,
}

// Broker relays termination signals received by pipewatch.
type Broker struct {
	// C receives the signals. It is never closed.
	C      chan os.Signal
	logger *slog.Logger
}

// New starts relaying sigs, or the termination signals if none are given, to a new Broker.
// The broker logs through the context logger, tagged with the pid of pipewatch.
func New(ctx context.Context, sigs ...os.Signal) *Broker {
	if len(sigs) == 0 {
		sigs = termSignals
	}

	b := newBroker(make(chan os.Signal, 1), ctxlog.Logger(ctx))
	b.logger.DebugContext(ctx, "listening for signals", "signals", signalNames(sigs))

	signal.Notify(b.C, sigs...)

	return b
}

func newBroker(ch chan os.Signal, logger *slog.Logger) *Broker {
	return &Broker{
		C:      ch,
		logger: logger.With("pid", os.Getpid()),
	}
}

// Stop ends delivery to C.
func (b *Broker) Stop() {
	signal.Stop(b.C)
}

func signalNames(sigs []os.Signal) []string {
	names := make([]string, len(sigs))
	for i, s := range sigs {
		names[i] = s.String()
	}

	return names
}
