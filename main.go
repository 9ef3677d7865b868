// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main is the entry point for the pipewatch command-line application.
package main

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/pipewatch/cmd"
	"github.com/matt-FFFFFF/pipewatch/internal/ctxlog"
	"github.com/matt-FFFFFF/pipewatch/internal/signalbroker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	broker := signalbroker.New(ctx)

	go broker.Watch(ctx, cancel)

	// Exit codes carried by cli.Exit are handled inside Run.
	err := cmd.RootCmd.Run(ctx, os.Args)
	if err != nil {
		ctxlog.Logger(ctx).Error("command failed", "error", err)
		cancel()
		os.Exit(1) //nolint:gocritic
	}
}
