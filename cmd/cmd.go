// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmd contains the command-line interface (CLI) for the module.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/pipewatch/cmd/exec"
	"github.com/matt-FFFFFF/pipewatch/cmd/run"
	"github.com/matt-FFFFFF/pipewatch/cmd/version"
	"github.com/matt-FFFFFF/pipewatch/internal/buildinfo"
	"github.com/matt-FFFFFF/pipewatch/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

const (
	logLevelFlag  = "log-level"
	logFormatFlag = "log-format"
)

// RootCmd is the root command for the CLI.
var RootCmd = &cli.Command{
	Commands: []*cli.Command{
		exec.ExecCmd,
		run.RunCmd,
		version.VersionCmd,
	},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    logLevelFlag,
			Aliases: []string{"l"},
			Usage: "Set the log level (debug, info, warn, error). " +
				"Overrides the " + ctxlog.LogLevelEnvVar + " environment variable. " +
				"At debug every line of output is logged as it arrives.",
		},
		&cli.StringFlag{
			Name:  logFormatFlag,
			Usage: "Set the log format, pretty or json",
			Value: "pretty",
			Validator: func(s string) error {
				if s != "pretty" && s != "json" {
					return fmt.Errorf("invalid log format %q, expected pretty or json", s)
				}

				return nil
			},
		},
	},
	Before:    before,
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "pipewatch",
	Version:   fmt.Sprintf("%s (commit: %s)", buildinfo.Version, buildinfo.Commit),
	Description: `pipewatch runs external commands, drains their stdout and stderr concurrently,
logs each line as it arrives and reports commands that exit with a non-zero code.
Single commands are run with 'exec'. Batches described in YAML or HCL job files are run with 'run'.`,
	Usage:     "pipewatch exec -- make test",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}

func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if lvl := cmd.String(logLevelFlag); lvl != "" {
		ctxlog.LevelVar.Set(ctxlog.ParseLevel(lvl, ctxlog.LevelVar.Level()))
	}

	if cmd.String(logFormatFlag) == "json" {
		ctx = ctxlog.New(ctx, ctxlog.JSONLogger)
	}

	return ctx, nil
}
