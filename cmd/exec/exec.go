// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package exec contains the subcommand that runs a single command.
package exec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matt-FFFFFF/pipewatch/internal/ctxlog"
	"github.com/matt-FFFFFF/pipewatch/internal/jobs"
	"github.com/matt-FFFFFF/pipewatch/internal/procexec"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const (
	asyncFlag         = "async"
	inputFlag         = "input"
	cwdFlag           = "cwd"
	stdoutFlag        = "stdout"
	stderrFlag        = "stderr"
	envFlag           = "env"
	ignoreRetcodeFlag = "ignore-retcode"
	rawFlag           = "raw"
	encodingFlag      = "encoding"

	// signalExitBase is added to a signal number to form the exit code, as shells do.
	signalExitBase = 128
)

var (
	// ErrNoCommand is returned when no command is given after the flags.
	ErrNoCommand = errors.New("no command given, use: pipewatch exec [flags] -- COMMAND [ARGS...]")
	// ErrReadInput is returned when the --input file cannot be read.
	ErrReadInput = errors.New("failed to read input")
	// ErrInvalidEnv is returned for an --env value without '='.
	ErrInvalidEnv = errors.New("environment variables must be given as KEY=VALUE")
)

// ExecCmd runs one command and exits with its exit code.
var ExecCmd = newExecCmd()

func newExecCmd() *cli.Command {
	return &cli.Command{
		Name:      "exec",
		Usage:     "Run a single command, logging its output line by line",
		ArgsUsage: "-- COMMAND [ARGS...]",
		Description: `Run a command with its stdout and stderr drained concurrently.
Each line is logged at debug level as it arrives. Captured output is written to
stdout and stderr once the command has finished, and pipewatch exits with the
command's exit code. A command killed by a signal exits with 128 plus the signal number.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  asyncFlag,
				Usage: "Use the cooperative launcher, which multiplexes all I/O on one goroutine",
			},
			&cli.StringFlag{
				Name:      inputFlag,
				Aliases:   []string{"i"},
				Usage:     "Write the contents of this file to the command's stdin, or '-' for our stdin",
				TakesFile: true,
			},
			&cli.StringFlag{
				Name:  cwdFlag,
				Usage: "Run the command in this directory",
			},
			&cli.StringFlag{
				Name:  stdoutFlag,
				Usage: "What to do with stdout: capture, discard or inherit",
				Value: procexec.PolicyCapture.String(),
			},
			&cli.StringFlag{
				Name:  stderrFlag,
				Usage: "What to do with stderr: capture, discard, inherit or merge (into stdout)",
				Value: procexec.PolicyCapture.String(),
			},
			&cli.StringSliceFlag{
				Name:    envFlag,
				Aliases: []string{"e"},
				Usage:   "Set an environment variable, KEY=VALUE. Specify multiple times for more.",
			},
			&cli.BoolFlag{
				Name:  ignoreRetcodeFlag,
				Usage: "Do not report a non-zero exit code",
			},
			&cli.BoolFlag{
				Name:  rawFlag,
				Usage: "Write output without decoding it",
			},
			&cli.StringFlag{
				Name:  encodingFlag,
				Usage: "Text encoding of the command's output, e.g. windows-1252 or shift_jis",
				Value: "utf-8",
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	c, err := definitionFromFlags(cmd)
	if err != nil {
		logger.Error(err.Error())
		return cli.Exit("", 2)
	}

	cfg, err := c.Config()
	if err != nil {
		logger.Error("invalid command", "error", err)
		return cli.Exit("", 2)
	}

	launcher := procexec.New(ctxlog.Logger(ctx))

	launch := launcher.Execute
	if cmd.Bool(asyncFlag) {
		launch = launcher.ExecuteCooperative
	}

	res, err := launch(ctx, cfg)
	if err != nil {
		logger.Error("launch failed", "error", err)
		return cli.Exit("", 1)
	}

	root := cmd.Root()
	writeOutput(logger.Warn, root.Writer, "stdout", res.Stdout, res.RawStdout())
	writeOutput(logger.Warn, root.ErrWriter, "stderr", res.Stderr, res.RawStderr())

	if code := exitCode(res.ExitCode); code != 0 {
		return cli.Exit("", code)
	}

	return nil
}

// definitionFromFlags builds the same definition a job file would contain.
func definitionFromFlags(cmd *cli.Command) (jobs.Command, error) {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return jobs.Command{}, ErrNoCommand
	}

	c := jobs.Command{
		Name:          args[0],
		Args:          args,
		Cwd:           cmd.String(cwdFlag),
		Stdout:        cmd.String(stdoutFlag),
		Stderr:        cmd.String(stderrFlag),
		IgnoreRetcode: cmd.Bool(ignoreRetcodeFlag),
		RawOutput:     cmd.Bool(rawFlag),
		Encoding:      cmd.String(encodingFlag),
	}

	if vars := cmd.StringSlice(envFlag); len(vars) > 0 {
		c.Env = make(map[string]string, len(vars))

		for _, kv := range vars {
			k, v, ok := strings.Cut(kv, "=")
			if !ok || k == "" {
				return jobs.Command{}, fmt.Errorf("%w: %q", ErrInvalidEnv, kv)
			}

			c.Env[k] = v
		}
	}

	if path := cmd.String(inputFlag); path != "" {
		input, err := readInput(cmd.Root().Reader, path)
		if err != nil {
			return jobs.Command{}, err
		}

		c.Input = &input
	}

	return c, nil
}

func readInput(stdin io.Reader, path string) (string, error) {
	var (
		b   []byte
		err error
	)

	if path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}

		b, err = io.ReadAll(stdin)
	} else {
		b, err = afero.ReadFile(jobs.FsFactory(), path)
	}

	if err != nil {
		return "", errors.Join(ErrReadInput, err)
	}

	return string(b), nil
}

// writeOutput writes the text view of the output, falling back to the raw bytes when it cannot be decoded.
func writeOutput(warn func(string, ...any), w io.Writer, stream string, view func() (string, error), raw []byte) {
	if len(raw) == 0 || w == nil {
		return
	}

	s, err := view()
	if err != nil {
		warn("writing undecodable output as raw bytes", "output", stream, "error", err)

		s = string(raw)
	}

	_, _ = io.WriteString(w, s)
}

// exitCode maps a Result exit code to a process exit code.
func exitCode(code int) int {
	if code < 0 {
		return signalExitBase - code
	}

	return code
}
