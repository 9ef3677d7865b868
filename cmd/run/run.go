// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run contains the subcommand that runs job files.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-getter/v2"
	"github.com/matt-FFFFFF/pipewatch/internal/ctxlog"
	"github.com/matt-FFFFFF/pipewatch/internal/jobs"
	"github.com/matt-FFFFFF/pipewatch/internal/tui"
	"github.com/urfave/cli/v3"
)

const (
	fileFlag                 = "file"
	outFlag                  = "out"
	noOutputStdErrFlag       = "no-output-stderr"
	outputStdOutFlag         = "output-stdout"
	outputSuccessDetailsFlag = "output-success-details"
	parallelismFlag          = "parallelism"
	cooperativeFlag          = "cooperative"
	tuiFlag                  = "tui"
	cliExitStr               = ""
)

var (
	// ErrGetConfigFile is returned when the file cannot be read.
	ErrGetConfigFile = errors.New("failed to get job file")
)

// RunCmd is the command that runs the commands defined in one or more job files.
var RunCmd = newRunCmd()

func newRunCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the commands defined in YAML or HCL job files",
		Description: `Run the commands defined in one or more job files and print a summary.
Files are run one after another. Within a file, commands run up to the file's parallelism.

Job file URLs use Hashicorp's go-getter syntax, which allows for fetching files from various sources.
See https://github.com/hashicorp/go-getter.

The exit code is 1 if any command could not be launched or exited non-zero without ignore_retcode.
`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    fileFlag,
				Aliases: []string{"f"},
				Usage: "Specify the URL of a job file to run. " +
					"Supports Hashicorp's go-getter syntax for fetching files from various sources. " +
					"Specify multiple times to run multiple files.",
			},
			&cli.StringFlag{
				Name:      outFlag,
				Usage:     "Write a YAML report of every command to this file",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.BoolFlag{
				Name:    outputSuccessDetailsFlag,
				Aliases: []string{"success"},
				Usage:   "Include successful results in the output",
			},
			&cli.BoolFlag{
				Name:    noOutputStdErrFlag,
				Aliases: []string{"no-stderr"},
				Usage:   "Exclude stderr output in the results",
			},
			&cli.BoolFlag{
				Name:    outputStdOutFlag,
				Aliases: []string{"stdout"},
				Usage:   "Include stdout output in the results",
			},
			&cli.IntFlag{
				Name:    parallelismFlag,
				Aliases: []string{"p"},
				Usage:   "Override the maximum number of concurrent commands set in each job file",
			},
			&cli.BoolFlag{
				Name:  cooperativeFlag,
				Usage: "Use the cooperative launcher for every job file",
			},
			&cli.BoolFlag{
				Name:  tuiFlag,
				Usage: "Show the status of each command in an interactive view while the files run",
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("Running run command")

	urls := cmd.StringSlice(fileFlag)
	if len(urls) == 0 {
		logger.Error("Please specify at least one URL for the job file using the --file or -f flag.")
		return cli.Exit(cliExitStr, 1)
	}

	files := make([]*jobs.File, 0, len(urls))

	for i, u := range urls {
		if u == "" {
			logger.Error(fmt.Sprintf("The URL at index %d is empty. Please provide a valid URL.", i))
			return cli.Exit(cliExitStr, 1)
		}

		name, data, err := getURL(ctx, u)
		if err != nil {
			logger.Error(err.Error())
			return cli.Exit(cliExitStr, 1)
		}

		f, err := jobs.Parse(name, data)
		if err == nil {
			err = f.Validate()
		}

		if err != nil {
			logger.Error(fmt.Sprintf("Failed to load job file %s: %s", u, err.Error()))
			return cli.Exit(cliExitStr, 1)
		}

		if p := cmd.Int(parallelismFlag); p > 0 {
			f.Parallelism = p
		}

		if cmd.Bool(cooperativeFlag) {
			f.Cooperative = true
		}

		files = append(files, f)
	}

	opts := jobs.DefaultSummaryOptions()
	opts.IncludeStderr = !cmd.Bool(noOutputStdErrFlag)
	opts.IncludeStdout = cmd.Bool(outputStdOutFlag)
	opts.ShowSuccessDetails = cmd.Bool(outputSuccessDetailsFlag)

	var (
		results [][]jobs.Outcome
		runErr  error
	)

	if cmd.Bool(tuiFlag) {
		results, runErr = runWithTUI(ctx, cmd, files)
	} else {
		results, runErr = runFiles(ctx, files)
	}

	if runErr != nil {
		logger.Error(runErr.Error())
		return cli.Exit(cliExitStr, 1)
	}

	reports := make([]jobs.Report, 0, len(files))
	failed := false

	for i, f := range files {
		outcomes := results[i]

		if err := jobs.WriteSummary(cmd.Root().Writer, f.Name, outcomes, opts); err != nil {
			logger.Error(fmt.Sprintf("Failed to write results: %s", err.Error()))
			return cli.Exit(cliExitStr, 1)
		}

		failed = failed || jobs.AnyFailed(outcomes)
		reports = append(reports, jobs.NewReport(f.Name, outcomes))
	}

	if outFileName := cmd.String(outFlag); outFileName != "" {
		if err := writeReport(outFileName, reports); err != nil {
			logger.Error(fmt.Sprintf("Failed to write results to file %s: %s", outFileName, err.Error()))
			return cli.Exit(cliExitStr, 1)
		}

		logger.Info(fmt.Sprintf("Results written to %s", outFileName))
	}

	if failed {
		logger.Error("Some commands failed. See above for details.")
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

// runFiles runs the files one after another. opts are applied to every file.
func runFiles(ctx context.Context, files []*jobs.File, opts ...jobs.RunOption) ([][]jobs.Outcome, error) {
	results := make([][]jobs.Outcome, 0, len(files))

	for _, f := range files {
		outcomes, err := jobs.Run(ctx, f, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to run job %s: %w", f.Name, err)
		}

		results = append(results, outcomes)
	}

	return results, nil
}

// runWithTUI runs the files behind the status view. Log records are held back while the
// view owns the terminal and written to the error writer afterwards.
func runWithTUI(ctx context.Context, cmd *cli.Command, files []*jobs.File) ([][]jobs.Outcome, error) {
	logger := ctxlog.Logger(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var logBuf bytes.Buffer

	ctx = ctxlog.New(ctx, slog.New(ctxlog.NewPrettyHandler(
		&slog.HandlerOptions{Level: ctxlog.LevelVar},
		ctxlog.WithDestinationWriter(&logBuf),
		ctxlog.WithAutoColour(),
	)))

	runner := tui.NewRunner(ctx, cancel,
		tea.WithInput(cmd.Root().Reader),
		tea.WithOutput(cmd.Root().Writer),
	)

	var (
		results [][]jobs.Outcome
		err     error
	)

	tuiErr := runner.Run(func(report jobs.StatusFunc) {
		results, err = runFiles(ctx, files, jobs.WithStatus(report))
	})

	if logBuf.Len() > 0 && cmd.Root().ErrWriter != nil {
		_, _ = cmd.Root().ErrWriter.Write(logBuf.Bytes())
	}

	if tuiErr != nil {
		logger.Warn(fmt.Sprintf("Status view failed: %s", tuiErr.Error()))
	}

	return results, err
}

func writeReport(name string, reports []jobs.Report) error {
	f, err := jobs.FsFactory().Create(name)
	if err != nil {
		return err
	}

	if err := jobs.WriteReports(f, reports); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// getURL retrieves the content from the specified URL using Hashicorp's go-getter.
// It returns the file name, used to select the parser, and the content.
// The temporary download directory is removed before returning.
func getURL(ctx context.Context, url string) (string, []byte, error) {
	if url == "" {
		return "", nil, ErrGetConfigFile
	}

	tmpDir, err := os.MkdirTemp("", "pipewatch-getter-*")
	if err != nil {
		return "", nil, errors.Join(ErrGetConfigFile, err)
	}

	defer os.RemoveAll(tmpDir) //nolint:errcheck

	wd, err := os.Getwd()
	if err != nil {
		return "", nil, errors.Join(ErrGetConfigFile, err)
	}

	client := getter.Client{
		DisableSymlinks: true,
	}

	req := &getter.Request{
		Src:     url,
		Dst:     filepath.Join(tmpDir, "g"),
		Pwd:     wd,
		GetMode: getter.ModeDir,
	}

	var fileName string
	// If it's not a local file URL, we need to download the directory and read the file from there
	// https://github.com/hashicorp/go-getter/issues/98
	if ok, err := getter.Detect(req, &getter.FileGetter{}); !ok || err != nil {
		if err != nil {
			return "", nil, errors.Join(ErrGetConfigFile, err)
		}

		var newURL string

		newURL, fileName = splitFileNameFromGetterURL(url)
		if newURL == "" || fileName == "" {
			return "", nil, fmt.Errorf("%w: invalid URL format: %s", ErrGetConfigFile, url)
		}

		req.Src = newURL
	}

	if fileName == "" {
		req.Src = filepath.Dir(url)
		fileName = filepath.Base(url)
	}

	res, err := client.Get(ctx, req)
	if err != nil {
		return "", nil, errors.Join(ErrGetConfigFile, err)
	}

	data, err := os.ReadFile(filepath.Join(res.Dst, fileName))
	if err != nil {
		return "", nil, errors.Join(ErrGetConfigFile, err)
	}

	return fileName, data, nil
}

const (
	goGetterPathSeparator = "//"
	goGetterRefSeparator  = "?"
	minimumGetterParts    = 3 // scheme, host and path
)

// splitFileNameFromGetterURL splits the URL into the directory and file name.
// It returns the new getter URL without the file name and the file name itself.
// Any ref query parameter is kept on the new URL.
func splitFileNameFromGetterURL(url string) (string, string) {
	var ref string

	parts := strings.Split(url, goGetterPathSeparator)
	if len(parts) < minimumGetterParts {
		return "", ""
	}

	last := parts[len(parts)-1]

	if before, after, found := strings.Cut(last, goGetterRefSeparator); found {
		ref = after
		last = before
	}

	if filepath.Clean(last) == filepath.Dir(last) {
		return "", ""
	}

	fileName := filepath.Base(last)
	parts[len(parts)-1] = filepath.Dir(last)

	if parts[len(parts)-1] == "." {
		parts = parts[:len(parts)-1]
	}

	newURL := strings.Join(parts, goGetterPathSeparator)

	if ref != "" {
		newURL += goGetterRefSeparator + ref
	}

	return newURL, fileName
}
