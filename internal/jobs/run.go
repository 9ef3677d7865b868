// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/matt-FFFFFF/pipewatch/internal/ctxlog"
	"github.com/matt-FFFFFF/pipewatch/internal/procexec"
	"golang.org/x/sync/errgroup"
)

// Outcome is what happened to one command.
type Outcome struct {
	Name          string
	Args          []string
	IgnoreRetcode bool
	Result        *procexec.Result // nil when Err is set
	Err           error
	Duration      time.Duration
}

// Failed reports whether the launch failed or the command exited non-zero without IgnoreRetcode.
func (o Outcome) Failed() bool {
	if o.Err != nil {
		return true
	}

	return o.Result != nil && o.Result.ExitCode != 0 && !o.IgnoreRetcode
}

// Run launches every command in the file, at most Parallelism at a time,
// and returns their outcomes in file order. A failing command does not stop the others.
// The returned error is only set when the file is invalid.
func Run(ctx context.Context, f *File, opts ...RunOption) ([]Outcome, error) {
	cfgs, err := f.Configs()
	if err != nil {
		return nil, err
	}

	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	for i, c := range f.Commands {
		o.report(StepStatus{Job: f.Name, Index: i, Name: c.Name, State: StepPending})
	}

	logger := ctxlog.Logger(ctx).With("job", f.Name)

	limit := f.Parallelism
	if limit < 1 {
		limit = 1
	}

	outcomes := make([]Outcome, len(cfgs))

	var eg errgroup.Group

	eg.SetLimit(limit)

	for i, cfg := range cfgs {
		name := f.Commands[i].Name

		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = Outcome{Name: name, Args: cfg.Args, Err: errors.Join(procexec.ErrCancelled, err)}
				o.report(finalStatus(f.Name, i, outcomes[i]))

				return nil
			}

			stepLogger := logger.With("step", name)
			launcher := procexec.New(stepLogger)

			launch := launcher.Execute
			if f.Cooperative {
				launch = launcher.ExecuteCooperative
			}

			stepLogger.InfoContext(ctx, "starting")
			o.report(StepStatus{Job: f.Name, Index: i, Name: name, State: StepRunning})

			start := time.Now()
			res, err := launch(ctx, cfg)

			outcomes[i] = Outcome{
				Name:          name,
				Args:          cfg.Args,
				IgnoreRetcode: cfg.IgnoreRetcode,
				Result:        res,
				Err:           err,
				Duration:      time.Since(start),
			}

			o.report(finalStatus(f.Name, i, outcomes[i]))

			if err != nil {
				stepLogger.ErrorContext(ctx, "launch failed", "error", err)
				return nil
			}

			stepLogger.InfoContext(ctx, "finished", "exitCode", res.ExitCode, "duration", outcomes[i].Duration)

			return nil
		})
	}

	_ = eg.Wait()

	return outcomes, nil
}

// AnyFailed reports whether any outcome failed.
func AnyFailed(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o.Failed() {
			return true
		}
	}

	return false
}
