// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/pipewatch/internal/jobs"
)

// Runner drives a Model while jobs run.
type Runner struct {
	model   *Model
	program *tea.Program
}

// NewRunner creates a runner. cancel is called if the user quits early. The program stops
// when ctx ends. opts are passed to the bubbletea program, e.g. to set its input and output.
func NewRunner(ctx context.Context, cancel context.CancelFunc, opts ...tea.ProgramOption) *Runner {
	model := NewModel(cancel)
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)

	return &Runner{
		model:   model,
		program: tea.NewProgram(model, opts...),
	}
}

// Report forwards a step transition to the program. It is a jobs.StatusFunc and safe for
// concurrent use.
func (r *Runner) Report(s jobs.StepStatus) {
	r.program.Send(StatusMsg{Status: s})
}

// Model returns the model the runner renders.
func (r *Runner) Model() *Model {
	return r.model
}

// Run calls work on a separate goroutine with Report as its status function and shows the
// progress until work returns. It returns once both work and the program have finished.
// A program stopped by its context is not an error.
func (r *Runner) Run(work func(report jobs.StatusFunc)) error {
	workDone := make(chan struct{})

	go func() {
		defer close(workDone)

		work(r.Report)
		r.program.Send(DoneMsg{})
	}()

	_, err := r.program.Run()

	<-workDone

	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}

	return err
}
