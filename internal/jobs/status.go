// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package jobs

import "time"

// StepState is the lifecycle position of one command in a job.
type StepState int

const (
	StepPending StepState = iota
	StepRunning
	StepSucceeded
	StepFailed
)

// String returns a string representation of the step state.
func (s StepState) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepRunning:
		return "running"
	case StepSucceeded:
		return "succeeded"
	case StepFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StepStatus is one state transition of a command.
type StepStatus struct {
	Job      string
	Index    int // position of the command in the file
	Name     string
	State    StepState
	ExitCode *int          // set once the process has exited
	Err      error         // launch error, for StepFailed
	Duration time.Duration // set for StepSucceeded and StepFailed
}

// StatusFunc receives step transitions. Steps running in parallel call it concurrently.
type StatusFunc func(StepStatus)

type runOptions struct {
	status StatusFunc
}

// RunOption configures Run.
type RunOption func(*runOptions)

// WithStatus makes Run report every step transition to fn: pending for every command
// before any starts, then running, then succeeded or failed.
func WithStatus(fn StatusFunc) RunOption {
	return func(o *runOptions) {
		o.status = fn
	}
}

func (o *runOptions) report(s StepStatus) {
	if o.status != nil {
		o.status(s)
	}
}

// finalStatus builds the terminal transition for an outcome.
func finalStatus(job string, index int, o Outcome) StepStatus {
	s := StepStatus{
		Job:      job,
		Index:    index,
		Name:     o.Name,
		State:    StepSucceeded,
		Err:      o.Err,
		Duration: o.Duration,
	}

	if o.Result != nil {
		code := o.Result.ExitCode
		s.ExitCode = &code
	}

	if o.Failed() {
		s.State = StepFailed
	}

	return s
}
