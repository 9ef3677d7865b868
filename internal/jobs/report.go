// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package jobs

import (
	"errors"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/pipewatch/internal/procexec"
)

// ErrWriteReport is returned when the report cannot be encoded or written.
var ErrWriteReport = errors.New("failed to write report")

// Report is the machine-readable record of a run.
type Report struct {
	Name    string       `yaml:"name"`
	Failed  bool         `yaml:"failed"`
	Results []StepReport `yaml:"results"`
}

// StepReport is the record of one command.
type StepReport struct {
	Name     string `yaml:"name"`
	Command  string `yaml:"command"`
	ExitCode *int   `yaml:"exit_code,omitempty"`
	Error    string `yaml:"error,omitempty"`
	Duration string `yaml:"duration"`
	Stdout   string `yaml:"stdout,omitempty"`
	Stderr   string `yaml:"stderr,omitempty"`
}

// NewReport builds a report from the outcomes of a run.
// Output that cannot be decoded is recorded as its raw bytes.
func NewReport(name string, outcomes []Outcome) Report {
	r := Report{
		Name:    name,
		Failed:  AnyFailed(outcomes),
		Results: make([]StepReport, 0, len(outcomes)),
	}

	for _, o := range outcomes {
		s := StepReport{
			Name:     o.Name,
			Command:  procexec.QuoteCommand(o.Args),
			Duration: o.Duration.String(),
		}

		if o.Err != nil {
			s.Error = o.Err.Error()
		}

		if o.Result != nil {
			code := o.Result.ExitCode
			s.ExitCode = &code
			s.Stdout = text(o.Result.Stdout, o.Result.RawStdout())
			s.Stderr = text(o.Result.Stderr, o.Result.RawStderr())
		}

		r.Results = append(r.Results, s)
	}

	return r
}

// WriteReports encodes the reports as a YAML sequence.
func WriteReports(w io.Writer, reports []Report) error {
	b, err := yaml.Marshal(reports)
	if err != nil {
		return errors.Join(ErrWriteReport, err)
	}

	if _, err := w.Write(b); err != nil {
		return errors.Join(ErrWriteReport, err)
	}

	return nil
}

func text(view func() (string, error), raw []byte) string {
	s, err := view()
	if err != nil {
		return string(raw)
	}

	return s
}
