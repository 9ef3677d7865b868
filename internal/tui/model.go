// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/pipewatch/internal/jobs"
)

const durationRounding = 100 * time.Millisecond

// StepNode is the view state of one command.
type StepNode struct {
	Name     string
	State    jobs.StepState
	Started  time.Time
	ExitCode *int
	ErrorMsg string
	Duration time.Duration
}

// jobNode groups the steps of one job file, in file order.
type jobNode struct {
	name  string
	steps []*StepNode
}

// Model is the bubbletea model for a run.
type Model struct {
	cancel   context.CancelFunc
	jobs     []*jobNode
	byName   map[string]*jobNode
	spinner  spinner.Model
	styles   *Styles
	now      func() time.Time
	done     bool
	quitting bool
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title   lipgloss.Style
	Job     lipgloss.Style
	Pending lipgloss.Style
	Running lipgloss.Style
	Success lipgloss.Style
	Failed  lipgloss.Style
	Detail  lipgloss.Style
	Help    lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")),
		Job: lipgloss.NewStyle().
			Bold(true),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Detail: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
	}
}

// NewModel creates a model. cancel is called when the user quits before the run completes.
func NewModel(cancel context.CancelFunc) *Model {
	return &Model{
		cancel: cancel,
		byName: make(map[string]*jobNode),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("11"))),
		),
		styles: NewStyles(),
		now:    time.Now,
	}
}

// Step returns the node for a step, or nil if no status was reported for it.
func (m *Model) Step(job string, index int) *StepNode {
	j, ok := m.byName[job]
	if !ok || index < 0 || index >= len(j.steps) {
		return nil
	}

	return j.steps[index]
}

// Done reports whether the run has completed.
func (m *Model) Done() bool {
	return m.done
}

func (m *Model) job(name string) *jobNode {
	if j, ok := m.byName[name]; ok {
		return j
	}

	j := &jobNode{name: name}
	m.byName[name] = j
	m.jobs = append(m.jobs, j)

	return j
}

// apply records a step transition. Steps may be reported out of order, so the slice grows
// to fit the index.
func (m *Model) apply(s jobs.StepStatus) {
	j := m.job(s.Job)

	for len(j.steps) <= s.Index {
		j.steps = append(j.steps, &StepNode{})
	}

	n := j.steps[s.Index]
	n.Name = s.Name
	n.State = s.State

	switch s.State {
	case jobs.StepRunning:
		n.Started = m.now()
	case jobs.StepSucceeded, jobs.StepFailed:
		n.ExitCode = s.ExitCode
		n.Duration = s.Duration

		if s.Err != nil {
			n.ErrorMsg = s.Err.Error()
		}
	case jobs.StepPending:
	}
}

func (m *Model) counts() (total, finished, failed int) {
	for _, j := range m.jobs {
		for _, s := range j.steps {
			total++

			switch s.State {
			case jobs.StepSucceeded:
				finished++
			case jobs.StepFailed:
				finished++
				failed++
			case jobs.StepPending, jobs.StepRunning:
			}
		}
	}

	return total, finished, failed
}

func (m *Model) renderStep(sb *strings.Builder, s *StepNode) {
	var icon, name string

	switch s.State {
	case jobs.StepPending:
		icon = m.styles.Pending.Render("•")
		name = m.styles.Pending.Render(s.Name)
	case jobs.StepRunning:
		icon = m.spinner.View()
		name = m.styles.Running.Render(s.Name)
	case jobs.StepSucceeded:
		icon = m.styles.Success.Render("✓")
		name = s.Name
	case jobs.StepFailed:
		icon = m.styles.Failed.Render("✗")
		name = m.styles.Failed.Render(s.Name)
	}

	fmt.Fprintf(sb, "  %s %s", icon, name)

	switch s.State {
	case jobs.StepRunning:
		if !s.Started.IsZero() {
			sb.WriteString(m.styles.Detail.Render(fmt.Sprintf(" [%s]", m.now().Sub(s.Started).Round(durationRounding))))
		}
	case jobs.StepSucceeded, jobs.StepFailed:
		if s.ExitCode != nil && *s.ExitCode != 0 {
			sb.WriteString(m.styles.Detail.Render(fmt.Sprintf(" (exit code: %d)", *s.ExitCode)))
		}

		sb.WriteString(m.styles.Detail.Render(fmt.Sprintf(" [%s]", s.Duration.Round(durationRounding))))
	case jobs.StepPending:
	}

	sb.WriteString("\n")

	if s.ErrorMsg != "" {
		sb.WriteString("    ")
		sb.WriteString(m.styles.Failed.Render(firstLine(s.ErrorMsg)))
		sb.WriteString("\n")
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
