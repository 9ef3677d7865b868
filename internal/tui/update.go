// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/pipewatch/internal/jobs"
)

// StatusMsg carries one step transition into the program.
type StatusMsg struct {
	Status jobs.StepStatus
}

// DoneMsg indicates that every job has finished. The program quits after rendering it.
type DoneMsg struct{}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, m.quit()
		}

		return m, nil

	case StatusMsg:
		m.apply(msg.Status)
		return m, nil

	case DoneMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd

		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

// quit cancels the run if it is still going. The program keeps running until DoneMsg,
// so the final states of cancelled steps are shown.
func (m *Model) quit() tea.Cmd {
	if m.done {
		return tea.Quit
	}

	if !m.quitting {
		m.quitting = true

		if m.cancel != nil {
			m.cancel()
		}
	}

	return nil
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	var sb strings.Builder

	total, finished, failed := m.counts()

	sb.WriteString(m.styles.Title.Render(fmt.Sprintf("pipewatch: %d/%d steps finished", finished, total)))

	if failed > 0 {
		sb.WriteString(m.styles.Failed.Render(fmt.Sprintf(", %d failed", failed)))
	}

	sb.WriteString("\n")

	for _, j := range m.jobs {
		name := j.name
		if name == "" {
			name = "[unnamed]"
		}

		sb.WriteString(m.styles.Job.Render(name))
		sb.WriteString("\n")

		for _, s := range j.steps {
			m.renderStep(&sb, s)
		}
	}

	switch {
	case m.done:
	case m.quitting:
		sb.WriteString(m.styles.Help.Render("cancelling..."))
		sb.WriteString("\n")
	default:
		sb.WriteString(m.styles.Help.Render("q: cancel"))
		sb.WriteString("\n")
	}

	return sb.String()
}
