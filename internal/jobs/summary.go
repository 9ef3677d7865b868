// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package jobs

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/pipewatch/internal/color"
	"github.com/matt-FFFFFF/pipewatch/internal/linetee"
)

const lastLineMax = 120

// SummaryOptions controls what WriteSummary includes.
type SummaryOptions struct {
	IncludeStdout      bool // show stdout of failed commands
	IncludeStderr      bool // show stderr of failed commands
	ShowSuccessDetails bool // show output of successful commands too
}

// DefaultSummaryOptions returns the options used by the CLI.
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{IncludeStderr: true}
}

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	Padding(0, 1)

// WriteSummary writes one status line per outcome followed by a totals box.
func WriteSummary(w io.Writer, name string, outcomes []Outcome, opts SummaryOptions) error {
	var sb strings.Builder

	failed := 0

	for _, o := range outcomes {
		if o.Failed() {
			failed++
		}

		writeOutcome(&sb, o, opts)
	}

	if name == "" {
		name = "[unnamed]"
	}

	totals := fmt.Sprintf("%s: %d commands, %d succeeded, %d failed",
		name, len(outcomes), len(outcomes)-failed, failed)

	style := boxStyle
	if color.Enabled() {
		borderColor := lipgloss.Color("2")
		if failed > 0 {
			borderColor = lipgloss.Color("1")
		}

		style = style.BorderForeground(borderColor)
	}

	sb.WriteString(style.Render(totals))
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())

	return err
}

func writeOutcome(sb *strings.Builder, o Outcome, opts SummaryOptions) {
	label := o.Name
	if label == "" {
		label = "[unnamed]"
	}

	status, codes := color.Colorize("✓", color.FgGreen), []color.Code{color.Bold, color.FgGreen}
	if o.Failed() {
		status, codes = color.Colorize("✗", color.FgRed), []color.Code{color.Bold, color.FgRed}
	}

	fmt.Fprintf(sb, "%s %s", status, color.Colorize(label, codes...))

	if o.Result != nil && o.Result.ExitCode != 0 {
		fmt.Fprintf(sb, " (exit code: %d)", o.Result.ExitCode)
	}

	fmt.Fprintf(sb, " [%s]\n", o.Duration.Round(time.Millisecond))

	if o.Err != nil {
		fmt.Fprintf(sb, "  %s %s\n", color.Colorize("➜ Error:", color.FgRed), o.Err.Error())
	}

	if o.Result == nil || (!o.Failed() && !opts.ShowSuccessDetails) {
		return
	}

	if opts.IncludeStdout && len(o.Result.RawStdout()) > 0 {
		fmt.Fprintf(sb, "  ➜ Output: %s\n", lastLine(o.Result.RawStdout()))
	}

	if opts.IncludeStderr && len(o.Result.RawStderr()) > 0 {
		fmt.Fprintf(sb, "  %s %s\n", color.Colorize("➜ Error Output:", color.FgHiRed), lastLine(o.Result.RawStderr()))
	}
}

// lastLine returns the final line of b, trimmed and truncated for display.
func lastLine(b []byte) string {
	lt := linetee.New(nil)
	_, _ = lt.Write(b)
	lt.Flush()

	return lt.LastLine(lastLineMax)
}
