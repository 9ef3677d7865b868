// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package procexec

import (
	"context"
	"log/slog"
)

// Report logs a failed command at error level. It does nothing when suppress is set,
// res is nil or the exit code is zero.
//
// When debug logging is enabled every captured line has already been logged as it arrived,
// so only the command and exit code are reported. Otherwise the captured stdout and stderr
// follow, each as one event, when they are not empty.
func Report(ctx context.Context, logger *slog.Logger, args []string, suppress bool, res *Result) {
	if suppress || res == nil || res.ExitCode == 0 {
		return
	}

	logger.ErrorContext(ctx, "command returned non-zero exit code",
		"command", QuoteCommand(args),
		"exitCode", res.ExitCode,
	)

	if logger.Enabled(ctx, slog.LevelDebug) {
		return
	}

	if len(res.stdout) > 0 {
		logger.ErrorContext(ctx, "captured stdout", "output", res.display(res.stdout))
	}

	if len(res.stderr) > 0 {
		logger.ErrorContext(ctx, "captured stderr", "output", res.display(res.stderr))
	}
}
