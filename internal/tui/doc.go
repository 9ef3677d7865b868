// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui shows the live status of job steps in the terminal while they run.
//
// The view only tracks step transitions reported by jobs.Run: pending, running, succeeded
// and failed, with exit codes and durations. Process output is not shown here; it is
// printed in the summary once the run completes.
//
// Pressing q or ctrl+c cancels the run. Steps that have not started are reported as
// cancelled and running processes are killed.
package tui
