// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package procexec launches an external command, optionally feeds it input, drains its stdout
// and stderr concurrently while logging every line, and returns a Result holding the captured
// output and exit code.
//
// Two launchers share one contract. Execute runs each captured stream on its own goroutine and
// blocks the caller. ExecuteCooperative multiplexes the input write, both drains and the wait for
// exit on a single goroutine using a readiness-driven scheduler. It kills and reaps the child if
// the context ends first.
//
// A non-zero exit status is not an error. It is recorded in Result.ExitCode and logged by Report
// unless Config.IgnoreRetcode is set. Only failing to start the process, failing to write its
// input, or cancellation return an error, and in those cases no Result is returned.
//
// Neither launcher imposes a timeout; use context.WithTimeout.
package procexec
