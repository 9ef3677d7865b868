// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package coop runs a set of tasks on the calling goroutine, suspending each one until the
// file descriptor it waits on is ready. Readiness is taken from poll(2), so the package is only
// built on platforms that provide it.
//
// A task never blocks. When it would, it returns from Resume and the loop polls again.
// Tasks that are not waiting on a descriptor can ask to be resumed on every iteration,
// which is how the exit of a child process is observed without a blocking wait.
package coop
