// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package procexec

import "errors"

var (
	// ErrEmptyCommand is returned when Config.Args is empty.
	ErrEmptyCommand = errors.New("command must have at least one argument")
	// ErrInvalidPolicy is returned for an unknown capture policy, or PolicyMerge on stdout.
	ErrInvalidPolicy = errors.New("invalid capture policy")
	// ErrSpawn is returned when the executable cannot be found or the process could not be started.
	ErrSpawn = errors.New("could not start process")
	// ErrFailedToCreatePipe is returned when an operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrInputWrite is returned when the input could not be written to the process.
	ErrInputWrite = errors.New("failed to write input to process")
	// ErrWait is returned when the exit status of the process could not be collected.
	ErrWait = errors.New("failed to wait for process")
	// ErrCancelled is returned when the context ends before the process has been reaped.
	ErrCancelled = errors.New("execution cancelled")
	// ErrDecode is returned by the text views of a Result when the output cannot be decoded.
	ErrDecode = errors.New("failed to decode output")
	// ErrUnknownEncoding is returned by LookupEncoding for an unrecognised name.
	ErrUnknownEncoding = errors.New("unknown text encoding")
	// ErrCooperativeUnsupported is returned by ExecuteCooperative on platforms without poll(2).
	ErrCooperativeUnsupported = errors.New("cooperative execution is not supported on this platform")
)
