// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package procexec

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/text/encoding"
)

// Config describes one process launch.
type Config struct {
	// Args is the executable followed by its arguments. The executable is resolved using PATH.
	Args []string
	// Input is written to the child's stdin, which is then closed.
	// A nil Input leaves stdin connected to the parent's stdin.
	Input []byte
	// Stdout and Stderr select what happens to each output stream. The zero value captures.
	Stdout Policy
	Stderr Policy
	// Dir is the working directory of the child. Empty means the current directory.
	Dir string
	// Env is the child's environment. Nil means the parent's environment.
	Env []string
	// IgnoreRetcode suppresses the error report for a non-zero exit code.
	IgnoreRetcode bool
	// RawOutput makes the Result's text views return the bytes verbatim.
	RawOutput bool
	// Encoding decodes captured output in the Result's text views.
	// Nil means strict UTF-8. Ignored when RawOutput is set.
	Encoding encoding.Encoding
	// SysProcAttr holds optional, operating system-specific attributes.
	SysProcAttr *syscall.SysProcAttr
}

// Validate reports every problem with the configuration.
func (c Config) Validate() error {
	var errs []error

	if len(c.Args) == 0 || c.Args[0] == "" {
		errs = append(errs, ErrEmptyCommand)
	}

	if c.Stdout < PolicyCapture || c.Stdout > PolicyInherit {
		errs = append(errs, fmt.Errorf("%w: stdout cannot use %s", ErrInvalidPolicy, c.Stdout))
	}

	if c.Stderr < PolicyCapture || c.Stderr > PolicyMerge {
		errs = append(errs, fmt.Errorf("%w: stderr cannot use %s", ErrInvalidPolicy, c.Stderr))
	}

	return errors.Join(errs...)
}

// merged reports whether stderr is redirected into stdout.
func (c Config) merged() bool {
	return c.Stderr == PolicyMerge
}

// stdoutClass is the label given to lines read from the child's stdout pipe.
func (c Config) stdoutClass() StreamClass {
	if c.merged() {
		return StreamCombined
	}

	return StreamStdout
}
