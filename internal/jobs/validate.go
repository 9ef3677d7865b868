// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package jobs

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/pipewatch/internal/procexec"
)

var (
	// ErrNoCommands is returned when a job file has no commands.
	ErrNoCommands = errors.New("no commands specified")
	// ErrMissingName is returned when a command has no name.
	ErrMissingName = errors.New("command name is required")
	// ErrDuplicateName is returned when two commands share a name.
	ErrDuplicateName = errors.New("duplicate command name")
	// ErrInvalidParallelism is returned for a negative parallelism.
	ErrInvalidParallelism = errors.New("parallelism must not be negative")
)

// Validate reports every problem in the file, not just the first.
func (f *File) Validate() error {
	var result *multierror.Error

	if f.Parallelism < 0 {
		result = multierror.Append(result, fmt.Errorf("%w: %d", ErrInvalidParallelism, f.Parallelism))
	}

	if len(f.Commands) == 0 {
		result = multierror.Append(result, ErrNoCommands)
	}

	seen := make(map[string]struct{}, len(f.Commands))

	for i, c := range f.Commands {
		if c.Name == "" {
			result = multierror.Append(result, fmt.Errorf("command %d: %w", i, ErrMissingName))
		} else {
			if _, dup := seen[c.Name]; dup {
				result = multierror.Append(result, fmt.Errorf("%w: %q", ErrDuplicateName, c.Name))
			}

			seen[c.Name] = struct{}{}
		}

		if _, err := c.Config(); err != nil {
			result = multierror.Append(result, fmt.Errorf("command %q: %w", c.Name, err))
		}
	}

	return result.ErrorOrNil()
}

// Config converts the command to a launch configuration.
func (c Command) Config() (procexec.Config, error) {
	var errs []error

	stdout, err := procexec.ParsePolicy(c.Stdout)
	if err != nil {
		errs = append(errs, fmt.Errorf("stdout: %w", err))
	}

	stderr, err := procexec.ParsePolicy(c.Stderr)
	if err != nil {
		errs = append(errs, fmt.Errorf("stderr: %w", err))
	}

	enc, err := procexec.LookupEncoding(c.Encoding)
	if err != nil {
		errs = append(errs, err)
	}

	cfg := procexec.Config{
		Args:          c.Args,
		Stdout:        stdout,
		Stderr:        stderr,
		Dir:           c.Cwd,
		Env:           mergeEnv(os.Environ(), c.Env),
		IgnoreRetcode: c.IgnoreRetcode,
		RawOutput:     c.RawOutput,
		Encoding:      enc,
	}

	if c.Input != nil {
		cfg.Input = []byte(*c.Input)
	}

	if len(errs) == 0 {
		if err := cfg.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	return cfg, errors.Join(errs...)
}

// Configs converts every command to a launch configuration, in file order.
func (f *File) Configs() ([]procexec.Config, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	cfgs := make([]procexec.Config, len(f.Commands))
	for i, c := range f.Commands {
		cfgs[i], _ = c.Config()
	}

	return cfgs, nil
}

// mergeEnv overrides base with extra, appending the extra keys in order.
// A nil result means inherit.
func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return nil
	}

	env := make([]string, 0, len(base)+len(extra))

	for _, kv := range base {
		k, _, _ := strings.Cut(kv, "=")
		if _, ok := extra[k]; !ok {
			env = append(env, kv)
		}
	}

	for _, k := range slices.Sorted(maps.Keys(extra)) {
		env = append(env, k+"="+extra[k])
	}

	return env
}
