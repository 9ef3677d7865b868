// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package jobs

// File is a parsed job file.
type File struct {
	// Name is the descriptive name of the job.
	Name string `yaml:"name" hcl:"name,optional"`
	// Parallelism is the maximum number of commands running at once. Zero or one runs them in order.
	Parallelism int `yaml:"parallelism,omitempty" hcl:"parallelism,optional"`
	// Cooperative selects the single goroutine launcher.
	Cooperative bool `yaml:"cooperative,omitempty" hcl:"cooperative,optional"`
	// Commands are the launches to perform.
	Commands []Command `yaml:"commands" hcl:"command,block"`
}

// Command is one launch in a job file.
type Command struct {
	// Name identifies the command in logs and reports. It must be unique within the file.
	Name string `yaml:"name" hcl:"name,label"`
	// Args is the executable followed by its arguments.
	Args []string `yaml:"args" hcl:"args"`
	// Cwd is the working directory.
	Cwd string `yaml:"cwd,omitempty" hcl:"cwd,optional"`
	// Env is added to the parent environment.
	Env map[string]string `yaml:"env,omitempty" hcl:"env,optional"`
	// Input is written to stdin. When absent, stdin is inherited.
	Input *string `yaml:"input,omitempty" hcl:"input,optional"`
	// Stdout is capture, discard or inherit.
	Stdout string `yaml:"stdout,omitempty" hcl:"stdout,optional"`
	// Stderr is capture, discard, inherit or merge.
	Stderr string `yaml:"stderr,omitempty" hcl:"stderr,optional"`
	// IgnoreRetcode stops a non-zero exit code being reported or counted as a failure.
	IgnoreRetcode bool `yaml:"ignore_retcode,omitempty" hcl:"ignore_retcode,optional"`
	// RawOutput keeps output as bytes rather than decoding it.
	RawOutput bool `yaml:"raw_output,omitempty" hcl:"raw_output,optional"`
	// Encoding names the text encoding of the output. Empty means UTF-8.
	Encoding string `yaml:"encoding,omitempty" hcl:"encoding,optional"`
}
