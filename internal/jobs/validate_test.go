// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package jobs

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/pipewatch/internal/procexec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, wantBuildFile().Validate())
}

func TestValidate_CollectsEveryError(t *testing.T) {
	f := &File{
		Parallelism: -1,
		Commands: []Command{
			{Name: "a", Args: []string{"true"}},
			{Name: "a", Args: []string{"true"}},
			{Args: []string{"true"}},
			{Name: "b"},
			{Name: "c", Args: []string{"true"}, Stdout: "merge"},
			{Name: "d", Args: []string{"true"}, Stderr: "pipe"},
			{Name: "e", Args: []string{"true"}, Encoding: "klingon"},
		},
	}

	err := f.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 7)

	for _, want := range []error{
		ErrInvalidParallelism,
		ErrDuplicateName,
		ErrMissingName,
		procexec.ErrEmptyCommand,
		procexec.ErrInvalidPolicy,
		procexec.ErrUnknownEncoding,
	} {
		assert.ErrorIs(t, err, want)
	}
}

func TestValidate_NoCommands(t *testing.T) {
	require.ErrorIs(t, (&File{Name: "empty"}).Validate(), ErrNoCommands)
}

func TestCommand_Config(t *testing.T) {
	t.Setenv("PIPEWATCH_JOB_TEST", "parent")

	c := Command{
		Name:          "x",
		Args:          []string{"env"},
		Cwd:           "/tmp",
		Env:           map[string]string{"PIPEWATCH_JOB_TEST": "child", "ZZ": "1", "AA": "2"},
		Input:         strPtr(""),
		Stdout:        "capture",
		Stderr:        "merge",
		IgnoreRetcode: true,
		Encoding:      "latin1",
	}

	cfg, err := c.Config()
	require.NoError(t, err)

	assert.Equal(t, []string{"env"}, cfg.Args)
	assert.Equal(t, "/tmp", cfg.Dir)
	assert.Equal(t, procexec.PolicyCapture, cfg.Stdout)
	assert.Equal(t, procexec.PolicyMerge, cfg.Stderr)
	assert.True(t, cfg.IgnoreRetcode)
	assert.Equal(t, charmap.Windows1252, cfg.Encoding)
	assert.NotNil(t, cfg.Input)
	assert.Empty(t, cfg.Input)

	assert.NotContains(t, cfg.Env, "PIPEWATCH_JOB_TEST=parent")
	n := len(cfg.Env)
	assert.Equal(t, []string{"AA=2", "PIPEWATCH_JOB_TEST=child", "ZZ=1"}, cfg.Env[n-3:])
}

func TestCommand_ConfigInheritsByDefault(t *testing.T) {
	cfg, err := Command{Name: "x", Args: []string{"true"}}.Config()
	require.NoError(t, err)
	assert.Nil(t, cfg.Env)
	assert.Nil(t, cfg.Input)
	assert.Nil(t, cfg.Encoding)
}

func TestConfigs(t *testing.T) {
	cfgs, err := wantBuildFile().Configs()
	require.NoError(t, err)
	require.Len(t, cfgs, 2)
	assert.Equal(t, []byte("hello\n"), cfgs[1].Input)
	assert.True(t, cfgs[1].RawOutput)

	_, err = (&File{}).Configs()
	require.ErrorIs(t, err, ErrNoCommands)
}
