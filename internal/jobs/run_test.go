// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build linux || darwin || freebsd

package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matt-FFFFFF/pipewatch/internal/procexec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRun(t *testing.T) {
	for _, cooperative := range []bool{false, true} {
		t.Run(map[bool]string{false: "blocking", true: "cooperative"}[cooperative], func(t *testing.T) {
			defer goleak.VerifyNone(t)

			f := &File{
				Name:        "mixed",
				Parallelism: 2,
				Cooperative: cooperative,
				Commands: []Command{
					{Name: "ok", Args: []string{"printf", "done"}},
					{Name: "fails", Args: []string{"sh", "-c", "echo broken >&2; exit 4"}},
					{Name: "ignored", Args: []string{"false"}, IgnoreRetcode: true},
					{Name: "missing", Args: []string{"pipewatch-no-such-binary"}},
					{Name: "echo", Args: []string{"cat"}, Input: strPtr("in\n")},
				},
			}

			outcomes, err := Run(context.Background(), f)
			require.NoError(t, err)
			require.Len(t, outcomes, 5)

			names := make([]string, len(outcomes))
			for i, o := range outcomes {
				names[i] = o.Name
			}

			assert.Equal(t, []string{"ok", "fails", "ignored", "missing", "echo"}, names)

			assert.False(t, outcomes[0].Failed())
			assert.Equal(t, []byte("done"), outcomes[0].Result.RawStdout())

			assert.True(t, outcomes[1].Failed())
			assert.Equal(t, 4, outcomes[1].Result.ExitCode)
			assert.Equal(t, []byte("broken\n"), outcomes[1].Result.RawStderr())

			assert.False(t, outcomes[2].Failed())
			assert.Equal(t, 1, outcomes[2].Result.ExitCode)

			assert.True(t, outcomes[3].Failed())
			require.ErrorIs(t, outcomes[3].Err, procexec.ErrSpawn)
			assert.Nil(t, outcomes[3].Result)

			assert.Equal(t, []byte("in\n"), outcomes[4].Result.RawStdout())

			assert.True(t, AnyFailed(outcomes))
		})
	}
}

func TestRun_ParallelismLimitsConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)

	sleep := func(name string) Command {
		return Command{Name: name, Args: []string{"sleep", "0.3"}}
	}

	f := &File{
		Parallelism: 3,
		Commands:    []Command{sleep("a"), sleep("b"), sleep("c")},
	}

	start := time.Now()
	outcomes, err := Run(context.Background(), f)
	require.NoError(t, err)
	assert.False(t, AnyFailed(outcomes))
	assert.Less(t, time.Since(start), 850*time.Millisecond, "commands should overlap")
}

func TestRun_InvalidFile(t *testing.T) {
	outcomes, err := Run(context.Background(), &File{})
	require.ErrorIs(t, err, ErrNoCommands)
	assert.Nil(t, outcomes)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := Run(ctx, &File{Commands: []Command{{Name: "never", Args: []string{"true"}}}})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.True(t, errors.Is(outcomes[0].Err, procexec.ErrCancelled))
	assert.True(t, outcomes[0].Failed())
}

func TestRun_ReportsStatus(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &File{
		Name:        "statuses",
		Parallelism: 2,
		Commands: []Command{
			{Name: "ok", Args: []string{"true"}},
			{Name: "fails", Args: []string{"sh", "-c", "exit 5"}},
			{Name: "missing", Args: []string{"pipewatch-no-such-binary"}},
		},
	}

	var (
		mu   sync.Mutex
		seen = map[string][]StepState{}
		last = map[string]StepStatus{}
	)

	_, err := Run(context.Background(), f, WithStatus(func(s StepStatus) {
		mu.Lock()
		defer mu.Unlock()

		assert.Equal(t, "statuses", s.Job)
		seen[s.Name] = append(seen[s.Name], s.State)
		last[s.Name] = s
	}))
	require.NoError(t, err)

	assert.Equal(t, []StepState{StepPending, StepRunning, StepSucceeded}, seen["ok"])
	assert.Equal(t, []StepState{StepPending, StepRunning, StepFailed}, seen["fails"])
	assert.Equal(t, []StepState{StepPending, StepRunning, StepFailed}, seen["missing"])

	require.NotNil(t, last["fails"].ExitCode)
	assert.Equal(t, 5, *last["fails"].ExitCode)
	assert.Equal(t, 1, last["fails"].Index)

	assert.Nil(t, last["missing"].ExitCode)
	require.ErrorIs(t, last["missing"].Err, procexec.ErrSpawn)
}

func TestRun_ReportsCancelledSteps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &File{Name: "cancelled", Commands: []Command{{Name: "never", Args: []string{"true"}}}}

	var states []StepState

	_, err := Run(ctx, f, WithStatus(func(s StepStatus) { states = append(states, s.State) }))
	require.NoError(t, err)
	assert.Equal(t, []StepState{StepPending, StepFailed}, states)
}
