// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build linux || darwin || freebsd

package procexec

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matt-FFFFFF/pipewatch/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	return ctx
}

func TestExecute_StdoutLines(t *testing.T) {
	for name, launch := range launchers {
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			rec := newRecorder(slog.LevelDebug)
			res, err := launch(New(rec.logger()), testContext(t), Config{
				Args:   []string{"printf", `a\nb\nc`},
				Stderr: PolicyDiscard,
			})
			require.NoError(t, err)

			out, err := res.Stdout()
			require.NoError(t, err)
			assert.Equal(t, "a\nb\nc", out)
			assert.Empty(t, res.RawStderr())
			assert.Equal(t, 0, res.ExitCode)
			assert.True(t, res.DecodeOutput())
			assert.Empty(t, rec.atLevel(slog.LevelError))
			assert.Equal(t, map[string][]string{"STDOUT": {"a", "b", "c"}}, rec.lines())

			executing := rec.atLevel(slog.LevelDebug)[0]
			assert.Equal(t, "executing", executing.Message)
			assert.Equal(t, `printf 'a\nb\nc'`, attr(executing, "command"))
		})
	}
}

func TestExecute_NonZeroExit(t *testing.T) {
	for name, launch := range launchers {
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			rec := newRecorder(slog.LevelInfo)
			res, err := launch(New(rec.logger()), testContext(t), Config{Args: []string{"false"}})
			require.NoError(t, err)

			assert.Equal(t, 1, res.ExitCode)
			assert.Empty(t, res.RawStdout())
			assert.Empty(t, res.RawStderr())

			errs := rec.atLevel(slog.LevelError)
			require.Len(t, errs, 1)
			assert.Equal(t, "command returned non-zero exit code", errs[0].Message)
			assert.Equal(t, "false", attr(errs[0], "command"))
			assert.Equal(t, int64(1), attr(errs[0], "exitCode"))
		})
	}
}

func TestExecute_IgnoreRetcode(t *testing.T) {
	for name, launch := range launchers {
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			rec := newRecorder(slog.LevelInfo)
			res, err := launch(New(rec.logger()), testContext(t), Config{
				Args:          []string{"sh", "-c", "echo nope; exit 7"},
				IgnoreRetcode: true,
			})
			require.NoError(t, err)
			assert.Equal(t, 7, res.ExitCode)
			assert.Empty(t, rec.atLevel(slog.LevelError))
		})
	}
}

func TestExecute_ReportsOutputWhenNotVerbose(t *testing.T) {
	for name, launch := range launchers {
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			rec := newRecorder(slog.LevelInfo)
			res, err := launch(New(rec.logger()), testContext(t), Config{
				Args: []string{"sh", "-c", "echo out; echo err >&2; exit 3"},
			})
			require.NoError(t, err)
			assert.Equal(t, 3, res.ExitCode)

			errs := rec.atLevel(slog.LevelError)
			require.Len(t, errs, 3)
			assert.Equal(t, "captured stdout", errs[1].Message)
			assert.Equal(t, "out\n", attr(errs[1], "output"))
			assert.Equal(t, "captured stderr", errs[2].Message)
			assert.Equal(t, "err\n", attr(errs[2], "output"))
		})
	}
}

func TestExecute_Input(t *testing.T) {
	for name, launch := range launchers {
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			res, err := launch(New(newRecorder(slog.LevelInfo).logger()), testContext(t), Config{
				Args:  []string{"cat"},
				Input: []byte("hello\n"),
			})
			require.NoError(t, err)
			assert.Equal(t, []byte("hello\n"), res.RawStdout())
		})
	}
}

func TestExecute_EmptyInputClosesStdin(t *testing.T) {
	for name, launch := range launchers {
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			res, err := launch(New(newRecorder(slog.LevelInfo).logger()), testContext(t), Config{
				Args:  []string{"wc", "-c"},
				Input: []byte{},
			})
			require.NoError(t, err)
			assert.Equal(t, "0", strings.TrimSpace(string(res.RawStdout())))
		})
	}
}

func TestExecute_LargeInputEchoed(t *testing.T) {
	input := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog\n"), 32*1024)

	for name, launch := range launchers {
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			res, err := launch(New(newRecorder(slog.LevelInfo).logger()), testContext(t), Config{
				Args:  []string{"cat"},
				Input: input,
			})
			require.NoError(t, err)
			assert.Equal(t, input, res.RawStdout())
		})
	}
}

func TestExecute_BothStreamsLarge(t *testing.T) {
	// stderr is filled past a pipe buffer before stdout is written, so draining
	// stdout to completion first would never finish.
	script := "yes err | head -n 50000 >&2; yes out | head -n 50000"

	for name, launch := range launchers {
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			rec := newRecorder(slog.LevelDebug)
			res, err := launch(New(rec.logger()), testContext(t), Config{
				Args: []string{"sh", "-c", script},
			})
			require.NoError(t, err)
			assert.Equal(t, 0, res.ExitCode)
			assert.Equal(t, bytes.Repeat([]byte("out\n"), 50000), res.RawStdout())
			assert.Equal(t, bytes.Repeat([]byte("err\n"), 50000), res.RawStderr())

			lines := rec.lines()
			assert.Len(t, lines["STDOUT"], 50000)
			assert.Len(t, lines["STDERR"], 50000)
		})
	}
}

func TestExecute_Merge(t *testing.T) {
	for name, launch := range launchers {
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			rec := newRecorder(slog.LevelDebug)
			res, err := launch(New(rec.logger()), testContext(t), Config{
				Args:   []string{"sh", "-c", "echo one; echo two >&2; echo three"},
				Stderr: PolicyMerge,
			})
			require.NoError(t, err)
			assert.Equal(t, "one\ntwo\nthree\n", string(res.RawStdout()))
			assert.Empty(t, res.RawStderr())
			assert.Equal(t, map[string][]string{"COMBINED": {"one", "two", "three"}}, rec.lines())
		})
	}
}

func TestExecute_DiscardAndInherit(t *testing.T) {
	for name, launch := range launchers {
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			rec := newRecorder(slog.LevelDebug)
			res, err := launch(New(rec.logger()), testContext(t), Config{
				Args:   []string{"sh", "-c", "echo gone; echo kept >&2"},
				Stdout: PolicyDiscard,
			})
			require.NoError(t, err)
			assert.Empty(t, res.RawStdout())
			assert.Equal(t, "kept\n", string(res.RawStderr()))
			assert.Equal(t, map[string][]string{"STDERR": {"kept"}}, rec.lines())
		})
	}
}

func TestExecute_UnterminatedFragment(t *testing.T) {
	for name, launch := range launchers {
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			rec := newRecorder(slog.LevelDebug)
			res, err := launch(New(rec.logger()), testContext(t), Config{
				Args: []string{"printf", `x  \ny`},
			})
			require.NoError(t, err)
			assert.Equal(t, "x  \ny", string(res.RawStdout()))
			assert.Equal(t, []string{"x", "y"}, rec.lines()["STDOUT"])
		})
	}
}

func TestExecute_DirAndEnv(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	for name, launch := range launchers {
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			res, err := launch(New(newRecorder(slog.LevelInfo).logger()), testContext(t), Config{
				Args: []string{"sh", "-c", `echo "$PIPEWATCH_TEST"; pwd -P`},
				Dir:  dir,
				Env:  []string{"PIPEWATCH_TEST=hello"},
			})
			require.NoError(t, err)
			assert.Equal(t, "hello\n"+dir+"\n", string(res.RawStdout()))
		})
	}
}

func TestExecute_KilledBySignal(t *testing.T) {
	for name, launch := range launchers {
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			res, err := launch(New(newRecorder(slog.LevelInfo).logger()), testContext(t), Config{
				Args: []string{"sh", "-c", "kill -9 $$"},
			})
			require.NoError(t, err)
			assert.Equal(t, -9, res.ExitCode)
		})
	}
}

func TestExecute_SpawnFailure(t *testing.T) {
	for name, launch := range launchers {
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			res, err := launch(New(newRecorder(slog.LevelInfo).logger()), testContext(t), Config{
				Args: []string{"pipewatch-definitely-not-a-real-command"},
			})
			require.ErrorIs(t, err, ErrSpawn)
			assert.Nil(t, res)
		})
	}
}

func TestExecute_BadDir(t *testing.T) {
	for name, launch := range launchers {
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			res, err := launch(New(newRecorder(slog.LevelInfo).logger()), testContext(t), Config{
				Args: []string{"true"},
				Dir:  filepath.Join(t.TempDir(), "missing"),
			})
			require.ErrorIs(t, err, ErrSpawn)
			assert.Nil(t, res)
		})
	}
}

func TestExecute_InputWriteFailure(t *testing.T) {
	// The child never reads, so the write cannot complete and fails once it exits.
	input := bytes.Repeat([]byte("x"), 4*1024*1024)

	for name, launch := range launchers {
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			res, err := launch(New(newRecorder(slog.LevelInfo).logger()), testContext(t), Config{
				Args:  []string{"sh", "-c", "exec 0<&-; echo partial"},
				Input: input,
			})
			require.ErrorIs(t, err, ErrInputWrite)
			assert.Nil(t, res)
		})
	}
}

func TestExecute_Cancelled(t *testing.T) {
	for name, launch := range launchers {
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			start := time.Now()
			res, err := launch(New(newRecorder(slog.LevelInfo).logger()), ctx, Config{
				Args: []string{"sleep", "30"},
			})
			require.ErrorIs(t, err, ErrCancelled)
			require.ErrorIs(t, err, context.DeadlineExceeded)
			assert.Nil(t, res)
			assert.Less(t, time.Since(start), 10*time.Second)
		})
	}
}

func TestExecute_InvalidConfig(t *testing.T) {
	for name, launch := range launchers {
		t.Run(name, func(t *testing.T) {
			_, err := launch(New(nil), testContext(t), Config{})
			require.ErrorIs(t, err, ErrEmptyCommand)

			_, err = launch(New(nil), testContext(t), Config{Args: []string{"true"}, Stdout: PolicyMerge})
			require.ErrorIs(t, err, ErrInvalidPolicy)
		})
	}
}

func TestExecute_DeferredDecode(t *testing.T) {
	latin1, err := LookupEncoding("latin1")
	require.NoError(t, err)

	tcs := []struct {
		name    string
		cfg     Config
		want    string
		wantErr error
	}{
		{
			name:    "strict utf-8",
			cfg:     Config{},
			wantErr: ErrDecode,
		},
		{
			name: "raw",
			cfg:  Config{RawOutput: true},
			want: "caf\xe9\n",
		},
		{
			name: "latin1",
			cfg:  Config{Encoding: latin1},
			want: "café\n",
		},
	}

	for name, launch := range launchers {
		for _, tc := range tcs {
			t.Run(name+"/"+tc.name, func(t *testing.T) {
				defer goleak.VerifyNone(t)

				cfg := tc.cfg
				cfg.Args = []string{"printf", `caf\351\n`}

				res, err := launch(New(newRecorder(slog.LevelInfo).logger()), testContext(t), cfg)
				require.NoError(t, err)
				assert.Equal(t, []byte("caf\xe9\n"), res.RawStdout())

				out, err := res.Stdout()
				if tc.wantErr != nil {
					require.ErrorIs(t, err, tc.wantErr)
					return
				}

				require.NoError(t, err)
				assert.Equal(t, tc.want, out)
			})
		}
	}
}

func TestExecute_ContextLogger(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := newRecorder(slog.LevelInfo)
	ctx := ctxlog.New(testContext(t), rec.logger())

	res, err := ExecuteCooperative(ctx, Config{Args: []string{"false"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExitCode)
	assert.Len(t, rec.atLevel(slog.LevelError), 1)

	res, err = Execute(ctx, Config{Args: []string{"false"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExitCode)
	assert.Len(t, rec.atLevel(slog.LevelError), 2)
}
