// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package procexec

import (
	"context"
	"log/slog"
	"sync"
)

// recorder is a slog.Handler that keeps every record it is given.
type recorder struct {
	level slog.Level
	mu    *sync.Mutex
	recs  *[]slog.Record
}

func newRecorder(level slog.Level) *recorder {
	return &recorder{
		level: level,
		mu:    &sync.Mutex{},
		recs:  &[]slog.Record{},
	}
}

func (r *recorder) Enabled(_ context.Context, level slog.Level) bool {
	return level >= r.level
}

func (r *recorder) Handle(_ context.Context, rec slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	*r.recs = append(*r.recs, rec.Clone())

	return nil
}

func (r *recorder) WithAttrs(_ []slog.Attr) slog.Handler { return r }

func (r *recorder) WithGroup(_ string) slog.Handler { return r }

func (r *recorder) logger() *slog.Logger {
	return slog.New(r)
}

// atLevel returns the records logged at exactly level.
func (r *recorder) atLevel(level slog.Level) []slog.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []slog.Record

	for _, rec := range *r.recs {
		if rec.Level == level {
			out = append(out, rec)
		}
	}

	return out
}

// lines returns the text of every "output" record, keyed by stream.
func (r *recorder) lines() map[string][]string {
	out := make(map[string][]string)

	for _, rec := range r.atLevel(slog.LevelDebug) {
		if rec.Message != "output" {
			continue
		}

		var stream, line string

		rec.Attrs(func(a slog.Attr) bool {
			switch a.Key {
			case "stream":
				stream = a.Value.String()
			case "line":
				line = a.Value.String()
			}

			return true
		})

		out[stream] = append(out[stream], line)
	}

	return out
}

// attr returns the value of key in rec, or nil.
func attr(rec slog.Record, key string) any {
	var v any

	rec.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			v = a.Value.Any()
			return false
		}

		return true
	})

	return v
}

// launchFunc is the signature shared by both launchers.
type launchFunc func(l *Launcher, ctx context.Context, cfg Config) (*Result, error)

var launchers = map[string]launchFunc{
	"blocking":    (*Launcher).Execute,
	"cooperative": (*Launcher).ExecuteCooperative,
}
