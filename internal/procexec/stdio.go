// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package procexec

import (
	"errors"
	"os"
	"sync"
)

// stdio holds the descriptors handed to the child and the parent ends of any pipes.
type stdio struct {
	child [3]*os.File

	stdin  *os.File // write end, nil unless input was supplied
	stdout *os.File // read end, nil unless stdout is captured
	stderr *os.File // read end, nil unless stderr is captured separately

	owned       []*os.File // child-side files opened here, closed once the child has started
	closeOnce   sync.Once
	parentFiles []*os.File
}

// newStdio opens the pipes and null device files required by the capture policies.
// On error everything already opened is closed.
func newStdio(cfg Config) (*stdio, error) {
	s := &stdio{}

	err := s.open(cfg)
	if err != nil {
		s.closeChild()
		s.closeParent()

		return nil, err
	}

	return s, nil
}

func (s *stdio) open(cfg Config) error {
	s.child = [3]*os.File{os.Stdin, os.Stdout, os.Stderr}

	if cfg.Input != nil {
		r, w, err := os.Pipe()
		if err != nil {
			return errors.Join(ErrFailedToCreatePipe, err)
		}

		s.own(r)
		s.parent(w)
		s.child[0], s.stdin = r, w
	}

	switch cfg.Stdout {
	case PolicyCapture:
		r, w, err := os.Pipe()
		if err != nil {
			return errors.Join(ErrFailedToCreatePipe, err)
		}

		s.own(w)
		s.parent(r)
		s.child[1], s.stdout = w, r
	case PolicyDiscard:
		f, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			return errors.Join(ErrSpawn, err)
		}

		s.own(f)
		s.child[1] = f
	case PolicyInherit, PolicyMerge:
	}

	switch cfg.Stderr {
	case PolicyCapture:
		r, w, err := os.Pipe()
		if err != nil {
			return errors.Join(ErrFailedToCreatePipe, err)
		}

		s.own(w)
		s.parent(r)
		s.child[2], s.stderr = w, r
	case PolicyDiscard:
		f, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			return errors.Join(ErrSpawn, err)
		}

		s.own(f)
		s.child[2] = f
	case PolicyMerge:
		s.child[2] = s.child[1]
	case PolicyInherit:
	}

	return nil
}

func (s *stdio) own(f *os.File) {
	s.owned = append(s.owned, f)
}

func (s *stdio) parent(f *os.File) {
	s.parentFiles = append(s.parentFiles, f)
}

// closeChild closes the child's copies of the pipe ends, so the drains see end of file
// once the child and any descendants holding them have exited.
func (s *stdio) closeChild() {
	for _, f := range s.owned {
		_ = f.Close()
	}

	s.owned = nil
}

// closeParent closes our ends of the pipes. It is safe to call more than once and concurrently.
func (s *stdio) closeParent() {
	s.closeOnce.Do(func() {
		for _, f := range s.parentFiles {
			_ = f.Close()
		}
	})
}
