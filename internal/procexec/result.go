// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package procexec

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// Result is the outcome of a completed process.
// The captured bytes are kept as read. Decoding happens when a text view is requested,
// so undecodable output only fails the caller that asks for it as text.
type Result struct {
	// ExitCode is the exit status of the child.
	// A child terminated by a signal has the negated signal number.
	ExitCode int

	stdout []byte
	stderr []byte
	raw    bool
	enc    encoding.Encoding
}

// NewResult builds a Result for output captured under cfg.
func NewResult(cfg Config, exitCode int, stdout, stderr []byte) *Result {
	return &Result{
		ExitCode: exitCode,
		stdout:   stdout,
		stderr:   stderr,
		raw:      cfg.RawOutput,
		enc:      cfg.Encoding,
	}
}

// DecodeOutput reports whether Stdout and Stderr decode the captured bytes.
func (r *Result) DecodeOutput() bool {
	return !r.raw
}

// RawStdout returns the captured stdout bytes. It is empty unless stdout was captured.
// When stderr was merged it holds both streams in the order they were written.
func (r *Result) RawStdout() []byte {
	return r.stdout
}

// RawStderr returns the captured stderr bytes. It is empty unless stderr was captured.
func (r *Result) RawStderr() []byte {
	return r.stderr
}

// Stdout returns the captured stdout as text.
func (r *Result) Stdout() (string, error) {
	return r.text(r.stdout)
}

// Stderr returns the captured stderr as text.
func (r *Result) Stderr() (string, error) {
	return r.text(r.stderr)
}

func (r *Result) text(b []byte) (string, error) {
	if r.raw {
		return string(b), nil
	}

	return decode(b, r.enc)
}

// display returns the text view, or the raw bytes if they cannot be decoded.
func (r *Result) display(b []byte) string {
	s, err := r.text(b)
	if err != nil {
		return string(b)
	}

	return s
}

func decode(b []byte, enc encoding.Encoding) (string, error) {
	if enc == nil {
		if i := invalidUTF8(b); i >= 0 {
			return "", fmt.Errorf("%w: invalid UTF-8 at byte %d", ErrDecode, i)
		}

		return string(b), nil
	}

	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", errors.Join(ErrDecode, err)
	}

	return string(out), nil
}

// invalidUTF8 returns the offset of the first invalid sequence in b, or -1.
func invalidUTF8(b []byte) int {
	if utf8.Valid(b) {
		return -1
	}

	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}

		i += size
	}

	return -1
}

// LookupEncoding returns the encoding registered under name in the WHATWG encoding index.
// The empty string and the UTF-8 labels return nil, which selects strict UTF-8 decoding.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8", "unicode-1-1-utf-8":
		return nil, nil //nolint:nilnil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}

	return enc, nil
}
