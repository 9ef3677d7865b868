// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package linetee

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode"
)

// ErrFailedToReadStream is returned by Drain when the underlying reader fails.
var ErrFailedToReadStream = errors.New("failed to read stream")

// LineFunc receives each line with trailing whitespace removed.
type LineFunc func(line string)

// LineTee keeps every byte written to it and calls a LineFunc once per newline-terminated line.
// It is not safe for concurrent use; each stream should own its LineTee.
type LineTee struct {
	full     bytes.Buffer
	partial  []byte
	lastLine string
	emit     LineFunc
}

// New creates a LineTee. A nil emit discards lines.
func New(emit LineFunc) *LineTee {
	if emit == nil {
		emit = func(string) {}
	}

	return &LineTee{emit: emit}
}

// Write implements io.Writer. It never returns an error.
func (lt *LineTee) Write(p []byte) (int, error) {
	lt.full.Write(p)

	rest := p
	for {
		i := bytes.IndexByte(rest, '\n')
		if i < 0 {
			break
		}

		if len(lt.partial) > 0 {
			lt.partial = append(lt.partial, rest[:i]...)
			lt.line(lt.partial)
			lt.partial = lt.partial[:0]
		} else {
			lt.line(rest[:i])
		}

		rest = rest[i+1:]
	}

	lt.partial = append(lt.partial, rest...)

	return len(p), nil
}

// Flush emits any unterminated trailing fragment as a line.
// Call it once the stream has reached EOF.
func (lt *LineTee) Flush() {
	if len(lt.partial) == 0 {
		return
	}

	lt.line(lt.partial)
	lt.partial = lt.partial[:0]
}

func (lt *LineTee) line(b []byte) {
	lt.lastLine = strings.TrimRightFunc(string(b), unicode.IsSpace)
	lt.emit(lt.lastLine)
}

// Bytes returns everything written so far. The slice aliases the internal buffer.
func (lt *LineTee) Bytes() []byte {
	return lt.full.Bytes()
}

// Len returns the number of bytes written so far.
func (lt *LineTee) Len() int {
	return lt.full.Len()
}

// LastLine returns the last complete line, as passed to the LineFunc.
// If maxLength > 0, it truncates the line to that length and appends "..." if it exceeds that length.
func (lt *LineTee) LastLine(maxLength int) string {
	result := lt.lastLine
	if maxLength > 3 && len(result) > maxLength {
		result = result[:maxLength-3] + "..."
	}

	return result
}

// Drain copies r into a new LineTee until EOF and returns the accumulated bytes.
// On a read error the bytes read so far are returned along with the error.
func Drain(r io.Reader, emit LineFunc) ([]byte, error) {
	lt := New(emit)

	_, err := io.Copy(lt, r)
	lt.Flush()

	if err != nil {
		return lt.Bytes(), errors.Join(ErrFailedToReadStream, err)
	}

	return lt.Bytes(), nil
}
