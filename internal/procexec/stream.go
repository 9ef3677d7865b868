// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package procexec

import (
	"fmt"
	"strings"
)

// StreamClass labels a line of process output with the stream it came from.
type StreamClass int

const (
	// StreamCombined is stdout with stderr merged into it.
	StreamCombined StreamClass = iota
	// StreamStdout is standard output.
	StreamStdout
	// StreamStderr is standard error.
	StreamStderr
)

// String implements the Stringer interface for StreamClass.
func (s StreamClass) String() string {
	switch s {
	case StreamCombined:
		return "COMBINED"
	case StreamStdout:
		return "STDOUT"
	case StreamStderr:
		return "STDERR"
	default:
		return "UNKNOWN"
	}
}

// Policy selects what happens to one of the child's output streams.
type Policy int

const (
	// PolicyCapture pipes the stream back, logs each line and keeps it in the Result.
	PolicyCapture Policy = iota
	// PolicyDiscard connects the stream to the null device.
	PolicyDiscard
	// PolicyInherit connects the stream to the parent's corresponding descriptor.
	PolicyInherit
	// PolicyMerge sends stderr to wherever stdout goes. It is only valid for stderr.
	PolicyMerge
)

var policyNames = map[Policy]string{
	PolicyCapture: "capture",
	PolicyDiscard: "discard",
	PolicyInherit: "inherit",
	PolicyMerge:   "merge",
}

// String implements the Stringer interface for Policy.
func (p Policy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}

	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy converts a policy name to a Policy. The empty string means PolicyCapture.
func ParsePolicy(s string) (Policy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PolicyCapture, nil
	}

	for p, name := range policyNames {
		if name == s {
			return p, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}
