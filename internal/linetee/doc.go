// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package linetee accumulates a byte stream verbatim while handing each complete line to a callback.
//
// A LineTee is fed either by Drain, which blocks on an io.Reader until EOF, or by a caller that
// writes chunks as they become available, such as a readiness-driven event loop.
// Both ways of feeding it produce identical results for identical input.
package linetee
