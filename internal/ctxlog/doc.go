// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog provides a context-aware logger built on log/slog.
//
// The level is read from PIPEWATCH_LOG_LEVEL at start-up (DEBUG, INFO, WARN or ERROR, default WARN).
// The default handler is a pretty console handler. Records carrying a StreamKey attribute
// are rendered as indented process output rows, colored per stream.
package ctxlog
