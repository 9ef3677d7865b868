// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package buildinfo holds the version and commit stamped into the pipewatch binary.
// Set them with -ldflags "-X github.com/matt-FFFFFF/pipewatch/internal/buildinfo.Version=...".
package buildinfo

var (
	// Version is set during the build process.
	Version = "dev"
	// Commit is set during the build process.
	Commit = "unknown"
)
