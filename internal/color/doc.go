// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color wraps strings in ANSI escape codes.
// Output is colored when FORCE_COLOR is set or stdout is a terminal, and never when NO_COLOR is set.
package color
