// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package procexec

import "al.essio.dev/pkg/shellescape"

// QuoteCommand renders args as a single shell-quoted command line, for display only.
func QuoteCommand(args []string) string {
	return shellescape.QuoteCommand(args)
}
