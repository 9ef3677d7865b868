// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"
)

// cancelAfter is the number of signals of one kind that cancels the run.
const cancelAfter = 2

// Watch counts the signals received on C and calls cancel on the second signal of any one kind.
// Every signal is logged with its running count. Watch stops delivery to C before returning,
// and returns early if the context ends.
func (b *Broker) Watch(ctx context.Context, cancel context.CancelFunc) {
	defer b.Stop()

	counts := make(map[os.Signal]int)

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-b.C:
			if !ok {
				return
			}

			counts[sig]++
			n := counts[sig]

			if n >= cancelAfter {
				b.logger.WarnContext(ctx, "signal received again, cancelling running commands",
					"signal", sig.String(), "count", n)
				cancel()

				return
			}

			b.logger.InfoContext(ctx, "signal received, waiting for commands to exit",
				"signal", sig.String(), "count", n)
		}
	}
}
