// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package procexec

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCancelGuard_TripBeforeFinish(t *testing.T) {
	var g cancelGuard

	killed := 0

	assert.True(t, g.trip(func() { killed++ }))
	assert.True(t, g.tripped())
	assert.True(t, g.finish(), "a launch cancelled while running reports cancellation")
	assert.Equal(t, 1, killed)
}

func TestCancelGuard_TripAfterFinish(t *testing.T) {
	var g cancelGuard

	assert.False(t, g.finish())

	killed := false

	assert.False(t, g.trip(func() { killed = true }), "a finished launch cannot be cancelled")
	assert.False(t, killed)
	assert.False(t, g.tripped())
}

func TestCancelGuard_Concurrent(t *testing.T) {
	for range 100 {
		var (
			g       cancelGuard
			wg      sync.WaitGroup
			tripped bool
		)

		wg.Add(1)

		go func() {
			defer wg.Done()

			tripped = g.trip(func() {})
		}()

		cancelled := g.finish()

		wg.Wait()

		// Whichever side wins, both must agree on the outcome.
		assert.Equal(t, tripped, cancelled)
	}
}
