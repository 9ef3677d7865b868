// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !(linux || darwin || freebsd)

package procexec

import "context"

// ExecuteCooperative is not available on this platform. Use Execute.
func (l *Launcher) ExecuteCooperative(_ context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return nil, ErrCooperativeUnsupported
}
