// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package version contains the version subcommand.
package version

import (
	"context"
	"fmt"

	"github.com/matt-FFFFFF/pipewatch/internal/buildinfo"
	"github.com/urfave/cli/v3"
)

// VersionCmd prints the version and commit the binary was built from.
var VersionCmd = &cli.Command{
	Name:  "version",
	Usage: "Print the version",
	Action: func(_ context.Context, cmd *cli.Command) error {
		_, err := fmt.Fprintf(cmd.Root().Writer, "pipewatch %s (commit: %s)\n", buildinfo.Version, buildinfo.Commit)
		return err
	},
}
