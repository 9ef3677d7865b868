// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package version

import (
	"bytes"
	"context"
	"testing"

	"github.com/matt-FFFFFF/pipewatch/internal/buildinfo"
	"github.com/prashantv/gostub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestVersionCmd(t *testing.T) {
	stubs := gostub.Stub(&buildinfo.Version, "1.2.3").Stub(&buildinfo.Commit, "abc123")
	defer stubs.Reset()

	var buf bytes.Buffer

	root := &cli.Command{
		Name:     "pipewatch",
		Writer:   &buf,
		Commands: []*cli.Command{VersionCmd},
	}

	require.NoError(t, root.Run(context.Background(), []string{"pipewatch", "version"}))
	assert.Equal(t, "pipewatch 1.2.3 (commit: abc123)\n", buf.String())
}
