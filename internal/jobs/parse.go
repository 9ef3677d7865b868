// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package jobs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

var (
	// ErrInvalidYaml is returned when a YAML job file cannot be decoded.
	ErrInvalidYaml = errors.New("invalid YAML")
	// ErrInvalidHCL is returned when an HCL job file cannot be decoded.
	ErrInvalidHCL = errors.New("invalid HCL")
	// ErrUnknownFormat is returned by Load for a file extension it does not recognise.
	ErrUnknownFormat = errors.New("unknown job file format, expected .yaml, .yml or .hcl")
	// ErrReadFile is returned when a job file cannot be read.
	ErrReadFile = errors.New("failed to read job file")
)

// ParseYAML decodes a YAML job file. Unknown keys are an error.
func ParseYAML(data []byte) (*File, error) {
	f := new(File)
	if err := yaml.UnmarshalWithOptions(data, f, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidYaml, yaml.FormatError(err, false, true))
	}

	return f, nil
}

// ParseHCL decodes an HCL job file. The filename is used in diagnostics and must end in .hcl.
func ParseHCL(filename string, data []byte) (*File, error) {
	f := new(File)
	if err := hclsimple.Decode(filename, data, evalContext(), f); err != nil {
		return nil, errors.Join(ErrInvalidHCL, err)
	}

	return f, nil
}

// Parse decodes data according to the extension of filename.
func Parse(filename string, data []byte) (*File, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".hcl":
		return ParseHCL(filename, data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, filename)
	}
}

// Load reads and parses the job file at path from the filesystem returned by FsFactory.
func Load(path string) (*File, error) {
	data, err := afero.ReadFile(FsFactory(), path)
	if err != nil {
		return nil, errors.Join(ErrReadFile, err)
	}

	return Parse(path, data)
}

// evalContext exposes the environment as env.NAME, plus a few string functions.
func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}

		vars[k] = cty.StringVal(v)
	}

	env := cty.MapValEmpty(cty.String)
	if len(vars) > 0 {
		env = cty.MapVal(vars)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": env,
		},
		Functions: map[string]function.Function{
			"upper": stdlib.UpperFunc,
			"lower": stdlib.LowerFunc,
			"join":  stdlib.JoinFunc,
		},
	}
}
