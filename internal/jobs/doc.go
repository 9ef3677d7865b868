// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package jobs loads job files and runs the launches they describe.
//
// A job file is YAML or HCL. It has a name, a parallelism limit, a flag selecting the
// cooperative launcher, and a list of commands. Each command maps onto one procexec.Config.
//
// Example YAML:
//
//	name: build
//	parallelism: 2
//	commands:
//	  - name: vet
//	    args: [go, vet, ./...]
//	    stderr: merge
//	  - name: greet
//	    args: [cat]
//	    input: "hello\n"
//
// The same file in HCL:
//
//	name        = "build"
//	parallelism = 2
//
//	command "vet" {
//	  args   = ["go", "vet", "./..."]
//	  stderr = "merge"
//	}
//
//	command "greet" {
//	  args  = ["cat"]
//	  input = "hello\n"
//	}
//
// HCL files can read the environment through env.NAME and call upper, lower and join.
package jobs
