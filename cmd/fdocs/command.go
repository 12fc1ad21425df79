// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"

	"github.com/ai-fdocs/fdocs"
)

// command is the teacher's own dispatch interface, carried forward
// unchanged in shape: each subcommand registers its own flags and runs
// against the shared project context.
type command interface {
	Name() string           // "sync"
	Args() string           // "[--force] [--mode ...]"
	ShortHelp() string      // "Sync mirrored documentation"
	LongHelp() string       // full usage text
	Register(*flag.FlagSet) // command-specific flags
	Run(c *fdocs.Ctx, args []string) error
}
