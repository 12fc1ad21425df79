// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/ai-fdocs/fdocs/engine"
)

// colorForStatus gates terminal coloring on isatty so piped/CI output stays
// plain, grounded on vjache-cie/google-oss-rebuild/sevigo-code-warden's
// shared fatih/color + mattn/go-isatty pairing for status coloring.
func colorForStatus(s engine.Status) func(format string, a ...interface{}) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return fmt.Sprintf
	}
	switch s {
	case engine.StatusSynced:
		return color.New(color.FgGreen).SprintfFunc()
	case engine.StatusSyncedFallback:
		return color.New(color.FgYellow).SprintfFunc()
	case engine.StatusOutdated:
		return color.New(color.FgYellow, color.Bold).SprintfFunc()
	default:
		return color.New(color.FgRed).SprintfFunc()
	}
}
