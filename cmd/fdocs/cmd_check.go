// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/ai-fdocs/fdocs"
	"github.com/ai-fdocs/fdocs/engine"
)

const checkShortHelp = `Exit non-zero unless every package is Synced or SyncedFallback`
const checkLongHelp = `
Intended for CI: evaluates the same per-package status as "status" but
communicates the outcome purely through the exit code (0 = all good) plus
either a one-line success message or a structured list of issues.
`

type checkCommand struct {
	format string
	mode   string
}

func (cmd *checkCommand) Name() string      { return "check" }
func (cmd *checkCommand) Args() string      { return "[--format text|json] [--mode ...]" }
func (cmd *checkCommand) ShortHelp() string { return checkShortHelp }
func (cmd *checkCommand) LongHelp() string  { return checkLongHelp }

func (cmd *checkCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.format, "format", "text", "text or json")
	fs.StringVar(&cmd.mode, "mode", "", "override sync_mode: lockfile, latest_docs, or hybrid")
}

func (cmd *checkCommand) Run(c *fdocs.Ctx, args []string) error {
	report, err := buildStatusReport(c, cmd.mode)
	if err != nil {
		return err
	}

	exitCode := report.ExitCodeForCheck()

	if cmd.format == "json" {
		enc := json.NewEncoder(c.Out)
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else if exitCode == 0 {
		fmt.Fprintln(c.Out, "all packages Synced or SyncedFallback")
	} else {
		for _, s := range report.Statuses {
			if s.Status != engine.StatusSynced && s.Status != engine.StatusSyncedFallback {
				fmt.Fprintf(c.Out, "%-30s %-16s %s\n", s.Name, s.Status, s.Reason)
			}
		}
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
	return nil
}
