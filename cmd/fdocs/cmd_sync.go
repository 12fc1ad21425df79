// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/sdboyer/constext"

	"github.com/ai-fdocs/fdocs"
	"github.com/ai-fdocs/fdocs/engine"
)

const syncShortHelp = `Sync mirrored documentation against the current lockfile or registry`
const syncLongHelp = `
Resolves target versions (from a lockfile, the registry, or both depending
on sync_mode), fetches any package whose cached copy is missing or stale,
transforms the fetched content, and commits it atomically under output_dir.
`

type syncCommand struct {
	force        bool
	mode         string
	reportFormat string
}

func (cmd *syncCommand) Name() string      { return "sync" }
func (cmd *syncCommand) Args() string      { return "[--force] [--mode ...] [--report-format text|json]" }
func (cmd *syncCommand) ShortHelp() string { return syncShortHelp }
func (cmd *syncCommand) LongHelp() string  { return syncLongHelp }

func (cmd *syncCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.force, "force", false, "ignore the cache and refetch every package")
	fs.StringVar(&cmd.mode, "mode", "", "override sync_mode: lockfile, latest_docs, or hybrid")
	fs.StringVar(&cmd.reportFormat, "report-format", "text", "text or json")
}

func (cmd *syncCommand) Run(c *fdocs.Ctx, args []string) error {
	cfg, err := c.LoadConfig(fdocs.ProfileRust)
	if err != nil {
		return err
	}
	if cmd.mode != "" {
		cfg.Settings.SyncMode = fdocs.SyncMode(cmd.mode)
	}

	// Combine the process's interrupt-signal context with the run's base
	// context via constext (the teacher's own deducers.go constext.Cons
	// pattern), so either one tearing down aborts in-flight jobs without
	// touching already-committed package directories.
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	base, cancel := c.BaseContext()
	defer cancel()
	ctx, cancelMerged := constext.Cons(sigCtx, base)
	defer cancelMerged()

	outputDir := filepath.Join(c.WorkingDir, cfg.Settings.OutputDir)
	lock, err := fdocs.OutputLock(outputDir)
	if err != nil {
		return err
	}
	locked, err := lock.TryLock()
	if err != nil {
		return fdocs.NewError(fdocs.KindIO, "", "acquiring output lock", err)
	}
	if !locked {
		return fdocs.NewError(fdocs.KindIO, "", "another fdocs sync is already running against "+outputDir, nil)
	}
	defer lock.Unlock()

	reporter := &engine.CollectingReporter{}
	eng := &engine.Engine{
		Config: cfg, RootDir: c.WorkingDir, OutputDir: outputDir,
		HTTPClient: c.HTTPClient, Reporter: reporter, Now: time.Now(),
	}

	report, err := eng.Run(ctx, cmd.force)
	if err != nil {
		return err
	}

	if cmd.reportFormat == "json" {
		enc := json.NewEncoder(c.Out)
		return enc.Encode(report)
	}

	for _, s := range report.Statuses {
		fmt.Fprintf(c.Out, "%-30s %-12s %s\n", s.Name, s.Status, s.Reason)
	}
	fmt.Fprintf(c.Out, "total=%d synced=%d missing=%d outdated=%d corrupted=%d\n",
		report.Summary.Total, report.Summary.Synced, report.Summary.Missing, report.Summary.Outdated, report.Summary.Corrupted)
	return nil
}
