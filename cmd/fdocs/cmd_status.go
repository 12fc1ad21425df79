// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ai-fdocs/fdocs"
	"github.com/ai-fdocs/fdocs/engine"
)

const statusShortHelp = `Report each package's current sync status without mutating output_dir`
const statusLongHelp = `
Surfaces each configured package's status and reason. In lockfile mode this
never touches the network; in latest_docs mode it may probe the registry to
report Outdated vs Synced.
`

type statusCommand struct {
	format string
	mode   string
}

func (cmd *statusCommand) Name() string      { return "status" }
func (cmd *statusCommand) Args() string      { return "[--format text|json] [--mode ...]" }
func (cmd *statusCommand) ShortHelp() string { return statusShortHelp }
func (cmd *statusCommand) LongHelp() string  { return statusLongHelp }

func (cmd *statusCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.format, "format", "text", "text or json")
	fs.StringVar(&cmd.mode, "mode", "", "override sync_mode: lockfile, latest_docs, or hybrid")
}

func (cmd *statusCommand) Run(c *fdocs.Ctx, args []string) error {
	report, err := buildStatusReport(c, cmd.mode)
	if err != nil {
		return err
	}

	if cmd.format == "json" {
		enc := json.NewEncoder(c.Out)
		return enc.Encode(report)
	}
	for _, s := range report.Statuses {
		fmt.Fprintf(c.Out, "%-30s %-16s %s\n", s.Name, s.Status, s.ReasonCode)
	}
	return nil
}

// buildStatusReport evaluates every package's cache decision without
// fetching or committing anything: only C2/C3 run, never C4/C5/C6.
func buildStatusReport(c *fdocs.Ctx, modeOverride string) (engine.Report, error) {
	cfg, err := c.LoadConfig(fdocs.ProfileRust)
	if err != nil {
		return engine.Report{}, err
	}
	if modeOverride != "" {
		cfg.Settings.SyncMode = fdocs.SyncMode(modeOverride)
	}

	outputDir := filepath.Join(c.WorkingDir, cfg.Settings.OutputDir)
	now := time.Now()

	var versions engine.VersionMap
	if cfg.Settings.SyncMode != fdocs.SyncModeLatestDocs {
		versions, _, err = engine.ResolveLockfile(c.WorkingDir)
		if err != nil {
			return engine.Report{}, err
		}
	}

	var results []engine.JobResult
	for _, pkg := range cfg.Packages {
		version, ok := versions[pkg.Name]
		if cfg.Settings.SyncMode == fdocs.SyncModeLatestDocs {
			if v, err := engine.ResolveLatestVersion(context.Background(), c.HTTPClient, cfg.Settings.Profile, pkg.Name); err == nil {
				version, ok = v, true
			}
		}
		if !ok {
			results = append(results, engine.JobResult{
				Name: pkg.Name, Status: engine.StatusMissing,
				Reason: "not present in lockfile or registry resolve failed",
				ReasonCode: engine.ReasonLockfileMissing, Mode: cfg.Settings.SyncMode,
			})
			continue
		}

		pkgDir := filepath.Join(outputDir, pkg.Name+"@"+version)
		check, err := engine.Decide(pkgDir, pkg, version, cfg.Settings.SyncMode, false, now)
		if err != nil {
			results = append(results, engine.JobResult{
				Name: pkg.Name, LockVersion: version, Status: engine.StatusCorrupted,
				Reason: err.Error(), ReasonCode: engine.ReasonLockfileCorruptedMeta, Mode: cfg.Settings.SyncMode,
			})
			continue
		}
		results = append(results, statusFromDecision(pkg.Name, version, cfg.Settings.SyncMode, check))
	}

	return engine.BuildReport(results), nil
}

func statusFromDecision(name, version string, mode fdocs.SyncMode, check engine.CacheCheck) engine.JobResult {
	switch check.Decision {
	case engine.DecisionHit:
		return engine.JobResult{
			Name: name, LockVersion: version, DocsVersion: version,
			Status: engine.StatusSynced, Reason: "cached", ReasonCode: engine.ReasonLockfileOk, Mode: mode,
		}
	case engine.DecisionCorrupted:
		return engine.JobResult{
			Name: name, LockVersion: version, Status: engine.StatusCorrupted,
			Reason: "metadata unreadable or future schema_version", ReasonCode: engine.ReasonLockfileCorruptedMeta, Mode: mode,
		}
	case engine.DecisionRevalidate:
		return engine.JobResult{
			Name: name, LockVersion: version, Status: engine.StatusOutdated,
			Reason: "latest_docs TTL expired", ReasonCode: engine.ReasonLatestOutdatedUpstreamChanged, Mode: mode,
		}
	default: // miss
		if check.Existing != nil {
			return engine.JobResult{
				Name: name, LockVersion: version, DocsVersion: check.Existing.Version,
				Status: engine.StatusOutdated, Reason: "previously synced version or config no longer matches",
				ReasonCode: engine.ReasonLockfileOutdatedVersionMismatch, Mode: mode,
			}
		}
		return engine.JobResult{
			Name: name, LockVersion: version, Status: engine.StatusMissing,
			Reason: "not yet synced", ReasonCode: engine.ReasonLockfileMissing, Mode: mode,
		}
	}
}
