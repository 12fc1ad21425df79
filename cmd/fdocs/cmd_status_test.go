// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ai-fdocs/fdocs"
	"github.com/ai-fdocs/fdocs/engine"
)

func writeProjectFiles(t *testing.T, dir, configToml, lockName, lockContent string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, fdocs.ConfigName), []byte(configToml), 0o644); err != nil {
		t.Fatal(err)
	}
	if lockName != "" {
		if err := os.WriteFile(filepath.Join(dir, lockName), []byte(lockContent), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestBuildStatusReportMissingWhenNotInLock(t *testing.T) {
	dir := t.TempDir()
	writeProjectFiles(t, dir, `
profile = "rust"

[packages]
lodash = { repo = "lodash/lodash" }
`, "Cargo.lock", "")

	report, err := buildStatusReport(testCtx(t, dir), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Statuses) != 1 || report.Statuses[0].Status != engine.StatusMissing {
		t.Fatalf("got %+v, want a single Missing status", report.Statuses)
	}
}

func TestBuildStatusReportHitWhenMetadataMatches(t *testing.T) {
	dir := t.TempDir()
	writeProjectFiles(t, dir, `
profile = "rust"

[settings]
output_dir = "fdocs/rust"

[packages]
serde = { repo = "serde-rs/serde" }
`, "Cargo.lock", `
[[package]]
name = "serde"
version = "1.0.0"
`)

	entry := fdocs.PackageEntry{Name: "serde", Repo: "serde-rs/serde"}
	fp := engine.Fingerprint(entry)
	pkgDir := filepath.Join(dir, "fdocs", "rust", "serde@1.0.0")
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := engine.WriteMetadata(pkgDir, &engine.Metadata{Version: "1.0.0", ConfigHash: fp}); err != nil {
		t.Fatal(err)
	}

	report, err := buildStatusReport(testCtx(t, dir), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Statuses) != 1 || report.Statuses[0].Status != engine.StatusSynced {
		t.Fatalf("got %+v, want a single Synced status", report.Statuses)
	}
}

func TestStatusFromDecisionMapsEveryDecisionKind(t *testing.T) {
	cases := []struct {
		decision engine.Decision
		want     engine.Status
	}{
		{engine.DecisionHit, engine.StatusSynced},
		{engine.DecisionMiss, engine.StatusMissing},
		{engine.DecisionCorrupted, engine.StatusCorrupted},
		{engine.DecisionRevalidate, engine.StatusOutdated},
	}
	for _, c := range cases {
		got := statusFromDecision("pkg", "1.0.0", fdocs.SyncModeLockfile, engine.CacheCheck{Decision: c.decision})
		if got.Status != c.want {
			t.Errorf("statusFromDecision(%v) = %v, want %v", c.decision, got.Status, c.want)
		}
	}
}

func TestStatusFromDecisionReportsOutdatedWhenPreviouslySyncedMetadataExists(t *testing.T) {
	existing := &engine.Metadata{Version: "1.0.0", ConfigHash: "stale-hash"}
	got := statusFromDecision("pkg", "2.0.0", fdocs.SyncModeLockfile, engine.CacheCheck{
		Decision: engine.DecisionMiss, Existing: existing,
	})
	if got.Status != engine.StatusOutdated {
		t.Errorf("Status = %v, want Outdated", got.Status)
	}
	if got.ReasonCode != engine.ReasonLockfileOutdatedVersionMismatch {
		t.Errorf("ReasonCode = %v, want %v", got.ReasonCode, engine.ReasonLockfileOutdatedVersionMismatch)
	}
	if got.DocsVersion != "1.0.0" {
		t.Errorf("DocsVersion = %q, want the previously mirrored version %q", got.DocsVersion, "1.0.0")
	}
}

func TestBuildStatusReportOutdatedWhenConfigChangesInvalidateMirroredVersion(t *testing.T) {
	dir := t.TempDir()
	writeProjectFiles(t, dir, `
profile = "rust"

[settings]
output_dir = "fdocs/rust"

[packages]
serde = { repo = "serde-rs/serde" }
`, "Cargo.lock", `
[[package]]
name = "serde"
version = "1.0.0"
`)

	// Metadata was committed under an older config (e.g. a different
	// `files` list), so its config_hash no longer matches the current
	// fingerprint even though the locked version (1.0.0) is unchanged.
	pkgDir := filepath.Join(dir, "fdocs", "rust", "serde@1.0.0")
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := engine.WriteMetadata(pkgDir, &engine.Metadata{Version: "1.0.0", ConfigHash: "stale-hash"}); err != nil {
		t.Fatal(err)
	}

	report, err := buildStatusReport(testCtx(t, dir), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Statuses) != 1 || report.Statuses[0].Status != engine.StatusOutdated {
		t.Fatalf("got %+v, want a single Outdated status", report.Statuses)
	}
	if report.Statuses[0].ReasonCode != engine.ReasonLockfileOutdatedVersionMismatch {
		t.Errorf("ReasonCode = %v, want %v", report.Statuses[0].ReasonCode, engine.ReasonLockfileOutdatedVersionMismatch)
	}
}
