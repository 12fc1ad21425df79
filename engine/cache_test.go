package engine

import (
	"testing"
	"time"

	"github.com/ai-fdocs/fdocs"
)

func TestDecideMissWhenNoMetadata(t *testing.T) {
	dir := t.TempDir()
	entry := fdocs.PackageEntry{Name: "x", Repo: "o/r"}
	check, err := Decide(dir, entry, "1.0.0", fdocs.SyncModeLockfile, false, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if check.Decision != DecisionMiss {
		t.Errorf("Decision = %v, want Miss", check.Decision)
	}
}

func TestDecideHitWhenVersionAndConfigHashMatch(t *testing.T) {
	dir := t.TempDir()
	entry := fdocs.PackageEntry{Name: "x", Repo: "o/r"}
	fp := Fingerprint(entry)
	if err := WriteMetadata(dir, &Metadata{Version: "1.0.0", ConfigHash: fp}); err != nil {
		t.Fatal(err)
	}

	check, err := Decide(dir, entry, "1.0.0", fdocs.SyncModeLockfile, false, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if check.Decision != DecisionHit {
		t.Errorf("Decision = %v, want Hit", check.Decision)
	}
}

func TestDecideMissOnVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	entry := fdocs.PackageEntry{Name: "x", Repo: "o/r"}
	fp := Fingerprint(entry)
	if err := WriteMetadata(dir, &Metadata{Version: "1.0.0", ConfigHash: fp}); err != nil {
		t.Fatal(err)
	}

	check, err := Decide(dir, entry, "2.0.0", fdocs.SyncModeLockfile, false, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if check.Decision != DecisionMiss {
		t.Errorf("Decision = %v, want Miss on version mismatch", check.Decision)
	}
}

func TestDecideMissOnConfigHashMismatch(t *testing.T) {
	dir := t.TempDir()
	entry := fdocs.PackageEntry{Name: "x", Repo: "o/r"}
	if err := WriteMetadata(dir, &Metadata{Version: "1.0.0", ConfigHash: "stale-hash"}); err != nil {
		t.Fatal(err)
	}

	check, err := Decide(dir, entry, "1.0.0", fdocs.SyncModeLockfile, false, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if check.Decision != DecisionMiss {
		t.Errorf("Decision = %v, want Miss on config_hash mismatch", check.Decision)
	}
}

func TestDecideForceAlwaysMisses(t *testing.T) {
	dir := t.TempDir()
	entry := fdocs.PackageEntry{Name: "x", Repo: "o/r"}
	fp := Fingerprint(entry)
	if err := WriteMetadata(dir, &Metadata{Version: "1.0.0", ConfigHash: fp}); err != nil {
		t.Fatal(err)
	}

	check, err := Decide(dir, entry, "1.0.0", fdocs.SyncModeLockfile, true, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if check.Decision != DecisionMiss {
		t.Errorf("Decision = %v, want Miss under --force", check.Decision)
	}
}

func TestDecideRevalidatesExpiredLatestDocsTTL(t *testing.T) {
	dir := t.TempDir()
	entry := fdocs.PackageEntry{Name: "x", Repo: "o/r"}
	fp := Fingerprint(entry)
	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	if err := WriteMetadata(dir, &Metadata{Version: "1.0.0", ConfigHash: fp, TTLExpiresAt: past}); err != nil {
		t.Fatal(err)
	}

	check, err := Decide(dir, entry, "1.0.0", fdocs.SyncModeLatestDocs, false, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if check.Decision != DecisionRevalidate {
		t.Errorf("Decision = %v, want Revalidate when TTL expired", check.Decision)
	}
}

func TestDecideCorruptedOnUnparseableMetadata(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, MetadataFileName, "not valid toml {{{")
	entry := fdocs.PackageEntry{Name: "x", Repo: "o/r"}

	check, err := Decide(dir, entry, "1.0.0", fdocs.SyncModeLockfile, false, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if check.Decision != DecisionCorrupted {
		t.Errorf("Decision = %v, want Corrupted", check.Decision)
	}
}
