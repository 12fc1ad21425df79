package engine

import (
	"time"

	"github.com/ai-fdocs/fdocs"
)

// Decision is the outcome of the cache index's pure, network-free check
// (spec.md §4.3).
type Decision string

const (
	DecisionHit        Decision = "hit"
	DecisionMiss       Decision = "miss"
	DecisionRevalidate Decision = "revalidate"
	DecisionCorrupted  Decision = "corrupted"
)

// CacheCheck holds the inputs and outcome of one package's cache decision.
type CacheCheck struct {
	Decision    Decision
	Fingerprint string
	Existing    *Metadata // nil unless a (possibly stale) record was read
}

// Decide implements the cache decision table of spec.md §4.3. It never
// touches the network: pkgDir is a local path, and `now`/`force` are the
// only other inputs besides the on-disk metadata.
func Decide(pkgDir string, entry fdocs.PackageEntry, targetVersion string, mode fdocs.SyncMode, force bool, now time.Time) (CacheCheck, error) {
	fp := Fingerprint(entry)

	if force {
		return CacheCheck{Decision: DecisionMiss, Fingerprint: fp}, nil
	}

	meta, err := ReadMetadata(pkgDir)
	if err != nil {
		// Parse failure or unknown future schema_version: corrupted, treated
		// as a miss that forces a refresh.
		return CacheCheck{Decision: DecisionCorrupted, Fingerprint: fp}, nil
	}
	if meta == nil {
		return CacheCheck{Decision: DecisionMiss, Fingerprint: fp}, nil
	}

	if meta.Version != targetVersion {
		return CacheCheck{Decision: DecisionMiss, Fingerprint: fp, Existing: meta}, nil
	}
	if meta.ConfigHash != "" && meta.ConfigHash != fp {
		return CacheCheck{Decision: DecisionMiss, Fingerprint: fp, Existing: meta}, nil
	}

	if mode == fdocs.SyncModeLatestDocs && meta.TTLExpiresAt != "" {
		expires, err := time.Parse(time.RFC3339, meta.TTLExpiresAt)
		if err == nil && now.After(expires) {
			return CacheCheck{Decision: DecisionRevalidate, Fingerprint: fp, Existing: meta}, nil
		}
	}

	return CacheCheck{Decision: DecisionHit, Fingerprint: fp, Existing: meta}, nil
}
