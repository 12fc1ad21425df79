package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/ai-fdocs/fdocs"
)

// AdapterChain is the ordered list of adapters tried for one package,
// spec.md §4.4's "tagged variant plus per-mode chain" design note.
type AdapterChain []Adapter

// Job drives a single package entry through the state machine described in
// spec.md §4.6. One Job never touches another package's files; the only
// shared resource across jobs is the output root, and jobs write to
// disjoint, package-identified subdirectories until the final rename.
type Job struct {
	Entry      fdocs.PackageEntry
	OutputDir  string
	Mode       fdocs.SyncMode
	Force      bool
	Now        time.Time
	ConfigHash string // this package's own fingerprint-derived hash
	Chain      AdapterChain
	SourceKind SourceKind // expected SourceKind the chain represents, for reporting

	maxFileSizeKB int
}

// WithMaxFileSizeKB sets the size cap C5 enforces on this job's fetched
// files, carried from Settings.MaxFileSizeKB.
func (j *Job) WithMaxFileSizeKB(kb int) *Job {
	j.maxFileSizeKB = kb
	return j
}

// Run executes one package's full lifecycle: decide, fetch (with chain
// fallback), transform, commit. Every outcome, including a context
// cancellation during fetch, is encoded in the returned JobResult.
func (j *Job) Run(ctx context.Context, targetVersion string, hasLockEntry bool) JobResult {
	name := j.Entry.Name

	if !hasLockEntry {
		return JobResult{
			Name: name, State: StateNotInLock, Status: StatusMissing,
			Reason: "package not present in lockfile or registry resolve failed",
			ReasonCode: ReasonLockfileMissing, Mode: j.Mode,
		}
	}

	pkgDir := filepath.Join(j.OutputDir, dirName(name, targetVersion))

	check, err := Decide(pkgDir, j.Entry, targetVersion, j.Mode, j.Force, j.Now)
	if err != nil {
		return j.failed(name, targetVersion, fdocs.KindIO, err)
	}

	if check.Decision == DecisionHit {
		return JobResult{
			Name: name, State: StateCommitted, Status: statusForHit(check.Existing),
			LockVersion: targetVersion, DocsVersion: check.Existing.Version,
			Reason: "cache hit", ReasonCode: reasonForHit(j.Mode, check.Existing),
			Mode: j.Mode, SourceKind: check.Existing.SourceKind, IsFallback: check.Existing.IsFallback,
		}
	}

	result, fetchErr := j.fetchWithFallback(ctx, targetVersion)
	if fetchErr != nil {
		return j.failed(name, targetVersion, classifyErr(fetchErr), fetchErr)
	}
	if len(result.Files) == 0 {
		return JobResult{
			Name: name, State: StateSkipped, Status: StatusMissing,
			LockVersion: targetVersion, Reason: "fetch returned no files",
			ReasonCode: ReasonLockfileMissing, Mode: j.Mode,
		}
	}

	fetchedAt := j.Now.UTC().Format(time.RFC3339)
	transformed := make([]TransformedFile, 0, len(result.Files))
	for _, f := range result.Files {
		transformed = append(transformed, Transform(TransformInput{
			RelPath: f.RelPath, Content: f.Content, TargetVersion: targetVersion,
			MaxFileSizeKB: maxFileSizeKBFromCtx(j), Source: string(result.SourceKind),
			Ref: result.GitRef, IsFallback: result.Degraded, FetchedAt: fetchedAt,
		}))
	}

	meta := &Metadata{
		SchemaVersion: CurrentSchemaVersion,
		Version:       targetVersion,
		GitRef:        result.GitRef,
		IsFallback:    result.Degraded,
		FetchedAt:     fetchedAt,
		ConfigHash:    j.ConfigHash,
		SourceKind:    result.SourceKind,
	}
	if j.Mode == fdocs.SyncModeLatestDocs {
		meta.SyncMode = string(j.Mode)
		meta.UpstreamCheckedAt = fetchedAt
		ttl := j.Now.Add(24 * time.Hour).UTC().Format(time.RFC3339)
		meta.TTLExpiresAt = ttl
	}

	if err := commitPackage(pkgDir, transformed, meta, j.Entry); err != nil {
		return j.failed(name, targetVersion, fdocs.KindAtomicityFail, err)
	}

	status := StatusSynced
	reasonCode := lockfileReasonFor(j.Mode)
	if result.Degraded {
		status = StatusSyncedFallback
		if result.SourceKind == SourceKindMixed {
			reasonCode = ReasonHybridPartialNormalizationDegraded
		} else {
			reasonCode = fallbackReasonFor(j.Mode)
		}
	}
	return JobResult{
		Name: name, State: StateCommitted, Status: status,
		LockVersion: targetVersion, DocsVersion: targetVersion,
		Reason: "synced", ReasonCode: reasonCode, Mode: j.Mode,
		SourceKind: result.SourceKind, IsFallback: result.Degraded,
	}
}

// fetchWithFallback tries each adapter in the chain in order, moving to the
// next only when the failure's Kind is fallback-eligible (spec.md §7).
func (j *Job) fetchWithFallback(ctx context.Context, targetVersion string) (*FetchResult, error) {
	var lastErr error
	for _, adapter := range j.Chain {
		res, err := adapter.Fetch(ctx, j.Entry, targetVersion)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !fdocs.IsFallbackEligible(classifyErr(err)) {
			return nil, err
		}
	}
	return nil, lastErr
}

func classifyErr(err error) fdocs.Kind {
	if ee, ok := fdocs.AsEngineError(err); ok {
		return ee.Kind
	}
	return fdocs.KindUnknown
}

func (j *Job) failed(name, targetVersion string, kind fdocs.Kind, err error) JobResult {
	return JobResult{
		Name: name, State: StateFailed, Status: StatusMissing,
		LockVersion: targetVersion, Reason: err.Error(), ReasonCode: ReasonLockfileMissing,
		Mode: j.Mode, ErrorKind: kind,
	}
}

func statusForHit(m *Metadata) Status {
	if m != nil && m.IsFallback {
		return StatusSyncedFallback
	}
	return StatusSynced
}

func reasonForHit(mode fdocs.SyncMode, m *Metadata) ReasonCode {
	if mode == fdocs.SyncModeLatestDocs {
		return ReasonLatestCacheHitTTL
	}
	return ReasonLockfileOk
}

func lockfileReasonFor(mode fdocs.SyncMode) ReasonCode {
	if mode == fdocs.SyncModeLatestDocs {
		return ReasonLatestOkRendered
	}
	return ReasonLockfileOk
}

func fallbackReasonFor(mode fdocs.SyncMode) ReasonCode {
	if mode == fdocs.SyncModeLatestDocs {
		return ReasonLatestOkFallback
	}
	return ReasonLockfileOk
}

func dirName(name, version string) string {
	return fmt.Sprintf("%s@%s", name, version)
}

// maxFileSizeKBFromCtx exists only so Job.Run doesn't need an extra field
// threaded through every call site; the orchestrator sets it once per run.
func maxFileSizeKBFromCtx(j *Job) int {
	if j.maxFileSizeKB > 0 {
		return j.maxFileSizeKB
	}
	return 512
}

// commitPackage writes every transformed file plus metadata and summary
// into a temp sibling directory, then atomically swaps it into place.
// Grounded on the teacher's txn_writer.go SafeWriter.Write/renameWithFallback
// shape, via fdocs.RenameWithFallback.
func commitPackage(finalDir string, files []TransformedFile, meta *Metadata, entry fdocs.PackageEntry) error {
	tmpDir := finalDir + ".tmp-" + randSuffix(finalDir)
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return errors.Wrap(err, "creating staging directory")
	}
	defer os.RemoveAll(tmpDir)

	for _, f := range files {
		if err := os.WriteFile(filepath.Join(tmpDir, f.FlatName), f.Content, 0o644); err != nil {
			return errors.Wrapf(err, "writing %s", f.FlatName)
		}
	}
	if err := WriteMetadata(tmpDir, meta); err != nil {
		return err
	}
	if err := writeSummary(tmpDir, entry, meta, files); err != nil {
		return err
	}

	return swapDirectory(tmpDir, finalDir)
}

// swapDirectory moves tmpDir into finalDir's place atomically from a
// reader's perspective. A direct rename onto an existing non-empty
// directory fails on most platforms, so when finalDir already exists it is
// first moved aside, then removed only after tmpDir has taken its place —
// the three-phase rename spec.md §9 prescribes for platforms without an
// OS-level directory swap.
func swapDirectory(tmpDir, finalDir string) error {
	exists, err := fdocs.IsDir(finalDir)
	if err != nil {
		return errors.Wrapf(err, "checking existing directory %s", finalDir)
	}
	if !exists {
		return fdocs.RenameWithFallback(tmpDir, finalDir)
	}

	oldDir := finalDir + ".old-" + randSuffix(finalDir)
	if err := fdocs.RenameWithFallback(finalDir, oldDir); err != nil {
		return errors.Wrapf(err, "moving previous %s aside", finalDir)
	}
	if err := fdocs.RenameWithFallback(tmpDir, finalDir); err != nil {
		// Best-effort restore of the previous committed state.
		_ = fdocs.RenameWithFallback(oldDir, finalDir)
		return errors.Wrapf(err, "swapping in new %s", finalDir)
	}
	return os.RemoveAll(oldDir)
}

// randSuffix derives a short, deterministic-per-call suffix from the target
// path and current time so concurrent jobs for different packages never
// collide; it need not be cryptographically random.
func randSuffix(seed string) string {
	h := sha256.Sum256([]byte(seed + time.Now().String()))
	return hex.EncodeToString(h[:4])
}
