package engine

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/ai-fdocs/fdocs"
)

// MetadataFileName is the per-package metadata record persisted alongside
// the mirrored documentation files.
const MetadataFileName = ".aifd-meta.toml"

// CurrentSchemaVersion is the highest metadata schema this engine
// understands. Records with a newer schema_version are treated as
// corrupted (spec.md §3) rather than rejected with a hard error, so a
// future format never crashes an older engine.
const CurrentSchemaVersion = 2

// SourceKind classifies which adapter (or combination) produced an
// artifact, recorded in the metadata of every sync and reported in
// statuses[].
type SourceKind string

const (
	SourceKindGitHost         SourceKind = "git_host"
	SourceKindRendered        SourceKind = "rendered"
	SourceKindGitFallback     SourceKind = "git_fallback"
	SourceKindMixed           SourceKind = "mixed"
	SourceKindRegistryArchive SourceKind = "registry_archive"
)

// Metadata is the persisted .aifd-meta.toml record (spec.md §3).
type Metadata struct {
	SchemaVersion int    `toml:"schema_version"`
	Version       string `toml:"version"`
	GitRef        string `toml:"git_ref"`
	IsFallback    bool   `toml:"is_fallback"`
	FetchedAt     string `toml:"fetched_at"`
	ConfigHash    string `toml:"config_hash"`

	// Optional fields, omitted when empty. Job.Run writes source_kind on
	// every sync, and sync_mode, upstream_checked_at and ttl_expires_at in
	// latest_docs mode only.
	SyncMode             string     `toml:"sync_mode,omitempty"`
	SourceKind            SourceKind `toml:"source_kind,omitempty"`
	UpstreamLatestVersion string     `toml:"upstream_latest_version,omitempty"`
	UpstreamCheckedAt     string     `toml:"upstream_checked_at,omitempty"`
	TTLExpiresAt          string     `toml:"ttl_expires_at,omitempty"`
	ArtifactFormat        string     `toml:"artifact_format,omitempty"`
	ArtifactBytes         int64      `toml:"artifact_bytes,omitempty"`
	ArtifactSHA256        string     `toml:"artifact_sha256,omitempty"`
	Truncated             bool       `toml:"truncated,omitempty"`
}

// GitRefSentinel is the reference token used by the registry-archive
// adapter, which has no VCS tag to report.
const GitRefSentinel = "registry-archive"

// ReadMetadata reads and parses the metadata record for a package directory.
// Per spec.md §4.3: a missing file is reported distinctly from a file that
// fails to parse or that declares an unsupported future schema_version
// (both of which the caller should treat as "corrupted", never crash).
func ReadMetadata(pkgDir string) (*Metadata, error) {
	path := filepath.Join(pkgDir, MetadataFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	var m Metadata
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, &fdocs.EngineError{Kind: fdocs.KindIO, Err: errors.Wrapf(err, "parsing %s", path)}
	}
	if m.SchemaVersion > CurrentSchemaVersion {
		return nil, &fdocs.EngineError{Kind: fdocs.KindIO, Err: errors.Errorf("%s: unsupported schema_version %d", path, m.SchemaVersion)}
	}
	return &m, nil
}

// WriteMetadata serializes m as TOML into dir/MetadataFileName.
func WriteMetadata(dir string, m *Metadata) error {
	if m.SchemaVersion == 0 {
		m.SchemaVersion = CurrentSchemaVersion
	}
	data, err := toml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "marshaling metadata to TOML")
	}
	return os.WriteFile(filepath.Join(dir, MetadataFileName), data, 0o644)
}
