package fdocs

import (
	"io"

	"github.com/pelletier/go-toml/v2"
)

// ConfigName is the project-root configuration file read by every command.
const ConfigName = "fdocs.toml"

// DocsSource selects which adapter chain an ecosystem profile defaults to.
type DocsSource string

const (
	DocsSourceRegistryArchive DocsSource = "registry_archive"
	DocsSourceGitHost         DocsSource = "git_host"
)

// SyncMode selects how target versions are produced.
type SyncMode string

const (
	SyncModeLockfile   SyncMode = "lockfile"
	SyncModeLatestDocs SyncMode = "latest_docs"
	SyncModeHybrid     SyncMode = "hybrid"
)

// Profile is the ecosystem axis (resolves spec.md Open Questions 1 and 2):
// it selects the default output directory and which lockfile/registry
// shapes are consulted.
type Profile string

const (
	ProfileRust Profile = "rust"
	ProfileNode Profile = "node"
)

// PackageEntry is one configured documentation-mirroring unit.
type PackageEntry struct {
	Name    string
	Repo    string
	Subpath string
	Files   []string
	AINotes string
}

// ExplicitFileSet returns the configured `files` as a lookup set, and
// whether the entry declared one at all (as opposed to falling back to the
// adapters' preferred-set default).
func (p PackageEntry) ExplicitFileSet() (set map[string]bool, explicit bool) {
	if len(p.Files) == 0 {
		return nil, false
	}
	set = make(map[string]bool, len(p.Files))
	for _, f := range p.Files {
		set[f] = true
	}
	return set, true
}

// Settings holds the project-wide options recognized in fdocs.toml.
type Settings struct {
	Profile         Profile
	OutputDir       string
	MaxFileSizeKB   int
	Prune           bool
	SyncConcurrency int
	DocsSource      DocsSource
	SyncMode        SyncMode
	LatestTTLHours  int
}

// Config is the fully validated, defaulted project configuration.
type Config struct {
	Settings Settings
	Packages []PackageEntry
}

// defaultOutputDir implements SPEC_FULL.md's Ecosystem profile resolution of
// spec.md's Open Questions 1/2: "<name>@<version>" always lives directly
// under the resolved output_dir, never under a further per-ecosystem
// subfolder.
func defaultOutputDir(p Profile) string {
	switch p {
	case ProfileNode:
		return "fdocs/node"
	default:
		return "fdocs/rust"
	}
}

func defaultMaxFileSizeKB(p Profile) int {
	if p == ProfileNode {
		return 200
	}
	return 512
}

// rawConfig mirrors the teacher's toml.go/registry_config.go idiom: decode
// into a raw, loosely-typed shape first, then convert and validate.
type rawConfig struct {
	Profile  string                   `toml:"profile"`
	Settings rawSettings              `toml:"settings"`
	Packages map[string]rawPackage    `toml:"packages"`
	Sources  []rawLegacySource        `toml:"sources"`
}

type rawSettings struct {
	OutputDir                    string `toml:"output_dir"`
	MaxFileSizeKB                int    `toml:"max_file_size_kb"`
	Prune                        *bool  `toml:"prune"`
	SyncConcurrency              int    `toml:"sync_concurrency"`
	DocsSource                   string `toml:"docs_source"`
	SyncMode                     string `toml:"sync_mode"`
	LatestTTLHours               int    `toml:"latest_ttl_hours"`
	ExperimentalRegistryArchive  *bool  `toml:"experimental_registry_archive"`
}

type rawPackage struct {
	Repo    string   `toml:"repo"`
	Subpath string   `toml:"subpath"`
	Files   []string `toml:"files"`
	AINotes string   `toml:"ai_notes"`
}

// rawLegacySource is the historical `sources = [{type=..., repo=...}]` shape,
// accepted without warning per spec.md §4.1.
type rawLegacySource struct {
	Type string `toml:"type"`
	Repo string `toml:"repo"`
	Name string `toml:"name"`
}

// LoadConfig reads and validates fdocs.toml from r, applying ecosystem
// defaults and legacy-alias normalization.
func LoadConfig(r io.Reader, profile Profile) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, NewError(KindIO, "", "reading config", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, NewError(KindInvalidConfig, "", "parsing "+ConfigName+" as TOML", err)
	}

	if raw.Profile != "" {
		profile = Profile(raw.Profile)
	}
	if profile != ProfileRust && profile != ProfileNode {
		return nil, NewError(KindInvalidConfig, "", "profile must be \"rust\" or \"node\"", nil)
	}

	cfg := &Config{}
	cfg.Settings, err = toSettings(raw.Settings, profile)
	if err != nil {
		return nil, err
	}

	legacyRepo := map[string]string{}
	for _, src := range raw.Sources {
		if src.Name != "" && src.Repo != "" {
			legacyRepo[src.Name] = src.Repo
		}
	}

	for name, rp := range raw.Packages {
		if name == "" {
			return nil, NewError(KindInvalidConfig, "", "package entry has empty name", nil)
		}
		entry := PackageEntry{
			Name:    name,
			Repo:    rp.Repo,
			Subpath: rp.Subpath,
			Files:   rp.Files,
			AINotes: rp.AINotes,
		}
		if entry.Repo == "" {
			if lr, ok := legacyRepo[name]; ok {
				entry.Repo = lr
			}
		}
		for _, f := range entry.Files {
			if f == "" {
				return nil, NewError(KindInvalidConfig, name, "files must be non-empty strings", nil)
			}
		}
		cfg.Packages = append(cfg.Packages, entry)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func toSettings(raw rawSettings, profile Profile) (Settings, error) {
	s := Settings{
		Profile:         profile,
		OutputDir:       raw.OutputDir,
		MaxFileSizeKB:   raw.MaxFileSizeKB,
		Prune:           true,
		SyncConcurrency: 8,
		SyncMode:        SyncModeLockfile,
		LatestTTLHours:  24,
	}
	if s.OutputDir == "" {
		s.OutputDir = defaultOutputDir(profile)
	}
	if s.MaxFileSizeKB == 0 {
		s.MaxFileSizeKB = defaultMaxFileSizeKB(profile)
	} else if s.MaxFileSizeKB < 0 {
		return s, NewError(KindInvalidConfig, "", "max_file_size_kb must be a positive integer", nil)
	}
	if raw.Prune != nil {
		s.Prune = *raw.Prune
	}
	if raw.SyncConcurrency != 0 {
		s.SyncConcurrency = raw.SyncConcurrency
	}
	if s.SyncConcurrency < 1 || s.SyncConcurrency > 50 {
		return s, NewError(KindInvalidConfig, "", "sync_concurrency must be in [1, 50]", nil)
	}
	if raw.LatestTTLHours != 0 {
		s.LatestTTLHours = raw.LatestTTLHours
		if s.LatestTTLHours < 0 {
			return s, NewError(KindInvalidConfig, "", "latest_ttl_hours must be a positive integer", nil)
		}
	}

	// docs_source: explicit value wins over the legacy boolean alias.
	switch {
	case raw.DocsSource != "":
		s.DocsSource = DocsSource(raw.DocsSource)
	case raw.ExperimentalRegistryArchive != nil && *raw.ExperimentalRegistryArchive:
		s.DocsSource = DocsSourceRegistryArchive
	case raw.ExperimentalRegistryArchive != nil:
		s.DocsSource = DocsSourceGitHost
	default:
		if profile == ProfileNode {
			s.DocsSource = DocsSourceRegistryArchive
		} else {
			s.DocsSource = DocsSourceGitHost
		}
	}
	if s.DocsSource != DocsSourceRegistryArchive && s.DocsSource != DocsSourceGitHost {
		return s, NewError(KindInvalidConfig, "", "docs_source must be \"registry_archive\" or \"git_host\"", nil)
	}

	if raw.SyncMode != "" {
		s.SyncMode = SyncMode(raw.SyncMode)
	}
	switch s.SyncMode {
	case SyncModeLockfile, SyncModeLatestDocs, SyncModeHybrid:
	default:
		return s, NewError(KindInvalidConfig, "", "sync_mode must be \"lockfile\", \"latest_docs\", or \"hybrid\"", nil)
	}

	return s, nil
}
