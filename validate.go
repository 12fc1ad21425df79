package fdocs

// validateConfig enforces the mode-specific rules from spec.md §4.1: in
// lockfile+git-host and in hybrid mode every package must define repo; in
// registry_archive mode repo is optional. Package names must be unique.
func validateConfig(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Packages))
	requireRepo := cfg.Settings.SyncMode == SyncModeHybrid ||
		(cfg.Settings.SyncMode == SyncModeLockfile && cfg.Settings.DocsSource == DocsSourceGitHost)

	for _, pkg := range cfg.Packages {
		if seen[pkg.Name] {
			return NewError(KindInvalidConfig, pkg.Name, "duplicate package name", nil)
		}
		seen[pkg.Name] = true

		if requireRepo && pkg.Repo == "" {
			return NewError(KindInvalidConfig, pkg.Name, "repo is required in this sync_mode/docs_source combination", nil)
		}
	}
	return nil
}
