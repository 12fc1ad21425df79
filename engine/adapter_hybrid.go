package engine

import (
	"context"
	"path"

	"github.com/ai-fdocs/fdocs"
)

// HybridAdapter implements spec.md §4.4's hybrid sync mode: changelog-class
// files (CHANGELOG, CHANGES, HISTORY) come from the git-host adapter since
// registries rarely publish them, while README and other docs come from the
// registry archive, which is cheaper to fetch and doesn't need a ref probe.
// If the registry-archive side fails fallback-eligibly, the whole fetch
// falls back to git-host alone. If only the git-host side fails
// fallback-eligibly, the registry-archive files are still returned as a
// degraded partial artifact rather than failing the package outright.
type HybridAdapter struct {
	GitHost  Adapter
	Registry Adapter
}

func (a *HybridAdapter) Fetch(ctx context.Context, entry fdocs.PackageEntry, version string) (*FetchResult, error) {
	registryResult, registryErr := a.Registry.Fetch(ctx, entry, version)
	if registryErr != nil {
		if !isAdapterFallbackEligible(registryErr) {
			return nil, registryErr
		}
		gitResult, gitErr := a.GitHost.Fetch(ctx, entry, version)
		if gitErr != nil {
			return nil, gitErr
		}
		gitResult.SourceKind = SourceKindGitFallback
		gitResult.Degraded = true
		return gitResult, nil
	}

	_, nonChangelog := splitByChangelogClass(registryResult.Files)

	gitResult, gitErr := a.GitHost.Fetch(ctx, entry, version)
	if gitErr != nil {
		if !isAdapterFallbackEligible(gitErr) {
			return nil, gitErr
		}
		// Degrade to a registry-only partial artifact: the changelog-class
		// files simply aren't present. job.go reports this as
		// ReasonHybridPartialNormalizationDegraded, the ReasonCode
		// counterpart of fdocs.KindNormalizationDegraded.
		return &FetchResult{
			Files:      nonChangelog,
			SourceKind: SourceKindMixed,
			GitRef:     registryResult.GitRef,
			Degraded:   true,
		}, nil
	}

	gitChangelogOnly, _ := splitByChangelogClass(gitResult.Files)

	merged := make([]FetchedFile, 0, len(gitChangelogOnly)+len(nonChangelog))
	merged = append(merged, gitChangelogOnly...)
	merged = append(merged, nonChangelog...)
	sortFetchedFiles(merged)
	if len(merged) > maxFetchedFiles {
		merged = merged[:maxFetchedFiles]
	}

	return &FetchResult{
		Files:      merged,
		SourceKind: SourceKindMixed,
		GitRef:     gitResult.GitRef,
		Degraded:   gitResult.Degraded || registryResult.Degraded,
	}, nil
}

// splitByChangelogClass partitions files by changelogBasenameRe, reused from
// the normalizer's own classification of changelog-family files.
func splitByChangelogClass(files []FetchedFile) (changelogClass, rest []FetchedFile) {
	for _, f := range files {
		if changelogBasenameRe.MatchString(path.Base(f.RelPath)) {
			changelogClass = append(changelogClass, f)
		} else {
			rest = append(rest, f)
		}
	}
	return changelogClass, rest
}

// isAdapterFallbackEligible reports whether err should trigger falling back
// to the other half of the hybrid chain, mirroring job.go's own
// fallback-eligibility check on a chained Adapter error.
func isAdapterFallbackEligible(err error) bool {
	ee, ok := fdocs.AsEngineError(err)
	if !ok {
		return false
	}
	return fdocs.IsFallbackEligible(ee.Kind)
}
