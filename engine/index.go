package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// IndexFileName is the global index rewritten once after every job in a run
// reaches a terminal state, per spec.md §4.6.
const IndexFileName = "_INDEX.md"

// WriteIndex renders _INDEX.md listing every successfully synced or cached
// package in lexicographic order, marking fallback entries with a visible
// suffix. Called exactly once, after all workers finish (the barrier spec.md
// §5 describes).
func WriteIndex(outputDir string, results []JobResult) error {
	entries := make([]JobResult, 0, len(results))
	for _, r := range results {
		if r.Status == StatusSynced || r.Status == StatusSyncedFallback {
			entries = append(entries, r)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	var b strings.Builder
	b.WriteString("# Synced Documentation\n\n")
	for _, e := range entries {
		line := fmt.Sprintf("- [%s@%s](./%s@%s/)", e.Name, e.DocsVersion, e.Name, e.DocsVersion)
		if e.Status == StatusSyncedFallback {
			line += " (fallback)"
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return os.WriteFile(filepath.Join(outputDir, IndexFileName), []byte(b.String()), 0o644)
}
