package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ai-fdocs/fdocs"
)

// SummaryFileName is the per-package local index written alongside the
// mirrored files, per spec.md §3.
const SummaryFileName = "_SUMMARY.md"

// writeSummary renders _SUMMARY.md: an AI-notes section, a files table, and
// a provenance block, matching the on-disk layout spec.md §3/§6 describe.
func writeSummary(dir string, entry fdocs.PackageEntry, meta *Metadata, files []TransformedFile) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s@%s\n\n", entry.Name, meta.Version)

	if entry.AINotes != "" {
		b.WriteString("## AI Notes\n\n")
		b.WriteString(entry.AINotes)
		b.WriteString("\n\n")
	}

	b.WriteString("## Files\n\n")
	b.WriteString("| file | bytes |\n|---|---|\n")
	for _, f := range files {
		fmt.Fprintf(&b, "| %s | %d |\n", f.FlatName, len(f.Content))
	}
	b.WriteString("\n")

	b.WriteString("## Provenance\n\n")
	fmt.Fprintf(&b, "- repo: %s\n", entry.Repo)
	fmt.Fprintf(&b, "- ref: %s\n", meta.GitRef)
	fmt.Fprintf(&b, "- source_kind: %s\n", meta.SourceKind)
	fmt.Fprintf(&b, "- fetched_at: %s\n", meta.FetchedAt)
	if meta.IsFallback {
		b.WriteString("- fallback: true (version tag not found, mirrored from fallback ref)\n")
	}

	return os.WriteFile(filepath.Join(dir, SummaryFileName), []byte(b.String()), 0o644)
}
