package engine

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// TransformInput bundles everything C5 needs to turn one fetched file into
// a persisted artifact, per spec.md §4.5.
type TransformInput struct {
	RelPath       string
	Content       []byte
	TargetVersion string
	MaxFileSizeKB int
	Source        string // e.g. "git_host", "registry_archive"
	Ref           string
	IsFallback    bool
	FetchedAt     string // RFC3339
}

// TransformedFile is C5's output: a flattened on-disk filename plus the
// final bytes to persist.
type TransformedFile struct {
	FlatName string
	Content  []byte
}

var changelogBasenameRe = regexp.MustCompile(`(?i)^(changelog|changes|history)(\.[a-z0-9]+)?$`)

// Transform runs the four-stage pipeline (changelog trim, size cap, header
// injection, filename flattening) on one fetched file. Grounded on the
// teacher's pkg_analysis.go/deduce.go line-and-regex scanning idiom, adapted
// from Go-source import scanning to changelog-heading and truncation-
// boundary scanning. Pure function: identical input and config always
// produce identical output (spec.md §4.5).
func Transform(in TransformInput) TransformedFile {
	content := in.Content

	if changelogBasenameRe.MatchString(path.Base(in.RelPath)) {
		content = trimChangelog(content, in.TargetVersion)
	}

	// capSize runs before header injection (spec.md §4.5), but a header
	// injected afterward would push content already sitting right at the
	// cap over it. Reserve room for the header up front -- unless it's
	// already present from a prior Transform pass, in which case it's
	// already counted in len(content) and injectHeader below is a no-op.
	reserve := 0
	injectable := isHeaderInjectable(in.RelPath)
	if injectable && !bytesHasPrefix(content, headerFieldPrefix) {
		reserve = len(buildHeader(in))
	}
	content = capSize(content, in.MaxFileSizeKB, reserve)

	if injectable {
		content = injectHeader(content, in)
	}

	return TransformedFile{FlatName: flattenPath(in.RelPath), Content: content}
}

// changelogHeadingRe matches lines `#{1,3} ... [v]?X.Y.Z[-pre]?`, capturing
// the version token, per spec.md §4.5 rule 1.
var changelogHeadingRe = regexp.MustCompile(`(?m)^#{1,3}\s.*?\[?v?(\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?)\]?`)

const changelogTruncationMarker = "\n\n[TRUNCATED: older entries omitted]\n"

// trimChangelog keeps the target version's minor series plus the
// immediately previous minor series, splitting on detected version
// headings. Content with no recognizable headings is returned unchanged.
func trimChangelog(content []byte, targetVersion string) []byte {
	target, err := semver.NewVersion(targetVersion)
	if err != nil {
		return content
	}
	keepMinors := map[string]bool{
		minorKey(target.Major(), target.Minor()):     true,
		minorKey(target.Major(), prevMinor(target)):  true,
	}

	locs := changelogHeadingRe.FindAllSubmatchIndex(content, -1)
	if len(locs) == 0 {
		return content // untrimmable: no recognizable heading structure
	}

	var kept strings.Builder
	anyDropped := false
	for i, loc := range locs {
		start := loc[0]
		end := len(content)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		verStr := string(content[loc[2]:loc[3]])
		v, err := semver.NewVersion(verStr)
		if err != nil {
			continue
		}
		if keepMinors[minorKey(v.Major(), v.Minor())] {
			kept.Write(content[start:end])
		} else {
			anyDropped = true
		}
	}

	if kept.Len() == 0 {
		return content // nothing matched the keep window: treat as untrimmable
	}
	if !anyDropped {
		return content
	}

	out := kept.String() + changelogTruncationMarker
	return []byte(out)
}

func minorKey(major, minor uint64) string {
	return fmt.Sprintf("%d.%d", major, minor)
}

// prevMinor returns the minor version immediately before v's, or v's own
// minor again (a no-op duplicate key) at the 0 boundary since there is no
// earlier minor series to keep.
func prevMinor(v *semver.Version) uint64 {
	if v.Minor() == 0 {
		return 0
	}
	return v.Minor() - 1
}

// truncationMarkerRe recognizes a marker capSize already appended, the way
// headerFieldPrefix lets injectHeader recognize its own prior output:
// content that already ends in one is left alone on a later Transform pass
// rather than truncated a second time at a possibly different boundary.
var truncationMarkerRe = regexp.MustCompile(`\n\[TRUNCATED by fdocs at \d+KB\]\n$`)

// capSize truncates content exceeding maxKB*1024 bytes at a safe boundary
// (never inside a fenced code block), appending the stable marker. Content
// exactly at the limit is left untouched, per spec.md's boundary case.
// reserve shrinks the effective limit by the byte length of a header that
// will be prepended after capSize returns, so the final on-disk file, not
// counting an appended truncation marker, never exceeds the configured cap,
// and a second Transform pass never re-truncates
// it (spec.md §8's transform(transform(bytes)) = transform(bytes) law).
func capSize(content []byte, maxKB, reserve int) []byte {
	if truncationMarkerRe.Match(content) {
		return content
	}

	limit := maxKB*1024 - reserve
	if maxKB <= 0 || len(content) <= limit {
		return content
	}

	boundary := safeTruncationBoundary(content, limit)
	marker := fmt.Sprintf("\n[TRUNCATED by fdocs at %dKB]\n", maxKB)
	out := make([]byte, 0, boundary+len(marker))
	out = append(out, content[:boundary]...)
	out = append(out, marker...)
	return out
}

// safeTruncationBoundary finds the last paragraph or section break at or
// before limit that isn't inside a fenced (```) code block. Falls back to
// the raw byte limit if no such boundary exists.
func safeTruncationBoundary(content []byte, limit int) int {
	if limit >= len(content) {
		return len(content)
	}
	window := content[:limit]

	fenceCount := strings.Count(string(window), "```")
	insideFence := fenceCount%2 == 1

	if !insideFence {
		if idx := strings.LastIndex(string(window), "\n\n"); idx > 0 {
			return idx
		}
	}

	// Either inside a fence or no paragraph break found: back up to the
	// start of the fence that contains limit, if any, else to the last
	// newline before limit.
	if insideFence {
		if idx := strings.LastIndex(string(window), "```"); idx > 0 {
			return idx
		}
	}
	if idx := strings.LastIndex(string(window), "\n"); idx > 0 {
		return idx
	}
	return limit
}

func isHeaderInjectable(relPath string) bool {
	ext := strings.ToLower(path.Ext(relPath))
	return ext == ".md" || ext == ".html" || ext == ".htm"
}

// headerFieldPrefix opens every injected provenance comment; its presence at
// the start of content is how injectHeader recognizes it already ran, so a
// second Transform pass never stacks a duplicate header (spec.md §8's
// transform(transform(bytes)) = transform(bytes) law).
const headerFieldPrefix = "<!-- source="

// injectHeader prepends a provenance comment, in the comment syntax
// appropriate to the file type, per spec.md §4.5 rule 3. A no-op if content
// already starts with a provenance header.
func injectHeader(content []byte, in TransformInput) []byte {
	if bytesHasPrefix(content, headerFieldPrefix) {
		return content
	}

	header := buildHeader(in)
	out := make([]byte, 0, len(header)+len(content))
	out = append(out, header...)
	out = append(out, content...)
	return out
}

// buildHeader renders the provenance comment injectHeader prepends, broken
// out so capSize can learn its length before it's actually added.
func buildHeader(in TransformInput) []byte {
	fields := fmt.Sprintf("source=%s ref=%s path=%s fetched_date=%s", in.Source, in.Ref, in.RelPath, in.FetchedAt)
	header := fmt.Sprintf("<!-- %s -->\n", fields)
	if in.IsFallback {
		header += "<!-- warning: version tag not found, mirrored from fallback ref -->\n"
	}
	return []byte(header)
}

func bytesHasPrefix(content []byte, prefix string) bool {
	return len(content) >= len(prefix) && string(content[:len(prefix)]) == prefix
}

// flattenPath replaces path separators with "__", per spec.md §4.5 rule 4.
// Originals are unique within a package, so the flattened names are too.
func flattenPath(relPath string) string {
	return strings.ReplaceAll(relPath, "/", "__")
}
