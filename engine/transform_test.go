package engine

import (
	"strings"
	"testing"
)

func TestTransformIsIdempotent(t *testing.T) {
	in := TransformInput{
		RelPath: "README.md", Content: []byte("# Hello\n\nSome body text.\n"),
		TargetVersion: "1.0.0", MaxFileSizeKB: 512, Source: "git_host", Ref: "v1.0.0",
		FetchedAt: "2026-08-01T00:00:00Z",
	}
	once := Transform(in)

	again := Transform(TransformInput{
		RelPath: in.RelPath, Content: once.Content, TargetVersion: in.TargetVersion,
		MaxFileSizeKB: in.MaxFileSizeKB, Source: in.Source, Ref: in.Ref, FetchedAt: in.FetchedAt,
	})

	if string(again.Content) != string(once.Content) {
		t.Errorf("transform is not idempotent:\nfirst:  %q\nsecond: %q", once.Content, again.Content)
	}
}

func TestTransformFlattensPathSeparators(t *testing.T) {
	out := Transform(TransformInput{RelPath: "docs/guide/intro.md", Content: []byte("x"), MaxFileSizeKB: 512})
	if out.FlatName != "docs__guide__intro.md" {
		t.Errorf("FlatName = %q, want docs__guide__intro.md", out.FlatName)
	}
}

func TestTransformInjectsHeaderForMarkdown(t *testing.T) {
	out := Transform(TransformInput{
		RelPath: "README.md", Content: []byte("body"), Source: "git_host", Ref: "v1.0.0",
		FetchedAt: "2026-08-01T00:00:00Z", MaxFileSizeKB: 512,
	})
	if !strings.Contains(string(out.Content), "source=git_host") {
		t.Errorf("missing provenance header: %q", out.Content)
	}
	if !strings.HasSuffix(string(out.Content), "body") {
		t.Errorf("header injection should prepend, not replace: %q", out.Content)
	}
}

func TestTransformSkipsHeaderForNonMarkdownNonHTML(t *testing.T) {
	out := Transform(TransformInput{RelPath: "LICENSE", Content: []byte("MIT"), MaxFileSizeKB: 512})
	if string(out.Content) != "MIT" {
		t.Errorf("content = %q, want unchanged %q", out.Content, "MIT")
	}
}

func TestCapSizeExactLimitIsNotTruncated(t *testing.T) {
	content := strings.Repeat("a", 1024)
	out := capSize([]byte(content), 1, 0)
	if string(out) != content {
		t.Error("content exactly at the byte limit must not be truncated")
	}
}

func TestCapSizeOneByteOverIsTruncatedWithMarker(t *testing.T) {
	content := strings.Repeat("a", 1025)
	out := capSize([]byte(content), 1, 0)
	if !strings.Contains(string(out), "[TRUNCATED by fdocs at 1KB]") {
		t.Errorf("expected truncation marker, got %q", out)
	}
	// content portion should be <= 1024 bytes; marker is additional.
	if body := strings.TrimSuffix(string(out), "\n[TRUNCATED by fdocs at 1KB]\n"); len(body) > 1024 {
		t.Errorf("content portion = %d bytes, want <= 1024", len(body))
	}
}

func TestCapSizeReservesRoomForAPendingHeader(t *testing.T) {
	content := strings.Repeat("a", 1024)
	out := capSize([]byte(content), 1, 100)
	if len(out) >= 1024 {
		t.Errorf("expected capSize to leave 100 bytes of headroom, got len=%d", len(out))
	}
}

// TestTransformIsIdempotentAtTheSizeCapBoundary exercises the boundary the
// plain 25-byte TestTransformIsIdempotent case never reaches: a body that
// lands exactly at max_file_size_kb*1024 before a header is prepended. If
// capSize didn't reserve room for the header, the header would push the
// first pass's output back over the cap and a second Transform call would
// re-truncate it differently, breaking transform(transform(x)) = transform(x).
func TestTransformIsIdempotentAtTheSizeCapBoundary(t *testing.T) {
	in := TransformInput{
		RelPath: "README.md", Content: []byte(strings.Repeat("a", 1024)),
		TargetVersion: "1.0.0", MaxFileSizeKB: 1, Source: "git_host", Ref: "v1.0.0",
		FetchedAt: "2026-08-01T00:00:00Z",
	}
	once := Transform(in)

	again := Transform(TransformInput{
		RelPath: in.RelPath, Content: once.Content, TargetVersion: in.TargetVersion,
		MaxFileSizeKB: in.MaxFileSizeKB, Source: in.Source, Ref: in.Ref, FetchedAt: in.FetchedAt,
	})

	if string(again.Content) != string(once.Content) {
		t.Errorf("transform is not idempotent at the size cap boundary:\nfirst:  %q\nsecond: %q", once.Content, again.Content)
	}
}

func TestTrimChangelogKeepsCurrentAndPreviousMinor(t *testing.T) {
	changelog := []byte(`
## [0.13.1]
Fixed a bug.

## [0.13.0]
Added a feature.

## [0.12.0]
Initial minor release.

## [0.11.0]
Ancient history.
`)
	out := trimChangelog(changelog, "0.13.1")
	s := string(out)
	for _, want := range []string{"0.13.1", "0.13.0", "0.12.0"} {
		if !strings.Contains(s, want) {
			t.Errorf("trimmed changelog missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "0.11.0") {
		t.Errorf("trimmed changelog should not contain 0.11.0:\n%s", s)
	}
	if !strings.Contains(s, "TRUNCATED") {
		t.Error("trimmed changelog should end with a truncation marker")
	}
}

func TestTrimChangelogUntrimmableContentKeptUnchanged(t *testing.T) {
	plain := []byte("Just a changelog with no recognizable version headings.")
	out := trimChangelog(plain, "1.0.0")
	if string(out) != string(plain) {
		t.Error("untrimmable changelog content must be kept unchanged")
	}
}
