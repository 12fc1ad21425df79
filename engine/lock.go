package engine

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/ai-fdocs/fdocs"
)

// VersionMap is the unordered name -> exact version mapping produced by the
// lock resolver (spec.md §3).
type VersionMap map[string]string

// lockfileReaders pairs a file name with the reader that understands it. First
// present wins (spec.md §4.2/§6), in this order: Cargo.lock, then
// package-lock.json, then pnpm-lock.yaml, then yarn.lock.
var lockfileReaders = []struct {
	name string
	read func([]byte) (VersionMap, error)
}{
	{"Cargo.lock", readCargoLock},
	{"package-lock.json", readNpmLock},
	{"pnpm-lock.yaml", readPnpmLock},
	{"yarn.lock", readYarnLock},
}

// ResolveLockfile implements C2's lockfile mode: it reads the first
// recognized lockfile shape present at root and returns name -> version.
func ResolveLockfile(root string) (VersionMap, string, error) {
	for _, lf := range lockfileReaders {
		path := filepath.Join(root, lf.name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, "", &fdocs.EngineError{Kind: fdocs.KindIO, Err: errors.Wrapf(err, "reading %s", path)}
		}
		vm, err := lf.read(data)
		if err != nil {
			return nil, "", &fdocs.EngineError{Kind: fdocs.KindLockfileNotFound, Err: errors.Wrapf(err, "parsing %s", path)}
		}
		return vm, lf.name, nil
	}
	return nil, "", &fdocs.EngineError{Kind: fdocs.KindLockfileNotFound, Err: errors.Errorf("no recognized lockfile found in %s", root)}
}

// InferProfile guesses the ecosystem profile from which lockfile shape is
// present. `fdocs init` uses it to choose the profile it writes into a new
// fdocs.toml when --profile is not given. sync, status and check do not
// call it: they load an fdocs.toml without `profile` as the Rust profile.
func InferProfile(root string) (fdocs.Profile, bool) {
	if ok, _ := fdocs.IsRegular(filepath.Join(root, "Cargo.lock")); ok {
		return fdocs.ProfileRust, true
	}
	for _, name := range []string{"package-lock.json", "pnpm-lock.yaml", "yarn.lock"} {
		if ok, _ := fdocs.IsRegular(filepath.Join(root, name)); ok {
			return fdocs.ProfileNode, true
		}
	}
	return "", false
}
