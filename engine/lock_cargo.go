package engine

import (
	"github.com/pelletier/go-toml/v2"
)

// cargoLock mirrors Cargo.lock's shape: a flat array of [[package]] tables,
// each with a name and a version. Grounded on the teacher's lock.go
// raw-then-typed conversion idiom (readLock/rawLock/lockedDep), adapted from
// JSON to the real Cargo.lock TOML shape.
type cargoLock struct {
	Package []cargoLockedPackage `toml:"package"`
}

type cargoLockedPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

func readCargoLock(data []byte) (VersionMap, error) {
	var raw cargoLock
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	vm := make(VersionMap, len(raw.Package))
	for _, p := range raw.Package {
		if p.Name == "" {
			continue
		}
		// A dependency can appear more than once in Cargo.lock when
		// multiple major versions are in the graph; first occurrence wins,
		// matching cargo's own listing order (oldest-resolved-first).
		if _, exists := vm[p.Name]; !exists {
			vm[p.Name] = p.Version
		}
	}
	return vm, nil
}
