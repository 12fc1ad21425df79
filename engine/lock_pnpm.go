package engine

import (
	"regexp"

	"gopkg.in/yaml.v3"
)

// pnpmLock mirrors pnpm-lock.yaml's "packages" map, whose keys look like
// "/<name>@<version>(peerDepSuffix)" or, in newer lockfile versions,
// "<name>@<version>". Grounded on gopkg.in/yaml.v3, used for exactly this
// kind of structured-YAML decode by both vjache-cie and jra3-linear-fuse in
// the pack.
type pnpmLockFile struct {
	Packages map[string]yaml.Node `yaml:"packages"`
}

var pnpmKeyRe = regexp.MustCompile(`^/?(@[^/]+/[^@]+|[^@/]+)@([^(]+)`)

func readPnpmLock(data []byte) (VersionMap, error) {
	var raw pnpmLockFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	vm := make(VersionMap, len(raw.Packages))
	for key := range raw.Packages {
		m := pnpmKeyRe.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		name, version := m[1], m[2]
		if _, exists := vm[name]; !exists {
			vm[name] = version
		}
	}
	return vm, nil
}
