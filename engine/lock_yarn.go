package engine

import (
	"bufio"
	"bytes"
	"strings"
)

// readYarnLock scans yarn.lock's flat, non-JSON non-YAML text format:
//
//	"<name>@<range>", "<name>@<range2>":
//	  version "X.Y.Z"
//	  ...
//
// There is no structured parser for this format in the pack (it predates
// both JSON and YAML lockfiles), so every pack repo that reads it does the
// same thing: a line-oriented scanner keyed on indentation and the literal
// "version " prefix. Grounded on
// other_examples/76af8e27_ajxudir-goupdate's documented rationale for
// handling yarn's name@version format as a "genuinely unique" special case.
func readYarnLock(data []byte) (VersionMap, error) {
	vm := make(VersionMap)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var pendingNames []string
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimRight(line, " \t")
		switch {
		case trimmed == "" || strings.HasPrefix(trimmed, "#"):
			continue
		case !strings.HasPrefix(line, " ") && strings.HasSuffix(trimmed, ":"):
			// A new dependency block header, e.g.:
			//   "lodash@^4.17.0", lodash@^4.17.21:
			header := strings.TrimSuffix(trimmed, ":")
			pendingNames = yarnBlockNames(header)
		case strings.HasPrefix(trimmed, "  version "):
			version := yarnQuoted(strings.TrimPrefix(trimmed, "  version "))
			for _, name := range pendingNames {
				if _, exists := vm[name]; !exists && name != "" {
					vm[name] = version
				}
			}
			pendingNames = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return vm, nil
}

// yarnBlockNames splits a yarn.lock block header into its comma-separated
// "name@range" specifiers and extracts just the package name from each,
// handling scoped packages ("@scope/name@range").
func yarnBlockNames(header string) []string {
	var names []string
	for _, spec := range strings.Split(header, ",") {
		spec = strings.TrimSpace(yarnQuoted(strings.TrimSpace(spec)))
		names = append(names, yarnNameFromSpec(spec))
	}
	return names
}

func yarnNameFromSpec(spec string) string {
	if strings.HasPrefix(spec, "@") {
		idx := strings.Index(spec[1:], "@")
		if idx < 0 {
			return spec
		}
		return spec[:idx+1]
	}
	idx := strings.Index(spec, "@")
	if idx < 0 {
		return spec
	}
	return spec[:idx]
}

func yarnQuoted(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
