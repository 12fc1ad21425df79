package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"

	"github.com/ai-fdocs/fdocs"
)

// registryEndpoint returns the metadata URL for a package under the given
// ecosystem profile. crates.io and the npm registry both expose a single
// GET-able JSON document listing every published version, matching the
// resolveNPM/resolvePyPI pattern used by the pack's ralph resolver.
func registryEndpoint(profile fdocs.Profile, name string) (string, error) {
	switch profile {
	case fdocs.ProfileRust:
		return fmt.Sprintf("https://crates.io/api/v1/crates/%s", name), nil
	case fdocs.ProfileNode:
		return fmt.Sprintf("https://registry.npmjs.org/%s", name), nil
	default:
		return "", errors.Errorf("unknown profile %q", profile)
	}
}

type crateVersion struct {
	Num   string `json:"num"`
	Yanked bool  `json:"yanked"`
}

type crateResponse struct {
	Versions []crateVersion `json:"versions"`
}

type npmDistTags struct {
	Latest string `json:"latest"`
}

type npmRegistryResponse struct {
	DistTags npmDistTags        `json:"dist-tags"`
	Versions map[string]any     `json:"versions"`
}

// ResolveLatestVersion queries the configured ecosystem's registry for a
// package's current "stable" version for latest_docs mode. For crates.io
// it is the highest non-yanked, non-prerelease semver version, falling back
// to the highest version of any kind if no stable release exists. For npm
// the registry's dist-tags.latest is returned whenever it parses as semver,
// whether or not it is the highest or a prerelease; only otherwise is the
// same highest-stable selection applied to the listed versions.
func ResolveLatestVersion(ctx context.Context, client *http.Client, profile fdocs.Profile, name string) (string, error) {
	url, err := registryEndpoint(profile, name)
	if err != nil {
		return "", &fdocs.EngineError{Kind: fdocs.KindInvalidConfig, Package: name, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &fdocs.EngineError{Kind: fdocs.KindNetwork, Package: name, Err: errors.Wrap(err, "building registry request")}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &fdocs.EngineError{Kind: fdocs.KindNetwork, Package: name, Err: errors.Wrap(err, "querying registry")}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", &fdocs.EngineError{Kind: fdocs.KindNotFound, Package: name, Err: errors.Errorf("package not found in registry")}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &fdocs.EngineError{Kind: fdocs.KindRateLimit, Package: name, Err: errors.Errorf("registry rate limited the request")}
	}
	if resp.StatusCode/100 == 5 {
		return "", &fdocs.EngineError{Kind: fdocs.KindServer, Package: name, Err: errors.Errorf("registry returned %d", resp.StatusCode)}
	}
	if resp.StatusCode/100 != 2 {
		return "", &fdocs.EngineError{Kind: fdocs.KindParse, Package: name, Err: errors.Errorf("registry returned %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &fdocs.EngineError{Kind: fdocs.KindNetwork, Package: name, Err: errors.Wrap(err, "reading registry response")}
	}

	switch profile {
	case fdocs.ProfileRust:
		return resolveCrateVersion(name, body)
	case fdocs.ProfileNode:
		return resolveNpmVersion(name, body)
	default:
		return "", &fdocs.EngineError{Kind: fdocs.KindInvalidConfig, Package: name, Err: errors.Errorf("unknown profile %q", profile)}
	}
}

func resolveCrateVersion(name string, body []byte) (string, error) {
	var parsed crateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &fdocs.EngineError{Kind: fdocs.KindParse, Package: name, Err: errors.Wrap(err, "decoding crates.io response")}
	}
	return highestStable(name, versionStrings(parsed))
}

func versionStrings(r crateResponse) []string {
	out := make([]string, 0, len(r.Versions))
	for _, v := range r.Versions {
		if v.Yanked {
			continue
		}
		out = append(out, v.Num)
	}
	return out
}

func resolveNpmVersion(name string, body []byte) (string, error) {
	var parsed npmRegistryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &fdocs.EngineError{Kind: fdocs.KindParse, Package: name, Err: errors.Wrap(err, "decoding npm registry response")}
	}
	if parsed.DistTags.Latest != "" {
		if _, err := semver.NewVersion(parsed.DistTags.Latest); err == nil {
			return parsed.DistTags.Latest, nil
		}
	}
	versions := make([]string, 0, len(parsed.Versions))
	for v := range parsed.Versions {
		versions = append(versions, v)
	}
	return highestStable(name, versions)
}

// highestStable picks the highest non-prerelease semver version, falling
// back to the highest version of any kind (including prereleases) when no
// stable release exists, per spec.md's max_stable_version/max_version
// fallback.
func highestStable(name string, raw []string) (string, error) {
	var stable, all []*semver.Version
	for _, r := range raw {
		v, err := semver.NewVersion(r)
		if err != nil {
			continue // ignore unparseable version strings rather than fail the whole query
		}
		all = append(all, v)
		if v.Prerelease() == "" {
			stable = append(stable, v)
		}
	}
	pick := stable
	if len(pick) == 0 {
		pick = all
	}
	if len(pick) == 0 {
		return "", &fdocs.EngineError{Kind: fdocs.KindNotFound, Package: name, Err: errors.Errorf("registry listed no parseable versions")}
	}
	sort.Sort(semver.Collection(pick))
	return pick[len(pick)-1].Original(), nil
}
