package engine

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/ai-fdocs/fdocs"
)

// RegistryArchiveAdapter fetches the published source archive for a
// package's resolved version and pulls the preferred-set (or explicit
// `files`) out of it. Grounded on
// other_examples/18d69e1f_google-oss-rebuild's cratesio tarball-inference
// unpack loop (archive/tar + compress/gzip streamed over the HTTP body) and
// the teacher's own source.go HTTP-fetch-then-classify shape for the
// metadata request.
type RegistryArchiveAdapter struct {
	Client  *http.Client
	Profile fdocs.Profile
}

type crateArchiveMeta struct {
	Version struct {
		DlPath     string `json:"dl_path"`
		ReadmePath string `json:"readme_path"`
	} `json:"version"`
}

type npmPackument struct {
	Versions map[string]npmVersionMeta `json:"versions"`
}

type npmVersionMeta struct {
	Dist struct {
		Tarball string `json:"tarball"`
	} `json:"dist"`
	Readme string `json:"readme"`
}

func (a *RegistryArchiveAdapter) Fetch(ctx context.Context, entry fdocs.PackageEntry, version string) (*FetchResult, error) {
	return withRetry(ctx, func() (*FetchResult, error) { return a.fetchOnce(ctx, entry, version) })
}

func (a *RegistryArchiveAdapter) fetchOnce(ctx context.Context, entry fdocs.PackageEntry, version string) (*FetchResult, error) {
	tarballURL, inlineReadme, err := a.metadata(ctx, entry, version)
	if err != nil {
		return nil, err
	}

	// Fast path: the only requested file is README and the registry
	// metadata already inlined it, so no archive download is needed.
	if len(entry.Files) == 1 && isReadmeRequest(entry.Files[0]) && inlineReadme != "" {
		return &FetchResult{
			Files:      []FetchedFile{{RelPath: "README.md", Content: []byte(inlineReadme)}},
			SourceKind: SourceKindRegistryArchive,
			GitRef:     GitRefSentinel,
		}, nil
	}

	files, err := a.downloadArchive(ctx, tarballURL, entry)
	if err != nil {
		return nil, err
	}
	return &FetchResult{Files: files, SourceKind: SourceKindRegistryArchive, GitRef: GitRefSentinel}, nil
}

func isReadmeRequest(f string) bool {
	return strings.EqualFold(path.Base(f), "README.md")
}

func (a *RegistryArchiveAdapter) metadata(ctx context.Context, entry fdocs.PackageEntry, version string) (tarballURL, inlineReadme string, err error) {
	var url string
	switch a.Profile {
	case fdocs.ProfileRust:
		url = fmt.Sprintf("https://crates.io/api/v1/crates/%s/%s", entry.Name, version)
	case fdocs.ProfileNode:
		url = fmt.Sprintf("https://registry.npmjs.org/%s", entry.Name)
	default:
		return "", "", &fdocs.EngineError{Kind: fdocs.KindInvalidConfig, Package: entry.Name, Err: errors.Errorf("unknown profile %q", a.Profile)}
	}

	body, status, err := a.get(ctx, url)
	if err != nil {
		return "", "", err
	}
	if status != http.StatusOK {
		return "", "", &fdocs.EngineError{Kind: classifyHTTPStatus(status), Package: entry.Name, Err: errors.Errorf("registry metadata returned %d", status)}
	}

	switch a.Profile {
	case fdocs.ProfileRust:
		var meta crateArchiveMeta
		if err := json.Unmarshal(body, &meta); err != nil {
			return "", "", &fdocs.EngineError{Kind: fdocs.KindParse, Package: entry.Name, Err: errors.Wrap(err, "decoding crates.io version metadata")}
		}
		return "https://crates.io" + meta.Version.DlPath, "", nil
	case fdocs.ProfileNode:
		var pkg npmPackument
		if err := json.Unmarshal(body, &pkg); err != nil {
			return "", "", &fdocs.EngineError{Kind: fdocs.KindParse, Package: entry.Name, Err: errors.Wrap(err, "decoding npm packument")}
		}
		v, ok := pkg.Versions[version]
		if !ok {
			return "", "", &fdocs.EngineError{Kind: fdocs.KindTarballNotFound, Package: entry.Name, Err: errors.Errorf("version %s not present in npm packument", version)}
		}
		return v.Dist.Tarball, v.Readme, nil
	default:
		return "", "", &fdocs.EngineError{Kind: fdocs.KindInvalidConfig, Package: entry.Name, Err: errors.Errorf("unknown profile %q", a.Profile)}
	}
}

func (a *RegistryArchiveAdapter) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, &fdocs.EngineError{Kind: fdocs.KindNetwork, Err: errors.Wrap(err, "building request")}
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, 0, &fdocs.EngineError{Kind: fdocs.KindNetwork, Err: errors.Wrap(err, "performing request")}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &fdocs.EngineError{Kind: fdocs.KindNetwork, Err: errors.Wrap(err, "reading response body")}
	}
	return body, resp.StatusCode, nil
}

func (a *RegistryArchiveAdapter) downloadArchive(ctx context.Context, tarballURL string, entry fdocs.PackageEntry) ([]FetchedFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tarballURL, nil)
	if err != nil {
		return nil, &fdocs.EngineError{Kind: fdocs.KindNetwork, Package: entry.Name, Err: errors.Wrap(err, "building archive request")}
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, &fdocs.EngineError{Kind: fdocs.KindNetwork, Package: entry.Name, Err: errors.Wrap(err, "downloading archive")}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &fdocs.EngineError{Kind: fdocs.KindTarballNotFound, Package: entry.Name, Err: errors.Errorf("archive not found")}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &fdocs.EngineError{Kind: classifyHTTPStatus(resp.StatusCode), Package: entry.Name, Err: errors.Errorf("archive download returned %d", resp.StatusCode)}
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, &fdocs.EngineError{Kind: fdocs.KindArchiveMalformed, Package: entry.Name, Err: errors.Wrap(err, "opening gzip stream")}
	}
	defer gz.Close()

	wantFiles, explicit := entry.ExplicitFileSet()
	subpath := canonicalSubpath(entry.Subpath)

	var out []FetchedFile
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &fdocs.EngineError{Kind: fdocs.KindArchiveMalformed, Package: entry.Name, Err: errors.Wrap(err, "reading tar entry")}
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if !isSafeArchivePath(hdr.Name) {
			continue
		}

		rel := archiveRelPath(hdr.Name, subpath)
		if rel == "" {
			continue
		}
		if explicit {
			if !wantFiles[rel] {
				continue
			}
		} else if !isPreferredPath(rel) {
			continue
		}

		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, &fdocs.EngineError{Kind: fdocs.KindArchiveMalformed, Package: entry.Name, Err: errors.Wrap(err, "reading tar entry body")}
		}
		out = append(out, FetchedFile{RelPath: rel, Content: content})
	}

	sortFetchedFiles(out)
	if len(out) > maxFetchedFiles {
		out = out[:maxFetchedFiles]
	}
	return out, nil
}

// archiveRelPath strips the tarball's single top-level directory (registry
// archives always wrap their contents in one, e.g. "mypkg-1.2.3/") and the
// configured subpath, returning "" if the entry falls outside that subpath.
func archiveRelPath(tarPath, subpath string) string {
	cleaned := path.Clean(strings.TrimPrefix(tarPath, "/"))
	parts := strings.SplitN(cleaned, "/", 2)
	if len(parts) != 2 {
		return ""
	}
	rest := parts[1]
	if subpath == "" {
		return rest
	}
	prefix := subpath + "/"
	if !strings.HasPrefix(rest, prefix) {
		return ""
	}
	return strings.TrimPrefix(rest, prefix)
}
