package engine

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/pkg/errors"

	"github.com/ai-fdocs/fdocs"
)

// candidateTagNames returns the ordered list of tag names probed when
// resolving a version to a ref, per spec.md §4.2.
func candidateTagNames(name, version string) []string {
	return []string{
		"v" + version,
		version,
		name + "-v" + version,
		name + "-" + version,
	}
}

var defaultBranches = []string{"main", "master"}

// GitHostAdapter resolves a package version against a git forge (currently
// GitHub) and pulls either explicit files or the preferred-set default from
// the repository tree at the resolved ref. Grounded on
// other_examples/manifests/sevigo-code-warden's google/go-github dependency
// (PR/issue automation there, tag/tree/content REST surface here); the
// retry/backoff loop and fallback classification are generalized from the
// teacher's gps/source.go retry-until-state-bit-set loop and vcs_repo.go's
// explicit error classification.
type GitHostAdapter struct {
	Client *github.Client
}

// NewGitHostAdapter builds a GitHostAdapter backed by httpClient (expected
// to already carry an oauth2 bearer transport when a token is configured).
func NewGitHostAdapter(httpClient *http.Client) *GitHostAdapter {
	return &GitHostAdapter{Client: github.NewClient(httpClient)}
}

func (a *GitHostAdapter) Fetch(ctx context.Context, entry fdocs.PackageEntry, version string) (*FetchResult, error) {
	return withRetry(ctx, func() (*FetchResult, error) { return a.fetchOnce(ctx, entry, version) })
}

func (a *GitHostAdapter) fetchOnce(ctx context.Context, entry fdocs.PackageEntry, version string) (*FetchResult, error) {
	owner, repo, err := splitOwnerRepo(entry.Repo)
	if err != nil {
		return nil, &fdocs.EngineError{Kind: fdocs.KindInvalidConfig, Package: entry.Name, Err: err}
	}

	ref, isFallback, err := a.resolveRef(ctx, owner, repo, entry.Name, version)
	if err != nil {
		return nil, err
	}

	var files []FetchedFile
	if explicitFiles, explicit := entry.ExplicitFileSet(); explicit {
		files, err = a.fetchExplicit(ctx, owner, repo, ref, entry, explicitFiles)
	} else {
		files, err = a.fetchPreferred(ctx, owner, repo, ref, entry)
	}
	if err != nil {
		return nil, err
	}

	kind := SourceKindGitHost
	if isFallback {
		kind = SourceKindGitFallback
	}
	return &FetchResult{Files: files, SourceKind: kind, GitRef: ref, Degraded: isFallback}, nil
}

func splitOwnerRepo(repo string) (owner, name string, err error) {
	parts := strings.SplitN(strings.TrimSuffix(repo, ".git"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Errorf("repo %q is not in owner/name form", repo)
	}
	return parts[0], parts[1], nil
}

// resolveRef probes candidate tag names, then falls back to the default
// branch, per spec.md §4.2.
func (a *GitHostAdapter) resolveRef(ctx context.Context, owner, repo, name, version string) (ref string, isFallback bool, err error) {
	for _, tag := range candidateTagNames(name, version) {
		_, resp, err := a.Client.Git.GetRef(ctx, owner, repo, "refs/tags/"+tag)
		if err == nil {
			return tag, false, nil
		}
		if classifyGitHubError(resp, err) != fdocs.KindNotFound {
			return "", false, classifyAndWrap(name, "probing tag "+tag, resp, err)
		}
	}

	for _, branch := range defaultBranches {
		_, resp, err := a.Client.Repositories.GetBranch(ctx, owner, repo, branch, 0)
		if err == nil {
			return branch, true, nil
		}
		if classifyGitHubError(resp, err) != fdocs.KindNotFound {
			return "", false, classifyAndWrap(name, "probing branch "+branch, resp, err)
		}
	}

	return "", false, &fdocs.EngineError{Kind: fdocs.KindNoRef, Package: name, Err: errors.Errorf("no matching tag or default branch found")}
}

func (a *GitHostAdapter) fetchExplicit(ctx context.Context, owner, repo, ref string, entry fdocs.PackageEntry, want map[string]bool) ([]FetchedFile, error) {
	var out []FetchedFile
	for relPath := range want {
		full := joinSubpath(entry.Subpath, relPath)
		content, _, resp, err := a.Client.Repositories.GetContents(ctx, owner, repo, full, &github.RepositoryContentGetOptions{Ref: ref})
		if err != nil {
			return nil, &fdocs.EngineError{Kind: classifyGitHubError(resp, err), Package: entry.Name, Err: errors.Wrapf(err, "fetching %s", full)}
		}
		if content == nil {
			return nil, &fdocs.EngineError{Kind: fdocs.KindNotFound, Package: entry.Name, Err: errors.Errorf("%s is a directory, not a file", full)}
		}
		decoded, err := content.GetContent()
		if err != nil {
			return nil, &fdocs.EngineError{Kind: fdocs.KindParse, Package: entry.Name, Err: errors.Wrapf(err, "decoding %s", full)}
		}
		out = append(out, FetchedFile{RelPath: relPath, Content: []byte(decoded)})
	}
	sortFetchedFiles(out)
	return out, nil
}

func (a *GitHostAdapter) fetchPreferred(ctx context.Context, owner, repo, ref string, entry fdocs.PackageEntry) ([]FetchedFile, error) {
	tree, resp, err := a.Client.Git.GetTree(ctx, owner, repo, ref, true)
	if err != nil {
		return nil, &fdocs.EngineError{Kind: classifyGitHubError(resp, err), Package: entry.Name, Err: errors.Wrap(err, "listing repository tree")}
	}

	subpath := canonicalSubpath(entry.Subpath)
	var candidates []string
	for _, e := range tree.Entries {
		if e.GetType() != "blob" {
			continue
		}
		rel, ok := underSubpath(e.GetPath(), subpath)
		if !ok || !isPreferredPath(rel) {
			continue
		}
		candidates = append(candidates, rel)
	}
	sortStrings(candidates)
	if len(candidates) > maxFetchedFiles {
		candidates = candidates[:maxFetchedFiles]
	}

	var out []FetchedFile
	for _, rel := range candidates {
		full := joinSubpath(entry.Subpath, rel)
		content, _, resp, err := a.Client.Repositories.GetContents(ctx, owner, repo, full, &github.RepositoryContentGetOptions{Ref: ref})
		if err != nil {
			return nil, &fdocs.EngineError{Kind: classifyGitHubError(resp, err), Package: entry.Name, Err: errors.Wrapf(err, "fetching %s", full)}
		}
		decoded, err := content.GetContent()
		if err != nil {
			return nil, &fdocs.EngineError{Kind: fdocs.KindParse, Package: entry.Name, Err: errors.Wrapf(err, "decoding %s", full)}
		}
		out = append(out, FetchedFile{RelPath: rel, Content: []byte(decoded)})
	}
	return out, nil
}

func joinSubpath(subpath, rel string) string {
	subpath = canonicalSubpath(subpath)
	if subpath == "" {
		return rel
	}
	return subpath + "/" + rel
}

func underSubpath(treePath, subpath string) (rel string, ok bool) {
	if subpath == "" {
		return treePath, true
	}
	prefix := subpath + "/"
	if !strings.HasPrefix(treePath, prefix) {
		return "", false
	}
	return strings.TrimPrefix(treePath, prefix), true
}

func sortStrings(s []string) {
	// small helper kept local to avoid importing sort in two places for one
	// call; delegates to the same comparator used for fetched files.
	files := make([]FetchedFile, len(s))
	for i, v := range s {
		files[i] = FetchedFile{RelPath: v}
	}
	sortFetchedFiles(files)
	for i, f := range files {
		s[i] = f.RelPath
	}
}

func classifyGitHubError(resp *github.Response, err error) fdocs.Kind {
	if resp != nil {
		return classifyHTTPStatus(resp.StatusCode)
	}
	return fdocs.KindNetwork
}

func classifyAndWrap(pkgName, action string, resp *github.Response, err error) error {
	return &fdocs.EngineError{Kind: classifyGitHubError(resp, err), Package: pkgName, Err: errors.Wrap(err, action)}
}
