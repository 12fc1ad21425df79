package engine

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ai-fdocs/fdocs"
)

// Engine runs every configured package through the state machine with a
// bounded worker pool, per spec.md §5. Grounded on the teacher's
// gps/source.go sourceCoordinator fan-out/await-all shape, reimplemented
// with golang.org/x/sync/errgroup + semaphore in place of the teacher's
// hand-rolled channel plumbing — the same "bounded pool, no job depends on
// another" shape, expressed the modules-era way.
type Engine struct {
	Config     *fdocs.Config
	RootDir    string
	OutputDir  string
	HTTPClient *http.Client
	Reporter   Reporter
	Now        time.Time
}

// Run executes the full pipeline: optional pre-scheduling prune, bounded
// fan-out of per-package jobs, and the post-barrier global index write.
func (e *Engine) Run(ctx context.Context, force bool) (Report, error) {
	versions, _, vmErr := e.resolveVersions(ctx)
	if vmErr != nil {
		if !fdocs.IsFallbackEligible(classifyErr(vmErr)) {
			return Report{}, vmErr
		}
	}

	if e.Config.Settings.Prune && e.Config.Settings.SyncMode == fdocs.SyncModeLockfile {
		if err := e.prune(versions); err != nil {
			return Report{}, err
		}
	}

	sem := semaphore.NewWeighted(int64(e.Config.Settings.SyncConcurrency))
	g, gctx := errgroup.WithContext(ctx)

	results := make([]JobResult, len(e.Config.Packages))
	for i, entry := range e.Config.Packages {
		i, entry := i, entry
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)

			targetVersion, hasVersion, err := e.targetVersionFor(gctx, entry, versions)
			if err != nil {
				results[i] = JobResult{Name: entry.Name, State: StateFailed, Status: StatusMissing, Reason: err.Error(), ErrorKind: classifyErr(err)}
				e.Reporter.PackageDone(results[i])
				return nil
			}

			job := (&Job{
				Entry: entry, OutputDir: e.OutputDir, Mode: e.Config.Settings.SyncMode,
				Force: force, Now: e.Now, ConfigHash: Fingerprint(entry),
				Chain: e.chainFor(entry),
			}).WithMaxFileSizeKB(e.Config.Settings.MaxFileSizeKB)

			results[i] = job.Run(gctx, targetVersion, hasVersion)
			e.Reporter.PackageDone(results[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	if err := WriteIndex(e.OutputDir, results); err != nil {
		return Report{}, err
	}

	report := BuildReport(results)
	e.Reporter.RunDone(report)
	return report, nil
}

func (e *Engine) resolveVersions(ctx context.Context) (VersionMap, string, error) {
	switch e.Config.Settings.SyncMode {
	case fdocs.SyncModeLockfile, fdocs.SyncModeHybrid:
		vm, name, err := ResolveLockfile(e.RootDir)
		return vm, name, err
	default:
		return nil, "", nil
	}
}

// targetVersionFor resolves one package's version: lockfile lookup for
// lockfile/hybrid modes, registry query for latest_docs mode.
func (e *Engine) targetVersionFor(ctx context.Context, entry fdocs.PackageEntry, versions VersionMap) (string, bool, error) {
	if e.Config.Settings.SyncMode == fdocs.SyncModeLatestDocs {
		v, err := ResolveLatestVersion(ctx, e.HTTPClient, e.Config.Settings.Profile, entry.Name)
		if err != nil {
			return "", false, err
		}
		return v, true, nil
	}
	v, ok := versions[entry.Name]
	return v, ok, nil
}

// chainFor builds the per-mode adapter chain spec.md §4.4 describes: a
// tagged primary choice plus an ordered fallback list.
func (e *Engine) chainFor(entry fdocs.PackageEntry) AdapterChain {
	registry := &RegistryArchiveAdapter{Client: e.HTTPClient, Profile: e.Config.Settings.Profile}
	gitHost := NewGitHostAdapter(e.HTTPClient)
	rendered := &RenderedDocsAdapter{Client: e.HTTPClient, BaseURL: renderedDocsBaseURL(e.Config.Settings.Profile)}

	switch e.Config.Settings.SyncMode {
	case fdocs.SyncModeLatestDocs:
		return AdapterChain{rendered, gitHost}
	case fdocs.SyncModeHybrid:
		return AdapterChain{&HybridAdapter{GitHost: gitHost, Registry: registry}}
	default: // lockfile
		if e.Config.Settings.DocsSource == fdocs.DocsSourceRegistryArchive {
			return AdapterChain{registry, gitHost}
		}
		return AdapterChain{gitHost, registry}
	}
}

func renderedDocsBaseURL(p fdocs.Profile) string {
	if p == fdocs.ProfileNode {
		return "https://www.npmjs.com/package"
	}
	return "https://docs.rs"
}

// prune removes any <name>@<version> directory under OutputDir whose name
// is not in the current configuration or whose version doesn't match the
// resolved target, performed before scheduling per spec.md §4.6.
func (e *Engine) prune(versions VersionMap) error {
	configured := make(map[string]string, len(e.Config.Packages))
	for _, p := range e.Config.Packages {
		if v, ok := versions[p.Name]; ok {
			configured[p.Name] = v
		}
	}

	entries, err := os.ReadDir(e.OutputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "reading output directory for prune")
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name, version, ok := splitDirName(entry.Name())
		if !ok {
			continue
		}
		wantVersion, stillConfigured := configured[name]
		if !stillConfigured || wantVersion != version {
			if err := pruneWalk(filepath.Join(e.OutputDir, entry.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

// pruneWalk removes a stale package directory. Grounded on the teacher's
// own vendored karrick/godirwalk for the walk itself, even though removal
// here is a single recursive delete rather than an incremental visit —
// godirwalk.Walk is used to surface per-entry errors before committing to
// the deletion rather than calling os.RemoveAll blind.
func pruneWalk(dir string) error {
	if err := godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error { return nil },
		Unsorted: true,
	}); err != nil {
		return errors.Wrapf(err, "walking stale directory %s before prune", dir)
	}
	return os.RemoveAll(dir)
}

func splitDirName(name string) (pkgName, version string, ok bool) {
	idx := strings.LastIndex(name, "@")
	if idx <= 0 || idx == len(name)-1 {
		return "", "", false
	}
	return name[:idx], name[idx+1:], true
}
