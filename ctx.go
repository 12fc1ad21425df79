package fdocs

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// Ctx is the supporting context of the tool: the project root, credentials
// read once from the environment, and the shared HTTP client. It replaces
// the teacher's GOPATH-scoped Ctx with a project-root-scoped one, and is
// passed explicitly rather than kept as a package global (SPEC_FULL.md §9,
// "mutable globals... replaced by an explicit sink").
type Ctx struct {
	WorkingDir string
	GithubToken string
	Out, Err    io.Writer
	HTTPClient  *http.Client
}

// NewCtx discovers the project root (current directory) and reads the
// GITHUB_TOKEN/GH_TOKEN environment variables, mirroring the teacher's
// NewContext()'s "derive from the environment once at start" shape.
func NewCtx(stdout, stderr io.Writer) (*Ctx, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "getting working directory")
	}
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		token = os.Getenv("GH_TOKEN")
	}
	return &Ctx{
		WorkingDir:  wd,
		GithubToken: token,
		Out:         stdout,
		Err:         stderr,
		HTTPClient:  githubAuthenticatedClient(token),
	}, nil
}

// githubAuthenticatedClient wraps the shared HTTP client with an oauth2
// bearer transport when a token is available, so the git-host adapter's
// go-github calls run authenticated (raising GitHub's rate limit) without
// every adapter needing to know about the token itself.
func githubAuthenticatedClient(token string) *http.Client {
	base := &http.Client{Timeout: 30 * time.Second}
	if token == "" {
		return base
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := oauth2.NewClient(context.WithValue(context.Background(), oauth2.HTTPClient, base), src)
	client.Timeout = base.Timeout
	return client
}

// LoadConfig opens ConfigName at the project root and parses it, mirroring
// the teacher's Ctx.LoadProject open-then-parse idiom. It returns
// KindFileNotFound (not INVALID_CONFIG) when the file itself is absent.
func (c *Ctx) LoadConfig(profile Profile) (*Config, error) {
	path := filepath.Join(c.WorkingDir, ConfigName)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewError(KindFileNotFound, "", "no "+ConfigName+" found in "+c.WorkingDir, err)
		}
		return nil, NewError(KindIO, "", "opening "+path, err)
	}
	defer f.Close()

	cfg, err := LoadConfig(f, profile)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// BaseContext returns a cancelable context for the lifetime of one command
// invocation; the sync command merges it with its interrupt-signal context
// via constext.Cons. The per-request 30s limit comes from HTTPClient's
// Timeout, not from a context derived here.
func (c *Ctx) BaseContext() (context.Context, context.CancelFunc) {
	return context.WithCancel(context.Background())
}
