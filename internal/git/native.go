package git

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/docmerge/internal/auth"
	"git.home.luguber.info/inful/docmerge/internal/logfields"
)

// NativeClient synchronizes repositories with go-git.
type NativeClient struct {
	auth     *auth.Manager
	progress io.Writer
}

// NewNativeClient creates a go-git backed synchronizer.
func NewNativeClient(mgr *auth.Manager) *NativeClient {
	if mgr == nil {
		mgr = auth.DefaultManager
	}
	return &NativeClient{auth: mgr}
}

// WithProgress streams remote progress output to w (fluent helper).
func (c *NativeClient) WithProgress(w io.Writer) *NativeClient { c.progress = w; return c }

// Sync implements Synchronizer.
func (c *NativeClient) Sync(ctx context.Context, spec RepositorySpec) (string, error) {
	if err := validateSpec("sync", spec); err != nil {
		return "", err
	}
	start := time.Now()

	authMethod, err := c.auth.CreateAuth(spec.Auth)
	if err != nil {
		return "", &SyncError{Op: "auth", Remote: spec.RemoteURL, Path: spec.LocalPath, Revision: spec.Revision, Kind: KindAuth, Err: err}
	}

	var repo *git.Repository
	if isAbsentOrEmpty(spec.LocalPath) {
		repo, err = c.clone(ctx, spec, authMethod)
	} else {
		repo, err = c.fetch(ctx, spec, authMethod)
	}
	if err != nil {
		return "", err
	}

	hash, err := resolveRevision(repo, spec.Revision)
	if err != nil {
		return "", newSyncError("resolve", spec, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", newSyncError("checkout", spec, err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return "", newSyncError("checkout", spec, err)
	}

	slog.Info("Repository synchronized",
		logfields.Repository(spec.Name),
		logfields.Revision(spec.Revision),
		logfields.Commit(hash.String()),
		logfields.Path(spec.LocalPath),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return spec.LocalPath, nil
}

func (c *NativeClient) clone(ctx context.Context, spec RepositorySpec, authMethod transport.AuthMethod) (*git.Repository, error) {
	slog.Debug("Cloning repository", logfields.Repository(spec.Name), logfields.Remote(spec.RemoteURL), logfields.Path(spec.LocalPath))

	opts := &git.CloneOptions{
		URL:        spec.RemoteURL,
		Auth:       authMethod,
		NoCheckout: true,
		Tags:       git.AllTags,
		Progress:   c.progress,
	}
	if spec.Depth > 0 {
		opts.Depth = spec.Depth
	}
	existed := clonePrepared(spec.LocalPath)
	repo, err := git.PlainCloneContext(ctx, spec.LocalPath, false, opts)
	if err != nil {
		// a half-written clone would be mistaken for a working copy on the next attempt
		cleanupFailedClone(spec.LocalPath, existed)
		return nil, newSyncError("clone", spec, err)
	}
	return repo, nil
}

func (c *NativeClient) fetch(ctx context.Context, spec RepositorySpec, authMethod transport.AuthMethod) (*git.Repository, error) {
	repo, err := git.PlainOpen(spec.LocalPath)
	if err != nil {
		return nil, newSyncError("open", spec, err)
	}
	slog.Debug("Fetching repository", logfields.Repository(spec.Name), logfields.Remote(spec.RemoteURL), logfields.Path(spec.LocalPath))

	opts := &git.FetchOptions{
		RemoteName: "origin",
		RemoteURL:  spec.RemoteURL,
		RefSpecs:   []ggitcfg.RefSpec{headsRefSpec, tagsRefSpec},
		Auth:       authMethod,
		Force:      true,
		Progress:   c.progress,
	}
	if spec.Depth > 0 {
		opts.Depth = spec.Depth
	}
	if err := repo.FetchContext(ctx, opts); err != nil && !stderrors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil, newSyncError("fetch", spec, err)
	}
	return repo, nil
}

// resolveRevision finds the commit for rev: remote-tracking branch, tag,
// local branch, then full or abbreviated hash. Annotated tags are peeled.
func resolveRevision(repo *git.Repository, rev string) (plumbing.Hash, error) {
	for _, name := range revisionCandidates(rev) {
		ref, err := repo.Reference(plumbing.ReferenceName(name), true)
		if err != nil {
			continue
		}
		if h, ok := peel(repo, ref.Hash()); ok {
			return h, nil
		}
	}
	if h, err := repo.ResolveRevision(plumbing.Revision(rev)); err == nil {
		if ph, ok := peel(repo, *h); ok {
			return ph, nil
		}
	}
	return plumbing.ZeroHash, ErrUnknownRevision
}

func peel(repo *git.Repository, h plumbing.Hash) (plumbing.Hash, bool) {
	if c, err := repo.CommitObject(h); err == nil {
		return c.Hash, true
	}
	tag, err := repo.TagObject(h)
	if err != nil {
		return plumbing.ZeroHash, false
	}
	c, err := tag.Commit()
	if err != nil {
		return plumbing.ZeroHash, false
	}
	return c.Hash, true
}

// isAbsentOrEmpty reports whether path can be cloned into.
func isAbsentOrEmpty(path string) bool {
	entries, err := os.ReadDir(path)
	if err != nil {
		return stderrors.Is(err, os.ErrNotExist)
	}
	return len(entries) == 0
}
