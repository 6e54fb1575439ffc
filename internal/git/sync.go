package git

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docmerge/internal/auth"
	"git.home.luguber.info/inful/docmerge/internal/config"
)

// RepositorySpec identifies one external repository at a pinned revision.
type RepositorySpec struct {
	Name      string
	RemoteURL string
	LocalPath string
	Revision  string
	Auth      *config.AuthConfig
	// Depth limits history when > 0.
	Depth int
}

// SpecFromConfig builds the sync request for a configured repository.
func SpecFromConfig(r config.Repository, depth int) RepositorySpec {
	return RepositorySpec{
		Name:      r.Name,
		RemoteURL: r.URL,
		LocalPath: r.LocalPath,
		Revision:  r.Revision,
		Auth:      r.Auth,
		Depth:     depth,
	}
}

// Synchronizer brings spec.LocalPath to spec.Revision and returns the local path.
// Calling Sync twice with the same spec is a no-op the second time.
type Synchronizer interface {
	Sync(ctx context.Context, spec RepositorySpec) (string, error)
}

// New returns the synchronizer for the configured backend. progress, when
// non-nil, receives remote progress output from the native backend.
func New(s config.SyncConfig, mgr *auth.Manager, progress io.Writer) Synchronizer {
	if mgr == nil {
		mgr = auth.DefaultManager
	}
	if s.Backend == config.SyncBackendCLI {
		c := NewCLIClient(mgr)
		if s.GitBinary != "" {
			c.WithBinary(s.GitBinary)
		}
		return c
	}
	c := NewNativeClient(mgr)
	if progress != nil {
		c.WithProgress(progress)
	}
	return c
}

// remote-tracking layout shared by both backends
const (
	headsRefSpec = "+refs/heads/*:refs/remotes/origin/*"
	tagsRefSpec  = "+refs/tags/*:refs/tags/*"
)

// revisionCandidates lists the references tried, in order, before the
// revision is interpreted as a commit hash.
func revisionCandidates(rev string) []string {
	return []string{
		"refs/remotes/origin/" + rev,
		"refs/tags/" + rev,
		"refs/heads/" + rev,
	}
}

func validateSpec(op string, spec RepositorySpec) error {
	switch {
	case spec.LocalPath == "":
		return &SyncError{Op: op, Remote: spec.RemoteURL, Revision: spec.Revision, Kind: KindInvalidWorktree, Err: errEmptyPath}
	case spec.Revision == "":
		return &SyncError{Op: op, Remote: spec.RemoteURL, Path: spec.LocalPath, Kind: KindRevision, Err: errEmptyRevision}
	}
	return nil
}

// clonePrepared reports whether path already exists before a clone.
func clonePrepared(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// cleanupFailedClone removes what a failed clone left behind. A directory
// that existed beforehand is emptied but kept.
func cleanupFailedClone(path string, existed bool) {
	if !existed {
		_ = os.RemoveAll(path)
		return
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return
	}
	for _, ent := range entries {
		_ = os.RemoveAll(filepath.Join(path, ent.Name()))
	}
}
