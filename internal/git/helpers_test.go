package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

var testSignature = object.Signature{Name: "tester", Email: "t@example.com", When: time.Unix(1700000000, 0)}

// upstream is a bare remote plus the seed working copy that feeds it.
type upstream struct {
	t        *testing.T
	bare     string
	seedPath string
	seed     *git.Repository
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	tmp := t.TempDir()
	bare := filepath.Join(tmp, "remote.git")
	_, err := git.PlainInit(bare, true)
	require.NoError(t, err)

	seedPath := filepath.Join(tmp, "seed")
	seed, err := git.PlainInit(seedPath, false)
	require.NoError(t, err)
	_, err = seed.CreateRemote(&ggitcfg.RemoteConfig{Name: "origin", URLs: []string{bare}})
	require.NoError(t, err)

	return &upstream{t: t, bare: bare, seedPath: seedPath, seed: seed}
}

// commit writes name=content in the seed and commits it on the current branch.
func (u *upstream) commit(name, content string) plumbing.Hash {
	u.t.Helper()
	wt, err := u.seed.Worktree()
	require.NoError(u.t, err)
	require.NoError(u.t, os.WriteFile(filepath.Join(u.seedPath, name), []byte(content), 0o600))
	_, err = wt.Add(name)
	require.NoError(u.t, err)
	sig := testSignature
	h, err := wt.Commit("update "+name, &git.CommitOptions{Author: &sig})
	require.NoError(u.t, err)
	return h
}

func (u *upstream) branch(name string) {
	u.t.Helper()
	wt, err := u.seed.Worktree()
	require.NoError(u.t, err)
	require.NoError(u.t, wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name), Create: true}))
}

func (u *upstream) checkout(name string) {
	u.t.Helper()
	wt, err := u.seed.Worktree()
	require.NoError(u.t, err)
	require.NoError(u.t, wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name)}))
}

func (u *upstream) tag(name string, h plumbing.Hash, annotated bool) {
	u.t.Helper()
	var opts *git.CreateTagOptions
	if annotated {
		sig := testSignature
		opts = &git.CreateTagOptions{Tagger: &sig, Message: "release " + name}
	}
	_, err := u.seed.CreateTag(name, h, opts)
	require.NoError(u.t, err)
}

func (u *upstream) push() {
	u.t.Helper()
	err := u.seed.Push(&git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []ggitcfg.RefSpec{"+refs/heads/*:refs/heads/*", "+refs/tags/*:refs/tags/*"},
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		require.NoError(u.t, err)
	}
}

func (u *upstream) spec(localPath, revision string) RepositorySpec {
	return RepositorySpec{Name: "upstream", RemoteURL: u.bare, LocalPath: localPath, Revision: revision}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func head(t *testing.T, path string) string {
	t.Helper()
	h, err := ReadRepoHead(path)
	require.NoError(t, err)
	return h
}
