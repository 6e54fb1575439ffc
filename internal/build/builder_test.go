package build

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmerge/internal/augment"
	"git.home.luguber.info/inful/docmerge/internal/compose"
	"git.home.luguber.info/inful/docmerge/internal/config"
	"git.home.luguber.info/inful/docmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/docmerge/internal/git"
	"git.home.luguber.info/inful/docmerge/internal/metrics"
	"git.home.luguber.info/inful/docmerge/internal/workspace"
)

// composerFunc adapts a function to Composer and remembers the roots it was given.
type composerFunc struct {
	fn    func(root string) (*compose.Result, error)
	roots []string
}

func (c *composerFunc) Compose(_ context.Context, root string) (*compose.Result, error) {
	c.roots = append(c.roots, root)
	return c.fn(root)
}

type fakeProvider struct {
	dir   string
	err   error
	calls int
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Generate(context.Context) (string, error) {
	p.calls++
	return p.dir, p.err
}

type outcomeRecorder struct {
	metrics.NoopRecorder
	outcomes []string
	augment  []metrics.ResultLabel
}

func (r *outcomeRecorder) IncBuildOutcome(s string) { r.outcomes = append(r.outcomes, s) }
func (r *outcomeRecorder) IncAugmentResult(_ string, res metrics.ResultLabel) {
	r.augment = append(r.augment, res)
}

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

// testBuilder returns a config whose primary source holds Tensor.java and
// a builder allocating trees below work.
func testBuilder(t *testing.T, c Composer) (*Builder, *config.Config, string) {
	t.Helper()
	cfg := config.Default()
	cfg.Layout.RepoRoot = t.TempDir()
	writeFile(t, filepath.Join(cfg.PrimarySourcePath(), "org", "tensorflow", "Tensor.java"), "primary tensor")

	work := t.TempDir()
	cfg.Layout.WorkDir = work
	b := NewBuilder(cfg, c).WithProvider(augment.NoopProvider{})
	return b, cfg, work
}

func listTrees(t *testing.T, work string) []string {
	t.Helper()
	entries, err := os.ReadDir(work)
	require.NoError(t, err)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, filepath.Join(work, e.Name()))
	}
	return out
}

func TestBuild_Comprehensive(t *testing.T) {
	c := &composerFunc{fn: func(root string) (*compose.Result, error) {
		writeFile(t, filepath.Join(root, "java", "org", "tensorflow", "ndarray", "Shape.java"), "merged")
		return &compose.Result{Root: root, SourcePath: filepath.Join(root, "java"), Applied: []string{"core-api"}}, nil
	}}
	b, _, work := testBuilder(t, c)
	rec := &outcomeRecorder{}
	provider := &fakeProvider{dir: t.TempDir()}
	b.WithRecorder(rec).WithProvider(provider)

	out, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StrategyComprehensive, out.Strategy)
	assert.False(t, out.Degraded())
	assert.NoError(t, out.Cause)
	require.Len(t, c.roots, 1)
	assert.Equal(t, c.roots[0], out.Root)
	assert.Equal(t, filepath.Join(out.Root, "java"), out.SourcePath)
	assert.Equal(t, []string{"core-api"}, out.Composition.Applied)
	assert.FileExists(t, filepath.Join(out.SourcePath, "org", "tensorflow", "ndarray", "Shape.java"))

	// tree is left in place and augmentation only belongs to the degraded path
	assert.Equal(t, []string{out.Root}, listTrees(t, work))
	assert.Zero(t, provider.calls)
	assert.Equal(t, []string{"comprehensive"}, rec.outcomes)
}

func TestBuild_FallsBackAfterSyncFailure(t *testing.T) {
	syncErr := &git.SyncError{Op: "fetch", Kind: git.KindNetwork, Err: stderrors.New("could not resolve host")}
	c := &composerFunc{fn: func(root string) (*compose.Result, error) {
		writeFile(t, filepath.Join(root, "java", "org", "tensorflow", "Partial.java"), "partial")
		return nil, &compose.Failure{Stage: compose.StageSync, Repository: "ndarray", Err: syncErr}
	}}
	b, _, work := testBuilder(t, c)
	rec := &outcomeRecorder{}
	b.WithRecorder(rec)

	out, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StrategyDegraded, out.Strategy)
	assert.True(t, out.Degraded())

	var se *git.SyncError
	require.ErrorAs(t, out.Cause, &se)
	assert.Same(t, syncErr, se)

	// the failed comprehensive tree is gone; only the degraded tree remains
	require.Len(t, c.roots, 1)
	assert.NoDirExists(t, c.roots[0])
	assert.Equal(t, []string{out.Root}, listTrees(t, work))

	assert.Equal(t, filepath.Join(out.Root, "java"), out.SourcePath)
	data, err := os.ReadFile(filepath.Join(out.SourcePath, "org", "tensorflow", "Tensor.java"))
	require.NoError(t, err)
	assert.Equal(t, "primary tensor", string(data))
	assert.NoFileExists(t, filepath.Join(out.SourcePath, "org", "tensorflow", "Partial.java"))
	assert.Equal(t, []string{"degraded"}, rec.outcomes)
}

func TestBuild_AugmentationFailureStillSucceeds(t *testing.T) {
	c := &composerFunc{fn: func(string) (*compose.Result, error) { return nil, stderrors.New("collision") }}
	b, _, _ := testBuilder(t, c)
	rec := &outcomeRecorder{}
	provider := &fakeProvider{err: augment.ErrExecutionFailed}
	b.WithRecorder(rec).WithProvider(provider)

	out, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StrategyDegraded, out.Strategy)
	assert.Equal(t, 1, provider.calls)
	assert.False(t, out.Augmented)
	require.ErrorIs(t, out.AugmentErr, augment.ErrExecutionFailed)
	assert.FileExists(t, filepath.Join(out.SourcePath, "org", "tensorflow", "Tensor.java"))
	assert.Equal(t, []metrics.ResultLabel{metrics.ResultWarning}, rec.augment)
}

func TestBuild_AugmentationAddsGeneratedSources(t *testing.T) {
	c := &composerFunc{fn: func(string) (*compose.Result, error) { return nil, stderrors.New("offline") }}
	b, cfg, _ := testBuilder(t, c)
	gen := t.TempDir()
	writeFile(t, filepath.Join(gen, "core", "Ops.java"), "generated ops")
	b.WithProvider(&fakeProvider{dir: gen})

	out, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Augmented)
	assert.NoError(t, out.AugmentErr)
	assert.FileExists(t, filepath.Join(out.SourcePath, cfg.Augment.Dest, "core", "Ops.java"))
}

func TestBuild_AugmentationFollowsSourceDir(t *testing.T) {
	c := &composerFunc{fn: func(string) (*compose.Result, error) { return nil, stderrors.New("offline") }}
	b, cfg, _ := testBuilder(t, c)
	cfg.Layout.SourceDir = "src"
	gen := t.TempDir()
	writeFile(t, filepath.Join(gen, "core", "Ops.java"), "generated ops")
	b.WithProvider(&fakeProvider{dir: gen})

	out, err := b.Build(context.Background())
	require.NoError(t, err)
	require.True(t, out.Augmented)
	assert.Equal(t, filepath.Join(out.Root, "src"), out.SourcePath)
	assert.FileExists(t, filepath.Join(out.Root, "src", "org", "tensorflow", "ops", "core", "Ops.java"))
	assert.FileExists(t, filepath.Join(out.Root, "src", "org", "tensorflow", "Tensor.java"))
	assert.NoDirExists(t, filepath.Join(out.Root, "java"))
}

func TestBuild_AugmentationCopyCollisionIsAWarning(t *testing.T) {
	c := &composerFunc{fn: func(string) (*compose.Result, error) { return nil, stderrors.New("offline") }}
	b, cfg, _ := testBuilder(t, c)
	// the primary source already carries the generated package
	writeFile(t, filepath.Join(cfg.PrimarySourcePath(), "org", "tensorflow", "ops", "Existing.java"), "x")
	gen := t.TempDir()
	writeFile(t, filepath.Join(gen, "Ops.java"), "generated ops")
	b.WithProvider(&fakeProvider{dir: gen})

	out, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.False(t, out.Augmented)
	assert.Error(t, out.AugmentErr)
}

func TestBuild_DegradedFailureIsFatal(t *testing.T) {
	compErr := &compose.Failure{Stage: compose.StageMapping, Mapping: "core-api", Err: compose.ErrMissingSource}
	c := &composerFunc{fn: func(string) (*compose.Result, error) { return nil, compErr }}
	b, cfg, work := testBuilder(t, c)
	require.NoError(t, os.RemoveAll(cfg.PrimarySourcePath()))
	rec := &outcomeRecorder{}
	b.WithRecorder(rec)

	out, err := b.Build(context.Background())
	require.Error(t, err)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrDegradedFailed)
	assert.ErrorIs(t, err, compose.ErrMissingSource)

	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryCompose, ce.Category())
	assert.True(t, ce.IsFatal())
	assert.Equal(t, 11, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))

	assert.Empty(t, listTrees(t, work))
	assert.Equal(t, []string{"failed"}, rec.outcomes)
}

func TestBuild_AllOrNothingWithComposer(t *testing.T) {
	cfg := config.Default()
	cfg.Layout.RepoRoot = t.TempDir()
	writeFile(t, filepath.Join(cfg.PrimarySourcePath(), "org", "tensorflow", "Tensor.java"), "primary tensor")
	for i := range cfg.Repositories {
		cfg.Repositories[i].LocalPath = filepath.Join(cfg.Layout.RepoRoot, "checkouts", cfg.Repositories[i].Name)
	}
	failing := syncerFunc(func(spec git.RepositorySpec) (string, error) {
		return "", &git.SyncError{Op: "clone", Remote: spec.RemoteURL, Kind: git.KindNotFound, Err: stderrors.New("repository not found")}
	})
	composer, err := compose.New(cfg, failing)
	require.NoError(t, err)

	work := t.TempDir()
	b := NewBuilder(cfg, composer).
		WithProvider(augment.NoopProvider{}).
		WithWorkspaceFactory(func() *workspace.Manager { return workspace.NewManager(work) })

	out, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StrategyDegraded, out.Strategy)
	assert.True(t, errors.HasCategory(compose.Classify(out.Cause), errors.CategoryNotFound))
	assert.Equal(t, []string{out.Root}, listTrees(t, work))

	entries, err := os.ReadDir(out.Root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "java", entries[0].Name())
}

type syncerFunc func(spec git.RepositorySpec) (string, error)

func (f syncerFunc) Sync(_ context.Context, spec git.RepositorySpec) (string, error) { return f(spec) }
