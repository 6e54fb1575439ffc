package compose

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docmerge/internal/config"
	"git.home.luguber.info/inful/docmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/docmerge/internal/git"
	"git.home.luguber.info/inful/docmerge/internal/logfields"
	"git.home.luguber.info/inful/docmerge/internal/metrics"
	"git.home.luguber.info/inful/docmerge/internal/observability"
	"git.home.luguber.info/inful/docmerge/internal/overlay"
	"git.home.luguber.info/inful/docmerge/internal/retry"
)

// SyncedRepository is a repository ready to be read from.
type SyncedRepository struct {
	Name string
	Path string
	// Overridden is set when a local override path bypassed synchronization.
	Overridden bool
}

// Result describes a completed composition.
type Result struct {
	Root         string
	SourcePath   string
	Repositories []SyncedRepository
	Applied      []string
	Skipped      []string
	Notices      []overlay.Notice
	Stats        overlay.Stats
}

// Composer builds merged source trees from the configured repositories and mappings.
type Composer struct {
	cfg      *config.Config
	syncer   git.Synchronizer
	mappings []Mapping
	policy   retry.Policy
	sink     overlay.NoticeSink
	recorder metrics.Recorder
}

// Option configures a Composer.
type Option func(*Composer)

// WithNoticeSink forwards every collision notice to sink.
func WithNoticeSink(sink overlay.NoticeSink) Option {
	return func(c *Composer) { c.sink = sink }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Composer) { c.recorder = metrics.OrNoop(r) }
}

// WithMappings replaces the configured mapping sequence.
func WithMappings(m []Mapping) Option {
	return func(c *Composer) { c.mappings = m }
}

// WithRetryPolicy replaces the sync retry policy derived from configuration.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Composer) { c.policy = p }
}

// New creates a composer for cfg using syncer for external repositories.
func New(cfg *config.Config, syncer git.Synchronizer, opts ...Option) (*Composer, error) {
	if cfg == nil {
		return nil, errors.InternalError("compose: nil config").Build()
	}
	if syncer == nil {
		syncer = git.New(cfg.Sync, nil, nil)
	}
	policy, err := retry.FromSync(cfg.Sync)
	if err != nil {
		return nil, err
	}
	c := &Composer{
		cfg:      cfg,
		syncer:   syncer,
		mappings: MappingsFromConfig(cfg.Mappings),
		policy:   policy,
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Compose assembles the merged tree below mergedRoot. The tree is partial
// when an error is returned.
func (c *Composer) Compose(ctx context.Context, mergedRoot string) (*Result, error) {
	start := time.Now()
	defer func() { c.recorder.ObserveStageDuration("compose", time.Since(start)) }()

	nsRoot := filepath.Join(mergedRoot, c.cfg.Layout.NamespaceDir)
	if err := os.MkdirAll(nsRoot, 0o750); err != nil {
		return nil, &Failure{Stage: StageLayout, Err: errors.FileSystemError("failed to create namespace root").
			WithCause(err).
			WithContext("path", nsRoot).
			Build()}
	}

	repos, err := c.SyncRepositories(ctx)
	if err != nil {
		return nil, err
	}
	roots := make(map[string]string, len(repos))
	for _, r := range repos {
		roots[r.Name] = r.Path
	}

	notices := &overlay.Recorder{}
	engine := overlay.New(overlay.Tee(notices, c.sink, overlay.NoticeFunc(func(n overlay.Notice) {
		c.recorder.IncCollision(n.Mapping)
	})))

	res := &Result{
		Root:         mergedRoot,
		SourcePath:   filepath.Join(mergedRoot, c.cfg.Layout.SourceDir),
		Repositories: repos,
	}
	mctx := observability.WithStage(ctx, "compose")
	for i, m := range c.mappings {
		applied, st, err := c.apply(mctx, engine.For(i, m.Name).WithExclude(m.Exclude), roots, i, m, mergedRoot)
		if err != nil {
			c.recorder.IncMappingResult(m.Name, metrics.ResultFailed)
			return nil, &Failure{Stage: StageMapping, Repository: m.Repository, Mapping: m.Name, MappingIndex: i, Err: err}
		}
		if !applied {
			c.recorder.IncMappingResult(m.Name, metrics.ResultSkipped)
			res.Skipped = append(res.Skipped, m.Name)
			continue
		}
		c.recorder.IncMappingResult(m.Name, metrics.ResultSuccess)
		res.Applied = append(res.Applied, m.Name)
		res.Stats.Files += st.Files
		res.Stats.Dirs += st.Dirs
		res.Stats.Overwritten += st.Overwritten
		res.Stats.Excluded += st.Excluded
	}
	res.Notices = notices.Notices()

	observability.InfoContext(mctx, "Composed merged source tree",
		logfields.Path(mergedRoot),
		slog.Int("applied", len(res.Applied)),
		slog.Int("skipped", len(res.Skipped)),
		slog.Int("files", res.Stats.Files),
		slog.Int("collisions", len(res.Notices)))
	return res, nil
}

func (c *Composer) apply(ctx context.Context, engine *overlay.Engine, roots map[string]string, i int, m Mapping, mergedRoot string) (bool, overlay.Stats, error) {
	root := c.cfg.Layout.RepoRoot
	if m.Repository != "" {
		r, ok := roots[m.Repository]
		if !ok {
			return false, overlay.Stats{}, errors.ValidationError(fmt.Sprintf("mapping %s references unknown repository %s", m.Name, m.Repository)).
				WithContext("mapping", m.Name).
				Build()
		}
		root = r
	}
	src := filepath.Join(root, m.Source)
	dst := filepath.Join(mergedRoot, m.Dest)

	if _, err := os.Stat(src); err != nil {
		if !stderrors.Is(err, fs.ErrNotExist) {
			return false, overlay.Stats{}, errors.FileSystemError("failed to inspect mapping source").
				WithCause(err).
				WithContext("path", src).
				Build()
		}
		if m.Optional {
			observability.InfoContext(ctx, "Skipping mapping with missing source",
				logfields.MappingIndex(i), logfields.Mapping(m.Name), logfields.Source(src))
			return false, overlay.Stats{}, nil
		}
		return false, overlay.Stats{}, fmt.Errorf("%w: %s", ErrMissingSource, src)
	}

	var (
		st  overlay.Stats
		err error
	)
	switch m.Mode {
	case ModeReplaceTree:
		st, err = engine.ReplaceTree(src, dst)
	case ModeOverlay:
		st, err = engine.Overlay(src, dst)
	default:
		err = errors.ValidationError(fmt.Sprintf("unknown mapping mode %q", m.Mode)).
			WithContext("mapping", m.Name).
			Build()
	}
	if err != nil {
		return false, st, err
	}
	observability.DebugContext(ctx, "Applied mapping",
		logfields.MappingIndex(i), logfields.Mapping(m.Name), logfields.Mode(string(m.Mode)),
		logfields.Source(src), logfields.Dest(dst))
	return true, st, nil
}

// SyncRepositories brings every configured repository to its pinned
// revision in configuration order. Repositories with an override path are
// used as they are.
func (c *Composer) SyncRepositories(ctx context.Context) ([]SyncedRepository, error) {
	ctx = observability.WithStage(ctx, "sync")
	out := make([]SyncedRepository, 0, len(c.cfg.Repositories))
	for _, r := range c.cfg.Repositories {
		if r.OverridePath != "" {
			info, err := os.Stat(r.OverridePath)
			if err != nil || !info.IsDir() {
				return nil, &Failure{Stage: StageSync, Repository: r.Name, Err: fmt.Errorf("%w: %s", ErrMissingOverride, r.OverridePath)}
			}
			observability.InfoContext(ctx, "Using local override, skipping sync",
				logfields.Repository(r.Name), logfields.Path(r.OverridePath))
			out = append(out, SyncedRepository{Name: r.Name, Path: r.OverridePath, Overridden: true})
			continue
		}

		p, err := c.syncOne(ctx, git.SpecFromConfig(r, c.cfg.Sync.Depth))
		if err != nil {
			return nil, &Failure{Stage: StageSync, Repository: r.Name, Err: err}
		}
		out = append(out, SyncedRepository{Name: r.Name, Path: p})
	}
	return out, nil
}

func (c *Composer) syncOne(ctx context.Context, spec git.RepositorySpec) (string, error) {
	observability.InfoContext(ctx, "Synchronizing repository",
		logfields.Repository(spec.Name), logfields.Remote(spec.RemoteURL), logfields.Revision(spec.Revision))

	var localPath string
	start := time.Now()
	err := c.policy.Do(ctx, func() error {
		p, err := c.syncer.Sync(ctx, spec)
		localPath = p
		return err
	}, git.IsPermanent, func(attempt int, delay time.Duration, err error) {
		c.recorder.IncSyncRetry(spec.Name)
		observability.WarnContext(ctx, "Retrying repository sync",
			logfields.Repository(spec.Name),
			slog.Int("retry", attempt),
			slog.Duration("delay", delay),
			logfields.Error(err))
	})
	d := time.Since(start)
	c.recorder.ObserveSyncDuration(spec.Name, d, err == nil)
	if err != nil {
		return "", err
	}
	observability.InfoContext(ctx, "Repository synchronized",
		logfields.Repository(spec.Name), logfields.Path(localPath),
		logfields.DurationMS(float64(d.Milliseconds())))
	return localPath, nil
}
