package build

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docmerge/internal/augment"
	"git.home.luguber.info/inful/docmerge/internal/compose"
	"git.home.luguber.info/inful/docmerge/internal/config"
	"git.home.luguber.info/inful/docmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/docmerge/internal/logfields"
	"git.home.luguber.info/inful/docmerge/internal/metrics"
	"git.home.luguber.info/inful/docmerge/internal/observability"
	"git.home.luguber.info/inful/docmerge/internal/overlay"
	"git.home.luguber.info/inful/docmerge/internal/workspace"
)

// Builder is the fallback controller around the source composer.
type Builder struct {
	cfg              *config.Config
	composer         Composer
	provider         augment.Provider
	workspaceFactory func() *workspace.Manager
	recorder         metrics.Recorder
}

// NewBuilder creates a builder. The augmentation provider follows
// augment.enabled and merged trees are allocated below layout.work_dir.
func NewBuilder(cfg *config.Config, composer Composer) *Builder {
	return &Builder{
		cfg:      cfg,
		composer: composer,
		provider: augment.New(cfg),
		workspaceFactory: func() *workspace.Manager {
			return workspace.NewManager(cfg.Layout.WorkDir)
		},
		recorder: metrics.NoopRecorder{},
	}
}

// WithWorkspaceFactory allows injecting a custom workspace factory (for testing).
func (b *Builder) WithWorkspaceFactory(factory func() *workspace.Manager) *Builder {
	b.workspaceFactory = factory
	return b
}

// WithProvider replaces the augmentation provider.
func (b *Builder) WithProvider(p augment.Provider) *Builder {
	if p == nil {
		p = augment.NoopProvider{}
	}
	b.provider = p
	return b
}

// WithRecorder sets the metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	b.recorder = metrics.OrNoop(r)
	return b
}

// Build composes a merged tree, falling back to the degraded strategy when
// the comprehensive composition fails. An error means neither strategy
// produced a tree.
func (b *Builder) Build(ctx context.Context) (*Outcome, error) {
	start := time.Now()
	if observability.GetContext(ctx).BuildID == "" {
		ctx = observability.WithBuildID(ctx, observability.NewBuildID())
	}
	ws := b.workspaceFactory()

	out, cause := b.comprehensive(ctx, ws)
	if cause != nil {
		observability.WarnContext(ctx, "Comprehensive composition failed, falling back to degraded composition",
			logfields.Error(cause))
		if err := ws.Discard(); err != nil {
			observability.WarnContext(ctx, "Failed to discard partial tree", logfields.Error(err))
		}

		var err error
		out, err = b.degraded(ctx, ws)
		if err != nil {
			b.recorder.IncBuildOutcome("failed")
			b.recorder.ObserveBuildDuration(time.Since(start))
			return nil, errors.ComposeError("degraded composition failed after comprehensive composition failed").
				WithCause(fmt.Errorf("%w: %w", ErrDegradedFailed, stderrors.Join(cause, err))).
				WithContext("composition_error", cause.Error()).
				WithContext("degraded_error", err.Error()).
				Fatal().
				Build()
		}
		out.Cause = cause
	}

	out.StartTime = start
	out.EndTime = time.Now()
	out.Duration = out.EndTime.Sub(start)
	b.recorder.IncBuildOutcome(string(out.Strategy))
	b.recorder.ObserveBuildDuration(out.Duration)

	observability.InfoContext(observability.WithStrategy(ctx, string(out.Strategy)), "Merged source tree ready",
		logfields.Path(out.SourcePath),
		logfields.DurationMS(float64(out.Duration.Milliseconds())))
	return out, nil
}

func (b *Builder) comprehensive(ctx context.Context, ws *workspace.Manager) (*Outcome, error) {
	ctx = observability.WithStrategy(ctx, string(StrategyComprehensive))
	root, err := ws.Create()
	if err != nil {
		return nil, err
	}
	observability.InfoContext(ctx, "Starting comprehensive composition", logfields.Path(root))

	res, err := b.composer.Compose(ctx, root)
	if err != nil {
		return nil, err
	}
	sourcePath := res.SourcePath
	if sourcePath == "" {
		sourcePath = filepath.Join(root, b.cfg.Layout.SourceDir)
	}
	return &Outcome{
		Strategy:    StrategyComprehensive,
		Root:        root,
		SourcePath:  sourcePath,
		Composition: res,
	}, nil
}

func (b *Builder) degraded(ctx context.Context, ws *workspace.Manager) (*Outcome, error) {
	ctx = observability.WithStrategy(ctx, string(StrategyDegraded))
	stageStart := time.Now()
	root, err := ws.Create()
	if err != nil {
		return nil, err
	}

	src := b.cfg.PrimarySourcePath()
	dst := filepath.Join(root, b.cfg.Layout.SourceDir)
	observability.InfoContext(ctx, "Starting degraded composition", logfields.Source(src), logfields.Dest(dst))

	if _, err := overlay.New(nil).For(0, "primary").ReplaceTree(src, dst); err != nil {
		if derr := ws.Discard(); derr != nil {
			observability.WarnContext(ctx, "Failed to discard degraded tree", logfields.Error(derr))
		}
		return nil, err
	}
	b.recorder.ObserveStageDuration("degraded", time.Since(stageStart))

	out := &Outcome{Strategy: StrategyDegraded, Root: root, SourcePath: dst}
	b.augment(ctx, out)
	return out, nil
}

// augment adds generated sources to a degraded tree. Failures are recorded
// on the outcome and logged, never returned.
func (b *Builder) augment(ctx context.Context, out *Outcome) {
	if _, disabled := b.provider.(augment.NoopProvider); disabled {
		return
	}
	ctx = observability.WithStage(ctx, "augment")
	name := b.provider.Name()
	stageStart := time.Now()
	defer func() { b.recorder.ObserveStageDuration("augment", time.Since(stageStart)) }()

	genDir, err := b.provider.Generate(ctx)
	if err == nil {
		dest := filepath.Join(out.SourcePath, b.cfg.Augment.Dest)
		_, err = overlay.New(nil).For(-1, name).ReplaceTree(genDir, dest)
	}
	if err != nil {
		out.AugmentErr = err
		b.recorder.IncAugmentResult(name, metrics.ResultWarning)
		observability.WarnContext(ctx, "Augmentation failed, continuing without generated sources",
			logfields.Provider(name), logfields.Error(err))
		return
	}

	out.Augmented = true
	b.recorder.IncAugmentResult(name, metrics.ResultSuccess)
	observability.InfoContext(ctx, "Added generated sources", logfields.Provider(name),
		slog.String("dest", b.cfg.Augment.Dest))
}

// ensure the composer satisfies the interface
var _ Composer = (*compose.Composer)(nil)
