package augment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docmerge/internal/config"
	"git.home.luguber.info/inful/docmerge/internal/logfields"
)

// Provider generates additional sources and returns the directory holding them.
type Provider interface {
	Name() string
	Generate(ctx context.Context) (string, error)
}

// New returns the provider selected by cfg.
func New(cfg *config.Config) Provider {
	if cfg == nil || !cfg.Augment.IsEnabled() {
		return NoopProvider{}
	}
	return NewBazelProvider(cfg)
}

// BazelProvider runs configure then `bazel build <target>` in the repository root.
type BazelProvider struct {
	repoRoot  string
	configure string
	command   string
	target    string
	outputDir string
}

// NewBazelProvider creates a provider from the augment and layout settings.
func NewBazelProvider(cfg *config.Config) *BazelProvider {
	return &BazelProvider{
		repoRoot:  cfg.Layout.RepoRoot,
		configure: cfg.Augment.ConfigureScript,
		command:   cfg.Augment.Command,
		target:    cfg.Augment.Target,
		outputDir: cfg.AugmentOutputPath(),
	}
}

func (p *BazelProvider) Name() string { return "bazel" }

// Generate runs the configure script with every prompt answered by its
// default, builds the target and returns the output directory. A failing
// configure script is logged; only the build and its output decide the result.
func (p *BazelProvider) Generate(ctx context.Context) (string, error) {
	if p.configure != "" {
		script := p.configure
		if !filepath.IsAbs(script) {
			script = filepath.Join(p.repoRoot, script)
		}
		if _, err := os.Stat(script); err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrToolNotFound, script, err)
		}
		slog.Info("Running configure script", logfields.Provider(p.Name()), logfields.Path(script))
		if err := p.run(ctx, endlessNewlines{}, script); err != nil {
			if ctx.Err() != nil {
				return "", err
			}
			slog.Warn("Configure script failed, building anyway", logfields.Provider(p.Name()), logfields.Error(err))
		}
	}

	bin, err := exec.LookPath(p.command)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrToolNotFound, p.command, err)
	}
	slog.Info("Building generated sources", logfields.Provider(p.Name()), slog.String("target", p.target))
	if err := p.run(ctx, nil, bin, "build", p.target); err != nil {
		return "", err
	}

	info, err := os.Stat(p.outputDir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrOutputMissing, p.outputDir)
	}
	return p.outputDir, nil
}

func (p *BazelProvider) run(ctx context.Context, stdin io.Reader, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = p.repoRoot
	cmd.Stdin = stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	outStr := strings.TrimSpace(stdout.String())
	errStr := strings.TrimSpace(stderr.String())
	if outStr != "" {
		slog.Debug("augment stdout", logfields.Provider(p.Name()), slog.String("output", outStr))
	}
	if err != nil {
		output := errStr
		if output == "" {
			output = outStr
		}
		if output != "" {
			return fmt.Errorf("%w: %s: %w: %s", ErrExecutionFailed, filepath.Base(name), err, output)
		}
		return fmt.Errorf("%w: %s: %w", ErrExecutionFailed, filepath.Base(name), err)
	}
	if errStr != "" {
		slog.Debug("augment stderr", logfields.Provider(p.Name()), slog.String("error_output", errStr))
	}
	return nil
}

// endlessNewlines answers every interactive prompt with an empty line.
type endlessNewlines struct{}

func (endlessNewlines) Read(b []byte) (int, error) {
	for i := range b {
		b[i] = '\n'
	}
	return len(b), nil
}

// NoopProvider is used when augmentation is disabled.
type NoopProvider struct{}

func (NoopProvider) Name() string { return "noop" }

func (NoopProvider) Generate(context.Context) (string, error) {
	slog.Debug("NoopProvider skipping augmentation")
	return "", ErrDisabled
}
