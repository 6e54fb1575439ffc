package commands

import (
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/docmerge/internal/auth"
	"git.home.luguber.info/inful/docmerge/internal/build"
	"git.home.luguber.info/inful/docmerge/internal/compose"
	"git.home.luguber.info/inful/docmerge/internal/config"
	"git.home.luguber.info/inful/docmerge/internal/emit"
	"git.home.luguber.info/inful/docmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/docmerge/internal/git"
	"git.home.luguber.info/inful/docmerge/internal/logfields"
	"git.home.luguber.info/inful/docmerge/internal/version"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	OutputDir string `short:"o" name:"output-dir" help:"Directory the reference documentation is written to (overrides output.directory)"`
	SitePath  string `name:"site-path" help:"Path prefix of the docs within the published site (overrides output.site_path)"`
	GenOps    bool   `name:"gen-ops" xor:"genops" help:"Build generated op sources with bazel when falling back"`
	NoGenOps  bool   `name:"no-gen-ops" xor:"genops" help:"Never build generated op sources"`
	JavaRepo  string `name:"java-repo" type:"existingdir" help:"Use an existing tensorflow-java checkout instead of synchronizing it"`
	SkipEmit  bool   `name:"skip-emit" help:"Compose the source tree without running the documentation generator"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if err := b.applyOverrides(cfg); err != nil {
		return err
	}
	if err := config.ValidateForBuild(cfg); err != nil {
		return err
	}

	// Provide friendly user-facing messages on stdout.
	fmt.Println("Starting docmerge build")
	slog.Info(version.Banner())

	recorder, flush := newRecorder(cfg)
	defer flush()

	composer, err := compose.New(cfg, git.New(cfg.Sync, auth.DefaultManager, progressWriter(root)), compose.WithRecorder(recorder))
	if err != nil {
		return err
	}
	out, err := build.NewBuilder(cfg, composer).WithRecorder(recorder).Build(g.ctx())
	if err != nil {
		return err
	}
	fmt.Printf("Merged source tree (%s): %s\n", out.Strategy, out.SourcePath)
	if out.Degraded() {
		fmt.Printf("Composition fell back to primary sources only: %v\n", out.Cause)
	}

	var emitter emit.Emitter = emit.New(cfg.Emit)
	if b.SkipEmit {
		emitter = emit.NoopEmitter{}
	}
	if err := os.MkdirAll(cfg.Output.Directory, 0o750); err != nil {
		return errors.FileSystemError("failed to create output directory").
			WithCause(err).
			WithContext("path", cfg.Output.Directory).
			Build()
	}
	if err := emitter.Emit(g.ctx(), emit.Request{
		Namespace:  cfg.Output.Namespace,
		SourcePath: out.SourcePath,
		OutputPath: cfg.Output.Directory,
		SitePath:   cfg.Output.SitePath,
	}); err != nil {
		return err
	}

	slog.Info("Build completed", logfields.Strategy(string(out.Strategy)), logfields.Path(cfg.Output.Directory))
	fmt.Println("Build completed successfully")
	return nil
}

// applyOverrides applies command line flags on top of the loaded configuration.
func (b *BuildCmd) applyOverrides(cfg *config.Config) error {
	if b.OutputDir != "" {
		cfg.Output.Directory = b.OutputDir
	}
	if b.SitePath != "" {
		cfg.Output.SitePath = b.SitePath
	}
	switch {
	case b.GenOps:
		enabled := true
		cfg.Augment.Enabled = &enabled
	case b.NoGenOps:
		enabled := false
		cfg.Augment.Enabled = &enabled
	}
	if b.JavaRepo != "" {
		if err := cfg.SetOverridePath(config.PrimaryRepository, b.JavaRepo); err != nil {
			return err
		}
		slog.Info("Using local tensorflow-java checkout", logfields.Path(b.JavaRepo))
	}
	return nil
}
