package emit

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/docmerge/internal/config"
	"git.home.luguber.info/inful/docmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/docmerge/internal/logfields"
)

// ErrGeneratorFailed indicates the documentation generator exited unsuccessfully.
var ErrGeneratorFailed = stderrors.New("documentation generator failed")

// Request describes one documentation generation run.
type Request struct {
	Namespace  string
	SourcePath string
	OutputPath string
	SitePath   string
}

// Emitter produces reference documentation from a merged source tree.
type Emitter interface {
	Emit(ctx context.Context, req Request) error
}

// New returns a CommandEmitter when a command is configured, else a NoopEmitter.
func New(cfg config.EmitConfig) Emitter {
	if strings.TrimSpace(cfg.Command) == "" {
		return NoopEmitter{}
	}
	return &CommandEmitter{Command: cfg.Command, Args: cfg.Args}
}

// CommandEmitter runs an external generator. Args may contain the
// placeholders {namespace}, {source}, {output} and {site}.
type CommandEmitter struct {
	Command string
	Args    []string
}

func (e *CommandEmitter) Emit(ctx context.Context, req Request) error {
	if _, err := os.Stat(req.SourcePath); err != nil {
		return errors.NewError(errors.CategoryEmit, "source path not found").
			WithCause(err).
			WithContext("path", req.SourcePath).
			Build()
	}
	if _, err := exec.LookPath(e.Command); err != nil {
		return errors.NewError(errors.CategoryEmit, fmt.Sprintf("generator %s not found", e.Command)).
			WithCause(err).
			UserAction().
			Build()
	}

	args := expandArgs(e.Args, req)
	cmd := exec.CommandContext(ctx, e.Command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Info("Emitting reference documentation",
		slog.String("command", e.Command),
		logfields.Source(req.SourcePath),
		logfields.Dest(req.OutputPath))

	err := cmd.Run()

	outStr := stdout.String()
	errStr := stderr.String()
	if outStr != "" {
		slog.Debug("generator stdout", "output", outStr)
	}
	if errStr != "" {
		slog.Warn("generator stderr", "error_output", errStr)
	}

	if err != nil {
		output := errStr
		if output == "" {
			output = outStr
		}
		cause := fmt.Errorf("%w: %w", ErrGeneratorFailed, err)
		if output != "" {
			cause = fmt.Errorf("%w: %w: %s", ErrGeneratorFailed, err, strings.TrimSpace(output))
		}
		return errors.NewError(errors.CategoryEmit, fmt.Sprintf("%s failed", e.Command)).
			WithCause(cause).
			WithContext("command", e.Command).
			Build()
	}
	return nil
}

func expandArgs(args []string, req Request) []string {
	r := strings.NewReplacer(
		"{namespace}", req.Namespace,
		"{source}", req.SourcePath,
		"{output}", req.OutputPath,
		"{site}", req.SitePath,
	)
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.Replace(a)
	}
	return out
}

// NoopEmitter skips documentation generation.
type NoopEmitter struct{}

func (NoopEmitter) Emit(_ context.Context, req Request) error {
	slog.Info("No documentation generator configured, skipping emit", logfields.Source(req.SourcePath))
	return nil
}
