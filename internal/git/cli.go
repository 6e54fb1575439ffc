package git

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/docmerge/internal/auth"
	"git.home.luguber.info/inful/docmerge/internal/auth/providers"
	"git.home.luguber.info/inful/docmerge/internal/logfields"
)

// CLIClient synchronizes repositories by invoking the git executable.
type CLIClient struct {
	auth   *auth.Manager
	binary string
}

// NewCLIClient creates a synchronizer backed by the git command line.
func NewCLIClient(mgr *auth.Manager) *CLIClient {
	if mgr == nil {
		mgr = auth.DefaultManager
	}
	return &CLIClient{auth: mgr, binary: "git"}
}

// WithBinary overrides the git executable (fluent helper).
func (c *CLIClient) WithBinary(path string) *CLIClient { c.binary = path; return c }

// Sync implements Synchronizer.
func (c *CLIClient) Sync(ctx context.Context, spec RepositorySpec) (string, error) {
	if err := validateSpec("sync", spec); err != nil {
		return "", err
	}
	start := time.Now()

	opts, err := c.auth.CommandOptions(spec.Auth)
	if err != nil {
		return "", &SyncError{Op: "auth", Remote: spec.RemoteURL, Path: spec.LocalPath, Revision: spec.Revision, Kind: KindAuth, Err: err}
	}

	if isAbsentOrEmpty(spec.LocalPath) {
		if err := c.clone(ctx, spec, opts); err != nil {
			return "", err
		}
	} else {
		if _, err := os.Stat(filepath.Join(spec.LocalPath, ".git")); err != nil {
			return "", newSyncError("open", spec, errNotARepository)
		}
		if err := c.fetch(ctx, spec, opts); err != nil {
			return "", err
		}
	}

	hash, err := c.resolve(ctx, spec, opts)
	if err != nil {
		return "", newSyncError("resolve", spec, err)
	}
	if _, err := c.run(ctx, spec.LocalPath, opts, "checkout", "--quiet", "--force", "--detach", hash); err != nil {
		return "", newSyncError("checkout", spec, err)
	}

	slog.Info("Repository synchronized",
		logfields.Repository(spec.Name),
		logfields.Revision(spec.Revision),
		logfields.Commit(hash),
		logfields.Path(spec.LocalPath),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return spec.LocalPath, nil
}

func (c *CLIClient) clone(ctx context.Context, spec RepositorySpec, opts providers.CommandOptions) error {
	slog.Debug("Cloning repository", logfields.Repository(spec.Name), logfields.Remote(spec.RemoteURL), logfields.Path(spec.LocalPath))
	if err := os.MkdirAll(filepath.Dir(spec.LocalPath), 0o750); err != nil {
		return newSyncError("clone", spec, err)
	}

	existed := clonePrepared(spec.LocalPath)
	args := []string{"clone", "--no-checkout", "--origin", "origin"}
	if spec.Depth > 0 {
		args = append(args, "--depth", fmt.Sprint(spec.Depth), "--no-single-branch")
	}
	args = append(args, "--", spec.RemoteURL, spec.LocalPath)
	if _, err := c.run(ctx, "", opts, args...); err != nil {
		cleanupFailedClone(spec.LocalPath, existed)
		return newSyncError("clone", spec, err)
	}
	// clone only copies tags reachable from fetched branches
	return c.fetch(ctx, spec, opts)
}

func (c *CLIClient) fetch(ctx context.Context, spec RepositorySpec, opts providers.CommandOptions) error {
	slog.Debug("Fetching repository", logfields.Repository(spec.Name), logfields.Remote(spec.RemoteURL), logfields.Path(spec.LocalPath))

	remote := spec.RemoteURL
	if remote == "" {
		remote = "origin"
	}
	args := []string{"fetch", "--force", "--no-tags"}
	if spec.Depth > 0 {
		args = append(args, "--depth", fmt.Sprint(spec.Depth))
	}
	args = append(args, remote, headsRefSpec, tagsRefSpec)
	if _, err := c.run(ctx, spec.LocalPath, opts, args...); err != nil {
		return newSyncError("fetch", spec, err)
	}
	return nil
}

func (c *CLIClient) resolve(ctx context.Context, spec RepositorySpec, opts providers.CommandOptions) (string, error) {
	for _, candidate := range append(revisionCandidates(spec.Revision), spec.Revision) {
		out, err := c.run(ctx, spec.LocalPath, opts, "rev-parse", "--verify", "--quiet", candidate+"^{commit}")
		if err == nil {
			return strings.TrimSpace(out), nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", ErrUnknownRevision
}

// run executes git in dir (current directory when empty) and returns stdout.
// On failure the trimmed stderr is folded into the error.
func (c *CLIClient) run(ctx context.Context, dir string, opts providers.CommandOptions, args ...string) (string, error) {
	full := make([]string, 0, 2*len(opts.Config)+len(args))
	for _, kv := range opts.Config {
		full = append(full, "-c", kv)
	}
	full = append(full, args...)

	// #nosec G204 -- arguments come from configuration, not from untrusted input
	cmd := exec.CommandContext(ctx, c.binary, full...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), opts.Env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return stdout.String(), nil
}
