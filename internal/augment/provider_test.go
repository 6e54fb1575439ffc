package augment

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmerge/internal/config"
)

// fakeTools installs a configure script in a fresh repo root and a fake
// bazel on PATH. The configure script requires three answered prompts and
// records them; bazel creates the output directory unless told to fail.
func fakeTools(t *testing.T, bazelBody string) *config.Config {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts required")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	root := t.TempDir()
	configure := "#!/bin/sh\nfor i in 1 2 3; do read answer || exit 3; echo \"prompt $i: [$answer]\" >> configured.log; done\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "configure"), []byte(configure), 0o755)) //nolint:gosec // test script

	bin := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bin, "bazel"), []byte("#!/bin/sh\n"+bazelBody), 0o755)) //nolint:gosec // test script
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))

	cfg := config.Default()
	cfg.Layout.RepoRoot = root
	return cfg
}

func TestBazelProvider_Generate(t *testing.T) {
	cfg := fakeTools(t, "[ \"$1\" = build ] || exit 2\nmkdir -p bazel-bin/tensorflow/java/ops/src/main/java/org/tensorflow/op/core\necho 'class Ops {}' > bazel-bin/tensorflow/java/ops/src/main/java/org/tensorflow/op/core/Ops.java\n")

	p := NewBazelProvider(cfg)
	assert.Equal(t, "bazel", p.Name())

	out, err := p.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg.AugmentOutputPath(), out)
	assert.FileExists(t, filepath.Join(out, "core", "Ops.java"))

	log, err := os.ReadFile(filepath.Join(cfg.Layout.RepoRoot, "configured.log"))
	require.NoError(t, err)
	assert.Equal(t, "prompt 1: []\nprompt 2: []\nprompt 3: []\n", string(log))
}

func TestBazelProvider_BuildFailure(t *testing.T) {
	cfg := fakeTools(t, "echo 'ERROR: no such target' >&2\nexit 1\n")

	_, err := NewBazelProvider(cfg).Generate(context.Background())
	require.ErrorIs(t, err, ErrExecutionFailed)
	assert.Contains(t, err.Error(), "no such target")
}

func TestBazelProvider_MissingOutput(t *testing.T) {
	cfg := fakeTools(t, "exit 0\n")

	_, err := NewBazelProvider(cfg).Generate(context.Background())
	require.ErrorIs(t, err, ErrOutputMissing)
}

func TestBazelProvider_ConfigureFailureStillBuilds(t *testing.T) {
	cfg := fakeTools(t, "mkdir -p bazel-bin/tensorflow/java/ops/src/main/java/org/tensorflow/op\ntouch bazel.ran\n")
	configure := "#!/bin/sh\necho 'Could not find any python' >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Layout.RepoRoot, "configure"), []byte(configure), 0o755)) //nolint:gosec // test script

	out, err := NewBazelProvider(cfg).Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg.AugmentOutputPath(), out)
	assert.FileExists(t, filepath.Join(cfg.Layout.RepoRoot, "bazel.ran"))
}

func TestBazelProvider_MissingConfigureScript(t *testing.T) {
	cfg := fakeTools(t, "touch bazel.ran\n")
	require.NoError(t, os.Remove(filepath.Join(cfg.Layout.RepoRoot, "configure")))

	_, err := NewBazelProvider(cfg).Generate(context.Background())
	require.ErrorIs(t, err, ErrToolNotFound)
	assert.NoFileExists(t, filepath.Join(cfg.Layout.RepoRoot, "bazel.ran"))
}

func TestBazelProvider_ToolNotFound(t *testing.T) {
	cfg := fakeTools(t, "exit 0\n")
	cfg.Augment.ConfigureScript = ""
	cfg.Augment.Command = "docmerge-no-such-build-tool"

	_, err := NewBazelProvider(cfg).Generate(context.Background())
	require.ErrorIs(t, err, ErrToolNotFound)
}

func TestNew(t *testing.T) {
	cfg := config.Default()
	assert.IsType(t, &BazelProvider{}, New(cfg))

	off := false
	cfg.Augment.Enabled = &off
	p := New(cfg)
	assert.Equal(t, "noop", p.Name())
	_, err := p.Generate(context.Background())
	require.ErrorIs(t, err, ErrDisabled)

	assert.Equal(t, NoopProvider{}, New(nil))
}

func TestEndlessNewlines(t *testing.T) {
	buf := make([]byte, 8)
	n, err := endlessNewlines{}.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, []byte("\n\n\n\n\n\n\n\n"), buf)
}
