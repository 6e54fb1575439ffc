package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmerge/internal/foundation/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "docmerge.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "java/api_docs/java", cfg.Output.SitePath)
	assert.Equal(t, "org.tensorflow", cfg.Output.Namespace)
	assert.Equal(t, filepath.Join("tensorflow", "java", "src", "main", "java"), cfg.Layout.PrimarySource)
	assert.Equal(t, "java", cfg.Layout.SourceDir)
	assert.Equal(t, filepath.Join("java", "org"), cfg.Layout.NamespaceDir)
	assert.Equal(t, SyncBackendNative, cfg.Sync.Backend)
	assert.Equal(t, 0, cfg.Sync.MaxRetries)
	assert.True(t, cfg.Augment.IsEnabled())
	assert.Equal(t, filepath.Join("org", "tensorflow", "ops"), cfg.Augment.Dest)
	assert.Equal(t, "git", cfg.Sync.GitBinary)

	require.Len(t, cfg.Repositories, 2)
	tf, ok := cfg.Repository(PrimaryRepository)
	require.True(t, ok)
	assert.Equal(t, "v1.1.0", tf.Revision)
	assert.Equal(t, "tensorflow-java", tf.LocalPath)
	nd, ok := cfg.Repository("ndarray")
	require.True(t, ok)
	assert.Equal(t, "v1.0.0", nd.Revision)

	require.Len(t, cfg.Mappings, 7)
	assert.Equal(t, MappingModeReplaceTree, cfg.Mappings[0].Mode)
	assert.False(t, cfg.Mappings[0].IsOptional())
	for _, m := range cfg.Mappings[1:] {
		assert.Equal(t, MappingModeOverlay, m.Mode, m.Name)
		assert.True(t, m.IsOptional(), m.Name)
	}
	assert.Equal(t, "ndarray", cfg.Mappings[6].Repository)

	require.NoError(t, Validate(cfg))
}

func TestLoad_ExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("DOCMERGE_TEST_OUT", "/srv/docs")
	p := writeConfig(t, `
output:
  directory: ${DOCMERGE_TEST_OUT}
layout:
  repo_root: /src/tf
  checkout_dir: third_party
sync:
  backend: CLI
  max_retries: 2
`)

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "/srv/docs", cfg.Output.Directory)
	assert.Equal(t, SyncBackendCLI, cfg.Sync.Backend)
	assert.Equal(t, 2, cfg.Sync.MaxRetries)
	assert.Equal(t, filepath.Join("/src/tf", "tensorflow", "java", "src", "main", "java"), cfg.PrimarySourcePath())

	tf, ok := cfg.Repository(PrimaryRepository)
	require.True(t, ok)
	assert.Equal(t, filepath.Join("/src/tf", "third_party", "tensorflow-java"), tf.LocalPath)
	require.NoError(t, ValidateForBuild(cfg))
}

func TestLoad_EnvFileDoesNotOverrideProcessEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DOCMERGE_TEST_SITE", "from-process")
	require.NoError(t, os.WriteFile(".env", []byte("DOCMERGE_TEST_SITE=from-file\nDOCMERGE_TEST_NS=org.example\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("DOCMERGE_TEST_NS") })

	p := writeConfig(t, `
output:
  site_path: ${DOCMERGE_TEST_SITE}
  namespace: ${DOCMERGE_TEST_NS}
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "from-process", cfg.Output.SitePath)
	assert.Equal(t, "org.example", cfg.Output.Namespace)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("outputs:\n  directory: x\n"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Len(t, cfg.Mappings, 7)
}

func TestParse_CustomMappings(t *testing.T) {
	cfg, err := Parse([]byte(`
repositories:
  - name: lib
    url: https://example.com/lib.git
    revision: v2.0.0
mappings:
  - name: core
    source: src/core
    dest: java/org/example
    mode: replace
  - name: gen
    repository: lib
    source: gen
    dest: java/org/example/gen
    mode: Overlay
    exclude: ["**/*_test.java"]
  - name: extra
    repository: lib
    source: extra
    dest: java/org/example/extra
    mode: overlay
    optional: false
`))
	require.NoError(t, err)
	require.Len(t, cfg.Mappings, 3)
	assert.Equal(t, MappingModeReplaceTree, cfg.Mappings[0].Mode)
	assert.Equal(t, MappingModeOverlay, cfg.Mappings[1].Mode)
	assert.True(t, cfg.Mappings[1].IsOptional())
	assert.False(t, cfg.Mappings[2].IsOptional())
	assert.Equal(t, []string{"**/*_test.java"}, cfg.Mappings[1].Exclude)
}

func TestSetOverridePath(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.SetOverridePath(PrimaryRepository, "/work/java"))

	tf, _ := cfg.Repository(PrimaryRepository)
	assert.Equal(t, "/work/java", tf.CheckoutPath())

	err := cfg.SetOverridePath("missing", "/x")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestInit(t *testing.T) {
	p := filepath.Join(t.TempDir(), "docmerge.yaml")
	require.NoError(t, Init(p, false))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/java_api", cfg.Output.Directory)
	assert.Len(t, cfg.Mappings, 7)

	err = Init(p, false)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryAlreadyExists))

	require.NoError(t, Init(p, true))
}
