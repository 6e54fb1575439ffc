package config

import "path/filepath"

// Default pinned upstream versions for the TensorFlow Java layout.
const (
	DefaultTensorFlowJavaVersion = "v1.1.0"
	DefaultNDArrayVersion        = "v1.0.0"

	// PrimaryRepository is the external repository replaced by --java-repo.
	PrimaryRepository = "tensorflow-java"
)

// DefaultRepositories returns the external repositories composed by default.
func DefaultRepositories() []Repository {
	return []Repository{
		{
			Name:     PrimaryRepository,
			URL:      "https://github.com/tensorflow/java",
			Revision: DefaultTensorFlowJavaVersion,
		},
		{
			Name:     "ndarray",
			URL:      "https://github.com/tensorflow/java-ndarray",
			Revision: DefaultNDArrayVersion,
		},
	}
}

// DefaultMappings returns the ordered subtree mappings of the TensorFlow Java
// layout. The hand-written core API is placed first; every later layer overlays it.
func DefaultMappings() []MappingConfig {
	return []MappingConfig{
		{
			Name:       "core-api",
			Repository: PrimaryRepository,
			Source:     "tensorflow-core/tensorflow-core-api/src/main/java/org/tensorflow",
			Dest:       "java/org/tensorflow",
			Mode:       MappingModeReplaceTree,
		},
		{
			Name:       "generated-api",
			Repository: PrimaryRepository,
			Source:     "tensorflow-core/tensorflow-core-api/src/gen/java/org/tensorflow",
			Dest:       "java/org/tensorflow",
			Mode:       MappingModeOverlay,
		},
		{
			Name:       "native-proto",
			Repository: PrimaryRepository,
			Source:     "tensorflow-core/tensorflow-core-native/src/gen/java/org/tensorflow/proto",
			Dest:       "java/org/tensorflow/proto",
			Mode:       MappingModeOverlay,
		},
		{
			Name:       "exceptions",
			Repository: PrimaryRepository,
			Source:     "tensorflow-core/tensorflow-core-native/src/main/java/org/tensorflow/exceptions",
			Dest:       "java/org/tensorflow/exceptions",
			Mode:       MappingModeOverlay,
		},
		{
			Name:       "c-api",
			Repository: PrimaryRepository,
			Source:     "tensorflow-core/tensorflow-core-native/src/gen/java/org/tensorflow/internal/c_api",
			Dest:       "java/org/tensorflow/internal/c_api",
			Mode:       MappingModeOverlay,
		},
		{
			Name:       "framework",
			Repository: PrimaryRepository,
			Source:     "tensorflow-framework/src/main/java/org/tensorflow/framework",
			Dest:       "java/org/tensorflow/framework",
			Mode:       MappingModeOverlay,
		},
		{
			Name:       "ndarray",
			Repository: "ndarray",
			Source:     "ndarray/src/main/java/org/tensorflow/ndarray",
			Dest:       "java/org/tensorflow/ndarray",
			Mode:       MappingModeOverlay,
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Output.SitePath == "" {
		cfg.Output.SitePath = "java/api_docs/java"
	}
	if cfg.Output.Namespace == "" {
		cfg.Output.Namespace = "org.tensorflow"
	}

	l := &cfg.Layout
	if l.RepoRoot == "" {
		l.RepoRoot = "."
	}
	if l.PrimarySource == "" {
		l.PrimarySource = filepath.Join("tensorflow", "java", "src", "main", "java")
	}
	if l.SourceDir == "" {
		l.SourceDir = "java"
	}
	if l.NamespaceDir == "" {
		l.NamespaceDir = filepath.Join("java", "org")
	}

	if len(cfg.Repositories) == 0 {
		cfg.Repositories = DefaultRepositories()
	}
	for i := range cfg.Repositories {
		r := &cfg.Repositories[i]
		if r.LocalPath == "" {
			r.LocalPath = filepath.Join(l.RepoRoot, l.CheckoutDir, r.Name)
		}
	}
	if len(cfg.Mappings) == 0 {
		cfg.Mappings = DefaultMappings()
	}

	s := &cfg.Sync
	if s.Backend == "" {
		s.Backend = SyncBackendNative
	}
	if s.GitBinary == "" {
		s.GitBinary = "git"
	}
	if s.RetryBackoff == "" {
		s.RetryBackoff = RetryBackoffExponential
	}
	if s.RetryInitialDelay == "" {
		s.RetryInitialDelay = "2s"
	}
	if s.RetryMaxDelay == "" {
		s.RetryMaxDelay = "30s"
	}

	a := &cfg.Augment
	if a.ConfigureScript == "" {
		a.ConfigureScript = "configure"
	}
	if a.Command == "" {
		a.Command = "bazel"
	}
	if a.Target == "" {
		a.Target = "//tensorflow/java:java_op_gen_sources"
	}
	if a.OutputDir == "" {
		a.OutputDir = "bazel-bin/tensorflow/java/ops/src/main/java/org/tensorflow/op"
	}
	if a.Dest == "" {
		a.Dest = filepath.Join("org", "tensorflow", "ops")
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
}

// PrimarySourcePath returns the absolute-or-relative path of the locally
// checked-in primary sources.
func (c *Config) PrimarySourcePath() string {
	return filepath.Join(c.Layout.RepoRoot, c.Layout.PrimarySource)
}

// AugmentOutputPath returns where the augmentation provider leaves generated sources.
func (c *Config) AugmentOutputPath() string {
	return filepath.Join(c.Layout.RepoRoot, c.Augment.OutputDir)
}

// CheckoutPath returns the directory a repository is synchronized into, or its
// override path when one is set.
func (r Repository) CheckoutPath() string {
	if r.OverridePath != "" {
		return r.OverridePath
	}
	return r.LocalPath
}
