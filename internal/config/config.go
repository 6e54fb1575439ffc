package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docmerge/internal/foundation/errors"
)

// Config is the complete docmerge configuration. It is constructed once by
// the CLI and passed explicitly to every component.
type Config struct {
	Output       OutputConfig    `yaml:"output"`
	Layout       LayoutConfig    `yaml:"layout"`
	Repositories []Repository    `yaml:"repositories"`
	Mappings     []MappingConfig `yaml:"mappings,omitempty"`
	Sync         SyncConfig      `yaml:"sync"`
	Augment      AugmentConfig   `yaml:"augment"`
	Emit         EmitConfig      `yaml:"emit"`
	Logging      LoggingConfig   `yaml:"logging"`
	Metrics      MetricsConfig   `yaml:"metrics"`
}

// OutputConfig describes where the doc emitter writes and under which site prefix.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	SitePath  string `yaml:"site_path"`
	Namespace string `yaml:"namespace"`
}

// LayoutConfig locates the primary project and the merged tree structure.
type LayoutConfig struct {
	// RepoRoot is the root of the primary project checkout.
	RepoRoot string `yaml:"repo_root"`
	// PrimarySource is the locally checked-in source directory used by the
	// degraded composition, relative to RepoRoot.
	PrimarySource string `yaml:"primary_source"`
	// SourceDir is the source directory inside a merged tree handed to the emitter.
	SourceDir string `yaml:"source_dir"`
	// NamespaceDir is created first inside every comprehensive merged tree.
	NamespaceDir string `yaml:"namespace_dir"`
	// CheckoutDir holds external repository checkouts, relative to RepoRoot.
	CheckoutDir string `yaml:"checkout_dir"`
	// WorkDir is the parent of the ephemeral merged trees (empty = os.TempDir).
	WorkDir string `yaml:"work_dir"`
}

// Repository is one external repository pinned to a revision.
type Repository struct {
	Name     string      `yaml:"name"`
	URL      string      `yaml:"url"`
	Revision string      `yaml:"revision"`
	Auth     *AuthConfig `yaml:"auth,omitempty"`
	// LocalPath overrides the default checkout location <repo_root>/<checkout_dir>/<name>.
	LocalPath string `yaml:"local_path,omitempty"`
	// OverridePath points at a pre-existing checkout; synchronization is skipped.
	OverridePath string `yaml:"override_path,omitempty"`
}

// MappingConfig declares one contribution to the merged tree.
type MappingConfig struct {
	Name       string      `yaml:"name"`
	Repository string      `yaml:"repository,omitempty"`
	Source     string      `yaml:"source"`
	Dest       string      `yaml:"dest"`
	Mode       MappingMode `yaml:"mode"`
	Optional   *bool       `yaml:"optional,omitempty"`
	Exclude    []string    `yaml:"exclude,omitempty"`
}

// IsOptional reports whether a missing source is skipped instead of failing.
// Overlay mappings are optional unless stated otherwise; replace-tree mappings are required.
func (m MappingConfig) IsOptional() bool {
	if m.Optional != nil {
		return *m.Optional
	}
	return m.Mode == MappingModeOverlay
}

// SyncConfig controls how external repositories are synchronized.
type SyncConfig struct {
	Backend           SyncBackend      `yaml:"backend"`
	GitBinary         string           `yaml:"git_binary,omitempty"` // cli backend executable
	Depth             int              `yaml:"depth,omitempty"`
	MaxRetries        int              `yaml:"max_retries"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff,omitempty"`
	RetryInitialDelay string           `yaml:"retry_initial_delay,omitempty"`
	RetryMaxDelay     string           `yaml:"retry_max_delay,omitempty"`
}

// AugmentConfig configures the optional generated-sources build step of the degraded path.
type AugmentConfig struct {
	Enabled         *bool  `yaml:"enabled,omitempty"`
	ConfigureScript string `yaml:"configure_script,omitempty"`
	Command         string `yaml:"command,omitempty"`
	Target          string `yaml:"target,omitempty"`
	OutputDir       string `yaml:"output_dir,omitempty"`
	// Dest is relative to layout.source_dir of the merged tree.
	Dest string `yaml:"dest,omitempty"`
}

// IsEnabled reports whether augmentation runs; it defaults to true.
func (a AugmentConfig) IsEnabled() bool { return a.Enabled == nil || *a.Enabled }

// EmitConfig configures the external documentation generator.
type EmitConfig struct {
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// Default returns the built-in configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads a YAML configuration file, expands ${VAR} references from the
// environment (after loading .env files) and applies defaults, normalization
// and validation.
func Load(configPath string) (*Config, error) {
	if loaded, err := loadEnvFiles(); err != nil {
		slog.Warn("Failed to load env file", slog.String("error", err.Error()))
	} else if loaded != "" {
		slog.Debug("Loaded environment file", slog.String("path", loaded))
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Fatal().
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML configuration content. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").
			Fatal().
			UserAction().
			Build()
	}

	for _, w := range Normalize(&cfg) {
		slog.Warn("Configuration value normalized", slog.String("detail", w))
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init writes an example configuration file populated with the defaults.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.NewError(errors.CategoryAlreadyExists, fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).
			WithContext("path", configPath).
			UserAction().
			Build()
	}

	cfg := Default()
	cfg.Output.Directory = "/tmp/java_api"
	for i := range cfg.Repositories {
		cfg.Repositories[i].LocalPath = ""
	}

	var buf bytes.Buffer
	buf.WriteString("# docmerge configuration\n")
	buf.WriteString("# Values may reference environment variables as ${VAR}; .env and .env.local are loaded first.\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal example config").Build()
	}
	if err := enc.Close(); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal example config").Build()
	}

	// #nosec G306 -- config files are not secret; credentials belong in .env
	if err := os.WriteFile(configPath, buf.Bytes(), 0o644); err != nil {
		return errors.FileSystemError("failed to write config file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	return nil
}

// Repository returns the configured repository with the given name.
func (c *Config) Repository(name string) (Repository, bool) {
	for _, r := range c.Repositories {
		if r.Name == name {
			return r, true
		}
	}
	return Repository{}, false
}

// SetOverridePath points the named repository at a pre-existing checkout.
func (c *Config) SetOverridePath(name, path string) error {
	for i := range c.Repositories {
		if c.Repositories[i].Name == name {
			c.Repositories[i].OverridePath = path
			return nil
		}
	}
	return errors.ValidationError(fmt.Sprintf("unknown repository %q", name)).
		WithContext("repository", name).
		Build()
}
