package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/docmerge/internal/foundation/errors"
)

// Validate checks the structural consistency of a defaulted configuration.
// It does not require output.directory; see ValidateForBuild.
func Validate(cfg *Config) error {
	if err := validateRepositories(cfg); err != nil {
		return err
	}
	if err := validateMappings(cfg); err != nil {
		return err
	}
	if err := validateSync(&cfg.Sync); err != nil {
		return err
	}
	if err := validateRelative("augment.dest", cfg.Augment.Dest); err != nil {
		return err
	}
	if err := validateRelative("layout.source_dir", cfg.Layout.SourceDir); err != nil {
		return err
	}
	if err := validateRelative("layout.namespace_dir", cfg.Layout.NamespaceDir); err != nil {
		return err
	}
	if _, ok := logLevels.lookup(string(cfg.Logging.Level)); !ok {
		return invalidEnum(logLevels.name, string(cfg.Logging.Level), logLevels.valid())
	}
	if _, ok := logFormats.lookup(string(cfg.Logging.Format)); !ok {
		return invalidEnum(logFormats.name, string(cfg.Logging.Format), logFormats.valid())
	}
	return nil
}

// ValidateForBuild additionally requires the settings the build command needs.
func ValidateForBuild(cfg *Config) error {
	if strings.TrimSpace(cfg.Output.Directory) == "" {
		return errors.ValidationError("output.directory is required").
			WithContext("field", "output.directory").
			Build()
	}
	return Validate(cfg)
}

func validateRepositories(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Repositories))
	for i, r := range cfg.Repositories {
		field := fmt.Sprintf("repositories[%d]", i)
		if strings.TrimSpace(r.Name) == "" {
			return fieldError(field+".name", "repository name cannot be empty")
		}
		if seen[r.Name] {
			return fieldError(field+".name", fmt.Sprintf("duplicate repository name: %s", r.Name))
		}
		seen[r.Name] = true

		if r.OverridePath != "" {
			continue
		}
		if strings.TrimSpace(r.URL) == "" {
			return fieldError(field+".url", fmt.Sprintf("repository %s needs a url or an override_path", r.Name))
		}
		if strings.TrimSpace(r.Revision) == "" {
			return fieldError(field+".revision", fmt.Sprintf("repository %s needs a pinned revision", r.Name))
		}
		if r.Auth != nil && r.Auth.Type != "" {
			if _, ok := authTypes.lookup(string(r.Auth.Type)); !ok {
				return invalidEnum(field+".auth.type", string(r.Auth.Type), authTypes.valid())
			}
		}
	}
	return nil
}

func validateMappings(cfg *Config) error {
	if len(cfg.Mappings) == 0 {
		return errors.ValidationError("at least one mapping must be configured").Build()
	}
	names := make(map[string]bool, len(cfg.Mappings))
	for i, m := range cfg.Mappings {
		field := fmt.Sprintf("mappings[%d]", i)
		if strings.TrimSpace(m.Name) == "" {
			return fieldError(field+".name", "mapping name cannot be empty")
		}
		if names[m.Name] {
			return fieldError(field+".name", fmt.Sprintf("duplicate mapping name: %s", m.Name))
		}
		names[m.Name] = true

		if _, ok := mappingModes.lookup(string(m.Mode)); !ok {
			return invalidEnum(field+".mode", string(m.Mode), mappingModes.valid())
		}
		if i == 0 && m.Mode != MappingModeReplaceTree {
			return fieldError(field+".mode", "the first mapping must use replace-tree")
		}
		if m.Repository != "" {
			if _, ok := cfg.Repository(m.Repository); !ok {
				return fieldError(field+".repository", fmt.Sprintf("mapping %s references unknown repository %s", m.Name, m.Repository))
			}
		}
		if err := validateRelative(field+".source", m.Source); err != nil {
			return err
		}
		if err := validateRelative(field+".dest", m.Dest); err != nil {
			return err
		}
		for _, pattern := range m.Exclude {
			if !doublestar.ValidatePattern(pattern) {
				return fieldError(field+".exclude", fmt.Sprintf("invalid exclude pattern %q", pattern))
			}
		}
	}
	return nil
}

func validateSync(s *SyncConfig) error {
	if _, ok := syncBackends.lookup(string(s.Backend)); !ok {
		return invalidEnum(syncBackends.name, string(s.Backend), syncBackends.valid())
	}
	if _, ok := retryBackoffs.lookup(string(s.RetryBackoff)); !ok {
		return invalidEnum(retryBackoffs.name, string(s.RetryBackoff), retryBackoffs.valid())
	}
	if s.MaxRetries < 0 {
		return fieldError("sync.max_retries", "max_retries cannot be negative")
	}
	if s.Depth < 0 {
		return fieldError("sync.depth", "depth cannot be negative")
	}
	if _, _, err := s.RetryDelays(); err != nil {
		return err
	}
	return nil
}

// RetryDelays parses the configured retry delays.
func (s SyncConfig) RetryDelays() (time.Duration, time.Duration, error) {
	initial, err := time.ParseDuration(s.RetryInitialDelay)
	if err != nil {
		return 0, 0, fieldError("sync.retry_initial_delay", fmt.Sprintf("invalid duration %q", s.RetryInitialDelay))
	}
	maxDelay, err := time.ParseDuration(s.RetryMaxDelay)
	if err != nil {
		return 0, 0, fieldError("sync.retry_max_delay", fmt.Sprintf("invalid duration %q", s.RetryMaxDelay))
	}
	if maxDelay < initial {
		return 0, 0, fieldError("sync.retry_max_delay", "retry_max_delay must not be smaller than retry_initial_delay")
	}
	return initial, maxDelay, nil
}

// validateRelative rejects empty, absolute and parent-escaping paths.
func validateRelative(field, p string) error {
	if strings.TrimSpace(p) == "" {
		return fieldError(field, "path cannot be empty")
	}
	if filepath.IsAbs(p) {
		return fieldError(field, fmt.Sprintf("path must be relative: %s", p))
	}
	if !filepath.IsLocal(p) {
		return fieldError(field, fmt.Sprintf("path escapes its root: %s", p))
	}
	return nil
}

func fieldError(field, msg string) error {
	return errors.ValidationError(msg).WithContext("field", field).Build()
}

func invalidEnum(field, value string, valid []string) error {
	return errors.ValidationError(fmt.Sprintf("invalid %s %q (valid: %s)", field, value, strings.Join(valid, ", "))).
		WithContext("field", field).
		Build()
}
