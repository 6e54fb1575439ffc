package config

import (
	"fmt"
	"slices"
	"strings"
)

// MappingMode selects how a mapping is placed into the merged tree.
type MappingMode string

const (
	MappingModeReplaceTree MappingMode = "replace-tree"
	MappingModeOverlay     MappingMode = "overlay"
)

// SyncBackend selects the git implementation used by the synchronizer.
type SyncBackend string

const (
	SyncBackendNative SyncBackend = "native"
	SyncBackendCLI    SyncBackend = "cli"
)

// RetryBackoffMode enumerates supported backoff strategies for sync retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// enum maps user spellings onto canonical values. Lookups are
// case-insensitive and ignore surrounding whitespace; aliases are accepted.
type enum[T ~string] struct {
	name   string
	values map[string]T
}

func newEnum[T ~string](name string, values map[string]T) enum[T] {
	return enum[T]{name: name, values: values}
}

func (e enum[T]) lookup(raw string) (T, bool) {
	v, ok := e.values[strings.ToLower(strings.TrimSpace(raw))]
	return v, ok
}

func (e enum[T]) valid() []string {
	seen := make([]string, 0, len(e.values))
	for _, v := range e.values {
		if !slices.Contains(seen, string(v)) {
			seen = append(seen, string(v))
		}
	}
	slices.Sort(seen)
	return seen
}

// normalize canonicalizes *field in place. Unknown values are left untouched
// for validation to report.
func (e enum[T]) normalize(field *T, warnings *[]string) {
	if *field == "" {
		return
	}
	v, ok := e.lookup(string(*field))
	if !ok || v == *field {
		return
	}
	*warnings = append(*warnings, fmt.Sprintf("%s: %q normalized to %q", e.name, *field, v))
	*field = v
}

var (
	mappingModes = newEnum("mappings[].mode", map[string]MappingMode{
		"replace-tree":  MappingModeReplaceTree,
		"replace_tree":  MappingModeReplaceTree,
		"replace":       MappingModeReplaceTree,
		"overlay":       MappingModeOverlay,
		"overlay-merge": MappingModeOverlay,
		"merge":         MappingModeOverlay,
	})
	syncBackends = newEnum("sync.backend", map[string]SyncBackend{
		"native": SyncBackendNative,
		"go-git": SyncBackendNative,
		"cli":    SyncBackendCLI,
		"git":    SyncBackendCLI,
	})
	retryBackoffs = newEnum("sync.retry_backoff", map[string]RetryBackoffMode{
		"fixed":       RetryBackoffFixed,
		"linear":      RetryBackoffLinear,
		"exponential": RetryBackoffExponential,
	})
	logLevels = newEnum("logging.level", map[string]LogLevel{
		"debug":   LogLevelDebug,
		"info":    LogLevelInfo,
		"warn":    LogLevelWarn,
		"warning": LogLevelWarn,
		"error":   LogLevelError,
	})
	logFormats = newEnum("logging.format", map[string]LogFormat{
		"json": LogFormatJSON,
		"text": LogFormatText,
	})
	authTypes = newEnum("auth.type", map[string]AuthType{
		"none":  AuthTypeNone,
		"ssh":   AuthTypeSSH,
		"token": AuthTypeToken,
		"basic": AuthTypeBasic,
	})
)

// NormalizeRetryBackoff converts user input into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	v, _ := retryBackoffs.lookup(raw)
	return v
}

// NormalizeLogLevel converts user input into a LogLevel, defaulting to info.
func NormalizeLogLevel(raw string) LogLevel {
	if v, ok := logLevels.lookup(raw); ok {
		return v
	}
	return LogLevelInfo
}

// NormalizeLogFormat converts user input into a LogFormat, defaulting to text.
func NormalizeLogFormat(raw string) LogFormat {
	if v, ok := logFormats.lookup(raw); ok {
		return v
	}
	return LogFormatText
}

// Normalize canonicalizes enumerated fields in place and returns a warning
// for every value that was rewritten.
func Normalize(cfg *Config) []string {
	var warnings []string
	for i := range cfg.Mappings {
		mappingModes.normalize(&cfg.Mappings[i].Mode, &warnings)
	}
	for i := range cfg.Repositories {
		if a := cfg.Repositories[i].Auth; a != nil {
			authTypes.normalize(&a.Type, &warnings)
		}
	}
	syncBackends.normalize(&cfg.Sync.Backend, &warnings)
	retryBackoffs.normalize(&cfg.Sync.RetryBackoff, &warnings)
	logLevels.normalize(&cfg.Logging.Level, &warnings)
	logFormats.normalize(&cfg.Logging.Format, &warnings)
	return warnings
}
