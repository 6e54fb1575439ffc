package commands

import (
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"git.home.luguber.info/inful/docmerge/internal/config"
	"git.home.luguber.info/inful/docmerge/internal/metrics"
)

const defaultConfigPath = "docmerge.yaml"

// Global carries state shared by every subcommand.
type Global struct {
	Context context.Context
}

func (g *Global) ctx() context.Context {
	if g == nil || g.Context == nil {
		return context.Background()
	}
	return g.Context
}

// CLI definition & global flags.
type CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"docmerge.yaml" env:"DOCMERGE_CONFIG"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build   BuildCmd   `cmd:"" help:"Compose the merged source tree and emit reference documentation"`
	Sync    SyncCmd    `cmd:"" help:"Synchronize external repositories to their pinned revisions"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level, _ := parseLogLevel(c.Verbose)
	configureLogging(level, logFormatFromEnv())
	return nil
}

// parseLogLevel resolves the level from --verbose, then DOCMERGE_LOG_LEVEL.
// explicit is false when neither is set.
func parseLogLevel(verbose bool) (slog.Level, bool) {
	if verbose {
		return slog.LevelDebug, true
	}
	if env := strings.TrimSpace(os.Getenv("DOCMERGE_LOG_LEVEL")); env != "" {
		return slogLevel(config.NormalizeLogLevel(env)), true
	}
	return slog.LevelInfo, false
}

func logFormatFromEnv() config.LogFormat {
	return config.NormalizeLogFormat(os.Getenv("DOCMERGE_LOG_FORMAT"))
}

func slogLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func configureLogging(level slog.Level, format config.LogFormat) {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadConfig loads the configuration file. A missing file at the default
// path yields the built-in defaults so the tool runs from flags alone.
func loadConfig(root *CLI) (*config.Config, error) {
	path := root.Config
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		if path != defaultConfigPath {
			return nil, err
		}
		if _, statErr := os.Stat(path); !stderrors.Is(statErr, fs.ErrNotExist) {
			return nil, err
		}
		slog.Info("No configuration file found, using built-in defaults", slog.String("path", path))
		cfg = config.Default()
	}

	// the config file only decides logging when neither flag nor env did
	if _, explicit := parseLogLevel(root.Verbose); !explicit {
		format := cfg.Logging.Format
		if env := os.Getenv("DOCMERGE_LOG_FORMAT"); env != "" {
			format = logFormatFromEnv()
		}
		configureLogging(slogLevel(cfg.Logging.Level), format)
	}
	return cfg, nil
}

// progressWriter streams remote progress to stderr in verbose mode.
func progressWriter(root *CLI) io.Writer {
	if root.Verbose {
		return os.Stderr
	}
	return nil
}

// newRecorder returns the metrics recorder and a flush function writing the
// textfile when one is configured.
func newRecorder(cfg *config.Config) (metrics.Recorder, func()) {
	if cfg.Metrics.Textfile == "" {
		return metrics.NoopRecorder{}, func() {}
	}
	pr := metrics.NewPrometheusRecorder(nil)
	return pr, func() {
		if err := pr.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			slog.Warn("Failed to write metrics textfile", slog.String("path", cfg.Metrics.Textfile), slog.String("error", err.Error()))
			return
		}
		slog.Debug("Wrote metrics textfile", slog.String("path", cfg.Metrics.Textfile))
	}
}
