package commands

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/initscript/internal/config"
	ferrors "git.home.luguber.info/inful/initscript/internal/foundation/errors"
	"git.home.luguber.info/inful/initscript/internal/logfields"
	"git.home.luguber.info/inful/initscript/internal/metrics"
	"git.home.luguber.info/inful/initscript/internal/pipeline"
	"git.home.luguber.info/inful/initscript/internal/version"
)

// LogLevelEnv overrides the log level when --verbose is not given.
const LogLevelEnv = "INITSCRIPT_LOG_LEVEL"

// Global is passed to every command's Run method.
type Global struct {
	Ctx    context.Context
	Logger *slog.Logger
	// Out receives user-facing output.
	Out io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: ${config_file} when present)" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Generate GenerateCmd `cmd:"" help:"Write init scripts from a webpack, Vite or esbuild manifest"`
	Bundle   BundleCmd   `cmd:"" help:"Bundle entry points with esbuild and write their init scripts"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
	Info     VersionCmd  `cmd:"" name:"version" help:"Print version information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slogLevel(config.NormalizeLogLevel(os.Getenv(LogLevelEnv)))
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
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

// NewParser builds the kong parser for cli.
func NewParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	base := []kong.Option{
		kong.Name("initscript"),
		kong.Description("Generate script loader snippets for bundled chunks"),
		kong.Vars{
			"version":     version.String(),
			"config_file": config.DefaultConfigFile,
		},
		kong.UsageOnError(),
	}
	return kong.New(cli, append(base, options...)...)
}

// OptionFlags are the generation options shared by generate and bundle.
// Set flags win over the config file, which wins over the defaults.
type OptionFlags struct {
	OutputDir        string   `name:"output-dir" short:"o" help:"Directory the init scripts are written to (default: ./dist/init)"`
	PublicPath       string   `name:"public-path" short:"p" help:"URL prefix of the bundled assets (default: /)"`
	Ignore           []string `name:"ignore" help:"Chunk to skip; repeatable"`
	Mode             string   `name:"mode" help:"Injection mode: sync or async"`
	Aggregation      string   `name:"aggregation" help:"per-chunk or combined"`
	CombinedFilename string   `name:"combined-filename" help:"File name used in combined mode (default: base.js)"`
	MetricsFile      string   `name:"metrics-file" help:"Write Prometheus metrics for the run to this file" type:"path"`
}

func (f OptionFlags) overrides() config.Options {
	return config.Options{
		OutputDir:        f.OutputDir,
		PublicPath:       f.PublicPath,
		IgnoredChunks:    f.Ignore,
		InjectionMode:    config.InjectionMode(f.Mode),
		Aggregation:      config.Aggregation(f.Aggregation),
		CombinedFilename: f.CombinedFilename,
	}
}

// resolveOptions layers the flags over the config file and resolves the
// result against the defaults.
func resolveOptions(root *CLI, flags OptionFlags) (config.Resolved, error) {
	fileOpts, err := loadConfigFile(root.Config)
	if err != nil {
		return config.Resolved{}, err
	}
	return config.Resolve(fileOpts.Merge(flags.overrides()))
}

// loadConfigFile reads path, or the default config file when path is empty
// and that file exists.
func loadConfigFile(path string) (config.Options, error) {
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigFile); errors.Is(err, fs.ErrNotExist) {
			return config.Options{}, nil
		}
		path = config.DefaultConfigFile
	}
	slog.Debug("Loading configuration", logfields.Path(path))
	return config.Load(path)
}

// newPipeline builds the pipeline for opts. The returned flush function
// writes the metrics file when one was requested.
func (f OptionFlags) newPipeline(opts config.Resolved, extra ...pipeline.Option) (*pipeline.Pipeline, func() error) {
	if f.MetricsFile == "" {
		return pipeline.New(opts, extra...), func() error { return nil }
	}

	reg := prom.NewRegistry()
	extra = append(extra, pipeline.WithRecorder(metrics.NewPrometheusRecorder(reg)))
	p := pipeline.New(opts, extra...)
	flush := func() error {
		if err := metrics.WriteTextfile(f.MetricsFile, reg); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write metrics file").
				WithContext("path", f.MetricsFile).
				Build()
		}
		slog.Debug("Metrics written", logfields.Path(f.MetricsFile))
		return nil
	}
	return p, flush
}
