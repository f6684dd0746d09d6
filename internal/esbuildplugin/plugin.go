// Package esbuildplugin hooks init script generation into esbuild builds.
//
//	p := pipeline.New(opts)
//	api.Build(api.BuildOptions{
//		EntryPoints: []string{"src/index.js"},
//		Outdir:      "dist/js",
//		Plugins:     []api.Plugin{esbuildplugin.New(p)},
//	})
//
// The plugin turns on the metafile and, once the build ends without errors,
// maps every entry point to its output files and runs the pipeline.
package esbuildplugin

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/initscript/internal/chunkmap"
	ferrors "git.home.luguber.info/inful/initscript/internal/foundation/errors"
	"git.home.luguber.info/inful/initscript/internal/logfields"
	"git.home.luguber.info/inful/initscript/internal/metrics"
	"git.home.luguber.info/inful/initscript/internal/observability"
	"git.home.luguber.info/inful/initscript/internal/pipeline"
)

// Name is the plugin name esbuild shows in its messages.
const Name = "initscript"

// Option configures the plugin.
type Option func(*plugin)

// WithContext sets the parent context for the runs the plugin starts.
func WithContext(ctx context.Context) Option {
	return func(p *plugin) { p.ctx = ctx }
}

// WithAssetRoot overrides the directory asset paths are made relative to.
// It defaults to the build's outdir.
func WithAssetRoot(dir string) Option {
	return func(p *plugin) { p.assetRoot = dir }
}

type plugin struct {
	pipeline  *pipeline.Pipeline
	ctx       context.Context
	assetRoot string
}

// New returns an esbuild plugin that runs p after every successful build.
func New(p *pipeline.Pipeline, options ...Option) api.Plugin {
	pl := &plugin{pipeline: p, ctx: context.Background()}
	for _, opt := range options {
		opt(pl)
	}
	return api.Plugin{Name: Name, Setup: pl.setup}
}

func (pl *plugin) setup(build api.PluginBuild) {
	build.InitialOptions.Metafile = true

	layout := newBuildLayout(build.InitialOptions, pl.assetRoot)

	build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
		ctx := observability.WithRunID(pl.ctx, observability.NewRunID())

		if len(result.Errors) > 0 {
			pl.pipeline.Recorder().IncRunOutcome(metrics.OutcomeSkipped)
			observability.WarnContext(ctx, "Build failed, init scripts not generated",
				logfields.Count(len(result.Errors)))
			return api.OnEndResult{}, nil
		}

		m, err := layout.chunks(result.Metafile)
		if err != nil {
			pl.pipeline.Recorder().IncRunOutcome(metrics.OutcomeFailed)
			observability.ErrorContext(ctx, "Cannot map build outputs to chunks", logfields.Error(err))
			return api.OnEndResult{}, err
		}

		_, err = pl.pipeline.Run(ctx, m)
		return api.OnEndResult{}, err
	})
}

// buildLayout is what the plugin needs from the build options to read the
// metafile, captured at setup time.
type buildLayout struct {
	root  string
	names map[string]string
}

func newBuildLayout(opts *api.BuildOptions, assetRoot string) buildLayout {
	wd := opts.AbsWorkingDir
	if wd == "" {
		wd, _ = os.Getwd()
	}

	l := buildLayout{names: make(map[string]string)}
	switch {
	case assetRoot != "":
		l.root = relSlash(wd, assetRoot)
	case opts.Outdir != "":
		l.root = relSlash(wd, opts.Outdir)
	case opts.Outfile != "":
		l.root = path.Dir(relSlash(wd, opts.Outfile))
	}

	for _, ep := range opts.EntryPointsAdvanced {
		if ep.OutputPath != "" {
			l.names[relSlash(wd, ep.InputPath)] = filepath.ToSlash(ep.OutputPath)
		}
	}
	return l
}

func (l buildLayout) nameFor(entryPoint string) string {
	if name, ok := l.names[path.Clean(entryPoint)]; ok {
		return name
	}
	return chunkmap.EntryStem(entryPoint)
}

func (l buildLayout) chunks(metafile string) (*chunkmap.Map, error) {
	if metafile == "" {
		return nil, ferrors.BuildError("esbuild produced no metafile").Build()
	}
	mf, err := chunkmap.ParseMetafile([]byte(metafile))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryBuild, "invalid esbuild metafile").Build()
	}
	m, err := mf.ChunkMap(l.root, l.nameFor)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryBuild, "cannot map entry points to chunks").
			WithContext("asset_root", l.root).
			Build()
	}
	return m, nil
}

// relSlash expresses p relative to wd with forward slashes, the way esbuild
// writes paths in its metafile.
func relSlash(wd, p string) string {
	if filepath.IsAbs(p) && wd != "" {
		if rel, err := filepath.Rel(wd, p); err == nil {
			p = rel
		}
	}
	return path.Clean(filepath.ToSlash(p))
}
