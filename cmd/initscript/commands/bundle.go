package commands

import (
	"log/slog"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/initscript/internal/esbuildplugin"
	ferrors "git.home.luguber.info/inful/initscript/internal/foundation/errors"
	"git.home.luguber.info/inful/initscript/internal/logfields"
	"git.home.luguber.info/inful/initscript/internal/pipeline"
)

// BundleCmd implements the 'bundle' command: an esbuild build with the init
// script plugin attached.
type BundleCmd struct {
	Entries    []string `arg:"" help:"Entry point files"`
	Outdir     string   `name:"outdir" help:"Directory for the bundled assets" default:"dist/js"`
	EntryNames string   `name:"entry-names" help:"esbuild entry name template" default:"[name]-[hash]"`
	Target     string   `name:"module-format" help:"Output module format: iife, esm or cjs" enum:"iife,esm,cjs" default:"iife"`
	Minify     bool     `help:"Minify the bundles"`
	Sourcemap  bool     `help:"Emit linked source maps"`
	Splitting  bool     `help:"Split shared code into chunks (esm only)"`

	OptionFlags `embed:""`
}

var moduleFormats = map[string]api.Format{
	"iife": api.FormatIIFE,
	"esm":  api.FormatESModule,
	"cjs":  api.FormatCommonJS,
}

func (b *BundleCmd) Run(global *Global, root *CLI) error {
	opts, err := resolveOptions(root, b.OptionFlags)
	if err != nil {
		return err
	}

	var report *pipeline.Report
	p, flush := b.newPipeline(opts, pipeline.WithReportHook(func(r *pipeline.Report) {
		report = r
	}))

	sourcemap := api.SourceMapNone
	if b.Sourcemap {
		sourcemap = api.SourceMapLinked
	}

	slog.Info("Bundling", logfields.Count(len(b.Entries)), logfields.OutputDir(b.Outdir))
	result := api.Build(api.BuildOptions{
		EntryPoints:       b.Entries,
		Outdir:            b.Outdir,
		EntryNames:        b.EntryNames,
		Format:            moduleFormats[b.Target],
		Bundle:            true,
		Write:             true,
		MinifyWhitespace:  b.Minify,
		MinifyIdentifiers: b.Minify,
		MinifySyntax:      b.Minify,
		Sourcemap:         sourcemap,
		Splitting:         b.Splitting,
		LogLevel:          api.LogLevelSilent,
		Plugins:           []api.Plugin{esbuildplugin.New(p, esbuildplugin.WithContext(global.Ctx))},
	})
	for _, msg := range result.Warnings {
		slog.Warn(msg.Text, "plugin", msg.PluginName)
	}
	for _, msg := range result.Errors {
		slog.Error(msg.Text, "plugin", msg.PluginName)
	}

	flushErr := flush()
	if len(result.Errors) > 0 {
		return ferrors.BuildError("esbuild build failed").
			WithContext("errors", len(result.Errors)).
			Build()
	}
	if flushErr != nil {
		return flushErr
	}
	if report != nil {
		printReport(global, report)
	}
	return nil
}
