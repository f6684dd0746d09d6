package commands

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/initscript/internal/chunkmap"
	ferrors "git.home.luguber.info/inful/initscript/internal/foundation/errors"
	"git.home.luguber.info/inful/initscript/internal/logfields"
	"git.home.luguber.info/inful/initscript/internal/pipeline"
)

// GenerateCmd implements the 'generate' command: it reads the manifest a
// finished build left behind and writes the init scripts for its chunks.
type GenerateCmd struct {
	Manifest  string `arg:"" help:"webpack stats, Vite manifest or esbuild metafile" type:"path"`
	Format    string `name:"format" short:"f" help:"Manifest format: auto, webpack, vite or esbuild" default:"auto"`
	AssetRoot string `name:"asset-root" help:"Directory esbuild output paths are made relative to"`

	OptionFlags `embed:""`
}

func (g *GenerateCmd) Run(global *Global, root *CLI) error {
	opts, err := resolveOptions(root, g.OptionFlags)
	if err != nil {
		return err
	}

	format, err := chunkmap.ParseFormat(g.Format)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "invalid manifest format").
			WithContext("format", g.Format).
			Build()
	}

	m, detected, err := chunkmap.DecodeFile(g.Manifest, chunkmap.DecodeOptions{
		Format:    format,
		AssetRoot: g.AssetRoot,
	})
	if err != nil {
		return err
	}
	slog.Info("Manifest loaded",
		logfields.Path(g.Manifest),
		logfields.Format(string(detected)),
		logfields.Count(m.Len()))

	p, flush := g.newPipeline(opts)
	report, runErr := p.Run(global.Ctx, m)
	if err := flush(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return runErr
	}
	printReport(global, report)
	return nil
}

func printReport(global *Global, report *pipeline.Report) {
	_, _ = fmt.Fprintf(global.Out, "Wrote %d init script(s) to %s\n", len(report.Files), report.OutputDir)
	for _, path := range report.Files {
		_, _ = fmt.Fprintf(global.Out, "  %s\n", path)
	}
	if len(report.Skipped) > 0 {
		_, _ = fmt.Fprintf(global.Out, "Ignored %d chunk(s)\n", len(report.Skipped))
	}
}
