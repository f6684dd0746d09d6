// Package pipeline is the completion handler that turns a finished build's
// chunk map into init script files.
package pipeline

import (
	"context"
	"time"

	"git.home.luguber.info/inful/initscript/internal/chunkmap"
	"git.home.luguber.info/inful/initscript/internal/config"
	"git.home.luguber.info/inful/initscript/internal/logfields"
	"git.home.luguber.info/inful/initscript/internal/metrics"
	"git.home.luguber.info/inful/initscript/internal/observability"
	"git.home.luguber.info/inful/initscript/internal/snippet"
	"git.home.luguber.info/inful/initscript/internal/writer"
)

const (
	StageGenerate = "generate"
	StageWrite    = "write"
)

// Pipeline chains the snippet generator and the writer for one set of
// resolved options.
type Pipeline struct {
	opts     config.Resolved
	writer   *writer.Writer
	recorder metrics.Recorder
	onReport func(*Report)
	now      func() time.Time
}

// Option configures pipeline behavior.
type Option func(*Pipeline)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithFileSystem routes writes through fs instead of the local disk.
func WithFileSystem(fs writer.FileSystem) Option {
	return func(p *Pipeline) {
		p.writer = writer.New(fs)
	}
}

// WithReportHook registers fn to receive the report of every successful run.
func WithReportHook(fn func(*Report)) Option {
	return func(p *Pipeline) {
		p.onReport = fn
	}
}

// New creates a pipeline for opts.
func New(opts config.Resolved, options ...Option) *Pipeline {
	p := &Pipeline{
		opts:     opts,
		writer:   writer.New(nil),
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Recorder returns the metrics recorder in use.
func (p *Pipeline) Recorder() metrics.Recorder { return p.recorder }

// Run generates and writes the init scripts for m. The returned report is
// never nil; on failure it lists the files written before the error.
func (p *Pipeline) Run(ctx context.Context, m *chunkmap.Map) (*Report, error) {
	runID := observability.GetContext(ctx).RunID
	if runID == "" {
		runID = observability.NewRunID()
		ctx = observability.WithRunID(ctx, runID)
	}

	start := p.now()
	report := &Report{
		RunID:     runID,
		OutputDir: p.opts.OutputDir,
		Skipped:   p.ignored(m),
	}

	observability.DebugContext(ctx, "Generating init scripts",
		logfields.Count(m.Len()),
		logfields.OutputDir(p.opts.OutputDir),
		logfields.Mode(string(p.opts.InjectionMode)))

	genCtx := observability.WithStage(ctx, StageGenerate)
	stageStart := p.now()
	files, err := snippet.Generate(m, p.opts)
	p.recorder.ObserveStageDuration(StageGenerate, p.now().Sub(stageStart))
	if err != nil {
		return p.fail(genCtx, report, start, err)
	}
	for _, chunk := range report.Skipped {
		observability.DebugContext(genCtx, "Chunk ignored", logfields.Chunk(chunk))
	}

	writeCtx := observability.WithStage(ctx, StageWrite)
	stageStart = p.now()
	written, err := p.writer.Write(p.opts.OutputDir, files)
	p.recorder.ObserveStageDuration(StageWrite, p.now().Sub(stageStart))
	report.Files = written
	p.recorder.AddFilesWritten(len(written))
	if err != nil {
		return p.fail(writeCtx, report, start, err)
	}
	for _, path := range written {
		observability.DebugContext(writeCtx, "Init script written", logfields.Path(path))
	}

	report.Duration = p.now().Sub(start)
	p.recorder.AddChunksIgnored(len(report.Skipped))
	p.recorder.IncRunOutcome(metrics.OutcomeSuccess)
	p.recorder.ObserveRunDuration(report.Duration)

	observability.InfoContext(ctx, "Init scripts generated",
		logfields.Count(len(written)),
		logfields.OutputDir(p.opts.OutputDir),
		logfields.Duration(report.Duration))
	if p.onReport != nil {
		p.onReport(report)
	}
	return report, nil
}

func (p *Pipeline) fail(ctx context.Context, report *Report, start time.Time, err error) (*Report, error) {
	report.Duration = p.now().Sub(start)
	p.recorder.IncRunOutcome(metrics.OutcomeFailed)
	p.recorder.ObserveRunDuration(report.Duration)
	observability.ErrorContext(ctx, "Init script generation failed",
		logfields.Count(len(report.Files)),
		logfields.Error(err))
	return report, err
}

func (p *Pipeline) ignored(m *chunkmap.Map) []string {
	var skipped []string
	for _, name := range m.Names() {
		if p.opts.IsIgnored(name) {
			skipped = append(skipped, name)
		}
	}
	return skipped
}
