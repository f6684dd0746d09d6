package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/initscript/internal/chunkmap"
	"git.home.luguber.info/inful/initscript/internal/config"
	ferrors "git.home.luguber.info/inful/initscript/internal/foundation/errors"
	"git.home.luguber.info/inful/initscript/internal/metrics"
	"git.home.luguber.info/inful/initscript/internal/observability"
)

type testRecorder struct {
	mu       sync.Mutex
	stages   map[string]int
	outcomes map[metrics.RunOutcome]int
	files    int
	ignored  int
	runs     int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{stages: map[string]int{}, outcomes: map[metrics.RunOutcome]int{}}
}

func (r *testRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages[stage]++
}

func (r *testRecorder) ObserveRunDuration(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
}

func (r *testRecorder) IncRunOutcome(o metrics.RunOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[o]++
}

func (r *testRecorder) AddFilesWritten(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files += n
}

func (r *testRecorder) AddChunksIgnored(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ignored += n
}

type failingFS struct{}

func (failingFS) MkdirAll(string, os.FileMode) error { return nil }

func (failingFS) WriteFile(string, []byte, os.FileMode) error {
	return errors.New("read-only file system")
}

func resolve(t *testing.T, partial config.Options) config.Resolved {
	t.Helper()
	opts, err := config.Resolve(partial)
	require.NoError(t, err)
	return opts
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRunWritesOneFilePerChunk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dist", "init")
	rec := newTestRecorder()
	p := New(resolve(t, config.Options{
		OutputDir:     dir + "/",
		PublicPath:    "/sc/project/cache/dev/",
		IgnoredChunks: []string{"vendor"},
	}), WithRecorder(rec))

	m := chunkmap.New()
	m.Set("index", "index.abc.js")
	m.Set("vendor", "vendor.js")
	m.Set("admin", "admin.js", "admin.css")

	report, err := p.Run(context.Background(), m)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, dir, report.OutputDir)
	assert.Equal(t, []string{filepath.Join(dir, "index.js"), filepath.Join(dir, "admin.js")}, report.Files)
	assert.Equal(t, []string{"vendor"}, report.Skipped)
	assert.False(t, report.Empty())

	assert.Equal(t,
		`document.write('<script charset="UTF-8" src="/sc/project/cache/dev/index.abc.js"></script>');`,
		readFile(t, filepath.Join(dir, "index.js")))
	assert.Equal(t,
		`document.write('<script charset="UTF-8" src="/sc/project/cache/dev/admin.js"></script>');`,
		readFile(t, filepath.Join(dir, "admin.js")))
	assert.NoFileExists(t, filepath.Join(dir, "vendor.js"))

	assert.Equal(t, 2, rec.files)
	assert.Equal(t, 1, rec.ignored)
	assert.Equal(t, 1, rec.outcomes[metrics.OutcomeSuccess])
	assert.Equal(t, 1, rec.stages[StageGenerate])
	assert.Equal(t, 1, rec.stages[StageWrite])
	assert.Equal(t, 1, rec.runs)
}

func TestRunKeepsRunIDFromContext(t *testing.T) {
	p := New(resolve(t, config.Options{OutputDir: t.TempDir()}))
	ctx := observability.WithRunID(context.Background(), "build-42")

	report, err := p.Run(ctx, chunkmap.New(chunkmap.Entry{Name: "main", Assets: chunkmap.Assets{"main.js"}}))
	require.NoError(t, err)
	assert.Equal(t, "build-42", report.RunID)
}

func TestRunEmptyMapCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "init")
	p := New(resolve(t, config.Options{OutputDir: dir}))

	report, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, report.Empty())
	assert.DirExists(t, dir)
}

func TestRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	p := New(resolve(t, config.Options{OutputDir: dir, InjectionMode: config.InjectionAsync}))
	m := chunkmap.New(chunkmap.Entry{Name: "app", Assets: chunkmap.Assets{"app.1.js"}})

	_, err := p.Run(context.Background(), m)
	require.NoError(t, err)
	first := readFile(t, filepath.Join(dir, "app.js"))

	_, err = p.Run(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, first, readFile(t, filepath.Join(dir, "app.js")))
	assert.Contains(t, first, "s.src='/app.1.js'")
}

func TestRunCombined(t *testing.T) {
	dir := t.TempDir()
	p := New(resolve(t, config.Options{
		OutputDir:   dir,
		PublicPath:  "/static",
		Aggregation: config.AggregateCombined,
	}))
	m := chunkmap.New()
	m.Set("a", "a.js")
	m.Set("b", "b.js")

	report, err := p.Run(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "base.js")}, report.Files)
	assert.Equal(t,
		`document.write('<script charset="UTF-8" src="/static/a.js"></script>');`+
			`document.write('<script charset="UTF-8" src="/static/b.js"></script>');`,
		readFile(t, filepath.Join(dir, "base.js")))
}

func TestRunWriteFailure(t *testing.T) {
	rec := newTestRecorder()
	p := New(resolve(t, config.Options{OutputDir: "out"}), WithRecorder(rec), WithFileSystem(failingFS{}))

	report, err := p.Run(context.Background(), chunkmap.New(chunkmap.Entry{Name: "main", Assets: chunkmap.Assets{"main.js"}}))
	require.Error(t, err)
	require.NotNil(t, report)
	assert.Empty(t, report.Files)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
	assert.Equal(t, 1, rec.outcomes[metrics.OutcomeFailed])
	assert.Zero(t, rec.outcomes[metrics.OutcomeSuccess])
}

func TestRunRejectsEscapingChunkName(t *testing.T) {
	dir := t.TempDir()
	p := New(resolve(t, config.Options{OutputDir: dir}))

	_, err := p.Run(context.Background(), chunkmap.New(chunkmap.Entry{Name: "../evil", Assets: chunkmap.Assets{"x.js"}}))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dir), "evil.js"))
}

func TestRunReportHook(t *testing.T) {
	var got *Report
	p := New(resolve(t, config.Options{OutputDir: t.TempDir()}), WithReportHook(func(r *Report) { got = r }))

	report, err := p.Run(context.Background(), chunkmap.New(chunkmap.Entry{Name: "main", Assets: chunkmap.Assets{"main.js"}}))
	require.NoError(t, err)
	assert.Same(t, report, got)
}
