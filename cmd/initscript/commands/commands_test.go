package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/initscript/internal/config"
	ferrors "git.home.luguber.info/inful/initscript/internal/foundation/errors"
)

const webpackStats = `{
  "hash": "4f1c",
  "assetsByChunkName": {
    "index": "index.abc123.js",
    "vendor": ["vendor.def456.js", "vendor.def456.js.map"],
    "admin": ["admin.789.js", "admin.789.css"]
  }
}`

// run parses args and runs the selected command, returning its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cli := &CLI{}
	parser, err := NewParser(cli)
	require.NoError(t, err)

	kctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	err = kctx.Run(&Global{Ctx: context.Background(), Out: &out}, cli)
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestGenerateFromWebpackStats(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, "stats.json", webpackStats)

	out, err := run(t, "generate", "stats.json",
		"--public-path", "/sc/project/cache/dev/",
		"--ignore", "vendor")
	require.NoError(t, err)

	assert.Equal(t,
		`document.write('<script charset="UTF-8" src="/sc/project/cache/dev/index.abc123.js"></script>');`,
		readFile(t, filepath.Join("dist", "init", "index.js")))
	assert.Equal(t,
		`document.write('<script charset="UTF-8" src="/sc/project/cache/dev/admin.789.js"></script>');`,
		readFile(t, filepath.Join("dist", "init", "admin.js")))
	assert.NoFileExists(t, filepath.Join("dist", "init", "vendor.js"))
	assert.Contains(t, out, "Wrote 2 init script(s) to ./dist/init")
	assert.Contains(t, out, "Ignored 1 chunk(s)")
}

func TestGenerateUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, "stats.json", webpackStats)
	writeFile(t, config.DefaultConfigFile, `
output_dir: out/
public_path: /assets
ignored_chunks: [vendor, admin]
injection_mode: async
`)

	_, err := run(t, "generate", "stats.json")
	require.NoError(t, err)

	assert.Equal(t,
		`(function(d){var s=d.createElement('script');s.charset='UTF-8';s.src='/assets/index.abc123.js';d.getElementsByTagName('head')[0].appendChild(s);})(document);`,
		readFile(t, filepath.Join("out", "index.js")))
	assert.NoFileExists(t, filepath.Join("out", "admin.js"))
}

func TestGenerateFlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, "stats.json", webpackStats)
	writeFile(t, "custom.yaml", "output_dir: from-file\ninjection_mode: async\n")

	_, err := run(t, "-c", "custom.yaml", "generate", "stats.json",
		"--output-dir", "from-flag", "--mode", "sync", "--aggregation", "combined")
	require.NoError(t, err)

	assert.NoDirExists(t, "from-file")
	assert.Equal(t,
		`document.write('<script charset="UTF-8" src="/index.abc123.js"></script>');`+
			`document.write('<script charset="UTF-8" src="/vendor.def456.js"></script>');`+
			`document.write('<script charset="UTF-8" src="/admin.789.js"></script>');`,
		readFile(t, filepath.Join("from-flag", "base.js")))
}

func TestGenerateWritesMetricsFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, "stats.json", webpackStats)

	_, err := run(t, "generate", "stats.json", "--metrics-file", "initscript.prom")
	require.NoError(t, err)

	metrics := readFile(t, filepath.Join(dir, "initscript.prom"))
	assert.Contains(t, metrics, "initscript_files_written_total 3")
	assert.Contains(t, metrics, `initscript_run_outcomes_total{outcome="success"} 1`)
}

func TestGenerateErrors(t *testing.T) {
	adapter := ferrors.NewCLIErrorAdapter(false, nil)

	t.Run("missing manifest", func(t *testing.T) {
		t.Chdir(t.TempDir())
		_, err := run(t, "generate", "nope.json")
		require.Error(t, err)
		assert.Equal(t, 3, adapter.ExitCodeFor(err))
	})

	t.Run("invalid mode", func(t *testing.T) {
		t.Chdir(t.TempDir())
		writeFile(t, "stats.json", webpackStats)
		_, err := run(t, "generate", "stats.json", "--mode", "deferred")
		require.Error(t, err)
		assert.Equal(t, 7, adapter.ExitCodeFor(err))
	})

	t.Run("malformed manifest", func(t *testing.T) {
		t.Chdir(t.TempDir())
		writeFile(t, "stats.json", `{"assetsByChunkName": {"index": []}}`)
		_, err := run(t, "generate", "stats.json", "--format", "webpack")
		require.Error(t, err)
		assert.Equal(t, 2, adapter.ExitCodeFor(err))
	})

	t.Run("explicit config missing", func(t *testing.T) {
		t.Chdir(t.TempDir())
		writeFile(t, "stats.json", webpackStats)
		_, err := run(t, "-c", "missing.yaml", "generate", "stats.json")
		require.Error(t, err)
		assert.Equal(t, 7, adapter.ExitCodeFor(err))
	})
}

func TestBundle(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join("src", "index.js"), `console.log("index");`)
	writeFile(t, filepath.Join("src", "admin.js"), `console.log("admin");`)

	out, err := run(t, "bundle", filepath.Join("src", "index.js"), filepath.Join("src", "admin.js"),
		"--entry-names", "[name]", "--public-path", "/js")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join("dist", "js", "index.js"))
	assert.Equal(t,
		`document.write('<script charset="UTF-8" src="/js/index.js"></script>');`,
		readFile(t, filepath.Join("dist", "init", "index.js")))
	assert.Equal(t,
		`document.write('<script charset="UTF-8" src="/js/admin.js"></script>');`,
		readFile(t, filepath.Join("dist", "init", "admin.js")))
	assert.Contains(t, out, "Wrote 2 init script(s)")
}

func TestBundleFailureIsBuildError(t *testing.T) {
	t.Chdir(t.TempDir())
	writeFile(t, filepath.Join("src", "index.js"), `import "./missing.js";`)

	_, err := run(t, "bundle", filepath.Join("src", "index.js"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryBuild))
	assert.NoDirExists(t, filepath.Join("dist", "init"))
}

func TestInit(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "initialized successfully")

	opts, err := config.Load(config.DefaultConfigFile)
	require.NoError(t, err)
	assert.Equal(t, "/static/js", opts.PublicPath)

	_, err = run(t, "init")
	require.Error(t, err)

	_, err = run(t, "init", "--force")
	require.NoError(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "initscript ")
}
