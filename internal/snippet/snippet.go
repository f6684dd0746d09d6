// Package snippet turns a chunk map into script loader files.
//
// The two templates are a wire contract with the host pages that embed the
// generated files and must stay byte-for-byte stable.
package snippet

import (
	"fmt"
	"path"
	"strings"

	"git.home.luguber.info/inful/initscript/internal/chunkmap"
	"git.home.luguber.info/inful/initscript/internal/config"
	ferrors "git.home.luguber.info/inful/initscript/internal/foundation/errors"
)

const (
	syncTemplate  = `document.write('<script charset="UTF-8" src="%s"></script>');`
	asyncTemplate = `(function(d){var s=d.createElement('script');s.charset='UTF-8';s.src='%s';d.getElementsByTagName('head')[0].appendChild(s);})(document);`
)

// Render returns the loader snippet for one asset URL. The URL is substituted
// verbatim.
func Render(assetURL string, mode config.InjectionMode) string {
	if mode == config.InjectionAsync {
		return fmt.Sprintf(asyncTemplate, assetURL)
	}
	return fmt.Sprintf(syncTemplate, assetURL)
}

// AssetURL joins an already sanitized public path and an asset filename.
func AssetURL(publicPath, asset string) string {
	return publicPath + "/" + asset
}

// Pair is a retained chunk and the URL its snippet loads.
type Pair struct {
	Chunk    string
	AssetURL string
}

// OutputFile is one generated file. Path is relative to the output directory
// and always slash-separated.
type OutputFile struct {
	Path    string
	Content string
}

// Pairs lists the non-ignored chunks of m in insertion order with their
// resolved asset URLs.
func Pairs(m *chunkmap.Map, opts config.Resolved) []Pair {
	pairs := make([]Pair, 0, m.Len())
	for name, assets := range m.All() {
		if opts.IsIgnored(name) {
			continue
		}
		pairs = append(pairs, Pair{
			Chunk:    name,
			AssetURL: AssetURL(opts.PublicPath, assets.First()),
		})
	}
	return pairs
}

// Generate builds the output files for m. In per-chunk mode every retained
// chunk gets a {chunk}.js file; in combined mode all snippets are
// concatenated, without separators, into opts.CombinedFilename.
func Generate(m *chunkmap.Map, opts config.Resolved) ([]OutputFile, error) {
	pairs := Pairs(m, opts)

	if opts.Aggregation == config.AggregateCombined {
		var b strings.Builder
		for _, p := range pairs {
			b.WriteString(Render(p.AssetURL, opts.InjectionMode))
		}
		return []OutputFile{{Path: opts.CombinedFilename, Content: b.String()}}, nil
	}

	files := make([]OutputFile, 0, len(pairs))
	for _, p := range pairs {
		name, err := chunkFilename(p.Chunk)
		if err != nil {
			return nil, err
		}
		files = append(files, OutputFile{
			Path:    name,
			Content: Render(p.AssetURL, opts.InjectionMode),
		})
	}
	return files, nil
}

// chunkFilename maps a chunk name to its file below the output directory.
// Names may contain slashes but must stay inside the directory.
func chunkFilename(chunk string) (string, error) {
	name := strings.ReplaceAll(chunk, `\`, "/")
	if name == "" || strings.HasPrefix(name, "/") || path.Clean(name) != name || name == "." ||
		name == ".." || strings.HasPrefix(name, "../") {
		return "", ferrors.ValidationError("chunk name cannot be used as a file name").
			WithContext("chunk", chunk).
			Build()
	}
	return name + ".js", nil
}
