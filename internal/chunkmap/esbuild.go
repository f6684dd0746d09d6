package chunkmap

import (
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// Metafile is the subset of an esbuild metafile needed to map entry points to
// their output files. Outputs keep their document order.
type Metafile struct {
	Outputs []MetafileOutput
}

// MetafileOutput is one file esbuild wrote.
type MetafileOutput struct {
	Path       string `json:"-"`
	EntryPoint string `json:"entryPoint,omitempty"`
	Bytes      int    `json:"bytes"`
}

// ParseMetafile decodes esbuild's metafile JSON.
func ParseMetafile(data []byte) (*Metafile, error) {
	var top struct {
		Outputs json.RawMessage `json:"outputs"`
	}
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}
	if len(top.Outputs) == 0 {
		return nil, fmt.Errorf("metafile has no outputs")
	}
	mf := &Metafile{}
	err := decodeObject(top.Outputs, func(key string, raw json.RawMessage) error {
		var out MetafileOutput
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("output %q: %w", key, err)
		}
		out.Path = key
		mf.Outputs = append(mf.Outputs, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mf, nil
}

// NameFunc maps an esbuild entry point (as written in the metafile) to a
// chunk name.
type NameFunc func(entryPoint string) string

// EntryStem names a chunk after its entry file without the extension.
func EntryStem(entryPoint string) string {
	return stem(entryPoint)
}

// ChunkMap groups entry outputs by chunk. Asset paths are made relative to
// root (slash-separated); an empty root uses the deepest directory shared by
// all entry outputs. Within a chunk, JavaScript outputs come first.
func (mf *Metafile) ChunkMap(root string, nameFor NameFunc) (*Map, error) {
	if nameFor == nil {
		nameFor = EntryStem
	}

	var entries []MetafileOutput
	for _, out := range mf.Outputs {
		if out.EntryPoint != "" {
			entries = append(entries, out)
		}
	}

	base := cleanSlash(root)
	if root == "" {
		paths := make([]string, len(entries))
		for i, e := range entries {
			paths[i] = e.Path
		}
		base = commonDir(paths)
	}

	out := &Map{}
	owner := make(map[string]string)
	for _, e := range entries {
		name := nameFor(e.EntryPoint)
		if name == "" {
			return nil, fmt.Errorf("entry point %q has no chunk name", e.EntryPoint)
		}
		if prev, ok := owner[name]; ok && prev != e.EntryPoint {
			return nil, fmt.Errorf("entry points %q and %q both map to chunk %q", prev, e.EntryPoint, name)
		}
		owner[name] = e.EntryPoint

		rel, err := relativeTo(base, e.Path)
		if err != nil {
			return nil, err
		}
		out.Add(name, rel)
	}

	for i := range out.entries {
		slices.SortStableFunc(out.entries[i].Assets, func(a, b string) int {
			return assetRank(a) - assetRank(b)
		})
	}
	return out, nil
}

func assetRank(file string) int {
	switch path.Ext(file) {
	case ".js", ".mjs", ".cjs":
		return 0
	default:
		return 1
	}
}

func cleanSlash(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

func relativeTo(base, p string) (string, error) {
	p = cleanSlash(p)
	switch base {
	case ".", "":
		return p, nil
	case "/":
		return strings.TrimPrefix(p, "/"), nil
	}
	if rel, ok := strings.CutPrefix(p, base+"/"); ok {
		return rel, nil
	}
	return "", fmt.Errorf("output %q is outside asset root %q", p, base)
}

// commonDir returns the deepest directory containing every path.
func commonDir(paths []string) string {
	if len(paths) == 0 {
		return "."
	}
	dir := path.Dir(cleanSlash(paths[0]))
	for _, p := range paths[1:] {
		p = cleanSlash(p)
		for dir != "." && dir != "/" && !strings.HasPrefix(p, dir+"/") {
			dir = path.Dir(dir)
		}
	}
	return dir
}
