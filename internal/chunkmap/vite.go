package chunkmap

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// viteChunk is one record of Vite's `.vite/manifest.json`.
type viteChunk struct {
	File    string   `json:"file"`
	Name    string   `json:"name"`
	Src     string   `json:"src"`
	IsEntry bool     `json:"isEntry"`
	CSS     []string `json:"css"`
}

func decodeVite(data []byte) (*Map, error) {
	out := &Map{}
	err := decodeObject(data, func(key string, raw json.RawMessage) error {
		var chunk viteChunk
		if err := json.Unmarshal(raw, &chunk); err != nil {
			return fmt.Errorf("manifest entry %q: %w", key, err)
		}
		if !chunk.IsEntry {
			return nil
		}
		if chunk.File == "" {
			return fmt.Errorf("manifest entry %q has no file", key)
		}
		name := chunk.Name
		if name == "" {
			name = stem(key)
		}
		if _, dup := out.Get(name); dup {
			return fmt.Errorf("entry name %q is used by more than one manifest entry", name)
		}
		out.Set(name, append([]string{chunk.File}, chunk.CSS...)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// stem returns the base name of p without its extension.
func stem(p string) string {
	base := path.Base(strings.ReplaceAll(p, `\`, "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}
