package chunkmap

import (
	"encoding/json"
	"fmt"
)

// webpackStats is the subset of `stats.toJson()` that names chunk assets.
// Multi-compiler builds nest one stats object per compiler under children.
type webpackStats struct {
	Name              string         `json:"name"`
	AssetsByChunkName *Map           `json:"assetsByChunkName"`
	Children          []webpackStats `json:"children"`
}

func decodeWebpack(data []byte) (*Map, error) {
	var stats webpackStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	out := &Map{}
	found, err := collectWebpack(stats, out)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("stats have no assetsByChunkName; run webpack with --json or stats.toJson()")
	}
	return out, nil
}

func collectWebpack(stats webpackStats, out *Map) (bool, error) {
	found := stats.AssetsByChunkName != nil
	for name, assets := range stats.AssetsByChunkName.All() {
		if _, dup := out.Get(name); dup {
			return false, fmt.Errorf("chunk %q is emitted by more than one compiler", name)
		}
		out.Set(name, assets...)
	}
	for _, child := range stats.Children {
		childFound, err := collectWebpack(child, out)
		if err != nil {
			return false, err
		}
		found = found || childFound
	}
	return found, nil
}
