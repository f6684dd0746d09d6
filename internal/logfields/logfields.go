package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyChunk      = "chunk"
	KeyAsset      = "asset"
	KeyAssetURL   = "asset_url"
	KeyPath       = "path"
	KeyOutputDir  = "output_dir"
	KeyMode       = "injection_mode"
	KeyFormat     = "format"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr      { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr    { return slog.String(KeyStage, name) }
func Chunk(name string) slog.Attr    { return slog.String(KeyChunk, name) }
func Asset(file string) slog.Attr    { return slog.String(KeyAsset, file) }
func AssetURL(u string) slog.Attr    { return slog.String(KeyAssetURL, u) }
func Path(p string) slog.Attr        { return slog.String(KeyPath, p) }
func OutputDir(d string) slog.Attr   { return slog.String(KeyOutputDir, d) }
func Mode(m string) slog.Attr        { return slog.String(KeyMode, m) }
func Format(f string) slog.Attr      { return slog.String(KeyFormat, f) }
func Count(n int) slog.Attr          { return slog.Int(KeyCount, n) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
