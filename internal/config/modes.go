package config

import (
	"git.home.luguber.info/inful/initscript/internal/foundation/normalization"
)

// InjectionMode selects the script loader template written for each chunk.
type InjectionMode string

const (
	// InjectionSync writes a blocking document.write script tag.
	InjectionSync InjectionMode = "sync"
	// InjectionAsync appends a script element to <head> from an IIFE.
	InjectionAsync InjectionMode = "async"
)

var injectionModeNormalizer = normalization.NewNormalizer(map[string]InjectionMode{
	"sync":  InjectionSync,
	"async": InjectionAsync,
}, InjectionSync)

// ParseInjectionMode canonicalizes raw (case-insensitive). Empty input yields sync.
func ParseInjectionMode(raw string) (InjectionMode, error) {
	return injectionModeNormalizer.Parse(raw)
}

// Aggregation controls how snippets are grouped into output files.
type Aggregation string

const (
	// AggregatePerChunk writes one {chunk}.js file per retained chunk.
	AggregatePerChunk Aggregation = "per-chunk"
	// AggregateCombined concatenates every snippet into a single file.
	AggregateCombined Aggregation = "combined"
)

var aggregationNormalizer = normalization.NewNormalizer(map[string]Aggregation{
	"per-chunk": AggregatePerChunk,
	"combined":  AggregateCombined,
}, AggregatePerChunk)

// ParseAggregation canonicalizes raw (case-insensitive). Empty input yields per-chunk.
func ParseAggregation(raw string) (Aggregation, error) {
	return aggregationNormalizer.Parse(raw)
}

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = normalization.NewNormalizer(map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, LogLevelInfo)

// NormalizeLogLevel maps raw to a LogLevel, falling back to info.
func NormalizeLogLevel(raw string) LogLevel {
	return logLevelNormalizer.Normalize(raw)
}
