package config

import (
	"fmt"
	"strings"

	ferrors "git.home.luguber.info/inful/initscript/internal/foundation/errors"
	"git.home.luguber.info/inful/initscript/internal/util/sets"
)

const (
	DefaultOutputDir        = "./dist/init"
	DefaultPublicPath       = "/"
	DefaultCombinedFilename = "base.js"
)

// Options is the user-supplied, possibly partial configuration. Zero-valued
// fields are left to the defaults during resolution.
type Options struct {
	OutputDir        string        `yaml:"output_dir,omitempty"`
	PublicPath       string        `yaml:"public_path,omitempty"`
	IgnoredChunks    []string      `yaml:"ignored_chunks,omitempty"`
	InjectionMode    InjectionMode `yaml:"injection_mode,omitempty"`
	Aggregation      Aggregation   `yaml:"aggregation,omitempty"`
	CombinedFilename string        `yaml:"combined_filename,omitempty"`
}

// Defaults returns the default option set. A fresh value is returned on every
// call so callers can never mutate shared state.
func Defaults() Options {
	return Options{
		OutputDir:        DefaultOutputDir,
		PublicPath:       DefaultPublicPath,
		InjectionMode:    InjectionSync,
		Aggregation:      AggregatePerChunk,
		CombinedFilename: DefaultCombinedFilename,
	}
}

// Merge overlays the set fields of override onto o and returns the result.
// IgnoredChunks is replaced, not appended, when override carries a non-nil list.
func (o Options) Merge(override Options) Options {
	out := o
	if override.OutputDir != "" {
		out.OutputDir = override.OutputDir
	}
	if override.PublicPath != "" {
		out.PublicPath = override.PublicPath
	}
	if override.IgnoredChunks != nil {
		out.IgnoredChunks = append([]string(nil), override.IgnoredChunks...)
	}
	if override.InjectionMode != "" {
		out.InjectionMode = override.InjectionMode
	}
	if override.Aggregation != "" {
		out.Aggregation = override.Aggregation
	}
	if override.CombinedFilename != "" {
		out.CombinedFilename = override.CombinedFilename
	}
	return out
}

// Resolved is the fully populated option set consumed by the generator.
// Paths are sanitized and enums validated.
type Resolved struct {
	OutputDir        string
	PublicPath       string
	IgnoredChunks    sets.Set[string]
	InjectionMode    InjectionMode
	Aggregation      Aggregation
	CombinedFilename string
}

// IsIgnored reports whether chunk must be skipped.
func (r Resolved) IsIgnored(chunk string) bool {
	return r.IgnoredChunks.Has(chunk)
}

// Resolve merges partial over Defaults and validates the result.
func Resolve(partial Options) (Resolved, error) {
	return ResolveWith(Defaults(), partial)
}

// ResolveWith merges partial over defaults and validates the result.
func ResolveWith(defaults, partial Options) (Resolved, error) {
	merged := defaults.Merge(partial)

	mode, err := ParseInjectionMode(string(merged.InjectionMode))
	if err != nil {
		return Resolved{}, invalidField("injection_mode", merged.InjectionMode, err)
	}
	agg, err := ParseAggregation(string(merged.Aggregation))
	if err != nil {
		return Resolved{}, invalidField("aggregation", merged.Aggregation, err)
	}

	outputDir := Sanitize(strings.TrimSpace(merged.OutputDir))
	if outputDir == "" {
		return Resolved{}, ferrors.ConfigError("output_dir must not be empty or the filesystem root").
			WithContext("field", "output_dir").
			WithContext("value", merged.OutputDir).
			Build()
	}

	combined := strings.TrimSpace(merged.CombinedFilename)
	if agg == AggregateCombined {
		if err := validateFilename(combined); err != nil {
			return Resolved{}, invalidField("combined_filename", merged.CombinedFilename, err)
		}
	}

	ignored := sets.New[string]()
	for _, name := range merged.IgnoredChunks {
		if strings.TrimSpace(name) == "" {
			return Resolved{}, ferrors.ConfigError("ignored_chunks must not contain empty names").
				WithContext("field", "ignored_chunks").
				Build()
		}
		ignored.Add(name)
	}

	return Resolved{
		OutputDir:        outputDir,
		PublicPath:       Sanitize(merged.PublicPath),
		IgnoredChunks:    ignored,
		InjectionMode:    mode,
		Aggregation:      agg,
		CombinedFilename: combined,
	}, nil
}

// Sanitize strips a single trailing slash.
func Sanitize(p string) string {
	return strings.TrimSuffix(p, "/")
}

func validateFilename(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("file name must not be empty")
	case name == "." || name == "..":
		return fmt.Errorf("%q is not a file name", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%q must not contain path separators", name)
	}
	return nil
}

func invalidField[T ~string](field string, value T, err error) error {
	return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid "+field).
		Fatal().
		UserAction().
		WithContext("field", field).
		WithContext("value", string(value)).
		Build()
}
