package chunkmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	ferrors "git.home.luguber.info/inful/initscript/internal/foundation/errors"
	"git.home.luguber.info/inful/initscript/internal/foundation/normalization"
)

// Format identifies the manifest layout a bundler wrote.
type Format string

const (
	FormatAuto    Format = "auto"
	FormatWebpack Format = "webpack"
	FormatVite    Format = "vite"
	FormatEsbuild Format = "esbuild"
)

var formatNormalizer = normalization.NewNormalizer(map[string]Format{
	"auto":    FormatAuto,
	"webpack": FormatWebpack,
	"vite":    FormatVite,
	"esbuild": FormatEsbuild,
}, FormatAuto)

// ParseFormat canonicalizes raw. Empty input yields FormatAuto.
func ParseFormat(raw string) (Format, error) {
	return formatNormalizer.Parse(raw)
}

// DecodeOptions controls manifest decoding.
type DecodeOptions struct {
	Format Format
	// AssetRoot is the directory esbuild outputs are made relative to.
	// Empty means the deepest directory shared by all entry outputs.
	AssetRoot string
}

// Detect guesses the manifest format from its top-level keys.
func Detect(data []byte) (Format, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return "", fmt.Errorf("manifest is not a JSON object: %w", err)
	}
	if _, ok := top["assetsByChunkName"]; ok {
		return FormatWebpack, nil
	}
	if _, ok := top["children"]; ok {
		return FormatWebpack, nil
	}
	_, hasOutputs := top["outputs"]
	_, hasInputs := top["inputs"]
	if hasOutputs && hasInputs {
		return FormatEsbuild, nil
	}
	return FormatVite, nil
}

// Decode reads a bundler manifest and returns its chunk map along with the
// format that was used.
func Decode(r io.Reader, opts DecodeOptions) (*Map, Format, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read manifest").Build()
	}

	format := opts.Format
	if format == "" || format == FormatAuto {
		if format, err = Detect(data); err != nil {
			return nil, "", invalidManifest(FormatAuto, err)
		}
	}

	var m *Map
	switch format {
	case FormatWebpack:
		m, err = decodeWebpack(data)
	case FormatVite:
		m, err = decodeVite(data)
	case FormatEsbuild:
		var mf *Metafile
		if mf, err = ParseMetafile(data); err == nil {
			m, err = mf.ChunkMap(opts.AssetRoot, nil)
		}
	default:
		return nil, "", ferrors.ConfigError(fmt.Sprintf("unsupported manifest format %q", format)).Build()
	}
	if err != nil {
		return nil, format, invalidManifest(format, err)
	}
	return m, format, nil
}

// DecodeFile is Decode for a manifest on disk.
func DecodeFile(path string, opts DecodeOptions) (*Map, Format, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", ferrors.NotFoundError("manifest file not found").WithContext("path", path).Build()
	}
	if err != nil {
		return nil, "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to open manifest").
			WithContext("path", path).
			Build()
	}
	defer func() { _ = f.Close() }()
	return Decode(f, opts)
}

func invalidManifest(format Format, err error) error {
	return ferrors.WrapError(err, ferrors.CategoryValidation, "invalid manifest").
		Fatal().
		WithContext("format", string(format)).
		Build()
}
