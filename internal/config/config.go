package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/initscript/internal/foundation/errors"
)

// DefaultConfigFile is the config path used when none is given.
const DefaultConfigFile = "initscript.yaml"

// Load reads options from a YAML file. `.env` files next to the working
// directory are loaded first so `${VAR}` references in the file expand.
// Unknown keys are ignored.
func Load(configPath string) (Options, error) {
	if envPath, err := loadEnvFile(""); err != nil {
		slog.Warn("Failed to load env file", "error", err)
	} else if envPath != "" {
		slog.Debug("Loaded environment variables", "path", envPath)
	}

	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Options{}, ferrors.ConfigError("configuration file not found").
			WithContext("path", configPath).
			Build()
	}
	if err != nil {
		return Options{}, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	}
	return Parse(data)
}

// Parse decodes YAML options after expanding environment variables.
// An empty document yields zero Options.
func Parse(data []byte) (Options, error) {
	expanded := os.ExpandEnv(string(data))

	var opts Options
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return Options{}, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse config").
			Fatal().
			UserAction().
			Build()
	}
	return opts, nil
}

const exampleHeader = `# initscript configuration
#
# injection_mode: sync | async
# aggregation:    per-chunk | combined
`

// Init writes an example configuration file. An existing file is only
// replaced when force is set.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).
			WithContext("path", configPath).
			Build()
	}

	example := Defaults()
	example.PublicPath = "/static/js"
	example.IgnoredChunks = []string{"runtime"}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal config").Fatal().Build()
	}

	if err := os.WriteFile(configPath, append([]byte(exampleHeader), data...), 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	}
	return nil
}
