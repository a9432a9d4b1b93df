package options

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const logPrefix = "options:loader"

// EnvFile names the environment variable holding an options file path.
const EnvFile = "JAXON_OPTIONS_FILE"

var defaultPaths = []string{
	"config/jaxon.yaml",
	"config/jaxon.toml",
	"config/jaxon.json",
	"jaxon.yaml",
	"jaxon.json",
}

// Load reads the first options file that parses and merges it over the
// built-in tree. Paths passed in are tried first, then $JAXON_OPTIONS_FILE,
// then the default locations. With no readable file the built-in tree is
// returned.
func Load(paths ...string) (*Options, error) {
	all := make([]string, 0, len(paths)+len(defaultPaths)+1)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv(EnvFile); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, defaultPaths...)

	for _, p := range all {
		tree, err := LoadFile(p)
		if err != nil {
			if !os.IsNotExist(err) {
				slog.Warn(fmt.Sprintf("%s - Failed to load options file %s: %v", logPrefix, p, err))
			}
			continue
		}
		slog.Info(fmt.Sprintf("%s - Loaded options from %s", logPrefix, p))
		return New(Merge(DefaultTree(), tree)), nil
	}

	slog.Info(fmt.Sprintf("%s - Using default options", logPrefix))
	return Default(), nil
}

// LoadFile decodes one options file. The format follows the extension:
// .json, .yaml/.yml or .toml.
func LoadFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(filepath.Ext(path), data)
}

// Decode parses data in the format named by ext.
func Decode(ext string, data []byte) (map[string]interface{}, error) {
	tree := make(map[string]interface{})
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "json":
		if err := json.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("%s - invalid json: %w", logPrefix, err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("%s - invalid yaml: %w", logPrefix, err)
		}
	case "toml":
		if _, err := toml.Decode(string(data), &tree); err != nil {
			return nil, fmt.Errorf("%s - invalid toml: %w", logPrefix, err)
		}
	default:
		return nil, fmt.Errorf("%s - unsupported options format %q", logPrefix, ext)
	}
	return normalize(tree).(map[string]interface{}), nil
}
