package native

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	// EnvLibraryPath holds extra search directories, separated by os.PathListSeparator.
	EnvLibraryPath = "NATIVE_LIBRARY_PATH"
	// EnvSystemFallback disables the system loader fallback when set to a false value.
	EnvSystemFallback = "NATIVE_SYSTEM_FALLBACK"
	// EnvLibraryOverridePrefix followed by a logical name (upper case, non
	// alphanumerics as '_') pins that library to an explicit file.
	EnvLibraryOverridePrefix = "NATIVE_LIB_"
)

// Config adjusts how logical names are resolved. The zero value keeps the
// conventional search directories and the system fallback.
type Config struct {
	// ExtraDirectories are probed before the conventional search directories.
	ExtraDirectories []string `toml:"extra_directories" yaml:"extra_directories"`
	// Libraries maps a logical name to the file that must satisfy it.
	Libraries map[string]string `toml:"libraries" yaml:"libraries"`
	// SystemFallback enables the platform's default search when no bundled
	// copy is found. Nil means enabled.
	SystemFallback *bool `toml:"system_fallback" yaml:"system_fallback"`
}

// LoadConfig reads a TOML or YAML configuration file, picked by extension.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file: %s", path)
	}
	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, errors.Errorf("unsupported config file format: %s", path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file: %s", path)
	}
	return cfg, nil
}

// ConfigFromEnv builds a Config from NATIVE_* environment variables. Invalid
// values are logged through the global zap logger and ignored.
func ConfigFromEnv() *Config {
	cfg := &Config{}
	if paths := os.Getenv(EnvLibraryPath); paths != "" {
		for _, dir := range filepath.SplitList(paths) {
			if dir != "" {
				cfg.ExtraDirectories = append(cfg.ExtraDirectories, dir)
			}
		}
	}
	if raw := os.Getenv(EnvSystemFallback); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			zap.L().Warn("invalid boolean value, keeping the system fallback enabled",
				zap.String("key", EnvSystemFallback), zap.String("value", raw), zap.Error(err))
		} else {
			cfg.SystemFallback = &enabled
		}
	}
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" {
			continue
		}
		name, ok := strings.CutPrefix(key, EnvLibraryOverridePrefix)
		if !ok || name == "" {
			continue
		}
		if cfg.Libraries == nil {
			cfg.Libraries = make(map[string]string)
		}
		cfg.Libraries[strings.ToLower(name)] = value
	}
	return cfg
}

// Merge returns a new Config with the values of other layered over c.
// Directories are concatenated with other's first.
func (c *Config) Merge(other *Config) *Config {
	merged := &Config{}
	if other != nil {
		merged.ExtraDirectories = append(merged.ExtraDirectories, other.ExtraDirectories...)
	}
	if c != nil {
		merged.ExtraDirectories = append(merged.ExtraDirectories, c.ExtraDirectories...)
		merged.SystemFallback = c.SystemFallback
	}
	for _, src := range []*Config{c, other} {
		if src == nil {
			continue
		}
		for name, path := range src.Libraries {
			if merged.Libraries == nil {
				merged.Libraries = make(map[string]string)
			}
			merged.Libraries[name] = path
		}
	}
	if other != nil && other.SystemFallback != nil {
		merged.SystemFallback = other.SystemFallback
	}
	return merged
}

func (c *Config) systemFallbackEnabled() bool {
	return c == nil || c.SystemFallback == nil || *c.SystemFallback
}

// libraryOverride returns the pinned file for name, comparing names the way
// environment variable keys are written.
func (c *Config) libraryOverride(name string) (string, bool) {
	if c == nil {
		return "", false
	}
	if path, ok := c.Libraries[name]; ok {
		return path, true
	}
	key := normalizeLibraryKey(name)
	for candidate, path := range c.Libraries {
		if normalizeLibraryKey(candidate) == key {
			return path, true
		}
	}
	return "", false
}

func normalizeLibraryKey(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, name)
}
