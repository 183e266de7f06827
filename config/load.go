// Package config loads enhance.Config values from TOML or YAML files and the
// environment.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-enhance/enhance"
	"github.com/nvr-ai/go-enhance/images"
)

// Format is a configuration file syntax.
type Format string

const (
	// TOML is the BurntSushi/toml syntax.
	TOML Format = "toml"
	// YAML is the gopkg.in/yaml.v3 syntax.
	YAML Format = "yaml"
)

// ErrUnsupportedFormat is returned for config files that are neither TOML
// nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Environment variables read by ApplyEnvOverrides.
const (
	EnvScale     = "ENHANCE_SCALE"
	EnvQuality   = "ENHANCE_QUALITY"
	EnvAnimeMode = "ENHANCE_ANIME_MODE"
	EnvBoundary  = "ENHANCE_BOUNDARY"
)

// FormatFromPath picks the syntax from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedFormat, "%q", path)
	}
}

// Load reads a config file. A missing file yields enhance.DefaultConfig().
// Keys absent from the file keep their default values.
//
// Arguments:
// - path: A .toml, .yaml or .yml file.
//
// Returns:
// - The merged, validated config.
// - An error if the file cannot be parsed or the result is invalid.
//
// @example
// cfg, err := config.Load("enhance.toml")
func Load(path string) (enhance.Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return enhance.Config{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return enhance.DefaultConfig(), nil
		}
		return enhance.Config{}, errors.Wrapf(err, "failed to open config %s", path)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f, format)
	if err != nil {
		return enhance.Config{}, errors.Wrapf(err, "failed to load config %s", path)
	}
	return cfg, nil
}

// LoadFromReader decodes a config in the given syntax over the defaults.
func LoadFromReader(r io.Reader, format Format) (enhance.Config, error) {
	cfg := enhance.DefaultConfig()

	switch format {
	case TOML:
		if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
			return enhance.Config{}, errors.Wrap(err, "failed to decode toml")
		}
	case YAML:
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && err != io.EOF {
			return enhance.Config{}, errors.Wrap(err, "failed to decode yaml")
		}
	default:
		return enhance.Config{}, errors.Wrapf(ErrUnsupportedFormat, "%q", format)
	}

	if err := cfg.Validate(); err != nil {
		return enhance.Config{}, err
	}
	return cfg, nil
}

// ApplyEnvOverrides overwrites fields set in the environment. Unparseable
// values are reported rather than ignored.
func ApplyEnvOverrides(cfg *enhance.Config) error {
	if v := os.Getenv(EnvScale); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvScale)
		}
		cfg.Scale = f
	}
	if v := os.Getenv(EnvQuality); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvQuality)
		}
		cfg.Quality = f
	}
	if v := os.Getenv(EnvAnimeMode); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvAnimeMode)
		}
		cfg.AnimeMode = b
	}
	if v := os.Getenv(EnvBoundary); v != "" {
		mode, err := images.ParseEdgeMode(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvBoundary)
		}
		cfg.Boundary = mode
	}
	return cfg.Validate()
}
