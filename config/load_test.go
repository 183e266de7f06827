package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-enhance/enhance"
	"github.com/nvr-ai/go-enhance/images"
)

func TestLoadFromReader_PartialOverrides(t *testing.T) {
	testCases := []struct {
		name   string
		format Format
		body   string
	}{
		{
			name:   "toml",
			format: TOML,
			body:   "scale = 3.0\nanimeMode = true\nboundary = \"mirror\"\n",
		},
		{
			name:   "yaml",
			format: YAML,
			body:   "scale: 3.0\nanimeMode: true\nboundary: mirror\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadFromReader(strings.NewReader(tc.body), tc.format)
			require.NoError(t, err)

			want := enhance.DefaultConfig()
			want.Scale = 3.0
			want.AnimeMode = true
			want.Boundary = images.MirrorEdgeMode
			assert.Equal(t, want, cfg)
		})
	}
}

func TestLoadFromReader_EmptyYAML(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""), YAML)
	require.NoError(t, err)
	assert.Equal(t, enhance.DefaultConfig(), cfg)
}

func TestLoadFromReader_Errors(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("quality = 4.0\n"), TOML)
	assert.ErrorIs(t, err, enhance.ErrInvalidConfig)

	_, err = LoadFromReader(strings.NewReader("scale = [\n"), TOML)
	assert.Error(t, err)

	_, err = LoadFromReader(strings.NewReader("{}"), Format("ini"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, enhance.DefaultConfig(), cfg)

	path := filepath.Join(dir, "enhance.yml")
	require.NoError(t, os.WriteFile(path, []byte("quality: 0.5\ndenoise: true\n"), 0o644))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Quality)
	assert.True(t, cfg.Denoise)
	assert.Equal(t, 2.0, cfg.Scale)

	_, err = Load(filepath.Join(dir, "enhance.json"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvScale, "1.5")
	t.Setenv(EnvQuality, "0.25")
	t.Setenv(EnvAnimeMode, "true")
	t.Setenv(EnvBoundary, "WRAP")

	cfg := enhance.DefaultConfig()
	require.NoError(t, ApplyEnvOverrides(&cfg))
	assert.Equal(t, 1.5, cfg.Scale)
	assert.Equal(t, 0.25, cfg.Quality)
	assert.True(t, cfg.AnimeMode)
	assert.Equal(t, images.WrapEdgeMode, cfg.Boundary)
}

func TestApplyEnvOverrides_Invalid(t *testing.T) {
	testCases := []struct {
		key   string
		value string
	}{
		{EnvScale, "big"},
		{EnvQuality, "7"},
		{EnvAnimeMode, "sometimes"},
		{EnvBoundary, "smear"},
	}

	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			cfg := enhance.DefaultConfig()
			assert.Error(t, ApplyEnvOverrides(&cfg))
		})
	}
}
