// Package enhance - the enhancement pipeline: resampling, smoothing, tone,
// sharpening and denoising over an RGB PixelBuffer.
package enhance

import (
	"math"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-enhance/images"
	"github.com/nvr-ai/go-enhance/images/kernels"
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("invalid enhancement config")

// Config defines one enhancement request. It is passed by value through
// every stage; there is no shared configuration state.
type Config struct {
	// Scale is the target size multiplier (> 0).
	Scale float64 `json:"scale" yaml:"scale" toml:"scale"`
	// Quality in [0,1] dampens tone factors when PreserveColors is set and
	// scales the sharpening strength.
	Quality float64 `json:"quality" yaml:"quality" toml:"quality"`
	// PreserveColors blends tone factors toward identity by Quality.
	PreserveColors bool `json:"preserveColors" yaml:"preserveColors" toml:"preserveColors"`
	// AnimeMode selects Lanczos + edge-preserving smoothing instead of bicubic.
	AnimeMode bool `json:"animeMode" yaml:"animeMode" toml:"animeMode"`
	// Brightness is a multiplicative brightness factor.
	Brightness float64 `json:"brightness" yaml:"brightness" toml:"brightness"`
	// Contrast is the contrast factor around mid-grey.
	Contrast float64 `json:"contrast" yaml:"contrast" toml:"contrast"`
	// Sharpness > 1 enables the unsharp mask.
	Sharpness float64 `json:"sharpness" yaml:"sharpness" toml:"sharpness"`
	// Saturation is the luminance-anchored saturation factor; 1 is identity.
	Saturation float64 `json:"saturation" yaml:"saturation" toml:"saturation"`
	// Denoise runs a 3x3 range filter after sharpening.
	Denoise bool `json:"denoise" yaml:"denoise" toml:"denoise"`
	// Boundary overrides the resampler's edge policy. Empty uses the
	// algorithm default.
	Boundary images.EdgeMode `json:"boundary" yaml:"boundary" toml:"boundary"`
	// SharpenRadius is the box-blur radius of the unsharp mask.
	SharpenRadius int `json:"sharpenRadius" yaml:"sharpenRadius" toml:"sharpenRadius"`
	// Parallel enables row-partitioned workers inside each stage.
	Parallel bool `json:"parallel" yaml:"parallel" toml:"parallel"`
	// Debug enables [DEBUG] stage logging.
	Debug bool `json:"debug" yaml:"debug" toml:"debug"`
}

// DefaultConfig returns the default enhancement settings.
//
// @example
// cfg := DefaultConfig()
// cfg.AnimeMode = true
func DefaultConfig() Config {
	return Config{
		Scale:          2.0,
		Quality:        0.75,
		PreserveColors: true,
		AnimeMode:      false,
		Brightness:     1.05,
		Contrast:       1.10,
		Sharpness:      1.0,
		Saturation:     1.0,
		Denoise:        false,
		SharpenRadius:  1,
		Parallel:       true,
	}
}

// Validate checks every field. NaN values are always rejected.
//
// Returns:
// - nil if the config is usable.
// - An error wrapping ErrInvalidConfig naming the first bad field.
func (c Config) Validate() error {
	switch {
	case !(c.Scale > 0) || math.IsInf(c.Scale, 0):
		return errors.Wrapf(ErrInvalidConfig, "scale must be > 0, got %v", c.Scale)
	case !(c.Quality >= 0 && c.Quality <= 1):
		return errors.Wrapf(ErrInvalidConfig, "quality must be in [0,1], got %v", c.Quality)
	case !(c.Sharpness >= 0) || math.IsInf(c.Sharpness, 0):
		return errors.Wrapf(ErrInvalidConfig, "sharpness must be >= 0, got %v", c.Sharpness)
	case !finite(c.Brightness):
		return errors.Wrapf(ErrInvalidConfig, "brightness must be finite, got %v", c.Brightness)
	case !finite(c.Contrast):
		return errors.Wrapf(ErrInvalidConfig, "contrast must be finite, got %v", c.Contrast)
	case !(c.Saturation >= 0) || math.IsInf(c.Saturation, 0):
		return errors.Wrapf(ErrInvalidConfig, "saturation must be >= 0, got %v", c.Saturation)
	case c.SharpenRadius < 0 || c.SharpenRadius > kernels.MaxRadius:
		return errors.Wrapf(ErrInvalidConfig, "sharpenRadius must be in [0,%d], got %d", kernels.MaxRadius, c.SharpenRadius)
	case c.Boundary != "" && !c.Boundary.Valid():
		return errors.Wrapf(ErrInvalidConfig, "unknown boundary %q", c.Boundary)
	}
	return nil
}

// FitScale returns the scale at which a width x height image fits the named
// resolution (e.g. "1080p", "4k").
func FitScale(width, height int, resolution string) (float64, error) {
	res, err := images.GetResolution(resolution)
	if err != nil {
		return 0, err
	}
	return res.FitScale(width, height)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
