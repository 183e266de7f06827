// Package images - named output resolutions used to derive an upscale factor
// that fits a display target (e.g. "upscale this to fit 4K").
package images

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// AspectRatio represents an aspect ratio by name (e.g., "16:9").
type AspectRatio string

// Common display aspect ratios.
const (
	AspectRatio169  AspectRatio = "16:9"
	AspectRatio43   AspectRatio = "4:3"
	AspectRatio1610 AspectRatio = "16:10"
	AspectRatio219  AspectRatio = "21:9"
)

// ResolutionAlias is the short, flag-friendly name of a resolution.
type ResolutionAlias string

// Supported target resolutions.
const (
	ResolutionAlias480p  ResolutionAlias = "480p"
	ResolutionAlias720p  ResolutionAlias = "720p"
	ResolutionAlias1080p ResolutionAlias = "1080p"
	ResolutionAliasWUXGA ResolutionAlias = "wuxga"
	ResolutionAlias1440p ResolutionAlias = "1440p"
	ResolutionAliasUWQHD ResolutionAlias = "uwqhd"
	ResolutionAlias4K    ResolutionAlias = "4k"
	ResolutionAlias5K    ResolutionAlias = "5k"
	ResolutionAlias8K    ResolutionAlias = "8k"
	ResolutionAliasXGA   ResolutionAlias = "xga"
	ResolutionAliasUXGA  ResolutionAlias = "uxga"
)

// ErrUnknownResolution is returned when a resolution alias is not defined.
var ErrUnknownResolution = errors.New("unknown resolution")

// Pixels describes the exact dimensions of a resolution.
type Pixels struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Resolution describes a named target resolution.
type Resolution struct {
	Alias       ResolutionAlias `json:"alias" yaml:"alias"`
	Name        string          `json:"name" yaml:"name"`
	AspectRatio AspectRatio     `json:"aspectRatio" yaml:"aspectRatio"`
	Pixels      Pixels          `json:"pixels" yaml:"pixels"`
}

// GetMegaPixels calculates the megapixel value rounded to two decimal places
// (e.g., 2.07 for 1080p).
func (r Resolution) GetMegaPixels() float64 {
	if r.Pixels.Width <= 0 || r.Pixels.Height <= 0 {
		return 0.0
	}
	mp := float64(r.Pixels.Width*r.Pixels.Height) / 1_000_000.0
	return math.Round(mp*100) / 100
}

// String returns a human-readable summary of the resolution.
func (r Resolution) String() string {
	return fmt.Sprintf("%s (%dx%d, %.2fMP)", r.Name, r.Pixels.Width, r.Pixels.Height, r.GetMegaPixels())
}

// FitScale returns the largest uniform scale factor at which a width x height
// image still fits inside the resolution.
//
// Arguments:
// - width: The source width in pixels.
// - height: The source height in pixels.
//
// Returns:
// - The scale factor (may be < 1 when the source is larger than the target).
// - ErrInvalidBuffer if the source dimensions are not positive.
//
// @example
// scale, _ := Resolutions[ResolutionAlias1080p].FitScale(960, 540) // 2.0
func (r Resolution) FitScale(width, height int) (float64, error) {
	if width <= 0 || height <= 0 {
		return 0, errors.Wrapf(ErrInvalidBuffer, "dimensions %dx%d", width, height)
	}
	sx := float64(r.Pixels.Width) / float64(width)
	sy := float64(r.Pixels.Height) / float64(height)
	return math.Min(sx, sy), nil
}

// Resolutions holds every defined target, keyed by alias.
var Resolutions = map[ResolutionAlias]Resolution{
	ResolutionAlias480p: {
		Alias: ResolutionAlias480p, Name: "SD 480p", AspectRatio: AspectRatio169,
		Pixels: Pixels{Width: 854, Height: 480},
	},
	ResolutionAliasXGA: {
		Alias: ResolutionAliasXGA, Name: "XGA", AspectRatio: AspectRatio43,
		Pixels: Pixels{Width: 1024, Height: 768},
	},
	ResolutionAlias720p: {
		Alias: ResolutionAlias720p, Name: "HD 720p", AspectRatio: AspectRatio169,
		Pixels: Pixels{Width: 1280, Height: 720},
	},
	ResolutionAliasUXGA: {
		Alias: ResolutionAliasUXGA, Name: "UXGA", AspectRatio: AspectRatio43,
		Pixels: Pixels{Width: 1600, Height: 1200},
	},
	ResolutionAlias1080p: {
		Alias: ResolutionAlias1080p, Name: "Full HD 1080p", AspectRatio: AspectRatio169,
		Pixels: Pixels{Width: 1920, Height: 1080},
	},
	ResolutionAliasWUXGA: {
		Alias: ResolutionAliasWUXGA, Name: "WUXGA", AspectRatio: AspectRatio1610,
		Pixels: Pixels{Width: 1920, Height: 1200},
	},
	ResolutionAlias1440p: {
		Alias: ResolutionAlias1440p, Name: "QHD 1440p", AspectRatio: AspectRatio169,
		Pixels: Pixels{Width: 2560, Height: 1440},
	},
	ResolutionAliasUWQHD: {
		Alias: ResolutionAliasUWQHD, Name: "UWQHD", AspectRatio: AspectRatio219,
		Pixels: Pixels{Width: 3440, Height: 1440},
	},
	ResolutionAlias4K: {
		Alias: ResolutionAlias4K, Name: "4K UHD", AspectRatio: AspectRatio169,
		Pixels: Pixels{Width: 3840, Height: 2160},
	},
	ResolutionAlias5K: {
		Alias: ResolutionAlias5K, Name: "5K", AspectRatio: AspectRatio169,
		Pixels: Pixels{Width: 5120, Height: 2880},
	},
	ResolutionAlias8K: {
		Alias: ResolutionAlias8K, Name: "8K UHD", AspectRatio: AspectRatio169,
		Pixels: Pixels{Width: 7680, Height: 4320},
	},
}

// GetAllResolutions returns every resolution ordered by pixel count, smallest first.
func GetAllResolutions() []Resolution {
	all := make([]Resolution, 0, len(Resolutions))
	for _, res := range Resolutions {
		all = append(all, res)
	}
	sort.Slice(all, func(i, j int) bool {
		pi := all[i].Pixels.Width * all[i].Pixels.Height
		pj := all[j].Pixels.Width * all[j].Pixels.Height
		if pi != pj {
			return pi < pj
		}
		return all[i].Alias < all[j].Alias
	})
	return all
}

// GetResolution looks up a resolution by alias, case-insensitively.
func GetResolution(alias string) (Resolution, error) {
	res, ok := Resolutions[ResolutionAlias(strings.ToLower(strings.TrimSpace(alias)))]
	if !ok {
		return Resolution{}, errors.Wrapf(ErrUnknownResolution, "%q", alias)
	}
	return res, nil
}
