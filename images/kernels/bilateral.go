package kernels

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-enhance/images"
)

// ErrInvalidSigma is returned for non-positive sigmas or an out-of-range blend.
var ErrInvalidSigma = errors.New("invalid sigma")

// SmoothOptions configures EdgePreservingSmooth.
type SmoothOptions struct {
	SigmaSpatial float64 `json:"sigmaSpatial" yaml:"sigmaSpatial"`
	SigmaColor   float64 `json:"sigmaColor" yaml:"sigmaColor"`
	Parallel     bool    `json:"parallel" yaml:"parallel"`
}

// DefaultSmoothOptions returns sigma_spatial=1, sigma_color=25.
func DefaultSmoothOptions() SmoothOptions {
	return SmoothOptions{SigmaSpatial: 1.0, SigmaColor: 25.0}
}

// DenoiseOptions configures Denoise.
type DenoiseOptions struct {
	// SigmaColor controls how quickly neighbours stop contributing as their
	// value departs from the centre.
	SigmaColor float64 `json:"sigmaColor" yaml:"sigmaColor"`
	// Blend is the share of the filtered value in the output, in [0,1].
	Blend    float64 `json:"blend" yaml:"blend"`
	Parallel bool    `json:"parallel" yaml:"parallel"`
}

// MildDenoise keeps 70% of the original sample.
func MildDenoise() DenoiseOptions {
	return DenoiseOptions{SigmaColor: 10, Blend: 0.3}
}

// StrongDenoise replaces every interior sample with its filtered value.
func StrongDenoise() DenoiseOptions {
	return DenoiseOptions{SigmaColor: 25, Blend: 1.0}
}

// rangeWeights tabulates exp(-d^2 / (2*sigma^2)) for every possible absolute
// difference between two 8-bit samples.
func rangeWeights(sigma float64) [256]float32 {
	var lut [256]float32
	s := float32(sigma)
	denom := 2 * s * s
	for d := range lut {
		fd := float32(d)
		lut[d] = math32.Exp(-(fd * fd) / denom)
	}
	return lut
}

// spatialWeights returns the 3x3 Gaussian weights indexed by (dy+1)*3 + (dx+1).
func spatialWeights(sigma float64) [9]float32 {
	var w [9]float32
	s := float32(sigma)
	denom := 2 * s * s
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			d2 := float32(dx*dx + dy*dy)
			w[(dy+1)*3+dx+1] = math32.Exp(-d2 / denom)
		}
	}
	return w
}

// EdgePreservingSmooth is a 3x3 bilateral filter: each neighbour is weighted
// by its distance from the centre and by how close its value is to the
// centre value, so flat areas are smoothed while strong edges survive.
//
// Only interior pixels are filtered; the one-pixel border is copied
// unchanged, as is any buffer narrower or shorter than three pixels. Each
// channel is filtered independently.
//
// Arguments:
// - src: The source buffer.
// - opt: Sigmas (both > 0) and parallelism.
//
// Returns:
// - A new buffer of the same size.
// - ErrInvalidSigma when a sigma is not positive.
//
// @example
// smooth, err := EdgePreservingSmooth(buf, DefaultSmoothOptions())
func EdgePreservingSmooth(src *images.PixelBuffer, opt SmoothOptions) (*images.PixelBuffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if !(opt.SigmaSpatial > 0) || !(opt.SigmaColor > 0) {
		return nil, errors.Wrapf(ErrInvalidSigma, "spatial %v, color %v", opt.SigmaSpatial, opt.SigmaColor)
	}

	spatial := spatialWeights(opt.SigmaSpatial)
	color := rangeWeights(opt.SigmaColor)

	dst := src.Clone()
	filterInterior(src, dst, spatial, &color, 1.0, opt.Parallel)
	return dst, nil
}

// Denoise applies a range-only 3x3 filter to interior pixels and blends the
// result with the original: out = orig*(1-Blend) + filtered*Blend.
func Denoise(src *images.PixelBuffer, opt DenoiseOptions) (*images.PixelBuffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if !(opt.SigmaColor > 0) {
		return nil, errors.Wrapf(ErrInvalidSigma, "color %v", opt.SigmaColor)
	}
	if !(opt.Blend >= 0 && opt.Blend <= 1) {
		return nil, errors.Wrapf(ErrInvalidSigma, "blend %v outside [0,1]", opt.Blend)
	}

	flat := [9]float32{1, 1, 1, 1, 1, 1, 1, 1, 1}
	color := rangeWeights(opt.SigmaColor)

	dst := src.Clone()
	if opt.Blend == 0 {
		return dst, nil
	}
	filterInterior(src, dst, flat, &color, opt.Blend, opt.Parallel)
	return dst, nil
}

// filterInterior writes the weighted 3x3 mean of every interior sample of
// src into dst. dst must already hold a copy of src so the border stays put.
// A zero weight sum keeps the centre value.
func filterInterior(
	src, dst *images.PixelBuffer,
	spatial [9]float32,
	color *[256]float32,
	blend float64,
	parallel bool,
) {
	const ch = images.Channels
	w, h := src.Width, src.Height
	if w < 3 || h < 3 {
		return
	}

	images.Rows(parallel, h-2, func(start, end int) {
		for y := start + 1; y < end+1; y++ {
			for x := 1; x < w-1; x++ {
				for c := 0; c < ch; c++ {
					center := int(src.Samples[(y*w+x)*ch+c])

					var sum, weightSum float64
					for dy := -1; dy <= 1; dy++ {
						base := ((y+dy)*w + x) * ch
						for dx := -1; dx <= 1; dx++ {
							v := int(src.Samples[base+dx*ch+c])
							diff := v - center
							if diff < 0 {
								diff = -diff
							}
							wt := float64(spatial[(dy+1)*3+dx+1] * color[diff])
							sum += float64(v) * wt
							weightSum += wt
						}
					}

					if weightSum == 0 {
						continue
					}
					filtered := sum / weightSum
					if blend < 1 {
						filtered = float64(center)*(1-blend) + filtered*blend
					}
					dst.Samples[(y*w+x)*ch+c] = images.ToUint8(filtered)
				}
			}
		}
	})
}
