// Package tone - per-sample brightness/contrast remapping and luminance
// anchored saturation.
package tone

import (
	"math"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-enhance/images"
)

// ErrInvalidFactor is returned for NaN or infinite factors, or a negative
// saturation.
var ErrInvalidFactor = errors.New("invalid tone factor")

// Luminance weights (ITU-R BT.601).
const (
	LumaR = 0.299
	LumaG = 0.587
	LumaB = 0.114
)

// Options configures the tone stages.
type Options struct {
	Parallel bool `json:"parallel" yaml:"parallel"`
}

// EffectiveFactor blends a configured factor toward neutral (1.0) by quality
// when colours are preserved:
//
//	1 + (configured - 1) * quality * 0.5
//
// Without colour preservation the configured value is returned as-is.
//
// @example
// EffectiveFactor(1.10, 0.75, true)  // 1.0375
// EffectiveFactor(1.10, 0.0, true)   // 1.0
// EffectiveFactor(1.10, 0.75, false) // 1.10
func EffectiveFactor(configured, quality float64, preserveColors bool) float64 {
	if !preserveColors {
		return configured
	}
	return 1.0 + (configured-1.0)*quality*0.5
}

// Table builds the 256-entry lookup for a brightness/contrast pair:
//
//	v' = clamp(((v*brightness)/255 - 0.5)*contrast + 0.5)*255, 0, 255)
//
// rounded half away from zero.
func Table(brightness, contrast float64) [256]uint8 {
	var lut [256]uint8
	for v := range lut {
		value := float64(v) * brightness
		value = ((value/255.0-0.5)*contrast + 0.5) * 255.0
		lut[v] = images.ToUint8(value)
	}
	return lut
}

// Adjust remaps every sample through the brightness/contrast curve. Each
// channel is treated independently. brightness=1, contrast=1 is the identity.
//
// Arguments:
// - src: The source buffer.
// - brightness: Multiplicative brightness.
// - contrast: Contrast around mid-grey.
// - opt: Parallelism.
//
// Returns:
// - A new buffer.
// - ErrInvalidFactor when a factor is NaN or infinite.
func Adjust(src *images.PixelBuffer, brightness, contrast float64, opt Options) (*images.PixelBuffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if !finite(brightness) || !finite(contrast) {
		return nil, errors.Wrapf(ErrInvalidFactor, "brightness %v, contrast %v", brightness, contrast)
	}

	lut := Table(brightness, contrast)
	dst, err := images.NewPixelBuffer(src.Width, src.Height)
	if err != nil {
		return nil, err
	}

	rowLen := src.Width * images.Channels
	images.Rows(opt.Parallel, src.Height, func(start, end int) {
		for i := start * rowLen; i < end*rowLen; i++ {
			dst.Samples[i] = lut[src.Samples[i]]
		}
	})
	return dst, nil
}

// Saturate scales each pixel's distance from its luminance:
//
//	L  = 0.299R + 0.587G + 0.114B
//	c' = L + factor*(c - L)
//
// factor=1 is the identity, 0 produces greyscale. Grey pixels are unchanged
// at any factor.
func Saturate(src *images.PixelBuffer, factor float64, opt Options) (*images.PixelBuffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if !finite(factor) || factor < 0 {
		return nil, errors.Wrapf(ErrInvalidFactor, "saturation %v", factor)
	}
	if factor == 1 {
		return src.Clone(), nil
	}

	dst, err := images.NewPixelBuffer(src.Width, src.Height)
	if err != nil {
		return nil, err
	}

	const ch = images.Channels
	w := src.Width
	images.Rows(opt.Parallel, src.Height, func(start, end int) {
		for i := start * w * ch; i < end*w*ch; i += ch {
			r := float64(src.Samples[i])
			g := float64(src.Samples[i+1])
			b := float64(src.Samples[i+2])
			l := LumaR*r + LumaG*g + LumaB*b

			dst.Samples[i] = images.ToUint8(l + factor*(r-l))
			dst.Samples[i+1] = images.ToUint8(l + factor*(g-l))
			dst.Samples[i+2] = images.ToUint8(l + factor*(b-l))
		}
	})
	return dst, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
