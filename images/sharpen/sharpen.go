// Package sharpen - unsharp masking on top of the box blur kernel.
package sharpen

import (
	"math"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-enhance/images"
	"github.com/nvr-ai/go-enhance/images/kernels"
)

// ErrInvalidStrength is returned for negative or non-finite strengths.
var ErrInvalidStrength = errors.New("invalid sharpen strength")

// Options configures UnsharpMask.
type Options struct {
	// Strength scales the detail added back. 0 leaves the image unchanged.
	Strength float64 `json:"strength" yaml:"strength"`
	// Radius of the box blur used as the mask. 0 selects 1.
	Radius   int           `json:"radius" yaml:"radius"`
	Parallel bool          `json:"parallel" yaml:"parallel"`
	Pool     *kernels.Pool `json:"-" yaml:"-"`
}

// UnsharpMask sharpens src by adding back the difference between each sample
// and its blurred value:
//
//	out = orig + strength * (orig - blurred)
//
// Arguments:
// - src: The source buffer.
// - opt: Strength (>= 0), blur radius and parallelism.
//
// Returns:
// - A new, sharpened buffer.
// - ErrInvalidStrength for a negative or non-finite strength.
//
// @example
// sharp, err := UnsharpMask(buf, Options{Strength: 0.5})
func UnsharpMask(src *images.PixelBuffer, opt Options) (*images.PixelBuffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if !(opt.Strength >= 0) || math.IsInf(opt.Strength, 0) {
		return nil, errors.Wrapf(ErrInvalidStrength, "strength %v", opt.Strength)
	}
	if opt.Strength == 0 {
		return src.Clone(), nil
	}

	radius := opt.Radius
	if radius == 0 {
		radius = 1
	}

	blurred, err := kernels.BoxBlur(src, kernels.Options{
		Radius:   radius,
		Pool:     opt.Pool,
		Parallel: opt.Parallel,
	})
	if err != nil {
		return nil, errors.Wrap(err, "blur failed")
	}

	const ch = images.Channels
	w := src.Width
	dst, err := images.NewPixelBuffer(src.Width, src.Height)
	if err != nil {
		return nil, err
	}

	images.Rows(opt.Parallel, src.Height, func(start, end int) {
		for i := start * w * ch; i < end*w*ch; i++ {
			orig := float64(src.Samples[i])
			dst.Samples[i] = images.ToUint8(orig + opt.Strength*(orig-float64(blurred.Samples[i])))
		}
	})

	return dst, nil
}
