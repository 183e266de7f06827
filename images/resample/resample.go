package resample

import (
	"math"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-enhance/images"
)

// MaxPixels bounds the size of a resampled buffer.
const MaxPixels = 1 << 28

// ErrInvalidScale is returned for non-positive, non-finite or oversized targets.
var ErrInvalidScale = errors.New("invalid scale")

// Options controls a resampling call.
type Options struct {
	// Boundary decides how taps outside the source are handled. Empty selects
	// the algorithm default: clamp for Cubic, exclude for Lanczos.
	Boundary images.EdgeMode `json:"boundary" yaml:"boundary"`
	// Parallel partitions rows across goroutines.
	Parallel bool `json:"parallel" yaml:"parallel"`
}

// contribution is a single source pixel's normalised weight for one output
// column or row.
type contribution struct {
	pixel  int
	weight float64
}

// TargetSize computes the output dimensions for a scale factor: rounded for
// Cubic, floored for Lanczos, never smaller than 1.
//
// Arguments:
// - alg: The resampling algorithm.
// - width: The source width.
// - height: The source height.
// - scale: The scale factor (> 0).
//
// Returns:
// - The target width and height.
// - ErrInvalidScale if the scale or the resulting size is unusable.
func TargetSize(alg Algorithm, width, height int, scale float64) (int, int, error) {
	if !(scale > 0) || math.IsInf(scale, 0) {
		return 0, 0, errors.Wrapf(ErrInvalidScale, "scale %v", scale)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, errors.Wrapf(images.ErrInvalidBuffer, "dimensions %dx%d", width, height)
	}

	fw := float64(width) * scale
	fh := float64(height) * scale
	if fw*fh > MaxPixels {
		return 0, 0, errors.Wrapf(ErrInvalidScale, "scale %v of %dx%d exceeds %d pixels", scale, width, height, MaxPixels)
	}

	var w, h int
	switch alg {
	case Lanczos:
		w, h = int(math.Floor(fw)), int(math.Floor(fh))
	default:
		w, h = int(math.Round(fw)), int(math.Round(fh))
	}
	return max(w, 1), max(h, 1), nil
}

// Resample scales src by scale using the given algorithm.
//
// Arguments:
// - src: The source buffer.
// - alg: Cubic or Lanczos.
// - scale: The scale factor (> 0).
// - opt: Boundary policy and parallelism.
//
// Returns:
// - A new buffer of TargetSize(alg, ...) dimensions.
// - An error if the buffer or scale is invalid.
//
// @example
// out, err := Resample(buf, Lanczos, 2.0, Options{Parallel: true})
func Resample(src *images.PixelBuffer, alg Algorithm, scale float64, opt Options) (*images.PixelBuffer, error) {
	switch alg {
	case Cubic:
		if err := src.Validate(); err != nil {
			return nil, err
		}
		w, h, err := TargetSize(Cubic, src.Width, src.Height, scale)
		if err != nil {
			return nil, err
		}
		return Bicubic(src, w, h, opt)
	case Lanczos:
		return LanczosScale(src, scale, opt)
	default:
		return nil, errors.Errorf("unknown algorithm %s", alg)
	}
}

// Bicubic resamples src to exactly width x height with cubic convolution.
// Destination pixel d maps to source coordinate d*srcExtent/dstExtent, and
// the 4x4 taps at offsets -1..+2 around it are weighted by CubicWeight.
func Bicubic(src *images.PixelBuffer, width, height int, opt Options) (*images.PixelBuffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 || width*height > MaxPixels {
		return nil, errors.Wrapf(ErrInvalidScale, "target %dx%d", width, height)
	}

	k := kernels[Cubic]
	edge := opt.Boundary.Or(k.Edge)
	rx := float64(src.Width) / float64(width)
	ry := float64(src.Height) / float64(height)

	cols := computeContributions(k, width, src.Width, edge, func(d int) float64 { return float64(d) * rx })
	rows := computeContributions(k, height, src.Height, edge, func(d int) float64 { return float64(d) * ry })

	return apply(src, width, height, cols, rows, opt.Parallel)
}

// LanczosScale resamples src by scale with the Lanczos-3 kernel. Output
// dimensions are floor(extent*scale); destination pixel d maps to source
// coordinate d/scale and the 6x6 taps at offsets -2..+3 are weighted by
// LanczosKernel.
func LanczosScale(src *images.PixelBuffer, scale float64, opt Options) (*images.PixelBuffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	width, height, err := TargetSize(Lanczos, src.Width, src.Height, scale)
	if err != nil {
		return nil, err
	}

	k := kernels[Lanczos]
	edge := opt.Boundary.Or(k.Edge)
	mapFn := func(d int) float64 { return float64(d) / scale }

	cols := computeContributions(k, width, src.Width, edge, mapFn)
	rows := computeContributions(k, height, src.Height, edge, mapFn)

	return apply(src, width, height, cols, rows, opt.Parallel)
}

// computeContributions pre-calculates the taps for each output index so the
// inner loops only multiply and add. Weights are normalised by the sum of the
// taps that survive the edge policy. An index whose weights sum to zero gets
// no taps and produces 0.
func computeContributions(
	k kernel,
	dstSize, srcSize int,
	edge images.EdgeMode,
	toSource func(d int) float64,
) [][]contribution {
	out := make([][]contribution, dstSize)
	taps := k.MaxTap - k.MinTap + 1

	for d := 0; d < dstSize; d++ {
		center := toSource(d)
		base := int(math.Floor(center))

		weights := make([]contribution, 0, taps)
		var sum float64

		for off := k.MinTap; off <= k.MaxTap; off++ {
			tap := base + off
			w := k.At(center - float64(tap))
			if w == 0 {
				continue
			}
			idx, ok := images.MapCoord(tap, srcSize, edge)
			if !ok {
				continue
			}
			weights = append(weights, contribution{pixel: idx, weight: w})
			sum += w
		}

		if sum == 0 {
			out[d] = nil
			continue
		}
		for i := range weights {
			weights[i].weight /= sum
		}
		out[d] = weights
	}
	return out
}

// apply runs the horizontal then the vertical pass. The intermediate stays in
// float64 so the only rounding happens on the final store.
func apply(
	src *images.PixelBuffer,
	width, height int,
	cols, rows [][]contribution,
	parallel bool,
) (*images.PixelBuffer, error) {
	const ch = images.Channels

	tmp := make([]float64, src.Height*width*ch)
	images.Rows(parallel, src.Height, func(start, end int) {
		for y := start; y < end; y++ {
			srcRow := src.Samples[y*src.Width*ch:]
			tmpRow := tmp[y*width*ch:]
			for x := 0; x < width; x++ {
				var r, g, b float64
				for _, c := range cols[x] {
					i := c.pixel * ch
					r += float64(srcRow[i]) * c.weight
					g += float64(srcRow[i+1]) * c.weight
					b += float64(srcRow[i+2]) * c.weight
				}
				o := x * ch
				tmpRow[o] = r
				tmpRow[o+1] = g
				tmpRow[o+2] = b
			}
		}
	})

	dst, err := images.NewPixelBuffer(width, height)
	if err != nil {
		return nil, err
	}

	images.Rows(parallel, height, func(start, end int) {
		for y := start; y < end; y++ {
			dstRow := dst.Samples[y*width*ch:]
			for x := 0; x < width; x++ {
				var r, g, b float64
				for _, c := range rows[y] {
					i := (c.pixel*width + x) * ch
					r += tmp[i] * c.weight
					g += tmp[i+1] * c.weight
					b += tmp[i+2] * c.weight
				}
				o := x * ch
				dstRow[o] = images.ToUint8(r)
				dstRow[o+1] = images.ToUint8(g)
				dstRow[o+2] = images.ToUint8(b)
			}
		}
	})

	return dst, nil
}
