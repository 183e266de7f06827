package kernels

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-enhance/images"
)

// MaxRadius bounds the blur radius so window sums fit in uint32.
const MaxRadius = 1024

// ErrInvalidRadius is returned for negative or oversized radii.
var ErrInvalidRadius = errors.New("invalid blur radius")

// Options configures the blur call.
type Options struct {
	Radius   int             // Blur radius (window size = 2*Radius + 1). Must be >= 0.
	Edge     images.EdgeMode // Edge sampling mode. Empty means exclude.
	Pool     *Pool           // Optional scratch pool for the intermediate sums.
	Parallel bool            // Enable row/column parallelism.
}

// BoxBlur applies an unweighted mean over the (2r+1)x(2r+1) window around
// every pixel.
//
// With the default exclude policy taps outside the image are skipped and do
// not count toward the divisor, so corner pixels average fewer samples. The
// other edge modes remap taps and always divide by the full window.
//
// The blur is separable: the horizontal pass keeps raw uint32 window sums and
// the vertical pass divides once by countX*countY, so the result equals the
// 2-D window mean exactly. Both passes use a sliding window for O(1) updates
// per pixel, independent of Radius.
//
// Returns a new buffer; src is never modified.
func BoxBlur(src *images.PixelBuffer, opt Options) (*images.PixelBuffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	r := opt.Radius
	if r < 0 || r > MaxRadius {
		return nil, errors.Wrapf(ErrInvalidRadius, "radius %d", r)
	}
	if r == 0 {
		return src.Clone(), nil
	}

	edge := opt.Edge.Or(images.ExcludeEdgeMode)
	if !edge.Valid() {
		return nil, errors.Wrapf(images.ErrInvalidEdgeMode, "%q", edge)
	}

	w, h := src.Width, src.Height
	countX := windowCounts(w, r, edge)
	countY := windowCounts(h, r, edge)

	sums := opt.Pool.Get(len(src.Samples))
	defer opt.Pool.Put(sums)

	blurHorizontal(src, sums, r, edge, opt.Parallel)

	dst, err := images.NewPixelBuffer(w, h)
	if err != nil {
		return nil, err
	}
	blurVertical(sums, dst, countX, countY, r, edge, opt.Parallel)

	return dst, nil
}

// windowCounts returns the number of taps that contribute at each index.
func windowCounts(n, r int, edge images.EdgeMode) []uint32 {
	counts := make([]uint32, n)
	for i := range counts {
		if edge == images.ExcludeEdgeMode {
			lo := max(i-r, 0)
			hi := min(i+r, n-1)
			counts[i] = uint32(hi - lo + 1)
			continue
		}
		counts[i] = uint32(2*r + 1)
	}
	return counts
}

// blurHorizontal writes per-row window sums into sums using a sliding window.
// The sliding window means we:
//   - Compute an initial sum for x in [-r .. +r], respecting edges.
//   - For each step to the right, subtract the pixel leaving on the left
//     and add the pixel entering on the right.
func blurHorizontal(src *images.PixelBuffer, sums []uint32, r int, edge images.EdgeMode, parallel bool) {
	const ch = images.Channels
	w := src.Width

	images.Rows(parallel, src.Height, func(start, end int) {
		for y := start; y < end; y++ {
			row := src.Samples[y*w*ch : (y+1)*w*ch]
			out := sums[y*w*ch : (y+1)*w*ch]

			var sumR, sumG, sumB uint32
			for dx := -r; dx <= r; dx++ {
				if xm, ok := images.MapCoord(dx, w, edge); ok {
					sumR += uint32(row[xm*ch])
					sumG += uint32(row[xm*ch+1])
					sumB += uint32(row[xm*ch+2])
				}
			}

			for x := 0; x < w; x++ {
				o := x * ch
				out[o] = sumR
				out[o+1] = sumG
				out[o+2] = sumB

				if xm, ok := images.MapCoord(x-r, w, edge); ok {
					sumR -= uint32(row[xm*ch])
					sumG -= uint32(row[xm*ch+1])
					sumB -= uint32(row[xm*ch+2])
				}
				if xm, ok := images.MapCoord(x+r+1, w, edge); ok {
					sumR += uint32(row[xm*ch])
					sumG += uint32(row[xm*ch+1])
					sumB += uint32(row[xm*ch+2])
				}
			}
		}
	})
}

// blurVertical mirrors the horizontal pass along columns and performs the
// single rounding division. Columns are independent, so they are split
// across workers.
func blurVertical(
	sums []uint32,
	dst *images.PixelBuffer,
	countX, countY []uint32,
	r int,
	edge images.EdgeMode,
	parallel bool,
) {
	const ch = images.Channels
	w, h := dst.Width, dst.Height

	images.Rows(parallel, w, func(start, end int) {
		for x := start; x < end; x++ {
			load := func(y int) (uint32, uint32, uint32, bool) {
				ym, ok := images.MapCoord(y, h, edge)
				if !ok {
					return 0, 0, 0, false
				}
				i := (ym*w + x) * ch
				return sums[i], sums[i+1], sums[i+2], true
			}

			var sumR, sumG, sumB uint32
			for dy := -r; dy <= r; dy++ {
				if vr, vg, vb, ok := load(dy); ok {
					sumR += vr
					sumG += vg
					sumB += vb
				}
			}

			for y := 0; y < h; y++ {
				div := countX[x] * countY[y]
				half := div / 2
				o := (y*w + x) * ch
				dst.Samples[o] = uint8((sumR + half) / div)
				dst.Samples[o+1] = uint8((sumG + half) / div)
				dst.Samples[o+2] = uint8((sumB + half) / div)

				if vr, vg, vb, ok := load(y - r); ok {
					sumR -= vr
					sumG -= vg
					sumB -= vb
				}
				if vr, vg, vb, ok := load(y + r + 1); ok {
					sumR += vr
					sumG += vg
					sumB += vb
				}
			}
		}
	})
}
