// Package resample - cubic convolution and Lanczos-3 resampling of RGB pixel
// buffers.
package resample

import (
	"fmt"
	"math"

	"github.com/nvr-ai/go-enhance/images"
)

// Algorithm selects the resampling kernel.
type Algorithm int

const (
	// Cubic uses the cubic-convolution kernel over a 4x4 neighbourhood.
	Cubic Algorithm = iota
	// Lanczos uses the windowed-sinc kernel (a=3) over a 6x6 neighbourhood.
	Lanczos
)

// String returns the short descriptor of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case Cubic:
		return "bicubic"
	case Lanczos:
		return "lanczos"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// LanczosSupport is the Lanczos window radius a.
const LanczosSupport = 3

// kernel describes a separable resampling kernel.
type kernel struct {
	// Support is the radius of the kernel in source pixels.
	Support float64
	// MinTap and MaxTap are the tap offsets relative to floor(source coordinate).
	MinTap, MaxTap int
	// Edge is the boundary policy used when the caller does not pick one.
	Edge images.EdgeMode
	// At evaluates the kernel at distance x.
	At func(x float64) float64
}

// kernels maps each algorithm to its kernel function.
var kernels = map[Algorithm]kernel{
	Cubic: {
		Support: 2.0,
		MinTap:  -1,
		MaxTap:  2,
		Edge:    images.ClampEdgeMode,
		At:      CubicWeight,
	},
	Lanczos: {
		Support: LanczosSupport,
		MinTap:  -2,
		MaxTap:  3,
		Edge:    images.ExcludeEdgeMode,
		At:      LanczosKernel,
	},
}

// CubicWeight is the cubic-convolution weight (a = -0.5):
//
//	1.5|t|^3 - 2.5|t|^2 + 1          for |t| <= 1
//	-0.5|t|^3 + 2.5|t|^2 - 4|t| + 2  for 1 < |t| <= 2
//	0                                otherwise
func CubicWeight(t float64) float64 {
	t = math.Abs(t)
	switch {
	case t <= 1:
		return 1.5*t*t*t - 2.5*t*t + 1
	case t <= 2:
		return -0.5*t*t*t + 2.5*t*t - 4*t + 2
	default:
		return 0
	}
}

// LanczosKernel is the Lanczos window with a=3. It is 1 at the origin, symmetric,
// and zero for |x| >= 3.
//
// @example
// LanczosKernel(0)   // 1
// LanczosKernel(0.5) // ~0.608
// LanczosKernel(3)   // 0
func LanczosKernel(x float64) float64 {
	if x == 0 {
		return 1
	}
	x = math.Abs(x)
	if x >= LanczosSupport {
		return 0
	}
	px := math.Pi * x
	return LanczosSupport * math.Sin(px) * math.Sin(px/LanczosSupport) / (px * px)
}
