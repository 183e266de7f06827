// Package images - numeric helpers shared by the resampling, filtering and tone
// stages: clamping, rounding, row-partitioned parallelism and edge handling.
package images

import (
	"math"
	"runtime"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Clamp restricts a value to the specified range [min, max].
// This is used to prevent overflow in color calculations.
//
// Arguments:
// - value: The value to Clamp.
// - min: Minimum allowed value.
// - max: Maximum allowed value.
//
// Returns:
// - The clamped value within [min, max].
//
// @example
// clamped := Clamp(300.5, 0, 255) // Returns 255
// clamped := Clamp(-10.0, 0, 255) // Returns 0
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ToUint8 rounds half away from zero and clamps to [0, 255].
// Every stage stores samples through this function so the rounding rule is
// the same everywhere. NaN maps to 0.
//
// @example
// ToUint8(127.5) // 128
// ToUint8(-3)    // 0
func ToUint8(value float64) uint8 {
	if !(value > 0) {
		return 0
	}
	if value >= 255 {
		return 255
	}
	return uint8(math.Round(value))
}

// ClampInt restricts an integer to [min, max].
func ClampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Parallel executes a function in Parallel across multiple goroutines.
// Partitions are contiguous and disjoint, so callers that only write inside
// [partStart, partEnd) need no further synchronisation.
//
// Arguments:
// - dataSize: The size of the data to process.
// - fn: Function to execute for each partition (receives start and end indices).
//
// @example
//
//	Parallel(height, func(start, end int) {
//	    for y := start; y < end; y++ {
//	        // Process row y
//	    }
//	})
func Parallel(dataSize int, fn func(partStart, partEnd int)) {
	if dataSize <= 0 {
		return
	}

	numGoroutines := runtime.NumCPU()

	// For small data sizes the goroutine overhead isn't worth it.
	if dataSize < numGoroutines*2 {
		fn(0, dataSize)
		return
	}

	partSize := dataSize / numGoroutines

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		partStart := i * partSize
		partEnd := partStart + partSize

		// Last partition gets any remaining data.
		if i == numGoroutines-1 {
			partEnd = dataSize
		}

		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(partStart, partEnd)
	}

	wg.Wait()
}

// Rows runs fn over [0, n) either through Parallel or on the calling
// goroutine, depending on parallel.
func Rows(parallel bool, n int, fn func(partStart, partEnd int)) {
	if parallel {
		Parallel(n, fn)
		return
	}
	if n > 0 {
		fn(0, n)
	}
}

// EdgeMode defines how to handle coordinates that are out of bounds.
type EdgeMode string

const (
	// ClampEdgeMode clamps the coordinate to the nearest valid index.
	ClampEdgeMode EdgeMode = "clamp"
	// ExcludeEdgeMode drops out-of-range taps from the weighted sum.
	ExcludeEdgeMode EdgeMode = "exclude"
	// MirrorEdgeMode mirrors the coordinate around the edge.
	MirrorEdgeMode EdgeMode = "mirror"
	// WrapEdgeMode wraps the coordinate around the edge.
	WrapEdgeMode EdgeMode = "wrap"
)

// ErrInvalidEdgeMode is returned by ParseEdgeMode for unknown names.
var ErrInvalidEdgeMode = errors.New("invalid edge mode")

// ParseEdgeMode converts a case-insensitive name into an EdgeMode.
// The empty string is accepted and returned as-is; callers treat it as
// "use the default for this operation".
func ParseEdgeMode(name string) (EdgeMode, error) {
	mode := EdgeMode(strings.ToLower(strings.TrimSpace(name)))
	if mode == "" || mode.Valid() {
		return mode, nil
	}
	return "", errors.Wrapf(ErrInvalidEdgeMode, "%q", name)
}

// Valid reports whether the mode is one of the named policies.
func (m EdgeMode) Valid() bool {
	switch m {
	case ClampEdgeMode, ExcludeEdgeMode, MirrorEdgeMode, WrapEdgeMode:
		return true
	}
	return false
}

// Or returns m, or fallback when m is empty.
func (m EdgeMode) Or(fallback EdgeMode) EdgeMode {
	if m == "" {
		return fallback
	}
	return m
}

// MapCoord maps a coordinate to a valid index based on the edge mode.
//
// Arguments:
// - coord: The coordinate to map.
// - max: The number of valid indices (must be > 0).
// - mode: The edge mode to use.
//
// Returns:
// - The mapped index.
// - false when the tap should be skipped (ExcludeEdgeMode with coord out of range).
func MapCoord(coord, max int, mode EdgeMode) (int, bool) {
	if coord >= 0 && coord < max {
		return coord, true
	}
	switch mode {
	case ExcludeEdgeMode:
		return 0, false
	case MirrorEdgeMode:
		if max == 1 {
			return 0, true
		}
		period := 2 * max
		coord = ((coord % period) + period) % period
		if coord >= max {
			coord = period - coord - 1
		}
		return coord, true
	case WrapEdgeMode:
		return (coord%max + max) % max, true
	default:
		return ClampInt(coord, 0, max-1), true
	}
}
