package kernels

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/nvr-ai/go-enhance/images"
)

// BlurMemoryProfile contains allocation statistics of repeated BoxBlur calls.
type BlurMemoryProfile struct {
	Iterations  int  `json:"iterations"`
	Width       int  `json:"width"`
	Height      int  `json:"height"`
	BlurRadius  int  `json:"blur_radius"`
	PoolEnabled bool `json:"pool_enabled"`

	OperationDuration       time.Duration `json:"operation_duration"`
	AvgIterationTime        time.Duration `json:"avg_iteration_time"`
	AllocationsPerIteration uint64        `json:"allocations_per_iteration"`
	BytesPerIteration       uint64        `json:"bytes_per_iteration"`
	NumGC                   uint32        `json:"num_gc"`
	PauseTotal              time.Duration `json:"pause_total"`
}

// ProfileBlurOperation runs BoxBlur iterations times and reports heap
// allocations per call. Use it to size a Pool for a video-rate workload.
//
// Arguments:
// - buf: The frame to blur.
// - opts: The blur options; set Pool to measure pooled scratch buffers.
// - iterations: Number of calls (>= 1).
//
// Returns:
// - The profile, or an error from BoxBlur.
func ProfileBlurOperation(buf *images.PixelBuffer, opts Options, iterations int) (*BlurMemoryProfile, error) {
	iterations = max(iterations, 1)

	// Warm the pool so the first Get is not counted.
	if _, err := BoxBlur(buf, opts); err != nil {
		return nil, err
	}

	var m1, m2 runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m1)

	start := time.Now()
	for i := 0; i < iterations; i++ {
		if _, err := BoxBlur(buf, opts); err != nil {
			return nil, err
		}
	}
	elapsed := time.Since(start)

	runtime.ReadMemStats(&m2)

	return &BlurMemoryProfile{
		Iterations:              iterations,
		Width:                   buf.Width,
		Height:                  buf.Height,
		BlurRadius:              opts.Radius,
		PoolEnabled:             opts.Pool != nil,
		OperationDuration:       elapsed,
		AvgIterationTime:        elapsed / time.Duration(iterations),
		AllocationsPerIteration: (m2.Mallocs - m1.Mallocs) / uint64(iterations),
		BytesPerIteration:       (m2.TotalAlloc - m1.TotalAlloc) / uint64(iterations),
		NumGC:                   m2.NumGC - m1.NumGC,
		PauseTotal:              time.Duration(m2.PauseTotalNs - m1.PauseTotalNs),
	}, nil
}

// MemoryComparisonReport compares two blur profiles. Ratios are
// Profile1 / Profile2.
type MemoryComparisonReport struct {
	Implementation1 string             `json:"implementation_1"`
	Implementation2 string             `json:"implementation_2"`
	Profile1        *BlurMemoryProfile `json:"profile_1"`
	Profile2        *BlurMemoryProfile `json:"profile_2"`

	AllocationRatio  float64 `json:"allocation_ratio"`
	PerformanceRatio float64 `json:"performance_ratio"`

	RecommendedChoice string `json:"recommended_choice"`
}

// CompareMemoryProfiles compares two blur configurations' memory
// characteristics. Fewer bytes per iteration wins; ties go to the faster one.
func CompareMemoryProfiles(profile1, profile2 *BlurMemoryProfile, name1, name2 string) *MemoryComparisonReport {
	report := &MemoryComparisonReport{
		Implementation1:  name1,
		Implementation2:  name2,
		Profile1:         profile1,
		Profile2:         profile2,
		AllocationRatio:  ratio(float64(profile1.BytesPerIteration), float64(profile2.BytesPerIteration)),
		PerformanceRatio: ratio(float64(profile1.AvgIterationTime), float64(profile2.AvgIterationTime)),
	}

	switch {
	case profile1.BytesPerIteration < profile2.BytesPerIteration:
		report.RecommendedChoice = name1
	case profile2.BytesPerIteration < profile1.BytesPerIteration:
		report.RecommendedChoice = name2
	case profile1.AvgIterationTime < profile2.AvgIterationTime:
		report.RecommendedChoice = name1
	case profile2.AvgIterationTime < profile1.AvgIterationTime:
		report.RecommendedChoice = name2
	default:
		report.RecommendedChoice = "equivalent"
	}
	return report
}

// FormatComparison renders the report for humans.
func (c *MemoryComparisonReport) FormatComparison() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Memory Comparison Report\n")
	fmt.Fprintf(&b, "========================\n")
	fmt.Fprintf(&b, "%s vs %s\n\n", c.Implementation1, c.Implementation2)
	fmt.Fprintf(&b, "Winner: %s\n\n", c.RecommendedChoice)
	for _, p := range []struct {
		name string
		prof *BlurMemoryProfile
	}{{c.Implementation1, c.Profile1}, {c.Implementation2, c.Profile2}} {
		fmt.Fprintf(&b, "  %s: %d allocs/op, %d B/op, %v/op\n",
			p.name, p.prof.AllocationsPerIteration, p.prof.BytesPerIteration, p.prof.AvgIterationTime)
	}
	fmt.Fprintf(&b, "\nDetailed Ratios (%s / %s):\n", c.Implementation1, c.Implementation2)
	fmt.Fprintf(&b, "  Memory Allocation: %.2fx\n", c.AllocationRatio)
	fmt.Fprintf(&b, "  Iteration Time: %.2fx\n", c.PerformanceRatio)
	return b.String()
}

func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
