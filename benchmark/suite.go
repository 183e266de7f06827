package benchmark

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-enhance/codec"
	"github.com/nvr-ai/go-enhance/enhance"
	"github.com/nvr-ai/go-enhance/images"
	"github.com/nvr-ai/go-enhance/images/kernels"
	"github.com/nvr-ai/go-enhance/images/resample"
	"github.com/nvr-ai/go-enhance/profiler"
	"github.com/nvr-ai/go-enhance/util"
)

// ErrEmptyCorpus is returned when a scenario runs without input images.
var ErrEmptyCorpus = errors.New("benchmark corpus is empty")

// Suite manages and executes benchmark scenarios
type Suite struct {
	pipeline  *enhance.Pipeline
	profiler  *profiler.Tracker
	outputDir string
	progress  io.Writer
	mu        sync.RWMutex
	corpus    []*images.PixelBuffer
	scenarios []Scenario
	results   []PerformanceMetrics
}

// NewSuiteArgs represents the arguments for creating a new benchmark suite.
type NewSuiteArgs struct {
	// OutputPath is where SaveResults writes.
	OutputPath string `json:"outputPath" yaml:"outputPath"`
	// Profiler, when set, receives every stage duration.
	Profiler *profiler.Tracker `json:"-" yaml:"-"`
	// Progress receives one line per scenario; nil selects os.Stdout.
	Progress io.Writer `json:"-" yaml:"-"`
}

// NewSuite creates a new benchmark suite.
//
// Arguments:
//   - args: The arguments for creating a new benchmark suite.
//
// Returns:
//   - *Suite: The benchmark suite.
func NewSuite(args NewSuiteArgs) *Suite {
	tracker := args.Profiler
	if tracker == nil {
		tracker = profiler.New(profiler.Options{})
	}
	progress := args.Progress
	if progress == nil {
		progress = os.Stdout
	}

	return &Suite{
		pipeline:  enhance.New(enhance.WithProfiler(tracker), enhance.WithPool(kernels.NewPool())),
		profiler:  tracker,
		outputDir: args.OutputPath,
		progress:  progress,
		scenarios: make([]Scenario, 0),
		results:   make([]PerformanceMetrics, 0),
	}
}

// Profiler returns the tracker that collects stage durations.
func (bs *Suite) Profiler() *profiler.Tracker {
	return bs.profiler
}

// AddScenario adds a test scenario to the benchmark suite
func (bs *Suite) AddScenario(scenario Scenario) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.scenarios = append(bs.scenarios, scenario)
}

// AddBuffers appends decoded images to the corpus.
func (bs *Suite) AddBuffers(bufs ...*images.PixelBuffer) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.corpus = append(bs.corpus, bufs...)
}

// Corpus returns a snapshot of the loaded images.
func (bs *Suite) Corpus() []*images.PixelBuffer {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return append([]*images.PixelBuffer(nil), bs.corpus...)
}

// LoadCorpus decodes a single image file or every image in a directory.
// Files that fail to decode are skipped.
func (bs *Suite) LoadCorpus(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, "failed to stat corpus path")
	}

	if !info.IsDir() {
		buf, _, err := codec.DecodeFile(path)
		if err != nil {
			return err
		}
		bs.AddBuffers(buf)
		return nil
	}

	files, err := util.LoadDirectoryImageFiles(path)
	if err != nil {
		return err
	}

	loaded := 0
	for _, file := range files {
		buf, _, err := codec.Decode(file.Data)
		if err != nil {
			continue
		}
		bs.AddBuffers(buf)
		loaded++
	}

	if loaded == 0 {
		return errors.Wrapf(ErrEmptyCorpus, "no decodable images in %s", path)
	}
	return nil
}

// RunScenario executes a single benchmark scenario
func (bs *Suite) RunScenario(ctx context.Context, scenario Scenario) (*PerformanceMetrics, error) {
	if err := scenario.Config.Validate(); err != nil {
		return nil, err
	}
	inputs, err := bs.prepareInputs(scenario.Resolution)
	if err != nil {
		return nil, err
	}

	batchSize := max(scenario.BatchSize, 1)
	batch := func(i int) []*images.PixelBuffer {
		out := make([]*images.PixelBuffer, batchSize)
		for j := range out {
			out[j] = inputs[(i*batchSize+j)%len(inputs)]
		}
		return out
	}

	metrics := &PerformanceMetrics{
		Scenario:       scenario,
		Timestamp:      time.Now(),
		StageDurations: make(map[string]time.Duration),
	}

	// Warmup runs
	for i := 0; i < scenario.WarmupRuns; i++ {
		_, _ = bs.pipeline.BatchRun(ctx, batch(i), scenario.Config, batchSize)
	}

	var startMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&startMem)

	var (
		encodeTotal  time.Duration
		outputPixels int64
		failures     int
	)

	startTime := time.Now()
	for i := 0; i < scenario.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "scenario %s interrupted", scenario.Name)
		}

		results, err := bs.pipeline.BatchRun(ctx, batch(i), scenario.Config, batchSize)
		if err != nil {
			failures += batchSize
			continue
		}

		for _, res := range results {
			metrics.Frames++
			metrics.OutputWidth = res.Width
			metrics.OutputHeight = res.Height
			outputPixels += int64(res.Width * res.Height)
			for _, st := range res.Timings {
				metrics.StageDurations[st.Stage] += st.Duration
			}

			if scenario.OutputFormat == "" {
				continue
			}
			encodeStart := time.Now()
			data, err := codec.Encode(res.Buffer, scenario.OutputFormat, codec.EncodeOptions{})
			if err != nil {
				failures++
				continue
			}
			encodeTotal += time.Since(encodeStart)
			metrics.OutputBytes += int64(len(data))
		}
	}
	totalDuration := time.Since(startTime)

	var endMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&endMem)

	metrics.TotalDuration = totalDuration
	if secs := totalDuration.Seconds(); secs > 0 {
		metrics.FramesPerSecond = float64(metrics.Frames) / secs
		metrics.MegapixelsPerSecond = float64(outputPixels) / 1e6 / secs
	}
	if metrics.Frames > 0 {
		for stage, d := range metrics.StageDurations {
			metrics.StageDurations[stage] = d / time.Duration(metrics.Frames)
		}
		metrics.EncodeDuration = encodeTotal / time.Duration(metrics.Frames)
	}
	if attempts := scenario.Iterations * batchSize; attempts > 0 {
		metrics.ErrorRate = float64(failures) / float64(attempts)
	}
	metrics.MemoryStats = memoryDelta(startMem, endMem)
	metrics.CPUStats = cpuStats()

	return metrics, nil
}

// prepareInputs resamples the corpus to the scenario resolution.
func (bs *Suite) prepareInputs(res Resolution) ([]*images.PixelBuffer, error) {
	bs.mu.RLock()
	corpus := make([]*images.PixelBuffer, len(bs.corpus))
	copy(corpus, bs.corpus)
	bs.mu.RUnlock()

	if len(corpus) == 0 {
		return nil, ErrEmptyCorpus
	}
	if res.Width <= 0 || res.Height <= 0 {
		return corpus, nil
	}

	inputs := make([]*images.PixelBuffer, len(corpus))
	for i, buf := range corpus {
		if buf.Width == res.Width && buf.Height == res.Height {
			inputs[i] = buf
			continue
		}
		resized, err := resample.Bicubic(buf, res.Width, res.Height, resample.Options{Parallel: true})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to prepare %s input", res.Name)
		}
		inputs[i] = resized
	}
	return inputs, nil
}

// RunAllScenarios executes all configured benchmark scenarios
func (bs *Suite) RunAllScenarios(ctx context.Context) error {
	bs.mu.Lock()
	scenarios := make([]Scenario, len(bs.scenarios))
	copy(scenarios, bs.scenarios)
	bs.mu.Unlock()

	for _, scenario := range scenarios {
		metrics, err := bs.RunScenario(ctx, scenario)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			fmt.Fprintf(bs.progress, "Scenario %s failed: %v\n", scenario.Name, err)
			continue
		}

		bs.mu.Lock()
		bs.results = append(bs.results, *metrics)
		bs.mu.Unlock()

		fmt.Fprintf(bs.progress, "Scenario %s completed: %.2f FPS, %.2f MP/s\n",
			scenario.Name, metrics.FramesPerSecond, metrics.MegapixelsPerSecond)
	}

	_, _, err := bs.SaveResults()
	return err
}

// SaveResults persists benchmark results to filesystem
//
// Returns:
//   - The JSON results path.
//   - The CSV summary path.
//   - An error if either file cannot be written.
func (bs *Suite) SaveResults() (string, string, error) {
	results := bs.GetResults()

	// Ensure output directory exists
	if err := os.MkdirAll(bs.outputDir, 0o755); err != nil {
		return "", "", errors.Wrap(err, "failed to create output directory")
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	resultsFile := filepath.Join(bs.outputDir, fmt.Sprintf("benchmark_results_%s.json", timestamp))

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", "", errors.Wrap(err, "failed to marshal results")
	}

	if err := os.WriteFile(resultsFile, data, 0o644); err != nil {
		return "", "", errors.Wrap(err, "failed to write results file")
	}

	summaryFile := filepath.Join(bs.outputDir, fmt.Sprintf("benchmark_summary_%s.csv", timestamp))
	if err := saveSummaryCSV(summaryFile, results); err != nil {
		return "", "", errors.Wrap(err, "failed to save summary CSV")
	}

	fmt.Fprintf(bs.progress, "Results saved to: %s\n", resultsFile)
	fmt.Fprintf(bs.progress, "Summary saved to: %s\n", summaryFile)

	return resultsFile, summaryFile, nil
}

func saveSummaryCSV(filename string, results []PerformanceMetrics) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	header := "Scenario,Algorithm,Resolution,Scale,Format,FPS,MP_per_sec,Total_Duration_ms,Avg_Memory_MB,Output_Bytes,Error_Rate\n"
	if _, err := file.WriteString(header); err != nil {
		return err
	}

	for _, result := range results {
		avgMemoryMB := float64(result.MemoryStats.AllocBytes) / (1024 * 1024)
		line := fmt.Sprintf("%s,%s,%s,%.2f,%s,%.2f,%.2f,%.2f,%.2f,%d,%.4f\n",
			result.Scenario.Name,
			result.Scenario.Algorithm(),
			result.Scenario.Resolution.Name,
			result.Scenario.Config.Scale,
			result.Scenario.OutputFormat,
			result.FramesPerSecond,
			result.MegapixelsPerSecond,
			float64(result.TotalDuration.Nanoseconds())/1e6,
			avgMemoryMB,
			result.OutputBytes,
			result.ErrorRate,
		)
		if _, err := file.WriteString(line); err != nil {
			return err
		}
	}

	return nil
}

// GetResults returns all benchmark results
func (bs *Suite) GetResults() []PerformanceMetrics {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	results := make([]PerformanceMetrics, len(bs.results))
	copy(results, bs.results)
	return results
}
