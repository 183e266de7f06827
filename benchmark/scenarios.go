package benchmark

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-enhance/codec"
	"github.com/nvr-ai/go-enhance/enhance"
	"github.com/nvr-ai/go-enhance/images"
)

// Resolution represents input image dimensions for benchmarking.
type Resolution struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Name   string `json:"name"`
}

// CommonResolutions are small inputs that keep 2x outputs cheap.
var CommonResolutions = []Resolution{
	{Width: 160, Height: 120, Name: "160x120"},
	{Width: 320, Height: 240, Name: "320x240"},
	{Width: 640, Height: 360, Name: "640x360"},
}

// maxComprehensiveMegapixels bounds the inputs of GetComprehensiveScenarios.
const maxComprehensiveMegapixels = 2.1

// Scenario defines a specific test configuration.
type Scenario struct {
	Name string `json:"name"`
	// Resolution the corpus is resampled to before enhancement. A zero
	// resolution uses the corpus images as loaded.
	Resolution Resolution `json:"resolution"`
	// Config is the enhancement applied every iteration.
	Config enhance.Config `json:"config"`
	// OutputFormat, when set, encodes every result.
	OutputFormat codec.Format `json:"output_format,omitempty"`
	BatchSize    int          `json:"batch_size"`
	Iterations   int          `json:"iterations"`
	WarmupRuns   int          `json:"warmup_runs"`
}

// Algorithm names the resampling path of the scenario.
func (s Scenario) Algorithm() string {
	return algorithmName(s.Config.AnimeMode)
}

func algorithmName(anime bool) string {
	if anime {
		return "lanczos"
	}
	return "bicubic"
}

// ScenarioBuilder helps build test scenarios with fluent API
type ScenarioBuilder struct {
	scenario Scenario
}

// NewScenarioBuilder creates a new scenario builder with the default
// enhancement config.
func NewScenarioBuilder(name string) *ScenarioBuilder {
	return &ScenarioBuilder{
		scenario: Scenario{
			Name:       name,
			Config:     enhance.DefaultConfig(),
			BatchSize:  1,
			Iterations: 100,
			WarmupRuns: 10,
		},
	}
}

// WithConfig replaces the enhancement config.
func (sb *ScenarioBuilder) WithConfig(cfg enhance.Config) *ScenarioBuilder {
	sb.scenario.Config = cfg
	return sb
}

// WithAnimeMode selects the Lanczos path.
func (sb *ScenarioBuilder) WithAnimeMode(anime bool) *ScenarioBuilder {
	sb.scenario.Config.AnimeMode = anime
	return sb
}

// WithScale sets the enhancement scale.
func (sb *ScenarioBuilder) WithScale(scale float64) *ScenarioBuilder {
	sb.scenario.Config.Scale = scale
	return sb
}

// WithResolution sets the input resolution
func (sb *ScenarioBuilder) WithResolution(width, height int) *ScenarioBuilder {
	sb.scenario.Resolution = Resolution{
		Width:  width,
		Height: height,
		Name:   fmt.Sprintf("%dx%d", width, height),
	}
	return sb
}

// WithOutputFormat encodes every result in format.
func (sb *ScenarioBuilder) WithOutputFormat(format codec.Format) *ScenarioBuilder {
	sb.scenario.OutputFormat = format
	return sb
}

// WithIterations sets the number of test iterations
func (sb *ScenarioBuilder) WithIterations(iterations int) *ScenarioBuilder {
	sb.scenario.Iterations = iterations
	return sb
}

// WithWarmupRuns sets the number of warmup runs
func (sb *ScenarioBuilder) WithWarmupRuns(warmups int) *ScenarioBuilder {
	sb.scenario.WarmupRuns = warmups
	return sb
}

// WithBatchSize sets how many images one iteration enhances concurrently.
func (sb *ScenarioBuilder) WithBatchSize(batchSize int) *ScenarioBuilder {
	sb.scenario.BatchSize = batchSize
	return sb
}

// Build returns the configured test scenario
func (sb *ScenarioBuilder) Build() Scenario {
	return sb.scenario
}

// ScenarioSet represents a collection of related test scenarios
type ScenarioSet struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Scenarios   []Scenario `json:"scenarios"`
}

// PredefinedScenarios contains common benchmark scenario sets
type PredefinedScenarios struct{}

// GetComprehensiveScenarios crosses every named resolution up to 1080p with
// both algorithms and every output format.
func (ps *PredefinedScenarios) GetComprehensiveScenarios() *ScenarioSet {
	scenarios := make([]Scenario, 0)

	for _, resolution := range images.GetAllResolutions() {
		if resolution.GetMegaPixels() > maxComprehensiveMegapixels {
			continue
		}
		for _, anime := range []bool{false, true} {
			for _, format := range codec.Formats {
				scenario := NewScenarioBuilder(fmt.Sprintf("%s_%s_%s", algorithmName(anime), resolution.Alias, format)).
					WithAnimeMode(anime).
					WithResolution(resolution.Pixels.Width, resolution.Pixels.Height).
					WithOutputFormat(format).
					WithIterations(20).
					WithWarmupRuns(2).
					Build()

				scenarios = append(scenarios, scenario)
			}
		}
	}

	return &ScenarioSet{
		Name:        "Comprehensive Performance Test",
		Description: "Tests all combinations of algorithms, resolutions, and output formats",
		Scenarios:   scenarios,
	}
}

// GetQuickScenarios returns a smaller set for quick testing
func (ps *PredefinedScenarios) GetQuickScenarios() *ScenarioSet {
	scenarios := make([]Scenario, 0)

	for _, resolution := range CommonResolutions[:2] {
		for _, anime := range []bool{false, true} {
			scenario := NewScenarioBuilder(fmt.Sprintf("quick_%s_%s", algorithmName(anime), resolution.Name)).
				WithAnimeMode(anime).
				WithResolution(resolution.Width, resolution.Height).
				WithIterations(10).
				WithWarmupRuns(1).
				Build()

			scenarios = append(scenarios, scenario)
		}
	}

	return &ScenarioSet{
		Name:        "Quick Performance Test",
		Description: "Quick test with common configurations",
		Scenarios:   scenarios,
	}
}

// GetResolutionComparisonScenarios tests every common resolution with one
// algorithm.
func (ps *PredefinedScenarios) GetResolutionComparisonScenarios(anime bool) *ScenarioSet {
	scenarios := make([]Scenario, 0)
	algorithm := algorithmName(anime)

	for _, resolution := range CommonResolutions {
		scenario := NewScenarioBuilder(fmt.Sprintf("resolution_%s_%s", algorithm, resolution.Name)).
			WithAnimeMode(anime).
			WithResolution(resolution.Width, resolution.Height).
			WithIterations(50).
			WithWarmupRuns(5).
			Build()

		scenarios = append(scenarios, scenario)
	}

	return &ScenarioSet{
		Name:        fmt.Sprintf("Resolution Comparison - %s", algorithm),
		Description: fmt.Sprintf("Compares input resolutions for the %s path", algorithm),
		Scenarios:   scenarios,
	}
}

// GetFormatComparisonScenarios tests every output format at one resolution.
func (ps *PredefinedScenarios) GetFormatComparisonScenarios(resolution Resolution) *ScenarioSet {
	scenarios := make([]Scenario, 0)

	for _, format := range codec.Formats {
		scenario := NewScenarioBuilder(fmt.Sprintf("format_%s_%s", resolution.Name, format)).
			WithResolution(resolution.Width, resolution.Height).
			WithOutputFormat(format).
			WithIterations(50).
			WithWarmupRuns(5).
			Build()

		scenarios = append(scenarios, scenario)
	}

	return &ScenarioSet{
		Name:        fmt.Sprintf("Format Comparison @ %s", resolution.Name),
		Description: fmt.Sprintf("Compares output encoders at %s", resolution.Name),
		Scenarios:   scenarios,
	}
}

// GetScaleComparisonScenarios tests several scales at one resolution.
func (ps *PredefinedScenarios) GetScaleComparisonScenarios(resolution Resolution, scales []float64) *ScenarioSet {
	scenarios := make([]Scenario, 0)

	for _, scale := range scales {
		for _, anime := range []bool{false, true} {
			scenario := NewScenarioBuilder(fmt.Sprintf("scale_%s_%s_x%.2f", algorithmName(anime), resolution.Name, scale)).
				WithAnimeMode(anime).
				WithScale(scale).
				WithResolution(resolution.Width, resolution.Height).
				WithIterations(50).
				WithWarmupRuns(5).
				Build()

			scenarios = append(scenarios, scenario)
		}
	}

	return &ScenarioSet{
		Name:        fmt.Sprintf("Scale Comparison @ %s", resolution.Name),
		Description: "Compares bicubic and lanczos across scales",
		Scenarios:   scenarios,
	}
}

// SaveScenarioSet saves a scenario set to a JSON file
func SaveScenarioSet(scenarioSet *ScenarioSet, filename string) error {
	data, err := json.MarshalIndent(scenarioSet, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal scenario set")
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write scenario file")
	}

	return nil
}

// LoadScenarioSet loads a scenario set from a JSON file. Every scenario
// config is validated.
func LoadScenarioSet(filename string) (*ScenarioSet, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scenario file")
	}

	var scenarioSet ScenarioSet
	if err := json.Unmarshal(data, &scenarioSet); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal scenario set")
	}

	for _, s := range scenarioSet.Scenarios {
		if err := s.Config.Validate(); err != nil {
			return nil, errors.Wrapf(err, "scenario %s", s.Name)
		}
	}

	return &scenarioSet, nil
}

// Config represents the overall benchmark configuration
type Config struct {
	OutputDir      string `json:"output_dir"`
	CorpusPath     string `json:"corpus_path"`
	MaxConcurrency int    `json:"max_concurrency"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// DefaultConfig returns a default benchmark configuration
func DefaultConfig() *Config {
	return &Config{
		OutputDir:      "./benchmark_results",
		CorpusPath:     "./test_images",
		MaxConcurrency: 1,
		TimeoutSeconds: 3600, // 1 hour
	}
}

// SaveConfig saves the benchmark configuration to a JSON file
func (c *Config) SaveConfig(filename string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// LoadConfig loads benchmark configuration from a JSON file over the
// defaults.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	return config, nil
}
