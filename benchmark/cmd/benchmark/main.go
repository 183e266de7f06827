package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/nvr-ai/go-enhance/benchmark"
	"github.com/nvr-ai/go-enhance/images/kernels"
	"github.com/nvr-ai/go-enhance/images/resample"
)

func main() {
	var (
		configFile    = flag.String("config", "", "Path to benchmark configuration file")
		scenarioFile  = flag.String("scenarios", "", "Path to scenario configuration file")
		saveScenarios = flag.String("save-scenarios", "", "Write the selected scenarios to this file and exit")
		outputDir     = flag.String("output", "./benchmark_results", "Output directory for results")
		corpus        = flag.String("images", "", "Path to test images directory or file")
		quick         = flag.Bool("quick", false, "Run quick benchmark scenarios")
		comprehensive = flag.Bool("comprehensive", false, "Run comprehensive benchmark scenarios")
		resolutions   = flag.Bool("resolutions", false, "Compare different input resolutions")
		formats       = flag.Bool("formats", false, "Compare different output formats")
		scales        = flag.Bool("scales", false, "Compare different enhancement scales")
		report        = flag.Bool("report", false, "Print per-stage profiler report after the run")
		blurMemory    = flag.Int("blur-memory", 0, "Compare pooled and unpooled box blur allocations at this radius and exit")
		timeout       = flag.Duration("timeout", 30*time.Minute, "Benchmark timeout duration")
	)
	flag.Parse()

	config := benchmark.DefaultConfig()
	if *configFile != "" {
		var err error
		config, err = benchmark.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	} else {
		config.OutputDir = *outputDir
		if *corpus != "" {
			config.CorpusPath = *corpus
		}
	}

	if *blurMemory > 0 {
		if err := compareBlurMemory(config.CorpusPath, *blurMemory); err != nil {
			log.Fatalf("Blur memory comparison failed: %v", err)
		}
		return
	}

	predefined := &benchmark.PredefinedScenarios{}
	var selected []benchmark.Scenario

	if *scenarioFile != "" {
		scenarioSet, err := benchmark.LoadScenarioSet(*scenarioFile)
		if err != nil {
			log.Fatalf("Failed to load scenario file: %v", err)
		}
		selected = append(selected, scenarioSet.Scenarios...)
		fmt.Printf("Loaded %d scenarios from %s\n", len(scenarioSet.Scenarios), *scenarioFile)
	} else {
		if *quick {
			selected = append(selected, predefined.GetQuickScenarios().Scenarios...)
		}
		if *comprehensive {
			selected = append(selected, predefined.GetComprehensiveScenarios().Scenarios...)
		}
		if *resolutions {
			selected = append(selected, predefined.GetResolutionComparisonScenarios(false).Scenarios...)
			selected = append(selected, predefined.GetResolutionComparisonScenarios(true).Scenarios...)
		}
		if *formats {
			selected = append(selected, predefined.GetFormatComparisonScenarios(benchmark.CommonResolutions[1]).Scenarios...)
		}
		if *scales {
			selected = append(selected, predefined.GetScaleComparisonScenarios(benchmark.CommonResolutions[1], []float64{0.5, 1.5, 2, 3, 4}).Scenarios...)
		}

		// If no specific scenarios requested, use quick by default
		if len(selected) == 0 {
			selected = predefined.GetQuickScenarios().Scenarios
		}
		fmt.Printf("Selected %d scenarios\n", len(selected))
	}

	if *saveScenarios != "" {
		set := &benchmark.ScenarioSet{
			Name:        "Saved Scenarios",
			Description: "Scenarios selected on the command line",
			Scenarios:   selected,
		}
		if err := benchmark.SaveScenarioSet(set, *saveScenarios); err != nil {
			log.Fatalf("Failed to save scenarios: %v", err)
		}
		fmt.Printf("Saved %d scenarios to %s\n", len(selected), *saveScenarios)
		return
	}

	suite := benchmark.NewSuite(benchmark.NewSuiteArgs{OutputPath: config.OutputDir})
	if err := suite.LoadCorpus(config.CorpusPath); err != nil {
		log.Fatalf("Failed to load corpus: %v", err)
	}
	for _, scenario := range selected {
		suite.AddScenario(scenario)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Println("Starting benchmark execution...")
	start := time.Now()

	if err := suite.RunAllScenarios(ctx); err != nil {
		log.Fatalf("Benchmark execution failed: %v", err)
	}

	fmt.Printf("Benchmark completed in %v\n", time.Since(start))

	results := suite.GetResults()
	fmt.Printf("\n=== BENCHMARK RESULTS SUMMARY ===\n")
	fmt.Printf("Total scenarios: %d\n", len(results))
	fmt.Printf("Results saved to: %s\n", config.OutputDir)

	var bestMPS float64
	var bestScenario string
	for _, result := range results {
		if result.MegapixelsPerSecond > bestMPS {
			bestMPS = result.MegapixelsPerSecond
			bestScenario = result.Scenario.Name
		}
		fmt.Printf("  %s: %.2f FPS, %.2f MP/s (%.2f MB memory)\n",
			result.Scenario.Name,
			result.FramesPerSecond,
			result.MegapixelsPerSecond,
			float64(result.MemoryStats.AllocBytes)/(1024*1024))
	}

	fmt.Printf("\nBest performing scenario: %s (%.2f MP/s)\n", bestScenario, bestMPS)

	if *report {
		suite.Profiler().WriteReport(os.Stdout)
	}
}

// compareBlurMemory profiles BoxBlur on the first corpus image scaled to
// 1080p, once with a scratch pool and once without.
func compareBlurMemory(corpusPath string, radius int) error {
	suite := benchmark.NewSuite(benchmark.NewSuiteArgs{})
	if err := suite.LoadCorpus(corpusPath); err != nil {
		return err
	}
	src, err := resample.Bicubic(suite.Corpus()[0], 1920, 1080, resample.Options{Parallel: true})
	if err != nil {
		return err
	}

	const iterations = 20
	pooled, err := kernels.ProfileBlurOperation(src, kernels.Options{Radius: radius, Parallel: true, Pool: kernels.NewPool()}, iterations)
	if err != nil {
		return err
	}
	plain, err := kernels.ProfileBlurOperation(src, kernels.Options{Radius: radius, Parallel: true}, iterations)
	if err != nil {
		return err
	}
	fmt.Print(kernels.CompareMemoryProfiles(pooled, plain, "pooled", "unpooled").FormatComparison())
	return nil
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "Benchmark tool for image enhancement throughput.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -images ./test_images -quick\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "  %s -config ./benchmark_config.json -scenarios ./scenarios.json\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "  %s -resolutions -formats -save-scenarios ./scenarios.json\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "  %s -images ./test_images -blur-memory 2\n", filepath.Base(os.Args[0]))
	}
}
