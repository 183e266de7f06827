package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nvr-ai/go-enhance/codec"
	"github.com/nvr-ai/go-enhance/config"
	"github.com/nvr-ai/go-enhance/enhance"
	"github.com/nvr-ai/go-enhance/images"
	"github.com/nvr-ai/go-enhance/preview"
	"github.com/nvr-ai/go-enhance/profiler"
	"github.com/nvr-ai/go-enhance/util"
)

const (
	// DefaultOutputDir is where directory runs write their results.
	DefaultOutputDir = "enhanced"
	// DefaultConcurrency is the number of images a directory run enhances at once.
	DefaultConcurrency = 2
)

// InputType represents the type of input being processed
type InputType int

const (
	InputImage InputType = iota
	InputDirectory
)

// InputConfig holds the input configuration
type InputConfig struct {
	Type InputType
	Path string
}

func main() {
	var (
		inputPath   string
		dirPath     string
		outputPath  string
		configPath  string
		scale       float64
		anime       bool
		quality     float64
		format      string
		previewSize int
		resolution  string
		debug       bool
		concurrency int
		report      bool
	)
	flag.StringVar(&inputPath, "input", "", "Path to an image file")
	flag.StringVar(&dirPath, "dir", "", "Path to a directory of images")
	flag.StringVar(&outputPath, "output", "", "Output file (with -input) or directory (with -dir)")
	flag.StringVar(&configPath, "config", "", "Path to a .toml or .yaml enhancement config")
	flag.Float64Var(&scale, "scale", 2.0, "Upscale factor")
	flag.BoolVar(&anime, "anime", false, "Use the Lanczos + edge-preserving path")
	flag.Float64Var(&quality, "quality", 0.75, "Enhancement quality in [0,1]")
	flag.StringVar(&format, "format", "", "Output format (png, jpeg, bmp, tiff, webp); defaults to the input format")
	flag.IntVar(&previewSize, "preview", 0, "Also write a thumbnail bounded by this many pixels")
	flag.StringVar(&resolution, "resolution", "", "Fit the output to a named resolution (e.g. 1080p, 4k) instead of -scale")
	flag.BoolVar(&debug, "debug", false, "Log every pipeline stage")
	flag.IntVar(&concurrency, "concurrency", DefaultConcurrency, "Images enhanced at once with -dir")
	flag.BoolVar(&report, "report", false, "Print per-stage timings when done")
	flag.Parse()

	inputConfig, err := validateInputFlags(inputPath, dirPath)
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags given explicitly win over the config file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scale":
			cfg.Scale = scale
		case "anime":
			cfg.AnimeMode = anime
		case "quality":
			cfg.Quality = quality
		case "debug":
			cfg.Debug = debug
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	var outputFormat codec.Format
	if format != "" {
		if outputFormat, err = codec.ParseFormat(format); err != nil {
			log.Fatal(err)
		}
	}

	tracker := profiler.New(profiler.Options{})
	pipeline := enhance.New(enhance.WithProfiler(tracker))

	fmt.Printf("\n🚀 Image Enhancement\n")
	fmt.Printf("=====================================\n")
	fmt.Printf("   📏 Scale: %.2f\n", cfg.Scale)
	if resolution != "" {
		fmt.Printf("   🎯 Fit resolution: %s\n", resolution)
	}
	fmt.Printf("   🎨 Quality: %.2f (preserve colors: %t)\n", cfg.Quality, cfg.PreserveColors)
	fmt.Printf("   🖼️  Algorithm: %s\n", map[bool]string{false: enhance.AlgorithmBicubic, true: enhance.AlgorithmLanczos}[cfg.AnimeMode])
	fmt.Printf("=====================================\n\n")

	ctx := context.Background()
	start := time.Now()

	switch inputConfig.Type {
	case InputImage:
		if outputPath == "" {
			outputPath = defaultOutputPath(inputConfig.Path, outputFormat)
		}
		if err := enhanceFile(ctx, pipeline, cfg, inputConfig.Path, outputPath, outputFormat, resolution, previewSize); err != nil {
			log.Fatal(err)
		}
	case InputDirectory:
		if outputPath == "" {
			outputPath = DefaultOutputDir
		}
		if err := enhanceDirectory(ctx, pipeline, cfg, inputConfig.Path, outputPath, outputFormat, resolution, previewSize, concurrency); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Printf("\n✅ Done in %v\n", time.Since(start))
	if report {
		tracker.WriteReport(os.Stdout)
	}
}

// validateInputFlags requires exactly one of -input and -dir.
func validateInputFlags(inputPath, dirPath string) (*InputConfig, error) {
	switch {
	case inputPath != "" && dirPath != "":
		return nil, fmt.Errorf("only one of -input and -dir may be given")
	case inputPath != "":
		if _, err := codec.FormatFromPath(inputPath); err != nil {
			return nil, err
		}
		return &InputConfig{Type: InputImage, Path: inputPath}, nil
	case dirPath != "":
		info, err := os.Stat(dirPath)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", dirPath)
		}
		return &InputConfig{Type: InputDirectory, Path: dirPath}, nil
	default:
		return nil, fmt.Errorf("one of -input or -dir is required")
	}
}

// loadConfig layers the config file and the environment over the defaults.
func loadConfig(path string) (enhance.Config, error) {
	cfg := enhance.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return enhance.Config{}, err
		}
	}
	if err := config.ApplyEnvOverrides(&cfg); err != nil {
		return enhance.Config{}, err
	}
	return cfg, nil
}

func enhanceFile(
	ctx context.Context,
	pipeline *enhance.Pipeline,
	cfg enhance.Config,
	inputPath, outputPath string,
	outputFormat codec.Format,
	resolution string,
	previewSize int,
) error {
	buf, inputFormat, err := codec.DecodeFile(inputPath)
	if err != nil {
		return err
	}
	fmt.Printf("Processing image: %s (%dx%d %s)\n", inputPath, buf.Width, buf.Height, inputFormat)

	if resolution != "" {
		if cfg.Scale, err = enhance.FitScale(buf.Width, buf.Height, resolution); err != nil {
			return err
		}
	}

	res, err := pipeline.Run(ctx, buf, cfg)
	if err != nil {
		return err
	}
	if outputFormat == "" {
		outputFormat = inputFormat
	}
	if outputFormat == "" {
		outputFormat = codec.PNG
	}
	return writeOutputs(res, outputPath, outputFormat, previewSize)
}

func enhanceDirectory(
	ctx context.Context,
	pipeline *enhance.Pipeline,
	cfg enhance.Config,
	dirPath, outputDir string,
	outputFormat codec.Format,
	resolution string,
	previewSize, concurrency int,
) error {
	files, err := util.LoadDirectoryImageFiles(dirPath)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no images found in %s", dirPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	fmt.Printf("Processing %d images from %s\n", len(files), dirPath)

	bufs := make([]*images.PixelBuffer, 0, len(files))
	kept := make([]util.ImageFile, 0, len(files))
	for _, file := range files {
		buf, _, err := codec.Decode(file.Data)
		if err != nil {
			fmt.Printf("Warning: skipping %s: %v\n", file.Path, err)
			continue
		}
		bufs = append(bufs, buf)
		kept = append(kept, file)
	}

	var results []*enhance.Result
	if resolution == "" {
		if results, err = pipeline.BatchRun(ctx, bufs, cfg, concurrency); err != nil {
			return err
		}
	} else {
		// Each image gets its own fit scale.
		for _, buf := range bufs {
			perImage := cfg
			if perImage.Scale, err = enhance.FitScale(buf.Width, buf.Height, resolution); err != nil {
				return err
			}
			res, err := pipeline.Run(ctx, buf, perImage)
			if err != nil {
				return err
			}
			results = append(results, res)
		}
	}

	for i, res := range results {
		format := outputFormat
		if format == "" {
			format = kept[i].Format
		}
		out := filepath.Join(outputDir, kept[i].Name()+"_enhanced."+string(format))
		if err := writeOutputs(res, out, format, previewSize); err != nil {
			return err
		}
	}
	return nil
}

func writeOutputs(res *enhance.Result, outputPath string, format codec.Format, previewSize int) error {
	data, err := codec.Encode(res.Buffer, format, codec.EncodeOptions{})
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("   💾 %s: %s [md5 %s]\n", outputPath, res.Message, res.Buffer.Checksum())

	if previewSize <= 0 {
		return nil
	}
	thumb, err := preview.Thumbnail(res.Buffer, previewSize)
	if err != nil {
		return err
	}
	ext := filepath.Ext(outputPath)
	thumbPath := strings.TrimSuffix(outputPath, ext) + "_preview" + ext
	thumbData, err := codec.Encode(thumb, format, codec.EncodeOptions{})
	if err != nil {
		return err
	}
	if err := os.WriteFile(thumbPath, thumbData, 0o644); err != nil {
		return err
	}
	fmt.Printf("   🔍 %s: %dx%d preview\n", thumbPath, thumb.Width, thumb.Height)
	return nil
}

func defaultOutputPath(inputPath string, format codec.Format) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(inputPath, ext)
	if format != "" {
		ext = "." + string(format)
	}
	return base + "_enhanced" + ext
}
