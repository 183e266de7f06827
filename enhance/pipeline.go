package enhance

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-enhance/images"
	"github.com/nvr-ai/go-enhance/images/kernels"
	"github.com/nvr-ai/go-enhance/images/resample"
	"github.com/nvr-ai/go-enhance/images/sharpen"
	"github.com/nvr-ai/go-enhance/images/tone"
	"github.com/nvr-ai/go-enhance/profiler"
)

// Algorithm path descriptors reported in Result.Algorithm.
const (
	AlgorithmBicubic = "bicubic+unsharp"
	AlgorithmLanczos = "lanczos+edge-preserving"
)

// Stage names used for timings and profiler operations.
const (
	StageResample = "resample"
	StageSmooth   = "smooth"
	StageTone     = "tone"
	StageSaturate = "saturate"
	StageSharpen  = "sharpen"
	StageDenoise  = "denoise"
)

// StageTiming is the wall time of one executed stage.
type StageTiming struct {
	Stage    string        `json:"stage" yaml:"stage"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Result is the output of one pipeline run.
type Result struct {
	// Buffer is the enhanced image.
	Buffer *images.PixelBuffer `json:"-" yaml:"-"`
	// Width and Height of Buffer.
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
	// Algorithm is AlgorithmBicubic or AlgorithmLanczos.
	Algorithm string `json:"algorithm" yaml:"algorithm"`
	// Message summarises the run for humans.
	Message string `json:"message" yaml:"message"`
	// QualityApplied echoes the configured quality.
	QualityApplied float64 `json:"qualityApplied" yaml:"qualityApplied"`
	// ColorPreservation echoes the configured PreserveColors flag.
	ColorPreservation bool `json:"colorPreservation" yaml:"colorPreservation"`
	// Effective tone factors after colour preservation.
	Brightness float64 `json:"brightness" yaml:"brightness"`
	Contrast   float64 `json:"contrast" yaml:"contrast"`
	Saturation float64 `json:"saturation" yaml:"saturation"`
	// Sharpened reports whether the unsharp mask ran, with which strength.
	Sharpened       bool          `json:"sharpened" yaml:"sharpened"`
	SharpenStrength float64       `json:"sharpenStrength" yaml:"sharpenStrength"`
	Denoised        bool          `json:"denoised" yaml:"denoised"`
	Timings         []StageTiming `json:"timings" yaml:"timings"`
}

// Pipeline runs enhancement requests. It holds no per-request state and is
// safe for concurrent use.
type Pipeline struct {
	profiler *profiler.Tracker
	logger   *log.Logger
	pool     *kernels.Pool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithProfiler records every stage duration in t.
func WithProfiler(t *profiler.Tracker) Option {
	return func(p *Pipeline) {
		p.profiler = t
	}
}

// WithLogger sets the destination of [DEBUG] lines.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithPool shares a scratch pool across runs.
func WithPool(pool *kernels.Pool) Option {
	return func(p *Pipeline) {
		p.pool = pool
	}
}

// New creates a Pipeline.
//
// @example
// p := New(WithProfiler(profiler.New(profiler.Options{})))
// res, err := p.Run(ctx, buf, DefaultConfig())
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		logger: log.Default(),
		pool:   kernels.NewPool(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enhance runs the default pipeline without a context.
func Enhance(buf *images.PixelBuffer, cfg Config) (*Result, error) {
	return New().Run(context.Background(), buf, cfg)
}

// run is the mutable state of a single Run call.
type run struct {
	p       *Pipeline
	ctx     context.Context
	cfg     Config
	timings []StageTiming
}

// stage runs fn after checking for cancellation and records its duration.
func (r *run) stage(name string, fn func() (*images.PixelBuffer, error)) (*images.PixelBuffer, error) {
	if err := r.ctx.Err(); err != nil {
		return nil, errors.Wrapf(err, "cancelled before %s", name)
	}

	start := time.Now()
	out, err := fn()
	elapsed := time.Since(start)
	if err != nil {
		return nil, errors.Wrapf(err, "%s failed", name)
	}

	r.timings = append(r.timings, StageTiming{Stage: name, Duration: elapsed})
	if r.p.profiler != nil {
		r.p.profiler.RecordDuration(name, elapsed)
	}
	r.debugf("%s: %dx%d in %v", name, out.Width, out.Height, elapsed)
	return out, nil
}

func (r *run) debugf(format string, args ...any) {
	if r.cfg.Debug {
		r.p.logger.Printf("[DEBUG] "+format, args...)
	}
}

// Run validates buf and cfg, then executes:
//
//  1. Resample: Lanczos (AnimeMode) or cubic convolution to round(w*scale).
//  2. Edge-preserving smoothing (AnimeMode only).
//  3. Brightness/contrast with factors blended toward 1 by Quality when
//     PreserveColors is set.
//  4. Saturation, when the effective factor differs from 1.
//  5. Unsharp mask with strength (Sharpness-1)*Quality, when Sharpness > 1.
//  6. Denoise (mild when preserving colours, strong otherwise), when enabled.
//
// ctx is checked between stages only.
//
// Arguments:
// - ctx: Cancellation for the run.
// - buf: The input image; never modified.
// - cfg: The enhancement settings.
//
// Returns:
// - The Result with the new buffer and a description of the path taken.
// - An error wrapping images.ErrInvalidBuffer or ErrInvalidConfig on bad input.
func (p *Pipeline) Run(ctx context.Context, buf *images.PixelBuffer, cfg Config) (*Result, error) {
	if err := buf.Validate(); err != nil {
		return nil, errors.Wrap(err, "input validation failed")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &run{p: p, ctx: ctx, cfg: cfg}
	r.debugf("Starting enhancement: %dx%d, scale=%.2f, quality=%.2f, anime=%t",
		buf.Width, buf.Height, cfg.Scale, cfg.Quality, cfg.AnimeMode)

	var done func() time.Duration
	if p.profiler != nil {
		done = p.profiler.StartOperation("pipeline")
	}

	algorithm := AlgorithmBicubic
	resampleOpt := resample.Options{Boundary: cfg.Boundary, Parallel: cfg.Parallel}

	var out *images.PixelBuffer
	var err error
	if cfg.AnimeMode {
		algorithm = AlgorithmLanczos
		out, err = r.stage(StageResample, func() (*images.PixelBuffer, error) {
			return resample.Resample(buf, resample.Lanczos, cfg.Scale, resampleOpt)
		})
		if err != nil {
			return nil, err
		}
		upscaled := out
		out, err = r.stage(StageSmooth, func() (*images.PixelBuffer, error) {
			opt := kernels.DefaultSmoothOptions()
			opt.Parallel = cfg.Parallel
			return kernels.EdgePreservingSmooth(upscaled, opt)
		})
	} else {
		out, err = r.stage(StageResample, func() (*images.PixelBuffer, error) {
			return resample.Resample(buf, resample.Cubic, cfg.Scale, resampleOpt)
		})
	}
	if err != nil {
		return nil, err
	}

	brightness := tone.EffectiveFactor(cfg.Brightness, cfg.Quality, cfg.PreserveColors)
	contrast := tone.EffectiveFactor(cfg.Contrast, cfg.Quality, cfg.PreserveColors)
	saturation := tone.EffectiveFactor(cfg.Saturation, cfg.Quality, cfg.PreserveColors)
	r.debugf("Effective factors: brightness=%.4f, contrast=%.4f, saturation=%.4f", brightness, contrast, saturation)

	toneOpt := tone.Options{Parallel: cfg.Parallel}
	in := out
	out, err = r.stage(StageTone, func() (*images.PixelBuffer, error) {
		return tone.Adjust(in, brightness, contrast, toneOpt)
	})
	if err != nil {
		return nil, err
	}

	if saturation != 1.0 {
		in := out
		out, err = r.stage(StageSaturate, func() (*images.PixelBuffer, error) {
			return tone.Saturate(in, saturation, toneOpt)
		})
		if err != nil {
			return nil, err
		}
	}

	res := &Result{
		Algorithm:         algorithm,
		QualityApplied:    cfg.Quality,
		ColorPreservation: cfg.PreserveColors,
		Brightness:        brightness,
		Contrast:          contrast,
		Saturation:        saturation,
	}

	if cfg.Sharpness > 1.0 {
		strength := (cfg.Sharpness - 1.0) * cfg.Quality
		in := out
		out, err = r.stage(StageSharpen, func() (*images.PixelBuffer, error) {
			return sharpen.UnsharpMask(in, sharpen.Options{
				Strength: strength,
				Radius:   cfg.SharpenRadius,
				Parallel: cfg.Parallel,
				Pool:     p.pool,
			})
		})
		if err != nil {
			return nil, err
		}
		res.Sharpened = true
		res.SharpenStrength = strength
	}

	if cfg.Denoise {
		opt := kernels.StrongDenoise()
		if cfg.PreserveColors {
			opt = kernels.MildDenoise()
		}
		opt.Parallel = cfg.Parallel
		in := out
		out, err = r.stage(StageDenoise, func() (*images.PixelBuffer, error) {
			return kernels.Denoise(in, opt)
		})
		if err != nil {
			return nil, err
		}
		res.Denoised = true
	}

	if done != nil {
		elapsed := done()
		if secs := elapsed.Seconds(); secs > 0 {
			p.profiler.RecordMetric("output_mp_per_sec", float64(out.Width*out.Height)/1e6/secs)
		}
	}

	res.Buffer = out
	res.Width = out.Width
	res.Height = out.Height
	res.Timings = r.timings
	res.Message = fmt.Sprintf("Enhanced %dx%d to %dx%d using %s", buf.Width, buf.Height, out.Width, out.Height, algorithm)

	r.debugf("Enhancement complete: %s", res.Message)
	return res, nil
}

// BatchRun enhances several buffers concurrently with the same config.
//
// Arguments:
// - ctx: Cancellation shared by every run.
// - bufs: The input buffers.
// - cfg: The enhancement settings.
// - maxConcurrency: Maximum number of buffers processed at once.
//
// Returns:
// - Results in input order.
// - The first error encountered, if any.
//
// @example
// results, err := p.BatchRun(ctx, []*images.PixelBuffer{a, b, c}, cfg, 4)
func (p *Pipeline) BatchRun(
	ctx context.Context,
	bufs []*images.PixelBuffer,
	cfg Config,
	maxConcurrency int,
) ([]*Result, error) {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	results := make([]*Result, len(bufs))
	errs := make([]error, len(bufs))

	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup

	for i, buf := range bufs {
		wg.Add(1)
		go func(idx int, b *images.PixelBuffer) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := p.Run(ctx, b, cfg)
			if err != nil {
				errs[idx] = errors.Wrapf(err, "failed to enhance image %d", idx)
				return
			}
			results[idx] = res
		}(i, buf)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
