package enhance

import (
	"bytes"
	"context"
	"log"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-enhance/images"
	"github.com/nvr-ai/go-enhance/images/tone"
	"github.com/nvr-ai/go-enhance/profiler"
)

func genBuffer(t testing.TB, seed int64, w, h int) *images.PixelBuffer {
	t.Helper()
	buf, err := images.NewPixelBuffer(w, h)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(seed))
	for i := range buf.Samples {
		buf.Samples[i] = uint8(rng.Intn(256))
	}
	return buf
}

func grayBuffer(t testing.TB, w, h int, v uint8) *images.PixelBuffer {
	t.Helper()
	buf, err := images.NewPixelBuffer(w, h)
	require.NoError(t, err)
	for i := range buf.Samples {
		buf.Samples[i] = v
	}
	return buf
}

// TestRun_CheckerUpscale upscales a 2x2 buffer of four distinct colours.
func TestRun_CheckerUpscale(t *testing.T) {
	src, err := images.FromSamples(2, 2, []uint8{
		0, 0, 0, 255, 255, 255,
		255, 0, 0, 0, 255, 0,
	})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Scale = 2.0
	cfg.AnimeMode = false

	res, err := Enhance(src, cfg)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Width)
	assert.Equal(t, 4, res.Height)
	assert.Len(t, res.Buffer.Samples, 4*4*images.Channels)
	assert.Equal(t, AlgorithmBicubic, res.Algorithm)

	// Corners track their source corner after the mild tone curve.
	lut := tone.Table(res.Brightness, res.Contrast)
	r, g, b := res.Buffer.Pixel(0, 0)
	assert.Equal(t, []uint8{lut[0], lut[0], lut[0]}, []uint8{r, g, b})
	r, g, b = res.Buffer.Pixel(3, 3)
	assert.Greater(t, g, r)
	assert.Greater(t, g, b)
}

// TestRun_UniformGray checks both modes on a flat grey buffer.
func TestRun_UniformGray(t *testing.T) {
	for _, anime := range []bool{false, true} {
		src := grayBuffer(t, 10, 10, 100)
		cfg := DefaultConfig()
		cfg.AnimeMode = anime

		res, err := Enhance(src, cfg)
		require.NoError(t, err)
		assert.Equal(t, 20, res.Width)
		assert.Equal(t, 20, res.Height)

		first := res.Buffer.Samples[0]
		assert.InDelta(t, 100, int(first), 2, "only the mild default tone curve should apply")
		for i, v := range res.Buffer.Samples {
			require.Equal(t, first, v, "anime=%t sample %d", anime, i)
		}
	}
}

// TestRun_QualityZeroIsNeutral: with colour preservation and quality 0 the
// tone factors collapse to 1 regardless of configuration.
func TestRun_QualityZeroIsNeutral(t *testing.T) {
	src := genBuffer(t, 3, 6, 5)
	cfg := DefaultConfig()
	cfg.Quality = 0
	cfg.Brightness = 3.0
	cfg.Contrast = 0.1
	cfg.Saturation = 2.0
	cfg.Sharpness = 5
	cfg.Scale = 1

	res, err := Enhance(src, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Brightness)
	assert.Equal(t, 1.0, res.Contrast)
	assert.Equal(t, 1.0, res.Saturation)
	assert.True(t, res.Sharpened)
	assert.Equal(t, 0.0, res.SharpenStrength)
	assert.True(t, src.Equal(res.Buffer), "scale 1 with neutral factors reproduces the input")
}

func TestRun_StagesAndDescriptor(t *testing.T) {
	src := genBuffer(t, 4, 8, 8)

	cfg := DefaultConfig()
	cfg.AnimeMode = true
	cfg.Sharpness = 1.5
	cfg.Saturation = 1.2
	cfg.Denoise = true

	res, err := New().Run(context.Background(), src, cfg)
	require.NoError(t, err)
	assert.Equal(t, AlgorithmLanczos, res.Algorithm)
	assert.Equal(t, "Enhanced 8x8 to 16x16 using lanczos+edge-preserving", res.Message)
	assert.Equal(t, 0.75, res.QualityApplied)
	assert.True(t, res.ColorPreservation)
	assert.True(t, res.Sharpened)
	assert.InDelta(t, 0.375, res.SharpenStrength, 1e-12)
	assert.True(t, res.Denoised)

	var stages []string
	for _, st := range res.Timings {
		stages = append(stages, st.Stage)
	}
	assert.Equal(t, []string{StageResample, StageSmooth, StageTone, StageSaturate, StageSharpen, StageDenoise}, stages)
}

func TestRun_SharpnessAtOneSkipsSharpen(t *testing.T) {
	res, err := Enhance(genBuffer(t, 1, 4, 4), DefaultConfig())
	require.NoError(t, err)
	assert.False(t, res.Sharpened)
	assert.False(t, res.Denoised)
	assert.Len(t, res.Timings, 2)
}

func TestRun_RandomBuffersValid(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 6; i++ {
		w, h := 1+rng.Intn(9), 1+rng.Intn(9)
		cfg := DefaultConfig()
		cfg.Scale = 0.5 + rng.Float64()*2.5
		cfg.Quality = rng.Float64()
		cfg.AnimeMode = i%2 == 0
		cfg.PreserveColors = i%3 != 0
		cfg.Sharpness = rng.Float64() * 3
		cfg.Denoise = i%2 == 1

		res, err := Enhance(genBuffer(t, int64(i), w, h), cfg)
		require.NoError(t, err)
		assert.NoError(t, res.Buffer.Validate())
		assert.Equal(t, res.Width*res.Height*images.Channels, len(res.Buffer.Samples))
	}
}

func TestRun_ParallelMatchesSerial(t *testing.T) {
	src := genBuffer(t, 8, 31, 23)
	for _, anime := range []bool{false, true} {
		cfg := DefaultConfig()
		cfg.AnimeMode = anime
		cfg.Sharpness = 2
		cfg.Denoise = true

		cfg.Parallel = false
		serial, err := Enhance(src, cfg)
		require.NoError(t, err)
		cfg.Parallel = true
		parallel, err := Enhance(src, cfg)
		require.NoError(t, err)
		assert.True(t, serial.Buffer.Equal(parallel.Buffer), "anime=%t", anime)
	}
}

func TestRun_DoesNotMutateInput(t *testing.T) {
	src := genBuffer(t, 5, 7, 7)
	before := src.Clone()
	cfg := DefaultConfig()
	cfg.Sharpness = 2
	_, err := Enhance(src, cfg)
	require.NoError(t, err)
	assert.True(t, before.Equal(src))
}

func TestRun_Errors(t *testing.T) {
	_, err := Enhance(&images.PixelBuffer{Width: 2, Height: 2, Samples: make([]uint8, 3)}, DefaultConfig())
	assert.ErrorIs(t, err, images.ErrInvalidBuffer)

	cfg := DefaultConfig()
	cfg.Quality = 2
	_, err = Enhance(genBuffer(t, 1, 2, 2), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New().Run(ctx, genBuffer(t, 1, 2, 2), DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_DebugLoggingAndProfiler(t *testing.T) {
	var logs bytes.Buffer
	tracker := profiler.New(profiler.Options{})
	p := New(WithLogger(log.New(&logs, "", 0)), WithProfiler(tracker))

	cfg := DefaultConfig()
	cfg.Debug = true
	_, err := p.Run(context.Background(), genBuffer(t, 2, 5, 5), cfg)
	require.NoError(t, err)

	assert.Contains(t, logs.String(), "[DEBUG] Starting enhancement: 5x5")
	assert.Contains(t, logs.String(), "[DEBUG] Enhancement complete")

	names := map[string]bool{}
	for _, op := range tracker.Operations() {
		names[op.Name] = true
	}
	assert.True(t, names["pipeline"])
	assert.True(t, names[StageResample])
	assert.True(t, names[StageTone])

	logs.Reset()
	cfg.Debug = false
	_, err = p.Run(context.Background(), genBuffer(t, 2, 5, 5), cfg)
	require.NoError(t, err)
	assert.Empty(t, logs.String())
}

func TestBatchRun(t *testing.T) {
	bufs := []*images.PixelBuffer{
		genBuffer(t, 1, 4, 4),
		genBuffer(t, 2, 6, 3),
		genBuffer(t, 3, 5, 5),
	}
	p := New()
	results, err := p.BatchRun(context.Background(), bufs, DefaultConfig(), 2)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 8, results[0].Width)
	assert.Equal(t, 12, results[1].Width)
	assert.Equal(t, 10, results[2].Height)

	bufs = append(bufs, &images.PixelBuffer{})
	_, err = p.BatchRun(context.Background(), bufs, DefaultConfig(), 0)
	assert.ErrorIs(t, err, images.ErrInvalidBuffer)
}

func BenchmarkRun(b *testing.B) {
	src := genBuffer(b, 1, 160, 120)
	for _, anime := range []bool{false, true} {
		cfg := DefaultConfig()
		cfg.AnimeMode = anime
		cfg.Sharpness = 1.5
		name := "bicubic"
		if anime {
			name = "lanczos"
		}
		b.Run(name, func(b *testing.B) {
			p := New()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = p.Run(context.Background(), src, cfg)
			}
		})
	}
}
