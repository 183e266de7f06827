package tone

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-enhance/images"
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

func TestTable_IdentityCoversEveryValue(t *testing.T) {
	lut := Table(1, 1)
	for v := 0; v < 256; v++ {
		require.Equal(t, uint8(v), lut[v], "value %d", v)
	}
}

func TestAdjust_Identity(t *testing.T) {
	src := genBuffer(t, 1, 17, 9)
	out, err := Adjust(src, 1.0, 1.0, Options{})
	require.NoError(t, err)
	assert.True(t, src.Equal(out))
}

func TestAdjust_Values(t *testing.T) {
	testCases := []struct {
		name       string
		value      uint8
		brightness float64
		contrast   float64
		expected   uint8
	}{
		// 150*2 = 300 saturates, contrast 1 leaves it at the top.
		{name: "brightness saturates", value: 150, brightness: 2.0, contrast: 1.0, expected: 255},
		{name: "darken", value: 200, brightness: 0.5, contrast: 1.0, expected: 100},
		{name: "contrast keeps mid grey", value: 0, brightness: 1.0, contrast: 0.0, expected: 128},
		{name: "contrast stretches", value: 200, brightness: 1.0, contrast: 2.0, expected: 255},
		{name: "contrast pulls down", value: 60, brightness: 1.0, contrast: 2.0, expected: 0},
		{name: "default-ish", value: 100, brightness: 1.05, contrast: 1.10, expected: 103},
		{name: "negative brightness clamps", value: 100, brightness: -1, contrast: 1, expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			src, err := images.FromSamples(1, 1, []uint8{tc.value, tc.value, tc.value})
			require.NoError(t, err)
			out, err := Adjust(src, tc.brightness, tc.contrast, Options{})
			require.NoError(t, err)
			assert.Equal(t, []uint8{tc.expected, tc.expected, tc.expected}, out.Samples)
		})
	}
}

func TestAdjust_RandomRangeAndParallel(t *testing.T) {
	src := genBuffer(t, 5, 40, 30)
	for _, f := range [][2]float64{{0, 0}, {0.3, 3}, {1.7, 0.2}, {10, 10}} {
		serial, err := Adjust(src, f[0], f[1], Options{})
		require.NoError(t, err)
		parallel, err := Adjust(src, f[0], f[1], Options{Parallel: true})
		require.NoError(t, err)
		assert.True(t, serial.Equal(parallel))
		assert.Len(t, serial.Samples, len(src.Samples))
	}
}

func TestAdjust_InvalidFactors(t *testing.T) {
	src := genBuffer(t, 1, 2, 2)
	_, err := Adjust(src, math.NaN(), 1, Options{})
	assert.ErrorIs(t, err, ErrInvalidFactor)
	_, err = Adjust(src, 1, math.Inf(-1), Options{})
	assert.ErrorIs(t, err, ErrInvalidFactor)
	_, err = Adjust(&images.PixelBuffer{Width: 1, Height: 1}, 1, 1, Options{})
	assert.ErrorIs(t, err, images.ErrInvalidBuffer)
}

func TestEffectiveFactor(t *testing.T) {
	assert.InDelta(t, 1.0375, EffectiveFactor(1.10, 0.75, true), 1e-12)
	assert.InDelta(t, 1.01875, EffectiveFactor(1.05, 0.75, true), 1e-12)
	assert.Equal(t, 1.10, EffectiveFactor(1.10, 0.75, false))

	// Quality 0 with colour preservation is always neutral.
	for _, configured := range []float64{0, 0.5, 1.05, 3, 100} {
		assert.Equal(t, 1.0, EffectiveFactor(configured, 0, true))
	}
}

func TestSaturate(t *testing.T) {
	t.Run("factor one is identity", func(t *testing.T) {
		src := genBuffer(t, 2, 9, 9)
		out, err := Saturate(src, 1, Options{})
		require.NoError(t, err)
		assert.True(t, src.Equal(out))
	})

	t.Run("grey is unchanged at any factor", func(t *testing.T) {
		src, err := images.FromSamples(2, 1, []uint8{0, 0, 0, 123, 123, 123})
		require.NoError(t, err)
		for _, f := range []float64{0, 0.5, 2, 4} {
			out, err := Saturate(src, f, Options{})
			require.NoError(t, err)
			assert.True(t, src.Equal(out), "factor %v", f)
		}
	})

	t.Run("zero desaturates", func(t *testing.T) {
		src, err := images.FromSamples(1, 1, []uint8{255, 0, 0})
		require.NoError(t, err)
		out, err := Saturate(src, 0, Options{})
		require.NoError(t, err)
		// 0.299*255 = 76.245
		assert.Equal(t, []uint8{76, 76, 76}, out.Samples)
	})

	t.Run("boost widens channel spread", func(t *testing.T) {
		src, err := images.FromSamples(1, 1, []uint8{150, 100, 100})
		require.NoError(t, err)
		out, err := Saturate(src, 1.5, Options{Parallel: true})
		require.NoError(t, err)
		assert.Greater(t, int(out.Samples[0])-int(out.Samples[1]), 50)
	})

	t.Run("invalid", func(t *testing.T) {
		src := genBuffer(t, 1, 2, 2)
		_, err := Saturate(src, -0.1, Options{})
		assert.ErrorIs(t, err, ErrInvalidFactor)
		_, err = Saturate(src, math.NaN(), Options{})
		assert.ErrorIs(t, err, ErrInvalidFactor)
	})
}
