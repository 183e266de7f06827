package sharpen

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-enhance/images"
	"github.com/nvr-ai/go-enhance/images/kernels"
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

func TestUnsharpMask_ZeroStrengthIsIdentity(t *testing.T) {
	src := genBuffer(t, 1, 9, 7)
	out, err := UnsharpMask(src, Options{Strength: 0, Radius: 3})
	require.NoError(t, err)
	assert.True(t, src.Equal(out))
}

func TestUnsharpMask_UniformIdentity(t *testing.T) {
	src, err := images.NewPixelBuffer(6, 6)
	require.NoError(t, err)
	for i := range src.Samples {
		src.Samples[i] = 180
	}
	out, err := UnsharpMask(src, Options{Strength: 3})
	require.NoError(t, err)
	assert.True(t, src.Equal(out))
}

func TestUnsharpMask_MatchesFormula(t *testing.T) {
	src := genBuffer(t, 2, 11, 8)
	blurred, err := kernels.BoxBlur(src, kernels.Options{Radius: 1})
	require.NoError(t, err)

	const strength = 0.75
	out, err := UnsharpMask(src, Options{Strength: strength})
	require.NoError(t, err)

	for i := range src.Samples {
		orig := float64(src.Samples[i])
		want := images.ToUint8(orig + strength*(orig-float64(blurred.Samples[i])))
		require.Equal(t, want, out.Samples[i], "sample %d", i)
	}
}

func TestUnsharpMask_IncreasesEdgeContrast(t *testing.T) {
	// 1x4 step: 50 50 | 200 200
	src, err := images.FromSamples(4, 1, []uint8{
		50, 50, 50, 50, 50, 50, 200, 200, 200, 200, 200, 200,
	})
	require.NoError(t, err)

	out, err := UnsharpMask(src, Options{Strength: 1})
	require.NoError(t, err)
	assert.Less(t, out.At(1, 0, 0), uint8(50))
	assert.Greater(t, out.At(2, 0, 0), uint8(200))
}

func TestUnsharpMask_ParallelMatchesSerial(t *testing.T) {
	src := genBuffer(t, 3, 50, 41)
	serial, err := UnsharpMask(src, Options{Strength: 1.2, Radius: 2})
	require.NoError(t, err)
	parallel, err := UnsharpMask(src, Options{Strength: 1.2, Radius: 2, Parallel: true, Pool: kernels.NewPool()})
	require.NoError(t, err)
	assert.True(t, serial.Equal(parallel))
}

func TestUnsharpMask_Errors(t *testing.T) {
	src := genBuffer(t, 1, 3, 3)
	for _, s := range []float64{-0.1, math.NaN(), math.Inf(1)} {
		_, err := UnsharpMask(src, Options{Strength: s})
		assert.ErrorIs(t, err, ErrInvalidStrength, "strength %v", s)
	}
	_, err := UnsharpMask(src, Options{Strength: 1, Radius: -2})
	assert.ErrorIs(t, err, kernels.ErrInvalidRadius)
	_, err = UnsharpMask(&images.PixelBuffer{}, Options{Strength: 1})
	assert.ErrorIs(t, err, images.ErrInvalidBuffer)
}
