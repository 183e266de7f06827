package kernels

import (
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

func fillBuffer(t testing.TB, w, h int, v uint8) *images.PixelBuffer {
	t.Helper()
	buf, err := images.NewPixelBuffer(w, h)
	require.NoError(t, err)
	for i := range buf.Samples {
		buf.Samples[i] = v
	}
	return buf
}

// naiveBoxBlur evaluates the 2-D window directly; used as the reference.
func naiveBoxBlur(src *images.PixelBuffer, r int, edge images.EdgeMode) *images.PixelBuffer {
	dst := src.Clone()
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			for c := 0; c < images.Channels; c++ {
				sum, n := 0, 0
				for dy := -r; dy <= r; dy++ {
					sy, oky := images.MapCoord(y+dy, src.Height, edge)
					for dx := -r; dx <= r; dx++ {
						sx, okx := images.MapCoord(x+dx, src.Width, edge)
						if !okx || !oky {
							continue
						}
						sum += int(src.At(sx, sy, c))
						n++
					}
				}
				dst.Samples[src.Index(x, y, c)] = uint8((sum + n/2) / n)
			}
		}
	}
	return dst
}

func TestBoxBlur_RadiusZeroReturnsCopy(t *testing.T) {
	src := genBuffer(t, 1, 8, 7)
	out, err := BoxBlur(src, Options{Radius: 0})
	require.NoError(t, err)
	assert.True(t, src.Equal(out))

	out.Samples[0]++
	assert.NotEqual(t, src.Samples[0], out.Samples[0], "radius 0 must still return a new buffer")
}

func TestBoxBlur_MatchesNaiveWindow(t *testing.T) {
	modes := []images.EdgeMode{"", images.ClampEdgeMode, images.ExcludeEdgeMode, images.MirrorEdgeMode, images.WrapEdgeMode}
	for _, mode := range modes {
		for _, r := range []int{1, 2, 5} {
			src := genBuffer(t, int64(r), 13, 9)
			got, err := BoxBlur(src, Options{Radius: r, Edge: mode})
			require.NoError(t, err)

			want := naiveBoxBlur(src, r, mode.Or(images.ExcludeEdgeMode))
			assert.True(t, want.Equal(got), "mode %q radius %d", mode, r)
		}
	}
}

func TestBoxBlur_ExcludeDivisor(t *testing.T) {
	// A single bright corner pixel in a 3x3 black buffer: the corner window
	// only covers 4 in-bounds pixels, the centre window covers 9.
	src := fillBuffer(t, 3, 3, 0)
	src.Samples[0] = 200

	out, err := BoxBlur(src, Options{Radius: 1})
	require.NoError(t, err)
	assert.Equal(t, uint8(50), out.At(0, 0, 0))
	assert.Equal(t, uint8(22), out.At(1, 1, 0)) // 200/9 = 22.2
	assert.Equal(t, uint8(0), out.At(2, 2, 0))
}

func TestBoxBlur_UniformInvariance(t *testing.T) {
	for _, mode := range []images.EdgeMode{images.ClampEdgeMode, images.ExcludeEdgeMode, images.MirrorEdgeMode, images.WrapEdgeMode} {
		src := fillBuffer(t, 6, 5, 77)
		out, err := BoxBlur(src, Options{Radius: 4, Edge: mode, Parallel: true})
		require.NoError(t, err)
		assert.True(t, src.Equal(out), "mode %q", mode)
	}
}

func TestBoxBlur_ParallelAndPoolMatchSerial(t *testing.T) {
	src := genBuffer(t, 9, 64, 48)
	serial, err := BoxBlur(src, Options{Radius: 3})
	require.NoError(t, err)

	pool := NewPool()
	for i := 0; i < 3; i++ {
		parallel, err := BoxBlur(src, Options{Radius: 3, Parallel: true, Pool: pool})
		require.NoError(t, err)
		assert.True(t, serial.Equal(parallel), "iteration %d", i)
	}
}

func TestBoxBlur_Errors(t *testing.T) {
	src := genBuffer(t, 1, 4, 4)

	_, err := BoxBlur(src, Options{Radius: -1})
	assert.ErrorIs(t, err, ErrInvalidRadius)
	_, err = BoxBlur(src, Options{Radius: MaxRadius + 1})
	assert.ErrorIs(t, err, ErrInvalidRadius)
	_, err = BoxBlur(src, Options{Radius: 1, Edge: "smear"})
	assert.ErrorIs(t, err, images.ErrInvalidEdgeMode)
	_, err = BoxBlur(&images.PixelBuffer{Width: 1, Height: 1}, Options{Radius: 1})
	assert.ErrorIs(t, err, images.ErrInvalidBuffer)
}

func TestPool_NilAndReuse(t *testing.T) {
	var nilPool *Pool
	assert.Len(t, nilPool.Get(10), 10)
	nilPool.Put(make([]uint32, 3))

	p := NewPool()
	buf := p.Get(16)
	assert.Len(t, buf, 16)
	p.Put(buf)
	assert.Len(t, p.Get(8), 8)
	assert.Len(t, p.Get(32), 32)
}

func BenchmarkBoxBlur_640_r3(b *testing.B) {
	src := genBuffer(b, 1, 640, 640)
	opt := Options{Radius: 3, Parallel: true, Pool: NewPool()}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = BoxBlur(src, opt)
	}
}

func BenchmarkBoxBlur_1080p_r7(b *testing.B) {
	src := genBuffer(b, 1, 1920, 1080)
	opt := Options{Radius: 7, Edge: images.ClampEdgeMode, Parallel: true, Pool: NewPool()}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = BoxBlur(src, opt)
	}
}
