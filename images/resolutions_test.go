package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResolution_GetMegaPixels performs table-driven tests on the GetMegaPixels method.
func TestResolution_GetMegaPixels(t *testing.T) {
	testCases := []struct {
		name     string
		res      Resolution
		expected float64
	}{
		{
			name: "Full HD 1080p",
			res:  Resolutions[ResolutionAlias1080p],
			// 1920 * 1080 = 2,073,600 -> 2.07 MP
			expected: 2.07,
		},
		{
			name:     "4K UHD",
			res:      Resolutions[ResolutionAlias4K],
			expected: 8.29,
		},
		{
			name:     "Zero Width",
			res:      Resolution{Pixels: Pixels{Width: 0, Height: 1080}},
			expected: 0.0,
		},
		{
			name:     "Negative Height",
			res:      Resolution{Pixels: Pixels{Width: 1920, Height: -1}},
			expected: 0.0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.res.GetMegaPixels())
		})
	}
}

// TestResolution_String verifies the human-readable string output for a resolution.
func TestResolution_String(t *testing.T) {
	assert.Equal(t, "Full HD 1080p (1920x1080, 2.07MP)", Resolutions[ResolutionAlias1080p].String())
}

func TestGetResolution(t *testing.T) {
	testCases := []struct {
		name     string
		alias    string
		expected ResolutionAlias
		wantErr  bool
	}{
		{name: "exact alias", alias: "720p", expected: ResolutionAlias720p},
		{name: "case and whitespace", alias: " 4K ", expected: ResolutionAlias4K},
		{name: "unknown", alias: "potato", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := GetResolution(tc.alias)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrUnknownResolution)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, res.Alias)
		})
	}
}

func TestGetAllResolutions_Ordered(t *testing.T) {
	all := GetAllResolutions()
	require.Len(t, all, len(Resolutions))
	for i := 1; i < len(all); i++ {
		prev := all[i-1].Pixels.Width * all[i-1].Pixels.Height
		cur := all[i].Pixels.Width * all[i].Pixels.Height
		assert.LessOrEqual(t, prev, cur, "resolutions should be ordered by pixel count")
	}
}

func TestResolution_FitScale(t *testing.T) {
	testCases := []struct {
		name          string
		alias         ResolutionAlias
		width, height int
		expected      float64
	}{
		{name: "exact half", alias: ResolutionAlias1080p, width: 960, height: 540, expected: 2.0},
		{name: "height bound", alias: ResolutionAlias1080p, width: 100, height: 270, expected: 4.0},
		{name: "width bound", alias: ResolutionAlias4K, width: 1920, height: 100, expected: 2.0},
		{name: "downscale", alias: ResolutionAlias720p, width: 2560, height: 1440, expected: 0.5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			scale, err := Resolutions[tc.alias].FitScale(tc.width, tc.height)
			require.NoError(t, err)
			assert.InDelta(t, tc.expected, scale, 1e-12)
		})
	}

	_, err := Resolutions[ResolutionAlias4K].FitScale(0, 10)
	assert.ErrorIs(t, err, ErrInvalidBuffer)
}
