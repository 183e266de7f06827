package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-enhance/codec"
)

func TestLoadDirectoryImageFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"frame-10.png", "frame-2.jpg", "b.webp", "a.bmp", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0o755))

	files, err := LoadDirectoryImageFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 4)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f.Path))
		assert.Equal(t, filepath.Base(f.Path), string(f.Data))
	}
	assert.Equal(t, []string{"a.bmp", "b.webp", "frame-2.jpg", "frame-10.png"}, names)

	assert.Equal(t, -1, files[0].Frame)
	assert.Equal(t, 2, files[2].Frame)
	assert.Equal(t, codec.JPEG, files[2].Format)
	assert.Equal(t, "frame-10", files[3].Name())
}

func TestLoadDirectoryImageFiles_Missing(t *testing.T) {
	_, err := LoadDirectoryImageFiles(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestFrameNumber(t *testing.T) {
	assert.Equal(t, 42, frameNumber("frame-42.png"))
	assert.Equal(t, -1, frameNumber("frame-x.png"))
	assert.Equal(t, -1, frameNumber("photo.png"))
}
