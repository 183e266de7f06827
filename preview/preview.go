// Package preview renders small thumbnails of enhanced buffers.
package preview

import (
	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-enhance/images"
)

// ErrInvalidSize is returned for a non-positive thumbnail bound.
var ErrInvalidSize = errors.New("thumbnail size must be > 0")

// Thumbnail fits buf inside a maxSize x maxSize box, keeping the aspect
// ratio. Buffers that already fit are copied unchanged.
//
// Arguments:
// - buf: The source buffer.
// - maxSize: Bound on the longer side, in pixels.
//
// Returns:
// - A new buffer no larger than maxSize on either side.
// - An error if buf is invalid or maxSize <= 0.
//
// @example
// thumb, err := preview.Thumbnail(res.Buffer, 256)
func Thumbnail(buf *images.PixelBuffer, maxSize int) (*images.PixelBuffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if maxSize <= 0 {
		return nil, errors.Wrapf(ErrInvalidSize, "got %d", maxSize)
	}
	if buf.Width <= maxSize && buf.Height <= maxSize {
		return buf.Clone(), nil
	}

	img := resize.Thumbnail(uint(maxSize), uint(maxSize), buf.ToImage(), resize.Lanczos3)
	return images.FromImage(img)
}
