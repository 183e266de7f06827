// Package images - RGB pixel buffer definition shared by every enhancement stage.
package images

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// Channels is the fixed number of samples per pixel (R, G, B).
const Channels = 3

// ErrInvalidBuffer is returned when a buffer's dimensions or sample count are
// inconsistent.
var ErrInvalidBuffer = errors.New("invalid pixel buffer")

// PixelBuffer is a flat, row-major grid of 8-bit RGB samples.
//
// The sample for pixel (x, y) and channel c lives at (y*Width+x)*Channels + c.
// Stages treat a PixelBuffer as read-only input and always allocate a new one
// for their output.
type PixelBuffer struct {
	// Width of the image in pixels.
	Width int `json:"width" yaml:"width"`
	// Height of the image in pixels.
	Height int `json:"height" yaml:"height"`
	// Samples holds Width*Height*Channels values.
	Samples []uint8 `json:"samples" yaml:"samples"`
}

// NewPixelBuffer allocates a zeroed buffer of the given size.
//
// Arguments:
// - width: The width in pixels (must be > 0).
// - height: The height in pixels (must be > 0).
//
// Returns:
// - The new buffer.
// - ErrInvalidBuffer if either dimension is not positive.
//
// @example
// buf, err := NewPixelBuffer(640, 480)
func NewPixelBuffer(width, height int) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidBuffer, "dimensions %dx%d", width, height)
	}
	return &PixelBuffer{
		Width:   width,
		Height:  height,
		Samples: make([]uint8, width*height*Channels),
	}, nil
}

// FromSamples wraps externally decoded samples without copying them. The
// caller hands ownership of samples to the returned buffer.
//
// Arguments:
// - width: The width in pixels.
// - height: The height in pixels.
// - samples: Row-major RGB samples, exactly width*height*3 long.
//
// Returns:
// - The validated buffer.
// - ErrInvalidBuffer if the dimensions and sample count disagree.
func FromSamples(width, height int, samples []uint8) (*PixelBuffer, error) {
	buf := &PixelBuffer{Width: width, Height: height, Samples: samples}
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	return buf, nil
}

// Validate checks the layout invariant.
func (b *PixelBuffer) Validate() error {
	if b == nil {
		return errors.Wrap(ErrInvalidBuffer, "buffer is nil")
	}
	if b.Width <= 0 || b.Height <= 0 {
		return errors.Wrapf(ErrInvalidBuffer, "dimensions %dx%d", b.Width, b.Height)
	}
	if want := b.Width * b.Height * Channels; len(b.Samples) != want {
		return errors.Wrapf(ErrInvalidBuffer, "%dx%d needs %d samples, got %d",
			b.Width, b.Height, want, len(b.Samples))
	}
	return nil
}

// Index returns the flat sample index for pixel (x, y), channel c.
func (b *PixelBuffer) Index(x, y, c int) int {
	return (y*b.Width+x)*Channels + c
}

// At returns the sample for pixel (x, y), channel c.
func (b *PixelBuffer) At(x, y, c int) uint8 {
	return b.Samples[(y*b.Width+x)*Channels+c]
}

// Pixel returns the three samples of pixel (x, y).
func (b *PixelBuffer) Pixel(x, y int) (r, g, bl uint8) {
	i := (y*b.Width + x) * Channels
	return b.Samples[i], b.Samples[i+1], b.Samples[i+2]
}

// Len returns the number of samples.
func (b *PixelBuffer) Len() int {
	return len(b.Samples)
}

// Clone returns a deep copy.
func (b *PixelBuffer) Clone() *PixelBuffer {
	out := &PixelBuffer{Width: b.Width, Height: b.Height, Samples: make([]uint8, len(b.Samples))}
	copy(out.Samples, b.Samples)
	return out
}

// Equal reports whether two buffers have the same dimensions and samples.
func (b *PixelBuffer) Equal(o *PixelBuffer) bool {
	if b == nil || o == nil {
		return b == o
	}
	if b.Width != o.Width || b.Height != o.Height || len(b.Samples) != len(o.Samples) {
		return false
	}
	for i := range b.Samples {
		if b.Samples[i] != o.Samples[i] {
			return false
		}
	}
	return true
}

// String returns a short description of the buffer.
func (b *PixelBuffer) String() string {
	return fmt.Sprintf("PixelBuffer(%dx%d, %d samples)", b.Width, b.Height, len(b.Samples))
}

// Checksum returns a hex MD5 of the dimensions and samples, for checking
// that two runs produced identical output.
func (b *PixelBuffer) Checksum() string {
	if b == nil {
		return "empty"
	}
	hash := md5.New()
	fmt.Fprintf(hash, "%dx%d:", b.Width, b.Height)
	hash.Write(b.Samples)
	return hex.EncodeToString(hash.Sum(nil))
}

// FromImage converts any image.Image into a PixelBuffer. Alpha is dropped;
// non-opaque pixels keep their premultiplied colour, which composites them
// over black.
//
// Arguments:
// - img: The decoded source image.
//
// Returns:
// - The RGB buffer.
// - ErrInvalidBuffer if the image is nil or empty.
//
// @example
// img, _ := png.Decode(f)
// buf, err := FromImage(img)
func FromImage(img image.Image) (*PixelBuffer, error) {
	if img == nil {
		return nil, errors.Wrap(ErrInvalidBuffer, "image is nil")
	}
	bounds := img.Bounds()
	buf, err := NewPixelBuffer(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	switch src := img.(type) {
	case *image.NRGBA:
		// Fast path: straight copy of the colour bytes.
		for y := 0; y < buf.Height; y++ {
			row := src.Pix[(y+bounds.Min.Y-src.Rect.Min.Y)*src.Stride:]
			for x := 0; x < buf.Width; x++ {
				s := (x + bounds.Min.X - src.Rect.Min.X) * 4
				d := (y*buf.Width + x) * Channels
				buf.Samples[d] = row[s]
				buf.Samples[d+1] = row[s+1]
				buf.Samples[d+2] = row[s+2]
			}
		}
	case *image.RGBA:
		for y := 0; y < buf.Height; y++ {
			row := src.Pix[(y+bounds.Min.Y-src.Rect.Min.Y)*src.Stride:]
			for x := 0; x < buf.Width; x++ {
				s := (x + bounds.Min.X - src.Rect.Min.X) * 4
				d := (y*buf.Width + x) * Channels
				buf.Samples[d] = row[s]
				buf.Samples[d+1] = row[s+1]
				buf.Samples[d+2] = row[s+2]
			}
		}
	default:
		for y := 0; y < buf.Height; y++ {
			for x := 0; x < buf.Width; x++ {
				r, g, bl, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				d := (y*buf.Width + x) * Channels
				// RGBA() returns 16-bit values.
				buf.Samples[d] = uint8(r >> 8)
				buf.Samples[d+1] = uint8(g >> 8)
				buf.Samples[d+2] = uint8(bl >> 8)
			}
		}
	}
	return buf, nil
}

// ToImage converts the buffer into an opaque *image.NRGBA for encoding.
func (b *PixelBuffer) ToImage() *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			s := (y*b.Width + x) * Channels
			dst.SetNRGBA(x, y, color.NRGBA{R: b.Samples[s], G: b.Samples[s+1], B: b.Samples[s+2], A: 255})
		}
	}
	return dst
}
