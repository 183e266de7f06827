// Package codec converts between encoded image files and images.PixelBuffer.
package codec

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/nvr-ai/go-enhance/images"
)

// Format is an encoded image container.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
	WebP Format = "webp"
)

var (
	// ErrUnsupportedFormat is returned for containers outside the Format set.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrDecode is returned when the bytes cannot be decoded.
	ErrDecode = errors.New("failed to decode image")
)

// Formats lists every supported container.
var Formats = []Format{PNG, JPEG, BMP, TIFF, WebP}

// nativeDecoder is set by builds with OpenCV and handles containers the Go
// decoders do not recognise.
var nativeDecoder func(data []byte) (*images.PixelBuffer, error)

// EncodeOptions controls lossy encoders.
type EncodeOptions struct {
	// JPEGQuality in [1,100]; 0 selects 95.
	JPEGQuality int
	// WebPQuality in [0,100]; 0 selects 90.
	WebPQuality float32
	// Lossless selects lossless WebP.
	Lossless bool
}

// ParseFormat accepts a format name or extension, case-insensitively.
func ParseFormat(name string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".") {
	case "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	case "bmp":
		return BMP, nil
	case "tiff", "tif":
		return TIFF, nil
	case "webp":
		return WebP, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedFormat, "%q", name)
	}
}

// FormatFromPath infers the container from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Decode reads any supported container into an RGB buffer. JPEG EXIF
// orientation is applied. Alpha is discarded.
//
// Arguments:
// - data: The encoded image.
//
// Returns:
// - The decoded buffer.
// - The detected container, empty when the native decoder was used.
// - An error wrapping ErrDecode or ErrUnsupportedFormat.
func Decode(data []byte) (*images.PixelBuffer, Format, error) {
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if nativeDecoder != nil {
			if buf, nerr := nativeDecoder(data); nerr == nil {
				return buf, "", nil
			}
		}
		return nil, "", errors.Wrap(ErrDecode, err.Error())
	}
	format, err := ParseFormat(name)
	if err != nil {
		return nil, "", err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", errors.Wrapf(ErrDecode, "%s: %v", format, err)
	}

	buf, err := images.FromImage(img)
	if err != nil {
		return nil, "", errors.Wrap(ErrDecode, err.Error())
	}
	return buf, format, nil
}

// DecodeFile reads and decodes the file at path.
func DecodeFile(path string) (*images.PixelBuffer, Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.Wrapf(err, "failed to read %s", path)
	}
	return Decode(data)
}

// Encode writes buf in the requested container.
//
// @example
// data, err := codec.Encode(buf, codec.PNG, codec.EncodeOptions{})
func Encode(buf *images.PixelBuffer, format Format, opts EncodeOptions) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	img := buf.ToImage()

	var out bytes.Buffer
	switch format {
	case WebP:
		quality := opts.WebPQuality
		if quality <= 0 {
			quality = 90
		}
		if err := webp.Encode(&out, img, &webp.Options{Lossless: opts.Lossless, Quality: quality}); err != nil {
			return nil, errors.Wrap(err, "failed to encode webp")
		}
	case PNG, JPEG, BMP, TIFF:
		quality := opts.JPEGQuality
		if quality <= 0 {
			quality = 95
		}
		if err := imaging.Encode(&out, img, imagingFormat[format], imaging.JPEGQuality(quality)); err != nil {
			return nil, errors.Wrapf(err, "failed to encode %s", format)
		}
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", format)
	}
	return out.Bytes(), nil
}

// EncodeFile encodes buf in the container implied by path and writes it.
func EncodeFile(path string, buf *images.PixelBuffer, opts EncodeOptions) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Encode(buf, format, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

var imagingFormat = map[Format]imaging.Format{
	PNG:  imaging.PNG,
	JPEG: imaging.JPEG,
	BMP:  imaging.BMP,
	TIFF: imaging.TIFF,
}
