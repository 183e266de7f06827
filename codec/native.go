//go:build gocv

package codec

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-enhance/images"
)

func init() {
	nativeDecoder = DecodeNative
}

// DecodeNative decodes data through OpenCV. It accepts every container the
// linked OpenCV build does, which is a superset of Decode for most builds.
//
// Arguments:
// - data: The encoded image.
//
// Returns:
// - The decoded RGB buffer.
// - An error wrapping ErrDecode.
func DecodeNative(data []byte) (*images.PixelBuffer, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, errors.Wrap(ErrDecode, err.Error())
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.Wrap(ErrDecode, "opencv returned an empty matrix")
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	if err := gocv.CvtColor(mat, &rgb, gocv.ColorBGRToRGB); err != nil {
		return nil, errors.Wrap(ErrDecode, err.Error())
	}

	samples, err := rgb.DataPtrUint8()
	if err != nil {
		return nil, errors.Wrap(ErrDecode, err.Error())
	}

	buf, err := images.NewPixelBuffer(rgb.Cols(), rgb.Rows())
	if err != nil {
		return nil, errors.Wrap(ErrDecode, err.Error())
	}
	copy(buf.Samples, samples)
	return buf, nil
}
