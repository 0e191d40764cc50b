package rawdec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/nfnt/resize"
)

// ErrUnsupportedPreview is returned for previews that cannot be decoded in Go
// (JPEG XL and HEIF).
var ErrUnsupportedPreview = errors.New("rawdec: preview encoding not decodable")

// PreviewOptions controls ResizePreview.
type PreviewOptions struct {
	Quality       int
	Interpolation resize.InterpolationFunction
}

// DecodePreview decodes a JPEG or bitmap preview.
func DecodePreview(img Image) (image.Image, error) {
	switch img := img.(type) {
	case JPEG:
		return img.Decode()
	case *Bitmap:
		return img.Image()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPreview, img.Type())
	}
}

// Thumbnail scales img to fit within maxWidth x maxHeight keeping the aspect
// ratio. Images already within bounds are returned unchanged.
func Thumbnail(img image.Image, maxWidth, maxHeight uint, interp resize.InterpolationFunction) image.Image {
	return resize.Thumbnail(maxWidth, maxHeight, img, interp)
}

// ResizePreview decodes a preview, scales it to fit within maxWidth x
// maxHeight and encodes the result as JPEG.
func ResizePreview(img Image, maxWidth, maxHeight uint, opts ...func(o *PreviewOptions)) ([]byte, error) {
	if maxWidth == 0 || maxHeight == 0 || maxWidth > maxPreviewSide || maxHeight > maxPreviewSide {
		return nil, errors.New("invalid target dimensions")
	}

	opt := PreviewOptions{
		Quality:       defaultPreviewQuality,
		Interpolation: resize.Lanczos3,
	}
	for _, applyOpt := range opts {
		applyOpt(&opt)
	}

	src, err := DecodePreview(img)
	if err != nil {
		return nil, fmt.Errorf("decode preview: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Thumbnail(src, maxWidth, maxHeight, opt.Interpolation), &jpeg.Options{Quality: clampQuality(opt.Quality)}); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), nil
}
