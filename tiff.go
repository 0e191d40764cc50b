package rawdec

import (
	"io"

	"golang.org/x/image/tiff"
)

// EncodeTIFF writes the bitmap as a deflate-compressed TIFF. 16-bit bitmaps
// keep their depth.
func EncodeTIFF(w io.Writer, b *Bitmap) error {
	img, err := b.Image()
	if err != nil {
		return err
	}
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}
