package rawdec

import (
	"errors"
	"fmt"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/lmittmann/ppm"
)

// BitmapFormat names an output encoding for bitmaps.
type BitmapFormat string

const (
	FormatTIFF BitmapFormat = "tiff"
	FormatPPM  BitmapFormat = "ppm"
	FormatPNG  BitmapFormat = "png"
	// FormatRaw is the bare interleaved pixel bytes.
	FormatRaw BitmapFormat = "raw"
)

// FormatFromPath picks a bitmap format by file extension.
func FormatFromPath(path string) (BitmapFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return FormatTIFF, nil
	case ".ppm", ".pnm":
		return FormatPPM, nil
	case ".png":
		return FormatPNG, nil
	case ".bin", ".raw":
		return FormatRaw, nil
	default:
		return "", fmt.Errorf("unknown bitmap format for %q", path)
	}
}

// EncodeBitmap writes b to w in format f.
func EncodeBitmap(w io.Writer, b *Bitmap, f BitmapFormat) error {
	switch f {
	case FormatTIFF:
		return EncodeTIFF(w, b)
	case FormatPPM:
		return EncodePPM(w, b)
	case FormatPNG:
		return EncodePNG(w, b)
	case FormatRaw:
		_, err := b.WriteTo(w)
		return err
	default:
		return fmt.Errorf("unsupported bitmap format %q", f)
	}
}

// EncodePPM writes the bitmap as binary PPM.
func EncodePPM(w io.Writer, b *Bitmap) error {
	if b.Colors() != 3 {
		return errors.New("ppm needs 3 color channels")
	}
	img, err := b.Image()
	if err != nil {
		return err
	}
	return ppm.Encode(w, img)
}

// EncodePNG writes the bitmap as PNG.
func EncodePNG(w io.Writer, b *Bitmap) error {
	img, err := b.Image()
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
