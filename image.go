package rawdec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/vearutop/rawdec/engine"
)

// Image is a rendered image or preview. It is one of *Bitmap, JPEG, JPEGXL
// or HEIF; callers switch on the concrete type:
//
//	switch img := img.(type) {
//	case rawdec.JPEG:
//	case *rawdec.Bitmap:
//		defer img.Release()
//	}
type Image interface {
	Type() ImageType
	// Len is the payload size in bytes.
	Len() int
	// Ext is the conventional file extension, with the dot.
	Ext() string

	isImage()
}

// JPEG is a JPEG preview.
type JPEG []byte

// JPEGXL is a JPEG XL preview.
type JPEGXL []byte

// HEIF is an HEIF/H.265 preview.
type HEIF []byte

func (JPEG) isImage()   {}
func (JPEGXL) isImage() {}
func (HEIF) isImage()   {}

func (JPEG) Type() ImageType   { return TypeJPEG }
func (JPEGXL) Type() ImageType { return TypeJPEGXL }
func (HEIF) Type() ImageType   { return TypeHEIF }

func (j JPEG) Len() int   { return len(j) }
func (j JPEGXL) Len() int { return len(j) }
func (h HEIF) Len() int   { return len(h) }

func (JPEG) Ext() string   { return ".jpg" }
func (JPEGXL) Ext() string { return ".jxl" }
func (HEIF) Ext() string   { return ".heic" }

// wrapImage takes ownership of pi. Compressed payloads are copied and pi is
// released before returning. ok is false for a bitmap with an inconsistent
// header. An unknown type tag means the binding and the engine disagree,
// which is not recoverable.
func wrapImage(pi engine.ProcessedImage) (Image, bool) {
	switch t := pi.Header().Type; t {
	case engine.ImageBitmap:
		bm, ok := newBitmap(pi)
		if !ok {
			return nil, false
		}
		return bm, true
	case engine.ImageJPEG:
		return JPEG(copyAndRelease(pi)), true
	case engine.ImageJPEGXL:
		return JPEGXL(copyAndRelease(pi)), true
	case engine.ImageH265:
		return HEIF(copyAndRelease(pi)), true
	default:
		pi.Release()
		panic(fmt.Sprintf("rawdec: engine reported unknown image type %d", int(t)))
	}
}

func copyAndRelease(pi engine.ProcessedImage) []byte {
	defer pi.Release()

	data := pi.Data()
	if n := pi.Header().DataSize; n < len(data) {
		data = data[:n]
	}
	return bytes.Clone(data)
}

// WriteImage writes img to w in its native encoding. Bitmaps are written as
// binary PPM.
func WriteImage(w io.Writer, img Image) error {
	switch img := img.(type) {
	case *Bitmap:
		return EncodePPM(w, img)
	case JPEG:
		_, err := w.Write(img)
		return err
	case JPEGXL:
		_, err := w.Write(img)
		return err
	case HEIF:
		_, err := w.Write(img)
		return err
	default:
		return fmt.Errorf("unexpected image %T", img)
	}
}
