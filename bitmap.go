package rawdec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"runtime"

	"github.com/vearutop/rawdec/engine"
)

// Bitmap is an uncompressed image held in engine memory.
//
// Pixels are interleaved, Colors samples per pixel, Bits per sample. 16-bit
// samples are in host byte order. The pixel bytes are only reachable inside
// View or as copies, so nothing can read engine memory after Release.
type Bitmap struct {
	img engine.ProcessedImage
	hdr engine.ImageHeader
}

// newBitmap takes ownership of pi. A header that disagrees with the payload
// size comes from a damaged source, pi is released and ok is false.
func newBitmap(pi engine.ProcessedImage) (b *Bitmap, ok bool) {
	hdr := pi.Header()
	if hdr.Width <= 0 || hdr.Height <= 0 || hdr.Colors <= 0 || hdr.Bits%8 != 0 ||
		hdr.DataSize != hdr.Width*hdr.Height*hdr.Colors*hdr.Bits/8 || len(pi.Data()) < hdr.DataSize {
		pi.Release()
		return nil, false
	}

	b = &Bitmap{img: pi, hdr: hdr}
	runtime.SetFinalizer(b, (*Bitmap).Release)
	return b, true
}

func (b *Bitmap) isImage() {}

// Type implements Image.
func (b *Bitmap) Type() ImageType { return TypeBitmap }

// Ext implements Image.
func (b *Bitmap) Ext() string { return ".ppm" }

// Width in pixels.
func (b *Bitmap) Width() int { return b.hdr.Width }

// Height in pixels.
func (b *Bitmap) Height() int { return b.hdr.Height }

// Colors is the number of samples per pixel.
func (b *Bitmap) Colors() int { return b.hdr.Colors }

// Bits is the sample depth, 8 or 16.
func (b *Bitmap) Bits() int { return b.hdr.Bits }

// Len is the pixel data size in bytes.
func (b *Bitmap) Len() int { return b.hdr.DataSize }

// Released reports whether the engine memory has been freed.
func (b *Bitmap) Released() bool { return b.img == nil }

// View calls fn with the pixel bytes. The slice must not be retained after fn
// returns.
func (b *Bitmap) View(fn func(pix []byte) error) error {
	if b.img == nil {
		return ErrReleased
	}
	defer runtime.KeepAlive(b)

	n := b.hdr.DataSize
	return fn(b.img.Data()[:n:n])
}

// Bytes returns a copy of the pixel bytes.
func (b *Bitmap) Bytes() ([]byte, error) {
	var out []byte
	err := b.View(func(pix []byte) error {
		out = bytes.Clone(pix)
		return nil
	})
	return out, err
}

// WriteTo writes the pixel bytes to w.
func (b *Bitmap) WriteTo(w io.Writer) (int64, error) {
	var n int
	err := b.View(func(pix []byte) error {
		var err error
		n, err = w.Write(pix)
		return err
	})
	return int64(n), err
}

// Image converts the bitmap into a Go image backed by its own memory:
// *image.Gray, *image.Gray16, *image.RGBA or *image.RGBA64.
func (b *Bitmap) Image() (image.Image, error) {
	var img image.Image
	err := b.View(func(pix []byte) error {
		var err error
		img, err = toImage(pix, b.hdr.Width, b.hdr.Height, b.hdr.Colors, b.hdr.Bits)
		return err
	})
	return img, err
}

// Release frees the engine memory. It is safe to call more than once.
func (b *Bitmap) Release() {
	if b.img == nil {
		return
	}
	runtime.SetFinalizer(b, nil)
	b.img.Release()
	b.img = nil
}

func toImage(pix []byte, w, h, colors, bits int) (image.Image, error) {
	r := image.Rect(0, 0, w, h)
	switch {
	case colors == 1 && bits == 8:
		img := image.NewGray(r)
		copy(img.Pix, pix)
		return img, nil
	case colors == 1 && bits == 16:
		img := image.NewGray16(r)
		for i := 0; i < w*h; i++ {
			binary.BigEndian.PutUint16(img.Pix[i*2:], binary.NativeEndian.Uint16(pix[i*2:]))
		}
		return img, nil
	case colors == 3 && bits == 8:
		img := image.NewRGBA(r)
		for i, j := 0, 0; i < len(pix); i, j = i+3, j+4 {
			img.Pix[j] = pix[i]
			img.Pix[j+1] = pix[i+1]
			img.Pix[j+2] = pix[i+2]
			img.Pix[j+3] = 0xFF
		}
		return img, nil
	case colors == 3 && bits == 16:
		img := image.NewRGBA64(r)
		for i, j := 0, 0; i < len(pix); i, j = i+6, j+8 {
			for c := 0; c < 3; c++ {
				binary.BigEndian.PutUint16(img.Pix[j+c*2:], binary.NativeEndian.Uint16(pix[i+c*2:]))
			}
			img.Pix[j+6] = 0xFF
			img.Pix[j+7] = 0xFF
		}
		return img, nil
	default:
		return nil, fmt.Errorf("unsupported bitmap layout: %d colors, %d bits", colors, bits)
	}
}
