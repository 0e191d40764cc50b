package enginetest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/vearutop/rawdec/engine"
)

var (
	jxlSignature  = []byte{0xFF, 0x0A}
	heifSignature = []byte{
		0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'h', 'e', 'i', 'x',
		0x00, 0x00, 0x00, 0x00, 'm', 'i', 'f', '1', 'h', 'e', 'i', 'x',
	}
)

func (f *Fixture) rawSize() (int, int) {
	return f.LeftMargin + f.Width, f.TopMargin + f.Height
}

// filterColor decodes a packed CFA pattern the way LibRaw's FC macro does.
func filterColor(filters uint32, row, col int) int {
	return int(filters >> ((((row << 1) & 14) | (col & 1)) << 1) & 3)
}

func mix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ x>>30) * 0xbf58476d1ce4e5b9
	x = (x ^ x>>27) * 0x94d049bb133111eb
	return x ^ x>>31
}

// sample returns the 16-bit sensor value at a raw position: a diagonal
// gradient with seeded noise.
func (f *Fixture) sample(rw, rh, row, col int) uint32 {
	g := uint32(row*65535/rh+col*65535/rw) / 2
	n := uint32(mix(f.Seed^uint64(row)<<32^uint64(col)) >> 48)
	return (g*3 + n) / 4
}

func renderBitmap(f *Fixture, p engine.Params) *memImage {
	shrink := 0
	if p.HalfSize {
		shrink = 1
	}
	w := (f.Width + shrink) >> shrink
	h := (f.Height + shrink) >> shrink

	flip := f.Flip
	if p.UserFlip >= 0 {
		flip = p.UserFlip
	}
	ow, oh := w, h
	if flip&4 != 0 {
		ow, oh = h, w
	}

	colors := f.Colors
	bpc := p.OutputBPS / 8
	data := make([]byte, ow*oh*colors*bpc)
	bright := p.Bright
	if bright <= 0 {
		bright = 1
	}
	rw, rh := f.rawSize()

	var px, cnt [3]uint32
	for y := 0; y < h; y++ {
		ry := f.TopMargin + y<<shrink
		for x := 0; x < w; x++ {
			rx := f.LeftMargin + x<<shrink
			px, cnt = [3]uint32{}, [3]uint32{}
			if colors == 1 {
				px[0], cnt[0] = f.sample(rw, rh, ry, rx), 1
			} else {
				cy, cx := ry&^1, rx&^1
				for dy := 0; dy < 2; dy++ {
					yy := min(cy+dy, rh-1)
					for dx := 0; dx < 2; dx++ {
						xx := min(cx+dx, rw-1)
						c := filterColor(f.Filters, yy, xx)
						if c == 3 {
							c = 1
						}
						px[c] += f.sample(rw, rh, yy, xx)
						cnt[c]++
					}
				}
			}

			dx, dy := x, y
			if flip&2 != 0 {
				dy = h - 1 - y
			}
			if flip&1 != 0 {
				dx = w - 1 - x
			}
			if flip&4 != 0 {
				dx, dy = dy, dx
			}
			off := (dy*ow + dx) * colors * bpc
			for c := 0; c < colors; c++ {
				v := float32(px[c]/max(cnt[c], 1)) * bright
				if v > 65535 {
					v = 65535
				}
				if bpc == 1 {
					data[off+c] = uint8(uint32(v) >> 8)
				} else {
					binary.NativeEndian.PutUint16(data[off+c*2:], uint16(v))
				}
			}
		}
	}

	return &memImage{
		hdr: engine.ImageHeader{
			Type:     engine.ImageBitmap,
			Width:    ow,
			Height:   oh,
			Colors:   colors,
			Bits:     p.OutputBPS,
			DataSize: len(data),
		},
		data: data,
	}
}

func gradient(w, h int, seed uint64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	tint := uint8(mix(seed) >> 56)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: tint,
				A: 0xFF,
			})
		}
	}
	return img
}

// payload builds a compressed-looking preview of exactly n bytes.
func payload(n int, signature []byte, seed uint64) []byte {
	data := make([]byte, n)
	copy(data, signature)
	for i := len(signature); i < n; i += 8 {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], mix(seed^uint64(i)))
		copy(data[i:], b[:])
	}
	return data
}

func buildThumbnail(f *Fixture) (*memImage, error) {
	t := f.Thumbnail
	var (
		data []byte
		typ  engine.ImageType
		tf   engine.ThumbnailFormat
	)
	switch t.Format {
	case "jpeg":
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, gradient(t.Width, t.Height, f.Seed), &jpeg.Options{Quality: 85}); err != nil {
			return nil, err
		}
		data, typ, tf = buf.Bytes(), engine.ImageJPEG, engine.ThumbnailJPEG
	case "bitmap":
		img := gradient(t.Width, t.Height, f.Seed)
		data = make([]byte, 0, t.Width*t.Height*3)
		for i := 0; i < len(img.Pix); i += 4 {
			data = append(data, img.Pix[i], img.Pix[i+1], img.Pix[i+2])
		}
		typ, tf = engine.ImageBitmap, engine.ThumbnailBitmap
	case "jpegxl":
		data, typ, tf = payload(t.Length, jxlSignature, f.Seed), engine.ImageJPEGXL, engine.ThumbnailJPEGXL
	case "heif":
		data, typ, tf = payload(t.Length, heifSignature, f.Seed), engine.ImageH265, engine.ThumbnailH265
	}
	if t.ReportType != 0 {
		typ = engine.ImageType(t.ReportType)
	}

	size := len(data)
	if t.ReportSize != 0 {
		size = t.ReportSize
	}

	return &memImage{
		hdr: engine.ImageHeader{
			Type:     typ,
			Width:    t.Width,
			Height:   t.Height,
			Colors:   3,
			Bits:     8,
			DataSize: size,
		},
		info: engine.ThumbnailInfo{
			Format: tf,
			Width:  t.Width,
			Height: t.Height,
			Length: len(data),
			Colors: 3,
		},
		data: data,
	}, nil
}
