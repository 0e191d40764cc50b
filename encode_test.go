package rawdec_test

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/lmittmann/ppm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/rawdec"
	"github.com/vearutop/rawdec/enginetest"
	"golang.org/x/image/tiff"
)

func render(t *testing.T, f enginetest.Fixture, bps int) *rawdec.Bitmap {
	t.Helper()

	p := rawdec.DefaultParams()
	p.OutputBPS = bps
	s, _ := open(t, f, func(o *rawdec.OpenOptions) { o.Params = &p })
	require.NoError(t, s.Unpack())

	bm, err := s.RenderImage()
	require.NoError(t, err)
	t.Cleanup(bm.Release)

	return bm
}

func TestEncodeBitmap(t *testing.T) {
	bm := render(t, smallFixture(), 8)

	t.Run("tiff", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, rawdec.EncodeBitmap(&buf, bm, rawdec.FormatTIFF))
		img, err := tiff.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, 64, img.Bounds().Dx())
		assert.Equal(t, 48, img.Bounds().Dy())
	})

	t.Run("ppm", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, rawdec.EncodeBitmap(&buf, bm, rawdec.FormatPPM))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("P6")))
		img, err := ppm.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, 64, img.Bounds().Dx())
	})

	t.Run("png", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, rawdec.EncodeBitmap(&buf, bm, rawdec.FormatPNG))
		img, err := png.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, 48, img.Bounds().Dy())

		src, err := bm.Image()
		require.NoError(t, err)
		assert.Equal(t, src.At(10, 20), img.At(10, 20))
	})

	t.Run("raw", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, rawdec.EncodeBitmap(&buf, bm, rawdec.FormatRaw))
		pix, err := bm.Bytes()
		require.NoError(t, err)
		assert.Equal(t, pix, buf.Bytes())
	})

	assert.Error(t, rawdec.EncodeBitmap(&bytes.Buffer{}, bm, "gif"))
}

func TestEncodeTIFF_16bit(t *testing.T) {
	bm := render(t, smallFixture(), 16)

	var buf bytes.Buffer
	require.NoError(t, rawdec.EncodeTIFF(&buf, bm))
	img, err := tiff.Decode(&buf)
	require.NoError(t, err)

	src, err := bm.Image()
	require.NoError(t, err)
	r1, g1, b1, _ := src.At(7, 9).RGBA()
	r2, g2, b2, _ := img.At(7, 9).RGBA()
	assert.Equal(t, []uint32{r1, g1, b1}, []uint32{r2, g2, b2})
}

func TestEncodePPM_mono(t *testing.T) {
	f := smallFixture()
	f.Colors = 1
	bm := render(t, f, 8)

	assert.Error(t, rawdec.EncodePPM(&bytes.Buffer{}, bm))
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]rawdec.BitmapFormat{
		"a.tif":      rawdec.FormatTIFF,
		"b.TIFF":     rawdec.FormatTIFF,
		"c/d.ppm":    rawdec.FormatPPM,
		"e.png":      rawdec.FormatPNG,
		"f.bin":      rawdec.FormatRaw,
		"/tmp/g.raw": rawdec.FormatRaw,
		"h.pnm":      rawdec.FormatPPM,
	} {
		got, err := rawdec.FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := rawdec.FormatFromPath("x.jpg")
	assert.Error(t, err)
}

func TestWriteImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, rawdec.WriteImage(&buf, rawdec.HEIF("ftypheix")))
	assert.Equal(t, "ftypheix", buf.String())

	buf.Reset()
	bm := render(t, smallFixture(), 8)
	require.NoError(t, rawdec.WriteImage(&buf, bm))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("P6")))
}
