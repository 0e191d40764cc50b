package rawdec_test

import (
	"bytes"
	"image/jpeg"
	"testing"

	"github.com/nfnt/resize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/rawdec"
	"github.com/vearutop/rawdec/enginetest"
)

func thumbnail(t *testing.T, format string, w, h int) rawdec.Image {
	t.Helper()

	f := smallFixture()
	f.Thumbnail = &enginetest.ThumbnailFixture{Format: format, Width: w, Height: h, Length: 256}
	s, _ := open(t, f)
	require.NoError(t, s.UnpackThumbnail())

	img, err := s.RenderThumbnail()
	require.NoError(t, err)
	if bm, ok := img.(*rawdec.Bitmap); ok {
		t.Cleanup(bm.Release)
	}

	return img
}

func TestResizePreview(t *testing.T) {
	for _, format := range []string{"jpeg", "bitmap"} {
		t.Run(format, func(t *testing.T) {
			img := thumbnail(t, format, 160, 120)

			data, err := rawdec.ResizePreview(img, 80, 80, func(o *rawdec.PreviewOptions) {
				o.Quality = 70
				o.Interpolation = resize.Bilinear
			})
			require.NoError(t, err)

			cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, 80, cfg.Width)
			assert.Equal(t, 60, cfg.Height)
		})
	}
}

func TestResizePreview_unsupported(t *testing.T) {
	img := thumbnail(t, "heif", 160, 120)

	_, err := rawdec.ResizePreview(img, 80, 80)
	assert.ErrorIs(t, err, rawdec.ErrUnsupportedPreview)

	_, err = rawdec.ResizePreview(thumbnail(t, "jpeg", 16, 16), 0, 80)
	assert.Error(t, err)
}

func TestThumbnail_withinBounds(t *testing.T) {
	src, err := rawdec.DecodePreview(thumbnail(t, "jpeg", 40, 30))
	require.NoError(t, err)

	out := rawdec.Thumbnail(src, 100, 100, resize.Lanczos3)
	assert.Equal(t, src.Bounds(), out.Bounds())
}
