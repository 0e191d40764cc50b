package engine_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/rawdec/engine"
)

func TestStatus(t *testing.T) {
	assert.True(t, engine.Success.OK())
	assert.False(t, engine.OutOfOrderCall.OK())

	for _, st := range []engine.Status{engine.InsufficientMemory, engine.DataError, engine.IOError, engine.MempoolOverflow} {
		assert.True(t, st.Fatal(), st.String())
	}
	for _, st := range []engine.Status{engine.Success, engine.FileUnsupported, engine.NoThumbnail, engine.InputClosed} {
		assert.False(t, st.Fatal(), st.String())
	}
	assert.Equal(t, "-100008", engine.DataError.String())
}

func TestImageType_String(t *testing.T) {
	assert.Equal(t, "jpeg", engine.ImageJPEG.String())
	assert.Equal(t, "bitmap", engine.ImageBitmap.String())
	assert.Equal(t, "jpegxl", engine.ImageJPEGXL.String())
	assert.Equal(t, "heif", engine.ImageH265.String())
	assert.Equal(t, "unknown(42)", engine.ImageType(42).String())
}

func TestThumbnailFormat(t *testing.T) {
	f, ok := engine.ParseThumbnailFormat("heif")
	require.True(t, ok)
	assert.Equal(t, engine.ThumbnailH265, f)

	_, ok = engine.ParseThumbnailFormat("webp")
	assert.False(t, ok)

	j, err := json.Marshal(engine.ThumbnailInfo{Format: engine.ThumbnailJPEGXL, Width: 2})
	require.NoError(t, err)
	assert.Contains(t, string(j), `"format":"jpegxl"`)
}

func TestColorSpace_text(t *testing.T) {
	var c engine.ColorSpace
	require.NoError(t, c.UnmarshalText([]byte("prophoto")))
	assert.Equal(t, engine.ColorProPhoto, c)
	require.NoError(t, c.UnmarshalText([]byte("8")))
	assert.Equal(t, engine.ColorRec2020, c)
	assert.Error(t, c.UnmarshalText([]byte("9")))
	assert.Error(t, c.UnmarshalText([]byte("cmyk")))

	b, err := engine.ColorAdobe.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "adobe", string(b))
}

func TestDemosaicQuality_text(t *testing.T) {
	var q engine.DemosaicQuality
	require.NoError(t, q.UnmarshalText([]byte("dcb")))
	assert.Equal(t, engine.QualityDCB, q)
	require.NoError(t, q.UnmarshalText([]byte("-1")))
	assert.Equal(t, engine.QualityDefault, q)
	assert.Error(t, q.UnmarshalText([]byte("best")))
	assert.Equal(t, "aahd", engine.QualityAAHD.String())
	assert.Equal(t, "7", engine.DemosaicQuality(7).String())
}

func TestDefaultParams(t *testing.T) {
	p := engine.DefaultParams()

	assert.Equal(t, [2]float64{0.45, 4.5}, p.Gamma)
	assert.Equal(t, 8, p.OutputBPS)
	assert.Equal(t, -1, p.UserFlip)
	assert.Equal(t, engine.ColorSRGB, p.OutputColor)
	assert.Equal(t, engine.QualityDefault, p.Quality)
	assert.Equal(t, [4]uint32{0, 0, ^uint32(0), ^uint32(0)}, p.CropBox)
}
