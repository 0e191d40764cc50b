package rawdec_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/rawdec"
	"github.com/vearutop/rawdec/engine"
)

func TestParseParams(t *testing.T) {
	base := rawdec.DefaultParams()

	p, err := rawdec.ParseParams([]byte(`
output_bps: 16
half_size: true
quality: ahd
output_color: adobe
gamma: [1, 1]
user_mul: [2, 1, 1.5, 1]
`), base)
	require.NoError(t, err)

	assert.Equal(t, 16, p.OutputBPS)
	assert.True(t, p.HalfSize)
	assert.Equal(t, engine.QualityAHD, p.Quality)
	assert.Equal(t, engine.ColorAdobe, p.OutputColor)
	assert.Equal(t, [2]float64{1, 1}, p.Gamma)
	assert.Equal(t, [4]float32{2, 1, 1.5, 1}, p.UserMul)

	// Untouched keys keep the base values.
	assert.Equal(t, base.Bright, p.Bright)
	assert.Equal(t, base.UserFlip, p.UserFlip)
	assert.Equal(t, base.CropBox, p.CropBox)
}

func TestParseParams_numericEnums(t *testing.T) {
	p, err := rawdec.ParseParams([]byte("quality: 11\noutput_color: 4\n"), rawdec.DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, engine.QualityDHT, p.Quality)
	assert.Equal(t, engine.ColorProPhoto, p.OutputColor)
}

func TestParseParams_empty(t *testing.T) {
	base := rawdec.DefaultParams()
	p, err := rawdec.ParseParams([]byte("  \n"), base)
	require.NoError(t, err)
	assert.Equal(t, base, p)
}

func TestParseParams_invalid(t *testing.T) {
	base := rawdec.DefaultParams()

	for name, data := range map[string]string{
		"unknown key": "output_bits: 16\n",
		"bad enum":    "quality: sharpest\n",
		"bad color":   "output_color: cmyk\n",
		"bad bps":     "output_bps: 12\n",
		"bad flip":    "user_flip: 9\n",
		"not yaml":    "output_bps: [\n",
	} {
		t.Run(name, func(t *testing.T) {
			p, err := rawdec.ParseParams([]byte(data), base)
			assert.Error(t, err)
			assert.Equal(t, base, p)
		})
	}
}

func TestLoadParams(t *testing.T) {
	p := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(p, []byte("bright: 1.5\nno_auto_bright: true\n"), 0o600))

	params, err := rawdec.LoadParams(p, rawdec.DefaultParams())
	require.NoError(t, err)
	assert.InDelta(t, 1.5, params.Bright, 1e-6)
	assert.True(t, params.NoAutoBright)

	_, err = rawdec.LoadParams(p+".missing", rawdec.DefaultParams())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateParams(t *testing.T) {
	require.NoError(t, rawdec.ValidateParams(rawdec.DefaultParams()))

	p := rawdec.DefaultParams()
	p.Highlight = 10
	p.Bright = 0
	err := rawdec.ValidateParams(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "highlight")
	assert.Contains(t, err.Error(), "bright")
}
