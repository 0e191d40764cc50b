//go:build cgo && !nolibraw

package libraw

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/rawdec/engine"
)

func TestEngine(t *testing.T) {
	e := New()
	assert.NotEmpty(t, e.Version())
	assert.Equal(t, "Out of order call of libraw function", e.StrError(engine.OutOfOrderCall))

	c, st := e.NewContext()
	require.Equal(t, engine.Success, st)
	defer c.Close()

	assert.Equal(t, engine.FileUnsupported, c.OpenBuffer([]byte("this is not a raw photo, just some bytes")))
	assert.False(t, c.Unpack().OK())
}

// LIBRAW_SAMPLE points to a real RAW file for an end-to-end check.
func TestEngine_sample(t *testing.T) {
	path := os.Getenv("LIBRAW_SAMPLE")
	if path == "" {
		t.Skip("LIBRAW_SAMPLE is not set")
	}

	c, st := New().NewContext()
	require.Equal(t, engine.Success, st)
	defer c.Close()

	require.Equal(t, engine.Success, c.OpenFile(path))
	require.Equal(t, engine.Success, c.Unpack())

	p := c.Params()
	p.HalfSize = true
	c.SetParams(p)
	require.Equal(t, engine.Success, c.Process())

	img, st := c.MakeImage()
	require.Equal(t, engine.Success, st)
	defer img.Release()

	hdr := img.Header()
	assert.Equal(t, engine.ImageBitmap, hdr.Type)
	assert.Equal(t, hdr.Width*hdr.Height*hdr.Colors*hdr.Bits/8, hdr.DataSize)
	assert.NotEmpty(t, c.ImageInfo().Make)
}
