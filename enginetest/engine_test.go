package enginetest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/rawdec/engine"
)

func smallFixture() Fixture {
	return Fixture{
		Make:   "Test",
		Model:  "Bayer",
		Width:  16,
		Height: 12,
		Seed:   1,
	}
}

func openContext(t *testing.T, e *Engine, f Fixture) engine.Context {
	t.Helper()

	c, st := e.NewContext()
	require.Equal(t, engine.Success, st)
	require.Equal(t, engine.Success, c.OpenBuffer(MustEncode(f)))
	t.Cleanup(c.Close)

	return c
}

func TestDecode(t *testing.T) {
	data := MustEncode(SampleCR2())

	fx, st := decode(data)
	require.Equal(t, engine.Success, st)
	assert.Equal(t, "Canon", fx.Make)
	assert.Equal(t, 5202, fx.Width)
	assert.Equal(t, 3, fx.Colors)
	assert.Equal(t, RGGB, fx.Filters)

	for name, tc := range map[string]struct {
		data []byte
		want engine.Status
	}{
		"short":     {data: []byte("RAW"), want: engine.FileUnsupported},
		"magic":     {data: append([]byte("JFIFJFIF"), data[len(Magic):]...), want: engine.FileUnsupported},
		"truncated": {data: data[:len(data)-5], want: engine.DataError},
		"yaml":      {data: append([]byte(Magic+"\x00\x00\x00\x08"), "make: [\n"...), want: engine.DataError},
		"invalid":   {data: append([]byte(Magic+"\x00\x00\x00\x0c"), "make: Canon\n"...), want: engine.FileUnsupported},
	} {
		t.Run(name, func(t *testing.T) {
			_, st := decode(tc.data)
			assert.Equal(t, tc.want, st)
		})
	}
}

func TestEncode_invalid(t *testing.T) {
	f := smallFixture()
	f.Colors = 4
	_, err := Encode(f)
	assert.Error(t, err)

	f = smallFixture()
	f.Thumbnail = &ThumbnailFixture{Format: "png", Width: 1, Height: 1}
	_, err = Encode(f)
	assert.Error(t, err)

	assert.Panics(t, func() { MustEncode(Fixture{}) })
}

func TestFilterColor(t *testing.T) {
	assert.Equal(t, 0, filterColor(RGGB, 0, 0))
	assert.Equal(t, 1, filterColor(RGGB, 0, 1))
	assert.Equal(t, 1, filterColor(RGGB, 1, 0))
	assert.Equal(t, 2, filterColor(RGGB, 1, 1))
	assert.Equal(t, 2, filterColor(RGGB, 3, 5))
}

func TestContext_stageOrder(t *testing.T) {
	e := New()
	c := openContext(t, e, smallFixture())

	assert.Equal(t, engine.OutOfOrderCall, c.Raw2Image())
	assert.Equal(t, engine.OutOfOrderCall, c.Process())
	_, st := c.MakeImage()
	assert.Equal(t, engine.OutOfOrderCall, st)

	require.Equal(t, engine.Success, c.Unpack())
	_, st = c.MakeImage()
	assert.Equal(t, engine.OutOfOrderCall, st)

	require.Equal(t, engine.Success, c.Process())
	img, st := c.MakeImage()
	require.Equal(t, engine.Success, st)
	assert.Equal(t, 1, e.LiveImages())

	hdr := img.Header()
	assert.Equal(t, engine.ImageBitmap, hdr.Type)
	assert.Equal(t, 16*12*3, hdr.DataSize)
	assert.Len(t, img.Data(), hdr.DataSize)

	img.Release()
	assert.Equal(t, 0, e.LiveImages())
	assert.Panics(t, img.Release)
}

func TestContext_noThumbnail(t *testing.T) {
	c := openContext(t, New(), smallFixture())

	assert.Equal(t, engine.NoThumbnail, c.UnpackThumb())
	_, st := c.MakeThumb()
	assert.Equal(t, engine.OutOfOrderCall, st)
}

func TestContext_thumbnailCopies(t *testing.T) {
	f := smallFixture()
	f.Thumbnail = &ThumbnailFixture{Format: "jpegxl", Width: 8, Height: 8, Length: 64}
	e := New()
	c := openContext(t, e, f)

	require.Equal(t, engine.Success, c.UnpackThumb())
	assert.Equal(t, engine.ThumbnailInfo{Format: engine.ThumbnailJPEGXL, Width: 8, Height: 8, Length: 64, Colors: 3}, c.ThumbnailInfo())

	a, st := c.MakeThumb()
	require.Equal(t, engine.Success, st)
	b, st := c.MakeThumb()
	require.Equal(t, engine.Success, st)
	assert.Equal(t, engine.ImageJPEGXL, a.Header().Type)
	assert.True(t, bytes.HasPrefix(a.Data(), jxlSignature))
	assert.Equal(t, a.Data(), b.Data())

	a.Release()
	assert.True(t, bytes.HasPrefix(b.Data(), jxlSignature))
	b.Release()
	assert.Equal(t, 0, e.LiveImages())
}

func TestContext_injectedFailure(t *testing.T) {
	f := smallFixture()
	f.Fail = map[string]int{"process": int(engine.InsufficientMemory)}
	c := openContext(t, New(), f)

	require.Equal(t, engine.Success, c.Unpack())
	assert.Equal(t, engine.InsufficientMemory, c.Process())
}

func TestContext_closed(t *testing.T) {
	e := New()
	c, _ := e.NewContext()
	require.Equal(t, engine.Success, c.OpenBuffer(MustEncode(smallFixture())))
	assert.Equal(t, 1, e.LiveContexts())

	c.Close()
	c.Close()
	assert.Equal(t, 0, e.LiveContexts())
	assert.Equal(t, 1, e.CreatedContexts())
	assert.Equal(t, engine.InputClosed, c.Unpack())
	assert.Equal(t, engine.InputClosed, c.OpenBuffer(MustEncode(smallFixture())))
}

func TestRender_deterministic(t *testing.T) {
	f := smallFixture()
	require.NoError(t, f.normalize())
	p := engine.DefaultParams()

	a := renderBitmap(&f, p)
	b := renderBitmap(&f, p)
	assert.Equal(t, a.data, b.data)

	f.Seed++
	c := renderBitmap(&f, p)
	assert.NotEqual(t, a.data, c.data)
}

func TestRender_geometry(t *testing.T) {
	f := smallFixture()
	f.Flip = 6
	require.NoError(t, f.normalize())

	p := engine.DefaultParams()
	img := renderBitmap(&f, p)
	assert.Equal(t, 12, img.hdr.Width)
	assert.Equal(t, 16, img.hdr.Height)

	p.UserFlip = 0
	p.HalfSize = true
	p.OutputBPS = 16
	img = renderBitmap(&f, p)
	assert.Equal(t, 8, img.hdr.Width)
	assert.Equal(t, 6, img.hdr.Height)
	assert.Equal(t, 16, img.hdr.Bits)
	assert.Equal(t, 8*6*3*2, img.hdr.DataSize)
}

func TestStrError(t *testing.T) {
	e := New()
	assert.Equal(t, "Out of order call of libraw function", e.StrError(engine.OutOfOrderCall))
	assert.Equal(t, "Unknown error code", e.StrError(-12345))
	assert.Equal(t, Version, e.Version())
}
