// Package enginetest provides a deterministic pure-Go decoding engine for
// tests of code built on rawdec.
//
// Sources are fixture containers (see Fixture and Encode). The engine follows
// LibRaw's stage ordering and status codes and keeps count of live contexts
// and image allocations so that tests can check release discipline.
package enginetest

import (
	"fmt"
	"os"
	"sync"

	"github.com/vearutop/rawdec/engine"
)

// Version is reported by Engine.Version.
const Version = "enginetest-1.0"

// Engine implements engine.Engine over fixture containers.
type Engine struct {
	mu       sync.Mutex
	contexts int
	images   int
	opened   int
}

// New creates an engine.
func New() *Engine {
	return &Engine{}
}

var _ engine.Engine = (*Engine)(nil)

// NewContext implements engine.Engine.
func (e *Engine) NewContext() (engine.Context, engine.Status) {
	e.mu.Lock()
	e.contexts++
	e.opened++
	e.mu.Unlock()

	return &context{e: e, params: engine.DefaultParams()}, engine.Success
}

// Version implements engine.Engine.
func (e *Engine) Version() string {
	return Version
}

var statusText = map[engine.Status]string{
	engine.Success:                        "No error",
	engine.UnspecifiedError:               "Unspecified error",
	engine.FileUnsupported:                "Unsupported file format or not RAW file",
	engine.RequestForNonexistentImage:     "Request for nonexisting image number",
	engine.OutOfOrderCall:                 "Out of order call of libraw function",
	engine.NoThumbnail:                    "No thumbnail in file",
	engine.UnsupportedThumbnail:           "Unsupported thumbnail format",
	engine.InputClosed:                    "No input stream, or input stream closed",
	engine.NotImplemented:                 "Decoder not implemented for this data format",
	engine.RequestForNonexistentThumbnail: "Request for nonexisting thumbnail number",
	engine.InsufficientMemory:             "Not enough memory",
	engine.DataError:                      "Corrupt data or unexpected EOF",
	engine.IOError:                        "Input/output error",
	engine.CancelledByCallback:            "Cancelled by user callback",
	engine.BadCrop:                        "Bad crop box",
	engine.TooBig:                         "Image too big for processing",
	engine.MempoolOverflow:                "Memory pool overflow",
}

// StrError implements engine.Engine with LibRaw's messages.
func (e *Engine) StrError(code engine.Status) string {
	if s, ok := statusText[code]; ok {
		return s
	}
	return "Unknown error code"
}

// LiveContexts returns the number of contexts not yet closed.
func (e *Engine) LiveContexts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.contexts
}

// LiveImages returns the number of processed images not yet released.
func (e *Engine) LiveImages() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.images
}

// CreatedContexts returns the number of contexts ever created.
func (e *Engine) CreatedContexts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opened
}

func (e *Engine) track(contexts, images int) {
	e.mu.Lock()
	e.contexts += contexts
	e.images += images
	e.mu.Unlock()
}

type context struct {
	e      *Engine
	fx     *Fixture
	params engine.Params

	unpacked      bool
	thumbUnpacked bool
	processed     bool
	closed        bool

	// procParams is the params snapshot taken by Process.
	procParams engine.Params
	thumb      *memImage
}

func (c *context) OpenFile(path string) engine.Status {
	if c.closed {
		return engine.InputClosed
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.IOError
	}
	return c.OpenBuffer(data)
}

func (c *context) OpenBuffer(data []byte) engine.Status {
	if c.closed {
		return engine.InputClosed
	}
	if len(data) == 0 {
		return engine.IOError
	}
	fx, st := decode(data)
	if !st.OK() {
		return st
	}
	if st := fx.failure("open"); !st.OK() {
		return st
	}
	c.fx = fx
	c.unpacked, c.thumbUnpacked, c.processed = false, false, false
	c.thumb = nil
	return engine.Success
}

func (c *context) stage(name string, ready bool) engine.Status {
	if c.closed {
		return engine.InputClosed
	}
	if c.fx == nil || !ready {
		return engine.OutOfOrderCall
	}
	return c.fx.failure(name)
}

func (c *context) Unpack() engine.Status {
	if st := c.stage("unpack", true); !st.OK() {
		return st
	}
	c.unpacked = true
	c.processed = false
	return engine.Success
}

func (c *context) UnpackThumb() engine.Status {
	if st := c.stage("thumbnail", true); !st.OK() {
		return st
	}
	if c.fx.Thumbnail == nil {
		return engine.NoThumbnail
	}
	th, err := buildThumbnail(c.fx)
	if err != nil {
		return engine.UnsupportedThumbnail
	}
	c.thumb = th
	c.thumbUnpacked = true
	return engine.Success
}

func (c *context) Raw2Image() engine.Status {
	return c.stage("raw2image", c.unpacked)
}

func (c *context) SubtractBlack() engine.Status {
	return c.stage("subtract_black", c.unpacked)
}

func (c *context) Process() engine.Status {
	if st := c.stage("process", c.unpacked); !st.OK() {
		return st
	}
	if c.params.OutputBPS != 8 && c.params.OutputBPS != 16 {
		return engine.UnspecifiedError
	}
	c.procParams = c.params
	c.processed = true
	return engine.Success
}

func (c *context) MakeImage() (engine.ProcessedImage, engine.Status) {
	if st := c.stage("render", c.processed); !st.OK() {
		return nil, st
	}
	img := renderBitmap(c.fx, c.procParams)
	c.e.track(0, 1)
	img.e = c.e
	return img, engine.Success
}

func (c *context) MakeThumb() (engine.ProcessedImage, engine.Status) {
	if st := c.stage("render_thumbnail", c.thumbUnpacked); !st.OK() {
		return nil, st
	}
	img := &memImage{
		e:    c.e,
		hdr:  c.thumb.hdr,
		data: append([]byte(nil), c.thumb.data...),
	}
	c.e.track(0, 1)
	return img, engine.Success
}

func (c *context) Params() engine.Params {
	return c.params
}

func (c *context) SetParams(p engine.Params) {
	c.params = p
}

func (c *context) ImageInfo() engine.ImageInfo {
	if c.fx == nil {
		return engine.ImageInfo{}
	}
	return engine.ImageInfo{
		Make:            c.fx.Make,
		Model:           c.fx.Model,
		Software:        c.fx.Software,
		NormalizedMake:  c.fx.Make,
		NormalizedModel: c.fx.Model,
		RawCount:        1,
		Colors:          c.fx.Colors,
		Filters:         c.fx.Filters,
		ColorDesc:       c.fx.ColorDesc,
	}
}

func (c *context) Sizes() engine.ImageSizes {
	if c.fx == nil {
		return engine.ImageSizes{}
	}
	f := c.fx
	rw, rh := f.rawSize()
	return engine.ImageSizes{
		RawWidth:    rw,
		RawHeight:   rh,
		Width:       f.Width,
		Height:      f.Height,
		TopMargin:   f.TopMargin,
		LeftMargin:  f.LeftMargin,
		IWidth:      f.Width,
		IHeight:     f.Height,
		RawPitch:    rw * 2,
		PixelAspect: 1,
		Flip:        f.Flip,
	}
}

func (c *context) ShotInfo() engine.ShotInfo {
	if c.fx == nil {
		return engine.ShotInfo{}
	}
	return engine.ShotInfo{
		ISOSpeed:    c.fx.ISO,
		Shutter:     c.fx.Shutter,
		Aperture:    c.fx.Aperture,
		FocalLength: c.fx.Focal,
		Timestamp:   c.fx.Taken,
		Artist:      c.fx.Artist,
	}
}

func (c *context) ThumbnailInfo() engine.ThumbnailInfo {
	if c.thumb == nil {
		return engine.ThumbnailInfo{}
	}
	return c.thumb.info
}

// Color follows LibRaw: 6 for sensors without a CFA, otherwise the pattern
// index of the margin-adjusted position.
func (c *context) Color(row, col int) int {
	if c.fx == nil || c.fx.Filters == 0 {
		return 6
	}
	return filterColor(c.fx.Filters, row+c.fx.TopMargin, col+c.fx.LeftMargin)
}

func (c *context) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.fx = nil
	c.thumb = nil
	c.e.track(-1, 0)
}

type memImage struct {
	e        *Engine
	hdr      engine.ImageHeader
	info     engine.ThumbnailInfo
	data     []byte
	released bool
}

func (p *memImage) Header() engine.ImageHeader {
	return p.hdr
}

func (p *memImage) Data() []byte {
	return p.data
}

// Release poisons the payload so that reads through a stale view are visible
// in tests.
func (p *memImage) Release() {
	if p.released {
		panic(fmt.Sprintf("enginetest: double release of %s image", p.hdr.Type))
	}
	p.released = true
	for i := range p.data {
		p.data[i] = 0xDD
	}
	p.data = nil
	if p.e != nil {
		p.e.track(0, -1)
	}
}
