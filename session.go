package rawdec

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vearutop/rawdec/engine"
	"github.com/vearutop/rawdec/internal/libraw"
)

// DefaultEngine is used by sessions opened without OpenOptions.Engine.
var DefaultEngine = libraw.New()

// OpenOptions controls session creation.
type OpenOptions struct {
	Engine engine.Engine
	Logger logrus.FieldLogger
	// Params replaces the engine's default output parameters right after open.
	Params *OutputParams
}

type stage uint8

const (
	stageUnpacked stage = 1 << iota
	stageThumbUnpacked
	stageProcessed
)

// Session is one open RAW source and its engine context.
//
// Stages run in order: open, Unpack, optionally UnpackThumbnail, then
// RenderImage or RenderThumbnail. A Session is not safe for concurrent use,
// run one Session per goroutine instead.
type Session struct {
	id    string
	eng   engine.Engine
	ctx   engine.Context
	log   logrus.FieldLogger
	done  stage
	dirty bool
}

// OpenFile opens a RAW file.
func OpenFile(path string, opts ...func(o *OpenOptions)) (*Session, error) {
	return open(func(c engine.Context) engine.Status {
		return c.OpenFile(path)
	}, logrus.Fields{"path": path}, opts)
}

// OpenBuffer opens a RAW source held in memory. data is not retained after
// OpenBuffer returns.
func OpenBuffer(data []byte, opts ...func(o *OpenOptions)) (*Session, error) {
	return open(func(c engine.Context) engine.Status {
		return c.OpenBuffer(data)
	}, logrus.Fields{"size": len(data)}, opts)
}

// OpenReader reads r to the end and opens the result with OpenBuffer.
func OpenReader(r io.Reader, opts ...func(o *OpenOptions)) (*Session, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return OpenBuffer(data, opts...)
}

func open(src func(c engine.Context) engine.Status, fields logrus.Fields, opts []func(o *OpenOptions)) (*Session, error) {
	o := OpenOptions{}
	for _, applyOpt := range opts {
		applyOpt(&o)
	}
	if o.Engine == nil {
		o.Engine = DefaultEngine
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}

	id := uuid.NewString()
	log := o.Logger.WithField("session", id)
	start := time.Now()

	ctx, st := o.Engine.NewContext()
	if !st.OK() {
		err := newDecodeError(o.Engine, OpOpen, callInit, st)
		log.WithFields(fields).WithField("code", int(st)).Debug(err.Error())
		return nil, err
	}
	if st := src(ctx); !st.OK() {
		ctx.Close()
		err := newDecodeError(o.Engine, OpOpen, callOpen, st)
		log.WithFields(fields).WithField("code", int(st)).Debug(err.Error())
		return nil, err
	}
	if o.Params != nil {
		ctx.SetParams(*o.Params)
	}

	s := &Session{
		id:  id,
		eng: o.Engine,
		ctx: ctx,
		log: log,
	}
	runtime.SetFinalizer(s, (*Session).finalize)

	info := ctx.ImageInfo()
	log.WithFields(fields).WithFields(logrus.Fields{
		"make":    info.Make,
		"model":   info.Model,
		"elapsed": time.Since(start),
	}).Debug("opened")

	return s, nil
}

// ID identifies the session in log records.
func (s *Session) ID() string {
	return s.id
}

// EngineVersion reports the version of the decoding engine.
func (s *Session) EngineVersion() string {
	return s.eng.Version()
}

func (s *Session) has(st stage) bool {
	return s.done&st != 0
}

func (s *Session) fail(op Op, call string, code engine.Status) error {
	err := newDecodeError(s.eng, op, call, code)
	s.log.WithFields(logrus.Fields{"op": call, "code": int(code)}).Debug(err.Error())
	return err
}

// check rejects calls on a closed session, then calls made before the stage
// in need has completed.
func (s *Session) check(op Op, call string, need stage) error {
	if s.ctx == nil {
		return s.fail(op, call, engine.InputClosed)
	}
	if need != 0 && !s.has(need) {
		return s.fail(op, call, engine.OutOfOrderCall)
	}
	return nil
}

// run invokes one engine stage after check.
func (s *Session) run(op Op, call string, need stage, fn func(c engine.Context) engine.Status) error {
	if err := s.check(op, call, need); err != nil {
		return err
	}
	defer runtime.KeepAlive(s)

	start := time.Now()
	if st := fn(s.ctx); !st.OK() {
		return s.fail(op, call, st)
	}
	s.log.WithFields(logrus.Fields{"op": call, "elapsed": time.Since(start)}).Debug("stage done")
	return nil
}

// Unpack decodes the raw sensor data. A session unpacks once, later calls
// fail with an out-of-order DecodeError.
func (s *Session) Unpack() error {
	if s.ctx != nil && s.has(stageUnpacked) {
		return s.fail(OpUnpack, callUnpack, engine.OutOfOrderCall)
	}
	if err := s.run(OpUnpack, callUnpack, 0, engine.Context.Unpack); err != nil {
		return err
	}
	s.done |= stageUnpacked
	s.done &^= stageProcessed
	return nil
}

// UnpackThumbnail decodes the embedded preview. It does not depend on Unpack.
func (s *Session) UnpackThumbnail() error {
	if s.ctx != nil && s.has(stageThumbUnpacked) {
		return s.fail(OpThumbnail, callUnpackThumb, engine.OutOfOrderCall)
	}
	if err := s.run(OpThumbnail, callUnpackThumb, 0, engine.Context.UnpackThumb); err != nil {
		return err
	}
	s.done |= stageThumbUnpacked
	return nil
}

// Raw2Image copies unpacked sensor data into the engine's image buffer.
func (s *Session) Raw2Image() error {
	if err := s.run(OpUnpack, callRaw2Image, stageUnpacked, engine.Context.Raw2Image); err != nil {
		return err
	}
	s.done &^= stageProcessed
	return nil
}

// SubtractBlack subtracts the black level from the engine's image buffer.
func (s *Session) SubtractBlack() error {
	if err := s.run(OpUnpack, callSubtractBlack, stageUnpacked, engine.Context.SubtractBlack); err != nil {
		return err
	}
	s.done &^= stageProcessed
	return nil
}

// Process demosaics the unpacked image with the current output parameters.
// RenderImage calls it when needed.
func (s *Session) Process() error {
	if err := s.run(OpRender, callProcess, stageUnpacked, engine.Context.Process); err != nil {
		s.done &^= stageProcessed
		return err
	}
	s.done |= stageProcessed
	s.dirty = false
	return nil
}

// RenderImage demosaics the unpacked image and returns it as a Bitmap. The
// caller owns the Bitmap and should Release it.
func (s *Session) RenderImage() (*Bitmap, error) {
	if err := s.check(OpRender, callMakeImage, stageUnpacked); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(s)

	if !s.has(stageProcessed) || s.dirty {
		if err := s.Process(); err != nil {
			return nil, err
		}
	}

	pi, st := s.ctx.MakeImage()
	if !st.OK() {
		return nil, s.fail(OpRender, callMakeImage, st)
	}
	if t := pi.Header().Type; t != engine.ImageBitmap {
		pi.Release()
		panic(fmt.Sprintf("rawdec: engine rendered %s image, bitmap expected", t))
	}
	bm, ok := newBitmap(pi)
	if !ok {
		return nil, s.fail(OpRender, callMakeImage, engine.DataError)
	}
	s.log.WithFields(logrus.Fields{
		"op":     callMakeImage,
		"width":  bm.Width(),
		"height": bm.Height(),
		"bits":   bm.Bits(),
	}).Debug("rendered")

	return bm, nil
}

// RenderThumbnail returns the embedded preview unpacked by UnpackThumbnail.
// The concrete type depends on the preview encoding, see Image.
func (s *Session) RenderThumbnail() (Image, error) {
	if err := s.check(OpRender, callMakeThumb, stageThumbUnpacked); err != nil {
		return nil, err
	}
	defer runtime.KeepAlive(s)

	pi, st := s.ctx.MakeThumb()
	if !st.OK() {
		return nil, s.fail(OpRender, callMakeThumb, st)
	}
	img, ok := wrapImage(pi)
	if !ok {
		return nil, s.fail(OpRender, callMakeThumb, engine.DataError)
	}
	s.log.WithFields(logrus.Fields{
		"op":     callMakeThumb,
		"type":   img.Type().String(),
		"length": img.Len(),
	}).Debug("rendered")

	return img, nil
}

// Color returns the color filter channel of the visible pixel at row, col.
//
// It panics when called before Unpack or after Close, or when row, col lies
// outside the visible area.
func (s *Session) Color(row, col int) int {
	if s.ctx == nil || !s.has(stageUnpacked) {
		panic("rawdec: Color called without unpacked data")
	}
	defer runtime.KeepAlive(s)

	sz := s.ctx.Sizes()
	if row < 0 || col < 0 || row >= sz.Height || col >= sz.Width {
		panic(fmt.Sprintf("rawdec: Color(%d, %d) outside %dx%d image", row, col, sz.Width, sz.Height))
	}
	return s.ctx.Color(row, col)
}

// snapshot reads from the engine context and keeps s reachable until the read
// returns, so the finalizer cannot close the context mid-call. Closed
// sessions yield the zero value.
func snapshot[T any](s *Session, read func(c engine.Context) T) T {
	var v T
	if s.ctx == nil {
		return v
	}
	v = read(s.ctx)
	runtime.KeepAlive(s)
	return v
}

// Params returns a copy of the output parameters.
func (s *Session) Params() OutputParams {
	return snapshot(s, engine.Context.Params)
}

// SetParams replaces the output parameters. Already rendered bitmaps are not
// affected, the next RenderImage processes the image again.
func (s *Session) SetParams(p OutputParams) {
	if s.ctx == nil {
		return
	}
	defer runtime.KeepAlive(s)

	s.ctx.SetParams(p)
	s.dirty = true
}

// UpdateParams applies fn to a copy of the output parameters and stores it.
func (s *Session) UpdateParams(fn func(p *OutputParams)) {
	p := s.Params()
	fn(&p)
	s.SetParams(p)
}

// ImageInfo returns camera and sensor metadata.
func (s *Session) ImageInfo() ImageInfo {
	return snapshot(s, engine.Context.ImageInfo)
}

// Sizes returns the frame geometry.
func (s *Session) Sizes() ImageSizes {
	return snapshot(s, engine.Context.Sizes)
}

// ShotInfo returns exposure metadata.
func (s *Session) ShotInfo() ShotInfo {
	return snapshot(s, engine.Context.ShotInfo)
}

// ThumbnailInfo describes the preview. ok is false until UnpackThumbnail
// succeeds.
func (s *Session) ThumbnailInfo() (info ThumbnailInfo, ok bool) {
	if s.ctx == nil || !s.has(stageThumbUnpacked) {
		return ThumbnailInfo{}, false
	}
	return snapshot(s, engine.Context.ThumbnailInfo), true
}

// Metadata collects all metadata snapshots.
func (s *Session) Metadata() Metadata {
	m := Metadata{
		Engine: s.EngineVersion(),
		Image:  s.ImageInfo(),
		Sizes:  s.Sizes(),
		Shot:   s.ShotInfo(),
	}
	if ti, ok := s.ThumbnailInfo(); ok {
		m.Thumbnail = &ti
	}
	return m
}

// Close destroys the engine context. Bitmaps rendered earlier stay valid
// until released. Close is idempotent.
func (s *Session) Close() error {
	if s.ctx == nil {
		return nil
	}
	runtime.SetFinalizer(s, nil)
	s.ctx.Close()
	s.ctx = nil
	s.log.Debug("closed")
	return nil
}

func (s *Session) finalize() {
	if s.ctx != nil {
		s.log.Warn("session collected without Close")
		s.ctx.Close()
		s.ctx = nil
	}
}
