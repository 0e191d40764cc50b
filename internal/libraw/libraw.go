//go:build cgo && !nolibraw

// Package libraw binds the LibRaw C library to the engine contract.
package libraw

/*
#cgo pkg-config: libraw
#include <stdlib.h>
#include <libraw/libraw.h>

static unsigned char *processed_data(libraw_processed_image_t *img) {
	return img->data;
}
*/
import "C"

import (
	"time"
	"unsafe"

	"github.com/vearutop/rawdec/engine"
)

// Available reports whether the binding is compiled in.
const Available = true

// Engine is the LibRaw engine.
type Engine struct{}

// New returns the LibRaw engine.
func New() engine.Engine {
	return Engine{}
}

// NewContext implements engine.Engine.
func (Engine) NewContext() (engine.Context, engine.Status) {
	d := C.libraw_init(0)
	if d == nil {
		return nil, engine.InsufficientMemory
	}
	return &context{data: d}, engine.Success
}

// StrError implements engine.Engine.
func (Engine) StrError(code engine.Status) string {
	return C.GoString(C.libraw_strerror(C.int(code)))
}

// Version implements engine.Engine.
func (Engine) Version() string {
	return C.GoString(C.libraw_version())
}

type context struct {
	data *C.libraw_data_t
	// buf holds the C copy of an OpenBuffer source, LibRaw reads from it
	// lazily until the context is closed.
	buf unsafe.Pointer
}

func (c *context) OpenFile(path string) engine.Status {
	cs := C.CString(path)
	defer C.free(unsafe.Pointer(cs))

	return engine.Status(C.libraw_open_file(c.data, cs))
}

func (c *context) OpenBuffer(data []byte) engine.Status {
	if len(data) == 0 {
		return engine.IOError
	}
	c.freeBuffer()
	c.buf = C.CBytes(data)

	return engine.Status(C.libraw_open_buffer(c.data, c.buf, C.size_t(len(data))))
}

func (c *context) Unpack() engine.Status {
	return engine.Status(C.libraw_unpack(c.data))
}

func (c *context) UnpackThumb() engine.Status {
	return engine.Status(C.libraw_unpack_thumb(c.data))
}

func (c *context) Raw2Image() engine.Status {
	return engine.Status(C.libraw_raw2image(c.data))
}

func (c *context) SubtractBlack() engine.Status {
	C.libraw_subtract_black(c.data)
	return engine.Success
}

func (c *context) Process() engine.Status {
	return engine.Status(C.libraw_dcraw_process(c.data))
}

func (c *context) MakeImage() (engine.ProcessedImage, engine.Status) {
	var rc C.int
	return wrapProcessed(C.libraw_dcraw_make_mem_image(c.data, &rc), rc)
}

func (c *context) MakeThumb() (engine.ProcessedImage, engine.Status) {
	var rc C.int
	return wrapProcessed(C.libraw_dcraw_make_mem_thumb(c.data, &rc), rc)
}

func wrapProcessed(img *C.libraw_processed_image_t, rc C.int) (engine.ProcessedImage, engine.Status) {
	if rc != 0 {
		if img != nil {
			C.libraw_dcraw_clear_mem(img)
		}
		return nil, engine.Status(rc)
	}
	if img == nil {
		return nil, engine.InsufficientMemory
	}
	return &processed{img: img}, engine.Success
}

func (c *context) Params() engine.Params {
	p := &c.data.params

	return engine.Params{
		Gamma:           [2]float64{float64(p.gamm[0]), float64(p.gamm[1])},
		UserMul:         [4]float32{float32(p.user_mul[0]), float32(p.user_mul[1]), float32(p.user_mul[2]), float32(p.user_mul[3])},
		Bright:          float32(p.bright),
		Threshold:       float32(p.threshold),
		HalfSize:        p.half_size != 0,
		FourColorRGB:    p.four_color_rgb != 0,
		Highlight:       int(p.highlight),
		UseAutoWB:       p.use_auto_wb != 0,
		UseCameraWB:     p.use_camera_wb != 0,
		UseCameraMatrix: int(p.use_camera_matrix),
		OutputColor:     engine.ColorSpace(p.output_color),
		OutputBPS:       int(p.output_bps),
		UserFlip:        int(p.user_flip),
		Quality:         engine.DemosaicQuality(p.user_qual),
		UserBlack:       int(p.user_black),
		UserSat:         int(p.user_sat),
		MedPasses:       int(p.med_passes),
		NoAutoBright:    p.no_auto_bright != 0,
		AutoBrightThr:   float32(p.auto_bright_thr),
		UseFujiRotate:   int(p.use_fuji_rotate),
		CropBox:         [4]uint32{uint32(p.cropbox[0]), uint32(p.cropbox[1]), uint32(p.cropbox[2]), uint32(p.cropbox[3])},
	}
}

func (c *context) SetParams(v engine.Params) {
	p := &c.data.params

	p.gamm[0] = C.double(v.Gamma[0])
	p.gamm[1] = C.double(v.Gamma[1])
	for i := range v.UserMul {
		p.user_mul[i] = C.float(v.UserMul[i])
	}
	p.bright = C.float(v.Bright)
	p.threshold = C.float(v.Threshold)
	p.half_size = cbool(v.HalfSize)
	p.four_color_rgb = cbool(v.FourColorRGB)
	p.highlight = C.int(v.Highlight)
	p.use_auto_wb = cbool(v.UseAutoWB)
	p.use_camera_wb = cbool(v.UseCameraWB)
	p.use_camera_matrix = C.int(v.UseCameraMatrix)
	p.output_color = C.int(v.OutputColor)
	p.output_bps = C.int(v.OutputBPS)
	p.user_flip = C.int(v.UserFlip)
	p.user_qual = C.int(v.Quality)
	p.user_black = C.int(v.UserBlack)
	p.user_sat = C.int(v.UserSat)
	p.med_passes = C.int(v.MedPasses)
	p.no_auto_bright = cbool(v.NoAutoBright)
	p.auto_bright_thr = C.float(v.AutoBrightThr)
	p.use_fuji_rotate = C.int(v.UseFujiRotate)
	for i := range v.CropBox {
		p.cropbox[i] = C.uint(v.CropBox[i])
	}
}

func (c *context) ImageInfo() engine.ImageInfo {
	id := &c.data.idata

	return engine.ImageInfo{
		Make:            C.GoString(&id.make[0]),
		Model:           C.GoString(&id.model[0]),
		Software:        C.GoString(&id.software[0]),
		NormalizedMake:  C.GoString(&id.normalized_make[0]),
		NormalizedModel: C.GoString(&id.normalized_model[0]),
		RawCount:        int(id.raw_count),
		DNGVersion:      uint32(id.dng_version),
		IsFoveon:        id.is_foveon != 0,
		Colors:          int(id.colors),
		Filters:         uint32(id.filters),
		ColorDesc:       C.GoString(&id.cdesc[0]),
	}
}

func (c *context) Sizes() engine.ImageSizes {
	s := &c.data.sizes

	return engine.ImageSizes{
		RawWidth:    int(s.raw_width),
		RawHeight:   int(s.raw_height),
		Width:       int(s.width),
		Height:      int(s.height),
		TopMargin:   int(s.top_margin),
		LeftMargin:  int(s.left_margin),
		IWidth:      int(s.iwidth),
		IHeight:     int(s.iheight),
		RawPitch:    int(s.raw_pitch),
		PixelAspect: float64(s.pixel_aspect),
		Flip:        int(s.flip),
	}
}

func (c *context) ShotInfo() engine.ShotInfo {
	o := &c.data.other

	si := engine.ShotInfo{
		ISOSpeed:    float32(o.iso_speed),
		Shutter:     float32(o.shutter),
		Aperture:    float32(o.aperture),
		FocalLength: float32(o.focal_len),
		ShotOrder:   uint32(o.shot_order),
		Description: C.GoString(&o.desc[0]),
		Artist:      C.GoString(&o.artist[0]),
	}
	if o.timestamp > 0 {
		si.Timestamp = time.Unix(int64(o.timestamp), 0).UTC()
	}

	return si
}

func (c *context) ThumbnailInfo() engine.ThumbnailInfo {
	t := &c.data.thumbnail

	return engine.ThumbnailInfo{
		Format: engine.ThumbnailFormat(t.tformat),
		Width:  int(t.twidth),
		Height: int(t.theight),
		Length: int(t.tlength),
		Colors: int(t.tcolors),
	}
}

func (c *context) Color(row, col int) int {
	return int(C.libraw_COLOR(c.data, C.int(row), C.int(col)))
}

func (c *context) Close() {
	if c.data != nil {
		C.libraw_close(c.data)
		c.data = nil
	}
	c.freeBuffer()
}

func (c *context) freeBuffer() {
	if c.buf != nil {
		C.free(c.buf)
		c.buf = nil
	}
}

type processed struct {
	img *C.libraw_processed_image_t
}

func (p *processed) Header() engine.ImageHeader {
	return engine.ImageHeader{
		Type:     imageType(p.img._type),
		Width:    int(p.img.width),
		Height:   int(p.img.height),
		Colors:   int(p.img.colors),
		Bits:     int(p.img.bits),
		DataSize: int(p.img.data_size),
	}
}

func (p *processed) Data() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(C.processed_data(p.img))), int(p.img.data_size))
}

func (p *processed) Release() {
	if p.img != nil {
		C.libraw_dcraw_clear_mem(p.img)
		p.img = nil
	}
}

// imageType passes values it does not know through unchanged so that the
// session can detect a binding/library mismatch.
func imageType(t C.enum_LibRaw_image_formats) engine.ImageType {
	switch t {
	case C.LIBRAW_IMAGE_JPEG:
		return engine.ImageJPEG
	case C.LIBRAW_IMAGE_BITMAP:
		return engine.ImageBitmap
	case C.LIBRAW_IMAGE_JPEGXL:
		return engine.ImageJPEGXL
	case C.LIBRAW_IMAGE_H265:
		return engine.ImageH265
	default:
		return engine.ImageType(1000 + int(t))
	}
}

func cbool(b bool) C.int {
	if b {
		return 1
	}
	return 0
}
