// Package engine defines the contract between rawdec sessions and the
// underlying RAW decoding engine.
//
// The engine owns all container parsing, sensor decoding and demosaicing.
// Every stage call reports a Status; a zero Status is success.
package engine

// Engine creates decoding contexts and renders status codes as text.
type Engine interface {
	// NewContext allocates a fresh decoding context.
	NewContext() (Context, Status)
	// StrError returns the engine's description of a status code.
	StrError(code Status) string
	// Version reports the engine library version.
	Version() string
}

// Context is the opaque per-source decoding state.
//
// A Context is not safe for concurrent use.
type Context interface {
	OpenFile(path string) Status
	// OpenBuffer ingests a complete in-memory source. Implementations must
	// not retain data after the call returns.
	OpenBuffer(data []byte) Status

	Unpack() Status
	UnpackThumb() Status
	Raw2Image() Status
	SubtractBlack() Status
	// Process demosaics and color-converts the unpacked image.
	Process() Status

	// MakeImage renders the processed image into a new engine allocation.
	MakeImage() (ProcessedImage, Status)
	// MakeThumb renders the unpacked preview into a new engine allocation.
	MakeThumb() (ProcessedImage, Status)

	Params() Params
	SetParams(p Params)
	ImageInfo() ImageInfo
	Sizes() ImageSizes
	ShotInfo() ShotInfo
	ThumbnailInfo() ThumbnailInfo

	// Color returns the color filter channel of a visible-area pixel.
	Color(row, col int) int

	// Close destroys the context and all memory it owns.
	Close()
}

// ProcessedImage is an engine allocation holding a rendered image or preview.
type ProcessedImage interface {
	Header() ImageHeader
	// Data aliases engine memory. It must not be used after Release.
	Data() []byte
	Release()
}

// ImageHeader describes a processed image.
type ImageHeader struct {
	Type     ImageType
	Width    int
	Height   int
	Colors   int
	Bits     int
	DataSize int
}
