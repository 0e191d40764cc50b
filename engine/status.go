package engine

import "strconv"

// Status is an engine return code. Codes follow LibRaw's LibRaw_errors.
type Status int

const (
	Success                        Status = 0
	UnspecifiedError               Status = -1
	FileUnsupported                Status = -2
	RequestForNonexistentImage     Status = -3
	OutOfOrderCall                 Status = -4
	NoThumbnail                    Status = -5
	UnsupportedThumbnail           Status = -6
	InputClosed                    Status = -7
	NotImplemented                 Status = -8
	RequestForNonexistentThumbnail Status = -9
	InsufficientMemory             Status = -100007
	DataError                      Status = -100008
	IOError                        Status = -100009
	CancelledByCallback            Status = -100010
	BadCrop                        Status = -100011
	TooBig                         Status = -100012
	MempoolOverflow                Status = -100013
)

// OK reports whether s is Success.
func (s Status) OK() bool { return s == Success }

// Fatal reports whether the engine considers the context unusable after s.
func (s Status) Fatal() bool { return s < -100000 }

func (s Status) String() string { return strconv.Itoa(int(s)) }

// ImageType tags the encoding of a processed image. Values follow LibRaw's
// LibRaw_image_formats.
type ImageType int

const (
	ImageJPEG   ImageType = 1
	ImageBitmap ImageType = 2
	ImageJPEGXL ImageType = 3
	ImageH265   ImageType = 4
)

func (t ImageType) String() string {
	switch t {
	case ImageJPEG:
		return "jpeg"
	case ImageBitmap:
		return "bitmap"
	case ImageJPEGXL:
		return "jpegxl"
	case ImageH265:
		return "heif"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

// ThumbnailFormat follows LibRaw_thumbnail_formats.
type ThumbnailFormat int

const (
	ThumbnailUnknown  ThumbnailFormat = 0
	ThumbnailJPEG     ThumbnailFormat = 1
	ThumbnailBitmap   ThumbnailFormat = 2
	ThumbnailBitmap16 ThumbnailFormat = 3
	ThumbnailLayer    ThumbnailFormat = 4
	ThumbnailRollei   ThumbnailFormat = 5
	ThumbnailH265     ThumbnailFormat = 6
	ThumbnailJPEGXL   ThumbnailFormat = 7
)

var thumbnailFormatNames = map[ThumbnailFormat]string{
	ThumbnailUnknown:  "unknown",
	ThumbnailJPEG:     "jpeg",
	ThumbnailBitmap:   "bitmap",
	ThumbnailBitmap16: "bitmap16",
	ThumbnailLayer:    "layer",
	ThumbnailRollei:   "rollei",
	ThumbnailH265:     "heif",
	ThumbnailJPEGXL:   "jpegxl",
}

func (f ThumbnailFormat) String() string {
	if n, ok := thumbnailFormatNames[f]; ok {
		return n
	}
	return "unknown(" + strconv.Itoa(int(f)) + ")"
}

// ParseThumbnailFormat is the inverse of ThumbnailFormat.String.
func ParseThumbnailFormat(s string) (ThumbnailFormat, bool) {
	for f, n := range thumbnailFormatNames {
		if n == s {
			return f, true
		}
	}
	return ThumbnailUnknown, false
}

// MarshalText implements encoding.TextMarshaler.
func (f ThumbnailFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}
