package rawdec

import "github.com/vearutop/rawdec/engine"

// OutputParams controls demosaic and rendering.
type OutputParams = engine.Params

// ImageInfo describes the camera and sensor.
type ImageInfo = engine.ImageInfo

// ImageSizes describes the raw frame and visible area geometry.
type ImageSizes = engine.ImageSizes

// ShotInfo holds exposure metadata.
type ShotInfo = engine.ShotInfo

// ThumbnailInfo describes the embedded preview.
type ThumbnailInfo = engine.ThumbnailInfo

// ImageType tags the encoding of a rendered image.
type ImageType = engine.ImageType

const (
	TypeJPEG   = engine.ImageJPEG
	TypeBitmap = engine.ImageBitmap
	TypeJPEGXL = engine.ImageJPEGXL
	TypeHEIF   = engine.ImageH265
)

// Metadata bundles the read-only session snapshots.
type Metadata struct {
	Engine    string         `json:"engine"`
	Image     ImageInfo      `json:"image"`
	Sizes     ImageSizes     `json:"sizes"`
	Shot      ShotInfo       `json:"shot"`
	Thumbnail *ThumbnailInfo `json:"thumbnail,omitempty"`
}
