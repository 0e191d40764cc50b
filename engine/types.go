package engine

import (
	"fmt"
	"strconv"
	"time"
)

// Params controls demosaic and rendering, mirroring libraw_output_params_t.
type Params struct {
	// Gamma holds the power and toe slope of the output curve.
	Gamma     [2]float64 `yaml:"gamma" json:"gamma"`
	UserMul   [4]float32 `yaml:"user_mul" json:"user_mul"`
	Bright    float32    `yaml:"bright" json:"bright"`
	Threshold float32    `yaml:"threshold" json:"threshold"`
	HalfSize  bool       `yaml:"half_size" json:"half_size"`
	// FourColorRGB interpolates RGGB as four colors.
	FourColorRGB bool `yaml:"four_color_rgb" json:"four_color_rgb"`
	// Highlight is 0 clip, 1 unclip, 2 blend, 3..9 rebuild.
	Highlight       int        `yaml:"highlight" json:"highlight"`
	UseAutoWB       bool       `yaml:"use_auto_wb" json:"use_auto_wb"`
	UseCameraWB     bool       `yaml:"use_camera_wb" json:"use_camera_wb"`
	UseCameraMatrix int        `yaml:"use_camera_matrix" json:"use_camera_matrix"`
	OutputColor     ColorSpace `yaml:"output_color" json:"output_color"`
	// OutputBPS is 8 or 16.
	OutputBPS     int             `yaml:"output_bps" json:"output_bps"`
	UserFlip      int             `yaml:"user_flip" json:"user_flip"`
	Quality       DemosaicQuality `yaml:"quality" json:"quality"`
	UserBlack     int             `yaml:"user_black" json:"user_black"`
	UserSat       int             `yaml:"user_sat" json:"user_sat"`
	MedPasses     int             `yaml:"med_passes" json:"med_passes"`
	NoAutoBright  bool            `yaml:"no_auto_bright" json:"no_auto_bright"`
	AutoBrightThr float32         `yaml:"auto_bright_thr" json:"auto_bright_thr"`
	UseFujiRotate int             `yaml:"use_fuji_rotate" json:"use_fuji_rotate"`
	CropBox       [4]uint32       `yaml:"crop_box" json:"crop_box"`
}

// DefaultParams returns LibRaw's initial output parameters.
func DefaultParams() Params {
	return Params{
		Gamma:           [2]float64{0.45, 4.5},
		Bright:          1,
		UseCameraMatrix: 1,
		OutputColor:     ColorSRGB,
		OutputBPS:       8,
		UserFlip:        -1,
		Quality:         QualityDefault,
		UserBlack:       -1,
		UserSat:         -1,
		AutoBrightThr:   0.01,
		UseFujiRotate:   1,
		CropBox:         [4]uint32{0, 0, ^uint32(0), ^uint32(0)},
	}
}

// ColorSpace selects the output color space.
type ColorSpace int

const (
	ColorRaw ColorSpace = iota
	ColorSRGB
	ColorAdobe
	ColorWideGamut
	ColorProPhoto
	ColorXYZ
	ColorACES
	ColorDCIP3
	ColorRec2020
)

var colorSpaceNames = []string{"raw", "srgb", "adobe", "wide", "prophoto", "xyz", "aces", "dci-p3", "rec2020"}

func (c ColorSpace) String() string {
	if c >= 0 && int(c) < len(colorSpaceNames) {
		return colorSpaceNames[c]
	}
	return strconv.Itoa(int(c))
}

// MarshalText implements encoding.TextMarshaler.
func (c ColorSpace) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts a color space name or its numeric value.
func (c *ColorSpace) UnmarshalText(b []byte) error {
	s := string(b)
	for i, n := range colorSpaceNames {
		if n == s {
			*c = ColorSpace(i)
			return nil
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 || v >= len(colorSpaceNames) {
		return fmt.Errorf("unknown color space %q", s)
	}
	*c = ColorSpace(v)
	return nil
}

// DemosaicQuality selects the interpolation algorithm.
type DemosaicQuality int

const (
	QualityDefault DemosaicQuality = -1
	QualityLinear  DemosaicQuality = 0
	QualityVNG     DemosaicQuality = 1
	QualityPPG     DemosaicQuality = 2
	QualityAHD     DemosaicQuality = 3
	QualityDCB     DemosaicQuality = 4
	QualityDHT     DemosaicQuality = 11
	QualityAAHD    DemosaicQuality = 12
)

var qualityNames = map[DemosaicQuality]string{
	QualityDefault: "default",
	QualityLinear:  "linear",
	QualityVNG:     "vng",
	QualityPPG:     "ppg",
	QualityAHD:     "ahd",
	QualityDCB:     "dcb",
	QualityDHT:     "dht",
	QualityAAHD:    "aahd",
}

func (q DemosaicQuality) String() string {
	if n, ok := qualityNames[q]; ok {
		return n
	}
	return strconv.Itoa(int(q))
}

// MarshalText implements encoding.TextMarshaler.
func (q DemosaicQuality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalText accepts an algorithm name or its numeric value.
func (q *DemosaicQuality) UnmarshalText(b []byte) error {
	s := string(b)
	for v, n := range qualityNames {
		if n == s {
			*q = v
			return nil
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("unknown demosaic quality %q", s)
	}
	*q = DemosaicQuality(v)
	return nil
}

// ImageInfo mirrors libraw_iparams_t.
type ImageInfo struct {
	Make            string `json:"make"`
	Model           string `json:"model"`
	Software        string `json:"software,omitempty"`
	NormalizedMake  string `json:"normalized_make,omitempty"`
	NormalizedModel string `json:"normalized_model,omitempty"`
	RawCount        int    `json:"raw_count"`
	DNGVersion      uint32 `json:"dng_version,omitempty"`
	IsFoveon        bool   `json:"is_foveon,omitempty"`
	Colors          int    `json:"colors"`
	// Filters is the packed color filter array pattern, 0 for non-CFA sensors.
	Filters uint32 `json:"filters"`
	// ColorDesc names the channels, e.g. "RGBG".
	ColorDesc string `json:"color_desc"`
}

// ImageSizes mirrors libraw_image_sizes_t.
type ImageSizes struct {
	RawWidth    int     `json:"raw_width"`
	RawHeight   int     `json:"raw_height"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	TopMargin   int     `json:"top_margin"`
	LeftMargin  int     `json:"left_margin"`
	IWidth      int     `json:"iwidth"`
	IHeight     int     `json:"iheight"`
	RawPitch    int     `json:"raw_pitch"`
	PixelAspect float64 `json:"pixel_aspect"`
	Flip        int     `json:"flip"`
}

// ShotInfo mirrors libraw_imgother_t.
type ShotInfo struct {
	ISOSpeed    float32   `json:"iso_speed"`
	Shutter     float32   `json:"shutter"`
	Aperture    float32   `json:"aperture"`
	FocalLength float32   `json:"focal_length"`
	Timestamp   time.Time `json:"timestamp"`
	ShotOrder   uint32    `json:"shot_order,omitempty"`
	Description string    `json:"description,omitempty"`
	Artist      string    `json:"artist,omitempty"`
}

// ThumbnailInfo mirrors libraw_thumbnail_t.
type ThumbnailInfo struct {
	Format ThumbnailFormat `json:"format"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Length int             `json:"length"`
	Colors int             `json:"colors"`
}
