package enginetest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vearutop/rawdec/engine"
	"gopkg.in/yaml.v3"
)

// Magic starts every fixture container.
const Magic = "RAWFIXT1"

const headerSize = len(Magic) + 4

// Fixture describes a synthetic RAW source. Sensor samples are generated from
// Seed, so containers stay small regardless of the declared geometry.
type Fixture struct {
	Make       string `yaml:"make"`
	Model      string `yaml:"model"`
	Software   string `yaml:"software,omitempty"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	TopMargin  int    `yaml:"top_margin,omitempty"`
	LeftMargin int    `yaml:"left_margin,omitempty"`
	// Colors is 3 for CFA sensors and 1 for monochrome ones.
	Colors    int       `yaml:"colors,omitempty"`
	Filters   uint32    `yaml:"filters,omitempty"`
	ColorDesc string    `yaml:"color_desc,omitempty"`
	Flip      int       `yaml:"flip,omitempty"`
	ISO       float32   `yaml:"iso,omitempty"`
	Shutter   float32   `yaml:"shutter,omitempty"`
	Aperture  float32   `yaml:"aperture,omitempty"`
	Focal     float32   `yaml:"focal,omitempty"`
	Taken     time.Time `yaml:"taken,omitempty"`
	Artist    string    `yaml:"artist,omitempty"`
	Seed      uint64    `yaml:"seed"`

	Thumbnail *ThumbnailFixture `yaml:"thumbnail,omitempty"`

	// Fail injects a status for a stage: open, unpack, thumbnail, raw2image,
	// process, render, render_thumbnail.
	Fail map[string]int `yaml:"fail,omitempty"`
}

// ThumbnailFixture describes the embedded preview.
type ThumbnailFixture struct {
	// Format is one of jpeg, bitmap, jpegxl, heif.
	Format string `yaml:"format"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	// Length is the payload size for jpegxl and heif previews. JPEG previews
	// are real encoded images and bitmap sizes follow from the geometry.
	Length int `yaml:"length,omitempty"`
	// ReportType overrides the image type tag reported by MakeThumb.
	ReportType int `yaml:"report_type,omitempty"`
	// ReportSize overrides the data size reported by MakeThumb, as a damaged
	// thumbnail length field would.
	ReportSize int `yaml:"report_size,omitempty"`
}

// RGGB is the packed CFA pattern of an RGGB Bayer sensor.
const RGGB uint32 = 0x94949494

// SampleCR2 is a Canon fixture with a JPEG preview.
func SampleCR2() Fixture {
	return Fixture{
		Make:       "Canon",
		Model:      "EOS 5D Mark III",
		Width:      5202,
		Height:     3464,
		TopMargin:  52,
		LeftMargin: 158,
		ISO:        100,
		Shutter:    1.0 / 125,
		Aperture:   8,
		Focal:      35,
		Taken:      time.Date(2021, 7, 27, 10, 30, 0, 0, time.UTC),
		Seed:       5202,
		Thumbnail:  &ThumbnailFixture{Format: "jpeg", Width: 160, Height: 120},
	}
}

// SampleCR3 is a Canon fixture with a HEIF preview.
func SampleCR3() Fixture {
	return Fixture{
		Make:      "Canon",
		Model:     "EOS R5",
		Width:     1024,
		Height:    683,
		Seed:      3,
		Thumbnail: &ThumbnailFixture{Format: "heif", Width: 1620, Height: 1080, Length: 739784},
	}
}

func (f *Fixture) normalize() error {
	if f.Make == "" {
		return errors.New("make missing")
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid geometry %dx%d", f.Width, f.Height)
	}
	if f.TopMargin < 0 || f.LeftMargin < 0 {
		return errors.New("negative margins")
	}
	if f.Colors == 0 {
		f.Colors = 3
	}
	if f.Colors != 1 && f.Colors != 3 {
		return fmt.Errorf("unsupported color count %d", f.Colors)
	}
	if f.Colors == 3 && f.Filters == 0 {
		f.Filters = RGGB
	}
	if f.Colors == 1 {
		f.Filters = 0
	}
	if f.ColorDesc == "" {
		f.ColorDesc = "RGBG"
	}
	if t := f.Thumbnail; t != nil {
		if t.Width <= 0 || t.Height <= 0 {
			return fmt.Errorf("invalid thumbnail geometry %dx%d", t.Width, t.Height)
		}
		switch t.Format {
		case "jpeg", "bitmap":
		case "jpegxl", "heif":
			if t.Length < 16 {
				return fmt.Errorf("thumbnail length %d too small", t.Length)
			}
		default:
			return fmt.Errorf("unknown thumbnail format %q", t.Format)
		}
	}
	return nil
}

func (f *Fixture) failure(stage string) engine.Status {
	if code, ok := f.Fail[stage]; ok {
		return engine.Status(code)
	}
	return engine.Success
}

// Encode serializes a fixture into a container.
func Encode(f Fixture) ([]byte, error) {
	if err := f.normalize(); err != nil {
		return nil, err
	}
	hdr, err := yaml.Marshal(f)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(headerSize + len(hdr))
	buf.WriteString(Magic)
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(hdr)))
	buf.Write(hdr)
	return buf.Bytes(), nil
}

// MustEncode is Encode that panics on invalid fixtures.
func MustEncode(f Fixture) []byte {
	data, err := Encode(f)
	if err != nil {
		panic(err)
	}
	return data
}

// WriteFile encodes f into dir/name and returns the path.
func WriteFile(dir, name string, f Fixture) (string, error) {
	data, err := Encode(f)
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", err
	}
	return p, nil
}

// decode parses a container, reporting statuses the way LibRaw does for
// unknown and damaged sources.
func decode(data []byte) (*Fixture, engine.Status) {
	if len(data) < headerSize || string(data[:len(Magic)]) != Magic {
		return nil, engine.FileUnsupported
	}
	n := int(binary.BigEndian.Uint32(data[len(Magic):headerSize]))
	if n > len(data)-headerSize {
		return nil, engine.DataError
	}
	var f Fixture
	if err := yaml.Unmarshal(data[headerSize:headerSize+n], &f); err != nil {
		return nil, engine.DataError
	}
	if err := f.normalize(); err != nil {
		return nil, engine.FileUnsupported
	}
	return &f, engine.Success
}
