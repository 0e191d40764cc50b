package rawdec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"

	"github.com/gen2brain/jpegn"
)

const (
	markerStart = 0xFF
	markerSOI   = 0xD8
	markerEOI   = 0xD9
	markerSOS   = 0xDA
	markerTEM   = 0x01
	markerRST0  = 0xD0
	markerRST7  = 0xD7
)

var errTruncatedJPEG = errors.New("truncated jpeg")

// Decode decodes the preview into an RGBA image, applying the EXIF
// orientation.
func (j JPEG) Decode() (image.Image, error) {
	return jpegn.Decode(bytes.NewReader(j), &jpegn.Options{ToRGBA: true, AutoRotate: true})
}

// Config returns the preview dimensions without decoding pixels.
func (j JPEG) Config() (image.Config, error) {
	return jpegn.DecodeConfig(bytes.NewReader(j))
}

// Validate walks the marker segments from SOI through the first scan to EOI.
// Entropy-coded data is not decoded.
func (j JPEG) Validate() error {
	if len(j) < 2 || j[0] != markerStart || j[1] != markerSOI {
		return errors.New("missing jpeg SOI marker")
	}

	pos, inScan := 2, false
	for {
		i := bytes.IndexByte(j[pos:], markerStart)
		if i < 0 {
			return errTruncatedJPEG
		}
		pos += i + 1
		for pos < len(j) && j[pos] == markerStart {
			pos++
		}
		if pos >= len(j) {
			return errTruncatedJPEG
		}
		m := j[pos]
		pos++

		switch {
		case m == markerEOI:
			return nil
		case m == 0x00 || m == markerTEM || m >= markerRST0 && m <= markerRST7:
			// Stuffing and standalone markers.
		case inScan:
			// Only EOI ends the scan.
		default:
			if pos+2 > len(j) {
				return errTruncatedJPEG
			}
			n := int(binary.BigEndian.Uint16(j[pos:]))
			if n < 2 {
				return fmt.Errorf("invalid length %d of segment 0x%02X", n, m)
			}
			if pos+n > len(j) {
				return errTruncatedJPEG
			}
			pos += n
			inScan = m == markerSOS
		}
	}
}
