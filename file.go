package rawdec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RenderOptions controls RenderFile.
type RenderOptions struct {
	Open []func(o *OpenOptions)
	// Params is applied to the session parameters before rendering.
	Params func(p *OutputParams)
	Format BitmapFormat
}

// RenderFile decodes the RAW file at inPath and writes the rendered bitmap to
// outPath. The format follows the outPath extension unless set in options.
func RenderFile(inPath, outPath string, opts ...func(o *RenderOptions)) error {
	opt := RenderOptions{}
	for _, applyOpt := range opts {
		applyOpt(&opt)
	}
	if opt.Format == "" {
		f, err := FormatFromPath(outPath)
		if err != nil {
			return err
		}
		opt.Format = f
	}

	s, err := OpenFile(filepath.Clean(inPath), opt.Open...)
	if err != nil {
		return err
	}
	defer s.Close()

	if opt.Params != nil {
		s.UpdateParams(opt.Params)
	}
	if err := s.Unpack(); err != nil {
		return err
	}
	bm, err := s.RenderImage()
	if err != nil {
		return err
	}
	defer bm.Release()

	return writeFile(outPath, func(f *os.File) error {
		return EncodeBitmap(f, bm, opt.Format)
	})
}

// ExtractThumbnailFile writes the embedded preview of the RAW file at inPath
// next to outBase, adding the extension of the preview encoding. It returns
// the written path.
func ExtractThumbnailFile(inPath, outBase string, opts ...func(o *OpenOptions)) (string, error) {
	s, err := OpenFile(filepath.Clean(inPath), opts...)
	if err != nil {
		return "", err
	}
	defer s.Close()

	if err := s.UnpackThumbnail(); err != nil {
		return "", err
	}
	img, err := s.RenderThumbnail()
	if err != nil {
		return "", err
	}
	if bm, ok := img.(*Bitmap); ok {
		defer bm.Release()
	}

	out := strings.TrimSuffix(outBase, filepath.Ext(outBase)) + img.Ext()
	if err := writeFile(out, func(f *os.File) error {
		return WriteImage(f, img)
	}); err != nil {
		return "", err
	}
	return out, nil
}

func writeFile(path string, write func(f *os.File) error) (err error) {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			err = errors.Join(fmt.Errorf("write %s: %w", path, err), os.Remove(path))
		}
	}()
	return write(f)
}
