package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vearutop/rawdec"
	"golang.org/x/sync/errgroup"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	setupLogging()

	var err error
	switch os.Args[1] {
	case "info":
		err = runInfo(os.Args[2:])
	case "render":
		err = runRender(os.Args[2:])
	case "thumb":
		err = runThumb(os.Args[2:])
	case "batch":
		err = runBatch(os.Args[2:])
	case "version":
		fmt.Fprintln(os.Stdout, rawdec.DefaultEngine.Version())
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: rawtool <command> [args]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  info   -in photo.cr2")
	fmt.Fprintln(os.Stderr, "  render -in photo.cr2 -out photo.tiff [-params p.yaml] [-bps 8|16] [-half] [-quality ahd]")
	fmt.Fprintln(os.Stderr, "  thumb  -in photo.cr2 -out preview [-w 1600 -h 1200] [-q 85]")
	fmt.Fprintln(os.Stderr, "  batch  -out dir [-j 4] photo1.cr2 photo2.nef ...")
	fmt.Fprintln(os.Stderr, "  version")
	fmt.Fprintln(os.Stderr, "Set LOG_LEVEL=debug or pass -v before the command for stage logs.")
}

func setupLogging() {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	level := logrus.WarnLevel
	if s := os.Getenv("LOG_LEVEL"); s != "" {
		if l, err := logrus.ParseLevel(s); err == nil {
			level = l
		}
	}
	if os.Args[1] == "-v" {
		level = logrus.DebugLevel
		os.Args = append(os.Args[:1], os.Args[2:]...)
		if len(os.Args) < 2 {
			usage()
			os.Exit(2)
		}
	}
	logrus.SetLevel(level)
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	inPath := fs.String("in", "", "input RAW file")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" {
		return errors.New("missing required arguments")
	}

	s, err := rawdec.OpenFile(filepath.Clean(*inPath))
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.UnpackThumbnail(); err != nil && !errors.Is(err, rawdec.ErrNoThumbnail) {
		logrus.WithError(err).Warn("thumbnail unavailable")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(s.Metadata())
}

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	inPath := fs.String("in", "", "input RAW file")
	outPath := fs.String("out", "", "output bitmap (.tiff, .ppm, .png, .bin)")
	paramsPath := fs.String("params", "", "YAML output parameters")
	bps := fs.Int("bps", 0, "bits per sample, 8 or 16")
	half := fs.Bool("half", false, "half-size output")
	quality := fs.String("quality", "", "demosaic algorithm (linear, vng, ppg, ahd, dcb, dht, aahd)")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" || *outPath == "" {
		return errors.New("missing required arguments")
	}

	params := rawdec.DefaultParams()
	if *paramsPath != "" {
		var err error
		if params, err = rawdec.LoadParams(filepath.Clean(*paramsPath), params); err != nil {
			return err
		}
	}
	if *bps != 0 {
		params.OutputBPS = *bps
	}
	if *half {
		params.HalfSize = true
	}
	if *quality != "" {
		if err := params.Quality.UnmarshalText([]byte(*quality)); err != nil {
			return err
		}
	}
	if err := rawdec.ValidateParams(params); err != nil {
		return err
	}

	return rawdec.RenderFile(*inPath, *outPath, func(o *rawdec.RenderOptions) {
		o.Params = func(p *rawdec.OutputParams) { *p = params }
	})
}

func runThumb(args []string) error {
	fs := flag.NewFlagSet("thumb", flag.ContinueOnError)
	inPath := fs.String("in", "", "input RAW file")
	outPath := fs.String("out", "", "output path, the extension follows the preview encoding")
	width := fs.Uint("w", 0, "max width")
	height := fs.Uint("h", 0, "max height")
	q := fs.Int("q", 85, "JPEG quality of a scaled preview")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inPath == "" || *outPath == "" {
		return errors.New("missing required arguments")
	}
	if *width == 0 && *height == 0 {
		out, err := rawdec.ExtractThumbnailFile(*inPath, *outPath)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, out)
		return nil
	}
	if *width == 0 || *height == 0 {
		return errors.New("both -w and -h are needed for scaling")
	}

	s, err := rawdec.OpenFile(filepath.Clean(*inPath))
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.UnpackThumbnail(); err != nil {
		return err
	}
	img, err := s.RenderThumbnail()
	if err != nil {
		return err
	}
	if bm, ok := img.(*rawdec.Bitmap); ok {
		defer bm.Release()
	}

	data, err := rawdec.ResizePreview(img, *width, *height, func(o *rawdec.PreviewOptions) {
		o.Quality = *q
	})
	if err != nil {
		return err
	}
	out := strings.TrimSuffix(*outPath, filepath.Ext(*outPath)) + ".jpg"
	if err := os.WriteFile(filepath.Clean(out), data, 0o644); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, out)
	return nil
}

func runBatch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	outDir := fs.String("out", "", "output directory")
	jobs := fs.Int("j", runtime.NumCPU(), "concurrent sessions")
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *outDir == "" || fs.NArg() == 0 {
		return errors.New("missing required arguments")
	}
	if err := os.MkdirAll(filepath.Clean(*outDir), 0o755); err != nil {
		return err
	}
	return extractAll(fs.Args(), *outDir, *jobs)
}

// extractAll writes previews of all files, one session per goroutine. Files
// without a preview are reported and skipped.
func extractAll(files []string, outDir string, jobs int) error {
	g := errgroup.Group{}
	g.SetLimit(max(jobs, 1))

	for _, in := range files {
		g.Go(func() error {
			base := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)))
			out, err := rawdec.ExtractThumbnailFile(in, base)
			if errors.Is(err, rawdec.ErrNoThumbnail) {
				logrus.WithField("path", in).Warn("no thumbnail")
				return nil
			}
			if err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}
			logrus.WithFields(logrus.Fields{"path": in, "out": out}).Info("extracted")
			return nil
		})
	}
	return g.Wait()
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
