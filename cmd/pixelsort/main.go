// Command pixelsort sorts the pixels of an image along its rows or columns.
//
// Single image:
//
//	pixelsort -t 60 -key luminance picture.png
//
// Mask-range mode (sort only pixels whose key falls inside the range):
//
//	pixelsort -lo 40 -hi 180 picture.png
//
// Threshold sweep from a YAML config, one frame per threshold:
//
//	pixelsort -sweep sweep.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/porterlabs/pixelsort"
	"github.com/porterlabs/pixelsort/sweep"
	"github.com/porterlabs/pixelsort/utils"
)

var (
	flagThreshold = flag.Int("t", 60, "delta threshold between adjacent pixels")
	flagAuto      = flag.Bool("auto", false, "pick the threshold with Otsu's method")
	flagKey       = flag.String("key", "luminance", "sort key: luminance, hue, saturation, palette")
	flagAxis      = flag.String("axis", "rows", "scan axis: rows or columns")
	flagDesc      = flag.Bool("desc", false, "sort descending")
	flagLo        = flag.Int("lo", -1, "mask mode: lower key bound")
	flagHi        = flag.Int("hi", -1, "mask mode: upper key bound")
	flagOut       = flag.String("o", "", "output path (default sorted-<input name>)")
	flagSweep     = flag.String("sweep", "", "run a threshold sweep from a YAML config")
	flagPalOut    = flag.String("palette-out", "", "also save the input's palette strip here")
	flagPalK      = flag.Int("palette-k", 5, "palette strip size")
	flagPalMethod = flag.String("palette-method", "dominant", "palette method: dominant or kmeans")
	flagVerbose   = flag.Bool("v", false, "debug logging")
)

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *flagVerbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("pixelsort failed", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	if *flagSweep != "" {
		cfg, err := sweep.LoadConfig(*flagSweep)
		if err != nil {
			return err
		}
		return sweep.Run(context.Background(), cfg, log)
	}

	if flag.NArg() != 1 {
		flag.Usage()
		return fmt.Errorf("expected exactly one input image, got %d", flag.NArg())
	}
	input := flag.Arg(0)

	opt, err := buildOptions()
	if err != nil {
		return err
	}
	img, err := utils.ReadImage(input)
	if err != nil {
		return err
	}

	threshold := *flagThreshold
	if *flagAuto {
		threshold = pixelsort.AutoThreshold(img, opt.Key)
		log.Info("auto threshold", "key", opt.Key.String(), "threshold", threshold)
	}
	if opt.Key == pixelsort.KeyPaletteDistance {
		ref := utils.DominantColor(img)
		opt.Reference = &ref
		log.Debug("palette reference", "color", ref.Hex())
	}

	sorted, err := pixelsort.Sort(img, threshold, opt)
	if err != nil {
		return err
	}

	out := *flagOut
	if out == "" {
		out = filepath.Join(filepath.Dir(input), "sorted-"+filepath.Base(input))
	}
	if err := utils.SaveImage(sorted, out); err != nil {
		return err
	}
	log.Info("image sorted", "input", input, "output", out, "threshold", threshold)

	if *flagPalOut != "" {
		method, err := utils.ParsePaletteMethod(*flagPalMethod)
		if err != nil {
			return err
		}
		palette := utils.ExtractPalette(img, *flagPalK, method)
		utils.SortPaletteByBrightness(palette)
		if err := utils.SavePalette(palette, 64, *flagPalOut); err != nil {
			return err
		}
		log.Info("palette saved", "output", *flagPalOut, "colors", len(palette), "method", method.String())
	}
	return nil
}

func buildOptions() (pixelsort.Options, error) {
	opt := pixelsort.DefaultOptions()

	axis, err := pixelsort.ParseAxis(*flagAxis)
	if err != nil {
		return opt, err
	}
	key, err := pixelsort.ParseKey(*flagKey)
	if err != nil {
		return opt, err
	}
	opt.Axis = axis
	opt.Key = key
	if *flagDesc {
		opt.Direction = pixelsort.Descending
	}

	if *flagLo >= 0 || *flagHi >= 0 {
		opt.Segmenter = pixelsort.SegmentMask
		opt.MaskLow = max(*flagLo, 0)
		opt.MaskHigh = pixelsort.KeyMax(key)
		if *flagHi >= 0 {
			opt.MaskHigh = *flagHi
		}
	}
	return opt, nil
}
