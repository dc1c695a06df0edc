// Package pixelsort rearranges the pixels of an image along its rows or
// columns. Each scan line is segmented into runs at brightness
// discontinuities and every run is sorted independently by a configurable
// key, which preserves the line's pixel multiset while smearing detail into
// ordered gradients.
package pixelsort

import (
	"fmt"
	"image"
	"image/draw"
	"runtime"
	"sort"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
)

// Axis selects the scan-line direction.
type Axis int

const (
	AxisRows Axis = iota
	AxisColumns
)

func (a Axis) String() string {
	if a == AxisColumns {
		return "columns"
	}
	return "rows"
}

// ParseAxis converts an axis name into an Axis.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "rows", "horizontal", "":
		return AxisRows, nil
	case "columns", "cols", "vertical":
		return AxisColumns, nil
	default:
		return AxisRows, fmt.Errorf("unknown axis %q", s)
	}
}

// Direction selects the sort order inside a run.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Segmenter selects how scan lines are split into runs.
type Segmenter int

const (
	// SegmentDelta starts a new run wherever the absolute key difference
	// between adjacent pixels exceeds the threshold. Threshold 0 yields the
	// finest segmentation, the key maximum yields one run per line.
	SegmentDelta Segmenter = iota
	// SegmentMask treats maximal spans of pixels whose key lies inside
	// [MaskLow, MaskHigh] as runs; out-of-range pixels keep their place.
	SegmentMask
)

// Options configures a sort pass.
type Options struct {
	Axis      Axis
	Key       Key
	Direction Direction
	Segmenter Segmenter
	// MaskLow and MaskHigh bound the sortable key range in SegmentMask mode.
	MaskLow  int
	MaskHigh int
	// Reference anchors KeyPaletteDistance. Nil picks the image's dominant
	// color.
	Reference *colorful.Color
	// Workers caps scan-line parallelism. Zero or negative uses NumCPU.
	Workers int
}

// DefaultOptions returns row-major ascending luminance sorting with delta
// segmentation.
func DefaultOptions() Options {
	return Options{
		Axis:      AxisRows,
		Key:       KeyLuminance,
		Direction: Ascending,
		Segmenter: SegmentDelta,
		MaskLow:   0,
		MaskHigh:  255,
	}
}

// Sort produces a new image of identical dimensions whose scan lines have
// been segmented at the given threshold and sorted run by run. The input is
// never mutated and the same (image, threshold, options) triple always
// yields the same output.
func Sort(img image.Image, threshold int, opt Options) (*image.RGBA, error) {
	maxV := KeyMax(opt.Key)
	if threshold < 0 || threshold > maxV {
		return nil, fmt.Errorf("%w: %d outside [0, %d]", ErrInvalidThreshold, threshold, maxV)
	}
	if opt.Segmenter == SegmentMask {
		if opt.MaskLow < 0 || opt.MaskHigh > maxV || opt.MaskLow > opt.MaskHigh {
			return nil, fmt.Errorf("%w: mask range [%d, %d] outside [0, %d]",
				ErrInvalidThreshold, opt.MaskLow, opt.MaskHigh, maxV)
		}
	}

	out := cloneRGBA(img)
	w := out.Rect.Dx()
	h := out.Rect.Dy()
	if w == 0 || h == 0 {
		return out, nil
	}

	kf := keyFuncFor(opt.Key, referenceColor(img, opt))
	keys := keyPlane(out, kf)

	lines, length := h, w
	if opt.Axis == AxisColumns {
		lines, length = w, h
	}

	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, lines)

	// Scan lines are independent: each task reads and writes a disjoint
	// span of the output buffer, keyed off the original (unsorted) key
	// plane.
	pool := pond.NewPool(workers)
	defer pool.StopAndWait()
	group := pool.NewGroup()
	for li := 0; li < lines; li++ {
		li := li
		group.Submit(func() {
			start, stride := lineGeometry(opt.Axis, li, w)
			sortLine(out.Pix, keys, start, stride, length, float64(threshold), opt)
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// cloneRGBA copies any image into a freshly allocated RGBA grid anchored at
// the origin.
func cloneRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Rect, img, b.Min, draw.Src)
	return out
}

func keyPlane(img *image.RGBA, kf keyFunc) []float64 {
	n := img.Rect.Dx() * img.Rect.Dy()
	keys := make([]float64, n)
	for i := 0; i < n; i++ {
		off := i * 4
		keys[i] = kf(img.Pix[off], img.Pix[off+1], img.Pix[off+2])
	}
	return keys
}

func referenceColor(img image.Image, opt Options) colorful.Color {
	if opt.Key != KeyPaletteDistance {
		return colorful.Color{}
	}
	if opt.Reference != nil {
		return *opt.Reference
	}
	c, _ := colorful.MakeColor(dominantcolor.Find(img))
	return c
}

func lineGeometry(axis Axis, line, width int) (start, stride int) {
	if axis == AxisColumns {
		return line, width
	}
	return line * width, 1
}

// segment returns the sortable [start, end) index intervals of one scan
// line, measured in line positions. Delta segmentation covers the whole
// line; mask segmentation may leave gaps.
func segment(keys []float64, start, stride, n int, threshold float64, opt Options) [][2]int {
	var runs [][2]int
	if opt.Segmenter == SegmentMask {
		lo, hi := float64(opt.MaskLow), float64(opt.MaskHigh)
		runStart := -1
		for i := 0; i < n; i++ {
			in := keys[start+i*stride] >= lo && keys[start+i*stride] <= hi
			switch {
			case in && runStart < 0:
				runStart = i
			case !in && runStart >= 0:
				runs = append(runs, [2]int{runStart, i})
				runStart = -1
			}
		}
		if runStart >= 0 {
			runs = append(runs, [2]int{runStart, n})
		}
		return runs
	}

	runStart := 0
	for i := 1; i < n; i++ {
		d := keys[start+i*stride] - keys[start+(i-1)*stride]
		if d < 0 {
			d = -d
		}
		if d > threshold {
			runs = append(runs, [2]int{runStart, i})
			runStart = i
		}
	}
	return append(runs, [2]int{runStart, n})
}

type runPixel struct {
	key        float64
	r, g, b, a uint8
}

func sortLine(pix []uint8, keys []float64, start, stride, n int, threshold float64, opt Options) {
	scratch := make([]runPixel, 0, n)
	for _, run := range segment(keys, start, stride, n, threshold, opt) {
		scratch = sortRun(pix, keys, start, stride, run[0], run[1], opt.Direction, scratch)
	}
}

// sortRun stably reorders the pixels at line positions [lo, hi) by key.
// The key plane is left untouched so later runs still segment against the
// original line.
func sortRun(pix []uint8, keys []float64, start, stride, lo, hi int, dir Direction, scratch []runPixel) []runPixel {
	if hi-lo < 2 {
		return scratch
	}
	run := scratch[:0]
	for i := lo; i < hi; i++ {
		idx := start + i*stride
		off := idx * 4
		run = append(run, runPixel{keys[idx], pix[off], pix[off+1], pix[off+2], pix[off+3]})
	}
	sort.SliceStable(run, func(a, b int) bool {
		if dir == Descending {
			return run[a].key > run[b].key
		}
		return run[a].key < run[b].key
	})
	for i, p := range run {
		off := (start + (lo+i)*stride) * 4
		pix[off], pix[off+1], pix[off+2], pix[off+3] = p.r, p.g, p.b, p.a
	}
	return run
}
