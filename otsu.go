package pixelsort

import (
	"image"

	"gonum.org/v1/gonum/floats"
)

const histBins = 256

// AutoThreshold picks a delta-segmentation threshold for the image with
// Otsu's method: the key values are binned into a histogram and the split
// maximizing between-class variance is scaled back into the key's domain.
// Degenerate histograms (empty or single-bin images) fall back to the middle
// of the key range.
func AutoThreshold(img image.Image, key Key) int {
	maxV := KeyMax(key)
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return maxV / 2
	}

	grid := cloneRGBA(img)
	kf := keyFuncFor(key, referenceColor(img, Options{Key: key}))
	hist := make([]float64, histBins)
	for _, v := range keyPlane(grid, kf) {
		bin := int(v * float64(histBins-1) / float64(maxV))
		bin = max(0, min(histBins-1, bin))
		hist[bin]++
	}

	total := floats.Sum(hist)
	floats.Scale(1/total, hist)

	// omega holds cumulative class probability, mu the cumulative mean.
	omega := make([]float64, histBins)
	floats.CumSum(omega, hist)
	weighted := make([]float64, histBins)
	for i := range weighted {
		weighted[i] = float64(i) * hist[i]
	}
	mu := make([]float64, histBins)
	floats.CumSum(mu, weighted)
	muT := mu[histBins-1]

	best, bestVar := -1, 0.0
	for t := 0; t < histBins; t++ {
		w0 := omega[t]
		w1 := 1 - w0
		if w0 <= 0 || w1 <= 0 {
			continue
		}
		m0 := mu[t] / w0
		m1 := (muT - mu[t]) / w1
		v := w0 * w1 * (m0 - m1) * (m0 - m1)
		if v > bestVar {
			bestVar = v
			best = t
		}
	}
	if best < 0 {
		return maxV / 2
	}
	return best * maxV / (histBins - 1)
}
