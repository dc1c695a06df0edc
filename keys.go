package pixelsort

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Key selects the per-pixel scalar used both for run segmentation and for
// ordering pixels inside a run.
type Key int

const (
	// KeyLuminance orders by BT.709 luma of the sRGB channels.
	KeyLuminance Key = iota
	// KeyHue orders by HSL hue in degrees.
	KeyHue
	// KeySaturation orders by HSL saturation scaled to 0-255.
	KeySaturation
	// KeyPaletteDistance orders by Lab distance to a reference color,
	// scaled to 0-255. The reference defaults to the image's dominant
	// color.
	KeyPaletteDistance
)

func (k Key) String() string {
	switch k {
	case KeyHue:
		return "hue"
	case KeySaturation:
		return "saturation"
	case KeyPaletteDistance:
		return "palette"
	default:
		return "luminance"
	}
}

// ParseKey converts a key name into a Key.
func ParseKey(s string) (Key, error) {
	switch s {
	case "luminance", "luma", "":
		return KeyLuminance, nil
	case "hue":
		return KeyHue, nil
	case "saturation", "sat":
		return KeySaturation, nil
	case "palette", "palette-distance":
		return KeyPaletteDistance, nil
	default:
		return KeyLuminance, fmt.Errorf("unknown sort key %q", s)
	}
}

// KeyMax returns the upper bound of the key's value domain. Hue runs 0-360,
// every other key 0-255.
func KeyMax(k Key) int {
	if k == KeyHue {
		return 360
	}
	return 255
}

type keyFunc func(r, g, b uint8) float64

func keyFuncFor(k Key, ref colorful.Color) keyFunc {
	switch k {
	case KeyHue:
		return func(r, g, b uint8) float64 {
			h, _, _ := rgbColor(r, g, b).Hsl()
			return h
		}
	case KeySaturation:
		return func(r, g, b uint8) float64 {
			_, s, _ := rgbColor(r, g, b).Hsl()
			return s * 255
		}
	case KeyPaletteDistance:
		return func(r, g, b uint8) float64 {
			return min(255, rgbColor(r, g, b).DistanceLab(ref)*255)
		}
	default:
		return func(r, g, b uint8) float64 {
			// Clamped so adjacent deltas never exceed the key domain.
			return min(255, 0.2126*float64(r)+0.7152*float64(g)+0.0722*float64(b))
		}
	}
}

func rgbColor(r, g, b uint8) colorful.Color {
	return colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}
}
