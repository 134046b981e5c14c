package colorfx

import "math"

// ThemeFilter is the CSS filter string applied to exports in dark theme when the
// raster context supports filters. ApplyInvertFilter is the per-pixel equivalent.
const ThemeFilter = "invert(100%) hue-rotate(180deg) saturate(1.25)"

const (
	darkHueRotation   = 180
	darkSaturateCoeff = 1.25
)

// Invert returns 255 - channel for every channel.
func Invert(c RGB) RGB {
	return RGB{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B}
}

// HueRotate rotates the hue by deg degrees (mod 360).
func HueRotate(c RGB, deg float64) RGB {
	hsl := RGBToHSL(c)
	hsl.H = math.Mod(hsl.H+deg, 360)
	if hsl.H < 0 {
		hsl.H += 360
	}
	return HSLToRGB(hsl)
}

// Saturate multiplies saturation by coeff, capped at 1.
func Saturate(c RGB, coeff float64) RGB {
	hsl := RGBToHSL(c)
	hsl.S = min(1, hsl.S*coeff)
	return HSLToRGB(hsl)
}

// DarkModePixel runs one pixel through invert, hue-rotate(180) and saturate(1.25).
func DarkModePixel(c RGB) RGB {
	return Saturate(HueRotate(Invert(c), darkHueRotation), darkSaturateCoeff)
}

// ApplyInvertFilter transforms an RGBA pixel buffer in place. Alpha bytes are
// left untouched; a trailing partial pixel is ignored.
func ApplyInvertFilter(pix []uint8) {
	for i := 0; i+3 < len(pix); i += 4 {
		out := DarkModePixel(RGB{R: pix[i], G: pix[i+1], B: pix[i+2]})
		pix[i] = out.R
		pix[i+1] = out.G
		pix[i+2] = out.B
	}
}
