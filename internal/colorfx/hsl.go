// Package colorfx holds the colour math used by the renderer: the dark-mode
// image inversion pipeline and CSS colour parsing for fill and background styles.
package colorfx

import "math"

// RGB is an 8-bit-per-channel colour without alpha.
type RGB struct {
	R, G, B uint8
}

// HSL holds hue in degrees [0, 360), saturation and lightness in [0, 1].
type HSL struct {
	H, S, L float64
}

// RGBToHSL converts using the standard formulas: lightness is the mid-range,
// saturation branches on lightness, hue uses the channel-order mod-6 form.
func RGBToHSL(c RGB) HSL {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	hi := max(r, g, b)
	lo := min(r, g, b)
	l := (hi + lo) / 2

	if hi == lo {
		return HSL{H: 0, S: 0, L: l}
	}

	d := hi - lo
	var s float64
	if l > 0.5 {
		s = d / (2 - hi - lo)
	} else {
		s = d / (hi + lo)
	}

	var h float64
	switch hi {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}

	return HSL{H: h / 6 * 360, S: s, L: l}
}

// HSLToRGB converts back to 8-bit RGB, rounding each channel to the nearest integer.
func HSLToRGB(c HSL) RGB {
	h := c.H / 360

	var r, g, b float64
	if c.S == 0 {
		r, g, b = c.L, c.L, c.L
	} else {
		var q float64
		if c.L < 0.5 {
			q = c.L * (1 + c.S)
		} else {
			q = c.L + c.S - c.L*c.S
		}
		p := 2*c.L - q

		r = hueToRGB(p, q, h+1.0/3)
		g = hueToRGB(p, q, h)
		b = hueToRGB(p, q, h-1.0/3)
	}

	return RGB{R: to8(r), G: to8(g), B: to8(b)}
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}

func to8(v float64) uint8 {
	n := math.Round(v * 255)
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}
