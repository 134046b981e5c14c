package colorfx

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// ErrUnknownColor is returned for strings that are not valid CSS colours.
var ErrUnknownColor = errors.New("unknown color")

// Transparent is the literal CSS keyword for a fully transparent colour.
const Transparent = "transparent"

var functionalAlpha = regexp.MustCompile(`(hsla|rgba)\(`)

// IsTransparent reports whether a background string is syntactically able to
// carry transparency: the keyword, a hex form with an alpha nibble or byte
// ("#RGBA" or "#RRGGBBAA", also the 9-char "#RRGGBBA" typo form) or an
// rgba()/hsla() function. It does not parse the value.
func IsTransparent(s string) bool {
	return s == Transparent ||
		len(s) == 5 ||
		len(s) == 9 ||
		functionalAlpha.MatchString(s)
}

// Parse converts a CSS colour string into a non-premultiplied colour.
// Supported: "transparent", named colours, #rgb, #rgba, #rrggbb, #rrggbbaa,
// rgb()/rgba() and hsl()/hsla().
func Parse(s string) (color.NRGBA, error) {
	str := strings.ToLower(strings.TrimSpace(s))
	switch {
	case str == "":
		return color.NRGBA{}, fmt.Errorf("parse %q: %w", s, ErrUnknownColor)
	case str == Transparent:
		return color.NRGBA{}, nil
	case str[0] == '#':
		return parseHex(str)
	case strings.HasPrefix(str, "rgb"):
		return parseRGBFunc(str)
	case strings.HasPrefix(str, "hsl"):
		return parseHSLFunc(str)
	}

	if c, ok := colornames.Map[str]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}
	return color.NRGBA{}, fmt.Errorf("parse %q: %w", s, ErrUnknownColor)
}

func parseHex(str string) (color.NRGBA, error) {
	digits := str[1:]
	var rgbPart, alphaPart string
	switch len(digits) {
	case 3, 6:
		rgbPart = digits
	case 4:
		rgbPart, alphaPart = digits[:3], strings.Repeat(digits[3:], 2)
	case 8:
		rgbPart, alphaPart = digits[:6], digits[6:]
	default:
		return color.NRGBA{}, fmt.Errorf("parse %q: %w", str, ErrUnknownColor)
	}

	c, err := colorful.Hex("#" + rgbPart)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("parse %q: %w", str, ErrUnknownColor)
	}
	r, g, b := c.RGB255()
	out := color.NRGBA{R: r, G: g, B: b, A: 255}

	if alphaPart != "" {
		a, err := strconv.ParseUint(alphaPart, 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("parse %q: %w", str, ErrUnknownColor)
		}
		out.A = uint8(a)
	}
	return out, nil
}

// functionArgs splits "name(a, b, c / d)" into its numeric arguments.
func functionArgs(str string) ([]string, bool) {
	open := strings.IndexByte(str, '(')
	if open < 0 || !strings.HasSuffix(str, ")") {
		return nil, false
	}
	body := str[open+1 : len(str)-1]
	body = strings.NewReplacer(",", " ", "/", " ").Replace(body)
	args := strings.Fields(body)
	return args, len(args) == 3 || len(args) == 4
}

func parseRGBFunc(str string) (color.NRGBA, error) {
	args, ok := functionArgs(str)
	if !ok {
		return color.NRGBA{}, fmt.Errorf("parse %q: %w", str, ErrUnknownColor)
	}

	var ch [3]uint8
	for i := range 3 {
		v, err := parseChannel(args[i], 255)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("parse %q: %w", str, ErrUnknownColor)
		}
		ch[i] = clamp8(v)
	}

	a := 1.0
	if len(args) == 4 {
		v, err := parseChannel(args[3], 1)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("parse %q: %w", str, ErrUnknownColor)
		}
		a = v
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: clamp8(a * 255)}, nil
}

func parseHSLFunc(str string) (color.NRGBA, error) {
	args, ok := functionArgs(str)
	if !ok {
		return color.NRGBA{}, fmt.Errorf("parse %q: %w", str, ErrUnknownColor)
	}

	h, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "deg"), 64)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("parse %q: %w", str, ErrUnknownColor)
	}
	s, err := parseChannel(args[1], 1)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("parse %q: %w", str, ErrUnknownColor)
	}
	l, err := parseChannel(args[2], 1)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("parse %q: %w", str, ErrUnknownColor)
	}

	a := 1.0
	if len(args) == 4 {
		if a, err = parseChannel(args[3], 1); err != nil {
			return color.NRGBA{}, fmt.Errorf("parse %q: %w", str, ErrUnknownColor)
		}
	}

	h = normalizeHue(h)
	r, g, b := colorful.Hsl(h, min(max(s, 0), 1), min(max(l, 0), 1)).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: clamp8(a * 255)}, nil
}

// parseChannel reads a plain number or a percentage of full.
func parseChannel(arg string, full float64) (float64, error) {
	if pct, ok := strings.CutSuffix(arg, "%"); ok {
		v, err := strconv.ParseFloat(pct, 64)
		if err != nil {
			return 0, err
		}
		return v / 100 * full, nil
	}
	return strconv.ParseFloat(arg, 64)
}

func normalizeHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
