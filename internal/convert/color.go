package convert

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strconv"
	"strings"
)

// FallbackColor is used when no dominant colour can be computed.
const FallbackColor = "#000000"

// Gradient card alphas by decision state.
const (
	AlphaPassed  = 0.06
	AlphaToday   = 0.25
	AlphaPending = 0.2
)

// DominantColor returns the most frequent opaque colour of img as #rrggbb.
//
// Behavior:
//   - pixels with alpha < 128 are ignored
//   - ties go to the colour seen first in row-major order
//   - an image with no opaque pixel yields FallbackColor
func DominantColor(img image.Image) string {
	nrgba := toNRGBA(img)
	b := nrgba.Bounds()

	counts := make(map[color.NRGBA]int)
	var best color.NRGBA
	bestCount := 0

	for py := 0; py < b.Dy(); py++ {
		rowOff := py * nrgba.Stride
		for px := 0; px < b.Dx(); px++ {
			i := rowOff + px*4
			c := color.NRGBA{R: nrgba.Pix[i+0], G: nrgba.Pix[i+1], B: nrgba.Pix[i+2], A: 255}
			if nrgba.Pix[i+3] < 128 {
				continue
			}
			counts[c]++
			if counts[c] > bestCount {
				best, bestCount = c, counts[c]
			}
		}
	}
	if bestCount == 0 {
		return FallbackColor
	}
	return fmt.Sprintf("#%02x%02x%02x", best.R, best.G, best.B)
}

// DecodeDominant decodes a JPEG or PNG and returns its dominant colour.
func DecodeDominant(r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return FallbackColor, fmt.Errorf("convert: decode image: %w", err)
	}
	return DominantColor(img), nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// ParseHex parses #rgb or #rrggbb (the leading # is optional).
func ParseHex(hex string) (color.NRGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("convert: bad hex colour %q", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("convert: bad hex colour %q", hex)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// HexToRGBA renders hex as a CSS rgba() value with the given alpha.
func HexToRGBA(hex string, alpha float64) (string, error) {
	c, err := ParseHex(hex)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B,
		strconv.FormatFloat(alpha, 'f', -1, 64)), nil
}

// GradientAlpha picks the card gradient alpha for a decision state.
func GradientAlpha(passed, today bool) float64 {
	switch {
	case passed:
		return AlphaPassed
	case today:
		return AlphaToday
	default:
		return AlphaPending
	}
}

// LinearGradient renders a 135deg CSS gradient between two hex stops.
func LinearGradient(from, to string, alpha float64) (string, error) {
	a, err := HexToRGBA(from, alpha)
	if err != nil {
		return "", err
	}
	b, err := HexToRGBA(to, alpha)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("linear-gradient(135deg, %s, %s)", a, b), nil
}

// Luma returns the perceptual brightness of c in [0, 255].
func Luma(c color.NRGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

// TextColor returns black or white, whichever reads better on bg.
func TextColor(bg string) string {
	c, err := ParseHex(bg)
	if err != nil {
		return "#1e293b"
	}
	if Luma(c) < 140 {
		return "#ffffff"
	}
	return "#000000"
}
