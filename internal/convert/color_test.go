package convert

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

func TestDominantColor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	fill(img, img.Bounds(), color.NRGBA{R: 0xa5, G: 0x1c, B: 0x30, A: 255})
	fill(img, image.Rect(0, 0, 10, 3), color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	fill(img, image.Rect(0, 3, 10, 6), color.NRGBA{A: 10})

	assert.Equal(t, "#a51c30", DominantColor(img))
}

func TestDominantColor_TransparentAndSubImage(t *testing.T) {
	assert.Equal(t, FallbackColor, DominantColor(image.NewNRGBA(image.Rect(0, 0, 4, 4))))

	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	fill(img, image.Rect(4, 4, 8, 8), color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	sub := img.SubImage(image.Rect(4, 4, 8, 8))
	assert.Equal(t, "#010203", DominantColor(sub))
}

func TestDecodeDominant(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	fill(img, img.Bounds(), color.NRGBA{R: 0x4a, G: 0x90, B: 0xe2, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	got, err := DecodeDominant(&buf)
	require.NoError(t, err)
	assert.Equal(t, "#4a90e2", got)

	got, err = DecodeDominant(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
	assert.Equal(t, FallbackColor, got)
}

func TestHexToRGBA(t *testing.T) {
	got, err := HexToRGBA("#a51c30", 0.25)
	require.NoError(t, err)
	assert.Equal(t, "rgba(165, 28, 48, 0.25)", got)

	got, err = HexToRGBA("fff", 1)
	require.NoError(t, err)
	assert.Equal(t, "rgba(255, 255, 255, 1)", got)

	_, err = HexToRGBA("#12345", 0.2)
	assert.Error(t, err)
	_, err = HexToRGBA("#zzzzzz", 0.2)
	assert.Error(t, err)
}

func TestGradientAlpha(t *testing.T) {
	assert.Equal(t, 0.06, GradientAlpha(true, true))
	assert.Equal(t, 0.25, GradientAlpha(false, true))
	assert.Equal(t, 0.2, GradientAlpha(false, false))
}

func TestLinearGradient(t *testing.T) {
	got, err := LinearGradient("#000000", "#ffffff", 0.2)
	require.NoError(t, err)
	assert.Equal(t, "linear-gradient(135deg, rgba(0, 0, 0, 0.2), rgba(255, 255, 255, 0.2))", got)
}

func TestTextColor(t *testing.T) {
	assert.Equal(t, "#ffffff", TextColor("#a51c30"))
	assert.Equal(t, "#000000", TextColor("#f8fafc"))
	assert.Equal(t, "#1e293b", TextColor("nope"))
}
