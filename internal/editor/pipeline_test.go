package editor

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gradient returns a w×h image whose pixels are all distinct enough to catch
// orientation mistakes.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	return img
}

func assertSamePixels(t *testing.T, want, got image.Image) {
	t.Helper()
	require.Equal(t, want.Bounds().Size(), got.Bounds().Size())
	wb, gb := want.Bounds(), got.Bounds()
	for y := 0; y < wb.Dy(); y++ {
		for x := 0; x < wb.Dx(); x++ {
			wr, wg, wbb, wa := want.At(wb.Min.X+x, wb.Min.Y+y).RGBA()
			gr, gg, gbb, ga := got.At(gb.Min.X+x, gb.Min.Y+y).RGBA()
			if wr != gr || wg != gg || wbb != gbb || wa != ga {
				t.Fatalf("pixel (%d,%d) differs: want %v got %v", x, y,
					want.At(wb.Min.X+x, wb.Min.Y+y), got.At(gb.Min.X+x, gb.Min.Y+y))
			}
		}
	}
}

func TestApply_IdentityIsPixelIdentical(t *testing.T) {
	src := gradient(17, 9)
	out := Identity().Apply(src)
	assertSamePixels(t, src, out)
	assert.True(t, Identity().IsIdentity())
}

func TestApply_Rotate90SwapsDimensions(t *testing.T) {
	src := gradient(30, 20)
	out := Adjustments{Brightness: 1, Contrast: 1, Saturation: 1, Rotation: 90}.Apply(src)
	assert.Equal(t, image.Pt(20, 30), out.Bounds().Size())
}

func TestApply_RotateExpandsCanvas(t *testing.T) {
	src := gradient(40, 20)
	out := Adjustments{Brightness: 1, Contrast: 1, Saturation: 1, Rotation: 45}.Apply(src)
	assert.Greater(t, out.Bounds().Dx(), 40)
	assert.Greater(t, out.Bounds().Dy(), 20)
}

func TestApply_FixedOrder(t *testing.T) {
	src := gradient(12, 7)
	adj := Identity()
	adj.Rotation = 90
	adj.FlipHorizontal = true

	got := adj.Apply(src)
	rotateThenFlip := imaging.FlipH(imaging.Rotate(src, 90, color.Transparent))
	flipThenRotate := imaging.Rotate(imaging.FlipH(src), 90, color.Transparent)

	assertSamePixels(t, rotateThenFlip, got)
	assert.NotEqual(t, flipThenRotate.Pix, got.Pix)
}

func TestApply_BothFlips(t *testing.T) {
	src := gradient(5, 4)
	adj := Identity()
	adj.FlipHorizontal = true
	adj.FlipVertical = true

	assertSamePixels(t, imaging.Rotate180(src), adj.Apply(src))
}

func TestApply_BrightnessZeroIsBlackKeepsAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := range src.Pix {
		src.Pix[i] = 180
	}
	adj := Identity()
	adj.Brightness = 0

	out := adj.Apply(src)
	assert.Equal(t, color.NRGBA{0, 0, 0, 180}, out.NRGBAAt(1, 1))
}

func TestApply_BrightnessScalesAndClamps(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 100, G: 200, B: 10, A: 255})
	adj := Identity()
	adj.Brightness = 2

	assert.Equal(t, color.NRGBA{R: 200, G: 255, B: 20, A: 255}, adj.Apply(src).NRGBAAt(0, 0))
}

func TestApply_SaturationZeroIsGrey(t *testing.T) {
	src := gradient(6, 6)
	adj := Identity()
	adj.Saturation = 0

	out := adj.Apply(src)
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := out.NRGBAAt(x, y)
			require.Equal(t, c.R, c.G)
			require.Equal(t, c.G, c.B)
		}
	}
}

func TestApply_ContrastZeroIsFlatMean(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	adj := Identity()
	adj.Contrast = 0

	out := adj.Apply(src)
	want := color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	assert.Equal(t, want, out.NRGBAAt(0, 0))
	assert.Equal(t, want, out.NRGBAAt(1, 0))
}

func TestApply_BlurOnlyWhenPositive(t *testing.T) {
	src := gradient(10, 10)
	src.SetNRGBA(5, 5, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	neg := Identity()
	neg.Blur = -3
	assertSamePixels(t, src, neg.Apply(src))

	pos := Identity()
	pos.Blur = 2
	assert.NotEqual(t, src.Pix, pos.Apply(src).Pix)
}

func TestCanonical_DistinguishesParameters(t *testing.T) {
	a := Identity()
	b := Identity()
	b.FlipVertical = true
	assert.NotEqual(t, a.Canonical(), b.Canonical())
	assert.Equal(t, a.Canonical(), Identity().Canonical())
}

func TestApply_HugeBlurIsCappedAtImageSize(t *testing.T) {
	src := gradient(20, 10)

	huge := Identity()
	huge.Blur = 1e9
	capped := Identity()
	capped.Blur = 20

	assertSamePixels(t, capped.Apply(src), huge.Apply(src))
}

func TestBlurSigma(t *testing.T) {
	assert.Equal(t, 1.5, blurSigma(1.5, image.Rect(0, 0, 20, 10)))
	assert.Equal(t, 20.0, blurSigma(1e9, image.Rect(0, 0, 20, 10)))
	assert.Equal(t, 1.0, blurSigma(1e9, image.Rect(0, 0, 0, 0)))
}
