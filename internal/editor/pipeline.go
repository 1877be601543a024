// Package editor implements the image adjustment pipeline, cropping and the
// staging of uploaded files, plus the HTTP handlers in front of them.
package editor

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Adjustments is the parameter set of one apply_filter call. The zero value
// is NOT the identity; use Identity.
type Adjustments struct {
	Brightness     float64
	Contrast       float64
	Saturation     float64
	Blur           float64
	Rotation       float64
	FlipHorizontal bool
	FlipVertical   bool
}

// Identity returns adjustments that leave an image unchanged.
func Identity() Adjustments {
	return Adjustments{Brightness: 1, Contrast: 1, Saturation: 1}
}

// IsIdentity reports whether Apply would only copy the image.
func (a Adjustments) IsIdentity() bool {
	return a == Identity()
}

// Apply runs the enabled steps in the fixed order brightness, contrast,
// saturation, blur, rotation, horizontal flip, vertical flip. Steps whose
// parameter equals its identity value are skipped. Only blur > 0 blurs.
func (a Adjustments) Apply(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	if a.Brightness != 1 {
		out = brightness(out, a.Brightness)
	}
	if a.Contrast != 1 {
		out = contrast(out, a.Contrast)
	}
	if a.Saturation != 1 {
		out = saturation(out, a.Saturation)
	}
	if a.Blur > 0 {
		out = imaging.Blur(out, blurSigma(a.Blur, out.Bounds()))
	}
	if a.Rotation != 0 {
		// Counter-clockwise; the canvas grows to fit the rotated content.
		out = imaging.Rotate(out, a.Rotation, color.Transparent)
	}
	if a.FlipHorizontal {
		out = imaging.FlipH(out)
	}
	if a.FlipVertical {
		out = imaging.FlipV(out)
	}
	return out
}

// Canonical is the stable textual form used for output naming.
func (a Adjustments) Canonical() string {
	return fmt.Sprintf("b=%g;c=%g;s=%g;blur=%g;rot=%g;fh=%t;fv=%t",
		a.Brightness, a.Contrast, a.Saturation, a.Blur, a.Rotation, a.FlipHorizontal, a.FlipVertical)
}

// Params is the history representation.
func (a Adjustments) Params() map[string]any {
	return map[string]any{
		"brightness":      a.Brightness,
		"contrast":        a.Contrast,
		"saturation":      a.Saturation,
		"blur":            a.Blur,
		"rotation":        a.Rotation,
		"flip_horizontal": a.FlipHorizontal,
		"flip_vertical":   a.FlipVertical,
	}
}

// The enhancers blend each pixel with a degenerate image:
// black for brightness, the mean grey level for contrast and the pixel's own
// grey level for saturation. factor 0 gives the degenerate image, 1 the
// original, >1 extrapolates. Alpha is untouched.

func brightness(img *image.NRGBA, factor float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clamp(float64(c.R) * factor),
			G: clamp(float64(c.G) * factor),
			B: clamp(float64(c.B) * factor),
			A: c.A,
		}
	})
}

func contrast(img *image.NRGBA, factor float64) *image.NRGBA {
	mean := math.Floor(meanLuma(img) + 0.5)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: blend(mean, float64(c.R), factor),
			G: blend(mean, float64(c.G), factor),
			B: blend(mean, float64(c.B), factor),
			A: c.A,
		}
	})
}

func saturation(img *image.NRGBA, factor float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		l := math.Floor(luma(c) + 0.5)
		return color.NRGBA{
			R: blend(l, float64(c.R), factor),
			G: blend(l, float64(c.G), factor),
			B: blend(l, float64(c.B), factor),
			A: c.A,
		}
	})
}

// blurSigma caps sigma at the larger image side. The kernel length grows
// with sigma, and past that size the result is already a full blur.
func blurSigma(sigma float64, b image.Rectangle) float64 {
	return math.Min(sigma, float64(max(b.Dx(), b.Dy(), 1)))
}

// luma is the ITU-R 601-2 grey level.
func luma(c color.NRGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

func meanLuma(img *image.NRGBA) float64 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}
	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += math.Floor(luma(img.NRGBAAt(x, y)) + 0.5)
		}
	}
	return sum / float64(n)
}

func blend(degenerate, v, factor float64) uint8 {
	return clamp(degenerate + factor*(v-degenerate))
}

func clamp(v float64) uint8 {
	v = math.Round(v)
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}
