package editor

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"
)

// ErrEmptyCrop is returned when the crop rectangle does not overlap the image.
var ErrEmptyCrop = errors.New("crop rectangle is outside the image")

// CropRect is the region posted to /crop, relative to the image's top-left.
type CropRect struct {
	X, Y, Width, Height int
}

func (c CropRect) Params() map[string]any {
	return map[string]any{"x": c.X, "y": c.Y, "width": c.Width, "height": c.Height}
}

// Crop extracts the region. Parts of the rectangle outside the image are
// clipped away rather than padded, so the result can be smaller than
// Width×Height. A negative width or height is normalised by image.Rect,
// extending left or up from (X, Y). No overlap at all yields ErrEmptyCrop.
func Crop(img image.Image, c CropRect) (*image.NRGBA, error) {
	rect := image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height).Add(img.Bounds().Min)
	out := imaging.Crop(img, rect)
	if out.Bounds().Empty() {
		return nil, ErrEmptyCrop
	}
	return out, nil
}
