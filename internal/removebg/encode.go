package removebg

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/disintegration/imaging"
)

// DataURI decodes an image returned by the API, normalises it to RGBA and
// re-encodes it as an inline PNG data URI.
func DataURI(data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode result: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, imaging.Clone(img)); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
