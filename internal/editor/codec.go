package editor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"mime"
	"path"
	"strings"

	"github.com/disintegration/imaging"
)

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrDecode          = errors.New("cannot decode image")
)

// allowedExt lists the extensions accepted for upload.
var allowedExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// AllowedFile reports whether name has an accepted image extension.
func AllowedFile(name string) bool {
	return allowedExt[strings.ToLower(path.Ext(name))]
}

func decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// encode writes img in the format implied by name's extension.
func encode(img image.Image, name string) ([]byte, string, error) {
	format, err := imaging.FormatFromFilename(name)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedType, path.Ext(name))
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(95)); err != nil {
		return nil, "", fmt.Errorf("encode %s: %w", name, err)
	}
	return buf.Bytes(), contentType(name), nil
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
