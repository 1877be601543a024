package editor

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Storage folders, also used as URL segments under /static/.
const (
	FolderUploads = "uploads"
	FolderEdited  = "edited"
)

// Output name prefixes.
const (
	PrefixEdited  = "edited"
	PrefixCropped = "cropped"
	PrefixNoBG    = "nobg"
)

var ErrInvalidFilename = errors.New("invalid filename")

// ValidateFilename accepts a bare file name with no directory component.
func ValidateFilename(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%q: %w", name, ErrInvalidFilename)
	}
	return nil
}

// DerivedName builds an output name from the source name and the canonical
// parameters of the operation: "<prefix>_<digest>_<source>". Equal inputs give
// equal names (and equal content). The digest is a 64-bit xxhash, so
// differing parameters are extremely unlikely to share a name.
func DerivedName(prefix, source, params string) string {
	sum := xxhash.Sum64String(source + "\x00" + params)
	return fmt.Sprintf("%s_%016x_%s", prefix, sum, source)
}

// WithExt replaces the extension of name.
func WithExt(name, ext string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + ext
}

func Key(folder, name string) string {
	return folder + "/" + name
}

// URL is the public path of a stored blob.
func URL(folder, name string) string {
	return "/static/" + Key(folder, name)
}
