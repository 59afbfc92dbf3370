package domain

import (
	"path/filepath"
	"slices"
	"strings"
)

// MaxImageSize is the largest accepted product image upload (10 MiB).
const MaxImageSize = 10 << 20

// imageExtensions maps each accepted MIME type to its extensions; the
// first one is canonical.
var imageExtensions = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/webp": {".webp"},
	"image/gif":  {".gif"},
}

// IsAllowedImageType reports whether mimeType is an accepted image format.
func IsAllowedImageType(mimeType string) bool {
	_, ok := imageExtensions[mimeType]
	return ok
}

// AllowedImageTypes returns the accepted MIME types.
func AllowedImageTypes() []string {
	return []string{"image/jpeg", "image/png", "image/webp", "image/gif"}
}

// ImageFileName derives the stored name of a product image: the product id
// followed by the lowercased extension of the uploaded file. An extension
// that does not belong to mimeType is replaced by the canonical one.
func ImageFileName(productID, originalName, mimeType string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	exts := imageExtensions[mimeType]
	if !slices.Contains(exts, ext) && len(exts) > 0 {
		ext = exts[0]
	}
	return productID + ext
}
