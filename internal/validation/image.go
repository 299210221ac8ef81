package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

type ImageKind int

const (
	ListingImage ImageKind = iota
	AvatarImage
)

const (
	MaxListingImageSize int64 = 10 << 20
	MaxAvatarImageSize  int64 = 5 << 20
)

var (
	ErrImageType     = errors.New("image must be JPEG, PNG, WebP or GIF")
	ErrImageTooLarge = errors.New("image is too large")
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageFile describes an upload before its bytes are stored.
type ImageFile struct {
	Name        string
	ContentType string
	Size        int64
}

func (k ImageKind) MaxSize() int64 {
	if k == AvatarImage {
		return MaxAvatarImageSize
	}
	return MaxListingImageSize
}

// ValidateImage checks the content type first, then the size limit for kind.
// Returned errors wrap ErrImageType or ErrImageTooLarge.
func ValidateImage(f ImageFile, kind ImageKind) error {
	if _, ok := allowedImageTypes[mediaType(f.ContentType)]; !ok {
		return fmt.Errorf("%s: %w", f.Name, ErrImageType)
	}
	if f.Size > kind.MaxSize() {
		return fmt.Errorf("%s: %w (max %d MB)", f.Name, ErrImageTooLarge, kind.MaxSize()>>20)
	}
	return nil
}

// ImageExtension returns the file extension for an allowed content type,
// falling back to the extension of name.
func ImageExtension(contentType, name string) string {
	if ext, ok := allowedImageTypes[mediaType(contentType)]; ok {
		return ext
	}
	return strings.ToLower(filepath.Ext(name))
}

func mediaType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
