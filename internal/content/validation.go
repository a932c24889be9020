package content

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

const DefaultMaxUploadSize int64 = 100 * 1024 * 1024 // 100 MB

var allowedTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
	"video/mp4",
	"video/webm",
	"video/quicktime",
	"text/plain",
}

// ValidateUpload enforces the size limit and sniffs the payload against the
// allowed ad media types. It returns the detected MIME type.
func ValidateUpload(data []byte, maxSize int64) (string, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty upload: %w", ErrUnsupportedType)
	}
	if int64(len(data)) > maxSize {
		return "", fmt.Errorf("%d bytes over %d byte limit: %w", len(data), maxSize, ErrTooLarge)
	}

	detected := mimetype.Detect(data)
	for _, allowed := range allowedTypes {
		if detected.Is(allowed) {
			return detected.String(), nil
		}
	}
	return "", fmt.Errorf("%s: %w", detected.String(), ErrUnsupportedType)
}
