package validation

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

var ErrUnsupportedMedia = errors.New("unsupported media type")

// MediaRules restricts an upload by sniffed content type, extension and size.
type MediaRules struct {
	MimeTypes  map[string]string // sniffed type -> canonical extension
	Extensions map[string]bool
	MaxSize    int64
}

// ImageRules accept the formats the app shows in profiles and chats.
var ImageRules = MediaRules{
	MimeTypes: map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
		"image/gif":  ".gif",
	},
	Extensions: map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".webp": true,
		".gif":  true,
	},
	MaxSize: 5 << 20,
}

// ValidateMedia checks header against rules and returns the sniffed content
// type. The file is rewound when it supports seeking.
func ValidateMedia(header *multipart.FileHeader, rules MediaRules) (string, error) {
	if header.Size > rules.MaxSize {
		return "", fmt.Errorf("file too large: maximum size is %d MB", rules.MaxSize>>20)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !rules.Extensions[ext] {
		return "", fmt.Errorf("%w: extension %q", ErrUnsupportedMedia, ext)
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// DetectContentType looks at no more than 512 bytes.
	buf := make([]byte, 512)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	detected := http.DetectContentType(buf[:n])
	if _, ok := rules.MimeTypes[detected]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMedia, detected)
	}

	return detected, nil
}
