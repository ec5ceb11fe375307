package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// SupportedMimeTypes lists the upload formats the ingestion pipeline accepts.
var SupportedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"application/pdf": true,
}

// ValidateMimeType checks that an uploaded file's content type is supported.
func ValidateMimeType(mimeType string) error {
	if !SupportedMimeTypes[mimeType] {
		return fmt.Errorf("unsupported mime type: %s", mimeType)
	}
	return nil
}

// IsPDF reports whether the content type is a PDF.
func IsPDF(mimeType string) bool {
	return mimeType == "application/pdf"
}

// FileExtension returns a safe lowercase extension for a filename, falling
// back to the given default when none is present.
func FileExtension(filename, fallback string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fallback
	}
	return ext
}

// SanitizeString removes control characters from user-supplied strings.
func SanitizeString(s string) string {
	return regexp.MustCompile(`[\x00-\x1f\x7f]`).ReplaceAllString(s, "")
}
