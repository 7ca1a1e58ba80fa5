package errors

import (
	"strings"
	"unicode"
)

// maxRefLength bounds image references accepted from payloads.
const maxRefLength = 1024

// ValidateImageRef validates an image reference from a payload.
// A reference is either an http(s) URL or a relative path resolved against the
// upload root. It rejects references that could be used for path traversal.
//
// Validation rules:
//   - No empty references
//   - Maximum length of 1024 characters
//   - No null bytes or control characters
//   - No absolute paths
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateImageRef(ref string) error {
	if ref == "" {
		return New(ErrCodeInvalidPath, "image reference cannot be empty")
	}

	if len(ref) > maxRefLength {
		return New(ErrCodeInvalidPath, "image reference too long (max %d characters)", maxRefLength)
	}

	for _, r := range ref {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "image reference contains invalid characters")
		}
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return nil
	}
	if strings.Contains(ref, "://") {
		return New(ErrCodeInvalidPath, "image reference must use http or https scheme")
	}

	if strings.HasPrefix(ref, "/") {
		return New(ErrCodeInvalidPath, "image path must be relative (cannot start with /)")
	}

	if strings.Contains(ref, "..") {
		return New(ErrCodeInvalidPath, "image path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(ref, "\\") {
		return New(ErrCodeInvalidPath, "image path cannot contain backslashes")
	}

	return nil
}

// ValidateText validates free text (titles, descriptions, labels).
// Newlines and tabs are allowed; other control characters are not.
func ValidateText(field, s string, maxLen int) error {
	if len(s) > maxLen {
		return New(ErrCodeInvalidPayload, "%s too long (max %d characters)", field, maxLen)
	}
	for _, r := range s {
		if r == '\n' || r == '\t' || r == '\r' {
			continue
		}
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPayload, "%s contains invalid control characters", field)
		}
	}
	return nil
}
