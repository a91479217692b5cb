// Package validation provides input validation and sanitization for
// user-supplied filenames and docx uploads.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	// MaxUploadSize is the maximum allowed upload size (50 MB).
	MaxUploadSize = 50 << 20
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrPathTooLong      = errors.New("path too long")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrNotDocx          = errors.New("not a docx file")
)

// zipMagic is the local file header signature every docx starts with.
var zipMagic = []byte{0x50, 0x4b, 0x03, 0x04}

// SanitizePath validates a user-supplied path and ensures it does not
// escape the provided base directory. Returns the cleaned relative path.
func SanitizePath(baseDir, userPath string) (string, error) {
	if userPath == "" {
		return "", ErrEmptyPath
	}

	if len(userPath) > MaxPathLength {
		return "", ErrPathTooLong
	}

	cleanPath := filepath.Clean(userPath)

	if strings.Contains(cleanPath, "..") {
		return "", ErrPathTraversal
	}

	if filepath.IsAbs(cleanPath) {
		return "", fmt.Errorf("%w: absolute path not allowed", ErrPathTraversal)
	}

	fullPath := filepath.Join(baseDir, cleanPath)
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}

	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	relPath, err := filepath.Rel(absBase, absPath)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return "", ErrPathTraversal
	}

	return cleanPath, nil
}

// ValidateFilename checks if a filename is safe to echo back and store.
// It rejects filenames with path separators, control characters, and
// reserved names.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}

	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}

	if filename == "." || filename == ".." {
		return fmt.Errorf("%w: reserved name", ErrInvalidFilename)
	}

	if strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	}

	if strings.Contains(filename, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidFilename)
	}

	for _, r := range filename {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}

	// Filenames starting with a hyphen can be confused with command flags.
	if strings.HasPrefix(filename, "-") {
		return fmt.Errorf("%w: filename cannot start with hyphen", ErrInvalidFilename)
	}

	return nil
}

// SanitizeFilename sanitizes a filename by removing or replacing invalid
// characters. Useful for filenames taken from multipart uploads.
func SanitizeFilename(filename string) (string, error) {
	if filename == "" {
		return "", ErrInvalidFilename
	}

	filename = strings.TrimSpace(filename)

	// Some browsers send the full client path; keep only the base name.
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))

	filename = strings.ReplaceAll(filename, "\x00", "")

	var cleaned strings.Builder
	for _, r := range filename {
		if !unicode.IsControl(r) {
			cleaned.WriteRune(r)
		}
	}
	filename = cleaned.String()

	filename = strings.TrimLeft(filename, "-")

	if err := ValidateFilename(filename); err != nil {
		return "", err
	}

	return filename, nil
}

// ValidateDocxUpload checks that an uploaded file is plausibly a docx:
// .docx extension, ZIP magic bytes, and within the size limit.
func ValidateDocxUpload(filename string, data []byte) error {
	if !strings.EqualFold(filepath.Ext(filename), ".docx") {
		return fmt.Errorf("%w: expected a .docx extension", ErrNotDocx)
	}
	if len(data) < len(zipMagic) || !bytes.Equal(data[:len(zipMagic)], zipMagic) {
		return fmt.Errorf("%w: missing ZIP signature", ErrNotDocx)
	}
	if len(data) > MaxUploadSize {
		return fmt.Errorf("file exceeds %d byte limit", MaxUploadSize)
	}
	return nil
}

// IsDocx reports whether data begins with the ZIP local file header
// shared by all docx files.
func IsDocx(data []byte) bool {
	return len(data) >= len(zipMagic) && bytes.Equal(data[:len(zipMagic)], zipMagic)
}
