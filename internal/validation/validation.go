// Package validation checks user-supplied file names and paths before the
// CLI and the archive layer touch the filesystem.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

const (
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

var (
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrPathTooLong      = errors.New("path too long")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrNotArchive       = errors.New("not an xz archive")
)

// xzMagic opens every xz stream.
var xzMagic = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}

// ValidatePath rejects empty or overlong paths and paths containing NUL or
// other control characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	for _, r := range path {
		if r == 0 {
			return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
		}
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// ValidateFilename checks a single path element.
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
	for _, r := range filename {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}
	// Looks like a flag on the command line.
	if strings.HasPrefix(filename, "-") {
		return fmt.Errorf("%w: filename cannot start with hyphen", ErrInvalidFilename)
	}
	return nil
}

// SanitizeFilename turns a collection name into a usable file name.
// Separators and whitespace become underscores; control characters and
// leading hyphens or dots are dropped.
func SanitizeFilename(name string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == '/' || r == '\\' || unicode.IsSpace(r):
			b.WriteRune('_')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	filename := strings.TrimLeft(b.String(), "-.")
	if len(filename) > MaxFilenameLength {
		filename = filename[:MaxFilenameLength]
	}
	if err := ValidateFilename(filename); err != nil {
		return "", err
	}
	return filename, nil
}

// CheckArchive reads the head of r and reports whether it starts an xz
// stream.
func CheckArchive(r io.Reader) error {
	buf := make([]byte, len(xzMagic))
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("read file header: %w", err)
	}
	if !bytes.Equal(buf[:n], xzMagic) {
		return ErrNotArchive
	}
	return nil
}
