package errors

import (
	"strings"
	"unicode"
)

// ValidateWorkDir validates a caller-supplied working directory path.
// Unlike [ValidatePath] it accepts absolute paths, since work directories
// usually live under the system temp directory.
func ValidateWorkDir(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "work directory cannot be empty")
	}

	const maxPathLength = 1024
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "work directory too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "work directory contains invalid characters")
		}
	}

	return nil
}

// ValidateExecutable validates the name or path of a solver executable.
//
// The name is passed to the solver's command parser indirectly (through
// file names derived from it), so whitespace-only names and control
// characters are rejected.
func ValidateExecutable(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "solver executable cannot be empty")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "solver executable contains invalid control characters")
		}
	}

	return nil
}

// ValidatePath validates a relative artifact file name inside a work directory.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 255 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No whitespace, which the solver's command protocol would split on
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 255
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
		if unicode.IsSpace(r) {
			return New(ErrCodeInvalidPath, "path cannot contain whitespace")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	return nil
}
