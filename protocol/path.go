package protocol

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	// ErrEmptyPath indicates a file descriptor without a destination.
	ErrEmptyPath = errors.New("destination path is empty")
	// ErrAbsolutePath indicates a destination that does not stay
	// relative to the transfer root.
	ErrAbsolutePath = errors.New("destination path must be relative")
	// ErrPathTraversal indicates a destination that escapes the
	// transfer root through parent references.
	ErrPathTraversal = errors.New("destination path escapes the transfer root")
)

// ResolveDestPath validates a SET_META destination path and resolves it
// under root. Destinations travel in slash form; the result uses the
// local separator.
func ResolveDestPath(root, dest string) (string, error) {
	if dest == "" {
		return "", ErrEmptyPath
	}
	local := filepath.FromSlash(dest)
	if filepath.IsAbs(local) || strings.HasPrefix(dest, "/") {
		return "", ErrAbsolutePath
	}
	cleaned := filepath.Clean(local)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return filepath.Join(root, cleaned), nil
}
