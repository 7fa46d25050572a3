// SPDX-License-Identifier: MIT

// Package fs confines file access to a root directory.
package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrEscapesRoot is returned when a path resolves outside its root.
var ErrEscapesRoot = errors.New("path escapes root")

// ConfineRelPath joins root and the relative relTarget and returns the
// resolved path if it stays physically under root, following symlinks.
func ConfineRelPath(root, relTarget string) (string, error) {
	if strings.Contains(relTarget, "\\") {
		return "", fmt.Errorf("path contains backslash: %s", relTarget)
	}
	cleanRel := filepath.Clean(relTarget)
	if filepath.IsAbs(cleanRel) {
		return "", fmt.Errorf("target path must be relative: %s", relTarget)
	}
	if cleanRel == ".." || strings.HasPrefix(cleanRel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrEscapesRoot, relTarget)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid root path: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", err
	}

	full := filepath.Join(realRoot, cleanRel)
	realPath, err := filepath.EvalSymlinks(full)
	switch {
	case err == nil:
	case os.IsNotExist(err):
		// resolve the parent so a missing file under a symlinked dir is still checked
		parent, perr := filepath.EvalSymlinks(filepath.Dir(full))
		if perr != nil {
			return "", err
		}
		realPath = filepath.Join(parent, filepath.Base(full))
	default:
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	rel, err := filepath.Rel(realRoot, realPath)
	if err != nil {
		return "", fmt.Errorf("rel computation failed: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w via symlinks: %s", ErrEscapesRoot, realPath)
	}
	return realPath, nil
}

// IsRegularFile returns an error unless path exists and is a regular file.
func IsRegularFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", path)
	}
	return nil
}
