// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

// Package fsutil holds small filesystem helpers shared across the tool.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates path (and parents) if it does not exist yet.
func EnsureDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("path exists but is not a directory: %s", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	// #nosec G301 -- recordings are plain user data
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// FileSize returns the size of path in bytes, or 0 when the file is absent.
func FileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return 0
	}
	return info.Size()
}

// WithExt returns path with its extension replaced. Derived artifacts
// (MP4, contact sheet) share the capture's base name.
func WithExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// CheckWritable verifies that dir accepts new files by creating and removing
// a probe file.
func CheckWritable(dir string) error {
	probe := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s: %w", dir, err)
	}
	return os.Remove(probe)
}
