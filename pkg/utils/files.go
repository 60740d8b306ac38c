package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// skippedDirs are never descended into when walking a project tree
var skippedDirs = map[string]bool{
	"__pycache__":  true,
	"build":        true,
	"dist":         true,
	"node_modules": true,
	"venv":         true,
}

// IsPythonFile checks if a file is a Python source file (includes test files)
func IsPythonFile(filename string) bool {
	return strings.HasSuffix(filename, ".py") || strings.HasSuffix(filename, ".pyi")
}

// WalkFiles recursively calls fn for every regular file under root, skipping
// hidden directories, build output and virtualenvs.
func WalkFiles(root string, fn func(path string) error) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip build and hidden directories (but not the root directory)
		if info.IsDir() {
			if path == root {
				return nil
			}
			if IsSkippedDir(filepath.Base(path)) {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}
		return fn(path)
	})
}

// IsSkippedDir reports whether a directory with this name is never walked
func IsSkippedDir(name string) bool {
	return skippedDirs[name] || strings.HasPrefix(name, ".")
}

// WalkDirs calls fn for root and every directory under it that WalkFiles
// would descend into.
func WalkDirs(root string, fn func(path string) error) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && IsSkippedDir(filepath.Base(path)) {
			return filepath.SkipDir
		}
		return fn(path)
	})
}

// FindPythonFiles recursively finds all Python source files in a directory
func FindPythonFiles(root string) ([]string, error) {
	var pyFiles []string
	err := WalkFiles(root, func(path string) error {
		if IsPythonFile(filepath.Base(path)) {
			pyFiles = append(pyFiles, path)
		}
		return nil
	})
	return pyFiles, err
}

// RelativeFiles returns every file under root as a slash-separated path
// relative to root.
func RelativeFiles(root string) ([]string, error) {
	var files []string
	err := WalkFiles(root, func(path string) error {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	return files, err
}

// IsDirectory checks if the given path is a directory
func IsDirectory(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
