package utils

import (
	"os"
	"path/filepath"
)

// ConfigFileName is the project configuration file searched for
const ConfigFileName = "pyproject.toml"

// FindProjectConfig walks up from path looking for pyproject.toml and
// returns its location, or "" if none is found.
func FindProjectConfig(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return ""
	}

	dir := absPath
	if isDir, err := IsDirectory(absPath); err != nil || !isDir {
		dir = filepath.Dir(absPath)
	}

	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
