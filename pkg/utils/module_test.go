package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUtils_FindProjectConfig(t *testing.T) {
	req := require.New(t)
	tempDir := t.TempDir()

	configPath := filepath.Join(tempDir, ConfigFileName)
	req.NoError(os.WriteFile(configPath, []byte("[tool.towncrier]\npackage = \"dials\"\n"), 0644))

	subDir := filepath.Join(tempDir, "src", "dials", "util")
	req.NoError(os.MkdirAll(subDir, 0755))

	testFile := filepath.Join(subDir, "options.py")
	req.NoError(os.WriteFile(testFile, []byte("import os\n"), 0644))

	// Finds the config from a file deep in the tree
	req.Equal(configPath, FindProjectConfig(testFile))

	// Finds the config from a directory
	req.Equal(configPath, FindProjectConfig(subDir))

	// Finds the config next to itself
	req.Equal(configPath, FindProjectConfig(tempDir))
}

func TestUtils_FindProjectConfig_fallbacks(t *testing.T) {
	req := require.New(t)
	tempDir := t.TempDir()

	// A directory named pyproject.toml is not a config file
	req.NoError(os.Mkdir(filepath.Join(tempDir, ConfigFileName), 0755))
	nested := filepath.Join(tempDir, "pkg")
	req.NoError(os.Mkdir(nested, 0755))

	found := FindProjectConfig(nested)
	req.NotEqual(filepath.Join(tempDir, ConfigFileName), found)
}

func TestUtils_FindProjectConfig_deepTree(t *testing.T) {
	req := require.New(t)
	tempDir := t.TempDir()

	configPath := filepath.Join(tempDir, ConfigFileName)
	req.NoError(os.WriteFile(configPath, []byte("[tool.ruff]\n"), 0644))

	deep := tempDir
	for i := 0; i < 30; i++ {
		deep = filepath.Join(deep, "d")
	}
	req.NoError(os.MkdirAll(deep, 0755))

	req.Equal(configPath, FindProjectConfig(deep))
}
