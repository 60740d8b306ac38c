package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFingerprint(t *testing.T) {
	req := require.New(t)

	req.Equal(Fingerprint([]byte("a"), []byte("b")), Fingerprint([]byte("a"), []byte("b")))
	req.NotEqual(Fingerprint([]byte("a"), []byte("b")), Fingerprint([]byte("b"), []byte("a")))
	// Part boundaries matter
	req.NotEqual(Fingerprint([]byte("ab"), []byte("")), Fingerprint([]byte("a"), []byte("b")))
}

func TestCache(t *testing.T) {
	req := require.New(t)
	path := Path(t.TempDir())
	src := []byte("from __future__ import annotations\n")

	c, err := Open(path, "policy-1", zap.NewNop())
	req.NoError(err)

	req.False(c.Clean("/p/a.py", src))
	req.NoError(c.MarkClean("/p/a.py", src))
	req.True(c.Clean("/p/a.py", src))

	// Changed content is not clean
	req.False(c.Clean("/p/a.py", append(src, '\n')))
	req.False(c.Clean("/p/b.py", src))

	// Marking again replaces the entry
	req.NoError(c.MarkClean("/p/a.py", append(src, '\n')))
	req.False(c.Clean("/p/a.py", src))
	n, err := c.Len()
	req.NoError(err)
	req.Equal(1, n)
	req.NoError(c.Close())

	t.Run("entries survive reopening", func(t *testing.T) {
		c, err := Open(path, "policy-1", nil)
		req.NoError(err)
		defer c.Close()
		req.True(c.Clean("/p/a.py", append(src, '\n')))
	})

	t.Run("another policy prunes entries", func(t *testing.T) {
		c, err := Open(path, "policy-2", nil)
		req.NoError(err)
		defer c.Close()
		req.False(c.Clean("/p/a.py", append(src, '\n')))
		n, err := c.Len()
		req.NoError(err)
		req.Zero(n)
	})
}

func TestPath(t *testing.T) {
	require.Equal(t, filepath.Join("root", ".pypolicy_cache", "imports.db"), Path("root"))
}
