package client

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func TestFileHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	content := []byte("the quick brown fox jumps over the lazy dog")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	got, err := FileHash(path)
	require.NoError(t, err)

	sum := blake2b.Sum256(content)
	assert.Equal(t, hex.EncodeToString(sum[:]), got)
	assert.Len(t, got, 64)

	again, err := FileHash(path)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	other := filepath.Join(dir, "other.bin")
	require.NoError(t, os.WriteFile(other, []byte("different content"), 0o644))
	otherHash, err := FileHash(other)
	require.NoError(t, err)
	assert.NotEqual(t, got, otherHash)
}

func TestFileHashMissingFile(t *testing.T) {
	_, err := FileHash(filepath.Join(t.TempDir(), "absent.bin"))
	assert.Error(t, err)
}
