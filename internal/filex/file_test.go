package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNestedPrivateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, EnsureDir(dir))

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o700), fi.Mode().Perm())
	}
}

func TestEnsureDir_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))
}

func TestEnsureDir_PathIsAFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	require.Error(t, EnsureDir(filepath.Join(file, "sub")))
}

func TestReadLimited(t *testing.T) {
	dir := t.TempDir()
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	path := filepath.Join(dir, "avatar.png")
	require.NoError(t, os.WriteFile(path, png, 0o600))

	data, ct, err := ReadLimited(path, 1024)
	require.NoError(t, err)
	assert.Equal(t, png, data)
	assert.Equal(t, "image/png", ct)
}

func TestReadLimited_ExactlyMax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("12345"), 0o600))

	data, _, err := ReadLimited(path, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("12345"), data)
}

func TestReadLimited_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 11), 0o600))

	_, _, err := ReadLimited(path, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "larger than 10 bytes")
}

func TestReadLimited_Missing(t *testing.T) {
	_, _, err := ReadLimited(filepath.Join(t.TempDir(), "nope"), 10)
	require.ErrorIs(t, err, os.ErrNotExist)
}
