package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibrary_Path(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "meme6.gif"), []byte("GIF89a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "meme3.gif"), []byte("GIF89a"), 0o600))

	lib := NewLibrary(dir)

	p, ok := lib.Path(Refund)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "meme6.gif"), p)

	_, ok = lib.Path(Reminder)
	assert.False(t, ok, "missing file")

	_, ok = lib.Path(None)
	assert.False(t, ok)

	lib.pick = func(int) int { return 2 }
	p, ok = lib.Path(Success)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "meme3.gif"), p)
}

func TestLibrary_Disabled(t *testing.T) {
	var lib *Library
	_, ok := lib.Path(Welcome)
	assert.False(t, ok)

	_, ok = NewLibrary("").Path(Welcome)
	assert.False(t, ok)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "none", Kind(42).String())
}
