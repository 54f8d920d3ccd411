package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckImage(t *testing.T) {
	ext, err := CheckImage("dish.JPG", 1024, 5<<20)
	require.NoError(t, err)
	assert.Equal(t, ".jpg", ext)

	_, err = CheckImage("dish.gif", 1024, 5<<20)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = CheckImage("dish.png", 6<<20, 5<<20)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestLocalStore_SaveAndDelete(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	url, err := store.Save(context.Background(), "menu", ".png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/menu/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	path := filepath.Join(store.Root(), "menu", filepath.Base(url))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(context.Background(), url))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(context.Background(), url), "deleting twice is fine")
}

func TestLocalStore_DeleteRejectsForeignPaths(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Delete(context.Background(), "/etc/passwd"))
	assert.Error(t, store.Delete(context.Background(), "/uploads/../../etc/passwd"))
}
