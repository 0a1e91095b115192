package storage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
	gifHeader  = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\xff\xff\xff\x00\x00\x00")
)

func TestDetectImage(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantExt string
		wantOK  bool
	}{
		{"png", pngHeader, ".png", true},
		{"jpeg", jpegHeader, ".jpg", true},
		{"gif", gifHeader, ".gif", true},
		{"text", []byte("definitely not an image"), "", false},
		{"pdf", []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ext, ok := DetectImage(tt.data)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestLocalStore_PutAndDelete(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "http://localhost:8080/storage/")
	require.NoError(t, err)
	ctx := context.Background()

	asset, err := store.Put(ctx, "products", &Upload{Filename: "photo.exe", Data: pngHeader})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(asset.Key, "products/"))
	assert.True(t, strings.HasSuffix(asset.Key, ".png"), "extension follows content, not filename")
	assert.Equal(t, "http://localhost:8080/storage/"+asset.Key, asset.URL)

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(asset.Key)))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	ok, err := store.exists(asset.Key)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, asset.Key))
	ok, err = store.exists(asset.Key)
	require.NoError(t, err)
	assert.False(t, ok)

	// already gone
	require.NoError(t, store.Delete(ctx, asset.Key))
}

func TestLocalStore_DistinctKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/storage")
	require.NoError(t, err)

	a, err := store.Put(context.Background(), "products", &Upload{Data: gifHeader})
	require.NoError(t, err)
	b, err := store.Put(context.Background(), "products", &Upload{Data: gifHeader})
	require.NoError(t, err)
	assert.NotEqual(t, a.Key, b.Key)
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/storage")
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "../etc/passwd", "/abs/path", "products/../../x", "products//a.png"} {
		err := store.Delete(ctx, key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}

	_, err = store.Put(ctx, "../outside", &Upload{Data: pngHeader})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestLocalStore_CanceledContext(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/storage")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Put(ctx, "products", &Upload{Data: pngHeader})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalStore_StagesOutsideServedRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "public")
	store, err := NewLocalStore(root, "/storage")
	require.NoError(t, err)

	rel, err := filepath.Rel(root, store.tmp)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, ".."), "staging dir %s is inside %s", store.tmp, root)

	asset, err := store.Put(context.Background(), "products", &Upload{Data: pngHeader})
	require.NoError(t, err)

	var served []string
	require.NoError(t, filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			r, _ := filepath.Rel(root, p)
			served = append(served, filepath.ToSlash(r))
		}
		return err
	}))
	assert.Equal(t, []string{asset.Key}, served)

	leftovers, err := os.ReadDir(store.tmp)
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}
