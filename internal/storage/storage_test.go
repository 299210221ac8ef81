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

func TestLocalStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	st := NewLocalStorage(dir, "http://localhost:4000/media/")
	ctx := context.Background()

	url, err := st.Upload(ctx, "listings", "u1/a.png", []byte("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4000/media/listings/u1/a.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "listings", "u1", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	bucket, path, ok := st.ObjectPath(url)
	require.True(t, ok)
	assert.Equal(t, "listings", bucket)
	assert.Equal(t, "u1/a.png", path)

	require.NoError(t, st.Delete(ctx, bucket, path))
	_, err = os.Stat(filepath.Join(dir, "listings", "u1", "a.png"))
	assert.True(t, os.IsNotExist(err))

	// Second delete is a no-op.
	assert.NoError(t, st.Delete(ctx, bucket, path))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	st := NewLocalStorage(t.TempDir(), "http://x")
	ctx := context.Background()
	for _, p := range []string{"../etc/passwd", "a/../../b", "", "a//b"} {
		_, err := st.Upload(ctx, "listings", p, []byte("x"), "image/png")
		assert.ErrorIs(t, err, ErrInvalidPath, p)
	}
	_, err := st.Upload(ctx, "..", "a.png", []byte("x"), "image/png")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestObjectPathForeignURL(t *testing.T) {
	st := NewLocalStorage(t.TempDir(), "http://localhost:4000/media")
	_, _, ok := st.ObjectPath("https://cdn.example.com/listings/a.png")
	assert.False(t, ok)
	_, _, ok = st.ObjectPath("http://localhost:4000/media/listings")
	assert.False(t, ok)
}

func TestS3PublicURL(t *testing.T) {
	st, err := NewS3Storage(S3Config{Endpoint: "https://object.example.io/", Region: "us-east-1", AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)
	url := st.PublicURL("avatars", "/u1/me.jpg")
	assert.Equal(t, "https://object.example.io/avatars/u1/me.jpg", url)

	bucket, path, ok := st.ObjectPath(url)
	require.True(t, ok)
	assert.Equal(t, "avatars", bucket)
	assert.Equal(t, "u1/me.jpg", path)
}

func TestObjectKey(t *testing.T) {
	a := ObjectKey("/u1/", ".png")
	b := ObjectKey("u1", ".png")
	assert.True(t, strings.HasPrefix(a, "u1/"))
	assert.True(t, strings.HasSuffix(a, ".png"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, strings.ToLower(a), a)
	assert.False(t, strings.Contains(ObjectKey("", ".jpg"), "/"))
}
