package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesense-dev/codesense/domain/blob"
)

func TestFilesystemStore_PutGetRoundTrip(t *testing.T) {
	store := NewFilesystemStore(t.TempDir())
	key := "github.com/acme/widget/deadbeef/source_tree"

	err := store.Put(context.Background(), key, blob.Object{Content: []byte("tarball"), ContentType: "application/gzip"})
	require.NoError(t, err)

	obj, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, []byte("tarball"), obj.Content)
	assert.Equal(t, "application/gzip", obj.ContentType)
}

func TestFilesystemStore_GetMissingReturnsNotFound(t *testing.T) {
	store := NewFilesystemStore(t.TempDir())
	_, err := store.Get(context.Background(), "missing/key")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestFilesystemStore_ListByPrefix(t *testing.T) {
	store := NewFilesystemStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "acme/widget/sha1/source_tree", blob.Object{Content: []byte("a")}))
	require.NoError(t, store.Put(ctx, "acme/widget/sha1/manifest", blob.Object{Content: []byte("b")}))
	require.NoError(t, store.Put(ctx, "acme/other/sha2/manifest", blob.Object{Content: []byte("c")}))

	keys, err := store.List(ctx, "acme/widget/sha1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"acme/widget/sha1/source_tree", "acme/widget/sha1/manifest"}, keys)
}

func TestFilesystemStore_DeletePrefixRemovesAllMatching(t *testing.T) {
	store := NewFilesystemStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "acme/widget/sha1/source_tree", blob.Object{Content: []byte("a")}))
	require.NoError(t, store.Put(ctx, "acme/widget/sha1/manifest", blob.Object{Content: []byte("b")}))

	require.NoError(t, store.Delete(ctx, "acme/widget/sha1"))

	_, err := store.Get(ctx, "acme/widget/sha1/source_tree")
	assert.ErrorIs(t, err, blob.ErrNotFound)
	_, err = store.Get(ctx, "acme/widget/sha1/manifest")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestFilesystemStore_KeyEscapeRejected(t *testing.T) {
	store := NewFilesystemStore(t.TempDir())
	_, err := store.Get(context.Background(), "../../etc/passwd")
	assert.Error(t, err)
}
