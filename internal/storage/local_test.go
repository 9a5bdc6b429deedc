package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "abc-123_guide.pdf", ObjectKey("abc-123", "guide.pdf"))
}

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	content := "hello knowledge base"

	path, err := store.Save(ctx, "f1_doc.txt", strings.NewReader(content), int64(len(content)), "text/plain")
	require.NoError(t, err)
	assert.NotEmpty(t, path)

	reader, err := store.Open(ctx, "f1_doc.txt")
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestLocalStoreOpenMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open(context.Background(), "nope.txt")
	assert.Error(t, err)
}
