package blob

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), 1024)
	require.NoError(t, err)

	n, err := store.Store(context.Background(), "c-1/a-1/report.txt", strings.NewReader("router logs"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)

	rc, err := store.Open(context.Background(), "c-1/a-1/report.txt")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "router logs", string(body))
}

func TestLocalStoreRejectsOversizedFiles(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), 4)
	require.NoError(t, err)

	_, err = store.Store(context.Background(), "big.bin", strings.NewReader("too many bytes"))
	require.ErrorIs(t, err, ErrTooLarge)

	_, err = store.Open(context.Background(), "big.bin")
	assert.Error(t, err)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = store.Store(context.Background(), "../escape", strings.NewReader("x"))
	assert.Error(t, err)
	assert.NoError(t, store.Delete(context.Background(), "never-written"))
}
