package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/glass-bazaar/internal/domain/cart"
	"github.com/xenking/glass-bazaar/internal/domain/product"
	"github.com/xenking/glass-bazaar/internal/storage"
)

func openTestKV(t *testing.T, path string) *KV {
	t.Helper()
	kv, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestKV_GetMissing(t *testing.T) {
	kv := openTestKV(t, filepath.Join(t.TempDir(), "bazaar.db"))

	_, err := kv.Get(context.Background(), "nope")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestKV_SetOverwrites(t *testing.T) {
	ctx := context.Background()
	kv := openTestKV(t, filepath.Join(t.TempDir(), "bazaar.db"))

	require.NoError(t, kv.Set(ctx, "k", []byte("one")))
	require.NoError(t, kv.Set(ctx, "k", []byte("two")))

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))
	require.NoError(t, kv.Ping(ctx))
}

func TestKV_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bazaar.db")

	first, err := Open(ctx, path)
	require.NoError(t, err)

	s, err := cart.Open(ctx, storage.Namespace(first, "session-1"))
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, product.Product{ID: 3, Name: "Bud Vase"}))
	require.NoError(t, s.Add(ctx, product.Product{ID: 3, Name: "Bud Vase"}))
	require.NoError(t, first.Close())

	second := openTestKV(t, path)
	reopened, err := cart.Open(ctx, storage.Namespace(second, "session-1"))
	require.NoError(t, err)

	items := reopened.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Bud Vase", items[0].Name)
	assert.Equal(t, 2, items[0].Quantity)
}
