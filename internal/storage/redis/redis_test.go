package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/glass-bazaar/internal/domain/cart"
	"github.com/xenking/glass-bazaar/internal/storage"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*KV, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "bazaar:", ttl), mr
}

func TestKV_Get_NotFound(t *testing.T) {
	kv, _ := setupTestRedis(t, time.Hour)

	_, err := kv.Get(context.Background(), "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestKV_SetGet(t *testing.T) {
	ctx := context.Background()
	kv, mr := setupTestRedis(t, time.Hour)

	require.NoError(t, kv.Set(ctx, "s1:cart", []byte(`[]`)))

	got, err := kv.Get(ctx, "s1:cart")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	raw, err := mr.Get("bazaar:s1:cart")
	require.NoError(t, err)
	assert.Equal(t, `[]`, raw)
	assert.Equal(t, time.Hour, mr.TTL("bazaar:s1:cart"))
}

func TestKV_Expiry(t *testing.T) {
	ctx := context.Background()
	kv, mr := setupTestRedis(t, time.Minute)

	require.NoError(t, kv.Set(ctx, "k", []byte("v")))
	mr.FastForward(2 * time.Minute)

	_, err := kv.Get(ctx, "k")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestKV_NoTTL(t *testing.T) {
	kv, mr := setupTestRedis(t, 0)

	require.NoError(t, kv.Set(context.Background(), "k", []byte("v")))
	assert.Zero(t, mr.TTL("bazaar:k"))
}

func TestKV_ConnectionError(t *testing.T) {
	ctx := context.Background()
	kv, mr := setupTestRedis(t, time.Hour)
	mr.Close()

	_, err := kv.Get(ctx, "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
	assert.Contains(t, err.Error(), "redis get")

	err = kv.Set(ctx, "k", []byte("v"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set")
	require.Error(t, kv.Ping(ctx))
}

func TestKV_MalformedCartSnapshot(t *testing.T) {
	ctx := context.Background()
	kv, mr := setupTestRedis(t, time.Hour)
	require.NoError(t, mr.Set("bazaar:s1:cart", "{broken"))

	s, err := cart.Open(ctx, storage.Namespace(kv, "s1"))
	require.NoError(t, err)
	assert.Empty(t, s.Items())
}
