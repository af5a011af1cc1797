package overrides

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "bellhartBookings", zap.NewNop()), mr
}

func TestRedisStoreMissingKey(t *testing.T) {
	store, _ := newTestRedisStore(t)

	overrides, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, overrides)
	assert.Empty(t, overrides)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	want := sampleOverrides()
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Save replaces the whole blob under the one key.
	delete(want, "slot-w")
	require.NoError(t, store.Save(ctx, want))

	got, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got, "slot-a")
}

func TestRedisStoreCorruptBlob(t *testing.T) {
	store, mr := newTestRedisStore(t)
	require.NoError(t, mr.Set("bellhartBookings", "{not json"))

	overrides, err := store.Load(context.Background())
	require.NoError(t, err, "corrupt blobs fail soft")
	assert.Empty(t, overrides)
}

func TestRedisStoreBackendDown(t *testing.T) {
	store, mr := newTestRedisStore(t)
	mr.Close()

	_, err := store.Load(context.Background())
	assert.Error(t, err, "transport failures surface to the service")
	assert.Error(t, store.Save(context.Background(), sampleOverrides()))
	assert.Error(t, store.Ping(context.Background()))
}

func TestRedisStorePing(t *testing.T) {
	store, _ := newTestRedisStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
