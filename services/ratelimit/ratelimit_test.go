package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mansa/core"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(2, time.Hour)

	for i, want := range []bool{true, true, false} {
		ok, err := store.Allow("1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "hit #%d", i+1)
	}

	ok, err := store.Allow("5.6.7.8")
	require.NoError(t, err)
	assert.True(t, ok, "limits are per identifier")
}

func TestMemoryStore_refill(t *testing.T) {
	store := NewMemoryStore(10, 100*time.Millisecond)

	for i := 0; i < 10; i++ {
		ok, err := store.Allow("1.2.3.4")
		require.NoError(t, err)
		require.True(t, ok, "hit #%d", i+1)
	}
	ok, err := store.Allow("1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok, "burst exhausted")

	// one request is refilled every 10ms, well before the window ends
	time.Sleep(30 * time.Millisecond)
	ok, err = store.Allow("1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewStore(t *testing.T) {
	conf := core.ServerConfig{AuthRateLimit: 5, AuthRateWindow: time.Minute}
	assert.NotNil(t, NewStore(nil, "auth", conf))
	assert.IsType(t, &RedisStore{}, NewStore(redis.NewClient(&redis.Options{}), "auth", conf))
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client, err := NewRedisClient(context.Background(), core.RedisConfig{Addr: addr})
	require.NoError(t, err)
	defer client.Close()

	store := NewRedisStore(client, "test-"+uuid.NewString(), 2, time.Minute)
	for i, want := range []bool{true, true, false} {
		ok, err := store.Allow("1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "hit #%d", i+1)
	}
}

func TestNewRedisClient_disabled(t *testing.T) {
	client, err := NewRedisClient(context.Background(), core.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
}
