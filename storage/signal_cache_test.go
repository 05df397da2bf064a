package storage

import (
	"context"
	"testing"
	"time"

	"travel-scout/config"
	"travel-scout/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*SignalCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSignalCache(client, ttl), mr
}

func TestSignalCache_RoundTrip(t *testing.T) {
	cache, mr := newTestCache(t, time.Hour)
	ctx := context.Background()

	_, ok, err := cache.GetSignal(ctx, "Lovely place")
	require.NoError(t, err)
	assert.False(t, ok)

	want := models.ReviewSignal{Sentiment: models.SentimentPositive, Keywords: []string{"lovely", "place"}}
	require.NoError(t, cache.SetSignal(ctx, "Lovely place", want))

	got, ok, err := cache.GetSignal(ctx, "Lovely place")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	key := signalKey("Lovely place")
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))

	mr.FastForward(2 * time.Hour)
	_, ok, err = cache.GetSignal(ctx, "Lovely place")
	require.NoError(t, err)
	assert.False(t, ok, "entries expire after the ttl")
}

func TestSignalCache_KeysByText(t *testing.T) {
	assert.NotEqual(t, signalKey("a"), signalKey("b"))
	assert.Equal(t, signalKey("a"), signalKey("a"))
	assert.Contains(t, signalKey("a"), signalKeyPrefix)
}

func TestSignalCache_CorruptEntry(t *testing.T) {
	cache, mr := newTestCache(t, 0)
	require.NoError(t, mr.Set(signalKey("x"), "not json"))

	_, ok, err := cache.GetSignal(context.Background(), "x")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestSignalCache_ServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	cache := NewSignalCache(client, time.Hour)
	mr.Close()

	_, ok, err := cache.GetSignal(context.Background(), "x")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestNewRedisClient(t *testing.T) {
	_, err := NewRedisClient(config.RedisConfig{})
	assert.ErrorIs(t, err, ErrEmptyAddress)

	mr := miniredis.RunT(t)
	client, err := NewRedisClient(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	assert.NoError(t, client.Close())
}
