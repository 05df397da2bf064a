package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"travel-scout/config"
	"travel-scout/models"

	"github.com/redis/go-redis/v9"
)

const (
	signalKeyPrefix   = "travel-scout:signal:"
	connectionTimeout = 5 * time.Second
)

// ErrEmptyAddress is returned when no Redis address is configured
var ErrEmptyAddress = errors.New("redis address is required")

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// SignalCache keeps review signals in Redis, keyed by a hash of the review text
type SignalCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSignalCache creates a SignalCache. A non-positive ttl keeps entries forever.
func NewSignalCache(client *redis.Client, ttl time.Duration) *SignalCache {
	if ttl < 0 {
		ttl = 0
	}
	return &SignalCache{client: client, ttl: ttl}
}

// GetSignal returns the cached signal for text, if any
func (c *SignalCache) GetSignal(ctx context.Context, text string) (models.ReviewSignal, bool, error) {
	data, err := c.client.Get(ctx, signalKey(text)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.ReviewSignal{}, false, nil
	}
	if err != nil {
		return models.ReviewSignal{}, false, fmt.Errorf("redis get: %w", err)
	}

	var signal models.ReviewSignal
	if err := json.Unmarshal(data, &signal); err != nil {
		return models.ReviewSignal{}, false, fmt.Errorf("decode cached signal: %w", err)
	}
	if signal.Keywords == nil {
		signal.Keywords = []string{}
	}
	return signal, true, nil
}

// SetSignal stores signal for text
func (c *SignalCache) SetSignal(ctx context.Context, text string, signal models.ReviewSignal) error {
	data, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("encode signal: %w", err)
	}
	if err := c.client.Set(ctx, signalKey(text), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func signalKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return signalKeyPrefix + hex.EncodeToString(sum[:])
}
