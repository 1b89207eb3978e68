package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// New creates a new Redis client.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping: %w", err)
	}

	return client, nil
}

// Blobs stores opaque byte values under a key prefix with a fixed TTL.
type Blobs struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewBlobs wraps client. A zero ttl keeps entries until evicted.
func NewBlobs(client *redis.Client, prefix string, ttl time.Duration) *Blobs {
	return &Blobs{client: client, prefix: prefix, ttl: ttl}
}

func (b *Blobs) key(k string) string {
	return b.prefix + ":" + k
}

// Get returns the value for k. A miss is (nil, false, nil).
func (b *Blobs) Get(ctx context.Context, k string) ([]byte, bool, error) {
	data, err := b.client.Get(ctx, b.key(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("platform/cache: get %s: %w", k, err)
	}
	return data, true, nil
}

// Set stores data under k.
func (b *Blobs) Set(ctx context.Context, k string, data []byte) error {
	if err := b.client.Set(ctx, b.key(k), data, b.ttl).Err(); err != nil {
		return fmt.Errorf("platform/cache: set %s: %w", k, err)
	}
	return nil
}
