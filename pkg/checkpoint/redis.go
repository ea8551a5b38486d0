package checkpoint

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	sieveerr "github.com/logsieve/logsieve/pkg/errors"
)

// RedisStore shares completion entries between hosts, so a fleet of
// collectors does not re-validate files another node already processed.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces keys; defaults to "logsieve:ckpt:".
	Prefix string
	// TTL expires entries so the keyspace does not grow without bound.
	// Zero means no expiry.
	TTL time.Duration
}

// NewRedisStore connects and verifies the server is reachable.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, sieveerr.Wrap(err, sieveerr.CodeTimeout, "cannot reach redis checkpoint backend")
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "logsieve:ckpt:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: opts.TTL}, nil
}

func (s *RedisStore) Seen(ctx context.Context, fingerprint string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+fingerprint).Result()
	if err != nil {
		return false, sieveerr.Wrap(err, sieveerr.CodeTimeout, "checkpoint lookup failed")
	}
	return n > 0, nil
}

func (s *RedisStore) Mark(ctx context.Context, e Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return sieveerr.Wrap(err, sieveerr.CodeEncodingError, "cannot encode checkpoint entry")
	}
	if err := s.client.Set(ctx, s.prefix+e.Fingerprint, payload, s.ttl).Err(); err != nil {
		return sieveerr.Wrap(err, sieveerr.CodeTimeout, "checkpoint write failed")
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
