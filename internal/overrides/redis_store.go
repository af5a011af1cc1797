package overrides

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bellhart/clinic-portal/internal/schedule"
)

// RedisStore keeps the override mapping under a single Redis string
// key, mirroring the one-key blob contract of the file store.
type RedisStore struct {
	client *redis.Client
	key    string
	log    *zap.Logger
}

func NewRedisStore(client *redis.Client, key string, logger *zap.Logger) *RedisStore {
	return &RedisStore{client: client, key: key, log: logger}
}

func (s *RedisStore) Load(ctx context.Context) (map[string]schedule.Override, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return map[string]schedule.Override{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get override blob: %w", err)
	}
	return decodeBlob(data, s.log), nil
}

func (s *RedisStore) Save(ctx context.Context, overrides map[string]schedule.Override) error {
	data, err := json.Marshal(overrides)
	if err != nil {
		return fmt.Errorf("encode override blob: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("set override blob: %w", err)
	}
	return nil
}

// Ping reports backend health for the readiness endpoint.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// NewRedisClient dials Redis and verifies connectivity before the
// store is put in front of the portal.
func NewRedisClient(addr, username, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Username:     username,
		Password:     password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     4,
		MinIdleConns: 1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}
