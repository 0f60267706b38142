package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HatiCode/millboard/pkg/mill"
)

// KeyPrefix namespaces dataset keys: millboard:dataset:<name>.
const KeyPrefix = "millboard:dataset:"

// DefaultRedisTTL applies when NewRedisStore is given a zero TTL.
const DefaultRedisTTL = 24 * time.Hour

// storedDataset is the Redis value. Version guards against decoding a value
// written by an incompatible build.
type storedDataset struct {
	Version int          `json:"v"`
	Dataset mill.Dataset `json:"dataset"`
}

const storedVersion = 1

// RedisStore shares one dataset between dashboard replicas. Each Put
// replaces the value and resets its expiry.
type RedisStore struct {
	mu     sync.Mutex
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore dials addr and fails unless PING succeeds within 5 seconds.
func NewRedisStore(addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	switch {
	case addr == "":
		return nil, errors.New("redis address cannot be empty")
	case db < 0:
		return nil, errors.New("redis database number must be >= 0")
	case ttl < 0:
		return nil, errors.New("redis TTL cannot be negative")
	case ttl == 0:
		ttl = DefaultRedisTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", addr, err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func redisKey(name string) string {
	return KeyPrefix + name
}

// Put implements Store.
func (r *RedisStore) Put(ctx context.Context, name string, ds mill.Dataset) error {
	if err := validate(name, ds); err != nil {
		return err
	}

	payload, err := json.Marshal(storedDataset{Version: storedVersion, Dataset: ds})
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}

	if err := r.client.Set(ctx, redisKey(name), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", redisKey(name), err)
	}
	return nil
}

// Get implements Store. A missing or expired key is reported as not found.
func (r *RedisStore) Get(ctx context.Context, name string) (mill.Dataset, bool, error) {
	if err := validateName(name); err != nil {
		return mill.Dataset{}, false, err
	}

	payload, err := r.client.Get(ctx, redisKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return mill.Dataset{}, false, nil
	}
	if err != nil {
		return mill.Dataset{}, false, fmt.Errorf("redis GET %s: %w", redisKey(name), err)
	}

	var stored storedDataset
	if err := json.Unmarshal(payload, &stored); err != nil {
		return mill.Dataset{}, false, fmt.Errorf("decode dataset: %w", err)
	}
	if stored.Version != storedVersion {
		return mill.Dataset{}, false, fmt.Errorf("dataset %q has version %d, want %d", name, stored.Version, storedVersion)
	}

	return stored.Dataset, true, nil
}

// TTL returns the remaining lifetime of name, or 0 if it does not exist.
func (r *RedisStore) TTL(ctx context.Context, name string) (time.Duration, error) {
	d, err := r.client.TTL(ctx, redisKey(name)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis TTL %s: %w", redisKey(name), err)
	}
	if d < 0 {
		return 0, nil
	}
	return d, nil
}

// Ping checks the connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client. Repeated calls return nil.
func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	return err
}
