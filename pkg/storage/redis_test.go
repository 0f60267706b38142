//go:build integration

package storage

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/HatiCode/millboard/pkg/mill"
)

// setupRedisContainer starts a Redis container for testing
func setupRedisContainer(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	redisContainer, err := redis.Run(ctx,
		"redis:7-alpine",
		redis.WithLogLevel(redis.LogLevelVerbose),
	)
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	endpoint, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}

	return strings.TrimPrefix(endpoint, "redis://")
}

func TestRedisStore_NewRedisStore_Errors(t *testing.T) {
	if _, err := NewRedisStore("", "", 0, time.Minute); err == nil {
		t.Error("expected error for empty address")
	}
	if _, err := NewRedisStore("localhost:6379", "", -1, time.Minute); err == nil {
		t.Error("expected error for negative db")
	}
	if _, err := NewRedisStore("localhost:6379", "", 0, -time.Minute); err == nil {
		t.Error("expected error for negative ttl")
	}
	if _, err := NewRedisStore("localhost:1", "", 0, time.Minute); err == nil {
		t.Error("expected error for unreachable redis")
	}
}

func TestRedisStore_PutGet(t *testing.T) {
	addr := setupRedisContainer(t)

	store, err := NewRedisStore(addr, "", 0, time.Minute)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	want := testDataset("redis-1", time.Now().UTC().Truncate(time.Second))
	if err := store.Put(ctx, "default", want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, found, err := store.Get(ctx, "default")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("Get() found = false")
	}
	if got.ID != want.ID || !got.GeneratedAt.Equal(want.GeneratedAt) {
		t.Errorf("Get() = %s/%v, want %s/%v", got.ID, got.GeneratedAt, want.ID, want.GeneratedAt)
	}
	if len(got.Observations) != 2 {
		t.Fatalf("observations = %d, want 2", len(got.Observations))
	}
	if got.Observations[0].Breakdown != want.Observations[0].Breakdown {
		t.Errorf("breakdown changed in round trip: %v vs %v", got.Observations[0].Breakdown, want.Observations[0].Breakdown)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("decoded dataset invalid: %v", err)
	}
}

func TestRedisStore_Get_NotFound(t *testing.T) {
	addr := setupRedisContainer(t)

	store, err := NewRedisStore(addr, "", 0, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	_, found, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Errorf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() found = true for missing key")
	}
}

func TestRedisStore_TTL(t *testing.T) {
	addr := setupRedisContainer(t)

	store, err := NewRedisStore(addr, "", 0, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Put(ctx, "short", testDataset("ttl", time.Now())); err != nil {
		t.Fatal(err)
	}
	if remaining, err := store.TTL(ctx, "short"); err != nil || remaining <= 0 || remaining > time.Second {
		t.Errorf("TTL() = %v, %v; want (0, 1s]", remaining, err)
	}

	time.Sleep(2 * time.Second)

	if _, found, _ := store.Get(ctx, "short"); found {
		t.Error("dataset should have expired")
	}
}

func TestRedisStore_Validation(t *testing.T) {
	addr := setupRedisContainer(t)

	store, err := NewRedisStore(addr, "", 0, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Put(ctx, "bad name", testDataset("x", time.Now())); err == nil {
		t.Error("Put() should reject invalid name")
	}
	if err := store.Put(ctx, "empty", mill.Dataset{}); err == nil {
		t.Error("Put() should reject empty dataset")
	}
	if _, _, err := store.Get(ctx, "bad:name"); err == nil {
		t.Error("Get() should reject invalid name")
	}
}

func TestRedisStore_ConcurrentReaders(t *testing.T) {
	addr := setupRedisContainer(t)

	store, err := NewRedisStore(addr, "", 0, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Put(ctx, "shared", testDataset("shared", time.Now())); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, found, err := store.Get(ctx, "shared"); err != nil || !found {
				t.Errorf("Get() = found %v, err %v", found, err)
			}
		}()
	}
	wg.Wait()
}

func TestRedisStore_CloseTwice(t *testing.T) {
	addr := setupRedisContainer(t)

	store, err := NewRedisStore(addr, "", 0, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestRedisStore_RejectsForeignPayload(t *testing.T) {
	addr := setupRedisContainer(t)

	store, err := NewRedisStore(addr, "", 0, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.client.Set(ctx, redisKey("legacy"), `{"v":0,"dataset":{}}`, time.Minute).Err(); err != nil {
		t.Fatal(err)
	}
	if err := store.client.Set(ctx, redisKey("garbage"), `not json`, time.Minute).Err(); err != nil {
		t.Fatal(err)
	}

	if _, _, err := store.Get(ctx, "legacy"); err == nil || !strings.Contains(err.Error(), "version") {
		t.Errorf("Get(legacy) error = %v, want version mismatch", err)
	}
	if _, _, err := store.Get(ctx, "garbage"); err == nil {
		t.Error("Get(garbage) should fail to decode")
	}
}
