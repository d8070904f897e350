package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, "test:lock"), mr
}

func TestRedisLockerExclusive(t *testing.T) {
	locker, _ := newLocker(t)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "sweep", time.Minute)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := locker.Acquire(ctx, "sweep", time.Minute); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("second acquire should fail, got %v", err)
	}
	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := locker.Acquire(ctx, "sweep", time.Minute); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func TestRedisLockerExpiredReleaseKeepsNewHolder(t *testing.T) {
	locker, mr := newLocker(t)
	ctx := context.Background()

	staleRelease, err := locker.Acquire(ctx, "sweep", time.Second)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	mr.FastForward(2 * time.Second)

	if _, err := locker.Acquire(ctx, "sweep", time.Minute); err != nil {
		t.Fatalf("acquire after expiry: %v", err)
	}
	if err := staleRelease(ctx); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	if _, err := locker.Acquire(ctx, "sweep", time.Minute); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("stale release must not free the new holder's lock, got %v", err)
	}
}

func TestNoopLocker(t *testing.T) {
	release, err := NoopLocker{}.Acquire(context.Background(), "sweep", time.Minute)
	if err != nil || release(context.Background()) != nil {
		t.Fatalf("noop locker should always succeed")
	}
}
