package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNoopLocker_RunsFn(t *testing.T) {
	called := false
	err := NewNoopLocker().WithLock(context.Background(), SlotKey("abc"), func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("fn was not called")
	}
}

func TestNoopLocker_PropagatesError(t *testing.T) {
	want := errors.New("boom")
	err := NewNoopLocker().WithLock(context.Background(), "k", func(ctx context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Errorf("got %v, want %v", err, want)
	}
}

func TestSlotKey(t *testing.T) {
	if got := SlotKey("507f1f77bcf86cd799439011"); got != "slot:507f1f77bcf86cd799439011" {
		t.Errorf("SlotKey() = %q", got)
	}
}

func TestRedisLocker_UnreachableStore(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	called := false
	err := NewRedisLocker(client, time.Second).WithLock(context.Background(), SlotKey("abc"), func(ctx context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrLockUnavailable) {
		t.Fatalf("got %v, want ErrLockUnavailable", err)
	}
	if errors.Is(err, ErrLockNotAcquired) {
		t.Error("transport failure must not look like a held lock")
	}
	if called {
		t.Error("fn must not run when the lock was not taken")
	}
}
