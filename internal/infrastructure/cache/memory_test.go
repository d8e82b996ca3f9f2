package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tarkovlens/scanner/internal/domain"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		c := NewMemoryCache()
		if err := c.Set(ctx, "key", "value", time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := c.Get(ctx, "key")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "value" {
			t.Errorf("Get = %v, want value", got)
		}
	})

	t.Run("missing key returns ErrCacheMiss", func(t *testing.T) {
		c := NewMemoryCache()
		_, err := c.Get(ctx, "absent")
		if !errors.Is(err, domain.ErrCacheMiss) {
			t.Errorf("error = %v, want ErrCacheMiss", err)
		}
	})

	t.Run("expired entry returns ErrCacheMiss", func(t *testing.T) {
		now := time.Now()
		c := NewMemoryCache(WithClock(func() time.Time { return now }))

		if err := c.Set(ctx, "key", "value", time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		now = now.Add(2 * time.Minute)
		_, err := c.Get(ctx, "key")
		if !errors.Is(err, domain.ErrCacheMiss) {
			t.Errorf("error = %v, want ErrCacheMiss after expiry", err)
		}
	})

	t.Run("entry survives until TTL", func(t *testing.T) {
		now := time.Now()
		c := NewMemoryCache(WithClock(func() time.Time { return now }))

		if err := c.Set(ctx, "key", 42, time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		now = now.Add(59 * time.Second)
		got, err := c.Get(ctx, "key")
		if err != nil {
			t.Fatalf("Get failed before expiry: %v", err)
		}
		if got != 42 {
			t.Errorf("Get = %v, want 42", got)
		}
	})

	t.Run("delete removes entry", func(t *testing.T) {
		c := NewMemoryCache()
		_ = c.Set(ctx, "key", "value", time.Minute)
		_ = c.Delete(ctx, "key")
		if _, err := c.Get(ctx, "key"); !errors.Is(err, domain.ErrCacheMiss) {
			t.Errorf("error = %v, want ErrCacheMiss after delete", err)
		}
	})

	t.Run("clear empties the cache", func(t *testing.T) {
		c := NewMemoryCache()
		_ = c.Set(ctx, "a", 1, time.Minute)
		_ = c.Set(ctx, "b", 2, time.Minute)
		c.Clear()
		if c.Size() != 0 {
			t.Errorf("Size = %d after Clear, want 0", c.Size())
		}
	})
}
