package stats

import (
	"context"
	"testing"
	"time"
)

func TestNewRedisStore_InvalidURL(t *testing.T) {
	if _, err := NewRedisStore(context.Background(), "not-a-redis-url", "key"); err == nil {
		t.Error("Expected error for invalid redis URL")
	}
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := NewRedisStore(ctx, "redis://127.0.0.1:1/0", "key"); err == nil {
		t.Error("Expected error for unreachable redis")
	}
}
