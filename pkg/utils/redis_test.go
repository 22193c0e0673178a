package utils

import (
	"context"
	"testing"
	"time"
)

func TestRedisConfigDefaults(t *testing.T) {
	cfg := RedisConfig{Addr: "localhost:6379"}.withDefaults()
	if cfg.DialTimeout != 3*time.Second {
		t.Fatalf("expected dial timeout default, got %v", cfg.DialTimeout)
	}
	if cfg.PoolSize != 20 {
		t.Fatalf("expected pool size default, got %d", cfg.PoolSize)
	}
	if cfg.PingTimeout != 2*time.Second {
		t.Fatalf("expected ping timeout default, got %v", cfg.PingTimeout)
	}
}

func TestOpenRedisRequiresAddr(t *testing.T) {
	if _, err := OpenRedis(context.Background(), RedisConfig{}); err == nil {
		t.Fatalf("expected error for missing addr")
	}
}
