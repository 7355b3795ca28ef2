package persistence_test

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/ticketbot/internal/config"
	"github.com/spec-kit/ticketbot/internal/persistence"
)

func TestNewRedisLogsUnreachableServer(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	rdb := persistence.NewRedis(config.RedisConfig{Addr: "127.0.0.1:1"}, zap.New(core))
	defer rdb.Close()

	if rdb.Client == nil {
		t.Fatal("expected a client even when the ping fails")
	}
	entries := logs.FilterMessageSnippet("redis unreachable").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
	if addr := entries[0].ContextMap()["addr"]; addr != "127.0.0.1:1" {
		t.Fatalf("addr = %v", addr)
	}
}
