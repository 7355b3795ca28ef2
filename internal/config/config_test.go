package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TICKET_DELETE_DELAY_SECONDS", "")
	t.Setenv("APP_PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Tickets.DeleteDelay(); got != 5*time.Second {
		t.Errorf("DeleteDelay = %v", got)
	}
	if got := cfg.Tickets.CreateAttempts; got != 2 {
		t.Errorf("CreateAttempts = %d", got)
	}
	if got := cfg.App.Addr(); got != "0.0.0.0:8080" {
		t.Errorf("Addr = %s", got)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TICKET_DELETE_DELAY_SECONDS", "0")
	t.Setenv("TICKET_CREATE_LOCK_SECONDS", "nope")
	t.Setenv("DISCORD_BOT_TOKEN", "token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Tickets.DeleteDelay(); got != 0 {
		t.Errorf("DeleteDelay = %v", got)
	}
	if got := cfg.Tickets.CreateLockTTL(); got != 30*time.Second {
		t.Errorf("CreateLockTTL = %v", got)
	}
	if cfg.Discord.BotToken != "token" {
		t.Errorf("BotToken = %q", cfg.Discord.BotToken)
	}
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "one")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}
