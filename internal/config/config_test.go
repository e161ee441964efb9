package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DISCORD_TOKEN", "")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error without token")
	}
	if _, ok := err.(ErrConfig); !ok {
		t.Fatalf("expected ErrConfig, got %T", err)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
discord_token: from-file
prefix: "!"
afk:
  scope: global
music:
  idle_timeout: 2m
database:
  driver: sqlite
  dsn: /tmp/x.db
`)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("PREFIX", "?")
	t.Setenv("PORT", "8081")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DiscordToken != "from-file" {
		t.Fatalf("expected token from file, got %q", cfg.DiscordToken)
	}
	if cfg.Prefix != "?" {
		t.Fatalf("expected env prefix to win, got %q", cfg.Prefix)
	}
	if cfg.AFK.Scope != ScopeGlobal {
		t.Fatalf("expected global scope, got %q", cfg.AFK.Scope)
	}
	if cfg.Music.IdleTimeout != 2*time.Minute {
		t.Fatalf("expected 2m idle timeout, got %v", cfg.Music.IdleTimeout)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("expected sqlite driver, got %q", cfg.Database.Driver)
	}
	if cfg.Health.Addr != ":8081" {
		t.Fatalf("expected PORT to set health addr, got %q", cfg.Health.Addr)
	}
}

func TestValidateRejectsUnknownScopeAndDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DiscordToken = "x"

	cfg.AFK.Scope = "channel"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected scope error")
	}

	cfg.AFK.Scope = ScopeGuild
	cfg.Database.Driver = "mysql"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected driver error")
	}
}

func TestBuildLoggerFallsBackToInfo(t *testing.T) {
	logger, err := BuildLogger("loud")
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}
	if logger.Core().Enabled(-1) {
		t.Fatalf("expected debug to be disabled")
	}
}
