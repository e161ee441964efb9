package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }

func DefaultConfig() Config {
	return Config{
		Prefix:      "$",
		LogLevel:    "info",
		BotStatus:   "online",
		BotActivity: "$help",
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "./data/warden.db",
		},
		AFK: AFKConfig{Scope: ScopeGuild},
		Music: MusicConfig{
			IdleTimeout:    5 * time.Minute,
			ResolveTTL:     5 * time.Hour,
			BitrateKbps:    160,
			YtdlpInstall:   true,
			ConnectTimeout: 10 * time.Second,
		},
		Health:    HealthConfig{Enabled: true, Addr: ":10000", Path: "/"},
		RateLimit: RateConfig{PerMinute: 20, Burst: 5},
	}
}

// Load reads .env, then config.yaml (or CONFIG_PATH), then environment overrides.
func Load() (Config, error) {
	// a missing .env is normal in containers
	_ = godotenv.Load()

	cfg := DefaultConfig()

	path := getenv("CONFIG_PATH", "config.yaml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DiscordToken == "" {
		return ErrConfig("DISCORD_TOKEN required")
	}
	if strings.TrimSpace(c.Prefix) == "" {
		return ErrConfig("prefix must not be empty")
	}
	switch c.AFK.Scope {
	case ScopeGuild, ScopeGlobal:
	default:
		return ErrConfig("afk.scope must be guild or global, got " + strconv.Quote(c.AFK.Scope))
	}
	switch c.Database.Driver {
	case "sqlite3", "sqlite", "pgx":
	default:
		return ErrConfig("database.driver must be sqlite3, sqlite or pgx, got " + strconv.Quote(c.Database.Driver))
	}
	if c.Database.DSN == "" {
		return ErrConfig("database.dsn required")
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = getenv("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.OwnerID = getenv("OWNER_ID", cfg.OwnerID)
	cfg.Prefix = getenv("PREFIX", cfg.Prefix)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.BotStatus = getenv("BOT_STATUS", cfg.BotStatus)
	cfg.BotActivity = getenv("BOT_ACTIVITY", cfg.BotActivity)
	cfg.Database.Driver = getenv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getenv("DB_DSN", cfg.Database.DSN)
	cfg.AFK.Scope = strings.ToLower(getenv("AFK_SCOPE", cfg.AFK.Scope))
	cfg.Music.IdleTimeout = getenvDuration("IDLE_TIMEOUT", cfg.Music.IdleTimeout)
	cfg.Music.YtdlpCookies = getenv("YTDLP_COOKIES", cfg.Music.YtdlpCookies)
	cfg.Spotify.ClientID = getenv("SPOTIFY_CLIENT_ID", cfg.Spotify.ClientID)
	cfg.Spotify.ClientSecret = getenv("SPOTIFY_CLIENT_SECRET", cfg.Spotify.ClientSecret)
	cfg.Health.Enabled = getenvBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = getenv("HEALTH_ADDR", cfg.Health.Addr)
	if port := os.Getenv("PORT"); port != "" {
		cfg.Health.Addr = ":" + port
	}
	cfg.RateLimit.PerMinute = getenvInt("COMMAND_RATE", cfg.RateLimit.PerMinute)
	cfg.RateLimit.Burst = getenvInt("COMMAND_BURST", cfg.RateLimit.Burst)
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func getenvInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	val := strings.ToLower(os.Getenv(key))
	if val == "" {
		return def
	}
	return val == "1" || val == "true" || val == "yes"
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return def
}
