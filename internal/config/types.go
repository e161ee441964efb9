package config

import "time"

type Config struct {
	DiscordToken string         `yaml:"discord_token"`
	OwnerID      string         `yaml:"owner_id"`
	Prefix       string         `yaml:"prefix"`
	LogLevel     string         `yaml:"log_level"`
	BotStatus    string         `yaml:"bot_status"` // online/dnd/idle
	BotActivity  string         `yaml:"bot_activity"`
	Database     DatabaseConfig `yaml:"database"`
	AFK          AFKConfig      `yaml:"afk"`
	Music        MusicConfig    `yaml:"music"`
	Spotify      SpotifyConfig  `yaml:"spotify"`
	Health       HealthConfig   `yaml:"health"`
	RateLimit    RateConfig     `yaml:"rate_limit"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite3, sqlite or pgx
	DSN    string `yaml:"dsn"`
}

type AFKConfig struct {
	Scope string `yaml:"scope"` // guild or global
}

type MusicConfig struct {
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	ResolveTTL     time.Duration `yaml:"resolve_ttl"`
	BitrateKbps    int           `yaml:"bitrate_kbps"`
	YtdlpInstall   bool          `yaml:"ytdlp_install"`
	YtdlpCookies   string        `yaml:"ytdlp_cookies"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// RateConfig bounds how many commands a single user can issue.
type RateConfig struct {
	PerMinute int `yaml:"per_minute"`
	Burst     int `yaml:"burst"`
}

const (
	ScopeGuild  = "guild"
	ScopeGlobal = "global"
)
