package repository

import (
	"database/sql"
	"time"
)

type Repo struct {
	db       *sql.DB
	numbered bool // postgres wants $1 placeholders
	now      func() time.Time
}

type WhitelistEntry struct {
	GuildID   string
	UserID    string
	Category  string
	CreatedAt time.Time
}

// AFKRecord is keyed by scope, which is either a guild id or "global".
type AFKRecord struct {
	Scope  string
	UserID string
	Reason string
	Since  time.Time
}
