package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"
)

func NewRepo(db *sql.DB, driver string) *Repo {
	return &Repo{db: db, numbered: driver == "pgx", now: time.Now}
}

func (r *Repo) Close() error { return r.db.Close() }

// q rewrites ? placeholders into $n for postgres.
func (r *Repo) q(query string) string {
	if !r.numbered {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

func (r *Repo) Categories(ctx context.Context, guildID, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, r.q(
		`SELECT category FROM whitelist WHERE guild_id = ? AND user_id = ? ORDER BY category ASC`),
		guildID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddWhitelist inserts the triple; added is false when it already existed.
func (r *Repo) AddWhitelist(ctx context.Context, guildID, userID, category string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.q(
		`INSERT INTO whitelist(guild_id, user_id, category, created_at) VALUES (?,?,?,?)
		 ON CONFLICT (guild_id, user_id, category) DO NOTHING`),
		guildID, userID, category, r.now().Unix(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RemoveWhitelist deletes the triple; a missing row is not an error.
func (r *Repo) RemoveWhitelist(ctx context.Context, guildID, userID, category string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.q(
		`DELETE FROM whitelist WHERE guild_id = ? AND user_id = ? AND category = ?`),
		guildID, userID, category,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repo) ListWhitelist(ctx context.Context, guildID string) ([]WhitelistEntry, error) {
	rows, err := r.db.QueryContext(ctx, r.q(
		`SELECT guild_id, user_id, category, created_at FROM whitelist
		 WHERE guild_id = ? ORDER BY created_at ASC, user_id ASC, category ASC`),
		guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []WhitelistEntry
	for rows.Next() {
		var e WhitelistEntry
		var created int64
		if err := rows.Scan(&e.GuildID, &e.UserID, &e.Category, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(created, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetAFK returns nil, nil when the user has no record in scope.
func (r *Repo) GetAFK(ctx context.Context, scope, userID string) (*AFKRecord, error) {
	row := r.db.QueryRowContext(ctx, r.q(
		`SELECT scope, user_id, reason, since_ms FROM afk WHERE scope = ? AND user_id = ?`),
		scope, userID,
	)
	var rec AFKRecord
	var since int64
	if err := row.Scan(&rec.Scope, &rec.UserID, &rec.Reason, &since); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rec.Since = time.UnixMilli(since)
	return &rec, nil
}

func (r *Repo) SetAFK(ctx context.Context, rec AFKRecord) error {
	_, err := r.db.ExecContext(ctx, r.q(
		`INSERT INTO afk(scope, user_id, reason, since_ms) VALUES (?,?,?,?)
		 ON CONFLICT (scope, user_id) DO UPDATE SET reason = excluded.reason, since_ms = excluded.since_ms`),
		rec.Scope, rec.UserID, rec.Reason, rec.Since.UnixMilli(),
	)
	return err
}

func (r *Repo) DeleteAFK(ctx context.Context, scope, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM afk WHERE scope = ? AND user_id = ?`), scope, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
