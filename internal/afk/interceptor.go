package afk

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sonroyaalmerol/warden/internal/config"
	"github.com/sonroyaalmerol/warden/internal/repository"
)

const DefaultReason = "AFK"

// Store is the part of the repository the interceptor needs.
type Store interface {
	GetAFK(ctx context.Context, scope, userID string) (*repository.AFKRecord, error)
	SetAFK(ctx context.Context, rec repository.AFKRecord) error
	DeleteAFK(ctx context.Context, scope, userID string) (bool, error)
}

type NoticeKind int

const (
	WelcomeBack NoticeKind = iota
	UserAFK
)

type Notice struct {
	Kind   NoticeKind
	UserID string
	Reason string
	Since  time.Time
}

// Message is the slice of an inbound message the interceptor looks at.
type Message struct {
	GuildID  string
	AuthorID string
	Mentions []string
}

type Interceptor struct {
	store  Store
	global bool
	now    func() time.Time
}

func NewInterceptor(store Store, scope string) *Interceptor {
	return &Interceptor{store: store, global: scope == config.ScopeGlobal, now: time.Now}
}

func (i *Interceptor) scope(guildID string) string {
	if i.global {
		return config.ScopeGlobal
	}
	return guildID
}

// Set marks userID as AFK from now on.
func (i *Interceptor) Set(ctx context.Context, guildID, userID, reason string) (repository.AFKRecord, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultReason
	}
	rec := repository.AFKRecord{
		Scope:  i.scope(guildID),
		UserID: userID,
		Reason: reason,
		Since:  i.now(),
	}
	if err := i.store.SetAFK(ctx, rec); err != nil {
		return repository.AFKRecord{}, fmt.Errorf("set afk: %w", err)
	}
	return rec, nil
}

// Intercept clears the sender's AFK state and reports AFK mentioned users.
// It runs before command parsing, so a command message still clears AFK.
func (i *Interceptor) Intercept(ctx context.Context, m Message) ([]Notice, error) {
	scope := i.scope(m.GuildID)
	var out []Notice

	cleared, err := i.store.DeleteAFK(ctx, scope, m.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("clear afk: %w", err)
	}
	if cleared {
		out = append(out, Notice{Kind: WelcomeBack, UserID: m.AuthorID})
	}

	seen := map[string]struct{}{m.AuthorID: {}}
	for _, uid := range m.Mentions {
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}

		rec, err := i.store.GetAFK(ctx, scope, uid)
		if err != nil {
			return out, fmt.Errorf("lookup afk %s: %w", uid, err)
		}
		if rec == nil {
			continue
		}
		out = append(out, Notice{Kind: UserAFK, UserID: uid, Reason: rec.Reason, Since: rec.Since})
	}
	return out, nil
}
