package afk

import (
	"context"
	"testing"
	"time"

	"github.com/sonroyaalmerol/warden/internal/config"
	"github.com/sonroyaalmerol/warden/internal/repository"
)

type memStore struct {
	recs    map[string]repository.AFKRecord
	lookups int
}

func newMemStore() *memStore {
	return &memStore{recs: make(map[string]repository.AFKRecord)}
}

func key(scope, user string) string { return scope + "/" + user }

func (m *memStore) GetAFK(_ context.Context, scope, userID string) (*repository.AFKRecord, error) {
	m.lookups++
	rec, ok := m.recs[key(scope, userID)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memStore) SetAFK(_ context.Context, rec repository.AFKRecord) error {
	m.recs[key(rec.Scope, rec.UserID)] = rec
	return nil
}

func (m *memStore) DeleteAFK(_ context.Context, scope, userID string) (bool, error) {
	k := key(scope, userID)
	_, ok := m.recs[k]
	delete(m.recs, k)
	return ok, nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestInterceptor(scope string) (*Interceptor, *memStore, *fakeClock) {
	store := newMemStore()
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	i := NewInterceptor(store, scope)
	i.now = clock.Now
	return i, store, clock
}

func TestSenderClearedWithSingleWelcomeBack(t *testing.T) {
	i, store, _ := newTestInterceptor(config.ScopeGuild)
	ctx := context.Background()

	if _, err := i.Set(ctx, "g1", "u1", "lunch"); err != nil {
		t.Fatalf("set: %v", err)
	}

	// the message is also a valid command; AFK is cleared regardless
	notices, err := i.Intercept(ctx, Message{GuildID: "g1", AuthorID: "u1"})
	if err != nil {
		t.Fatalf("intercept: %v", err)
	}
	if len(notices) != 1 || notices[0].Kind != WelcomeBack {
		t.Fatalf("expected exactly one welcome back, got %+v", notices)
	}
	if _, ok := store.recs[key("g1", "u1")]; ok {
		t.Fatalf("expected record removed")
	}

	notices, _ = i.Intercept(ctx, Message{GuildID: "g1", AuthorID: "u1"})
	if len(notices) != 0 {
		t.Fatalf("expected no notices on the next message, got %+v", notices)
	}
}

func TestMentionedAFKUsersReportedOnceAndKept(t *testing.T) {
	i, store, clock := newTestInterceptor(config.ScopeGuild)
	ctx := context.Background()

	if _, err := i.Set(ctx, "g1", "u2", ""); err != nil {
		t.Fatalf("set: %v", err)
	}
	since := clock.t

	notices, err := i.Intercept(ctx, Message{
		GuildID:  "g1",
		AuthorID: "u1",
		Mentions: []string{"u2", "u3", "u2"},
	})
	if err != nil {
		t.Fatalf("intercept: %v", err)
	}
	if len(notices) != 1 {
		t.Fatalf("expected one notice, got %+v", notices)
	}
	n := notices[0]
	if n.Kind != UserAFK || n.UserID != "u2" || n.Reason != DefaultReason || !n.Since.Equal(since) {
		t.Fatalf("unexpected notice %+v", n)
	}
	if _, ok := store.recs[key("g1", "u2")]; !ok {
		t.Fatalf("mentioned user's record must not be cleared")
	}
}

func TestSelfMentionDoesNotReportSender(t *testing.T) {
	i, _, _ := newTestInterceptor(config.ScopeGuild)
	ctx := context.Background()
	_, _ = i.Set(ctx, "g1", "u1", "away")

	notices, _ := i.Intercept(ctx, Message{GuildID: "g1", AuthorID: "u1", Mentions: []string{"u1"}})
	if len(notices) != 1 || notices[0].Kind != WelcomeBack {
		t.Fatalf("expected only welcome back, got %+v", notices)
	}
}

func TestGuildScopeIsolatesGuilds(t *testing.T) {
	i, _, _ := newTestInterceptor(config.ScopeGuild)
	ctx := context.Background()
	_, _ = i.Set(ctx, "g1", "u1", "away")

	notices, _ := i.Intercept(ctx, Message{GuildID: "g2", AuthorID: "u1"})
	if len(notices) != 0 {
		t.Fatalf("expected g2 message to leave g1 AFK alone, got %+v", notices)
	}
	notices, _ = i.Intercept(ctx, Message{GuildID: "g2", AuthorID: "u9", Mentions: []string{"u1"}})
	if len(notices) != 0 {
		t.Fatalf("expected no AFK notice across guilds, got %+v", notices)
	}
}

func TestGlobalScopeSpansGuilds(t *testing.T) {
	i, store, _ := newTestInterceptor(config.ScopeGlobal)
	ctx := context.Background()
	_, _ = i.Set(ctx, "g1", "u1", "away")

	if _, ok := store.recs[key(config.ScopeGlobal, "u1")]; !ok {
		t.Fatalf("expected record stored under the global scope")
	}
	notices, _ := i.Intercept(ctx, Message{GuildID: "g2", AuthorID: "u1"})
	if len(notices) != 1 || notices[0].Kind != WelcomeBack {
		t.Fatalf("expected welcome back from another guild, got %+v", notices)
	}
}
