package player

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Options struct {
	Resolver    Resolver
	Transport   Transport
	Notifier    Notifier
	Logger      *zap.Logger
	IdleTimeout time.Duration
}

// Engine owns one Player per guild for the life of the process.
type Engine struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options

	mu      sync.Mutex
	players map[string]*Player
}

func NewEngine(ctx context.Context, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Engine{
		ctx:     ctx,
		cancel:  cancel,
		opts:    opts,
		players: make(map[string]*Player),
	}
}

// Get returns the guild's player, creating it on first use.
func (e *Engine) Get(guildID string) *Player {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.players[guildID]; ok {
		return p
	}
	p := &Player{
		guildID:     guildID,
		ctx:         e.ctx,
		resolver:    e.opts.Resolver,
		transport:   e.opts.Transport,
		notifier:    e.opts.Notifier,
		log:         e.opts.Logger.With(zap.String("guild_id", guildID)),
		idleTimeout: e.opts.IdleTimeout,
		now:         time.Now,
		status:      StatusIdle,
	}
	e.players[guildID] = p
	return p
}

// Peek returns the guild's player without creating one.
func (e *Engine) Peek(guildID string) *Player {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.players[guildID]
}

func (e *Engine) Search(ctx context.Context, query string) (Track, error) {
	return e.opts.Resolver.Search(ctx, query)
}

// Shutdown disconnects every player and cancels in-flight resolutions.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	players := make([]*Player, 0, len(e.players))
	for _, p := range e.players {
		players = append(players, p)
	}
	e.mu.Unlock()

	e.cancel()
	for _, p := range players {
		_ = p.Disconnect()
	}
}

type nopNotifier struct{}

func (nopNotifier) TrackStarted(string, string, Track)       {}
func (nopNotifier) TrackFailed(string, string, Track, error) {}
