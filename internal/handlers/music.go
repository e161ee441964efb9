package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sonroyaalmerol/warden/internal/player"
	"github.com/sonroyaalmerol/warden/internal/stream"
	"github.com/sonroyaalmerol/warden/internal/ui"
	"github.com/sonroyaalmerol/warden/internal/utils"
)

const queuePageSize = 10

// musicError turns player sentinels into user-facing errors. Anything else
// is returned for the dispatcher to log.
func musicError(c *call, err error) error {
	switch {
	case errors.Is(err, player.ErrNotConnected):
		c.fail("I'm not in a voice channel.")
	case errors.Is(err, player.ErrNothingPlaying), errors.Is(err, player.ErrNotPlaying):
		c.fail("Nothing is playing.")
	case errors.Is(err, player.ErrNotPaused):
		c.fail("Playback is not paused.")
	case errors.Is(err, player.ErrQueueTooShort):
		c.fail("Need at least two tracks in the queue to shuffle.")
	default:
		return err
	}
	return nil
}

// connected returns the guild's player if it holds a voice connection.
func (h *Handler) connected(c *call) (*player.Player, bool) {
	p := h.engine.Peek(c.GuildID)
	if p == nil || !p.Snapshot().Connected() {
		c.fail("I'm not in a voice channel.")
		return nil, false
	}
	return p, true
}

// joinCaller connects to the caller's voice channel. It fails when the
// caller is not in voice or the bot already sits in another channel.
func (h *Handler) joinCaller(ctx context.Context, c *call) (*player.Player, bool, error) {
	vc, ok := h.gw.VoiceChannel(c.GuildID, c.AuthorID)
	if !ok {
		c.fail("Join a voice channel first.")
		return nil, false, nil
	}
	p := h.engine.Get(c.GuildID)
	ch, err := p.Join(ctx, vc)
	if err != nil {
		return nil, false, fmt.Errorf("join voice %s: %w", vc, err)
	}
	if ch != vc {
		c.fail("I'm already in <#%s>. Use `%sdisconnect` first.", ch, h.cfg.Prefix)
		return nil, false, nil
	}
	return p, true, nil
}

func (h *Handler) join(ctx context.Context, c *call) error {
	p, ok, err := h.joinCaller(ctx, c)
	if !ok {
		return err
	}
	c.ok("Joined <#%s>.", p.Snapshot().ChannelID)
	return nil
}

func (h *Handler) disconnect(_ context.Context, c *call) error {
	p, ok := h.connected(c)
	if !ok {
		return nil
	}
	if err := p.Disconnect(); err != nil {
		return musicError(c, err)
	}
	c.ok("Disconnected.")
	return nil
}

func (h *Handler) play(ctx context.Context, c *call) error {
	query := strings.TrimSpace(strings.Join(c.inv.Args, " "))
	if query == "" {
		c.fail("Usage: `%splay <song name/url>`", h.cfg.Prefix)
		return nil
	}
	if _, ok := h.gw.VoiceChannel(c.GuildID, c.AuthorID); !ok {
		c.fail("Join a voice channel first.")
		return nil
	}

	track, err := h.engine.Search(ctx, query)
	switch {
	case errors.Is(err, stream.ErrNoResults):
		c.fail("No results found.")
		return nil
	case errors.Is(err, stream.ErrSpotifyDisabled):
		c.fail("Spotify links are not enabled on this bot.")
		return nil
	case err != nil:
		c.log.Warn("search failed", zap.String("query", query), zap.Error(err))
		c.fail("Could not load that track.")
		return nil
	}
	track.RequestedBy = c.AuthorID

	p, ok, err := h.joinCaller(ctx, c)
	if !ok {
		return err
	}
	pos, err := p.Enqueue(track, c.ChannelID)
	if err != nil {
		return musicError(c, err)
	}
	c.log.Info("track queued", zap.String("title", track.Title), zap.Int("position", pos))
	if pos > 0 {
		c.respond(ui.TrackQueued(track, pos), nil)
	}
	// position 0 is announced by the notifier once playback starts
	return nil
}

func (h *Handler) skip(_ context.Context, c *call) error {
	p, ok := h.connected(c)
	if !ok {
		return nil
	}
	t, err := p.Skip()
	if err != nil {
		return musicError(c, err)
	}
	c.ok("Skipped **%s**", utils.EscapeMd(utils.Truncate(t.Title, 80)))
	return nil
}

func (h *Handler) stop(_ context.Context, c *call) error {
	p, ok := h.connected(c)
	if !ok {
		return nil
	}
	if err := p.Stop(); err != nil {
		return musicError(c, err)
	}
	c.ok("Stopped and cleared the queue.")
	return nil
}

func (h *Handler) pause(_ context.Context, c *call) error {
	p, ok := h.connected(c)
	if !ok {
		return nil
	}
	if err := p.Pause(); err != nil {
		return musicError(c, err)
	}
	c.ok("Paused.")
	return nil
}

func (h *Handler) resume(_ context.Context, c *call) error {
	p, ok := h.connected(c)
	if !ok {
		return nil
	}
	if err := p.Resume(); err != nil {
		return musicError(c, err)
	}
	c.ok("Resumed.")
	return nil
}

func (h *Handler) loop(_ context.Context, c *call) error {
	p, ok := h.connected(c)
	if !ok {
		return nil
	}
	if p.ToggleLoop() {
		c.ok("Loop enabled.")
	} else {
		c.ok("Loop disabled.")
	}
	return nil
}

func (h *Handler) shuffle(_ context.Context, c *call) error {
	p, ok := h.connected(c)
	if !ok {
		return nil
	}
	if err := p.Shuffle(); err != nil {
		return musicError(c, err)
	}
	c.ok("Queue shuffled.")
	return nil
}

func (h *Handler) queue(_ context.Context, c *call) error {
	page := 1
	if len(c.inv.Args) > 0 {
		if n, err := strconv.Atoi(c.inv.Args[0]); err == nil {
			page = n
		}
	}
	var s player.Snapshot
	if p := h.engine.Peek(c.GuildID); p != nil {
		s = p.Snapshot()
	}
	c.respond(ui.Queue(s, page, queuePageSize), nil)
	return nil
}

func (h *Handler) nowPlaying(_ context.Context, c *call) error {
	var s player.Snapshot
	if p := h.engine.Peek(c.GuildID); p != nil {
		s = p.Snapshot()
	}
	embed, playing := ui.NowPlaying(s)
	if !playing {
		c.respond(embed, nil)
		return nil
	}
	c.respond(embed, ui.MusicControls(s))
	return nil
}

// HandleVoiceState leaves voice once the bot's channel has no listeners
// left, or cleans up when the bot itself was disconnected.
func (h *Handler) HandleVoiceState(guildID, userID, channelID, botID string) {
	p := h.engine.Peek(guildID)
	if p == nil {
		return
	}
	s := p.Snapshot()
	if !s.Connected() {
		return
	}

	log := h.log.With(zap.String("guild_id", guildID))
	switch {
	case userID == botID && channelID == "":
		log.Info("removed from voice")
	case userID != botID && h.gw.Listeners(guildID, s.ChannelID) == 0:
		log.Info("voice channel empty, leaving", zap.String("channel_id", s.ChannelID))
	default:
		return
	}
	if err := p.Disconnect(); err != nil && !errors.Is(err, player.ErrNotConnected) {
		log.Warn("disconnect failed", zap.Error(err))
	}
}
