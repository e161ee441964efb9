package player

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sonroyaalmerol/warden/internal/utils"
)

// Player is the queue and playback state of one guild. Every mutation holds
// mu; the lock is released only around resolving, connecting and stopping,
// and gen tells a resumed operation whether it was superseded meanwhile.
type Player struct {
	guildID     string
	ctx         context.Context
	resolver    Resolver
	transport   Transport
	notifier    Notifier
	log         *zap.Logger
	idleTimeout time.Duration
	now         func() time.Time

	joinMu sync.Mutex

	mu            sync.Mutex
	conn          Connection
	status        PlayerStatus
	queue         []Track // queue[0] is the current track unless idle
	nowPlaying    *Track
	loop          bool
	gen           uint64
	cur           *playSession
	textChannelID string
	startedAt     time.Time
	elapsed       time.Duration
	idleTimer     *time.Timer
}

type playSession struct {
	pb        Playback
	committed bool
	ended     bool
	err       error
}

func (p *Player) GuildID() string { return p.guildID }

// Join connects to channelID unless already connected somewhere, in which
// case the current channel is kept. It returns the channel the bot is in.
func (p *Player) Join(ctx context.Context, channelID string) (string, error) {
	p.joinMu.Lock()
	defer p.joinMu.Unlock()

	p.mu.Lock()
	if p.conn != nil {
		ch := p.conn.ChannelID()
		if p.status == StatusIdle {
			p.scheduleIdleDisconnectLocked()
		}
		p.mu.Unlock()
		return ch, nil
	}
	p.mu.Unlock()

	conn, err := p.transport.Connect(ctx, p.guildID, channelID)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	p.conn = conn
	p.status = StatusIdle
	p.scheduleIdleDisconnectLocked()
	p.mu.Unlock()

	p.log.Info("voice connected", zap.String("channel_id", channelID))
	return channelID, nil
}

// Enqueue appends t and starts playback when idle. The returned position is
// 0 when t became the current track.
func (p *Player) Enqueue(t Track, textChannelID string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return 0, ErrNotConnected
	}
	p.cancelIdleDisconnectLocked()
	if textChannelID != "" {
		p.textChannelID = textChannelID
	}
	p.queue = append(p.queue, t)
	pos := len(p.queue) - 1

	if p.status == StatusIdle {
		p.advanceLocked()
	}
	return pos, nil
}

// Skip drops the current track regardless of loop and moves on.
func (p *Player) Skip() (Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return Track{}, ErrNotConnected
	}
	if len(p.queue) == 0 {
		return Track{}, ErrNothingPlaying
	}
	skipped := p.queue[0]
	p.queue = p.queue[1:]
	p.nowPlaying = nil
	p.gen++
	gen := p.gen
	p.stopPlayLocked()
	if p.gen != gen {
		return skipped, nil
	}
	p.advanceLocked()
	return skipped, nil
}

// Stop halts playback and clears the queue but keeps the voice connection.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return ErrNotConnected
	}
	p.gen++
	gen := p.gen
	p.queue = nil
	p.stopPlayLocked()
	if p.gen != gen {
		return nil
	}
	// picks up anything enqueued while the old playback was stopping
	p.advanceLocked()
	return nil
}

// Disconnect stops everything and closes the voice connection. The player
// counts as disconnected from the start, so skip, stop and enqueue calls
// racing with it fail with ErrNotConnected.
func (p *Player) Disconnect() error {
	p.joinMu.Lock()
	defer p.joinMu.Unlock()

	p.mu.Lock()
	conn := p.conn
	if conn == nil {
		p.mu.Unlock()
		return ErrNotConnected
	}
	p.conn = nil
	p.gen++
	p.loop = false
	p.queue = nil
	p.cancelIdleDisconnectLocked()
	p.stopPlayLocked()
	p.status = StatusIdle
	p.nowPlaying = nil
	p.elapsed = 0
	p.mu.Unlock()

	p.log.Info("voice disconnected")
	return conn.Disconnect()
}

func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != StatusPlaying || p.cur == nil {
		return ErrNotPlaying
	}
	p.cur.pb.Pause()
	p.elapsed += p.now().Sub(p.startedAt)
	p.status = StatusPaused
	return nil
}

func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != StatusPaused || p.cur == nil {
		return ErrNotPaused
	}
	p.cur.pb.Resume()
	p.startedAt = p.now()
	p.status = StatusPlaying
	return nil
}

func (p *Player) ToggleLoop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loop = !p.loop
	return p.loop
}

// Shuffle permutes every track after the head; the head never moves.
func (p *Player) Shuffle() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) < 2 {
		return ErrQueueTooShort
	}
	utils.ShuffleSlice(p.queue[1:])
	return nil
}

func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot{
		Status:  p.status,
		Loop:    p.loop,
		Elapsed: p.elapsedLocked(),
	}
	if p.conn != nil {
		s.ChannelID = p.conn.ChannelID()
	}
	if p.nowPlaying != nil {
		np := *p.nowPlaying
		s.NowPlaying = &np
	}
	if len(p.queue) > 1 {
		s.Pending = make([]Track, len(p.queue)-1)
		copy(s.Pending, p.queue[1:])
	}
	return s
}

func (p *Player) elapsedLocked() time.Duration {
	switch p.status {
	case StatusPlaying:
		return p.elapsed + p.now().Sub(p.startedAt)
	case StatusPaused:
		return p.elapsed
	}
	return 0
}

// advanceLocked plays the head of the queue, dropping heads that fail to
// resolve or start. Caller holds p.mu; it is released while resolving.
func (p *Player) advanceLocked() {
	for {
		if p.conn == nil || len(p.queue) == 0 {
			p.setIdleLocked()
			return
		}

		head := p.queue[0]
		gen := p.gen
		conn := p.conn
		p.status = StatusBuffering
		p.nowPlaying = nil
		p.elapsed = 0

		sess := &playSession{}
		p.mu.Unlock()
		pb, err := p.start(conn, head, sess)
		p.mu.Lock()

		if p.gen != gen {
			// stop, skip or disconnect happened meanwhile and owns the state now
			if pb != nil {
				go pb.Stop()
			}
			return
		}
		if err != nil {
			p.log.Warn("track failed to start", zap.String("title", head.Title), zap.Error(err))
			p.notifier.TrackFailed(p.guildID, p.textChannelID, head, err)
			p.queue = p.queue[1:]
			continue
		}

		sess.pb = pb
		sess.committed = true
		p.cur = sess
		p.nowPlaying = &head
		p.status = StatusPlaying
		p.startedAt = p.now()
		p.notifier.TrackStarted(p.guildID, p.textChannelID, head)

		if !sess.ended {
			return
		}
		// the stream ended before we committed it
		p.endLocked(sess.err)
	}
}

func (p *Player) start(conn Connection, t Track, sess *playSession) (Playback, error) {
	mediaURL, err := p.resolver.Resolve(p.ctx, t)
	if err != nil {
		return nil, err
	}
	return conn.Play(p.ctx, mediaURL, func(err error) { p.handlePlaybackEnd(sess, err) })
}

func (p *Player) handlePlaybackEnd(sess *playSession, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !sess.committed {
		sess.ended = true
		sess.err = err
		return
	}
	if p.cur != sess {
		return
	}
	p.endLocked(err)
	p.advanceLocked()
}

// endLocked applies the end-of-track rule: on natural end the head stays
// when looping and is popped otherwise; a failed track is always popped.
func (p *Player) endLocked(err error) {
	p.cur = nil
	p.nowPlaying = nil
	if len(p.queue) == 0 {
		return
	}
	head := p.queue[0]
	switch {
	case err != nil:
		p.log.Error("playback failed", zap.String("title", head.Title), zap.Error(err))
		p.notifier.TrackFailed(p.guildID, p.textChannelID, head, err)
		p.queue = p.queue[1:]
	case !p.loop:
		p.queue = p.queue[1:]
	}
}

// stopPlayLocked stops the current playback. Caller must hold p.mu.
// It will temporarily release the lock while the playback winds down.
func (p *Player) stopPlayLocked() {
	sess := p.cur
	p.cur = nil
	p.nowPlaying = nil
	if sess == nil {
		return
	}
	p.mu.Unlock()
	sess.pb.Stop()
	p.mu.Lock()
}

func (p *Player) setIdleLocked() {
	p.status = StatusIdle
	p.nowPlaying = nil
	p.elapsed = 0
	p.scheduleIdleDisconnectLocked()
}

func (p *Player) scheduleIdleDisconnectLocked() {
	if p.idleTimeout <= 0 || p.conn == nil {
		return
	}
	p.cancelIdleDisconnectLocked()
	conn := p.conn
	p.idleTimer = time.AfterFunc(p.idleTimeout, func() {
		p.mu.Lock()
		idle := p.status == StatusIdle && p.conn == conn
		p.mu.Unlock()
		if idle {
			p.log.Info("leaving voice after idle timeout")
			_ = p.Disconnect()
		}
	})
}

func (p *Player) cancelIdleDisconnectLocked() {
	if p.idleTimer != nil {
		p.idleTimer.Stop()
		p.idleTimer = nil
	}
}
