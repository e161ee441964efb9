package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/sonroyaalmerol/warden/internal/config"
	"github.com/sonroyaalmerol/warden/internal/player"
)

const (
	// ~1s of opus ahead of the sender
	prefetchPackets = 50
	sendTimeout     = 2 * time.Second
)

var errQueueClosed = errors.New("packet queue closed")

// Transport joins voice channels through a discordgo session.
type Transport struct {
	s              *discordgo.Session
	bitrateKbps    int
	connectTimeout time.Duration
	log            *zap.Logger
}

func NewTransport(s *discordgo.Session, cfg config.MusicConfig, log *zap.Logger) *Transport {
	astiav.SetLogLevel(astiav.LogLevelFatal)
	return &Transport{
		s:              s,
		bitrateKbps:    cfg.BitrateKbps,
		connectTimeout: cfg.ConnectTimeout,
		log:            log.Named("voice"),
	}
}

func (t *Transport) Connect(ctx context.Context, guildID, channelID string) (player.Connection, error) {
	vc, err := t.s.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("join voice: %w", err)
	}
	if err := waitReady(ctx, vc, t.connectTimeout); err != nil {
		_ = vc.Disconnect()
		return nil, err
	}
	return &voiceConn{
		vc:          vc,
		bitrateKbps: t.bitrateKbps,
		log:         t.log.With(zap.String("guild_id", guildID)),
	}, nil
}

func waitReady(ctx context.Context, vc *discordgo.VoiceConnection, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		vc.RLock()
		ready := vc.Ready
		vc.RUnlock()
		if ready {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return errors.New("voice connection not ready")
		case <-tick.C:
		}
	}
}

type voiceConn struct {
	vc          *discordgo.VoiceConnection
	bitrateKbps int
	log         *zap.Logger
}

func (c *voiceConn) ChannelID() string {
	c.vc.RLock()
	defer c.vc.RUnlock()
	return c.vc.ChannelID
}

func (c *voiceConn) Disconnect() error {
	return c.vc.Disconnect()
}

func (c *voiceConn) Play(ctx context.Context, mediaURL string, onEnd func(error)) (player.Playback, error) {
	dec, err := OpenDecoder(mediaURL)
	if err != nil {
		return nil, err
	}
	enc, err := NewEncoder(c.bitrateKbps)
	if err != nil {
		dec.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &playback{
		vc:      c.vc,
		ctx:     ctx,
		cancel:  cancel,
		queue:   newPacketQueue(prefetchPackets),
		dec:     dec,
		enc:     enc,
		onEnd:   onEnd,
		log:     c.log,
		decoded: make(chan struct{}),
		done:    make(chan struct{}),
	}
	context.AfterFunc(ctx, p.queue.Close)
	context.AfterFunc(ctx, dec.Interrupt)

	go p.decode()
	go p.send()
	return p, nil
}

// playback runs a decode goroutine feeding the packet queue and a send
// goroutine draining it into the voice connection.
type playback struct {
	vc     *discordgo.VoiceConnection
	ctx    context.Context
	cancel context.CancelFunc
	queue  *packetQueue
	dec    *Decoder
	enc    *Encoder
	onEnd  func(error)
	log    *zap.Logger

	mu      sync.Mutex
	paused  bool
	resumed chan struct{}
	stopped bool

	decoded chan struct{}
	done    chan struct{}
}

func (p *playback) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		p.paused = true
		p.resumed = make(chan struct{})
	}
}

func (p *playback) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		p.paused = false
		close(p.resumed)
	}
}

// Stop halts playback and waits for both goroutines to release the codec
// contexts. onEnd is not called afterwards.
func (p *playback) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.cancel()
	<-p.done
}

func (p *playback) decode() {
	defer close(p.decoded)

	push := func(pkt []byte) error {
		if !p.queue.Push(pkt) {
			return errQueueClosed
		}
		return nil
	}
	err := func() error {
		for {
			f, err := p.dec.Next(p.ctx)
			if errors.Is(err, io.EOF) {
				return p.enc.Flush(push)
			}
			if err != nil {
				return err
			}
			if err := p.enc.Encode(f, push); err != nil {
				return err
			}
		}
	}()
	p.queue.Finish(decodeErr(err))
}

// decodeErr drops the errors a cancelled playback produces on its way out.
func decodeErr(err error) error {
	if errors.Is(err, errQueueClosed) || errors.Is(err, context.Canceled) || errors.Is(err, astiav.ErrExit) {
		return nil
	}
	return err
}

func (p *playback) send() {
	err := p.sendAll()
	canceled := p.ctx.Err() != nil

	p.cancel()
	<-p.decoded
	p.dec.Close()
	p.enc.Close()
	_ = p.vc.Speaking(false)

	p.mu.Lock()
	stopped := p.stopped
	p.mu.Unlock()
	close(p.done)

	if stopped || canceled {
		return
	}
	if err == nil {
		err = p.queue.Err()
	}
	if err != nil {
		p.log.Warn("playback ended with error", zap.Error(err))
	}
	p.onEnd(err)
}

func (p *playback) sendAll() error {
	_ = p.vc.Speaking(true)
	timer := time.NewTimer(sendTimeout)
	defer timer.Stop()

	for {
		if !p.waitIfPaused() {
			return nil
		}
		pkt, ok := p.queue.Pop()
		if !ok {
			return nil
		}
		timer.Reset(sendTimeout)
		select {
		case p.vc.OpusSend <- pkt:
		case <-p.ctx.Done():
			return nil
		case <-timer.C:
			return errors.New("opus send timeout")
		}
	}
}

// waitIfPaused blocks while paused and reports false once cancelled.
func (p *playback) waitIfPaused() bool {
	p.mu.Lock()
	if !p.paused {
		p.mu.Unlock()
		return true
	}
	resumed := p.resumed
	p.mu.Unlock()

	_ = p.vc.Speaking(false)
	select {
	case <-resumed:
		_ = p.vc.Speaking(true)
		return true
	case <-p.ctx.Done():
		return false
	}
}
