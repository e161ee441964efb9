package player

import (
	"context"
	"errors"
	"time"
)

type Track struct {
	Title       string
	URL         string
	RequestedBy string
	Duration    time.Duration
	Thumbnail   string
}

type PlayerStatus int

const (
	StatusIdle PlayerStatus = iota
	StatusBuffering
	StatusPlaying
	StatusPaused
)

func (s PlayerStatus) String() string {
	switch s {
	case StatusBuffering:
		return "buffering"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "idle"
	}
}

var (
	ErrNotConnected   = errors.New("not connected to voice")
	ErrNothingPlaying = errors.New("nothing is playing")
	ErrNotPlaying     = errors.New("not playing")
	ErrNotPaused      = errors.New("not paused")
	ErrQueueTooShort  = errors.New("need at least two tracks to shuffle")
)

// Resolver turns user input into tracks and tracks into streamable media.
type Resolver interface {
	Search(ctx context.Context, query string) (Track, error)
	Resolve(ctx context.Context, t Track) (string, error)
}

type Transport interface {
	Connect(ctx context.Context, guildID, channelID string) (Connection, error)
}

type Connection interface {
	ChannelID() string
	// Play starts streaming mediaURL. onEnd is called once when the stream
	// ends on its own or fails; it is never called after Playback.Stop.
	Play(ctx context.Context, mediaURL string, onEnd func(error)) (Playback, error)
	Disconnect() error
}

type Playback interface {
	Pause()
	Resume()
	Stop()
}

// Notifier receives track announcements. Methods are called with the player
// lock held and must not block or call back into the player.
type Notifier interface {
	TrackStarted(guildID, textChannelID string, t Track)
	TrackFailed(guildID, textChannelID string, t Track, err error)
}

// Snapshot is a consistent copy of a player's state.
type Snapshot struct {
	Status     PlayerStatus
	NowPlaying *Track
	Pending    []Track
	Loop       bool
	Elapsed    time.Duration
	ChannelID  string
}

func (s Snapshot) Connected() bool { return s.ChannelID != "" }
