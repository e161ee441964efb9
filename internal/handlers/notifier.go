package handlers

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/sonroyaalmerol/warden/internal/player"
	"github.com/sonroyaalmerol/warden/internal/ui"
)

// Notifier posts track announcements to the channel that queued them.
// Player callbacks hold the player lock, so every send happens on its own
// goroutine.
type Notifier struct {
	gw     Gateway
	engine *player.Engine
	log    *zap.Logger
}

func NewNotifier(gw Gateway, log *zap.Logger) *Notifier {
	return &Notifier{gw: gw, log: log.Named("notifier")}
}

// Attach lets announcements carry playback controls. It must be called
// before the engine starts playing.
func (n *Notifier) Attach(e *player.Engine) {
	n.engine = e
}

func (n *Notifier) TrackStarted(guildID, channelID string, t player.Track) {
	if channelID == "" {
		return
	}
	go func() {
		var comps []discordgo.MessageComponent
		if n.engine != nil {
			if p := n.engine.Peek(guildID); p != nil {
				comps = ui.MusicControls(p.Snapshot())
			}
		}
		n.send(guildID, channelID, ui.TrackStarted(t), comps)
	}()
}

func (n *Notifier) TrackFailed(guildID, channelID string, t player.Track, err error) {
	if channelID == "" {
		return
	}
	go n.send(guildID, channelID, ui.TrackFailed(t), nil)
}

func (n *Notifier) send(guildID, channelID string, embed *discordgo.MessageEmbed, comps []discordgo.MessageComponent) {
	if _, err := n.gw.Send(channelID, embed, comps); err != nil {
		n.log.Warn("announcement failed",
			zap.String("guild_id", guildID),
			zap.String("channel_id", channelID),
			zap.Error(err))
	}
}
