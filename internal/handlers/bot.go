package handlers

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/sonroyaalmerol/warden/internal/config"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsMessageContent |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildVoiceStates

func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = intents
	return s, nil
}

type Bot struct {
	cfg config.Config
	s   *discordgo.Session
	h   *Handler
	log *zap.Logger
}

func NewBot(cfg config.Config, s *discordgo.Session, h *Handler, log *zap.Logger) *Bot {
	return &Bot{cfg: cfg, s: s, h: h, log: log}
}

// Run opens the gateway and serves events until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.log.Info("connected", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
		err := s.UpdateStatusComplex(discordgo.UpdateStatusData{
			Status: b.cfg.BotStatus,
			Activities: []*discordgo.Activity{{
				Name: b.cfg.BotActivity,
				Type: discordgo.ActivityTypeListening,
			}},
		})
		if err != nil {
			b.log.Warn("update status", zap.Error(err))
		}
	})

	b.s.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil {
			return
		}
		mentions := make([]string, 0, len(m.Mentions))
		for _, u := range m.Mentions {
			mentions = append(mentions, u.ID)
		}
		b.h.HandleMessage(ctx, Message{
			GuildID:   m.GuildID,
			ChannelID: m.ChannelID,
			ID:        m.ID,
			AuthorID:  m.Author.ID,
			AuthorBot: m.Author.Bot,
			Content:   m.Content,
			Mentions:  mentions,
		})
	})

	b.s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.h.HandleComponent(ctx, i.Interaction)
	})

	// leave voice when nobody is listening anymore
	b.s.AddHandler(func(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
		if s.State.User == nil {
			return
		}
		b.h.HandleVoiceState(vs.GuildID, vs.UserID, vs.ChannelID, s.State.User.ID)
	})

	if err := b.s.Open(); err != nil {
		return err
	}
	defer b.s.Close()

	<-ctx.Done()
	b.log.Info("shutting down")
	// voice connections go first, they need the gateway to leave cleanly
	b.h.engine.Shutdown()
	return nil
}
