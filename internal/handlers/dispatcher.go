package handlers

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sonroyaalmerol/warden/internal/afk"
	"github.com/sonroyaalmerol/warden/internal/auth"
	"github.com/sonroyaalmerol/warden/internal/command"
	"github.com/sonroyaalmerol/warden/internal/config"
	"github.com/sonroyaalmerol/warden/internal/player"
	"github.com/sonroyaalmerol/warden/internal/repository"
	"github.com/sonroyaalmerol/warden/internal/ui"
)

const (
	commandTimeout = 2 * time.Minute
	genericFailure = "Something went wrong. Check bot permissions / role position."
)

// Store is the whitelist half of the repository.
type Store interface {
	Categories(ctx context.Context, guildID, userID string) ([]string, error)
	AddWhitelist(ctx context.Context, guildID, userID, category string) (bool, error)
	RemoveWhitelist(ctx context.Context, guildID, userID, category string) (bool, error)
	ListWhitelist(ctx context.Context, guildID string) ([]repository.WhitelistEntry, error)
}

// Message is an inbound guild message stripped down to what commands use.
type Message struct {
	GuildID   string
	ChannelID string
	ID        string
	AuthorID  string
	AuthorBot bool
	Content   string
	Mentions  []string
}

type Handler struct {
	cfg     config.Config
	gw      Gateway
	store   Store
	afk     *afk.Interceptor
	engine  *player.Engine
	limiter *userLimiter
	log     *zap.Logger

	// after schedules fn; swapped out in tests
	after func(d time.Duration, fn func())
}

func New(cfg config.Config, gw Gateway, store Store, interceptor *afk.Interceptor, engine *player.Engine, log *zap.Logger) *Handler {
	return &Handler{
		cfg:     cfg,
		gw:      gw,
		store:   store,
		afk:     interceptor,
		engine:  engine,
		limiter: newUserLimiter(cfg.RateLimit),
		log:     log,
		after:   func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
	}
}

// call is one authorized command invocation.
type call struct {
	Message
	inv command.Invocation
	log *zap.Logger
	// respond delivers the command's answer; a reply for messages and an
	// ephemeral response for button presses.
	respond func(embed *discordgo.MessageEmbed, components []discordgo.MessageComponent)
}

func (c *call) ok(format string, args ...any) {
	c.respond(ui.Success(fmt.Sprintf(format, args...)), nil)
}

func (c *call) fail(format string, args ...any) {
	c.respond(ui.Error(fmt.Sprintf(format, args...)), nil)
}

type commandFunc func(h *Handler, ctx context.Context, c *call) error

var commands map[string]commandFunc

func init() {
	commands = map[string]commandFunc{
		"ping": (*Handler).ping,
		"help": (*Handler).help,
		"afk":  (*Handler).setAFK,

		"ban":    (*Handler).ban,
		"unban":  (*Handler).unban,
		"kick":   (*Handler).kick,
		"mute":   (*Handler).mute,
		"unmute": (*Handler).unmute,
		"lock":   (*Handler).lock,
		"unlock": (*Handler).unlock,
		"hide":   (*Handler).hide,
		"unhide": (*Handler).unhide,
		"purge":  (*Handler).purge,

		"wl": (*Handler).whitelist,

		"join":       (*Handler).join,
		"disconnect": (*Handler).disconnect,
		"play":       (*Handler).play,
		"skip":       (*Handler).skip,
		"stop":       (*Handler).stop,
		"pause":      (*Handler).pause,
		"resume":     (*Handler).resume,
		"loop":       (*Handler).loop,
		"shuffle":    (*Handler).shuffle,
		"queue":      (*Handler).queue,
		"nowplaying": (*Handler).nowPlaying,
	}
}

func (h *Handler) reply(m Message, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	if _, err := h.gw.Reply(m.ChannelID, m.ID, embed, components); err != nil {
		h.log.Warn("reply failed", zap.String("channel_id", m.ChannelID), zap.Error(err))
	}
}

// HandleMessage runs the AFK interceptor and then any command in m.
func (h *Handler) HandleMessage(ctx context.Context, m Message) {
	if m.GuildID == "" || m.AuthorBot {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("panic handling message",
				zap.Any("panic", r),
				zap.String("guild_id", m.GuildID),
				zap.ByteString("stack", debug.Stack()))
			h.reply(m, ui.Error(genericFailure), nil)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	notices, err := h.afk.Intercept(ctx, afk.Message{GuildID: m.GuildID, AuthorID: m.AuthorID, Mentions: m.Mentions})
	if err != nil {
		h.log.Error("afk intercept failed", zap.String("guild_id", m.GuildID), zap.Error(err))
	}
	for _, n := range notices {
		h.reply(m, afkNotice(n), nil)
	}

	inv, ok := command.Parse(m.Content, h.cfg.Prefix)
	if !ok {
		return
	}
	fn, known := commands[inv.Name]
	if !known {
		return
	}
	subject, err := h.subject(ctx, m.GuildID, m.ChannelID, m.AuthorID)
	if err != nil {
		h.log.Error("resolve subject failed", zap.String("guild_id", m.GuildID), zap.Error(err))
		h.reply(m, ui.Error(genericFailure), nil)
		return
	}
	if d := auth.Authorize(inv, subject); !d.Allowed {
		if !d.Silent {
			h.reply(m, denial(inv, d), nil)
		}
		return
	}
	// only authorized invocations spend tokens
	if !h.limiter.Allow(m.AuthorID) {
		h.log.Debug("rate limited", zap.String("user_id", m.AuthorID), zap.String("command", inv.Name))
		return
	}

	c := &call{
		Message: m,
		inv:     inv,
		log: h.log.With(
			zap.String("request_id", uuid.NewString()),
			zap.String("guild_id", m.GuildID),
			zap.String("user_id", m.AuthorID),
			zap.String("command", inv.Name),
			zap.Stringer("mode", inv.Mode)),
		respond: func(e *discordgo.MessageEmbed, comps []discordgo.MessageComponent) { h.reply(m, e, comps) },
	}
	h.run(ctx, fn, c)
}

func (h *Handler) run(ctx context.Context, fn commandFunc, c *call) {
	c.log.Debug("command", zap.Strings("args", c.inv.Args))
	if err := fn(h, ctx, c); err != nil {
		c.log.Error("command failed", zap.Error(err))
		c.respond(ui.Error(genericFailure), nil)
	}
}

func (h *Handler) subject(ctx context.Context, guildID, channelID, userID string) (auth.Subject, error) {
	perms, err := h.gw.MemberPermissions(channelID, userID)
	if err != nil {
		return auth.Subject{}, fmt.Errorf("member permissions: %w", err)
	}
	cats, err := h.store.Categories(ctx, guildID, userID)
	if err != nil {
		return auth.Subject{}, fmt.Errorf("whitelist categories: %w", err)
	}
	return auth.Subject{
		IsOwner:     h.cfg.OwnerID != "" && userID == h.cfg.OwnerID,
		IsAdmin:     perms&discordgo.PermissionAdministrator != 0,
		Permissions: perms,
		Categories:  cats,
	}, nil
}

func denial(inv command.Invocation, d auth.Decision) *discordgo.MessageEmbed {
	switch d.Reason {
	case auth.DenyMissingPermission:
		return ui.Result("No Permission",
			fmt.Sprintf("You need **%s** permission to use **%s**.", d.Permission, inv.Name), false)
	case auth.DenyNotWhitelisted:
		return ui.Result("Not Whitelisted",
			fmt.Sprintf("You are not whitelisted to use prefixless **%s**.", inv.Name), false)
	}
	return ui.Result("No Permission", "Only the owner or an administrator can do that.", false)
}

// HandleComponent answers select menu and button interactions.
func (h *Handler) HandleComponent(ctx context.Context, i *discordgo.Interaction) {
	if i.Type != discordgo.InteractionMessageComponent || i.GuildID == "" || i.Member == nil || i.Member.User == nil {
		return
	}
	data := i.MessageComponentData()
	userID := i.Member.User.ID
	log := h.log.With(zap.String("guild_id", i.GuildID), zap.String("user_id", userID), zap.String("custom_id", data.CustomID))

	respond := func(content string, embed *discordgo.MessageEmbed) {
		if err := h.gw.Respond(i, content, embed, true); err != nil {
			log.Warn("interaction response failed", zap.Error(err))
		}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic handling interaction", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			respond("", ui.Error(genericFailure))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if data.CustomID == ui.WhitelistMenuID {
		perms := i.Member.Permissions
		if userID != h.cfg.OwnerID && perms&discordgo.PermissionAdministrator == 0 {
			respond("❌ No Permission", nil)
			return
		}
		if len(data.Values) == 0 {
			return
		}
		respond(ui.WhitelistSelected(h.cfg.Prefix, data.Values[0]), nil)
		return
	}

	name, ok := ui.ParseMusicButton(data.CustomID)
	if !ok || !command.IsMusic(name) {
		return
	}
	inv := command.Invocation{Mode: command.Prefixed, Name: name}
	subject, err := h.subject(ctx, i.GuildID, i.ChannelID, userID)
	if err != nil {
		log.Error("resolve subject failed", zap.Error(err))
		respond("", ui.Error(genericFailure))
		return
	}
	if d := auth.Authorize(inv, subject); !d.Allowed {
		respond("", denial(inv, d))
		return
	}

	c := &call{
		Message: Message{GuildID: i.GuildID, ChannelID: i.ChannelID, AuthorID: userID},
		inv:     inv,
		log:     log.With(zap.String("request_id", uuid.NewString()), zap.String("command", name)),
		respond: func(e *discordgo.MessageEmbed, _ []discordgo.MessageComponent) { respond("", e) },
	}
	h.run(ctx, commands[name], c)
}
