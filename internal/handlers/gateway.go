package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Gateway is the part of the Discord API the handlers talk to. Every send
// suppresses mentions so replies never ping anyone.
type Gateway interface {
	Reply(channelID, messageID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) (*discordgo.Message, error)
	Send(channelID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) (*discordgo.Message, error)
	Respond(i *discordgo.Interaction, content string, embed *discordgo.MessageEmbed, ephemeral bool) error
	DeleteMessage(channelID, messageID string) error

	Ban(guildID, userID, reason string) error
	Unban(guildID, userID string) error
	Kick(guildID, userID, reason string) error
	Timeout(guildID, userID string, until *time.Time) error
	// SetEveryone toggles perm in the @everyone overwrite of a channel,
	// keeping the other bits of the overwrite.
	SetEveryone(guildID, channelID string, perm int64, allowed bool) error
	// Purge bulk deletes the last n messages of a channel and returns how
	// many were removed. Messages too old for bulk deletion are skipped.
	Purge(channelID string, n int) (int, error)

	MemberPermissions(channelID, userID string) (int64, error)
	VoiceChannel(guildID, userID string) (string, bool)
	Listeners(guildID, channelID string) int
	UserName(guildID, userID string) string
	Latency() time.Duration
}

var noMentions = &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}}

// discordGateway implements Gateway over a live session.
type discordGateway struct {
	s *discordgo.Session
}

func NewGateway(s *discordgo.Session) Gateway {
	return &discordGateway{s: s}
}

func embeds(e *discordgo.MessageEmbed) []*discordgo.MessageEmbed {
	if e == nil {
		return nil
	}
	return []*discordgo.MessageEmbed{e}
}

func (g *discordGateway) Reply(channelID, messageID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) (*discordgo.Message, error) {
	return g.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:          embeds(embed),
		Components:      components,
		AllowedMentions: noMentions,
		Reference: &discordgo.MessageReference{
			MessageID: messageID,
			ChannelID: channelID,
		},
	})
}

func (g *discordGateway) Send(channelID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) (*discordgo.Message, error) {
	return g.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:          embeds(embed),
		Components:      components,
		AllowedMentions: noMentions,
	})
}

func (g *discordGateway) Respond(i *discordgo.Interaction, content string, embed *discordgo.MessageEmbed, ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	return g.s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:         content,
			Embeds:          embeds(embed),
			Flags:           flags,
			AllowedMentions: noMentions,
		},
	})
}

func (g *discordGateway) DeleteMessage(channelID, messageID string) error {
	return g.s.ChannelMessageDelete(channelID, messageID)
}

func (g *discordGateway) Ban(guildID, userID, reason string) error {
	return g.s.GuildBanCreateWithReason(guildID, userID, reason, 0)
}

func (g *discordGateway) Unban(guildID, userID string) error {
	return g.s.GuildBanDelete(guildID, userID)
}

func (g *discordGateway) Kick(guildID, userID, reason string) error {
	return g.s.GuildMemberDeleteWithReason(guildID, userID, reason)
}

func (g *discordGateway) Timeout(guildID, userID string, until *time.Time) error {
	return g.s.GuildMemberTimeout(guildID, userID, until)
}

func (g *discordGateway) SetEveryone(guildID, channelID string, perm int64, allowed bool) error {
	ch, err := g.s.State.Channel(channelID)
	if err != nil {
		if ch, err = g.s.Channel(channelID); err != nil {
			return err
		}
	}

	var allow, deny int64
	for _, o := range ch.PermissionOverwrites {
		// the @everyone role shares the guild's ID
		if o.Type == discordgo.PermissionOverwriteTypeRole && o.ID == guildID {
			allow, deny = o.Allow, o.Deny
			break
		}
	}
	if allowed {
		allow |= perm
		deny &^= perm
	} else {
		allow &^= perm
		deny |= perm
	}
	return g.s.ChannelPermissionSet(channelID, guildID, discordgo.PermissionOverwriteTypeRole, allow, deny)
}

// bulk delete rejects messages older than two weeks
const bulkDeleteMaxAge = 14*24*time.Hour - time.Minute

func (g *discordGateway) Purge(channelID string, n int) (int, error) {
	msgs, err := g.s.ChannelMessages(channelID, n, "", "", "")
	if err != nil {
		return 0, fmt.Errorf("fetch messages: %w", err)
	}
	cutoff := time.Now().Add(-bulkDeleteMaxAge)
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Timestamp.After(cutoff) {
			ids = append(ids, m.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := g.s.ChannelMessagesBulkDelete(channelID, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (g *discordGateway) MemberPermissions(channelID, userID string) (int64, error) {
	return g.s.UserChannelPermissions(userID, channelID)
}

func (g *discordGateway) VoiceChannel(guildID, userID string) (string, bool) {
	vs, err := g.s.State.VoiceState(guildID, userID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		return "", false
	}
	return vs.ChannelID, true
}

// Listeners counts the non-bot members in a voice channel.
func (g *discordGateway) Listeners(guildID, channelID string) int {
	guild, err := g.s.State.Guild(guildID)
	if err != nil {
		return 0
	}
	g.s.State.RLock()
	states := append([]*discordgo.VoiceState(nil), guild.VoiceStates...)
	g.s.State.RUnlock()

	self := g.s.State.User
	n := 0
	for _, vs := range states {
		if vs.ChannelID != channelID || (self != nil && vs.UserID == self.ID) {
			continue
		}
		// members missing from the state count as listeners
		m, _ := g.s.State.Member(guildID, vs.UserID)
		if m == nil || m.User == nil || !m.User.Bot {
			n++
		}
	}
	return n
}

func (g *discordGateway) UserName(guildID, userID string) string {
	if m, err := g.s.State.Member(guildID, userID); err == nil && m.User != nil {
		return m.User.Username
	}
	if u, err := g.s.User(userID); err == nil {
		return u.Username
	}
	return userID
}

func (g *discordGateway) Latency() time.Duration {
	return g.s.HeartbeatLatency()
}

// isMissingAccess reports whether Discord refused an action for lack of
// permission or role hierarchy.
func isMissingAccess(err error) bool {
	var re *discordgo.RESTError
	if !errors.As(err, &re) {
		return false
	}
	if re.Response != nil && re.Response.StatusCode == http.StatusForbidden {
		return true
	}
	return re.Message != nil &&
		(re.Message.Code == discordgo.ErrCodeMissingPermissions || re.Message.Code == discordgo.ErrCodeMissingAccess)
}
