package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/sonroyaalmerol/warden/internal/ui"
	"github.com/sonroyaalmerol/warden/internal/utils"
)

const (
	defaultReason      = "No reason"
	defaultMuteMinutes = 10
	maxMuteMinutes     = 28 * 24 * 60
	maxPurge           = 100
	purgeNoticeTTL     = 3 * time.Second
)

// target picks the member a moderation command acts on: the first argument
// when it is a mention or a raw ID, else the first mention in the message.
func target(c *call) (string, []string, bool) {
	if len(c.inv.Args) > 0 {
		if id, ok := utils.ParseUserID(c.inv.Args[0]); ok {
			return id, c.inv.Args[1:], true
		}
	}
	if len(c.Mentions) > 0 {
		return c.Mentions[0], c.inv.Args, true
	}
	return "", nil, false
}

func reasonOf(args []string) string {
	if r := strings.TrimSpace(strings.Join(args, " ")); r != "" {
		return r
	}
	return defaultReason
}

func cannot(c *call, verb string) {
	c.fail("I cannot %s this user. Check my role position & permissions.", verb)
}

func (h *Handler) ban(_ context.Context, c *call) error {
	id, rest, ok := target(c)
	if !ok {
		c.fail("Mention a user or provide a valid ID.")
		return nil
	}
	name := utils.EscapeMd(h.gw.UserName(c.GuildID, id))
	reason := reasonOf(rest)
	if err := h.gw.Ban(c.GuildID, id, reason); err != nil {
		if isMissingAccess(err) {
			cannot(c, "ban")
			return nil
		}
		return fmt.Errorf("ban %s: %w", id, err)
	}
	c.log.Info("member banned", zap.String("target_id", id), zap.String("reason", reason))
	c.ok("Banned **%s**", name)
	return nil
}

func (h *Handler) unban(_ context.Context, c *call) error {
	var id string
	if len(c.inv.Args) > 0 {
		id, _ = utils.ParseUserID(c.inv.Args[0])
	}
	if id == "" {
		c.fail("Usage: `%sunban <userId>`", h.cfg.Prefix)
		return nil
	}
	if err := h.gw.Unban(c.GuildID, id); err != nil {
		var re *discordgo.RESTError
		if errors.As(err, &re) && re.Message != nil && re.Message.Code == discordgo.ErrCodeUnknownBan {
			c.fail("User ID **%s** is not banned.", id)
			return nil
		}
		if isMissingAccess(err) {
			cannot(c, "unban")
			return nil
		}
		return fmt.Errorf("unban %s: %w", id, err)
	}
	c.log.Info("member unbanned", zap.String("target_id", id))
	c.ok("Unbanned user ID: **%s**", id)
	return nil
}

func (h *Handler) kick(_ context.Context, c *call) error {
	id, rest, ok := target(c)
	if !ok {
		c.fail("Mention a user to kick.")
		return nil
	}
	name := utils.EscapeMd(h.gw.UserName(c.GuildID, id))
	reason := reasonOf(rest)
	if err := h.gw.Kick(c.GuildID, id, reason); err != nil {
		if isMissingAccess(err) {
			cannot(c, "kick")
			return nil
		}
		return fmt.Errorf("kick %s: %w", id, err)
	}
	c.log.Info("member kicked", zap.String("target_id", id), zap.String("reason", reason))
	c.ok("Kicked **%s**", name)
	return nil
}

func (h *Handler) mute(_ context.Context, c *call) error {
	id, rest, ok := target(c)
	if !ok {
		c.fail("Mention a user to mute.")
		return nil
	}
	mins := defaultMuteMinutes
	if len(rest) > 0 {
		n, valid := utils.ParseMinutes(rest[0])
		if !valid || n < 1 || n > maxMuteMinutes {
			c.fail("Duration must be between 1 and %d minutes.", maxMuteMinutes)
			return nil
		}
		mins = n
	}

	name := utils.EscapeMd(h.gw.UserName(c.GuildID, id))
	until := time.Now().Add(time.Duration(mins) * time.Minute)
	if err := h.gw.Timeout(c.GuildID, id, &until); err != nil {
		if isMissingAccess(err) {
			cannot(c, "mute")
			return nil
		}
		return fmt.Errorf("timeout %s: %w", id, err)
	}
	c.log.Info("member muted", zap.String("target_id", id), zap.Int("minutes", mins))
	c.ok("Muted **%s** for **%dm**", name, mins)
	return nil
}

func (h *Handler) unmute(_ context.Context, c *call) error {
	id, _, ok := target(c)
	if !ok {
		c.fail("Mention a user to unmute.")
		return nil
	}
	name := utils.EscapeMd(h.gw.UserName(c.GuildID, id))
	if err := h.gw.Timeout(c.GuildID, id, nil); err != nil {
		if isMissingAccess(err) {
			cannot(c, "unmute")
			return nil
		}
		return fmt.Errorf("clear timeout %s: %w", id, err)
	}
	c.log.Info("member unmuted", zap.String("target_id", id))
	c.ok("Unmuted **%s**", name)
	return nil
}

func (h *Handler) setEveryone(c *call, perm int64, allowed bool, done string) error {
	if err := h.gw.SetEveryone(c.GuildID, c.ChannelID, perm, allowed); err != nil {
		return fmt.Errorf("edit @everyone overwrite: %w", err)
	}
	c.log.Info("channel overwrite updated", zap.String("channel_id", c.ChannelID), zap.Bool("allowed", allowed))
	c.ok("Channel %s for **@everyone**.", done)
	return nil
}

func (h *Handler) lock(_ context.Context, c *call) error {
	return h.setEveryone(c, discordgo.PermissionSendMessages, false, "locked")
}

func (h *Handler) unlock(_ context.Context, c *call) error {
	return h.setEveryone(c, discordgo.PermissionSendMessages, true, "unlocked")
}

func (h *Handler) hide(_ context.Context, c *call) error {
	return h.setEveryone(c, discordgo.PermissionViewChannel, false, "hidden")
}

func (h *Handler) unhide(_ context.Context, c *call) error {
	return h.setEveryone(c, discordgo.PermissionViewChannel, true, "unhidden")
}

// purge removes the last n messages of the channel, the command itself
// included, and posts a notice that removes itself shortly after.
func (h *Handler) purge(_ context.Context, c *call) error {
	n := 0
	if len(c.inv.Args) > 0 {
		n, _ = strconv.Atoi(c.inv.Args[0])
	}
	if n < 1 || n > maxPurge {
		c.fail("Amount must be between 1 and %d.", maxPurge)
		return nil
	}

	deleted, err := h.gw.Purge(c.ChannelID, n)
	if err != nil {
		if isMissingAccess(err) {
			c.fail("I cannot delete messages here. Check my role position & permissions.")
			return nil
		}
		return fmt.Errorf("purge: %w", err)
	}
	c.log.Info("messages purged", zap.String("channel_id", c.ChannelID), zap.Int("requested", n), zap.Int("deleted", deleted))

	// the trigger is usually gone now, so this is a plain send
	msg, err := h.gw.Send(c.ChannelID, ui.Success(fmt.Sprintf("Purged **%d** messages.", deleted)), nil)
	if err != nil {
		c.log.Warn("purge notice failed", zap.Error(err))
		return nil
	}
	h.after(purgeNoticeTTL, func() {
		if err := h.gw.DeleteMessage(c.ChannelID, msg.ID); err != nil {
			h.log.Debug("delete purge notice", zap.Error(err))
		}
	})
	return nil
}
