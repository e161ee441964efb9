package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/sonroyaalmerol/warden/internal/afk"
	"github.com/sonroyaalmerol/warden/internal/ui"
	"github.com/sonroyaalmerol/warden/internal/utils"
)

func (h *Handler) setAFK(ctx context.Context, c *call) error {
	rec, err := h.afk.Set(ctx, c.GuildID, c.AuthorID, strings.Join(c.inv.Args, " "))
	if err != nil {
		return err
	}
	c.log.Info("afk set")
	c.respond(ui.Result("AFK Enabled", fmt.Sprintf("Reason: **%s**", utils.EscapeMd(rec.Reason)), true), nil)
	return nil
}

func afkNotice(n afk.Notice) *discordgo.MessageEmbed {
	if n.Kind == afk.WelcomeBack {
		return ui.Result("Welcome Back", "AFK removed.", true)
	}
	return ui.Result("User is AFK",
		fmt.Sprintf("Reason: **%s**\nSince: <t:%d:R>", utils.EscapeMd(n.Reason), n.Since.Unix()), true)
}
