package handlers

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sonroyaalmerol/warden/internal/auth"
	"github.com/sonroyaalmerol/warden/internal/ui"
	"github.com/sonroyaalmerol/warden/internal/utils"
)

// whitelist handles "wl", "wl list", "wl add @user cat" and "wl remove @user cat".
// Anything else shows the panel.
func (h *Handler) whitelist(ctx context.Context, c *call) error {
	sub := ""
	if len(c.inv.Args) > 0 {
		sub = strings.ToLower(c.inv.Args[0])
	}

	switch sub {
	case "list":
		entries, err := h.store.ListWhitelist(ctx, c.GuildID)
		if err != nil {
			return fmt.Errorf("list whitelist: %w", err)
		}
		c.respond(ui.WhitelistList(entries), nil)
		return nil

	case "add", "remove":
		return h.editWhitelist(ctx, c, sub)
	}

	embed, comps := ui.WhitelistPanel(h.cfg.Prefix)
	c.respond(embed, comps)
	return nil
}

func (h *Handler) editWhitelist(ctx context.Context, c *call, sub string) error {
	usage := func() {
		c.respond(ui.Result("Usage",
			fmt.Sprintf("Use: `%swl %s @user <%s>`", h.cfg.Prefix, sub, auth.CategoryNames("/")), false), nil)
	}

	args := c.inv.Args[1:]
	if len(args) < 2 {
		usage()
		return nil
	}
	userID, ok := utils.ParseUserID(args[0])
	if !ok {
		usage()
		return nil
	}
	cat, err := auth.ParseCategory(args[1])
	if err != nil {
		usage()
		return nil
	}

	name := utils.EscapeMd(h.gw.UserName(c.GuildID, userID))
	log := c.log.With(zap.String("target_id", userID), zap.String("category", string(cat)))

	if sub == "add" {
		added, err := h.store.AddWhitelist(ctx, c.GuildID, userID, string(cat))
		if err != nil {
			return fmt.Errorf("add whitelist: %w", err)
		}
		if !added {
			c.respond(ui.Result("Whitelist", fmt.Sprintf("**%s** is already in **%s**", name, cat), true), nil)
			return nil
		}
		log.Info("whitelist entry added")
		c.respond(ui.Result("Whitelist Updated", fmt.Sprintf("Added **%s** to **%s**", name, cat), true), nil)
		return nil
	}

	removed, err := h.store.RemoveWhitelist(ctx, c.GuildID, userID, string(cat))
	if err != nil {
		return fmt.Errorf("remove whitelist: %w", err)
	}
	if !removed {
		c.respond(ui.Result("Whitelist", fmt.Sprintf("**%s** is not in **%s**", name, cat), true), nil)
		return nil
	}
	log.Info("whitelist entry removed")
	c.respond(ui.Result("Whitelist Updated", fmt.Sprintf("Removed **%s** from **%s**", name, cat), true), nil)
	return nil
}
