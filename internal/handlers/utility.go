package handlers

import (
	"context"
	"fmt"

	"github.com/sonroyaalmerol/warden/internal/ui"
)

func (h *Handler) ping(_ context.Context, c *call) error {
	c.respond(ui.Result("Pong!", fmt.Sprintf("Latency: `%dms`", h.gw.Latency().Milliseconds()), true), nil)
	return nil
}

func (h *Handler) help(_ context.Context, c *call) error {
	c.respond(ui.Help(h.cfg.Prefix), nil)
	return nil
}
