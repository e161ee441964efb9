package command

import (
	"fmt"
	"strings"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindUtility
	KindAFK
	KindModeration
	KindWhitelist
	KindMusic
)

// Spec describes one command of the bot.
type Spec struct {
	Name  string
	Kind  Kind
	Usage string
	Help  string
}

var catalog = []Spec{
	{Name: "ping", Kind: KindUtility, Help: "Show gateway latency"},
	{Name: "help", Kind: KindUtility, Help: "List commands"},
	{Name: "afk", Kind: KindAFK, Usage: "[reason]", Help: "Set your AFK status"},

	{Name: "ban", Kind: KindModeration, Usage: "@user|id [reason]", Help: "Ban a member"},
	{Name: "unban", Kind: KindModeration, Usage: "<userId>", Help: "Lift a ban"},
	{Name: "kick", Kind: KindModeration, Usage: "@user|id [reason]", Help: "Kick a member"},
	{Name: "mute", Kind: KindModeration, Usage: "@user [minutes]", Help: "Time out a member"},
	{Name: "unmute", Kind: KindModeration, Usage: "@user", Help: "Clear a timeout"},
	{Name: "lock", Kind: KindModeration, Help: "Deny @everyone sending here"},
	{Name: "unlock", Kind: KindModeration, Help: "Allow @everyone sending here"},
	{Name: "hide", Kind: KindModeration, Help: "Hide this channel from @everyone"},
	{Name: "unhide", Kind: KindModeration, Help: "Show this channel to @everyone"},
	{Name: "purge", Kind: KindModeration, Usage: "<1-100>", Help: "Bulk delete recent messages"},

	{Name: "wl", Kind: KindWhitelist, Usage: "[add|remove|list] [@user] [category]", Help: "Manage the whitelist"},

	{Name: "join", Kind: KindMusic, Help: "Join your voice channel"},
	{Name: "disconnect", Kind: KindMusic, Help: "Leave voice and clear the queue"},
	{Name: "play", Kind: KindMusic, Usage: "<query|url>", Help: "Queue a track"},
	{Name: "skip", Kind: KindMusic, Help: "Skip the current track"},
	{Name: "stop", Kind: KindMusic, Help: "Stop and clear the queue"},
	{Name: "pause", Kind: KindMusic, Help: "Pause playback"},
	{Name: "resume", Kind: KindMusic, Help: "Resume playback"},
	{Name: "loop", Kind: KindMusic, Help: "Toggle looping the current track"},
	{Name: "shuffle", Kind: KindMusic, Help: "Shuffle the pending tracks"},
	{Name: "queue", Kind: KindMusic, Help: "Show the queue"},
	{Name: "nowplaying", Kind: KindMusic, Help: "Show the current track"},
}

var aliases = map[string]string{
	"j":       "join",
	"p":       "play",
	"dc":      "disconnect",
	"leave":   "disconnect",
	"s":       "skip",
	"np":      "nowplaying",
	"q":       "queue",
	"unpause": "resume",
}

var byName = func() map[string]Spec {
	m := make(map[string]Spec, len(catalog))
	for _, s := range catalog {
		m[s.Name] = s
	}
	return m
}()

// Canonical resolves an alias to its command name. Input must be lower-case.
func Canonical(name string) string {
	if c, ok := aliases[name]; ok {
		return c
	}
	return name
}

func Lookup(name string) (Spec, bool) {
	s, ok := byName[name]
	return s, ok
}

func KindOf(name string) Kind {
	return byName[name].Kind
}

func IsModeration(name string) bool { return KindOf(name) == KindModeration }

func IsMusic(name string) bool { return KindOf(name) == KindMusic }

// Catalog returns the commands in help order.
func Catalog() []Spec {
	out := make([]Spec, len(catalog))
	copy(out, catalog)
	return out
}

// HelpText renders the command list grouped by kind.
func HelpText(prefix string) string {
	sections := []struct {
		title string
		kind  Kind
	}{
		{"Moderation", KindModeration},
		{"Whitelist", KindWhitelist},
		{"AFK", KindAFK},
		{"Music", KindMusic},
		{"Utility", KindUtility},
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**Prefix:** `%s`\n", prefix)
	for _, sec := range sections {
		fmt.Fprintf(&sb, "\n**%s**\n", sec.title)
		for _, s := range catalog {
			if s.Kind != sec.kind {
				continue
			}
			line := prefix + s.Name
			if s.Usage != "" {
				line += " " + s.Usage
			}
			fmt.Fprintf(&sb, "`%s` %s\n", line, s.Help)
		}
	}
	sb.WriteString("\n`afk [reason]` also works without the prefix.")
	return sb.String()
}
