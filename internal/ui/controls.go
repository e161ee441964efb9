package ui

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/sonroyaalmerol/warden/internal/player"
)

// Music control buttons map onto these commands.
var musicButtons = []struct {
	command string
	label   string
	emoji   string
}{
	{"pause", "Pause", "⏸️"},
	{"skip", "Skip", "⏭️"},
	{"stop", "Stop", "⏹️"},
	{"loop", "Loop", "🔂"},
}

// MusicControls builds the button row under a now-playing embed. The pause
// button turns into resume while paused.
func MusicControls(s player.Snapshot) []discordgo.MessageComponent {
	buttons := make([]discordgo.MessageComponent, 0, len(musicButtons))
	for _, b := range musicButtons {
		cmd, label, emoji := b.command, b.label, b.emoji
		style := discordgo.SecondaryButton
		switch {
		case cmd == "pause" && s.Status == player.StatusPaused:
			cmd, label, emoji = "resume", "Resume", "▶️"
		case cmd == "loop" && s.Loop:
			style = discordgo.SuccessButton
		case cmd == "stop":
			style = discordgo.DangerButton
		}
		buttons = append(buttons, discordgo.Button{
			CustomID: MusicButtonPrefix + cmd,
			Label:    label,
			Style:    style,
			Emoji:    &discordgo.ComponentEmoji{Name: emoji},
		})
	}
	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}

// ParseMusicButton returns the command behind a music button custom ID.
func ParseMusicButton(customID string) (string, bool) {
	cmd, ok := strings.CutPrefix(customID, MusicButtonPrefix)
	if !ok || cmd == "" {
		return "", false
	}
	return cmd, true
}
