package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/sonroyaalmerol/warden/internal/auth"
	"github.com/sonroyaalmerol/warden/internal/command"
	"github.com/sonroyaalmerol/warden/internal/player"
	"github.com/sonroyaalmerol/warden/internal/repository"
	"github.com/sonroyaalmerol/warden/internal/utils"
)

const (
	WhitelistMenuID   = "wl_menu"
	MusicButtonPrefix = "music:"

	// MaxWhitelistLines caps wl list output to stay inside the embed limit.
	MaxWhitelistLines = 40

	tick  = "✅"
	cross = "❌"
)

// Result is the one embed style used for every command reply.
func Result(title, desc string, ok bool) *discordgo.MessageEmbed {
	mark := tick
	if !ok {
		mark = cross
	}
	return &discordgo.MessageEmbed{
		Title:       mark + " " + title,
		Description: desc,
		Color:       0x000000,
	}
}

func Success(desc string) *discordgo.MessageEmbed { return Result("Success", desc, true) }

func Error(desc string) *discordgo.MessageEmbed { return Result("Error", desc, false) }

func Help(prefix string) *discordgo.MessageEmbed {
	return Result("Help", command.HelpText(prefix), true)
}

func WhitelistPanel(prefix string) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	opts := make([]discordgo.SelectMenuOption, 0, len(auth.Categories))
	for _, c := range auth.Categories {
		name := string(c)
		opts = append(opts, discordgo.SelectMenuOption{
			Label: strings.ToUpper(name[:1]) + name[1:],
			Value: name,
		})
	}
	embed := Result("Whitelist Panel",
		fmt.Sprintf("Select a category.\nThen use:\n`%swl add @user <category>`", prefix), true)
	row := discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			CustomID:    WhitelistMenuID,
			Placeholder: "Select Category",
			Options:     opts,
		},
	}}
	return embed, []discordgo.MessageComponent{row}
}

// WhitelistSelected is the ephemeral echo for a panel selection.
func WhitelistSelected(prefix, category string) string {
	return fmt.Sprintf("%s Selected: **%s**\nNow use: `%swl add @user %s`", tick, category, prefix, category)
}

func WhitelistList(entries []repository.WhitelistEntry) *discordgo.MessageEmbed {
	if len(entries) == 0 {
		return Result("Whitelist", "No whitelist entries found.", true)
	}
	lines := make([]string, 0, min(len(entries), MaxWhitelistLines)+1)
	for i, e := range entries {
		if i == MaxWhitelistLines {
			lines = append(lines, fmt.Sprintf("…and %d more", len(entries)-MaxWhitelistLines))
			break
		}
		lines = append(lines, fmt.Sprintf("• **%s** → `%s`", e.Category, e.UserID))
	}
	return Result("Whitelist", strings.Join(lines, "\n"), true)
}

func trackLink(t player.Track) string {
	title := utils.EscapeMd(utils.Truncate(t.Title, 80))
	if t.URL == "" {
		return title
	}
	return fmt.Sprintf("[%s](%s)", title, t.URL)
}

func progressLine(s player.Snapshot) string {
	cur := s.NowPlaying
	button := "▶️"
	if s.Status == player.StatusPaused {
		button = "⏸️"
	}
	if cur.Duration <= 0 {
		return fmt.Sprintf("%s %s `[ %s ]`", button, ProgressBar(10, 0), utils.PrettyTime(s.Elapsed))
	}
	progress := float64(s.Elapsed) / float64(cur.Duration)
	return fmt.Sprintf("%s %s `[ %s/%s ]`", button, ProgressBar(10, progress),
		utils.PrettyTime(s.Elapsed), utils.PrettyTime(cur.Duration))
}

// NowPlaying renders the current track; the boolean is false when nothing
// is playing.
func NowPlaying(s player.Snapshot) (*discordgo.MessageEmbed, bool) {
	cur := s.NowPlaying
	if cur == nil {
		return Result("Music", "Nothing is playing.", false), false
	}
	title := "Now Playing"
	if s.Status == player.StatusPaused {
		title = "Paused"
	}
	if s.Loop {
		title += " 🔂"
	}
	desc := fmt.Sprintf("**%s**\nRequested by: <@%s>\n\n%s", trackLink(*cur), cur.RequestedBy, progressLine(s))
	embed := Result(title, desc, true)
	if cur.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: cur.Thumbnail}
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: queueInfo(len(s.Pending)) + " in queue"}
	return embed, true
}

// TrackStarted is the announcement posted when a track begins.
func TrackStarted(t player.Track) *discordgo.MessageEmbed {
	desc := fmt.Sprintf("Playing: **%s**", trackLink(t))
	if t.Duration > 0 {
		desc += fmt.Sprintf(" `[ %s ]`", utils.PrettyTime(t.Duration))
	}
	embed := Result("Music", desc, true)
	if t.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: t.Thumbnail}
	}
	return embed
}

func TrackQueued(t player.Track, pos int) *discordgo.MessageEmbed {
	return Result("Music", fmt.Sprintf("Queued: **%s**\nPosition: **%d**", trackLink(t), pos), true)
}

func TrackFailed(t player.Track) *discordgo.MessageEmbed {
	return Result("Music", fmt.Sprintf("Could not play **%s**, skipping.", trackLink(t)), false)
}

// Queue renders one page of pending tracks below the current one. Pages
// start at 1 and out-of-range pages are clamped.
func Queue(s player.Snapshot, page, pageSize int) *discordgo.MessageEmbed {
	if s.NowPlaying == nil && len(s.Pending) == 0 {
		return Result("Queue", "The queue is empty.", false)
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	maxPage := max(1, (len(s.Pending)+pageSize-1)/pageSize)
	page = min(max(page, 1), maxPage)

	var sb strings.Builder
	if s.NowPlaying != nil {
		fmt.Fprintf(&sb, "**%s**\nRequested by: <@%s>\n%s\n\n", trackLink(*s.NowPlaying), s.NowPlaying.RequestedBy, progressLine(s))
	}

	var total time.Duration
	for _, t := range s.Pending {
		total += t.Duration
	}

	begin := (page - 1) * pageSize
	end := min(begin+pageSize, len(s.Pending))
	if begin < end {
		sb.WriteString("**Up next:**\n")
		for i, t := range s.Pending[begin:end] {
			dur := "?"
			if t.Duration > 0 {
				dur = utils.PrettyTime(t.Duration)
			}
			fmt.Fprintf(&sb, "`%d.` %s `[ %s ]`\n", begin+i+1, trackLink(t), dur)
		}
	}

	title := "Queue"
	if s.Loop {
		title += " (loop on)"
	}
	embed := Result(title, sb.String(), true)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "In queue", Value: queueInfo(len(s.Pending)), Inline: true},
		{Name: "Total length", Value: totalLenStr(total), Inline: true},
		{Name: "Page", Value: fmt.Sprintf("%d out of %d", page, maxPage), Inline: true},
	}
	return embed
}

func queueInfo(n int) string {
	switch n {
	case 0:
		return "no songs"
	case 1:
		return "1 song"
	}
	return fmt.Sprintf("%d songs", n)
}

func totalLenStr(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return utils.PrettyTime(d)
}
