package stream

import (
	"context"
	"fmt"
	"strings"
	"sync"

	ytdlp "github.com/lrstanley/go-ytdlp"
)

// mediaInfo is the part of yt-dlp's JSON dump the bot uses.
type mediaInfo struct {
	ID         string
	Title      string
	WebpageURL string
	Duration   float64
	IsLive     bool
	Thumbnail  string
	urls       []string // candidate stream URLs, best first
}

// AudioURL returns the best playable URL.
func (m *mediaInfo) AudioURL() string {
	for _, u := range m.urls {
		if strings.HasPrefix(u, "http") {
			return u
		}
	}
	return ""
}

type extractFunc func(ctx context.Context, target string) (*mediaInfo, error)

type ytdlpExtractor struct {
	cookies string
	install bool

	once       sync.Once
	installErr error
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func (y *ytdlpExtractor) ensureInstalled(ctx context.Context) error {
	if !y.install {
		return nil
	}
	y.once.Do(func() {
		if _, err := ytdlp.Install(ctx, nil); err != nil {
			y.installErr = fmt.Errorf("install yt-dlp: %w", err)
		}
	})
	return y.installErr
}

// extract runs yt-dlp -J against a URL or ytsearch query and returns the
// first entry.
func (y *ytdlpExtractor) extract(ctx context.Context, target string) (*mediaInfo, error) {
	if err := y.ensureInstalled(ctx); err != nil {
		return nil, err
	}

	cmd := ytdlp.New().
		Format("ba[acodec^=opus]/ba[ext=m4a]/bestaudio/best").
		NoCheckCertificates().
		NoPlaylist().
		NoWarnings().
		DumpJSON()
	if y.cookies != "" {
		cmd = cmd.Cookies(y.cookies)
	}

	res, err := cmd.Run(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp run: %w", err)
	}
	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("parse yt-dlp json: %w", err)
	}
	if len(infos) == 0 || infos[0] == nil {
		return nil, nil
	}

	ext := infos[0]
	if len(ext.Entries) > 0 {
		ext = nil
		for _, e := range infos[0].Entries {
			if e != nil {
				ext = e
				break
			}
		}
		if ext == nil {
			return nil, nil
		}
	}
	return toMediaInfo(ext), nil
}

func toMediaInfo(ext *ytdlp.ExtractedInfo) *mediaInfo {
	m := &mediaInfo{
		ID:         ext.ID,
		Title:      str(ext.Title),
		WebpageURL: str(ext.WebpageURL),
	}
	if ext.Duration != nil {
		m.Duration = *ext.Duration
	}
	if ext.IsLive != nil {
		m.IsLive = *ext.IsLive
	}
	// yt-dlp sorts thumbnails by preference, best last
	if n := len(ext.Thumbnails); n > 0 && ext.Thumbnails[n-1] != nil {
		m.Thumbnail = ext.Thumbnails[n-1].URL
	}

	for _, f := range ext.RequestedFormats {
		if f != nil {
			m.urls = append(m.urls, f.URL)
		}
	}
	if u := str(ext.URL); u != "" {
		m.urls = append(m.urls, u)
	}
	for _, f := range ext.Formats {
		if f != nil {
			m.urls = append(m.urls, f.URL)
		}
	}
	return m
}
