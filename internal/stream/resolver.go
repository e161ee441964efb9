package stream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sonroyaalmerol/warden/internal/cache"
	"github.com/sonroyaalmerol/warden/internal/config"
	"github.com/sonroyaalmerol/warden/internal/player"
	"github.com/sonroyaalmerol/warden/internal/spotify"
)

var (
	ErrNoResults       = errors.New("no results")
	ErrNotPlayable     = errors.New("no playable stream")
	ErrSpotifyDisabled = errors.New("spotify links need spotify credentials")
)

// TrackLookup expands a spotify link into searchable metadata.
type TrackLookup interface {
	LookupTrack(ctx context.Context, link string) (spotify.Track, error)
}

// Resolver finds tracks with yt-dlp and caches their stream URLs, which
// expire on the provider side after a few hours.
type Resolver struct {
	extract extractFunc
	spotify TrackLookup
	urls    *cache.TTL[string]
	log     *zap.Logger
}

// NewResolver builds a yt-dlp backed resolver. sp may be nil.
func NewResolver(cfg config.MusicConfig, sp TrackLookup, log *zap.Logger) *Resolver {
	y := &ytdlpExtractor{cookies: cfg.YtdlpCookies, install: cfg.YtdlpInstall}
	return newResolver(y.extract, sp, cfg.ResolveTTL, log)
}

func newResolver(extract extractFunc, sp TrackLookup, ttl time.Duration, log *zap.Logger) *Resolver {
	if ttl <= 0 {
		ttl = 5 * time.Hour
	}
	return &Resolver{
		extract: extract,
		spotify: sp,
		urls:    cache.New[string](ttl),
		log:     log.Named("resolver"),
	}
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Search turns a URL or free text into one track.
func (r *Resolver) Search(ctx context.Context, query string) (player.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return player.Track{}, ErrNoResults
	}

	target := query
	switch {
	case spotify.IsLink(query):
		if r.spotify == nil {
			return player.Track{}, ErrSpotifyDisabled
		}
		st, err := r.spotify.LookupTrack(ctx, query)
		if err != nil {
			return player.Track{}, err
		}
		target = "ytsearch1:" + st.Query()
	case !isURL(query):
		target = "ytsearch1:" + query
	}

	info, err := r.extract(ctx, target)
	if err != nil {
		return player.Track{}, err
	}
	if info == nil || (info.Title == "" && info.WebpageURL == "") {
		return player.Track{}, ErrNoResults
	}

	t := player.Track{
		Title:     info.Title,
		URL:       info.WebpageURL,
		Duration:  time.Duration(info.Duration * float64(time.Second)),
		Thumbnail: info.Thumbnail,
	}
	if t.URL == "" {
		t.URL = query
	}
	if t.Title == "" {
		t.Title = t.URL
	}
	if u := info.AudioURL(); u != "" {
		r.urls.Set(t.URL, u)
	}
	r.log.Debug("search resolved", zap.String("query", query), zap.String("url", t.URL))
	return t, nil
}

// Resolve returns a stream URL for t, extracting again once the cached one
// has expired.
func (r *Resolver) Resolve(ctx context.Context, t player.Track) (string, error) {
	if u, ok := r.urls.Get(t.URL); ok {
		return u, nil
	}
	info, err := r.extract(ctx, t.URL)
	if err != nil {
		return "", err
	}
	if info == nil {
		return "", ErrNotPlayable
	}
	u := info.AudioURL()
	if u == "" {
		return "", fmt.Errorf("%s: %w", t.URL, ErrNotPlayable)
	}
	r.urls.Set(t.URL, u)
	return u, nil
}
