package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	ErrNotSpotify  = errors.New("not a spotify link")
	ErrUnsupported = errors.New("only spotify track links are supported")
)

type Track struct {
	Name   string
	Artist string
}

// Query is the text searched for on the audio provider.
func (t Track) Query() string {
	if t.Artist == "" {
		return t.Name
	}
	return t.Name + " " + t.Artist
}

type Client struct {
	raw *spotify.Client
}

func NewClientCredentials(ctx context.Context, clientID, clientSecret string) *Client {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	return &Client{raw: spotify.New(cfg.Client(ctx), spotify.WithRetry(true))}
}

// IsLink reports whether raw looks like a spotify URI or open.spotify.com URL.
func IsLink(raw string) bool {
	_, _, err := ParseID(raw)
	return !errors.Is(err, ErrNotSpotify)
}

// ParseID splits a spotify URI or URL into its type and ID. Locale path
// segments such as /intl-de/ are skipped.
func ParseID(raw string) (typ string, id spotify.ID, err error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "spotify:") {
		parts := strings.Split(raw, ":")
		if len(parts) != 3 || parts[2] == "" {
			return "", "", fmt.Errorf("invalid spotify URI %q", raw)
		}
		return parts[1], spotify.ID(parts[2]), nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Host != "open.spotify.com" && u.Host != "www.open.spotify.com") {
		return "", "", ErrNotSpotify
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) > 0 && strings.HasPrefix(parts[0], "intl-") {
		parts = parts[1:]
	}
	if len(parts) < 2 || parts[1] == "" {
		return "", "", fmt.Errorf("invalid spotify URL path %q", u.Path)
	}
	return parts[0], spotify.ID(parts[1]), nil
}

// LookupTrack returns the track behind a spotify track link.
func (c *Client) LookupTrack(ctx context.Context, link string) (Track, error) {
	typ, id, err := ParseID(link)
	if err != nil {
		return Track{}, err
	}
	if typ != "track" {
		return Track{}, ErrUnsupported
	}
	t, err := c.raw.GetTrack(ctx, id)
	if err != nil {
		return Track{}, fmt.Errorf("spotify track %s: %w", id, err)
	}
	artist := ""
	if len(t.Artists) > 0 {
		artist = t.Artists[0].Name
	}
	return Track{Name: t.Name, Artist: artist}, nil
}
