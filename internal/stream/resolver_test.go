package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sonroyaalmerol/warden/internal/player"
	"github.com/sonroyaalmerol/warden/internal/spotify"
)

type fakeExtractor struct {
	targets []string
	infos   map[string]*mediaInfo
}

func (f *fakeExtractor) extract(_ context.Context, target string) (*mediaInfo, error) {
	f.targets = append(f.targets, target)
	return f.infos[target], nil
}

type fakeSpotify struct{ track spotify.Track }

func (f fakeSpotify) LookupTrack(context.Context, string) (spotify.Track, error) {
	return f.track, nil
}

const songPage = "https://www.youtube.com/watch?v=abc"

func songInfo() *mediaInfo {
	return &mediaInfo{
		Title:      "Song",
		WebpageURL: songPage,
		Duration:   61.5,
		urls:       []string{"", "https://cdn.example.com/audio"},
	}
}

func TestSearchFreeTextUsesYtsearch(t *testing.T) {
	ex := &fakeExtractor{infos: map[string]*mediaInfo{"ytsearch1:some song": songInfo()}}
	r := newResolver(ex.extract, nil, time.Hour, zap.NewNop())

	tr, err := r.Search(context.Background(), "  some song ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if tr.Title != "Song" || tr.URL != songPage || tr.Duration != 61500*time.Millisecond {
		t.Fatalf("unexpected track %+v", tr)
	}

	// the stream URL found while searching is reused
	u, err := r.Resolve(context.Background(), tr)
	if err != nil || u != "https://cdn.example.com/audio" {
		t.Fatalf("expected cached audio url, got %q %v", u, err)
	}
	if len(ex.targets) != 1 {
		t.Fatalf("expected a single extraction, got %v", ex.targets)
	}
}

func TestSearchURLPassesThrough(t *testing.T) {
	ex := &fakeExtractor{infos: map[string]*mediaInfo{songPage: songInfo()}}
	r := newResolver(ex.extract, nil, time.Hour, zap.NewNop())

	if _, err := r.Search(context.Background(), songPage); err != nil {
		t.Fatalf("search: %v", err)
	}
	if ex.targets[0] != songPage {
		t.Fatalf("expected URL extracted directly, got %s", ex.targets[0])
	}
}

func TestSearchNoResults(t *testing.T) {
	ex := &fakeExtractor{infos: map[string]*mediaInfo{}}
	r := newResolver(ex.extract, nil, time.Hour, zap.NewNop())

	if _, err := r.Search(context.Background(), "nothing"); !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
	if _, err := r.Search(context.Background(), "   "); !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected ErrNoResults for blank query, got %v", err)
	}
}

func TestSearchSpotifyLinkBecomesSearch(t *testing.T) {
	const link = "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"
	ex := &fakeExtractor{infos: map[string]*mediaInfo{"ytsearch1:Song Band": songInfo()}}

	r := newResolver(ex.extract, nil, time.Hour, zap.NewNop())
	if _, err := r.Search(context.Background(), link); !errors.Is(err, ErrSpotifyDisabled) {
		t.Fatalf("expected ErrSpotifyDisabled, got %v", err)
	}

	r = newResolver(ex.extract, fakeSpotify{spotify.Track{Name: "Song", Artist: "Band"}}, time.Hour, zap.NewNop())
	tr, err := r.Search(context.Background(), link)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if tr.URL != songPage {
		t.Fatalf("expected youtube page, got %s", tr.URL)
	}
}

func TestResolveExtractsWhenUncached(t *testing.T) {
	ex := &fakeExtractor{infos: map[string]*mediaInfo{songPage: songInfo()}}
	r := newResolver(ex.extract, nil, time.Hour, zap.NewNop())

	u, err := r.Resolve(context.Background(), player.Track{URL: songPage})
	if err != nil || u != "https://cdn.example.com/audio" {
		t.Fatalf("expected audio url, got %q %v", u, err)
	}

	ex.infos[songPage] = &mediaInfo{Title: "Song"}
	r = newResolver(ex.extract, nil, time.Hour, zap.NewNop())
	if _, err := r.Resolve(context.Background(), player.Track{URL: songPage}); !errors.Is(err, ErrNotPlayable) {
		t.Fatalf("expected ErrNotPlayable, got %v", err)
	}
}
