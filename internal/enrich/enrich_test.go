package enrich

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/serrynah/music-bites/pkg/models"

	"github.com/sirupsen/logrus"
)

func newTestEnricher() *Enricher {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewEnricher(logger)
}

func TestSpotifyTrackID(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		wantID string
		wantOK bool
	}{
		{"plain track url", "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", "4uLU6hMCjMI75M1A2tKUQC", true},
		{"with query", "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc", "4uLU6hMCjMI75M1A2tKUQC", true},
		{"intl prefix", "https://open.spotify.com/intl-de/track/7ouMYWpwJ422jRcDASZB7P", "7ouMYWpwJ422jRcDASZB7P", true},
		{"bare track path", "track/abc123", "abc123", true},
		{"album url", "https://open.spotify.com/album/6dVIqQ8qmQ5GBnJ9shOYGE", "", false},
		{"not a url", "my favourite song", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := SpotifyTrackID(tt.url)
			if ok != tt.wantOK || id != tt.wantID {
				t.Errorf("SpotifyTrackID(%q) = (%q, %v), want (%q, %v)", tt.url, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestIsTrackURL(t *testing.T) {
	tests := []struct {
		name string
		kind models.AudioSourceKind
		url  string
		want bool
	}{
		{"spotify track", models.SourceSpotify, "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", true},
		{"spotify intl track", models.SourceSpotify, "https://open.spotify.com/intl-pt-BR/track/4uLU6hMCjMI75M1A2tKUQC", true},
		{"spotify album", models.SourceSpotify, "https://open.spotify.com/album/xyz", false},
		{"spotify wrong host", models.SourceSpotify, "https://example.com/track/abc", false},
		{"soundcloud track", models.SourceSoundCloud, "https://soundcloud.com/forss/flickermood", true},
		{"soundcloud www", models.SourceSoundCloud, "https://www.soundcloud.com/artist/cut-two", true},
		{"soundcloud profile only", models.SourceSoundCloud, "https://soundcloud.com/forss", false},
		{"file kind never matches", models.SourceFile, "https://soundcloud.com/forss/flickermood", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTrackURL(tt.kind, tt.url); got != tt.want {
				t.Errorf("IsTrackURL(%v, %q) = %v, want %v", tt.kind, tt.url, got, tt.want)
			}
		})
	}
}

func TestTrackTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("url") == "" {
			http.Error(w, "missing url", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"title":"Flickermood by Forss","provider_name":"SoundCloud"}`))
	}))
	defer server.Close()

	e := newTestEnricher()
	e.SoundCloudEndpoint = server.URL

	title, err := e.TrackTitle(models.SourceSoundCloud, "https://soundcloud.com/forss/flickermood")
	if err != nil {
		t.Fatalf("TrackTitle: %v", err)
	}
	if title != "Flickermood by Forss" {
		t.Errorf("title = %q", title)
	}
}

func TestTrackTitleCachesByURL(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"title":"Cached Song"}`))
	}))
	defer server.Close()

	e := newTestEnricher()
	e.SpotifyEndpoint = server.URL

	for i := 0; i < 3; i++ {
		title, err := e.TrackTitle(models.SourceSpotify, "https://open.spotify.com/track/abc")
		if err != nil {
			t.Fatalf("TrackTitle: %v", err)
		}
		if title != "Cached Song" {
			t.Errorf("title = %q", title)
		}
	}
	if hits != 1 {
		t.Errorf("expected 1 endpoint hit, got %d", hits)
	}
}

func TestTrackTitleFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no such track", http.StatusNotFound)
		}},
		{"malformed payload", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>not json</html>`))
		}},
		{"payload without title", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"provider_name":"Spotify"}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			e := newTestEnricher()
			e.SpotifyEndpoint = server.URL

			if _, err := e.TrackTitle(models.SourceSpotify, "https://open.spotify.com/track/abc"); err == nil {
				t.Error("expected an error for the caller to swallow")
			}
		})
	}
}

func TestTrackTitleUnreachableEndpoint(t *testing.T) {
	e := newTestEnricher()
	e.SpotifyEndpoint = "http://127.0.0.1:1/oembed"

	if _, err := e.TrackTitle(models.SourceSpotify, "https://open.spotify.com/track/abc"); err == nil {
		t.Error("expected a network error")
	}
}

func TestBuildEmbed(t *testing.T) {
	tests := []struct {
		name     string
		snippet  models.Snippet
		wantURL  string
		wantHint string
	}{
		{
			"spotify preview",
			models.Snippet{AudioType: models.SourceSpotify, SpotifyURL: "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"},
			"https://open.spotify.com/embed/track/4uLU6hMCjMI75M1A2tKUQC",
			"",
		},
		{
			"spotify invalid url",
			models.Snippet{AudioType: models.SourceSpotify, SpotifyURL: "not a link"},
			"",
			"invalid URL",
		},
		{
			"soundcloud widget",
			models.Snippet{AudioType: models.SourceSoundCloud, SoundCloudURL: "https://soundcloud.com/forss/flickermood"},
			"https://w.soundcloud.com/player/?url=https%3A%2F%2Fsoundcloud.com%2Fforss%2Fflickermood",
			"",
		},
		{
			"soundcloud invalid url",
			models.Snippet{AudioType: models.SourceSoundCloud, SoundCloudURL: "soundcloud"},
			"",
			"invalid URL",
		},
		{
			"uploaded file",
			models.Snippet{AudioType: models.SourceFile, AudioURL: "/media/abc123"},
			"/media/abc123",
			"",
		},
		{
			"uploaded file missing audio",
			models.Snippet{AudioType: models.SourceFile},
			"",
			"no audio uploaded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embed := BuildEmbed(tt.snippet)
			if embed.URL != tt.wantURL || embed.Hint != tt.wantHint {
				t.Errorf("BuildEmbed() = %+v, want url %q hint %q", embed, tt.wantURL, tt.wantHint)
			}
		})
	}
}
