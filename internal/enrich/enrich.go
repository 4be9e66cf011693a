// Package enrich resolves human titles for pasted Spotify and SoundCloud
// track URLs via their public oEmbed endpoints, and builds the embed
// descriptors the UI renders previews from. Lookups are best-effort: any
// failure means "no title available", never a user-facing error.
package enrich

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/serrynah/music-bites/internal/cache"
	"github.com/serrynah/music-bites/pkg/models"

	"github.com/sirupsen/logrus"
)

var (
	// First capture group is the track ID; its absence means "cannot
	// render a preview", not an error.
	spotifyTrackPattern = regexp.MustCompile(`track/([A-Za-z0-9]+)`)

	spotifyURLPattern    = regexp.MustCompile(`^https?://open\.spotify\.com/(?:intl-[a-z]{2}(?:-[A-Za-z]{2})?/)?track/[A-Za-z0-9]+`)
	soundcloudURLPattern = regexp.MustCompile(`^https?://(?:www\.|m\.)?soundcloud\.com/[\w\-]+/[\w\-]+`)
)

// Enricher fetches track titles from the public oEmbed endpoints.
type Enricher struct {
	client *http.Client
	cache  *cache.TitleCache
	logger *logrus.Logger

	// Endpoint bases, overridable in tests.
	SpotifyEndpoint    string
	SoundCloudEndpoint string
}

// NewEnricher creates an enricher with a short request timeout; a slow
// metadata endpoint must never hold up anything.
func NewEnricher(logger *logrus.Logger) *Enricher {
	return &Enricher{
		client:             &http.Client{Timeout: 10 * time.Second},
		cache:              cache.NewTitleCache(),
		logger:             logger,
		SpotifyEndpoint:    "https://open.spotify.com/oembed",
		SoundCloudEndpoint: "https://soundcloud.com/oembed",
	}
}

// IsTrackURL reports whether raw matches the canonical track-URL shape of
// the given source kind. Only matching URLs are worth a lookup.
func IsTrackURL(kind models.AudioSourceKind, raw string) bool {
	switch kind {
	case models.SourceSpotify:
		return spotifyURLPattern.MatchString(raw)
	case models.SourceSoundCloud:
		return soundcloudURLPattern.MatchString(raw)
	}
	return false
}

// SpotifyTrackID extracts the track ID from a Spotify URL.
func SpotifyTrackID(raw string) (string, bool) {
	match := spotifyTrackPattern.FindStringSubmatch(raw)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// oembedResponse is the slice of the oEmbed payload this system cares
// about; any other shape is treated as "no title available".
type oembedResponse struct {
	Title string `json:"title"`
}

// TrackTitle resolves a title for a track URL. Results are cached by URL.
// Errors are for the caller's debug log only; they must not reach the user.
func (e *Enricher) TrackTitle(kind models.AudioSourceKind, trackURL string) (string, error) {
	if title, ok := e.cache.GetTitle(trackURL); ok {
		return title, nil
	}

	var endpoint string
	switch kind {
	case models.SourceSpotify:
		endpoint = fmt.Sprintf("%s?url=%s", e.SpotifyEndpoint, url.QueryEscape(trackURL))
	case models.SourceSoundCloud:
		endpoint = fmt.Sprintf("%s?format=json&url=%s", e.SoundCloudEndpoint, url.QueryEscape(trackURL))
	default:
		return "", fmt.Errorf("no metadata endpoint for source kind %q", kind)
	}

	resp, err := e.client.Get(endpoint)
	if err != nil {
		return "", fmt.Errorf("metadata request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("metadata endpoint returned %d", resp.StatusCode)
	}

	var payload oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("malformed metadata payload: %w", err)
	}
	if payload.Title == "" {
		return "", fmt.Errorf("metadata payload has no title")
	}

	e.cache.SetTitle(trackURL, payload.Title)

	e.logger.WithFields(logrus.Fields{
		"kind":  kind,
		"title": payload.Title,
	}).Debug("Track title resolved")
	return payload.Title, nil
}

// Embed describes how the UI should render a preview for a snippet.
type Embed struct {
	Kind models.AudioSourceKind `json:"kind"`
	URL  string                 `json:"url,omitempty"`

	// Hint is set instead of URL when the pasted link cannot be turned
	// into a preview.
	Hint string `json:"hint,omitempty"`
}

// BuildEmbed turns a snippet's active reference into an embeddable player
// URL. An unparseable link yields an inline hint, not an error.
func BuildEmbed(s models.Snippet) Embed {
	switch s.AudioType {
	case models.SourceSpotify:
		id, ok := SpotifyTrackID(s.SpotifyURL)
		if !ok {
			return Embed{Kind: s.AudioType, Hint: "invalid URL"}
		}
		return Embed{Kind: s.AudioType, URL: "https://open.spotify.com/embed/track/" + id}
	case models.SourceSoundCloud:
		if !soundcloudURLPattern.MatchString(s.SoundCloudURL) {
			return Embed{Kind: s.AudioType, Hint: "invalid URL"}
		}
		return Embed{
			Kind: s.AudioType,
			URL:  "https://w.soundcloud.com/player/?url=" + url.QueryEscape(s.SoundCloudURL),
		}
	default:
		if s.AudioURL == "" {
			return Embed{Kind: models.SourceFile, Hint: "no audio uploaded"}
		}
		return Embed{Kind: models.SourceFile, URL: s.AudioURL}
	}
}
