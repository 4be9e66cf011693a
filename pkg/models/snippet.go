package models

import "time"

// AudioSourceKind selects which reference field of a Snippet is authoritative.
type AudioSourceKind string

const (
	SourceFile       AudioSourceKind = "file"
	SourceSpotify    AudioSourceKind = "spotify"
	SourceSoundCloud AudioSourceKind = "soundcloud"
)

// Valid reports whether k is one of the three known source kinds.
func (k AudioSourceKind) Valid() bool {
	switch k {
	case SourceFile, SourceSpotify, SourceSoundCloud:
		return true
	}
	return false
}

// Snippet represents one curated music reference: an uploaded audio file,
// a Spotify track, or a SoundCloud track, with a start-time marker and notes.
type Snippet struct {
	ID        string          `json:"id"`
	SongName  string          `json:"songName"`
	AudioType AudioSourceKind `json:"audioType"`

	// AudioURL is the served path of a session-scoped upload, only
	// meaningful while AudioType is "file". It does not survive the
	// process and is stripped from on-device serialization.
	AudioURL      string `json:"audioUrl,omitempty"`
	SpotifyURL    string `json:"spotifyUrl"`
	SoundCloudURL string `json:"soundcloudUrl"`

	StartTime string `json:"startTime"`
	Notes     string `json:"notes"`
	Position  int    `json:"position"`

	// UpdatedAt is stamped by the remote store on write; zero for
	// records that only ever lived on-device.
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// ActiveReference returns the reference field selected by AudioType.
// The other two fields are retained on kind switches, so switching away
// and back is lossless.
func (s Snippet) ActiveReference() string {
	switch s.AudioType {
	case SourceSpotify:
		return s.SpotifyURL
	case SourceSoundCloud:
		return s.SoundCloudURL
	default:
		return s.AudioURL
	}
}
