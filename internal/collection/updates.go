package collection

import (
	"github.com/serrynah/music-bites/internal/timecode"
	"github.com/serrynah/music-bites/pkg/models"
)

// Update is one typed field mutation. The set of implementations is closed:
// every edit the UI can make maps to exactly one of the commands below, and
// all of them funnel through Controller.Apply.
type Update interface {
	apply(s *models.Snippet)
	field() string
}

// SetSongName replaces the display name.
type SetSongName struct{ Name string }

func (u SetSongName) apply(s *models.Snippet) { s.SongName = u.Name }
func (u SetSongName) field() string           { return "song_name" }

// SetAudioSource switches which reference field is authoritative. The other
// reference fields are retained, so switching away and back is lossless.
type SetAudioSource struct{ Kind models.AudioSourceKind }

func (u SetAudioSource) apply(s *models.Snippet) { s.AudioType = u.Kind }
func (u SetAudioSource) field() string           { return "audio_source_kind" }

// SetAudioRef points the snippet at a session upload's served path.
type SetAudioRef struct{ URL string }

func (u SetAudioRef) apply(s *models.Snippet) { s.AudioURL = u.URL }
func (u SetAudioRef) field() string           { return "local_audio_reference" }

// SetSpotifyURL replaces the Spotify link. Validation is lazy; any text is
// accepted and preview rendering decides what it can use.
type SetSpotifyURL struct{ URL string }

func (u SetSpotifyURL) apply(s *models.Snippet) { s.SpotifyURL = u.URL }
func (u SetSpotifyURL) field() string           { return "spotify_url" }

// SetSoundCloudURL replaces the SoundCloud link.
type SetSoundCloudURL struct{ URL string }

func (u SetSoundCloudURL) apply(s *models.Snippet) { s.SoundCloudURL = u.URL }
func (u SetSoundCloudURL) field() string           { return "soundcloud_url" }

// SetStartTime replaces the start-time marker. Empty or malformed input
// reverts to the default rather than erroring.
type SetStartTime struct{ Text string }

func (u SetStartTime) apply(s *models.Snippet) {
	if u.Text == "" || !timecode.IsValid(u.Text) {
		s.StartTime = timecode.Default
		return
	}
	s.StartTime = u.Text
}
func (u SetStartTime) field() string { return "start_time" }

// SetNotes replaces the free-text notes.
type SetNotes struct{ Text string }

func (u SetNotes) apply(s *models.Snippet) { s.Notes = u.Text }
func (u SetNotes) field() string           { return "notes" }
