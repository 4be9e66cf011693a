package store

import (
	"database/sql"
	"fmt"
	"net/url"

	"github.com/serrynah/music-bites/pkg/models"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Remote is the network-backed Postgres store. Errors surface to the caller
// unchanged; this adapter never retries. Demotion decisions belong to the
// Router.
type Remote struct {
	conn   *sql.DB
	logger *logrus.Logger
}

// OpenRemote builds a connection handle from the configured endpoint and
// credential. sql.Open does not dial, so a configured-but-unreachable store
// is only discovered by the first query.
func OpenRemote(endpoint, credential string, logger *logrus.Logger) (*Remote, error) {
	dsn, err := buildDSN(endpoint, credential)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote store: %w", err)
	}

	logger.WithField("endpoint", redact(endpoint)).Info("Remote store configured")
	return &Remote{conn: conn, logger: logger}, nil
}

// buildDSN injects the credential as the connection password. The endpoint
// carries everything else (host, port, database, user, options).
func buildDSN(endpoint, credential string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid remote endpoint: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("remote endpoint must be a postgres:// URL, got %q", u.Scheme)
	}

	user := "musicbites"
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, credential)

	return u.String(), nil
}

// redact strips userinfo from an endpoint before it reaches a log line.
func redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "invalid"
	}
	u.User = nil
	return u.String()
}

// EnsureSchema creates the snippet table if it does not already exist.
// Failures here are reported but the caller treats them as non-fatal; an
// unreachable store demotes on first use instead.
func (r *Remote) EnsureSchema() error {
	table := `
	CREATE TABLE IF NOT EXISTS music_snippets (
		id TEXT PRIMARY KEY,
		song_name TEXT NOT NULL DEFAULT '',
		audio_type TEXT NOT NULL DEFAULT 'file',
		audio_url TEXT,
		spotify_url TEXT NOT NULL DEFAULT '',
		soundcloud_url TEXT NOT NULL DEFAULT '',
		start_time TEXT NOT NULL DEFAULT '0:00',
		notes TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`
	if _, err := r.conn.Exec(table); err != nil {
		return fmt.Errorf("failed to ensure remote schema: %w", err)
	}
	return nil
}

// List returns all snippets ordered by position ascending.
func (r *Remote) List() ([]models.Snippet, error) {
	rows, err := r.conn.Query(`
		SELECT id, song_name, audio_type, audio_url, spotify_url,
		       soundcloud_url, start_time, notes, position, updated_at
		FROM music_snippets
		ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snippets: %w", err)
	}
	defer rows.Close()

	snippets := []models.Snippet{}
	for rows.Next() {
		var s models.Snippet
		var audioURL sql.NullString
		var updatedAt sql.NullTime
		if err := rows.Scan(
			&s.ID, &s.SongName, &s.AudioType, &audioURL, &s.SpotifyURL,
			&s.SoundCloudURL, &s.StartTime, &s.Notes, &s.Position, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snippet row: %w", err)
		}
		if audioURL.Valid {
			s.AudioURL = audioURL.String
		}
		if updatedAt.Valid {
			s.UpdatedAt = updatedAt.Time
		}
		snippets = append(snippets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snippet rows: %w", err)
	}

	return snippets, nil
}

// Upsert inserts or replaces by ID. The update timestamp is stamped
// server-side on every write.
func (r *Remote) Upsert(s models.Snippet) error {
	_, err := r.conn.Exec(`
		INSERT INTO music_snippets
			(id, song_name, audio_type, audio_url, spotify_url,
			 soundcloud_url, start_time, notes, position, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (id) DO UPDATE SET
			song_name = EXCLUDED.song_name,
			audio_type = EXCLUDED.audio_type,
			audio_url = EXCLUDED.audio_url,
			spotify_url = EXCLUDED.spotify_url,
			soundcloud_url = EXCLUDED.soundcloud_url,
			start_time = EXCLUDED.start_time,
			notes = EXCLUDED.notes,
			position = EXCLUDED.position,
			updated_at = NOW()`,
		s.ID, s.SongName, s.AudioType, nullIfEmpty(s.AudioURL), s.SpotifyURL,
		s.SoundCloudURL, s.StartTime, s.Notes, s.Position)
	if err != nil {
		return fmt.Errorf("failed to upsert snippet %s: %w", s.ID, err)
	}
	return nil
}

// Delete removes the record with the given ID. Unknown IDs delete zero rows.
func (r *Remote) Delete(id string) error {
	if _, err := r.conn.Exec("DELETE FROM music_snippets WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete snippet %s: %w", id, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *Remote) Close() error {
	return r.conn.Close()
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
