package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/serrynah/music-bites/pkg/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// collectionKey is the fixed key the whole collection is stored under.
const collectionKey = "music_snippets"

// Local is the on-device store. It keeps the entire collection as one JSON
// blob under a fixed key in a SQLite key-value table; upsert and delete
// recompute the full collection and rewrite the whole blob. Ephemeral audio
// references are stripped before serialization since they cannot survive
// the session.
type Local struct {
	conn   *sql.DB
	logger *logrus.Logger

	getStmt *sql.Stmt
	setStmt *sql.Stmt
}

// OpenLocal opens (or creates) the local store at the provided path and
// ensures the key-value table exists. Caller should Close() it when done.
func OpenLocal(path string, logger *logrus.Logger) (*Local, error) {
	conn, err := sql.Open("sqlite3", path+"?cache=shared&mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	// SQLite works better with few connections
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(15 * time.Minute)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA temp_store=memory;",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			logger.WithError(err).WithField("pragma", pragma).Warn("Failed to set pragma")
		}
	}

	s := &Local{
		conn:   conn,
		logger: logger,
	}

	if err := s.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := s.prepareStatements(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	logger.WithField("path", path).Info("Local store initialized")
	return s, nil
}

// createTables creates the key-value table if it does not already exist.
// Idempotent and safe to call multiple times.
func (s *Local) createTables() error {
	table := `
	CREATE TABLE IF NOT EXISTS collections (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	_, err := s.conn.Exec(table)
	return err
}

func (s *Local) prepareStatements() error {
	var err error

	s.getStmt, err = s.conn.Prepare("SELECT value FROM collections WHERE key = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	s.setStmt, err = s.conn.Prepare(`
		INSERT INTO collections (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("failed to prepare set statement: %w", err)
	}

	return nil
}

// List returns the stored collection ordered by position ascending. A store
// that has never been written is legitimately empty, not an error.
func (s *Local) List() ([]models.Snippet, error) {
	snippets, err := s.load()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(snippets, func(i, j int) bool {
		return snippets[i].Position < snippets[j].Position
	})
	return snippets, nil
}

// Upsert replaces the record with the same ID, or appends it, then rewrites
// the whole blob.
func (s *Local) Upsert(snippet models.Snippet) error {
	snippets, err := s.load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range snippets {
		if snippets[i].ID == snippet.ID {
			snippets[i] = snippet
			replaced = true
			break
		}
	}
	if !replaced {
		snippets = append(snippets, snippet)
	}

	return s.ReplaceAll(snippets)
}

// Delete removes the record with the given ID and rewrites the whole blob.
func (s *Local) Delete(id string) error {
	snippets, err := s.load()
	if err != nil {
		return err
	}

	kept := snippets[:0]
	for _, sn := range snippets {
		if sn.ID != id {
			kept = append(kept, sn)
		}
	}

	return s.ReplaceAll(kept)
}

// ReplaceAll writes an entire collection snapshot in one blob write. This is
// also how the router mirrors in-memory state when demoting from remote.
func (s *Local) ReplaceAll(snippets []models.Snippet) error {
	serializable := make([]models.Snippet, len(snippets))
	for i, sn := range snippets {
		// Ephemeral upload references are meaningless outside the
		// session that created them.
		sn.AudioURL = ""
		serializable[i] = sn
	}

	data, err := json.Marshal(serializable)
	if err != nil {
		return fmt.Errorf("failed to serialize collection: %w", err)
	}

	if _, err := s.setStmt.Exec(collectionKey, string(data)); err != nil {
		return fmt.Errorf("failed to write collection blob: %w", err)
	}
	return nil
}

// load reads and deserializes the blob. Missing key means empty collection.
func (s *Local) load() ([]models.Snippet, error) {
	var raw string
	err := s.getStmt.QueryRow(collectionKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return []models.Snippet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read collection blob: %w", err)
	}

	var snippets []models.Snippet
	if err := json.Unmarshal([]byte(raw), &snippets); err != nil {
		return nil, fmt.Errorf("failed to deserialize collection: %w", err)
	}
	return snippets, nil
}

// Close releases prepared statements and the underlying connection.
func (s *Local) Close() error {
	if s.getStmt != nil {
		s.getStmt.Close()
	}
	if s.setStmt != nil {
		s.setStmt.Close()
	}
	return s.conn.Close()
}
