package store

import (
	"path/filepath"
	"testing"

	"github.com/serrynah/music-bites/pkg/models"

	"github.com/sirupsen/logrus"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	s, err := OpenLocal(filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("OpenLocal: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLocalListEmpty(t *testing.T) {
	s := newTestLocal(t)

	snippets, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(snippets) != 0 {
		t.Errorf("expected empty collection, got %d records", len(snippets))
	}
}

func TestLocalUpsertAndList(t *testing.T) {
	s := newTestLocal(t)

	first := models.Snippet{ID: "a", SongName: "First", AudioType: models.SourceSpotify, StartTime: "0:00", Position: 0}
	second := models.Snippet{ID: "b", SongName: "Second", AudioType: models.SourceFile, StartTime: "1:30", Position: 1}

	if err := s.Upsert(first); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(second); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// Replace by ID keeps the collection at two records.
	first.SongName = "First Edited"
	if err := s.Upsert(first); err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}

	snippets, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(snippets) != 2 {
		t.Fatalf("expected 2 records, got %d", len(snippets))
	}
	if snippets[0].SongName != "First Edited" {
		t.Errorf("expected replaced record, got %q", snippets[0].SongName)
	}
	if snippets[1].ID != "b" {
		t.Errorf("expected position order, got %q first", snippets[1].ID)
	}
}

func TestLocalListOrdersByPosition(t *testing.T) {
	s := newTestLocal(t)

	s.Upsert(models.Snippet{ID: "late", Position: 5})
	s.Upsert(models.Snippet{ID: "early", Position: 1})
	s.Upsert(models.Snippet{ID: "middle", Position: 3})

	snippets, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	got := []string{snippets[0].ID, snippets[1].ID, snippets[2].ID}
	want := []string{"early", "middle", "late"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestLocalDelete(t *testing.T) {
	s := newTestLocal(t)

	s.Upsert(models.Snippet{ID: "keep", Position: 0})
	s.Upsert(models.Snippet{ID: "drop", Position: 1})

	if err := s.Delete("drop"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	// Unknown IDs are not an error.
	if err := s.Delete("never-existed"); err != nil {
		t.Errorf("Delete unknown id: %v", err)
	}

	snippets, _ := s.List()
	if len(snippets) != 1 || snippets[0].ID != "keep" {
		t.Errorf("expected only the kept record, got %+v", snippets)
	}
}

func TestLocalStripsEphemeralAudioRefs(t *testing.T) {
	s := newTestLocal(t)

	s.Upsert(models.Snippet{
		ID:        "up",
		AudioType: models.SourceFile,
		AudioURL:  "/media/abc123",
		Position:  0,
	})

	snippets, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if snippets[0].AudioURL != "" {
		t.Errorf("ephemeral audio reference survived serialization: %q", snippets[0].AudioURL)
	}
}

func TestLocalReplaceAll(t *testing.T) {
	s := newTestLocal(t)

	s.Upsert(models.Snippet{ID: "old", Position: 0})

	replacement := []models.Snippet{
		{ID: "n1", SongName: "New One", Position: 0},
		{ID: "n2", SongName: "New Two", Position: 1},
	}
	if err := s.ReplaceAll(replacement); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	snippets, _ := s.List()
	if len(snippets) != 2 || snippets[0].ID != "n1" || snippets[1].ID != "n2" {
		t.Errorf("expected replaced collection, got %+v", snippets)
	}
}

func TestLocalSurvivesReopen(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := OpenLocal(path, logger)
	if err != nil {
		t.Fatalf("OpenLocal: %v", err)
	}
	s.Upsert(models.Snippet{ID: "persisted", SongName: "Still Here", Notes: "survives restarts", Position: 0})
	s.Close()

	reopened, err := OpenLocal(path, logger)
	if err != nil {
		t.Fatalf("OpenLocal reopen: %v", err)
	}
	defer reopened.Close()

	snippets, err := reopened.List()
	if err != nil {
		t.Fatalf("List after reopen: %v", err)
	}
	if len(snippets) != 1 || snippets[0].SongName != "Still Here" {
		t.Errorf("expected persisted record after reopen, got %+v", snippets)
	}
}
