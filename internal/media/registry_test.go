package media

import (
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	r, err := NewRegistry(logger)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRegistryAddAndGet(t *testing.T) {
	r := newTestRegistry(t)

	entry, err := r.Add(strings.NewReader("fake audio bytes"), "riff-idea.mp3")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if entry.Ref == "" {
		t.Fatal("expected a reference")
	}
	if entry.Name != "riff-idea.mp3" {
		t.Errorf("Name = %q", entry.Name)
	}
	if entry.ContentType != "audio/mpeg" {
		t.Errorf("ContentType = %q", entry.ContentType)
	}
	if entry.Size != int64(len("fake audio bytes")) {
		t.Errorf("Size = %d", entry.Size)
	}
	// Unparseable bytes still probe a title from the upload name.
	if entry.Title != "riff-idea" {
		t.Errorf("Title = %q, want fallback from upload name", entry.Title)
	}

	got, ok := r.Get(entry.Ref)
	if !ok || got.Ref != entry.Ref {
		t.Errorf("Get(%q) = %+v, %v", entry.Ref, got, ok)
	}
}

func TestRegistryServedPathRoundTrip(t *testing.T) {
	r := newTestRegistry(t)

	entry, err := r.Add(strings.NewReader("bytes"), "cut.wav")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	served := entry.ServedPath()
	if !strings.HasPrefix(served, ServePrefix) {
		t.Fatalf("ServedPath() = %q", served)
	}

	resolved, ok := r.Resolve(served)
	if !ok || resolved.Ref != entry.Ref {
		t.Errorf("Resolve(%q) = %+v, %v", served, resolved, ok)
	}
}

func TestRefFromPath(t *testing.T) {
	tests := []struct {
		path   string
		wantOK bool
	}{
		{"/media/abc-123", true},
		{"/media/", false},
		{"/media/nested/ref", false},
		{"/elsewhere/abc", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if _, ok := RefFromPath(tt.path); ok != tt.wantOK {
				t.Errorf("RefFromPath(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
		})
	}
}

func TestRegistryOpenStreamsBytes(t *testing.T) {
	r := newTestRegistry(t)

	const content = "playable bytes"
	entry, err := r.Add(strings.NewReader(content), "take.flac")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	file, opened, err := r.Open(entry.Ref)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer file.Close()

	if opened.ContentType != "audio/flac" {
		t.Errorf("ContentType = %q", opened.ContentType)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != content {
		t.Errorf("streamed %q, want %q", data, content)
	}
}

func TestRegistryOpenUnknownRef(t *testing.T) {
	r := newTestRegistry(t)

	if _, _, err := r.Open("no-such-ref"); err != ErrUnknownRef {
		t.Errorf("Open unknown ref: %v, want ErrUnknownRef", err)
	}
}

func TestRegistryRelease(t *testing.T) {
	r := newTestRegistry(t)

	entry, err := r.Add(strings.NewReader("short lived"), "temp.mp3")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	r.Release(entry.Ref)

	if _, ok := r.Get(entry.Ref); ok {
		t.Error("released ref should be gone")
	}
	if _, _, err := r.Open(entry.Ref); err != ErrUnknownRef {
		t.Errorf("Open after release: %v, want ErrUnknownRef", err)
	}
	if r.Count() != 0 {
		t.Errorf("Count() = %d after release", r.Count())
	}

	// Double release is a no-op.
	r.Release(entry.Ref)
}
