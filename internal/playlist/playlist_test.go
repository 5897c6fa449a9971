package playlist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(path, doc string) error {
	return os.WriteFile(path, []byte(doc), 0o644)
}

func sampleEntries() []Entry {
	return []Entry{
		{Path: "/music/song1.mp3", Title: "Song 1", Artist: "Artist 1", Duration: 3 * time.Minute},
		{Path: "/music/song2.mp3", Title: "Song 2", Artist: "Artist 2", Duration: 200 * time.Second},
	}
}

func TestM3URoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.m3u")

	if err := WriteM3U(sampleEntries(), path); err != nil {
		t.Fatalf("write m3u: %v", err)
	}

	parsed, err := ParseM3U(path)
	if err != nil {
		t.Fatalf("parse m3u: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(parsed))
	}
	if parsed[0].Title != "Song 1" || parsed[0].Artist != "Artist 1" {
		t.Fatalf("unexpected first entry: %+v", parsed[0])
	}
	if parsed[1].Path != "/music/song2.mp3" {
		t.Fatalf("unexpected second path %q", parsed[1].Path)
	}
	if parsed[1].Duration != 200*time.Second {
		t.Fatalf("unexpected duration %v", parsed[1].Duration)
	}
}

func TestEncodeM3UUnknownDuration(t *testing.T) {
	doc := string(EncodeM3U([]Entry{{Path: "/stream", Title: "Live"}}))
	if !strings.HasPrefix(doc, "#EXTM3U\n") {
		t.Fatal("missing extended header")
	}
	if !strings.Contains(doc, "#EXTINF:-1,Live\n") {
		t.Fatalf("unknown duration should encode as -1, got:\n%s", doc)
	}
}

func TestParseM3UPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.m3u")
	doc := "/music/one.mp3\n/music/two.mp3\n"
	if err := writeFile(path, doc); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	parsed, err := ParseM3U(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(parsed))
	}
	if parsed[0].Title != "one" {
		t.Fatalf("expected filename fallback title, got %q", parsed[0].Title)
	}
}

func TestPLSRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.pls")

	if err := WritePLS(sampleEntries(), path); err != nil {
		t.Fatalf("write pls: %v", err)
	}

	parsed, err := ParsePLS(path)
	if err != nil {
		t.Fatalf("parse pls: %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(parsed))
	}
	if parsed[0].Title != "Song 1" {
		t.Fatalf("unexpected title %q", parsed[0].Title)
	}
	if parsed[1].Duration != 200*time.Second {
		t.Fatalf("unexpected duration %v", parsed[1].Duration)
	}
}

func TestParsePLSRejectsMissingSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pls")
	if err := writeFile(path, "File1=/music/one.mp3\n"); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := ParsePLS(path); err == nil {
		t.Fatal("expected missing [playlist] section to fail")
	}
}
