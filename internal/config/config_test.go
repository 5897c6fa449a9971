package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBBackend != DatabaseSQLite {
		t.Fatalf("unexpected default backend: %q", cfg.DBBackend)
	}
	if cfg.DBDSN == "" {
		t.Fatal("expected DB DSN to be set")
	}
	if !cfg.RelaxRightsOnFallback {
		t.Fatal("expected rights relaxation to default on")
	}
	if cfg.WatcherInterval != 30*time.Second {
		t.Fatalf("unexpected watcher interval: %v", cfg.WatcherInterval)
	}
}

func TestLoadReadsRotationOverrides(t *testing.T) {
	t.Setenv("AIRLOOM_ARTIST_SEPARATION_MINUTES", "90")
	t.Setenv("AIRLOOM_MAX_ARTIST_IN_WINDOW", "5")
	t.Setenv("AIRLOOM_RELAX_RIGHTS_ON_FALLBACK", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ArtistSeparation != 90*time.Minute {
		t.Fatalf("unexpected artist separation: %v", cfg.ArtistSeparation)
	}
	if cfg.MaxArtistInWindow != 5 {
		t.Fatalf("unexpected artist cap: %d", cfg.MaxArtistInWindow)
	}
	if cfg.RelaxRightsOnFallback {
		t.Fatal("expected rights relaxation to be disabled")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("AIRLOOM_DB_BACKEND", "oracle")

	if _, err := Load(); err == nil {
		t.Fatal("expected config load to fail for unknown backend")
	}
}

func TestLoadRejectsBadSampleRate(t *testing.T) {
	t.Setenv("AIRLOOM_TRACING_SAMPLE_RATE", "1.5")

	if _, err := Load(); err == nil {
		t.Fatal("expected config load to fail for out of range sample rate")
	}
}
