package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	s, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.LogLevel != "warn" || s.Manifest != "" || s.Polyfills != nil {
		t.Errorf("Load() = %+v, want defaults", s)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, "log_level: debug\npolyfills: false\nmanifest: sources.star\n")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Manifest != "sources.star" {
		t.Errorf("Manifest = %q", s.Manifest)
	}
	if s.Polyfills == nil || *s.Polyfills {
		t.Errorf("Polyfills = %v, want explicit false", s.Polyfills)
	}
	if l, _ := s.Level(); l != slog.LevelDebug {
		t.Errorf("Level() = %v, want debug", l)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "log_level: debug\n")
	t.Setenv("NEGOTIATE_LOG_LEVEL", "error")
	t.Setenv("NEGOTIATE_POLYFILLS", "true")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want env override", s.LogLevel)
	}
	if s.Polyfills == nil || !*s.Polyfills {
		t.Errorf("Polyfills = %v, want true from env", s.Polyfills)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"explicit missing file", func(t *testing.T) string {
			return filepath.Join(t.TempDir(), "nope.yaml")
		}},
		{"bad log level", func(t *testing.T) string {
			return writeConfig(t, "log_level: loud\n")
		}},
		{"bad yaml", func(t *testing.T) string {
			return writeConfig(t, "log_level: [\n")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.path(t)); err == nil {
				t.Error("Load() succeeded, want error")
			}
		})
	}
}

func TestFilePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if got, want := FilePath(), filepath.Join(home, ".negotiate", "config.yaml"); got != want {
		t.Errorf("FilePath() = %q, want %q", got, want)
	}
}
