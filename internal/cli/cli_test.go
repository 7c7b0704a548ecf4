package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	negotiate "github.com/albertocavalcante/go-negotiate"
	"github.com/albertocavalcante/go-negotiate/internal/config"
	"github.com/albertocavalcante/go-negotiate/manifest"
	"github.com/albertocavalcante/go-negotiate/version"
)

const testManifest = `
negotiation(values = {"letterbox": "on"})
source(name = "local", version = "1.2.0")
source(name = "patch", version = "1.2.5")
source(name = "extension", version = "1.3.0")
source(name = "next", version = "1.3.0-rc.1")
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.star")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func useManifest(t *testing.T, content string) {
	t.Helper()
	old := manifestPath
	manifestPath = writeManifest(t, content)
	t.Cleanup(func() { manifestPath = old })
}

func parseManifest(t *testing.T, content string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.ParseStarlark("test.star", []byte(content))
	if err != nil {
		t.Fatalf("ParseStarlark() error = %v", err)
	}
	return m
}

func TestCompareSymbol(t *testing.T) {
	tests := []struct {
		a, b string
		want string
	}{
		{"1.0.0", "2.0.0", "<"},
		{"2.0.0", "1.0.0", ">"},
		{"1.0.0", "1.0.0+build", "="},
		{"1.0.0-rc.1", "1.0.0", "<"},
		{"1.0.0-alpha.10", "1.0.0-alpha.9", ">"},
		{"x.0.0", "1.0.0", "?"},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			if got := compareSymbol(version.Parse(tt.a), version.Parse(tt.b)); got != tt.want {
				t.Errorf("compareSymbol(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRunCheck(t *testing.T) {
	tests := []struct {
		requirement string
		version     string
		want        string
		wantErr     bool
	}{
		{"^1.2.0", "1.4.7", "true", false},
		{"^1.2.0", "2.0.0", "false", false},
		{">=1.0.0 <2.0.0 || ^3.0.0", "3.1.0", "true", false},
		{"latest", "1.0.0", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.requirement+"_"+tt.version, func(t *testing.T) {
			var buf bytes.Buffer
			err := runCheck(&buf, tt.requirement, tt.version)
			if (err != nil) != tt.wantErr {
				t.Fatalf("runCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := strings.TrimSpace(buf.String()); got != tt.want {
				t.Errorf("runCheck() printed %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunQuery(t *testing.T) {
	useManifest(t, testManifest)

	tests := []struct {
		name  string
		query func(*negotiate.Registry) (negotiate.Source, error)
		want  string
	}{
		{"newest", func(r *negotiate.Registry) (negotiate.Source, error) { return r.Newest(), nil }, "extension 1.3.0"},
		{"local", (*negotiate.Registry).Local, "local 1.2.0"},
		{"local-compatible", (*negotiate.Registry).LocalCompatible, "extension 1.3.0"},
		{"satisfying", func(r *negotiate.Registry) (negotiate.Source, error) { return r.Satisfying(">=1.2.1 <1.3.0") }, "patch 1.2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := runQuery(&buf, tt.query); err != nil {
				t.Fatalf("runQuery() error = %v", err)
			}
			if got := strings.TrimSpace(buf.String()); got != tt.want {
				t.Errorf("runQuery() printed %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunQueryNoMatch(t *testing.T) {
	useManifest(t, testManifest)

	err := runQuery(&bytes.Buffer{}, func(r *negotiate.Registry) (negotiate.Source, error) {
		return r.Satisfying("^9.0.0")
	})
	if !errors.Is(err, errNoSource) {
		t.Errorf("runQuery() error = %v, want errNoSource", err)
	}
}

func TestLoadManifestFallsBackToSettings(t *testing.T) {
	old := settings
	t.Cleanup(func() { settings = old })

	settings = &config.Settings{}
	if _, err := loadManifest(); err == nil {
		t.Fatal("loadManifest() succeeded without a manifest")
	}

	settings = &config.Settings{Manifest: writeManifest(t, testManifest)}
	m, err := loadManifest()
	if err != nil {
		t.Fatalf("loadManifest() error = %v", err)
	}
	if len(m.Sources) != 4 {
		t.Errorf("loaded %d sources, want 4", len(m.Sources))
	}
}

func TestRunInit(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		upgrade   bool
		polyfills *bool
		want      []string
	}{
		{
			name:    "shared registry",
			content: testManifest,
			want: []string{
				"registries: 1 (0 superseded)",
				"negotiated: extension 1.3.0",
				"polyfilled: extension",
			},
		},
		{
			name:    "upgrade chain",
			content: testManifest,
			upgrade: true,
			want: []string{
				"registries: 4 (3 superseded)",
				"polyfilled: extension",
			},
		},
		{
			name:    "polyfills disabled in manifest",
			content: "negotiation(polyfills = False)\n" + `source(name = "local", version = "1.0.0")`,
			want: []string{
				"negotiated: local 1.0.0",
				"polyfilled: none (polyfills disabled)",
			},
		},
		{
			name:      "settings override manifest",
			content:   "negotiation(polyfills = True)\n" + `source(name = "local", version = "1.0.0")`,
			polyfills: new(bool),
			want:      []string{"polyfilled: none (polyfills disabled)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old := settings
			t.Cleanup(func() { settings = old })
			settings = &config.Settings{Polyfills: tt.polyfills}

			var buf bytes.Buffer
			if err := runInit(&buf, parseManifest(t, tt.content), tt.upgrade, false); err != nil {
				t.Fatalf("runInit() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output missing %q:\n%s", w, buf.String())
				}
			}
		})
	}
}

func TestRunInitNoSources(t *testing.T) {
	var buf bytes.Buffer
	err := runInit(&buf, &manifest.Manifest{}, false, false)
	if !errors.Is(err, negotiate.ErrNoRegisteredSource) {
		t.Errorf("runInit() error = %v, want ErrNoRegisteredSource", err)
	}
}

func TestRunInitMetrics(t *testing.T) {
	var buf bytes.Buffer
	if err := runInit(&buf, parseManifest(t, testManifest), true, true); err != nil {
		t.Fatalf("runInit() error = %v", err)
	}

	for _, w := range []string{
		"negotiate_source_registrations_total 4",
		"negotiate_registry_supersessions_total 3",
		`negotiate_inits_total{outcome="polyfilled"} 1`,
	} {
		if !strings.Contains(buf.String(), w) {
			t.Errorf("metrics output missing %q:\n%s", w, buf.String())
		}
	}
}

func TestExecuteCompare(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"compare", "1.10.0", "1.9.0"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	if err := Execute("test", "abc", "today"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != ">" {
		t.Errorf("compare printed %q, want >", got)
	}
}
