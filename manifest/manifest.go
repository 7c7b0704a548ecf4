// Package manifest reads declaration files listing the installations
// ("sources") that take part in a negotiation, together with the page
// configuration they negotiate under.
//
// Two formats are supported. Starlark files use two kinds of calls:
//
//	negotiation(polyfills = False, values = {"letterbox": "on"})
//	source(name = "local", version = "1.2.0")
//	source(name = "extension", version = "1.3.0-nightly.2")
//
// YAML files carry the same information and are checked against an
// embedded JSON schema before decoding:
//
//	polyfills: false
//	sources:
//	  - name: local
//	    version: 1.2.0
package manifest

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	negotiate "github.com/albertocavalcante/go-negotiate"
	"github.com/albertocavalcante/go-negotiate/version"
)

// Manifest is a parsed declaration file.
type Manifest struct {
	Path string

	// Polyfills is nil unless the file set it.
	Polyfills *bool
	Values    map[string]any
	Sources   []Source
}

// Source is one declared installation.
type Source struct {
	Name    string
	Version string
	Pos     Position
}

// Load reads and parses a declaration file. Files ending in .yaml or .yml
// are parsed as YAML, anything else as Starlark.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse parses content, choosing the format from filename's extension.
func Parse(filename string, data []byte) (*Manifest, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return ParseYAML(filename, data)
	default:
		return ParseStarlark(filename, data)
	}
}

// Config returns the page configuration declared by the manifest.
func (m *Manifest) Config() negotiate.Config {
	cfg := negotiate.Config{Values: maps.Clone(m.Values)}
	if m.Polyfills != nil {
		p := *m.Polyfills
		cfg.Polyfills = &p
	}
	return cfg
}

// Source returns the declared source with the given name.
func (m *Manifest) Source(name string) (Source, bool) {
	for _, s := range m.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return Source{}, false
}

// validate applies the checks shared by both formats.
func (m *Manifest) validate(errs *ValidationErrors) {
	seen := make(map[string]int, len(m.Sources))
	for i, s := range m.Sources {
		field := fmt.Sprintf("sources[%d]", i)
		if s.Name == "" {
			errs.Add(s.Pos, field+".name", "required field is missing or empty")
		} else if first, dup := seen[s.Name]; dup {
			errs.Add(s.Pos, field+".name", fmt.Sprintf("duplicate source %q (first declared as sources[%d])", s.Name, first))
		} else {
			seen[s.Name] = i
		}

		if s.Version == "" {
			errs.Add(s.Pos, field+".version", "required field is missing or empty")
		} else if !version.Parse(s.Version).Valid() {
			errs.Add(s.Pos, field+".version", fmt.Sprintf("%q is not a semantic version", s.Version))
		}
	}
}
