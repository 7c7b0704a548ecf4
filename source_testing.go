package negotiate

import (
	"errors"
	"fmt"
	"sync"
)

// Compile-time interface compliance checks
var (
	_ Source           = (*RecordingSource)(nil)
	_ PluginPolyfiller = (*RecordingSource)(nil)
	_ Source           = (*FailingSource)(nil)
)

// RecordingSource is a Source that counts how often each capability was
// used. Useful for tests and dry runs.
type RecordingSource struct {
	name    string
	version string

	mu              sync.Mutex
	polyfills       int
	pluginPolyfills int
	players         int
}

// NewRecordingSource creates a source reporting the given version. The name
// is only used to label created players.
func NewRecordingSource(name, version string) *RecordingSource {
	return &RecordingSource{name: name, version: version}
}

// Name returns the label given to NewRecordingSource.
func (s *RecordingSource) Name() string { return s.name }

// Version implements Source.
func (s *RecordingSource) Version() string { return s.version }

// Polyfill implements Source.
func (s *RecordingSource) Polyfill() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polyfills++
	return nil
}

// PluginPolyfill implements PluginPolyfiller.
func (s *RecordingSource) PluginPolyfill() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pluginPolyfills++
	return nil
}

// CreatePlayer implements Source. Players are labelled "name#n".
func (s *RecordingSource) CreatePlayer() (Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players++
	return fmt.Sprintf("%s#%d", s.name, s.players), nil
}

// Polyfills returns how many times Polyfill was called.
func (s *RecordingSource) Polyfills() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polyfills
}

// PluginPolyfills returns how many times PluginPolyfill was called.
func (s *RecordingSource) PluginPolyfills() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pluginPolyfills
}

// FailingSource is a Source whose capabilities always fail.
// Useful for testing error handling paths.
type FailingSource struct {
	SourceVersion string
	Err           error
	// Panic makes Polyfill panic instead of returning Err.
	Panic bool
}

// NewFailingSource creates a source that fails with err.
func NewFailingSource(version string, err error) *FailingSource {
	if err == nil {
		err = errors.New("polyfill failed")
	}
	return &FailingSource{SourceVersion: version, Err: err}
}

// Version implements Source.
func (s *FailingSource) Version() string { return s.SourceVersion }

// Polyfill implements Source.
func (s *FailingSource) Polyfill() error {
	if s.Panic {
		panic(s.Err)
	}
	return s.Err
}

// CreatePlayer implements Source.
func (s *FailingSource) CreatePlayer() (Player, error) {
	return nil, s.Err
}
