package negotiate

import "sync"

// sourceTable is the name -> Source mapping shared by every registry in a
// supersede chain. It remembers first-insertion order: queries break ties and
// pick "last match" by that order, and overwriting a name keeps its slot.
type sourceTable struct {
	mu     sync.RWMutex
	names  []string
	byName map[string]Source
}

type tableEntry struct {
	name   string
	source Source
}

func newSourceTable() *sourceTable {
	return &sourceTable{byName: make(map[string]Source)}
}

// put inserts or overwrites name and reports whether it replaced an entry.
func (t *sourceTable) put(name string, src Source) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, replaced := t.byName[name]
	if !replaced {
		t.names = append(t.names, name)
	}
	t.byName[name] = src
	return replaced
}

func (t *sourceTable) get(name string) (Source, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	src, ok := t.byName[name]
	return src, ok
}

func (t *sourceTable) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.names)
}

// snapshot copies the entries so callers can query sources without holding
// the lock.
func (t *sourceTable) snapshot() []tableEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]tableEntry, len(t.names))
	for i, name := range t.names {
		out[i] = tableEntry{name: name, source: t.byName[name]}
	}
	return out
}
