package negotiate

import "sync"

// Previous is whatever occupied the shared slot before a Registry is
// constructed. The set of implementations is closed: *Registry, PlainConfig
// and Conflict. An empty slot is a nil Previous.
type Previous interface {
	// Supersede tells the previous occupant it is no longer authoritative.
	// Only a *Registry does anything with it.
	Supersede()

	// handOff returns the state a new Registry inherits. A *Registry is
	// superseded by the same call.
	handOff() seed
}

// seed is the state a new Registry inherits from the slot.
type seed struct {
	table      *sourceTable
	config     Config
	invoked    bool
	newestName string
	hasNewest  bool
	conflict   any
}

// PlainConfig is a plain value placed in the slot before any registry
// existed: usually just user configuration, optionally with state left by an
// installation that predates registries.
type PlainConfig struct {
	Config Config

	Sources    []NamedSource
	Invoked    bool
	NewestName string
}

// NamedSource pairs a Source with the name it is registered under.
type NamedSource struct {
	Name   string
	Source Source
}

// Supersede implements Previous. It is a no-op.
func (PlainConfig) Supersede() {}

func (p PlainConfig) handOff() seed {
	s := seed{
		config:     p.Config.clone(),
		invoked:    p.Invoked,
		newestName: p.NewestName,
		hasNewest:  p.NewestName != "",
	}
	if len(p.Sources) > 0 {
		s.table = newSourceTable()
		for _, ns := range p.Sources {
			if ns.Source != nil {
				s.table.put(ns.Name, ns.Source)
			}
		}
	}
	return s
}

// Conflict wraps an unrelated value found in the slot. The registry keeps it
// for inspection and otherwise ignores it.
type Conflict struct {
	Value any
}

// Supersede implements Previous. It is a no-op.
func (Conflict) Supersede() {}

func (c Conflict) handOff() seed {
	return seed{conflict: c.Value}
}

var (
	_ Previous = (*Registry)(nil)
	_ Previous = PlainConfig{}
	_ Previous = Conflict{}
)

// Slot is the single shared location bundles negotiate through. The
// embedding application owns one Slot per process (or per page) and hands
// it to every bundle, then calls Ready once loading is over. The zero value
// is an empty slot.
type Slot struct {
	mu    sync.Mutex
	value Previous
	ready ManualScheduler
}

// NewSlot returns a slot pre-filled with v, typically a PlainConfig.
func NewSlot(v Previous) *Slot {
	return &Slot{value: v}
}

// Load returns the current occupant, or nil if the slot is empty.
func (s *Slot) Load() Previous {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Store replaces the current occupant.
func (s *Slot) Store(v Previous) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = v
}

// Registry returns the slot's registry, if it holds one.
func (s *Slot) Registry() (*Registry, bool) {
	reg, ok := s.Load().(*Registry)
	return reg, ok && reg != nil
}

// Ready signals that every bundle had its chance to register. It runs the
// negotiation deferred by Negotiate calls that did not pass WithScheduler
// and returns how many deferred callbacks ran. Init is at most once per
// chain, so calling Ready again is harmless.
func (s *Slot) Ready() int {
	return s.ready.Flush()
}
