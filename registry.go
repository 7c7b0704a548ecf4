package negotiate

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/albertocavalcante/go-negotiate/version"
)

// APIVersion is the version of the negotiation protocol implemented here.
// A bundle carrying a newer protocol supersedes an older registry instead of
// joining it.
const APIVersion = "0.1.0"

// Registry is the negotiation authority for one slot. It collects sources
// from every bundle and, once, picks the newest one and polyfills it.
//
// Several registries can exist over a page's lifetime. Each new one is built
// from its predecessor with FromPrevious, shares its source table, and takes
// over the pending Init; the predecessor is superseded and its own deferred
// Init does nothing.
//
// All methods are safe for concurrent use.
type Registry struct {
	id         string
	apiVersion string
	table      *sourceTable
	scheduler  Scheduler
	metrics    *Metrics
	cache      RequirementCache
	log        *slog.Logger

	mu         sync.Mutex
	config     Config
	conflict   any
	invoked    bool
	superseded bool
	newestName string
	hasNewest  bool
}

// FromPrevious constructs a Registry from the slot's current occupant.
//
// Sources, config, invoked state and the cached newest name are carried over
// from prev when it has them. If prev is a *Registry it is superseded in the
// same step. Init is then scheduled with the Scheduler given by
// WithScheduler, which is required; it is never run synchronously.
func FromPrevious(prev Previous, opts ...Option) (*Registry, error) {
	cfg, err := newRegistryConfig(opts...)
	if err != nil {
		return nil, err
	}
	return fromPrevious(prev, cfg), nil
}

func fromPrevious(prev Previous, cfg *registryConfig) *Registry {
	var s seed
	if prev != nil {
		s = prev.handOff()
	}
	if s.table == nil {
		s.table = newSourceTable()
	}

	r := &Registry{
		id:         uuid.NewString(),
		apiVersion: cfg.apiVersion,
		table:      s.table,
		scheduler:  cfg.scheduler,
		metrics:    cfg.metrics,
		cache:      cfg.cache,
		config:     s.config,
		conflict:   s.conflict,
		invoked:    s.invoked,
		newestName: s.newestName,
		hasNewest:  s.hasNewest,
	}
	r.log = cfg.log().With("registry_id", r.id)

	r.log.Debug("registry constructed",
		"previous", describePrevious(prev),
		"sources", s.table.len(),
		"invoked", s.invoked)

	r.scheduler.Defer(r.deferredInit)
	return r
}

func describePrevious(prev Previous) string {
	switch p := prev.(type) {
	case nil:
		return "empty"
	case *Registry:
		if p == nil {
			return "empty"
		}
		return "registry " + p.id
	case PlainConfig:
		return "config"
	case Conflict:
		return fmt.Sprintf("conflict %T", p.Value)
	}
	return fmt.Sprintf("%T", prev)
}

// handOff supersedes r and returns the state its successor inherits. Both
// happen under r.mu, so a concurrent Init either runs first and the
// successor inherits invoked, or finds r superseded and does nothing.
func (r *Registry) handOff() seed {
	if r == nil {
		return seed{}
	}
	r.mu.Lock()
	s := seed{
		table:      r.table,
		config:     r.config.clone(),
		invoked:    r.invoked,
		newestName: r.newestName,
		hasNewest:  r.hasNewest,
		conflict:   r.conflict,
	}
	already := r.superseded
	r.superseded = true
	r.mu.Unlock()

	if !already {
		r.supersededBy()
	}
	return s
}

// Supersede marks r as no longer authoritative. Its pending Init, and any
// later call to Init, becomes a no-op. Queries keep working.
func (r *Registry) Supersede() {
	if r == nil {
		return
	}
	r.mu.Lock()
	already := r.superseded
	r.superseded = true
	r.mu.Unlock()

	if !already {
		r.supersededBy()
	}
}

func (r *Registry) supersededBy() {
	r.metrics.superseded()
	r.log.Debug("registry superseded")
}

// Register adds src under name, replacing any source already registered
// under that name. A nil src is ignored.
//
// Sources registered after Init has run are kept for queries but never
// take part in negotiation.
func (r *Registry) Register(name string, src Source) {
	if src == nil {
		r.log.Warn("ignoring nil source", "source", name)
		return
	}

	replaced := r.table.put(name, src)
	r.metrics.registered()

	if r.Invoked() {
		r.log.Info("source registered after negotiation", "source", name, "version", src.Version())
		return
	}
	r.log.Debug("source registered", "source", name, "version", src.Version(), "replaced", replaced)
}

// Init negotiates: it picks the newest registered source and, unless the
// config disables polyfills, calls its Polyfill exactly once.
//
// Init runs at most once per supersede chain. It is a no-op on a registry
// that already ran it, inherited a run from its predecessor, or was
// superseded. It returns ErrNoRegisteredSource if no source can win; a
// failing or panicking Polyfill is logged and does not make Init fail.
func (r *Registry) Init() error {
	r.mu.Lock()
	if r.invoked || r.superseded {
		r.mu.Unlock()
		return nil
	}
	r.invoked = true
	cfg := r.config
	r.mu.Unlock()

	name, ok := r.NewestSourceName()

	r.mu.Lock()
	r.newestName, r.hasNewest = name, ok
	r.mu.Unlock()

	if !ok {
		r.metrics.initialized(outcomeNoSource)
		if n := r.table.len(); n > 0 {
			return fmt.Errorf("%w: none of %d sources is newer than %s", ErrNoRegisteredSource, n, newestSentinel)
		}
		return ErrNoRegisteredSource
	}

	if !cfg.PolyfillsEnabled() {
		r.metrics.initialized(outcomePolyfillsDisabled)
		r.log.Info("negotiated newest source, polyfills disabled", "source", name)
		return nil
	}

	src, _ := r.table.get(name)
	if err := guard(src.Polyfill); err != nil {
		r.metrics.initialized(outcomePolyfillFailed)
		r.metrics.polyfillFailed(stageInit)
		r.log.Error("polyfill failed", "error", &PolyfillError{Source: name, Err: err})
		return nil
	}

	r.metrics.initialized(outcomePolyfilled)
	r.log.Info("negotiated newest source", "source", name, "version", src.Version())
	return nil
}

func (r *Registry) deferredInit() {
	if err := r.Init(); err != nil {
		r.log.Error("negotiation failed", "error", err)
	}
}

// pluginPolyfill runs a source's registration-time shim, logging failures.
func (r *Registry) pluginPolyfill(name string, p PluginPolyfiller) {
	if err := guard(p.PluginPolyfill); err != nil {
		r.metrics.polyfillFailed(stagePlugin)
		r.log.Error("plugin polyfill failed", "error", &PolyfillError{Source: name, Err: err})
	}
}

// guard runs fn, turning a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn()
}

// ID returns the registry's unique instance ID, used in logs.
func (r *Registry) ID() string { return r.id }

// Version returns the negotiation protocol version of this registry.
func (r *Registry) Version() string { return r.apiVersion }

// outdatedBy reports whether a bundle speaking protocol v must replace r.
func (r *Registry) outdatedBy(v string) bool {
	return version.Parse(v).HasPrecedenceOver(version.Parse(r.apiVersion))
}

// Invoked reports whether negotiation has run on this chain.
func (r *Registry) Invoked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.invoked
}

// Superseded reports whether a newer registry took over from r.
func (r *Registry) Superseded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.superseded
}

// NegotiatedName returns the source name chosen by Init, if it ran and found
// one (possibly on a predecessor).
func (r *Registry) NegotiatedName() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newestName, r.hasNewest
}

// Config returns a copy of the page configuration.
func (r *Registry) Config() Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.config.clone()
}

// Conflict returns the unrelated value that occupied the slot before the
// first registry, or nil.
func (r *Registry) Conflict() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conflict
}

// SourceNames returns registered names in first-registration order.
func (r *Registry) SourceNames() []string {
	entries := r.table.snapshot()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

// Source returns the source registered under name.
func (r *Registry) Source(name string) (Source, bool) {
	return r.table.get(name)
}
