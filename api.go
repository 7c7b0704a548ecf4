// Package negotiate arbitrates between several independently-loaded
// installations ("sources") of the same library that share one slot.
//
// Every bundle that loads calls Negotiate with the shared Slot. The first
// one creates a Registry; later ones join it, or replace it with a registry
// speaking a newer protocol. Once the loading phase is over, the live
// registry's deferred Init picks the source with the highest semantic
// version and asks it to polyfill. Exactly one Init runs per slot, however
// many registries were built along the way.
//
// # Quick Start
//
//	slot := negotiate.NewSlot(negotiate.PlainConfig{Config: cfg})
//
//	// Each bundle:
//	reg, err := negotiate.Negotiate(slot, "local", mySource)
//
//	// When the page is ready:
//	slot.Ready()
//
// # Queries
//
// After (or before) negotiation, callers can pick a source for their own
// use:
//
//	reg.Newest()                  // highest version
//	reg.Satisfying(">=1.2 <2")    // last registered match
//	reg.LocalCompatible()         // ^local, else newest
//	reg.Local()                   // =local, else newest
//
// Versions and requirements are handled by the version package.
//
// # Thread Safety
//
// All exported types in this package are safe for concurrent use.
package negotiate

// Negotiate joins a source to the registry in slot, creating or upgrading
// the registry first. Unless WithScheduler is given, the registry's Init
// waits for slot.Ready.
//
// The slot's registry is reused unless the slot is empty, holds a
// PlainConfig or Conflict, or holds a registry whose protocol version is
// older than this bundle's (see WithAPIVersion). In those cases a new
// registry is built with FromPrevious and stored in the slot. Options only
// apply to a registry constructed by this call.
//
// If name and src are given, src is registered. When polyfills are enabled
// and src implements PluginPolyfiller, its PluginPolyfill runs immediately.
func Negotiate(slot *Slot, name string, src Source, opts ...Option) (*Registry, error) {
	cfg, err := newRegistryConfig(append([]Option{WithScheduler(&slot.ready)}, opts...)...)
	if err != nil {
		return nil, err
	}

	slot.mu.Lock()
	reg, ok := slot.value.(*Registry)
	if !ok || reg == nil || reg.outdatedBy(cfg.apiVersion) {
		reg = fromPrevious(slot.value, cfg)
		slot.value = reg
	}
	slot.mu.Unlock()

	if name == "" || src == nil {
		return reg, nil
	}

	reg.Register(name, src)
	if p, ok := src.(PluginPolyfiller); ok && reg.Config().PolyfillsEnabled() {
		reg.pluginPolyfill(name, p)
	}
	return reg, nil
}
