package negotiate

import "maps"

// Config is the page-level configuration carried along the supersede chain.
// The registry only reads Polyfills; Values is passed through untouched for
// collaborators.
type Config struct {
	// Polyfills disables polyfilling only when explicitly false.
	Polyfills *bool `json:"polyfills,omitempty" yaml:"polyfills,omitempty" mapstructure:"polyfills"`

	Values map[string]any `json:"values,omitempty" yaml:"values,omitempty" mapstructure:"values"`
}

// NewConfig returns a Config with Polyfills explicitly set.
func NewConfig(polyfills bool) Config {
	return Config{Polyfills: &polyfills}
}

// PolyfillsEnabled reports whether the winning source should polyfill.
func (c Config) PolyfillsEnabled() bool {
	return c.Polyfills == nil || *c.Polyfills
}

func (c Config) clone() Config {
	out := Config{Values: maps.Clone(c.Values)}
	if c.Polyfills != nil {
		p := *c.Polyfills
		out.Polyfills = &p
	}
	return out
}
