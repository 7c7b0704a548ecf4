package negotiate

import (
	"context"
	"errors"
	"log/slog"

	"github.com/albertocavalcante/go-negotiate/version"
)

// Option configures a Registry.
type Option func(*registryConfig) error

// registryConfig holds everything injected into a Registry.
type registryConfig struct {
	scheduler  Scheduler
	metrics    *Metrics
	cache      RequirementCache
	apiVersion string

	// logger is nil unless WithLogger was used; see log().
	logger *slog.Logger
}

// WithScheduler sets how the deferred Init is scheduled. FromPrevious
// requires it; Negotiate defaults to the slot's own queue, run by
// Slot.Ready.
func WithScheduler(s Scheduler) Option {
	return func(c *registryConfig) error {
		if s == nil {
			return errors.New("scheduler must not be nil")
		}
		c.scheduler = s
		return nil
	}
}

// WithLogger sets a structured logger for negotiation diagnostics.
// If not set, logging is disabled.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("component", "negotiate")
//	reg, err := negotiate.FromPrevious(prev, negotiate.WithScheduler(sched), negotiate.WithLogger(logger))
func WithLogger(l *slog.Logger) Option {
	return func(c *registryConfig) error {
		c.logger = l
		return nil
	}
}

// WithMetrics records negotiation events on m. A nil m disables metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *registryConfig) error {
		c.metrics = m
		return nil
	}
}

// WithRequirementCache caches parsed requirement strings for Satisfying,
// Local and LocalCompatible.
func WithRequirementCache(cache RequirementCache) Option {
	return func(c *registryConfig) error {
		c.cache = cache
		return nil
	}
}

// WithAPIVersion overrides the negotiation protocol version the Registry
// reports. Negotiate uses it to decide whether an existing registry must be
// superseded. Only useful for simulating older or newer bundles.
func WithAPIVersion(v string) Option {
	return func(c *registryConfig) error {
		c.apiVersion = v
		return nil
	}
}

// validate checks the configuration for logical consistency.
func (c *registryConfig) validate() error {
	if c.scheduler == nil {
		return ErrNoScheduler
	}
	if !version.Parse(c.apiVersion).Valid() {
		return errors.New("api version " + c.apiVersion + " is not a version")
	}
	return nil
}

// log returns the configured logger, or a no-op logger if none was set.
// Libraries stay silent unless the caller opts in.
func (c *registryConfig) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(discardHandler{})
}

// discardHandler is a slog.Handler that discards all log records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// newRegistryConfig applies opts over the defaults and validates the result.
func newRegistryConfig(opts ...Option) (*registryConfig, error) {
	c := &registryConfig{
		apiVersion: APIVersion,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}
