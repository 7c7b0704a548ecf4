package negotiate

import (
	"errors"

	"github.com/albertocavalcante/go-negotiate/version"
)

// Sentinel errors for negotiation failures.
var (
	// ErrNoRegisteredSource indicates Init ran without any source able to win.
	// This is a bug in the embedding application, not a runtime condition.
	ErrNoRegisteredSource = errors.New("no registered source")

	// ErrNoScheduler indicates a Registry was constructed without a
	// Scheduler for its deferred Init.
	ErrNoScheduler = errors.New("no scheduler: use WithScheduler")

	// ErrMalformedRequirementTerm indicates a requirement term without a
	// version number. It is the same value as the version package's sentinel.
	ErrMalformedRequirementTerm = version.ErrMalformedRequirementTerm
)

// PolyfillError records a source whose polyfill failed or panicked.
// It is logged and counted, never returned from Init.
type PolyfillError struct {
	Source string
	Err    error
}

func (e *PolyfillError) Error() string {
	return "polyfill for source " + e.Source + " failed: " + e.Err.Error()
}

func (e *PolyfillError) Unwrap() error {
	return e.Err
}
