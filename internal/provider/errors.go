package provider

import "errors"

// Sentinel errors for provider resolution and dispatch. These fail
// before any network call is attempted.
var (
	// ErrUnknownProvider indicates the requested provider name is not
	// registered at all.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrNotConfigured indicates the provider is registered but has no
	// credential; a capability-absence signal, surfaced through
	// availability checks wherever a pre-check exists.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrNotInitialized indicates the provider's backend client failed
	// to construct.
	ErrNotInitialized = errors.New("provider not initialized")

	// ErrInvalidProvider indicates the request's call shape does not
	// match the provider's family (agent-session call routed to a chat
	// provider, or vice versa).
	ErrInvalidProvider = errors.New("invalid provider for call shape")
)

// Sentinel errors for backend failures during dispatched calls.
var (
	// ErrRateLimit indicates the backend returned a rate limit response.
	ErrRateLimit = errors.New("provider rate limited")

	// ErrContextLength indicates the request exceeded the model's
	// context window.
	ErrContextLength = errors.New("context length exceeded")

	// ErrProviderDown indicates the backend is temporarily unavailable.
	ErrProviderDown = errors.New("provider unavailable")
)

// IsRetryable reports whether the error is transient. The core performs
// no retries itself; this is advisory for callers.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrProviderDown)
}
