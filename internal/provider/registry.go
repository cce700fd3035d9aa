package provider

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Family identifies which call shape a backend supports.
type Family string

// Provider families. Every client belongs to exactly one.
const (
	FamilyChat  Family = "chat"
	FamilyAgent Family = "agent"
)

// Client is an initialized backend handle. Exactly one of Chat or
// Agent is non-nil, determining the client's family.
type Client struct {
	Name  string
	Chat  ChatProvider
	Agent AgentProvider
}

// Family returns the client's call-shape family.
func (c *Client) Family() Family {
	if c.Agent != nil {
		return FamilyAgent
	}
	return FamilyChat
}

// InitFunc constructs a backend client on first use. Returning
// (nil, nil) marks the provider as not configured (missing credential)
// rather than failed.
type InitFunc func(ctx context.Context) (*Client, error)

// entry holds one provider's lazily-initialized state. The sync.Once
// guarantees that concurrent callers observe a single construction
// attempt.
type entry struct {
	name   string
	init   InitFunc
	once   sync.Once
	client *Client
	err    error
}

// Registry holds the set of known providers and their initialization
// state. Providers register during module provisioning; clients are
// constructed lazily on first use. One provider's construction failure
// never blocks another's.
type Registry struct {
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

// Register adds a provider under the given name. Registering the same
// name twice replaces the earlier entry (and its initialization state).
func (r *Registry) Register(name string, init InitFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = &entry{name: name, init: init}
}

// lookup returns the entry for name, or false.
func (r *Registry) lookup(name string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// ensure runs the entry's init exactly once and caches the outcome.
func (r *Registry) ensure(ctx context.Context, e *entry) {
	e.once.Do(func() {
		client, err := e.init(ctx)
		if err != nil {
			// Construction failure marks the provider unavailable with
			// a diagnostic; other providers are unaffected.
			r.logger.Error("provider initialization failed",
				"provider", e.name,
				"error", err,
			)
			e.err = err
			return
		}
		if client == nil {
			r.logger.Debug("provider not configured", "provider", e.name)
			return
		}
		e.client = client
	})
}

// IsAvailable reports whether the named provider is registered,
// configured, and successfully initialized. Missing credentials and
// failed construction both read as unavailable; neither is an error.
func (r *Registry) IsAvailable(ctx context.Context, name string) bool {
	e, ok := r.lookup(name)
	if !ok {
		return false
	}
	r.ensure(ctx, e)
	return e.client != nil
}

// Client returns the initialized client for name. It fails with
// ErrUnknownProvider for unregistered names, ErrNotConfigured when the
// credential is absent, and ErrNotInitialized (wrapping the cause) when
// construction failed.
func (r *Registry) Client(ctx context.Context, name string) (*Client, error) {
	e, ok := r.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	r.ensure(ctx, e)
	if e.err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrNotInitialized, name, e.err)
	}
	if e.client == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotConfigured, name)
	}
	return e.client, nil
}

// Available returns the sorted names of all providers that initialize
// successfully.
func (r *Registry) Available(ctx context.Context) []string {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	var names []string
	for _, e := range entries {
		r.ensure(ctx, e)
		if e.client != nil {
			names = append(names, e.name)
		}
	}
	slices.Sort(names)
	return names
}

// Names returns the sorted names of all registered providers,
// regardless of availability.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
