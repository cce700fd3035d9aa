// Package session maps caller-chosen logical session IDs to
// provider-internal continuation tokens.
//
// The map is purely in-memory; sessions do not survive the process.
// Tokens are opaque: stored and replayed verbatim, never parsed.
package session

import "sync"

// Map associates session IDs with continuation tokens. Safe for
// concurrent use. Writes for the same ID follow last-write-wins:
// a logical session is expected to be driven by one stream at a time,
// and concurrent streams sharing an ID produce undefined ordering of
// which token wins.
type Map struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewMap creates an empty session map.
func NewMap() *Map {
	return &Map{tokens: make(map[string]string)}
}

// Resolve returns the continuation token recorded for id. The second
// return is false for unknown IDs, letting callers distinguish a fresh
// session from a resumable one.
func (m *Map) Resolve(id string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	token, ok := m.tokens[id]
	return token, ok
}

// Record stores token for id, overwriting any previous value.
func (m *Map) Record(id, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[id] = token
}

// Clear removes the entry for id. Clearing an absent ID is a no-op.
func (m *Map) Clear(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, id)
}

// ClearAll removes every entry.
func (m *Map) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = make(map[string]string)
}

// Len returns the number of active sessions.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tokens)
}
