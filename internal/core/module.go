// Package core provides the module system foundation for llmux.
package core

// ModuleID uniquely identifies a module, namespaced by dots
// (e.g. "provider.anthropic", "gateway.http").
type ModuleID string

// Namespace returns the portion of the ID before the last dot, or the
// whole ID when it has no namespace.
func (id ModuleID) Namespace() string {
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == '.' {
			return string(id[:i])
		}
	}
	return string(id)
}

// ModuleInfo describes a registered module.
type ModuleInfo struct {
	// ID is the unique module identifier.
	ID ModuleID

	// New returns a fresh, unconfigured instance of the module.
	New func() Module
}

// Module is the minimal interface all modules implement.
type Module interface {
	ModuleInfo() ModuleInfo
}
