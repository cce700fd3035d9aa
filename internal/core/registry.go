package core

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// The process-wide module registry. Populated from init() functions,
// read-mostly afterwards.
var (
	registryMu sync.RWMutex
	registered = map[string]ModuleInfo{}
)

// RegisterModule records a module type by instantiating it once to read
// its ModuleInfo. Call it from the module package's init(); duplicate
// or malformed registrations panic, since they are programmer errors
// that no caller can recover from.
func RegisterModule(instance Module) {
	info := instance.ModuleInfo()
	if info.ID == "" {
		panic("module ID must not be empty")
	}
	if info.New == nil {
		panic(fmt.Sprintf("module %s: New function must not be nil", info.ID))
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	id := string(info.ID)
	if _, dup := registered[id]; dup {
		panic(fmt.Sprintf("module already registered: %s", id))
	}
	registered[id] = info
}

// GetModule returns the ModuleInfo for the given ID, or false if not found.
func GetModule(id string) (ModuleInfo, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	info, ok := registered[id]
	return info, ok
}

// GetModules returns all registered modules sorted by ID.
func GetModules() []ModuleInfo {
	return collect(nil)
}

// GetModulesByNamespace returns the registered modules in the given
// namespace, sorted by ID ("provider" matches "provider.openai").
func GetModulesByNamespace(namespace string) []ModuleInfo {
	prefix := namespace + "."
	return collect(func(id string) bool {
		return strings.HasPrefix(id, prefix)
	})
}

// collect snapshots the registry in sorted order, keeping only IDs the
// filter accepts. A nil filter keeps everything.
func collect(keep func(id string) bool) []ModuleInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]ModuleInfo, 0, len(registered))
	for id, info := range registered {
		if keep == nil || keep(id) {
			result = append(result, info)
		}
	}
	slices.SortFunc(result, func(a, b ModuleInfo) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return result
}

// resetRegistry clears the registry. Only for testing.
func resetRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registered = map[string]ModuleInfo{}
}
