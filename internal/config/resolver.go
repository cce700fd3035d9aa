package config

import "slices"

// loadOrder maps module namespaces to a load priority. Providers must
// be provisioned before the modules that consume them; the gateway goes
// last so every service it resolves is already registered.
var loadOrder = map[string]int{
	"provider": 0,
	"memory":   1,
	"gateway":  2,
}

// Resolve returns the module IDs from the configuration in deterministic
// load order: by namespace priority, then alphabetically within each
// namespace.
func Resolve(cfg *Config) []string {
	ids := make([]string, 0, len(cfg.Modules))
	for id := range cfg.Modules {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		pa, pb := priority(a), priority(b)
		if pa != pb {
			return pa - pb
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	return ids
}

func priority(id string) int {
	for ns, p := range loadOrder {
		if len(id) > len(ns) && id[:len(ns)] == ns && id[len(ns)] == '.' {
			return p
		}
	}
	// Unknown namespaces load between memory and gateway.
	return 1
}
