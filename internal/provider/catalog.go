package provider

// ModelInfo describes a documented model offered by a provider.
type ModelInfo struct {
	ID            string `json:"id"`
	DisplayName   string `json:"display_name"`
	ContextWindow int    `json:"context_window"`
	MaxOutput     int    `json:"max_output,omitempty"`
}

// Info is the introspection record for one provider.
type Info struct {
	Name      string      `json:"name"`
	Family    Family      `json:"family"`
	Available bool        `json:"available"`
	Models    []ModelInfo `json:"models,omitempty"`
}

// catalog lists the documented models per provider name. Static:
// availability is a runtime question, the model lists are not.
var catalog = map[string][]ModelInfo{
	"anthropic": {
		{ID: "claude-opus-4-1", DisplayName: "Claude Opus 4.1", ContextWindow: 200_000, MaxOutput: 32_000},
		{ID: "claude-sonnet-4-5", DisplayName: "Claude Sonnet 4.5", ContextWindow: 200_000, MaxOutput: 64_000},
		{ID: "claude-haiku-3-5", DisplayName: "Claude Haiku 3.5", ContextWindow: 200_000, MaxOutput: 8_192},
	},
	"openai": {
		{ID: "gpt-4o", DisplayName: "GPT-4o", ContextWindow: 128_000, MaxOutput: 16_384},
		{ID: "gpt-4o-mini", DisplayName: "GPT-4o mini", ContextWindow: 128_000, MaxOutput: 16_384},
		{ID: "o3-mini", DisplayName: "o3-mini", ContextWindow: 200_000, MaxOutput: 100_000},
	},
	"agent": {
		{ID: "sonnet", DisplayName: "Agent CLI (Sonnet)", ContextWindow: 200_000},
		{ID: "opus", DisplayName: "Agent CLI (Opus)", ContextWindow: 200_000},
	},
}

// Models returns the documented model list for a provider name, or nil
// for providers without a catalog entry.
func Models(name string) []ModelInfo {
	return catalog[name]
}

// families maps catalog names to their call-shape family, for
// introspection of providers that are registered but not initialized.
var families = map[string]Family{
	"anthropic": FamilyChat,
	"openai":    FamilyChat,
	"agent":     FamilyAgent,
}

// FamilyOf returns the documented family for a provider name,
// defaulting to FamilyChat for unknown names.
func FamilyOf(name string) Family {
	if f, ok := families[name]; ok {
		return f
	}
	return FamilyChat
}
