package agent

import (
	"strings"

	"github.com/codetalcott/llmux/internal/provider"
)

// buildArgs assembles the CLI invocation for one run. Request fields
// override config defaults; the prompt is always the final positional
// argument.
func buildArgs(cfg *Config, req provider.AgentRequest) []string {
	args := []string{"--print", "--output-format", "stream-json", "--verbose"}

	model := cfg.Model
	if req.Model != "" {
		model = req.Model
	}
	if model != "" {
		args = append(args, "--model", model)
	}

	if req.Resume != "" {
		args = append(args, "--resume", req.Resume)
	}

	mode := cfg.PermissionMode
	if req.PermissionMode != "" {
		mode = req.PermissionMode
	}
	if mode != "" {
		args = append(args, "--permission-mode", mode)
	}

	allowed := cfg.AllowedTools
	if len(req.AllowedTools) > 0 {
		allowed = req.AllowedTools
	}
	if len(allowed) > 0 {
		args = append(args, "--allowed-tools", strings.Join(allowed, ","))
	}

	disallowed := cfg.DisallowedTools
	if len(req.DisallowedTools) > 0 {
		disallowed = req.DisallowedTools
	}
	if len(disallowed) > 0 {
		args = append(args, "--disallowed-tools", strings.Join(disallowed, ","))
	}

	return append(args, req.Prompt)
}
