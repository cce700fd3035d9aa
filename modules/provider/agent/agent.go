// Package agent implements the provider.agent module, an agent-family
// backend that drives an external agent CLI as a subprocess and decodes
// its line-delimited JSON event stream.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"

	"gopkg.in/yaml.v3"

	"github.com/codetalcott/llmux/internal/core"
	"github.com/codetalcott/llmux/internal/provider"
)

func init() {
	core.RegisterModule(&Agent{})
}

// Interface guards.
var (
	_ core.Module            = (*Agent)(nil)
	_ core.Configurable      = (*Agent)(nil)
	_ core.Provisioner       = (*Agent)(nil)
	_ core.Validator         = (*Agent)(nil)
	_ provider.AgentProvider = (*Agent)(nil)
)

// Agent is the provider.agent module.
type Agent struct {
	config Config
	logger *slog.Logger

	// binPath is the resolved absolute path of the CLI binary.
	binPath string
}

// ModuleInfo implements core.Module.
func (a *Agent) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.agent",
		New: func() core.Module { return &Agent{} },
	}
}

// Configure implements core.Configurable.
func (a *Agent) Configure(node *yaml.Node) error {
	if err := node.Decode(&a.config); err != nil {
		return err
	}
	a.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (a *Agent) Provision(ctx *core.AppContext) error {
	a.logger = ctx.Logger

	svc, ok := ctx.Service(provider.RegistryService)
	if !ok {
		return errors.New("provider.agent: provider registry service not available")
	}
	registry, ok := svc.(*provider.Registry)
	if !ok {
		return fmt.Errorf("provider.agent: unexpected registry service type %T", svc)
	}

	registry.Register("agent", a.initClient)
	return nil
}

// Validate implements core.Validator.
func (a *Agent) Validate() error {
	if a.config.Binary == "" {
		return errors.New("provider.agent: binary must not be empty")
	}
	return nil
}

// initClient is the registry init function. An absent binary reads as
// not-configured, the same way a missing API key does for the HTTP
// providers.
func (a *Agent) initClient(context.Context) (*provider.Client, error) {
	path, err := exec.LookPath(a.config.Binary)
	if err != nil {
		return nil, nil
	}
	a.binPath = path

	return &provider.Client{Name: "agent", Agent: a}, nil
}

// ModelName implements provider.AgentProvider. The CLI chooses its own
// default when no model is configured.
func (a *Agent) ModelName() string {
	if a.config.Model == "" {
		return a.config.Binary
	}
	return a.config.Model
}
