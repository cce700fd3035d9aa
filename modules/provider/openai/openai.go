// Package openai implements the provider.openai module, a chat-family
// backend speaking the OpenAI Chat Completions wire format.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/codetalcott/llmux/internal/core"
	"github.com/codetalcott/llmux/internal/provider"
)

func init() {
	core.RegisterModule(&OpenAI{})
}

// Interface guards.
var (
	_ core.Module            = (*OpenAI)(nil)
	_ core.Configurable      = (*OpenAI)(nil)
	_ core.Provisioner       = (*OpenAI)(nil)
	_ core.Validator         = (*OpenAI)(nil)
	_ provider.ChatProvider  = (*OpenAI)(nil)
	_ provider.HealthChecker = (*OpenAI)(nil)
)

// OpenAI is the provider.openai module. HTTP clients are built lazily
// on first registry use.
type OpenAI struct {
	config Config
	logger *slog.Logger
	apiKey string

	// Separate clients: http.Client.Timeout is a whole-body deadline,
	// which would kill long-lived SSE streams. The stream client relies
	// on context cancellation instead.
	client       *http.Client
	streamClient *http.Client
}

// ModuleInfo implements core.Module.
func (p *OpenAI) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.openai",
		New: func() core.Module { return &OpenAI{} },
	}
}

// Configure implements core.Configurable.
func (p *OpenAI) Configure(node *yaml.Node) error {
	if err := node.Decode(&p.config); err != nil {
		return err
	}
	p.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (p *OpenAI) Provision(ctx *core.AppContext) error {
	p.logger = ctx.Logger

	svc, ok := ctx.Service(provider.RegistryService)
	if !ok {
		return errors.New("provider.openai: provider registry service not available")
	}
	registry, ok := svc.(*provider.Registry)
	if !ok {
		return fmt.Errorf("provider.openai: unexpected registry service type %T", svc)
	}

	registry.Register("openai", p.initClient)
	return nil
}

// Validate implements core.Validator.
func (p *OpenAI) Validate() error {
	if p.config.Model == "" {
		return errors.New("provider.openai: model must not be empty")
	}
	return p.config.validateTimeout()
}

// initClient is the registry init function. A missing API key reads as
// not-configured.
func (p *OpenAI) initClient(context.Context) (*provider.Client, error) {
	p.apiKey = p.resolveAPIKey()
	if p.apiKey == "" {
		return nil, nil
	}

	p.client = &http.Client{Timeout: p.config.parsedTimeout()}
	p.streamClient = &http.Client{}

	return &provider.Client{Name: "openai", Chat: p}, nil
}

func (p *OpenAI) resolveAPIKey() string {
	if p.config.APIKey != "" {
		return p.config.APIKey
	}
	if p.config.APIKeyEnv != "" {
		if v, ok := os.LookupEnv(p.config.APIKeyEnv); ok {
			return v
		}
	}
	return os.Getenv("OPENAI_API_KEY")
}

// ModelName implements provider.ChatProvider.
func (p *OpenAI) ModelName() string {
	return p.config.Model
}
