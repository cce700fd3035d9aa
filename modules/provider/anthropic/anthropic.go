// Package anthropic implements the provider.anthropic module, exposing
// the Anthropic Messages API as a chat-family backend.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"gopkg.in/yaml.v3"

	"github.com/codetalcott/llmux/internal/core"
	"github.com/codetalcott/llmux/internal/provider"
)

func init() {
	core.RegisterModule(&Anthropic{})
}

// Interface guards.
var (
	_ core.Module            = (*Anthropic)(nil)
	_ core.Configurable      = (*Anthropic)(nil)
	_ core.Provisioner       = (*Anthropic)(nil)
	_ core.Validator         = (*Anthropic)(nil)
	_ provider.ChatProvider  = (*Anthropic)(nil)
	_ provider.HealthChecker = (*Anthropic)(nil)
)

// Anthropic is the provider.anthropic module. It registers a lazy init
// function with the shared registry; the SDK client is constructed on
// first use, not at provision time.
type Anthropic struct {
	config Config
	client *sdk.Client
	logger *slog.Logger
}

// ModuleInfo implements core.Module.
func (a *Anthropic) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.anthropic",
		New: func() core.Module { return &Anthropic{} },
	}
}

// Configure implements core.Configurable.
func (a *Anthropic) Configure(node *yaml.Node) error {
	if err := node.Decode(&a.config); err != nil {
		return err
	}
	a.config.defaults()
	return nil
}

// Provision implements core.Provisioner. The module only registers
// itself here; credential resolution and client construction are
// deferred to the registry's first-use init.
func (a *Anthropic) Provision(ctx *core.AppContext) error {
	a.logger = ctx.Logger

	svc, ok := ctx.Service(provider.RegistryService)
	if !ok {
		return errors.New("provider.anthropic: provider registry service not available")
	}
	registry, ok := svc.(*provider.Registry)
	if !ok {
		return fmt.Errorf("provider.anthropic: unexpected registry service type %T", svc)
	}

	registry.Register("anthropic", a.initClient)
	return nil
}

// Validate implements core.Validator.
func (a *Anthropic) Validate() error {
	if a.config.Model == "" {
		return errors.New("provider.anthropic: model must not be empty")
	}
	return nil
}

// initClient is the registry init function. A missing API key reads as
// not-configured, never as a failure.
func (a *Anthropic) initClient(context.Context) (*provider.Client, error) {
	apiKey := a.resolveAPIKey()
	if apiKey == "" {
		return nil, nil
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// The dispatch core performs no retries; neither does the SDK.
		option.WithMaxRetries(0),
	}
	if a.config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(a.config.BaseURL))
	}

	client := sdk.NewClient(opts...)
	a.client = &client

	return &provider.Client{Name: "anthropic", Chat: a}, nil
}

// resolveAPIKey applies credential precedence: inline config, then the
// configured env var, then ANTHROPIC_API_KEY.
func (a *Anthropic) resolveAPIKey() string {
	if a.config.APIKey != "" {
		return a.config.APIKey
	}
	if a.config.APIKeyEnv != "" {
		if v, ok := os.LookupEnv(a.config.APIKeyEnv); ok {
			return v
		}
	}
	return os.Getenv("ANTHROPIC_API_KEY")
}

// ModelName implements provider.ChatProvider.
func (a *Anthropic) ModelName() string {
	return a.config.Model
}
