// Package provider defines the contracts for communicating with LLM
// backends, the request/response types shared by all of them, and the
// registry that tracks which backends are available.
//
// Backends come in exactly two families:
//
//   - ChatProvider: classic chat-completion APIs. One request yields
//     either a single response or a stream of chunks.
//   - AgentProvider: multi-turn agent backends with tool execution and
//     resumable sessions. Every request yields a stream of Messages.
//
// Concrete implementations live in separate module packages
// (e.g. modules/provider/anthropic) and register themselves with the
// Registry during provisioning.
package provider

import (
	"context"
)

// RegistryService is the app-context service key the shared Registry is
// published under during bootstrap. Provider modules resolve it in
// Provision to register their init functions.
const RegistryService = "provider.registry"

// ChatProvider is the interface for chat-completion backends.
type ChatProvider interface {
	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

	// Stream sends a completion request and returns a channel of chunks.
	// Initial connection errors are returned directly. Mid-stream errors
	// are delivered via StreamChunk.Err. The channel is closed when the
	// stream ends.
	Stream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)

	// ModelName returns the identifier of the configured default model.
	ModelName() string
}

// AgentProvider is the interface for agent-session backends.
type AgentProvider interface {
	// Run issues an agent request and returns a channel of events.
	// Initial launch errors are returned directly. Mid-stream failures
	// are delivered via Event.Err as the final item before close.
	Run(ctx context.Context, req AgentRequest) (<-chan Event, error)

	// ModelName returns the identifier of the configured default model.
	ModelName() string
}

// HealthChecker is an optional interface providers may implement to
// support active probing.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
