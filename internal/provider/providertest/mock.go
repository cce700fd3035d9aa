// Package providertest provides test doubles for the provider package.
package providertest

import (
	"context"
	"sync"

	"github.com/codetalcott/llmux/internal/provider"
)

// MockChat is a configurable test double for provider.ChatProvider.
// Set the Func fields to control behavior. Unset funcs panic on call.
// Call counters are safe for concurrent use.
type MockChat struct {
	CompleteFunc func(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error)
	StreamFunc   func(ctx context.Context, req provider.CompletionRequest) (<-chan provider.StreamChunk, error)
	Model        string

	mu            sync.Mutex
	CompleteCalls int
	StreamCalls   int
}

// Complete delegates to CompleteFunc and tracks call count.
func (m *MockChat) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error) {
	m.mu.Lock()
	m.CompleteCalls++
	m.mu.Unlock()
	return m.CompleteFunc(ctx, req)
}

// Stream delegates to StreamFunc and tracks call count.
func (m *MockChat) Stream(ctx context.Context, req provider.CompletionRequest) (<-chan provider.StreamChunk, error) {
	m.mu.Lock()
	m.StreamCalls++
	m.mu.Unlock()
	return m.StreamFunc(ctx, req)
}

// ModelName returns the configured Model, or a fixed default.
func (m *MockChat) ModelName() string {
	if m.Model == "" {
		return "mock-chat-model"
	}
	return m.Model
}

// MockAgent is a configurable test double for provider.AgentProvider.
type MockAgent struct {
	RunFunc func(ctx context.Context, req provider.AgentRequest) (<-chan provider.Event, error)
	Model   string

	mu       sync.Mutex
	RunCalls int
	// LastRequest records the most recent request passed to Run.
	LastRequest provider.AgentRequest
}

// Run delegates to RunFunc, recording the request and call count.
func (m *MockAgent) Run(ctx context.Context, req provider.AgentRequest) (<-chan provider.Event, error) {
	m.mu.Lock()
	m.RunCalls++
	m.LastRequest = req
	m.mu.Unlock()
	return m.RunFunc(ctx, req)
}

// ModelName returns the configured Model, or a fixed default.
func (m *MockAgent) ModelName() string {
	if m.Model == "" {
		return "mock-agent-model"
	}
	return m.Model
}

// EventChan builds a closed channel pre-loaded with the given events,
// for stream tests that don't need producer timing control.
func EventChan(events ...provider.Event) <-chan provider.Event {
	ch := make(chan provider.Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

// Interface guards.
var (
	_ provider.ChatProvider  = (*MockChat)(nil)
	_ provider.AgentProvider = (*MockAgent)(nil)
)
