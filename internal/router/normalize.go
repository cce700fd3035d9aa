package router

import (
	"errors"
	"fmt"

	"github.com/codetalcott/llmux/internal/provider"
)

// DefaultMaxTokens is applied when a completion request leaves the
// output budget unset.
const DefaultMaxTokens = 4096

// Request validation errors, returned before any backend dispatch.
var (
	ErrNoMessages  = errors.New("request has no messages")
	ErrEmptyPrompt = errors.New("request has an empty prompt")
)

// normalizeCompletion validates a chat request and fills defaults. The
// returned request is a shallow copy; the caller's value is not
// mutated.
func normalizeCompletion(req provider.CompletionRequest) (provider.CompletionRequest, error) {
	if len(req.Messages) == 0 {
		return req, ErrNoMessages
	}
	for i, msg := range req.Messages {
		switch msg.Role {
		case provider.MessageRoleSystem, provider.MessageRoleUser,
			provider.MessageRoleAssistant, provider.MessageRoleTool:
		default:
			return req, fmt.Errorf("message %d: unknown role %q", i, msg.Role)
		}
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}
	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 2) {
		return req, fmt.Errorf("temperature %v out of range [0, 2]", *req.Temperature)
	}
	return req, nil
}

// normalizeAgent validates an agent request. Resume resolution happens
// in the router, which owns the session map.
func normalizeAgent(req provider.AgentRequest) (provider.AgentRequest, error) {
	if req.Prompt == "" {
		return req, ErrEmptyPrompt
	}
	return req, nil
}

// checkFamily rejects a client whose call shape does not match the
// operation before any backend work happens.
func checkFamily(client *provider.Client, want provider.Family) error {
	if client.Family() != want {
		return fmt.Errorf("%w: %q is %s, operation needs %s",
			provider.ErrInvalidProvider, client.Name, client.Family(), want)
	}
	return nil
}
