package provider

import (
	"encoding/json"

	"github.com/codetalcott/llmux/pkg/message"
)

// MessageRole identifies the sender of a message in a conversation.
type MessageRole string

// MessageRole constants for conversation messages.
const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleTool      MessageRole = "tool"
)

// FinishReason describes why the model stopped generating.
type FinishReason string

// FinishReason constants for model completion termination.
const (
	FinishReasonStop      FinishReason = "stop"
	FinishReasonLength    FinishReason = "length"
	FinishReasonToolUse   FinishReason = "tool_use"
	FinishReasonFiltering FinishReason = "filtering"
)

// LLMMessage represents a single message in a conversation.
type LLMMessage struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Name      string      `json:"name,omitempty"`
	ToolID    string      `json:"tool_id,omitempty"`
	ToolCalls []ToolCall  `json:"tool_calls,omitempty"`
	IsError   bool        `json:"is_error,omitempty"`
}

// ToolCall represents a tool invocation requested by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolDefinition describes a tool the model may invoke.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// CompletionRequest is the normalized input to a ChatProvider call.
// Optional fields use pointer or zero-value-means-absent semantics so
// providers only serialize fields the caller actually set.
type CompletionRequest struct {
	// Model overrides the provider's configured default when non-empty.
	Model       string           `json:"model,omitempty"`
	Messages    []LLMMessage     `json:"messages"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
	TopP        *float64         `json:"top_p,omitempty"`
	Stop        []string         `json:"stop,omitempty"`
}

// CompletionResponse is the output of a ChatProvider.Complete call.
type CompletionResponse struct {
	Content      string       `json:"content"`
	ToolCalls    []ToolCall   `json:"tool_calls,omitempty"`
	FinishReason FinishReason `json:"finish_reason"`
	Usage        TokenUsage   `json:"usage"`
}

// StreamChunk represents one piece of a streaming completion response.
type StreamChunk struct {
	Content      string       `json:"content,omitempty"`
	ToolCalls    []ToolCall   `json:"tool_calls,omitempty"`
	FinishReason FinishReason `json:"finish_reason,omitempty"`
	Usage        *TokenUsage  `json:"usage,omitempty"`
	Err          error        `json:"-"`
}

// TokenUsage tracks token consumption for a completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// AgentRequest is the normalized input to an AgentProvider.Run call.
type AgentRequest struct {
	// Prompt is the user turn to deliver to the agent.
	Prompt string `json:"prompt"`

	// Model overrides the provider's configured default when non-empty.
	Model string `json:"model,omitempty"`

	// Resume is the continuation token of a prior session. Empty
	// starts a fresh session. The token is provider-internal and is
	// passed through verbatim.
	Resume string `json:"resume,omitempty"`

	// PermissionMode controls how the agent handles tool permission
	// prompts (provider-defined values).
	PermissionMode string `json:"permission_mode,omitempty"`

	// AllowedTools and DisallowedTools restrict the agent's tool set.
	AllowedTools    []string `json:"allowed_tools,omitempty"`
	DisallowedTools []string `json:"disallowed_tools,omitempty"`

	// Env holds extra environment overrides for the agent process.
	Env map[string]string `json:"env,omitempty"`
}

// Event pairs a stream Message with a transport-level error. When Err
// is non-nil the stream has failed; it is the final event before the
// channel closes. The stream coordinator converts Err into a terminal
// error Message so consumers see a uniform failure channel.
type Event struct {
	Msg message.Message
	Err error
}
