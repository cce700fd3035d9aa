// Package message defines the provider-agnostic stream event contract.
// Every backend call that produces incremental output is surfaced to callers
// as a finite, ordered sequence of Messages.
package message

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the variant carried by a Message.
type Kind string

// Supported message kinds.
const (
	// KindSystem is backend metadata. System messages may carry a
	// continuation token that allows a later call to resume the
	// conversation.
	KindSystem Kind = "system"

	// KindContent is a chunk of assistant output text.
	KindContent Kind = "content"

	// KindToolUse reports a tool invocation requested or performed by
	// the backend.
	KindToolUse Kind = "tool_use"

	// KindResult is the terminal summary event of a successful stream.
	KindResult Kind = "result"

	// KindError is the terminal event of a failed stream. A stream
	// never ends with a Go error; failures are carried in-band.
	KindError Kind = "error"
)

// Message is one discrete event in a stream.
type Message struct {
	Kind Kind `json:"kind"`

	// Subtype refines the kind (e.g. "init" for the first system
	// message of an agent session).
	Subtype string `json:"subtype,omitempty"`

	// Content holds assistant text for KindContent, the final text for
	// KindResult, and the failure message for KindError.
	Content string `json:"content,omitempty"`

	// SessionToken is the provider-internal continuation token, set on
	// system messages that report one. It is opaque: stored and
	// replayed verbatim, never parsed.
	SessionToken string `json:"session_token,omitempty"`

	// ToolName and ToolInput describe the invocation for KindToolUse.
	ToolName  string          `json:"tool_name,omitempty"`
	ToolInput json.RawMessage `json:"tool_input,omitempty"`

	// Detail carries diagnostic context for KindError (wrapped error
	// chain, backend identifiers).
	Detail string `json:"detail,omitempty"`

	// Raw preserves the original backend event for callers that need
	// provider-specific fields.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// IsError reports whether the message is a terminal error event.
func (m Message) IsError() bool {
	return m.Kind == KindError
}

// FromError converts a backend failure into a terminal error Message.
// The error's message becomes Content; the full formatted chain goes
// into Detail so callers keep the diagnostic trace.
func FromError(err error) Message {
	if err == nil {
		return Message{Kind: KindError, Content: "unknown error"}
	}
	return Message{
		Kind:    KindError,
		Content: err.Error(),
		Detail:  fmt.Sprintf("%+v", err),
	}
}
