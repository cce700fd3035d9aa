package agent

import (
	"encoding/json"
	"fmt"

	"github.com/codetalcott/llmux/pkg/message"
)

// Wire types for the CLI's stream-json output. One line is one event.

type cliEvent struct {
	Type      string      `json:"type"`
	Subtype   string      `json:"subtype"`
	SessionID string      `json:"session_id"`
	Result    string      `json:"result"`
	IsError   bool        `json:"is_error"`
	Message   *cliMessage `json:"message"`
}

type cliMessage struct {
	Content []cliBlock `json:"content"`
}

type cliBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// decodeLine converts one stream-json line into zero or more messages.
// An assistant event with several content blocks fans out; unrecognized
// event types are skipped rather than failing the stream.
func decodeLine(line []byte) ([]message.Message, error) {
	var ev cliEvent
	if err := json.Unmarshal(line, &ev); err != nil {
		return nil, fmt.Errorf("agent: decode event: %w", err)
	}

	switch ev.Type {
	case "system":
		return []message.Message{{
			Kind:         message.KindSystem,
			Subtype:      ev.Subtype,
			SessionToken: ev.SessionID,
			Raw:          json.RawMessage(line),
		}}, nil

	case "assistant":
		if ev.Message == nil {
			return nil, nil
		}
		var msgs []message.Message
		for _, block := range ev.Message.Content {
			switch block.Type {
			case "text":
				if block.Text == "" {
					continue
				}
				msgs = append(msgs, message.Message{
					Kind:    message.KindContent,
					Content: block.Text,
					Raw:     json.RawMessage(line),
				})
			case "tool_use":
				msgs = append(msgs, message.Message{
					Kind:      message.KindToolUse,
					ToolName:  block.Name,
					ToolInput: block.Input,
					Raw:       json.RawMessage(line),
				})
			}
		}
		return msgs, nil

	case "result":
		kind := message.KindResult
		if ev.IsError {
			kind = message.KindError
		}
		return []message.Message{{
			Kind:         kind,
			Subtype:      ev.Subtype,
			Content:      ev.Result,
			SessionToken: ev.SessionID,
			Raw:          json.RawMessage(line),
		}}, nil

	default:
		// User echoes, tool results and future event types pass by.
		return nil, nil
	}
}
