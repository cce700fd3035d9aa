package openai

import (
	"encoding/json"

	"github.com/codetalcott/llmux/internal/provider"
)

// buildRequest merges request-level overrides with config defaults into
// the wire request.
func (p *OpenAI) buildRequest(req provider.CompletionRequest, stream bool) chatRequest {
	model := p.config.Model
	if req.Model != "" {
		model = req.Model
	}

	cr := chatRequest{
		Model:    model,
		Messages: toMessages(req.Messages),
		Stream:   stream,
	}
	if len(req.Tools) > 0 {
		cr.Tools = toTools(req.Tools)
	}

	switch {
	case req.MaxTokens > 0:
		cr.MaxTokens = req.MaxTokens
	case p.config.MaxTokens > 0:
		cr.MaxTokens = p.config.MaxTokens
	}
	switch {
	case req.Temperature != nil:
		cr.Temperature = req.Temperature
	case p.config.Temperature != nil:
		cr.Temperature = p.config.Temperature
	}
	switch {
	case req.TopP != nil:
		cr.TopP = req.TopP
	case p.config.TopP != nil:
		cr.TopP = p.config.TopP
	}
	if len(req.Stop) > 0 {
		cr.Stop = req.Stop
	}
	if stream {
		cr.StreamOptions = &streamOpts{IncludeUsage: true}
	}
	return cr
}

func toMessages(msgs []provider.LLMMessage) []chatMessage {
	out := make([]chatMessage, len(msgs))
	for i, m := range msgs {
		cm := chatMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolID,
		}
		if len(m.ToolCalls) > 0 {
			cm.ToolCalls = make([]chatToolCall, len(m.ToolCalls))
			for j, tc := range m.ToolCalls {
				cm.ToolCalls[j] = chatToolCall{
					ID:   tc.ID,
					Type: "function",
					Function: chatFunctionCall{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				}
			}
		}
		out[i] = cm
	}
	return out
}

func toTools(tools []provider.ToolDefinition) []chatTool {
	out := make([]chatTool, len(tools))
	for i, t := range tools {
		out[i] = chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return out
}

// fromResponse flattens the first choice; the module never requests
// multiple completions.
func fromResponse(resp *chatResponse) provider.CompletionResponse {
	var cr provider.CompletionResponse
	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		cr.Content = choice.Message.Content
		cr.FinishReason = mapFinishReason(choice.FinishReason)
		cr.ToolCalls = fromToolCalls(choice.Message.ToolCalls)
	}
	cr.Usage = provider.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	return cr
}

func fromToolCalls(calls []chatToolCall) []provider.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]provider.ToolCall, len(calls))
	for i, c := range calls {
		out[i] = provider.ToolCall{
			ID:        c.ID,
			Name:      c.Function.Name,
			Arguments: json.RawMessage(c.Function.Arguments),
		}
	}
	return out
}

// mapFinishReason passes unknown values through so new API reasons
// degrade gracefully instead of being lost.
func mapFinishReason(reason *string) provider.FinishReason {
	if reason == nil {
		return ""
	}
	switch *reason {
	case "stop":
		return provider.FinishReasonStop
	case "length":
		return provider.FinishReasonLength
	case "tool_calls":
		return provider.FinishReasonToolUse
	case "content_filter":
		return provider.FinishReasonFiltering
	default:
		return provider.FinishReason(*reason)
	}
}
