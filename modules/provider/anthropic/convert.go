package anthropic

import (
	"encoding/json"
	"log/slog"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/codetalcott/llmux/internal/provider"
)

// toParams builds Anthropic SDK parameters from a normalized request.
// Leading system messages move into the dedicated System field; the
// request's model and max_tokens override the config defaults.
func toParams(req provider.CompletionRequest, cfg *Config, logger *slog.Logger) sdk.MessageNewParams {
	system, rest := splitSystem(req.Messages)

	model := cfg.Model
	if req.Model != "" {
		model = req.Model
	}
	maxTokens := cfg.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  toMessages(rest, logger),
		System:    system,
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = sdk.Float(*req.TopP)
	}
	if len(req.Stop) > 0 {
		params.StopSequences = req.Stop
	}
	if len(req.Tools) > 0 {
		params.Tools = toTools(req.Tools)
	}
	return params
}

// splitSystem peels leading system messages off into Anthropic's System
// parameter and returns the remainder.
func splitSystem(msgs []provider.LLMMessage) ([]sdk.TextBlockParam, []provider.LLMMessage) {
	var system []sdk.TextBlockParam
	i := 0
	for ; i < len(msgs) && msgs[i].Role == provider.MessageRoleSystem; i++ {
		system = append(system, sdk.TextBlockParam{Text: msgs[i].Content})
	}
	return system, msgs[i:]
}

// toMessages converts the conversation body. Consecutive tool results
// collapse into one user message, which the Messages API requires.
// Mid-conversation system messages have no Anthropic representation and
// are dropped with a warning.
func toMessages(msgs []provider.LLMMessage, logger *slog.Logger) []sdk.MessageParam {
	var out []sdk.MessageParam

	for i := 0; i < len(msgs); {
		switch msgs[i].Role {
		case provider.MessageRoleTool:
			var blocks []sdk.ContentBlockParamUnion
			for i < len(msgs) && msgs[i].Role == provider.MessageRoleTool {
				blocks = append(blocks, sdk.NewToolResultBlock(
					msgs[i].ToolID, msgs[i].Content, msgs[i].IsError))
				i++
			}
			out = append(out, sdk.MessageParam{
				Role:    sdk.MessageParamRoleUser,
				Content: blocks,
			})

		case provider.MessageRoleAssistant:
			out = append(out, toAssistantMessage(msgs[i]))
			i++

		case provider.MessageRoleUser:
			out = append(out, sdk.NewUserMessage(sdk.NewTextBlock(msgs[i].Content)))
			i++

		case provider.MessageRoleSystem:
			if logger != nil {
				logger.Warn("dropping mid-conversation system message", "index", i)
			}
			i++

		default:
			i++
		}
	}
	return out
}

func toAssistantMessage(msg provider.LLMMessage) sdk.MessageParam {
	var blocks []sdk.ContentBlockParamUnion
	if msg.Content != "" {
		blocks = append(blocks, sdk.NewTextBlock(msg.Content))
	}
	for _, tc := range msg.ToolCalls {
		// json.RawMessage marshals as-is, so the SDK will not
		// double-encode the arguments.
		input := any(tc.Arguments)
		if len(tc.Arguments) == 0 {
			input = json.RawMessage("{}")
		}
		blocks = append(blocks, sdk.NewToolUseBlock(tc.ID, input, tc.Name))
	}
	return sdk.NewAssistantMessage(blocks...)
}

func toTools(tools []provider.ToolDefinition) []sdk.ToolUnionParam {
	out := make([]sdk.ToolUnionParam, len(tools))
	for i, t := range tools {
		tool := &sdk.ToolParam{Name: t.Name}
		if t.Description != "" {
			tool.Description = sdk.String(t.Description)
		}
		if len(t.Parameters) > 0 {
			tool.InputSchema = toInputSchema(t.Parameters)
		}
		out[i] = sdk.ToolUnionParam{OfTool: tool}
	}
	return out
}

// toInputSchema maps a raw JSON Schema onto the SDK's schema param.
// Fields beyond properties/required (enum, $defs, oneOf, ...) survive
// through ExtraFields.
func toInputSchema(raw json.RawMessage) sdk.ToolInputSchemaParam {
	var full map[string]any
	if err := json.Unmarshal(raw, &full); err != nil {
		return sdk.ToolInputSchemaParam{}
	}

	var param sdk.ToolInputSchemaParam
	if props, ok := full["properties"]; ok {
		param.Properties = props
		delete(full, "properties")
	}
	if req, ok := full["required"].([]any); ok {
		strs := make([]string, 0, len(req))
		for _, v := range req {
			if s, ok := v.(string); ok {
				strs = append(strs, s)
			}
		}
		param.Required = strs
	}
	delete(full, "required")
	// The SDK sets "type": "object" itself.
	delete(full, "type")

	if len(full) > 0 {
		param.ExtraFields = full
	}
	return param
}

// toResponse flattens an SDK Message into a CompletionResponse. Text
// blocks join with newlines; tool_use blocks become tool calls.
func toResponse(msg *sdk.Message) provider.CompletionResponse {
	var content string
	var toolCalls []provider.ToolCall

	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case sdk.TextBlock:
			if content != "" {
				content += "\n"
			}
			content += v.Text
		case sdk.ToolUseBlock:
			toolCalls = append(toolCalls, provider.ToolCall{
				ID:        v.ID,
				Name:      v.Name,
				Arguments: v.Input,
			})
		}
	}

	return provider.CompletionResponse{
		Content:      content,
		ToolCalls:    toolCalls,
		FinishReason: mapStopReason(msg.StopReason),
		Usage: provider.TokenUsage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}
}

func mapStopReason(reason sdk.StopReason) provider.FinishReason {
	switch reason {
	case sdk.StopReasonEndTurn, sdk.StopReasonStopSequence:
		return provider.FinishReasonStop
	case sdk.StopReasonMaxTokens:
		return provider.FinishReasonLength
	case sdk.StopReasonToolUse:
		return provider.FinishReasonToolUse
	case sdk.StopReasonRefusal:
		return provider.FinishReasonFiltering
	default:
		return provider.FinishReasonStop
	}
}
