package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/codetalcott/llmux/internal/provider"
)

// maxToolCallArgs caps a single tool call's accumulated argument bytes.
const maxToolCallArgs = 1 * 1024 * 1024

// scannerBufferSize raises the SSE line scanner limit; data lines with
// tool arguments can exceed bufio.Scanner's 64 KiB default.
const scannerBufferSize = 1 * 1024 * 1024

// pendingCall accumulates streamed tool call fragments by index.
type pendingCall struct {
	id   string
	name string
	args strings.Builder
}

// readStream parses the SSE body and emits chunks until [DONE], an
// error, or cancellation. Always closes body and ch.
func readStream(ctx context.Context, body io.ReadCloser, ch chan<- provider.StreamChunk) {
	defer close(ch)
	defer func() { _ = body.Close() }()

	// Close body on cancellation to unblock the scanner.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = body.Close()
		case <-done:
		}
	}()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, scannerBufferSize), scannerBufferSize)
	pending := make(map[int]*pendingCall)

	for scanner.Scan() {
		if ctx.Err() != nil {
			deliver(ctx, ch, provider.StreamChunk{Err: ctx.Err()})
			return
		}

		line := scanner.Text()
		if strings.HasPrefix(line, ":") || !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}

		if data == "[DONE]" {
			if len(pending) > 0 {
				deliver(ctx, ch, provider.StreamChunk{ToolCalls: flushCalls(pending)})
			}
			return
		}

		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			deliver(ctx, ch, provider.StreamChunk{Err: err})
			return
		}
		if !handleChunk(ctx, ch, &chunk, pending) {
			return
		}
	}

	if ctx.Err() != nil {
		deliver(ctx, ch, provider.StreamChunk{Err: ctx.Err()})
		return
	}
	if err := scanner.Err(); err != nil {
		deliver(ctx, ch, provider.StreamChunk{Err: mapConnectionError(err)})
	}
}

// handleChunk processes one decoded stream chunk. Returns false when
// the stream should stop.
func handleChunk(ctx context.Context, ch chan<- provider.StreamChunk, chunk *chatStreamChunk, pending map[int]*pendingCall) bool {
	var usage *provider.TokenUsage
	if chunk.Usage != nil {
		usage = &provider.TokenUsage{
			PromptTokens:     chunk.Usage.PromptTokens,
			CompletionTokens: chunk.Usage.CompletionTokens,
			TotalTokens:      chunk.Usage.TotalTokens,
		}
	}

	// Usage-only chunk, sent last under stream_options.include_usage.
	if len(chunk.Choices) == 0 {
		if usage != nil {
			return deliver(ctx, ch, provider.StreamChunk{Usage: usage})
		}
		return true
	}

	choice := chunk.Choices[0]

	for _, tc := range choice.Delta.ToolCalls {
		acc, ok := pending[tc.Index]
		if !ok {
			acc = &pendingCall{}
			pending[tc.Index] = acc
		}
		if tc.ID != "" {
			acc.id = tc.ID
		}
		if tc.Function.Name != "" {
			acc.name = tc.Function.Name
		}
		if tc.Function.Arguments != "" {
			if acc.args.Len()+len(tc.Function.Arguments) > maxToolCallArgs {
				deliver(ctx, ch, provider.StreamChunk{
					Err: fmt.Errorf("openai: tool call arguments exceeded %d bytes", maxToolCallArgs),
				})
				return false
			}
			acc.args.WriteString(tc.Function.Arguments)
		}
	}

	if choice.Delta.Content != "" {
		return deliver(ctx, ch, provider.StreamChunk{Content: choice.Delta.Content, Usage: usage})
	}

	if choice.FinishReason != nil {
		sc := provider.StreamChunk{
			FinishReason: mapFinishReason(choice.FinishReason),
			Usage:        usage,
		}
		if len(pending) > 0 {
			sc.ToolCalls = flushCalls(pending)
			clear(pending)
		}
		return deliver(ctx, ch, sc)
	}

	if usage != nil {
		return deliver(ctx, ch, provider.StreamChunk{Usage: usage})
	}
	return true
}

// flushCalls converts accumulated fragments into tool calls ordered by
// stream index.
func flushCalls(pending map[int]*pendingCall) []provider.ToolCall {
	indexes := make([]int, 0, len(pending))
	for idx := range pending {
		indexes = append(indexes, idx)
	}
	slices.Sort(indexes)

	out := make([]provider.ToolCall, 0, len(indexes))
	for _, idx := range indexes {
		acc := pending[idx]
		out = append(out, provider.ToolCall{
			ID:        acc.id,
			Name:      acc.name,
			Arguments: json.RawMessage(acc.args.String()),
		})
	}
	return out
}

// deliver sends a chunk, returning false on cancellation.
func deliver(ctx context.Context, ch chan<- provider.StreamChunk, chunk provider.StreamChunk) bool {
	select {
	case ch <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
