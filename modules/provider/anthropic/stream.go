package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/codetalcott/llmux/internal/provider"
)

// maxToolBuffers bounds concurrent tool_use block tracking, in case a
// misbehaving server opens blocks without ever closing them.
const maxToolBuffers = 100

const streamBuffer = 16

// Stream implements provider.ChatProvider. The first SSE event is read
// synchronously so connection-phase failures (auth, network, 4xx)
// surface as a returned error; everything after that arrives in-band
// via StreamChunk.Err.
func (a *Anthropic) Stream(ctx context.Context, req provider.CompletionRequest) (<-chan provider.StreamChunk, error) {
	sse := a.client.Messages.NewStreaming(ctx, toParams(req, &a.config, a.logger))

	if !sse.Next() {
		err := sse.Err()
		_ = sse.Close()
		if err != nil {
			return nil, mapError(err)
		}
		ch := make(chan provider.StreamChunk)
		close(ch)
		return ch, nil
	}
	first := sse.Current()

	ch := make(chan provider.StreamChunk, streamBuffer)
	go func() {
		defer close(ch)
		defer func() { _ = sse.Close() }()
		a.drain(ctx, sse, first, ch)
	}()
	return ch, nil
}

// toolAccum buffers a tool_use block's partial-JSON arguments until the
// block closes.
type toolAccum struct {
	id   string
	name string
	args strings.Builder
}

// drain consumes the SSE stream, starting with the event already read
// during connection setup.
func (a *Anthropic) drain(
	ctx context.Context,
	sse *ssestream.Stream[sdk.MessageStreamEventUnion],
	first sdk.MessageStreamEventUnion,
	ch chan<- provider.StreamChunk,
) {
	var inputTokens int64
	tools := make(map[int64]*toolAccum)

	handle := func(event sdk.MessageStreamEventUnion) {
		switch ev := event.AsAny().(type) {
		case sdk.MessageStartEvent:
			inputTokens = ev.Message.Usage.InputTokens

		case sdk.ContentBlockStartEvent:
			if ev.ContentBlock.Type != "tool_use" {
				return
			}
			if len(tools) >= maxToolBuffers {
				send(ctx, ch, provider.StreamChunk{
					Err: fmt.Errorf("provider.anthropic: exceeded max tool buffers (%d)", maxToolBuffers),
				})
				return
			}
			tools[ev.Index] = &toolAccum{id: ev.ContentBlock.ID, name: ev.ContentBlock.Name}

		case sdk.ContentBlockDeltaEvent:
			switch delta := ev.Delta.AsAny().(type) {
			case sdk.TextDelta:
				send(ctx, ch, provider.StreamChunk{Content: delta.Text})
			case sdk.InputJSONDelta:
				if acc, ok := tools[ev.Index]; ok {
					acc.args.WriteString(delta.PartialJSON)
				}
			}

		case sdk.ContentBlockStopEvent:
			acc, ok := tools[ev.Index]
			if !ok {
				return
			}
			args := json.RawMessage(acc.args.String())
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			send(ctx, ch, provider.StreamChunk{
				ToolCalls: []provider.ToolCall{{ID: acc.id, Name: acc.name, Arguments: args}},
			})
			delete(tools, ev.Index)

		case sdk.MessageDeltaEvent:
			out := ev.Usage.OutputTokens
			send(ctx, ch, provider.StreamChunk{
				FinishReason: mapStopReason(ev.Delta.StopReason),
				Usage: &provider.TokenUsage{
					PromptTokens:     int(inputTokens),
					CompletionTokens: int(out),
					TotalTokens:      int(inputTokens + out),
				},
			})
		}
	}

	handle(first)
	for sse.Next() {
		if ctx.Err() != nil {
			return
		}
		handle(sse.Current())
	}
	if err := sse.Err(); err != nil {
		send(ctx, ch, provider.StreamChunk{Err: mapError(err)})
	}
}

// send delivers a chunk, giving up on context cancellation.
func send(ctx context.Context, ch chan<- provider.StreamChunk, chunk provider.StreamChunk) {
	select {
	case ch <- chunk:
	case <-ctx.Done():
	}
}
