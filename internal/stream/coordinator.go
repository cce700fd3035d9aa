// Package stream owns the fan-out of backend events to callers: it
// forwards messages as they arrive, harvests continuation tokens into
// the session map, tees traffic to the transcript recorder, and
// guarantees that a failed stream terminates with exactly one in-band
// error message instead of a Go error.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codetalcott/llmux/internal/provider"
	"github.com/codetalcott/llmux/internal/session"
	"github.com/codetalcott/llmux/internal/transcript"
	"github.com/codetalcott/llmux/pkg/message"
)

const outputBuffer = 16

// Meta identifies the stream being piped. SessionID may be empty for
// one-shot calls; RequestID and Provider feed the transcript recorder.
type Meta struct {
	SessionID string
	RequestID string
	Provider  string
}

// Coordinator turns raw provider event channels into uniform message
// streams. Safe for concurrent use; each Pipe call is independent.
type Coordinator struct {
	sessions *session.Map
	recorder transcript.Recorder
	logger   *slog.Logger
}

// NewCoordinator creates a coordinator. recorder may be nil to disable
// transcript recording.
func NewCoordinator(sessions *session.Map, recorder transcript.Recorder, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		sessions: sessions,
		recorder: recorder,
		logger:   logger.With("component", "stream"),
	}
}

// Pipe consumes src and returns the caller-facing message channel.
//
// Each event is forwarded in order. System messages carrying a
// continuation token update the session map before the message is
// forwarded, so a caller that sees the token can immediately issue a
// resuming call. A transport error from src, or a panic in the
// consuming goroutine, becomes a single terminal error message; the
// output channel always closes afterwards.
//
// Cancelling ctx stops forwarding. The producer behind src is expected
// to honor the same context and close its channel.
func (c *Coordinator) Pipe(ctx context.Context, meta Meta, src <-chan provider.Event) <-chan message.Message {
	out := make(chan message.Message, outputBuffer)

	go func() {
		defer close(out)
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("stream panic",
					"provider", meta.Provider,
					"request_id", meta.RequestID,
					"panic", r)
				c.emit(ctx, meta, out, message.FromError(fmt.Errorf("stream panic: %v", r)))
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-src:
				if !ok {
					return
				}
				if ev.Err != nil {
					c.emit(ctx, meta, out, message.FromError(ev.Err))
					return
				}
				if ev.Msg.Kind == message.KindSystem && ev.Msg.SessionToken != "" && meta.SessionID != "" {
					c.sessions.Record(meta.SessionID, ev.Msg.SessionToken)
				}
				if !c.emit(ctx, meta, out, ev.Msg) {
					return
				}
			}
		}
	}()

	return out
}

// emit records and forwards one message. Returns false when ctx is
// cancelled before the send completes.
func (c *Coordinator) emit(ctx context.Context, meta Meta, out chan<- message.Message, msg message.Message) bool {
	c.record(ctx, meta, msg)
	select {
	case out <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Coordinator) record(ctx context.Context, meta Meta, msg message.Message) {
	if c.recorder == nil {
		return
	}
	err := c.recorder.Record(ctx, transcript.Entry{
		RequestID: meta.RequestID,
		Provider:  meta.Provider,
		SessionID: meta.SessionID,
		Kind:      string(msg.Kind),
		Content:   msg.Content,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		c.logger.Warn("transcript record failed",
			"request_id", meta.RequestID,
			"error", err)
	}
}

// ChunkEvents adapts a chat completion chunk stream to the event
// stream Pipe consumes. Content deltas become content messages, tool
// calls become tool_use messages, and the finish reason becomes the
// terminal result message. Chunk errors pass through as event errors.
func ChunkEvents(ctx context.Context, src <-chan provider.StreamChunk) <-chan provider.Event {
	out := make(chan provider.Event, outputBuffer)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case chunk, ok := <-src:
				if !ok {
					return
				}
				for _, ev := range chunkToEvents(chunk) {
					select {
					case out <- ev:
					case <-ctx.Done():
						return
					}
				}
				if chunk.Err != nil {
					return
				}
			}
		}
	}()

	return out
}

func chunkToEvents(chunk provider.StreamChunk) []provider.Event {
	if chunk.Err != nil {
		return []provider.Event{{Err: chunk.Err}}
	}

	var events []provider.Event
	if chunk.Content != "" {
		events = append(events, provider.Event{Msg: message.Message{
			Kind:    message.KindContent,
			Content: chunk.Content,
		}})
	}
	for _, tc := range chunk.ToolCalls {
		events = append(events, provider.Event{Msg: message.Message{
			Kind:      message.KindToolUse,
			ToolName:  tc.Name,
			ToolInput: tc.Arguments,
		}})
	}
	if chunk.FinishReason != "" {
		events = append(events, provider.Event{Msg: message.Message{
			Kind:    message.KindResult,
			Subtype: string(chunk.FinishReason),
		}})
	}
	return events
}

// Collect drains ch into a slice. Intended for tests and non-streaming
// callers that want the whole sequence.
func Collect(ch <-chan message.Message) []message.Message {
	var msgs []message.Message
	for msg := range ch {
		msgs = append(msgs, msg)
	}
	return msgs
}
