package stream

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/codetalcott/llmux/internal/provider"
	"github.com/codetalcott/llmux/internal/provider/providertest"
	"github.com/codetalcott/llmux/internal/session"
	"github.com/codetalcott/llmux/internal/transcript"
	"github.com/codetalcott/llmux/pkg/message"
)

func newTestCoordinator(rec transcript.Recorder) (*Coordinator, *session.Map) {
	sessions := session.NewMap()
	return NewCoordinator(sessions, rec, slog.Default()), sessions
}

// memRecorder captures transcript entries in memory.
type memRecorder struct {
	mu      sync.Mutex
	entries []transcript.Entry
	err     error
}

func (r *memRecorder) Record(_ context.Context, e transcript.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, e)
	return nil
}

func TestPipeForwardsInOrder(t *testing.T) {
	t.Parallel()

	c, _ := newTestCoordinator(nil)
	src := providertest.EventChan(
		provider.Event{Msg: message.Message{Kind: message.KindSystem, Subtype: "init"}},
		provider.Event{Msg: message.Message{Kind: message.KindContent, Content: "hel"}},
		provider.Event{Msg: message.Message{Kind: message.KindContent, Content: "lo"}},
		provider.Event{Msg: message.Message{Kind: message.KindResult, Content: "hello"}},
	)

	msgs := Collect(c.Pipe(context.Background(), Meta{}, src))
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	wantKinds := []message.Kind{message.KindSystem, message.KindContent, message.KindContent, message.KindResult}
	for i, want := range wantKinds {
		if msgs[i].Kind != want {
			t.Errorf("msg[%d].Kind = %q, want %q", i, msgs[i].Kind, want)
		}
	}
}

func TestPipeRecordsContinuationToken(t *testing.T) {
	t.Parallel()

	c, sessions := newTestCoordinator(nil)
	src := providertest.EventChan(
		provider.Event{Msg: message.Message{
			Kind:         message.KindSystem,
			Subtype:      "init",
			SessionToken: "tok-abc",
		}},
		provider.Event{Msg: message.Message{Kind: message.KindResult}},
	)

	out := c.Pipe(context.Background(), Meta{SessionID: "s1"}, src)

	// Token must be resolvable no later than when the carrying message
	// is observed.
	first := <-out
	if first.SessionToken != "tok-abc" {
		t.Fatalf("SessionToken = %q, want tok-abc", first.SessionToken)
	}
	if token, ok := sessions.Resolve("s1"); !ok || token != "tok-abc" {
		t.Errorf("Resolve = (%q, %v), want (tok-abc, true)", token, ok)
	}
	Collect(out)
}

func TestPipeNoSessionNoRecord(t *testing.T) {
	t.Parallel()

	c, sessions := newTestCoordinator(nil)
	src := providertest.EventChan(
		provider.Event{Msg: message.Message{
			Kind:         message.KindSystem,
			SessionToken: "tok-abc",
		}},
	)

	Collect(c.Pipe(context.Background(), Meta{}, src))
	if sessions.Len() != 0 {
		t.Errorf("session map has %d entries, want 0", sessions.Len())
	}
}

func TestPipeErrorBecomesTerminalMessage(t *testing.T) {
	t.Parallel()

	c, _ := newTestCoordinator(nil)
	src := providertest.EventChan(
		provider.Event{Msg: message.Message{Kind: message.KindContent, Content: "partial"}},
		provider.Event{Err: errors.New("connection reset")},
	)

	msgs := Collect(c.Pipe(context.Background(), Meta{}, src))
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	last := msgs[len(msgs)-1]
	if !last.IsError() {
		t.Fatalf("last message kind = %q, want error", last.Kind)
	}
	if last.Content != "connection reset" {
		t.Errorf("Content = %q, want connection reset", last.Content)
	}
	if last.Detail == "" {
		t.Error("Detail empty, want diagnostic context")
	}
}

func TestPipeContextCancel(t *testing.T) {
	t.Parallel()

	c, _ := newTestCoordinator(nil)
	ctx, cancel := context.WithCancel(context.Background())

	src := make(chan provider.Event)
	out := c.Pipe(ctx, Meta{}, src)

	src <- provider.Event{Msg: message.Message{Kind: message.KindContent, Content: "x"}}
	if msg := <-out; msg.Content != "x" {
		t.Fatalf("Content = %q, want x", msg.Content)
	}

	cancel()
	// The output channel must close without further sends.
	for range out {
	}
	close(src)
}

func TestPipeTranscriptTee(t *testing.T) {
	t.Parallel()

	rec := &memRecorder{}
	c, _ := newTestCoordinator(rec)
	src := providertest.EventChan(
		provider.Event{Msg: message.Message{Kind: message.KindContent, Content: "hi"}},
		provider.Event{Msg: message.Message{Kind: message.KindResult, Content: "hi"}},
	)

	Collect(c.Pipe(context.Background(), Meta{RequestID: "req-1", Provider: "anthropic", SessionID: "s1"}, src))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.entries) != 2 {
		t.Fatalf("recorded %d entries, want 2", len(rec.entries))
	}
	e := rec.entries[0]
	if e.RequestID != "req-1" || e.Provider != "anthropic" || e.SessionID != "s1" {
		t.Errorf("entry meta = %+v, want req-1/anthropic/s1", e)
	}
	if e.Kind != "content" || e.Content != "hi" {
		t.Errorf("entry payload = (%q, %q), want (content, hi)", e.Kind, e.Content)
	}
}

func TestPipeRecorderFailureDoesNotBreakStream(t *testing.T) {
	t.Parallel()

	rec := &memRecorder{err: errors.New("disk full")}
	c, _ := newTestCoordinator(rec)
	src := providertest.EventChan(
		provider.Event{Msg: message.Message{Kind: message.KindContent, Content: "hi"}},
		provider.Event{Msg: message.Message{Kind: message.KindResult}},
	)

	msgs := Collect(c.Pipe(context.Background(), Meta{RequestID: "req-1"}, src))
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[1].Kind != message.KindResult {
		t.Errorf("last kind = %q, want result", msgs[1].Kind)
	}
}

func TestChunkEvents(t *testing.T) {
	t.Parallel()

	src := make(chan provider.StreamChunk, 3)
	src <- provider.StreamChunk{Content: "hel"}
	src <- provider.StreamChunk{Content: "lo", ToolCalls: []provider.ToolCall{{Name: "search"}}}
	src <- provider.StreamChunk{FinishReason: provider.FinishReasonStop}
	close(src)

	var events []provider.Event
	for ev := range ChunkEvents(context.Background(), src) {
		events = append(events, ev)
	}
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	if events[0].Msg.Kind != message.KindContent || events[0].Msg.Content != "hel" {
		t.Errorf("events[0] = %+v, want content hel", events[0].Msg)
	}
	if events[2].Msg.Kind != message.KindToolUse || events[2].Msg.ToolName != "search" {
		t.Errorf("events[2] = %+v, want tool_use search", events[2].Msg)
	}
	last := events[3].Msg
	if last.Kind != message.KindResult || last.Subtype != string(provider.FinishReasonStop) {
		t.Errorf("last = %+v, want result/stop", last)
	}
}

func TestChunkEventsError(t *testing.T) {
	t.Parallel()

	src := make(chan provider.StreamChunk, 2)
	src <- provider.StreamChunk{Content: "partial"}
	src <- provider.StreamChunk{Err: errors.New("rate limited")}
	close(src)

	var events []provider.Event
	for ev := range ChunkEvents(context.Background(), src) {
		events = append(events, ev)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[1].Err == nil {
		t.Fatal("last event Err = nil, want error")
	}
}
