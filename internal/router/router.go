// Package router dispatches normalized requests to the right backend
// family and surfaces every streaming call as a uniform message
// channel. It owns provider resolution, session bookkeeping, and the
// per-request trace span; it never retries on the caller's behalf.
package router

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/codetalcott/llmux/internal/provider"
	"github.com/codetalcott/llmux/internal/session"
	"github.com/codetalcott/llmux/internal/stream"
	"github.com/codetalcott/llmux/pkg/message"
)

// ServiceName is the app-context key the router registers under.
const ServiceName = "router.core"

// ChatRequest is a chat-family call addressed to a named provider.
type ChatRequest struct {
	Provider string
	provider.CompletionRequest
}

// AgentCall is an agent-family call. SessionID is the caller's logical
// session; leave it empty for a one-shot run. Setting Resume on the
// embedded request bypasses session resolution and resumes that token
// verbatim.
type AgentCall struct {
	Provider  string
	SessionID string
	provider.AgentRequest
}

// Router is the dispatch core.
type Router struct {
	registry *provider.Registry
	sessions *session.Map
	coord    *stream.Coordinator
	logger   *slog.Logger
	tracer   trace.Tracer
}

// New creates a router over the given registry, session map, and
// stream coordinator.
func New(registry *provider.Registry, sessions *session.Map, coord *stream.Coordinator, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		registry: registry,
		sessions: sessions,
		coord:    coord,
		logger:   logger.With("component", "router"),
		tracer:   otel.Tracer("llmux/router"),
	}
}

// Chat performs a blocking completion against a chat-family provider.
func (r *Router) Chat(ctx context.Context, req ChatRequest) (provider.CompletionResponse, error) {
	requestID := uuid.NewString()
	ctx, span := r.startSpan(ctx, "router.chat", req.Provider, requestID)
	defer span.End()

	client, err := r.registry.Client(ctx, req.Provider)
	if err != nil {
		return provider.CompletionResponse{}, r.fail(span, err)
	}
	if err := checkFamily(client, provider.FamilyChat); err != nil {
		return provider.CompletionResponse{}, r.fail(span, err)
	}
	norm, err := normalizeCompletion(req.CompletionRequest)
	if err != nil {
		return provider.CompletionResponse{}, r.fail(span, err)
	}

	r.logger.Debug("dispatching chat completion",
		"provider", req.Provider,
		"request_id", requestID,
		"model", norm.Model)

	resp, err := client.Chat.Complete(ctx, norm)
	if err != nil {
		return provider.CompletionResponse{}, r.fail(span, err)
	}
	span.SetAttributes(
		attribute.Int("llm.usage.prompt_tokens", resp.Usage.PromptTokens),
		attribute.Int("llm.usage.completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp, nil
}

// ChatStream performs a streaming completion against a chat-family
// provider. Resolution and normalization failures return an error
// directly; once the channel is returned, all failures arrive in-band
// as a terminal error message.
func (r *Router) ChatStream(ctx context.Context, req ChatRequest) (<-chan message.Message, error) {
	requestID := uuid.NewString()
	ctx, span := r.startSpan(ctx, "router.chat_stream", req.Provider, requestID)

	client, err := r.registry.Client(ctx, req.Provider)
	if err != nil {
		return nil, r.failEnd(span, err)
	}
	if err := checkFamily(client, provider.FamilyChat); err != nil {
		return nil, r.failEnd(span, err)
	}
	norm, err := normalizeCompletion(req.CompletionRequest)
	if err != nil {
		return nil, r.failEnd(span, err)
	}

	chunks, err := client.Chat.Stream(ctx, norm)
	if err != nil {
		return nil, r.failEnd(span, err)
	}

	meta := stream.Meta{RequestID: requestID, Provider: req.Provider}
	out := r.coord.Pipe(ctx, meta, stream.ChunkEvents(ctx, chunks))
	return r.spanWatch(span, out), nil
}

// Agent starts or resumes an agent-family run. When the call names a
// session with a known continuation token and the request does not set
// Resume explicitly, the stored token is replayed.
func (r *Router) Agent(ctx context.Context, call AgentCall) (<-chan message.Message, error) {
	requestID := uuid.NewString()
	ctx, span := r.startSpan(ctx, "router.agent", call.Provider, requestID)

	client, err := r.registry.Client(ctx, call.Provider)
	if err != nil {
		return nil, r.failEnd(span, err)
	}
	if err := checkFamily(client, provider.FamilyAgent); err != nil {
		return nil, r.failEnd(span, err)
	}
	norm, err := normalizeAgent(call.AgentRequest)
	if err != nil {
		return nil, r.failEnd(span, err)
	}

	if norm.Resume == "" && call.SessionID != "" {
		if token, ok := r.sessions.Resolve(call.SessionID); ok {
			norm.Resume = token
		}
	}
	span.SetAttributes(attribute.Bool("llm.session.resumed", norm.Resume != ""))

	r.logger.Debug("dispatching agent run",
		"provider", call.Provider,
		"request_id", requestID,
		"session_id", call.SessionID,
		"resumed", norm.Resume != "")

	events, err := client.Agent.Run(ctx, norm)
	if err != nil {
		return nil, r.failEnd(span, err)
	}

	meta := stream.Meta{
		SessionID: call.SessionID,
		RequestID: requestID,
		Provider:  call.Provider,
	}
	return r.spanWatch(span, r.coord.Pipe(ctx, meta, events)), nil
}

// Session returns the continuation token recorded for a session ID.
func (r *Router) Session(id string) (string, bool) {
	return r.sessions.Resolve(id)
}

// ClearSession forgets one session. Clearing an unknown ID is a no-op.
func (r *Router) ClearSession(id string) {
	r.sessions.Clear(id)
}

// ClearAllSessions forgets every session.
func (r *Router) ClearAllSessions() {
	r.sessions.ClearAll()
}

// SessionCount returns the number of active sessions.
func (r *Router) SessionCount() int {
	return r.sessions.Len()
}

// IsProviderAvailable reports whether a provider can serve requests.
func (r *Router) IsProviderAvailable(ctx context.Context, name string) bool {
	return r.registry.IsAvailable(ctx, name)
}

// AvailableProviders returns the sorted names of usable providers.
func (r *Router) AvailableProviders(ctx context.Context) []string {
	return r.registry.Available(ctx)
}

// ProviderInfo returns the introspection record for every registered
// provider, available or not.
func (r *Router) ProviderInfo(ctx context.Context) []provider.Info {
	names := r.registry.Names()
	infos := make([]provider.Info, 0, len(names))
	for _, name := range names {
		infos = append(infos, provider.Info{
			Name:      name,
			Family:    provider.FamilyOf(name),
			Available: r.registry.IsAvailable(ctx, name),
			Models:    provider.Models(name),
		})
	}
	return infos
}

func (r *Router) startSpan(ctx context.Context, op, providerName, requestID string) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("llm.provider", providerName),
		attribute.String("llm.request_id", requestID),
	))
}

// fail records the error on the span without ending it (the caller's
// defer does that).
func (r *Router) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// failEnd records the error and ends the span, for streaming paths
// where the span otherwise outlives the call.
func (r *Router) failEnd(span trace.Span, err error) error {
	r.fail(span, err)
	span.End()
	return err
}

// spanWatch relays the stream and closes the span when it finishes,
// recording whether the stream ended in an error message.
func (r *Router) spanWatch(span trace.Span, src <-chan message.Message) <-chan message.Message {
	out := make(chan message.Message)
	go func() {
		defer close(out)
		defer span.End()
		failed := false
		for msg := range src {
			failed = msg.IsError()
			out <- msg
		}
		if failed {
			span.SetStatus(codes.Error, "stream ended in error")
		}
	}()
	return out
}
