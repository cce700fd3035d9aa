package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/codetalcott/llmux/internal/provider"
	"github.com/codetalcott/llmux/internal/provider/providertest"
	"github.com/codetalcott/llmux/internal/router"
	"github.com/codetalcott/llmux/internal/session"
	"github.com/codetalcott/llmux/internal/stream"
	"github.com/codetalcott/llmux/pkg/message"
)

func testGateway(t *testing.T, chat *providertest.MockChat, agent *providertest.MockAgent, auth AuthConfig) *Gateway {
	t.Helper()

	logger := slog.Default()
	registry := provider.NewRegistry(logger)
	if chat != nil {
		registry.Register("anthropic", func(context.Context) (*provider.Client, error) {
			return &provider.Client{Name: "anthropic", Chat: chat}, nil
		})
	}
	if agent != nil {
		registry.Register("agent", func(context.Context) (*provider.Client, error) {
			return &provider.Client{Name: "agent", Agent: agent}, nil
		})
	}

	sessions := session.NewMap()
	coord := stream.NewCoordinator(sessions, nil, logger)

	g := &Gateway{
		logger:    logger,
		metrics:   newMetrics(),
		router:    router.New(registry, sessions, coord, logger),
		startedAt: time.Now(),
	}
	g.config.Auth = auth
	g.config.defaults()
	return g
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	g := testGateway(t, &providertest.MockChat{}, nil, AuthConfig{})
	srv := httptest.NewServer(g.buildRouter())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Status    string   `json:"status"`
		Providers []string `json:"providers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q", body.Status)
	}
	if len(body.Providers) != 1 || body.Providers[0] != "anthropic" {
		t.Errorf("providers = %v, want [anthropic]", body.Providers)
	}
}

func TestChatEndpoint(t *testing.T) {
	t.Parallel()

	chat := &providertest.MockChat{
		CompleteFunc: func(_ context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error) {
			return provider.CompletionResponse{
				Content:      "hello",
				FinishReason: provider.FinishReasonStop,
				Usage:        provider.TokenUsage{PromptTokens: 2, CompletionTokens: 1, TotalTokens: 3},
			}, nil
		},
	}
	g := testGateway(t, chat, nil, AuthConfig{})
	srv := httptest.NewServer(g.buildRouter())
	t.Cleanup(srv.Close)

	payload := `{"provider":"anthropic","messages":[{"role":"user","content":"hi"}]}`
	resp, err := http.Post(srv.URL+"/v1/chat", "application/json", bytes.NewBufferString(payload))
	if err != nil {
		t.Fatalf("POST /v1/chat: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body provider.CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Content != "hello" {
		t.Errorf("Content = %q", body.Content)
	}
}

func TestChatEndpointStreaming(t *testing.T) {
	t.Parallel()

	chat := &providertest.MockChat{
		StreamFunc: func(context.Context, provider.CompletionRequest) (<-chan provider.StreamChunk, error) {
			ch := make(chan provider.StreamChunk, 3)
			ch <- provider.StreamChunk{Content: "hel"}
			ch <- provider.StreamChunk{Content: "lo"}
			ch <- provider.StreamChunk{FinishReason: provider.FinishReasonStop}
			close(ch)
			return ch, nil
		},
	}
	g := testGateway(t, chat, nil, AuthConfig{})
	srv := httptest.NewServer(g.buildRouter())
	t.Cleanup(srv.Close)

	payload := `{"provider":"anthropic","stream":true,"messages":[{"role":"user","content":"hi"}]}`
	resp, err := http.Post(srv.URL+"/v1/chat", "application/json", bytes.NewBufferString(payload))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if got := resp.Header.Get("Content-Type"); got != "application/x-ndjson" {
		t.Errorf("Content-Type = %q", got)
	}

	var msgs []message.Message
	dec := json.NewDecoder(resp.Body)
	for dec.More() {
		var msg message.Message
		if err := dec.Decode(&msg); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	if msgs[0].Content != "hel" || msgs[1].Content != "lo" {
		t.Errorf("content messages = %+v", msgs[:2])
	}
	if msgs[2].Kind != message.KindResult {
		t.Errorf("last kind = %q, want result", msgs[2].Kind)
	}
}

func TestChatStreamingOutlivesWriteTimeout(t *testing.T) {
	t.Parallel()

	const writeTimeout = 250 * time.Millisecond

	chat := &providertest.MockChat{
		StreamFunc: func(ctx context.Context, _ provider.CompletionRequest) (<-chan provider.StreamChunk, error) {
			ch := make(chan provider.StreamChunk)
			go func() {
				defer close(ch)
				for range 4 {
					select {
					case <-time.After(150 * time.Millisecond):
					case <-ctx.Done():
						return
					}
					ch <- provider.StreamChunk{Content: "tick"}
				}
				ch <- provider.StreamChunk{FinishReason: provider.FinishReasonStop}
			}()
			return ch, nil
		},
	}
	g := testGateway(t, chat, nil, AuthConfig{})
	g.config.WriteTimeout = writeTimeout

	srv := httptest.NewUnstartedServer(g.buildRouter())
	srv.Config.WriteTimeout = writeTimeout
	srv.Start()
	t.Cleanup(srv.Close)

	payload := `{"provider":"anthropic","stream":true,"messages":[{"role":"user","content":"hi"}]}`
	resp, err := http.Post(srv.URL+"/v1/chat", "application/json", bytes.NewBufferString(payload))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// The stream runs ~600ms against a 250ms write timeout; the
	// per-message deadline reset must keep the connection alive to the
	// terminal message.
	var msgs []message.Message
	dec := json.NewDecoder(resp.Body)
	for dec.More() {
		var msg message.Message
		if err := dec.Decode(&msg); err != nil {
			t.Fatalf("stream severed after %d messages: %v", len(msgs), err)
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) != 5 {
		t.Fatalf("got %d messages, want 5", len(msgs))
	}
	if msgs[4].Kind != message.KindResult {
		t.Errorf("last kind = %q, want result", msgs[4].Kind)
	}
}

func TestChatEndpointUnknownProvider(t *testing.T) {
	t.Parallel()

	g := testGateway(t, &providertest.MockChat{}, nil, AuthConfig{})
	srv := httptest.NewServer(g.buildRouter())
	t.Cleanup(srv.Close)

	payload := `{"provider":"mistral","messages":[{"role":"user","content":"hi"}]}`
	resp, err := http.Post(srv.URL+"/v1/chat", "application/json", bytes.NewBufferString(payload))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestChatEndpointEmptyMessages(t *testing.T) {
	t.Parallel()

	g := testGateway(t, &providertest.MockChat{}, nil, AuthConfig{})
	srv := httptest.NewServer(g.buildRouter())
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/v1/chat", "application/json",
		bytes.NewBufferString(`{"provider":"anthropic"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestProvidersEndpoint(t *testing.T) {
	t.Parallel()

	g := testGateway(t, &providertest.MockChat{}, nil, AuthConfig{})
	srv := httptest.NewServer(g.buildRouter())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/v1/providers")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var infos []provider.Info
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(infos) != 1 || infos[0].Name != "anthropic" || !infos[0].Available {
		t.Errorf("infos = %+v", infos)
	}
}

func TestSessionsRequireAuth(t *testing.T) {
	t.Parallel()

	g := testGateway(t, &providertest.MockChat{}, nil, AuthConfig{BearerToken: "secret"})
	srv := httptest.NewServer(g.buildRouter())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/v1/sessions")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status without token = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET with token: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status with token = %d, want 200", resp.StatusCode)
	}
}

func TestSessionsNotMountedWithoutAuth(t *testing.T) {
	t.Parallel()

	g := testGateway(t, &providertest.MockChat{}, nil, AuthConfig{})
	srv := httptest.NewServer(g.buildRouter())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/v1/sessions")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 (admin surface unmounted)", resp.StatusCode)
	}
}

func TestClearSessionEndpoint(t *testing.T) {
	t.Parallel()

	g := testGateway(t, &providertest.MockChat{}, nil, AuthConfig{BearerToken: "secret"})
	srv := httptest.NewServer(g.buildRouter())
	t.Cleanup(srv.Close)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/v1/sessions/s1", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
}

func TestAgentWebSocketStream(t *testing.T) {
	t.Parallel()

	agent := &providertest.MockAgent{
		RunFunc: func(context.Context, provider.AgentRequest) (<-chan provider.Event, error) {
			return providertest.EventChan(
				provider.Event{Msg: message.Message{Kind: message.KindSystem, Subtype: "init", SessionToken: "tok-1"}},
				provider.Event{Msg: message.Message{Kind: message.KindContent, Content: "working"}},
				provider.Event{Msg: message.Message{Kind: message.KindResult, Content: "done"}},
			), nil
		},
	}
	g := testGateway(t, nil, agent, AuthConfig{})
	srv := httptest.NewServer(g.buildRouter())
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):]+"/v1/agent", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	if err := wsjson.Write(ctx, conn, agentWSRequest{
		SessionID:    "s1",
		AgentRequest: provider.AgentRequest{Prompt: "hello"},
	}); err != nil {
		t.Fatalf("write request: %v", err)
	}

	var msgs []message.Message
	for range 3 {
		var msg message.Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		msgs = append(msgs, msg)
	}
	if msgs[0].SessionToken != "tok-1" {
		t.Errorf("init token = %q, want tok-1", msgs[0].SessionToken)
	}
	if msgs[2].Kind != message.KindResult || msgs[2].Content != "done" {
		t.Errorf("last = %+v", msgs[2])
	}
}
