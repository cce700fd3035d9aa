package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/codetalcott/llmux/internal/provider"
)

// maxResponseSize caps response bodies (10 MB) so a malformed upstream
// cannot exhaust memory.
const maxResponseSize = 10 * 1024 * 1024

const streamChannelBuffer = 64

func (p *OpenAI) newHTTPRequest(ctx context.Context, path string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	return httpReq, nil
}

func (p *OpenAI) doPost(ctx context.Context, path string, payload any) ([]byte, int, error) {
	httpReq, err := p.newHTTPRequest(ctx, path, payload)
	if err != nil {
		return nil, 0, err
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, 0, mapConnectionError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("openai: read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// Complete implements provider.ChatProvider.
func (p *OpenAI) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error) {
	body, statusCode, err := p.doPost(ctx, "/chat/completions", p.buildRequest(req, false))
	if err != nil {
		return provider.CompletionResponse{}, err
	}
	if httpErr := mapHTTPError(statusCode, body); httpErr != nil {
		return provider.CompletionResponse{}, httpErr
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return provider.CompletionResponse{}, fmt.Errorf("openai: unmarshal response: %w", err)
	}
	return fromResponse(&resp), nil
}

// Stream implements provider.ChatProvider. The HTTP status is checked
// before the channel exists, so connection-phase failures surface as a
// returned error.
func (p *OpenAI) Stream(ctx context.Context, req provider.CompletionRequest) (<-chan provider.StreamChunk, error) {
	httpReq, err := p.newHTTPRequest(ctx, "/chat/completions", p.buildRequest(req, true))
	if err != nil {
		return nil, err
	}

	resp, err := p.streamClient.Do(httpReq)
	if err != nil {
		return nil, mapConnectionError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		return nil, mapHTTPError(resp.StatusCode, body)
	}

	ch := make(chan provider.StreamChunk, streamChannelBuffer)
	go readStream(ctx, resp.Body, ch)
	return ch, nil
}

// HealthCheck implements provider.HealthChecker via a 1-token
// completion, exercising auth, model access and quota in one probe.
func (p *OpenAI) HealthCheck(ctx context.Context) error {
	_, err := p.Complete(ctx, provider.CompletionRequest{
		Messages: []provider.LLMMessage{
			{Role: provider.MessageRoleUser, Content: "hi"},
		},
		MaxTokens: 1,
	})
	return err
}
