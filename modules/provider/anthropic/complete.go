package anthropic

import (
	"context"

	"github.com/codetalcott/llmux/internal/provider"
)

// Complete implements provider.ChatProvider.
func (a *Anthropic) Complete(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error) {
	msg, err := a.client.Messages.New(ctx, toParams(req, &a.config, a.logger))
	if err != nil {
		return provider.CompletionResponse{}, mapError(err)
	}
	return toResponse(msg), nil
}
