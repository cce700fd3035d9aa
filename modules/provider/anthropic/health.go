package anthropic

import (
	"context"

	sdk "github.com/anthropics/anthropic-sdk-go"
)

// HealthCheck implements provider.HealthChecker. The API has no
// dedicated health endpoint; a 1-token completion is the cheapest
// probe.
func (a *Anthropic) HealthCheck(ctx context.Context) error {
	_, err := a.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(a.config.Model),
		MaxTokens: 1,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock("hi")),
		},
	})
	return mapError(err)
}
