package main

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/codetalcott/llmux/internal/provider"
	"github.com/codetalcott/llmux/internal/router"
	"github.com/codetalcott/llmux/pkg/message"
)

// mcpCmd exposes the dispatch router as an MCP stdio server, so MCP
// clients can use the configured providers as tools. Logs go to stderr;
// stdout carries the protocol.
func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the configured providers over MCP stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			if cfgPath == "" {
				resolved, err := resolveConfigPath()
				if err != nil {
					return err
				}
				cfgPath = resolved
			}

			rt, err := buildRuntime(cfgPath, newLogger())
			if err != nil {
				return err
			}
			defer rt.app.Stop()

			srv := server.NewMCPServer("llmux", version)
			srv.AddTool(chatTool(), chatToolHandler(rt.router))
			srv.AddTool(agentTool(), agentToolHandler(rt.router))

			return server.ServeStdio(srv)
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}

func chatTool() mcp.Tool {
	return mcp.NewTool("chat",
		mcp.WithDescription("Send a single-turn prompt to a configured chat provider."),
		mcp.WithString("provider",
			mcp.Required(),
			mcp.Description("Provider name, e.g. anthropic or openai."),
		),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("The user prompt."),
		),
		mcp.WithString("model",
			mcp.Description("Override the provider's configured model."),
		),
	)
}

func chatToolHandler(rt *router.Router) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("provider")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		prompt, err := req.RequireString("prompt")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		resp, err := rt.Chat(ctx, router.ChatRequest{
			Provider: name,
			CompletionRequest: provider.CompletionRequest{
				Model: req.GetString("model", ""),
				Messages: []provider.LLMMessage{
					{Role: provider.MessageRoleUser, Content: prompt},
				},
			},
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(resp.Content), nil
	}
}

func agentTool() mcp.Tool {
	return mcp.NewTool("agent",
		mcp.WithDescription("Run an agent task and return its final result. "+
			"Pass the same session_id across calls to continue a conversation."),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("The task for the agent."),
		),
		mcp.WithString("session_id",
			mcp.Description("Stable session identifier for multi-turn continuity."),
		),
		mcp.WithString("provider",
			mcp.Description("Agent provider name. Defaults to agent."),
		),
	)
}

func agentToolHandler(rt *router.Router) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		prompt, err := req.RequireString("prompt")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		stream, err := rt.Agent(ctx, router.AgentCall{
			Provider:  req.GetString("provider", "agent"),
			SessionID: req.GetString("session_id", ""),
			AgentRequest: provider.AgentRequest{
				Prompt: prompt,
			},
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		// Drain the stream; the result message carries the final answer,
		// content messages are the fallback when no result arrives.
		var content strings.Builder
		var result string
		for msg := range stream {
			switch msg.Kind {
			case message.KindError:
				return mcp.NewToolResultError(msg.Content), nil
			case message.KindResult:
				result = msg.Content
			case message.KindContent:
				content.WriteString(msg.Content)
			}
		}
		if result == "" {
			result = content.String()
		}
		return mcp.NewToolResultText(result), nil
	}
}
