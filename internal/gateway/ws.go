package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/codetalcott/llmux/internal/provider"
	"github.com/codetalcott/llmux/internal/router"
	"github.com/codetalcott/llmux/pkg/message"
)

// requestReadTimeout bounds the wait for the client's opening frame.
const requestReadTimeout = 10 * time.Second

// agentWSRequest is the client's opening frame on GET /v1/agent.
type agentWSRequest struct {
	Provider  string `json:"provider"`
	SessionID string `json:"session_id"`
	provider.AgentRequest
}

// handleAgentWS upgrades to WebSocket, reads one request frame, and
// relays the agent stream as JSON message frames. The connection closes
// normally when the stream completes; in-band error messages are frames
// like any other.
func (g *Gateway) handleAgentWS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			g.logger.Error("websocket accept failed", "error", err)
			return
		}
		defer func() {
			_ = conn.Close(websocket.StatusInternalError, "unexpected close")
		}()

		ctx := r.Context()

		readCtx, cancel := context.WithTimeout(ctx, requestReadTimeout)
		var req agentWSRequest
		err = wsjson.Read(readCtx, conn, &req)
		cancel()
		if err != nil {
			_ = conn.Close(websocket.StatusPolicyViolation, "invalid request frame")
			return
		}
		if req.Provider == "" {
			req.Provider = "agent"
		}

		g.metrics.requests.WithLabelValues("agent", req.Provider).Inc()

		stream, err := g.router.Agent(ctx, router.AgentCall{
			Provider:     req.Provider,
			SessionID:    req.SessionID,
			AgentRequest: req.AgentRequest,
		})
		if err != nil {
			g.metrics.errors.WithLabelValues("agent", req.Provider).Inc()
			// Dispatch failures arrive before any stream exists; surface
			// them as a single error frame for a uniform client view.
			_ = wsjson.Write(ctx, conn, message.FromError(err))
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		}

		for msg := range stream {
			g.metrics.streamMessages.WithLabelValues(string(msg.Kind)).Inc()
			if msg.IsError() {
				g.metrics.errors.WithLabelValues("agent", req.Provider).Inc()
			}
			if err := wsjson.Write(ctx, conn, msg); err != nil {
				g.logger.Debug("websocket write failed", "error", err)
				return
			}
		}

		_ = conn.Close(websocket.StatusNormalClosure, "")
	}
}
