package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/codetalcott/llmux/internal/provider"
	"github.com/codetalcott/llmux/internal/router"
)

// chatPayload is the POST /v1/chat request body. Stream selects an
// NDJSON message stream instead of a single JSON response.
type chatPayload struct {
	Provider string `json:"provider"`
	Stream   bool   `json:"stream,omitempty"`
	provider.CompletionRequest
}

// healthResponse is the GET /health body.
type healthResponse struct {
	Status    string   `json:"status"`
	Uptime    string   `json:"uptime"`
	Sessions  int      `json:"sessions"`
	Providers []string `json:"providers"`
}

func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:    "ok",
			Uptime:    time.Since(g.startedAt).Round(time.Second).String(),
			Sessions:  g.router.SessionCount(),
			Providers: g.router.AvailableProviders(r.Context()),
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (g *Gateway) handleChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload chatPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		g.metrics.requests.WithLabelValues("chat", payload.Provider).Inc()

		if payload.Stream {
			g.streamChat(w, r, payload)
			return
		}

		resp, err := g.router.Chat(r.Context(), router.ChatRequest{
			Provider:          payload.Provider,
			CompletionRequest: payload.CompletionRequest,
		})
		if err != nil {
			g.metrics.errors.WithLabelValues("chat", payload.Provider).Inc()
			writeError(w, statusForError(err), err.Error())
			return
		}

		g.metrics.tokens.WithLabelValues(payload.Provider, "prompt").Add(float64(resp.Usage.PromptTokens))
		g.metrics.tokens.WithLabelValues(payload.Provider, "completion").Add(float64(resp.Usage.CompletionTokens))
		writeJSON(w, http.StatusOK, resp)
	}
}

// streamChat writes the completion as newline-delimited JSON messages.
// Pre-dispatch failures still get a plain error status; once streaming
// starts, failures arrive as in-band error messages.
func (g *Gateway) streamChat(w http.ResponseWriter, r *http.Request, payload chatPayload) {
	stream, err := g.router.ChatStream(r.Context(), router.ChatRequest{
		Provider:          payload.Provider,
		CompletionRequest: payload.CompletionRequest,
	})
	if err != nil {
		g.metrics.errors.WithLabelValues("chat", payload.Provider).Inc()
		writeError(w, statusForError(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	// The server-wide write_timeout covers the whole response, which
	// would sever a long stream; push the deadline forward per message.
	rc := http.NewResponseController(w)

	enc := json.NewEncoder(w)
	for msg := range stream {
		if g.config.WriteTimeout > 0 {
			_ = rc.SetWriteDeadline(time.Now().Add(g.config.WriteTimeout))
		}
		g.metrics.streamMessages.WithLabelValues(string(msg.Kind)).Inc()
		if msg.IsError() {
			g.metrics.errors.WithLabelValues("chat", payload.Provider).Inc()
		}
		if err := enc.Encode(msg); err != nil {
			g.logger.Debug("chat stream write failed", "error", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (g *Gateway) handleProviders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, g.router.ProviderInfo(r.Context()))
	}
}

func (g *Gateway) handleListSessions() http.HandlerFunc {
	type sessionsResponse struct {
		Count int `json:"count"`
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, sessionsResponse{Count: g.router.SessionCount()})
	}
}

func (g *Gateway) handleClearSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.router.ClearSession(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	}
}

func (g *Gateway) handleClearAllSessions() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		g.router.ClearAllSessions()
		w.WriteHeader(http.StatusNoContent)
	}
}

// statusForError maps dispatch errors onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, provider.ErrUnknownProvider):
		return http.StatusNotFound
	case errors.Is(err, provider.ErrInvalidProvider),
		errors.Is(err, router.ErrNoMessages),
		errors.Is(err, router.ErrEmptyPrompt):
		return http.StatusBadRequest
	case errors.Is(err, provider.ErrNotConfigured),
		errors.Is(err, provider.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, provider.ErrRateLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, provider.ErrContextLength):
		return http.StatusBadRequest
	case errors.Is(err, provider.ErrProviderDown):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
