package provider

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
)

func chatClient(name string) *Client {
	return &Client{Name: name, Chat: nopChat{}}
}

// nopChat is a minimal ChatProvider for registry tests.
type nopChat struct{}

func (nopChat) Complete(context.Context, CompletionRequest) (CompletionResponse, error) {
	return CompletionResponse{}, nil
}

func (nopChat) Stream(context.Context, CompletionRequest) (<-chan StreamChunk, error) {
	ch := make(chan StreamChunk)
	close(ch)
	return ch, nil
}

func (nopChat) ModelName() string { return "nop" }

func TestRegistryUnknownProvider(t *testing.T) {
	t.Parallel()

	r := NewRegistry(slog.Default())
	ctx := context.Background()

	if r.IsAvailable(ctx, "openai") {
		t.Error("IsAvailable = true for unregistered provider")
	}

	_, err := r.Client(ctx, "openai")
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("err = %v, want ErrUnknownProvider", err)
	}
}

func TestRegistryNotConfigured(t *testing.T) {
	t.Parallel()

	r := NewRegistry(slog.Default())
	r.Register("openai", func(context.Context) (*Client, error) {
		return nil, nil // no credential
	})
	ctx := context.Background()

	if r.IsAvailable(ctx, "openai") {
		t.Error("IsAvailable = true for unconfigured provider")
	}

	_, err := r.Client(ctx, "openai")
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestRegistryInitFailure(t *testing.T) {
	t.Parallel()

	r := NewRegistry(slog.Default())
	cause := errors.New("sdk exploded")
	r.Register("anthropic", func(context.Context) (*Client, error) {
		return nil, cause
	})
	ctx := context.Background()

	if r.IsAvailable(ctx, "anthropic") {
		t.Error("IsAvailable = true after init failure")
	}

	_, err := r.Client(ctx, "anthropic")
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("err = %v, want wrapped cause", err)
	}
}

func TestRegistryInitOnce(t *testing.T) {
	t.Parallel()

	var inits atomic.Int32
	r := NewRegistry(slog.Default())
	r.Register("anthropic", func(context.Context) (*Client, error) {
		inits.Add(1)
		return chatClient("anthropic"), nil
	})

	ctx := context.Background()
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !r.IsAvailable(ctx, "anthropic") {
				t.Error("IsAvailable = false")
			}
		}()
	}
	wg.Wait()

	if got := inits.Load(); got != 1 {
		t.Errorf("init ran %d times, want 1", got)
	}
}

func TestRegistryPartialFailureIsolation(t *testing.T) {
	t.Parallel()

	r := NewRegistry(slog.Default())
	r.Register("anthropic", func(context.Context) (*Client, error) {
		return chatClient("anthropic"), nil
	})
	r.Register("openai", func(context.Context) (*Client, error) {
		return nil, errors.New("boom")
	})
	r.Register("agent", func(context.Context) (*Client, error) {
		return nil, nil
	})

	ctx := context.Background()
	got := r.Available(ctx)
	if len(got) != 1 || got[0] != "anthropic" {
		t.Errorf("Available = %v, want [anthropic]", got)
	}
}

func TestRegistryClientSuccess(t *testing.T) {
	t.Parallel()

	r := NewRegistry(slog.Default())
	r.Register("anthropic", func(context.Context) (*Client, error) {
		return chatClient("anthropic"), nil
	})

	c, err := r.Client(context.Background(), "anthropic")
	if err != nil {
		t.Fatalf("Client: %v", err)
	}
	if c.Family() != FamilyChat {
		t.Errorf("family = %q, want %q", c.Family(), FamilyChat)
	}
}

func TestRegistryNames(t *testing.T) {
	t.Parallel()

	r := NewRegistry(slog.Default())
	r.Register("openai", func(context.Context) (*Client, error) { return nil, nil })
	r.Register("anthropic", func(context.Context) (*Client, error) { return nil, nil })

	names := r.Names()
	if len(names) != 2 || names[0] != "anthropic" || names[1] != "openai" {
		t.Errorf("Names = %v, want [anthropic openai]", names)
	}
}
