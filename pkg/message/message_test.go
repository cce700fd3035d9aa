package message_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/codetalcott/llmux/pkg/message"
)

func TestFromError(t *testing.T) {
	t.Parallel()

	base := errors.New("connection reset")
	wrapped := fmt.Errorf("agent backend: %w", base)

	msg := message.FromError(wrapped)

	if msg.Kind != message.KindError {
		t.Fatalf("kind = %q, want %q", msg.Kind, message.KindError)
	}
	if msg.Content != "agent backend: connection reset" {
		t.Errorf("content = %q", msg.Content)
	}
	if msg.Detail == "" {
		t.Error("detail is empty, want diagnostic trace")
	}
	if !msg.IsError() {
		t.Error("IsError() = false, want true")
	}
}

func TestFromErrorNil(t *testing.T) {
	t.Parallel()

	msg := message.FromError(nil)
	if msg.Kind != message.KindError {
		t.Fatalf("kind = %q, want %q", msg.Kind, message.KindError)
	}
	if msg.Content == "" {
		t.Error("content is empty")
	}
}

func TestIsErrorOtherKinds(t *testing.T) {
	t.Parallel()

	for _, kind := range []message.Kind{
		message.KindSystem,
		message.KindContent,
		message.KindToolUse,
		message.KindResult,
	} {
		if (message.Message{Kind: kind}).IsError() {
			t.Errorf("IsError() = true for kind %q", kind)
		}
	}
}
