package agent

import (
	"testing"

	"github.com/codetalcott/llmux/pkg/message"
)

func TestDecodeSystemInit(t *testing.T) {
	t.Parallel()

	line := []byte(`{"type":"system","subtype":"init","session_id":"sess-42"}`)
	msgs, err := decodeLine(line)
	if err != nil {
		t.Fatalf("decodeLine: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	m := msgs[0]
	if m.Kind != message.KindSystem || m.Subtype != "init" {
		t.Errorf("msg = %+v, want system/init", m)
	}
	if m.SessionToken != "sess-42" {
		t.Errorf("SessionToken = %q, want sess-42", m.SessionToken)
	}
	if len(m.Raw) == 0 {
		t.Error("Raw not preserved")
	}
}

func TestDecodeAssistantBlocks(t *testing.T) {
	t.Parallel()

	line := []byte(`{"type":"assistant","message":{"content":[` +
		`{"type":"text","text":"reading the file"},` +
		`{"type":"tool_use","name":"Read","input":{"path":"main.go"}}]}}`)
	msgs, err := decodeLine(line)
	if err != nil {
		t.Fatalf("decodeLine: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Kind != message.KindContent || msgs[0].Content != "reading the file" {
		t.Errorf("msgs[0] = %+v", msgs[0])
	}
	if msgs[1].Kind != message.KindToolUse || msgs[1].ToolName != "Read" {
		t.Errorf("msgs[1] = %+v", msgs[1])
	}
	if string(msgs[1].ToolInput) != `{"path":"main.go"}` {
		t.Errorf("ToolInput = %s", msgs[1].ToolInput)
	}
}

func TestDecodeResult(t *testing.T) {
	t.Parallel()

	line := []byte(`{"type":"result","subtype":"success","result":"all done","session_id":"sess-42"}`)
	msgs, err := decodeLine(line)
	if err != nil {
		t.Fatalf("decodeLine: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Kind != message.KindResult {
		t.Fatalf("msgs = %+v, want single result", msgs)
	}
	if msgs[0].Content != "all done" {
		t.Errorf("Content = %q", msgs[0].Content)
	}
}

func TestDecodeErrorResult(t *testing.T) {
	t.Parallel()

	line := []byte(`{"type":"result","subtype":"error_during_execution","result":"boom","is_error":true}`)
	msgs, err := decodeLine(line)
	if err != nil {
		t.Fatalf("decodeLine: %v", err)
	}
	if len(msgs) != 1 || !msgs[0].IsError() {
		t.Fatalf("msgs = %+v, want terminal error message", msgs)
	}
}

func TestDecodeUnknownTypeSkipped(t *testing.T) {
	t.Parallel()

	msgs, err := decodeLine([]byte(`{"type":"user","message":{"content":[]}}`))
	if err != nil {
		t.Fatalf("decodeLine: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("msgs = %+v, want none", msgs)
	}
}

func TestDecodeMalformed(t *testing.T) {
	t.Parallel()

	if _, err := decodeLine([]byte(`{not json`)); err == nil {
		t.Error("decodeLine accepted malformed input")
	}
}
