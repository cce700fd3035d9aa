package agent

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/codetalcott/llmux/internal/provider"
)

// scannerBufferSize raises the line scanner limit; a single assistant
// event can carry large tool inputs.
const scannerBufferSize = 1 * 1024 * 1024

// maxStderr bounds captured stderr for diagnostics.
const maxStderr = 16 * 1024

const eventBuffer = 16

// Run implements provider.AgentProvider. Launch failures return an
// error directly; once the channel exists, decode failures and nonzero
// exits arrive as the final Event.Err before close.
func (a *Agent) Run(ctx context.Context, req provider.AgentRequest) (<-chan provider.Event, error) {
	cmd := exec.CommandContext(ctx, a.binPath, buildArgs(&a.config, req)...)
	cmd.Dir = a.config.WorkDir
	cmd.Env = a.environment(req.Env)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("agent: stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &limitedWriter{w: &stderr, n: maxStderr}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("agent: start %s: %w", a.config.Binary, err)
	}

	a.logger.Debug("agent subprocess started",
		"binary", a.config.Binary,
		"pid", cmd.Process.Pid,
		"resumed", req.Resume != "")

	ch := make(chan provider.Event, eventBuffer)
	go a.consume(ctx, cmd, stdout, &stderr, ch)
	return ch, nil
}

// consume decodes stdout line by line, then reaps the process. A decode
// error abandons the stream; the deferred Wait still reaps the child.
func (a *Agent) consume(ctx context.Context, cmd *exec.Cmd, stdout io.Reader, stderr *bytes.Buffer, ch chan<- provider.Event) {
	defer close(ch)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, scannerBufferSize), scannerBufferSize)

	sawTerminal := false
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		// The scanner reuses its buffer; decoded messages keep Raw.
		line := append([]byte(nil), scanner.Bytes()...)
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		msgs, err := decodeLine(line)
		if err != nil {
			sendEvent(ctx, ch, provider.Event{Err: err})
			_ = cmd.Wait()
			return
		}
		for _, msg := range msgs {
			if msg.IsError() {
				sawTerminal = true
			}
			if !sendEvent(ctx, ch, provider.Event{Msg: msg}) {
				_ = cmd.Wait()
				return
			}
		}
	}

	scanErr := scanner.Err()
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return
	}
	if scanErr != nil {
		sendEvent(ctx, ch, provider.Event{Err: fmt.Errorf("agent: read output: %w", scanErr)})
		return
	}
	if waitErr != nil && !sawTerminal {
		err := fmt.Errorf("agent: %s exited: %w", a.config.Binary, waitErr)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		sendEvent(ctx, ch, provider.Event{Err: err})
	}
}

// environment merges the process env, config overrides, then request
// overrides.
func (a *Agent) environment(reqEnv map[string]string) []string {
	env := os.Environ()
	for k, v := range a.config.Env {
		env = append(env, k+"="+v)
	}
	for k, v := range reqEnv {
		env = append(env, k+"="+v)
	}
	return env
}

func sendEvent(ctx context.Context, ch chan<- provider.Event, ev provider.Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// limitedWriter discards writes beyond n bytes.
type limitedWriter struct {
	w io.Writer
	n int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if l.n <= 0 {
		return len(p), nil
	}
	if len(p) > l.n {
		if _, err := l.w.Write(p[:l.n]); err != nil {
			return 0, err
		}
		l.n = 0
		return len(p), nil
	}
	l.n -= len(p)
	return l.w.Write(p)
}
