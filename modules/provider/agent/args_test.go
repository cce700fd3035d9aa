package agent

import (
	"slices"
	"testing"

	"github.com/codetalcott/llmux/internal/provider"
)

func TestBuildArgsMinimal(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	cfg.defaults()

	args := buildArgs(cfg, provider.AgentRequest{Prompt: "hello"})
	want := []string{"--print", "--output-format", "stream-json", "--verbose", "hello"}
	if !slices.Equal(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestBuildArgsResume(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	cfg.defaults()

	args := buildArgs(cfg, provider.AgentRequest{Prompt: "continue", Resume: "tok-9"})
	i := slices.Index(args, "--resume")
	if i < 0 || args[i+1] != "tok-9" {
		t.Errorf("args = %v, want --resume tok-9", args)
	}
	if args[len(args)-1] != "continue" {
		t.Errorf("prompt not last: %v", args)
	}
}

func TestBuildArgsRequestOverridesConfig(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Model:          "sonnet",
		PermissionMode: "default",
		AllowedTools:   []string{"Read"},
	}
	cfg.defaults()

	args := buildArgs(cfg, provider.AgentRequest{
		Prompt:          "go",
		Model:           "opus",
		PermissionMode:  "acceptEdits",
		AllowedTools:    []string{"Read", "Grep"},
		DisallowedTools: []string{"Bash"},
	})

	checks := map[string]string{
		"--model":            "opus",
		"--permission-mode":  "acceptEdits",
		"--allowed-tools":    "Read,Grep",
		"--disallowed-tools": "Bash",
	}
	for flag, want := range checks {
		i := slices.Index(args, flag)
		if i < 0 || args[i+1] != want {
			t.Errorf("%s = %v, want %q", flag, args, want)
		}
	}
}

func TestBuildArgsConfigDefaultsApply(t *testing.T) {
	t.Parallel()

	cfg := &Config{Model: "sonnet", DisallowedTools: []string{"WebSearch"}}
	cfg.defaults()

	args := buildArgs(cfg, provider.AgentRequest{Prompt: "go"})
	if i := slices.Index(args, "--model"); i < 0 || args[i+1] != "sonnet" {
		t.Errorf("args = %v, want config model", args)
	}
	if i := slices.Index(args, "--disallowed-tools"); i < 0 || args[i+1] != "WebSearch" {
		t.Errorf("args = %v, want config disallowed tools", args)
	}
}
