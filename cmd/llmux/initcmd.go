package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

const configTemplate = `version: "1"

modules:
%s  gateway.http:
    bind: "%s"
`

var providerSnippets = map[string]string{
	"anthropic": `  provider.anthropic:
    api_key_env: ANTHROPIC_API_KEY
`,
	"openai": `  provider.openai:
    api_key_env: OPENAI_API_KEY
`,
	"agent": `  provider.agent:
    binary: claude
`,
	"sqlite": `  memory.sqlite:
    retention_days: 7
`,
}

// snippet order matches the resolver's load order, providers then
// memory then gateway.
var snippetOrder = []string{"anthropic", "openai", "agent", "sqlite"}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Interactively generate a configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := "llmux.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, remove it first", path)
			}

			selected := []string{"anthropic"}
			bind := "127.0.0.1:8080"

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewMultiSelect[string]().
						Title("Modules to enable").
						Options(
							huh.NewOption("Anthropic API (ANTHROPIC_API_KEY)", "anthropic"),
							huh.NewOption("OpenAI-compatible API (OPENAI_API_KEY)", "openai"),
							huh.NewOption("Local agent CLI", "agent"),
							huh.NewOption("SQLite transcript store", "sqlite"),
						).
						Value(&selected),
					huh.NewInput().
						Title("Gateway bind address").
						Value(&bind),
				),
			)
			if err := form.Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return err
			}

			var sb strings.Builder
			for _, name := range snippetOrder {
				for _, sel := range selected {
					if sel == name {
						sb.WriteString(providerSnippets[name])
					}
				}
			}

			content := fmt.Sprintf(configTemplate, sb.String(), bind)
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				return err
			}

			fmt.Printf("Wrote %s\n", path)
			fmt.Println("Review it, then run: llmux start -c " + path)
			return nil
		},
	}
}
