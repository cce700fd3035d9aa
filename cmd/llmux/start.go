package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/codetalcott/llmux/internal/config"
	"github.com/codetalcott/llmux/internal/core"
	"github.com/codetalcott/llmux/internal/observe"
	"github.com/codetalcott/llmux/internal/provider"
	"github.com/codetalcott/llmux/internal/router"
	"github.com/codetalcott/llmux/internal/session"
	"github.com/codetalcott/llmux/internal/stream"
	"github.com/codetalcott/llmux/internal/transcript"
)

// runtime bundles the wired application: loaded modules plus the
// dispatch router built on top of them.
type runtime struct {
	cfg    *config.Config
	app    *core.App
	appCtx *core.AppContext
	router *router.Router
	ids    []string
}

// buildRuntime loads the config, registers shared services, loads all
// configured modules, and wires the dispatch router. Provider modules
// register lazy init funcs during Provision; the memory module
// publishes its transcript recorder the same way. The router is
// registered last so the gateway can resolve it at Start.
func buildRuntime(cfgPath string, logger *slog.Logger) (*runtime, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	appCtx := core.NewAppContext(logger, defaultDataDir())
	appCtx = appCtx.WithModuleConfigs(cfg.Modules)

	registry := provider.NewRegistry(logger)
	appCtx.RegisterService(provider.RegistryService, registry)

	app := core.NewApp(appCtx)
	ids := config.Resolve(cfg)
	if err := app.LoadModules(ids); err != nil {
		return nil, err
	}

	var recorder transcript.Recorder
	if svc, ok := appCtx.Service(transcript.ServiceName); ok {
		if rec, ok := svc.(transcript.Recorder); ok {
			recorder = rec
		}
	}

	sessions := session.NewMap()
	coord := stream.NewCoordinator(sessions, recorder, logger)
	rt := router.New(registry, sessions, coord, logger)
	appCtx.RegisterService(router.ServiceName, rt)

	return &runtime{
		cfg:    cfg,
		app:    app,
		appCtx: appCtx,
		router: rt,
		ids:    ids,
	}, nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func startCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start llmux with all configured modules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			if cfgPath == "" {
				resolved, err := resolveConfigPath()
				if err != nil {
					return err
				}
				cfgPath = resolved
			}

			logger := newLogger()
			rt, err := buildRuntime(cfgPath, logger)
			if err != nil {
				return err
			}

			shutdownTracing, err := observe.Setup(cmd.Context(), rt.cfg.Observability, version, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdownTracing(context.Background()); err != nil {
					logger.Warn("trace shutdown error", "error", err)
				}
			}()

			return rt.app.Run()
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			rt, err := buildRuntime(args[0], newLogger())
			if err != nil {
				return err
			}
			defer rt.app.Stop()

			fmt.Printf("Configuration OK (%d modules)\n", len(rt.ids))
			for _, id := range rt.ids {
				fmt.Printf("  %s\n", id)
			}
			return nil
		},
	})
	return cmd
}
