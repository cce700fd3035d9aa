package main

import (
	"fmt"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

// program adapts the module runtime to the service manager lifecycle.
// Start must return quickly; module Start calls are already
// non-blocking, so the whole runtime comes up inline.
type program struct {
	cfgPath string
	rt      *runtime
}

func (p *program) Start(service.Service) error {
	rt, err := buildRuntime(p.cfgPath, newLogger())
	if err != nil {
		return err
	}
	if err := rt.app.Start(); err != nil {
		return err
	}
	p.rt = rt
	return nil
}

func (p *program) Stop(service.Service) error {
	if p.rt != nil {
		p.rt.app.Stop()
	}
	return nil
}

func newService(cfgPath string) (service.Service, error) {
	svcConfig := &service.Config{
		Name:        "llmux",
		DisplayName: "llmux",
		Description: "Multi-provider LLM gateway",
		Arguments:   []string{"service", "run", "-c", cfgPath},
	}
	return service.New(&program{cfgPath: cfgPath}, svcConfig)
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Run llmux under the system service manager",
	}

	configPath := func(c *cobra.Command) (string, error) {
		path, _ := c.Flags().GetString("config")
		if path != "" {
			return path, nil
		}
		return resolveConfigPath()
	}

	for _, action := range []string{"install", "uninstall", "start", "stop"} {
		cmd.AddCommand(&cobra.Command{
			Use:   action,
			Short: fmt.Sprintf("%s the llmux system service", action),
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, _ []string) error {
				cfgPath, err := configPath(c)
				if err != nil {
					return err
				}
				svc, err := newService(cfgPath)
				if err != nil {
					return err
				}
				if err := service.Control(svc, c.Use); err != nil {
					return err
				}
				fmt.Printf("Service %s: OK\n", c.Use)
				return nil
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run in the foreground under service manager control",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfgPath, err := configPath(c)
			if err != nil {
				return err
			}
			svc, err := newService(cfgPath)
			if err != nil {
				return err
			}
			return svc.Run()
		},
	})

	cmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}
