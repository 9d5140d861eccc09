package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"slidecast/config"
	"slidecast/internal/logger"
)

type commandContext struct {
	configPath *string
	cfg        *config.Config
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(*c.configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	c.cfg = cfg
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := &commandContext{configPath: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "slidecast",
		Short:         "Turn a topic into a narrated slide video and publish it",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if _, err := logger.Initialize(cfg); err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newScenesCommand(ctx))
	rootCmd.AddCommand(newRenderCommand(ctx))
	rootCmd.AddCommand(newPublishCommand(ctx))

	return rootCmd
}
