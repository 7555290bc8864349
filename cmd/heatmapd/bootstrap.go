package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"heatmap/internal/config"
	"heatmap/internal/daemonrun"
)

type runFunc func(ctx context.Context, cfg *config.Config, opts daemonrun.Options) error

func newRootCommand() *cobra.Command {
	return newRootCommandWith(daemonrun.Run)
}

// newRootCommandWith lets tests observe the resolved config without binding
// a listener.
func newRootCommandWith(run runFunc) *cobra.Command {
	var configPath string
	var logLevel string
	var development bool

	cmd := &cobra.Command{
		Use:           "heatmapd",
		Short:         "Episode rating heatmap daemon",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    strings.TrimSpace(logLevel),
				Development: development,
			})
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level")
	cmd.Flags().BoolVar(&development, "development", false, "Tag log records as development output")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	cfg, _, _, err := config.Load(strings.TrimSpace(path))
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}
