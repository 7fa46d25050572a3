// SPDX-License-Identifier: MIT

package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ManuGH/v2m3u/internal/config"
	xglog "github.com/ManuGH/v2m3u/internal/log"
	"github.com/ManuGH/v2m3u/internal/version"
)

// commandContext loads the configuration once per invocation.
type commandContext struct {
	configFlag *string
	envFlag    *string

	once   sync.Once
	loader *config.Loader
	cfg    config.AppConfig
	err    error
}

func (c *commandContext) load() (config.AppConfig, *config.Loader, error) {
	c.once.Do(func() {
		c.loader = config.NewLoader(strings.TrimSpace(*c.configFlag), strings.TrimSpace(*c.envFlag), version.Version)
		c.cfg, c.err = c.loader.Load()
		if c.err == nil {
			configureLogging(c.cfg)
		}
	})
	return c.cfg, c.loader, c.err
}

func configureLogging(cfg config.AppConfig) {
	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: version.Version,
	})
}

func newRootCommand() *cobra.Command {
	var configFlag, envFlag string
	ctx := &commandContext{configFlag: &configFlag, envFlag: &envFlag}

	root := &cobra.Command{
		Use:           "v2m3u",
		Short:         "Build per-country M3U playlists from provider channel listings",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (YAML)")
	root.PersistentFlags().StringVar(&envFlag, "env-file", "", "Dotenv file with V2M3U_* variables (default: ./.env if present)")

	root.AddCommand(newGenerateCommand(ctx))
	root.AddCommand(newServeCommand(ctx))
	root.AddCommand(newConfigCommand(ctx))
	root.AddCommand(newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write([]byte(version.String() + "\n"))
			return err
		},
	}
}
