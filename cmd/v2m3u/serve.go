// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/v2m3u/internal/api"
	"github.com/ManuGH/v2m3u/internal/config"
	"github.com/ManuGH/v2m3u/internal/jobs"
	xglog "github.com/ManuGH/v2m3u/internal/log"
	"github.com/ManuGH/v2m3u/internal/telemetry"
	"github.com/ManuGH/v2m3u/internal/version"
)

const telemetryShutdownTimeout = 5 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Refresh playlists on a schedule and serve them over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, loader, err := ctx.load()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.ListenAddr = listen
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(runCtx, cfg, loader)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Override the listen address")
	return cmd
}

func runServe(ctx context.Context, cfg config.AppConfig, loader *config.Loader) error {
	logger := xglog.WithComponent("serve")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: version.Version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Str(xglog.FieldEvent, "telemetry.shutdown_failed").Msg("telemetry shutdown failed")
		}
	}()

	holder := config.NewHolder(cfg, loader)
	if err := holder.StartWatcher(ctx); err != nil {
		logger.Warn().Err(err).Str(xglog.FieldEvent, "config.watcher_failed").Msg("config hot reload unavailable")
	}
	defer holder.Stop()

	runner := jobs.NewRunner()
	scheduler := jobs.NewScheduler(runner.Run, holder.Get)
	server := api.New(api.Deps{
		Config:    holder.Get,
		Refresher: scheduler,
		Version:   version.Version,
		Traced:    cfg.Telemetry.Enabled,
	})

	updates := make(chan config.AppConfig, 1)
	holder.RegisterListener(updates)

	logger.Info().
		Str(xglog.FieldEvent, "serve.start").
		Str("listen", cfg.Server.ListenAddr).
		Dur("refresh_interval", cfg.Server.RefreshInterval).
		Msg("starting serve mode")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scheduler.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return server.ListenAndServe(gctx, cfg.Server.ListenAddr)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case next := <-updates:
				configureLogging(next)
				// new origins or policy take effect right away
				scheduler.Trigger()
			}
		}
	})
	return g.Wait()
}
