package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/fabula/internal/app"
	"github.com/dropDatabas3/fabula/internal/observability/logger"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta la API y los jobs programados",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigAndLogger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			log := logger.L()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			container, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer container.Close()

			container.Bus.Start(ctx)

			if container.DecayScheduler != nil {
				go container.DecayScheduler.Run(ctx)
			}

			errCh := make(chan error, 1)
			go func() { errCh <- container.Server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := container.Server.Shutdown(shutdownCtx); err != nil {
				log.Error("http shutdown failed", logger.Err(err))
			}
			// container.Close drena el bus antes de cerrar el store.
			return nil
		},
	}
}
