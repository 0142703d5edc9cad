package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/fabula/internal/jobs/decay"
	"github.com/dropDatabas3/fabula/internal/observability/logger"
	"github.com/dropDatabas3/fabula/internal/store/adapters/pg"
)

// decayCmd corre el decay una sola vez y termina. Pensado para dispararlo a
// mano o desde un cron externo, sin levantar el servidor.
func decayCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "decay",
		Short: "Corre el decay de stats de mascotas una vez",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigAndLogger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			store, err := pg.New(ctx, cfg.Storage.DSN, pg.Options{
				MaxConns: cfg.Storage.Postgres.MaxConns,
			})
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			job := decay.New(store, cfg.Jobs.Decay.Workers, cfg.Jobs.Decay.PageSize)
			rep, err := job.Run(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("decay: %d accounts (%d failed), %d children updated in %s\n",
				rep.Accounts, rep.AccountsFailed, rep.ChildrenUpdated, rep.Elapsed.Round(time.Millisecond))
			if rep.AccountsFailed > 0 {
				return fmt.Errorf("decay finished with %d failed accounts", rep.AccountsFailed)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "límite de tiempo de la corrida")
	return cmd
}
