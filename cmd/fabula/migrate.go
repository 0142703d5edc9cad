package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	migrations "github.com/dropDatabas3/fabula/migrations/postgres"
)

// migrateCmd aplica las migraciones embebidas: `fabula migrate up` / `down`.
func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Aplica las migraciones de esquema",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigAndLogger()
			if err != nil {
				return err
			}

			action := "up"
			if len(args) == 1 {
				action = strings.ToLower(args[0])
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
			if err != nil {
				return fmt.Errorf("pgxpool: %w", err)
			}
			defer pool.Close()

			files, err := listSQL(action)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println("no migrations to apply")
				return nil
			}

			for _, f := range files {
				sql, err := migrations.FS.ReadFile(f)
				if err != nil {
					return fmt.Errorf("read %s: %w", f, err)
				}
				if _, err := pool.Exec(ctx, string(sql)); err != nil {
					return fmt.Errorf("exec %s: %w", f, err)
				}
				fmt.Printf("applied %s\n", f)
			}
			return nil
		},
	}
}

// listSQL lista las migraciones embebidas para la acción dada.
// Up asciende; down desciende (se deshace en orden inverso).
func listSQL(action string) ([]string, error) {
	suffix := "_" + action + ".sql"
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	if action == "down" {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}
