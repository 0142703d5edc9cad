package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/fabula/internal/config"
	"github.com/dropDatabas3/fabula/internal/observability/logger"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "fabula",
		Short: "Fabula backend: identity bridge y jobs de mantenimiento",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env opcional, para dev local.
			_ = godotenv.Load()
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "ruta del YAML de configuración")

	root.AddCommand(serveCmd(), decayCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfigAndLogger carga config e inicializa el logger global.
func loadConfigAndLogger() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       os.Getenv("LOG_LEVEL"),
		ServiceName: "fabula",
	})
	return cfg, nil
}
