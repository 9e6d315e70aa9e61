package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/pharma-ledger/internal/app"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/pharma-ledger/pkg/config"
	"github.com/jhoicas/pharma-ledger/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Tareas de mantenimiento de pharma-ledger",
	Long: `ledgerctl agrupa las tareas operativas que no pasan por la API:
migraciones, verificación de consistencia, recálculo de la mejor oferta,
exportación de la bitácora y emisión de tokens de servicio.

Lee la misma configuración que el servidor (variables de entorno o .env).`,
	SilenceUsage: true,
}

// Execute corre el comando raíz.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// env configuración y logger compartidos por los subcomandos.
type env struct {
	cfg *config.Config
	log *logger.Logger
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	return &env{cfg: cfg, log: log.WithComponent("ledgerctl")}, nil
}

// container abre PostgreSQL y arma los casos de uso. close libera el pool.
func (e *env) container(ctx context.Context) (c *app.Container, closeFn func(), err error) {
	if !e.cfg.DB.Enabled() {
		return nil, nil, fmt.Errorf("se requiere DATABASE_URL o DB_HOST")
	}
	pool, err := postgres.NewPool(ctx, e.cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	c = app.New(app.PostgresBackend(pool), app.Options{
		Ledger: e.cfg.Ledger,
		Issuer: e.cfg.App.Name,
		Log:    e.log,
	})
	return c, pool.Close, nil
}
