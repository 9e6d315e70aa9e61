package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/pharma-ledger/internal/infrastructure/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Aplica las migraciones pendientes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		if !e.cfg.DB.Enabled() {
			return fmt.Errorf("se requiere DATABASE_URL o DB_HOST")
		}
		pool, err := postgres.NewPool(cmd.Context(), e.cfg.DB)
		if err != nil {
			return err
		}
		defer pool.Close()

		applied, err := postgres.RunMigrations(cmd.Context(), pool)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "sin migraciones pendientes")
			return nil
		}
		for _, v := range applied {
			fmt.Fprintln(cmd.OutOrStdout(), "aplicada:", v)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
