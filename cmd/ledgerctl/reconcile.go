package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Verifica totales de facturas, mejor oferta por producto y saldos",
	Long: `Recorre los datos guardados y reporta:
  - facturas cuyos totales no coinciden con sus ítems
  - productos sin exactamente una oferta marcada como mejor
  - cuentas cuyo saldo difiere de la suma de sus asientos

Termina con código 1 si encuentra inconsistencias.`,
	Example: `  ledgerctl reconcile
  ledgerctl reconcile --json`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().Bool("json", false, "Imprime el reporte completo en JSON")
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	e, err := loadEnv()
	if err != nil {
		return err
	}
	c, closeFn, err := e.container(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	rep, err := c.Checker.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "facturas: %d  productos: %d  cuentas: %d\n", rep.Invoices, rep.Products, rep.Accounts)
		for _, is := range rep.Issues {
			fmt.Fprintf(out, "[%s] %s: %s\n", is.Kind, is.ID, is.Message)
		}
	}

	e.log.Info().Int("issues", len(rep.Issues)).Msg("verificación terminada")
	if !rep.OK() {
		return fmt.Errorf("%d inconsistencias", len(rep.Issues))
	}
	return nil
}
