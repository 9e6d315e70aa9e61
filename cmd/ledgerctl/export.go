package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
)

var exportCmd = &cobra.Command{
	Use:   "export-deleted",
	Short: "Exporta la bitácora de ítems eliminados a un archivo .xlsx",
	Example: `  ledgerctl export-deleted --out bitacora.xlsx
  ledgerctl export-deleted --from 2025-01-01 --to 2025-01-31 --invoice <id>`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("out", "bitacora.xlsx", "Archivo de salida")
	exportCmd.Flags().String("invoice", "", "Filtra por factura")
	exportCmd.Flags().String("from", "", "Desde (YYYY-MM-DD)")
	exportCmd.Flags().String("to", "", "Hasta (YYYY-MM-DD, inclusive)")
}

func runExport(cmd *cobra.Command, _ []string) error {
	outPath, _ := cmd.Flags().GetString("out")
	invoiceID, _ := cmd.Flags().GetString("invoice")
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")

	q := dto.DeletedItemQuery{InvoiceID: invoiceID}
	if fromStr != "" {
		t, err := time.Parse(time.DateOnly, fromStr)
		if err != nil {
			return fmt.Errorf("--from inválido: %w", err)
		}
		q.From = &t
	}
	if toStr != "" {
		t, err := time.Parse(time.DateOnly, toStr)
		if err != nil {
			return fmt.Errorf("--to inválido: %w", err)
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		q.To = &end
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	c, closeFn, err := e.container(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	n, err := c.Audit.Export(cmd.Context(), f, q)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d filas exportadas a %s\n", n, outPath)
	return nil
}
