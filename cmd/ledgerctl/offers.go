package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute-max [product-id]",
	Short: "Recalcula la mejor oferta de un producto o de todos",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		c, closeFn, err := e.container(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		if len(args) == 1 {
			if err := c.Offers.RecomputeMax(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "recalculado:", args[0])
			return nil
		}
		n, err := c.Offers.RecomputeAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "productos recalculados: %d\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recomputeCmd)
}
