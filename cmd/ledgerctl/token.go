package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/pharma-ledger/pkg/jwt"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Emite un JWT para un usuario",
	Example: `  ledgerctl token 6f1c... --role admin --minutes 30`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		minutes, _ := cmd.Flags().GetInt("minutes")
		switch role {
		case jwt.RoleAdmin, jwt.RoleSeller, jwt.RolePharmacy:
		default:
			return fmt.Errorf("rol desconocido %q", role)
		}

		e, err := loadEnv()
		if err != nil {
			return err
		}
		if e.cfg.JWT.Secret == "" {
			return fmt.Errorf("JWT_SECRET es requerido")
		}
		if minutes <= 0 {
			minutes = e.cfg.JWT.Expiration
		}
		tok, err := jwt.Generate(e.cfg.JWT.Secret, args[0], role, e.cfg.JWT.Issuer, minutes)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("role", jwt.RoleAdmin, "Rol: admin, seller o pharmacy")
	tokenCmd.Flags().Int("minutes", 0, "Vigencia en minutos (0 usa JWT_EXPIRATION_MINUTES)")
}
