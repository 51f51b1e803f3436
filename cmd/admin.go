package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/band-gallery/internal/config"
	"github.com/kozaktomas/band-gallery/internal/web/middleware"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Admin API helpers",
}

var adminTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an admin bearer token signed with ADMIN_JWT_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := config.Load().Auth.AdminJWTSecret
		if secret == "" {
			return errors.New("ADMIN_JWT_SECRET environment variable is required")
		}
		token, err := middleware.NewAdminToken(secret, mustGetString(cmd, "subject"), mustGetDuration(cmd, "ttl"))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminTokenCmd)

	adminTokenCmd.Flags().String("subject", "admin", "Subject recorded in the token")
	adminTokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
}
