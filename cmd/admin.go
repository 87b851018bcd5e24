/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/motorpool/apiserver/config"
	"github.com/motorpool/apiserver/internal/auth"
	"github.com/motorpool/apiserver/internal/db"
	"github.com/motorpool/apiserver/internal/logging"
	"github.com/motorpool/apiserver/internal/services"
	"github.com/motorpool/apiserver/internal/store"
	"github.com/motorpool/apiserver/types"
	"github.com/spf13/cobra"
)

// adminCmd groups administrator account maintenance.
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage administrator accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an administrator account",
	Long: `Creates an active Admin account directly in the database. Use it to
bootstrap the first administrator; later ones can be added through
POST /api/auth/admin/register.

	motorpool admin create --name "Root" --email root@example.com --password '...'
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if email == "" || password == "" {
			return errors.New("--email and --password are required")
		}

		cfg := config.LoadConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}
		log := logging.New(cfg.Log)

		tokens, err := auth.NewTokenService(cfg.JWT)
		if err != nil {
			return err
		}
		conn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer conn.Close()

		pipeline := services.NewAuthService(
			store.NewUserRepository(conn),
			auth.NewBcryptHasher(auth.MinPasswordCost),
			tokens,
			nil,
			log,
		)
		res := pipeline.Register(cmd.Context(), services.RegisterInput{
			Name:     name,
			Email:    email,
			Password: password,
		}, types.RoleAdmin)
		if !res.Success {
			if res.Err != nil {
				return fmt.Errorf("%s: %w", res.Message, res.Err)
			}
			return errors.New(res.Message)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created admin %d <%s>\n", res.Data.ID, res.Data.Email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminCreateCmd)

	adminCreateCmd.Flags().String("name", "Administrator", "display name")
	adminCreateCmd.Flags().String("email", "", "login e-mail")
	adminCreateCmd.Flags().String("password", "", "initial password")
}
