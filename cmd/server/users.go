package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/social-blog-api/internal/models"
	"github.com/social-blog-api/internal/service"
)

func newUsersCmd() *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	setRole := func(role, verb string) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return withServices(func(services *service.Services) error {
				if err := services.Auth.SetRole(cmd.Context(), args[0], role); err != nil {
					return err
				}
				color.New(color.FgGreen, color.Bold).Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, args[0])
				return nil
			})
		}
	}

	usersCmd.AddCommand(&cobra.Command{
		Use:   "promote <username>",
		Short: "Grant administrator rights",
		Args:  cobra.ExactArgs(1),
		RunE:  setRole(models.RoleAdmin, "Promoted"),
	})
	usersCmd.AddCommand(&cobra.Command{
		Use:   "demote <username>",
		Short: "Revoke administrator rights",
		Args:  cobra.ExactArgs(1),
		RunE:  setRole(models.RoleUser, "Demoted"),
	})

	return usersCmd
}
