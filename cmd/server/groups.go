package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/social-blog-api/internal/models"
	"github.com/social-blog-api/internal/repository"
	"github.com/social-blog-api/internal/service"
	"github.com/social-blog-api/internal/storage"
)

// withServices wires the service layer over a fresh connection for one command
func withServices(fn func(services *service.Services) error) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := storage.New(&cfg.Storage, log)
	if err != nil {
		return err
	}

	return fn(service.NewServices(repository.New(db), store, cfg, log))
}

func newGroupsCmd() *cobra.Command {
	groupsCmd := &cobra.Command{
		Use:   "groups",
		Short: "Manage groups",
	}

	var input models.GroupInput
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(services *service.Services) error {
				group, err := services.Group.Create(cmd.Context(), service.SystemActor, &input)
				if err != nil {
					return err
				}
				color.New(color.FgGreen, color.Bold).Fprintf(cmd.OutOrStdout(), "Created group %s (%s)\n", group.Title, group.Slug)
				return nil
			})
		},
	}
	createCmd.Flags().StringVar(&input.Title, "title", "", "group title")
	createCmd.Flags().StringVar(&input.Slug, "slug", "", "URL slug, derived from the title when empty")
	createCmd.Flags().StringVar(&input.Description, "description", "", "group description")
	_ = createCmd.MarkFlagRequired("title")

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List groups",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(services *service.Services) error {
				groups, err := services.Group.List(cmd.Context())
				if err != nil {
					return err
				}
				renderGroups(cmd.OutOrStdout(), groups)
				return nil
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a group; its posts stay published without a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(func(services *service.Services) error {
				if err := services.Group.Delete(cmd.Context(), service.SystemActor, args[0]); err != nil {
					return err
				}
				color.New(color.FgGreen, color.Bold).Fprintf(cmd.OutOrStdout(), "Deleted group %s\n", args[0])
				return nil
			})
		},
	}

	groupsCmd.AddCommand(createCmd, listCmd, deleteCmd)
	return groupsCmd
}

func renderGroups(w io.Writer, groups []*models.Group) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No groups yet")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Slug", "Title", "Description"})
	table.SetAutoWrapText(false)
	for _, g := range groups {
		table.Rich([]string{strconv.FormatInt(g.ID, 10), g.Slug, g.Title, g.Description}, []tablewriter.Colors{
			{tablewriter.FgHiGreenColor, tablewriter.Bold},
			{tablewriter.FgHiCyanColor},
			{},
			{},
		})
	}
	table.Render()
}
