package main

import (
	"fmt"

	"github.com/Veraticus/rentbook/internal/cli"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage income and expense categories",
		Long: `List, add, update, and delete the categories transactions are booked under.

Your own categories live next to the shared system defaults. Admins manage the
defaults with --system.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(updateCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())
	cmd.AddCommand(seedCategoriesCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			typeStr, _ := cmd.Flags().GetString("type")
			ownOnly, _ := cmd.Flags().GetBool("own")
			all, _ := cmd.Flags().GetBool("all-tenants")

			var categories []model.Category
			switch {
			case all:
				categories, err = a.svc.Categories.ListAll(ctx)
			case typeStr != "":
				t, terr := model.ParseTransactionType(typeStr)
				if terr != nil {
					return terr
				}
				categories, err = a.svc.Categories.ByType(ctx, t)
			default:
				categories, err = a.svc.Categories.List(ctx, !ownOnly)
			}
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			if len(categories) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No categories found. Use 'rentbook categories add' to create one."))
				return nil
			}

			rows := make([][]string, 0, len(categories))
			for _, c := range categories {
				owner := ownerLabel(c.TenantID)
				if all {
					owner = c.TenantID
				}
				rows = append(rows, []string{c.ID, c.Name, string(c.Type), owner, c.Description})
			}
			return cli.RenderTable(cmd.OutOrStdout(), []string{"ID", "NAME", "TYPE", "OWNER", "DESCRIPTION"}, rows)
		},
	}
	cmd.Flags().String("type", "", "only income or expense categories")
	cmd.Flags().Bool("own", false, "hide the system defaults")
	cmd.Flags().Bool("all-tenants", false, "list every tenant's categories (admin)")
	return cmd
}

func addCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			typeStr, _ := cmd.Flags().GetString("type")
			t, err := model.ParseTransactionType(typeStr)
			if err != nil {
				return err
			}
			description, _ := cmd.Flags().GetString("description")

			created, err := a.svc.Categories.Create(ctx, ownerFlag(cmd), &model.Category{
				Name:        args[0],
				Type:        t,
				Description: description,
			})
			if err != nil {
				return err
			}
			printCreated(cmd, "category", created.Name, created.ID)
			return nil
		},
	}
	cmd.Flags().String("type", string(model.TransactionExpense), "income or expense")
	cmd.Flags().String("description", "", "what belongs in this category")
	cmd.Flags().Bool("system", false, "create a shared default (admin)")
	return cmd
}

func updateCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id|name>",
		Short: "Update a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			current, err := resolveCategory(ctx, a.svc, args[0])
			if current, err = found(current, err, "category", args[0]); err != nil {
				return err
			}

			in := *current
			flags := cmd.Flags()
			if flags.Changed("name") {
				in.Name, _ = flags.GetString("name")
			}
			if flags.Changed("description") {
				in.Description, _ = flags.GetString("description")
			}
			if flags.Changed("type") {
				s, _ := flags.GetString("type")
				if in.Type, err = model.ParseTransactionType(s); err != nil {
					return err
				}
			}
			in.Version, _ = flags.GetInt64("version")

			updated, err := a.svc.Categories.Update(ctx, ownerFlag(cmd), current.ID, &in)
			if err != nil {
				return err
			}
			printUpdated(cmd, "category", updated.Name, updated.Version)
			return nil
		},
	}
	cmd.Flags().String("name", "", "new name")
	cmd.Flags().String("description", "", "new description")
	cmd.Flags().String("type", "", "income or expense")
	cmd.Flags().Int64("version", 0, "expected version (default: current)")
	cmd.Flags().Bool("system", false, "update a shared default (admin)")
	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete a category",
		Long:  `Delete one of your categories. Categories that transactions use cannot be deleted.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := resolveCategory(ctx, a.svc, args[0])
			if c, err = found(c, err, "category", args[0]); err != nil {
				return err
			}

			ok, err := confirm(cmd, fmt.Sprintf("Delete category %s?", c.Name))
			if err != nil || !ok {
				return err
			}

			if err := a.svc.Categories.Delete(ctx, ownerFlag(cmd), c.ID); err != nil {
				return err
			}
			printDeleted(cmd, "category", c.Name)
			return nil
		},
	}
	cmd.Flags().Bool("system", false, "delete a shared default (admin)")
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return cmd
}

func seedCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default categories and payment methods (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			categories, err := a.svc.Categories.SeedDefaults(ctx)
			if err != nil {
				return err
			}
			methods, err := a.svc.PaymentMethods.SeedDefaults(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Seeded %d categories and %d payment methods", categories, methods)))
			return nil
		},
	}
}
