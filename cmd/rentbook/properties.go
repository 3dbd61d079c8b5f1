package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/rentbook/internal/cli"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func propertiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "properties",
		Aliases: []string{"property", "props"},
		Short:   "Manage rental properties",
	}

	cmd.AddCommand(
		propertiesAddCmd(),
		propertiesListCmd(),
		propertiesShowCmd(),
		propertiesEditCmd(),
		propertiesDeleteCmd(),
	)
	return cmd
}

func addPropertyFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "property name")
	cmd.Flags().String("street", "", "street address")
	cmd.Flags().String("city", "", "city")
	cmd.Flags().String("state", "", "state or region")
	cmd.Flags().String("postal-code", "", "postal code")
	cmd.Flags().String("country", "", "country")
	cmd.Flags().String("description", "", "free text description")
	cmd.Flags().String("rent", "", "monthly rent amount")
	cmd.Flags().String("currency", "", "ISO currency code (default: report.currency)")
	cmd.Flags().String("status", "", "available, occupied or maintenance")
	cmd.Flags().Int("bedrooms", 0, "number of bedrooms")
}

// applyPropertyFlags copies the flags that were set onto p.
func applyPropertyFlags(cmd *cobra.Command, p *model.Property) error {
	flags := cmd.Flags()
	strs := map[string]*string{
		"name":        &p.Name,
		"street":      &p.Address.Street,
		"city":        &p.Address.City,
		"state":       &p.Address.State,
		"postal-code": &p.Address.PostalCode,
		"country":     &p.Address.Country,
		"description": &p.Description,
		"currency":    &p.Currency,
	}
	for name, dst := range strs {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	p.Currency = strings.ToUpper(p.Currency)

	if flags.Changed("rent") {
		s, _ := flags.GetString("rent")
		rent, err := parseMoney(s)
		if err != nil {
			return err
		}
		p.RentAmount = rent
	}
	if flags.Changed("status") {
		s, _ := flags.GetString("status")
		p.Status = model.PropertyStatus(strings.ToLower(s))
	}
	if flags.Changed("bedrooms") {
		p.Bedrooms, _ = flags.GetInt("bedrooms")
	}
	return nil
}

func propertiesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a property",
		Example: `  rentbook properties add --name "Elm Street" --street "12 Elm St" --city Springfield --rent 1450
  rentbook properties add --name Loft --city Berlin --rent 900 --currency EUR --status occupied`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			p := &model.Property{
				Currency:   a.cfg.Currency,
				Status:     model.PropertyAvailable,
				RentAmount: decimal.Zero,
			}
			if err := applyPropertyFlags(cmd, p); err != nil {
				return err
			}

			created, err := a.svc.Properties.Create(ctx, p)
			if err != nil {
				return err
			}
			printCreated(cmd, "property", created.Name, created.ID)
			return nil
		},
	}
	addPropertyFlags(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("city")
	return cmd
}

func propertiesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List properties",
		Long: `List properties, optionally narrowed by city, rent range, or a text search
over name, description, and street.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			city, _ := cmd.Flags().GetString("city")
			search, _ := cmd.Flags().GetString("search")
			minStr, _ := cmd.Flags().GetString("min-rent")
			maxStr, _ := cmd.Flags().GetString("max-rent")

			var props []model.Property
			switch {
			case city != "":
				props, err = a.svc.Properties.ByCity(ctx, city)
			case search != "":
				props, err = a.svc.Properties.Search(ctx, search)
			case minStr != "" || maxStr != "":
				minRent, maxRent := decimal.Zero, decimal.New(1, 12)
				if minStr != "" {
					if minRent, err = parseMoney(minStr); err != nil {
						return err
					}
				}
				if maxStr != "" {
					if maxRent, err = parseMoney(maxStr); err != nil {
						return err
					}
				}
				props, err = a.svc.Properties.ByRentRange(ctx, minRent, maxRent)
			default:
				props, err = a.svc.Properties.List(ctx)
			}
			if err != nil {
				return err
			}

			if len(props) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No properties found"))
				return nil
			}

			rows := make([][]string, 0, len(props))
			for _, p := range props {
				rows = append(rows, []string{
					p.ID, p.Name, p.Address.City, string(p.Status),
					p.RentAmount.StringFixed(2) + " " + p.Currency,
				})
			}
			return cli.RenderTable(cmd.OutOrStdout(), []string{"ID", "NAME", "CITY", "STATUS", "RENT"}, rows)
		},
	}
	cmd.Flags().String("city", "", "only properties in this city")
	cmd.Flags().String("search", "", "text to search for")
	cmd.Flags().String("min-rent", "", "minimum rent")
	cmd.Flags().String("max-rent", "", "maximum rent")
	return cmd
}

func propertiesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.svc.Properties.Get(ctx, args[0])
			if p, err = found(p, err, "property", args[0]); err != nil {
				return err
			}

			var b strings.Builder
			fmt.Fprintf(&b, "ID:        %s\n", p.ID)
			fmt.Fprintf(&b, "Address:   %s\n", p.Address.String())
			fmt.Fprintf(&b, "Rent:      %s %s\n", p.RentAmount.StringFixed(2), p.Currency)
			fmt.Fprintf(&b, "Status:    %s\n", p.Status)
			if p.Bedrooms > 0 {
				fmt.Fprintf(&b, "Bedrooms:  %d\n", p.Bedrooms)
			}
			if p.Description != "" {
				fmt.Fprintf(&b, "Notes:     %s\n", p.Description)
			}
			fmt.Fprintf(&b, "Files:     %d\n", len(p.AttachmentIDs))
			fmt.Fprintf(&b, "Version:   %d", p.Version)

			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(p.Name, b.String()))
			return nil
		},
	}
}

func propertiesEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a property",
		Long: `Edit a property. Only the flags given are changed. Pass --version to
fail instead of overwriting when someone else changed the property first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			current, err := a.svc.Properties.Get(ctx, args[0])
			if current, err = found(current, err, "property", args[0]); err != nil {
				return err
			}

			in := *current
			if err := applyPropertyFlags(cmd, &in); err != nil {
				return err
			}
			in.Version, _ = cmd.Flags().GetInt64("version")

			updated, err := a.svc.Properties.Update(ctx, args[0], &in)
			if err != nil {
				return err
			}
			printUpdated(cmd, "property", updated.Name, updated.Version)
			return nil
		},
	}
	addPropertyFlags(cmd)
	cmd.Flags().Int64("version", 0, "expected version (default: current)")
	return cmd
}

func propertiesDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a property",
		Long:  `Delete a property. Its payments, transactions, and files are kept.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ok, err := confirm(cmd, fmt.Sprintf("Delete property %s?", args[0]))
			if err != nil || !ok {
				return err
			}

			if err := a.svc.Properties.Delete(ctx, args[0]); err != nil {
				return err
			}
			printDeleted(cmd, "property", args[0])
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return cmd
}
