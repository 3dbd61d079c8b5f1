package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/rentbook/internal/cli"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/Veraticus/rentbook/internal/service"
	"github.com/spf13/cobra"
)

func paymentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "payments",
		Aliases: []string{"payment", "rent"},
		Short:   "Record and review rent payments",
	}

	cmd.AddCommand(
		paymentsAddCmd(),
		paymentsListCmd(),
		paymentsEditCmd(),
		paymentsDeleteCmd(),
	)
	return cmd
}

func addPaymentFlags(cmd *cobra.Command) {
	cmd.Flags().String("property", "", "property id")
	cmd.Flags().String("date", "", "payment date YYYY-MM-DD")
	cmd.Flags().String("amount", "", "amount received")
	cmd.Flags().String("currency", "", "ISO currency code (default: the property's)")
	cmd.Flags().String("method", "", "payment method id or name")
	cmd.Flags().String("reference", "", "bank or receipt reference")
	cmd.Flags().String("notes", "", "free text notes")
}

// applyPaymentFlags copies the flags that were set onto p.
func applyPaymentFlags(cmd *cobra.Command, a *app, p *model.Payment) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	if flags.Changed("property") {
		p.PropertyID, _ = flags.GetString("property")
	}
	if flags.Changed("date") {
		s, _ := flags.GetString("date")
		d, err := parseDate(s)
		if err != nil {
			return err
		}
		p.Date = d
	}
	if flags.Changed("amount") {
		s, _ := flags.GetString("amount")
		amount, err := parseMoney(s)
		if err != nil {
			return err
		}
		p.Amount = amount
	}
	if flags.Changed("currency") {
		s, _ := flags.GetString("currency")
		p.Currency = strings.ToUpper(s)
	}
	if flags.Changed("method") {
		ref, _ := flags.GetString("method")
		id, err := paymentMethodID(ctx, a.svc, ref)
		if err != nil {
			return err
		}
		p.PaymentMethodID = id
	}
	if flags.Changed("reference") {
		p.Reference, _ = flags.GetString("reference")
	}
	if flags.Changed("notes") {
		p.Notes, _ = flags.GetString("notes")
	}
	return nil
}

func paymentsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Record a rent payment",
		Example: `  rentbook payments add --property 6f1c... --date 2024-03-01 --amount 1450 --method "Bank transfer"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			cmd.SetContext(ctx)

			p := &model.Payment{}
			if err := applyPaymentFlags(cmd, a, p); err != nil {
				return err
			}
			if p.Currency == "" {
				prop, err := a.svc.Properties.Get(ctx, p.PropertyID)
				if err != nil {
					return err
				}
				p.Currency = a.cfg.Currency
				if prop != nil {
					p.Currency = prop.Currency
				}
			}

			created, err := a.svc.Payments.Create(ctx, p)
			if err != nil {
				return err
			}
			printCreated(cmd, "payment", created.Amount.StringFixed(2)+" "+created.Currency, created.ID)
			return nil
		},
	}
	addPaymentFlags(cmd)
	_ = cmd.MarkFlagRequired("property")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func paymentsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List payments",
		Long: `List payments, newest first. With --from or --to the list is limited to one
property's payments in that date range.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			propertyID, _ := cmd.Flags().GetString("property")
			incStr, _ := cmd.Flags().GetString("include")
			inc, err := service.ParseIncludes(incStr)
			if err != nil {
				return err
			}
			inc.PaymentMethod = true

			var payments []model.Payment
			switch {
			case cmd.Flags().Changed("from") || cmd.Flags().Changed("to"):
				if propertyID == "" {
					return fmt.Errorf("--property is required with a date range")
				}
				start, end, rerr := dateRange(cmd)
				if rerr != nil {
					return rerr
				}
				payments, err = a.svc.Payments.ListByDateRange(ctx, propertyID, start, end, inc)
			case propertyID != "":
				payments, err = a.svc.Payments.ListByProperty(ctx, propertyID, inc)
			default:
				payments, err = a.svc.Payments.List(ctx, inc)
			}
			if err != nil {
				return err
			}

			if len(payments) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No payments found"))
				return nil
			}

			headers := []string{"ID", "DATE", "PROPERTY", "AMOUNT", "METHOD", "REFERENCE"}
			if inc.Attachments {
				headers = append(headers, "FILES")
			}
			rows := make([][]string, 0, len(payments))
			for _, p := range payments {
				method := ""
				if p.PaymentMethod != nil {
					method = p.PaymentMethod.Name
				}
				row := []string{
					p.ID, formatDate(p.Date), p.PropertyID,
					p.Amount.StringFixed(2) + " " + p.Currency, method, p.Reference,
				}
				if inc.Attachments {
					row = append(row, attachmentNames(p.Attachments))
				}
				rows = append(rows, row)
			}
			return cli.RenderTable(cmd.OutOrStdout(), headers, rows)
		},
	}
	cmd.Flags().String("property", "", "only payments for this property")
	cmd.Flags().String("include", "", "references to resolve: attachments, paymentMethod, all")
	addRangeFlags(cmd)
	return cmd
}

func paymentsEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			cmd.SetContext(ctx)

			current, err := a.svc.Payments.Get(ctx, args[0], service.Includes{})
			if current, err = found(current, err, "payment", args[0]); err != nil {
				return err
			}

			in := *current
			if err := applyPaymentFlags(cmd, a, &in); err != nil {
				return err
			}
			in.Version, _ = cmd.Flags().GetInt64("version")

			updated, err := a.svc.Payments.Update(ctx, args[0], &in)
			if err != nil {
				return err
			}
			printUpdated(cmd, "payment", updated.ID, updated.Version)
			return nil
		},
	}
	addPaymentFlags(cmd)
	cmd.Flags().Int64("version", 0, "expected version (default: current)")
	return cmd
}

func paymentsDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ok, err := confirm(cmd, fmt.Sprintf("Delete payment %s?", args[0]))
			if err != nil || !ok {
				return err
			}

			if err := a.svc.Payments.Delete(ctx, args[0]); err != nil {
				return err
			}
			printDeleted(cmd, "payment", args[0])
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return cmd
}

func attachmentNames(atts []model.Attachment) string {
	names := make([]string, 0, len(atts))
	for _, a := range atts {
		names = append(names, a.FileName)
	}
	return strings.Join(names, ", ")
}
