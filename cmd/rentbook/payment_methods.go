package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/rentbook/internal/cli"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/spf13/cobra"
)

func paymentMethodsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "payment-methods",
		Aliases: []string{"methods"},
		Short:   "Manage payment methods",
	}

	cmd.AddCommand(listPaymentMethodsCmd())
	cmd.AddCommand(addPaymentMethodCmd())
	cmd.AddCommand(updatePaymentMethodCmd())
	cmd.AddCommand(deletePaymentMethodCmd())

	return cmd
}

func listPaymentMethodsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List payment methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ownOnly, _ := cmd.Flags().GetBool("own")
			all, _ := cmd.Flags().GetBool("all-tenants")

			var methods []model.PaymentMethod
			if all {
				methods, err = a.svc.PaymentMethods.ListAll(ctx)
			} else {
				methods, err = a.svc.PaymentMethods.List(ctx, !ownOnly)
			}
			if err != nil {
				return fmt.Errorf("failed to get payment methods: %w", err)
			}

			if len(methods) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No payment methods found"))
				return nil
			}

			rows := make([][]string, 0, len(methods))
			for _, m := range methods {
				owner := ownerLabel(m.TenantID)
				if all {
					owner = m.TenantID
				}
				rows = append(rows, []string{m.ID, m.Name, string(m.Kind), owner, m.Details})
			}
			return cli.RenderTable(cmd.OutOrStdout(), []string{"ID", "NAME", "KIND", "OWNER", "DETAILS"}, rows)
		},
	}
	cmd.Flags().Bool("own", false, "hide the system defaults")
	cmd.Flags().Bool("all-tenants", false, "list every tenant's payment methods (admin)")
	return cmd
}

func addPaymentMethodCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add <name>",
		Short:   "Add a payment method",
		Example: `  rentbook payment-methods add "Joint account" --kind bank_transfer --details "IBAN ending 4411"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			kind, _ := cmd.Flags().GetString("kind")
			details, _ := cmd.Flags().GetString("details")

			created, err := a.svc.PaymentMethods.Create(ctx, ownerFlag(cmd), &model.PaymentMethod{
				Name:    args[0],
				Kind:    model.PaymentMethodKind(strings.ToLower(kind)),
				Details: details,
			})
			if err != nil {
				return err
			}
			printCreated(cmd, "payment method", created.Name, created.ID)
			return nil
		},
	}
	cmd.Flags().String("kind", string(model.MethodBankTransfer), "cash, bank_transfer, card, check or other")
	cmd.Flags().String("details", "", "account or card details")
	cmd.Flags().Bool("system", false, "create a shared default (admin)")
	return cmd
}

func updatePaymentMethodCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id|name>",
		Short: "Update a payment method",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			current, err := resolvePaymentMethod(ctx, a.svc, args[0])
			if current, err = found(current, err, "payment method", args[0]); err != nil {
				return err
			}

			in := *current
			flags := cmd.Flags()
			if flags.Changed("name") {
				in.Name, _ = flags.GetString("name")
			}
			if flags.Changed("kind") {
				s, _ := flags.GetString("kind")
				in.Kind = model.PaymentMethodKind(strings.ToLower(s))
			}
			if flags.Changed("details") {
				in.Details, _ = flags.GetString("details")
			}
			in.Version, _ = flags.GetInt64("version")

			updated, err := a.svc.PaymentMethods.Update(ctx, ownerFlag(cmd), current.ID, &in)
			if err != nil {
				return err
			}
			printUpdated(cmd, "payment method", updated.Name, updated.Version)
			return nil
		},
	}
	cmd.Flags().String("name", "", "new name")
	cmd.Flags().String("kind", "", "cash, bank_transfer, card, check or other")
	cmd.Flags().String("details", "", "account or card details")
	cmd.Flags().Int64("version", 0, "expected version (default: current)")
	cmd.Flags().Bool("system", false, "update a shared default (admin)")
	return cmd
}

func deletePaymentMethodCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete a payment method",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := resolvePaymentMethod(ctx, a.svc, args[0])
			if m, err = found(m, err, "payment method", args[0]); err != nil {
				return err
			}

			ok, err := confirm(cmd, fmt.Sprintf("Delete payment method %s?", m.Name))
			if err != nil || !ok {
				return err
			}

			if err := a.svc.PaymentMethods.Delete(ctx, ownerFlag(cmd), m.ID); err != nil {
				return err
			}
			printDeleted(cmd, "payment method", m.Name)
			return nil
		},
	}
	cmd.Flags().Bool("system", false, "delete a shared default (admin)")
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return cmd
}
