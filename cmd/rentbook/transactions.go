package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/rentbook/internal/cli"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/Veraticus/rentbook/internal/ofx"
	"github.com/Veraticus/rentbook/internal/service"
	"github.com/spf13/cobra"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"transaction", "tx"},
		Short:   "Record income and expenses",
	}

	cmd.AddCommand(
		transactionsAddCmd(),
		transactionsListCmd(),
		transactionsEditCmd(),
		transactionsDeleteCmd(),
		transactionsImportCmd(),
	)
	return cmd
}

func addTransactionFlags(cmd *cobra.Command) {
	cmd.Flags().String("property", "", "property id")
	cmd.Flags().String("type", "", "income or expense (default: the category's type)")
	cmd.Flags().String("category", "", "category id or name")
	cmd.Flags().String("date", "", "transaction date YYYY-MM-DD")
	cmd.Flags().String("amount", "", "amount, always positive")
	cmd.Flags().String("currency", "", "ISO currency code (default: the property's)")
	cmd.Flags().String("method", "", "payment method id or name")
	cmd.Flags().String("description", "", "what the money was for")
}

// applyTransactionFlags copies the flags that were set onto t.
func applyTransactionFlags(cmd *cobra.Command, a *app, t *model.Transaction) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	if flags.Changed("property") {
		t.PropertyID, _ = flags.GetString("property")
	}
	if flags.Changed("category") {
		ref, _ := flags.GetString("category")
		c, err := resolveCategory(ctx, a.svc, ref)
		if err != nil {
			return err
		}
		t.CategoryID = ""
		if c != nil {
			t.CategoryID = c.ID
			if !flags.Changed("type") {
				t.Type = c.Type
			}
		}
	}
	if flags.Changed("type") {
		s, _ := flags.GetString("type")
		tt, err := model.ParseTransactionType(s)
		if err != nil {
			return err
		}
		t.Type = tt
	}
	if flags.Changed("date") {
		s, _ := flags.GetString("date")
		d, err := parseDate(s)
		if err != nil {
			return err
		}
		t.Date = d
	}
	if flags.Changed("amount") {
		s, _ := flags.GetString("amount")
		amount, err := parseMoney(s)
		if err != nil {
			return err
		}
		t.Amount = amount
	}
	if flags.Changed("currency") {
		s, _ := flags.GetString("currency")
		t.Currency = strings.ToUpper(s)
	}
	if flags.Changed("method") {
		ref, _ := flags.GetString("method")
		id, err := paymentMethodID(ctx, a.svc, ref)
		if err != nil {
			return err
		}
		t.PaymentMethodID = id
	}
	if flags.Changed("description") {
		t.Description, _ = flags.GetString("description")
	}
	return nil
}

func transactionsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an income or expense",
		Example: `  rentbook transactions add --property 6f1c... --category Repairs --date 2024-03-04 --amount 180 --description "Boiler service"
  rentbook transactions add --property 6f1c... --category "Laundry income" --type income --date 2024-03-31 --amount 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			cmd.SetContext(ctx)

			t := &model.Transaction{}
			if err := applyTransactionFlags(cmd, a, t); err != nil {
				return err
			}
			if t.Currency == "" {
				prop, err := a.svc.Properties.Get(ctx, t.PropertyID)
				if err != nil {
					return err
				}
				t.Currency = a.cfg.Currency
				if prop != nil {
					t.Currency = prop.Currency
				}
			}

			created, err := a.svc.Transactions.Create(ctx, t)
			if err != nil {
				return err
			}
			printCreated(cmd, string(created.Type), created.Amount.StringFixed(2)+" "+created.Currency, created.ID)
			return nil
		},
	}
	addTransactionFlags(cmd)
	_ = cmd.MarkFlagRequired("property")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func transactionsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			propertyID, _ := cmd.Flags().GetString("property")
			categoryRef, _ := cmd.Flags().GetString("category")
			incStr, _ := cmd.Flags().GetString("include")
			inc, err := service.ParseIncludes(incStr)
			if err != nil {
				return err
			}
			inc.Category = true

			var txns []model.Transaction
			switch {
			case cmd.Flags().Changed("from") || cmd.Flags().Changed("to"):
				if propertyID == "" {
					return fmt.Errorf("--property is required with a date range")
				}
				start, end, rerr := dateRange(cmd)
				if rerr != nil {
					return rerr
				}
				txns, err = a.svc.Transactions.ListByDateRange(ctx, propertyID, start, end, inc)
			case categoryRef != "":
				id, cerr := categoryID(ctx, a.svc, categoryRef)
				if cerr != nil {
					return cerr
				}
				txns, err = a.svc.Transactions.ListByCategory(ctx, id, inc)
			case propertyID != "":
				txns, err = a.svc.Transactions.ListByProperty(ctx, propertyID, inc)
			default:
				txns, err = a.svc.Transactions.List(ctx, inc)
			}
			if err != nil {
				return err
			}

			if len(txns) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No transactions found"))
				return nil
			}

			headers := []string{"ID", "DATE", "TYPE", "CATEGORY", "AMOUNT", "DESCRIPTION"}
			if inc.Attachments {
				headers = append(headers, "FILES")
			}
			rows := make([][]string, 0, len(txns))
			for _, t := range txns {
				category := t.CategoryID
				if t.Category != nil {
					category = t.Category.Name
				}
				row := []string{
					t.ID, formatDate(t.Date), string(t.Type), category,
					cli.FormatAmount(t.Signed(), t.Currency), t.Description,
				}
				if inc.Attachments {
					row = append(row, attachmentNames(t.Attachments))
				}
				rows = append(rows, row)
			}
			return cli.RenderTable(cmd.OutOrStdout(), headers, rows)
		},
	}
	cmd.Flags().String("property", "", "only transactions for this property")
	cmd.Flags().String("category", "", "only transactions in this category (id or name)")
	cmd.Flags().String("include", "", "references to resolve: attachments, paymentMethod, all")
	addRangeFlags(cmd)
	return cmd
}

func transactionsEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			cmd.SetContext(ctx)

			current, err := a.svc.Transactions.Get(ctx, args[0], service.Includes{})
			if current, err = found(current, err, "transaction", args[0]); err != nil {
				return err
			}

			in := *current
			if err := applyTransactionFlags(cmd, a, &in); err != nil {
				return err
			}
			in.Version, _ = cmd.Flags().GetInt64("version")

			updated, err := a.svc.Transactions.Update(ctx, args[0], &in)
			if err != nil {
				return err
			}
			printUpdated(cmd, "transaction", updated.ID, updated.Version)
			return nil
		},
	}
	addTransactionFlags(cmd)
	cmd.Flags().Int64("version", 0, "expected version (default: current)")
	return cmd
}

func transactionsDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ok, err := confirm(cmd, fmt.Sprintf("Delete transaction %s?", args[0]))
			if err != nil || !ok {
				return err
			}

			if err := a.svc.Transactions.Delete(ctx, args[0]); err != nil {
				return err
			}
			printDeleted(cmd, "transaction", args[0])
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return cmd
}

func transactionsImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.ofx>",
		Short: "Import a bank statement",
		Long: `Import an OFX or QFX bank statement as transactions of one property.

Deposits are booked to --income-category and withdrawals to
--expense-category. Lines that were imported before are skipped, so the same
statement can be imported again after an interruption.`,
		Example: `  rentbook transactions import statement.qfx --property 6f1c... --income-category "Other income" --expense-category Repairs`,
		Args:    cobra.ExactArgs(1),
		RunE:    runTransactionsImport,
	}
	cmd.Flags().String("property", "", "property id to book the statement against")
	cmd.Flags().String("income-category", "", "category for deposits (id or name)")
	cmd.Flags().String("expense-category", "", "category for withdrawals (id or name)")
	cmd.Flags().String("method", "", "payment method id or name")
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	_ = cmd.MarkFlagRequired("property")
	return cmd
}

func runTransactionsImport(cmd *cobra.Command, args []string) error {
	ctx, a, err := openAuthed(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	path := filepath.Clean(args[0])
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read statement: %w", err)
	}

	parser := ofx.NewParser(a.cfg.Currency)
	drafts, err := parser.ParseFile(ctx, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	accounts, err := parser.GetAccounts(ctx, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to read accounts of %s: %w", filepath.Base(path), err)
	}

	out := cmd.OutOrStdout()
	if len(drafts) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No transactions in "+filepath.Base(path)))
		return nil
	}
	fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Found %d statement lines in %s (accounts: %s)",
		len(drafts), filepath.Base(path), strings.Join(accounts, ", "))))

	opts := service.ImportOptions{}
	opts.PropertyID, _ = cmd.Flags().GetString("property")
	for flag, dst := range map[string]*string{
		"income-category":  &opts.IncomeCategoryID,
		"expense-category": &opts.ExpenseCategoryID,
	} {
		ref, _ := cmd.Flags().GetString(flag)
		if *dst, err = categoryID(ctx, a.svc, ref); err != nil {
			return err
		}
	}
	methodRef, _ := cmd.Flags().GetString("method")
	if opts.PaymentMethodID, err = paymentMethodID(ctx, a.svc, methodRef); err != nil {
		return err
	}

	ok, err := confirm(cmd, fmt.Sprintf("Import %d lines into property %s?", len(drafts), opts.PropertyID))
	if err != nil || !ok {
		return err
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	importCtx, stop := handler.HandleInterrupts(ctx, "Import interrupted",
		"Lines imported so far are kept. Run the same import again to finish.")
	defer stop()

	progress := cli.NewImportProgress(cmd.ErrOrStderr(), "Importing")
	opts.Progress = progress.Update

	result, err := a.svc.Transactions.Import(importCtx, drafts, opts)
	progress.Finish()
	if err != nil {
		if handler.WasInterrupted() && errors.Is(err, importCtx.Err()) {
			fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Imported %d, skipped %d before the interruption",
				result.Created, result.Skipped)))
		}
		return err
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d transactions, skipped %d already imported or invalid",
		result.Created, result.Skipped)))
	return nil
}
