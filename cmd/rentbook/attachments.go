package main

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/Veraticus/rentbook/internal/cli"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/Veraticus/rentbook/internal/service"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func attachmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "attachments",
		Aliases: []string{"files"},
		Short:   "Attach leases, receipts, and invoices",
	}

	cmd.AddCommand(
		attachmentsUploadCmd(),
		attachmentsListCmd(),
		attachmentsGetCmd(),
		attachmentsDeleteCmd(),
	)
	return cmd
}

func attachmentsUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Attach a file to a property, payment, or transaction",
		Example: `  rentbook attachments upload lease.pdf --property 6f1c...
  rentbook attachments upload receipt.jpg --transaction 0b9e... --description "Plumber invoice"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			req := service.UploadRequest{EntityType: model.AttachProperty}
			req.PropertyID, _ = cmd.Flags().GetString("property")
			req.PaymentID, _ = cmd.Flags().GetString("payment")
			req.TransactionID, _ = cmd.Flags().GetString("transaction")
			req.Description, _ = cmd.Flags().GetString("description")
			req.ContentType, _ = cmd.Flags().GetString("content-type")

			switch {
			case req.TransactionID != "" && req.PaymentID != "":
				return fmt.Errorf("use either --payment or --transaction, not both")
			case req.TransactionID != "":
				req.EntityType = model.AttachTransaction
				if req.PropertyID == "" {
					t, err := a.svc.Transactions.Get(ctx, req.TransactionID, service.Includes{})
					if t, err = found(t, err, "transaction", req.TransactionID); err != nil {
						return err
					}
					req.PropertyID = t.PropertyID
				}
			case req.PaymentID != "":
				req.EntityType = model.AttachPayment
				if req.PropertyID == "" {
					p, err := a.svc.Payments.Get(ctx, req.PaymentID, service.Includes{})
					if p, err = found(p, err, "payment", req.PaymentID); err != nil {
						return err
					}
					req.PropertyID = p.PropertyID
				}
			case req.PropertyID == "":
				return fmt.Errorf("one of --property, --payment, or --transaction is required")
			}

			path := filepath.Clean(args[0])
			req.FileName = filepath.Base(path)
			if req.ContentType == "" {
				req.ContentType = mime.TypeByExtension(filepath.Ext(path))
			}

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer func() { _ = f.Close() }()

			att, err := a.svc.Attachments.Upload(ctx, req, f)
			if err != nil {
				return err
			}
			printCreated(cmd, "attachment", fmt.Sprintf("%s, %s", att.FileName, humanize.Bytes(uint64(att.Size))), att.ID) // #nosec G115 -- sizes are never negative
			return nil
		},
	}
	cmd.Flags().String("property", "", "property id")
	cmd.Flags().String("payment", "", "payment id")
	cmd.Flags().String("transaction", "", "transaction id")
	cmd.Flags().String("description", "", "what the file is")
	cmd.Flags().String("content-type", "", "MIME type (default: guessed from the extension)")
	return cmd
}

func attachmentsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List attachments",
		Long: `List attachments of a property (including those of its payments and
transactions), of one payment or transaction, or of one entity type.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			propertyID, _ := cmd.Flags().GetString("property")
			paymentID, _ := cmd.Flags().GetString("payment")
			transactionID, _ := cmd.Flags().GetString("transaction")
			entityType, _ := cmd.Flags().GetString("type")

			var atts []model.Attachment
			switch {
			case paymentID != "":
				atts, err = a.svc.Attachments.ListByPayment(ctx, paymentID)
			case transactionID != "":
				atts, err = a.svc.Attachments.ListByTransaction(ctx, transactionID)
			case propertyID != "":
				atts, err = a.svc.Attachments.ListByProperty(ctx, propertyID)
			case entityType != "":
				atts, err = a.svc.Attachments.ListByEntityType(ctx, model.AttachmentEntityType(entityType))
			default:
				return fmt.Errorf("one of --property, --payment, --transaction, or --type is required")
			}
			if err != nil {
				return err
			}

			if len(atts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No attachments found"))
				return nil
			}

			rows := make([][]string, 0, len(atts))
			for _, att := range atts {
				rows = append(rows, []string{
					att.ID, att.FileName, string(att.EntityType),
					humanize.Bytes(uint64(att.Size)), // #nosec G115 -- sizes are never negative
					humanize.Time(att.CreatedAt), att.Description,
				})
			}
			return cli.RenderTable(cmd.OutOrStdout(), []string{"ID", "FILE", "ON", "SIZE", "ADDED", "DESCRIPTION"}, rows)
		},
	}
	cmd.Flags().String("property", "", "property id")
	cmd.Flags().String("payment", "", "payment id")
	cmd.Flags().String("transaction", "", "transaction id")
	cmd.Flags().String("type", "", "property, payment or transaction")
	return cmd
}

func attachmentsGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Save an attachment to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			att, rc, err := a.svc.Attachments.Open(ctx, args[0])
			if err != nil {
				return err
			}
			defer func() { _ = rc.Close() }()

			out, _ := cmd.Flags().GetString("output")
			if out == "" {
				out = att.FileName
			}
			f, err := os.OpenFile(filepath.Clean(out), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			n, err := io.Copy(f, rc)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Saved %s (%s)", out, humanize.Bytes(uint64(n))))) // #nosec G115 -- io.Copy never returns a negative count
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "destination file (default: the original file name)")
	return cmd
}

func attachmentsDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an attachment and its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := openAuthed(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ok, err := confirm(cmd, fmt.Sprintf("Delete attachment %s?", args[0]))
			if err != nil || !ok {
				return err
			}

			if err := a.svc.Attachments.Delete(ctx, args[0]); err != nil {
				return err
			}
			printDeleted(cmd, "attachment", args[0])
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return cmd
}
