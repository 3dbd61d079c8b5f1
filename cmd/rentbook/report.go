package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/rentbook/internal/cli"
	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/config"
	"github.com/Veraticus/rentbook/internal/report"
	"github.com/Veraticus/rentbook/internal/service"
	"github.com/Veraticus/rentbook/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize a property's finances",
		Long: `Total a property's rent, other income, and expenses over a date range and
print the result, render it as a PDF statement, or write it to Google Sheets.`,
	}

	cmd.AddCommand(reportSummaryCmd(), reportPDFCmd(), reportSheetsCmd())
	return cmd
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().String("property", "", "property id")
	addRangeFlags(cmd)
	_ = cmd.MarkFlagRequired("property")
}

// reportScope opens the app and reads the property and range the report
// flags select.
type reportScope struct {
	*app
	ctx        context.Context
	propertyID string
	start, end time.Time
}

func openReport(cmd *cobra.Command) (*reportScope, error) {
	ctx, a, err := openAuthed(cmd)
	if err != nil {
		return nil, err
	}
	start, end, err := dateRange(cmd)
	if err != nil {
		a.Close()
		return nil, err
	}
	propertyID, _ := cmd.Flags().GetString("property")
	return &reportScope{app: a, ctx: ctx, propertyID: propertyID, start: start, end: end}, nil
}

// export writes the selected summary with w.
func (r *reportScope) export(w service.ReportWriter) error {
	_, err := r.svc.Summaries.Export(r.ctx, w, r.propertyID, r.start, r.end)
	return err
}

func reportSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print a property summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := openReport(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			sum, err := r.svc.Summaries.PropertySummary(r.ctx, r.propertyID, r.start, r.end)
			if err != nil {
				return err
			}
			st, err := report.Build(sum)
			if err != nil {
				return err
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Period:        %s\n", st.Period())
			fmt.Fprintf(&b, "Rent:          %s %s\n", report.FormatMoney(st.RentCollected), st.Currency)
			fmt.Fprintf(&b, "Other income:  %s %s\n", report.FormatMoney(st.Income), st.Currency)
			fmt.Fprintf(&b, "Expenses:      %s %s\n", report.FormatMoney(st.Expenses), st.Currency)
			fmt.Fprintf(&b, "Net:           %s %s", report.FormatMoney(st.Net), st.Currency)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.RenderBox(st.Property, b.String()))

			if len(st.Categories) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(st.Categories))
			for _, c := range st.Categories {
				rows = append(rows, []string{c.Name, string(c.Type), fmt.Sprint(c.Count), report.FormatMoney(c.Amount)})
			}
			return cli.RenderTable(out, []string{"CATEGORY", "TYPE", "COUNT", "AMOUNT"}, rows)
		},
	}
	addReportFlags(cmd)
	return cmd
}

func reportPDFCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pdf",
		Short:   "Render a PDF statement",
		Example: `  rentbook report pdf --property 6f1c... --from 2024-01-01 --to 2024-12-31 -o elm-2024.pdf`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := openReport(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			out, _ := cmd.Flags().GetString("output")
			if out == "" {
				out = fmt.Sprintf("statement-%s-%s.pdf", r.start.Format("20060102"), r.end.Format("20060102"))
			}
			out = filepath.Clean(out)
			maxRows, _ := cmd.Flags().GetInt("max-rows")

			f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			w, err := report.NewPDFWriter(f, report.WithMaxRows(maxRows))
			if err == nil {
				err = r.export(w)
			}
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				_ = os.Remove(out)
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Wrote "+out))
			return nil
		},
	}
	addReportFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "PDF file to write (default: statement-<from>-<to>.pdf)")
	cmd.Flags().Int("max-rows", report.DefaultMaxRows, "maximum ledger rows to print")
	return cmd
}

func reportSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Write the summary to Google Sheets",
		Long: `Write the summary to the Statement tab of a Google spreadsheet.

Authenticate with a service account (sheets.service_account_path) or with
OAuth credentials and a refresh token from 'rentbook sheets auth'. A new
spreadsheet is created unless sheets.spreadsheet_id is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadSheetsConfig(viper.GetViper())
			if err != nil {
				return common.NewUserError("Google Sheets is not configured; see 'rentbook report sheets --help'", err)
			}
			if name, _ := cmd.Flags().GetString("spreadsheet"); name != "" {
				cfg.SpreadsheetName = name
			}

			r, err := openReport(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			writer, err := sheets.NewWriter(r.ctx, *cfg, slog.Default())
			if err != nil {
				return err
			}
			if err := r.export(writer); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Wrote statement to Google Sheets"))
			return nil
		},
	}
	addReportFlags(cmd)
	cmd.Flags().String("spreadsheet", "", "spreadsheet name to use when no id is configured")
	return cmd
}
