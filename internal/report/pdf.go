package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/service"
	"github.com/Veraticus/rentbook/internal/storage"
	"github.com/phpdave11/gofpdf"
)

// DefaultMaxRows caps the detail table of a PDF statement.
const DefaultMaxRows = 500

var detailCols = []float64{24, 20, 38, 70, 30}

// PDFWriter renders statements as A4 PDF documents.
type PDFWriter struct {
	out     io.Writer
	now     func() time.Time
	maxRows int
}

// PDFOption configures a PDFWriter.
type PDFOption func(*PDFWriter)

// WithPDFClock sets the clock used for the footer timestamp.
func WithPDFClock(now func() time.Time) PDFOption {
	return func(w *PDFWriter) { w.now = now }
}

// WithMaxRows caps the number of detail rows.
func WithMaxRows(n int) PDFOption {
	return func(w *PDFWriter) {
		if n > 0 {
			w.maxRows = n
		}
	}
}

// NewPDFWriter creates a writer that renders into out.
func NewPDFWriter(out io.Writer, opts ...PDFOption) (*PDFWriter, error) {
	if out == nil {
		return nil, fmt.Errorf("%w: output writer", storage.ErrNilParameter)
	}
	w := &PDFWriter{out: out, now: time.Now, maxRows: DefaultMaxRows}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Write implements service.ReportWriter.
func (w *PDFWriter) Write(ctx context.Context, summary *service.Summary) error {
	if ctx == nil {
		return storage.ErrNilContext
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	st, err := Build(summary)
	if err != nil {
		return err
	}

	pdf := w.render(st)
	if err := pdf.Output(w.out); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}

	common.LogInfo("Wrote PDF statement", common.Fields{
		"property": st.Property,
		"lines":    len(st.Lines),
		"period":   st.Period(),
	})
	return nil
}

func (w *PDFWriter) render(st *Statement) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(false, 14)
	pdf.AddPage()

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr(st.Title))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, tr("Property: "+st.Property))
	pdf.Ln(5)
	if st.Address != "" {
		pdf.Cell(0, 6, tr(st.Address))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, "Period: "+st.Period())
	pdf.Ln(10)

	// Totals.
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 10)

	sumW := 45.5
	heads := []string{"Rent", "Other income", "Expenses", "Net"}
	for i, h := range heads {
		ln := 0
		if i == len(heads)-1 {
			ln = 1
		}
		pdf.CellFormat(sumW, 9, h+" ("+st.Currency+")", "1", ln, "C", true, 0, "")
	}
	pdf.SetFont("Helvetica", "", 10)
	values := []string{FormatMoney(st.RentCollected), FormatMoney(st.Income), FormatMoney(st.Expenses), FormatMoney(st.Net)}
	for i, v := range values {
		ln := 0
		if i == len(values)-1 {
			ln = 1
		}
		pdf.CellFormat(sumW, 9, v, "1", ln, "C", false, 0, "")
	}
	pdf.Ln(6)

	if len(st.Categories) > 0 {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(245, 245, 245)
		pdf.CellFormat(90, 8, "CATEGORY", "1", 0, "L", true, 0, "")
		pdf.CellFormat(30, 8, "TYPE", "1", 0, "C", true, 0, "")
		pdf.CellFormat(22, 8, "COUNT", "1", 0, "C", true, 0, "")
		pdf.CellFormat(40, 8, "AMOUNT", "1", 1, "R", true, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		for _, c := range st.Categories {
			pdf.CellFormat(90, 7, tr(trimTo(c.Name, 50)), "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 7, string(c.Type), "1", 0, "C", false, 0, "")
			pdf.CellFormat(22, 7, fmt.Sprintf("%d", c.Count), "1", 0, "C", false, 0, "")
			pdf.CellFormat(40, 7, FormatMoney(c.Amount), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(6)
	}

	detailHeader(pdf)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(30, 30, 30)

	for i, line := range st.Lines {
		if i >= w.maxRows {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(0, 8, fmt.Sprintf("%d more entries not shown", len(st.Lines)-i), "1", 1, "C", false, 0, "")
			break
		}

		if pdf.GetY() > 265 {
			pdf.AddPage()
			detailHeader(pdf)
			pdf.SetFont("Helvetica", "", 9)
		}

		pdf.CellFormat(detailCols[0], 8, line.Date.Format(time.DateOnly), "1", 0, "C", false, 0, "")
		pdf.CellFormat(detailCols[1], 8, strings.ToUpper(line.Kind), "1", 0, "C", false, 0, "")
		pdf.CellFormat(detailCols[2], 8, tr(trimTo(line.Category, 20)), "1", 0, "L", false, 0, "")

		x, y := pdf.GetX(), pdf.GetY()
		pdf.MultiCell(detailCols[3], 8, tr(trimTo(line.Description, 80)), "1", "L", false)
		usedH := pdf.GetY() - y
		pdf.SetXY(x+detailCols[3], y)

		pdf.CellFormat(detailCols[4], usedH, FormatMoney(line.Amount), "1", 1, "R", false, 0, "")
	}

	pdf.SetY(-18)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 10, "Generated by rentbook "+w.now().UTC().Format(time.RFC3339), "", 0, "C", false, 0, "")

	return pdf
}

func detailHeader(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(245, 245, 245)
	pdf.SetTextColor(20, 20, 20)
	pdf.CellFormat(detailCols[0], 8, "DATE", "1", 0, "C", true, 0, "")
	pdf.CellFormat(detailCols[1], 8, "KIND", "1", 0, "C", true, 0, "")
	pdf.CellFormat(detailCols[2], 8, "CATEGORY", "1", 0, "L", true, 0, "")
	pdf.CellFormat(detailCols[3], 8, "DESCRIPTION", "1", 0, "L", true, 0, "")
	pdf.CellFormat(detailCols[4], 8, "AMOUNT", "1", 1, "R", true, 0, "")
}
