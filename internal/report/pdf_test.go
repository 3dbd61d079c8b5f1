package report

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Veraticus/rentbook/internal/model"
	"github.com/Veraticus/rentbook/internal/service"
	"github.com/Veraticus/rentbook/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ service.ReportWriter = (*PDFWriter)(nil)

func fixedClock() time.Time {
	return time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
}

func TestPDFWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewPDFWriter(&buf, WithPDFClock(fixedClock))
	require.NoError(t, err)

	require.NoError(t, w.Write(context.Background(), sampleSummary()))

	out := buf.Bytes()
	require.NotEmpty(t, out)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")), "output is not a PDF")
	assert.Contains(t, string(out[len(out)-16:]), "%%EOF")
}

func TestPDFWriter_ManyLinesSpanPages(t *testing.T) {
	sum := sampleSummary()
	sum.Transactions = nil
	for i := 0; i < 120; i++ {
		sum.Payments = append(sum.Payments, model.Payment{
			Base:   model.Base{ID: fmt.Sprintf("pay-%03d", i)},
			Date:   day(1 + i%28),
			Amount: decimal.NewFromInt(10),
		})
	}

	var few, many bytes.Buffer
	capped, err := NewPDFWriter(&few, WithPDFClock(fixedClock), WithMaxRows(5))
	require.NoError(t, err)
	full, err := NewPDFWriter(&many, WithPDFClock(fixedClock))
	require.NoError(t, err)

	require.NoError(t, capped.Write(context.Background(), sum))
	require.NoError(t, full.Write(context.Background(), sum))

	assert.Greater(t, many.Len(), few.Len())
	assert.Greater(t, bytes.Count(many.Bytes(), []byte("/Type /Page\n")), 1)
}

func TestPDFWriter_Errors(t *testing.T) {
	_, err := NewPDFWriter(nil)
	require.ErrorIs(t, err, storage.ErrNilParameter)

	w, err := NewPDFWriter(&bytes.Buffer{})
	require.NoError(t, err)

	//nolint:staticcheck // nil context is the case under test
	require.ErrorIs(t, w.Write(nil, sampleSummary()), storage.ErrNilContext)
	require.ErrorIs(t, w.Write(context.Background(), nil), storage.ErrNilParameter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, w.Write(ctx, sampleSummary()), context.Canceled)
}
