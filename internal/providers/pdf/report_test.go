package pdf

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReport(t *testing.T) {
	p := New("ByteBills")

	r, err := p.GenerateReport(context.Background(), ReportData{
		Title:       "Revenue report",
		Owner:       "alice@acme.test",
		Period:      "January 1, 2025 - March 31, 2025",
		GeneratedAt: "April 1, 2025",
		Rows: []ReportRow{
			{Month: "2025-01", Kind: "Invoice", Status: "paid", Currency: "USD", Count: 2, Subtotal: "$250.00", Tax: "$25.00", Total: "$275.00"},
			{Month: "2025-02", Kind: "Receipt", Currency: "EUR", Count: 1, Subtotal: "€10.00", Tax: "€0.00", Total: "€10.00"},
		},
		Totals: []ReportTotal{{Currency: "USD", Count: 2, Total: "$275.00"}},
	})
	require.NoError(t, err)

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestGenerateReportHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New("ByteBills").GenerateReport(ctx, ReportData{Rows: []ReportRow{{Month: "2025-01"}}})
	assert.ErrorIs(t, err, context.Canceled)
}
